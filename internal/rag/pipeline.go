// Package rag implements the agentic answer pipeline: a query is routed to
// one or two knowledge partitions, context is retrieved by nearest-neighbor
// search, an answer is generated and graded, and a single corrective retry
// is issued when grading fails. Each invocation is stateless end to end.
package rag

import (
	"context"
	"strings"

	_ "embed"

	"github.com/harsh16kumar/jobpilot/internal/ai"
	"github.com/harsh16kumar/jobpilot/internal/decode"
	"github.com/harsh16kumar/jobpilot/internal/retrieval"
	"go.uber.org/zap"
)

// Routing decisions.
const (
	SourceResume  = "resume"
	SourceProject = "project"
	SourceBoth    = "both"
)

const (
	// topK is the nearest-neighbor count per selected index.
	topK = 4

	// sentinelNoData is returned when no index exists for the routed
	// source; generation is skipped entirely in that case.
	sentinelNoData = "No indexed data is available for this question yet. Build the resume and project indices first."

	gradeParseFailFeedback = "Could not parse grader response."
)

//go:embed route_prompt.md
var routePromptTemplate string

//go:embed answer_prompt.md
var answerPromptTemplate string

//go:embed grade_prompt.md
var gradePromptTemplate string

//go:embed correct_prompt.md
var correctPromptTemplate string

// Retriever is the slice of the retrieval layer the pipeline needs.
type Retriever interface {
	HasIndex(index string) bool
	Retrieve(ctx context.Context, index, query string, topK int) ([]string, error)
}

// Answer is the transient result of one pipeline invocation.
type Answer struct {
	Query     string
	Source    string
	Text      string
	Passed    bool
	Feedback  string
	Corrected bool
}

// Pipeline wires the router, retriever, grader and the one-shot correction
// together. Independent queries may run concurrently.
type Pipeline struct {
	generator ai.Generator
	retriever Retriever
	logger    *zap.Logger
}

func New(generator ai.Generator, retriever Retriever, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		generator: generator,
		retriever: retriever,
		logger:    logger,
	}
}

// Run executes ROUTE -> RETRIEVE -> GRADE -> (PASS | CORRECT) for one query.
func (p *Pipeline) Run(ctx context.Context, query string) (*Answer, error) {
	source := p.route(ctx, query)

	p.logger.Debug("query routed",
		zap.String("query", query),
		zap.String("source", source),
	)

	answer := &Answer{Query: query, Source: source}

	contextText, found, err := p.retrieve(ctx, query, source)
	if err != nil {
		return nil, err
	}
	if !found {
		p.logger.Info("no indices available for routed source", zap.String("source", source))
		answer.Text = sentinelNoData
		return answer, nil
	}

	generated, err := p.generator.GenerateContent(ctx, buildAnswerPrompt(contextText, query))
	if err != nil {
		return nil, err
	}
	answer.Text = generated

	passed, feedback := p.grade(ctx, query, generated)
	answer.Passed = passed
	answer.Feedback = feedback

	if passed {
		return answer, nil
	}

	p.logger.Info("answer failed grading, correcting once",
		zap.String("feedback", feedback),
	)

	// Exactly one corrective call; the corrected answer is returned without
	// a second grading pass.
	corrected, err := p.generator.GenerateContent(ctx, buildCorrectPrompt(query, generated, feedback))
	if err != nil {
		return nil, err
	}

	answer.Text = corrected
	answer.Corrected = true
	return answer, nil
}

// route classifies the query into resume/project/both. Any routing failure
// degrades to the resume default; routing never inspects document content.
func (p *Pipeline) route(ctx context.Context, query string) string {
	raw, err := p.generator.GenerateContent(ctx, buildRoutePrompt(query))
	if err != nil {
		p.logger.Warn("routing call failed, defaulting to resume", zap.Error(err))
		return SourceResume
	}

	if decision, err := decode.Extract[struct {
		Source string `json:"source"`
	}](raw); err == nil {
		switch strings.ToLower(strings.TrimSpace(decision.Source)) {
		case SourceResume, SourceProject, SourceBoth:
			return strings.ToLower(strings.TrimSpace(decision.Source))
		}
	}

	// Fall back to keyword markers in the free-text response.
	lower := strings.ToLower(raw)
	hasProject := strings.Contains(lower, SourceProject)
	hasResume := strings.Contains(lower, SourceResume)
	switch {
	case hasProject && hasResume:
		return SourceBoth
	case hasProject:
		return SourceProject
	default:
		return SourceResume
	}
}

// retrieve runs k-NN search against every selected index that exists and
// concatenates the passages. found is false when no selected index exists.
func (p *Pipeline) retrieve(ctx context.Context, query, source string) (string, bool, error) {
	var indices []string
	if source == SourceResume || source == SourceBoth {
		indices = append(indices, retrieval.ResumeIndex)
	}
	if source == SourceProject || source == SourceBoth {
		indices = append(indices, retrieval.ProjectIndex)
	}

	var passages []string
	found := false
	for _, index := range indices {
		if !p.retriever.HasIndex(index) {
			p.logger.Debug("index absent, skipping", zap.String("index", index))
			continue
		}
		found = true

		texts, err := p.retriever.Retrieve(ctx, index, query, topK)
		if err != nil {
			return "", false, err
		}
		passages = append(passages, texts...)
	}

	return strings.Join(passages, "\n\n"), found, nil
}

// grade runs the independent evaluator call. Transport or parse failures are
// treated as a fail verdict with diagnostic feedback, never as an error.
func (p *Pipeline) grade(ctx context.Context, query, answer string) (bool, string) {
	raw, err := p.generator.GenerateContent(ctx, buildGradePrompt(query, answer))
	if err != nil {
		p.logger.Warn("grading call failed", zap.Error(err))
		return false, "Grader call failed: " + err.Error()
	}

	verdict, err := decode.Extract[struct {
		Grade    string `json:"grade"`
		Feedback string `json:"feedback"`
	}](raw)
	if err != nil {
		p.logger.Warn("grader response unparseable",
			zap.String("response", raw),
			zap.Error(err),
		)
		return false, gradeParseFailFeedback
	}

	return strings.EqualFold(strings.TrimSpace(verdict.Grade), "pass"), verdict.Feedback
}

func buildRoutePrompt(query string) string {
	return strings.ReplaceAll(routePromptTemplate, "{{QUERY}}", query)
}

func buildAnswerPrompt(contextText, query string) string {
	prompt := strings.ReplaceAll(answerPromptTemplate, "{{CONTEXT}}", contextText)
	return strings.ReplaceAll(prompt, "{{QUERY}}", query)
}

func buildGradePrompt(query, answer string) string {
	prompt := strings.ReplaceAll(gradePromptTemplate, "{{QUERY}}", query)
	return strings.ReplaceAll(prompt, "{{ANSWER}}", answer)
}

func buildCorrectPrompt(query, answer, feedback string) string {
	prompt := strings.ReplaceAll(correctPromptTemplate, "{{FEEDBACK}}", feedback)
	prompt = strings.ReplaceAll(prompt, "{{QUERY}}", query)
	return strings.ReplaceAll(prompt, "{{ANSWER}}", answer)
}
