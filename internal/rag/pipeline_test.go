package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/harsh16kumar/jobpilot/internal/retrieval"
	"go.uber.org/zap"
)

// scriptedGenerator answers each prompt by matching a marker substring, so a
// single stub can play router, answerer, grader and corrector.
type scriptedGenerator struct {
	responses map[string]string
	errs      map[string]error
	prompts   []string
}

func (s *scriptedGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	for marker, err := range s.errs {
		if strings.Contains(prompt, marker) {
			return "", err
		}
	}
	for marker, response := range s.responses {
		if strings.Contains(prompt, marker) {
			return response, nil
		}
	}
	return "", errors.New("unmatched prompt: " + prompt)
}

func (s *scriptedGenerator) countPrompts(marker string) int {
	n := 0
	for _, p := range s.prompts {
		if strings.Contains(p, marker) {
			n++
		}
	}
	return n
}

// Prompt markers unique to each template.
const (
	routeMarker   = "routing AI"
	answerMarker  = "based on provided context"
	gradeMarker   = "strict answer evaluator"
	correctMarker = "graded as insufficient"
)

type stubRetriever struct {
	indices map[string][]string
	queried []string
	err     error
}

func (s *stubRetriever) HasIndex(index string) bool {
	_, ok := s.indices[index]
	return ok
}

func (s *stubRetriever) Retrieve(_ context.Context, index, _ string, _ int) ([]string, error) {
	s.queried = append(s.queried, index)
	if s.err != nil {
		return nil, s.err
	}
	return s.indices[index], nil
}

func TestPipelinePassingAnswer(t *testing.T) {
	generator := &scriptedGenerator{responses: map[string]string{
		routeMarker:  `{"source": "resume"}`,
		answerMarker: "The candidate knows Python and Go.",
		gradeMarker:  `{"grade": "pass", "feedback": "complete"}`,
	}}
	retriever := &stubRetriever{indices: map[string][]string{
		retrieval.ResumeIndex: {"skills: python, go"},
	}}

	answer, err := New(generator, retriever, zap.NewNop()).Run(context.Background(), "what languages?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if answer.Source != SourceResume {
		t.Fatalf("unexpected source: %q", answer.Source)
	}
	if !answer.Passed || answer.Corrected {
		t.Fatalf("expected a passing uncorrected answer, got %+v", answer)
	}
	if answer.Text != "The candidate knows Python and Go." {
		t.Fatalf("unexpected text: %q", answer.Text)
	}

	// The retrieved passage must reach the answer prompt.
	for _, p := range generator.prompts {
		if strings.Contains(p, answerMarker) && !strings.Contains(p, "skills: python, go") {
			t.Fatalf("expected context in answer prompt: %q", p)
		}
	}
}

func TestPipelineRoutesBoth(t *testing.T) {
	generator := &scriptedGenerator{responses: map[string]string{
		routeMarker:  `{"source": "both"}`,
		answerMarker: "combined answer",
		gradeMarker:  `{"grade": "pass", "feedback": ""}`,
	}}
	retriever := &stubRetriever{indices: map[string][]string{
		retrieval.ResumeIndex:  {"resume chunk"},
		retrieval.ProjectIndex: {"project chunk"},
	}}

	answer, err := New(generator, retriever, zap.NewNop()).Run(context.Background(), "skills and projects?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if answer.Source != SourceBoth {
		t.Fatalf("unexpected source: %q", answer.Source)
	}
	if len(retriever.queried) != 2 {
		t.Fatalf("expected both indices queried, got %v", retriever.queried)
	}
}

func TestPipelineRouteFallbacks(t *testing.T) {
	cases := []struct {
		name     string
		response string
		want     string
	}{
		{name: "free text project", response: "I would look at the project data.", want: SourceProject},
		{name: "free text both", response: "Both the resume and project bases apply.", want: SourceBoth},
		{name: "unusable", response: "42", want: SourceResume},
		{name: "unknown source value", response: `{"source": "sql"}`, want: SourceResume},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			generator := &scriptedGenerator{responses: map[string]string{
				routeMarker:  tc.response,
				answerMarker: "answer",
				gradeMarker:  `{"grade": "pass", "feedback": ""}`,
			}}
			retriever := &stubRetriever{indices: map[string][]string{
				retrieval.ResumeIndex:  {"r"},
				retrieval.ProjectIndex: {"p"},
			}}

			answer, err := New(generator, retriever, zap.NewNop()).Run(context.Background(), "q")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if answer.Source != tc.want {
				t.Fatalf("expected source %q, got %q", tc.want, answer.Source)
			}
		})
	}
}

func TestPipelineRouterFailureDefaultsToResume(t *testing.T) {
	generator := &scriptedGenerator{
		errs: map[string]error{routeMarker: errors.New("quota exceeded")},
		responses: map[string]string{
			answerMarker: "answer",
			gradeMarker:  `{"grade": "pass", "feedback": ""}`,
		},
	}
	retriever := &stubRetriever{indices: map[string][]string{
		retrieval.ResumeIndex: {"r"},
	}}

	answer, err := New(generator, retriever, zap.NewNop()).Run(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer.Source != SourceResume {
		t.Fatalf("expected resume default, got %q", answer.Source)
	}
}

func TestPipelineNoIndices(t *testing.T) {
	generator := &scriptedGenerator{responses: map[string]string{
		routeMarker: `{"source": "both"}`,
	}}
	retriever := &stubRetriever{}

	answer, err := New(generator, retriever, zap.NewNop()).Run(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(answer.Text, "No indexed data") {
		t.Fatalf("expected sentinel answer, got %q", answer.Text)
	}
	// No generation or grading happens without context.
	if generator.countPrompts(answerMarker) != 0 || generator.countPrompts(gradeMarker) != 0 {
		t.Fatalf("expected generation to be skipped, prompts: %v", generator.prompts)
	}
}

func TestPipelineCorrectsOnceOnFailingGrade(t *testing.T) {
	generator := &scriptedGenerator{responses: map[string]string{
		routeMarker:   `{"source": "resume"}`,
		answerMarker:  "vague answer",
		gradeMarker:   `{"grade": "fail", "feedback": "too vague"}`,
		correctMarker: "precise answer",
	}}
	retriever := &stubRetriever{indices: map[string][]string{
		retrieval.ResumeIndex: {"r"},
	}}

	answer, err := New(generator, retriever, zap.NewNop()).Run(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if answer.Passed {
		t.Fatalf("expected failing grade to be recorded")
	}
	if !answer.Corrected || answer.Text != "precise answer" {
		t.Fatalf("expected corrected answer, got %+v", answer)
	}
	if answer.Feedback != "too vague" {
		t.Fatalf("unexpected feedback: %q", answer.Feedback)
	}

	// Exactly one correction and no second grading pass.
	if generator.countPrompts(correctMarker) != 1 {
		t.Fatalf("expected exactly one corrective call, got %d", generator.countPrompts(correctMarker))
	}
	if generator.countPrompts(gradeMarker) != 1 {
		t.Fatalf("expected a single grading pass, got %d", generator.countPrompts(gradeMarker))
	}
}

func TestPipelineUnparseableGrade(t *testing.T) {
	generator := &scriptedGenerator{responses: map[string]string{
		routeMarker:   `{"source": "resume"}`,
		answerMarker:  "some answer",
		gradeMarker:   "Looks good to me!",
		correctMarker: "revised answer",
	}}
	retriever := &stubRetriever{indices: map[string][]string{
		retrieval.ResumeIndex: {"r"},
	}}

	answer, err := New(generator, retriever, zap.NewNop()).Run(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if answer.Passed {
		t.Fatalf("unparseable grade must fail")
	}
	if answer.Feedback != "Could not parse grader response." {
		t.Fatalf("unexpected feedback: %q", answer.Feedback)
	}
	if !answer.Corrected {
		t.Fatalf("expected corrective pass after parse failure")
	}
}

func TestPipelineRetrieveErrorSurfaces(t *testing.T) {
	generator := &scriptedGenerator{responses: map[string]string{
		routeMarker: `{"source": "resume"}`,
	}}
	retriever := &stubRetriever{
		indices: map[string][]string{retrieval.ResumeIndex: {"r"}},
		err:     errors.New("store closed"),
	}

	if _, err := New(generator, retriever, zap.NewNop()).Run(context.Background(), "q"); err == nil {
		t.Fatalf("expected retrieval error to surface")
	}
}
