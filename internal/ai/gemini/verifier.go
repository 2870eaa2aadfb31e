package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/harsh16kumar/jobpilot/internal/ai"
	"github.com/harsh16kumar/jobpilot/internal/decode"
	"github.com/harsh16kumar/jobpilot/internal/logger"
	"go.uber.org/zap"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

//go:embed verify_prompt.md
var verifyPromptTemplate string

const defaultMaxLogLength = 200

// Verifier checks candidate-declared qualifications against the resume JSON
// using an LLM and a score threshold.
type Verifier struct {
	generator contentGenerator
	threshold int
	log       *zap.Logger
	maxLogLen int
}

func NewVerifier(generator contentGenerator, threshold int, maxLogLength int, log *zap.Logger) *Verifier {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Verifier{
		generator: generator,
		threshold: threshold,
		log:       log,
		maxLogLen: maxLogLength,
	}
}

func (v *Verifier) Verify(ctx context.Context, resume map[string]any, claims ai.Claims) (*ai.Assessment, error) {
	if len(resume) == 0 {
		return nil, fmt.Errorf("resume data is required")
	}

	resumeJSON, err := json.MarshalIndent(resume, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal resume payload: %w", err)
	}

	prompt := buildVerifyPrompt(string(resumeJSON), claims)

	v.log.Debug("verification request",
		zap.String("cgpa", claims.CGPA),
		zap.String("skill", claims.Skill),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, v.maxLogLen)),
	)

	raw, err := v.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	v.log.Debug("verification response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, v.maxLogLen)),
	)

	data, err := decode.Extract[map[string]any](raw)
	if err != nil {
		return nil, fmt.Errorf("parse verifier response: %w", err)
	}

	assessment := &ai.Assessment{
		Decision: "Fail",
		Score:    coerceInt(data["score"]),
		Reason:   coerceString(data["reason"]),
		Raw:      raw,
	}
	if strings.EqualFold(coerceString(data["decision"]), "pass") {
		assessment.Decision = "Pass"
	}
	assessment.Pass = assessment.Decision == "Pass" || assessment.Score >= v.threshold

	return assessment, nil
}

func buildVerifyPrompt(resumeJSON string, claims ai.Claims) string {
	prompt := strings.ReplaceAll(verifyPromptTemplate, "{{RESUME_JSON}}", resumeJSON)
	prompt = strings.ReplaceAll(prompt, "{{CGPA}}", claims.CGPA)
	prompt = strings.ReplaceAll(prompt, "{{SKILL}}", claims.Skill)
	return prompt
}

func coerceInt(v any) int {
	switch val := v.(type) {
	case float64:
		return int(val)
	case int:
		return val
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
