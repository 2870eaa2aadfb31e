package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/harsh16kumar/jobpilot/internal/ai"
	"go.uber.org/zap"
)

type stubGenerator struct {
	response   string
	err        error
	lastPrompt string
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func TestVerifierPass(t *testing.T) {
	stub := &stubGenerator{response: `{"decision": "Pass", "score": 85, "reason": "CGPA and skill are supported"}`}
	verifier := NewVerifier(stub, 60, 0, zap.NewNop())

	resume := map[string]any{"cgpa": 8.5, "languages": []string{"Python"}}
	assessment, err := verifier.Verify(context.Background(), resume, ai.Claims{CGPA: "8.5", Skill: "python"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if assessment.Decision != "Pass" || !assessment.Pass {
		t.Fatalf("expected pass, got %+v", assessment)
	}
	if assessment.Score != 85 {
		t.Fatalf("expected score 85, got %d", assessment.Score)
	}
	if assessment.Reason == "" {
		t.Fatalf("expected reason to be populated")
	}

	if !strings.Contains(stub.lastPrompt, "8.5") || !strings.Contains(stub.lastPrompt, "python") {
		t.Fatalf("expected claims in the prompt")
	}
	if !strings.Contains(stub.lastPrompt, `"cgpa": 8.5`) {
		t.Fatalf("expected resume JSON in the prompt")
	}
}

func TestVerifierFail(t *testing.T) {
	stub := &stubGenerator{response: `{"decision": "fail", "score": 20, "reason": "skill not found"}`}
	verifier := NewVerifier(stub, 60, 0, zap.NewNop())

	assessment, err := verifier.Verify(context.Background(), map[string]any{"name": "x"}, ai.Claims{Skill: "rust"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if assessment.Decision != "Fail" || assessment.Pass {
		t.Fatalf("expected fail, got %+v", assessment)
	}
}

func TestVerifierThresholdOverridesDecision(t *testing.T) {
	// A failing decision with a score at or above the threshold still passes.
	stub := &stubGenerator{response: `{"decision": "Fail", "score": 70}`}
	verifier := NewVerifier(stub, 60, 0, zap.NewNop())

	assessment, err := verifier.Verify(context.Background(), map[string]any{"name": "x"}, ai.Claims{CGPA: "9"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !assessment.Pass {
		t.Fatalf("expected score above threshold to pass, got %+v", assessment)
	}
	if assessment.Decision != "Fail" {
		t.Fatalf("decision must reflect the model verdict, got %q", assessment.Decision)
	}
}

func TestVerifierCoercesStringScore(t *testing.T) {
	stub := &stubGenerator{response: "```json\n{\"decision\": \"Pass\", \"score\": \"88\", \"reason\": \"ok\"}\n```"}
	verifier := NewVerifier(stub, 60, 0, zap.NewNop())

	assessment, err := verifier.Verify(context.Background(), map[string]any{"name": "x"}, ai.Claims{CGPA: "9"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if assessment.Score != 88 {
		t.Fatalf("expected coerced score, got %d", assessment.Score)
	}
}

func TestVerifierErrors(t *testing.T) {
	t.Run("empty resume", func(t *testing.T) {
		verifier := NewVerifier(&stubGenerator{}, 60, 0, zap.NewNop())
		if _, err := verifier.Verify(context.Background(), nil, ai.Claims{CGPA: "9"}); err == nil {
			t.Fatalf("expected error for empty resume")
		}
	})

	t.Run("generator failure", func(t *testing.T) {
		stub := &stubGenerator{err: errors.New("quota exceeded")}
		verifier := NewVerifier(stub, 60, 0, zap.NewNop())
		if _, err := verifier.Verify(context.Background(), map[string]any{"name": "x"}, ai.Claims{CGPA: "9"}); err == nil {
			t.Fatalf("expected generator error to surface")
		}
	})

	t.Run("unparseable response", func(t *testing.T) {
		stub := &stubGenerator{response: "I would say this looks fine."}
		verifier := NewVerifier(stub, 60, 0, zap.NewNop())
		if _, err := verifier.Verify(context.Background(), map[string]any{"name": "x"}, ai.Claims{CGPA: "9"}); err == nil {
			t.Fatalf("expected parse error")
		}
	})
}
