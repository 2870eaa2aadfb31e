package ai

import "context"

// Generator is a stateless single-turn LLM call. Implementations own model
// selection, credentials, and transport.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Assessment is the verdict of a qualification verification pass.
type Assessment struct {
	Decision string
	Pass     bool
	Score    int
	Reason   string
	Raw      string
}

// Claims carries the candidate-declared qualifications to verify against the
// resume contents.
type Claims struct {
	CGPA  string
	Skill string
}

// Verifier judges candidate-declared claims against resume data.
type Verifier interface {
	Verify(ctx context.Context, resume map[string]any, claims Claims) (*Assessment, error)
}
