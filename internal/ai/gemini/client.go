package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/harsh16kumar/jobpilot/internal/secrets"
	"google.golang.org/genai"
)

const defaultModel = "gemini-2.5-flash"

// Generator wraps the Google GenAI client to provide simple prompt-based
// interactions. Credentials come from a secrets.Provider so request volume
// can be rotated across several API keys; one underlying client is kept per
// distinct key.
type Generator struct {
	provider    secrets.Provider
	modelName   string
	temperature float32

	clientMu sync.Mutex
	clients  map[string]*genai.Client
}

// NewGenerator creates a Generator for the Gemini API backend.
func NewGenerator(provider secrets.Provider, model string, temperature float32) (*Generator, error) {
	if provider == nil {
		return nil, errors.New("credential provider is required")
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	return &Generator{
		provider:    provider,
		modelName:   model,
		temperature: temperature,
		clients:     make(map[string]*genai.Client),
	}, nil
}

// GenerateContent sends the prompt to Gemini and returns the combined textual response.
func (g *Generator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.provider == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	client, err := g.clientForPickedKey(ctx)
	if err != nil {
		return "", err
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	}

	resp, err := client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	return output, nil
}

func (g *Generator) clientForPickedKey(ctx context.Context) (*genai.Client, error) {
	key, err := g.provider.Pick()
	if err != nil {
		return nil, fmt.Errorf("picking gemini credential: %w", err)
	}

	g.clientMu.Lock()
	defer g.clientMu.Unlock()

	if client, ok := g.clients[key]; ok {
		return client, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	g.clients[key] = client
	return client, nil
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.modelName
}
