package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/moodmix/internal/shared"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiService implements [Generator] against the Gemini API.
type GeminiService struct {
	models *genai.Models
	model  string
}

// GeminiOpts configures a [GeminiService].
type GeminiOpts struct {
	APIKey     string
	Model      string       // defaults to gemini-2.0-flash
	Endpoint   string       // overrides the API base URL (tests, proxies)
	HTTPClient *http.Client // optional
}

// NewGeminiService creates a generator for the configured model.
func NewGeminiService(ctx context.Context, opts GeminiOpts) (*GeminiService, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini api_key", shared.ErrMissingCredentials)
	}
	if opts.Model == "" {
		opts.Model = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      opts.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  opts.HTTPClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: opts.Endpoint},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create gemini client: %v", shared.ErrServiceUnavailable, err)
	}

	return &GeminiService{models: client.Models, model: opts.Model}, nil
}

// Name returns the model name.
func (g *GeminiService) Name() string {
	return g.model
}

// Generate sends prompt as a single user turn and concatenates the text parts of the first candidate.
func (g *GeminiService) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("%w: generateContent: %v", shared.ErrAPIRequest, err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: model returned no candidates", shared.ErrAPIRequest)
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && !part.Thought {
			b.WriteString(part.Text)
		}
	}
	return b.String(), nil
}
