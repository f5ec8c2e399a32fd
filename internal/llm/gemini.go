// Package llm wraps the official genai client for template drafting. The
// wrapper stays thin: prompt in, text out. Rate limiting and error mapping
// live with the HTTP handlers.
package llm

import (
	"context"
	"errors"
	"strings"

	genai "google.golang.org/genai"
)

// ErrEmptyResponse means the model returned no usable candidate text.
var ErrEmptyResponse = errors.New("empty response from model")

// ErrDisabled means no API key was configured and the client is off.
var ErrDisabled = errors.New("template generation is not configured")

// TemplateDrafter produces template text from a natural-language prompt.
type TemplateDrafter interface {
	DraftTemplate(ctx context.Context, prompt string) (string, error)
}

// GeminiClient drafts template bodies through the Gemini API.
type GeminiClient struct {
	cli   *genai.Client
	model string
}

// NewGeminiClient connects to the Gemini API. The genai client reads the API
// key from the environment; model selects which model answers.
func NewGeminiClient(ctx context.Context, model string) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiClient{cli: cli, model: model}, nil
}

const draftInstructions = `You write source file templates for generated web projects.
Interpolation uses <%= expr %>, conditionals use <% if expr %>...<% else %>...<% end %>,
loops use <% for item in list %>...<% end %>. Available context: name, nameParam,
Name, description, stack, features, theme, pages, plus helpers such as
hasFeature("auth"), capitalize(x), join(list, ", ") and routeComponent(route).
Return only the template body, no explanation and no code fences.`

// DraftTemplate asks the model for one template body matching the prompt.
func (g *GeminiClient) DraftTemplate(ctx context.Context, prompt string) (string, error) {
	full := draftInstructions + "\n\n[REQUEST]\n" + strings.TrimSpace(prompt)

	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: full}}}},
		&genai.GenerateContentConfig{ResponseMIMEType: "text/plain"},
	)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return stripFences(text), nil
}

// stripFences removes a surrounding markdown code fence when the model adds
// one despite instructions.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) < 2 {
		return s
	}
	last := len(lines) - 1
	if strings.TrimSpace(lines[last]) != "```" {
		return s
	}
	return strings.Join(lines[1:last], "\n")
}

// Disabled is a drafter that always reports ErrDisabled. Used when no API
// key is configured so handlers can answer cleanly instead of panicking.
type Disabled struct{}

func (Disabled) DraftTemplate(context.Context, string) (string, error) {
	return "", ErrDisabled
}
