package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	genai "google.golang.org/genai"
)

// Gemini uses the Gemini API with native response schemas.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("missing GOOGLE_API_KEY")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	return &Gemini{client: c, model: model}, nil
}

// Model returns the configured model name.
func (g *Gemini) Model() string { return g.model }

func (g *Gemini) StructuredComplete(ctx context.Context, p Prompt, s *Schema, out any) error {
	text, err := g.generate(ctx, p, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   toGenaiSchema(s),
	})
	if err != nil {
		return err
	}
	return DecodeStructured(text, s, out)
}

func (g *Gemini) FreeTextComplete(ctx context.Context, p Prompt) (string, error) {
	text, err := g.generate(ctx, p, nil)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty completion", ErrUnusable)
	}
	return text, nil
}

func (g *Gemini) generate(ctx context.Context, p Prompt, cfg *genai.GenerateContentConfig) (string, error) {
	parts := []*genai.Part{{Text: p.Text}}
	for _, img := range p.Images {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: img.MIMEType, Data: img.Data}})
	}
	content := []*genai.Content{{Role: genai.RoleUser, Parts: parts}}

	res, err := g.client.Models.GenerateContent(ctx, g.model, content, cfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) && (apiErr.Code == 429 || apiErr.Code >= 500) {
			return "", &RetryableError{StatusCode: apiErr.Code, Message: apiErr.Message}
		}
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}
	return res.Text(), nil
}

func toGenaiSchema(s *Schema) *genai.Schema {
	out := &genai.Schema{Description: s.Description}
	switch s.Kind {
	case KindString:
		out.Type = genai.TypeString
	case KindArray:
		out.Type = genai.TypeArray
		if s.Items != nil {
			out.Items = toGenaiSchema(s.Items)
		}
	case KindObject:
		out.Type = genai.TypeObject
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for _, p := range s.Properties {
			out.Properties[p.Name] = toGenaiSchema(p.Schema)
			out.Required = append(out.Required, p.Name)
			out.PropertyOrdering = append(out.PropertyOrdering, p.Name)
		}
	}
	return out
}
