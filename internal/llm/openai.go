package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// OpenAI talks to an OpenAI-compatible chat completion endpoint through eino.
type OpenAI struct {
	chatModel model.ChatModel
	model     string
}

// NewOpenAI creates the eino chat model. baseURL may be empty for the public API.
func NewOpenAI(ctx context.Context, apiKey, baseURL, modelName string) (*OpenAI, error) {
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   modelName,
	})
	if err != nil {
		return nil, fmt.Errorf("init openai chat model: %w", err)
	}
	return &OpenAI{chatModel: cm, model: modelName}, nil
}

// Model returns the configured model name.
func (c *OpenAI) Model() string { return c.model }

func (c *OpenAI) StructuredComplete(ctx context.Context, p Prompt, s *Schema, out any) error {
	// Compatible endpoints that ignore response_format still get the schema as text.
	p.Text = p.Text + "\n\n" + s.Instruction()
	text, err := c.generate(ctx, p, "You are a JSON generator. Output only JSON.", responseFormat(s))
	if err != nil {
		return err
	}
	return DecodeStructured(text, s, out)
}

func (c *OpenAI) FreeTextComplete(ctx context.Context, p Prompt) (string, error) {
	text, err := c.generate(ctx, p, "")
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty completion", ErrUnusable)
	}
	return text, nil
}

func (c *OpenAI) generate(ctx context.Context, p Prompt, system string, opts ...model.Option) (string, error) {
	var messages []*schema.Message
	if system != "" {
		messages = append(messages, &schema.Message{Role: schema.System, Content: system})
	}
	messages = append(messages, userMessage(p))

	resp, err := c.chatModel.Generate(ctx, messages, opts...)
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if resp == nil {
		return "", fmt.Errorf("%w: nil message", ErrUnusable)
	}
	return resp.Content, nil
}

// responseFormat asks for strict JSON-schema output. Every property is required
// and objects are closed, as strict mode demands.
func responseFormat(s *Schema) model.Option {
	name := s.Name
	if name == "" {
		name = "response"
	}
	return openai.WithExtraFields(map[string]any{
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   name,
				"schema": s.JSONSchema(),
				"strict": true,
			},
		},
	})
}

func userMessage(p Prompt) *schema.Message {
	if len(p.Images) == 0 {
		return &schema.Message{Role: schema.User, Content: p.Text}
	}
	parts := []schema.ChatMessagePart{{Type: schema.ChatMessagePartTypeText, Text: p.Text}}
	for _, img := range p.Images {
		parts = append(parts, schema.ChatMessagePart{
			Type:     schema.ChatMessagePartTypeImageURL,
			ImageURL: &schema.ChatMessageImageURL{URL: img.DataURL()},
		})
	}
	return &schema.Message{Role: schema.User, MultiContent: parts}
}

// eino surfaces HTTP failures as plain errors; the status code only shows up in the text.
func classifyOpenAIError(err error) error {
	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "429") || strings.Contains(lower, "too many requests"):
		return &RetryableError{StatusCode: 429, Message: msg}
	case strings.Contains(msg, "status code: 5"):
		return &RetryableError{StatusCode: 500, Message: msg}
	}
	return fmt.Errorf("openai: %w", err)
}
