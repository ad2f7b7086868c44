package llm

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
)

// DefaultOpenAIModel is used when OpenAIConfig.Model is empty.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIConfig configures an OpenAIClient.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// OpenAIClient resolves intents with a chat completion constrained to the
// intent JSON schema.
type OpenAIClient struct {
	client openai.Client
	model  string
	schema *jsonschema.Schema
}

// NewOpenAIClient creates a structured-output client.
func NewOpenAIClient(cfg OpenAIConfig, opts ...option.RequestOption) (*OpenAIClient, error) {
	schema, err := IntentSchema()
	if err != nil {
		return nil, fmt.Errorf("build intent schema: %w", err)
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}
	reqOpts = append(reqOpts, opts...)

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	return &OpenAIClient{
		client: openai.NewClient(reqOpts...),
		model:  model,
		schema: FormatOpenAISchema(schema),
	}, nil
}

func (c *OpenAIClient) ResolveIntent(ctx context.Context, prompt string) (*IntentResult, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        intentSchemaName,
					Description: param.NewOpt(intentSchemaDescription),
					Schema:      c.schema,
					Strict:      param.NewOpt(true),
				},
			},
		},
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoContent
	}

	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		return nil, fmt.Errorf("%w: refused: %s", ErrMalformed, choice.Message.Refusal)
	}
	if choice.FinishReason != "stop" {
		return nil, fmt.Errorf("%w: unexpected finish reason: %s", ErrMalformed, choice.FinishReason)
	}

	return decodeIntent(choice.Message.Content)
}

// FormatOpenAISchema adapts a schema to OpenAI strict structured outputs:
// objects close additionalProperties and every property becomes required,
// with formerly optional ones made nullable.
func FormatOpenAISchema(m *jsonschema.Schema) *jsonschema.Schema {
	if m == nil {
		return nil
	}

	switch m.Type {
	case "array":
		m.Items = FormatOpenAISchema(m.Items)
	case "object":
		m.AdditionalProperties = &jsonschema.Schema{Not: &jsonschema.Schema{}}

		required := make(map[string]bool, len(m.Required))
		for _, k := range m.Required {
			required[k] = true
		}
		m.Required = m.Required[:0]
		for k, v := range m.Properties {
			if !required[k] && v.Type != "" {
				v.Types = []string{"null", v.Type}
				v.Type = ""
			}
			m.Properties[k] = FormatOpenAISchema(v)
			m.Required = append(m.Required, k)
		}
	}
	return m
}
