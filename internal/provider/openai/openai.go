// Package openai implements the language-model backend for OpenAI-compatible
// APIs, including local Ollama endpoints.
package openai

import (
	"context"
	"encoding/json"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/Cyclone1070/loom/internal/orchestrator/models"
	providermodels "github.com/Cyclone1070/loom/internal/provider/models"
)

// Options configures the backend. An empty BaseURL uses the public OpenAI
// endpoint; point it at e.g. http://127.0.0.1:11434/v1 for Ollama.
type Options struct {
	Model   string
	BaseURL string
	APIKey  string
}

// Backend talks to an OpenAI-compatible chat completions API.
type Backend struct {
	client    openai.Client
	modelName string
}

// New creates a Backend from Options.
func New(opts Options) *Backend {
	var requestOpts []option.RequestOption
	if opts.BaseURL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.APIKey != "" {
		requestOpts = append(requestOpts, option.WithAPIKey(opts.APIKey))
	}
	return &Backend{
		client:    openai.NewClient(requestOpts...),
		modelName: opts.Model,
	}
}

// Generate sends the trimmed history to the API and returns the aggregated
// assistant message.
func (b *Backend) Generate(ctx context.Context, req *providermodels.GenerateRequest) (*providermodels.GenerateResponse, error) {
	params := openai.ChatCompletionNewParams{
		Model:    b.modelName,
		Messages: toChatMessages(req.History),
		Tools:    toChatTools(req.Tools),
	}

	completion, err := b.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, &providermodels.ProviderError{
			Code:       providermodels.ErrorCodeUnavailable,
			Message:    "chat completion failed",
			Underlying: err,
			Retryable:  true,
		}
	}
	if len(completion.Choices) == 0 {
		return nil, &providermodels.ProviderError{
			Code:    providermodels.ErrorCodeInvalidRequest,
			Message: "no choices in response",
		}
	}

	return fromChatMessage(completion.Choices[0].Message), nil
}

// GetModel returns the active model name.
func (b *Backend) GetModel() string {
	return b.modelName
}

func toChatMessages(history []models.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case models.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case models.RoleHuman:
			out = append(out, openai.UserMessage(msg.Content))
		case models.RoleAssistant:
			out = append(out, toAssistantParam(msg))
		case models.RoleTool:
			out = append(out, openai.ToolMessage(msg.Content, msg.ToolCallID))
		}
	}
	return out
}

func toAssistantParam(msg models.Message) openai.ChatCompletionMessageParamUnion {
	assistant := openai.ChatCompletionAssistantMessageParam{}
	if msg.Content != "" {
		assistant.Content.OfString = openai.String(msg.Content)
	}
	for _, call := range msg.ToolCalls {
		args, err := json.Marshal(call.Args)
		if err != nil {
			args = []byte("{}")
		}
		assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
				ID: call.ID,
				Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      call.Name,
					Arguments: string(args),
				},
			},
		})
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant}
}

func toChatTools(tools []providermodels.ToolDefinition) []openai.ChatCompletionToolUnionParam {
	out := make([]openai.ChatCompletionToolUnionParam, 0, len(tools))
	for _, tool := range tools {
		def := openai.FunctionDefinitionParam{
			Name:        tool.Name,
			Description: openai.String(tool.Description),
		}
		if tool.Parameters != nil {
			def.Parameters = toFunctionParameters(tool.Parameters)
		}
		out = append(out, openai.ChatCompletionToolUnionParam{
			OfFunction: &openai.ChatCompletionFunctionToolParam{Function: def},
		})
	}
	return out
}

// toFunctionParameters renders the schema as the loose JSON-Schema map the
// OpenAI API expects.
func toFunctionParameters(params *providermodels.ParameterSchema) openai.FunctionParameters {
	properties := make(map[string]any, len(params.Properties))
	for name, prop := range params.Properties {
		property := map[string]any{"type": prop.Type}
		if prop.Description != "" {
			property["description"] = prop.Description
		}
		if len(prop.Enum) > 0 {
			property["enum"] = prop.Enum
		}
		if prop.Items != nil {
			items := map[string]any{"type": prop.Items.Type}
			if prop.Items.Description != "" {
				items["description"] = prop.Items.Description
			}
			property["items"] = items
		}
		properties[name] = property
	}

	out := openai.FunctionParameters{
		"type":       "object",
		"properties": properties,
	}
	if len(params.Required) > 0 {
		out["required"] = params.Required
	}
	return out
}

func fromChatMessage(msg openai.ChatCompletionMessage) *providermodels.GenerateResponse {
	out := &providermodels.GenerateResponse{Text: msg.Content}
	for _, call := range msg.ToolCalls {
		args := map[string]any{}
		if call.Function.Arguments != "" {
			// Malformed arguments become an empty map; the tool's own
			// validation reports the problem back to the model.
			_ = json.Unmarshal([]byte(call.Function.Arguments), &args)
		}
		out.ToolCalls = append(out.ToolCalls, models.ToolCall{
			ID:   call.ID,
			Name: call.Function.Name,
			Args: args,
		})
	}
	return out
}
