package gemini

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/Cyclone1070/loom/internal/orchestrator/models"
	providermodels "github.com/Cyclone1070/loom/internal/provider/models"
)

// toGeminiContents converts the history to Gemini contents. System messages
// are pulled out and concatenated into a single system instruction; Gemini
// does not accept a "system" role inside contents.
func toGeminiContents(history []models.Message) ([]*genai.Content, *genai.Content) {
	contents := make([]*genai.Content, 0, len(history))
	var systemParts []*genai.Part

	for _, msg := range history {
		switch msg.Role {
		case models.RoleSystem:
			systemParts = append(systemParts, genai.NewPartFromText(msg.Content))
		case models.RoleHuman:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{genai.NewPartFromText(msg.Content)},
			})
		case models.RoleAssistant:
			parts := make([]*genai.Part, 0, len(msg.ToolCalls)+1)
			if msg.Content != "" {
				parts = append(parts, genai.NewPartFromText(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						Name: call.Name,
						Args: call.Args,
					},
				})
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{Role: "model", Parts: parts})
			}
		case models.RoleTool:
			contents = append(contents, &genai.Content{
				Role: "user",
				Parts: []*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{
						Name: msg.ToolName,
						Response: map[string]any{
							"content": msg.Content,
						},
					},
				}},
			})
		}
	}

	var systemInstruction *genai.Content
	if len(systemParts) > 0 {
		systemInstruction = &genai.Content{Parts: systemParts}
	}
	return contents, systemInstruction
}

func generateConfig(systemInstruction *genai.Content) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction,
		SafetySettings: []*genai.SafetySetting{
			{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdOff},
			{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdOff},
			{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdOff},
			{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdOff},
		},
	}
}

// toGeminiTools converts tool definitions to Gemini function declarations.
func toGeminiTools(tools []providermodels.ToolDefinition) []*genai.Tool {
	declarations := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		fd := &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
		}
		if tool.Parameters != nil {
			fd.Parameters = toGeminiSchema(tool.Parameters)
		}
		declarations = append(declarations, fd)
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

func toGeminiSchema(params *providermodels.ParameterSchema) *genai.Schema {
	schema := &genai.Schema{Type: genai.TypeObject}

	if params.Properties != nil {
		schema.Properties = make(map[string]*genai.Schema, len(params.Properties))
		for name, prop := range params.Properties {
			property := &genai.Schema{
				Type:        toGeminiType(prop.Type),
				Description: prop.Description,
			}
			if len(prop.Enum) > 0 {
				property.Enum = prop.Enum
			}
			if prop.Items != nil {
				property.Items = &genai.Schema{
					Type:        toGeminiType(prop.Items.Type),
					Description: prop.Items.Description,
				}
				if prop.Items.Type == "object" {
					// One level of nesting is enough for the built-in tools.
					property.Items.Properties = map[string]*genai.Schema{}
				}
			}
			schema.Properties[name] = property
		}
	}
	if len(params.Required) > 0 {
		schema.Required = params.Required
	}
	return schema
}

func toGeminiType(typeStr string) genai.Type {
	switch typeStr {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

// fromGeminiResponse converts the first candidate into the aggregated
// assistant output.
func fromGeminiResponse(resp *genai.GenerateContentResponse) (*providermodels.GenerateResponse, error) {
	if len(resp.Candidates) == 0 {
		return nil, &providermodels.ProviderError{
			Code:    providermodels.ErrorCodeInvalidRequest,
			Message: "no candidates in response",
		}
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return nil, &providermodels.ProviderError{
			Code:    providermodels.ErrorCodeContentBlocked,
			Message: "content blocked by safety filters",
		}
	}

	out := &providermodels.GenerateResponse{}
	if candidate.Content == nil {
		return out, nil
	}
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			out.Text += part.Text
		}
		if part.FunctionCall != nil {
			out.ToolCalls = append(out.ToolCalls, models.ToolCall{
				Name: part.FunctionCall.Name,
				Args: part.FunctionCall.Args,
			})
		}
	}
	return out, nil
}

// mapGeminiError classifies Gemini API errors.
func mapGeminiError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return mapStatusCode(apiErr.Code, apiErr.Message, err)
	}
	return &providermodels.ProviderError{
		Code:       providermodels.ErrorCodeUnavailable,
		Message:    "request failed",
		Underlying: err,
		Retryable:  true,
	}
}

func mapStatusCode(code int, message string, err error) error {
	switch code {
	case 401, 403:
		return &providermodels.ProviderError{
			Code:       providermodels.ErrorCodeAuth,
			Message:    "authentication failed",
			Underlying: err,
		}
	case 429:
		return &providermodels.ProviderError{
			Code:       providermodels.ErrorCodeRateLimit,
			Message:    "rate limit exceeded",
			Underlying: err,
			Retryable:  true,
		}
	case 400:
		// The API reports an oversized prompt as a plain 400 with a
		// token-count message, e.g. "input token count (N) exceeds the
		// maximum number of tokens allowed".
		if strings.Contains(strings.ToLower(message), "token count") {
			return &providermodels.ProviderError{
				Code:       providermodels.ErrorCodeContextLength,
				Message:    "context length exceeded",
				Underlying: err,
			}
		}
		return &providermodels.ProviderError{
			Code:       providermodels.ErrorCodeInvalidRequest,
			Message:    fmt.Sprintf("invalid request: %s", message),
			Underlying: err,
		}
	case 500, 502, 503, 504:
		return &providermodels.ProviderError{
			Code:       providermodels.ErrorCodeUnavailable,
			Message:    "service unavailable",
			Underlying: err,
			Retryable:  true,
		}
	default:
		return &providermodels.ProviderError{
			Code:       providermodels.ErrorCodeUnavailable,
			Message:    fmt.Sprintf("API error: %s", message),
			Underlying: err,
			Retryable:  true,
		}
	}
}
