// Package provider defines the interface to the language-model backend and
// the factory that picks a concrete backend from the configured model name.
package provider

import (
	"context"
	"os"
	"strings"

	"google.golang.org/genai"

	"github.com/Cyclone1070/loom/internal/provider/gemini"
	providermodels "github.com/Cyclone1070/loom/internal/provider/models"
	"github.com/Cyclone1070/loom/internal/provider/openai"
)

// Provider is the language-model collaborator: trimmed history plus bound
// tool schemas in, final aggregated assistant message out.
type Provider interface {
	Generate(ctx context.Context, req *providermodels.GenerateRequest) (*providermodels.GenerateResponse, error)
	GetModel() string
}

// New builds a Provider for the configured model name. Names starting with
// "gemini" use the Gemini backend; everything else goes through the
// OpenAI-compatible backend (OpenAI itself, or a local Ollama endpoint via
// OPENAI_BASE_URL).
func New(ctx context.Context, model string) (Provider, error) {
	if strings.HasPrefix(model, "gemini") {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  os.Getenv("GEMINI_API_KEY"),
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, err
		}
		return gemini.New(gemini.NewRealClient(client), model), nil
	}

	return openai.New(openai.Options{
		Model:   model,
		BaseURL: os.Getenv("OPENAI_BASE_URL"),
		APIKey:  os.Getenv("OPENAI_API_KEY"),
	}), nil
}
