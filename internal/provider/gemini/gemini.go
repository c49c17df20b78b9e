// Package gemini implements the language-model backend on top of the Google
// Gemini API.
package gemini

import (
	"context"

	providermodels "github.com/Cyclone1070/loom/internal/provider/models"
)

// Backend talks to the Gemini API through the injected Client.
type Backend struct {
	client    Client
	modelName string
}

// New creates a Backend using the given client and model.
func New(client Client, modelName string) *Backend {
	return &Backend{client: client, modelName: modelName}
}

// Generate sends the trimmed history to the Gemini API and returns the
// aggregated assistant message.
func (b *Backend) Generate(ctx context.Context, req *providermodels.GenerateRequest) (*providermodels.GenerateResponse, error) {
	contents, systemInstruction := toGeminiContents(req.History)

	config := generateConfig(systemInstruction)
	if len(req.Tools) > 0 {
		config.Tools = toGeminiTools(req.Tools)
	}

	resp, err := b.client.GenerateContent(ctx, b.modelName, contents, config)
	if err != nil {
		return nil, mapGeminiError(err)
	}
	return fromGeminiResponse(resp)
}

// GetModel returns the active model name.
func (b *Backend) GetModel() string {
	return b.modelName
}
