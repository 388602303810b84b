// Package gemini implements the embedding provider over the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"jobscout/internal/embedding"

	"google.golang.org/genai"
)

const defaultModel = "gemini-embedding-001"

// Embedder is an embedding provider backed by Google GenAI.
type Embedder struct {
	client     *genai.Client
	modelName  string
	dimensions int
}

// NewEmbedder creates an Embedder configured for the Gemini API backend.
func NewEmbedder(ctx context.Context, apiKey, model string, dimensions int) (*Embedder, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	return &Embedder{client: client, modelName: model, dimensions: dimensions}, nil
}

// Embed implements embedding.Embedder. Provider errors are wrapped with
// embedding.ErrUnavailable so callers can fall back.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e == nil || e.client == nil {
		return nil, errors.New("gemini embedder is not initialized")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("text must not be empty")
	}

	var cfg *genai.EmbedContentConfig
	if e.dimensions > 0 {
		dims := int32(e.dimensions)
		cfg = &genai.EmbedContentConfig{OutputDimensionality: &dims}
	}

	resp, err := e.client.Models.EmbedContent(ctx, e.modelName, genai.Text(text), cfg)
	if err != nil {
		return nil, fmt.Errorf("embed content: %v: %w", err, embedding.ErrUnavailable)
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("gemini api returned empty embedding: %w", embedding.ErrUnavailable)
	}

	return resp.Embeddings[0].Values, nil
}

// Model returns the configured model name.
func (e *Embedder) Model() string {
	if e == nil {
		return ""
	}
	return e.modelName
}
