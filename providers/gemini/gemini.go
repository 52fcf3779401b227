// Package gemini adapts the Google Generative AI (Gemini) generative-content
// API to the gateway.Provider contract. It is the fallback provider, used
// only after the primary has failed.
package gemini

import (
	"context"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"quizcore/gateway"
)

// Adapter implements gateway.Provider over a Gemini generative-content model.
type Adapter struct {
	client  *genai.Client
	modelID string
}

// New builds an Adapter against the given model (e.g. "gemini-1.5-flash").
// The client must outlive the adapter; callers are responsible for closing
// it during shutdown.
func New(client *genai.Client, modelID string) *Adapter {
	return &Adapter{client: client, modelID: modelID}
}

// Dial is a convenience constructor that opens a client from an API key.
func Dial(ctx context.Context, apiKey, modelID string) (*Adapter, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return New(client, modelID), nil
}

func (a *Adapter) Name() string { return "gemini" }

func (a *Adapter) Complete(ctx context.Context, req gateway.ProviderRequest) (gateway.ProviderResponse, error) {
	deadline := req.Deadline
	if deadline <= 0 {
		deadline = 20 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	model := a.client.GenerativeModel(a.modelID)
	model.SetTemperature(float32(req.Temperature))
	if req.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxOutputTokens))
	}

	start := time.Now()
	resp, err := model.GenerateContent(callCtx, genai.Text(req.Prompt))
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return gateway.ProviderResponse{ProviderName: a.Name(), LatencyMs: latency}, fmt.Errorf("gemini: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return gateway.ProviderResponse{ProviderName: a.Name(), LatencyMs: latency}, fmt.Errorf("gemini: empty response")
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}

	return gateway.ProviderResponse{
		RawText:      text,
		ProviderName: a.Name(),
		LatencyMs:    latency,
	}, nil
}
