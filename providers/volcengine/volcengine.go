// Package volcengine adapts the Volcengine Ark chat-completion API to the
// gateway.Provider contract. It is the primary provider: fast,
// chat-completion style, checked before the fallback.
package volcengine

import (
	"context"
	"fmt"
	"time"

	"github.com/volcengine/volcengine-go-sdk/service/arkruntime"
	"github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"

	"quizcore/gateway"
)

// Adapter implements gateway.Provider over an Ark chat-completion endpoint.
type Adapter struct {
	client  *arkruntime.Client
	modelID string
}

// New builds an Adapter. modelID is the Ark endpoint or model identifier
// configured for this account.
func New(apiKey, modelID string) *Adapter {
	return &Adapter{
		client:  arkruntime.NewClientWithApiKey(apiKey),
		modelID: modelID,
	}
}

func (a *Adapter) Name() string { return "volcengine-ark" }

func (a *Adapter) Complete(ctx context.Context, req gateway.ProviderRequest) (gateway.ProviderResponse, error) {
	deadline := req.Deadline
	if deadline <= 0 {
		deadline = 20 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	start := time.Now()
	prompt := req.Prompt
	resp, err := a.client.CreateChatCompletion(callCtx, model.CreateChatCompletionRequest{
		Model: a.modelID,
		Messages: []*model.ChatCompletionMessage{
			{
				Role:    model.ChatMessageRoleUser,
				Content: &model.ChatCompletionMessageContent{StringValue: &prompt},
			},
		},
		MaxTokens:   req.MaxOutputTokens,
		Temperature: float32(req.Temperature),
	})
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return gateway.ProviderResponse{ProviderName: a.Name(), LatencyMs: latency}, fmt.Errorf("volcengine: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == nil {
		return gateway.ProviderResponse{ProviderName: a.Name(), LatencyMs: latency}, fmt.Errorf("volcengine: empty response")
	}

	text := ""
	if resp.Choices[0].Message.Content.StringValue != nil {
		text = *resp.Choices[0].Message.Content.StringValue
	}

	return gateway.ProviderResponse{
		RawText:      text,
		ProviderName: a.Name(),
		LatencyMs:    latency,
	}, nil
}
