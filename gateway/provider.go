package gateway

import (
	"context"
	"time"
)

// ProviderRequest is the uniform contract every adapter receives (spec.md
// §6). The gateway never passes provider-specific types across this
// boundary.
type ProviderRequest struct {
	Prompt          string
	MaxOutputTokens int
	Temperature     float64
	Deadline        time.Duration
}

// ProviderResponse is the uniform contract every adapter returns.
type ProviderResponse struct {
	RawText      string
	ProviderName string
	LatencyMs    int64
}

// Provider is fulfilled by providers/volcengine (primary, chat-completion)
// and providers/gemini (fallback, generative content). The gateway calls
// Complete once per attempt and treats any error as reason to fail over.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req ProviderRequest) (ProviderResponse, error)
}
