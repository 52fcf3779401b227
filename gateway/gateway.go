// Package gateway implements the AI Provider Gateway (C1): a uniform
// question-generation, hint, and evaluation surface backed by a primary and
// a fallback text-completion provider, with defensive parsing of whatever
// the providers actually send back.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"quizcore/errs"
	"quizcore/models"
)

// Default per-operation deadlines (spec.md §4.1).
const (
	generateDeadline = 30 * time.Second
	hintDeadline     = 10 * time.Second
	evaluateDeadline = 20 * time.Second
)

// QuizGenerationParams is the input to GenerateQuestions.
type QuizGenerationParams struct {
	Grade      string
	Subject    string
	Count      int
	Topics     []string
	Difficulty models.QuizDifficulty
	Distribution models.DifficultyDistribution
}

// WrongAnswerDetail is one incorrect answer fed into the evaluation prompt.
type WrongAnswerDetail struct {
	QuestionText  string
	UserAnswer    string
	CorrectAnswer string
	Topic         string
}

// EvaluationResult is C1's third operation's return shape.
type EvaluationResult struct {
	Suggestions []string
	Strengths   []string
	Weaknesses  []string
	Provider    string
}

// Gateway calls Primary first and falls over to Fallback on any failure.
type Gateway struct {
	Primary  Provider
	Fallback Provider
	Log      *zap.Logger
}

func New(primary, fallback Provider, log *zap.Logger) *Gateway {
	return &Gateway{Primary: primary, Fallback: fallback, Log: log.With(zap.String("component", "gateway"))}
}

// GenerateQuestions asks the provider chain for a batch of questions matching
// params and returns them with canonicalized types.
func (g *Gateway) GenerateQuestions(ctx context.Context, params QuizGenerationParams) ([]models.Question, error) {
	prompt := questionGenerationPrompt(params)
	raw, providerName, err := g.callWithFailover(ctx, prompt, generateDeadline, 2048)
	if err != nil {
		return nil, err
	}

	jsonSlice, err := extractJSON(raw)
	if err != nil {
		g.Log.Warn("failed to extract JSON from provider response",
			zap.String("provider", providerName), zap.String("preview", preview(raw)))
		return nil, fmt.Errorf("gateway: %w", err)
	}

	records, err := decodeArray(jsonSlice)
	if err != nil {
		g.Log.Warn("failed to decode provider response as array",
			zap.String("provider", providerName), zap.String("preview", preview(raw)))
		return nil, fmt.Errorf("gateway: %w", err)
	}

	questions := make([]models.Question, 0, len(records))
	for _, rec := range records {
		q := questionFromRecord(rec, g.Log)
		questions = append(questions, q)
	}
	return questions, nil
}

// GenerateHint asks for a single hint string for one question.
func (g *Gateway) GenerateHint(ctx context.Context, q models.Question) (string, error) {
	prompt := hintPrompt(q)
	raw, providerName, err := g.callWithFailover(ctx, prompt, hintDeadline, 256)
	if err != nil {
		return "", err
	}
	hint := strings.TrimSpace(raw)
	hint = strings.Trim(hint, "\"")
	if hint == "" {
		g.Log.Warn("provider returned empty hint", zap.String("provider", providerName))
		return "", fmt.Errorf("%w: empty hint", errProviderEmpty)
	}
	return hint, nil
}

// EvaluateSubmission asks for suggestions/strengths/weaknesses derived from a
// submission's wrong answers.
func (g *Gateway) EvaluateSubmission(ctx context.Context, wrong []WrongAnswerDetail) (EvaluationResult, error) {
	prompt := evaluationPrompt(wrong)
	raw, providerName, err := g.callWithFailover(ctx, prompt, evaluateDeadline, 1024)
	if err != nil {
		return EvaluationResult{}, err
	}

	jsonSlice, err := extractJSON(raw)
	if err != nil {
		g.Log.Warn("failed to extract JSON from evaluation response",
			zap.String("provider", providerName), zap.String("preview", preview(raw)))
		return EvaluationResult{}, fmt.Errorf("gateway: %w", err)
	}

	var envelope struct {
		Suggestions []string `json:"suggestions"`
		Strengths   []string `json:"strengths"`
		Weaknesses  []string `json:"weaknesses"`
	}
	if err := json.Unmarshal([]byte(jsonSlice), &envelope); err != nil {
		g.Log.Warn("failed to decode evaluation envelope",
			zap.String("provider", providerName), zap.String("preview", preview(raw)))
		return EvaluationResult{}, fmt.Errorf("%w: %v", errParseError, err)
	}

	envelope.Suggestions = normalizeSuggestions(envelope.Suggestions)

	return EvaluationResult{
		Suggestions: envelope.Suggestions,
		Strengths:   envelope.Strengths,
		Weaknesses:  envelope.Weaknesses,
		Provider:    providerName,
	}, nil
}

// callWithFailover calls Primary, then Fallback on any error, returning
// ErrProviderExhausted if both fail.
func (g *Gateway) callWithFailover(ctx context.Context, prompt string, deadline time.Duration, maxTokens int) (string, string, error) {
	req := ProviderRequest{Prompt: prompt, MaxOutputTokens: maxTokens, Temperature: 0.7, Deadline: deadline}

	start := time.Now()
	primaryCtx, cancel := context.WithTimeout(ctx, deadline)
	resp, err := g.Primary.Complete(primaryCtx, req)
	cancel()
	latency := time.Since(start).Milliseconds()

	if err == nil && strings.TrimSpace(resp.RawText) != "" {
		return resp.RawText, g.Primary.Name(), nil
	}
	g.logProviderFailure(g.Primary.Name(), latency, resp.RawText, err)

	start = time.Now()
	fallbackCtx, cancel := context.WithTimeout(ctx, deadline)
	resp, err = g.Fallback.Complete(fallbackCtx, req)
	cancel()
	latency = time.Since(start).Milliseconds()

	if err == nil && strings.TrimSpace(resp.RawText) != "" {
		return resp.RawText, g.Fallback.Name(), nil
	}
	g.logProviderFailure(g.Fallback.Name(), latency, resp.RawText, err)

	return "", "", errs.ErrProviderExhausted
}

func (g *Gateway) logProviderFailure(name string, latencyMs int64, raw string, err error) {
	classified := classifyProviderError(err)
	fields := []zap.Field{
		zap.String("provider", name),
		zap.Int64("latencyMs", latencyMs),
		zap.String("preview", preview(raw)),
		zap.Error(classified),
	}
	g.Log.Warn("provider call failed, failing over", fields...)
}

// classifyProviderError maps a raw provider-call error onto the named
// failure taxonomy (spec.md §4.1/§7) so logs distinguish a deadline from a
// transport failure from an empty response.
func classifyProviderError(err error) error {
	if err == nil {
		return errProviderEmpty
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", errProviderTimeout, err)
	}
	return fmt.Errorf("%w: %v", errProviderTransport, err)
}
