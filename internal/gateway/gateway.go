// Package gateway is the single synchronous path to the chat-completion
// service. It never returns Go errors to its callers; failures travel inside
// Result and are rendered as bracketed text at the UI boundary.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ChamsBouzaiene/promptcraft/internal/engine"
)

// Completer sends one system+user exchange and returns the outcome.
type Completer interface {
	Complete(ctx context.Context, task, systemInstruction, userMessage string) Result
}

// ProgressFunc is notified when a call starts (done=false) and ends (done=true).
type ProgressFunc func(task string, done bool)

// Gateway implements Completer over an engine.LLMClient.
type Gateway struct {
	client   engine.LLMClient
	model    string
	opts     engine.ChatOptions
	retry    engine.RetryPolicy
	setupErr error
	logger   *zap.Logger
	progress ProgressFunc
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithChatOptions sets temperature and token limits forwarded to the provider.
func WithChatOptions(opts engine.ChatOptions) Option {
	return func(g *Gateway) { g.opts = opts }
}

// WithRetryPolicy enables retries for retryable provider errors.
func WithRetryPolicy(p engine.RetryPolicy) Option {
	return func(g *Gateway) { g.retry = p }
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l *zap.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithProgress registers an in-progress indicator.
func WithProgress(fn ProgressFunc) Option {
	return func(g *Gateway) { g.progress = fn }
}

// New creates a gateway for the given client and model or deployment name.
func New(client engine.LLMClient, model string, opts ...Option) *Gateway {
	g := &Gateway{
		client: client,
		model:  model,
		retry:  engine.DefaultRetryPolicy(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.client == nil && g.setupErr == nil {
		g.setupErr = errors.New("no LLM client configured")
	}
	return g
}

// Unavailable returns a gateway whose every call fails with setupErr.
// It lets a missing or invalid provider configuration surface at call time.
func Unavailable(setupErr error, opts ...Option) *Gateway {
	g := New(nil, "", opts...)
	if setupErr != nil {
		g.setupErr = setupErr
	}
	return g
}

// Model returns the model or deployment identity calls are sent to.
func (g *Gateway) Model() string {
	return g.model
}

// Complete sends systemInstruction and userMessage as a two-message exchange
// and returns the trimmed text of the first choice.
func (g *Gateway) Complete(ctx context.Context, task, systemInstruction, userMessage string) (res Result) {
	res.Task = task
	if g.setupErr != nil {
		g.logger.Warn("LLM call skipped", zap.String("task", task), zap.Error(g.setupErr))
		res.Err = g.setupErr
		return res
	}

	if g.progress != nil {
		g.progress(task, false)
		defer g.progress(task, true)
	}

	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("LLM client panicked", zap.String("task", task), zap.Any("panic", r))
			res.Text = ""
			res.Err = fmt.Errorf("client panic: %v", r)
		}
	}()

	messages := []engine.ChatMessage{
		{Role: engine.RoleSystem, Content: systemInstruction},
		{Role: engine.RoleUser, Content: userMessage},
	}

	start := time.Now()
	resp, err := g.chat(ctx, messages)
	if err != nil {
		g.logger.Warn("LLM call failed",
			zap.String("task", task),
			zap.String("model", g.model),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("class", string(engine.ClassifyLLMError(err))),
			zap.Error(err))
		res.Err = err
		return res
	}

	g.logger.Debug("LLM call finished",
		zap.String("task", task),
		zap.String("model", g.model),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("total_tokens", resp.Usage.Total),
		zap.String("finish_reason", resp.FinishReason))

	res.Text = strings.TrimSpace(resp.Assistant.Content)
	return res
}

func (g *Gateway) chat(ctx context.Context, messages []engine.ChatMessage) (engine.LLMResponse, error) {
	if g.retry.MaxRetries <= 0 {
		return g.client.Chat(ctx, g.model, messages, g.opts)
	}

	resp, err := engine.RetryLLMCall(ctx, g.retry, g.client, g.model, messages, g.opts,
		func(attempt int, delay time.Duration, err error) {
			g.logger.Info("retrying LLM call",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(err))
		})
	var exhausted *engine.RetryExhaustedError
	if errors.As(err, &exhausted) {
		return resp, exhausted.Err
	}
	return resp, err
}
