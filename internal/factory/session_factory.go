// Package factory assembles sessions and gateways from configuration.
package factory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ChamsBouzaiene/promptcraft/internal/config"
	"github.com/ChamsBouzaiene/promptcraft/internal/engine"
	"github.com/ChamsBouzaiene/promptcraft/internal/gateway"
	"github.com/ChamsBouzaiene/promptcraft/internal/library"
	"github.com/ChamsBouzaiene/promptcraft/internal/output"
	"github.com/ChamsBouzaiene/promptcraft/internal/providers"
	"github.com/ChamsBouzaiene/promptcraft/internal/refine"
	"github.com/ChamsBouzaiene/promptcraft/internal/session"
)

// BuildGateway creates the gateway for cfg. An incomplete provider
// configuration does not fail here; every call through the returned gateway
// reports it instead.
func BuildGateway(cfg *config.Config, logger *zap.Logger, progress gateway.ProgressFunc) *gateway.Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []gateway.Option{
		gateway.WithLogger(logger),
		gateway.WithChatOptions(engine.ChatOptions{
			Temperature:     cfg.LLM.Temperature,
			MaxOutputTokens: cfg.LLM.MaxTokens,
		}),
	}
	if cfg.LLM.MaxRetries > 0 {
		policy := engine.DefaultRetryPolicy()
		policy.MaxRetries = cfg.LLM.MaxRetries
		opts = append(opts, gateway.WithRetryPolicy(policy))
	}
	if progress != nil {
		opts = append(opts, gateway.WithProgress(progress))
	}

	client, model, err := providers.NewLLMClient(cfg)
	if err != nil {
		logger.Warn("LLM provider not configured", zap.String("provider", cfg.Provider), zap.Error(err))
		return gateway.Unavailable(err, opts...)
	}
	logger.Debug("LLM provider ready", zap.String("provider", cfg.Provider), zap.String("model", model))
	return gateway.New(client, model, opts...)
}

// OpenLibrary opens the configured library store and loads it.
func OpenLibrary(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*library.Library, error) {
	store, err := library.OpenStore(ctx, cfg.Library.Backend, cfg.Library.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open library store: %w", err)
	}
	lib, err := library.Open(ctx, store, library.WithLogger(logger))
	if err != nil {
		if c, ok := store.(*library.SQLiteStore); ok {
			c.Close()
		}
		return nil, fmt.Errorf("failed to load prompt library: %w", err)
	}
	return lib, nil
}

// BuildSession wires a new session over gw and the configured library.
func BuildSession(ctx context.Context, cfg *config.Config, gw gateway.Completer, logger *zap.Logger) (*session.Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	lib, err := OpenLibrary(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	s := session.New(lib,
		refine.New(gw, nil, logger),
		output.NewGenerator(gw, logger),
		session.WithLogger(logger))
	logger.Info("session started", zap.String("session", s.ID), zap.String("library", cfg.Library.Path), zap.Int("saved_prompts", lib.Len()))
	return s, nil
}
