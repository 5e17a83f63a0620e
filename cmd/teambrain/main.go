// Command teambrain runs the collective-brain assistant as an HTTP service.
package main

import (
	"fmt"
	"os"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/teambrain"
	"github.com/hupe1980/teambrain/config"
	"github.com/hupe1980/teambrain/conversation"
	"github.com/hupe1980/teambrain/core"
	"github.com/hupe1980/teambrain/identity"
	"github.com/hupe1980/teambrain/logging"
	"github.com/hupe1980/teambrain/model"
	"github.com/hupe1980/teambrain/model/anthropic"
	"github.com/hupe1980/teambrain/model/openai"
	"github.com/hupe1980/teambrain/runner"
	"github.com/hupe1980/teambrain/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := logging.NewZerolog(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	m, err := buildModel(cfg)
	if err != nil {
		logger.Error("model setup failed", "error", err)
		os.Exit(1)
	}

	resolver := buildResolver(cfg, logger)
	sink, err := buildSink(cfg)
	if err != nil {
		logger.Error("transcript sink setup failed", "error", err)
		os.Exit(1)
	}

	brain := teambrain.New(func(o *teambrain.Options) {
		o.Model = m
		o.Resolver = resolver
		o.Sink = sink
		o.Logger = logger
		o.RunnerOptions = []func(r *runner.Options){
			func(r *runner.Options) {
				r.MaxIterations = cfg.MaxLoopIterations
				r.FarewellKeywords = cfg.FarewellKeywords
				r.MediumThreshold = cfg.FinalizeMedium
				r.HardThreshold = cfg.FinalizeHard
				r.ReminderLookahead = time.Duration(cfg.ReminderLookaheadHours) * time.Hour
			},
		}
	})

	srv := server.New(brain.Runner(), brain.Resolver(), brain.Memory(),
		brain.Reminders(), brain.Rules(),
		func(o *server.Options) {
			o.ReminderLookahead = time.Duration(cfg.ReminderLookaheadHours) * time.Hour
			o.Logger = logger
		})

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	logger.Info("teambrain listening", "addr", addr, "provider", m.Info().Provider)
	if err := srv.Run(addr); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func buildModel(cfg *config.Config) (model.Model, error) {
	switch cfg.ModelProvider {
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			if cfg.OpenAIModel != "" {
				o.Model = cfg.OpenAIModel
			}
		}), nil
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.AnthropicModel != "" {
				o.Model = anthropicsdk.Model(cfg.AnthropicModel)
			}
		}), nil
	case "mock":
		return model.NewMockModel(), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.ModelProvider)
	}
}

func buildResolver(cfg *config.Config, logger logging.Logger) runner.IdentityResolver {
	if cfg.JWTSecret != "" {
		return identity.NewJWTResolver([]byte(cfg.JWTSecret))
	}
	logger.Warn("JWT_SECRET not set, using static dev resolver",
		"dev_token", cfg.DevToken, "team", cfg.DevTeamID)
	resolver := identity.NewStaticResolver()
	resolver.Add(cfg.DevToken, core.Identity{
		UserID: cfg.DevUserID,
		TeamID: cfg.DevTeamID,
	})
	return resolver
}

func buildSink(cfg *config.Config) (conversation.TranscriptSink, error) {
	if cfg.TranscriptDir == "" {
		return conversation.NewInMemorySink(), nil
	}
	return conversation.NewFileSink(cfg.TranscriptDir)
}
