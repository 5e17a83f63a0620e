// Package config loads runtime configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config carries all tunables for the teambrain server and dispatch loop.
type Config struct {
	HTTPPort int `env:"TEAMBRAIN_PORT" envDefault:"8080"`

	// Model provider selection: "openai", "anthropic" or "mock".
	ModelProvider  string `env:"MODEL_PROVIDER" envDefault:"mock"`
	OpenAIModel    string `env:"OPENAI_MODEL"`
	AnthropicModel string `env:"ANTHROPIC_MODEL"`

	// Dispatch loop.
	MaxLoopIterations int      `env:"MAX_LOOP_ITERATIONS" envDefault:"20"`
	FarewellKeywords  []string `env:"FAREWELL_KEYWORDS" envSeparator:"," envDefault:"bye,goodbye,quit,exit"`
	FinalizeMedium    int      `env:"FINALIZE_MEDIUM_THRESHOLD" envDefault:"20"`
	FinalizeHard      int      `env:"FINALIZE_HARD_THRESHOLD" envDefault:"40"`

	// Reminder subsystem.
	ReminderLookaheadHours int `env:"REMINDER_LOOKAHEAD_HOURS" envDefault:"24"`

	// Identity: JWT secret for the HS256 resolver. When empty the server
	// falls back to the static dev resolver with DevToken.
	JWTSecret string `env:"JWT_SECRET"`
	DevToken  string `env:"DEV_TOKEN" envDefault:"dev"`
	DevTeamID string `env:"DEV_TEAM_ID" envDefault:"dev-team"`
	DevUserID string `env:"DEV_USER_ID" envDefault:"dev-user"`

	// Transcript sink directory. Empty keeps transcripts in memory.
	TranscriptDir string `env:"TRANSCRIPT_DIR"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load reads .env (best effort) then parses the environment into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))

	return cfg, nil
}
