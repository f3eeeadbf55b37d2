package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every override variable, e.g. RAGCHAT_MODEL.
const EnvPrefix = "RAGCHAT"

// envOverrides are read from the environment after the document is parsed.
// Only the API key also reads its unprefixed name, OPENAI_API_KEY.
type envOverrides struct {
	APIKey        string `envconfig:"OPENAI_API_KEY"`
	KnowledgeFile string `split_words:"true"`
	Model         string
	SentryDSN     string `split_words:"true"`
}

func applyEnvOverrides(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("failed to process environment overrides: %w", err)
	}
	if env.APIKey != "" && cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = env.APIKey
	}
	if env.KnowledgeFile != "" {
		cfg.Data.KnowledgeFile = env.KnowledgeFile
	}
	if env.Model != "" {
		cfg.OpenAI.Model = env.Model
	}
	if env.SentryDSN != "" {
		cfg.Telemetry.SentryDSN = env.SentryDSN
	}
	return nil
}
