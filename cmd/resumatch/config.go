package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/poiesic/resumatch/ai"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
)

const (
	envPrefix     = "RESUMATCH"
	configName    = "resumatch"
	settingsKey   = "settings"
	defaultDBPath = ".resumatch-cache"

	defaultEmbeddingModel  = "nomic-embed-text"
	defaultCompletionModel = "mistral:7b-instruct"
	defaultContextTokens   = 2048
	defaultMaxOutputTokens = 500
)

// settings are the global options after merging, lowest precedence first,
// flag defaults, the config file, RESUMATCH_* environment variables and
// flags set on the command line.
type settings struct {
	DB                string  `mapstructure:"db"`
	InMemory          bool    `mapstructure:"in-memory"`
	Host              string  `mapstructure:"host"`
	EmbeddingHost     string  `mapstructure:"embedding-host"`
	CompletionHost    string  `mapstructure:"completion-host"`
	EmbeddingModel    string  `mapstructure:"embedding-model"`
	CompletionModel   string  `mapstructure:"completion-model"`
	APIKey            string  `mapstructure:"api-key"`
	ContextTokens     int     `mapstructure:"context-tokens"`
	MaxOutputTokens   int     `mapstructure:"max-output-tokens"`
	RequestsPerSecond float64 `mapstructure:"rps"`
	ExactTokens       bool    `mapstructure:"exact-tokens"`
	Profiles          bool    `mapstructure:"profiles"`
}

var settingKeys = []string{
	"db", "in-memory", "host", "embedding-host", "completion-host",
	"embedding-model", "completion-model", "api-key",
	"context-tokens", "max-output-tokens", "rps", "exact-tokens",
	"profiles",
}

// loadSettings is a Before hook. A .env file in the working directory is
// loaded into the environment first when present.
func loadSettings(c *cli.Context) error {
	if err := loadDotEnv(); err != nil {
		return err
	}

	s, err := readSettings(c)
	if err != nil {
		return err
	}
	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[settingsKey] = s
	return nil
}

// loadDotEnv loads .env when it exists. A missing file is fine; one that
// cannot be read or parsed is an error.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

func readSettings(c *cli.Context) (*settings, error) {
	v := viper.New()
	for _, key := range settingKeys {
		v.SetDefault(key, c.Value(key))
	}

	if cfgFile := c.String("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", cfgFile, err)
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(configName)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, key := range settingKeys {
		if c.IsSet(key) {
			v.Set(key, c.Value(key))
		}
	}

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decoding settings: %w", err)
	}
	return &s, nil
}

func settingsFrom(c *cli.Context) *settings {
	if s, ok := c.App.Metadata[settingsKey].(*settings); ok {
		return s
	}
	return &settings{DB: defaultDBPath}
}

// aiConfig builds the AI service configuration. Explicit service hosts win
// over the shared host.
func (s *settings) aiConfig() *ai.Config {
	var opts []ai.ConfigOption
	if s.Host != "" {
		opts = append(opts, ai.WithHost(s.Host))
	}
	if s.EmbeddingHost != "" {
		opts = append(opts, ai.WithEmbeddingHost(s.EmbeddingHost))
	}
	if s.CompletionHost != "" {
		opts = append(opts, ai.WithCompletionHost(s.CompletionHost))
	}
	if s.APIKey != "" {
		opts = append(opts, ai.WithAPIKey(s.APIKey))
	}
	opts = append(opts,
		ai.WithEmbeddingModel(s.EmbeddingModel),
		ai.WithCompletionModel(s.CompletionModel),
		ai.WithContextTokens(s.ContextTokens),
		ai.WithMaxOutputTokens(s.MaxOutputTokens),
		ai.WithRequestsPerSecond(s.RequestsPerSecond, 1),
	)
	return ai.NewConfig(opts...)
}
