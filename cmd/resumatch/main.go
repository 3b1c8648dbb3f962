// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "resumatch",
		Usage: "Rank résumés against a job description with retrieval-augmented scoring",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file (default is resumatch.yaml in the current directory, if present)",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to the BadgerDB cache directory",
				Value:   defaultDBPath,
			},
			&cli.BoolFlag{
				Name:  "in-memory",
				Usage: "Keep the cache in memory only",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host URL for both embedding and completion services",
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL (overrides --host)",
			},
			&cli.StringFlag{
				Name:  "completion-host",
				Usage: "Completion service host URL (overrides --host)",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name",
				Value: defaultEmbeddingModel,
			},
			&cli.StringFlag{
				Name:  "completion-model",
				Usage: "Completion model name",
				Value: defaultCompletionModel,
			},
			&cli.StringFlag{
				Name:  "api-key",
				Usage: "API key for the AI services",
			},
			&cli.IntFlag{
				Name:  "context-tokens",
				Usage: "Context window of the completion model",
				Value: defaultContextTokens,
			},
			&cli.IntFlag{
				Name:  "max-output-tokens",
				Usage: "Tokens reserved for the scoring reply",
				Value: defaultMaxOutputTokens,
			},
			&cli.Float64Flag{
				Name:  "rps",
				Usage: "Maximum AI requests per second (0 means unlimited)",
			},
			&cli.BoolFlag{
				Name:  "exact-tokens",
				Usage: "Count prompt tokens with tiktoken instead of estimating",
			},
			&cli.BoolFlag{
				Name:  "profiles",
				Usage: "Extract structured résumé and job profiles and include them when scoring",
			},
		},
		Before: beforeAll(loadSettings, setupLogger),
		Commands: []*cli.Command{
			{
				Name:      "match",
				Usage:     "Score a single résumé against a job description",
				ArgsUsage: "RESUME",
				Action:    matchCommand,
				Flags: []cli.Flag{
					jobFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the result as JSON",
					},
				},
			},
			{
				Name:      "rank",
				Usage:     "Rank résumé files or directories against a job description",
				ArgsUsage: "RESUME|DIR...",
				Action:    rankCommand,
				Flags: []cli.Flag{
					jobFlag(),
					&cli.IntFlag{
						Name:    "workers",
						Aliases: []string{"w"},
						Usage:   "Documents processed concurrently (default is half the CPUs)",
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Chunks retrieved per résumé",
						Value: 5,
					},
					&cli.StringFlag{
						Name:  "pooling",
						Usage: "Chunk pooling strategy (max, mean, weighted)",
						Value: "max",
					},
					&cli.StringFlag{
						Name:  "hint",
						Usage: "Résumé section to favor (skills, experience, education, projects, certifications, summary)",
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts for requests failing with a service error",
						Value: 1,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the ranking as JSON",
					},
					&cli.BoolFlag{
						Name:    "quiet",
						Aliases: []string{"q"},
						Usage:   "Do not print progress",
					},
				},
			},
			{
				Name:  "cache",
				Usage: "Inspect or clear the cache",
				Subcommands: []*cli.Command{
					{
						Name:   "stats",
						Usage:  "Show cache entry counts and sizes",
						Action: cacheStatsCommand,
					},
					{
						Name:   "clear",
						Usage:  "Remove every cached embedding and result",
						Action: cacheClearCommand,
					},
				},
			},
		},
	}
}

func jobFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "job",
		Aliases:  []string{"j"},
		Usage:    "Path to the job description text file",
		Required: true,
	}
}

// beforeAll runs hooks in order, stopping at the first error.
func beforeAll(hooks ...cli.BeforeFunc) cli.BeforeFunc {
	return func(c *cli.Context) error {
		for _, hook := range hooks {
			if err := hook(c); err != nil {
				return err
			}
		}
		return nil
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
