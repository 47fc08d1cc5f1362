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
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/vecload"
	"github.com/poiesic/vecload/ai"
	"github.com/poiesic/vecload/chunking"
	"github.com/poiesic/vecload/ingestion"
	"github.com/poiesic/vecload/source"
	"github.com/poiesic/vecload/storage/astra"
	"github.com/urfave/cli/v2"
)

func main() {
	// A missing .env file is fine; flags and the environment still apply.
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "vecload",
		Usage: "Chunk, embed and load records into a vector collection",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"VECLOAD_LOG_LEVEL"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "load",
				Usage:  "Provision the collection and load records from a JSON or YAML file",
				Action: loadCommand,
				Flags: append(append(storeFlags(), embeddingFlags()...),
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "Path to the source records file",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Source file format (json, yaml); detected from the extension when empty",
					},
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Maximum chunk length in characters",
						Value: chunking.DefaultChunkSize,
					},
					&cli.IntFlag{
						Name:  "overlap",
						Usage: "Characters shared by neighbouring chunks",
						Value: chunking.DefaultChunkOverlap,
					},
					&cli.StringFlag{
						Name:  "strategy",
						Usage: "Chunking strategy (window, recursive)",
						Value: string(chunking.StrategyWindow),
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of records processed concurrently",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  "embed-concurrency",
						Usage: "Number of chunks of one record embedded concurrently",
						Value: 1,
					},
					&cli.StringFlag{
						Name:  "write-mode",
						Usage: "How entries are written (append, upsert)",
						Value: ingestion.WriteModeAppend.String(),
					},
					&cli.BoolFlag{
						Name:  "continue-on-error",
						Usage: "Keep loading after a record fails",
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N records",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts per embedding call",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.Float64Flag{
						Name:  "rate-limit",
						Usage: "Maximum embedding calls per second (0 for no limit)",
					},
					&cli.IntFlag{
						Name:  "rate-burst",
						Usage: "Embedding calls allowed in a burst above the rate limit",
						Value: 1,
					},
				),
			},
			{
				Name:   "provision",
				Usage:  "Create the collection if it does not exist",
				Action: provisionCommand,
				Flags:  storeFlags(),
			},
			{
				Name:   "count",
				Usage:  "Print the number of entries in the collection",
				Action: countCommand,
				Flags:  storeFlags(),
			},
		},
	}
}

func storeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "store",
			Usage:   "Vector store backend (badger, astra)",
			Value:   string(vecload.StoreBadger),
			EnvVars: []string{"VECLOAD_STORE"},
		},
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to BadgerDB database directory",
			Value:   "vecload.db",
		},
		&cli.StringFlag{
			Name:    "astra-endpoint",
			Usage:   "Astra DB API endpoint",
			EnvVars: []string{"ASTRA_DB_API_ENDPOINT"},
		},
		&cli.StringFlag{
			Name:    "astra-token",
			Usage:   "Astra DB application token",
			EnvVars: []string{"ASTRA_DB_APPLICATION_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "astra-namespace",
			Usage:   "Astra DB keyspace",
			Value:   astra.DefaultKeyspace,
			EnvVars: []string{"ASTRA_DB_NAMESPACE"},
		},
		&cli.StringFlag{
			Name:    "collection",
			Aliases: []string{"c"},
			Usage:   "Destination collection name",
			Value:   vecload.DefaultCollection,
		},
		&cli.IntFlag{
			Name:  "dimension",
			Usage: "Vector dimension of the collection",
			Value: vecload.DefaultDimension,
		},
	}
}

func embeddingFlags() []cli.Flag {
	defaults := ai.DefaultConfig()
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "embedding-backend",
			Usage: "Embedding client (langchain, openai)",
			Value: string(defaults.Backend),
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: defaults.EmbeddingHost,
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: defaults.EmbeddingModel,
		},
		&cli.StringFlag{
			Name:    "api-key",
			Usage:   "Embedding service API key",
			EnvVars: []string{"OPENAI_KEY", "OPENAI_API_KEY"},
		},
		&cli.DurationFlag{
			Name:  "embedding-timeout",
			Usage: "Timeout of a single embedding call",
			Value: defaults.Timeout,
		},
	}
}

// pipelineOptions translates the store flags shared by every command.
func pipelineOptions(c *cli.Context) ([]vecload.Option, error) {
	opts := []vecload.Option{
		vecload.WithCollection(c.String("collection")),
		vecload.WithDimension(c.Int("dimension")),
	}

	switch vecload.StoreKind(c.String("store")) {
	case vecload.StoreBadger:
		if c.String("db") == "" {
			return nil, fmt.Errorf("database path is required")
		}
		opts = append(opts, vecload.WithBadger(c.String("db")))
	case vecload.StoreAstra:
		opts = append(opts, vecload.WithAstra(astra.Config{
			Endpoint: c.String("astra-endpoint"),
			Token:    c.String("astra-token"),
			Keyspace: c.String("astra-namespace"),
		}))
	default:
		return nil, fmt.Errorf("invalid store %q: must be one of badger, astra", c.String("store"))
	}
	return opts, nil
}

func loadCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Validate flags before anything is opened
	writeMode, err := ingestion.ParseWriteMode(c.String("write-mode"))
	if err != nil {
		return err
	}
	if c.Int("report-interval") <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if c.Int("max-retries") <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}
	format, err := source.ParseFormat(c.String("format"))
	if err != nil {
		return err
	}

	opts, err := pipelineOptions(c)
	if err != nil {
		return err
	}

	aiConfig := ai.NewConfig(
		ai.WithBackend(ai.Backend(c.String("embedding-backend"))),
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithAPIKey(c.String("api-key")),
		ai.WithTimeout(c.Duration("embedding-timeout")),
	)
	opts = append(opts,
		vecload.WithAIConfig(aiConfig),
		vecload.WithChunking(
			chunking.WithChunkSize(c.Int("chunk-size")),
			chunking.WithChunkOverlap(c.Int("overlap")),
			chunking.WithStrategy(chunking.Strategy(c.String("strategy"))),
		),
		vecload.WithRetry(c.Int("max-retries"), c.Duration("retry-delay")),
		vecload.WithRateLimit(c.Float64("rate-limit"), c.Int("rate-burst")),
	)

	records, err := source.ReadFile(c.String("input"), format)
	if err != nil {
		return fmt.Errorf("failed to read records: %w", err)
	}

	pipeline, err := vecload.NewPipeline(opts...)
	if err != nil {
		return fmt.Errorf("failed to open pipeline: %w", err)
	}
	defer pipeline.Close()

	fmt.Fprintf(os.Stderr, "Input: %s (%d records)\n", c.String("input"), len(records))
	fmt.Fprintf(os.Stderr, "Store: %s\n", c.String("store"))
	fmt.Fprintf(os.Stderr, "Collection: %s\n", c.String("collection"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", aiConfig.EmbeddingModel)
	fmt.Fprintln(os.Stderr)

	summary, err := pipeline.Run(ctx, records,
		ingestion.WithWorkers(c.Int("workers")),
		ingestion.WithEmbedConcurrency(c.Int("embed-concurrency")),
		ingestion.WithWriteMode(writeMode),
		ingestion.WithContinueOnError(c.Bool("continue-on-error")),
		ingestion.WithProgress(os.Stderr, c.Int("report-interval")),
	)
	if summary != nil {
		fmt.Fprintln(c.App.Writer, summary)
	}
	if err != nil {
		return fmt.Errorf("load failed: %w", err)
	}
	return nil
}

func provisionCommand(c *cli.Context) error {
	opts, err := pipelineOptions(c)
	if err != nil {
		return err
	}

	pipeline, err := vecload.NewPipeline(opts...)
	if err != nil {
		return fmt.Errorf("failed to open pipeline: %w", err)
	}
	defer pipeline.Close()

	status, err := pipeline.Provision(c.Context)
	if err != nil {
		return fmt.Errorf("provisioning failed: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "%s: %s\n", c.String("collection"), status)
	return nil
}

func countCommand(c *cli.Context) error {
	opts, err := pipelineOptions(c)
	if err != nil {
		return err
	}

	pipeline, err := vecload.NewPipeline(opts...)
	if err != nil {
		return fmt.Errorf("failed to open pipeline: %w", err)
	}
	defer pipeline.Close()

	count, err := pipeline.Collection().CountDocuments(c.Context)
	if err != nil {
		return fmt.Errorf("count failed: %w", err)
	}
	fmt.Fprintln(c.App.Writer, count)
	return nil
}

func setupLogger(c *cli.Context) error {
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

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
