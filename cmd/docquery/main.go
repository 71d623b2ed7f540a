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
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/docquery"
	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/ai/openai"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/ingestion"
	"github.com/poiesic/docquery/pipeline"
	"github.com/poiesic/docquery/reindex"
	"github.com/poiesic/docquery/storage/badger"
)

func main() {
	app := &cli.App{
		Name:  "docquery",
		Usage: "Retrieval-augmented question answering over local documents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest text files into the document store",
				ArgsUsage: "FILE [FILE...]",
				Action:    ingestCommand,
				Flags: append(storeFlags(),
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Chunk window size in words",
						Value: 200,
					},
					&cli.IntFlag{
						Name:  "overlap",
						Usage: "Word overlap between consecutive chunks",
						Value: 40,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of files processed concurrently",
						Value: 4,
					},
				),
			},
			{
				Name:      "query",
				Usage:     "Answer a question from the document store",
				ArgsUsage: "QUESTION",
				Action:    queryCommand,
				Flags: append(storeFlags(),
					&cli.StringFlag{
						Name:  "generation-model",
						Usage: "Generation model name",
						Value: "qwen2.5:3b",
					},
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Number of context chunks to use",
						Value:   5,
					},
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
						Usage:   "Include a per-stage trace in the output",
					},
					&cli.BoolFlag{
						Name:  "scoring",
						Usage: "Enable the LLM-backed relevance scorer (slower)",
					},
					&cli.IntFlag{
						Name:  "context-budget",
						Usage: "Context size limit in tokens",
						Value: pipeline.DefaultContextBudget,
					},
				),
			},
			{
				Name:   "stats",
				Usage:  "Show chunk and source counts for the document store",
				Action: statsCommand,
				Flags: []cli.Flag{
					dbFlag(),
				},
			},
			{
				Name:   "reindex",
				Usage:  "Re-embed every chunk into a fresh store with a new model",
				Action: reindexCommand,
				Flags: append(storeFlags(),
					&cli.StringFlag{
						Name:     "out",
						Aliases:  []string{"o"},
						Usage:    "Path for the rebuilt store",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed embedding calls",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "db",
		Aliases:  []string{"d"},
		Usage:    "Path to the document store directory",
		Required: true,
	}
}

func storeFlags() []cli.Flag {
	return []cli.Flag{
		dbFlag(),
		&cli.StringFlag{
			Name:  "host",
			Usage: "OpenAI-compatible service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
	}
}

func aiConfigFromFlags(c *cli.Context) (*ai.Config, error) {
	cfg := ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)
	if model := c.String("generation-model"); model != "" {
		cfg.GenerationModel = model
	}
	cfg.EnableScoring = c.Bool("scoring")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	return cfg, nil
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file is required")
	}

	aiConfig, err := aiConfigFromFlags(c)
	if err != nil {
		return err
	}

	db, err := docquery.NewDatabase(c.String("db"), docquery.WithAIConfig(aiConfig))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ingester, err := db.NewIngestionPipeline(
		ingestion.WithChunkSize(c.Int("chunk-size")),
		ingestion.WithOverlap(c.Int("overlap")),
		ingestion.WithPoolSize(c.Int("workers")),
	)
	if err != nil {
		return err
	}
	defer ingester.Release()

	total, err := ingester.IngestFiles(context.Background(), c.Args().Slice())
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("Ingested %d chunks from %d files\n", total, c.NArg())
	return nil
}

func queryCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("a question is required")
	}
	question := strings.Join(c.Args().Slice(), " ")

	aiConfig, err := aiConfigFromFlags(c)
	if err != nil {
		return err
	}

	db, err := docquery.NewDatabase(c.String("db"), docquery.WithAIConfig(aiConfig))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	engine, err := db.NewQueryEngine(
		pipeline.WithContextBudget(c.Int("context-budget")),
		pipeline.WithTokenCounter(pipeline.NewTiktokenCounter("")),
	)
	if err != nil {
		return err
	}
	defer engine.Release()

	resp, err := engine.Query(context.Background(), core.Query{
		Text:    question,
		TopK:    c.Int("top-k"),
		Verbose: c.Bool("verbose"),
	})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	fmt.Println(resp.Answer)
	fmt.Printf("\nConfidence: %.1f\n", resp.Confidence)
	if resp.Degraded {
		fmt.Println("(degraded: fine-grained reranking was unavailable)")
	}
	if len(resp.Sources) > 0 {
		fmt.Println("Sources:")
		for _, src := range resp.Sources {
			fmt.Printf("  %s (%d)\n", src.SourcePath, src.ChunkID)
		}
	}
	for _, entry := range resp.Trace {
		fmt.Printf("[%s] %s\n", entry.Stage, entry.Summary)
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	store, err := badger.NewStore(backend)
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Stats(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Chunks:  %d\n", stats.Chunks)
	fmt.Printf("Sources: %d\n", stats.Sources)
	return nil
}

func reindexCommand(c *cli.Context) error {
	ctx := context.Background()

	sourceBackend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open source database: %w", err)
	}
	defer sourceBackend.Close()

	source, err := badger.NewStore(sourceBackend)
	if err != nil {
		return err
	}
	defer source.Close()

	destBackend, err := badger.OpenBackend(c.String("out"), false)
	if err != nil {
		return fmt.Errorf("failed to open destination database: %w", err)
	}
	defer destBackend.Close()

	destination, err := badger.NewStore(destBackend)
	if err != nil {
		return err
	}
	defer destination.Close()

	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	reindexConfig := &reindex.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if reindexConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reindexConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	rebuilder, err := reindex.NewRebuilder(source, destination, embedder, reindexConfig, os.Stderr)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Source:          %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Destination:     %s\n", c.String("out"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	if err := rebuilder.Run(ctx); err != nil {
		return fmt.Errorf("reindexing failed: %w", err)
	}
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
