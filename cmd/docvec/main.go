// Copyright 2025 Scribelab
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

// Command docvec runs one document ingestion pass: load the configured
// sources, chunk and embed them, write the vectors to the selected
// store, report, exit. All configuration comes from the environment;
// there are no flags.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/scribelab/docvec"
	"github.com/scribelab/docvec/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "docvec: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A .env file is optional and never overrides the real environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := setupLogger(cfg.LogLevel); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	// Scratch space for repository clones and web downloads. Removed
	// on every exit path; nothing in it outlives the run.
	scratch, err := os.MkdirTemp(cfg.TempDir, "docvec-*")
	if err != nil {
		return fmt.Errorf("create scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	ing, err := docvec.NewIngester(cfg, scratch)
	if err != nil {
		return err
	}
	defer ing.Close()

	pipeline, err := ing.NewPipeline()
	if err != nil {
		return err
	}
	defer pipeline.Release()

	summary, err := pipeline.Run(ctx)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	slog.Info("ingestion finished",
		"backend", cfg.DBType,
		"documents", summary.Documents,
		"written", summary.Written,
		"skipped", len(summary.Skipped))
	return nil
}

func setupLogger(name string) error {
	level, err := config.ParseLogLevel(name)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return nil
}
