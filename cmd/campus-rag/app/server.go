// Package app provides the campus-rag server application.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kart-io/campus-rag/cmd/campus-rag/app/options"
	"github.com/kart-io/campus-rag/internal/campusrag"
	"github.com/kart-io/campus-rag/pkg/infra/app"
)

// commandDesc is the description of the command.
const commandDesc = `Campus RAG Service

The retrieval-augmented question answering backend for university campus assistants.

This server provides, for the wichita (/api) and wsu (/wsu/api) tenants:
  - Question answering over ingested campus documents
  - FAQ listing and translation
  - Speech transcription
  - Document and URL ingestion, document deletion
  - Query analytics bucketed by hour (wsu)`

// NewApp creates and returns a new App object with default parameters.
func NewApp() *app.App {
	opts := options.NewServerOptions()
	return app.NewApp(
		app.WithName(campusrag.Name),
		app.WithShortDescription("Campus RAG backend"),
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithRunFunc(run(opts)),
	)
}

// run contains the main logic for initializing and running the server.
func run(opts *options.ServerOptions) app.RunFunc {
	return func() error {
		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		ctx := setupSignalContext()

		server, err := cfg.NewServer(ctx)
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}
		return server.Run(ctx)
	}
}

// setupSignalContext returns a context that is cancelled on SIGINT or SIGTERM.
// A second signal exits immediately.
func setupSignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
		<-c
		os.Exit(1)
	}()
	return ctx
}
