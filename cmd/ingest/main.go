// Command ingest registers a remotely hosted file with the document engine.
//
// Usage:
//
//	ingest [document-id] <document-url> [title]
//	ingest <document-url> [title]
//
// DOCUMENT_ID, DOCUMENT_URL and DOCUMENT_TITLE fill in whatever is not given on the command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"docportal/internal/config"
	"docportal/internal/engine"
	"docportal/internal/logging"
)

const usage = `usage: ingest [document-id] <document-url> [title]
       ingest <document-url> [title]`

var errURLRequired = errors.New("document url is required")

type ingestArgs struct {
	DocumentID string
	URL        string
	Title      string
}

// parseArgs resolves positional arguments with env fallbacks. With two
// arguments, a first argument starting with "http" is read as the URL.
func parseArgs(args []string, getenv func(string) string) (ingestArgs, error) {
	a := ingestArgs{
		DocumentID: getenv("DOCUMENT_ID"),
		URL:        getenv("DOCUMENT_URL"),
		Title:      getenv("DOCUMENT_TITLE"),
	}

	switch {
	case len(args) >= 3:
		a.DocumentID = or(args[0], a.DocumentID)
		a.URL = or(args[1], a.URL)
		a.Title = or(args[2], a.Title)
	case len(args) == 2 && strings.HasPrefix(args[0], "http"):
		a.URL = or(args[0], a.URL)
		a.Title = or(args[1], a.Title)
	case len(args) == 2:
		a.DocumentID = or(args[0], a.DocumentID)
		a.URL = or(args[1], a.URL)
	case len(args) == 1:
		a.URL = or(args[0], a.URL)
	}

	if a.URL == "" {
		return a, errURLRequired
	}
	return a, nil
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func run(ctx context.Context, eng engine.Client, a ingestArgs, out io.Writer) error {
	id, err := eng.UploadFromURL(ctx, engine.URLUploadOptions{
		URL:        a.URL,
		DocumentID: a.DocumentID,
		Title:      a.Title,
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, id)
	return err
}

func main() {
	logger := logging.New(os.Stderr, time.UTC).With(map[string]any{"component": "ingest"})

	a, err := parseArgs(os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, usage)
		logger.Error("invalid_arguments", err, nil)
		os.Exit(2)
	}

	cfg := config.Load()
	eng, err := engine.New(cfg.DocumentEngine)
	if err != nil {
		logger.Error("document_engine_init_failed", err, nil)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("ingest_started", map[string]any{"url": a.URL, "document_id": a.DocumentID, "title": a.Title})
	if err := run(ctx, eng, a, os.Stdout); err != nil {
		logger.Error("ingest_failed", err, map[string]any{"url": a.URL})
		os.Exit(1)
	}
}
