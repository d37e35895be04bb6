// Package cli implements the docextract command line.
package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/pipeline"
	"github.com/joseph-ayodele/docextract/internal/server"
)

// version is overridden at build time with -ldflags "-X ...cli.version=...".
var version = "dev"

// newProcessor builds the pipeline from configuration. Tests replace it.
var newProcessor = func(ctx context.Context, cfg *common.Config, logger *slog.Logger) (server.DocumentProcessor, func() error, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return pipeline.NewFromConfig(ctx, cfg, logger)
}

var rootCmd = &cobra.Command{
	Use:   "docextract",
	Short: "Extract structured fields from scanned documents",
	Long: `docextract runs OCR over a PDF or image, classifies the document,
extracts the requested fields with an LLM and scores each value.`,
	SilenceUsage: true,
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
