// File: cmd/extract.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hddevteam/smart-form-filler/internal/extract"
	"github.com/hddevteam/smart-form-filler/internal/observability"
)

// newExtractCmd creates and configures the `extract` command.
func newExtractCmd() *cobra.Command {
	var (
		fromFile bool
		output   string
	)

	extractCmd := &cobra.Command{
		Use:   "extract <url|file>",
		Short: "Extracts page content across iframes as sanitized HTML and markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			target, err := openTarget(ctx, cfg, args[0], fromFile, logger)
			if err != nil {
				return fmt.Errorf("failed to open target: %w", err)
			}
			defer target.Close()

			extractor := extract.NewExtractor(target.walker, logger)
			bundle, err := extractor.Extract(ctx)
			if err != nil {
				return fmt.Errorf("extraction failed: %w", err)
			}

			logger.Info("Extraction complete", zap.Int("frames", len(bundle.Frames)))
			return writeResult(bundle, output)
		},
	}

	extractCmd.Flags().BoolVar(&fromFile, "file", false, "treat the target as a saved HTML file instead of a URL")
	extractCmd.Flags().StringVarP(&output, "output", "o", "", "write the extraction bundle to a file instead of stdout")
	return extractCmd
}
