// File: cmd/fill.go
package cmd

import (
	"fmt"
	"os"

	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hddevteam/smart-form-filler/api/schemas"
	"github.com/hddevteam/smart-form-filler/internal/fill"
	"github.com/hddevteam/smart-form-filler/internal/observability"
)

// newFillCmd creates and configures the `fill` command.
func newFillCmd() *cobra.Command {
	var (
		fromFile     bool
		mappingsPath string
		output       string
	)

	fillCmd := &cobra.Command{
		Use:   "fill <url|file>",
		Short: "Fills mapped values into a page and reports per-field outcomes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			mappings, err := loadMappings(mappingsPath)
			if err != nil {
				return err
			}

			target, err := openTarget(ctx, cfg, args[0], fromFile, logger)
			if err != nil {
				return fmt.Errorf("failed to open target: %w", err)
			}
			defer target.Close()

			filler := fill.NewFiller(target.walker, target.sink, logger)
			report := filler.Fill(ctx, mappings)

			filled, failed, skipped := report.Counts()
			logger.Info("Fill complete",
				zap.Int("filled", filled),
				zap.Int("failed", failed),
				zap.Int("skipped", skipped))
			return writeResult(report, output)
		},
	}

	fillCmd.Flags().BoolVar(&fromFile, "file", false, "treat the target as a saved HTML file instead of a URL")
	fillCmd.Flags().StringVarP(&mappingsPath, "mappings", "m", "", "path to a JSON array of field mappings (required)")
	fillCmd.Flags().StringVarP(&output, "output", "o", "", "write the fill report to a file instead of stdout")
	_ = fillCmd.MarkFlagRequired("mappings")
	return fillCmd
}

func loadMappings(path string) ([]schemas.FieldMapping, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mappings file: %w", err)
	}
	var mappings []schemas.FieldMapping
	if err := json.Unmarshal(raw, &mappings); err != nil {
		return nil, fmt.Errorf("malformed mappings file %q: %w", path, err)
	}
	if len(mappings) == 0 {
		return nil, fmt.Errorf("mappings file %q contains no entries", path)
	}
	return mappings, nil
}
