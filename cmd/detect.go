// File: cmd/detect.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hddevteam/smart-form-filler/internal/detect"
	"github.com/hddevteam/smart-form-filler/internal/observability"
)

// newDetectCmd creates and configures the `detect` command.
func newDetectCmd() *cobra.Command {
	var (
		fromFile bool
		output   string
	)

	detectCmd := &cobra.Command{
		Use:   "detect <url|file>",
		Short: "Detects fillable forms on a page, including same-origin iframes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			target, err := openTarget(ctx, cfg, args[0], fromFile, logger)
			if err != nil {
				return fmt.Errorf("failed to open target: %w", err)
			}
			defer target.Close()

			detector := detect.NewDetector(target.walker, cfg.Detector, logger)
			result, err := detector.Detect(ctx)
			if err != nil {
				return fmt.Errorf("detection failed: %w", err)
			}

			logger.Info("Detection complete",
				zap.Int("forms", result.Stats.TotalForms),
				zap.Int("fillableFields", result.Stats.FillableFields),
				zap.Int("frames", result.Stats.FramesVisited))
			return writeResult(result, output)
		},
	}

	detectCmd.Flags().BoolVar(&fromFile, "file", false, "treat the target as a saved HTML file instead of a URL")
	detectCmd.Flags().StringVarP(&output, "output", "o", "", "write the detection result to a file instead of stdout")
	return detectCmd
}
