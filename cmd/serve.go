// File: cmd/serve.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hddevteam/smart-form-filler/api/schemas"
	"github.com/hddevteam/smart-form-filler/internal/bridge"
	"github.com/hddevteam/smart-form-filler/internal/detect"
	"github.com/hddevteam/smart-form-filler/internal/extract"
	"github.com/hddevteam/smart-form-filler/internal/fill"
	"github.com/hddevteam/smart-form-filler/internal/llmclient"
	"github.com/hddevteam/smart-form-filler/internal/mapper"
	"github.com/hddevteam/smart-form-filler/internal/observability"
	"github.com/hddevteam/smart-form-filler/internal/workflow"
)

// newServeCmd creates and configures the `serve` command.
func newServeCmd() *cobra.Command {
	var (
		fromFile bool
		listen   string
	)

	serveCmd := &cobra.Command{
		Use:   "serve <url|file>",
		Short: "Serves the local message bridge against a page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			if listen != "" {
				cfg.Bridge.ListenAddr = listen
			}

			target, err := openTarget(ctx, cfg, args[0], fromFile, logger)
			if err != nil {
				return fmt.Errorf("failed to open target: %w", err)
			}
			defer target.Close()

			// Detection and fill work without a model; analysis and mapping
			// report a configuration error until a key is provided.
			var llm schemas.LLMClient
			if cfg.Mapper.Fast.APIKey == "" && cfg.Mapper.Powerful.APIKey == "" {
				logger.Warn("No model API key configured, AI mapping is disabled")
				llm = llmclient.Unavailable{}
			} else {
				router, err := llmclient.NewRouterFromConfig(ctx, cfg.Mapper, logger)
				if err != nil {
					return fmt.Errorf("failed to initialize model clients: %w", err)
				}
				defer router.Close()
				llm = router
			}

			detector := detect.NewDetector(target.walker, cfg.Detector, logger)
			filler := fill.NewFiller(target.walker, target.sink, logger)
			fieldMapper := mapper.New(llm, cfg.Mapper, logger)

			orchestrator, err := workflow.New(cfg.Workflow, detector, fieldMapper, filler, logger)
			if err != nil {
				return err
			}
			extractor := extract.NewExtractor(target.walker, logger)

			handler := bridge.NewMessageHandler(orchestrator, extractor, logger)
			server := bridge.NewServer(cfg.Bridge, handler, logger)

			logger.Info("Bridge starting",
				zap.String("target", args[0]),
				zap.String("addr", cfg.Bridge.ListenAddr))
			return server.Run(ctx)
		},
	}

	serveCmd.Flags().BoolVar(&fromFile, "file", false, "treat the target as a saved HTML file instead of a URL")
	serveCmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address override (default from config)")
	return serveCmd
}
