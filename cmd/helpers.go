// File: cmd/helpers.go
package cmd

import (
	"context"
	"fmt"
	"os"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/hddevteam/smart-form-filler/internal/browser"
	"github.com/hddevteam/smart-form-filler/internal/config"
	"github.com/hddevteam/smart-form-filler/internal/dom"
	"github.com/hddevteam/smart-form-filler/internal/fill"
)

// pageTarget bundles the frame loader and event sink for one page, whether a
// live Chrome tab or a saved HTML file.
type pageTarget struct {
	walker  *dom.Walker
	sink    fill.EventSink
	cleanup func()
}

func (t *pageTarget) Close() {
	if t.cleanup != nil {
		t.cleanup()
	}
}

// openTarget attaches to the page named by target. With fromFile set, target
// is a path to a saved HTML document served through the static loader;
// otherwise a browser session is started and navigated there.
func openTarget(ctx context.Context, cfg *config.Config, target string, fromFile bool, logger *zap.Logger) (*pageTarget, error) {
	if fromFile {
		source, err := os.ReadFile(target)
		if err != nil {
			return nil, fmt.Errorf("failed to read %q: %w", target, err)
		}
		loader := dom.NewStaticLoader().AddFrame("", string(source)).SetURL("", "file://"+target)
		return &pageTarget{
			walker: dom.NewWalker(loader, cfg.Detector.MaxFrameDepth, logger),
			sink:   fill.TreeSink{},
		}, nil
	}

	session, err := browser.NewSession(ctx, cfg.Browser, logger)
	if err != nil {
		return nil, err
	}
	if err := session.Navigate(ctx, target); err != nil {
		session.Close()
		return nil, err
	}
	loader := browser.NewCDPLoader(session, cfg.Browser, logger)
	return &pageTarget{
		walker:  dom.NewWalker(loader, cfg.Detector.MaxFrameDepth, logger),
		sink:    browser.NewCDPSink(session, logger),
		cleanup: session.Close,
	}, nil
}

// writeResult emits v as indented JSON to stdout or the named file.
func writeResult(v interface{}, outputPath string) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	out = append(out, '\n')
	if outputPath == "" {
		_, err = os.Stdout.Write(out)
		return err
	}
	return os.WriteFile(outputPath, out, 0o644)
}
