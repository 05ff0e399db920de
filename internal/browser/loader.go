// internal/browser/loader.go
package browser

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/hddevteam/smart-form-filler/internal/config"
	"github.com/hddevteam/smart-form-filler/internal/dom"
)

// frameSnapshot is the JSON shape returned by the frame accessor script.
type frameSnapshot struct {
	OK   bool   `json:"ok"`
	HTML string `json:"html"`
	URL  string `json:"url"`
}

// CDPLoader implements dom.FrameLoader against a live session. Each load
// snapshots the frame's current markup, so every walk observes the page as
// it is at that moment.
type CDPLoader struct {
	session *Session
	cfg     config.BrowserConfig
	logger  *zap.Logger
}

var _ dom.FrameLoader = (*CDPLoader)(nil)

// NewCDPLoader creates a loader over the given session.
func NewCDPLoader(session *Session, cfg config.BrowserConfig, logger *zap.Logger) *CDPLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CDPLoader{
		session: session,
		cfg:     cfg,
		logger:  logger.Named("cdp_loader"),
	}
}

// LoadRoot snapshots the main document.
func (l *CDPLoader) LoadRoot(ctx context.Context) (*dom.Document, error) {
	snap, err := l.snapshot(ctx, dom.RootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot main document: %w", err)
	}
	if !snap.OK {
		return nil, fmt.Errorf("main document is not accessible")
	}
	root, err := html.Parse(strings.NewReader(snap.HTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse main document: %w", err)
	}
	return &dom.Document{Root: root, Path: dom.RootPath, URL: snap.URL}, nil
}

// LoadFrame snapshots the index-th iframe of parent. Cross-origin and
// detached frames yield (nil, nil); a frame that stalls past the configured
// load timeout is treated the same way.
func (l *CDPLoader) LoadFrame(ctx context.Context, parent *dom.Document, index int) (*dom.Document, error) {
	path := parent.Path.Child(index)

	loadCtx := ctx
	if l.cfg.FrameLoadTimeout > 0 {
		var cancel context.CancelFunc
		loadCtx, cancel = context.WithTimeout(ctx, l.cfg.FrameLoadTimeout)
		defer cancel()
	}

	snap, err := l.snapshot(loadCtx, path)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Timeout or evaluation failure degrades to a skipped frame.
		l.logger.Debug("Frame snapshot failed",
			zap.String("framePath", path.String()), zap.Error(err))
		return nil, nil
	}
	if !snap.OK {
		return nil, nil
	}
	root, err := html.Parse(strings.NewReader(snap.HTML))
	if err != nil {
		l.logger.Debug("Frame markup failed to parse",
			zap.String("framePath", path.String()), zap.Error(err))
		return nil, nil
	}
	return &dom.Document{Root: root, Path: path, URL: snap.URL}, nil
}

func (l *CDPLoader) snapshot(ctx context.Context, path dom.FramePath) (*frameSnapshot, error) {
	script := fmt.Sprintf(`(() => {
	try {
		const doc = %s;
		if (!doc || !doc.documentElement) return { ok: false, html: "", url: "" };
		return { ok: true, html: doc.documentElement.outerHTML, url: doc.location ? doc.location.href : "" };
	} catch (e) {
		return { ok: false, html: "", url: "" };
	}
})()`, documentAccessor(path))

	var snap frameSnapshot
	if err := l.session.Evaluate(ctx, script, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// documentAccessor builds the JS expression that descends from the main
// document to the document at path. Same-origin access only; a cross-origin
// hop throws inside the snapshot script's try block.
func documentAccessor(path dom.FramePath) string {
	var sb strings.Builder
	sb.WriteString("document")
	for _, index := range path {
		fmt.Fprintf(&sb, ".querySelectorAll('iframe')[%d].contentDocument", index)
	}
	return sb.String()
}
