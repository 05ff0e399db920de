// internal/browser/session.go
// Package browser binds the engine to a live Chrome target over CDP. It
// provides the FrameLoader and EventSink implementations used when the
// engine runs against a real page instead of an in-memory fixture.
package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hddevteam/smart-form-filler/internal/config"
)

// Session owns one Chrome tab and its allocator. All CDP traffic for the
// loader and the event sink flows through the session's target context.
type Session struct {
	id     string
	cfg    config.BrowserConfig
	logger *zap.Logger

	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc

	mu       sync.Mutex
	isClosed bool
}

// NewSession launches (or attaches to) a Chrome target. With RemoteURL set
// the session attaches to an already running browser; otherwise it execs a
// local one.
func NewSession(parent context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	sessionID := uuid.New().String()

	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if cfg.RemoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(parent, cfg.RemoteURL)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.NoFirstRun,
			chromedp.NoDefaultBrowserCheck,
			chromedp.DisableGPU,
		)
		if cfg.Headless {
			opts = append(opts, chromedp.Headless)
		} else {
			opts = append(opts, chromedp.Flag("headless", false))
		}
		allocCtx, allocCancel = chromedp.NewExecAllocator(parent, opts...)
	}

	ctx, cancel := chromedp.NewContext(allocCtx)

	s := &Session{
		id:          sessionID,
		cfg:         cfg,
		logger:      logger.Named("browser").With(zap.String("session_id", sessionID)),
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		ctx:         ctx,
		cancel:      cancel,
	}

	// Establish the target connection up front so a broken Chrome install
	// fails here instead of on the first page operation.
	if err := chromedp.Run(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to connect to browser target: %w", err)
	}
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Navigate loads a URL and waits for the document body to be ready, bounded
// by the configured navigation timeout.
func (s *Session) Navigate(ctx context.Context, url string) error {
	navCtx := ctx
	if s.cfg.NavigationTimeout > 0 {
		var cancel context.CancelFunc
		navCtx, cancel = context.WithTimeout(ctx, s.cfg.NavigationTimeout)
		defer cancel()
	}
	if err := s.run(navCtx, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return fmt.Errorf("failed to navigate to %q: %w", url, err)
	}
	s.logger.Debug("Navigation complete", zap.String("url", url))
	return nil
}

// Evaluate runs a JavaScript expression in the main frame, optionally
// unmarshaling the result into res. Results come back by value so the page
// never holds a remote object reference on our behalf.
func (s *Session) Evaluate(ctx context.Context, expression string, res interface{}) error {
	return s.run(ctx, chromedp.Evaluate(expression, res,
		func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithReturnByValue(true).WithAwaitPromise(true)
		}))
}

// Close tears the tab and its allocator down. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isClosed {
		return
	}
	s.isClosed = true
	s.cancel()
	s.allocCancel()
	s.logger.Debug("Session closed")
}

// run executes chromedp actions on the session target, honoring the caller's
// context for cancellation.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	s.mu.Lock()
	if s.isClosed {
		s.mu.Unlock()
		return fmt.Errorf("session is closed")
	}
	target := s.ctx
	s.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- chromedp.Run(target, actions...)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
