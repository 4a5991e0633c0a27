package printing

import (
	"cmp"
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/calibra/backend/internal/infrastructure/config"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const (
	defaultChromeTimeout = 30 * time.Second
	// A4 in millimeters
	paperWidthMM  = 210.0
	paperHeightMM = 297.0
)

// ChromedpRenderer renders HTML to PDF using the Chrome DevTools Protocol.
// One allocator is shared; every Render opens its own browser tab.
type ChromedpRenderer struct {
	timeout     time.Duration
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewChromedpRenderer creates a renderer. With cfg.ChromeURL set it attaches
// to a remote browser, otherwise it launches a local headless Chrome on first use.
func NewChromedpRenderer(cfg config.PrintingConfig, logger *zap.Logger) *ChromedpRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &ChromedpRenderer{timeout: cmp.Or(cfg.Timeout, defaultChromeTimeout), logger: logger}

	if cfg.ChromeURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.ChromeURL)
		return r
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	return r
}

// Render prints doc in a fresh tab
func (r *ChromedpRenderer) Render(ctx context.Context, doc Document) ([]byte, error) {
	if strings.TrimSpace(doc.HTML) == "" {
		return nil, ErrEmptyDocument
	}
	start := time.Now()

	timeout := cmp.Or(doc.Timeout, r.timeout)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// tabCtx derives from the allocator, so ctx expiry has to close it explicitly
	tabCtx, tabCancel := chromedp.NewContext(r.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			r.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer tabCancel()
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	params := printParams(doc)
	document := wrapHTML(doc)

	var pdf []byte
	err := chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, document).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := params.Do(ctx)
			if err != nil {
				return err
			}
			pdf = data
			return nil
		}),
	)
	switch {
	case err != nil && ctx.Err() != nil:
		return nil, fmt.Errorf("%w after %v: %w", ErrRenderTimeout, timeout, ctx.Err())
	case err != nil:
		r.logger.Error("Chrome print failed", zap.String("title", doc.Title), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrRenderFailed, err)
	case len(pdf) == 0:
		return nil, fmt.Errorf("%w: empty output", ErrRenderFailed)
	}
	r.logger.Debug("PDF rendered",
		zap.String("title", doc.Title),
		zap.Int("bytes", len(pdf)),
		zap.Duration("duration", time.Since(start)))
	return pdf, nil
}

func printParams(doc Document) *page.PrintToPDFParams {
	m := doc.Margins
	params := page.PrintToPDF().
		WithPrintBackground(true).
		WithPaperWidth(mmToInches(paperWidthMM)).
		WithPaperHeight(mmToInches(paperHeightMM)).
		WithMarginTop(mmToInches(m.Top)).
		WithMarginRight(mmToInches(m.Right)).
		WithMarginBottom(mmToInches(m.Bottom)).
		WithMarginLeft(mmToInches(m.Left)).
		WithLandscape(doc.Landscape)
	if doc.Footer != "" {
		// the footer template needs at least 10mm to be visible
		params = params.
			WithDisplayHeaderFooter(true).
			WithHeaderTemplate("<span></span>").
			WithFooterTemplate(doc.Footer).
			WithMarginBottom(mmToInches(max(m.Bottom, 10)))
	}
	return params
}

func wrapHTML(doc Document) string {
	lower := strings.ToLower(doc.HTML)
	if strings.Contains(lower, "<!doctype") || strings.Contains(lower, "<html") {
		return doc.HTML
	}
	title := ""
	if doc.Title != "" {
		title = "<title>" + html.EscapeString(doc.Title) + "</title>"
	}
	return `<!DOCTYPE html><html><head><meta charset="UTF-8">` + title + "</head><body>" + doc.HTML + "</body></html>"
}

// Close shuts the browser down
func (r *ChromedpRenderer) Close() error {
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}

func mmToInches(mm float64) float64 {
	return mm / 25.4
}

var _ PDFRenderer = (*ChromedpRenderer)(nil)
