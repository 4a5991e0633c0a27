// Package printing renders HTML documents to PDF with headless Chrome.
package printing

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEmptyDocument = errors.New("printing: empty document")
	ErrRenderTimeout = errors.New("printing: render timed out")
	ErrRenderFailed  = errors.New("printing: render failed")
	ErrTemplate      = errors.New("printing: template failed")
)

// Margins in millimeters
type Margins struct {
	Top, Right, Bottom, Left float64
}

// Uniform returns the same margin on every side
func Uniform(mm float64) Margins {
	return Margins{Top: mm, Right: mm, Bottom: mm, Left: mm}
}

// Document is an A4 page set. HTML may be a fragment; it is wrapped in a
// full document titled Title.
type Document struct {
	HTML      string
	Title     string
	Landscape bool
	Margins   Margins
	// Footer is a Chrome footer template, printed on every page
	Footer string
	// Timeout overrides the renderer default
	Timeout time.Duration
}

// PDFRenderer turns a Document into PDF bytes
type PDFRenderer interface {
	Render(ctx context.Context, doc Document) ([]byte, error)
	Close() error
}
