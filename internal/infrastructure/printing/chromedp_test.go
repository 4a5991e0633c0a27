package printing

import (
	"context"
	"testing"
	"time"

	"github.com/calibra/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestBuildPrintParams_A4(t *testing.T) {
	params := printParams(Document{HTML: "<p>x</p>", Margins: Uniform(15)})

	assert.InDelta(t, mmToInches(210), params.PaperWidth, 0.01)
	assert.InDelta(t, mmToInches(297), params.PaperHeight, 0.01)
	assert.InDelta(t, mmToInches(15), params.MarginTop, 0.01)
	assert.False(t, params.Landscape)
	assert.True(t, params.PrintBackground)
	assert.False(t, params.DisplayHeaderFooter)
}

func TestBuildPrintParams_FooterNeedsRoom(t *testing.T) {
	params := printParams(Document{
		HTML:      "<p>x</p>",
		Landscape: true,
		Margins:   Margins{Top: 5, Right: 5, Bottom: 2, Left: 5},
		Footer:    "<span class=\"pageNumber\"></span>",
	})

	assert.True(t, params.Landscape)
	assert.True(t, params.DisplayHeaderFooter)
	assert.InDelta(t, mmToInches(10), params.MarginBottom, 0.01)
}

func TestWrapHTML(t *testing.T) {
	full := "<!DOCTYPE html><html><body>ok</body></html>"
	assert.Equal(t, full, wrapHTML(Document{HTML: full}))

	wrapped := wrapHTML(Document{HTML: "<p>ok</p>", Title: "A & B"})
	assert.Contains(t, wrapped, "<title>A &amp; B</title>")
	assert.Contains(t, wrapped, "<body><p>ok</p></body>")
}

func TestRender_RejectsEmptyHTML(t *testing.T) {
	r := NewChromedpRenderer(config.PrintingConfig{Timeout: time.Second}, zap.NewNop())
	defer r.Close()

	_, err := r.Render(context.Background(), Document{HTML: "   "})
	assert.ErrorIs(t, err, ErrEmptyDocument)
}
