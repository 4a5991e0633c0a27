package printing

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/calibra/backend/internal/application/commission"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed templates/*.html
var templateFS embed.FS

var brl = message.NewPrinter(language.BrazilianPortuguese)

var funcMap = template.FuncMap{
	"formatMoney":      formatMoney,
	"formatDate":       formatDate,
	"formatMultiplier": formatMultiplier,
}

// StatementRenderer prints commission settlement statements
type StatementRenderer struct {
	pdf  PDFRenderer
	tmpl *template.Template
	loc  *time.Location
}

// NewStatementRenderer parses the embedded statement template. Dates are
// printed in loc (UTC when nil).
func NewStatementRenderer(pdf PDFRenderer, loc *time.Location) (*StatementRenderer, error) {
	tmpl, err := template.New("commission_statement.html").
		Funcs(funcMap).
		ParseFS(templateFS, "templates/commission_statement.html")
	if err != nil {
		return nil, fmt.Errorf("parse statement template: %w", err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &StatementRenderer{pdf: pdf, tmpl: tmpl, loc: loc}, nil
}

const pageCounter = `<div style="font-size:8px;width:100%;text-align:right;padding-right:15mm">` +
	`<span class="pageNumber"></span>/<span class="totalPages"></span></div>`

// HTML executes the statement template
func (r *StatementRenderer) HTML(data commission.StatementData) (string, error) {
	for i := range data.Lines {
		data.Lines[i].Date = data.Lines[i].Date.In(r.loc)
	}
	if data.PaidAt != nil {
		at := data.PaidAt.In(r.loc)
		data.PaidAt = &at
	}
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: statement: %w", ErrTemplate, err)
	}
	return buf.String(), nil
}

// RenderStatement renders the statement to PDF
func (r *StatementRenderer) RenderStatement(ctx context.Context, data commission.StatementData) ([]byte, error) {
	html, err := r.HTML(data)
	if err != nil {
		return nil, err
	}
	return r.pdf.Render(ctx, Document{
		HTML:    html,
		Title:   "Extrato de comissões " + data.Period,
		Margins: Uniform(15),
		Footer:  pageCounter,
	})
}

func formatMoney(v any) string {
	var d decimal.Decimal
	switch x := v.(type) {
	case decimal.Decimal:
		d = x
	case *decimal.Decimal:
		if x == nil {
			return ""
		}
		d = *x
	default:
		return fmt.Sprint(v)
	}
	return brl.Sprintf("R$ %.2f", d.Round(2).InexactFloat64())
}

func formatDate(v any) string {
	switch x := v.(type) {
	case time.Time:
		return x.Format("02/01/2006")
	case *time.Time:
		if x == nil {
			return ""
		}
		return x.Format("02/01/2006")
	}
	return ""
}

func formatMultiplier(d decimal.Decimal) string {
	return brl.Sprintf("%.2fx", d.InexactFloat64())
}

var _ commission.StatementRenderer = (*StatementRenderer)(nil)
