// Package csvimport reads spreadsheet exports row by row and validates them
// against column rules before they are turned into domain records.
package csvimport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxFileSize is the largest file accepted by NewParser
const MaxFileSize = 10 << 20

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Row is one data line of the file keyed by normalized header
type Row struct {
	Line int
	Data map[string]string
}

// Get returns the trimmed value of a column, or "" when absent
func (r *Row) Get(column string) string {
	return r.Data[column]
}

// Parser reads a delimited file with a header line
type Parser struct {
	reader    *csv.Reader
	headers   []string
	delimiter rune
	aliases   map[string]string
	line      int
}

// ParserOption configures a Parser
type ParserOption func(*Parser)

// WithDelimiter forces the field delimiter instead of detecting it
func WithDelimiter(d rune) ParserOption {
	return func(p *Parser) {
		p.delimiter = d
	}
}

// WithAliases maps alternative header names to canonical columns.
// Keys are compared after normalization.
func WithAliases(aliases map[string]string) ParserOption {
	return func(p *Parser) {
		for k, v := range aliases {
			p.aliases[NormalizeHeader(k)] = v
		}
	}
}

// NewParser loads the file, strips a UTF-8 BOM, decodes Windows-1252 when the
// content is not UTF-8 and reads the header line.
func NewParser(r io.Reader, opts ...ParserOption) (*Parser, error) {
	p := &Parser{aliases: make(map[string]string)}
	for _, opt := range opts {
		opt(p)
	}

	content, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(content) > MaxFileSize {
		return nil, ErrFileTooLarge
	}
	content = bytes.TrimPrefix(content, utf8BOM)
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, ErrEmptyFile
	}
	if !utf8.Valid(content) {
		content, err = charmap.Windows1252.NewDecoder().Bytes(content)
		if err != nil {
			return nil, ErrInvalidEncoding
		}
	}
	if p.delimiter == 0 {
		p.delimiter = detectDelimiter(content)
	}

	p.reader = csv.NewReader(bytes.NewReader(content))
	p.reader.Comma = p.delimiter
	p.reader.LazyQuotes = true
	p.reader.TrimLeadingSpace = true
	p.reader.FieldsPerRecord = -1

	if err := p.readHeader(); err != nil {
		return nil, err
	}
	return p, nil
}

// detectDelimiter picks ';' when the first line has more semicolons than commas
func detectDelimiter(content []byte) rune {
	first, _, _ := bytes.Cut(content, []byte("\n"))
	if bytes.Count(first, []byte(";")) > bytes.Count(first, []byte(",")) {
		return ';'
	}
	return ','
}

func (p *Parser) readHeader() error {
	record, err := p.reader.Read()
	if errors.Is(err, io.EOF) {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}
	p.line = 1
	p.headers = make([]string, len(record))
	for i, h := range record {
		name := NormalizeHeader(h)
		if alias, ok := p.aliases[name]; ok {
			name = alias
		}
		p.headers[i] = name
	}
	return nil
}

// Headers returns the normalized header names
func (p *Parser) Headers() []string {
	return p.headers
}

// Delimiter returns the delimiter in use
func (p *Parser) Delimiter() rune {
	return p.delimiter
}

// Next returns the next non-blank row. It returns io.EOF at the end of the file.
func (p *Parser) Next() (*Row, error) {
	for {
		record, err := p.reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
		}
		p.line++
		if blank(record) {
			continue
		}
		row := &Row{Line: p.line, Data: make(map[string]string, len(p.headers))}
		for i, h := range p.headers {
			if h == "" || i >= len(record) {
				continue
			}
			row.Data[h] = strings.TrimSpace(record[i])
		}
		return row, nil
	}
}

// ReadAll returns every remaining row
func (p *Parser) ReadAll() ([]*Row, error) {
	var rows []*Row
	for {
		row, err := p.Next()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
}

// RequireColumns reports columns missing from the header
func (p *Parser) RequireColumns(columns ...string) error {
	present := make(map[string]bool, len(p.headers))
	for _, h := range p.headers {
		present[h] = true
	}
	var missing []string
	for _, c := range columns {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return nil
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// NormalizeHeader lowercases a header, strips accents and joins words with '_'
func NormalizeHeader(h string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(strings.TrimSpace(h)))
	if err != nil {
		folded = strings.ToLower(strings.TrimSpace(h))
	}
	return strings.Join(strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), "_")
}
