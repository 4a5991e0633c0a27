package reconciliation

import (
	"bufio"
	"bytes"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/calibra/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ParsedEntry is a raw movement read from a bank file. Debits carry a negative amount.
type ParsedEntry struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
}

// ErrUnknownFormat is returned for files that are neither OFX nor CNAB
var ErrUnknownFormat = shared.NewValidationError("file", "Unrecognized bank file layout (expected OFX, CNAB 240 or CNAB 400)")

var (
	ofxTransaction = regexp.MustCompile(`(?is)<STMTTRN>(.*?)</STMTTRN>`)
	ofxAmount      = regexp.MustCompile(`(?i)<TRNAMT>\s*([-+]?[\d.,]+)`)
	ofxPosted      = regexp.MustCompile(`(?i)<DTPOSTED>\s*(\d{8})`)
	ofxMemo        = regexp.MustCompile(`(?i)<MEMO>([^<\r\n]+)`)
	ofxName        = regexp.MustCompile(`(?i)<NAME>([^<\r\n]+)`)
)

// DetectFormat picks a parser from the file extension and the width of the first record
func DetectFormat(filename string, content []byte) (Format, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "ofx" {
		return FormatOFX, nil
	}
	if bytes.Contains(bytes.ToUpper(content), []byte("<OFX")) || bytes.Contains(bytes.ToUpper(content), []byte("<STMTTRN>")) {
		return FormatOFX, nil
	}

	first := firstRecord(content)
	switch len(first) {
	case 240:
		return FormatCNAB240, nil
	case 400:
		return FormatCNAB400, nil
	}
	if (ext == "ret" || ext == "rem") && len(first) > 0 {
		if len(first) > 250 {
			return FormatCNAB400, nil
		}
		return FormatCNAB240, nil
	}
	return "", ErrUnknownFormat
}

// Parse reads every movement of a file in the given format.
// Movements without a date fall back to fallbackDate.
func Parse(format Format, content []byte, fallbackDate time.Time) ([]ParsedEntry, error) {
	switch format {
	case FormatOFX:
		return parseOFX(content, fallbackDate), nil
	case FormatCNAB240:
		return parseCNAB240(content), nil
	case FormatCNAB400:
		return parseCNAB400(content), nil
	}
	return nil, ErrUnknownFormat
}

func firstRecord(content []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(content))
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}

func records(content []byte) []string {
	raw := strings.Split(strings.ReplaceAll(string(content), "\r", ""), "\n")
	out := raw[:0]
	for _, l := range raw {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

func parseOFX(content []byte, fallbackDate time.Time) []ParsedEntry {
	var entries []ParsedEntry
	for _, m := range ofxTransaction.FindAllSubmatch(content, -1) {
		trn := m[1]
		entry := ParsedEntry{Date: fallbackDate, Amount: decimal.Zero}

		if am := ofxAmount.FindSubmatch(trn); am != nil {
			raw := string(am[1])
			if strings.Contains(raw, ",") && !strings.Contains(raw, ".") {
				raw = strings.ReplaceAll(raw, ",", ".")
			} else {
				raw = strings.ReplaceAll(raw, ",", "")
			}
			if v, err := decimal.NewFromString(raw); err == nil {
				entry.Amount = v
			}
		}
		if dm := ofxPosted.FindSubmatch(trn); dm != nil {
			if t, err := time.Parse("20060102", string(dm[1])); err == nil {
				entry.Date = t
			}
		}
		if mm := ofxMemo.FindSubmatch(trn); mm != nil {
			entry.Description = strings.TrimSpace(string(mm[1]))
		} else if nm := ofxName.FindSubmatch(trn); nm != nil {
			entry.Description = strings.TrimSpace(string(nm[1]))
		}
		entries = append(entries, entry)
	}
	return entries
}

// parseCNAB240 reads FEBRABAN 240 return files. Segment T identifies the title,
// the following segment U carries the paid amount and dates.
func parseCNAB240(content []byte) []ParsedEntry {
	type segmentT struct {
		document    string
		dueDate     *time.Time
		amount      decimal.Decimal
		description string
	}

	var (
		entries []ParsedEntry
		segT    *segmentT
	)
	for _, line := range records(content) {
		if len(line) < 240 {
			continue
		}
		if line[7:8] != "3" {
			continue
		}
		switch strings.ToUpper(line[13:14]) {
		case "T":
			segT = &segmentT{
				document:    strings.TrimSpace(line[58:73]),
				dueDate:     cnabDate(line[73:81]),
				amount:      cnabAmount(line[81:96]),
				description: strings.TrimSpace(line[105:130]),
			}
		case "U":
			if segT == nil {
				continue
			}
			paid := cnabAmount(line[77:92])
			date := firstDate(cnabDate(line[145:153]), cnabDate(line[137:145]), segT.dueDate)
			if paid.IsZero() {
				paid = segT.amount
			}
			if date != nil {
				entries = append(entries, ParsedEntry{
					Date:        *date,
					Amount:      paid,
					Description: strings.TrimSpace(segT.description + " Doc:" + segT.document),
				})
			}
			segT = nil
		}
	}
	return entries
}

// parseCNAB400 reads detail records (type 1) of a 400 column return file
func parseCNAB400(content []byte) []ParsedEntry {
	var entries []ParsedEntry
	for _, line := range records(content) {
		if len(line) < 400 || line[0:1] != "1" {
			continue
		}
		amount := cnabAmount(line[152:165])
		paid := cnabAmount(line[253:266])
		date := firstDate(cnabShortDate(line[295:301]), cnabShortDate(line[110:116]))
		if paid.IsZero() {
			paid = amount
		}
		if date == nil {
			continue
		}
		entries = append(entries, ParsedEntry{
			Date:        *date,
			Amount:      paid,
			Description: strings.TrimSpace(strings.TrimSpace(line[31:43]) + " Doc:" + strings.TrimSpace(line[116:126])),
		})
	}
	return entries
}

// cnabAmount converts an integer-cents field
func cnabAmount(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return v.Shift(-2)
}

// cnabDate parses DDMMYYYY
func cnabDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.Trim(raw, "0") == "" {
		return nil
	}
	t, err := time.Parse("02012006", raw)
	if err != nil {
		return nil
	}
	return &t
}

// cnabShortDate parses DDMMYY; years above 50 belong to the 1900s
func cnabShortDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if len(raw) != 6 || strings.Trim(raw, "0") == "" {
		return nil
	}
	yy := raw[4:6]
	century := "20"
	if yy > "50" {
		century = "19"
	}
	return cnabDate(raw[0:4] + century + yy)
}

func firstDate(candidates ...*time.Time) *time.Time {
	for _, c := range candidates {
		if c != nil {
			return c
		}
	}
	return nil
}
