package reconciliation

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// AutoMatchAmountTolerance is the open-amount window used by AutoMatch
	AutoMatchAmountTolerance = "0.05"
	// AutoMatchDayWindow is the due date window used by AutoMatch
	AutoMatchDayWindow = 5
	// SuggestionLimit is the number of suggestions returned per entry
	SuggestionLimit = 5
	// BulkAcceptScore is the minimum score for bulk auto-match to accept a suggestion
	BulkAcceptScore = 70.0
	// DuplicateTolerance is the amount window of duplicate detection
	DuplicateTolerance = "0.01"
)

// Candidate is an open receivable or payable considered for a match
type Candidate struct {
	Type        MatchedType     `json:"type"`
	ID          uuid.UUID       `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     time.Time       `json:"due_date"`
	Customer    string          `json:"customer,omitempty"`
}

// Suggestion is a scored candidate
type Suggestion struct {
	Candidate
	Score float64 `json:"score"`
}

// CandidateType is the ledger side an entry is reconciled against
func (e *Entry) CandidateType() MatchedType {
	if e.Type == EntryDebit {
		return MatchedPayable
	}
	return MatchedReceivable
}

// Score rates a candidate against an entry on a 0..100 scale.
// Value closeness weighs 50, due date proximity 30, description similarity 20.
func Score(entry *Entry, c Candidate) float64 {
	amount, _ := entry.Amount.Float64()
	target, _ := c.Amount.Float64()
	diffPct := math.Abs(amount-target) / math.Max(amount, 0.01) * 100
	score := math.Max(0, 50-diffPct)

	days := math.Abs(dayOf(entry.Date).Sub(dayOf(c.DueDate)).Hours() / 24)
	score += math.Max(0, 30-days*3)

	a, b := NormalizeText(entry.Description), NormalizeText(c.Description)
	if a != "" && b != "" {
		score += Similarity(a, b) / 100 * 20
	}
	return math.Round(score*100) / 100
}

// Suggest scores every candidate and returns the best ones, highest score first
func Suggest(entry *Entry, candidates []Candidate, limit int) []Suggestion {
	out := make([]Suggestion, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, Suggestion{Candidate: c, Score: Score(entry, c)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// PickAutoMatch returns the candidate with the earliest due date inside the
// amount tolerance and day window, or nil.
func PickAutoMatch(entry *Entry, candidates []Candidate) *Candidate {
	tol := decimal.RequireFromString(AutoMatchAmountTolerance)
	window := time.Duration(AutoMatchDayWindow) * 24 * time.Hour
	var best *Candidate
	for i := range candidates {
		c := candidates[i]
		if c.Type != entry.CandidateType() {
			continue
		}
		if c.Amount.Sub(entry.Amount).Abs().GreaterThan(tol) {
			continue
		}
		gap := dayOf(c.DueDate).Sub(dayOf(entry.Date))
		if gap < -window || gap > window {
			continue
		}
		if best == nil || c.DueDate.Before(best.DueDate) {
			best = &candidates[i]
		}
	}
	return best
}

var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeText lowercases, strips accents and collapses whitespace
func NormalizeText(s string) string {
	folded, _, err := transform.String(foldAccents, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// Similarity returns the percentage of characters the two strings have in common,
// counting longest common substrings recursively on both sides.
func Similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra)+len(rb) == 0 {
		return 0
	}
	common := commonChars(ra, rb)
	return float64(common*2) * 100 / float64(len(ra)+len(rb))
}

func commonChars(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	posA, posB, longest := 0, 0, 0
	for i := range a {
		for j := range b {
			k := 0
			for i+k < len(a) && j+k < len(b) && a[i+k] == b[j+k] {
				k++
			}
			if k > longest {
				posA, posB, longest = i, j, k
			}
		}
	}
	if longest == 0 {
		return 0
	}
	return longest + commonChars(a[:posA], b[:posB]) + commonChars(a[posA+longest:], b[posB+longest:])
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
