package reconciliation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func creditEntry(amount string, date time.Time, desc string) *Entry {
	return NewEntry(uuid.New(), uuid.New(), ParsedEntry{
		Date:        date,
		Description: desc,
		Amount:      decimal.RequireFromString(amount),
	})
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "pagamento servico calibracao", NormalizeText("  Pagamento  SERVIÇO Calibração "))
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 100.0, Similarity("acme", "acme"), 0.001)
	assert.InDelta(t, 0.0, Similarity("abc", "xyz"), 0.001)
	// "world" vs "word": common "wor" + "d" = 4 chars, 8/9
	assert.InDelta(t, 88.888, Similarity("world", "word"), 0.01)
}

func TestScore(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	e := creditEntry("1000", day, "OS-000001 Acme")

	exact := Candidate{Type: MatchedReceivable, ID: uuid.New(), Amount: decimal.RequireFromString("1000"), DueDate: day, Description: "os-000001 acme"}
	assert.InDelta(t, 100.0, Score(e, exact), 0.001)

	far := Candidate{Type: MatchedReceivable, ID: uuid.New(), Amount: decimal.RequireFromString("900"), DueDate: day.AddDate(0, 0, 20)}
	// value 50-10, date floored at 0, no description
	assert.InDelta(t, 40.0, Score(e, far), 0.001)
}

func TestSuggest_SortsAndLimits(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	e := creditEntry("100", day, "")
	var cands []Candidate
	for i := 0; i < 8; i++ {
		cands = append(cands, Candidate{
			Type:    MatchedReceivable,
			ID:      uuid.New(),
			Amount:  decimal.NewFromInt(int64(100 + i)),
			DueDate: day,
		})
	}
	got := Suggest(e, cands, SuggestionLimit)
	require.Len(t, got, 5)
	assert.Equal(t, cands[0].ID, got[0].ID)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
}

func TestPickAutoMatch(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	e := creditEntry("500.00", day, "")

	later := Candidate{Type: MatchedReceivable, ID: uuid.New(), Amount: decimal.RequireFromString("500.04"), DueDate: day.AddDate(0, 0, 4)}
	earlier := Candidate{Type: MatchedReceivable, ID: uuid.New(), Amount: decimal.RequireFromString("499.96"), DueDate: day.AddDate(0, 0, -2)}
	outOfWindow := Candidate{Type: MatchedReceivable, ID: uuid.New(), Amount: decimal.RequireFromString("500"), DueDate: day.AddDate(0, 0, -6)}
	offAmount := Candidate{Type: MatchedReceivable, ID: uuid.New(), Amount: decimal.RequireFromString("500.06"), DueDate: day}
	wrongSide := Candidate{Type: MatchedPayable, ID: uuid.New(), Amount: decimal.RequireFromString("500"), DueDate: day.AddDate(0, 0, -3)}

	got := PickAutoMatch(e, []Candidate{later, outOfWindow, offAmount, wrongSide, earlier})
	require.NotNil(t, got)
	assert.Equal(t, earlier.ID, got.ID)

	assert.Nil(t, PickAutoMatch(e, []Candidate{outOfWindow, offAmount}))
}

func TestEntryLifecycle(t *testing.T) {
	e := creditEntry("-42.10", time.Now(), "tarifa")
	assert.Equal(t, EntryDebit, e.Type)
	assert.Equal(t, "42.10", e.Amount.StringFixed(2))
	assert.Equal(t, MatchedPayable, e.CandidateType())

	user := uuid.New()
	target := uuid.New()
	require.NoError(t, e.Match(MatchedPayable, target, &user, time.Now()))
	assert.Equal(t, EntryMatched, e.Status)
	assert.Equal(t, target, *e.MatchedID)
	assert.Error(t, e.Match(MatchedPayable, target, &user, time.Now()), "matched entries cannot be matched again")

	require.NoError(t, e.Unmatch())
	assert.Equal(t, EntryPending, e.Status)
	assert.Nil(t, e.MatchedID)
	assert.Error(t, e.Unmatch())

	require.NoError(t, e.Match(MatchedPayable, target, &user, time.Now()))
	wasMatched, err := e.Ignore()
	require.NoError(t, err)
	assert.True(t, wasMatched)
	assert.Equal(t, EntryIgnored, e.Status)
	assert.Nil(t, e.MatchedType)

	require.NoError(t, e.Restore())
	assert.Equal(t, EntryPending, e.Status)
}

func TestNormalizeMatchedType(t *testing.T) {
	for _, raw := range []string{"receivable", "account_receivable", "Accounts_Receivable"} {
		got, err := NormalizeMatchedType(raw)
		require.NoError(t, err)
		assert.Equal(t, MatchedReceivable, got)
	}
	got, err := NormalizeMatchedType("accounts_payable")
	require.NoError(t, err)
	assert.Equal(t, MatchedPayable, got)
	_, err = NormalizeMatchedType("invoice")
	assert.Error(t, err)
}
