package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortFields_Clause(t *testing.T) {
	fields := sortable("name", "due_date")
	tests := []struct {
		name, field, dir, want string
	}{
		{"whitelisted ascending", "name", "asc", "name ASC, id ASC"},
		{"direction is case insensitive", " due_date ", " ASC ", "due_date ASC, id ASC"},
		{"descending by default", "name", "", "name DESC, id DESC"},
		{"unknown direction", "name", "sideways", "name DESC, id DESC"},
		{"common column", "created_at", "asc", "created_at ASC, id ASC"},
		{"id needs no tiebreak", "id", "asc", "id ASC"},
		{"unknown column falls back", "password_hash", "asc", "due_date ASC, id ASC"},
		{"injection falls back", "name; DROP TABLE users;--", "desc", "due_date DESC, id DESC"},
		{"columns are case sensitive", "NAME", "asc", "due_date ASC, id ASC"},
		{"empty column", "", "", "due_date DESC, id DESC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fields.clause(tt.field, tt.dir, "due_date"))
		})
	}
}

func TestSortFields_ListsIncludeCommonColumns(t *testing.T) {
	for _, s := range []sortFields{WorkOrderSortFields, LedgerSortFields, FiscalNoteSortFields, CommonSortFields} {
		for _, col := range []string{"id", "created_at", "updated_at"} {
			_, ok := s[col]
			assert.True(t, ok, col)
		}
	}
}
