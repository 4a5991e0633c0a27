package csvimport

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(line int, kv ...string) *Row {
	r := &Row{Line: line, Data: map[string]string{}}
	for i := 0; i+1 < len(kv); i += 2 {
		r.Data[kv[i]] = kv[i+1]
	}
	return r
}

func TestValidator_ValidateRow(t *testing.T) {
	digits := func(s string) string { return regexp.MustCompile(`\D`).ReplaceAllString(s, "") }
	v := NewValidator(
		Field("name").Required().MaxLength(5).Build(),
		Field("email").Email().Build(),
		Field("document").Unique(digits).Build(),
		Field("value").Decimal().Build(),
		Field("state").Pattern(regexp.MustCompile(`^[A-Za-z]{2}$`)).Build(),
	)
	assert.Equal(t, []string{"name"}, v.Columns())

	assert.Empty(t, v.ValidateRow(row(2, "name", "Acme", "email", "a@b.co", "document", "12.345", "value", "1.234,50", "state", "SP")))

	errs := v.ValidateRow(row(3, "name", "", "email", "nope", "document", "12345", "value", "x", "state", "Sao Paulo"))
	codes := map[string]string{}
	for _, e := range errs {
		codes[e.Column] = e.Code
	}
	assert.Equal(t, map[string]string{
		"name":     CodeRequired,
		"email":    CodeInvalid,
		"document": CodeDuplicate,
		"value":    CodeInvalid,
		"state":    CodeInvalid,
	}, codes)

	errs = v.ValidateRow(row(4, "name", "Longer name"))
	require.Len(t, errs, 1)
	assert.Equal(t, CodeTooLong, errs[0].Code)
}

func TestParseDecimal(t *testing.T) {
	for in, want := range map[string]string{
		"1234.56":     "1234.56",
		"1.234,56":    "1234.56",
		"R$ 1.000,00": "1000",
		"10,5":        "10.5",
	} {
		got, err := ParseDecimal(in)
		require.NoError(t, err, in)
		assert.True(t, decimal.RequireFromString(want).Equal(got), in)
	}
	_, err := ParseDecimal("abc")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	want := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2026-03-09", "09/03/2026", "09-03-2026"} {
		got, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseDate("03/2026")
	assert.Error(t, err)
}

func TestErrorCollection(t *testing.T) {
	c := NewErrorCollection()
	c.Add(RowError{Row: 2, Column: "name", Code: CodeRequired, Message: "Field is required"})
	c.Add(RowError{Row: 2, Column: "email", Code: CodeInvalid, Value: strings.Repeat("x", 150)})
	c.Add(RowError{Row: 5, Message: "bad"})

	assert.Equal(t, 2, c.FailedRows())
	assert.True(t, c.HasRow(2))
	assert.False(t, c.HasRow(3))
	assert.Len(t, c.Errors()[1].Value, maxValueLen+3)
	assert.Equal(t, "row 2, column 'name': Field is required", c.Errors()[0].Error())
	assert.Equal(t, "row 5: bad", c.Errors()[2].Error())

	for i := 0; i < maxKeptErrors; i++ {
		c.Add(RowError{Row: 10 + i})
	}
	assert.True(t, c.Truncated())
	assert.Len(t, c.Errors(), maxKeptErrors)
	assert.Equal(t, maxKeptErrors+2, c.FailedRows())
}
