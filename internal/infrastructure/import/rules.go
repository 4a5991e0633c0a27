package csvimport

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// FieldType is the expected type of a column
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeEmail   FieldType = "email"
	TypeDecimal FieldType = "decimal"
	TypeDate    FieldType = "date"
)

// DateLayouts are the accepted date formats, tried in order
var DateLayouts = []string{"2006-01-02", "02/01/2006", "02-01-2006"}

// FieldRule is a validation rule for one column
type FieldRule struct {
	Column    string
	Required  bool
	Type      FieldType
	MaxLength int
	Pattern   *regexp.Regexp
	Unique    bool
	Normalize func(string) string
}

// FieldRuleBuilder builds a FieldRule
type FieldRuleBuilder struct {
	rule FieldRule
}

// Field starts a rule for a column
func Field(column string) *FieldRuleBuilder {
	return &FieldRuleBuilder{rule: FieldRule{Column: column, Type: TypeString}}
}

func (b *FieldRuleBuilder) Required() *FieldRuleBuilder {
	b.rule.Required = true
	return b
}

func (b *FieldRuleBuilder) Email() *FieldRuleBuilder {
	b.rule.Type = TypeEmail
	return b
}

func (b *FieldRuleBuilder) Decimal() *FieldRuleBuilder {
	b.rule.Type = TypeDecimal
	return b
}

func (b *FieldRuleBuilder) Date() *FieldRuleBuilder {
	b.rule.Type = TypeDate
	return b
}

func (b *FieldRuleBuilder) MaxLength(n int) *FieldRuleBuilder {
	b.rule.MaxLength = n
	return b
}

func (b *FieldRuleBuilder) Pattern(re *regexp.Regexp) *FieldRuleBuilder {
	b.rule.Pattern = re
	return b
}

// Unique rejects a value repeated in the file. The optional normalize func
// decides which values count as equal.
func (b *FieldRuleBuilder) Unique(normalize func(string) string) *FieldRuleBuilder {
	b.rule.Unique = true
	b.rule.Normalize = normalize
	return b
}

func (b *FieldRuleBuilder) Build() FieldRule {
	return b.rule
}

// Validator checks rows against a set of rules
type Validator struct {
	rules []FieldRule
	seen  map[string]map[string]int
}

// NewValidator creates a validator. Uniqueness is tracked across calls.
func NewValidator(rules ...FieldRule) *Validator {
	return &Validator{rules: rules, seen: make(map[string]map[string]int)}
}

// Columns returns the columns marked required
func (v *Validator) Columns() []string {
	var cols []string
	for _, r := range v.rules {
		if r.Required {
			cols = append(cols, r.Column)
		}
	}
	return cols
}

// ValidateRow returns every rule violation of the row
func (v *Validator) ValidateRow(row *Row) []RowError {
	var errs []RowError
	for _, rule := range v.rules {
		value := row.Get(rule.Column)
		if value == "" {
			if rule.Required {
				errs = append(errs, RowError{Row: row.Line, Column: rule.Column, Code: CodeRequired,
					Message: "Field is required"})
			}
			continue
		}
		if err := checkValue(rule, value); err != "" {
			errs = append(errs, RowError{Row: row.Line, Column: rule.Column, Code: CodeInvalid, Message: err, Value: value})
			continue
		}
		if rule.MaxLength > 0 && utf8.RuneCountInString(value) > rule.MaxLength {
			errs = append(errs, RowError{Row: row.Line, Column: rule.Column, Code: CodeTooLong,
				Message: fmt.Sprintf("Must be at most %d characters", rule.MaxLength), Value: value})
			continue
		}
		if rule.Unique {
			key := value
			if rule.Normalize != nil {
				key = rule.Normalize(value)
			} else {
				key = strings.ToLower(key)
			}
			seen := v.seen[rule.Column]
			if seen == nil {
				seen = make(map[string]int)
				v.seen[rule.Column] = seen
			}
			if first, dup := seen[key]; dup {
				errs = append(errs, RowError{Row: row.Line, Column: rule.Column, Code: CodeDuplicate,
					Message: fmt.Sprintf("Duplicate of row %d", first), Value: value})
				continue
			}
			seen[key] = row.Line
		}
	}
	return errs
}

func checkValue(rule FieldRule, value string) string {
	switch rule.Type {
	case TypeEmail:
		if !emailPattern.MatchString(value) {
			return "Invalid email format"
		}
	case TypeDecimal:
		if _, err := ParseDecimal(value); err != nil {
			return "Invalid number"
		}
	case TypeDate:
		if _, err := ParseDate(value); err != nil {
			return "Invalid date"
		}
	}
	if rule.Pattern != nil && !rule.Pattern.MatchString(value) {
		return "Invalid format"
	}
	return ""
}

// ParseDecimal accepts "1234.56", "1.234,56" and "1234,56"
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	return decimal.NewFromString(s)
}

// ParseDate tries every layout of DateLayouts
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
