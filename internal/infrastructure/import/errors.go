package csvimport

import (
	"errors"
	"fmt"
)

// Row error codes
const (
	CodeRequired  = "REQUIRED"
	CodeTooLong   = "TOO_LONG"
	CodeInvalid   = "INVALID_FORMAT"
	CodeDuplicate = "DUPLICATE_IN_FILE"
	CodeExists    = "ALREADY_EXISTS"
	CodeNotFound  = "REFERENCE_NOT_FOUND"
	CodeRejected  = "REJECTED"
)

const (
	maxKeptErrors = 500
	maxValueLen   = 100
)

var (
	ErrEmptyFile       = errors.New("CSV file is empty")
	ErrFileTooLarge    = errors.New("file exceeds maximum allowed size")
	ErrInvalidEncoding = errors.New("invalid file encoding")
	ErrMissingHeader   = errors.New("CSV file missing header row")
	ErrMissingColumns  = errors.New("CSV file missing required columns")
	ErrMalformedFile   = errors.New("malformed CSV file")
)

// RowError describes a rejected value
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column '%s': %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// ErrorCollection accumulates row errors up to a cap. Rows with errors are
// still counted after the cap is reached.
type ErrorCollection struct {
	errors    []RowError
	rows      map[int]struct{}
	truncated bool
}

// NewErrorCollection creates an empty collection
func NewErrorCollection() *ErrorCollection {
	return &ErrorCollection{rows: make(map[int]struct{})}
}

// Add records an error. Long values are shortened.
func (c *ErrorCollection) Add(e RowError) {
	c.rows[e.Row] = struct{}{}
	if len(c.errors) >= maxKeptErrors {
		c.truncated = true
		return
	}
	if len(e.Value) > maxValueLen {
		e.Value = e.Value[:maxValueLen] + "..."
	}
	c.errors = append(c.errors, e)
}

// AddAll records several errors
func (c *ErrorCollection) AddAll(errs []RowError) {
	for _, e := range errs {
		c.Add(e)
	}
}

// Errors returns the kept errors
func (c *ErrorCollection) Errors() []RowError {
	return c.errors
}

// HasRow reports whether a row has at least one error
func (c *ErrorCollection) HasRow(row int) bool {
	_, ok := c.rows[row]
	return ok
}

// FailedRows is the number of distinct rows with errors
func (c *ErrorCollection) FailedRows() int {
	return len(c.rows)
}

// Truncated reports whether errors were dropped
func (c *ErrorCollection) Truncated() bool {
	return c.truncated
}
