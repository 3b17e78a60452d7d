package core

import (
	"fmt"
	"strings"
)

// WhereBuilder accumulates WHERE conditions with positional placeholders.
// Values always travel as query arguments; only trusted column expressions
// are interpolated into the clause.
type WhereBuilder struct {
	conditions []string
	args       []any
	argIndex   int
}

// NewWhereBuilder returns an empty builder. Placeholder numbering starts
// at $1.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{argIndex: 1}
}

// Add appends an equality condition. Empty string values are skipped so
// callers can pass optional filters straight through.
func (wb *WhereBuilder) Add(column, value string) {
	if value == "" {
		return
	}
	wb.conditions = append(wb.conditions, fmt.Sprintf("%s = $%d", column, wb.argIndex))
	wb.args = append(wb.args, value)
	wb.argIndex++
}

// AddILike appends a case-insensitive substring match. Empty values are
// skipped.
func (wb *WhereBuilder) AddILike(column, value string) {
	if value == "" {
		return
	}
	wb.conditions = append(wb.conditions, fmt.Sprintf("%s ILIKE $%d", column, wb.argIndex))
	wb.args = append(wb.args, "%"+value+"%")
	wb.argIndex++
}

// AddCompare appends a comparison (op is a trusted operator such as ">=").
// Nil values are skipped.
func (wb *WhereBuilder) AddCompare(column, op string, value any) {
	if value == nil {
		return
	}
	wb.conditions = append(wb.conditions, fmt.Sprintf("%s %s $%d", column, op, wb.argIndex))
	wb.args = append(wb.args, value)
	wb.argIndex++
}

// NextArgIndex returns the placeholder number the next argument would get.
// Useful when appending LIMIT/OFFSET after the WHERE clause.
func (wb *WhereBuilder) NextArgIndex() int {
	return wb.argIndex
}

// Build returns the assembled clause (with a leading " WHERE ") and its
// arguments. With no conditions it returns an empty string and nil args.
func (wb *WhereBuilder) Build() (string, []any) {
	if len(wb.conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(wb.conditions, " AND "), wb.args
}
