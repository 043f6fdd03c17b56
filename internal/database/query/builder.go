// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

// Package query builds parameterized WHERE clauses for interaction log
// queries. Placeholders are "?" so the same SQL runs on DuckDB and SQLite.
//
//	wb := query.NewWhereBuilder()
//	wb.AddTimeRange(from, to)
//	wb.AddIn("professional_stage", []string{"Leadership Track"})
//	whereClause, args := wb.Build()
//	// timestamp_ns >= ? AND timestamp_ns <= ? AND professional_stage IN (?)
package query

import (
	"fmt"
	"strings"
	"time"
)

// TimestampColumn stores interaction time as Unix nanoseconds.
const TimestampColumn = "timestamp_ns"

// WhereBuilder constructs SQL WHERE clauses with parameterized arguments.
type WhereBuilder struct {
	clauses []string
	args    []any
}

// NewWhereBuilder creates an empty WhereBuilder.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{}
}

// AddClause adds a raw condition with its arguments.
func (wb *WhereBuilder) AddClause(clause string, args ...any) *WhereBuilder {
	wb.clauses = append(wb.clauses, clause)
	wb.args = append(wb.args, args...)
	return wb
}

// AddTimeRange adds inclusive bounds on the timestamp column. A zero time
// leaves that side unbounded.
func (wb *WhereBuilder) AddTimeRange(from, to time.Time) *WhereBuilder {
	if !from.IsZero() {
		wb.AddClause(TimestampColumn+" >= ?", from.UnixNano())
	}
	if !to.IsZero() {
		wb.AddClause(TimestampColumn+" <= ?", to.UnixNano())
	}
	return wb
}

// AddEquals adds "column = ?" unless value is empty.
func (wb *WhereBuilder) AddEquals(column, value string) *WhereBuilder {
	if value != "" {
		wb.AddClause(column+" = ?", value)
	}
	return wb
}

// AddIn adds "column IN (?, ...)". An empty slice is skipped.
func (wb *WhereBuilder) AddIn(column string, values []string) *WhereBuilder {
	if len(values) == 0 {
		return wb
	}
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		wb.args = append(wb.args, v)
	}
	wb.clauses = append(wb.clauses, fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")))
	return wb
}

// Build joins the clauses with AND. Returns ("1=1", nil) when empty.
func (wb *WhereBuilder) Build() (string, []any) {
	if len(wb.clauses) == 0 {
		return "1=1", nil
	}
	return strings.Join(wb.clauses, " AND "), wb.args
}

// Count returns the number of clauses added.
func (wb *WhereBuilder) Count() int {
	return len(wb.clauses)
}

// IsEmpty reports whether no clauses have been added.
func (wb *WhereBuilder) IsEmpty() bool {
	return len(wb.clauses) == 0
}
