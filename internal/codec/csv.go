// Package codec reads and writes log entries as unit-aware CSV.
//
// The format stays human readable and is the one the tool exports:
//
//	Date,Distance (km),Note
//	2024-01-01,10.00,"First run"
//
// Distances are stored in kilometers; the unit named in the distance header
// only affects the text.
package codec

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"journey/internal/domain"
)

var (
	// ErrMalformedInput indicates an empty file or one without data rows.
	ErrMalformedInput = errors.New("csv file is empty or missing headers")
	// ErrMissingColumns indicates a header without a date or distance column.
	ErrMissingColumns = errors.New("missing required columns: Date and Distance")
	// ErrInvalidDate is the kind of a RowError for an unparsable date.
	ErrInvalidDate = errors.New("invalid date")
	// ErrInvalidDistance is the kind of a RowError for a bad distance.
	ErrInvalidDistance = errors.New("invalid distance")
)

// RowError reports a rejected data row. Line is 1-based and counts non-blank
// lines, the header being line 1.
type RowError struct {
	Kind  error
	Line  int
	Value string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%v on line %d: %s", e.Kind, e.Line, e.Value)
}

func (e *RowError) Unwrap() error { return e.Kind }

// Permissive read layout: single-digit month and day are accepted.
const readDateLayout = "2006-1-2"

var lineBreak = regexp.MustCompile(`\r?\n`)

// Encode renders logs as CSV with distances in unit, oldest entry first.
func Encode(logs []domain.LogEntry, unit domain.Unit) string {
	sorted := slices.Clone(logs)
	slices.SortStableFunc(sorted, func(a, b domain.LogEntry) int {
		return strings.Compare(a.Date, b.Date)
	})

	rows := make([]string, 0, len(sorted)+1)
	rows = append(rows, "Date,Distance ("+string(unit)+"),Note")
	for _, e := range sorted {
		distance := domain.ConvertDistance(e.Distance, domain.Kilometers, unit)
		note := ""
		if e.Note != "" {
			note = `"` + strings.ReplaceAll(e.Note, `"`, `""`) + `"`
		}
		rows = append(rows, e.Date+","+toFixed2(distance)+","+note)
	}
	return strings.Join(rows, "\n")
}

// Decode parses CSV text into log entries, assigning each a fresh ID from ids.
// Columns are located by header content, so their order is free. Decoding is
// all or nothing: the first bad row fails the whole input.
func Decode(text string, ids domain.IDGenerator) ([]domain.LogEntry, error) {
	var lines []string
	for _, l := range lineBreak.Split(text, -1) {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) < 2 {
		return nil, ErrMalformedInput
	}

	headers := splitLine(strings.ToLower(lines[0]))
	dateIdx := columnIndex(headers, "date")
	distanceIdx := columnIndex(headers, "distance")
	noteIdx := columnIndex(headers, "note")
	if dateIdx == -1 || distanceIdx == -1 {
		return nil, ErrMissingColumns
	}
	fromUnit := domain.Kilometers
	if strings.Contains(headers[distanceIdx], "miles") {
		fromUnit = domain.Miles
	}

	logs := make([]domain.LogEntry, 0, len(lines)-1)
	for i := 1; i < len(lines); i++ {
		fields := splitLine(lines[i])
		if len(fields) < 2 {
			continue
		}
		lineNo := i + 1

		rawDate := field(fields, dateIdx)
		day, err := time.Parse(readDateLayout, rawDate)
		if err != nil {
			return nil, &RowError{Kind: ErrInvalidDate, Line: lineNo, Value: rawDate}
		}

		rawDistance := field(fields, distanceIdx)
		d, err := decimal.NewFromString(rawDistance)
		if err != nil || d.IsNegative() {
			return nil, &RowError{Kind: ErrInvalidDistance, Line: lineNo, Value: rawDistance}
		}
		km := domain.ConvertDistance(d.InexactFloat64(), fromUnit, domain.Kilometers)
		if math.IsInf(km, 0) || math.IsNaN(km) {
			return nil, &RowError{Kind: ErrInvalidDistance, Line: lineNo, Value: rawDistance}
		}

		logs = append(logs, domain.LogEntry{
			ID:       ids.NextID(),
			Date:     day.Format(domain.DateLayout),
			Distance: km,
			Note:     field(fields, noteIdx),
		})
	}
	return logs, nil
}

// ExportFilename names an export file after the day it was taken.
func ExportFilename(t time.Time) string {
	return "journey-to-mordor-" + t.Format(domain.DateLayout) + ".csv"
}

// toFixed2 rounds the exact binary value of v to two decimals, ties going
// away from zero. 1.005 is stored as 1.00499... and prints as 1.00.
func toFixed2(v float64) string {
	exact, err := decimal.NewFromString(strconv.FormatFloat(v, 'f', 1074, 64))
	if err != nil {
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
	return exact.Round(2).StringFixed(2)
}

func columnIndex(headers []string, name string) int {
	return slices.IndexFunc(headers, func(h string) bool {
		return strings.Contains(h, name)
	})
}

func field(fields []string, idx int) string {
	if idx < 0 || idx >= len(fields) {
		return ""
	}
	return fields[idx]
}

// splitLine splits a CSV line on commas outside double quotes.
func splitLine(line string) []string {
	var out []string
	start := 0
	inQuotes := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			inQuotes = !inQuotes
		case ',':
			if !inQuotes {
				out = append(out, unquote(line[start:i]))
				start = i + 1
			}
		}
	}
	return append(out, unquote(line[start:]))
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
	}
	return s
}
