package toon

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ============================================================
// Row Codec
// ============================================================
//
// One row per physical line, fields joined with ','. Rendering per
// wire kind:
//
//	numeric    minimal decimal, empty field when missing
//	date       YYYY-MM-DD
//	datetime   DDMonYYYY:HH:MM:SS (3-letter month, whole seconds)
//	character  quoting dialect of escape.go
//
// Real newlines inside character values are always escaped, so a row
// never spans lines.

const dateTimeLayout = "02Jan2006:15:04:05"

// encodeRow renders one row against a wire schema. A cell variant
// that does not belong under its column's kind aborts the encode: it
// is a precondition violation by the caller, not recoverable data.
func encodeRow(b *strings.Builder, row Row, s *Schema) error {
	if len(row) != len(s.Columns) {
		return fmt.Errorf("%w: row has %d fields, schema has %d columns",
			ErrSchemaMismatch, len(row), len(s.Columns))
	}
	for i, col := range s.Columns {
		if i > 0 {
			b.WriteByte(',')
		}
		cell := row[i]
		if !cell.compatibleWith(col.Kind) {
			return fmt.Errorf("column %s: %s cell under %s column",
				col.Name, cell.Tag(), col.Kind)
		}
		switch col.Kind {
		case KindNumeric:
			if !cell.IsMissing() {
				b.WriteString(formatNumber(cell.Number()))
			}
		case KindDate:
			if !cell.IsMissing() {
				y, m, d := cell.DateParts()
				b.WriteString(formatDate(y, m, d))
			}
		case KindDateTime:
			if !cell.IsMissing() {
				b.WriteString(formatTimestamp(cell))
			}
		case KindCharacter:
			b.WriteString(EscapeField(cell.Text()))
		}
	}
	return nil
}

// formatNumber renders a float with the fewest digits that survive a
// round trip.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatDate(year int, month time.Month, day int) string {
	var b [10]byte
	out := b[:0]
	out = appendZeroPadded(out, year, 4)
	out = append(out, '-')
	out = appendZeroPadded(out, int(month), 2)
	out = append(out, '-')
	out = appendZeroPadded(out, day, 2)
	return string(out)
}

func formatTimestamp(c Cell) string {
	y, m, d := c.DateParts()
	h, mi, sec := c.TimeParts()
	t := time.Date(y, m, d, h, mi, sec, 0, time.UTC)
	return t.Format(dateTimeLayout)
}

func appendZeroPadded(dst []byte, v, width int) []byte {
	s := strconv.Itoa(v)
	for len(s) < width {
		dst = append(dst, '0')
		width--
	}
	return append(dst, s...)
}

// decodeRow parses one data line against a wire schema. Leading
// indentation on the line is cosmetic and ignored. lineNum is the
// physical line number used for error reporting.
func decodeRow(line string, s *Schema, lineNum int) (Row, error) {
	fields, err := splitFields(strings.TrimSpace(line), lineNum)
	if err != nil {
		return nil, err
	}
	if len(fields) != len(s.Columns) {
		return nil, decodeErrf(ErrSchemaMismatch, lineNum,
			"row has %d fields, schema has %d columns", len(fields), len(s.Columns))
	}

	row := make(Row, len(fields))
	for i, field := range fields {
		cell, err := decodeField(field, s.Columns[i], lineNum)
		if err != nil {
			return nil, err
		}
		row[i] = cell
	}
	return row, nil
}

func decodeField(field string, col Column, lineNum int) (Cell, error) {
	switch col.Kind {
	case KindCharacter:
		text, err := UnescapeField(field)
		if err != nil {
			if de, ok := err.(*DecodeError); ok {
				de.Line = lineNum
			}
			return Cell{}, err
		}
		return TextCell(text), nil

	case KindNumeric:
		if field == "" {
			return MissingCell(), nil
		}
		f, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return Cell{}, decodeErrf(ErrUnparsable, lineNum,
				"column %s: %q is not numeric", col.Name, field)
		}
		return NumberCell(f), nil

	case KindDate:
		if field == "" {
			return MissingCell(), nil
		}
		t, err := time.Parse("2006-01-02", field)
		if err != nil {
			return Cell{}, decodeErrf(ErrUnparsable, lineNum,
				"column %s: %q is not a date", col.Name, field)
		}
		return DateCell(t.Year(), t.Month(), t.Day()), nil

	case KindDateTime:
		if field == "" {
			return MissingCell(), nil
		}
		t, err := time.Parse(dateTimeLayout, field)
		if err != nil {
			return Cell{}, decodeErrf(ErrUnparsable, lineNum,
				"column %s: %q is not a datetime", col.Name, field)
		}
		return TimestampCell(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second()), nil

	default:
		return Cell{}, decodeErrf(ErrUnparsable, lineNum, "column %s: unknown kind", col.Name)
	}
}

// splitFields splits a data line on commas, honoring the quoting
// dialect: commas inside a quoted field do not split, and backslash
// escapes inside quotes hide the following character from the
// scanner. A quote opened but never closed is an unescape error.
func splitFields(line string, lineNum int) ([]string, error) {
	fields := make([]string, 0, 8)
	var b strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case inQuotes && c == '\\' && i+1 < len(line):
			b.WriteByte(c)
			i++
			b.WriteByte(line[i])
		case c == '"':
			inQuotes = !inQuotes
			b.WriteByte(c)
		case c == ',' && !inQuotes:
			fields = append(fields, b.String())
			b.Reset()
		default:
			b.WriteByte(c)
		}
	}
	if inQuotes {
		return nil, decodeErrf(ErrUnescape, lineNum, "unterminated quoted field")
	}
	fields = append(fields, b.String())
	return fields, nil
}
