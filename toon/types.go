package toon

import (
	"fmt"
	"strings"
	"time"
)

// Kind represents a column's semantic type.
type Kind uint8

const (
	KindNumeric Kind = iota
	KindCharacter
	KindDate
	KindDateTime
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindCharacter:
		return "character"
	case KindDate:
		return "date"
	case KindDateTime:
		return "datetime"
	default:
		return "unknown"
	}
}

// KindFromString parses a wire type name into a Kind.
func KindFromString(s string) (Kind, bool) {
	switch s {
	case "numeric":
		return KindNumeric, true
	case "character":
		return KindCharacter, true
	case "date":
		return KindDate, true
	case "datetime":
		return KindDateTime, true
	default:
		return KindNumeric, false
	}
}

// Column describes one column of a table.
type Column struct {
	Name   string
	Kind   Kind
	Format string // Display format name (dates/times), optional
	Label  string // Human-readable description, optional
	Length int    // Maximum capacity; Character columns only
}

// Validate checks the column invariants.
func (c Column) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: column name", ErrMissingInput)
	}
	if c.Kind != KindCharacter && c.Length != 0 {
		return fmt.Errorf("column %s: length is only valid for character columns", c.Name)
	}
	return nil
}

// EffectiveKind returns the kind the column takes on the wire.
//
// A numeric column is reclassified by sniffing its display format
// name: DATETIME or DTDATE anywhere in the name means datetime, DATE
// means date. The match is a case-insensitive substring check, not a
// registry of known formats, so a format name that merely contains
// "DATE" gets reclassified too.
func (c Column) EffectiveKind() Kind {
	if c.Kind != KindNumeric || c.Format == "" {
		return c.Kind
	}
	name := strings.ToUpper(c.Format)
	if strings.Contains(name, "DATETIME") || strings.Contains(name, "DTDATE") {
		return KindDateTime
	}
	if strings.Contains(name, "DATE") {
		return KindDate
	}
	return c.Kind
}

// Schema is the ordered column layout of a table. Column order is
// significant: it fixes the header field list and the positional
// alignment of every row.
type Schema struct {
	Name         string
	DatasetLabel string
	Source       string // origin of the data, free text, optional
	Columns      []Column

	// Counts asserted by the metadata block. Advisory on encode;
	// DeclaredColumns is cross-checked against the parsed column
	// blocks on decode.
	DeclaredRows    int
	DeclaredColumns int
}

// NewSchema builds a schema and validates its columns.
func NewSchema(name string, cols ...Column) (*Schema, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: schema name", ErrMissingInput)
	}
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("duplicate column name %q", c.Name)
		}
		seen[c.Name] = true
	}
	return &Schema{
		Name:            name,
		Columns:         cols,
		DeclaredColumns: len(cols),
	}, nil
}

// ColumnNames returns the column names in schema order.
func (s *Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// wireName is the schema name as emitted.
func (s *Schema) wireName() string {
	return strings.ToUpper(s.Name)
}

// CellTag identifies which variant a Cell holds.
type CellTag uint8

const (
	CellMissing CellTag = iota
	CellText
	CellNumber
	CellDate
	CellTimestamp
)

// String returns the tag name.
func (t CellTag) String() string {
	switch t {
	case CellMissing:
		return "missing"
	case CellText:
		return "text"
	case CellNumber:
		return "number"
	case CellDate:
		return "date"
	case CellTimestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

// Cell is one tagged value. Missing is only meaningful under numeric,
// date or datetime columns; Text only under character columns. An
// empty Text value is a legitimate value, not a missing cell — the
// format cannot distinguish "absent" from "empty" for character
// columns, and does not try to.
type Cell struct {
	tag  CellTag
	text string
	num  float64

	year, day            int
	month                time.Month
	hour, minute, second int
}

// MissingCell returns the missing-value cell.
func MissingCell() Cell {
	return Cell{tag: CellMissing}
}

// TextCell returns a character cell holding s.
func TextCell(s string) Cell {
	return Cell{tag: CellText, text: s}
}

// NumberCell returns a numeric cell holding f.
func NumberCell(f float64) Cell {
	return Cell{tag: CellNumber, num: f}
}

// DateCell returns a calendar-date cell.
func DateCell(year int, month time.Month, day int) Cell {
	return Cell{tag: CellDate, year: year, month: month, day: day}
}

// TimestampCell returns a date-and-time cell. Seconds are whole;
// the format carries no fractional component.
func TimestampCell(year int, month time.Month, day, hour, minute, second int) Cell {
	return Cell{
		tag: CellTimestamp, year: year, month: month, day: day,
		hour: hour, minute: minute, second: second,
	}
}

// Tag returns the cell's variant tag.
func (c Cell) Tag() CellTag { return c.tag }

// IsMissing reports whether the cell holds no value.
func (c Cell) IsMissing() bool { return c.tag == CellMissing }

// Text returns the character value. Valid only for CellText.
func (c Cell) Text() string { return c.text }

// Number returns the numeric value. Valid only for CellNumber.
func (c Cell) Number() float64 { return c.num }

// DateParts returns the calendar components. Valid for CellDate and
// CellTimestamp.
func (c Cell) DateParts() (year int, month time.Month, day int) {
	return c.year, c.month, c.day
}

// TimeParts returns the clock components. Valid for CellTimestamp.
func (c Cell) TimeParts() (hour, minute, second int) {
	return c.hour, c.minute, c.second
}

// compatibleWith reports whether the cell variant is legal under a
// column of the given wire kind.
func (c Cell) compatibleWith(k Kind) bool {
	switch k {
	case KindNumeric:
		return c.tag == CellNumber || c.tag == CellMissing
	case KindCharacter:
		return c.tag == CellText
	case KindDate:
		return c.tag == CellDate || c.tag == CellMissing
	case KindDateTime:
		return c.tag == CellTimestamp || c.tag == CellMissing
	default:
		return false
	}
}

// Row is one ordered record of cells, positionally aligned with the
// schema's columns.
type Row []Cell

// Table is a schema plus its rows. A Table is built once per
// conversion and never retained by the codec across calls.
type Table struct {
	Schema *Schema
	Rows   []Row
}

// NewTable builds a table and validates every row against the schema.
func NewTable(schema *Schema, rows []Row) (*Table, error) {
	if schema == nil {
		return nil, fmt.Errorf("%w: schema", ErrMissingInput)
	}
	t := &Table{Schema: schema, Rows: rows}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks row lengths and cell/kind agreement. Cells are
// checked against each column's effective (wire) kind.
func (t *Table) Validate() error {
	if t.Schema == nil {
		return fmt.Errorf("%w: schema", ErrMissingInput)
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Schema.Columns) {
			return fmt.Errorf("%w: row %d has %d fields, schema has %d columns",
				ErrSchemaMismatch, i+1, len(row), len(t.Schema.Columns))
		}
		for j, cell := range row {
			col := t.Schema.Columns[j]
			if !cell.compatibleWith(col.EffectiveKind()) {
				return fmt.Errorf("row %d column %s: %s cell under %s column",
					i+1, col.Name, cell.Tag(), col.EffectiveKind())
			}
		}
	}
	return nil
}
