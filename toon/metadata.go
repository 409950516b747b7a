package toon

import (
	"fmt"
	"strconv"
	"strings"
)

// ============================================================
// Metadata Block Codec
// ============================================================
//
// The metadata block is an indentation grammar:
//
//	_metadata:              section marker
//	  key: value            indent 2: top-level attribute
//	  column_info:          indent 2: column section
//	    name:               indent 4: opens a column block
//	      attr: value       indent 6: attribute of the open column
//
// Parsing is a state machine over physical lines. It terminates at
// the table header line, recognized structurally by containing all
// four of '[', ']', '{', '}'.

const sectionMarker = "_metadata:"

const (
	indentAttr    = 2
	indentColumn  = 4
	indentColAttr = 6
)

type parserState uint8

const (
	stateStart parserState = iota
	stateInMetadata
	stateInColumnBlock
)

// metadataParser accumulates a Schema from metadata lines, one line
// per feed call. It is shared by the whole-file decoder and the
// streaming Reader.
type metadataParser struct {
	state  parserState
	schema Schema
	cur    *Column

	line         int // physical line number, 1-based
	declaredCols int
	colsDeclared bool
}

// isHeaderLine reports whether a line is the table header, marking
// the boundary between metadata and row data.
func isHeaderLine(line string) bool {
	return strings.ContainsRune(line, '[') &&
		strings.ContainsRune(line, ']') &&
		strings.ContainsRune(line, '{') &&
		strings.ContainsRune(line, '}')
}

func indentOf(line string) int {
	n := 0
	for n < len(line) && (line[n] == ' ' || line[n] == '\t') {
		n++
	}
	return n
}

// feed consumes one physical line. It returns done=true when the
// line is the table header, at which point the accumulated schema is
// complete.
func (p *metadataParser) feed(line string) (done bool, err error) {
	p.line++
	line = strings.TrimRight(line, " \t\r")

	if isHeaderLine(line) {
		return true, p.finish()
	}
	if strings.TrimSpace(line) == "" {
		return false, nil
	}

	switch p.state {
	case stateStart:
		if strings.TrimSpace(line) != sectionMarker {
			return false, decodeErrf(ErrMalformedMetadata, p.line,
				"expected %s section, got %q", sectionMarker, strings.TrimSpace(line))
		}
		p.state = stateInMetadata
		return false, nil

	case stateInMetadata, stateInColumnBlock:
		return false, p.feedAttr(line)

	default:
		return false, decodeErrf(ErrMalformedMetadata, p.line, "invalid parser state")
	}
}

func (p *metadataParser) feedAttr(line string) error {
	indent := indentOf(line)
	content := strings.TrimSpace(line)

	key, value, hasColon := strings.Cut(content, ":")
	if !hasColon {
		return decodeErrf(ErrMalformedMetadata, p.line, "expected key: value, got %q", content)
	}
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)

	switch indent {
	case indentAttr:
		return p.setTopLevel(key, value)

	case indentColumn:
		if p.state != stateInColumnBlock {
			return decodeErrf(ErrMalformedMetadata, p.line,
				"column block %q outside column_info", key)
		}
		if err := p.flushColumn(); err != nil {
			return err
		}
		p.cur = &Column{Name: key}
		return nil

	case indentColAttr:
		if p.cur == nil {
			return decodeErrf(ErrMalformedMetadata, p.line,
				"column attribute %q with no open column", key)
		}
		return p.setColumnAttr(key, value)

	default:
		return decodeErrf(ErrMalformedMetadata, p.line,
			"unexpected indentation %d for %q", indent, content)
	}
}

func (p *metadataParser) setTopLevel(key, value string) error {
	switch key {
	case "source":
		p.schema.Source = value
	case "schema_name":
		p.schema.Name = value
	case "dataset_label":
		p.schema.DatasetLabel = value
	case "columns":
		n, err := strconv.Atoi(value)
		if err != nil {
			return decodeErrf(ErrMalformedMetadata, p.line, "columns: %q is not an integer", value)
		}
		p.declaredCols = n
		p.colsDeclared = true
		p.schema.DeclaredColumns = n
	case "rows":
		n, err := strconv.Atoi(value)
		if err != nil {
			return decodeErrf(ErrMalformedMetadata, p.line, "rows: %q is not an integer", value)
		}
		p.schema.DeclaredRows = n
	case "column_info":
		p.state = stateInColumnBlock
	default:
		// Unknown top-level keys are skipped so the grammar can grow.
	}
	return nil
}

func (p *metadataParser) setColumnAttr(key, value string) error {
	switch key {
	case "type":
		k, ok := KindFromString(value)
		if !ok {
			return decodeErrf(ErrMalformedMetadata, p.line,
				"column %s: unknown type %q", p.cur.Name, value)
		}
		p.cur.Kind = k
	case "length":
		n, err := strconv.Atoi(value)
		if err != nil {
			return decodeErrf(ErrMalformedMetadata, p.line,
				"column %s: length %q is not an integer", p.cur.Name, value)
		}
		p.cur.Length = n
	case "label":
		p.cur.Label = value
	case "format":
		p.cur.Format = value
	default:
		// Unknown column attributes are skipped.
	}
	return nil
}

func (p *metadataParser) flushColumn() error {
	if p.cur == nil {
		return nil
	}
	if err := p.cur.Validate(); err != nil {
		return decodeErrf(ErrMalformedMetadata, p.line, "%v", err)
	}
	p.schema.Columns = append(p.schema.Columns, *p.cur)
	p.cur = nil
	return nil
}

// finish flushes the open column and cross-checks the declared column
// count against the parsed column blocks. Trusting the parsed count
// silently would mask truncated metadata, so divergence is an error.
func (p *metadataParser) finish() error {
	if p.state == stateStart {
		return decodeErrf(ErrMalformedMetadata, p.line, "no %s section before table header", sectionMarker)
	}
	if err := p.flushColumn(); err != nil {
		return err
	}
	if p.colsDeclared && p.declaredCols != len(p.schema.Columns) {
		return decodeErrf(ErrSchemaMismatch, p.line,
			"metadata declares %d columns but %d column blocks were parsed",
			p.declaredCols, len(p.schema.Columns))
	}
	return nil
}

// parseHeaderLine splits SCHEMA[rows]{c1,c2,...}: into its parts.
func parseHeaderLine(line string, lineNum int) (name string, rows int, cols []string, err error) {
	s := strings.TrimSpace(line)

	lb := strings.IndexByte(s, '[')
	rb := strings.IndexByte(s, ']')
	lc := strings.IndexByte(s, '{')
	rc := strings.IndexByte(s, '}')
	if lb < 0 || rb < lb || lc < rb || rc < lc {
		return "", 0, nil, decodeErrf(ErrMalformedMetadata, lineNum, "malformed table header %q", s)
	}

	name = s[:lb]
	rows, aerr := strconv.Atoi(s[lb+1 : rb])
	if aerr != nil {
		return "", 0, nil, decodeErrf(ErrMalformedMetadata, lineNum,
			"table header row count %q is not an integer", s[lb+1:rb])
	}

	inner := s[lc+1 : rc]
	if inner != "" {
		cols = strings.Split(inner, ",")
		for i := range cols {
			cols[i] = strings.TrimSpace(cols[i])
		}
	}
	return name, rows, cols, nil
}

// ============================================================
// Metadata Block Encoder
// ============================================================

// encodeMetadata writes the metadata block for a wire schema. Key
// order is fixed; optional keys are omitted when empty.
func encodeMetadata(b *strings.Builder, s *Schema, source string) {
	b.WriteString(sectionMarker)
	b.WriteByte('\n')

	writeAttr(b, indentAttr, "source", source)
	writeAttr(b, indentAttr, "schema_name", s.wireName())
	if s.DatasetLabel != "" {
		writeAttr(b, indentAttr, "dataset_label", s.DatasetLabel)
	}
	writeAttr(b, indentAttr, "columns", strconv.Itoa(len(s.Columns)))
	writeAttr(b, indentAttr, "rows", strconv.Itoa(s.DeclaredRows))

	b.WriteString(strings.Repeat(" ", indentAttr))
	b.WriteString("column_info:\n")

	for _, c := range s.Columns {
		b.WriteString(strings.Repeat(" ", indentColumn))
		b.WriteString(c.Name)
		b.WriteString(":\n")

		writeAttr(b, indentColAttr, "type", c.Kind.String())
		if c.Kind == KindCharacter {
			writeAttr(b, indentColAttr, "length", strconv.Itoa(c.Length))
		}
		if c.Label != "" {
			writeAttr(b, indentColAttr, "label", c.Label)
		}
		if c.Format != "" {
			writeAttr(b, indentColAttr, "format", c.Format)
		}
	}
}

func writeAttr(b *strings.Builder, indent int, key, value string) {
	b.WriteString(strings.Repeat(" ", indent))
	b.WriteString(key)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteByte('\n')
}

// headerLine renders SCHEMA[rows]{c1,...}: for a wire schema.
func headerLine(s *Schema, rowCount int) string {
	return fmt.Sprintf("%s[%d]{%s}:", s.wireName(), rowCount, strings.Join(s.ColumnNames(), ","))
}

// normalized returns a copy of the schema with every column's kind
// replaced by its effective wire kind. Reclassification happens once,
// here, so both the metadata block and the row codec see the same
// kinds.
func (s *Schema) normalized() *Schema {
	out := *s
	out.Columns = make([]Column, len(s.Columns))
	for i, c := range s.Columns {
		c.Kind = c.EffectiveKind()
		out.Columns[i] = c
	}
	return &out
}
