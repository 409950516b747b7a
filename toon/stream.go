package toon

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ============================================================
// Streaming Reader / Writer
// ============================================================
//
// Every row is self-contained on one physical line, so arbitrarily
// long tables can be decoded and encoded without materializing the
// whole file. The metadata block is still parsed up front; only row
// data streams.

// maxLineSize bounds a single physical line. Escaped text keeps rows
// on one line, so this only limits single-row width.
const maxLineSize = 16 * 1024 * 1024

// Reader reads a TOON-TAB stream row by row.
type Reader struct {
	scanner *bufio.Scanner
	schema  *Schema
	row     Row
	err     error
	lineNum int
	started bool
	done    bool
}

// NewReader creates a streaming reader.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Reader{scanner: sc}
}

// NewReaderFromString creates a reader over in-memory text.
func NewReaderFromString(input string) *Reader {
	return NewReader(strings.NewReader(input))
}

// ReadSchema consumes the metadata block and the table header line
// and returns the resolved schema. Must be called before Next.
func (r *Reader) ReadSchema() (*Schema, error) {
	if r.started {
		return r.schema, nil
	}

	var mp metadataParser
	for r.scanner.Scan() {
		r.lineNum++
		line := r.scanner.Text()
		done, err := mp.feed(line)
		if err != nil {
			return nil, err
		}
		if !done {
			continue
		}

		_, _, headerCols, err := parseHeaderLine(line, r.lineNum)
		if err != nil {
			return nil, err
		}
		if len(headerCols) != len(mp.schema.Columns) {
			return nil, decodeErrf(ErrSchemaMismatch, r.lineNum,
				"table header lists %d columns but metadata parsed %d",
				len(headerCols), len(mp.schema.Columns))
		}
		r.schema = &mp.schema
		r.started = true
		return r.schema, nil
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, decodeErrf(ErrMalformedMetadata, r.lineNum, "no table header line found")
}

// Next advances to the next data row. It returns false at end of
// input or on the first error; check Err afterwards.
func (r *Reader) Next() bool {
	if r.done || r.err != nil {
		return false
	}
	if !r.started {
		if _, err := r.ReadSchema(); err != nil {
			r.err = err
			return false
		}
	}

	for r.scanner.Scan() {
		r.lineNum++
		line := r.scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		row, err := decodeRow(line, r.schema, r.lineNum)
		if err != nil {
			r.err = err
			return false
		}
		r.row = row
		return true
	}

	r.done = true
	r.err = r.scanner.Err()
	return false
}

// Row returns the row read by the last successful Next.
func (r *Reader) Row() Row { return r.row }

// Err returns the first error encountered, if any.
func (r *Reader) Err() error { return r.err }

// Line returns the physical line number of the last line consumed.
func (r *Reader) Line() int { return r.lineNum }

// Writer emits a TOON-TAB stream incrementally. The header line
// embeds the row count, so the total must be known up front.
type Writer struct {
	w        *bufio.Writer
	schema   *Schema // wire schema
	opts     EncodeOptions
	rowCount int
	started  bool
	written  int
}

// NewWriter creates a streaming writer for rowCount rows of the given
// schema.
func NewWriter(w io.Writer, schema *Schema, rowCount int) (*Writer, error) {
	if schema == nil {
		return nil, fmt.Errorf("%w: schema", ErrMissingInput)
	}
	for _, c := range schema.Columns {
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}
	ws := schema.normalized()
	ws.DeclaredRows = rowCount
	return &Writer{
		w:        bufio.NewWriter(w),
		schema:   ws,
		opts:     DefaultEncodeOptions(),
		rowCount: rowCount,
	}, nil
}

// WriteSchema emits the metadata block and the table header line.
// WriteRow calls it implicitly if needed.
func (w *Writer) WriteSchema() error {
	if w.started {
		return nil
	}
	source := w.opts.Source
	if source == "" {
		source = w.schema.Source
	}
	if source == "" {
		source = defaultSource
	}

	var b strings.Builder
	encodeMetadata(&b, w.schema, source)
	b.WriteString(headerLine(w.schema, w.rowCount))
	b.WriteByte('\n')

	if _, err := w.w.WriteString(b.String()); err != nil {
		return err
	}
	w.started = true
	return nil
}

// WriteRow emits one data row.
func (w *Writer) WriteRow(row Row) error {
	if err := w.WriteSchema(); err != nil {
		return err
	}
	if w.written >= w.rowCount {
		return fmt.Errorf("%w: more rows written than the %d declared",
			ErrSchemaMismatch, w.rowCount)
	}

	var b strings.Builder
	b.WriteString(w.opts.IndentPrefix)
	if err := encodeRow(&b, row, w.schema); err != nil {
		return err
	}
	b.WriteByte('\n')

	if _, err := w.w.WriteString(b.String()); err != nil {
		return err
	}
	w.written++
	return nil
}

// Flush completes the stream. It fails if fewer rows were written
// than declared.
func (w *Writer) Flush() error {
	if err := w.WriteSchema(); err != nil {
		return err
	}
	if w.written != w.rowCount {
		return fmt.Errorf("%w: %d rows written but %d declared",
			ErrSchemaMismatch, w.written, w.rowCount)
	}
	return w.w.Flush()
}
