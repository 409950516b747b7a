package toon

import (
	"errors"
	"fmt"
	"strings"
)

// ============================================================
// Whole-File Codec
// ============================================================

// defaultSource is written to the metadata source key when neither
// the options nor the schema carry one.
const defaultSource = "toontab"

// EncodeOptions configures whole-file encoding.
type EncodeOptions struct {
	// Source overrides the schema's source string in the metadata
	// block.
	Source string

	// IndentPrefix is prepended to every data row line. Decoders
	// ignore it.
	IndentPrefix string
}

// DefaultEncodeOptions returns the canonical encoding options.
func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{IndentPrefix: "  "}
}

// Encode renders a table as TOON-TAB text with default options.
func Encode(t *Table) (string, error) {
	return EncodeWithOptions(t, DefaultEncodeOptions())
}

// EncodeWithOptions renders a table as TOON-TAB text. Any invalid
// input aborts immediately: a cell that does not fit its column's
// kind is a caller bug, not data to recover from.
func EncodeWithOptions(t *Table, opts EncodeOptions) (string, error) {
	if t == nil || t.Schema == nil {
		return "", fmt.Errorf("%w: table", ErrMissingInput)
	}
	if err := t.Validate(); err != nil {
		return "", err
	}

	ws := t.Schema.normalized()
	ws.DeclaredRows = len(t.Rows)

	source := opts.Source
	if source == "" {
		source = ws.Source
	}
	if source == "" {
		source = defaultSource
	}

	var b strings.Builder
	encodeMetadata(&b, ws, source)
	b.WriteString(headerLine(ws, len(t.Rows)))
	b.WriteByte('\n')

	for _, row := range t.Rows {
		b.WriteString(opts.IndentPrefix)
		if err := encodeRow(&b, row, ws); err != nil {
			return "", err
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// DecodeOptions configures whole-file decoding.
type DecodeOptions struct {
	// Strict aborts on the first row-level error instead of
	// collecting it. Structural errors always abort.
	Strict bool
}

// DefaultDecodeOptions returns the tolerant decoding options.
func DefaultDecodeOptions() DecodeOptions {
	return DecodeOptions{}
}

// DecodeResult is the outcome of a tolerant decode. Rows that failed
// to parse are absent from Table and recorded in RowErrors, in input
// order, one entry per failing line.
type DecodeResult struct {
	Table     *Table
	RowErrors []*DecodeError
}

// HasRowErrors reports whether any row failed to decode.
func (r *DecodeResult) HasRowErrors() bool {
	return len(r.RowErrors) > 0
}

// Decode parses TOON-TAB text in strict mode: the first error of any
// kind aborts.
func Decode(input string) (*Table, error) {
	res, err := DecodeWithOptions(input, DecodeOptions{Strict: true})
	if err != nil {
		return nil, err
	}
	return res.Table, nil
}

// DecodeWithOptions parses TOON-TAB text. Structural errors (no
// header line, schema disagreements) always abort; row-level errors
// follow the Strict option.
func DecodeWithOptions(input string, opts DecodeOptions) (*DecodeResult, error) {
	if strings.TrimSpace(input) == "" {
		return nil, fmt.Errorf("%w: input text is empty", ErrNotFound)
	}

	lines := strings.Split(input, "\n")

	var mp metadataParser
	headerIdx := -1
	for i, line := range lines {
		done, err := mp.feed(line)
		if err != nil {
			return nil, err
		}
		if done {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, decodeErrf(ErrMalformedMetadata, len(lines), "no table header line found")
	}

	schema := mp.schema
	_, _, headerCols, err := parseHeaderLine(lines[headerIdx], headerIdx+1)
	if err != nil {
		return nil, err
	}
	if len(headerCols) != len(schema.Columns) {
		return nil, decodeErrf(ErrSchemaMismatch, headerIdx+1,
			"table header lists %d columns but metadata parsed %d",
			len(headerCols), len(schema.Columns))
	}

	res := &DecodeResult{Table: &Table{Schema: &schema}}
	for j, line := range lines[headerIdx+1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lineNum := headerIdx + 2 + j
		row, err := decodeRow(line, &schema, lineNum)
		if err != nil {
			var de *DecodeError
			if errors.As(err, &de) && !de.structural() && !opts.Strict {
				res.RowErrors = append(res.RowErrors, de)
				continue
			}
			return nil, err
		}
		res.Table.Rows = append(res.Table.Rows, row)
	}
	return res, nil
}
