package toon

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamWriteRead(t *testing.T) {
	s, err := NewSchema("log",
		Column{Name: "seq", Kind: KindNumeric},
		Column{Name: "msg", Kind: KindCharacter, Length: 200},
		Column{Name: "at", Kind: KindDateTime},
	)
	require.NoError(t, err)

	rows := []Row{
		{NumberCell(1), TextCell("started"), TimestampCell(2025, time.March, 1, 8, 0, 0)},
		{NumberCell(2), TextCell("multi\nline, message"), TimestampCell(2025, time.March, 1, 8, 0, 1)},
		{NumberCell(3), TextCell(""), MissingCell()},
	}

	var out strings.Builder
	w, err := NewWriter(&out, s, len(rows))
	require.NoError(t, err)
	for _, row := range rows {
		require.NoError(t, w.WriteRow(row))
	}
	require.NoError(t, w.Flush())

	r := NewReaderFromString(out.String())
	schema, err := r.ReadSchema()
	require.NoError(t, err)
	assert.Equal(t, "LOG", schema.Name)
	require.Len(t, schema.Columns, 3)

	var got []Row
	for r.Next() {
		got = append(got, r.Row())
	}
	require.NoError(t, r.Err())
	assert.Equal(t, rows, got)
}

func TestStreamMatchesWholeFileEncode(t *testing.T) {
	tbl := ordersTable(t)

	whole, err := Encode(tbl)
	require.NoError(t, err)

	var out strings.Builder
	w, err := NewWriter(&out, tbl.Schema, len(tbl.Rows))
	require.NoError(t, err)
	for _, row := range tbl.Rows {
		require.NoError(t, w.WriteRow(row))
	}
	require.NoError(t, w.Flush())

	assert.Equal(t, whole, out.String())
}

func TestWriterEnforcesDeclaredRowCount(t *testing.T) {
	s, err := NewSchema("t", Column{Name: "n", Kind: KindNumeric})
	require.NoError(t, err)

	var out strings.Builder
	w, err := NewWriter(&out, s, 1)
	require.NoError(t, err)

	require.NoError(t, w.WriteRow(Row{NumberCell(1)}))
	require.ErrorIs(t, w.WriteRow(Row{NumberCell(2)}), ErrSchemaMismatch)
}

func TestWriterFlushRequiresAllRows(t *testing.T) {
	s, err := NewSchema("t", Column{Name: "n", Kind: KindNumeric})
	require.NoError(t, err)

	var out strings.Builder
	w, err := NewWriter(&out, s, 2)
	require.NoError(t, err)
	require.NoError(t, w.WriteRow(Row{NumberCell(1)}))
	require.ErrorIs(t, w.Flush(), ErrSchemaMismatch)
}

func TestReaderStopsOnRowError(t *testing.T) {
	tbl := ordersTable(t)
	text, err := Encode(tbl)
	require.NoError(t, err)

	bad := strings.Replace(text, "  1,", "  one,", 1)
	r := NewReaderFromString(bad)
	_, err = r.ReadSchema()
	require.NoError(t, err)

	assert.False(t, r.Next())
	require.ErrorIs(t, r.Err(), ErrUnparsable)
	assert.Equal(t, 16, r.Line())
}

func TestReaderNoHeader(t *testing.T) {
	r := NewReaderFromString("_metadata:\n  schema_name: X\n")
	_, err := r.ReadSchema()
	require.ErrorIs(t, err, ErrMalformedMetadata)
}
