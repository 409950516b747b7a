package dataset

import (
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neumenon/toontab/toon"
)

func buildTestRecord(t *testing.T, mem memory.Allocator) arrow.Record {
	t.Helper()

	fields := []arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{
			Name: "name", Type: arrow.BinaryTypes.String, Nullable: true,
			Metadata: arrow.NewMetadata([]string{MetaLength, MetaLabel}, []string{"40", "Customer name"}),
		},
		{
			Name: "shipped", Type: &arrow.TimestampType{Unit: arrow.Second, TimeZone: "UTC"}, Nullable: true,
			Metadata: arrow.NewMetadata([]string{MetaFormat}, []string{"DATETIME20."}),
		},
		{Name: "born", Type: arrow.FixedWidthTypes.Date32, Nullable: true},
	}
	md := arrow.NewMetadata([]string{MetaSchemaName}, []string{"orders"})
	schema := arrow.NewSchema(fields, &md)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	b.Field(0).(*array.Int64Builder).AppendValues([]int64{1, 2}, nil)
	b.Field(1).(*array.StringBuilder).Append("Ace, Inc.")
	b.Field(1).(*array.StringBuilder).AppendNull()

	ts, err := arrow.TimestampFromTime(time.Date(2025, time.November, 15, 14, 30, 45, 0, time.UTC), arrow.Second)
	require.NoError(t, err)
	b.Field(2).(*array.TimestampBuilder).Append(ts)
	b.Field(2).(*array.TimestampBuilder).AppendNull()

	b.Field(3).(*array.Date32Builder).Append(arrow.Date32FromTime(time.Date(1999, time.January, 2, 0, 0, 0, 0, time.UTC)))
	b.Field(3).(*array.Date32Builder).AppendNull()

	return b.NewRecord()
}

func TestFromRecord(t *testing.T) {
	mem := memory.NewGoAllocator()
	rec := buildTestRecord(t, mem)
	defer rec.Release()

	tbl, err := FromRecord("", rec)
	require.NoError(t, err)

	s := tbl.Schema
	assert.Equal(t, "orders", s.Name)
	require.Len(t, s.Columns, 4)

	assert.Equal(t, toon.KindNumeric, s.Columns[0].Kind)
	assert.Equal(t, toon.Column{Name: "name", Kind: toon.KindCharacter, Length: 40, Label: "Customer name"}, s.Columns[1])
	assert.Equal(t, toon.KindDateTime, s.Columns[2].Kind)
	assert.Equal(t, "DATETIME20.", s.Columns[2].Format)
	assert.Equal(t, toon.KindDate, s.Columns[3].Kind)

	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, float64(1), tbl.Rows[0][0].Number())
	assert.Equal(t, "Ace, Inc.", tbl.Rows[0][1].Text())

	// Null string becomes the empty string, null scalars become
	// missing cells.
	assert.Equal(t, toon.CellText, tbl.Rows[1][1].Tag())
	assert.Equal(t, "", tbl.Rows[1][1].Text())
	assert.True(t, tbl.Rows[1][2].IsMissing())
	assert.True(t, tbl.Rows[1][3].IsMissing())

	y, mo, d := tbl.Rows[0][2].DateParts()
	h, mi, sec := tbl.Rows[0][2].TimeParts()
	assert.Equal(t, [6]int{2025, 11, 15, 14, 30, 45}, [6]int{y, int(mo), d, h, mi, sec})
}

func TestFromRecordRequiresName(t *testing.T) {
	mem := memory.NewGoAllocator()
	schema := arrow.NewSchema([]arrow.Field{{Name: "x", Type: arrow.PrimitiveTypes.Float64}}, nil)
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	rec := b.NewRecord()
	defer rec.Release()

	_, err := FromRecord("", rec)
	require.ErrorIs(t, err, toon.ErrMissingInput)
}

func TestFromRecordDerivesCharacterLength(t *testing.T) {
	mem := memory.NewGoAllocator()
	schema := arrow.NewSchema([]arrow.Field{{Name: "s", Type: arrow.BinaryTypes.String, Nullable: true}}, nil)
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	b.Field(0).(*array.StringBuilder).AppendValues([]string{"ab", "abcde", ""}, nil)
	rec := b.NewRecord()
	defer rec.Release()

	tbl, err := FromRecord("t", rec)
	require.NoError(t, err)
	assert.Equal(t, 5, tbl.Schema.Columns[0].Length)
}

func TestRecordRoundTripThroughText(t *testing.T) {
	mem := memory.NewGoAllocator()
	rec := buildTestRecord(t, mem)
	defer rec.Release()

	tbl, err := FromRecord("orders", rec)
	require.NoError(t, err)

	text, err := toon.Encode(tbl)
	require.NoError(t, err)

	decoded, err := toon.Decode(text)
	require.NoError(t, err)

	back, err := ToRecord(decoded, mem)
	require.NoError(t, err)
	defer back.Release()

	assert.Equal(t, int64(2), back.NumRows())
	require.EqualValues(t, 4, back.NumCols())

	names := back.Column(1).(*array.String)
	assert.Equal(t, "Ace, Inc.", names.Value(0))

	stamps := back.Column(2).(*array.Timestamp)
	assert.True(t, back.Column(2).IsNull(1))
	got := stamps.Value(0).ToTime(arrow.Second)
	assert.Equal(t, time.Date(2025, time.November, 15, 14, 30, 45, 0, time.UTC), got)

	// Numeric id survives as float64, the format's numeric model.
	ids := back.Column(0).(*array.Float64)
	assert.Equal(t, float64(1), ids.Value(0))
}

func TestToRecordRejectsNil(t *testing.T) {
	_, err := ToRecord(nil, memory.NewGoAllocator())
	require.ErrorIs(t, err, toon.ErrMissingInput)
}
