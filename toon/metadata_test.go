package toon

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedAll(t *testing.T, input string) (*metadataParser, int) {
	t.Helper()
	var mp metadataParser
	for i, line := range strings.Split(input, "\n") {
		done, err := mp.feed(line)
		require.NoError(t, err)
		if done {
			return &mp, i
		}
	}
	t.Fatal("no header line in fixture")
	return nil, 0
}

const metaFixture = `_metadata:
  source: unit test
  schema_name: ORDERS
  dataset_label: Order extract
  columns: 3
  rows: 2
  column_info:
    id:
      type: numeric
    name:
      type: character
      length: 40
      label: Customer name
    shipped:
      type: datetime
      format: DATETIME20.
ORDERS[2]{id,name,shipped}:
`

func TestMetadataDecode(t *testing.T) {
	mp, headerIdx := feedAll(t, metaFixture)
	s := mp.schema

	assert.Equal(t, 16, headerIdx)
	assert.Equal(t, "ORDERS", s.Name)
	assert.Equal(t, "unit test", s.Source)
	assert.Equal(t, "Order extract", s.DatasetLabel)
	assert.Equal(t, 3, s.DeclaredColumns)
	assert.Equal(t, 2, s.DeclaredRows)

	require.Len(t, s.Columns, 3)
	assert.Equal(t, Column{Name: "id", Kind: KindNumeric}, s.Columns[0])
	assert.Equal(t, Column{Name: "name", Kind: KindCharacter, Length: 40, Label: "Customer name"}, s.Columns[1])
	assert.Equal(t, Column{Name: "shipped", Kind: KindDateTime, Format: "DATETIME20."}, s.Columns[2])
}

func TestMetadataDecodeColumnCountMismatch(t *testing.T) {
	input := strings.Replace(metaFixture, "columns: 3", "columns: 5", 1)

	var mp metadataParser
	var err error
	for _, line := range strings.Split(input, "\n") {
		if _, err = mp.feed(line); err != nil {
			break
		}
	}
	require.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestMetadataDecodeRejectsJunkBeforeMarker(t *testing.T) {
	var mp metadataParser
	_, err := mp.feed("not a metadata file")
	require.ErrorIs(t, err, ErrMalformedMetadata)
}

func TestMetadataDecodeUnknownType(t *testing.T) {
	input := strings.Replace(metaFixture, "type: numeric", "type: blob", 1)

	var mp metadataParser
	var err error
	for _, line := range strings.Split(input, "\n") {
		if _, err = mp.feed(line); err != nil {
			break
		}
	}
	require.ErrorIs(t, err, ErrMalformedMetadata)
}

func TestMetadataDecodeSkipsBlankAndUnknownKeys(t *testing.T) {
	input := "_metadata:\n" +
		"\n" +
		"  schema_name: T\n" +
		"  generated_by: something new\n" +
		"  columns: 1\n" +
		"  rows: 0\n" +
		"  column_info:\n" +
		"    a:\n" +
		"      type: numeric\n" +
		"      widget: ignored\n" +
		"T[0]{a}:\n"

	mp, _ := feedAll(t, input)
	require.Len(t, mp.schema.Columns, 1)
	assert.Equal(t, "T", mp.schema.Name)
}

func TestIsHeaderLine(t *testing.T) {
	assert.True(t, isHeaderLine("ORDERS[2]{id,name}:"))
	assert.True(t, isHeaderLine("  X[0]{}:"))
	assert.False(t, isHeaderLine("  schema_name: ORDERS"))
	assert.False(t, isHeaderLine("ORDERS[2]: id, name"))
}

func TestParseHeaderLine(t *testing.T) {
	name, rows, cols, err := parseHeaderLine("SCHEMA[3]{a,b,c}:", 1)
	require.NoError(t, err)
	assert.Equal(t, "SCHEMA", name)
	assert.Equal(t, 3, rows)
	assert.Equal(t, []string{"a", "b", "c"}, cols)

	_, _, _, err = parseHeaderLine("SCHEMA}3]{a[:", 1)
	require.ErrorIs(t, err, ErrMalformedMetadata)

	_, _, _, err = parseHeaderLine("SCHEMA[x]{a}:", 1)
	require.ErrorIs(t, err, ErrMalformedMetadata)
}

func TestEncodeMetadataGolden(t *testing.T) {
	s := &Schema{
		Name:         "orders",
		DatasetLabel: "Order extract",
		DeclaredRows: 2,
		Columns: []Column{
			{Name: "id", Kind: KindNumeric},
			{Name: "name", Kind: KindCharacter, Length: 40, Label: "Customer name"},
			{Name: "shipped", Kind: KindNumeric, Format: "DATETIME20."},
		},
	}

	var b strings.Builder
	encodeMetadata(&b, s.normalized(), "unit test")

	want := strings.TrimSuffix(metaFixture, "ORDERS[2]{id,name,shipped}:\n")
	assert.Equal(t, want, b.String())
}

func TestEffectiveKindReclassification(t *testing.T) {
	tests := []struct {
		format string
		want   Kind
	}{
		{"", KindNumeric},
		{"BEST12.", KindNumeric},
		{"DATE9.", KindDate},
		{"date9.", KindDate},
		{"DATETIME20.", KindDateTime},
		{"DTDATE9.", KindDateTime},
		{"E8601DT", KindNumeric},
		// Substring sniffing means any format name containing DATE
		// reclassifies, even when it has nothing to do with dates.
		{"VALIDATED8.", KindDate},
	}
	for _, tt := range tests {
		c := Column{Name: "x", Kind: KindNumeric, Format: tt.format}
		assert.Equal(t, tt.want, c.EffectiveKind(), "format %q", tt.format)
	}
}

func TestEffectiveKindOnlyTouchesNumeric(t *testing.T) {
	c := Column{Name: "x", Kind: KindCharacter, Format: "DATETIME20."}
	assert.Equal(t, KindCharacter, c.EffectiveKind())
}
