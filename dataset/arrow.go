// Package dataset bridges TOON-TAB tables to Apache Arrow, the native
// in-memory representation used by the toontab tool. FromRecord
// snapshots an Arrow record into a toon.Table for encoding; ToRecord
// materializes a decoded toon.Table back into an Arrow record.
//
// Column metadata that has no Arrow equivalent (display format,
// label, character capacity) rides on Arrow field metadata under the
// toon:* keys.
package dataset

import (
	"strconv"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/pkg/errors"

	"github.com/Neumenon/toontab/toon"
)

// Arrow metadata keys carrying TOON-TAB column attributes.
const (
	MetaFormat       = "toon:format"
	MetaLabel        = "toon:label"
	MetaLength       = "toon:length"
	MetaSchemaName   = "toon:schema_name"
	MetaDatasetLabel = "toon:dataset_label"
	MetaSource       = "toon:source"
)

// FromRecord snapshots an Arrow record into a table. name becomes the
// schema name; when empty, the record's toon:schema_name metadata is
// used instead. Arrow nulls become missing cells; a null string cell
// becomes the empty string, since the text format cannot tell the two
// apart anyway.
func FromRecord(name string, rec arrow.Record) (*toon.Table, error) {
	if rec == nil {
		return nil, errors.Wrap(toon.ErrMissingInput, "arrow record")
	}

	md := rec.Schema().Metadata()
	if name == "" {
		name = metaValue(md, MetaSchemaName)
	}
	if name == "" {
		return nil, errors.Wrap(toon.ErrMissingInput, "schema name")
	}

	cols := make([]toon.Column, rec.NumCols())
	for i, f := range rec.Schema().Fields() {
		col, err := columnFromField(f)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}

	rows := make([]toon.Row, rec.NumRows())
	maxLen := make([]int, rec.NumCols())
	for r := 0; r < int(rec.NumRows()); r++ {
		row := make(toon.Row, rec.NumCols())
		for c := 0; c < int(rec.NumCols()); c++ {
			cell, err := cellFromArray(rec.Column(c), r)
			if err != nil {
				return nil, errors.Wrapf(err, "column %s row %d", cols[c].Name, r+1)
			}
			if cell.Tag() == toon.CellText && len(cell.Text()) > maxLen[c] {
				maxLen[c] = len(cell.Text())
			}
			row[c] = cell
		}
		rows[r] = row
	}

	// Character capacity falls back to the widest observed value
	// when the source carries no declared length.
	for i := range cols {
		if cols[i].Kind == toon.KindCharacter && cols[i].Length == 0 {
			cols[i].Length = max(1, maxLen[i])
		}
	}

	schema, err := toon.NewSchema(name, cols...)
	if err != nil {
		return nil, err
	}
	schema.DatasetLabel = metaValue(md, MetaDatasetLabel)
	schema.Source = metaValue(md, MetaSource)

	return toon.NewTable(schema, rows)
}

// FromTable snapshots a (possibly chunked) Arrow table by walking it
// record by record. Chunk boundaries do not survive into the result;
// the text format has no use for them.
func FromTable(name string, at arrow.Table) (*toon.Table, error) {
	if at == nil {
		return nil, errors.Wrap(toon.ErrMissingInput, "arrow table")
	}

	tr := array.NewTableReader(at, at.NumRows())
	defer tr.Release()

	var out *toon.Table
	for tr.Next() {
		part, err := FromRecord(name, tr.Record())
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = part
			continue
		}
		out.Rows = append(out.Rows, part.Rows...)
	}
	if err := tr.Err(); err != nil {
		return nil, errors.Wrap(err, "reading arrow table")
	}
	if out == nil {
		// Zero rows: the schema alone still converts.
		return emptyTable(name, at.Schema())
	}
	return out, nil
}

func emptyTable(name string, as *arrow.Schema) (*toon.Table, error) {
	md := as.Metadata()
	if name == "" {
		name = metaValue(md, MetaSchemaName)
	}
	if name == "" {
		return nil, errors.Wrap(toon.ErrMissingInput, "schema name")
	}

	cols := make([]toon.Column, len(as.Fields()))
	for i, f := range as.Fields() {
		col, err := columnFromField(f)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	schema, err := toon.NewSchema(name, cols...)
	if err != nil {
		return nil, err
	}
	schema.DatasetLabel = metaValue(md, MetaDatasetLabel)
	schema.Source = metaValue(md, MetaSource)
	return toon.NewTable(schema, nil)
}

func columnFromField(f arrow.Field) (toon.Column, error) {
	col := toon.Column{
		Name:   f.Name,
		Format: metaValue(f.Metadata, MetaFormat),
		Label:  metaValue(f.Metadata, MetaLabel),
	}

	switch f.Type.ID() {
	case arrow.STRING, arrow.LARGE_STRING:
		col.Kind = toon.KindCharacter
		col.Length = metaInt(f.Metadata, MetaLength)
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64,
		arrow.FLOAT32, arrow.FLOAT64:
		col.Kind = toon.KindNumeric
	case arrow.DATE32, arrow.DATE64:
		col.Kind = toon.KindDate
	case arrow.TIMESTAMP:
		col.Kind = toon.KindDateTime
	default:
		return col, errors.Errorf("column %s: unsupported arrow type %s", f.Name, f.Type)
	}
	return col, nil
}

func cellFromArray(arr arrow.Array, i int) (toon.Cell, error) {
	if arr.IsNull(i) {
		if arr.DataType().ID() == arrow.STRING || arr.DataType().ID() == arrow.LARGE_STRING {
			return toon.TextCell(""), nil
		}
		return toon.MissingCell(), nil
	}

	switch a := arr.(type) {
	case *array.String:
		return toon.TextCell(a.Value(i)), nil
	case *array.LargeString:
		return toon.TextCell(a.Value(i)), nil
	case *array.Int8:
		return toon.NumberCell(float64(a.Value(i))), nil
	case *array.Int16:
		return toon.NumberCell(float64(a.Value(i))), nil
	case *array.Int32:
		return toon.NumberCell(float64(a.Value(i))), nil
	case *array.Int64:
		return toon.NumberCell(float64(a.Value(i))), nil
	case *array.Uint8:
		return toon.NumberCell(float64(a.Value(i))), nil
	case *array.Uint16:
		return toon.NumberCell(float64(a.Value(i))), nil
	case *array.Uint32:
		return toon.NumberCell(float64(a.Value(i))), nil
	case *array.Uint64:
		return toon.NumberCell(float64(a.Value(i))), nil
	case *array.Float32:
		return toon.NumberCell(float64(a.Value(i))), nil
	case *array.Float64:
		return toon.NumberCell(a.Value(i)), nil
	case *array.Date32:
		t := a.Value(i).ToTime()
		return toon.DateCell(t.Year(), t.Month(), t.Day()), nil
	case *array.Date64:
		t := a.Value(i).ToTime()
		return toon.DateCell(t.Year(), t.Month(), t.Day()), nil
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		t := a.Value(i).ToTime(unit).UTC()
		return toon.TimestampCell(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second()), nil
	default:
		return toon.Cell{}, errors.Errorf("unsupported arrow array %T", arr)
	}
}

// ToRecord materializes a decoded table as an Arrow record. Numeric
// columns become float64, character columns utf8 strings, dates
// date32 and datetimes second-resolution UTC timestamps. The caller
// owns the returned record and must Release it.
func ToRecord(tbl *toon.Table, mem memory.Allocator) (arrow.Record, error) {
	if tbl == nil || tbl.Schema == nil {
		return nil, errors.Wrap(toon.ErrMissingInput, "table")
	}
	if err := tbl.Validate(); err != nil {
		return nil, err
	}

	fields := make([]arrow.Field, len(tbl.Schema.Columns))
	for i, c := range tbl.Schema.Columns {
		fields[i] = fieldFromColumn(c)
	}
	schemaMeta := arrow.NewMetadata(
		[]string{MetaSchemaName, MetaDatasetLabel, MetaSource},
		[]string{tbl.Schema.Name, tbl.Schema.DatasetLabel, tbl.Schema.Source},
	)
	arrowSchema := arrow.NewSchema(fields, &schemaMeta)

	b := array.NewRecordBuilder(mem, arrowSchema)
	defer b.Release()

	for _, row := range tbl.Rows {
		for c, cell := range row {
			if err := appendCell(b.Field(c), cell); err != nil {
				return nil, errors.Wrapf(err, "column %s", tbl.Schema.Columns[c].Name)
			}
		}
	}
	return b.NewRecord(), nil
}

func fieldFromColumn(c toon.Column) arrow.Field {
	var dt arrow.DataType
	switch c.EffectiveKind() {
	case toon.KindCharacter:
		dt = arrow.BinaryTypes.String
	case toon.KindDate:
		dt = arrow.FixedWidthTypes.Date32
	case toon.KindDateTime:
		dt = &arrow.TimestampType{Unit: arrow.Second, TimeZone: "UTC"}
	default:
		dt = arrow.PrimitiveTypes.Float64
	}

	var keys, vals []string
	if c.Format != "" {
		keys, vals = append(keys, MetaFormat), append(vals, c.Format)
	}
	if c.Label != "" {
		keys, vals = append(keys, MetaLabel), append(vals, c.Label)
	}
	if c.Kind == toon.KindCharacter && c.Length > 0 {
		keys, vals = append(keys, MetaLength), append(vals, strconv.Itoa(c.Length))
	}

	return arrow.Field{
		Name:     c.Name,
		Type:     dt,
		Nullable: true,
		Metadata: arrow.NewMetadata(keys, vals),
	}
}

func appendCell(fb array.Builder, cell toon.Cell) error {
	if cell.IsMissing() {
		fb.AppendNull()
		return nil
	}

	switch b := fb.(type) {
	case *array.StringBuilder:
		b.Append(cell.Text())
	case *array.Float64Builder:
		b.Append(cell.Number())
	case *array.Date32Builder:
		y, mo, d := cell.DateParts()
		b.Append(arrow.Date32FromTime(time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)))
	case *array.TimestampBuilder:
		y, mo, d := cell.DateParts()
		h, mi, s := cell.TimeParts()
		ts, err := arrow.TimestampFromTime(time.Date(y, mo, d, h, mi, s, 0, time.UTC), arrow.Second)
		if err != nil {
			return err
		}
		b.Append(ts)
	default:
		return errors.Errorf("unsupported builder %T", fb)
	}
	return nil
}

func metaValue(md arrow.Metadata, key string) string {
	if i := md.FindKey(key); i >= 0 {
		return md.Values()[i]
	}
	return ""
}

func metaInt(md arrow.Metadata, key string) int {
	v := metaValue(md, key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
