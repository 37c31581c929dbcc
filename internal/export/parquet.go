package export

import (
	"fmt"
	"os"

	"github.com/Lumos-Labs-HQ/txsynth/internal/table"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

const (
	parquetChunkRows = 64 * 1024
	datasetKey       = "dataset"
)

var arrowTypes = map[table.Kind]arrow.DataType{
	table.String: arrow.BinaryTypes.String,
	table.Int:    arrow.PrimitiveTypes.Int64,
	table.Float:  arrow.PrimitiveTypes.Float64,
	table.Bool:   arrow.FixedWidthTypes.Boolean,
	table.Time:   &arrow.TimestampType{Unit: arrow.Nanosecond, TimeZone: "UTC"},
}

func ArrowSchema(t *table.Table) *arrow.Schema {
	fields := make([]arrow.Field, 0, len(t.Columns()))
	for _, c := range t.Columns() {
		fields = append(fields, arrow.Field{Name: c.Name, Type: arrowTypes[c.Kind], Nullable: false})
	}
	metadata := arrow.NewMetadata([]string{datasetKey}, []string{t.Name})
	return arrow.NewSchema(fields, &metadata)
}

// WriteParquet writes the table in row groups of parquetChunkRows.
func WriteParquet(path string, t *table.Table) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file %s: %w", path, err)
	}
	defer file.Close()

	schema := ArrowSchema(t)
	mem := memory.NewGoAllocator()
	writer, err := pqarrow.NewFileWriter(schema, file, nil, pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(mem), pqarrow.WithStoreSchema()))
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}

	rb := array.NewRecordBuilder(mem, schema)
	defer rb.Release()

	// An empty table still writes one empty row group so the schema is kept.
	for start := 0; ; start += parquetChunkRows {
		end := min(start+parquetChunkRows, t.Len())
		for j, c := range t.Columns() {
			appendColumn(rb.Field(j), c, start, end)
		}

		rec := rb.NewRecord()
		err := writer.Write(rec)
		rec.Release()
		if err != nil {
			writer.Close()
			return fmt.Errorf("failed to write parquet rows %d-%d: %w", start, end, err)
		}
		if end >= t.Len() {
			break
		}
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

func appendColumn(b array.Builder, c *table.Column, start, end int) {
	switch c.Kind {
	case table.String:
		b.(*array.StringBuilder).AppendValues(c.Strings[start:end], nil)
	case table.Int:
		b.(*array.Int64Builder).AppendValues(c.Ints[start:end], nil)
	case table.Float:
		b.(*array.Float64Builder).AppendValues(c.Floats[start:end], nil)
	case table.Bool:
		b.(*array.BooleanBuilder).AppendValues(c.Bools[start:end], nil)
	case table.Time:
		tb := b.(*array.TimestampBuilder)
		for _, ts := range c.Times[start:end] {
			tb.Append(arrow.Timestamp(ts.UnixNano()))
		}
	}
}
