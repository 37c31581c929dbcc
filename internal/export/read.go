package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Lumos-Labs-HQ/txsynth/internal/table"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// Read loads a previously written csv or parquet file. kinds only matters
// for csv, where column types are not stored.
func Read(ctx context.Context, path string, kinds map[string]table.Kind) (*table.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(path, kinds)
	case ".parquet":
		return ReadParquet(ctx, path)
	}
	return nil, fmt.Errorf("cannot read %s: only .csv and .parquet files are supported", path)
}

// ReadParquet names the table after the "dataset" key-value entry written by
// WriteParquet, or after path when the file has none.
func ReadParquet(ctx context.Context, path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file %s: %w", path, err)
	}
	defer f.Close()

	mem := memory.NewGoAllocator()
	rdr, err := file.NewParquetReader(f, file.WithReadProps(parquet.NewReaderProperties(mem)))
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet file %s: %w", path, err)
	}
	defer rdr.Close()

	name := path
	if v := rdr.MetaData().KeyValueMetadata().FindValue(datasetKey); v != nil {
		name = *v
	}

	fr, err := pqarrow.NewFileReader(rdr, pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet file %s: %w", path, err)
	}
	tbl, err := fr.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet file %s: %w", path, err)
	}
	defer tbl.Release()

	out := table.New(name)
	for i := 0; i < int(tbl.NumCols()); i++ {
		col, err := fromArrow(tbl.Column(i))
		if err != nil {
			return nil, err
		}
		if err := out.Add(col); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func fromArrow(src *arrow.Column) (*table.Column, error) {
	col := &table.Column{Name: src.Name()}
	switch src.DataType().ID() {
	case arrow.STRING:
		col.Kind = table.String
	case arrow.INT64:
		col.Kind = table.Int
	case arrow.FLOAT64:
		col.Kind = table.Float
	case arrow.BOOL:
		col.Kind = table.Bool
	case arrow.TIMESTAMP:
		col.Kind = table.Time
	default:
		return nil, fmt.Errorf("column %s has unsupported parquet type %s", src.Name(), src.DataType())
	}

	for _, chunk := range src.Data().Chunks() {
		switch arr := chunk.(type) {
		case *array.String:
			for j := 0; j < arr.Len(); j++ {
				col.Strings = append(col.Strings, arr.Value(j))
			}
		case *array.Int64:
			col.Ints = append(col.Ints, arr.Int64Values()...)
		case *array.Float64:
			col.Floats = append(col.Floats, arr.Float64Values()...)
		case *array.Boolean:
			for j := 0; j < arr.Len(); j++ {
				col.Bools = append(col.Bools, arr.Value(j))
			}
		case *array.Timestamp:
			unit := arr.DataType().(*arrow.TimestampType).Unit
			for j := 0; j < arr.Len(); j++ {
				col.Times = append(col.Times, arr.Value(j).ToTime(unit).UTC())
			}
		}
	}
	return col, nil
}
