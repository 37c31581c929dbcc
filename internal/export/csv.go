package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/Lumos-Labs-HQ/txsynth/internal/table"
)

func WriteCSV(path string, t *table.Table) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(t.ColumnNames()); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	cols := t.Columns()
	record := make([]string, len(cols))
	for i := 0; i < t.Len(); i++ {
		for j, c := range cols {
			record[j] = c.Format(i)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return file.Close()
}

var timeLayouts = []string{table.TimeLayout, "2006-01-02 15:04:05.999999999", "2006-01-02"}

// ReadCSV loads a CSV written by WriteCSV (or any CSV with a header). Each
// column is parsed as kinds[name]; a column that fails to parse, or has no
// declared kind, is kept as strings.
func ReadCSV(path string, kinds map[string]table.Kind) (*table.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file %s: %w", path, err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	raw := make([][]string, len(header))
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		for j := range header {
			raw[j] = append(raw[j], rec[j])
		}
	}

	t := table.New(path)
	for j, name := range header {
		col := parseColumn(name, raw[j], kinds[name])
		if err := t.Add(col); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func parseColumn(name string, values []string, kind table.Kind) *table.Column {
	col := &table.Column{Name: name, Kind: kind}
	ok := true

	switch kind {
	case table.Int:
		col.Ints = make([]int64, len(values))
		for i, v := range values {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				ok = false
				break
			}
			col.Ints[i] = n
		}
	case table.Float:
		col.Floats = make([]float64, len(values))
		for i, v := range values {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				ok = false
				break
			}
			col.Floats[i] = f
		}
	case table.Bool:
		col.Bools = make([]bool, len(values))
		for i, v := range values {
			b, err := strconv.ParseBool(v)
			if err != nil {
				ok = false
				break
			}
			col.Bools[i] = b
		}
	case table.Time:
		col.Times = make([]time.Time, len(values))
		for i, v := range values {
			ts, err := parseTime(v)
			if err != nil {
				ok = false
				break
			}
			col.Times[i] = ts
		}
	default:
		ok = false
	}

	if !ok {
		return &table.Column{Name: name, Kind: table.String, Strings: values}
	}
	return col
}

func parseTime(v string) (time.Time, error) {
	var err error
	for _, layout := range timeLayouts {
		var ts time.Time
		if ts, err = time.Parse(layout, v); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, err
}
