// Package table is the column-oriented representation shared by the
// validator and the output writers.
package table

import (
	"fmt"
	"strconv"
	"time"
)

type Kind int

const (
	String Kind = iota
	Int
	Float
	Bool
	Time
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case Time:
		return "datetime"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// TimeLayout is used whenever a timestamp is rendered as text.
const TimeLayout = time.RFC3339Nano

// Column holds exactly one typed slice, matching Kind.
type Column struct {
	Name    string
	Kind    Kind
	Strings []string
	Ints    []int64
	Floats  []float64
	Bools   []bool
	Times   []time.Time
}

func (c *Column) Len() int {
	switch c.Kind {
	case Int:
		return len(c.Ints)
	case Float:
		return len(c.Floats)
	case Bool:
		return len(c.Bools)
	case Time:
		return len(c.Times)
	}
	return len(c.Strings)
}

// Value returns the cell as string, int64, float64, bool or time.Time.
func (c *Column) Value(i int) any {
	switch c.Kind {
	case Int:
		return c.Ints[i]
	case Float:
		return c.Floats[i]
	case Bool:
		return c.Bools[i]
	case Time:
		return c.Times[i]
	}
	return c.Strings[i]
}

func (c *Column) Format(i int) string {
	switch c.Kind {
	case Int:
		return strconv.FormatInt(c.Ints[i], 10)
	case Float:
		return strconv.FormatFloat(c.Floats[i], 'f', -1, 64)
	case Bool:
		return strconv.FormatBool(c.Bools[i])
	case Time:
		return c.Times[i].UTC().Format(TimeLayout)
	}
	return c.Strings[i]
}

type Table struct {
	Name    string
	columns []*Column
	index   map[string]int
}

func New(name string) *Table {
	return &Table{Name: name, index: make(map[string]int)}
}

// Add appends a column. All columns must have the same length.
func (t *Table) Add(col *Column) error {
	if _, dup := t.index[col.Name]; dup {
		return fmt.Errorf("duplicate column %q", col.Name)
	}
	if len(t.columns) > 0 && col.Len() != t.Len() {
		return fmt.Errorf("column %q has %d rows, table %q has %d", col.Name, col.Len(), t.Name, t.Len())
	}
	t.index[col.Name] = len(t.columns)
	t.columns = append(t.columns, col)
	return nil
}

func (t *Table) AddStrings(name string, v []string) error {
	return t.Add(&Column{Name: name, Kind: String, Strings: v})
}

func (t *Table) AddInts(name string, v []int64) error {
	return t.Add(&Column{Name: name, Kind: Int, Ints: v})
}

func (t *Table) AddFloats(name string, v []float64) error {
	return t.Add(&Column{Name: name, Kind: Float, Floats: v})
}

func (t *Table) AddBools(name string, v []bool) error {
	return t.Add(&Column{Name: name, Kind: Bool, Bools: v})
}

func (t *Table) AddTimes(name string, v []time.Time) error {
	return t.Add(&Column{Name: name, Kind: Time, Times: v})
}

func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

func (t *Table) Columns() []*Column { return t.columns }

func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

func (t *Table) Len() int {
	if len(t.columns) == 0 {
		return 0
	}
	return t.columns[0].Len()
}

// Row returns the values of row i in column order.
func (t *Table) Row(i int) []any {
	row := make([]any, len(t.columns))
	for j, c := range t.columns {
		row[j] = c.Value(i)
	}
	return row
}
