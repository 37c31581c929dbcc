package validation

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Lumos-Labs-HQ/txsynth/internal/config"
	"github.com/Lumos-Labs-HQ/txsynth/internal/table"
	"github.com/rs/zerolog"
)

const maxListedValues = 10

// Constraint bounds a column. Min and Max accept numbers for numeric
// columns and time.Time or date strings for datetime columns.
type Constraint struct {
	Min           any
	Max           any
	AllowedValues []string
}

type Schema struct {
	Name            string
	RequiredColumns []string
	DTypes          map[string]string
	Constraints     map[string]Constraint
}

type Violation struct {
	Check   string
	Column  string
	Message string
}

func (v Violation) String() string {
	return fmt.Sprintf("[%s] %s: %s", v.Check, v.Column, v.Message)
}

// Report is the outcome of validating one table. An empty report passes.
type Report struct {
	Dataset    string
	Rows       int
	Violations []Violation
}

func (r Report) OK() bool { return len(r.Violations) == 0 }

func (r Report) Summary() string {
	msgs := make([]string, len(r.Violations))
	for i, v := range r.Violations {
		msgs[i] = v.String()
	}
	return fmt.Sprintf("%s failed validation with %d violation(s): %s", r.Dataset, len(r.Violations), strings.Join(msgs, "; "))
}

// Validate runs every check and logs each violation. Missing columns are
// reported once and skipped by the type and constraint checks.
func Validate(t *table.Table, schema Schema, log zerolog.Logger) Report {
	report := Report{Dataset: schema.Name, Rows: t.Len()}
	report.Violations = append(report.Violations, CheckRequiredColumns(t, schema.RequiredColumns)...)
	report.Violations = append(report.Violations, CheckColumnDTypes(t, schema.DTypes)...)
	report.Violations = append(report.Violations, CheckColumnConstraints(t, schema.Constraints)...)

	for _, v := range report.Violations {
		log.Warn().
			Str("dataset", schema.Name).
			Str("check", v.Check).
			Str("column", v.Column).
			Msg(v.Message)
	}
	if report.OK() {
		log.Info().Str("dataset", schema.Name).Int("rows", report.Rows).Msg("validation passed")
	}
	return report
}

func CheckRequiredColumns(t *table.Table, required []string) []Violation {
	var out []Violation
	for _, col := range required {
		if _, ok := t.Column(col); !ok {
			out = append(out, Violation{Check: "columns", Column: col, Message: "required column is missing"})
		}
	}
	return out
}

var dtypeKinds = map[string]table.Kind{
	"string":   table.String,
	"int":      table.Int,
	"float":    table.Float,
	"bool":     table.Bool,
	"datetime": table.Time,
}

func CheckColumnDTypes(t *table.Table, dtypes map[string]string) []Violation {
	var out []Violation
	for _, name := range sortedKeys(dtypes) {
		col, ok := t.Column(name)
		if !ok {
			continue
		}
		want := dtypes[name]
		kind, known := dtypeKinds[want]
		if !known {
			out = append(out, Violation{Check: "dtypes", Column: name, Message: fmt.Sprintf("no type checker for dtype %q", want)})
			continue
		}
		if col.Kind != kind {
			out = append(out, Violation{Check: "dtypes", Column: name, Message: fmt.Sprintf("expected %s, got %s", want, col.Kind)})
		}
	}
	return out
}

func CheckColumnConstraints(t *table.Table, constraints map[string]Constraint) []Violation {
	var out []Violation
	for _, name := range sortedKeys(constraints) {
		col, ok := t.Column(name)
		if !ok {
			continue
		}
		c := constraints[name]
		if c.Min != nil {
			out = append(out, checkBound(col, c.Min, true)...)
		}
		if c.Max != nil {
			out = append(out, checkBound(col, c.Max, false)...)
		}
		if len(c.AllowedValues) > 0 {
			out = append(out, checkAllowed(col, c.AllowedValues)...)
		}
	}
	return out
}

func checkBound(col *table.Column, bound any, isMin bool) []Violation {
	label := "max"
	if isMin {
		label = "min"
	}
	fail := func(msg string) []Violation {
		return []Violation{{Check: "constraints", Column: col.Name, Message: msg}}
	}

	switch col.Kind {
	case table.Int, table.Float:
		b, ok := toFloat(bound)
		if !ok {
			return fail(fmt.Sprintf("%s bound %v is not numeric", label, bound))
		}
		count, worst := 0, b
		for i := 0; i < col.Len(); i++ {
			v := numeric(col, i)
			if math.IsNaN(v) {
				continue
			}
			if (isMin && v < b) || (!isMin && v > b) {
				count++
				if (isMin && v < worst) || (!isMin && v > worst) {
					worst = v
				}
			}
		}
		if count > 0 {
			return fail(fmt.Sprintf("%d value(s) violate %s %g (worst %g)", count, label, b, worst))
		}
	case table.Time:
		b, ok := toTime(bound)
		if !ok {
			return fail(fmt.Sprintf("%s bound %v is not a date", label, bound))
		}
		count, worst := 0, b
		for _, v := range col.Times {
			if (isMin && v.Before(b)) || (!isMin && v.After(b)) {
				count++
				if (isMin && v.Before(worst)) || (!isMin && v.After(worst)) {
					worst = v
				}
			}
		}
		if count > 0 {
			return fail(fmt.Sprintf("%d value(s) violate %s %s (worst %s)", count, label, b.Format(time.RFC3339), worst.Format(time.RFC3339)))
		}
	default:
		return fail(fmt.Sprintf("%s bound is not supported for %s columns", label, col.Kind))
	}
	return nil
}

func checkAllowed(col *table.Column, allowed []string) []Violation {
	set := make(map[string]bool, len(allowed))
	for _, v := range allowed {
		set[v] = true
	}

	count := 0
	bad := map[string]bool{}
	for i := 0; i < col.Len(); i++ {
		v := col.Format(i)
		if !set[v] {
			count++
			bad[v] = true
		}
	}
	if count == 0 {
		return nil
	}

	values := sortedKeys(bad)
	if len(values) > maxListedValues {
		values = append(values[:maxListedValues], "...")
	}
	return []Violation{{
		Check:   "constraints",
		Column:  col.Name,
		Message: fmt.Sprintf("%d value(s) not in allowed set: %s", count, strings.Join(values, ", ")),
	}}
}

func numeric(col *table.Column, i int) float64 {
	if col.Kind == table.Int {
		return float64(col.Ints[i])
	}
	return col.Floats[i]
}

func toFloat(v any) (float64, bool) {
	switch b := v.(type) {
	case float64:
		return b, true
	case float32:
		return float64(b), true
	case int:
		return float64(b), true
	case int64:
		return float64(b), true
	}
	return 0, false
}

func toTime(v any) (time.Time, bool) {
	switch b := v.(type) {
	case time.Time:
		return b, true
	case string:
		t, err := config.ParseDate(b)
		return t, err == nil
	}
	return time.Time{}, false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
