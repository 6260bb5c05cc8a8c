// Package dataset loads, validates and generates daily mood diaries.
//
// A diary is a small time series with one row per calendar day: seven
// self-rated mood items on the response side and a set of behavioral
// drivers (sleep, exercise, screen time and friends) on the predictor
// side. Diaries arrive as CSV files; missing cells are carried as NaN so
// downstream feature building can decide how to handle gaps.
//
// Example usage:
//
//	d, err := dataset.Load("diary.csv", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	sleep, err := d.Column("sleep_hours")
package dataset

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	moodErrors "github.com/quantself/moodlab/pkg/errors"
)

// DateColumn is the reserved name of the date column in diary CSV files.
const DateColumn = "date"

// WellbeingColumn is the reserved name under which the PCA composite is
// attached to a diary.
const WellbeingColumn = "wellbeing"

// MoodColumns are the seven self-rated response items every diary
// carries, in canonical order. Ratings run 1 (low) to 10 (high);
// irritability and anxiety are negative-valence items.
var MoodColumns = []string{
	"happiness",
	"energy",
	"calm",
	"focus",
	"motivation",
	"irritability",
	"anxiety",
}

// Diary is a column-oriented daily diary. Rows are date-ordered; cells
// that were missing in the source are NaN.
type Diary struct {
	// Dates holds one entry per row, strictly increasing.
	Dates []time.Time

	// Columns lists the value columns in source order (the date column
	// excluded).
	Columns []string

	data map[string][]float64
}

// New creates an empty diary over the given dates. Columns are attached
// with AddColumn.
func New(dates []time.Time) *Diary {
	d := &Diary{
		Dates: make([]time.Time, len(dates)),
		data:  make(map[string][]float64),
	}
	copy(d.Dates, dates)
	return d
}

// Len returns the number of rows.
func (d *Diary) Len() int {
	return len(d.Dates)
}

// Has reports whether the named column exists.
func (d *Diary) Has(col string) bool {
	_, ok := d.data[col]
	return ok
}

// AddColumn attaches a value column. The length must match the diary's
// row count and the name must be new and not the reserved date column.
func (d *Diary) AddColumn(name string, values []float64) error {
	if name == "" || name == DateColumn {
		return moodErrors.NewValueError("Diary.AddColumn",
			fmt.Sprintf("invalid column name %q", name))
	}
	if d.Has(name) {
		return moodErrors.NewValueError("Diary.AddColumn",
			fmt.Sprintf("column %q already exists", name))
	}
	if len(values) != d.Len() {
		return moodErrors.NewDimensionError("Diary.AddColumn", d.Len(), len(values), 0)
	}

	v := make([]float64, len(values))
	copy(v, values)
	d.Columns = append(d.Columns, name)
	d.data[name] = v
	return nil
}

// Column returns a copy of the named column's values.
func (d *Diary) Column(col string) ([]float64, error) {
	values, ok := d.data[col]
	if !ok {
		return nil, moodErrors.NewValueError("Diary.Column",
			fmt.Sprintf("unknown column %q", col))
	}
	out := make([]float64, len(values))
	copy(out, values)
	return out, nil
}

// Matrix assembles the named columns into a dense matrix, one row per
// diary row, columns in the given order. NaN cells pass through.
func (d *Diary) Matrix(cols ...string) (*mat.Dense, error) {
	if len(cols) == 0 {
		return nil, moodErrors.NewValueError("Diary.Matrix", "no columns requested")
	}
	if d.Len() == 0 {
		return nil, moodErrors.NewModelError("Diary.Matrix", "empty diary", moodErrors.ErrEmptyData)
	}

	m := mat.NewDense(d.Len(), len(cols), nil)
	for j, col := range cols {
		values, ok := d.data[col]
		if !ok {
			return nil, moodErrors.NewValueError("Diary.Matrix",
				fmt.Sprintf("unknown column %q", col))
		}
		for i, v := range values {
			m.Set(i, j, v)
		}
	}
	return m, nil
}

// Slice returns a new diary covering rows [i, j).
func (d *Diary) Slice(i, j int) (*Diary, error) {
	if i < 0 || j > d.Len() || i > j {
		return nil, moodErrors.NewValueError("Diary.Slice",
			fmt.Sprintf("invalid range [%d, %d) for %d rows", i, j, d.Len()))
	}

	out := New(d.Dates[i:j])
	for _, col := range d.Columns {
		if err := out.AddColumn(col, d.data[col][i:j]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DropIncomplete returns a new diary without the rows that have a NaN in
// any of the named columns (all columns when none are named).
func (d *Diary) DropIncomplete(cols ...string) (*Diary, error) {
	if len(cols) == 0 {
		cols = d.Columns
	}
	for _, col := range cols {
		if !d.Has(col) {
			return nil, moodErrors.NewValueError("Diary.DropIncomplete",
				fmt.Sprintf("unknown column %q", col))
		}
	}

	keep := make([]int, 0, d.Len())
	for i := 0; i < d.Len(); i++ {
		complete := true
		for _, col := range cols {
			if math.IsNaN(d.data[col][i]) {
				complete = false
				break
			}
		}
		if complete {
			keep = append(keep, i)
		}
	}

	dates := make([]time.Time, len(keep))
	for k, i := range keep {
		dates[k] = d.Dates[i]
	}
	out := New(dates)
	for _, col := range d.Columns {
		values := make([]float64, len(keep))
		for k, i := range keep {
			values[k] = d.data[col][i]
		}
		if err := out.AddColumn(col, values); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ResponseColumns returns the canonical mood items present in this diary,
// in canonical order.
func (d *Diary) ResponseColumns() []string {
	var out []string
	for _, col := range MoodColumns {
		if d.Has(col) {
			out = append(out, col)
		}
	}
	return out
}

// DriverColumns returns the behavioral predictor columns: everything that
// is neither a mood item nor the wellbeing composite, in source order.
func (d *Diary) DriverColumns() []string {
	mood := make(map[string]bool, len(MoodColumns))
	for _, col := range MoodColumns {
		mood[col] = true
	}

	var out []string
	for _, col := range d.Columns {
		if !mood[col] && col != WellbeingColumn {
			out = append(out, col)
		}
	}
	return out
}

// Weekdays returns the short weekday name (Mon..Sun) for every row.
func (d *Diary) Weekdays() []string {
	out := make([]string, d.Len())
	for i, date := range d.Dates {
		out[i] = date.Format("Mon")
	}
	return out
}

// Validate checks diary integrity: strictly increasing dates and mood
// ratings within [1, 10] (NaN cells excepted).
func (d *Diary) Validate() error {
	if d.Len() == 0 {
		return moodErrors.NewModelError("Diary.Validate", "empty diary", moodErrors.ErrEmptyData)
	}

	for i := 1; i < len(d.Dates); i++ {
		if !d.Dates[i].After(d.Dates[i-1]) {
			return moodErrors.NewValueError("Diary.Validate",
				fmt.Sprintf("dates must be strictly increasing: row %d (%s) does not follow row %d (%s)",
					i, d.Dates[i].Format("2006-01-02"), i-1, d.Dates[i-1].Format("2006-01-02")))
		}
	}

	for _, col := range d.ResponseColumns() {
		for i, v := range d.data[col] {
			if math.IsNaN(v) {
				continue
			}
			if v < 1 || v > 10 {
				return moodErrors.NewValidationError(col,
					fmt.Sprintf("rating out of range [1, 10] at row %d", i), v)
			}
		}
	}

	return nil
}

// ColumnSummary describes one diary column for inspection output.
type ColumnSummary struct {
	Name    string
	Mean    float64
	StdDev  float64
	Min     float64
	Max     float64
	Missing int
}

// Describe summarizes every value column, skipping NaN cells.
func (d *Diary) Describe() []ColumnSummary {
	out := make([]ColumnSummary, 0, len(d.Columns))
	for _, col := range d.Columns {
		values := d.data[col]

		present := make([]float64, 0, len(values))
		missing := 0
		for _, v := range values {
			if math.IsNaN(v) {
				missing++
				continue
			}
			present = append(present, v)
		}

		s := ColumnSummary{Name: col, Missing: missing}
		if len(present) > 0 {
			s.Mean = stat.Mean(present, nil)
			s.StdDev = stat.StdDev(present, nil)
			s.Min = present[0]
			s.Max = present[0]
			for _, v := range present[1:] {
				if v < s.Min {
					s.Min = v
				}
				if v > s.Max {
					s.Max = v
				}
			}
		} else {
			s.Mean = math.NaN()
			s.StdDev = math.NaN()
			s.Min = math.NaN()
			s.Max = math.NaN()
		}
		out = append(out, s)
	}
	return out
}
