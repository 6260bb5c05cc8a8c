// Package features turns a daily diary into a supervised design matrix.
//
// A Builder derives predictor columns from the diary's behavioral
// drivers: same-day values, lagged values, rolling aggregates over past
// days and a one-hot weekday encoding. Every derived value for row i uses
// only diary rows at or before i, so a model fit on the resulting matrix
// never sees the future.
package features

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/quantself/moodlab/dataset"
	moodErrors "github.com/quantself/moodlab/pkg/errors"
	"github.com/quantself/moodlab/preprocessing"
)

// Builder configures feature derivation.
//
// The zero value builds nothing useful; use NewBuilder for the standard
// configuration (today's drivers, lags 1-3, rolling means over 3 and 7
// days, weekday one-hot).
type Builder struct {
	// Drivers selects the diary columns to derive features from. Empty
	// means every driver column of the diary.
	Drivers []string
	// Lags lists backward shifts in days, each >= 1.
	Lags []int
	// Windows lists rolling-window sizes in days, each >= 1. A window w
	// aggregates rows [i-w, i-1], ending the day before the target row.
	Windows []int
	// IncludeToday adds each driver's same-day value.
	IncludeToday bool
	// RollingStd adds the rolling standard deviation next to each
	// rolling mean.
	RollingStd bool
	// Weekday appends a one-hot weekday encoding.
	Weekday bool
}

// Matrix is a built design matrix. Row i of X predicts Y[i], the target
// value on Dates[i].
type Matrix struct {
	X     *mat.Dense
	Y     *mat.VecDense
	Names []string
	Dates []time.Time
}

// NewBuilder returns the standard configuration.
func NewBuilder() *Builder {
	return &Builder{
		Lags:         []int{1, 2, 3},
		Windows:      []int{3, 7},
		IncludeToday: true,
		Weekday:      true,
	}
}

// FeatureCount returns the number of columns Build derives for the given
// number of drivers. The weekday block counts as seven; diaries shorter
// than a week may observe fewer.
func (b *Builder) FeatureCount(nDrivers int) int {
	perDriver := len(b.Lags) + len(b.Windows)
	if b.IncludeToday {
		perDriver++
	}
	if b.RollingStd {
		perDriver += len(b.Windows)
	}
	n := nDrivers * perDriver
	if b.Weekday {
		n += 7
	}
	return n
}

// Build derives the design matrix for the given target column. Rows
// whose lags or windows would reach before the first diary row are
// dropped, as are rows with a missing value in any used cell.
func (b *Builder) Build(d *dataset.Diary, target string) (*Matrix, error) {
	if d == nil || d.Len() == 0 {
		return nil, moodErrors.NewModelError("Builder.Build", "empty diary", moodErrors.ErrEmptyData)
	}
	if !d.Has(target) {
		return nil, moodErrors.NewValueError("Builder.Build",
			fmt.Sprintf("unknown target column %q", target))
	}

	drivers := b.Drivers
	if len(drivers) == 0 {
		drivers = d.DriverColumns()
	}
	if len(drivers) == 0 {
		return nil, moodErrors.NewValueError("Builder.Build", "diary has no driver columns")
	}

	warmup := 0
	for _, k := range b.Lags {
		if k < 1 {
			return nil, moodErrors.NewValueError("Builder.Build",
				fmt.Sprintf("lag must be >= 1, got %d", k))
		}
		if k >= d.Len() {
			return nil, moodErrors.NewValueError("Builder.Build",
				fmt.Sprintf("lag %d exceeds diary length %d", k, d.Len()))
		}
		if k > warmup {
			warmup = k
		}
	}
	for _, w := range b.Windows {
		if w < 1 {
			return nil, moodErrors.NewValueError("Builder.Build",
				fmt.Sprintf("window must be >= 1, got %d", w))
		}
		if w >= d.Len() {
			return nil, moodErrors.NewValueError("Builder.Build",
				fmt.Sprintf("window %d exceeds diary length %d", w, d.Len()))
		}
		if w > warmup {
			warmup = w
		}
	}

	series := make(map[string][]float64, len(drivers))
	for _, col := range drivers {
		values, err := d.Column(col)
		if err != nil {
			return nil, err
		}
		series[col] = values
	}
	targetValues, err := d.Column(target)
	if err != nil {
		return nil, err
	}

	var weekdayBlock [][]float64
	var weekdayNames []string
	if b.Weekday {
		weekdayBlock, weekdayNames, err = encodeWeekdays(d)
		if err != nil {
			return nil, err
		}
	}

	names := b.featureNames(drivers, weekdayNames)

	var rows [][]float64
	var ys []float64
	var dates []time.Time

	row := make([]float64, 0, len(names))
	for i := warmup; i < d.Len(); i++ {
		row = row[:0]
		ok := true

		for _, col := range drivers {
			v := series[col]
			if b.IncludeToday {
				row = append(row, v[i])
			}
			for _, k := range b.Lags {
				row = append(row, v[i-k])
			}
			for _, w := range b.Windows {
				m, s := window(v[i-w : i])
				row = append(row, m)
				if b.RollingStd {
					row = append(row, s)
				}
			}
		}
		if b.Weekday {
			row = append(row, weekdayBlock[i]...)
		}

		for _, v := range row {
			if math.IsNaN(v) {
				ok = false
				break
			}
		}
		if !ok || math.IsNaN(targetValues[i]) {
			continue
		}

		rows = append(rows, append([]float64(nil), row...))
		ys = append(ys, targetValues[i])
		dates = append(dates, d.Dates[i])
	}

	if len(rows) == 0 {
		return nil, moodErrors.NewValueError("Builder.Build",
			"no usable rows after warm-up trimming and missing-value removal")
	}

	x := mat.NewDense(len(rows), len(names), nil)
	for i, r := range rows {
		x.SetRow(i, r)
	}

	return &Matrix{
		X:     x,
		Y:     mat.NewVecDense(len(ys), ys),
		Names: names,
		Dates: dates,
	}, nil
}

// featureNames returns the deterministic column naming: per driver,
// today first, then lags ascending as given, then rolling means (and
// stds), with the weekday block last.
func (b *Builder) featureNames(drivers, weekdayNames []string) []string {
	names := make([]string, 0, b.FeatureCount(len(drivers)))
	for _, col := range drivers {
		if b.IncludeToday {
			names = append(names, col)
		}
		for _, k := range b.Lags {
			names = append(names, fmt.Sprintf("%s_lag%d", col, k))
		}
		for _, w := range b.Windows {
			names = append(names, fmt.Sprintf("%s_roll%d", col, w))
			if b.RollingStd {
				names = append(names, fmt.Sprintf("%s_rollstd%d", col, w))
			}
		}
	}
	return append(names, weekdayNames...)
}

// window returns the mean and sample standard deviation of vals, NaN when
// any cell is missing.
func window(vals []float64) (mean, std float64) {
	sum := 0.0
	for _, v := range vals {
		if math.IsNaN(v) {
			return math.NaN(), math.NaN()
		}
		sum += v
	}
	mean = sum / float64(len(vals))

	if len(vals) < 2 {
		return mean, 0
	}
	ss := 0.0
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(vals)-1))
}

// encodeWeekdays one-hots the diary's weekday names with the shared
// encoder so the column naming matches other categorical features.
func encodeWeekdays(d *dataset.Diary) ([][]float64, []string, error) {
	weekdays := d.Weekdays()
	cats := make([][]string, len(weekdays))
	for i, wd := range weekdays {
		cats[i] = []string{wd}
	}

	enc := preprocessing.NewOneHotEncoder()
	m, err := enc.FitTransform(cats)
	if err != nil {
		return nil, nil, moodErrors.Wrap(err, "failed to encode weekdays")
	}

	rows, cols := m.Dims()
	encoded := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		encoded[i] = make([]float64, cols)
		for j := 0; j < cols; j++ {
			encoded[i][j] = m.At(i, j)
		}
	}
	return encoded, enc.GetFeatureNamesOut([]string{"weekday"}), nil
}
