package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantself/moodlab/dataset"
)

func testDiary(t *testing.T, n int, driver, target []float64) *dataset.Diary {
	t.Helper()
	start := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC) // a Monday
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}
	d := dataset.New(dates)
	require.NoError(t, d.AddColumn("sleep_hours", driver))
	require.NoError(t, d.AddColumn("happiness", target))
	return d
}

func seq(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i + 1)
	}
	return out
}

func TestBuildLagsAndWindows(t *testing.T) {
	d := testDiary(t, 10, seq(10), seq(10))

	b := &Builder{Lags: []int{1, 2}, Windows: []int{3}, IncludeToday: true}
	m, err := b.Build(d, "happiness")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"sleep_hours", "sleep_hours_lag1", "sleep_hours_lag2", "sleep_hours_roll3",
	}, m.Names)

	// Warm-up is max(lag, window) = 3, so 7 rows survive.
	r, c := m.X.Dims()
	assert.Equal(t, 7, r)
	assert.Equal(t, 4, c)
	assert.Equal(t, d.Dates[3], m.Dates[0])

	// First surviving row is day 4 (value 4): lag1=3, lag2=2,
	// roll3=mean(1,2,3)=2.
	assert.Equal(t, []float64{4, 3, 2, 2}, m.X.RawRowView(0))
	assert.Equal(t, 4.0, m.Y.AtVec(0))

	// Last row is day 10: lag1=9, lag2=8, roll3=mean(7,8,9)=8.
	assert.Equal(t, []float64{10, 9, 8, 8}, m.X.RawRowView(6))
	assert.Equal(t, 10.0, m.Y.AtVec(6))
}

func TestBuildRollingStd(t *testing.T) {
	d := testDiary(t, 6, []float64{1, 3, 5, 7, 9, 11}, seq(6))

	b := &Builder{Windows: []int{3}, RollingStd: true}
	m, err := b.Build(d, "happiness")
	require.NoError(t, err)

	assert.Equal(t, []string{"sleep_hours_roll3", "sleep_hours_rollstd3"}, m.Names)
	// Row for day 4: window {1,3,5} has mean 3, sample std 2.
	assert.InDelta(t, 3.0, m.X.At(0, 0), 1e-12)
	assert.InDelta(t, 2.0, m.X.At(0, 1), 1e-12)
}

func TestBuildDropsIncompleteRows(t *testing.T) {
	driver := seq(10)
	driver[5] = math.NaN()
	target := seq(10)
	target[4] = math.NaN()
	d := testDiary(t, 10, driver, target)

	b := &Builder{Lags: []int{1, 2}, Windows: []int{3}, IncludeToday: true}
	m, err := b.Build(d, "happiness")
	require.NoError(t, err)

	// Rows 5-8 touch the NaN driver cell (today, lag1, lag2 or the
	// window) and row 4 has a NaN target, leaving days 4 and 10.
	r, _ := m.X.Dims()
	require.Equal(t, 2, r)
	assert.Equal(t, d.Dates[3], m.Dates[0])
	assert.Equal(t, d.Dates[9], m.Dates[1])
	assert.Equal(t, 10.0, m.Y.AtVec(1))
}

func TestBuildWeekdayBlock(t *testing.T) {
	d := testDiary(t, 14, seq(14), seq(14))

	b := &Builder{Weekday: true}
	m, err := b.Build(d, "happiness")
	require.NoError(t, err)

	// Categories come back sorted, as the shared encoder orders them.
	assert.Equal(t, []string{
		"weekday_Fri", "weekday_Mon", "weekday_Sat", "weekday_Sun",
		"weekday_Thu", "weekday_Tue", "weekday_Wed",
	}, m.Names)

	// The diary starts on a Monday: row 0 is hot only at weekday_Mon.
	assert.Equal(t, []float64{0, 1, 0, 0, 0, 0, 0}, m.X.RawRowView(0))
	// Row 4 is the first Friday.
	assert.Equal(t, []float64{1, 0, 0, 0, 0, 0, 0}, m.X.RawRowView(4))

	for i := 0; i < 14; i++ {
		sum := 0.0
		for j := 0; j < 7; j++ {
			sum += m.X.At(i, j)
		}
		assert.Equal(t, 1.0, sum, "row %d must one-hot exactly one weekday", i)
	}
}

func TestBuildNoLookahead(t *testing.T) {
	d := testDiary(t, 12, seq(12), seq(12))

	b := NewBuilder()
	b.Weekday = false
	full, err := b.Build(d, "happiness")
	require.NoError(t, err)

	// Rebuilding from a diary truncated right after each row must give
	// identical feature values: nothing in a row depends on later days.
	for i, date := range full.Dates {
		var cut int
		for j := range d.Dates {
			if d.Dates[j].Equal(date) {
				cut = j + 1
				break
			}
		}
		prefix, err := d.Slice(0, cut)
		require.NoError(t, err)

		got, err := b.Build(prefix, "happiness")
		require.NoError(t, err)

		rows, _ := got.X.Dims()
		assert.Equal(t, full.X.RawRowView(i), got.X.RawRowView(rows-1),
			"features for %s changed when the future was removed", date.Format("2006-01-02"))
	}
}

func TestBuildSelectedDrivers(t *testing.T) {
	d := testDiary(t, 8, seq(8), seq(8))
	require.NoError(t, d.AddColumn("screen_min", seq(8)))

	b := &Builder{Drivers: []string{"screen_min"}, Lags: []int{1}}
	m, err := b.Build(d, "happiness")
	require.NoError(t, err)
	assert.Equal(t, []string{"screen_min_lag1"}, m.Names)
}

func TestBuildErrors(t *testing.T) {
	d := testDiary(t, 5, seq(5), seq(5))

	tests := []struct {
		name   string
		b      *Builder
		target string
		want   string
	}{
		{"unknown target", &Builder{Lags: []int{1}}, "nope", "unknown target"},
		{"unknown driver", &Builder{Drivers: []string{"nope"}, Lags: []int{1}}, "happiness", "unknown column"},
		{"lag too small", &Builder{Lags: []int{0}}, "happiness", "lag must be >= 1"},
		{"lag exceeds length", &Builder{Lags: []int{5}}, "happiness", "exceeds diary length"},
		{"window exceeds length", &Builder{Windows: []int{7}}, "happiness", "exceeds diary length"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.b.Build(d, tt.target)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("no usable rows", func(t *testing.T) {
		nan := []float64{math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN()}
		bad := testDiary(t, 5, seq(5), nan)
		_, err := (&Builder{Lags: []int{1}}).Build(bad, "happiness")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no usable rows")
	})

	t.Run("empty diary", func(t *testing.T) {
		_, err := NewBuilder().Build(dataset.New(nil), "happiness")
		assert.Error(t, err)
	})
}

func TestFeatureCount(t *testing.T) {
	b := NewBuilder() // today + 3 lags + 2 windows per driver, 7 weekdays
	assert.Equal(t, 6*10+7, b.FeatureCount(10))

	b2 := &Builder{Lags: []int{1}, Windows: []int{3, 7}, RollingStd: true}
	assert.Equal(t, 5*2, b2.FeatureCount(2))
}

func BenchmarkBuilderBuild(b *testing.B) {
	// A year of diary rows through the default recipe
	d := dataset.Synthetic(365, 42)
	bld := NewBuilder()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = bld.Build(d, "happiness")
	}
}
