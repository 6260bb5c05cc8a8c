package dataset

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func days(n int) []time.Time {
	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

func TestAddColumn(t *testing.T) {
	d := New(days(3))

	require.NoError(t, d.AddColumn("sleep_hours", []float64{7, 8, 6}))
	assert.True(t, d.Has("sleep_hours"))
	assert.Equal(t, []string{"sleep_hours"}, d.Columns)

	t.Run("duplicate name", func(t *testing.T) {
		err := d.AddColumn("sleep_hours", []float64{1, 2, 3})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")
	})

	t.Run("reserved date name", func(t *testing.T) {
		err := d.AddColumn(DateColumn, []float64{1, 2, 3})
		assert.Error(t, err)
	})

	t.Run("length mismatch", func(t *testing.T) {
		err := d.AddColumn("screen_min", []float64{100, 200})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "dimension mismatch")
	})
}

func TestColumnReturnsCopy(t *testing.T) {
	d := New(days(2))
	require.NoError(t, d.AddColumn("steps", []float64{8000, 9000}))

	v, err := d.Column("steps")
	require.NoError(t, err)
	v[0] = -1

	again, err := d.Column("steps")
	require.NoError(t, err)
	assert.Equal(t, 8000.0, again[0])

	_, err = d.Column("missing")
	assert.Error(t, err)
}

func TestMatrix(t *testing.T) {
	d := New(days(3))
	require.NoError(t, d.AddColumn("a", []float64{1, 2, 3}))
	require.NoError(t, d.AddColumn("b", []float64{4, 5, 6}))

	m, err := d.Matrix("b", "a")
	require.NoError(t, err)

	r, c := m.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 4.0, m.At(0, 0))
	assert.Equal(t, 1.0, m.At(0, 1))
	assert.Equal(t, 6.0, m.At(2, 0))

	_, err = d.Matrix("a", "nope")
	assert.Error(t, err)
	_, err = d.Matrix()
	assert.Error(t, err)
}

func TestSlice(t *testing.T) {
	d := New(days(5))
	require.NoError(t, d.AddColumn("a", []float64{1, 2, 3, 4, 5}))

	s, err := d.Slice(1, 4)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, d.Dates[1], s.Dates[0])

	v, err := s.Column("a")
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3, 4}, v)

	// Slices are independent copies.
	v[0] = -1
	orig, err := d.Column("a")
	require.NoError(t, err)
	assert.Equal(t, 2.0, orig[1])

	_, err = d.Slice(3, 2)
	assert.Error(t, err)
	_, err = d.Slice(-1, 2)
	assert.Error(t, err)
	_, err = d.Slice(0, 6)
	assert.Error(t, err)
}

func TestDropIncomplete(t *testing.T) {
	d := New(days(4))
	require.NoError(t, d.AddColumn("a", []float64{1, math.NaN(), 3, 4}))
	require.NoError(t, d.AddColumn("b", []float64{1, 2, math.NaN(), 4}))

	t.Run("all columns", func(t *testing.T) {
		out, err := d.DropIncomplete()
		require.NoError(t, err)
		assert.Equal(t, 2, out.Len())
		assert.Equal(t, d.Dates[0], out.Dates[0])
		assert.Equal(t, d.Dates[3], out.Dates[1])
	})

	t.Run("named column", func(t *testing.T) {
		out, err := d.DropIncomplete("a")
		require.NoError(t, err)
		assert.Equal(t, 3, out.Len())
	})

	t.Run("unknown column", func(t *testing.T) {
		_, err := d.DropIncomplete("nope")
		assert.Error(t, err)
	})
}

func TestResponseAndDriverColumns(t *testing.T) {
	d := New(days(2))
	require.NoError(t, d.AddColumn("sleep_hours", []float64{7, 8}))
	require.NoError(t, d.AddColumn("energy", []float64{5, 6}))
	require.NoError(t, d.AddColumn("happiness", []float64{6, 7}))
	require.NoError(t, d.AddColumn("screen_min", []float64{200, 150}))
	require.NoError(t, d.AddColumn(WellbeingColumn, []float64{0.1, 0.5}))

	// Responses come back in canonical order, not insertion order.
	assert.Equal(t, []string{"happiness", "energy"}, d.ResponseColumns())
	// Drivers keep insertion order; mood items and the composite are excluded.
	assert.Equal(t, []string{"sleep_hours", "screen_min"}, d.DriverColumns())
}

func TestWeekdays(t *testing.T) {
	// 2024-03-01 is a Friday.
	d := New(days(3))
	assert.Equal(t, []string{"Fri", "Sat", "Sun"}, d.Weekdays())
}

func TestValidate(t *testing.T) {
	t.Run("valid diary", func(t *testing.T) {
		d := New(days(3))
		require.NoError(t, d.AddColumn("happiness", []float64{6, math.NaN(), 8}))
		assert.NoError(t, d.Validate())
	})

	t.Run("empty diary", func(t *testing.T) {
		d := New(nil)
		assert.Error(t, d.Validate())
	})

	t.Run("duplicate date", func(t *testing.T) {
		dates := days(3)
		dates[2] = dates[1]
		d := New(dates)
		require.NoError(t, d.AddColumn("happiness", []float64{6, 7, 8}))
		err := d.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "strictly increasing")
	})

	t.Run("rating out of range", func(t *testing.T) {
		d := New(days(2))
		require.NoError(t, d.AddColumn("anxiety", []float64{4, 11}))
		err := d.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "out of range")
	})

	t.Run("drivers are not range checked", func(t *testing.T) {
		d := New(days(2))
		require.NoError(t, d.AddColumn("steps", []float64{0, 26000}))
		assert.NoError(t, d.Validate())
	})
}

func TestDescribe(t *testing.T) {
	d := New(days(4))
	require.NoError(t, d.AddColumn("a", []float64{1, 2, 3, math.NaN()}))

	summaries := d.Describe()
	require.Len(t, summaries, 1)

	s := summaries[0]
	assert.Equal(t, "a", s.Name)
	assert.InDelta(t, 2.0, s.Mean, 1e-12)
	assert.InDelta(t, 1.0, s.StdDev, 1e-12)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 3.0, s.Max)
	assert.Equal(t, 1, s.Missing)
}
