package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthetic(t *testing.T) {
	d := Synthetic(90, 42)

	assert.Equal(t, 90, d.Len())
	assert.Equal(t, MoodColumns, d.ResponseColumns())
	assert.Equal(t, DriverNames, d.DriverColumns())
	assert.NoError(t, d.Validate())

	for _, col := range MoodColumns {
		values, err := d.Column(col)
		require.NoError(t, err)
		for i, v := range values {
			assert.GreaterOrEqual(t, v, 1.0, "%s row %d", col, i)
			assert.LessOrEqual(t, v, 10.0, "%s row %d", col, i)
		}
	}
}

func TestSyntheticDeterminism(t *testing.T) {
	a := Synthetic(60, 7)
	b := Synthetic(60, 7)
	c := Synthetic(60, 8)

	assert.Equal(t, a.Dates, b.Dates)
	for _, col := range a.Columns {
		av, err := a.Column(col)
		require.NoError(t, err)
		bv, err := b.Column(col)
		require.NoError(t, err)
		assert.Equal(t, av, bv, "column %s", col)
	}

	// A different seed must change at least one column.
	different := false
	for _, col := range a.Columns {
		av, _ := a.Column(col)
		cv, _ := c.Column(col)
		if !assert.ObjectsAreEqual(av, cv) {
			different = true
			break
		}
	}
	assert.True(t, different, "seed must influence the generated diary")
}

func TestSyntheticWeeklyRhythm(t *testing.T) {
	d := Synthetic(140, 3)

	work, err := d.Column("work_hours")
	require.NoError(t, err)

	for i, wd := range d.Weekdays() {
		if wd == "Sat" || wd == "Sun" {
			assert.Zero(t, work[i], "no work hours expected on %s", d.Dates[i].Format("2006-01-02"))
		} else {
			assert.Positive(t, work[i])
		}
	}
}
