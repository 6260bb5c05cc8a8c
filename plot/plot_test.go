package plot

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/quantself/moodlab/evaluation"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

// requirePNG asserts that path holds a non-trivial PNG file.
func requirePNG(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, pngMagic), "expected a PNG header")
	assert.Greater(t, len(data), 1000)
}

func testDates(n int) []time.Time {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = base.AddDate(0, 0, i)
	}
	return dates
}

func TestTimelineWritesPNG(t *testing.T) {
	n := 30
	dates := testDates(n)
	wellbeing := make([]float64, n)
	sleep := make([]float64, n)
	for i := range wellbeing {
		wellbeing[i] = math.Sin(float64(i) / 4)
		sleep[i] = 7 + math.Cos(float64(i)/3)
	}
	// Missing diary days appear as NaN and must not break rendering.
	wellbeing[5] = math.NaN()
	wellbeing[6] = math.NaN()

	path := filepath.Join(t.TempDir(), "timeline.png")
	got, err := Timeline(dates, []Series{
		{Name: "wellbeing", Values: wellbeing},
		{Name: "sleep_hours", Values: sleep},
	}, path)
	require.NoError(t, err)
	assert.Equal(t, path, got)
	requirePNG(t, path)
}

func TestTimelineErrors(t *testing.T) {
	dates := testDates(5)
	values := []float64{1, 2, 3, 4, 5}
	path := filepath.Join(t.TempDir(), "out.png")

	_, err := Timeline(nil, []Series{{Name: "a", Values: nil}}, path)
	assert.Error(t, err)

	_, err = Timeline(dates, nil, path)
	assert.Error(t, err)

	_, err = Timeline(dates, []Series{{Name: "a", Values: values[:3]}}, path)
	assert.Error(t, err)

	allNaN := []float64{math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN()}
	_, err = Timeline(dates, []Series{{Name: "a", Values: allNaN}}, path)
	assert.Error(t, err)
}

func TestPredVsActualWritesPNG(t *testing.T) {
	n := 25
	yTrue := mat.NewVecDense(n, nil)
	yPred := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		v := float64(i) * 0.3
		yTrue.SetVec(i, v)
		yPred.SetVec(i, v+0.1*math.Sin(float64(i)))
	}

	path := filepath.Join(t.TempDir(), "pred.png")
	got, err := PredVsActual(yTrue, yPred, path)
	require.NoError(t, err)
	assert.Equal(t, path, got)
	requirePNG(t, path)
}

func TestPredVsActualErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")

	_, err := PredVsActual(nil, nil, path)
	assert.Error(t, err)

	_, err = PredVsActual(&mat.VecDense{}, &mat.VecDense{}, path)
	assert.Error(t, err)

	_, err = PredVsActual(mat.NewVecDense(3, nil), mat.NewVecDense(4, nil), path)
	assert.Error(t, err)

	nan := mat.NewVecDense(2, []float64{math.NaN(), math.NaN()})
	_, err = PredVsActual(nan, mat.NewVecDense(2, nil), path)
	assert.Error(t, err)
}

func TestParetoWritesPNG(t *testing.T) {
	front := []evaluation.ParetoEntry{
		{Complexity: 1, MSE: 0.9, Equation: "x0"},
		{Complexity: 3, MSE: 0.3, Equation: "(x0 * 0.4)"},
		{Complexity: 7, MSE: 0.1, Equation: "((x0 * 0.4) + sin(x1))"},
	}

	path := filepath.Join(t.TempDir(), "pareto.png")
	got, err := Pareto(front, path)
	require.NoError(t, err)
	assert.Equal(t, path, got)
	requirePNG(t, path)
}

func TestParetoEmptyFrontier(t *testing.T) {
	_, err := Pareto(nil, filepath.Join(t.TempDir(), "out.png"))
	assert.Error(t, err)
}

func TestSaveFailsOnMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.png")

	_, err := Pareto([]evaluation.ParetoEntry{{Complexity: 1, MSE: 0.5}}, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save plot")
}
