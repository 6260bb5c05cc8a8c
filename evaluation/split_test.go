package evaluation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/quantself/moodlab/dataset"
	"github.com/quantself/moodlab/features"
)

// seqData builds X with X[i][j] = 10*i + j and y[i] = i, so row
// provenance survives any split.
func seqData(r, c int) (*mat.Dense, *mat.VecDense) {
	X := mat.NewDense(r, c, nil)
	y := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			X.Set(i, j, float64(10*i+j))
		}
		y.SetVec(i, float64(i))
	}
	return X, y
}

func TestTrainTestSplitSizes(t *testing.T) {
	tests := []struct {
		name      string
		rows      int
		fraction  float64
		wantTrain int
		wantTest  int
		wantErr   bool
	}{
		{name: "thirty percent", rows: 10, fraction: 0.3, wantTrain: 7, wantTest: 3},
		{name: "rounds to nearest row", rows: 10, fraction: 0.25, wantTrain: 7, wantTest: 3},
		{name: "tiny fraction keeps one test row", rows: 10, fraction: 0.05, wantTrain: 9, wantTest: 1},
		{name: "even split", rows: 4, fraction: 0.5, wantTrain: 2, wantTest: 2},
		{name: "fraction eats all train rows", rows: 3, fraction: 0.9, wantErr: true},
		{name: "zero fraction", rows: 10, fraction: 0, wantErr: true},
		{name: "fraction of one", rows: 10, fraction: 1, wantErr: true},
		{name: "negative fraction", rows: 10, fraction: -0.1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			X, y := seqData(tt.rows, 2)
			sp, err := TrainTestSplit(X, y, tt.fraction)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTrain, sp.TrainRows())
			assert.Equal(t, tt.wantTest, sp.TestRows())
		})
	}
}

func TestTrainTestSplitIsChronological(t *testing.T) {
	X, y := seqData(10, 2)
	sp, err := TrainTestSplit(X, y, 0.3)
	require.NoError(t, err)

	// Train is the leading block, test the trailing block.
	assert.Equal(t, 0.0, sp.XTrain.At(0, 0))
	assert.Equal(t, 60.0, sp.XTrain.At(6, 0))
	assert.Equal(t, 70.0, sp.XTest.At(0, 0))
	assert.Equal(t, 90.0, sp.XTest.At(2, 0))
	assert.Equal(t, 6.0, sp.YTrain.AtVec(6))
	assert.Equal(t, 7.0, sp.YTest.AtVec(0))
}

func TestTrainTestSplitCopiesData(t *testing.T) {
	X, y := seqData(6, 2)
	sp, err := TrainTestSplit(X, y, 0.5)
	require.NoError(t, err)

	sp.XTrain.Set(0, 0, -1)
	sp.YTest.SetVec(0, -1)
	assert.Equal(t, 0.0, X.At(0, 0))
	assert.Equal(t, 3.0, y.AtVec(3))
}

func TestTrainTestSplitErrors(t *testing.T) {
	tests := []struct {
		name string
		X    mat.Matrix
		y    mat.Matrix
	}{
		{name: "empty data", X: &mat.Dense{}, y: &mat.VecDense{}},
		{name: "mismatched rows", X: mat.NewDense(5, 2, nil), y: mat.NewVecDense(4, nil)},
		{name: "y not a column", X: mat.NewDense(5, 2, nil), y: mat.NewDense(5, 2, nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TrainTestSplit(tt.X, tt.y, 0.2)
			assert.Error(t, err)
		})
	}
}

func TestSplitFeaturesCarriesDates(t *testing.T) {
	X, y := seqData(10, 3)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	fm := &features.Matrix{
		X:     X,
		Y:     y,
		Names: []string{"a", "b", "c"},
		Dates: make([]time.Time, 10),
	}
	for i := range fm.Dates {
		fm.Dates[i] = base.AddDate(0, 0, i)
	}

	sp, err := SplitFeatures(fm, 0.2)
	require.NoError(t, err)
	require.Len(t, sp.TrainDates, 8)
	require.Len(t, sp.TestDates, 2)
	assert.Equal(t, fm.Dates[7], sp.TrainDates[7])
	assert.Equal(t, fm.Dates[8], sp.TestDates[0])
	assert.True(t, sp.TrainDates[7].Before(sp.TestDates[0]))
}

func TestSplitDiary(t *testing.T) {
	d := dataset.Synthetic(30, 1)

	train, test, err := SplitDiary(d, 0.2)
	require.NoError(t, err)
	assert.Equal(t, 24, train.Len())
	assert.Equal(t, 6, test.Len())
	assert.Equal(t, d.Columns, train.Columns)
	assert.Equal(t, d.Columns, test.Columns)
	assert.True(t, train.Dates[train.Len()-1].Before(test.Dates[0]))
	assert.Equal(t, d.Dates[24], test.Dates[0])
}

func TestSplitDiaryErrors(t *testing.T) {
	_, _, err := SplitDiary(dataset.New(nil), 0.2)
	assert.Error(t, err)

	_, _, err = SplitDiary(dataset.Synthetic(10, 1), 0)
	assert.Error(t, err)

	_, _, err = SplitDiary(dataset.Synthetic(2, 1), 0.9)
	assert.Error(t, err)
}

func TestFolds(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		minTrain int
		horizon  int
		want     []Fold
		wantErr  bool
	}{
		{
			name: "even horizons", n: 10, minTrain: 4, horizon: 2,
			want: []Fold{{4, 6}, {6, 8}, {8, 10}},
		},
		{
			name: "horizon divides remainder unevenly", n: 10, minTrain: 4, horizon: 3,
			want: []Fold{{4, 7}, {7, 10}},
		},
		{
			name: "final fold clipped at n", n: 10, minTrain: 8, horizon: 5,
			want: []Fold{{8, 10}},
		},
		{name: "too few rows", n: 1, minTrain: 1, horizon: 1, wantErr: true},
		{name: "zero minTrain", n: 10, minTrain: 0, horizon: 2, wantErr: true},
		{name: "zero horizon", n: 10, minTrain: 4, horizon: 0, wantErr: true},
		{name: "minTrain swallows everything", n: 10, minTrain: 10, horizon: 2, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Folds(tt.n, tt.minTrain, tt.horizon)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFoldSplit(t *testing.T) {
	X, y := seqData(10, 2)

	sp, err := Fold{TrainEnd: 4, TestEnd: 6}.Split(X, y)
	require.NoError(t, err)
	assert.Equal(t, 4, sp.TrainRows())
	assert.Equal(t, 2, sp.TestRows())
	assert.Equal(t, 40.0, sp.XTest.At(0, 0))
	assert.Equal(t, 5.0, sp.YTest.AtVec(1))
}

func TestFoldSplitErrors(t *testing.T) {
	X, y := seqData(10, 2)

	tests := []struct {
		name string
		fold Fold
	}{
		{name: "zero train end", fold: Fold{TrainEnd: 0, TestEnd: 2}},
		{name: "empty test window", fold: Fold{TrainEnd: 4, TestEnd: 4}},
		{name: "test end past data", fold: Fold{TrainEnd: 4, TestEnd: 11}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.fold.Split(X, y)
			assert.Error(t, err)
		})
	}

	_, err := Fold{TrainEnd: 1, TestEnd: 2}.Split(&mat.Dense{}, &mat.VecDense{})
	assert.Error(t, err)
}
