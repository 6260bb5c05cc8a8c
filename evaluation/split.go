package evaluation

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/quantself/moodlab/dataset"
	"github.com/quantself/moodlab/features"
	moodErrors "github.com/quantself/moodlab/pkg/errors"
)

// Split is a chronological holdout. Rows keep their original order and
// every test row strictly follows every train row in time; there is no
// shuffled variant because the diary is a time series.
type Split struct {
	XTrain *mat.Dense
	YTrain *mat.VecDense
	XTest  *mat.Dense
	YTest  *mat.VecDense

	// Row dates, populated by SplitFeatures. Nil for raw matrix splits.
	TrainDates []time.Time
	TestDates  []time.Time
}

// TrainRows returns the number of training rows.
func (s *Split) TrainRows() int {
	r, _ := s.XTrain.Dims()
	return r
}

// TestRows returns the number of held-out rows.
func (s *Split) TestRows() int {
	r, _ := s.XTest.Dims()
	return r
}

// holdoutSize computes the train length for an n-row chronological
// split, keeping at least one row on each side.
func holdoutSize(op string, n int, testFraction float64) (int, error) {
	if testFraction <= 0 || testFraction >= 1 {
		return 0, moodErrors.NewValueError(op, "test fraction must be in (0, 1)")
	}
	nTest := int(float64(n)*testFraction + 0.5)
	if nTest < 1 {
		nTest = 1
	}
	nTrain := n - nTest
	if nTrain < 1 {
		return 0, moodErrors.NewValueError(op,
			fmt.Sprintf("cannot split %d rows into non-empty train and test sets", n))
	}
	return nTrain, nil
}

// TrainTestSplit cuts X and y into a leading train block and a trailing
// test block. testFraction is the share of rows held out, rounded to
// the nearest row but never below one.
func TrainTestSplit(X, y mat.Matrix, testFraction float64) (*Split, error) {
	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return nil, moodErrors.NewModelError("TrainTestSplit", "empty data", moodErrors.ErrEmptyData)
	}
	if ry != r {
		return nil, moodErrors.NewDimensionError("TrainTestSplit", r, ry, 0)
	}
	if cy != 1 {
		return nil, moodErrors.NewValueError("TrainTestSplit", "y must be a column vector")
	}

	nTrain, err := holdoutSize("TrainTestSplit", r, testFraction)
	if err != nil {
		return nil, err
	}

	sp := &Split{}
	sp.XTrain, sp.YTrain = copyRange(X, y, 0, nTrain)
	sp.XTest, sp.YTest = copyRange(X, y, nTrain, r)
	return sp, nil
}

// SplitFeatures splits an engineered design matrix chronologically and
// carries the per-row dates into both halves.
func SplitFeatures(fm *features.Matrix, testFraction float64) (*Split, error) {
	sp, err := TrainTestSplit(fm.X, fm.Y, testFraction)
	if err != nil {
		return nil, err
	}

	nTrain := sp.TrainRows()
	if len(fm.Dates) == nTrain+sp.TestRows() {
		sp.TrainDates = append([]time.Time(nil), fm.Dates[:nTrain]...)
		sp.TestDates = append([]time.Time(nil), fm.Dates[nTrain:]...)
	}
	return sp, nil
}

// SplitDiary cuts a diary into train and test diaries at the same
// chronological boundary. Fitting the wellbeing index on the train
// diary alone keeps holdout rows out of every training statistic.
func SplitDiary(d *dataset.Diary, testFraction float64) (train, test *dataset.Diary, err error) {
	n := d.Len()
	if n == 0 {
		return nil, nil, moodErrors.NewModelError("SplitDiary", "empty diary", moodErrors.ErrEmptyData)
	}

	nTrain, err := holdoutSize("SplitDiary", n, testFraction)
	if err != nil {
		return nil, nil, err
	}

	train, err = d.Slice(0, nTrain)
	if err != nil {
		return nil, nil, err
	}
	test, err = d.Slice(nTrain, n)
	if err != nil {
		return nil, nil, err
	}
	return train, test, nil
}

func copyRange(X, y mat.Matrix, start, end int) (*mat.Dense, *mat.VecDense) {
	_, c := X.Dims()
	Xd := mat.NewDense(end-start, c, nil)
	yv := mat.NewVecDense(end-start, nil)
	for i := start; i < end; i++ {
		for j := 0; j < c; j++ {
			Xd.Set(i-start, j, X.At(i, j))
		}
		yv.SetVec(i-start, y.At(i, 0))
	}
	return Xd, yv
}

// Fold is one rolling-origin evaluation window: train on rows
// [0, TrainEnd), test on [TrainEnd, TestEnd).
type Fold struct {
	TrainEnd int `json:"train_end"`
	TestEnd  int `json:"test_end"`
}

// Folds enumerates walk-forward folds over n rows. The first fold
// trains on minTrain rows; each subsequent fold extends the train
// window by horizon. Every fold tests on the next horizon rows,
// clipped at n.
func Folds(n, minTrain, horizon int) ([]Fold, error) {
	if n < 2 {
		return nil, moodErrors.NewValueError("Folds", "need at least 2 rows")
	}
	if minTrain < 1 {
		return nil, moodErrors.NewValueError("Folds", "minTrain must be >= 1")
	}
	if horizon < 1 {
		return nil, moodErrors.NewValueError("Folds", "horizon must be >= 1")
	}
	if minTrain >= n {
		return nil, moodErrors.NewValueError("Folds",
			fmt.Sprintf("minTrain %d leaves no test rows out of %d", minTrain, n))
	}

	var folds []Fold
	for trainEnd := minTrain; trainEnd < n; trainEnd += horizon {
		folds = append(folds, Fold{
			TrainEnd: trainEnd,
			TestEnd:  min(trainEnd+horizon, n),
		})
	}
	return folds, nil
}

// Split materializes the fold against a matrix pair.
func (f Fold) Split(X, y mat.Matrix) (*Split, error) {
	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return nil, moodErrors.NewModelError("Fold.Split", "empty data", moodErrors.ErrEmptyData)
	}
	if ry != r {
		return nil, moodErrors.NewDimensionError("Fold.Split", r, ry, 0)
	}
	if cy != 1 {
		return nil, moodErrors.NewValueError("Fold.Split", "y must be a column vector")
	}
	if f.TrainEnd < 1 || f.TestEnd <= f.TrainEnd || f.TestEnd > r {
		return nil, moodErrors.NewValueError("Fold.Split",
			fmt.Sprintf("fold [0:%d)[%d:%d) is out of range for %d rows", f.TrainEnd, f.TrainEnd, f.TestEnd, r))
	}

	sp := &Split{}
	sp.XTrain, sp.YTrain = copyRange(X, y, 0, f.TrainEnd)
	sp.XTest, sp.YTest = copyRange(X, y, f.TrainEnd, f.TestEnd)
	return sp, nil
}
