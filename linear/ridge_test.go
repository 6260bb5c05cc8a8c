package linear

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func ridgeTrainingData() (*mat.Dense, *mat.VecDense) {
	X := mat.NewDense(8, 2, []float64{
		1.0, 0.5,
		2.0, 1.5,
		3.0, 2.5,
		4.0, 4.5,
		5.0, 4.0,
		6.0, 6.5,
		7.0, 6.0,
		8.0, 8.5,
	})
	y := mat.NewVecDense(8, []float64{
		3.1, 5.0, 7.2, 9.4, 10.8, 13.5, 14.9, 17.3,
	})
	return X, y
}

func TestRidge_ZeroAlphaMatchesOLS(t *testing.T) {
	X, y := ridgeTrainingData()

	rg := NewRidge(0)
	if err := rg.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit ridge: %v", err)
	}

	lr := NewLinearRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit OLS: %v", err)
	}

	rw, lw := rg.GetWeights(), lr.GetWeights()
	for i := range rw {
		if math.Abs(rw[i]-lw[i]) > 1e-8 {
			t.Errorf("Weight[%d]: ridge %v vs OLS %v", i, rw[i], lw[i])
		}
	}
	if math.Abs(rg.GetIntercept()-lr.GetIntercept()) > 1e-8 {
		t.Errorf("Intercept: ridge %v vs OLS %v", rg.GetIntercept(), lr.GetIntercept())
	}
}

func TestRidge_ShrinksWeights(t *testing.T) {
	X, y := ridgeTrainingData()

	norm := func(alpha float64) float64 {
		rg := NewRidge(alpha)
		if err := rg.Fit(X, y); err != nil {
			t.Fatalf("Failed to fit with alpha=%v: %v", alpha, err)
		}
		sum := 0.0
		for _, w := range rg.GetWeights() {
			sum += w * w
		}
		return math.Sqrt(sum)
	}

	small, large := norm(0.1), norm(100.0)
	if large >= small {
		t.Errorf("Weight norm should shrink with alpha: alpha=0.1 gives %v, alpha=100 gives %v",
			small, large)
	}
}

func TestRidge_HandlesCollinearFeatures(t *testing.T) {
	// A duplicated feature column makes X^T*X singular for plain least
	// squares; the ridge penalty keeps it invertible.
	X := mat.NewDense(6, 2, []float64{
		1.0, 1.0,
		2.0, 2.0,
		3.0, 3.0,
		4.0, 4.0,
		5.0, 5.0,
		6.0, 6.0,
	})
	y := mat.NewVecDense(6, []float64{2, 4, 6, 8, 10, 12})

	rg := NewRidge(1.0)
	if err := rg.Fit(X, y); err != nil {
		t.Fatalf("Ridge should handle collinear features: %v", err)
	}

	// Both columns carry the same signal, so the penalty splits the
	// weight between them.
	w := rg.GetWeights()
	if math.Abs(w[0]-w[1]) > 1e-8 {
		t.Errorf("Symmetric columns should get equal weights, got %v and %v", w[0], w[1])
	}

	pred, err := rg.Predict(X)
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}
	// Shrinkage bias should stay small on this clean signal.
	for i := 0; i < 6; i++ {
		if math.Abs(pred.At(i, 0)-y.AtVec(i)) > 0.5 {
			t.Errorf("Prediction[%d] = %v, want near %v", i, pred.At(i, 0), y.AtVec(i))
		}
	}
}

func TestRidge_InterceptNotPenalized(t *testing.T) {
	// All targets carry a large constant offset. A penalized intercept
	// would shrink toward zero; an unpenalized one recovers the offset.
	X := mat.NewDense(6, 1, []float64{-2.5, -1.5, -0.5, 0.5, 1.5, 2.5})
	y := mat.NewVecDense(6, []float64{997.5, 998.5, 999.5, 1000.5, 1001.5, 1002.5})

	rg := NewRidge(10.0)
	if err := rg.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	if math.Abs(rg.GetIntercept()-1000.0) > 1e-6 {
		t.Errorf("Intercept = %v, want 1000 (unpenalized)", rg.GetIntercept())
	}
}

func TestRidge_Errors(t *testing.T) {
	t.Run("negative alpha", func(t *testing.T) {
		rg := NewRidge(-1.0)
		X := mat.NewDense(2, 1, []float64{1, 2})
		y := mat.NewVecDense(2, []float64{1, 2})
		if err := rg.Fit(X, y); err == nil {
			t.Error("Expected error for negative alpha")
		}
	})

	t.Run("predict before fit", func(t *testing.T) {
		rg := NewRidge(1.0)
		if _, err := rg.Predict(mat.NewDense(2, 1, []float64{1, 2})); err == nil {
			t.Error("Expected error when predicting with unfitted model")
		}
	})

	t.Run("mismatched rows", func(t *testing.T) {
		rg := NewRidge(1.0)
		X := mat.NewDense(3, 1, []float64{1, 2, 3})
		y := mat.NewVecDense(2, []float64{1, 2})
		if err := rg.Fit(X, y); err == nil {
			t.Error("Expected dimension error")
		}
	})

	t.Run("feature count change at predict", func(t *testing.T) {
		rg := NewRidge(1.0)
		X := mat.NewDense(4, 2, []float64{1, 2, 3, 4, 5, 6, 7, 8})
		y := mat.NewVecDense(4, []float64{1, 2, 3, 4})
		if err := rg.Fit(X, y); err != nil {
			t.Fatalf("Failed to fit: %v", err)
		}
		if _, err := rg.Predict(mat.NewDense(2, 3, nil)); err == nil {
			t.Error("Expected dimension error")
		}
	})
}
