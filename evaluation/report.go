package evaluation

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	moodErrors "github.com/quantself/moodlab/pkg/errors"
)

// Result is one model's row in a comparison report. A row with a
// non-empty Err carries no valid metrics.
type Result struct {
	Name       string  `json:"name"`
	TrainMSE   float64 `json:"train_mse"`
	TestMSE    float64 `json:"test_mse"`
	TrainRMSE  float64 `json:"train_rmse"`
	TestRMSE   float64 `json:"test_rmse"`
	TrainMAE   float64 `json:"train_mae"`
	TestMAE    float64 `json:"test_mae"`
	TrainR2    float64 `json:"train_r2"`
	TestR2     float64 `json:"test_r2"`
	Equation   string  `json:"equation,omitempty"`
	Complexity int     `json:"complexity,omitempty"`
	Err        string  `json:"error,omitempty"`
	DurationMs int64   `json:"duration_ms"`
}

// ParetoEntry is one accuracy/complexity trade-off point from a
// symbolic model's frontier, rendered with the report's feature names.
type ParetoEntry struct {
	Complexity int     `json:"complexity"`
	MSE        float64 `json:"mse"`
	Equation   string  `json:"equation"`
}

// Report holds the outcome of one comparison run.
type Report struct {
	RunID     string        `json:"run_id"`
	CreatedAt time.Time     `json:"created_at"`
	TrainRows int           `json:"train_rows"`
	TestRows  int           `json:"test_rows"`
	Features  int           `json:"features"`
	Results   []Result      `json:"results"`
	Pareto    []ParetoEntry `json:"pareto,omitempty"`
}

func newReport(sp *Split, features, nModels int) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		TrainRows: sp.TrainRows(),
		TestRows:  sp.TestRows(),
		Features:  features,
		Results:   make([]Result, nModels),
	}
}

// Best returns the successful row with the lowest held-out MSE.
func (r *Report) Best() (*Result, error) {
	var best *Result
	for i := range r.Results {
		res := &r.Results[i]
		if res.Err != "" || math.IsNaN(res.TestMSE) {
			continue
		}
		if best == nil || res.TestMSE < best.TestMSE {
			best = res
		}
	}
	if best == nil {
		return nil, moodErrors.NewModelError("Report.Best", "no model finished successfully", nil)
	}
	return best, nil
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return moodErrors.Wrap(err, "failed to encode report")
	}
	return nil
}

// String renders the report as an aligned text table followed by the
// discovered equations and, when present, the Pareto frontier.
func (r *Report) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "run %s  train=%d test=%d features=%d\n\n",
		r.RunID, r.TrainRows, r.TestRows, r.Features)

	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tTRAIN MSE\tTEST MSE\tTRAIN RMSE\tTEST RMSE\tTRAIN MAE\tTEST MAE\tTRAIN R2\tTEST R2")
	for _, res := range r.Results {
		if res.Err != "" {
			fmt.Fprintf(w, "%s\t-\t-\t-\t-\t-\t-\t-\t-\n", res.Name)
			continue
		}
		fmt.Fprintf(w, "%s\t%.6g\t%.6g\t%.6g\t%.6g\t%.6g\t%.6g\t%.4f\t%.4f\n",
			res.Name,
			res.TrainMSE, res.TestMSE,
			res.TrainRMSE, res.TestRMSE,
			res.TrainMAE, res.TestMAE,
			res.TrainR2, res.TestR2)
	}
	w.Flush()

	if eqs := r.equationRows(); len(eqs) > 0 {
		sb.WriteString("\nequations:\n")
		for _, res := range eqs {
			if res.Complexity > 0 {
				fmt.Fprintf(&sb, "  %s (complexity %d): %s\n", res.Name, res.Complexity, res.Equation)
			} else {
				fmt.Fprintf(&sb, "  %s: %s\n", res.Name, res.Equation)
			}
		}
	}

	if failed := r.failedRows(); len(failed) > 0 {
		sb.WriteString("\nfailed:\n")
		for _, res := range failed {
			fmt.Fprintf(&sb, "  %s: %s\n", res.Name, res.Err)
		}
	}

	if len(r.Pareto) > 0 {
		sb.WriteString("\npareto frontier:\n")
		pw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
		for _, pt := range r.Pareto {
			fmt.Fprintf(pw, "  %d\t%.6g\t%s\n", pt.Complexity, pt.MSE, pt.Equation)
		}
		pw.Flush()
	}

	return sb.String()
}

func (r *Report) equationRows() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Err == "" && res.Equation != "" {
			out = append(out, res)
		}
	}
	return out
}

func (r *Report) failedRows() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Err != "" {
			out = append(out, res)
		}
	}
	return out
}
