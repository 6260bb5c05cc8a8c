// Package plot renders diary analyses as PNG charts: wellbeing
// timelines, predicted-versus-actual scatters and Pareto frontiers.
// Charts are static files; there is no interactive surface.
package plot

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/quantself/moodlab/evaluation"
	moodErrors "github.com/quantself/moodlab/pkg/errors"
)

const (
	defaultWidth  = 6 * vg.Inch
	defaultHeight = 4 * vg.Inch
)

// Series is one named line on a timeline chart.
type Series struct {
	Name   string
	Values []float64
}

// Timeline draws the given series against their dates and saves the
// chart as a PNG. NaN cells (missing diary days) are skipped, which
// leaves visible gaps in the line. Returns the saved path.
func Timeline(dates []time.Time, series []Series, path string) (string, error) {
	if len(dates) == 0 {
		return "", moodErrors.NewModelError("Timeline", "empty data", moodErrors.ErrEmptyData)
	}
	if len(series) == 0 {
		return "", moodErrors.NewValueError("Timeline", "no series to draw")
	}

	p := plot.New()
	p.Title.Text = "Daily timeline"
	p.X.Label.Text = "date"
	p.Y.Label.Text = "value"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}

	for i, s := range series {
		if len(s.Values) != len(dates) {
			return "", moodErrors.NewDimensionError("Timeline", len(dates), len(s.Values), 0)
		}

		pts := make(plotter.XYs, 0, len(dates))
		for j, v := range s.Values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			pts = append(pts, plotter.XY{X: float64(dates[j].Unix()), Y: v})
		}
		if len(pts) == 0 {
			return "", moodErrors.NewValueError("Timeline",
				"series "+s.Name+" has no finite values")
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return "", moodErrors.Wrap(err, "failed to build line")
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(s.Name, line)
	}

	if err := p.Save(defaultWidth, defaultHeight, path); err != nil {
		return "", moodErrors.Wrap(err, "failed to save plot")
	}
	return path, nil
}

// PredVsActual draws predictions against observed values with an
// identity reference line and saves the chart as a PNG. Returns the
// saved path.
func PredVsActual(yTrue, yPred *mat.VecDense, path string) (string, error) {
	if yTrue == nil || yPred == nil || yTrue.Len() == 0 {
		return "", moodErrors.NewModelError("PredVsActual", "empty data", moodErrors.ErrEmptyData)
	}
	if yTrue.Len() != yPred.Len() {
		return "", moodErrors.NewDimensionError("PredVsActual", yTrue.Len(), yPred.Len(), 0)
	}

	lo := math.Inf(1)
	hi := math.Inf(-1)
	pts := make(plotter.XYs, 0, yTrue.Len())
	for i := 0; i < yTrue.Len(); i++ {
		a, pr := yTrue.AtVec(i), yPred.AtVec(i)
		if math.IsNaN(a) || math.IsNaN(pr) || math.IsInf(a, 0) || math.IsInf(pr, 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: a, Y: pr})
		lo = math.Min(lo, math.Min(a, pr))
		hi = math.Max(hi, math.Max(a, pr))
	}
	if len(pts) == 0 {
		return "", moodErrors.NewValueError("PredVsActual", "no finite points")
	}

	p := plot.New()
	p.Title.Text = "Predicted vs actual"
	p.X.Label.Text = "actual"
	p.Y.Label.Text = "predicted"

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return "", moodErrors.Wrap(err, "failed to build scatter")
	}
	scatter.Color = plotutil.Color(0)
	p.Add(scatter)
	p.Legend.Add("predictions", scatter)

	ident, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return "", moodErrors.Wrap(err, "failed to build identity line")
	}
	ident.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(ident)
	p.Legend.Add("identity", ident)

	if err := p.Save(defaultWidth, defaultHeight, path); err != nil {
		return "", moodErrors.Wrap(err, "failed to save plot")
	}
	return path, nil
}

// Pareto draws a model-selection frontier as a complexity/error
// staircase and saves the chart as a PNG. Returns the saved path.
func Pareto(front []evaluation.ParetoEntry, path string) (string, error) {
	if len(front) == 0 {
		return "", moodErrors.NewModelError("Pareto", "empty frontier", moodErrors.ErrEmptyData)
	}

	pts := make(plotter.XYs, len(front))
	for i, pt := range front {
		pts[i] = plotter.XY{X: float64(pt.Complexity), Y: pt.MSE}
	}

	p := plot.New()
	p.Title.Text = "Pareto frontier"
	p.X.Label.Text = "complexity"
	p.Y.Label.Text = "MSE"

	line, err := plotter.NewLine(pts)
	if err != nil {
		return "", moodErrors.Wrap(err, "failed to build staircase")
	}
	line.StepStyle = plotter.PostStep
	line.Color = plotutil.Color(0)
	p.Add(line)

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return "", moodErrors.Wrap(err, "failed to build scatter")
	}
	scatter.Color = plotutil.Color(1)
	scatter.GlyphStyle.Radius = vg.Points(3)
	p.Add(scatter)

	if err := p.Save(defaultWidth, defaultHeight, path); err != nil {
		return "", moodErrors.Wrap(err, "failed to save plot")
	}
	return path, nil
}
