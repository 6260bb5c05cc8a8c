package symreg

import (
	"math"
	"sort"

	moodErrors "github.com/quantself/moodlab/pkg/errors"
)

// HallOfFame tracks, for each complexity level seen during evolution,
// the lowest-error program found at that level. It is bounded: when
// more than maxSize levels are occupied, a dominated level is dropped
// first and the deepest level otherwise.
type HallOfFame struct {
	maxSize int
	entries map[int]*Individual
}

func newHallOfFame(maxSize int) *HallOfFame {
	if maxSize < 1 {
		maxSize = 1
	}
	return &HallOfFame{
		maxSize: maxSize,
		entries: make(map[int]*Individual),
	}
}

// Update offers an individual to the table. Programs with non-finite
// fitness are ignored.
func (h *HallOfFame) Update(ind *Individual) {
	if math.IsNaN(ind.Fitness) || math.IsInf(ind.Fitness, 0) {
		return
	}
	c := ind.Program.Complexity()
	if cur, ok := h.entries[c]; ok && cur.Fitness <= ind.Fitness {
		return
	}
	h.entries[c] = ind
	if len(h.entries) > h.maxSize {
		h.evict()
	}
}

// evict removes one level. Levels whose error is not below every
// simpler level contribute nothing to the frontier and go first.
func (h *HallOfFame) evict() {
	levels := h.levels()

	bestSoFar := math.Inf(1)
	dominated := -1
	for _, c := range levels {
		if h.entries[c].Fitness >= bestSoFar {
			dominated = c
		} else {
			bestSoFar = h.entries[c].Fitness
		}
	}
	if dominated >= 0 {
		delete(h.entries, dominated)
		return
	}
	delete(h.entries, levels[len(levels)-1])
}

func (h *HallOfFame) levels() []int {
	levels := make([]int, 0, len(h.entries))
	for c := range h.entries {
		levels = append(levels, c)
	}
	sort.Ints(levels)
	return levels
}

// Entries returns the table contents in ascending complexity order.
func (h *HallOfFame) Entries() []*Individual {
	out := make([]*Individual, 0, len(h.entries))
	for _, c := range h.levels() {
		out = append(out, h.entries[c])
	}
	return out
}

// Len returns the number of occupied complexity levels.
func (h *HallOfFame) Len() int {
	return len(h.entries)
}

// merge folds another table into this one.
func (h *HallOfFame) merge(other *HallOfFame) {
	for _, ind := range other.Entries() {
		h.Update(ind)
	}
}

// ParetoPoint is one non-dominated equation: no simpler program in the
// hall of fame achieves a lower training error.
type ParetoPoint struct {
	Program    *Program
	Complexity int
	MSE        float64
}

// paretoFront filters hall of fame entries down to the accuracy versus
// complexity frontier. The result is ordered by ascending complexity
// with strictly decreasing error.
func paretoFront(entries []*Individual) []ParetoPoint {
	front := make([]ParetoPoint, 0, len(entries))
	bestSoFar := math.Inf(1)
	for _, ind := range entries {
		if ind.Fitness >= bestSoFar {
			continue
		}
		bestSoFar = ind.Fitness
		front = append(front, ParetoPoint{
			Program:    ind.Program,
			Complexity: ind.Program.Complexity(),
			MSE:        ind.Fitness,
		})
	}
	return front
}

// Model selection strategies over the Pareto frontier.
const (
	// SelectionAccuracy picks the lowest-error equation outright.
	SelectionAccuracy = "accuracy"
	// SelectionBest picks the equation with the steepest improvement in
	// log error per unit of added complexity, trading a little accuracy
	// for a much shorter formula.
	SelectionBest = "best"
)

const logErrFloor = 1e-15

// selectProgram applies a selection strategy to a frontier.
func selectProgram(front []ParetoPoint, mode string) (ParetoPoint, error) {
	if len(front) == 0 {
		return ParetoPoint{}, moodErrors.NewModelError("selectProgram", "pareto frontier is empty", nil)
	}
	switch mode {
	case SelectionAccuracy:
		return front[len(front)-1], nil
	case SelectionBest:
		if len(front) == 1 {
			return front[0], nil
		}
		bestIdx := 0
		bestScore := math.Inf(-1)
		for i := 1; i < len(front); i++ {
			prev := math.Log(math.Max(front[i-1].MSE, logErrFloor))
			cur := math.Log(math.Max(front[i].MSE, logErrFloor))
			score := (prev - cur) / float64(front[i].Complexity-front[i-1].Complexity)
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		return front[bestIdx], nil
	default:
		return ParetoPoint{}, moodErrors.NewValueError("selectProgram",
			"unknown model selection strategy \""+mode+"\"")
	}
}
