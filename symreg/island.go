package symreg

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/quantself/moodlab/core/parallel"
)

// islandConfig carries the evolution parameters shared by all islands.
type islandConfig struct {
	popSize        int
	tournamentSize int
	crossoverProb  float64
	mutationProb   float64
	maxDepth       int
	initDepthLo    int
	initDepthHi    int
	parsimony      float64
	elitism        int
	workers        int
}

// island is one independently evolving population. Each island owns a
// private RNG derived from the run seed and its index, so a multi
// island run is reproducible regardless of scheduling: islands only
// exchange programs at synchronization points driven by the caller.
type island struct {
	id   int
	rng  *rand.Rand
	gen  *generator
	cfg  islandConfig
	rows [][]float64
	y    []float64
	pop  []*Individual
	best *Individual
	hof  *HallOfFame
}

func newIsland(id int, seed uint64, cfg islandConfig, funcs []Op, nVars int, constLo, constHi float64, rows [][]float64, y []float64, hofSize int) *island {
	s := seed + uint64(id)
	rng := rand.New(rand.NewPCG(s, s))
	isl := &island{
		id:  id,
		rng: rng,
		gen: &generator{
			rng:     rng,
			funcs:   funcs,
			nVars:   nVars,
			constLo: constLo,
			constHi: constHi,
		},
		cfg:  cfg,
		rows: rows,
		y:    y,
		hof:  newHallOfFame(hofSize),
	}
	progs := isl.gen.rampedPopulation(cfg.popSize, cfg.initDepthLo, cfg.initDepthHi)
	isl.pop = isl.evaluateAll(progs)
	isl.absorb()
	return isl
}

// evaluateAll scores programs in parallel. Evaluation consumes no
// randomness, so the worker count never changes the result.
func (isl *island) evaluateAll(progs []*Program) []*Individual {
	out := make([]*Individual, len(progs))
	parallel.ParallelizeWithWorkers(len(progs), isl.cfg.workers, func(start, end int) {
		for i := start; i < end; i++ {
			out[i] = evaluate(progs[i], isl.rows, isl.y, isl.cfg.parsimony)
		}
	})
	return out
}

// step advances the island by one generation.
func (isl *island) step() {
	sort.Slice(isl.pop, func(i, j int) bool {
		if isl.pop[i].Penalized != isl.pop[j].Penalized {
			return isl.pop[i].Penalized < isl.pop[j].Penalized
		}
		return isl.pop[i].Program.Complexity() < isl.pop[j].Program.Complexity()
	})

	next := make([]*Program, 0, isl.cfg.popSize)
	for i := 0; i < isl.cfg.elitism && i < len(isl.pop); i++ {
		next = append(next, isl.pop[i].Program.Clone())
	}
	for len(next) < isl.cfg.popSize {
		parent := tournament(isl.rng, isl.pop, isl.cfg.tournamentSize)
		var child *Program
		if isl.rng.Float64() < isl.cfg.crossoverProb {
			mate := tournament(isl.rng, isl.pop, isl.cfg.tournamentSize)
			child = crossover(isl.rng, parent.Program, mate.Program, isl.cfg.maxDepth)
		} else {
			child = parent.Program.Clone()
		}
		if isl.rng.Float64() < isl.cfg.mutationProb {
			child = mutate(isl.rng, isl.gen, child, isl.cfg.maxDepth)
		}
		next = append(next, child)
	}

	isl.pop = isl.evaluateAll(next)
	isl.absorb()
}

// absorb folds the current population into the island's best individual
// and hall of fame.
func (isl *island) absorb() {
	for _, ind := range isl.pop {
		isl.hof.Update(ind)
		if isl.best == nil || ind.Penalized < isl.best.Penalized {
			isl.best = ind
		}
	}
}

// receive replaces the island's worst individual with a copy of the
// migrant.
func (isl *island) receive(migrant *Individual) {
	worst := 0
	for i, ind := range isl.pop {
		if ind.Penalized > isl.pop[worst].Penalized {
			worst = i
		}
	}
	isl.pop[worst] = &Individual{
		Program:   migrant.Program.Clone(),
		Fitness:   migrant.Fitness,
		Penalized: migrant.Penalized,
	}
}

// finiteFitness sums the mean squared errors of individuals with
// finite fitness and reports how many there are.
func (isl *island) finiteFitness() (sum float64, n int) {
	for _, ind := range isl.pop {
		if !math.IsInf(ind.Fitness, 0) {
			sum += ind.Fitness
			n++
		}
	}
	return sum, n
}

// meanFitness returns the mean squared error averaged over individuals
// with finite fitness, or +Inf when no individual is finite.
func (isl *island) meanFitness() float64 {
	sum, n := isl.finiteFitness()
	if n == 0 {
		return math.Inf(1)
	}
	return sum / float64(n)
}
