package symreg

import "time"

// Option is a configuration option for Regressor.
type Option func(*Regressor)

// WithPopulationSize sets the number of programs per island.
func WithPopulationSize(size int) Option {
	return func(sr *Regressor) {
		sr.populationSize = size
	}
}

// WithGenerations sets how many generations to evolve.
func WithGenerations(n int) Option {
	return func(sr *Regressor) {
		sr.generations = n
	}
}

// WithTournamentSize sets how many individuals compete per selection.
func WithTournamentSize(k int) Option {
	return func(sr *Regressor) {
		sr.tournamentSize = k
	}
}

// WithCrossoverProb sets the probability that an offspring is produced
// by subtree crossover rather than by copying its parent.
func WithCrossoverProb(p float64) Option {
	return func(sr *Regressor) {
		sr.crossoverProb = p
	}
}

// WithMutationProb sets the probability that an offspring is mutated.
func WithMutationProb(p float64) Option {
	return func(sr *Regressor) {
		sr.mutationProb = p
	}
}

// WithMaxDepth caps expression tree depth. Offspring exceeding the cap
// are discarded in favor of their first parent.
func WithMaxDepth(depth int) Option {
	return func(sr *Regressor) {
		sr.maxDepth = depth
	}
}

// WithInitDepth sets the depth range used by ramped half-and-half
// population initialization.
func WithInitDepth(lo, hi int) Option {
	return func(sr *Regressor) {
		sr.initDepthLo = lo
		sr.initDepthHi = hi
	}
}

// WithParsimony sets the complexity penalty added to raw fitness
// during selection. Zero disables parsimony pressure.
func WithParsimony(coefficient float64) Option {
	return func(sr *Regressor) {
		sr.parsimony = coefficient
	}
}

// WithFunctions sets the primitive operator set.
func WithFunctions(ops ...Op) Option {
	return func(sr *Regressor) {
		sr.functions = ops
	}
}

// WithConstRange sets the interval ephemeral constants are drawn from.
func WithConstRange(lo, hi float64) Option {
	return func(sr *Regressor) {
		sr.constLo = lo
		sr.constHi = hi
	}
}

// WithSeed fixes the random seed. A negative seed draws entropy from
// the clock, making runs non-reproducible.
func WithSeed(seed int64) Option {
	return func(sr *Regressor) {
		sr.seed = seed
	}
}

// WithElitism sets how many of the best programs survive each
// generation unchanged.
func WithElitism(n int) Option {
	return func(sr *Regressor) {
		sr.elitism = n
	}
}

// WithHallOfFameSize caps the number of complexity levels tracked.
func WithHallOfFameSize(size int) Option {
	return func(sr *Regressor) {
		sr.hofSize = size
	}
}

// WithIslands splits the population across n independently evolving
// islands that exchange their best programs in a ring.
func WithIslands(n int) Option {
	return func(sr *Regressor) {
		sr.islands = n
	}
}

// WithMigrationInterval sets how many generations pass between
// migrations in a multi-island run.
func WithMigrationInterval(generations int) Option {
	return func(sr *Regressor) {
		sr.migrationInterval = generations
	}
}

// WithModelSelection picks the strategy used to choose the final
// equation from the Pareto frontier: SelectionBest or
// SelectionAccuracy.
func WithModelSelection(mode string) Option {
	return func(sr *Regressor) {
		sr.modelSelection = mode
	}
}

// WithWorkers sets the goroutine count for fitness evaluation. Zero or
// negative selects GOMAXPROCS. The worker count never changes the
// fitted result, only how fast it arrives.
func WithWorkers(n int) Option {
	return func(sr *Regressor) {
		sr.workers = n
	}
}

// WithProgress registers a channel that receives one report per
// completed generation (per migration round when running multiple
// islands). Reports are dropped, not buffered, when the receiver lags.
func WithProgress(ch chan<- Generation) Option {
	return func(sr *Regressor) {
		sr.progress = ch
	}
}

// WithFeatureNames attaches column names used when rendering equations
// and exporting models.
func WithFeatureNames(names ...string) Option {
	return func(sr *Regressor) {
		sr.featureNames = append([]string(nil), names...)
	}
}

// Generation is a progress report emitted during Fit.
type Generation struct {
	Index          int           // generations completed so far
	BestMSE        float64       // training MSE of the current best program
	BestComplexity int           // node count of the current best program
	BestEquation   string        // infix rendering of the current best program
	MeanFitness    float64       // mean finite MSE across the population
	Elapsed        time.Duration // wall time since Fit started
}
