package symreg

import (
	"math"
	"math/rand/v2"
)

// Individual pairs a program with its fitness on the training data.
// Fitness is the raw mean squared error; Penalized adds the parsimony
// pressure so longer equations must earn their extra nodes.
type Individual struct {
	Program   *Program
	Fitness   float64
	Penalized float64
}

// evaluate scores a program against the training rows. Any NaN or Inf
// in a prediction makes the fitness +Inf so the program cannot win a
// tournament against a finite competitor.
func evaluate(p *Program, rows [][]float64, y []float64, parsimony float64) *Individual {
	var sum float64
	for i, row := range rows {
		pred := p.Eval(row)
		if math.IsNaN(pred) || math.IsInf(pred, 0) {
			return &Individual{Program: p, Fitness: math.Inf(1), Penalized: math.Inf(1)}
		}
		diff := pred - y[i]
		sum += diff * diff
	}
	mse := sum / float64(len(rows))
	return &Individual{
		Program:   p,
		Fitness:   mse,
		Penalized: mse + parsimony*float64(p.Complexity()),
	}
}

// tournament draws k individuals with replacement and returns the one
// with the lowest penalized fitness. Ties keep the earliest draw.
func tournament(rng *rand.Rand, pop []*Individual, k int) *Individual {
	best := pop[rng.IntN(len(pop))]
	for i := 1; i < k; i++ {
		challenger := pop[rng.IntN(len(pop))]
		if challenger.Penalized < best.Penalized {
			best = challenger
		}
	}
	return best
}

// crossover grafts a random subtree of b onto a random position in a
// copy of a. Offspring deeper than maxDepth are rejected in favor of a
// copy of the first parent.
func crossover(rng *rand.Rand, a, b *Program, maxDepth int) *Program {
	child := a.root.Clone()

	var sites []*Node
	child.collect(&sites)
	target := sites[rng.IntN(len(sites))]

	var donors []*Node
	b.root.collect(&donors)
	graft := donors[rng.IntN(len(donors))].Clone()

	*target = *graft
	if child.Depth() > maxDepth {
		return a.Clone()
	}
	return NewProgram(child)
}

const mutationKinds = 4

// mutate applies one of four operators to a copy of p: subtree
// replacement, operator substitution, constant jitter or variable swap.
// Kinds that do not apply to the tree at hand fall back to subtree
// replacement so every call changes something.
func mutate(rng *rand.Rand, g *generator, p *Program, maxDepth int) *Program {
	switch rng.IntN(mutationKinds) {
	case 0:
		return subtreeMutation(rng, g, p, maxDepth)
	case 1:
		if child, ok := opMutation(rng, g, p); ok {
			return child
		}
		return subtreeMutation(rng, g, p, maxDepth)
	case 2:
		return constMutation(rng, g, p)
	default:
		if child, ok := variableMutation(rng, g, p); ok {
			return child
		}
		return subtreeMutation(rng, g, p, maxDepth)
	}
}

const mutationSubtreeDepth = 2

func subtreeMutation(rng *rand.Rand, g *generator, p *Program, maxDepth int) *Program {
	child := p.root.Clone()
	var sites []*Node
	child.collect(&sites)
	target := sites[rng.IntN(len(sites))]

	*target = *g.grow(mutationSubtreeDepth)
	if child.Depth() > maxDepth {
		return p.Clone()
	}
	return NewProgram(child)
}

// opMutation swaps one operator for another of the same arity.
func opMutation(rng *rand.Rand, g *generator, p *Program) (*Program, bool) {
	child := p.root.Clone()
	var interior []*Node
	var all []*Node
	child.collect(&all)
	for _, n := range all {
		if !n.IsLeaf {
			interior = append(interior, n)
		}
	}
	if len(interior) == 0 {
		return nil, false
	}

	target := interior[rng.IntN(len(interior))]
	var alts []Op
	for _, op := range g.funcs {
		if op != target.Op && op.Arity() == target.Op.Arity() {
			alts = append(alts, op)
		}
	}
	if len(alts) == 0 {
		return nil, false
	}
	target.Op = alts[rng.IntN(len(alts))]
	return NewProgram(child), true
}

// constMutation jitters one constant leaf with Gaussian noise. A tree
// without constants gets a random leaf replaced by a fresh constant.
func constMutation(rng *rand.Rand, g *generator, p *Program) *Program {
	child := p.root.Clone()
	var all []*Node
	child.collect(&all)

	var consts, leaves []*Node
	for _, n := range all {
		if !n.IsLeaf {
			continue
		}
		leaves = append(leaves, n)
		if n.Variable < 0 {
			consts = append(consts, n)
		}
	}
	if len(consts) > 0 {
		target := consts[rng.IntN(len(consts))]
		target.Value += rng.NormFloat64() * 0.5
	} else {
		target := leaves[rng.IntN(len(leaves))]
		*target = *NewConst(g.randomConst())
	}
	return NewProgram(child)
}

// variableMutation repoints one variable leaf at a different input.
func variableMutation(rng *rand.Rand, g *generator, p *Program) (*Program, bool) {
	if g.nVars < 2 {
		return nil, false
	}
	child := p.root.Clone()
	var all []*Node
	child.collect(&all)

	var vars []*Node
	for _, n := range all {
		if n.IsLeaf && n.Variable >= 0 {
			vars = append(vars, n)
		}
	}
	if len(vars) == 0 {
		return nil, false
	}
	target := vars[rng.IntN(len(vars))]
	next := rng.IntN(g.nVars - 1)
	if next >= target.Variable {
		next++
	}
	target.Variable = next
	return NewProgram(child), true
}
