package symreg

import (
	"math/rand/v2"
)

// generator builds random expression trees from a primitive set. All
// randomness flows through a single *rand.Rand so tree construction is
// reproducible for a fixed seed.
type generator struct {
	rng     *rand.Rand
	funcs   []Op
	nVars   int
	constLo float64
	constHi float64
}

func (g *generator) function() Op {
	return g.funcs[g.rng.IntN(len(g.funcs))]
}

// terminal draws uniformly over the terminal set: each input variable
// plus one ephemeral constant slot.
func (g *generator) terminal() *Node {
	if g.nVars > 0 {
		if idx := g.rng.IntN(g.nVars + 1); idx < g.nVars {
			return NewVar(idx)
		}
	}
	return NewConst(g.randomConst())
}

func (g *generator) randomConst() float64 {
	return g.constLo + g.rng.Float64()*(g.constHi-g.constLo)
}

// full builds a tree where every branch reaches exactly maxDepth.
func (g *generator) full(maxDepth int) *Node {
	return g.fullAt(0, maxDepth)
}

func (g *generator) fullAt(depth, maxDepth int) *Node {
	if depth >= maxDepth {
		return g.terminal()
	}
	op := g.function()
	n := &Node{Op: op}
	n.Left = g.fullAt(depth+1, maxDepth)
	if op.Arity() == 2 {
		n.Right = g.fullAt(depth+1, maxDepth)
	}
	return n
}

// grow builds a tree of depth at most maxDepth. The root is always a
// function node so no fresh program degenerates to a bare terminal;
// below the root each position is a terminal with probability one half.
func (g *generator) grow(maxDepth int) *Node {
	return g.growAt(0, maxDepth)
}

func (g *generator) growAt(depth, maxDepth int) *Node {
	if depth >= maxDepth {
		return g.terminal()
	}
	if depth > 0 && g.rng.Float64() < 0.5 {
		return g.terminal()
	}
	op := g.function()
	n := &Node{Op: op}
	n.Left = g.growAt(depth+1, maxDepth)
	if op.Arity() == 2 {
		n.Right = g.growAt(depth+1, maxDepth)
	}
	return n
}

// rampedPopulation initializes a population with the ramped
// half-and-half scheme: the size is split evenly across the depth
// levels in [minDepth, maxDepth], the remainder going to the deepest
// level, and within each level half the trees are full and half grown.
func (g *generator) rampedPopulation(size, minDepth, maxDepth int) []*Program {
	if minDepth < 1 {
		minDepth = 1
	}
	if maxDepth < minDepth {
		maxDepth = minDepth
	}

	levels := maxDepth - minDepth + 1
	perLevel := size / levels
	remainder := size % levels

	pop := make([]*Program, 0, size)
	for depth := minDepth; depth <= maxDepth; depth++ {
		count := perLevel
		if depth == maxDepth {
			count += remainder
		}
		nFull := (count + 1) / 2
		for i := 0; i < count; i++ {
			if i < nFull {
				pop = append(pop, NewProgram(g.full(depth)))
			} else {
				pop = append(pop, NewProgram(g.grow(depth)))
			}
		}
	}
	return pop
}
