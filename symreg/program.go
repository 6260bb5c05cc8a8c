package symreg

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Program is an immutable expression tree with cached structure
// metrics. Genetic operators never modify a Program in place; they
// clone the underlying tree and wrap the result in a new Program.
type Program struct {
	root       *Node
	complexity int
	depth      int
}

// NewProgram wraps a tree. The tree must not be mutated afterwards.
func NewProgram(root *Node) *Program {
	return &Program{
		root:       root,
		complexity: root.Size(),
		depth:      root.Depth(),
	}
}

// Complexity returns the node count of the expression tree.
func (p *Program) Complexity() int {
	return p.complexity
}

// Depth returns the height of the expression tree.
func (p *Program) Depth() int {
	return p.depth
}

// Eval computes the program output for one input row.
func (p *Program) Eval(x []float64) float64 {
	return p.root.Eval(x)
}

// EvalMatrix computes the program output for every row of X.
func (p *Program) EvalMatrix(X mat.Matrix) *mat.VecDense {
	rows, _ := X.Dims()
	out := mat.NewVecDense(rows, nil)
	buf := make([]float64, 0)
	for i := 0; i < rows; i++ {
		buf = mat.Row(buf[:0], i, X)
		out.SetVec(i, p.root.Eval(buf))
	}
	return out
}

// String renders the program as an infix expression using the given
// feature names. Pass nil to render variables as x0, x1, ...
func (p *Program) String(names []string) string {
	return p.root.Infix(names)
}

// Prefix returns the serialized prefix form of the program.
func (p *Program) Prefix() string {
	return p.root.Prefix()
}

// Clone returns a deep copy of the program.
func (p *Program) Clone() *Program {
	return &Program{
		root:       p.root.Clone(),
		complexity: p.complexity,
		depth:      p.depth,
	}
}

// Variables returns the sorted set of input indices the program reads.
func (p *Program) Variables() []int {
	seen := make(map[int]struct{})
	p.root.collectVariables(seen)
	vars := make([]int, 0, len(seen))
	for v := range seen {
		vars = append(vars, v)
	}
	sort.Ints(vars)
	return vars
}

// ParseProgram builds a program from the prefix serialization.
func ParseProgram(expr string) (*Program, error) {
	root, err := ParsePrefix(expr)
	if err != nil {
		return nil, err
	}
	return NewProgram(root), nil
}
