// Package symreg implements symbolic regression by genetic programming.
//
// A population of expression trees is evolved against a design matrix,
// with tournament selection, subtree crossover and several mutation
// operators. The result of a fit is not a single coefficient vector but
// a hall of fame of candidate equations, one per complexity level, from
// which a Pareto frontier of accuracy versus complexity is derived.
// Evolution can run on several islands whose best programs migrate in a
// ring at fixed intervals.
//
// All arithmetic primitives are protected: division by (near) zero,
// logarithms of non-positive values and square roots of negatives
// evaluate to finite fallbacks, so any tree yields a finite prediction
// for finite inputs.
package symreg

import (
	"math"
	"strconv"
	"strings"

	moodErrors "github.com/quantself/moodlab/pkg/errors"
)

// Op identifies a primitive function in an expression tree.
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpSin
	OpCos
	OpLog
	OpSqrt
	OpNeg
)

var opNames = map[Op]string{
	OpAdd:  "add",
	OpSub:  "sub",
	OpMul:  "mul",
	OpDiv:  "div",
	OpSin:  "sin",
	OpCos:  "cos",
	OpLog:  "log",
	OpSqrt: "sqrt",
	OpNeg:  "neg",
}

var opSymbols = map[Op]string{
	OpAdd: "+",
	OpSub: "-",
	OpMul: "*",
	OpDiv: "/",
}

// Arity returns the number of operands the operator takes.
func (op Op) Arity() int {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv:
		return 2
	default:
		return 1
	}
}

// String returns the operator name used in the prefix serialization.
func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "op" + strconv.Itoa(int(op))
}

// ParseOp resolves an operator name from the prefix serialization.
func ParseOp(name string) (Op, error) {
	for op, n := range opNames {
		if n == name {
			return op, nil
		}
	}
	return 0, moodErrors.NewValueError("ParseOp", "unknown operator "+strconv.Quote(name))
}

// DefaultFunctions is the primitive set used when no explicit set is
// configured. Negation is available but excluded by default because
// subtraction already covers it.
func DefaultFunctions() []Op {
	return []Op{OpAdd, OpSub, OpMul, OpDiv, OpSin, OpCos, OpLog, OpSqrt}
}

// Node is a single node of an expression tree. A leaf is either a
// variable reference (Variable >= 0) or a constant (Variable < 0).
// Interior nodes hold an operator and one or two children.
type Node struct {
	Op       Op
	Value    float64
	Variable int
	IsLeaf   bool
	Left     *Node
	Right    *Node
}

// NewConst returns a leaf holding a constant value.
func NewConst(v float64) *Node {
	return &Node{IsLeaf: true, Variable: -1, Value: v}
}

// NewVar returns a leaf referencing input variable i.
func NewVar(i int) *Node {
	return &Node{IsLeaf: true, Variable: i}
}

// NewUnary returns an interior node applying a unary operator.
func NewUnary(op Op, operand *Node) *Node {
	return &Node{Op: op, Left: operand}
}

// NewBinary returns an interior node applying a binary operator.
func NewBinary(op Op, left, right *Node) *Node {
	return &Node{Op: op, Left: left, Right: right}
}

const divGuard = 1e-10

// Eval computes the value of the subtree for one input row. Variables
// referencing an index outside x evaluate to 0.
func (n *Node) Eval(x []float64) float64 {
	if n.IsLeaf {
		if n.Variable >= 0 {
			if n.Variable < len(x) {
				return x[n.Variable]
			}
			return 0
		}
		return n.Value
	}

	left := n.Left.Eval(x)
	switch n.Op {
	case OpAdd:
		return left + n.Right.Eval(x)
	case OpSub:
		return left - n.Right.Eval(x)
	case OpMul:
		return left * n.Right.Eval(x)
	case OpDiv:
		right := n.Right.Eval(x)
		if math.Abs(right) < divGuard {
			return 1
		}
		return left / right
	case OpSin:
		return math.Sin(left)
	case OpCos:
		return math.Cos(left)
	case OpLog:
		if left <= 0 {
			return 0
		}
		return math.Log(left)
	case OpSqrt:
		return math.Sqrt(math.Abs(left))
	case OpNeg:
		return -left
	default:
		return 0
	}
}

// Clone returns a deep copy of the subtree.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{
		Op:       n.Op,
		Value:    n.Value,
		Variable: n.Variable,
		IsLeaf:   n.IsLeaf,
	}
	c.Left = n.Left.Clone()
	c.Right = n.Right.Clone()
	return c
}

// Size returns the number of nodes in the subtree.
func (n *Node) Size() int {
	if n == nil {
		return 0
	}
	return 1 + n.Left.Size() + n.Right.Size()
}

// Depth returns the height of the subtree. A single leaf has depth 0.
func (n *Node) Depth() int {
	if n == nil || n.IsLeaf {
		return 0
	}
	return 1 + max(n.Left.Depth(), n.Right.Depth())
}

func (n *Node) collect(nodes *[]*Node) {
	if n == nil {
		return
	}
	*nodes = append(*nodes, n)
	n.Left.collect(nodes)
	n.Right.collect(nodes)
}

func (n *Node) collectVariables(seen map[int]struct{}) {
	if n == nil {
		return
	}
	if n.IsLeaf {
		if n.Variable >= 0 {
			seen[n.Variable] = struct{}{}
		}
		return
	}
	n.Left.collectVariables(seen)
	n.Right.collectVariables(seen)
}

// maxVariable returns the largest variable index referenced in the
// subtree, or -1 when the tree is constant.
func (n *Node) maxVariable() int {
	if n == nil {
		return -1
	}
	highest := -1
	if n.IsLeaf {
		if n.Variable >= 0 {
			highest = n.Variable
		}
		return highest
	}
	if l := n.Left.maxVariable(); l > highest {
		highest = l
	}
	if r := n.Right.maxVariable(); r > highest {
		highest = r
	}
	return highest
}

// Infix renders the subtree as a human-readable expression. Variable i
// is rendered as names[i] when available and as "x<i>" otherwise.
func (n *Node) Infix(names []string) string {
	var sb strings.Builder
	n.writeInfix(&sb, names)
	return sb.String()
}

func (n *Node) writeInfix(sb *strings.Builder, names []string) {
	if n.IsLeaf {
		sb.WriteString(n.leafString(names, 4))
		return
	}
	if sym, ok := opSymbols[n.Op]; ok {
		sb.WriteByte('(')
		n.Left.writeInfix(sb, names)
		sb.WriteByte(' ')
		sb.WriteString(sym)
		sb.WriteByte(' ')
		n.Right.writeInfix(sb, names)
		sb.WriteByte(')')
		return
	}
	if n.Op == OpNeg {
		sb.WriteString("-(")
		n.Left.writeInfix(sb, names)
		sb.WriteByte(')')
		return
	}
	sb.WriteString(n.Op.String())
	sb.WriteByte('(')
	n.Left.writeInfix(sb, names)
	sb.WriteByte(')')
}

// Prefix renders the subtree in the parenthesized prefix form used for
// JSON exchange, for example "(add (mul x0 0.42) (sin x3))". Constants
// round-trip exactly through ParsePrefix.
func (n *Node) Prefix() string {
	var sb strings.Builder
	n.writePrefix(&sb)
	return sb.String()
}

func (n *Node) writePrefix(sb *strings.Builder) {
	if n.IsLeaf {
		sb.WriteString(n.leafString(nil, -1))
		return
	}
	sb.WriteByte('(')
	sb.WriteString(n.Op.String())
	sb.WriteByte(' ')
	n.Left.writePrefix(sb)
	if n.Right != nil {
		sb.WriteByte(' ')
		n.Right.writePrefix(sb)
	}
	sb.WriteByte(')')
}

func (n *Node) leafString(names []string, prec int) string {
	if n.Variable >= 0 {
		if n.Variable < len(names) {
			return names[n.Variable]
		}
		return "x" + strconv.Itoa(n.Variable)
	}
	return strconv.FormatFloat(n.Value, 'g', prec, 64)
}

// ParsePrefix parses the prefix serialization produced by Prefix.
func ParsePrefix(s string) (*Node, error) {
	replacer := strings.NewReplacer("(", " ( ", ")", " ) ")
	tokens := strings.Fields(replacer.Replace(s))
	if len(tokens) == 0 {
		return nil, moodErrors.NewValueError("ParsePrefix", "empty expression")
	}
	node, rest, err := parseTokens(tokens)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, moodErrors.NewValueError("ParsePrefix",
			"unexpected trailing tokens after expression: "+strings.Join(rest, " "))
	}
	return node, nil
}

func parseTokens(tokens []string) (*Node, []string, error) {
	if len(tokens) == 0 {
		return nil, nil, moodErrors.NewValueError("ParsePrefix", "unexpected end of expression")
	}
	tok := tokens[0]
	tokens = tokens[1:]

	if tok != "(" {
		node, err := parseTerminal(tok)
		if err != nil {
			return nil, nil, err
		}
		return node, tokens, nil
	}

	if len(tokens) == 0 {
		return nil, nil, moodErrors.NewValueError("ParsePrefix", "unexpected end of expression")
	}
	op, err := ParseOp(tokens[0])
	if err != nil {
		return nil, nil, err
	}
	tokens = tokens[1:]

	node := &Node{Op: op}
	node.Left, tokens, err = parseTokens(tokens)
	if err != nil {
		return nil, nil, err
	}
	if op.Arity() == 2 {
		node.Right, tokens, err = parseTokens(tokens)
		if err != nil {
			return nil, nil, err
		}
	}

	if len(tokens) == 0 || tokens[0] != ")" {
		return nil, nil, moodErrors.NewValueError("ParsePrefix",
			"missing closing parenthesis after "+strconv.Quote(op.String()))
	}
	return node, tokens[1:], nil
}

func parseTerminal(tok string) (*Node, error) {
	if tok == ")" {
		return nil, moodErrors.NewValueError("ParsePrefix", "unexpected closing parenthesis")
	}
	if strings.HasPrefix(tok, "x") {
		if idx, err := strconv.Atoi(tok[1:]); err == nil && idx >= 0 {
			return NewVar(idx), nil
		}
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return nil, moodErrors.NewValueError("ParsePrefix",
			"cannot parse terminal "+strconv.Quote(tok))
	}
	return NewConst(v), nil
}
