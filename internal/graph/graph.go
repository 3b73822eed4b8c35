// Package graph implements the Weft expression builder: an append-only,
// single-writer constructor for element-wise computation graphs.
//
// A Builder hands out opaque Node handles for every constructed
// expression. Invalid construction calls do not return errors directly;
// the first failure is recorded on the builder and every later call
// returns an invalid handle, so lowering code can stay declarative and
// check Err once at the end.
package graph

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/weft-ml/weft/internal/tensor"
)

// OpKind identifies a primitive operation in the expression graph.
type OpKind int

// Primitive operations.
const (
	OpInvalid OpKind = iota
	OpParameter
	OpConstant
	OpBroadcast
	OpMax
	OpMin
	OpClamp
	OpGreater
	OpLess
	OpAnd
	OpSelect
)

// String returns the lowercase mnemonic of the operation.
func (k OpKind) String() string {
	switch k {
	case OpParameter:
		return "parameter"
	case OpConstant:
		return "constant"
	case OpBroadcast:
		return "broadcast"
	case OpMax:
		return "max"
	case OpMin:
		return "min"
	case OpClamp:
		return "clamp"
	case OpGreater:
		return "greater"
	case OpLess:
		return "less"
	case OpAnd:
		return "and"
	case OpSelect:
		return "select"
	default:
		return "invalid"
	}
}

// Node is an opaque handle to an expression in a Builder's graph.
// The zero Node is invalid. Nodes are owned by the builder that created
// them and must not be mixed between builders.
type Node struct {
	index int
	valid bool
}

// Valid reports whether the handle refers to a constructed expression.
func (n Node) Valid() bool {
	return n.valid
}

// nodeData is the builder-side record backing a Node handle.
type nodeData struct {
	kind    OpKind
	args    []int
	shape   tensor.Shape
	dtype   tensor.DataType
	literal *tensor.RawTensor // OpConstant only
	name    string            // OpParameter only
}

// Builder incrementally constructs a computation graph. It is not safe
// for concurrent use; each compilation owns its builder.
type Builder struct {
	id    uuid.UUID
	name  string
	nodes []nodeData
	err   error
}

// NewBuilder creates an empty builder for a computation with the given name.
func NewBuilder(name string) *Builder {
	return &Builder{
		id:   uuid.New(),
		name: name,
	}
}

// Name returns the computation name.
func (b *Builder) Name() string {
	return b.name
}

// ID returns the unique identity of this builder.
func (b *Builder) ID() uuid.UUID {
	return b.id
}

// Err returns the first construction error recorded on the builder, if any.
func (b *Builder) Err() error {
	return b.err
}

// NumNodes returns the number of constructed expressions.
func (b *Builder) NumNodes() int {
	return len(b.nodes)
}

// Errorf records a construction error on the builder and returns an
// invalid handle. Only the first error is kept.
func (b *Builder) Errorf(format string, args ...any) Node {
	if b.err == nil {
		b.err = fmt.Errorf(format, args...)
	}
	return Node{}
}

// add appends a node record and returns its handle.
func (b *Builder) add(d nodeData) Node {
	b.nodes = append(b.nodes, d)
	return Node{index: len(b.nodes) - 1, valid: true}
}

// at resolves a handle, recording an error for foreign or invalid handles.
func (b *Builder) at(n Node) (*nodeData, bool) {
	if !n.valid || n.index >= len(b.nodes) {
		b.Errorf("%s: invalid node handle", b.name)
		return nil, false
	}
	return &b.nodes[n.index], true
}

// Shape returns the shape of the expression behind n.
func (b *Builder) Shape(n Node) tensor.Shape {
	d, ok := b.at(n)
	if !ok {
		return nil
	}
	return d.shape
}

// DType returns the element type of the expression behind n.
func (b *Builder) DType(n Node) tensor.DataType {
	d, ok := b.at(n)
	if !ok {
		return tensor.Float32
	}
	return d.dtype
}

// Parameter declares a named graph input with the given shape and type.
func (b *Builder) Parameter(name string, shape tensor.Shape, dtype tensor.DataType) Node {
	if b.err != nil {
		return Node{}
	}
	if err := shape.Validate(); err != nil {
		return b.Errorf("parameter %q: %v", name, err)
	}
	for _, d := range b.nodes {
		if d.kind == OpParameter && d.name == name {
			return b.Errorf("parameter %q: duplicate name", name)
		}
	}
	return b.add(nodeData{
		kind:  OpParameter,
		shape: shape.Clone(),
		dtype: dtype,
		name:  name,
	})
}

// Constant embeds a tensor literal in the graph. The tensor must not be
// mutated afterwards.
func (b *Builder) Constant(t *tensor.RawTensor) Node {
	if b.err != nil {
		return Node{}
	}
	if t == nil {
		return b.Errorf("constant: nil tensor")
	}
	return b.add(nodeData{
		kind:    OpConstant,
		shape:   t.Shape().Clone(),
		dtype:   t.DType(),
		literal: t,
	})
}

// Scalar embeds a zero-dimensional constant of the given element type.
func (b *Builder) Scalar(dtype tensor.DataType, value float64) Node {
	if b.err != nil {
		return Node{}
	}
	t, err := tensor.Scalar(dtype, value)
	if err != nil {
		return b.Errorf("scalar: %v", err)
	}
	return b.Constant(t)
}

// Broadcast replicates a scalar expression across every element of the
// target shape. Only scalar operands are accepted; general broadcasting
// is the caller's responsibility.
func (b *Builder) Broadcast(x Node, shape tensor.Shape) Node {
	if b.err != nil {
		return Node{}
	}
	d, ok := b.at(x)
	if !ok {
		return Node{}
	}
	if !d.shape.IsScalar() {
		return b.Errorf("broadcast: operand shape %v is not scalar", d.shape)
	}
	if err := shape.Validate(); err != nil {
		return b.Errorf("broadcast: %v", err)
	}
	return b.add(nodeData{
		kind:  OpBroadcast,
		args:  []int{x.index},
		shape: shape.Clone(),
		dtype: d.dtype,
	})
}

// Max returns the element-wise maximum of a and b.
// A scalar operand is implicitly broadcast against the other.
func (b *Builder) Max(a, c Node) Node {
	return b.binary(OpMax, a, c)
}

// Min returns the element-wise minimum of a and b.
// A scalar operand is implicitly broadcast against the other.
func (b *Builder) Min(a, c Node) Node {
	return b.binary(OpMin, a, c)
}

// Greater returns the element-wise comparison a > b as a Bool expression.
func (b *Builder) Greater(a, c Node) Node {
	return b.binary(OpGreater, a, c)
}

// Less returns the element-wise comparison a < b as a Bool expression.
func (b *Builder) Less(a, c Node) Node {
	return b.binary(OpLess, a, c)
}

// And returns the element-wise logical conjunction of two Bool expressions.
func (b *Builder) And(a, c Node) Node {
	if b.err != nil {
		return Node{}
	}
	da, ok := b.at(a)
	if !ok {
		return Node{}
	}
	dc, ok := b.at(c)
	if !ok {
		return Node{}
	}
	if da.dtype != tensor.Bool || dc.dtype != tensor.Bool {
		return b.Errorf("and: operands must be bool, got %s and %s", da.dtype, dc.dtype)
	}
	return b.binary(OpAnd, a, c)
}

// binary constructs a two-operand element-wise node under the shared
// shape rule: equal shapes, or one scalar operand. Every kind except
// and requires numeric operands.
func (b *Builder) binary(kind OpKind, a, c Node) Node {
	if b.err != nil {
		return Node{}
	}
	da, ok := b.at(a)
	if !ok {
		return Node{}
	}
	dc, ok := b.at(c)
	if !ok {
		return Node{}
	}
	if da.dtype != dc.dtype {
		return b.Errorf("%s: operand dtypes differ: %s vs %s", kind, da.dtype, dc.dtype)
	}
	if kind != OpAnd && !da.dtype.IsFloat() && !da.dtype.IsInteger() {
		return b.Errorf("%s: operands must be numeric, got %s", kind, da.dtype)
	}
	shape, err := binaryShape(da.shape, dc.shape)
	if err != nil {
		return b.Errorf("%s: %v", kind, err)
	}

	dtype := da.dtype
	if kind == OpGreater || kind == OpLess {
		dtype = tensor.Bool
	}
	return b.add(nodeData{
		kind:  kind,
		args:  []int{a.index, c.index},
		shape: shape,
		dtype: dtype,
	})
}

// Clamp returns x limited to [lo, hi] element-wise, min(max(x, lo), hi).
// Bounds may be scalars or match x's shape.
func (b *Builder) Clamp(lo, x, hi Node) Node {
	if b.err != nil {
		return Node{}
	}
	dlo, ok := b.at(lo)
	if !ok {
		return Node{}
	}
	dx, ok := b.at(x)
	if !ok {
		return Node{}
	}
	dhi, ok := b.at(hi)
	if !ok {
		return Node{}
	}
	if dlo.dtype != dx.dtype || dhi.dtype != dx.dtype {
		return b.Errorf("clamp: operand dtypes differ: %s, %s, %s", dlo.dtype, dx.dtype, dhi.dtype)
	}
	if !dx.dtype.IsFloat() && !dx.dtype.IsInteger() {
		return b.Errorf("clamp: operands must be numeric, got %s", dx.dtype)
	}
	if !dlo.shape.IsScalar() && !dlo.shape.Equal(dx.shape) {
		return b.Errorf("clamp: lower bound shape %v incompatible with %v", dlo.shape, dx.shape)
	}
	if !dhi.shape.IsScalar() && !dhi.shape.Equal(dx.shape) {
		return b.Errorf("clamp: upper bound shape %v incompatible with %v", dhi.shape, dx.shape)
	}
	return b.add(nodeData{
		kind:  OpClamp,
		args:  []int{lo.index, x.index, hi.index},
		shape: dx.shape.Clone(),
		dtype: dx.dtype,
	})
}

// Select returns onTrue where pred holds and onFalse elsewhere. Unlike
// the binary ops, select does not broadcast: pred, onTrue and onFalse
// must all have exactly the same shape.
func (b *Builder) Select(pred, onTrue, onFalse Node) Node {
	if b.err != nil {
		return Node{}
	}
	dp, ok := b.at(pred)
	if !ok {
		return Node{}
	}
	dt, ok := b.at(onTrue)
	if !ok {
		return Node{}
	}
	df, ok := b.at(onFalse)
	if !ok {
		return Node{}
	}
	if dp.dtype != tensor.Bool {
		return b.Errorf("select: predicate must be bool, got %s", dp.dtype)
	}
	if dt.dtype != df.dtype {
		return b.Errorf("select: branch dtypes differ: %s vs %s", dt.dtype, df.dtype)
	}
	if !dp.shape.Equal(dt.shape) || !dp.shape.Equal(df.shape) {
		return b.Errorf("select: operand shapes must match exactly: %v, %v, %v",
			dp.shape, dt.shape, df.shape)
	}
	return b.add(nodeData{
		kind:  OpSelect,
		args:  []int{pred.index, onTrue.index, onFalse.index},
		shape: dt.shape.Clone(),
		dtype: dt.dtype,
	})
}

// binaryShape resolves the result shape of a two-operand element-wise op:
// equal shapes pass through, a scalar operand takes the other's shape.
func binaryShape(a, b tensor.Shape) (tensor.Shape, error) {
	switch {
	case a.Equal(b):
		return a.Clone(), nil
	case a.IsScalar():
		return b.Clone(), nil
	case b.IsScalar():
		return a.Clone(), nil
	default:
		return nil, fmt.Errorf("operand shapes incompatible: %v vs %v", a, b)
	}
}

// Build finalizes the graph with root as the computation's output.
// It fails if any construction call recorded an error.
func (b *Builder) Build(root Node) (*Computation, error) {
	if b.err != nil {
		return nil, fmt.Errorf("build %q: %w", b.name, b.err)
	}
	d, ok := b.at(root)
	if !ok {
		return nil, fmt.Errorf("build %q: %w", b.name, b.err)
	}

	nodes := make([]nodeData, root.index+1)
	copy(nodes, b.nodes[:root.index+1])
	return &Computation{
		id:    b.id,
		name:  b.name,
		nodes: nodes,
		root:  root.index,
		shape: d.shape.Clone(),
		dtype: d.dtype,
	}, nil
}

// String renders the graph as one node per line, for debugging and the
// CLI dump command.
func (b *Builder) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "computation %q (%s):\n", b.name, b.id)
	for i, d := range b.nodes {
		fmt.Fprintf(&sb, "  %%%d = %s", i, d.kind)
		switch d.kind {
		case OpParameter:
			fmt.Fprintf(&sb, " %q", d.name)
		case OpConstant:
			fmt.Fprintf(&sb, " %s", formatLiteral(d.literal))
		default:
			for j, arg := range d.args {
				if j > 0 {
					sb.WriteString(",")
				}
				fmt.Fprintf(&sb, " %%%d", arg)
			}
		}
		fmt.Fprintf(&sb, " : %s%s\n", d.dtype, d.shape)
	}
	if b.err != nil {
		fmt.Fprintf(&sb, "  error: %v\n", b.err)
	}
	return sb.String()
}

// formatLiteral prints scalar constants inline; larger literals are
// summarized by shape only.
func formatLiteral(t *tensor.RawTensor) string {
	if t == nil || !t.Shape().IsScalar() {
		return "<tensor>"
	}
	switch t.DType() {
	case tensor.Float32:
		return fmt.Sprintf("%v", t.AsFloat32()[0])
	case tensor.Float64:
		return fmt.Sprintf("%v", t.AsFloat64()[0])
	case tensor.Int32:
		return fmt.Sprintf("%d", t.AsInt32()[0])
	case tensor.Int64:
		return fmt.Sprintf("%d", t.AsInt64()[0])
	case tensor.Uint8:
		return fmt.Sprintf("%d", t.AsUint8()[0])
	case tensor.Bool:
		return fmt.Sprintf("%v", t.AsBool()[0])
	default:
		return "<tensor>"
	}
}
