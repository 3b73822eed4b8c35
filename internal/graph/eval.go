package graph

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/weft-ml/weft/internal/tensor"
)

// Computation is a finalized expression graph with a single output root.
// It is immutable and safe for concurrent Execute calls.
type Computation struct {
	id    uuid.UUID
	name  string
	nodes []nodeData
	root  int
	shape tensor.Shape
	dtype tensor.DataType
}

// Name returns the computation name.
func (c *Computation) Name() string {
	return c.name
}

// ID returns the identity inherited from the builder.
func (c *Computation) ID() uuid.UUID {
	return c.id
}

// OutputShape returns the shape of the computation's output.
func (c *Computation) OutputShape() tensor.Shape {
	return c.shape
}

// OutputDType returns the element type of the computation's output.
func (c *Computation) OutputDType() tensor.DataType {
	return c.dtype
}

// Execute interprets the graph over the given parameter feeds, keyed by
// parameter name. This is a reference evaluator: every node is computed
// element-wise in order, with no fusion or device dispatch.
func (c *Computation) Execute(feeds map[string]*tensor.RawTensor) (*tensor.RawTensor, error) {
	results := make([]*tensor.RawTensor, c.root+1)

	for i := 0; i <= c.root; i++ {
		d := &c.nodes[i]
		out, err := c.eval(d, results, feeds)
		if err != nil {
			return nil, fmt.Errorf("%s: node %%%d (%s): %w", c.name, i, d.kind, err)
		}
		results[i] = out
	}
	return results[c.root], nil
}

// eval computes a single node from its already-computed arguments.
func (c *Computation) eval(d *nodeData, results []*tensor.RawTensor, feeds map[string]*tensor.RawTensor) (*tensor.RawTensor, error) {
	switch d.kind {
	case OpParameter:
		fed, ok := feeds[d.name]
		if !ok {
			return nil, fmt.Errorf("no feed for parameter %q", d.name)
		}
		if !fed.Shape().Equal(d.shape) {
			return nil, fmt.Errorf("parameter %q: fed shape %v, declared %v", d.name, fed.Shape(), d.shape)
		}
		if fed.DType() != d.dtype {
			return nil, fmt.Errorf("parameter %q: fed dtype %s, declared %s", d.name, fed.DType(), d.dtype)
		}
		return fed, nil

	case OpConstant:
		return d.literal, nil

	case OpBroadcast:
		return evalBroadcast(results[d.args[0]], d.shape)

	case OpMax:
		return evalNumericBinary(results[d.args[0]], results[d.args[1]], d, func(x, y float64) float64 {
			if x > y {
				return x
			}
			return y
		})

	case OpMin:
		return evalNumericBinary(results[d.args[0]], results[d.args[1]], d, func(x, y float64) float64 {
			if x < y {
				return x
			}
			return y
		})

	case OpClamp:
		return evalClamp(results[d.args[0]], results[d.args[1]], results[d.args[2]], d)

	case OpGreater:
		return evalCompare(results[d.args[0]], results[d.args[1]], d, func(x, y float64) bool {
			return x > y
		})

	case OpLess:
		return evalCompare(results[d.args[0]], results[d.args[1]], d, func(x, y float64) bool {
			return x < y
		})

	case OpAnd:
		return evalAnd(results[d.args[0]], results[d.args[1]], d)

	case OpSelect:
		return evalSelect(results[d.args[0]], results[d.args[1]], results[d.args[2]])

	default:
		return nil, fmt.Errorf("unknown op kind %d", d.kind)
	}
}

// evalBroadcast replicates a scalar across the target shape.
func evalBroadcast(x *tensor.RawTensor, shape tensor.Shape) (*tensor.RawTensor, error) {
	out, err := tensor.NewRaw(shape, x.DType())
	if err != nil {
		return nil, err
	}

	elem := x.DType().Size()
	src := x.Data()[:elem]
	dst := out.Data()
	for i := 0; i < out.NumElements(); i++ {
		copy(dst[i*elem:(i+1)*elem], src)
	}
	return out, nil
}

// evalNumericBinary applies op element-wise, broadcasting a scalar
// operand. Values round-trip through float64, which is exact for every
// supported dtype at the magnitudes constant literals use.
func evalNumericBinary(a, b *tensor.RawTensor, d *nodeData, op func(x, y float64) float64) (*tensor.RawTensor, error) {
	out, err := tensor.NewRaw(d.shape, d.dtype)
	if err != nil {
		return nil, err
	}

	av, bv := toFloat64(a), toFloat64(b)
	res := make([]float64, out.NumElements())
	for i := range res {
		res[i] = op(av[scalarIndex(i, a)], bv[scalarIndex(i, b)])
	}
	fromFloat64(res, out)
	return out, nil
}

// evalClamp computes min(max(x, lo), hi) element-wise.
func evalClamp(lo, x, hi *tensor.RawTensor, d *nodeData) (*tensor.RawTensor, error) {
	out, err := tensor.NewRaw(d.shape, d.dtype)
	if err != nil {
		return nil, err
	}

	lov, xv, hiv := toFloat64(lo), toFloat64(x), toFloat64(hi)
	res := make([]float64, out.NumElements())
	for i := range res {
		v := xv[i]
		if l := lov[scalarIndex(i, lo)]; v < l {
			v = l
		}
		if h := hiv[scalarIndex(i, hi)]; v > h {
			v = h
		}
		res[i] = v
	}
	fromFloat64(res, out)
	return out, nil
}

// evalCompare applies a predicate element-wise, producing a bool tensor.
func evalCompare(a, b *tensor.RawTensor, d *nodeData, pred func(x, y float64) bool) (*tensor.RawTensor, error) {
	out, err := tensor.NewRaw(d.shape, tensor.Bool)
	if err != nil {
		return nil, err
	}

	av, bv := toFloat64(a), toFloat64(b)
	dst := out.AsBool()
	for i := range dst {
		dst[i] = pred(av[scalarIndex(i, a)], bv[scalarIndex(i, b)])
	}
	return out, nil
}

// evalAnd computes the logical conjunction of two bool tensors.
func evalAnd(a, b *tensor.RawTensor, d *nodeData) (*tensor.RawTensor, error) {
	out, err := tensor.NewRaw(d.shape, tensor.Bool)
	if err != nil {
		return nil, err
	}

	av, bv := a.AsBool(), b.AsBool()
	dst := out.AsBool()
	for i := range dst {
		dst[i] = av[scalarIndex(i, a)] && bv[scalarIndex(i, b)]
	}
	return out, nil
}

// evalSelect picks elements byte-wise from onTrue or onFalse, so values
// survive exactly regardless of dtype.
func evalSelect(pred, onTrue, onFalse *tensor.RawTensor) (*tensor.RawTensor, error) {
	out, err := tensor.NewRaw(onTrue.Shape(), onTrue.DType())
	if err != nil {
		return nil, err
	}

	p := pred.AsBool()
	elem := onTrue.DType().Size()
	tData, fData, dst := onTrue.Data(), onFalse.Data(), out.Data()
	for i := range p {
		src := fData
		if p[i] {
			src = tData
		}
		copy(dst[i*elem:(i+1)*elem], src[i*elem:(i+1)*elem])
	}
	return out, nil
}

// scalarIndex maps an output element index onto an operand, collapsing
// scalar operands to their single element.
func scalarIndex(i int, t *tensor.RawTensor) int {
	if t.Shape().IsScalar() {
		return 0
	}
	return i
}

// toFloat64 widens a numeric tensor's elements to float64.
func toFloat64(t *tensor.RawTensor) []float64 {
	switch t.DType() {
	case tensor.Float32:
		src := t.AsFloat32()
		dst := make([]float64, len(src))
		for i, v := range src {
			dst[i] = float64(v)
		}
		return dst
	case tensor.Float64:
		return t.AsFloat64()
	case tensor.Int32:
		src := t.AsInt32()
		dst := make([]float64, len(src))
		for i, v := range src {
			dst[i] = float64(v)
		}
		return dst
	case tensor.Int64:
		src := t.AsInt64()
		dst := make([]float64, len(src))
		for i, v := range src {
			dst[i] = float64(v)
		}
		return dst
	case tensor.Uint8:
		src := t.AsUint8()
		dst := make([]float64, len(src))
		for i, v := range src {
			dst[i] = float64(v)
		}
		return dst
	default:
		panic(fmt.Sprintf("unsupported dtype: %s", t.DType()))
	}
}

// fromFloat64 narrows float64 values back into the tensor's dtype.
func fromFloat64(src []float64, t *tensor.RawTensor) {
	switch t.DType() {
	case tensor.Float32:
		dst := t.AsFloat32()
		for i, v := range src {
			dst[i] = float32(v)
		}
	case tensor.Float64:
		copy(t.AsFloat64(), src)
	case tensor.Int32:
		dst := t.AsInt32()
		for i, v := range src {
			dst[i] = int32(v)
		}
	case tensor.Int64:
		dst := t.AsInt64()
		for i, v := range src {
			dst[i] = int64(v)
		}
	case tensor.Uint8:
		dst := t.AsUint8()
		for i, v := range src {
			dst[i] = uint8(v)
		}
	}
}
