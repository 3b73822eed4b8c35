package lower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weft-ml/weft/internal/graph"
	"github.com/weft-ml/weft/internal/tensor"
)

// runUnary lowers a single-input operation over the given feed, builds
// the computation and executes it on the reference evaluator.
func runUnary(t *testing.T, opName string, input *tensor.RawTensor) *tensor.RawTensor {
	t.Helper()

	b := graph.NewBuilder(opName)
	x := b.Parameter("x", input.Shape(), input.DType())
	ctx := NewContext(b, x)
	require.NoError(t, NewRegistry().Lower(ctx, opName))
	require.Equal(t, 1, ctx.NumOutputs(), "each operation declares exactly one output")

	comp, err := b.Build(ctx.Output(0))
	require.NoError(t, err)

	out, err := comp.Execute(map[string]*tensor.RawTensor{"x": input})
	require.NoError(t, err)
	return out
}

// runGrad lowers a (gradient, feature) operation and executes it.
func runGrad(t *testing.T, opName string, gradient, feature *tensor.RawTensor) *tensor.RawTensor {
	t.Helper()

	b := graph.NewBuilder(opName)
	g := b.Parameter("gradient", gradient.Shape(), gradient.DType())
	f := b.Parameter("feature", feature.Shape(), feature.DType())
	ctx := NewContext(b, g, f)
	require.NoError(t, NewRegistry().Lower(ctx, opName))
	require.Equal(t, 1, ctx.NumOutputs(), "each operation declares exactly one output")

	comp, err := b.Build(ctx.Output(0))
	require.NoError(t, err)

	out, err := comp.Execute(map[string]*tensor.RawTensor{
		"gradient": gradient,
		"feature":  feature,
	})
	require.NoError(t, err)
	return out
}

func float32Feed(t *testing.T, data []float32) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.FromSlice(data, tensor.Shape{len(data)})
	require.NoError(t, err)
	return r
}

func TestRelu(t *testing.T) {
	in := float32Feed(t, []float32{-3, -0.5, 0, 0.5, 7})
	out := runUnary(t, "Relu", in)
	assert.Equal(t, []float32{0, 0, 0, 0.5, 7}, out.AsFloat32())
}

func TestRelu6(t *testing.T) {
	in := float32Feed(t, []float32{-3, 0, 3, 6, 9})
	out := runUnary(t, "Relu6", in)
	assert.Equal(t, []float32{0, 0, 3, 6, 6}, out.AsFloat32())
}

func TestRelu1(t *testing.T) {
	in := float32Feed(t, []float32{-1, 0, 0.25, 1, 2})
	out := runUnary(t, "Relu1", in)
	assert.Equal(t, []float32{0, 0, 0.25, 1, 1}, out.AsFloat32())
}

func TestReluGrad(t *testing.T) {
	grad := float32Feed(t, []float32{10, 20, 30, 40})
	feature := float32Feed(t, []float32{-1, 0, 0.5, 2})
	out := runGrad(t, "ReluGrad", grad, feature)
	assert.Equal(t, []float32{0, 0, 30, 40}, out.AsFloat32())
}

func TestRelu6Grad(t *testing.T) {
	grad := float32Feed(t, []float32{10, 20, 30, 40, 50})
	feature := float32Feed(t, []float32{-1, 0, 3, 6, 7})
	out := runGrad(t, "Relu6Grad", grad, feature)
	assert.Equal(t, []float32{0, 0, 30, 0, 0}, out.AsFloat32())
}

func TestRelu1Grad(t *testing.T) {
	grad := float32Feed(t, []float32{10, 20, 30, 40, 50})
	feature := float32Feed(t, []float32{-1, 0, 0.5, 1, 2})
	out := runGrad(t, "Relu1Grad", grad, feature)
	assert.Equal(t, []float32{0, 0, 30, 0, 0}, out.AsFloat32())
}

// TestBoundaryAsymmetry pins the open/closed interval asymmetry: the
// forward clamp passes the bound value through, while the gradient at
// the same feature value is zero.
func TestBoundaryAsymmetry(t *testing.T) {
	atSix := float32Feed(t, []float32{6})
	assert.Equal(t, []float32{6}, runUnary(t, "Relu6", atSix).AsFloat32())

	grad := float32Feed(t, []float32{42})
	assert.Equal(t, []float32{0}, runGrad(t, "Relu6Grad", grad, atSix).AsFloat32())

	atOne := float32Feed(t, []float32{1})
	assert.Equal(t, []float32{1}, runUnary(t, "Relu1", atOne).AsFloat32())
	assert.Equal(t, []float32{0}, runGrad(t, "Relu1Grad", grad, atOne).AsFloat32())

	atZero := float32Feed(t, []float32{0})
	assert.Equal(t, []float32{0}, runUnary(t, "Relu", atZero).AsFloat32())
	assert.Equal(t, []float32{0}, runGrad(t, "ReluGrad", grad, atZero).AsFloat32())
}

// TestRelu1GradOutputWiring pins the output wiring of the bounded
// gradient lowering: the built select expression must land in output
// slot 0, matching the observed output of the reference implementation,
// where the last-built expression becomes the computation root.
func TestRelu1GradOutputWiring(t *testing.T) {
	b := graph.NewBuilder("Relu1Grad")
	g := b.Parameter("gradient", tensor.Shape{3}, tensor.Float32)
	f := b.Parameter("feature", tensor.Shape{3}, tensor.Float32)
	ctx := NewContext(b, g, f)
	require.NoError(t, NewRegistry().Lower(ctx, "Relu1Grad"))

	require.Equal(t, 1, ctx.NumOutputs())
	out := ctx.Output(0)
	require.True(t, out.Valid())
	assert.Equal(t, tensor.Float32, b.DType(out))
	assert.True(t, b.Shape(out).Equal(tensor.Shape{3}))

	// The declared output must be the select expression itself: building
	// from it and executing yields the masked gradient, not an earlier
	// intermediate such as the bare comparison or the broadcast zero.
	comp, err := b.Build(out)
	require.NoError(t, err)

	gradFeed := float32Feed(t, []float32{10, 20, 30})
	featFeed := float32Feed(t, []float32{0, 0.5, 1})
	res, err := comp.Execute(map[string]*tensor.RawTensor{
		"gradient": gradFeed,
		"feature":  featFeed,
	})
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 20, 0}, res.AsFloat32())
}

// TestTypePreservation checks that every variant produces an output of
// its first input's element type.
func TestTypePreservation(t *testing.T) {
	dtypes := []tensor.DataType{
		tensor.Float32, tensor.Float64, tensor.Int32, tensor.Int64, tensor.Uint8,
	}

	for _, dt := range dtypes {
		for _, opName := range []string{"Relu", "Relu6", "Relu1"} {
			b := graph.NewBuilder(opName)
			x := b.Parameter("x", tensor.Shape{2, 3}, dt)
			ctx := NewContext(b, x)
			require.NoError(t, NewRegistry().Lower(ctx, opName), "%s/%s", opName, dt)
			assert.Equal(t, dt, b.DType(ctx.Output(0)), "%s/%s", opName, dt)
		}

		for _, opName := range []string{"ReluGrad", "Relu6Grad", "Relu1Grad"} {
			b := graph.NewBuilder(opName)
			g := b.Parameter("gradient", tensor.Shape{2, 3}, dt)
			f := b.Parameter("feature", tensor.Shape{2, 3}, dt)
			ctx := NewContext(b, g, f)
			require.NoError(t, NewRegistry().Lower(ctx, opName), "%s/%s", opName, dt)
			assert.Equal(t, dt, b.DType(ctx.Output(0)), "%s/%s", opName, dt)
		}
	}
}

// TestShapePreservation checks that every variant preserves the input
// tensor shape.
func TestShapePreservation(t *testing.T) {
	shape := tensor.Shape{2, 3, 4}

	for _, opName := range []string{"Relu", "Relu6", "Relu1"} {
		b := graph.NewBuilder(opName)
		x := b.Parameter("x", shape, tensor.Float32)
		ctx := NewContext(b, x)
		require.NoError(t, NewRegistry().Lower(ctx, opName))
		assert.True(t, b.Shape(ctx.Output(0)).Equal(shape), opName)
	}

	for _, opName := range []string{"ReluGrad", "Relu6Grad", "Relu1Grad"} {
		b := graph.NewBuilder(opName)
		g := b.Parameter("gradient", shape, tensor.Float32)
		f := b.Parameter("feature", shape, tensor.Float32)
		ctx := NewContext(b, g, f)
		require.NoError(t, NewRegistry().Lower(ctx, opName))
		assert.True(t, b.Shape(ctx.Output(0)).Equal(shape), opName)
	}
}

func TestIntegerRelu6(t *testing.T) {
	in, err := tensor.FromSlice([]int32{-5, 0, 4, 6, 100}, tensor.Shape{5})
	require.NoError(t, err)

	out := runUnary(t, "Relu6", in)
	assert.Equal(t, tensor.Int32, out.DType())
	assert.Equal(t, []int32{0, 0, 4, 6, 6}, out.AsInt32())
}

func TestFloat64ReluGrad(t *testing.T) {
	grad, err := tensor.FromSlice([]float64{1.5, 2.5, 3.5}, tensor.Shape{3})
	require.NoError(t, err)
	feature, err := tensor.FromSlice([]float64{-0.1, 0, 0.1}, tensor.Shape{3})
	require.NoError(t, err)

	out := runGrad(t, "ReluGrad", grad, feature)
	assert.Equal(t, tensor.Float64, out.DType())
	assert.Equal(t, []float64{0, 0, 3.5}, out.AsFloat64())
}

func TestLowerWrongArity(t *testing.T) {
	b := graph.NewBuilder("Relu")
	x := b.Parameter("x", tensor.Shape{2}, tensor.Float32)
	y := b.Parameter("y", tensor.Shape{2}, tensor.Float32)
	ctx := NewContext(b, x, y)

	err := NewRegistry().Lower(ctx, "Relu")
	assert.ErrorContains(t, err, "expected 1 inputs")
}

func TestGradLowersMultidimensional(t *testing.T) {
	gradData := []float32{1, 2, 3, 4, 5, 6}
	featData := []float32{-1, 0, 1, 5, 6, 7}

	grad, err := tensor.FromSlice(gradData, tensor.Shape{2, 3})
	require.NoError(t, err)
	feature, err := tensor.FromSlice(featData, tensor.Shape{2, 3})
	require.NoError(t, err)

	out := runGrad(t, "Relu6Grad", grad, feature)
	assert.True(t, out.Shape().Equal(tensor.Shape{2, 3}))
	assert.Equal(t, []float32{0, 0, 3, 4, 0, 0}, out.AsFloat32())
}
