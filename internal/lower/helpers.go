package lower

import (
	"math"

	"github.com/weft-ml/weft/internal/graph"
	"github.com/weft-ml/weft/internal/tensor"
)

// Zero materializes a scalar zero constant of the given element type.
func Zero(b *graph.Builder, dtype tensor.DataType) graph.Node {
	return b.Scalar(dtype, 0)
}

// One materializes a scalar one constant of the given element type.
func One(b *graph.Builder, dtype tensor.DataType) graph.Node {
	return IntegerLiteral(b, dtype, 1)
}

// IntegerLiteral materializes the integer v as a scalar constant of
// dtype. Integer element types reject values outside their representable
// range rather than silently truncating, and int64 values are stored
// exactly rather than through the float64 path, which only carries
// integers up to 2^53.
func IntegerLiteral(b *graph.Builder, dtype tensor.DataType, v int64) graph.Node {
	if !dtype.IsFloat() && !dtype.IsInteger() {
		return b.Errorf("integer literal %d: no literal for %s", v, dtype)
	}
	switch dtype {
	case tensor.Int32:
		if v < math.MinInt32 || v > math.MaxInt32 {
			return b.Errorf("integer literal %d out of range for %s", v, dtype)
		}
	case tensor.Uint8:
		if v < 0 || v > math.MaxUint8 {
			return b.Errorf("integer literal %d out of range for %s", v, dtype)
		}
	case tensor.Int64:
		t, err := tensor.FromSlice([]int64{v}, tensor.Shape{})
		if err != nil {
			return b.Errorf("integer literal %d: %v", v, err)
		}
		return b.Constant(t)
	}
	return b.Scalar(dtype, float64(v))
}
