// Copyright 2026 Weft ML Compiler. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for element types, shapes and
// raw tensor buffers in the Weft compiler.
//
// The package defines the data model expression graphs are built over:
//   - DataType: runtime element type of a tensor
//   - Shape: dimension sizes of a tensor
//   - RawTensor: flat buffer with shape and type information
//
// Example:
//
//	x, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3})
package tensor

import (
	"github.com/weft-ml/weft/internal/tensor"
)

// DType is a constraint for supported tensor element types.
type DType = tensor.DType

// DataType represents the underlying element type of a tensor.
type DataType = tensor.DataType

// Element type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
	Uint8   DataType = tensor.Uint8
	Bool    DataType = tensor.Bool
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
// The empty shape is a scalar.
type Shape = tensor.Shape

// RawTensor is the low-level tensor representation: a flat byte buffer
// plus shape and runtime type information.
type RawTensor = tensor.RawTensor

// NewRaw creates a new zero-initialized raw tensor.
func NewRaw(shape Shape, dtype DataType) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype)
}

// FromSlice creates a raw tensor from a Go slice.
//
// Example:
//
//	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
func FromSlice[T DType](data []T, shape Shape) (*RawTensor, error) {
	return tensor.FromSlice(data, shape)
}

// Scalar creates a zero-dimensional raw tensor holding a single value of
// the given element type.
func Scalar(dtype DataType, value float64) (*RawTensor, error) {
	return tensor.Scalar(dtype, value)
}
