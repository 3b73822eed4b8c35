// Copyright 2026 Weft ML Compiler. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package graph provides the public API for the Weft expression builder.
//
// A Builder incrementally constructs an element-wise computation graph
// and hands out opaque Node handles for each expression. Construction
// errors are deferred: the first invalid call is recorded on the builder
// and surfaced by Err or Build.
//
// Example:
//
//	b := graph.NewBuilder("relu")
//	x := b.Parameter("x", tensor.Shape{4}, tensor.Float32)
//	zero := b.Scalar(tensor.Float32, 0)
//	comp, err := b.Build(b.Max(zero, x))
package graph

import (
	"github.com/weft-ml/weft/internal/graph"
)

// Node is an opaque handle to an expression in a Builder's graph.
type Node = graph.Node

// OpKind identifies a primitive operation in the expression graph.
type OpKind = graph.OpKind

// Primitive operations.
const (
	OpParameter OpKind = graph.OpParameter
	OpConstant  OpKind = graph.OpConstant
	OpBroadcast OpKind = graph.OpBroadcast
	OpMax       OpKind = graph.OpMax
	OpMin       OpKind = graph.OpMin
	OpClamp     OpKind = graph.OpClamp
	OpGreater   OpKind = graph.OpGreater
	OpLess      OpKind = graph.OpLess
	OpAnd       OpKind = graph.OpAnd
	OpSelect    OpKind = graph.OpSelect
)

// Builder incrementally constructs a computation graph.
// It is single-writer: each compilation owns its builder.
type Builder = graph.Builder

// Computation is a finalized expression graph with a single output root,
// executable on the reference evaluator.
type Computation = graph.Computation

// NewBuilder creates an empty builder for a computation with the given name.
func NewBuilder(name string) *Builder {
	return graph.NewBuilder(name)
}
