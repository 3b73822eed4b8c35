// Copyright 2026 Weft ML Compiler. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package lower provides the public API for the activation lowering
// table: a registry mapping operation names to functions that translate
// each operation into expression-builder calls.
//
// Example:
//
//	b := graph.NewBuilder("Relu")
//	x := b.Parameter("x", tensor.Shape{4}, tensor.Float32)
//	ctx := lower.NewContext(b, x)
//	if err := lower.NewRegistry().Lower(ctx, "Relu"); err != nil {
//	    return err
//	}
//	comp, err := b.Build(ctx.Output(0))
package lower

import (
	"github.com/weft-ml/weft/graph"
	"github.com/weft-ml/weft/internal/lower"
	"github.com/weft-ml/weft/tensor"
)

// LowerFunc translates one operation into builder calls on the context's
// graph.
type LowerFunc = lower.LowerFunc

// Context carries the builder and the operation's input handles, and
// collects the declared output handles.
type Context = lower.Context

// Registry maps operation names to lowering functions.
type Registry = lower.Registry

// NewRegistry creates a registry with all built-in lowerings installed.
func NewRegistry() *Registry {
	return lower.NewRegistry()
}

// NewContext creates a lowering context over the given builder and
// input expression handles.
func NewContext(b *graph.Builder, inputs ...graph.Node) *Context {
	return lower.NewContext(b, inputs...)
}

// Zero materializes a scalar zero constant of the given element type.
func Zero(b *graph.Builder, dtype tensor.DataType) graph.Node {
	return lower.Zero(b, dtype)
}

// One materializes a scalar one constant of the given element type.
func One(b *graph.Builder, dtype tensor.DataType) graph.Node {
	return lower.One(b, dtype)
}

// IntegerLiteral materializes an integer as a scalar constant of dtype,
// rejecting values outside the type's representable range.
func IntegerLiteral(b *graph.Builder, dtype tensor.DataType, v int64) graph.Node {
	return lower.IntegerLiteral(b, dtype, v)
}
