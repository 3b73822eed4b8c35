// Package lower implements the activation lowering table: a registry of
// operation names mapped to functions that translate each operation into
// a fixed sequence of expression-builder calls.
//
// Each lowering is a pure translation step. It receives pre-validated
// input handles through a Context, appends max/clamp/broadcast/compare/
// select nodes to the caller-owned builder, and declares one output
// handle per output slot. Constants are materialized in the element type
// of the operation's first input.
//
// The forward activations (Relu, Relu6, Relu1) use closed-interval
// clamping; their gradients (ReluGrad, Relu6Grad, Relu1Grad) use
// open-interval masks, so the gradient is zero exactly at the bounds.
package lower
