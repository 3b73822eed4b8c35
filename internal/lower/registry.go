package lower

import (
	"fmt"

	"github.com/weft-ml/weft/internal/graph"
	"github.com/weft-ml/weft/internal/tensor"
)

// LowerFunc translates one operation into builder calls on the context's
// graph. It is pure apart from graph construction: no state, no I/O.
type LowerFunc func(ctx *Context) error

// Context carries the builder and the operation's pre-validated input
// handles, and collects the output handles the lowering declares.
type Context struct {
	builder *graph.Builder
	inputs  []graph.Node
	outputs []graph.Node
}

// NewContext creates a lowering context over the given builder and
// input expression handles.
func NewContext(b *graph.Builder, inputs ...graph.Node) *Context {
	return &Context{
		builder: b,
		inputs:  inputs,
	}
}

// Builder returns the graph builder lowering appends to.
func (ctx *Context) Builder() *graph.Builder {
	return ctx.builder
}

// NumInputs returns the number of input handles.
func (ctx *Context) NumInputs() int {
	return len(ctx.inputs)
}

// Input returns the i-th input expression handle.
func (ctx *Context) Input(i int) graph.Node {
	return ctx.inputs[i]
}

// InputType returns the element type of the i-th input.
func (ctx *Context) InputType(i int) tensor.DataType {
	return ctx.builder.DType(ctx.inputs[i])
}

// InputShape returns the tensor shape of the i-th input.
func (ctx *Context) InputShape(i int) tensor.Shape {
	return ctx.builder.Shape(ctx.inputs[i])
}

// SetOutput declares the expression handle for output slot i.
func (ctx *Context) SetOutput(i int, n graph.Node) {
	for len(ctx.outputs) <= i {
		ctx.outputs = append(ctx.outputs, graph.Node{})
	}
	ctx.outputs[i] = n
}

// NumOutputs returns the number of declared output slots.
func (ctx *Context) NumOutputs() int {
	return len(ctx.outputs)
}

// Output returns the expression handle declared for output slot i.
func (ctx *Context) Output(i int) graph.Node {
	return ctx.outputs[i]
}

// Registry maps operation names to lowering functions.
type Registry struct {
	handlers map[string]LowerFunc
}

// NewRegistry creates a registry with all built-in lowerings installed.
// Registration is an explicit step here, not an init-time side effect,
// so hosts control exactly when and what gets registered.
func NewRegistry() *Registry {
	r := &Registry{
		handlers: make(map[string]LowerFunc),
	}
	r.registerActivations()
	return r
}

// Register adds a lowering under the given operation name, replacing any
// previous entry.
func (r *Registry) Register(opName string, fn LowerFunc) {
	r.handlers[opName] = fn
}

// Get returns the lowering for an operation name.
func (r *Registry) Get(opName string) (LowerFunc, bool) {
	fn, ok := r.handlers[opName]
	return fn, ok
}

// Lower runs the lowering registered under opName against ctx.
func (r *Registry) Lower(ctx *Context, opName string) error {
	fn, ok := r.handlers[opName]
	if !ok {
		return fmt.Errorf("unsupported operation: %s", opName)
	}
	return fn(ctx)
}

// SupportedOps returns a list of all registered operation names.
func (r *Registry) SupportedOps() []string {
	ops := make([]string, 0, len(r.handlers))
	for op := range r.handlers {
		ops = append(ops, op)
	}
	return ops
}
