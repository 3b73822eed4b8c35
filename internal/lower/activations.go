package lower

import "fmt"

// registerActivations adds the element-wise activation lowerings and
// their gradients to the registry.
func (r *Registry) registerActivations() {
	r.Register("Relu", lowerRelu)
	r.Register("Relu6", lowerRelu6)
	r.Register("Relu1", lowerRelu1)
	r.Register("ReluGrad", lowerReluGrad)
	r.Register("Relu6Grad", lowerRelu6Grad)
	r.Register("Relu1Grad", lowerRelu1Grad)
}

// lowerRelu computes max(0, x).
func lowerRelu(ctx *Context) error {
	if err := wantInputs(ctx, 1); err != nil {
		return err
	}
	b := ctx.Builder()
	zero := Zero(b, ctx.InputType(0))
	ctx.SetOutput(0, b.Max(zero, ctx.Input(0)))
	return b.Err()
}

// lowerRelu6 clamps x between 0 and 6.
func lowerRelu6(ctx *Context) error {
	return lowerClampActivation(ctx, 6)
}

// lowerRelu1 clamps x between 0 and 1.
func lowerRelu1(ctx *Context) error {
	return lowerClampActivation(ctx, 1)
}

// lowerClampActivation lowers the forward bounded activations: the input
// is clamped to the closed interval [0, upper], so x == 0 and x == upper
// pass through unchanged.
func lowerClampActivation(ctx *Context, upper int64) error {
	if err := wantInputs(ctx, 1); err != nil {
		return err
	}
	b := ctx.Builder()
	dtype := ctx.InputType(0)
	zero := Zero(b, dtype)
	bound := IntegerLiteral(b, dtype, upper)
	ctx.SetOutput(0, b.Clamp(zero, ctx.Input(0), bound))
	return b.Err()
}

// lowerReluGrad passes the incoming gradient (input 0) through where the
// forward feature (input 1) was strictly positive, and zero elsewhere.
// Select does not broadcast, so the zero constant is broadcast to the
// full tensor shape before the comparison.
func lowerReluGrad(ctx *Context) error {
	if err := wantInputs(ctx, 2); err != nil {
		return err
	}
	b := ctx.Builder()
	shape := ctx.InputShape(0)
	zero := b.Broadcast(Zero(b, ctx.InputType(0)), shape)
	pred := b.Greater(ctx.Input(1), zero)
	ctx.SetOutput(0, b.Select(pred, ctx.Input(0), zero))
	return b.Err()
}

// lowerRelu6Grad keeps the gradient where the feature lies strictly
// inside (0, 6).
func lowerRelu6Grad(ctx *Context) error {
	return lowerBoundedGrad(ctx, 6)
}

// lowerRelu1Grad keeps the gradient where the feature lies strictly
// inside (0, 1).
func lowerRelu1Grad(ctx *Context) error {
	return lowerBoundedGrad(ctx, 1)
}

// lowerBoundedGrad lowers the gradient of a bounded activation: the
// incoming gradient (input 0) survives only where the forward feature
// (input 1) lies strictly inside (0, upper). Both bounds are open here,
// unlike the closed clamp of the forward forms: at the feature values 0
// and upper the forward output is constant, so the gradient is zero.
// The built select expression is assigned to output slot 0 explicitly.
func lowerBoundedGrad(ctx *Context, upper int64) error {
	if err := wantInputs(ctx, 2); err != nil {
		return err
	}
	b := ctx.Builder()
	shape := ctx.InputShape(0)
	dtype := ctx.InputType(0)
	zero := b.Broadcast(Zero(b, dtype), shape)
	bound := b.Broadcast(IntegerLiteral(b, dtype, upper), shape)
	feature := ctx.Input(1)
	inside := b.And(b.Less(feature, bound), b.Greater(feature, zero))
	ctx.SetOutput(0, b.Select(inside, ctx.Input(0), zero))
	return b.Err()
}

// wantInputs checks the operation arity. Inputs are pre-validated by the
// host, so a mismatch is a programming error at the call site.
func wantInputs(ctx *Context, n int) error {
	if ctx.NumInputs() != n {
		return fmt.Errorf("expected %d inputs, got %d", n, ctx.NumInputs())
	}
	return nil
}
