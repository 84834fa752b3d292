// Package basis evaluates MPM interpolation weights and their gradients.
//
// Two schemes are provided:
//
//   - [Linear]: the standard MPM tent function with support 2h
//   - [GIMP]: the generalized interpolation basis for particles of finite
//     half-width lp, piecewise quadratic with support 2(h+lp)
//
// The offset passed to every function is particle position minus node
// position, so the returned derivative is the gradient with respect to the
// particle position.
//
// # Example
//
//	p := basis.Params{Scheme: basis.GIMP, Lp: tensor.Vec2{0.25, 0.25}}
//	f, dfx, dfy := p.Eval(xp-xn, yp-yn, hx, hy)
package basis
