// seehuhn.de/go/icc - read and write ICC profiles
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package icc

import "math"

const fitSamples = 257 // N: number of sample points across [0,1]

// fitLinear walks the sample grid and finds the longest prefix that a single
// line through (0, curve(0)) fits within tol. It returns the fitted c, d, f
// and the number of points L the line covers.
func fitLinear(curve Curve, tol float64) (c, d, f float64, l int) {
	n := fitSamples
	dx := 1.0 / float64(n-1)
	f = curve.Eval(0)

	slopeMin := math.Inf(1)
	slopeMax := math.Inf(-1)
	lastGood := 0

	for i := 1; i < n; i++ {
		x := float64(i) * dx
		y := curve.Eval(x)
		slope := (y - f) / x
		loSlope := (y - tol - f) / x
		hiSlope := (y + tol - f) / x
		if loSlope > hiSlope {
			loSlope, hiSlope = hiSlope, loSlope
		}

		newMin := math.Max(slopeMin, loSlope)
		newMax := math.Min(slopeMax, hiSlope)
		if i == 1 {
			newMin, newMax = loSlope, hiSlope
		}
		if newMin > newMax {
			break
		}
		slopeMin, slopeMax = newMin, newMax

		if slope >= slopeMin && slope <= slopeMax {
			lastGood = i
		}
	}

	d = float64(lastGood) * dx
	if lastGood == 0 {
		c = 0
	} else {
		c = (curve.Eval(d) - f) / d
	}
	return c, d, f, lastGood + 1
}

// gnParams is the 3 parameters tuned by fitNonlinear: g, a, b. c, d, f come
// from fitLinear and stay fixed.
type gnParams struct {
	g, a, b float64
}

// fInv evaluates the nonlinear-branch roundtrip target:
//
//	f_inv(y) = (a*y+b)^g - (a*d+b)^g + c*d + f
func fInv(p gnParams, c, d, f, y float64) float64 {
	base := p.a*y + p.b
	baseD := p.a*d + p.b
	var t1, t2 float64
	if base < 0 {
		t1 = 0
	} else {
		t1 = float64(pow_(float32(base), float32(p.g)))
	}
	if baseD < 0 {
		t2 = 0
	} else {
		t2 = float64(pow_(float32(baseD), float32(p.g)))
	}
	return t1 - t2 + c*d + f
}

// fitNonlinear refines (g, a, b) with up to 3 Gauss-Newton steps against the
// inverse-roundtrip residual r(x) = x - f_inv(curve(x)), sampled over the
// tail [d, 1] of the curve (points L-1 .. N-1).
func fitNonlinear(curve Curve, l, n int, c, d, f float64, initial gnParams) gnParams {
	p := initial
	dx := 1.0 / float64(n-1)

	start := l - 1
	if start < 0 {
		start = 0
	}

	for step := 0; step < 3; step++ {
		var jtj [3][3]float64
		var jtr [3]float64

		for i := start; i < n; i++ {
			x := float64(i) * dx
			y := curve.Eval(x)
			r := x - fInv(p, c, d, f, y)

			// Analytic gradient of f_inv w.r.t. (g, a, b), in closed form via
			// log/power identities. The residual gradient is its negative, so
			// adding (J^T J)^-1 * sum(grad*r) below is the Gauss-Newton step.
			base := p.a*y + p.b
			baseD := p.a*d + p.b
			var powBase, logBase, powBaseD, logBaseD float64
			if base > 0 {
				logBase = float64(log_(float32(base)))
				powBase = float64(pow_(float32(base), float32(p.g)))
			}
			if baseD > 0 {
				logBaseD = float64(log_(float32(baseD)))
				powBaseD = float64(pow_(float32(baseD), float32(p.g)))
			}

			dG := powBase*logBase - powBaseD*logBaseD
			var dA, dB float64
			if base > 0 {
				dA += p.g * powBase / base * y
				dB += p.g * powBase / base
			}
			if baseD > 0 {
				dA -= p.g * powBaseD / baseD * d
				dB -= p.g * powBaseD / baseD
			}

			grad := [3]float64{dG, dA, dB}
			for row := 0; row < 3; row++ {
				jtr[row] += grad[row] * r
				for col := 0; col < 3; col++ {
					jtj[row][col] += grad[row] * grad[col]
				}
			}
		}

		delta, ok := solveNormalEquations(jtj, jtr)
		if !ok {
			break
		}

		p.g += delta[0]
		p.a += delta[1]
		p.b += delta[2]

		if p.a < 0 {
			p.a = 0
		}
		if p.a*d+p.b < 0 {
			p.b = -p.a * d
		}
	}
	return p
}

// solveNormalEquations inverts the 3x3 normal-equations matrix, replacing
// any all-zero row/column with the identity (pins that parameter for this
// step) before inverting, per the Gauss-Newton robustness note.
func solveNormalEquations(jtj [3][3]float64, jtr [3]float64) ([3]float64, bool) {
	var m Matrix3x3
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			m[row*3+col] = jtj[row][col]
		}
	}
	for row := 0; row < 3; row++ {
		allZero := true
		for col := 0; col < 3; col++ {
			if m[row*3+col] != 0 {
				allZero = false
				break
			}
		}
		if allZero {
			m[row*3+row] = 1
		}
	}
	for col := 0; col < 3; col++ {
		allZero := true
		for row := 0; row < 3; row++ {
			if m[row*3+col] != 0 {
				allZero = false
				break
			}
		}
		if allZero {
			m[col*3+col] = 1
		}
	}

	inv, err := invert3x3(m)
	if err != nil {
		return [3]float64{}, false
	}
	v := mulVec3x3(inv, jtr)
	return v, true
}

// maxRoundTripError computes sup_x |x - tf_inv(curve(x))| over the 257-point
// grid, used both to pick between fit candidates and to report max_error.
func maxRoundTripError(curve Curve, tf TransferFunction) (float64, error) {
	inv, err := Invert(tf)
	if err != nil {
		return 0, err
	}
	n := fitSamples
	maxErr := 0.0
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1)
		y := curve.Eval(x)
		got := inv.Eval(y)
		e := math.Abs(x - got)
		if e > maxErr {
			maxErr = e
		}
	}
	return maxErr, nil
}

// ApproximateCurve implements C7's approximate_curve: it tries two
// tolerances and returns the candidate parametric TF with the smallest
// round-trip error, along with that error.
func ApproximateCurve(curve Curve) (TransferFunction, float64, error) {
	tolerances := []float64{1.5 / 65535, 1.0 / 512}
	n := fitSamples

	var best TransferFunction
	bestErr := math.Inf(1)
	found := false

	for _, tol := range tolerances {
		tf, ok := approximateCurveOnce(curve, n, tol)
		if !ok {
			continue
		}
		errVal, err := maxRoundTripError(curve, tf)
		if err != nil {
			continue
		}
		if errVal < bestErr {
			best = tf
			bestErr = errVal
			found = true
		}
	}

	if !found {
		return TransferFunction{}, 0, degenerate("no candidate transfer function converged within tolerance")
	}
	return best, bestErr, nil
}

func approximateCurveOnce(curve Curve, n int, tol float64) (TransferFunction, bool) {
	c, d, f, l := fitLinear(curve, tol)

	if l == n {
		// purely linear
		tf := TransferFunction{G: 1, A: c, B: f, C: c, D: 0, E: 0, F: f}
		return tf, tf.Valid()
	}

	if l == n-1 {
		// degenerate: two points left, solve directly
		x0 := float64(n-2) / float64(n-1)
		x1 := 1.0
		y0 := curve.Eval(x0)
		y1 := curve.Eval(x1)
		if x1 == x0 {
			return TransferFunction{}, false
		}
		a := (y1 - y0) / (x1 - x0)
		if a == 0 {
			return TransferFunction{}, false
		}
		b := y0 - a*x0
		tf := TransferFunction{G: 1, A: a, B: b, C: c, D: d, E: 0, F: f}
		return tf, tf.Valid()
	}

	mid := (l + n) / 2
	xMid := float64(mid) / float64(n-1)
	yMid := curve.Eval(xMid)
	if xMid <= 0 || xMid >= 1 || yMid <= 0 {
		return TransferFunction{}, false
	}
	g0 := float64(log2_(float32(yMid)) / log2_(float32(xMid)))
	if math.IsNaN(g0) || math.IsInf(g0, 0) || g0 == 0 {
		g0 = 1
	}

	// fitNonlinear's (g, a, b) parametrize the inverse curve (its residual is
	// x - f_inv(curve(x))), so the forward guess is inverted before fitting
	// and the fitted inverse is inverted back. E keeps both branches
	// continuous at D.
	guess := TransferFunction{G: g0, A: 1, C: c, D: d, F: f}
	guess.E = c*d + f - float64(pow_(float32(d), float32(g0)))
	tfInv, err := Invert(guess)
	if err != nil {
		return TransferFunction{}, false
	}
	refined := fitNonlinear(curve, l, n, tfInv.C, tfInv.D, tfInv.F, gnParams{g: tfInv.G, a: tfInv.A, b: tfInv.B})
	tfInv.G, tfInv.A, tfInv.B = refined.g, refined.a, refined.b
	tfInv.E = tfInv.C*tfInv.D + tfInv.F - float64(pow_(float32(tfInv.A*tfInv.D+tfInv.B), float32(tfInv.G)))
	tf, err := Invert(tfInv)
	if err != nil || !tf.Valid() || !tf.Invertible() {
		return TransferFunction{}, false
	}
	return tf, true
}
