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

// TransferFunction is the 7-parameter piecewise linear/power transfer
// function used throughout this package:
//
//	y = C*x + F        for |x| < D
//	y = (A*x + B)^G + E for |x| >= D
//
// with sign preserved: tf(x) = sign(x) * tf(|x|). A, C, D and G must be
// non-negative and every field must be finite for a TransferFunction to be
// valid.
type TransferFunction struct {
	G, A, B, C, D, E, F float64
}

// IdentityTF is the identity transfer function y = x.
var IdentityTF = TransferFunction{G: 1, A: 1, B: 0, C: 0, D: 0, E: 0, F: 0}

// Valid reports whether every field is finite and the sign/shape invariants
// from the data model hold (A, C, D, G >= 0).
func (tf TransferFunction) Valid() bool {
	fields := []float64{tf.G, tf.A, tf.B, tf.C, tf.D, tf.E, tf.F}
	for _, v := range fields {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return tf.A >= 0 && tf.C >= 0 && tf.D >= 0 && tf.G >= 0
}

// Eval evaluates the transfer function at x, preserving the sign of x.
func (tf TransferFunction) Eval(x float64) float64 {
	if x < 0 {
		return -tf.evalUnsigned(-x)
	}
	return tf.evalUnsigned(x)
}

func (tf TransferFunction) evalUnsigned(x float64) float64 {
	if x < tf.D {
		return tf.C*x + tf.F
	}
	base := tf.A*x + tf.B
	if base < 0 {
		return tf.E
	}
	return math.Pow(base, tf.G) + tf.E
}

// invertibleLinear reports whether the linear branch, when present, is
// invertible (requires C != 0).
func (tf TransferFunction) invertibleLinear() bool {
	return tf.D <= 0 || tf.C != 0
}

// invertibleNonlinear reports whether the nonlinear branch, when present, is
// invertible (requires A != 0 and G != 0).
func (tf TransferFunction) invertibleNonlinear() bool {
	return tf.D >= 1 || (tf.A != 0 && tf.G != 0)
}

// branchesAgree reports whether, when both branches are present, they agree
// at x=D within the given tolerance.
func (tf TransferFunction) branchesAgree(tol float64) bool {
	if tf.D <= 0 || tf.D >= 1 {
		return true
	}
	linear := tf.C*tf.D + tf.F
	base := tf.A*tf.D + tf.B
	var nonlinear float64
	if base < 0 {
		nonlinear = tf.E
	} else {
		nonlinear = math.Pow(base, tf.G) + tf.E
	}
	return math.Abs(linear-nonlinear) <= tol
}

// Invertible reports whether tf can be inverted (see data-model invariants
// in spec.md §3).
func (tf TransferFunction) Invertible() bool {
	return tf.Valid() && tf.invertibleLinear() && tf.invertibleNonlinear() && tf.branchesAgree(1.0/512)
}

// Invert computes the closed-form inverse of tf. It is only defined when
// tf.Invertible() holds.
//
// Forward nonlinear branch: y = (A*x+B)^G + E.
// Solving for x:            x = (A^-G * (y-E))^(1/G) - B/A
// which is itself of the canonical (A2*y+B2)^G2+E2 shape with:
//
//	G2 = 1/G,  A2 = A^-G,  B2 = -A2*E,  E2 = -B/A
func Invert(tf TransferFunction) (TransferFunction, error) {
	if !tf.Invertible() {
		return TransferFunction{}, badMath("transfer function is not invertible")
	}

	inv := TransferFunction{}

	// Invert the linear branch y = C*x + F  =>  x = y/C - F/C.
	if tf.D > 0 {
		inv.C = 1 / tf.C
		inv.F = -tf.F / tf.C
	} else {
		inv.C = 1
		inv.F = 0
	}

	// Invert the nonlinear branch, see doc comment above.
	if tf.D < 1 {
		inv.G = 1 / tf.G
		inv.A = math.Pow(tf.A, -tf.G)
		inv.B = -inv.A * tf.E
		inv.E = -tf.B / tf.A
	} else {
		inv.A = 1
		inv.B = 0
		inv.G = 1
		inv.E = 0
	}

	// D maps through the forward function.
	switch {
	case tf.D <= 0:
		inv.D = 0
	case tf.D >= 1:
		inv.D = 1
	default:
		inv.D = tf.Eval(tf.D)
	}

	if !inv.Valid() {
		return TransferFunction{}, badMath("inverted transfer function has non-finite or invalid fields")
	}
	return inv, nil
}

// CurveKind distinguishes the two representations a Curve may hold.
type CurveKind int

const (
	// CurveParametric means the curve is a TransferFunction.
	CurveParametric CurveKind = iota
	// CurveTable8 means the curve is an 8-bit sampled table.
	CurveTable8
	// CurveTable16 means the curve is a 16-bit big-endian sampled table.
	CurveTable16
)

// Curve represents a 1-D transfer curve as either a parametric
// TransferFunction or a sampled table borrowed from the profile's byte
// buffer. Entries == 0 iff the curve is parametric.
type Curve struct {
	Kind    CurveKind
	TF      TransferFunction
	Entries uint32
	// Data holds the raw table bytes (borrowed from the profile buffer): 1
	// byte per entry for CurveTable8, 2 big-endian bytes per entry for
	// CurveTable16.
	Data []byte
}

// ParametricCurve wraps tf as a Curve.
func ParametricCurve(tf TransferFunction) Curve {
	return Curve{Kind: CurveParametric, TF: tf}
}

// IdentityCurve is the canonical identity curve, encoded the way the
// canonicalization step in §4.5 produces it: parametric, entries == 0.
var IdentityCurve = ParametricCurve(IdentityTF)

// IsIdentity reports whether the curve is exactly the parametric identity.
func (c Curve) IsIdentity() bool {
	return c.Kind == CurveParametric && c.TF == IdentityTF
}

// Eval evaluates the curve at x, clamping table lookups to [0,1] as
// specified in §4.3.
func (c Curve) Eval(x float64) float64 {
	switch c.Kind {
	case CurveParametric:
		return c.TF.Eval(x)
	case CurveTable8:
		return evalTable(x, c.Data, 1)
	case CurveTable16:
		return evalTable(x, c.Data, 2)
	default:
		return x
	}
}

// evalTable performs the clamp -> scale -> floor -> lerp evaluation shared by
// 8-bit and 16-bit sampled tables. width is 1 or 2 bytes per entry.
func evalTable(x float64, data []byte, width int) float64 {
	n := len(data) / width
	if n == 0 {
		return x
	}
	if n == 1 {
		return sampleAt(data, width, 0)
	}

	x = clamp(x, 0, 1)
	pos := x * float64(n-1)
	lo := int(math.Floor(pos))
	if lo < 0 {
		lo = 0
	}
	if lo > n-2 {
		lo = n - 2
	}
	// "one-ULP-below-(floor+1)" trick: hi is lo+1, bounded to the table.
	hi := lo + 1
	if hi > n-1 {
		hi = n - 1
	}
	frac := pos - float64(lo)

	v0 := sampleAt(data, width, lo)
	v1 := sampleAt(data, width, hi)
	return v0 + frac*(v1-v0)
}

func sampleAt(data []byte, width, index int) float64 {
	if width == 1 {
		return float64(data[index]) / 255
	}
	v, _ := readU16BE(data, index*2)
	return float64(v) / 65535
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
