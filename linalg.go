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

import (
	"math"
)

// Matrix3x3 is a row-major 3x3 matrix.
type Matrix3x3 [9]float64

// Matrix3x4 is a 3x3 matrix plus a translation column, row-major.
type Matrix3x4 [12]float64

var identity3x3 = Matrix3x3{1, 0, 0, 0, 1, 0, 0, 0, 1}
var identity3x4 = Matrix3x4{1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0}

// invert3x3 inverts m using double-precision cofactor expansion. It fails if
// the determinant is zero, if 1/det is not finite, or if any resulting entry
// is not finite.
func invert3x3(m Matrix3x3) (Matrix3x3, error) {
	a, b, c := m[0], m[1], m[2]
	d, e, f := m[3], m[4], m[5]
	g, h, i := m[6], m[7], m[8]

	det := a*(e*i-f*h) - b*(d*i-f*g) + c*(d*h-e*g)
	invDet := 1.0 / det
	if math.IsInf(invDet, 0) || math.IsNaN(invDet) {
		return Matrix3x3{}, badMath("singular 3x3 matrix")
	}

	out := Matrix3x3{
		(e*i - f*h) * invDet, (c*h - b*i) * invDet, (b*f - c*e) * invDet,
		(f*g - d*i) * invDet, (a*i - c*g) * invDet, (c*d - a*f) * invDet,
		(d*h - e*g) * invDet, (b*g - a*h) * invDet, (a*e - b*d) * invDet,
	}
	for _, v := range out {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return Matrix3x3{}, badMath("non-finite entry in inverted matrix")
		}
	}
	return out, nil
}

// concat3x3 returns the matrix product a*b (apply b first, then a).
func concat3x3(a, b Matrix3x3) Matrix3x3 {
	var out Matrix3x3
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += a[row*3+k] * b[k*3+col]
			}
			out[row*3+col] = sum
		}
	}
	return out
}

// mulVec3x3 multiplies a 3x3 matrix by a column vector.
func mulVec3x3(m Matrix3x3, v [3]float64) [3]float64 {
	return [3]float64{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[3]*v[0] + m[4]*v[1] + m[5]*v[2],
		m[6]*v[0] + m[7]*v[1] + m[8]*v[2],
	}
}

// mulVec3x4 multiplies a 3x4 matrix (3x3 plus translation) by a column vector.
func mulVec3x4(m Matrix3x4, v [3]float64) [3]float64 {
	return [3]float64{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2] + m[9],
		m[3]*v[0] + m[4]*v[1] + m[5]*v[2] + m[10],
		m[6]*v[0] + m[7]*v[1] + m[8]*v[2] + m[11],
	}
}

func isIdentity3x3(m Matrix3x3, tol float64) bool {
	for i := range m {
		if math.Abs(m[i]-identity3x3[i]) > tol {
			return false
		}
	}
	return true
}

func isIdentity3x4(m Matrix3x4, tol float64) bool {
	for i := range m {
		if math.Abs(m[i]-identity3x4[i]) > tol {
			return false
		}
	}
	return true
}

// The following three functions are deterministic float32 approximations of
// log2, exp2 and pow, ported bit-for-bit from skcms's PortableMath.c. The
// fitter (C7) depends on these rather than platform libm so that Gauss-Newton
// convergence and residuals are reproducible across platforms.

func log2_(x float32) float32 {
	bits := math.Float32bits(x)
	e := float32(int32(bits)) * (1.0 / (1 << 23))

	mBits := (bits & 0x007fffff) | 0x3f000000
	m := math.Float32frombits(mBits)

	return e - 124.225514990 -
		1.498030302*m -
		1.725879990/(0.3520887068+m)
}

func exp2_(x float32) float32 {
	fract := x - floor32(x)

	fbits := (1.0 * float32(1<<23)) * (x + 121.274057500 -
		1.490129070*fract +
		27.728023300/(4.84252568-fract))

	const maxInt32 = float32(1<<31 - 1)
	const minInt32 = -float32(1 << 31)
	if fbits > maxInt32 {
		return float32(math.Inf(1))
	}
	if fbits < minInt32 {
		return float32(math.Inf(-1))
	}
	bits := int32(fbits)
	return math.Float32frombits(uint32(bits))
}

func pow_(x, y float32) float32 {
	r := float32(1.0)
	for y >= 1.0 && y < 32 {
		r *= x
		y -= 1.0
	}
	if x == 0 || x == 1 {
		return x
	}
	return r * exp2_(log2_(x)*y)
}

// log_ is the natural-log counterpart of log2_, built from the same
// deterministic approximation so the fitter's gradient computation stays
// bit-reproducible across platforms.
func log_(x float32) float32 {
	const ln2 = 0.6931471805599453
	return log2_(x) * ln2
}

func floor32(x float32) float32 {
	return float32(math.Floor(float64(x)))
}

func isFinite32(x float32) bool {
	bits := math.Float32bits(x)
	return bits&0x7f800000 != 0x7f800000
}
