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
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func TestApproximateCurveGamma(t *testing.T) {
	src := ParametricCurve(TransferFunction{G: 2.2, A: 1, B: 0, C: 0, D: 0, E: 0, F: 0})
	tf, reported, err := ApproximateCurve(src)
	require.NoError(t, err)
	require.True(t, tf.Valid())
	require.True(t, tf.Invertible())

	actual, err := maxRoundTripError(src, tf)
	require.NoError(t, err)
	// the reported error must never be an understatement of the true error.
	require.LessOrEqual(t, actual, reported+1e-9)
	require.Less(t, reported, 1.0/256)
}

func TestApproximateCurveSRGBLike(t *testing.T) {
	src := ParametricCurve(sRGBTF)
	tf, reported, err := ApproximateCurve(src)
	require.NoError(t, err)

	actual, err := maxRoundTripError(src, tf)
	require.NoError(t, err)
	require.LessOrEqual(t, actual, reported+1e-9)
	require.Less(t, reported, 1.0/256)
}

func TestApproximateCurvePureLinear(t *testing.T) {
	src := ParametricCurve(TransferFunction{G: 1, A: 0.8, B: 0.1, C: 0.8, D: 0, E: 0, F: 0.1})
	tf, reported, err := ApproximateCurve(src)
	require.NoError(t, err)
	require.InDelta(t, 1.0, tf.G, 1e-6)
	require.Less(t, reported, 1.0/1000)
}

func TestFitLinearRecoversSlope(t *testing.T) {
	curve := ParametricCurve(TransferFunction{G: 1, A: 2, B: 0.05, C: 2, D: 0, E: 0, F: 0.05})
	c, d, f, l := fitLinear(curve, 1.0/65535)
	require.InDelta(t, 2.0, c, 1e-3)
	require.InDelta(t, 0.05, f, 1e-6)
	require.Equal(t, 1.0, d) // the linear branch spans the whole grid
	require.Equal(t, fitSamples, l)
}

// TestMaxRoundTripErrorMatchesChebyshevDistance cross-checks
// maxRoundTripError's hand-rolled sup-norm loop against gonum's Chebyshev
// (L-infinity) distance between the forward and round-tripped sample
// vectors, so the reported tolerance isn't self-certified by the same loop
// that produced it.
func TestMaxRoundTripErrorMatchesChebyshevDistance(t *testing.T) {
	src := ParametricCurve(sRGBTF)
	tf, _, err := ApproximateCurve(src)
	require.NoError(t, err)
	inv, err := Invert(tf)
	require.NoError(t, err)

	n := fitSamples
	xs := make([]float64, n)
	roundTripped := make([]float64, n)
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1)
		xs[i] = x
		roundTripped[i] = inv.Eval(src.Eval(x))
	}

	want := floats.Distance(xs, roundTripped, math.Inf(1))
	got, err := maxRoundTripError(src, tf)
	require.NoError(t, err)
	require.InDelta(t, want, got, 1e-9)
}

func TestSolveNormalEquationsDegenerateRow(t *testing.T) {
	var jtj [3][3]float64
	jtj[1][1] = 1
	jtj[2][2] = 1
	jtr := [3]float64{0, 2, 3}

	delta, ok := solveNormalEquations(jtj, jtr)
	require.True(t, ok)
	// row/col 0 was all-zero, pinned to identity: delta[0] should equal jtr[0].
	require.InDelta(t, 0.0, delta[0], 1e-9)
	require.InDelta(t, 2.0, delta[1], 1e-9)
	require.InDelta(t, 3.0, delta[2], 1e-9)
}
