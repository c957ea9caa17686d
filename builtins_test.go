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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApproximatelyEqualProfilesSelfEquality(t *testing.T) {
	ok, err := ApproximatelyEqualProfiles(BuiltinSRGB, BuiltinSRGB)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestApproximatelyEqualProfilesDetectsDifference(t *testing.T) {
	gamma18 := &ICCProfile{
		DataColorSpace: SpaceRGB, PCS: PCSXYZ, HasTRC: true,
		TRC:         [3]Curve{ParametricCurve(TransferFunction{G: 1.8, A: 1}), ParametricCurve(TransferFunction{G: 1.8, A: 1}), ParametricCurve(TransferFunction{G: 1.8, A: 1})},
		HasToXYZD50: true, ToXYZD50: sRGBToXYZD50,
	}
	ok, err := ApproximatelyEqualProfiles(BuiltinSRGB, gamma18)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBuiltinSRGBIsUsableAsSourceAndDestination(t *testing.T) {
	require.True(t, BuiltinSRGB.usableAsSource())
	require.True(t, BuiltinSRGB.UsableAsDestination())
}

func TestBuiltinXYZD50IsIdentity(t *testing.T) {
	for _, c := range BuiltinXYZD50.TRC {
		require.True(t, c.IsIdentity())
	}
	require.Equal(t, identity3x4, BuiltinXYZD50.ToXYZD50)
}

func TestProbeBytesIsAPermutationExcludingFour(t *testing.T) {
	require.Len(t, probeBytes, 252)
	seen := make(map[byte]bool)
	for _, b := range probeBytes {
		require.Falsef(t, seen[b], "value %d appears twice", b)
		seen[b] = true
	}
	for _, excluded := range []byte{10, 43, 192, 241} {
		require.False(t, seen[excluded])
	}
}
