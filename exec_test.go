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

func TestExecuteLaneWidthEquivalence(t *testing.T) {
	prog, err := compile(BuiltinSRGB, BuiltinSRGB, RGBA8888, RGBA8888, Unpremul, Unpremul, 37)
	require.NoError(t, err)

	const n = 37
	src := make([]byte, n*4)
	for i := range src {
		src[i] = byte((i * 37) % 256)
	}

	var reference []byte
	for _, width := range []int{1, 4, 8, 16} {
		dst := make([]byte, n*4)
		err := ExecuteWithLanes(prog, src, dst, n, width)
		require.NoError(t, err)
		if reference == nil {
			reference = dst
		} else {
			require.Equalf(t, reference, dst, "lane width=%d diverged from scalar", width)
		}
	}
}

func TestExecuteHandlesRemainderBatch(t *testing.T) {
	prog, err := compile(BuiltinSRGB, BuiltinSRGB, RGB888, RGB888, Opaque, Opaque, 5)
	require.NoError(t, err)

	src := []byte{10, 20, 30, 40, 50, 60, 70, 80, 90, 100, 110, 120, 130, 140, 150}
	dst := make([]byte, len(src))
	err = ExecuteWithLanes(prog, src, dst, 5, 4)
	require.NoError(t, err)
	require.Equal(t, src, dst) // identity transform round-trips exactly
}

func TestHalfFloatRoundTrip(t *testing.T) {
	vals := []float32{0, 0.5, 1, 0.25, 0.999, 0.001}
	for _, v := range vals {
		h := float32ToHalf(v)
		back := halfToFloat32(h)
		require.InDelta(t, float64(v), float64(back), 1.0/1000)
	}
}

func TestHalfFloatDenormalsFlushToZero(t *testing.T) {
	// smallest normal half is 2^-14; anything below flushes to zero on decode.
	require.Equal(t, float32(0), halfToFloat32(0x0001))
	require.Equal(t, float32(0), halfToFloat32(0x03ff))
}

func TestLabToXYZAtWhitePoint(t *testing.T) {
	// L*=100, a*=b*=0 encoded as r=1, g=128/255, b=128/255 per the curve's
	// packing, must map back to the D50 illuminant.
	x, y, z := labToXYZ(1.0, 128.0/255, 128.0/255)
	require.InDelta(t, d50Illuminant[0], x, 1e-3)
	require.InDelta(t, d50Illuminant[1], y, 1e-3)
	require.InDelta(t, d50Illuminant[2], z, 1e-3)
}

func TestOpUnpremulZeroAlphaYieldsZero(t *testing.T) {
	prog := &Program{srcFmt: RGBA8888, dstFmt: RGBA8888}
	prog.emit(opLoadRGBA8888)
	prog.emit(opUnpremul)
	prog.emit(opStoreRGBA8888)

	src := []byte{200, 100, 50, 0}
	dst := make([]byte, 4)
	err := ExecuteWithLanes(prog, src, dst, 1, 1)
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0, 0}, dst)
}

func TestOpMatrix3x3Identity(t *testing.T) {
	prog := &Program{srcFmt: RGB888, dstFmt: RGB888}
	prog.emit(opLoadRGB888)
	prog.emitArg(opMatrix3x3, Matrix3x3{1, 0, 0, 0, 1, 0, 0, 0, 1})
	prog.emit(opClamp)
	prog.emit(opStoreRGB888)

	src := []byte{10, 20, 30}
	dst := make([]byte, 3)
	err := ExecuteWithLanes(prog, src, dst, 1, 1)
	require.NoError(t, err)
	require.Equal(t, src, dst)
}

func TestClampFunction(t *testing.T) {
	require.Equal(t, 0.0, clamp(-1, 0, 1))
	require.Equal(t, 1.0, clamp(2, 0, 1))
	require.Equal(t, 0.5, clamp(0.5, 0, 1))
}
