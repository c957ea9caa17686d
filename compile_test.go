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

func TestCheckOverlargeRequest(t *testing.T) {
	err := checkOverlargeRequest(1<<30, RGBAffff, RGBAffff)
	require.Error(t, err)
	var iccErr *Error
	require.ErrorAs(t, err, &iccErr)
	require.Equal(t, OverlargeRequest, iccErr.Kind)

	require.NoError(t, checkOverlargeRequest(1024, RGBA8888, RGBA8888))
}

func TestCompileIdentityProfilesEmitsNoColorWork(t *testing.T) {
	prog, err := compile(BuiltinSRGB, BuiltinSRGB, RGB888, RGB888, Opaque, Opaque, 16)
	require.NoError(t, err)
	require.NotNil(t, prog)

	// load, force_opaque, force_opaque, clamp, store: source and destination
	// are the same profile, so no curve or matrix stage is emitted
	var ops []op
	for _, in := range prog.instrs {
		ops = append(ops, in.op)
	}
	require.Contains(t, ops, opLoadRGB888)
	require.Contains(t, ops, opStoreRGB888)
	require.NotContains(t, ops, opMatrix3x3)
}

func TestCompileSwapsRBForBGRFormats(t *testing.T) {
	prog, err := compile(BuiltinSRGB, BuiltinSRGB, BGR888, BGR888, Opaque, Opaque, 4)
	require.NoError(t, err)

	count := 0
	for _, in := range prog.instrs {
		if in.op == opSwapRB {
			count++
		}
	}
	require.Equal(t, 2, count) // once on load, once on store
}

func TestCompileGammaMismatchEmitsCurves(t *testing.T) {
	gamma18 := &ICCProfile{
		DataColorSpace: SpaceRGB, PCS: PCSXYZ, HasTRC: true,
		TRC:         [3]Curve{ParametricCurve(TransferFunction{G: 1.8, A: 1}), ParametricCurve(TransferFunction{G: 1.8, A: 1}), ParametricCurve(TransferFunction{G: 1.8, A: 1})},
		HasToXYZD50: true, ToXYZD50: sRGBToXYZD50,
	}
	prog, err := compile(gamma18, BuiltinSRGB, RGB888, RGB888, Opaque, Opaque, 4)
	require.NoError(t, err)

	var ops []op
	for _, in := range prog.instrs {
		ops = append(ops, in.op)
	}
	require.Contains(t, ops, opTFR)
	require.Contains(t, ops, opTFG)
	require.Contains(t, ops, opTFB)
}

func TestCompileUnsupportedDestinationNonParametricTRC(t *testing.T) {
	tableCurve := Curve{Kind: CurveTable16, Entries: 4, Data: []byte{0, 0, 0x55, 0x55, 0xaa, 0xaa, 0xff, 0xff}}
	badDst := &ICCProfile{
		DataColorSpace: SpaceRGB, PCS: PCSXYZ, HasTRC: true,
		TRC:         [3]Curve{tableCurve, tableCurve, tableCurve},
		HasToXYZD50: true, ToXYZD50: sRGBToXYZD50,
	}
	_, err := compile(BuiltinSRGB, badDst, RGB888, RGB888, Opaque, Opaque, 4)
	require.Error(t, err)
	var iccErr *Error
	require.ErrorAs(t, err, &iccErr)
	require.Equal(t, Unsupported, iccErr.Kind)
}

func TestToMatrix3x3PacksTightly(t *testing.T) {
	m4 := Matrix3x4{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	m3 := toMatrix3x3(m4)
	require.Equal(t, Matrix3x3{1, 2, 3, 4, 5, 6, 7, 8, 9}, m3)
}
