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

func TestPixelFormatBytesPerPixel(t *testing.T) {
	cases := []struct {
		f    PixelFormat
		want int
	}{
		{A8, 1}, {G8, 1},
		{ABGR4444, 2}, {ARGB4444, 2},
		{RGB565, 2}, {BGR565, 2},
		{RGB888, 3}, {BGR888, 3},
		{RGBA8888, 4}, {BGRA8888, 4},
		{RGBA1010102, 4}, {BGRA1010102, 4},
		{RGB161616BE, 6}, {BGR161616BE, 6},
		{RGBA16161616BE, 8}, {BGRA16161616BE, 8},
		{RGBhhh, 6}, {BGRhhh, 6},
		{RGBAhhhh, 8}, {BGRAhhhh, 8},
		{RGBfff, 12}, {BGRfff, 12},
		{RGBAffff, 16}, {BGRAffff, 16},
	}
	for _, c := range cases {
		require.Equalf(t, c.want, c.f.BytesPerPixel(), "format=%v", c.f)
	}
}

func TestPixelFormatAlignment(t *testing.T) {
	require.Equal(t, 1, RGB888.Alignment())
	require.Equal(t, 2, RGB161616BE.Alignment())
	require.Equal(t, 2, RGBAhhhh.Alignment())
	require.Equal(t, 4, RGBfff.Alignment())
	require.Equal(t, 4, RGBAffff.Alignment())
}

func TestPixelFormatHasAlpha(t *testing.T) {
	require.True(t, A8.HasAlpha())
	require.True(t, RGBA8888.HasAlpha())
	require.True(t, BGRA1010102.HasAlpha())
	require.True(t, RGBAffff.HasAlpha())
	require.False(t, G8.HasAlpha())
	require.False(t, RGB888.HasAlpha())
	require.False(t, RGB565.HasAlpha())
	require.False(t, RGBfff.HasAlpha())
}

func TestPixelFormatIsFloat(t *testing.T) {
	require.True(t, RGBhhh.IsFloat())
	require.True(t, RGBAhhhh.IsFloat())
	require.True(t, RGBfff.IsFloat())
	require.True(t, RGBAffff.IsFloat())
	require.False(t, RGB888.IsFloat())
	require.False(t, RGBA1010102.IsFloat())
}

func TestPixelFormatBGRBit(t *testing.T) {
	require.False(t, RGB888.isBGR())
	require.True(t, BGR888.isBGR())
	require.Equal(t, RGB888.layout(), BGR888.layout())
}
