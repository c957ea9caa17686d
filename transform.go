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

import "unsafe"

// Transform converts n pixels from srcBytes (srcFmt/srcAlpha, color-managed
// by srcProfile) into dstBytes (dstFmt/dstAlpha, color-managed by
// dstProfile). A nil profile defaults to sRGB. srcProfile/dstProfile may be
// the same profile; srcBytes/dstBytes may alias only when srcFmt and dstFmt
// have equal byte width, since the executor processes each pixel in place
// within a batch otherwise.
func Transform(
	srcBytes []byte, srcProfile *ICCProfile, srcFmt PixelFormat, srcAlpha AlphaFormat,
	dstBytes []byte, dstProfile *ICCProfile, dstFmt PixelFormat, dstAlpha AlphaFormat,
	n int,
) error {
	if buffersAlias(srcBytes, dstBytes) && srcFmt.BytesPerPixel() != dstFmt.BytesPerPixel() {
		return aliasing("source and destination buffers overlap with mismatched pixel widths")
	}

	prog, err := compile(srcProfile, dstProfile, srcFmt, dstFmt, srcAlpha, dstAlpha, n)
	if err != nil {
		return err
	}
	return Execute(prog, srcBytes, dstBytes, n)
}

// buffersAlias reports whether src and dst share any underlying memory.
func buffersAlias(src, dst []byte) bool {
	if len(src) == 0 || len(dst) == 0 {
		return false
	}
	sStart := uintptr(unsafe.Pointer(&src[0]))
	sEnd := sStart + uintptr(len(src))
	dStart := uintptr(unsafe.Pointer(&dst[0]))
	dEnd := dStart + uintptr(len(dst))
	return sStart < dEnd && dStart < sEnd
}

// MakeUsableAsDestination fits each of the profile's three TRC curves to an
// independent parametric TransferFunction, so the profile satisfies
// UsableAsDestination (required before Transform can target it, unless its
// TRCs are already parametric).
func MakeUsableAsDestination(p *ICCProfile) error {
	if !p.HasTRC {
		return unsupported("profile has no TRC to fit")
	}
	for i := 0; i < 3; i++ {
		if p.TRC[i].Kind == CurveParametric {
			continue
		}
		tf, _, err := ApproximateCurve(p.TRC[i])
		if err != nil {
			return err
		}
		p.TRC[i] = ParametricCurve(tf)
	}
	return nil
}

// MakeUsableAsDestinationWithSingleCurve is like MakeUsableAsDestination but
// fits all three channels independently, picks the fit with the lowest
// round-trip error, and shares that single curve across R, G and B. This
// matches how many real destination profiles declare one shared TRC.
func MakeUsableAsDestinationWithSingleCurve(p *ICCProfile) error {
	if !p.HasTRC {
		return unsupported("profile has no TRC to fit")
	}

	bestErr := -1.0
	var best TransferFunction
	haveBest := false

	for i := 0; i < 3; i++ {
		tf, roundTrip, err := ApproximateCurve(p.TRC[i])
		if err != nil {
			return err
		}
		if !haveBest || roundTrip < bestErr {
			best, bestErr, haveBest = tf, roundTrip, true
		}
	}
	if !haveBest {
		return nil
	}

	curve := ParametricCurve(best)
	for i := 0; i < 3; i++ {
		p.TRC[i] = curve
	}
	return nil
}
