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

const maxInt31 = 1<<31 - 1

// profileOrSRGB substitutes BuiltinSRGB for a nil profile, per §4.8 "Null profiles
// default to sRGB".
func profileOrSRGB(p *ICCProfile) *ICCProfile {
	if p == nil {
		return BuiltinSRGB
	}
	return p
}

// compile implements C8: from src/dst profiles, formats and alphas, assemble
// the op-list program the executor will run.
func compile(srcProfile, dstProfile *ICCProfile, srcFmt, dstFmt PixelFormat, srcAlpha, dstAlpha AlphaFormat, n int) (*Program, error) {
	srcProfile = profileOrSRGB(srcProfile)
	dstProfile = profileOrSRGB(dstProfile)

	if err := checkOverlargeRequest(n, srcFmt, dstFmt); err != nil {
		return nil, err
	}

	// Aliasing (src == dst with mismatched format widths) is a property of
	// the caller's buffers, not of formats/profiles alone, so Transform
	// enforces it before calling compile.

	prog := &Program{srcFmt: srcFmt, dstFmt: dstFmt, srcAlpha: srcAlpha, dstAlpha: dstAlpha}

	// Step 1: load, swap_rb if BGR-ordered.
	loadOp, ok := loadOpByLayout[srcFmt.layout()]
	if !ok {
		return nil, unsupported("unrecognized source pixel format")
	}
	prog.emit(loadOp)
	if srcFmt.isBGR() {
		prog.emit(opSwapRB)
	}

	// Step 2: Gray destination trick — clone dst profile with identity
	// toXYZD50 so the luminance passes through the destination TF's green
	// channel.
	effectiveDst := dstProfile
	if dstProfile.DataColorSpace == SpaceGray {
		clone := *dstProfile
		clone.ToXYZD50 = identity3x4
		effectiveDst = &clone
	}

	// Step 3: CMYK source convention.
	if srcProfile.DataColorSpace == SpaceCMYK {
		prog.emit(opInvert)
		srcAlpha = Unpremul
	}

	// Step 4: source alpha normalization.
	switch srcAlpha {
	case Opaque:
		prog.emit(opForceOpaque)
	case PremulAsEncoded:
		prog.emit(opUnpremul)
	}

	needsColorWork := srcProfile != effectiveDst || srcAlpha == PremulLinear || dstAlpha == PremulLinear

	if needsColorWork {
		fromXYZ, invDstTFs, err := prepareDestination(effectiveDst)
		if err != nil {
			return nil, err
		}

		if srcProfile.HasA2B {
			if err := emitA2BStages(prog, srcProfile.A2B); err != nil {
				return nil, err
			}
			if srcProfile.PCS == PCSLab {
				prog.emit(opLabToXYZ)
			}
		} else {
			for ch := 0; ch < 3; ch++ {
				c := srcProfile.TRC[ch]
				if !c.IsIdentity() {
					emitCurve(prog, ch, c)
				}
			}
		}

		if srcAlpha == PremulLinear {
			prog.emit(opUnpremul)
		}

		srcToXYZ := srcProfile.ToXYZD50
		if srcProfile.HasA2B {
			srcToXYZ = identity3x4
		}
		if !matrix3x4Equal(srcToXYZ, effectiveDst.ToXYZD50) {
			gamut := concatGamut(fromXYZ, srcToXYZ)
			prog.emitArg(opMatrix3x3, gamut)
		}

		if dstAlpha == PremulLinear {
			prog.emit(opPremul)
		}

		for ch := 0; ch < 3; ch++ {
			tf := invDstTFs[ch]
			if tf != IdentityTF {
				prog.emitArg(tfOpFor(ch), tf)
			}
		}
	}

	// Step 6: destination alpha normalization + swap_rb.
	switch dstAlpha {
	case Opaque:
		prog.emit(opForceOpaque)
	case PremulAsEncoded:
		prog.emit(opPremul)
	}
	if dstFmt.isBGR() {
		prog.emit(opSwapRB)
	}

	// Step 7: clamp for integer destinations.
	if !dstFmt.IsFloat() {
		prog.emit(opClamp)
	}

	// Step 8: store.
	storeOp, ok := storeOpByLayout[dstFmt.layout()]
	if !ok {
		return nil, unsupported("unrecognized destination pixel format")
	}
	prog.emit(storeOp)

	return prog, nil
}

func checkOverlargeRequest(n int, srcFmt, dstFmt PixelFormat) error {
	srcBytes := int64(n) * int64(srcFmt.BytesPerPixel())
	dstBytes := int64(n) * int64(dstFmt.BytesPerPixel())
	if srcBytes > maxInt31 || dstBytes > maxInt31 {
		return overlargeRequest("pixel count times bytes-per-pixel overflows a 31-bit count")
	}
	return nil
}

// prepareDestination computes from_xyz = inv(dst.toXYZD50) and the inverse
// of each of the three destination parametric TRCs.
func prepareDestination(dst *ICCProfile) (Matrix3x3, [3]TransferFunction, error) {
	if !dst.HasTRC || !dst.HasToXYZD50 {
		return Matrix3x3{}, [3]TransferFunction{}, unsupported("destination profile lacks a TRC+XYZ path")
	}
	m3 := toMatrix3x3(dst.ToXYZD50)
	fromXYZ, err := invert3x3(m3)
	if err != nil {
		return Matrix3x3{}, [3]TransferFunction{}, err
	}

	var inv [3]TransferFunction
	for i := 0; i < 3; i++ {
		if dst.TRC[i].Kind != CurveParametric {
			return Matrix3x3{}, [3]TransferFunction{}, unsupported("destination TRC is not parametric; call MakeUsableAsDestination first")
		}
		tf, err := Invert(dst.TRC[i].TF)
		if err != nil {
			return Matrix3x3{}, [3]TransferFunction{}, err
		}
		inv[i] = tf
	}
	return fromXYZ, inv, nil
}

func toMatrix3x3(m Matrix3x4) Matrix3x3 {
	return Matrix3x3{m[0], m[1], m[2], m[3], m[4], m[5], m[6], m[7], m[8]}
}

func matrix3x4Equal(a, b Matrix3x4) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-9 {
			return false
		}
	}
	return true
}

// concatGamut folds the source-to-XYZD50 matrix into from_xyz, producing the
// single 3x3 gamut-conversion matrix emitted as one matrix_3x3 op.
func concatGamut(fromXYZ Matrix3x3, srcToXYZ Matrix3x4) Matrix3x3 {
	srcM3 := toMatrix3x3(srcToXYZ)
	return concat3x3(fromXYZ, srcM3)
}

func emitCurve(prog *Program, channel int, c Curve) {
	switch c.Kind {
	case CurveParametric:
		prog.emitArg(tfOpFor(channel), c.TF)
	case CurveTable8:
		prog.emitArg(table8OpFor(channel), c.Data)
	case CurveTable16:
		prog.emitArg(table16OpFor(channel), c.Data)
	}
}

// emitA2BStages emits the input-curve / CLUT / M-curve / matrix stages of an
// A2B pipeline, skipping identity curves and an identity matrix.
func emitA2BStages(prog *Program, a *A2B) error {
	if a == nil {
		return unsupported("source profile declares A2B but has no parsed pipeline")
	}

	for i, c := range a.InputCurves {
		if !c.IsIdentity() {
			emitCurve(prog, i, c)
		}
	}

	if a.InputChannels > 0 {
		switch a.InputChannels {
		case 3:
			if a.Precision == 2 {
				prog.emitArg(opCLUT3D16, a)
			} else {
				prog.emitArg(opCLUT3D8, a)
			}
		case 4:
			if a.Precision == 2 {
				prog.emitArg(opCLUT4D16, a)
			} else {
				prog.emitArg(opCLUT4D8, a)
			}
		default:
			return unsupported("A2B CLUT input dimension must be 3 or 4 for the executor")
		}
	}

	for i, c := range a.MCurves {
		if !c.IsIdentity() {
			emitCurve(prog, i, c)
		}
	}

	if a.HasMatrix {
		prog.emitArg(opMatrix3x4, a.Matrix)
	}

	for i, c := range a.OutputCurves {
		if !c.IsIdentity() {
			emitCurve(prog, i, c)
		}
	}
	return nil
}
