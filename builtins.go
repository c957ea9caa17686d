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

// sRGBTF is the standard sRGB EOTF, expressed in the canonical
// TransferFunction shape: y = C*x+F for x<D, y=(A*x+B)^G+E otherwise.
var sRGBTF = TransferFunction{
	G: 2.4,
	A: 1 / 1.055,
	B: 0.055 / 1.055,
	C: 1 / 12.92,
	D: 0.04045,
}

// sRGBToXYZD50 is the Bradford-adapted sRGB (D65) to XYZ (D50) matrix, the
// same constants every color-managed sRGB profile in the wild carries.
var sRGBToXYZD50 = Matrix3x4{
	0.4360747, 0.3850649, 0.1430804,
	0.2225045, 0.7168786, 0.0606169,
	0.0139322, 0.0971045, 0.7141733,
	0, 0, 0,
}

// BuiltinSRGB is the synthetic sRGB profile substituted for a nil profile
// argument, per §4.8 ("null profiles default to sRGB").
var BuiltinSRGB = &ICCProfile{
	DataColorSpace: SpaceRGB,
	PCS:            PCSXYZ,
	HasTRC:         true,
	TRC:            [3]Curve{ParametricCurve(sRGBTF), ParametricCurve(sRGBTF), ParametricCurve(sRGBTF)},
	HasToXYZD50:    true,
	ToXYZD50:       sRGBToXYZD50,
}

// BuiltinXYZD50 is a profile whose device RGB values are themselves
// PCS-relative XYZ (D50) coordinates: identity TRC, identity matrix. Used as
// a fixed reference target when comparing two profiles' overall behavior.
var BuiltinXYZD50 = &ICCProfile{
	DataColorSpace: SpaceRGB,
	PCS:            PCSXYZ,
	HasTRC:         true,
	TRC:            [3]Curve{IdentityCurve, IdentityCurve, IdentityCurve},
	HasToXYZD50:    true,
	ToXYZD50:       identity3x4,
}

// probeBytes is a fixed permutation of {0,...,255} minus {10,43,192,241},
// used by ApproximatelyEqualProfiles to exercise a profile's transform
// across its full input range without comparing every one of 256 values.
var probeBytes = buildProbeBytes()

func buildProbeBytes() []byte {
	var vals []byte
	excluded := map[int]bool{10: true, 43: true, 192: true, 241: true}
	for v := 0; v < 256; v++ {
		if !excluded[v] {
			vals = append(vals, byte(v))
		}
	}

	// Deterministic Fisher-Yates shuffle driven by a fixed-seed xorshift32,
	// so the permutation is reproducible across platforms and Go versions
	// without depending on math/rand's algorithm.
	state := uint32(0x9E3779B9)
	next := func() uint32 {
		state ^= state << 13
		state ^= state >> 17
		state ^= state << 5
		return state
	}
	for i := len(vals) - 1; i > 0; i-- {
		j := int(next() % uint32(i+1))
		vals[i], vals[j] = vals[j], vals[i]
	}
	return vals
}

// ApproximatelyEqualProfiles reports whether a and b produce the same
// transform behavior to within 1 LSB, by running the fixed probe bytes
// through each profile (as RGB888 device values) to a common XYZD50 target
// and comparing the 8-bit results. This reuses the compile/execute path
// rather than a bespoke comparison routine, so it exercises exactly the
// code a real Transform call would run.
func ApproximatelyEqualProfiles(a, b *ICCProfile) (bool, error) {
	n := len(probeBytes) / 3
	src := probeBytes[:n*3]

	outA, err := renderProbe(a, src, n)
	if err != nil {
		return false, err
	}
	outB, err := renderProbe(b, src, n)
	if err != nil {
		return false, err
	}

	for i := range outA {
		d := int(outA[i]) - int(outB[i])
		if d < -1 || d > 1 {
			return false, nil
		}
	}
	return true, nil
}

func renderProbe(p *ICCProfile, src []byte, n int) ([]byte, error) {
	prog, err := compile(p, BuiltinXYZD50, RGB888, RGB888, Opaque, Opaque, n)
	if err != nil {
		return nil, err
	}
	dst := make([]byte, len(src))
	if err := ExecuteWithLanes(prog, src, dst, n, int(SelectedLaneWidth())); err != nil {
		return nil, err
	}
	return dst, nil
}
