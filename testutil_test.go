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

// Shared helpers for constructing synthetic profile byte buffers: the
// teacher's own *_test.go files build fixtures by hand rather than via
// go:embed, since these need to exercise specific byte-level edge cases.

func appendU32(buf []byte, v uint32) []byte {
	return append(buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func appendU16(buf []byte, v uint16) []byte {
	return append(buf, byte(v>>8), byte(v))
}

func appendS15F16(buf []byte, v float64) []byte {
	return appendU32(buf, uint32(int32(v*65536)))
}

func appendSig(buf []byte, sig string) []byte {
	return append(buf, []byte(sig)...)
}

func padTo(buf []byte, n int) []byte {
	for len(buf) < n {
		buf = append(buf, 0)
	}
	return buf
}

// buildCurvPayload encodes a 'curv' tag: n==0 identity, n==1 u8.8 gamma,
// n>=2 a 16-bit table of the given sample values (in [0,1]).
func buildCurvPayload(n int, gamma float64, samples []float64) []byte {
	buf := appendSig(nil, "curv")
	buf = append(buf, 0, 0, 0, 0) // reserved
	buf = appendU32(buf, uint32(n))
	switch {
	case n == 0:
	case n == 1:
		buf = appendU16(buf, uint16(gamma*256+0.5))
	default:
		for _, s := range samples {
			buf = appendU16(buf, uint16(s*65535+0.5))
		}
	}
	return buf
}

type profileTag struct {
	sig     string
	payload []byte
}

// buildMultiTagProfile builds a minimal, otherwise-valid ICC profile whose
// tag directory holds exactly the given tags, laid out back-to-back with
// 4-byte alignment between payloads.
func buildMultiTagProfile(dataColorSpace, pcs string, tags []profileTag) []byte {
	const headerLen = 128
	const tagDirOffset = 128
	tagDirLen := 4 + len(tags)*12
	dataStart := tagDirOffset + tagDirLen
	for dataStart%4 != 0 {
		dataStart++
	}

	offsets := make([]int, len(tags))
	pos := dataStart
	for i, t := range tags {
		offsets[i] = pos
		pos += len(t.payload)
		for pos%4 != 0 {
			pos++
		}
	}
	total := pos

	buf := make([]byte, 0, total)
	buf = appendU32(buf, uint32(total)) // offset 0: size
	buf = padTo(buf, 8)
	buf = appendU32(buf, 0x04300000) // offset 8: version 4.3.0.0
	buf = padTo(buf, 16)
	buf = appendSig(buf, dataColorSpace) // offset 16
	buf = appendSig(buf, pcs)            // offset 20
	buf = padTo(buf, 36)
	buf = appendSig(buf, "acsp") // offset 36
	buf = padTo(buf, 68)
	buf = appendS15F16(buf, d50Illuminant[0])
	buf = appendS15F16(buf, d50Illuminant[1])
	buf = appendS15F16(buf, d50Illuminant[2])
	buf = padTo(buf, headerLen)

	buf = appendU32(buf, uint32(len(tags))) // offset 128
	for i, t := range tags {
		buf = appendSig(buf, t.sig)
		buf = appendU32(buf, uint32(offsets[i]))
		buf = appendU32(buf, uint32(len(t.payload)))
	}

	for i, t := range tags {
		buf = padTo(buf, offsets[i])
		buf = append(buf, t.payload...)
	}
	buf = padTo(buf, total)

	return buf
}

// buildSingleTagProfile is the common case of buildMultiTagProfile with one tag.
func buildSingleTagProfile(dataColorSpace, pcs string, tagSig string, payload []byte) []byte {
	return buildMultiTagProfile(dataColorSpace, pcs, []profileTag{{sig: tagSig, payload: payload}})
}

// buildXYZPayload encodes an 'XYZ ' tag with one triple.
func buildXYZPayload(x, y, z float64) []byte {
	buf := appendSig(nil, "XYZ ")
	buf = append(buf, 0, 0, 0, 0) // reserved
	buf = appendS15F16(buf, x)
	buf = appendS15F16(buf, y)
	buf = appendS15F16(buf, z)
	return buf
}

// buildGammaRGBProfile builds an RGB profile with a shared gamma TRC on all
// three channels and the given sRGB-like XYZ primaries, sufficient to
// satisfy parseTRCPath's rTRC/gTRC/bTRC + rXYZ/gXYZ/bXYZ path.
func buildGammaRGBProfile(gamma float64) []byte {
	curve := buildCurvPayload(1, gamma, nil)
	tags := []profileTag{
		{sig: "rTRC", payload: curve},
		{sig: "gTRC", payload: curve},
		{sig: "bTRC", payload: curve},
		{sig: "rXYZ", payload: buildXYZPayload(0.4360747, 0.2225045, 0.0139322)},
		{sig: "gXYZ", payload: buildXYZPayload(0.3850649, 0.7168786, 0.0971045)},
		{sig: "bXYZ", payload: buildXYZPayload(0.1430804, 0.0606169, 0.7141733)},
	}
	return buildMultiTagProfile("RGB ", "XYZ ", tags)
}
