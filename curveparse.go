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

// parseCurve dispatches on the tag payload's type signature and decodes a
// 'curv' or 'para' element into a Curve. It returns the number of bytes
// consumed so callers can advance through concatenated, 4-byte-aligned
// curve payloads (used by the A2B parser).
func parseCurve(data []byte, offset int) (Curve, int, error) {
	if offset+4 > len(data) {
		return Curve{}, 0, truncated(offset, "curve type signature")
	}
	sig := string(data[offset : offset+4])
	switch sig {
	case "curv":
		return parseCurv(data, offset)
	case "para":
		return parseParametric(data, offset)
	default:
		return Curve{}, 0, badSignature(offset, "unsupported curve type "+quoteSig(sig))
	}
}

func parseCurv(data []byte, offset int) (Curve, int, error) {
	n, err := readU32BE(data, offset+8)
	if err != nil {
		return Curve{}, 0, err
	}

	switch {
	case n == 0:
		// identity
		return ParametricCurve(IdentityTF), 12, nil
	case n == 1:
		gRaw, err := readU16BE(data, offset+12)
		if err != nil {
			return Curve{}, 0, err
		}
		// 8.8 fixed-point gamma
		gamma := float64(gRaw) / 256
		return ParametricCurve(TransferFunction{G: gamma, A: 1, B: 0, C: 0, D: 0, E: 0, F: 0}), 14, nil
	default:
		size := int(n) * 2
		tableData, err := newReader(data).bytes(offset+12, size)
		if err != nil {
			return Curve{}, 0, err
		}
		return Curve{Kind: CurveTable16, Entries: n, Data: tableData}, 12 + size, nil
	}
}

// parametricParamCounts maps ICC para function_type (0..4) to the number of
// s15.16 parameters that follow.
var parametricParamCounts = [5]int{1, 3, 4, 5, 7}

func parseParametric(data []byte, offset int) (Curve, int, error) {
	funcType, err := readU16BE(data, offset+8)
	if err != nil {
		return Curve{}, 0, err
	}
	if int(funcType) >= len(parametricParamCounts) {
		return Curve{}, 0, outOfRange(offset+8, "unsupported parametric function type")
	}
	numParams := parametricParamCounts[funcType]

	params := make([]float64, numParams)
	for i := 0; i < numParams; i++ {
		v, err := readS15F16BE(data, offset+12+i*4)
		if err != nil {
			return Curve{}, 0, err
		}
		params[i] = float64(v)
	}

	var tf TransferFunction
	switch funcType {
	case 0:
		// pure gamma: y = x^g
		tf = TransferFunction{G: params[0], A: 1, B: 0, C: 0, D: 0, E: 0, F: 0}
	case 1:
		// g, a, b; d = -b/a
		g, a, b := params[0], params[1], params[2]
		if a == 0 {
			return Curve{}, 0, badMath("para type 1: a == 0")
		}
		tf = TransferFunction{G: g, A: a, B: b, C: 0, D: -b / a, E: 0, F: 0}
	case 2:
		// g, a, b, c(=e); type1 plus e, f = e
		g, a, b, e := params[0], params[1], params[2], params[3]
		if a == 0 {
			return Curve{}, 0, badMath("para type 2: a == 0")
		}
		tf = TransferFunction{G: g, A: a, B: b, C: 0, D: -b / a, E: e, F: e}
	case 3:
		// full g,a,b,c,d
		g, a, b, c, d := params[0], params[1], params[2], params[3], params[4]
		tf = TransferFunction{G: g, A: a, B: b, C: c, D: d, E: 0, F: 0}
	case 4:
		// full g,a,b,c,d,e,f
		g, a, b, c, d, e, f := params[0], params[1], params[2], params[3], params[4], params[5], params[6]
		tf = TransferFunction{G: g, A: a, B: b, C: c, D: d, E: e, F: f}
	}

	if !tf.Valid() {
		return Curve{}, 0, badMath("parametric curve produced invalid transfer function")
	}

	return ParametricCurve(tf), 12 + numParams*4, nil
}

func quoteSig(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '"')
	for _, c := range []byte(s) {
		if c < 0x20 || c > 0x7e {
			out = append(out, '?')
		} else {
			out = append(out, c)
		}
	}
	out = append(out, '"')
	return string(out)
}

// alignedSize rounds n up to the next multiple of 4 (ICC tag 4-byte alignment).
func alignedSize(n int) int {
	return (n + 3) &^ 3
}

// canonicalizeCurve implements the identity-table canonicalization from
// §4.5: any curve whose table fits y=x within 1/(2N) is replaced by the
// parametric identity.
func canonicalizeCurve(c Curve) Curve {
	if c.Kind == CurveParametric {
		return c
	}
	width := 1
	if c.Kind == CurveTable16 {
		width = 2
	}
	n := len(c.Data) / width
	if n < 2 {
		return c
	}
	tol := 1.0 / (2 * float64(n))
	for i := 0; i < n; i++ {
		want := float64(i) / float64(n-1)
		got := sampleAt(c.Data, width, i)
		if abs(got-want) > tol {
			return c
		}
	}
	return IdentityCurve
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
