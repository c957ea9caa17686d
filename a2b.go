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

// matrixEncodingXYZ is the ICC XYZ encoding factor applied to mAB matrix
// entries when the PCS is XYZ (preserved verbatim per the unusual but
// documented convention; has no effect on Lab-PCS profiles).
const matrixEncodingXYZ = 65535.0 / 32768.0

// A2B is the unified device-to-PCS pipeline decoded from an 'mft1', 'mft2'
// or 'mAB ' tag. The evaluation order is fixed regardless of which tag type
// produced it:
//
//	input curves -> CLUT -> M curves -> matrix -> output (B) curves
//
// Any stage may be absent; an absent stage is the identity. mft1/mft2 never
// populate MCurves or Matrix (their legacy input matrix is required to be
// the identity, see decodeLUT8/decodeLUT16 below) so that every A2B value
// can be executed by a single code path.
type A2B struct {
	InputChannels  int
	OutputChannels int // always 3: the PCS is always XYZ or Lab

	InputCurves []Curve // length InputChannels, identity when InputChannels == 0

	GridPoints []int     // per-axis grid resolution, length InputChannels
	CLUT       []float64 // flattened, len == product(GridPoints) * OutputChannels, values in [0,1]
	Precision  int       // 1 or 2: the original sample byte width, selects clut_*D_{8,16} at compile time

	MCurves []Curve // length OutputChannels, identity when absent

	HasMatrix bool
	Matrix    Matrix3x4

	OutputCurves []Curve // length OutputChannels
}

// Eval runs the full A2B pipeline on a device-color input vector. When
// InputChannels == 0 (a B-curves-only pipeline), input must already have
// OutputChannels entries and the A-curve/CLUT stage is skipped entirely.
func (a *A2B) Eval(input []float64) ([3]float64, error) {
	var clutOut []float64
	if a.InputChannels == 0 {
		if len(input) != a.OutputChannels {
			return [3]float64{}, outOfRange(0, "A2B input channel count mismatch")
		}
		clutOut = input
	} else {
		if len(input) != a.InputChannels {
			return [3]float64{}, outOfRange(0, "A2B input channel count mismatch")
		}

		stage := make([]float64, a.InputChannels)
		for i, c := range a.InputCurves {
			stage[i] = c.Eval(input[i])
		}

		v := a.evalCLUT(stage)
		clutOut = v[:]
	}

	mOut := make([]float64, a.OutputChannels)
	for i := 0; i < a.OutputChannels; i++ {
		if i < len(a.MCurves) {
			mOut[i] = a.MCurves[i].Eval(clutOut[i])
		} else {
			mOut[i] = clutOut[i]
		}
	}

	var matOut [3]float64
	if a.HasMatrix && a.OutputChannels == 3 {
		matOut = mulVec3x4(a.Matrix, [3]float64{mOut[0], mOut[1], mOut[2]})
	} else {
		matOut = [3]float64{mOut[0], mOut[1], mOut[2]}
	}

	var result [3]float64
	for i := 0; i < 3; i++ {
		if i < len(a.OutputCurves) {
			result[i] = a.OutputCurves[i].Eval(matOut[i])
		} else {
			result[i] = matOut[i]
		}
	}
	return result, nil
}

// evalCLUT runs only the grid-interpolation stage, given an already
// curve-transformed input vector (length InputChannels). Used both by Eval
// and directly by the executor's clut_*D_{8,16} ops, which run between
// separately-compiled input-curve and M-curve/matrix ops.
//
// Always uses recursive multilinear interpolation, never the tetrahedral
// shortcut some RGB-only CLUT evaluators use: the two agree only at grid
// nodes/edges or for an affine CLUT, and diverge on interior points of any
// other 3-D table.
func (a *A2B) evalCLUT(stage []float64) [3]float64 {
	out := multilinearInterp(a.CLUT, a.GridPoints, a.OutputChannels, stage)
	return [3]float64{out[0], out[1], out[2]}
}

// parseA2B dispatches on the tag payload's type signature. pcsIsXYZ governs
// whether mAB matrix entries are scaled by the ICC XYZ encoding factor.
func parseA2B(data []byte, offset int, pcsIsXYZ bool) (*A2B, error) {
	if offset+4 > len(data) {
		return nil, truncated(offset, "A2B tag type signature")
	}
	sig := string(data[offset : offset+4])
	switch sig {
	case "mft1":
		return decodeLUT8(data, offset)
	case "mft2":
		return decodeLUT16(data, offset)
	case "mAB ":
		return decodeMAB(data, offset, pcsIsXYZ)
	default:
		return nil, badSignature(offset, "unsupported A2B tag type "+quoteSig(sig))
	}
}

// decodeLUT8 decodes a legacy lut8Type ('mft1') payload, reinterpreted as an
// A2B pipeline with no M curves and no post-CLUT matrix.
func decodeLUT8(data []byte, offset int) (*A2B, error) {
	r := newReader(data)
	buf, err := r.bytes(offset, 48)
	if err != nil {
		return nil, err
	}
	inCh := int(buf[8])
	outCh := int(buf[9])
	gridPoints := int(buf[10])
	if inCh <= 0 || inCh > 4 {
		return nil, outOfRange(offset+8, "unsupported A2B input channel count")
	}
	if outCh != 3 {
		return nil, unsupported("A2B output channel count must be 3")
	}
	if gridPoints < 2 {
		return nil, outOfRange(offset+10, "CLUT grid must have at least 2 points per dimension")
	}

	mat, err := readMatrix3x3(data, offset+12)
	if err != nil {
		return nil, err
	}
	if !isIdentity3x3(mat, 1e-4) {
		return nil, unsupported("legacy lut8 input matrix must be identity")
	}

	pos := offset + 48
	inputCurves := make([]Curve, inCh)
	for i := 0; i < inCh; i++ {
		tbl, err := r.bytes(pos, 256)
		if err != nil {
			return nil, err
		}
		inputCurves[i] = canonicalizeCurve(Curve{Kind: CurveTable8, Entries: 256, Data: tbl})
		pos += 256
	}

	gridPointsPerAxis := make([]int, inCh)
	for i := range gridPointsPerAxis {
		gridPointsPerAxis[i] = gridPoints
	}
	numClut := ipow(gridPoints, inCh) * outCh
	clutBytes, err := r.bytes(pos, numClut)
	if err != nil {
		return nil, err
	}
	clut := make([]float64, numClut)
	for i := 0; i < numClut; i++ {
		clut[i] = float64(clutBytes[i]) / 255
	}
	pos += numClut

	outputCurves := make([]Curve, outCh)
	for i := 0; i < outCh; i++ {
		tbl, err := r.bytes(pos, 256)
		if err != nil {
			return nil, err
		}
		outputCurves[i] = canonicalizeCurve(Curve{Kind: CurveTable8, Entries: 256, Data: tbl})
		pos += 256
	}

	return &A2B{
		InputChannels:  inCh,
		OutputChannels: outCh,
		InputCurves:    inputCurves,
		GridPoints:     gridPointsPerAxis,
		CLUT:           clut,
		Precision:      1,
		OutputCurves:   outputCurves,
	}, nil
}

// decodeLUT16 decodes a legacy lut16Type ('mft2') payload, analogous to
// decodeLUT8 but with 16-bit samples and variable table lengths.
func decodeLUT16(data []byte, offset int) (*A2B, error) {
	r := newReader(data)
	buf, err := r.bytes(offset, 52)
	if err != nil {
		return nil, err
	}
	inCh := int(buf[8])
	outCh := int(buf[9])
	gridPoints := int(buf[10])
	if inCh <= 0 || inCh > 4 {
		return nil, outOfRange(offset+8, "unsupported A2B input channel count")
	}
	if outCh != 3 {
		return nil, unsupported("A2B output channel count must be 3")
	}
	if gridPoints < 2 {
		return nil, outOfRange(offset+10, "CLUT grid must have at least 2 points per dimension")
	}

	mat, err := readMatrix3x3(data, offset+12)
	if err != nil {
		return nil, err
	}
	if !isIdentity3x3(mat, 1e-4) {
		return nil, unsupported("legacy lut16 input matrix must be identity")
	}

	numInputEntries, err := r.u16(offset + 48)
	if err != nil {
		return nil, err
	}
	numOutputEntries, err := r.u16(offset + 50)
	if err != nil {
		return nil, err
	}
	if numInputEntries < 2 || numOutputEntries < 2 || numInputEntries > 4096 || numOutputEntries > 4096 {
		return nil, outOfRange(offset+48, "lut16 table entry count must be in [2, 4096]")
	}

	pos := offset + 52
	inputCurves := make([]Curve, inCh)
	for i := 0; i < inCh; i++ {
		size := int(numInputEntries) * 2
		tbl, err := r.bytes(pos, size)
		if err != nil {
			return nil, err
		}
		inputCurves[i] = canonicalizeCurve(Curve{Kind: CurveTable16, Entries: uint32(numInputEntries), Data: tbl})
		pos += size
	}

	gridPointsPerAxis := make([]int, inCh)
	for i := range gridPointsPerAxis {
		gridPointsPerAxis[i] = gridPoints
	}
	numClut := ipow(gridPoints, inCh) * outCh
	clutBytes, err := r.bytes(pos, numClut*2)
	if err != nil {
		return nil, err
	}
	clut := make([]float64, numClut)
	for i := 0; i < numClut; i++ {
		v, _ := readU16BE(clutBytes, i*2)
		clut[i] = float64(v) / 65535
	}
	pos += numClut * 2

	outputCurves := make([]Curve, outCh)
	for i := 0; i < outCh; i++ {
		size := int(numOutputEntries) * 2
		tbl, err := r.bytes(pos, size)
		if err != nil {
			return nil, err
		}
		outputCurves[i] = canonicalizeCurve(Curve{Kind: CurveTable16, Entries: uint32(numOutputEntries), Data: tbl})
		pos += size
	}

	return &A2B{
		InputChannels:  inCh,
		OutputChannels: outCh,
		InputCurves:    inputCurves,
		GridPoints:     gridPointsPerAxis,
		CLUT:           clut,
		Precision:      2,
		OutputCurves:   outputCurves,
	}, nil
}

// decodeMAB decodes an 'mAB ' tag: every stage (A curves, CLUT, M curves,
// matrix, B curves) is optional except the B curves, and each stage is
// located by a byte offset relative to the start of the tag payload.
func decodeMAB(data []byte, offset int, pcsIsXYZ bool) (*A2B, error) {
	r := newReader(data)
	hdr, err := r.bytes(offset, 32)
	if err != nil {
		return nil, err
	}
	inCh := int(hdr[8])
	outCh := int(hdr[9])
	if outCh != 3 {
		return nil, unsupported("A2B output channel count must be 3")
	}

	offB, err := r.u32(offset + 8 + 4)
	if err != nil {
		return nil, err
	}
	offMatrix, err := r.u32(offset + 16)
	if err != nil {
		return nil, err
	}
	offM, err := r.u32(offset + 20)
	if err != nil {
		return nil, err
	}
	offCLUT, err := r.u32(offset + 24)
	if err != nil {
		return nil, err
	}
	offA, err := r.u32(offset + 28)
	if err != nil {
		return nil, err
	}

	// Both-or-neither pairing: {A curves, CLUT} and {M curves, matrix}.
	if (offA == 0) != (offCLUT == 0) {
		return nil, outOfRange(offset+28, "mAB A-curve/CLUT offsets must be both present or both absent")
	}
	if (offM == 0) != (offMatrix == 0) {
		return nil, outOfRange(offset+20, "mAB M-curve/matrix offsets must be both present or both absent")
	}

	hasACLUT := offA != 0
	if !hasACLUT {
		if inCh != outCh {
			return nil, outOfRange(offset+8, "mAB with only a B stage requires input channels == output channels")
		}
		inCh = 0
	} else if inCh <= 0 || inCh > 4 {
		return nil, outOfRange(offset+8, "unsupported A2B input channel count")
	}

	a2b := &A2B{InputChannels: inCh, OutputChannels: outCh}

	if hasACLUT {
		curves, err := parseCurveArray(data, offset+int(offA), inCh)
		if err != nil {
			return nil, err
		}
		a2b.InputCurves = curves

		clut, gridPoints, precision, err := parseCLUT(data, offset+int(offCLUT), inCh, outCh)
		if err != nil {
			return nil, err
		}
		a2b.CLUT = clut
		a2b.GridPoints = gridPoints
		a2b.Precision = precision
	}

	if offM != 0 {
		curves, err := parseCurveArray(data, offset+int(offM), outCh)
		if err != nil {
			return nil, err
		}
		a2b.MCurves = curves

		mat, err := readMatrix3x4(data, offset+int(offMatrix))
		if err != nil {
			return nil, err
		}
		if pcsIsXYZ {
			for i := range mat {
				mat[i] *= matrixEncodingXYZ
			}
		}
		a2b.Matrix = mat
		a2b.HasMatrix = !isIdentity3x4(mat, 1e-6)
	}

	if offB == 0 {
		return nil, truncated(offset+12, "mAB tag is missing required B curves")
	}
	curves, err := parseCurveArray(data, offset+int(offB), outCh)
	if err != nil {
		return nil, err
	}
	a2b.OutputCurves = curves

	return a2b, nil
}

func parseCurveArray(data []byte, offset, n int) ([]Curve, error) {
	curves := make([]Curve, n)
	pos := offset
	for i := 0; i < n; i++ {
		c, consumed, err := parseCurve(data, pos)
		if err != nil {
			return nil, err
		}
		curves[i] = c
		pos += alignedSize(consumed)
	}
	return curves, nil
}

// parseCLUT decodes the CLUT stage of an mAB tag: a per-dimension grid-point
// table, a sample precision byte (1 or 2) and the flattened sample data.
func parseCLUT(data []byte, offset, inCh, outCh int) ([]float64, []int, int, error) {
	r := newReader(data)
	gridBytes, err := r.bytes(offset, 16)
	if err != nil {
		return nil, nil, 0, err
	}
	gridPoints := make([]int, inCh)
	total := 1
	for i := 0; i < inCh; i++ {
		n := int(gridBytes[i])
		if n < 2 {
			return nil, nil, 0, outOfRange(offset+i, "CLUT grid must have at least 2 points per dimension")
		}
		gridPoints[i] = n
		total *= n
	}

	precisionByte, err := r.bytes(offset+16, 1)
	if err != nil {
		return nil, nil, 0, err
	}
	precision := int(precisionByte[0])
	if precision != 1 && precision != 2 {
		return nil, nil, 0, outOfRange(offset+16, "CLUT precision must be 1 or 2 bytes")
	}

	numSamples := total * outCh
	dataOffset := offset + 20
	raw, err := r.bytes(dataOffset, numSamples*precision)
	if err != nil {
		return nil, nil, 0, err
	}

	clut := make([]float64, numSamples)
	if precision == 1 {
		for i := 0; i < numSamples; i++ {
			clut[i] = float64(raw[i]) / 255
		}
	} else {
		for i := 0; i < numSamples; i++ {
			v, _ := readU16BE(raw, i*2)
			clut[i] = float64(v) / 65535
		}
	}
	return clut, gridPoints, precision, nil
}

func readMatrix3x3(data []byte, offset int) (Matrix3x3, error) {
	var m Matrix3x3
	for i := 0; i < 9; i++ {
		v, err := readS15F16BE(data, offset+i*4)
		if err != nil {
			return Matrix3x3{}, err
		}
		m[i] = float64(v)
	}
	return m, nil
}

func readMatrix3x4(data []byte, offset int) (Matrix3x4, error) {
	var m Matrix3x4
	for i := 0; i < 12; i++ {
		v, err := readS15F16BE(data, offset+i*4)
		if err != nil {
			return Matrix3x4{}, err
		}
		m[i] = float64(v)
	}
	return m, nil
}

func ipow(base, exp int) int {
	out := 1
	for i := 0; i < exp; i++ {
		out *= base
	}
	return out
}
