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

// lanes holds the four color registers (r, g, b, a) for one vector batch.
// Every op consumes and produces these registers in place.
type lanes struct {
	r, g, b, a []float64
}

func newLanes(width int) *lanes {
	return &lanes{
		r: make([]float64, width),
		g: make([]float64, width),
		b: make([]float64, width),
		a: make([]float64, width),
	}
}

// Execute runs prog over n pixels at the process-selected lane width.
func Execute(prog *Program, src, dst []byte, n int) error {
	return ExecuteWithLanes(prog, src, dst, n, int(SelectedLaneWidth()))
}

// ExecuteWithLanes runs prog over n pixels using an explicit lane width
// (exposed so tests can verify the lane-width-equivalence property).
func ExecuteWithLanes(prog *Program, src, dst []byte, n, width int) error {
	if width <= 0 {
		width = 1
	}
	srcBpp := prog.srcFmt.BytesPerPixel()
	dstBpp := prog.dstFmt.BytesPerPixel()

	full := n / width
	for v := 0; v < full; v++ {
		srcOff := v * width * srcBpp
		dstOff := v * width * dstBpp
		if err := runBatch(prog, src[srcOff:srcOff+width*srcBpp], dst[dstOff:dstOff+width*dstBpp], width); err != nil {
			return err
		}
	}

	remainder := n - full*width
	if remainder > 0 {
		scratchWidth := 16
		if width > scratchWidth {
			scratchWidth = width
		}
		srcScratch := make([]byte, scratchWidth*srcBpp)
		dstScratch := make([]byte, scratchWidth*dstBpp)
		copy(srcScratch, src[full*width*srcBpp:full*width*srcBpp+remainder*srcBpp])
		if err := runBatch(prog, srcScratch[:width*srcBpp], dstScratch[:width*dstBpp], width); err != nil {
			return err
		}
		copy(dst[full*width*dstBpp:], dstScratch[:remainder*dstBpp])
	}
	return nil
}

// runBatch executes prog's instruction list once over a batch of width
// pixels, reading from srcBuf and writing to dstBuf (each exactly
// width*bytesPerPixel long).
func runBatch(prog *Program, srcBuf, dstBuf []byte, width int) error {
	lns := newLanes(width)
	srcBpp := prog.srcFmt.BytesPerPixel()
	dstBpp := prog.dstFmt.BytesPerPixel()

	for _, in := range prog.instrs {
		switch in.op {
		case opLoadA8, opLoadG8, opLoadABGR4444, opLoadRGB565, opLoadRGB888, opLoadRGBA8888,
			opLoadRGBA1010102, opLoadRGB161616BE, opLoadRGBA16161616BE, opLoadRGBhhh, opLoadRGBAhhhh,
			opLoadRGBfff, opLoadRGBAffff:
			for i := 0; i < width; i++ {
				r, g, b, a := loadPixel(prog.srcFmt, srcBuf[i*srcBpp:(i+1)*srcBpp])
				lns.r[i], lns.g[i], lns.b[i], lns.a[i] = r, g, b, a
			}

		case opStoreA8, opStoreG8, opStoreABGR4444, opStoreRGB565, opStoreRGB888, opStoreRGBA8888,
			opStoreRGBA1010102, opStoreRGB161616BE, opStoreRGBA16161616BE, opStoreRGBhhh, opStoreRGBAhhhh,
			opStoreRGBfff, opStoreRGBAffff:
			for i := 0; i < width; i++ {
				storePixel(prog.dstFmt, dstBuf[i*dstBpp:(i+1)*dstBpp], lns.r[i], lns.g[i], lns.b[i], lns.a[i])
			}
			return nil

		case opSwapRB:
			for i := range lns.r {
				lns.r[i], lns.b[i] = lns.b[i], lns.r[i]
			}

		case opClamp:
			for i := range lns.r {
				lns.r[i] = clamp(lns.r[i], 0, 1)
				lns.g[i] = clamp(lns.g[i], 0, 1)
				lns.b[i] = clamp(lns.b[i], 0, 1)
				lns.a[i] = clamp(lns.a[i], 0, 1)
			}

		case opInvert:
			for i := range lns.r {
				lns.r[i] = 1 - lns.r[i]
				lns.g[i] = 1 - lns.g[i]
				lns.b[i] = 1 - lns.b[i]
			}

		case opForceOpaque:
			for i := range lns.a {
				lns.a[i] = 1
			}

		case opPremul:
			for i := range lns.r {
				lns.r[i] *= lns.a[i]
				lns.g[i] *= lns.a[i]
				lns.b[i] *= lns.a[i]
			}

		case opUnpremul:
			for i := range lns.r {
				scale := 0.0
				if lns.a[i] != 0 {
					inv := 1 / lns.a[i]
					if !math.IsInf(inv, 0) {
						scale = inv
					}
				}
				lns.r[i] *= scale
				lns.g[i] *= scale
				lns.b[i] *= scale
			}

		case opMatrix3x3:
			m := in.arg.(Matrix3x3)
			for i := range lns.r {
				v := mulVec3x3(m, [3]float64{lns.r[i], lns.g[i], lns.b[i]})
				lns.r[i], lns.g[i], lns.b[i] = v[0], v[1], v[2]
			}

		case opMatrix3x4:
			m := in.arg.(Matrix3x4)
			for i := range lns.r {
				v := mulVec3x4(m, [3]float64{lns.r[i], lns.g[i], lns.b[i]})
				lns.r[i], lns.g[i], lns.b[i] = v[0], v[1], v[2]
			}

		case opLabToXYZ:
			for i := range lns.r {
				lns.r[i], lns.g[i], lns.b[i] = labToXYZ(lns.r[i], lns.g[i], lns.b[i])
			}

		case opTFR:
			tf := in.arg.(TransferFunction)
			for i := range lns.r {
				lns.r[i] = tf.Eval(lns.r[i])
			}
		case opTFG:
			tf := in.arg.(TransferFunction)
			for i := range lns.g {
				lns.g[i] = tf.Eval(lns.g[i])
			}
		case opTFB:
			tf := in.arg.(TransferFunction)
			for i := range lns.b {
				lns.b[i] = tf.Eval(lns.b[i])
			}
		case opTFA:
			tf := in.arg.(TransferFunction)
			for i := range lns.a {
				lns.a[i] = tf.Eval(lns.a[i])
			}

		case opTable8R, opTable16R:
			tbl := in.arg.([]byte)
			width8 := tableWidth(in.op)
			for i := range lns.r {
				lns.r[i] = evalTable(lns.r[i], tbl, width8)
			}
		case opTable8G, opTable16G:
			tbl := in.arg.([]byte)
			width8 := tableWidth(in.op)
			for i := range lns.g {
				lns.g[i] = evalTable(lns.g[i], tbl, width8)
			}
		case opTable8B, opTable16B:
			tbl := in.arg.([]byte)
			width8 := tableWidth(in.op)
			for i := range lns.b {
				lns.b[i] = evalTable(lns.b[i], tbl, width8)
			}
		case opTable8A, opTable16A:
			tbl := in.arg.([]byte)
			width8 := tableWidth(in.op)
			for i := range lns.a {
				lns.a[i] = evalTable(lns.a[i], tbl, width8)
			}

		case opCLUT3D8, opCLUT3D16:
			a := in.arg.(*A2B)
			for i := range lns.r {
				v := a.evalCLUT([]float64{lns.r[i], lns.g[i], lns.b[i]})
				lns.r[i], lns.g[i], lns.b[i] = v[0], v[1], v[2]
			}

		case opCLUT4D8, opCLUT4D16:
			a := in.arg.(*A2B)
			for i := range lns.r {
				v := a.evalCLUT([]float64{lns.r[i], lns.g[i], lns.b[i], lns.a[i]})
				lns.r[i], lns.g[i], lns.b[i] = v[0], v[1], v[2]
				lns.a[i] = 1
			}
		}
	}
	return nil
}

func tableWidth(o op) int {
	switch o {
	case opTable8R, opTable8G, opTable8B, opTable8A:
		return 1
	default:
		return 2
	}
}

// labToXYZ implements §4.9's Lab -> XYZ (D50) conversion.
func labToXYZ(r, g, b float64) (x, y, z float64) {
	l := r * 100
	aStar := g*255 - 128
	bStar := b*255 - 128

	fy := (l + 16) / 116
	fx := fy + aStar/500
	fz := fy - bStar/200

	inv := func(v float64) float64 {
		v3 := v * v * v
		if v3 > 0.008856 {
			return v3
		}
		return (v - 16.0/116) / 7.787
	}

	x = inv(fx) * d50Illuminant[0]
	y = inv(fy) * d50Illuminant[1]
	z = inv(fz) * d50Illuminant[2]
	return
}
