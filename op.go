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

// op is one instruction of the compiled transform program. The enum stays
// fixed-width; an op's operand, if any, is carried beside it in the arg
// field of its instr.
type op int

const (
	opLoadA8 op = iota
	opLoadG8
	opLoadABGR4444
	opLoadRGB565
	opLoadRGB888
	opLoadRGBA8888
	opLoadRGBA1010102
	opLoadRGB161616BE
	opLoadRGBA16161616BE
	opLoadRGBhhh
	opLoadRGBAhhhh
	opLoadRGBfff
	opLoadRGBAffff

	opStoreA8
	opStoreG8
	opStoreABGR4444
	opStoreRGB565
	opStoreRGB888
	opStoreRGBA8888
	opStoreRGBA1010102
	opStoreRGB161616BE
	opStoreRGBA16161616BE
	opStoreRGBhhh
	opStoreRGBAhhhh
	opStoreRGBfff
	opStoreRGBAffff

	opSwapRB
	opClamp
	opInvert
	opForceOpaque
	opPremul
	opUnpremul
	opMatrix3x3
	opMatrix3x4
	opLabToXYZ

	opTFR
	opTFG
	opTFB
	opTFA

	opTable8R
	opTable8G
	opTable8B
	opTable8A
	opTable16R
	opTable16G
	opTable16B
	opTable16A

	opCLUT3D8
	opCLUT3D16
	opCLUT4D8
	opCLUT4D16
)

var loadOpByLayout = map[int]op{
	layoutA8:              opLoadA8,
	layoutG8:               opLoadG8,
	layoutABGR4444:         opLoadABGR4444,
	layoutRGB565:           opLoadRGB565,
	layoutRGB888:           opLoadRGB888,
	layoutRGBA8888:         opLoadRGBA8888,
	layoutRGBA1010102:      opLoadRGBA1010102,
	layoutRGB161616BE:      opLoadRGB161616BE,
	layoutRGBA16161616BE:   opLoadRGBA16161616BE,
	layoutRGBhhh:           opLoadRGBhhh,
	layoutRGBAhhhh:         opLoadRGBAhhhh,
	layoutRGBfff:           opLoadRGBfff,
	layoutRGBAffff:         opLoadRGBAffff,
}

var storeOpByLayout = map[int]op{
	layoutA8:              opStoreA8,
	layoutG8:               opStoreG8,
	layoutABGR4444:         opStoreABGR4444,
	layoutRGB565:           opStoreRGB565,
	layoutRGB888:           opStoreRGB888,
	layoutRGBA8888:         opStoreRGBA8888,
	layoutRGBA1010102:      opStoreRGBA1010102,
	layoutRGB161616BE:      opStoreRGB161616BE,
	layoutRGBA16161616BE:   opStoreRGBA16161616BE,
	layoutRGBhhh:           opStoreRGBhhh,
	layoutRGBAhhhh:         opStoreRGBAhhhh,
	layoutRGBfff:           opStoreRGBfff,
	layoutRGBAffff:         opStoreRGBAffff,
}

// tfOpFor / table8OpFor / table16OpFor select the per-channel variant of a
// curve-application op, channel in {0:r, 1:g, 2:b, 3:a}.
func tfOpFor(channel int) op {
	return [4]op{opTFR, opTFG, opTFB, opTFA}[channel]
}

func table8OpFor(channel int) op {
	return [4]op{opTable8R, opTable8G, opTable8B, opTable8A}[channel]
}

func table16OpFor(channel int) op {
	return [4]op{opTable16R, opTable16G, opTable16B, opTable16A}[channel]
}

// instr is one emitted instruction: the op plus its operand, stored out of
// line so the op stream itself stays a flat slice of small values.
type instr struct {
	op  op
	arg any
}

// Program is the compiled output of the pipeline compiler (C8): an ordered
// instruction list ready for the executor (C9).
type Program struct {
	instrs   []instr
	srcFmt   PixelFormat
	dstFmt   PixelFormat
	srcAlpha AlphaFormat
	dstAlpha AlphaFormat
}

func (p *Program) emit(o op) { p.instrs = append(p.instrs, instr{op: o}) }

func (p *Program) emitArg(o op, arg any) { p.instrs = append(p.instrs, instr{op: o, arg: arg}) }
