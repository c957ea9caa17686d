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
	"golang.org/x/exp/slices"
)

// TagSignature is a 4-byte ICC tag identifier, e.g. 'rTRC'.
type TagSignature [4]byte

func (s TagSignature) String() string { return string(s[:]) }

func sigOf(s string) TagSignature {
	var out TagSignature
	copy(out[:], s)
	return out
}

var (
	sigRTRC = sigOf("rTRC")
	sigGTRC = sigOf("gTRC")
	sigBTRC = sigOf("bTRC")
	sigKTRC = sigOf("kTRC")
	sigRXYZ = sigOf("rXYZ")
	sigGXYZ = sigOf("gXYZ")
	sigBXYZ = sigOf("bXYZ")
	sigA2B0 = sigOf("A2B0")
	sigA2B1 = sigOf("A2B1")
	sigChad = sigOf("chad")
)

// DataColorSpace identifies the ICC header's input color-space field, to the
// extent this library interprets it.
type DataColorSpace int

const (
	SpaceUnknown DataColorSpace = iota
	SpaceGray
	SpaceRGB
	SpaceCMYK
)

// PCS identifies the profile connection space.
type PCS int

const (
	PCSUnknown PCS = iota
	PCSXYZ
	PCSLab
)

// TagEntry is one row of the parsed tag directory.
type TagEntry struct {
	Signature TagSignature
	Offset    uint32
	Size      uint32
}

// ICCProfile is the normalized, in-memory representation of a parsed ICC
// profile. Every Curve/A2B byte slice it reaches aliases into Data; the
// profile must not outlive the buffer it was parsed from.
type ICCProfile struct {
	Data []byte // the raw buffer this profile borrows from

	Size           uint32
	Version        uint8
	DataColorSpace DataColorSpace
	PCS            PCS

	tags []TagEntry

	HasTRC       bool
	TRC          [3]Curve
	HasToXYZD50  bool
	ToXYZD50     Matrix3x4
	HasA2B       bool
	A2B          *A2B
	HasChad      bool
	Chad         Matrix3x3
}

// d50Illuminant is the PCS reference white, CIE XYZ adapted to D50.
var d50Illuminant = [3]float64{0.9642, 1.0000, 0.8249}

// Decode parses an ICC.1:2010 profile from data. The returned profile
// borrows data for the lifetime of every Curve/A2B table it exposes.
func Decode(data []byte) (*ICCProfile, error) {
	if len(data) < 132 {
		return nil, truncated(len(data), "profile shorter than the minimum header+tag-count size")
	}

	sig, err := newReader(data).bytes(36, 4)
	if err != nil {
		return nil, err
	}
	if string(sig) != "acsp" {
		return nil, badSignature(36, "profile file signature is not 'acsp'")
	}

	size, err := readU32BE(data, 0)
	if err != nil {
		return nil, err
	}
	if int(size) > len(data) {
		return nil, outOfRange(0, "declared profile size exceeds buffer length")
	}

	versionRaw, err := readU32BE(data, 8)
	if err != nil {
		return nil, err
	}
	major := uint8(versionRaw >> 24)
	if major > 4 {
		return nil, unsupported("profile major version > 4")
	}

	dcs, err := readDataColorSpace(data, 16)
	if err != nil {
		return nil, err
	}
	pcs, err := readPCS(data, 20)
	if err != nil {
		return nil, err
	}
	if pcs == PCSUnknown {
		return nil, unsupported("PCS is not XYZ or Lab")
	}

	if err := checkIlluminant(data); err != nil {
		return nil, err
	}

	tagCount, err := readU32BE(data, 128)
	if err != nil {
		return nil, err
	}
	tags := make([]TagEntry, tagCount)
	for i := uint32(0); i < tagCount; i++ {
		base := 132 + int(i)*12
		sigBytes, err := newReader(data).bytes(base, 4)
		if err != nil {
			return nil, err
		}
		off, err := readU32BE(data, base+4)
		if err != nil {
			return nil, err
		}
		sz, err := readU32BE(data, base+8)
		if err != nil {
			return nil, err
		}
		if sz < 4 {
			return nil, outOfRange(base+8, "tag size below minimum 4-byte type signature")
		}
		if uint64(off)+uint64(sz) > uint64(size) {
			return nil, outOfRange(base+4, "tag payload exceeds declared profile size")
		}
		var entrySig TagSignature
		copy(entrySig[:], sigBytes)
		tags[i] = TagEntry{Signature: entrySig, Offset: off, Size: sz}
	}
	slices.SortFunc(tags, func(a, b TagEntry) int {
		switch {
		case a.Signature.String() < b.Signature.String():
			return -1
		case a.Signature.String() > b.Signature.String():
			return 1
		default:
			return 0
		}
	})

	p := &ICCProfile{
		Data:           data,
		Size:           size,
		Version:        major,
		DataColorSpace: dcs,
		PCS:            pcs,
		tags:           tags,
	}

	if chadEntry, ok := p.findTag(sigChad); ok {
		mat, err := parseChad(data, int(chadEntry.Offset))
		if err == nil {
			p.HasChad = true
			p.Chad = mat
		}
	}

	if err := p.parseTRCPath(); err != nil {
		return nil, err
	}
	if err := p.parseA2BPath(); err != nil {
		return nil, err
	}

	if !p.usableAsSource() {
		return nil, unsupported("profile has neither a usable TRC+XYZ path nor an A2B path")
	}

	return p, nil
}

func (p *ICCProfile) usableAsSource() bool {
	return (p.HasTRC && p.HasToXYZD50) || p.HasA2B
}

// UsableAsDestination reports whether the profile meets the stricter
// destination invariant: parametric, invertible TRCs and an invertible
// toXYZD50.
func (p *ICCProfile) UsableAsDestination() bool {
	if !p.HasTRC || !p.HasToXYZD50 {
		return false
	}
	for _, c := range p.TRC {
		if c.Kind != CurveParametric || !c.TF.Invertible() {
			return false
		}
	}
	m3 := Matrix3x3{p.ToXYZD50[0], p.ToXYZD50[1], p.ToXYZD50[2], p.ToXYZD50[3], p.ToXYZD50[4], p.ToXYZD50[5], p.ToXYZD50[6], p.ToXYZD50[7], p.ToXYZD50[8]}
	_, err := invert3x3(m3)
	return err == nil
}

func (p *ICCProfile) findTag(sig TagSignature) (TagEntry, bool) {
	for _, t := range p.tags {
		if t.Signature == sig {
			return t, true
		}
	}
	return TagEntry{}, false
}

// TagAt returns the i-th tag directory entry in signature-sorted order.
func (p *ICCProfile) TagAt(i int) (TagEntry, bool) {
	if i < 0 || i >= len(p.tags) {
		return TagEntry{}, false
	}
	return p.tags[i], true
}

// TagCount returns the number of tags in the profile's tag directory.
func (p *ICCProfile) TagCount() int { return len(p.tags) }

// TagBySignature looks up a tag by its 4-byte signature.
func (p *ICCProfile) TagBySignature(sig TagSignature) (TagEntry, bool) {
	return p.findTag(sig)
}

func readDataColorSpace(data []byte, offset int) (DataColorSpace, error) {
	raw, err := newReader(data).bytes(offset, 4)
	if err != nil {
		return SpaceUnknown, err
	}
	switch string(raw) {
	case "GRAY":
		return SpaceGray, nil
	case "RGB ":
		return SpaceRGB, nil
	case "CMYK":
		return SpaceCMYK, nil
	default:
		return SpaceUnknown, nil
	}
}

func readPCS(data []byte, offset int) (PCS, error) {
	raw, err := newReader(data).bytes(offset, 4)
	if err != nil {
		return PCSUnknown, err
	}
	switch string(raw) {
	case "XYZ ":
		return PCSXYZ, nil
	case "Lab ":
		return PCSLab, nil
	default:
		return PCSUnknown, nil
	}
}

func checkIlluminant(data []byte) error {
	const base = 68 // ICC header PCS illuminant field
	for i, want := range d50Illuminant {
		v, err := readS15F16BE(data, base+i*4)
		if err != nil {
			return err
		}
		if abs(float64(v)-want) > 0.01 {
			return outOfRange(base+i*4, "PCS illuminant is not D50 within tolerance")
		}
	}
	return nil
}

// parseChad decodes an 'sf32'-typed chromatic adaptation tag into a 3x3
// matrix. Parsed for completeness (tag-query surface) but never applied.
func parseChad(data []byte, offset int) (Matrix3x3, error) {
	r := newReader(data)
	sig, err := r.bytes(offset, 4)
	if err != nil {
		return Matrix3x3{}, err
	}
	if string(sig) != "sf32" {
		return Matrix3x3{}, badSignature(offset, "chad tag is not of type sf32")
	}
	var m Matrix3x3
	for i := 0; i < 9; i++ {
		v, err := readS15F16BE(data, offset+8+i*4)
		if err != nil {
			return Matrix3x3{}, err
		}
		m[i] = float64(v)
	}
	return m, nil
}

// parseTRCPath implements spec §4.6 step 6: Gray+kTRC synthesis, or
// rTRC/gTRC/bTRC + rXYZ/gXYZ/bXYZ together.
func (p *ICCProfile) parseTRCPath() error {
	if p.DataColorSpace == SpaceGray {
		if entry, ok := p.findTag(sigKTRC); ok {
			c, _, err := parseCurve(p.Data, int(entry.Offset))
			if err != nil {
				return err
			}
			c = canonicalizeCurve(c)
			p.TRC = [3]Curve{c, c, c}
			p.HasTRC = true
			p.ToXYZD50 = Matrix3x4{
				d50Illuminant[0], 0, 0,
				0, d50Illuminant[1], 0,
				0, 0, d50Illuminant[2],
				0, 0, 0,
			}
			p.HasToXYZD50 = true
			return nil
		}
	}

	rTRC, okR := p.findTag(sigRTRC)
	gTRC, okG := p.findTag(sigGTRC)
	bTRC, okB := p.findTag(sigBTRC)
	if okR && okG && okB {
		var curves [3]Curve
		for i, e := range []TagEntry{rTRC, gTRC, bTRC} {
			c, _, err := parseCurve(p.Data, int(e.Offset))
			if err != nil {
				return err
			}
			curves[i] = canonicalizeCurve(c)
		}
		p.TRC = curves
		p.HasTRC = true
	}

	rXYZ, okRX := p.findTag(sigRXYZ)
	gXYZ, okGX := p.findTag(sigGXYZ)
	bXYZ, okBX := p.findTag(sigBXYZ)
	if okRX && okGX && okBX {
		rv, err := readXYZTag(p.Data, int(rXYZ.Offset))
		if err != nil {
			return err
		}
		gv, err := readXYZTag(p.Data, int(gXYZ.Offset))
		if err != nil {
			return err
		}
		bv, err := readXYZTag(p.Data, int(bXYZ.Offset))
		if err != nil {
			return err
		}
		p.ToXYZD50 = Matrix3x4{
			rv[0], gv[0], bv[0],
			rv[1], gv[1], bv[1],
			rv[2], gv[2], bv[2],
			0, 0, 0,
		}
		p.HasToXYZD50 = true
	}
	return nil
}

func readXYZTag(data []byte, offset int) ([3]float64, error) {
	r := newReader(data)
	sig, err := r.bytes(offset, 4)
	if err != nil {
		return [3]float64{}, err
	}
	if string(sig) != "XYZ " {
		return [3]float64{}, badSignature(offset, "expected XYZ tag type")
	}
	var v [3]float64
	for i := 0; i < 3; i++ {
		f, err := readS15F16BE(data, offset+8+i*4)
		if err != nil {
			return [3]float64{}, err
		}
		v[i] = float64(f)
	}
	return v, nil
}

// parseA2BPath implements spec §4.6 step 7: try A2B0 then A2B1.
func (p *ICCProfile) parseA2BPath() error {
	pcsIsXYZ := p.PCS == PCSXYZ
	for _, sig := range []TagSignature{sigA2B0, sigA2B1} {
		entry, ok := p.findTag(sig)
		if !ok {
			continue
		}
		a2b, err := parseA2B(p.Data, int(entry.Offset), pcsIsXYZ)
		if err != nil {
			continue
		}
		p.A2B = a2b
		p.HasA2B = true
		return nil
	}
	return nil
}
