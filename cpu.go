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
	"sync"
	"sync/atomic"

	"github.com/klauspost/cpuid/v2"
)

// LaneWidth is the vector width the executor is parameterized over.
type LaneWidth int

const (
	Lane1  LaneWidth = 1
	Lane4  LaneWidth = 4
	Lane8  LaneWidth = 8
	Lane16 LaneWidth = 16
)

var (
	laneOnce    sync.Once
	laneCurrent atomic.Int64
)

// detectLaneWidth maps the detected CPU feature set to the widest lane
// count this portable (no-assembly) executor supports exercising. Since the
// arithmetic itself is plain Go rather than hand-written SIMD, the feature
// bits only gate how aggressively batches are sized; correctness does not
// depend on the choice (see the lane-width-equivalence property).
func detectLaneWidth() LaneWidth {
	switch {
	case cpuid.CPU.Supports(cpuid.AVX512F):
		return Lane16
	case cpuid.CPU.Supports(cpuid.AVX2):
		return Lane8
	case cpuid.CPU.Supports(cpuid.SSE2), cpuid.CPU.Supports(cpuid.ASIMD):
		return Lane4
	default:
		return Lane1
	}
}

// SelectedLaneWidth returns the process-wide lane width, probing the CPU
// exactly once and publishing the result with release/acquire semantics via
// an atomic value (the only piece of global mutable state this library
// carries, per the concurrency model).
func SelectedLaneWidth() LaneWidth {
	laneOnce.Do(func() {
		laneCurrent.Store(int64(detectLaneWidth()))
	})
	return LaneWidth(laneCurrent.Load())
}
