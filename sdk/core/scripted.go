// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import (
	"encoding/binary"
	"fmt"
)

// Scripted 依序回放預先排好的取樣值，用於決定性測試與重現特定盤面。
//
// Floats 供 Float64 使用，Ints 供 IntN/UintN 使用；IntN 會對 max 取餘。
// 佇列耗盡時回退至 Fallback（未設定則 Float64 回 0.999、IntN 回 0）。
type Scripted struct {
	Floats   []float64
	Ints     []int
	Fallback PRNG

	fi, ii int
}

// NewScripted 建立回放器。
func NewScripted(floats []float64, ints []int) *Scripted {
	return &Scripted{Floats: floats, Ints: ints}
}

func (s *Scripted) Float64() float64 {
	if s.fi < len(s.Floats) {
		v := s.Floats[s.fi]
		s.fi++
		return v
	}
	if s.Fallback != nil {
		return s.Fallback.Float64()
	}
	return 0.999
}

func (s *Scripted) IntN(max int) int {
	if max <= 0 {
		return -1
	}
	if s.ii < len(s.Ints) {
		v := s.Ints[s.ii]
		s.ii++
		return ((v % max) + max) % max
	}
	if s.Fallback != nil {
		return s.Fallback.IntN(max)
	}
	return 0
}

func (s *Scripted) UintN(max uint) uint {
	if max == 0 {
		return 0
	}
	return uint(s.IntN(int(max)))
}

func (s *Scripted) Uint64() uint64 {
	if s.Fallback != nil {
		return s.Fallback.Uint64()
	}
	return uint64(s.IntN(1 << 30))
}

// Consumed 回傳已消耗的 Float64 / IntN 次數。
func (s *Scripted) Consumed() (floats, ints int) { return s.fi, s.ii }

// Snapshot 只記錄游標位置，足以在同一份腳本上回放。
func (s *Scripted) Snapshot() ([]byte, error) {
	b := make([]byte, 0, 16)
	b = binary.BigEndian.AppendUint64(b, uint64(s.fi))
	b = binary.BigEndian.AppendUint64(b, uint64(s.ii))
	return b, nil
}

func (s *Scripted) Restore(data []byte) error {
	if len(data) != 16 {
		return fmt.Errorf("scripted: snapshot must be 16 bytes, got %d", len(data))
	}
	s.fi = int(binary.BigEndian.Uint64(data[:8]))
	s.ii = int(binary.BigEndian.Uint64(data[8:]))
	return nil
}
