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

package slot

import (
	"encoding/json"
	"strings"

	"github.com/zintix-labs/orbrush/errs"
	"github.com/zintix-labs/orbrush/spec"
)

// Cell 盤面座標
type Cell struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// Grid 5×3 盤面，索引為 [col][row]。以陣列表示，尺寸由型別保證。
type Grid [spec.Columns][spec.Rows]spec.Symbol

// CellValue 格子附加值。
//
//   - ValueCash：Cash 為最小貨幣單位金額。
//   - ValueJackpot：Tier 為彩金階層，實際金額在結算當下才依彩金池換算。
type CellValue struct {
	Kind ValueKind `json:"kind"`
	Cash int64     `json:"cash,omitempty"`
	Tier Tier      `json:"tier,omitempty"`
}

func Cash(amount int64) CellValue { return CellValue{Kind: ValueCash, Cash: amount} }

func Jackpot(t Tier) CellValue { return CellValue{Kind: ValueJackpot, Tier: t} }

// CellValues 與 Grid 平行的附加值矩陣
type CellValues [spec.Columns][spec.Rows]CellValue

// Locks Hold&Spin 鎖定矩陣
type Locks [spec.Columns][spec.Rows]bool

// Count 計算盤面上 sym 的數量
func (g *Grid) Count(sym spec.Symbol) int {
	n := 0
	for c := range g {
		for r := range g[c] {
			if g[c][r] == sym {
				n++
			}
		}
	}
	return n
}

// Cells 回傳 sym 出現的所有座標（column-major）。
func (g *Grid) Cells(sym spec.Symbol) []Cell {
	var out []Cell
	for c := range g {
		for r := range g[c] {
			if g[c][r] == sym {
				out = append(out, Cell{Col: c, Row: r})
			}
		}
	}
	return out
}

// String 以列為主輸出，方便測試與日誌閱讀。
func (g *Grid) String() string {
	var sb strings.Builder
	for r := 0; r < spec.Rows; r++ {
		for c := 0; c < spec.Columns; c++ {
			if c > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(g[c][r].String())
		}
		if r < spec.Rows-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// GridFromSlices 將外部（例如 JSON）傳入的 [col][row] 切片轉為 Grid。
// 尺寸不符是呼叫端違反合約。
func GridFromSlices(src [][]spec.Symbol) (Grid, error) {
	var m [spec.Columns][spec.Rows]spec.Symbol
	if err := fillMatrix("grid", src, &m); err != nil {
		return Grid{}, err
	}
	for c := range m {
		for r, s := range m[c] {
			if !s.Valid() {
				return Grid{}, errs.Invariantf("grid cell %d,%d has unknown symbol", c, r)
			}
		}
	}
	return Grid(m), nil
}

// UnmarshalJSON 只接受 5×3；短缺的格子不能默默補成零值。
func (g *Grid) UnmarshalJSON(b []byte) error {
	var src [][]spec.Symbol
	if err := json.Unmarshal(b, &src); err != nil {
		return err
	}
	v, err := GridFromSlices(src)
	if err != nil {
		return err
	}
	*g = v
	return nil
}

func (v *CellValues) UnmarshalJSON(b []byte) error {
	return unmarshalMatrix("values", b, (*[spec.Columns][spec.Rows]CellValue)(v))
}

func (l *Locks) UnmarshalJSON(b []byte) error {
	return unmarshalMatrix("locked", b, (*[spec.Columns][spec.Rows]bool)(l))
}

func unmarshalMatrix[T any](name string, b []byte, dst *[spec.Columns][spec.Rows]T) error {
	var src [][]T
	if err := json.Unmarshal(b, &src); err != nil {
		return err
	}
	var m [spec.Columns][spec.Rows]T
	if err := fillMatrix(name, src, &m); err != nil {
		return err
	}
	*dst = m
	return nil
}

func fillMatrix[T any](name string, src [][]T, dst *[spec.Columns][spec.Rows]T) error {
	if len(src) != spec.Columns {
		return errs.Invariantf("%s must have %d columns, got %d", name, spec.Columns, len(src))
	}
	for c, col := range src {
		if len(col) != spec.Rows {
			return errs.Invariantf("%s column %d must have %d rows, got %d", name, c, spec.Rows, len(col))
		}
		copy(dst[c][:], col)
	}
	return nil
}

// Count 計算已鎖定格數
func (l *Locks) Count() int {
	n := 0
	for c := range l {
		for r := range l[c] {
			if l[c][r] {
				n++
			}
		}
	}
	return n
}
