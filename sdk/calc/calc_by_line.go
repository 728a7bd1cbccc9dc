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

package calc

import (
	"github.com/zintix-labs/orbrush/sdk/slot"
	"github.com/zintix-labs/orbrush/spec"
)

// matchSymbol 取得一條線的比對圖標：col 0 的圖標；若為 Wild，沿線找第一個非 Wild。
// 全為 Wild 時比對圖標為 Wild。
func (le *LineEvaluator) matchSymbol(grid *slot.Grid, line *spec.PayLine) spec.Symbol {
	for col, row := range line {
		s := grid[col][row]
		if le.wildMask&(1<<s) == 0 {
			return s
		}
	}
	return spec.Wild
}

// lineRun 從 col 0 起算，等於 sym 或為 Wild 的最長前綴長度。
func (le *LineEvaluator) lineRun(grid *slot.Grid, line *spec.PayLine, sym spec.Symbol) int {
	n := 0
	for col, row := range line {
		s := grid[col][row]
		if s != sym && le.wildMask&(1<<s) == 0 {
			break
		}
		n++
	}
	return n
}

// calcByLine 逐線計分。Scatter / Orb / Bonus 作為比對圖標時整條線不派彩，
// 因此 Wild 不會代替 Scatter。
func (le *LineEvaluator) calcByLine(dst []slot.WinLine, grid *slot.Grid, lines []spec.PayLine, betPerLine int64) (int64, []slot.WinLine) {
	var total int64
	for idx := range lines {
		line := &lines[idx]
		sym := le.matchSymbol(grid, line)
		if le.paidMask&(1<<sym) == 0 {
			continue
		}
		count := le.lineRun(grid, line, sym)
		mult := le.pay.Pay(sym, count)
		if mult <= 0 {
			continue
		}
		amount := int64(mult) * betPerLine
		cells := make([]slot.Cell, count)
		for col := 0; col < count; col++ {
			cells[col] = slot.Cell{Col: col, Row: line[col]}
		}
		dst = append(dst, slot.WinLine{Line: idx, Symbol: sym, Count: count, Amount: amount, Cells: cells})
		total += amount
	}
	return total, dst
}
