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

// SymbolMask 以位元表示圖標集合，圖標索引 i 對應 1 << i。
type SymbolMask = uint32

// LineEvaluator 依賠付表與線表計算盤面贏分。建立後唯讀，可跨 goroutine 共用。
type LineEvaluator struct {
	pay      *spec.PayTable
	lines    *spec.LineSetting
	wildMask SymbolMask // Wild
	paidMask SymbolMask // 可作為連線比對圖標者
}

// NewLineEvaluator 以已初始化的設定建立算分器。
func NewLineEvaluator(gs *spec.GameSetting) *LineEvaluator {
	le := &LineEvaluator{
		pay:      &gs.PayTable,
		lines:    &gs.Lines,
		wildMask: 1 << spec.Wild,
	}
	for i := 0; i < spec.NumSymbols; i++ {
		if spec.Symbol(i).IsLinePayable() {
			le.paidMask |= 1 << uint(i)
		}
	}
	return le
}

// Evaluate 計算連線與 Scatter 贏分。回傳順序為線的評估順序，Scatter 最後。
func (le *LineEvaluator) Evaluate(grid *slot.Grid, activeLines int, betPerLine, totalBet int64) (int64, []slot.WinLine) {
	return le.AppendEvaluate(nil, grid, activeLines, betPerLine, totalBet)
}

// AppendEvaluate 同 Evaluate，但將結果附加到 dst，模擬熱路徑可重用緩衝。
func (le *LineEvaluator) AppendEvaluate(dst []slot.WinLine, grid *slot.Grid, activeLines int, betPerLine, totalBet int64) (int64, []slot.WinLine) {
	total, dst := le.calcByLine(dst, grid, le.lines.Active(activeLines), betPerLine)
	win, dst := le.calcScatter(dst, grid, totalBet)
	return total + win, dst
}
