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

// calcScatter 全盤計數，與位置無關，賠付以總押注為基數。Wild 不計入。
func (le *LineEvaluator) calcScatter(dst []slot.WinLine, grid *slot.Grid, totalBet int64) (int64, []slot.WinLine) {
	cells := grid.Cells(spec.Scatter)
	count := len(cells)
	mult := le.pay.Pay(spec.Scatter, count)
	if mult <= 0 {
		return 0, dst
	}
	amount := int64(mult) * totalBet
	dst = append(dst, slot.WinLine{
		Line:   slot.ScatterLine,
		Symbol: spec.Scatter,
		Count:  count,
		Amount: amount,
		Cells:  cells,
	})
	return amount, dst
}
