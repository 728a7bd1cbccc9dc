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

// Package ledger 押注驗證、扣款與派彩。所有金額為最小貨幣單位整數。
package ledger

import (
	"github.com/zintix-labs/orbrush/errs"
	"github.com/zintix-labs/orbrush/sdk/slot"
	"github.com/zintix-labs/orbrush/spec"
)

// Bet 一次轉動的押注參數。零值欄位代表沿用目前 Ledger 的設定。
type Bet struct {
	Denomination  int64 `json:"denomination"`
	BetMultiplier int   `json:"bet_multiplier"`
	Lines         int   `json:"lines"`
}

// Resolve 以 Ledger 目前的押注補齊零值欄位。
func (b Bet) Resolve(l slot.Ledger) Bet {
	if b.Denomination == 0 {
		b.Denomination = l.Denomination
	}
	if b.BetMultiplier == 0 {
		b.BetMultiplier = l.BetMultiplier
	}
	if b.Lines == 0 {
		b.Lines = l.SelectedLines
	}
	return b
}

// PrepareSpin 驗證押注並扣款。
//
// 只有 Base 扣款；特色遊戲期間押注鎖定，請求若改變押注視為 InvalidConfiguration。
// 任何錯誤都發生在改動之前，回傳的 Ledger 只有在 err == nil 時才有效。
func PrepareSpin(bs *spec.BetSetting, mode slot.Mode, l slot.Ledger, b Bet) (next slot.Ledger, totalBet int64, err error) {
	b = b.Resolve(l)
	if _, err := bs.Validate(b.Denomination, b.BetMultiplier, b.Lines); err != nil {
		return l, 0, err
	}
	if mode != slot.ModeBase {
		if b.Denomination != l.Denomination || b.BetMultiplier != l.BetMultiplier || b.Lines != l.SelectedLines {
			return l, 0, errs.Invalidf("bet is locked during %s", mode)
		}
	}
	next = l
	next.Denomination = b.Denomination
	next.BetMultiplier = b.BetMultiplier
	next.SelectedLines = b.Lines
	totalBet = next.TotalBet()
	if mode == slot.ModeBase {
		if l.Credits < totalBet {
			return l, 0, errs.Insufficientf("credits %d < total bet %d", l.Credits, totalBet)
		}
		next.Credits -= totalBet
	}
	return next, totalBet, nil
}

// Debit 回傳 PrepareSpin 實際扣除的金額。
func Debit(mode slot.Mode, totalBet int64) int64 {
	if mode == slot.ModeBase {
		return totalBet
	}
	return 0
}

// ApplyResult 派彩：credits + totalWin（Base 的扣款已在 PrepareSpin 完成）。
func ApplyResult(l slot.Ledger, totalWin int64) (slot.Ledger, error) {
	if totalWin < 0 {
		return l, errs.Invariantf("negative total win %d", totalWin)
	}
	l.Credits += totalWin
	return l, nil
}
