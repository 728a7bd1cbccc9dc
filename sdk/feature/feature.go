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

// Package feature 負責 Base ↔ HoldAndSpin ↔ FreeGames 的模式轉移。
//
// Advance 是純函式：輸入上一個 State 與本盤結果，輸出轉移結果，不碰亂數也不改動輸入。
package feature

import (
	"github.com/zintix-labs/orbrush/errs"
	"github.com/zintix-labs/orbrush/sdk/orb"
	"github.com/zintix-labs/orbrush/sdk/slot"
	"github.com/zintix-labs/orbrush/spec"
)

// Outcome 本盤結果
type Outcome struct {
	Grid    slot.Grid
	Values  slot.CellValues
	LineWin int64 // 連線 + Scatter；Hold&Spin 期間為 0
}

// Transition 轉移結果
type Transition struct {
	Mode        slot.Mode
	HoldAndSpin slot.HoldAndSpinState
	FreeGames   slot.FreeGamesState
	Jackpots    slot.JackpotPool
	Event       slot.FeatureEvent
	FeatureWin  int64 // 本盤由寶珠結算入帳的金額
	Accumulator int64 // 更新後的特色遊戲累積贏分
	NewOrbs     int   // Hold&Spin 本盤新落下的寶珠數
	Retrigger   bool
	Grand       bool // Hold&Spin 以滿盤結束
}

// JackpotPolicy 彩金命中後如何更新彩金池。
type JackpotPolicy interface {
	OnHit(pool slot.JackpotPool, hits []slot.Tier) slot.JackpotPool
}

// KeepPool 不扣減也不重置彩金池。
type KeepPool struct{}

func (KeepPool) OnHit(pool slot.JackpotPool, _ []slot.Tier) slot.JackpotPool { return pool }

// Machine 持有觸發門檻等參數，本身不含任何 session 狀態。
type Machine struct {
	hold   spec.HoldAndSpinSetting
	free   spec.FreeGamesSetting
	policy JackpotPolicy
}

// NewMachine policy 為 nil 時使用 KeepPool。
func NewMachine(gs *spec.GameSetting, policy JackpotPolicy) *Machine {
	if policy == nil {
		policy = KeepPool{}
	}
	return &Machine{hold: gs.HoldAndSpin, free: gs.FreeGames, policy: policy}
}

// Advance 依優先序決定下一個模式：
//  1. 進行中的 Hold&Spin
//  2. 寶珠數達門檻 → Hold&Spin（優先於免費遊戲）
//  3. Bonus 數達門檻 → 免費遊戲 / 再觸發
//  4. 免費遊戲遞減
//  5. 主遊戲無變化
func (m *Machine) Advance(prev slot.State, out Outcome) (Transition, error) {
	tr := Transition{
		Mode:        prev.Mode,
		HoldAndSpin: prev.HoldAndSpin,
		FreeGames:   prev.FreeGames,
		Jackpots:    prev.Jackpots,
		Event:       slot.NoEvent(),
		Accumulator: prev.Ledger.FeatureWin,
	}
	if prev.Mode == slot.ModeHoldAndSpin {
		return m.respin(prev, out, tr)
	}
	if prev.Mode != slot.ModeBase && prev.Mode != slot.ModeFreeGames {
		return tr, errs.Invariantf("unknown mode %d", prev.Mode)
	}

	inFree := prev.Mode == slot.ModeFreeGames
	// 免費遊戲中的每盤與觸發特色遊戲的那一盤都計入累積值
	acc := prev.Ledger.FeatureWin + out.LineWin

	switch {
	case out.Grid.Count(spec.Orb) >= m.hold.Trigger:
		tr.Mode = slot.ModeHoldAndSpin
		tr.HoldAndSpin = slot.HoldAndSpinState{RespinsRemaining: m.hold.Respins}
		for c := range out.Grid {
			for r := range out.Grid[c] {
				tr.HoldAndSpin.Locked[c][r] = out.Grid[c][r] == spec.Orb
			}
		}
		tr.Event = slot.StartEvent(slot.FeatureHoldAndSpin)
		tr.Accumulator = acc

	case out.Grid.Count(spec.Bonus) >= m.free.Trigger:
		tr.Accumulator = acc
		if inFree {
			tr.FreeGames.Remaining += m.free.Retrigger
			tr.Retrigger = true
			break
		}
		tr.Mode = slot.ModeFreeGames
		tr.FreeGames = slot.FreeGamesState{Remaining: m.free.Award}
		tr.Event = slot.StartEvent(slot.FeatureFreeGames)

	case inFree:
		if tr.FreeGames.Remaining <= 0 {
			return tr, errs.Invariantf("free games active with %d remaining", tr.FreeGames.Remaining)
		}
		tr.FreeGames.Remaining--
		tr.FreeGames.TotalPlayed++
		tr.Accumulator = acc
		if tr.FreeGames.Remaining == 0 {
			tr.Event = slot.SummaryEvent(acc)
			tr.Mode = slot.ModeBase
			tr.FreeGames = slot.FreeGamesState{}
			tr.Accumulator = 0
		}
	}
	return tr, nil
}

// respin 處理 Hold&Spin 進行中的一盤。
func (m *Machine) respin(prev slot.State, out Outcome, tr Transition) (Transition, error) {
	hs := prev.HoldAndSpin
	if hs.RespinsRemaining <= 0 {
		return tr, errs.Invariantf("hold and spin entered with %d respins", hs.RespinsRemaining)
	}
	newOrbs := 0
	for c := range out.Grid {
		for r := range out.Grid[c] {
			if hs.Locked[c][r] {
				if out.Grid[c][r] != prev.Grid[c][r] || out.Values[c][r] != prev.Values[c][r] {
					return tr, errs.Invariantf("locked cell %d,%d was overwritten", c, r)
				}
				continue
			}
			switch out.Grid[c][r] {
			case spec.Orb:
				hs.Locked[c][r] = true
				newOrbs++
			case spec.Blank:
			default:
				return tr, errs.Invariantf("cell %d,%d has %s during hold and spin", c, r, out.Grid[c][r])
			}
		}
	}
	if newOrbs > 0 {
		hs.RespinsRemaining = m.hold.Respins
	} else {
		hs.RespinsRemaining--
	}
	if out.Grid.Count(spec.Orb) == spec.Cells {
		hs.IsGrandWon = true
	}
	tr.NewOrbs = newOrbs
	tr.HoldAndSpin = hs

	if !hs.IsGrandWon && hs.RespinsRemaining > 0 {
		return tr, nil
	}

	// 結算：彩金階層以當下彩金池換算
	payout := orb.Sum(&out.Grid, &out.Values, prev.Jackpots)
	hits := jackpotHits(&out.Grid, &out.Values)
	if hs.IsGrandWon {
		payout += prev.Jackpots.MinorUnits(slot.TierGrand)
		hits = append(hits, slot.TierGrand)
	}
	if len(hits) > 0 {
		tr.Jackpots = m.policy.OnHit(prev.Jackpots, hits)
	}
	tr.FeatureWin = payout
	tr.Event = slot.SummaryEvent(tr.Accumulator + payout)
	tr.Accumulator = 0
	tr.Grand = hs.IsGrandWon
	tr.Mode = slot.ModeBase
	tr.HoldAndSpin = slot.HoldAndSpinState{}
	tr.FreeGames = slot.FreeGamesState{}
	return tr, nil
}

func jackpotHits(g *slot.Grid, v *slot.CellValues) []slot.Tier {
	var hits []slot.Tier
	for c := range g {
		for r := range g[c] {
			if g[c][r] == spec.Orb && v[c][r].Kind == slot.ValueJackpot {
				hits = append(hits, v[c][r].Tier)
			}
		}
	}
	return hits
}
