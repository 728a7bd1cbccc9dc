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
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/orbrush/errs"
	"github.com/zintix-labs/orbrush/spec"
)

// HoldAndSpinState 只在 Hold&Spin 期間有意義。
type HoldAndSpinState struct {
	Locked           Locks `json:"locked"`
	RespinsRemaining int   `json:"respins_remaining"`
	IsGrandWon       bool  `json:"is_grand_won"`
}

// FreeGamesState 免費遊戲計數
type FreeGamesState struct {
	Remaining   int `json:"remaining"`
	TotalPlayed int `json:"total_played"`
}

// JackpotPool 四個彩金池的顯示金額（貨幣單位）。
type JackpotPool struct {
	Mini  decimal.Decimal `json:"mini"`
	Minor decimal.Decimal `json:"minor"`
	Major decimal.Decimal `json:"major"`
	Grand decimal.Decimal `json:"grand"`
}

var hundred = decimal.NewFromInt(100)

// NewJackpotPool 依設定檔的初始值建立彩金池。
func NewJackpotPool(js spec.JackpotSetting) JackpotPool {
	return JackpotPool{Mini: js.Mini, Minor: js.Minor, Major: js.Major, Grand: js.Grand}
}

// Amount 回傳階層的貨幣金額；TierNone 為 0。
func (p JackpotPool) Amount(t Tier) decimal.Decimal {
	switch t {
	case TierMini:
		return p.Mini
	case TierMinor:
		return p.Minor
	case TierMajor:
		return p.Major
	case TierGrand:
		return p.Grand
	}
	return decimal.Zero
}

// MinorUnits 將階層金額換成最小貨幣單位（×100，捨去小數）。
func (p JackpotPool) MinorUnits(t Tier) int64 {
	return p.Amount(t).Mul(hundred).IntPart()
}

// Ledger 押注與餘額。Credits 是玩家餘額的唯一真實來源。
type Ledger struct {
	Credits       int64 `json:"credits"`
	Denomination  int64 `json:"denomination"`
	BetMultiplier int   `json:"bet_multiplier"`
	SelectedLines int   `json:"selected_lines"`
	FeatureWin    int64 `json:"feature_win"`
}

// TotalBet 每次重新計算，不快取。
func (l Ledger) TotalBet() int64 {
	return spec.TotalBet(l.Denomination, l.BetMultiplier, l.SelectedLines)
}

func (l Ledger) BetPerLine() int64 {
	return spec.BetPerLine(l.Denomination, l.BetMultiplier)
}

// State 一個 session 的完整快照。全部由值型別組成，
// 複製即為深拷貝；轉移函式只會產生新的 State，不會改動舊的。
type State struct {
	Mode        Mode             `json:"mode"`
	Grid        Grid             `json:"grid"`
	Values      CellValues       `json:"values"`
	HoldAndSpin HoldAndSpinState `json:"hold_and_spin"`
	FreeGames   FreeGamesState   `json:"free_games"`
	Ledger      Ledger           `json:"ledger"`
	Jackpots    JackpotPool      `json:"jackpots"`
	Spins       uint64           `json:"spins"`
}

// InitialGrid 開機畫面
var InitialGrid = Grid{
	{spec.A, spec.K, spec.Q},
	{spec.J, spec.Ten, spec.Nine},
	{spec.Buffalo, spec.Wolf, spec.Eagle},
	{spec.Cougar, spec.Wild, spec.Scatter},
	{spec.A, spec.K, spec.Q},
}

// NewState 依設定檔建立初始狀態；credits < 0 時使用設定檔的 initial_credits。
func NewState(gs *spec.GameSetting, credits int64) State {
	if credits < 0 {
		credits = gs.InitialCredits
	}
	d := gs.Bet.Defaults
	return State{
		Mode: ModeBase,
		Grid: InitialGrid,
		Ledger: Ledger{
			Credits:       credits,
			Denomination:  d.Denomination,
			BetMultiplier: d.BetMultiplier,
			SelectedLines: d.Lines,
		},
		Jackpots: NewJackpotPool(gs.Jackpots),
	}
}

// Validate 檢查外部傳入（例如回放）的狀態是否自洽。
func (s *State) Validate() error {
	if s.Mode > ModeHoldAndSpin {
		return errs.Invariantf("unknown mode %d", s.Mode)
	}
	if s.Ledger.Credits < 0 {
		return errs.Invariantf("negative credits %d", s.Ledger.Credits)
	}
	if s.HoldAndSpin.RespinsRemaining < 0 {
		return errs.Invariantf("negative respins %d", s.HoldAndSpin.RespinsRemaining)
	}
	if s.FreeGames.Remaining < 0 || s.FreeGames.TotalPlayed < 0 {
		return errs.Invariantf("negative free games counters %+v", s.FreeGames)
	}
	for c := range s.Grid {
		for r := range s.Grid[c] {
			sym, v := s.Grid[c][r], s.Values[c][r]
			if !sym.Valid() {
				return errs.Invariantf("cell %d,%d has unknown symbol", c, r)
			}
			if (sym == spec.Orb) != (v.Kind != ValueNone) {
				return errs.Invariantf("cell %d,%d symbol %s has value kind %s", c, r, sym, v.Kind)
			}
			if s.HoldAndSpin.Locked[c][r] && sym != spec.Orb {
				return errs.Invariantf("locked cell %d,%d is not an orb", c, r)
			}
		}
	}
	switch s.Mode {
	case ModeHoldAndSpin:
		if s.HoldAndSpin.RespinsRemaining == 0 {
			return errs.Invariantf("hold and spin active with no respins")
		}
	case ModeFreeGames:
		if s.FreeGames.Remaining == 0 {
			return errs.Invariantf("free games active with no spins remaining")
		}
		fallthrough
	default:
		if s.HoldAndSpin.Locked.Count() != 0 {
			return errs.Invariantf("locks present outside hold and spin")
		}
	}
	return nil
}
