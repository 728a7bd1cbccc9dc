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

// Package engine 將一次轉動串成單一交易：
// 扣款 → 產生盤面（含寶珠值）→ 算分 → 模式轉移 → 派彩。
package engine

import (
	"github.com/zintix-labs/orbrush/errs"
	"github.com/zintix-labs/orbrush/sdk/calc"
	"github.com/zintix-labs/orbrush/sdk/core"
	"github.com/zintix-labs/orbrush/sdk/feature"
	"github.com/zintix-labs/orbrush/sdk/gen"
	"github.com/zintix-labs/orbrush/sdk/ledger"
	"github.com/zintix-labs/orbrush/sdk/orb"
	"github.com/zintix-labs/orbrush/sdk/slot"
	"github.com/zintix-labs/orbrush/spec"
)

// Outcome 一次轉動的完整結果，State 為轉動後的新快照。
type Outcome struct {
	Grid       slot.Grid
	Values     slot.CellValues
	Wins       []slot.WinLine
	LineWin    int64 // 連線 + Scatter
	FeatureWin int64 // Hold&Spin 結算
	TotalWin   int64
	TotalBet   int64
	Debit      int64 // Base 才會扣款
	PrevMode   slot.Mode
	Mode       slot.Mode
	Event      slot.FeatureEvent
	NewOrbs    int
	Retrigger  bool
	Grand      bool
	State      slot.State
}

// Engine 無狀態，可跨 goroutine 共用；session 狀態與亂數來源皆由呼叫端傳入。
type Engine struct {
	setting  *spec.GameSetting
	screen   *gen.ScreenGenerator
	eval     *calc.LineEvaluator
	features *feature.Machine
}

type Option func(*options)

type options struct {
	policy feature.JackpotPolicy
}

// WithJackpotPolicy 指定彩金命中後的彩金池處理方式，預設不變動。
func WithJackpotPolicy(p feature.JackpotPolicy) Option {
	return func(o *options) { o.policy = p }
}

// New 以已初始化的 GameSetting 建立引擎。
func New(gs *spec.GameSetting, opts ...Option) (*Engine, error) {
	if gs == nil {
		return nil, errs.InvalidFatalf("nil game setting")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	res, err := orb.NewResolver(&gs.Orb)
	if err != nil {
		return nil, err
	}
	return &Engine{
		setting:  gs,
		screen:   gen.NewScreenGenerator(gs, res),
		eval:     calc.NewLineEvaluator(gs),
		features: feature.NewMachine(gs, o.policy),
	}, nil
}

func (e *Engine) Setting() *spec.GameSetting { return e.setting }

// NewState 建立新 session 的初始狀態；credits < 0 使用設定檔預設值。
func (e *Engine) NewState(credits int64) slot.State {
	return slot.NewState(e.setting, credits)
}

// Spin 執行一次轉動。失敗時 prev 不受影響，呼叫端應繼續使用 prev。
func (e *Engine) Spin(rng core.RAND, prev slot.State, bet ledger.Bet) (Outcome, error) {
	return e.spin(rng, prev, bet, nil)
}

// AppendSpin 同 Spin，但 Wins 寫入 dst 以重用緩衝（模擬器熱路徑）。
func (e *Engine) AppendSpin(rng core.RAND, prev slot.State, bet ledger.Bet, dst []slot.WinLine) (Outcome, error) {
	return e.spin(rng, prev, bet, dst)
}

func (e *Engine) spin(rng core.RAND, prev slot.State, bet ledger.Bet, dst []slot.WinLine) (Outcome, error) {
	if err := prev.Validate(); err != nil {
		return Outcome{}, errs.Wrap(err, "invalid session state")
	}
	l, totalBet, err := ledger.PrepareSpin(&e.setting.Bet, prev.Mode, prev.Ledger, bet)
	if err != nil {
		return Outcome{}, err
	}

	grid, values, err := e.screen.GenScreen(rng, prev.Mode, l.BetMultiplier, gen.Previous{
		Grid:   &prev.Grid,
		Values: &prev.Values,
		Locked: &prev.HoldAndSpin.Locked,
	})
	if err != nil {
		return Outcome{}, err
	}

	var lineWin int64
	wins := dst
	if prev.Mode != slot.ModeHoldAndSpin {
		lineWin, wins = e.eval.AppendEvaluate(dst, &grid, l.SelectedLines, l.BetPerLine(), totalBet)
	}

	// 讓轉移函式看到本盤的押注與扣款後餘額
	mid := prev
	mid.Ledger = l
	tr, err := e.features.Advance(mid, feature.Outcome{Grid: grid, Values: values, LineWin: lineWin})
	if err != nil {
		return Outcome{}, err
	}

	totalWin := lineWin + tr.FeatureWin
	l, err = ledger.ApplyResult(l, totalWin)
	if err != nil {
		return Outcome{}, err
	}
	l.FeatureWin = tr.Accumulator

	next := slot.State{
		Mode:        tr.Mode,
		Grid:        grid,
		Values:      values,
		HoldAndSpin: tr.HoldAndSpin,
		FreeGames:   tr.FreeGames,
		Ledger:      l,
		Jackpots:    tr.Jackpots,
		Spins:       prev.Spins + 1,
	}
	debit := ledger.Debit(prev.Mode, totalBet)
	if next.Ledger.Credits != prev.Ledger.Credits-debit+totalWin {
		return Outcome{}, errs.Invariantf("credit conservation broken: %d -> %d (debit %d win %d)",
			prev.Ledger.Credits, next.Ledger.Credits, debit, totalWin)
	}
	return Outcome{
		Grid:       grid,
		Values:     values,
		Wins:       wins,
		LineWin:    lineWin,
		FeatureWin: tr.FeatureWin,
		TotalWin:   totalWin,
		TotalBet:   totalBet,
		Debit:      debit,
		PrevMode:   prev.Mode,
		Mode:       tr.Mode,
		Event:      tr.Event,
		NewOrbs:    tr.NewOrbs,
		Retrigger:  tr.Retrigger,
		Grand:      tr.Grand,
		State:      next,
	}, nil
}
