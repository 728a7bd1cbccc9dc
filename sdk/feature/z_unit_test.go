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

package feature

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/zintix-labs/orbrush/errs"
	"github.com/zintix-labs/orbrush/games/configs"
	"github.com/zintix-labs/orbrush/sdk/slot"
	"github.com/zintix-labs/orbrush/spec"
	"pgregory.net/rapid"
)

func loadSetting(t testing.TB) *spec.GameSetting {
	t.Helper()
	raw, err := fs.ReadFile(configs.FS, configs.Reference)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	gs, err := spec.GetGameSettingByYAML(raw)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	return gs
}

// plainGrid 每軸同一種低分圖標，不含特殊圖標。
func plainGrid() slot.Grid {
	var g slot.Grid
	pattern := [spec.Columns]spec.Symbol{spec.Nine, spec.Ten, spec.J, spec.Q, spec.K}
	for c := range g {
		for r := range g[c] {
			g[c][r] = pattern[c]
		}
	}
	return g
}

func blankGrid() slot.Grid {
	var g slot.Grid
	for c := range g {
		for r := range g[c] {
			g[c][r] = spec.Blank
		}
	}
	return g
}

func putOrbs(g *slot.Grid, v *slot.CellValues, n int, cash int64) {
	for i := 0; i < n; i++ {
		c, r := i/spec.Rows, i%spec.Rows
		g[c][r] = spec.Orb
		v[c][r] = slot.Cash(cash)
	}
}

// holdState 以前 locked 格為已鎖定寶珠的 Hold&Spin 狀態。
func holdState(gs *spec.GameSetting, locked, respins int, cash int64) slot.State {
	s := slot.NewState(gs, 1000)
	s.Mode = slot.ModeHoldAndSpin
	s.Grid = blankGrid()
	putOrbs(&s.Grid, &s.Values, locked, cash)
	for i := 0; i < locked; i++ {
		s.HoldAndSpin.Locked[i/spec.Rows][i%spec.Rows] = true
	}
	s.HoldAndSpin.RespinsRemaining = respins
	return s
}

func TestSixOrbsStartHoldAndSpin(t *testing.T) {
	gs := loadSetting(t)
	m := NewMachine(gs, nil)
	prev := slot.NewState(gs, 1000)
	out := Outcome{Grid: plainGrid()}
	putOrbs(&out.Grid, &out.Values, 6, 100)
	out.LineWin = 40

	tr, err := m.Advance(prev, out)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if tr.Mode != slot.ModeHoldAndSpin || tr.HoldAndSpin.RespinsRemaining != 3 || tr.HoldAndSpin.Locked.Count() != 6 {
		t.Fatalf("unexpected transition %+v", tr)
	}
	if kind, ok := tr.Event.Start(); !ok || kind != slot.FeatureHoldAndSpin {
		t.Fatalf("expected HoldAndSpin start, got %v", tr.Event)
	}
	if tr.Accumulator != 40 || tr.FeatureWin != 0 {
		t.Fatalf("trigger spin line win must seed the accumulator, got %+v", tr)
	}
}

func TestFiveOrbsStayInBase(t *testing.T) {
	gs := loadSetting(t)
	m := NewMachine(gs, nil)
	out := Outcome{Grid: plainGrid(), LineWin: 30}
	putOrbs(&out.Grid, &out.Values, 5, 100)
	tr, err := m.Advance(slot.NewState(gs, 1000), out)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if tr.Mode != slot.ModeBase || !tr.Event.IsNone() || tr.Accumulator != 0 {
		t.Fatalf("unexpected transition %+v", tr)
	}
}

func TestHoldAndSpinHasPriorityOverFreeGames(t *testing.T) {
	gs := loadSetting(t)
	m := NewMachine(gs, nil)
	out := Outcome{Grid: plainGrid()}
	putOrbs(&out.Grid, &out.Values, 6, 100)
	out.Grid[4][0], out.Grid[4][1], out.Grid[4][2] = spec.Bonus, spec.Bonus, spec.Bonus
	tr, err := m.Advance(slot.NewState(gs, 1000), out)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if tr.Mode != slot.ModeHoldAndSpin || tr.FreeGames.Remaining != 0 {
		t.Fatalf("hold and spin must win the tie, got %+v", tr)
	}
}

func TestThreeBonusStartFreeGames(t *testing.T) {
	gs := loadSetting(t)
	m := NewMachine(gs, nil)
	out := Outcome{Grid: plainGrid()}
	out.Grid[0][0], out.Grid[2][1], out.Grid[4][2] = spec.Bonus, spec.Bonus, spec.Bonus
	tr, err := m.Advance(slot.NewState(gs, 1000), out)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if tr.Mode != slot.ModeFreeGames || tr.FreeGames.Remaining != 6 || tr.FreeGames.TotalPlayed != 0 {
		t.Fatalf("unexpected transition %+v", tr)
	}
	if kind, ok := tr.Event.Start(); !ok || kind != slot.FeatureFreeGames {
		t.Fatalf("expected FreeGames start, got %v", tr.Event)
	}
}

func TestFreeGamesRetrigger(t *testing.T) {
	gs := loadSetting(t)
	m := NewMachine(gs, nil)
	prev := slot.NewState(gs, 1000)
	prev.Mode = slot.ModeFreeGames
	prev.FreeGames = slot.FreeGamesState{Remaining: 2, TotalPlayed: 4}
	prev.Ledger.FeatureWin = 70

	out := Outcome{Grid: plainGrid(), LineWin: 10}
	out.Grid[0][0], out.Grid[1][1], out.Grid[3][2] = spec.Bonus, spec.Bonus, spec.Bonus
	tr, err := m.Advance(prev, out)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if tr.FreeGames.Remaining != 8 || tr.FreeGames.TotalPlayed != 4 || !tr.Retrigger {
		t.Fatalf("retrigger adds 6 without consuming the spin, got %+v", tr.FreeGames)
	}
	if !tr.Event.IsNone() || tr.Mode != slot.ModeFreeGames || tr.Accumulator != 80 {
		t.Fatalf("unexpected transition %+v", tr)
	}
	if prev.FreeGames.Remaining != 2 {
		t.Fatalf("input state mutated")
	}
}

func TestFreeGamesCountdownEndsWithSummary(t *testing.T) {
	gs := loadSetting(t)
	m := NewMachine(gs, nil)
	prev := slot.NewState(gs, 1000)
	prev.Mode = slot.ModeFreeGames
	prev.FreeGames = slot.FreeGamesState{Remaining: 2, TotalPlayed: 4}
	prev.Ledger.FeatureWin = 200

	tr, err := m.Advance(prev, Outcome{Grid: plainGrid(), LineWin: 25})
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if tr.FreeGames.Remaining != 1 || tr.FreeGames.TotalPlayed != 5 || tr.Accumulator != 225 || !tr.Event.IsNone() {
		t.Fatalf("unexpected countdown %+v", tr)
	}

	prev.FreeGames = tr.FreeGames
	prev.Ledger.FeatureWin = tr.Accumulator
	tr, err = m.Advance(prev, Outcome{Grid: plainGrid(), LineWin: 25})
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	amt, ok := tr.Event.Summary()
	if !ok || amt != 250 {
		t.Fatalf("expected summary of 250, got %v", tr.Event)
	}
	if tr.Mode != slot.ModeBase || tr.Accumulator != 0 || tr.FreeGames != (slot.FreeGamesState{}) {
		t.Fatalf("free games must reset on summary, got %+v", tr)
	}
}

func TestRespinResetsOnNewOrb(t *testing.T) {
	gs := loadSetting(t)
	m := NewMachine(gs, nil)
	prev := holdState(gs, 6, 1, 100)
	out := Outcome{Grid: prev.Grid, Values: prev.Values}
	out.Grid[4][2] = spec.Orb
	out.Values[4][2] = slot.Cash(200)

	tr, err := m.Advance(prev, out)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if tr.Mode != slot.ModeHoldAndSpin || tr.HoldAndSpin.RespinsRemaining != 3 || tr.NewOrbs != 1 {
		t.Fatalf("new orb must reset respins, got %+v", tr)
	}
	if !tr.HoldAndSpin.Locked[4][2] || tr.HoldAndSpin.Locked.Count() != 7 {
		t.Fatalf("new orb must lock, got %+v", tr.HoldAndSpin.Locked)
	}
}

func TestRespinsExhaustedPaysOrbs(t *testing.T) {
	gs := loadSetting(t)
	m := NewMachine(gs, nil)
	prev := holdState(gs, 6, 2, 100)
	prev.Values[0][0] = slot.Jackpot(slot.TierMini)
	prev.Ledger.FeatureWin = 40
	out := Outcome{Grid: prev.Grid, Values: prev.Values}

	tr, err := m.Advance(prev, out)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if tr.Mode != slot.ModeHoldAndSpin || tr.HoldAndSpin.RespinsRemaining != 1 {
		t.Fatalf("blank respin must decrement, got %+v", tr)
	}

	prev.HoldAndSpin = tr.HoldAndSpin
	tr, err = m.Advance(prev, out)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	// 5 × 100 現金 + MINI 1000.00 = 100000
	want := int64(500 + 100000)
	if tr.FeatureWin != want {
		t.Fatalf("payout %d want %d", tr.FeatureWin, want)
	}
	amt, ok := tr.Event.Summary()
	if !ok || amt != want+40 {
		t.Fatalf("summary must include the trigger line win, got %v", tr.Event)
	}
	if tr.Mode != slot.ModeBase || tr.Accumulator != 0 || tr.HoldAndSpin.Locked.Count() != 0 || tr.Grand {
		t.Fatalf("hold and spin must reset, got %+v", tr)
	}
}

func TestFullScreenWinsGrand(t *testing.T) {
	gs := loadSetting(t)
	m := NewMachine(gs, nil)
	prev := holdState(gs, 14, 3, 100)
	out := Outcome{Grid: prev.Grid, Values: prev.Values}
	out.Grid[4][2] = spec.Orb
	out.Values[4][2] = slot.Cash(100)

	tr, err := m.Advance(prev, out)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	want := int64(15*100) + prev.Jackpots.MinorUnits(slot.TierGrand)
	if !tr.Grand || tr.FeatureWin != want || tr.Mode != slot.ModeBase {
		t.Fatalf("expected grand payout %d, got %+v", want, tr)
	}
}

type countingPolicy struct{ hits []slot.Tier }

func (p *countingPolicy) OnHit(pool slot.JackpotPool, hits []slot.Tier) slot.JackpotPool {
	p.hits = append(p.hits, hits...)
	return pool
}

func TestJackpotPolicySeesHits(t *testing.T) {
	gs := loadSetting(t)
	policy := &countingPolicy{}
	m := NewMachine(gs, policy)
	prev := holdState(gs, 6, 1, 100)
	prev.Values[1][0] = slot.Jackpot(slot.TierMajor)
	if _, err := m.Advance(prev, Outcome{Grid: prev.Grid, Values: prev.Values}); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if len(policy.hits) != 1 || policy.hits[0] != slot.TierMajor {
		t.Fatalf("unexpected hits %v", policy.hits)
	}
}

func TestLockedCellOverwriteIsInvariant(t *testing.T) {
	gs := loadSetting(t)
	m := NewMachine(gs, nil)
	prev := holdState(gs, 6, 3, 100)
	out := Outcome{Grid: prev.Grid, Values: prev.Values}
	out.Values[0][0] = slot.Cash(999)
	if _, err := m.Advance(prev, out); !errors.Is(err, errs.ErrInvariant) {
		t.Fatalf("expected invariant error, got %v", err)
	}

	out = Outcome{Grid: prev.Grid, Values: prev.Values}
	out.Grid[4][0] = spec.A
	if _, err := m.Advance(prev, out); !errors.Is(err, errs.ErrInvariant) {
		t.Fatalf("expected invariant error for non orb symbol, got %v", err)
	}
}

func TestRespinProperty(t *testing.T) {
	gs := loadSetting(t)
	m := NewMachine(gs, nil)
	rapid.Check(t, func(t *rapid.T) {
		locked := rapid.IntRange(6, 14).Draw(t, "locked")
		respins := rapid.IntRange(1, 3).Draw(t, "respins")
		prev := holdState(gs, locked, respins, 100)
		out := Outcome{Grid: prev.Grid, Values: prev.Values}
		newOrbs := 0
		for i := locked; i < spec.Cells; i++ {
			if rapid.Bool().Draw(t, "orb") {
				out.Grid[i/spec.Rows][i%spec.Rows] = spec.Orb
				out.Values[i/spec.Rows][i%spec.Rows] = slot.Cash(100)
				newOrbs++
			}
		}
		tr, err := m.Advance(prev, out)
		if err != nil {
			t.Fatalf("advance: %v", err)
		}
		if tr.NewOrbs != newOrbs {
			t.Fatalf("new orbs %d want %d", tr.NewOrbs, newOrbs)
		}
		full := locked+newOrbs == spec.Cells
		ended := full || (newOrbs == 0 && respins == 1)
		if ended {
			if tr.Mode != slot.ModeBase || tr.FeatureWin != orbSum(locked+newOrbs, 100, full, prev) {
				t.Fatalf("expected conclusion, got %+v", tr)
			}
			return
		}
		if tr.Mode != slot.ModeHoldAndSpin {
			t.Fatalf("expected hold and spin to continue")
		}
		want := respins - 1
		if newOrbs > 0 {
			want = 3
		}
		if tr.HoldAndSpin.RespinsRemaining != want {
			t.Fatalf("respins %d want %d", tr.HoldAndSpin.RespinsRemaining, want)
		}
		if tr.HoldAndSpin.Locked.Count() != locked+newOrbs {
			t.Fatalf("locks must only grow")
		}
	})
}

func orbSum(n int, cash int64, grand bool, s slot.State) int64 {
	total := int64(n) * cash
	if grand {
		total += s.Jackpots.MinorUnits(slot.TierGrand)
	}
	return total
}
