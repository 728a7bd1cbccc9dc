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

package orbrush

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/zintix-labs/orbrush/dto"
	"github.com/zintix-labs/orbrush/errs"
	"github.com/zintix-labs/orbrush/games/configs"
	"github.com/zintix-labs/orbrush/sdk/core"
	"github.com/zintix-labs/orbrush/sdk/engine"
	"github.com/zintix-labs/orbrush/sdk/ledger"
	"github.com/zintix-labs/orbrush/sdk/slot"
	"github.com/zintix-labs/orbrush/spec"
	"pgregory.net/rapid"
)

const (
	gidReference spec.GID = 1
	gidRich      spec.GID = 2
)

func newTestOrbrush(t *testing.T) *Orbrush {
	t.Helper()
	ob, err := NewAuto(core.Default(), Configs(configs.FS))
	if err != nil {
		t.Fatalf("new auto: %v", err)
	}
	return ob
}

func newTestRuntime(t *testing.T, maxSessions int) *SlotRuntime {
	t.Helper()
	rt, err := newTestOrbrush(t).BuildRuntime(maxSessions, nil)
	if err != nil {
		t.Fatalf("build runtime: %v", err)
	}
	t.Cleanup(rt.Close)
	return rt
}

func TestNewAutoRegistersEmbeddedGames(t *testing.T) {
	ob := newTestOrbrush(t)
	if ids := ob.IDs(); len(ids) != 2 || ids[0] != gidReference || ids[1] != gidRich {
		t.Fatalf("unexpected ids %v", ids)
	}
	sum, err := ob.Summary()
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	again, _ := ob.Summary()
	if len(sum) != 2 || &sum[0] != &again[0] {
		t.Fatalf("summary must be built once")
	}
	if ent, ok := ob.EntryByName("BUFFALO_ORBS"); !ok || ent.GID != gidReference {
		t.Fatalf("lookup by name failed: %+v", ent)
	}
}

func TestMachineRequiresFrozenCatalog(t *testing.T) {
	ob, err := New(core.Default(), Configs(configs.FS))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := ob.RegisterAll(); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := ob.NewMachine(gidReference, -1); err == nil {
		t.Fatalf("expected error before freeze")
	}
	ob.Freeze()
	if _, err := ob.NewMachine(gidReference, -1); err != nil {
		t.Fatalf("new machine: %v", err)
	}
	if _, err := ob.NewMachine(99, -1); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := New(nil, Configs(configs.FS)); err == nil {
		t.Fatalf("expected error for nil factory")
	}
}

func TestMachineSpinReconcilesCredits(t *testing.T) {
	m, err := newTestOrbrush(t).NewMachineWithSeed(gidRich, 3, -1)
	if err != nil {
		t.Fatalf("machine: %v", err)
	}
	credits := m.State().Ledger.Credits
	for i := 0; i < 200; i++ {
		res, err := m.Spin(&dto.SpinRequest{})
		if err != nil {
			t.Fatalf("spin %d: %v", i, err)
		}
		if res.Credits != credits-res.Debit+res.TotalWin {
			t.Fatalf("spin %d: credits %d, want %d-%d+%d", i, res.Credits, credits, res.Debit, res.TotalWin)
		}
		if res.PrevMode != slot.ModeBase && res.Debit != 0 {
			t.Fatalf("spin %d: feature spin debited %d", i, res.Debit)
		}
		credits = res.Credits
	}
	if st := m.State(); st.Ledger.Credits != credits || st.Spins != 200 {
		t.Fatalf("state not committed: %+v", st.Ledger)
	}
}

func TestSameSeedSameSequence(t *testing.T) {
	ob := newTestOrbrush(t)
	a, _ := ob.NewMachineWithSeed(gidReference, 42, -1)
	b, _ := ob.NewMachineWithSeed(gidReference, 42, -1)
	for i := 0; i < 50; i++ {
		ra, err := a.Spin(&dto.SpinRequest{})
		if err != nil {
			t.Fatalf("spin a: %v", err)
		}
		rb, err := b.Spin(&dto.SpinRequest{})
		if err != nil {
			t.Fatalf("spin b: %v", err)
		}
		if ra.Grid != rb.Grid || ra.TotalWin != rb.TotalWin || ra.RNG != rb.RNG {
			t.Fatalf("spin %d diverged", i)
		}
	}
}

func TestMachineRejectsReentrantSpin(t *testing.T) {
	m, _ := newTestOrbrush(t).NewMachineWithSeed(gidReference, 1, -1)
	before := m.State()
	m.busy.Store(true)
	if _, err := m.Spin(&dto.SpinRequest{}); !errors.Is(err, errs.ErrBusy) {
		t.Fatalf("expected busy, got %v", err)
	}
	m.busy.Store(false)
	if after := m.State(); after.Ledger != before.Ledger || after.Spins != before.Spins {
		t.Fatalf("busy rejection changed state")
	}
	if _, err := m.Spin(&dto.SpinRequest{}); err != nil {
		t.Fatalf("spin after release: %v", err)
	}
}

func TestFailedSpinKeepsStateAndRNG(t *testing.T) {
	m, _ := newTestOrbrush(t).NewMachineWithSeed(gidReference, 5, 0)
	snap, _ := m.SnapshotCore()
	if _, err := m.Spin(&dto.SpinRequest{}); !errors.Is(err, errs.ErrInsufficientCredits) {
		t.Fatalf("expected insufficient credits, got %v", err)
	}
	if _, err := m.Spin(&dto.SpinRequest{Lines: 30}); !errors.Is(err, errs.ErrInvalidConfiguration) {
		t.Fatalf("expected invalid configuration, got %v", err)
	}
	after, _ := m.SnapshotCore()
	if string(snap) != string(after) {
		t.Fatalf("failed spin advanced the rng")
	}
	if st := m.State(); st.Spins != 0 || st.Ledger.Credits != 0 {
		t.Fatalf("failed spin changed state")
	}
	if _, err := m.Spin(&dto.SpinRequest{GameID: gidRich}); !errors.Is(err, errs.ErrInvalidConfiguration) {
		t.Fatalf("expected game id mismatch, got %v", err)
	}
}

func TestMachineSetBet(t *testing.T) {
	m, _ := newTestOrbrush(t).NewMachineWithSeed(gidReference, 8, -1)
	d := m.Setting().Bet.Defaults
	if err := m.SetBet(ledger.Bet{Lines: 1}); err != nil {
		t.Fatalf("set bet: %v", err)
	}
	res, err := m.Spin(&dto.SpinRequest{})
	if err != nil {
		t.Fatalf("spin: %v", err)
	}
	if res.TotalBet != spec.TotalBet(d.Denomination, d.BetMultiplier, 1) {
		t.Fatalf("bet not applied: %d", res.TotalBet)
	}
}

func TestRuntimeSessionLifecycle(t *testing.T) {
	rt := newTestRuntime(t, 0)
	credits := int64(1000)
	view, err := rt.OpenSession(gidReference, &credits, ledger.Bet{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if view.Ledger.Credits != 1000 || view.Mode != slot.ModeBase || view.State == "" {
		t.Fatalf("unexpected view %+v", view)
	}
	res, err := rt.Spin(context.Background(), &dto.SpinRequest{Session: view.Session})
	if err != nil {
		t.Fatalf("spin: %v", err)
	}
	got, err := rt.Session(view.Session)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if got.Ledger.Credits != res.Credits || got.Spins != 1 {
		t.Fatalf("session view out of date: %+v", got)
	}
	if _, err := rt.CloseSession(view.Session); err != nil {
		t.Fatalf("close session: %v", err)
	}
	if _, err := rt.Spin(context.Background(), &dto.SpinRequest{Session: view.Session}); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected not found after close, got %v", err)
	}
	if _, err := rt.OpenSession(99, nil, ledger.Bet{}); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected unknown game, got %v", err)
	}
	neg := int64(-1)
	if _, err := rt.OpenSession(gidReference, &neg, ledger.Bet{}); !errors.Is(err, errs.ErrInvalidConfiguration) {
		t.Fatalf("expected invalid credits, got %v", err)
	}
	m := rt.Metrics()
	if m.Sessions != 0 || m.Pools[0].Opened != 1 || m.Pools[0].Released != 1 || m.Pools[0].Spins != 1 {
		t.Fatalf("unexpected metrics %+v", m.Pools[0])
	}
}

func TestRuntimeReplayReproducesSpins(t *testing.T) {
	rt := newTestRuntime(t, 0)
	view, err := rt.OpenSession(gidRich, nil, ledger.Bet{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	prev := view.State
	for i := 0; i < 300; i++ {
		res, err := rt.Spin(context.Background(), &dto.SpinRequest{Session: view.Session})
		if err != nil {
			t.Fatalf("spin %d: %v", i, err)
		}
		rep, err := rt.Replay(&dto.ReplayRequest{GameID: gidRich, State: prev, RNG: res.RNG.Before})
		if err != nil {
			t.Fatalf("replay %d: %v", i, err)
		}
		if rep.Grid != res.Grid || rep.Values != res.Values || rep.TotalWin != res.TotalWin ||
			rep.Mode != res.Mode || rep.State != res.State || rep.RNG.After != res.RNG.After {
			t.Fatalf("replay %d diverged", i)
		}
		prev = res.State
	}
	if _, err := rt.Replay(&dto.ReplayRequest{GameID: gidRich, State: prev}); !errors.Is(err, errs.ErrInvalidConfiguration) {
		t.Fatalf("expected missing rng error, got %v", err)
	}
}

func TestRuntimeHonorsContextAndClose(t *testing.T) {
	rt := newTestRuntime(t, 0)
	view, _ := rt.OpenSession(gidReference, nil, ledger.Bet{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := rt.Spin(ctx, &dto.SpinRequest{Session: view.Session})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
	if e, ok := errs.AsErr(err); !ok || e.ErrLv != errs.Warn {
		t.Fatalf("cancellation must be a warning: %v", err)
	}
	if _, err := rt.Spin(context.Background(), &dto.SpinRequest{Session: "not-a-uuid"}); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	rt.Close()
	rt.Close()
	if !rt.Closed() || rt.ClosedReason() != "closed" {
		t.Fatalf("runtime not closed")
	}
	if _, err := rt.Spin(context.Background(), &dto.SpinRequest{Session: view.Session}); err == nil {
		t.Fatalf("expected error after close")
	}
	for _, p := range rt.Metrics().Pools {
		if !p.Closed || p.CloseInflight != 0 {
			t.Fatalf("pool not closed cleanly: %+v", p)
		}
	}
}

func TestSessionLimit(t *testing.T) {
	rt := newTestRuntime(t, 1)
	if _, err := rt.OpenSession(gidReference, nil, ledger.Bet{}); err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := rt.OpenSession(gidReference, nil, ledger.Bet{}); !errors.Is(err, errs.ErrBusy) {
		t.Fatalf("expected limit error, got %v", err)
	}
	if _, err := rt.OpenSession(gidRich, nil, ledger.Bet{}); err != nil {
		t.Fatalf("limit is per game: %v", err)
	}
}

// faultyFactory 產生在取樣時 panic 或快照失敗的 PRNG
type faultyFactory struct {
	panics bool
}

type faultyPRNG struct {
	core.PRNG
	panics bool
}

func (f faultyFactory) New(seed int64) core.PRNG {
	return &faultyPRNG{PRNG: core.Default().New(seed), panics: f.panics}
}

func (r *faultyPRNG) explode() {
	if r.panics {
		panic("rng exploded")
	}
}

func (r *faultyPRNG) IntN(n int) int { r.explode(); return r.PRNG.IntN(n) }
func (r *faultyPRNG) UintN(n uint) uint { r.explode(); return r.PRNG.UintN(n) }
func (r *faultyPRNG) Float64() float64 { r.explode(); return r.PRNG.Float64() }
func (r *faultyPRNG) Uint64() uint64 { r.explode(); return r.PRNG.Uint64() }

func (r *faultyPRNG) Snapshot() ([]byte, error) {
	if !r.panics {
		return nil, errors.New("snapshot unavailable")
	}
	return r.PRNG.Snapshot()
}

func newFaultyPool(t *testing.T, panics bool) *SessionPool {
	t.Helper()
	gs, err := newTestOrbrush(t).GameSetting(gidReference)
	if err != nil {
		t.Fatalf("setting: %v", err)
	}
	eng, err := engine.New(gs)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return newSessionPool(eng, faultyFactory{panics: panics}, 1, 0, slog.New(slog.DiscardHandler))
}

func TestSessionPoolQuarantinesPanickingSession(t *testing.T) {
	p := newFaultyPool(t, true)
	m, err := p.Open(nil, ledger.Bet{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_, err = p.Spin(context.Background(), &dto.SpinRequest{Session: m.ID()})
	if e, ok := errs.AsErr(err); !ok || e.ErrLv != errs.Fatal {
		t.Fatalf("expected fatal error from panic, got %v", err)
	}
	if m.Busy() {
		t.Fatalf("busy flag leaked after panic")
	}
	if _, err := p.Get(m.ID()); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("panicking session must be quarantined, got %v", err)
	}
	mt := p.Metrics()
	if mt.Panics != 1 || mt.Quarantined != 1 || mt.Active != 0 || mt.Inflight != 0 || mt.BrokenBacklog != 1 {
		t.Fatalf("unexpected metrics %+v", mt)
	}
}

func TestSessionPoolQuarantinesFatalErrors(t *testing.T) {
	p := newFaultyPool(t, false)
	m, _ := p.Open(nil, ledger.Bet{})
	if _, err := p.Spin(context.Background(), &dto.SpinRequest{Session: m.ID()}); err == nil {
		t.Fatalf("expected snapshot failure")
	}
	if mt := p.Metrics(); mt.Fatals != 1 || mt.Panics != 0 || mt.Quarantined != 1 {
		t.Fatalf("unexpected metrics %+v", mt)
	}
}

func TestSessionPoolClosesWhenOverwhelmed(t *testing.T) {
	p := newFaultyPool(t, true)
	for i := 0; i <= brokenBacklog; i++ {
		m, err := p.Open(nil, ledger.Bet{})
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		_, _ = p.Spin(context.Background(), &dto.SpinRequest{Session: m.ID()})
	}
	if !p.Closed() || p.ClosedReason() != "overwhelmed_by_failures" {
		t.Fatalf("pool should close after %d failures, reason %q", brokenBacklog+1, p.ClosedReason())
	}
	if _, err := p.Open(nil, ledger.Bet{}); err == nil {
		t.Fatalf("closed pool must not open sessions")
	}
}

func TestSessionPoolKeepsSessionOnRequestErrors(t *testing.T) {
	rt := newTestRuntime(t, 0)
	zero := int64(0)
	view, _ := rt.OpenSession(gidReference, &zero, ledger.Bet{})
	_, err := rt.Spin(context.Background(), &dto.SpinRequest{Session: view.Session})
	if !errors.Is(err, errs.ErrInsufficientCredits) {
		t.Fatalf("expected insufficient credits, got %v", err)
	}
	if _, err := rt.Session(view.Session); err != nil {
		t.Fatalf("request error must not remove session: %v", err)
	}
	if mt := rt.Metrics().Pools[0]; mt.Quarantined != 0 || mt.Fatals != 0 {
		t.Fatalf("unexpected metrics %+v", mt)
	}
}

func TestSimulatorCountsRounds(t *testing.T) {
	sim, err := newTestOrbrush(t).NewSimulatorWithSeed(gidRich, 9)
	if err != nil {
		t.Fatalf("simulator: %v", err)
	}
	st, _, err := sim.Sim(ledger.Bet{}, 500, false)
	if err != nil {
		t.Fatalf("sim: %v", err)
	}
	if st.Summary.Rounds != 500 || st.Summary.Spins < 500 {
		t.Fatalf("unexpected rounds %d spins %d", st.Summary.Rounds, st.Summary.Spins)
	}
	if st.Summary.TotalBet != 500*st.Summary.BetPerRound {
		t.Fatalf("total bet %d is not rounds × bet", st.Summary.TotalBet)
	}

	st, _, err = sim.SimMP(ledger.Bet{}, 200, 4, false)
	if err != nil {
		t.Fatalf("sim mp: %v", err)
	}
	if st.Summary.Rounds != 800 {
		t.Fatalf("unexpected merged rounds %d", st.Summary.Rounds)
	}

	if _, _, err := sim.Sim(ledger.Bet{Lines: 30}, 10, false); !errors.Is(err, errs.ErrInvalidConfiguration) {
		t.Fatalf("expected invalid bet, got %v", err)
	}
	if _, _, err := sim.SimMP(ledger.Bet{}, 10, 0, false); err == nil {
		t.Fatalf("expected error for zero workers")
	}
}

func TestSimulatorIsReproducible(t *testing.T) {
	ob := newTestOrbrush(t)
	a, _ := ob.NewSimulatorWithSeed(gidReference, 1234)
	b, _ := ob.NewSimulatorWithSeed(gidReference, 1234)
	ra, _, err := a.Sim(ledger.Bet{}, 300, false)
	if err != nil {
		t.Fatalf("sim a: %v", err)
	}
	rb, _, _ := b.Sim(ledger.Bet{}, 300, false)
	if ra.Summary.TotalWin != rb.Summary.TotalWin || ra.Summary.Spins != rb.Summary.Spins {
		t.Fatalf("same seed produced different reports")
	}
}

func TestSimPlayers(t *testing.T) {
	sim, _ := newTestOrbrush(t).NewSimulatorWithSeed(gidRich, 77)
	st, est, _, err := sim.SimPlayers(3, 30, 20, ledger.Bet{}, 100, false)
	if err != nil {
		t.Fatalf("sim players: %v", err)
	}
	if est.Players != 30 {
		t.Fatalf("unexpected players %d", est.Players)
	}
	if st.Summary.Rounds == 0 || st.Summary.Rounds > 30*100 {
		t.Fatalf("unexpected rounds %d", st.Summary.Rounds)
	}
	s := est.SessionStat
	total := s.Bust.Hat + s.Cashout.Hat + s.Alive.Hat
	if total < 0.999 || total > 1.001 {
		t.Fatalf("session outcomes must sum to 1, got %v", total)
	}
	if _, _, _, err := sim.SimPlayers(1, 0, 20, ledger.Bet{}, 10, false); err == nil {
		t.Fatalf("expected error for zero players")
	}
}

func TestSeedMakerYieldsDistinctNonNegativeSeeds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		sm := newSeedMaker(rapid.Int64().Draw(t, "seed"))
		seen := make(map[int64]struct{}, 256)
		for i := 0; i < 256; i++ {
			s := sm.next()
			if s < 0 {
				t.Fatalf("negative seed %d", s)
			}
			if _, dup := seen[s]; dup {
				t.Fatalf("duplicate seed %d at %d", s, i)
			}
			seen[s] = struct{}{}
		}
	})
}
