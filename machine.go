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
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/zintix-labs/orbrush/corefmt"
	"github.com/zintix-labs/orbrush/dto"
	"github.com/zintix-labs/orbrush/errs"
	"github.com/zintix-labs/orbrush/sdk/core"
	"github.com/zintix-labs/orbrush/sdk/engine"
	"github.com/zintix-labs/orbrush/sdk/ledger"
	"github.com/zintix-labs/orbrush/sdk/slot"
	"github.com/zintix-labs/orbrush/spec"
)

// Machine 一位玩家的 session：持有自己的 RNG 核心與目前的 slot.State。
//
// 並發語意：
//   - 同一台 Machine 同時只允許一次轉動。前一次尚未完成時再呼叫 Spin，
//     會立即回傳 errs.ErrBusy，不排隊，因此不可能重複扣款或派彩。
//   - 不同 Machine 之間沒有共用狀態；引擎本身無狀態，可共用。
//
// 交易語意：
//   - 轉動失敗時 State 不變，RNG 也還原到轉動前，失敗的請求不會改變之後的亂數序列。
type Machine struct {
	id       uuid.UUID
	gs       *spec.GameSetting
	eng      *engine.Engine
	core     *core.Core
	cf       core.PRNGFactory
	mu       sync.Mutex
	busy     atomic.Bool
	state    slot.State
	initseed int64 // 出生 seed，完整重現請用 Snapshot / Replay
	log      *slog.Logger
	wins     []slot.WinLine // SpinInternal 專用緩衝
	last     engine.Outcome
}

func newMachineWithSeed(eng *engine.Engine, cf core.PRNGFactory, seed int64, credits int64, log *slog.Logger) *Machine {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	id := uuid.New()
	return &Machine{
		id:       id,
		gs:       eng.Setting(),
		eng:      eng,
		core:     core.New(cf.New(seed)),
		cf:       cf,
		state:    eng.NewState(credits),
		initseed: seed,
		log:      log.With(slog.String("session", id.String()), slog.String("game", eng.Setting().GameName)),
		wins:     make([]slot.WinLine, 0, 32),
	}
}

func (m *Machine) ID() string { return m.id.String() }

func (m *Machine) GameID() spec.GID { return m.gs.GameID }

func (m *Machine) Setting() *spec.GameSetting { return m.gs }

func (m *Machine) InitSeed() int64 { return m.initseed }

// Busy 是否有轉動正在進行
func (m *Machine) Busy() bool { return m.busy.Load() }

// Spin 為主要公開入口：驗證請求、執行一次轉動並提交新狀態。
func (m *Machine) Spin(req *dto.SpinRequest) (dto.SpinResult, error) {
	if req == nil {
		return dto.SpinResult{}, errs.Invalidf("nil spin request")
	}
	if req.GameID != 0 && req.GameID != m.gs.GameID {
		return dto.SpinResult{}, errs.Invalidf("game id %d does not match session game %d", req.GameID, m.gs.GameID)
	}
	if !m.busy.CompareAndSwap(false, true) {
		return dto.SpinResult{}, errs.Busyf("session %s: spin already in progress", m.id)
	}
	defer m.busy.Store(false)
	m.mu.Lock()
	defer m.mu.Unlock()

	before, err := m.core.Snapshot()
	if err != nil {
		return dto.SpinResult{}, errs.Wrap(err, "rng snapshot before spin failed")
	}
	out, err := m.eng.Spin(m.core, m.state, req.Bet())
	if err != nil {
		m.rollback(before)
		m.logFailure(err)
		return dto.SpinResult{}, err
	}
	after, err := m.core.Snapshot()
	if err != nil {
		m.rollback(before)
		return dto.SpinResult{}, errs.Wrap(err, "rng snapshot after spin failed")
	}
	res, err := dto.NewSpinResult(m.id.String(), m.gs, &out, before, after)
	if err != nil {
		m.rollback(before)
		return dto.SpinResult{}, err
	}
	m.state = out.State
	m.logOutcome(&out)
	return res, nil
}

// SpinInternal 直接執行一次轉動並回傳內部結果；供模擬器與測試使用。
//
// 跳過忙碌檢查與 DTO 轉換，回傳的 Outcome 與其 Wins 會在下一次呼叫時被覆寫。
func (m *Machine) SpinInternal(bet ledger.Bet) (*engine.Outcome, error) {
	out, err := m.eng.AppendSpin(m.core, m.state, bet, m.wins[:0])
	if err != nil {
		return nil, err
	}
	m.wins = out.Wins
	m.state = out.State
	m.last = out
	return &m.last, nil
}

// State 回傳目前狀態的複本
func (m *Machine) State() slot.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SetBet 在主遊戲中預先設定押注，之後的請求可省略押注欄位。
func (m *Machine) SetBet(bet ledger.Bet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Mode != slot.ModeBase {
		return errs.Invalidf("bet is locked during %s", m.state.Mode)
	}
	b := bet.Resolve(m.state.Ledger)
	if _, err := m.gs.Bet.Validate(b.Denomination, b.BetMultiplier, b.Lines); err != nil {
		return err
	}
	m.state.Ledger.Denomination = b.Denomination
	m.state.Ledger.BetMultiplier = b.BetMultiplier
	m.state.Ledger.SelectedLines = b.Lines
	return nil
}

// reset 回到新 session 的初始狀態，RNG 不重設（模擬器換玩家時使用）。
func (m *Machine) reset(credits int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = m.eng.NewState(credits)
}

// SnapshotCore 取得 RNG 核心狀態
func (m *Machine) SnapshotCore() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.core.Snapshot()
}

// RestoreCore 將 RNG 核心還原到指定快照
func (m *Machine) RestoreCore(src []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.core.Restore(src)
}

// Replay 以轉動前的狀態與 RNG 快照重現一次轉動，不影響此 session。
func (m *Machine) Replay(st slot.State, rngBefore []byte, bet ledger.Bet) (engine.Outcome, error) {
	out, _, err := replay(m.eng, m.cf, st, rngBefore, bet)
	return out, err
}

// replay 回傳重現的結果與轉動後的 RNG 快照。
func replay(eng *engine.Engine, cf core.PRNGFactory, st slot.State, rngBefore []byte, bet ledger.Bet) (engine.Outcome, []byte, error) {
	if len(rngBefore) == 0 {
		return engine.Outcome{}, nil, errs.Invalidf("replay requires an rng snapshot")
	}
	c := core.New(cf.New(0))
	if err := c.Restore(rngBefore); err != nil {
		return engine.Outcome{}, nil, errs.Invalidf("restore rng snapshot failed: %v", err)
	}
	out, err := eng.Spin(c, st, bet)
	if err != nil {
		return engine.Outcome{}, nil, err
	}
	after, err := c.Snapshot()
	if err != nil {
		return engine.Outcome{}, nil, errs.Wrap(err, "rng snapshot after replay failed")
	}
	return out, after, nil
}

func (m *Machine) rollback(snap []byte) {
	if err := m.core.Restore(snap); err != nil {
		m.log.Error("rng rollback failed", slog.Any("err", err))
	}
}

func (m *Machine) logFailure(err error) {
	e, ok := errs.AsErr(err)
	if !ok || e.ErrLv == errs.Fatal {
		m.log.Error("spin aborted", slog.Any("err", err), slog.String("rng", m.rngHex()))
		return
	}
	m.log.Debug("spin rejected", slog.String("code", e.Code.String()), slog.String("msg", e.Message))
}

func (m *Machine) logOutcome(out *engine.Outcome) {
	if out.Event.IsNone() {
		return
	}
	m.log.Debug("feature event",
		slog.String("event", out.Event.String()),
		slog.String("from", out.PrevMode.String()),
		slog.String("to", out.Mode.String()),
		slog.Int64("credits", out.State.Ledger.Credits),
	)
}

func (m *Machine) rngHex() string {
	b, err := m.core.Snapshot()
	if err != nil {
		return ""
	}
	return corefmt.EncodeHex(b)
}
