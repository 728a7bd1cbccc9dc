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
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/zintix-labs/orbrush/dto"
	"github.com/zintix-labs/orbrush/errs"
	"github.com/zintix-labs/orbrush/sdk/core"
	"github.com/zintix-labs/orbrush/sdk/engine"
	"github.com/zintix-labs/orbrush/sdk/ledger"
	"github.com/zintix-labs/orbrush/sdk/slot"
	"github.com/zintix-labs/orbrush/spec"
)

// brokenBacklog 隔離區容量；滿了代表系統正在連續故障，整個池進入關閉狀態。
const brokenBacklog = 100

// SessionPool 管理某一款遊戲的所有 session。
//
// 一個 session 對應一台 Machine，session 之間沒有共用狀態。
// Spin 期間發生 panic 或致命錯誤的 session 狀態不可信：
// 它會被移出可用集合並送進 broken 隔離區，之後的請求得到 NotFound。
type SessionPool struct {
	gameName    string
	gameID      spec.GID
	eng         *engine.Engine
	cf          core.PRNGFactory
	seedMaker   *seedMaker
	log         *slog.Logger
	mu          sync.RWMutex
	sessions    map[uuid.UUID]*Machine
	maxSessions int           // <= 0 表示不限
	broken      chan *Machine // 隔離區，供事後檢查
	done        chan struct{} // 關閉訊號：關閉後不再開新 session、不再轉動
	closeOnce   sync.Once

	opened      atomic.Int64
	released    atomic.Int64
	inflight    atomic.Int64
	spins       atomic.Int64
	rejected    atomic.Int64 // 忙碌拒絕次數
	panics      atomic.Int64
	fatals      atomic.Int64
	quarantined atomic.Int64 // 被隔離的 session 數

	closeReason   atomic.Value // string
	closeInflight atomic.Int64 // 關閉當下 inflight（-1 表示尚未關閉）
	closeActive   atomic.Int64 // 關閉當下 session 數
}

func newSessionPool(eng *engine.Engine, cf core.PRNGFactory, seed int64, maxSessions int, log *slog.Logger) *SessionPool {
	gs := eng.Setting()
	p := &SessionPool{
		gameName:    gs.GameName,
		gameID:      gs.GameID,
		eng:         eng,
		cf:          cf,
		seedMaker:   newSeedMaker(seed),
		log:         log.With(slog.String("game", gs.GameName), slog.Int("gid", int(gs.GameID))),
		sessions:    make(map[uuid.UUID]*Machine, 64),
		maxSessions: maxSessions,
		broken:      make(chan *Machine, brokenBacklog),
		done:        make(chan struct{}),
	}
	p.closeReason.Store("")
	p.closeInflight.Store(-1)
	p.closeActive.Store(-1)
	return p
}

func (p *SessionPool) Setting() *spec.GameSetting { return p.eng.Setting() }

// Open 建立新 session；credits 為 nil 時使用設定檔預設值，bet 零值欄位沿用預設押注。
func (p *SessionPool) Open(credits *int64, bet ledger.Bet) (*Machine, error) {
	if p.Closed() {
		return nil, errs.Fatalf("session pool closed: %s", p.ClosedReason())
	}
	c := int64(-1)
	if credits != nil {
		if *credits < 0 {
			return nil, errs.Invalidf("credits must not be negative, got %d", *credits)
		}
		c = *credits
	}
	m := newMachineWithSeed(p.eng, p.cf, p.seedMaker.next(), c, p.log)
	if bet != (ledger.Bet{}) {
		if err := m.SetBet(bet); err != nil {
			return nil, err
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.maxSessions > 0 && len(p.sessions) >= p.maxSessions {
		return nil, errs.Busyf("session limit %d reached for %s", p.maxSessions, p.gameName)
	}
	p.sessions[m.id] = m
	p.opened.Add(1)
	m.log.Info("session opened", slog.Int64("credits", m.state.Ledger.Credits))
	return m, nil
}

// Get 取得 session；id 格式錯誤為 InvalidConfiguration，不存在為 NotFound。
func (p *SessionPool) Get(id string) (*Machine, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, errs.Invalidf("malformed session id %q", id)
	}
	p.mu.RLock()
	m, ok := p.sessions[uid]
	p.mu.RUnlock()
	if !ok {
		return nil, errs.NotFoundf("session %s not found", id)
	}
	return m, nil
}

// Release 結束 session；轉動中的 session 不可結束。
func (p *SessionPool) Release(id string) (slot.State, error) {
	m, err := p.Get(id)
	if err != nil {
		return slot.State{}, err
	}
	if m.Busy() {
		return slot.State{}, errs.Busyf("session %s: spin in progress", id)
	}
	p.mu.Lock()
	delete(p.sessions, m.id)
	p.mu.Unlock()
	p.released.Add(1)
	st := m.State()
	m.log.Info("session closed", slog.Int64("credits", st.Ledger.Credits), slog.Uint64("spins", st.Spins))
	return st, nil
}

// Spin 在指定 session 上轉動一次。
func (p *SessionPool) Spin(ctx context.Context, req *dto.SpinRequest) (res dto.SpinResult, err error) {
	select {
	case <-p.done:
		return res, errs.Fatalf("session pool closed: %s", p.ClosedReason())
	case <-ctx.Done():
		return res, errs.WrapWarn(ctx.Err(), "spin canceled/timeout")
	default:
	}
	m, err := p.Get(req.Session)
	if err != nil {
		return res, err
	}

	p.inflight.Add(1)
	isPanic := false
	defer func() {
		p.inflight.Add(-1)
		if r := recover(); r != nil {
			isPanic = true
			p.panics.Add(1)
			err = errs.Fatalf("session %s panic: %v", m.id, r)
		}
		if err == nil {
			p.spins.Add(1)
			return
		}
		if errors.Is(err, errs.ErrBusy) {
			p.rejected.Add(1)
			return
		}
		if !isPanic && !isFatalErr(err) {
			// 一般的請求錯誤（押注不合法、餘額不足）不影響 session
			return
		}
		if !isPanic {
			p.fatals.Add(1)
		}
		p.quarantine(m, err)
	}()

	return m.Spin(req)
}

// Replay 以外部提供的轉動前狀態與 RNG 快照重現一次轉動，不需要 session 存在。
func (p *SessionPool) Replay(st slot.State, rngBefore []byte, bet ledger.Bet) (engine.Outcome, []byte, error) {
	if err := st.Validate(); err != nil {
		return engine.Outcome{}, nil, err
	}
	return replay(p.eng, p.cf, st, rngBefore, bet)
}

func (p *SessionPool) quarantine(m *Machine, cause error) {
	p.mu.Lock()
	_, ok := p.sessions[m.id]
	delete(p.sessions, m.id)
	p.mu.Unlock()
	if !ok {
		return
	}
	p.quarantined.Add(1)
	m.log.Error("session quarantined", slog.Any("err", cause), slog.Int64("init_seed", m.initseed))
	select {
	case p.broken <- m:
	default:
		p.closeWithReason("overwhelmed_by_failures")
	}
}

// isFatalErr 本次錯誤是否代表 session 狀態不可信。
// 只有錯誤本身宣告 Fatal 才算；request / validation 類錯誤不淘汰 session。
func isFatalErr(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := errs.AsErr(err); ok {
		return e.ErrLv == errs.Fatal
	}
	return true
}

func (p *SessionPool) Close() {
	p.closeWithReason("closed")
}

func (p *SessionPool) Closed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *SessionPool) closeWithReason(reason string) {
	p.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		p.closeReason.Store(reason)
		p.closeInflight.Store(p.inflight.Load())
		p.closeActive.Store(int64(p.Active()))
		close(p.done)
		p.log.Warn("session pool closed", slog.String("reason", reason))
	})
}

func (p *SessionPool) ClosedReason() string {
	if v := p.closeReason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Active 目前存活的 session 數
func (p *SessionPool) Active() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.sessions)
}

// SessionPoolMetrics 拉取式觀測快照；不綁任何 metrics SDK，由上層決定輸出方式。
type SessionPoolMetrics struct {
	GameName string   `json:"game_name"`
	GameID   spec.GID `json:"game_id"`

	MaxSessions   int    `json:"max_sessions"`
	Active        int    `json:"active"`
	Opened        int64  `json:"opened"`
	Released      int64  `json:"released"`
	Inflight      int64  `json:"inflight"`
	Spins         int64  `json:"spins"`
	BusyRejected  int64  `json:"busy_rejected"`
	Panics        int64  `json:"panics"`
	Fatals        int64  `json:"fatals"`
	Quarantined   int64  `json:"quarantined"`
	BrokenBacklog int    `json:"broken_backlog"`
	Closed        bool   `json:"closed"`
	CloseReason   string `json:"close_reason"`

	CloseInflight int64 `json:"close_inflight"` // -1 表示尚未關閉
	CloseActive   int64 `json:"close_active"`   // -1 表示尚未關閉
}

func (p *SessionPool) Metrics() SessionPoolMetrics {
	return SessionPoolMetrics{
		GameName:      p.gameName,
		GameID:        p.gameID,
		MaxSessions:   p.maxSessions,
		Active:        p.Active(),
		Opened:        p.opened.Load(),
		Released:      p.released.Load(),
		Inflight:      p.inflight.Load(),
		Spins:         p.spins.Load(),
		BusyRejected:  p.rejected.Load(),
		Panics:        p.panics.Load(),
		Fatals:        p.fatals.Load(),
		Quarantined:   p.quarantined.Load(),
		BrokenBacklog: len(p.broken),
		Closed:        p.Closed(),
		CloseReason:   p.ClosedReason(),
		CloseInflight: p.closeInflight.Load(),
		CloseActive:   p.closeActive.Load(),
	}
}
