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
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/orbrush/catalog"
	"github.com/zintix-labs/orbrush/corefmt"
	"github.com/zintix-labs/orbrush/dto"
	"github.com/zintix-labs/orbrush/errs"
	"github.com/zintix-labs/orbrush/sdk/ledger"
	"github.com/zintix-labs/orbrush/spec"
)

// SlotRuntime 對外服務的資料面：每款遊戲一個 SessionPool，並記錄 session 屬於哪款遊戲。
type SlotRuntime struct {
	ob *Orbrush

	pools map[spec.GID]*SessionPool
	ids   []spec.GID // 固定順序，用於列舉

	ownerMu sync.RWMutex
	owner   map[string]spec.GID // session -> gid

	log *slog.Logger

	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	reason    atomic.Value // string
}

func newSlotRuntime(ob *Orbrush, ids []spec.GID, log *slog.Logger) *SlotRuntime {
	rt := &SlotRuntime{
		ob:    ob,
		pools: make(map[spec.GID]*SessionPool, len(ids)),
		ids:   ids,
		owner: make(map[string]spec.GID, 256),
		log:   log,
		done:  make(chan struct{}),
	}
	rt.reason.Store("")
	return rt
}

// Games 已上線遊戲的公開資訊
func (rt *SlotRuntime) Games() ([]catalog.Summary, error) {
	return rt.ob.Summary()
}

// OpenSession 在指定遊戲開一個新 session。
func (rt *SlotRuntime) OpenSession(gid spec.GID, credits *int64, bet ledger.Bet) (dto.SessionView, error) {
	if err := rt.check(context.Background()); err != nil {
		return dto.SessionView{}, err
	}
	mp, err := rt.pool(gid)
	if err != nil {
		return dto.SessionView{}, err
	}
	m, err := mp.Open(credits, bet)
	if err != nil {
		return dto.SessionView{}, err
	}
	rt.ownerMu.Lock()
	rt.owner[m.ID()] = gid
	rt.ownerMu.Unlock()
	return dto.NewSessionView(m.ID(), m.Setting(), m.State())
}

// Session 查詢 session 目前狀態
func (rt *SlotRuntime) Session(id string) (dto.SessionView, error) {
	mp, err := rt.poolOf(id)
	if err != nil {
		return dto.SessionView{}, err
	}
	m, err := mp.Get(id)
	if err != nil {
		return dto.SessionView{}, err
	}
	return dto.NewSessionView(id, m.Setting(), m.State())
}

// CloseSession 結束 session 並回傳最後狀態
func (rt *SlotRuntime) CloseSession(id string) (dto.SessionView, error) {
	mp, err := rt.poolOf(id)
	if err != nil {
		return dto.SessionView{}, err
	}
	st, err := mp.Release(id)
	if err != nil {
		return dto.SessionView{}, err
	}
	rt.ownerMu.Lock()
	delete(rt.owner, id)
	rt.ownerMu.Unlock()
	return dto.NewSessionView(id, mp.Setting(), st)
}

// Spin 依 session 找到所屬遊戲池並轉動一次。
func (rt *SlotRuntime) Spin(ctx context.Context, req *dto.SpinRequest) (dto.SpinResult, error) {
	if req == nil {
		return dto.SpinResult{}, errs.Invalidf("nil spin request")
	}
	if err := rt.check(ctx); err != nil {
		return dto.SpinResult{}, err
	}
	mp, err := rt.poolOf(req.Session)
	if err != nil {
		return dto.SpinResult{}, err
	}
	res, err := mp.Spin(ctx, req)
	if errs.CodeOf(err) == errs.CodeNotFound {
		// 被隔離的 session 同步移出路由表
		rt.forget(req.Session)
	}
	return res, err
}

// Replay 以前一次回應的 state blob 與本次回應的 rng.before 重現本次轉動。
func (rt *SlotRuntime) Replay(req *dto.ReplayRequest) (dto.SpinResult, error) {
	if req == nil {
		return dto.SpinResult{}, errs.Invalidf("nil replay request")
	}
	mp, err := rt.pool(req.GameID)
	if err != nil {
		return dto.SpinResult{}, err
	}
	st, err := dto.DecodeState(req.State)
	if err != nil {
		return dto.SpinResult{}, err
	}
	before, err := corefmt.DecodeBase64URL(req.RNG)
	if err != nil {
		return dto.SpinResult{}, err
	}
	out, after, err := mp.Replay(st, before, req.Bet())
	if err != nil {
		return dto.SpinResult{}, err
	}
	return dto.NewSpinResult("", mp.Setting(), &out, before, after)
}

// RuntimeMetrics 所有遊戲池的觀測快照
type RuntimeMetrics struct {
	Closed      bool                 `json:"closed"`
	CloseReason string               `json:"close_reason"`
	Sessions    int                  `json:"sessions"`
	Pools       []SessionPoolMetrics `json:"pools"`
}

func (rt *SlotRuntime) Metrics() RuntimeMetrics {
	out := RuntimeMetrics{
		Closed:      rt.Closed(),
		CloseReason: rt.ClosedReason(),
		Pools:       make([]SessionPoolMetrics, 0, len(rt.ids)),
	}
	for _, id := range rt.ids {
		m := rt.pools[id].Metrics()
		out.Sessions += m.Active
		out.Pools = append(out.Pools, m)
	}
	return out
}

// Close 進入關閉狀態，並關閉所有遊戲池；可重複呼叫。
func (rt *SlotRuntime) Close() {
	rt.closeWithReason("closed")
}

func (rt *SlotRuntime) closeWithReason(reason string) {
	rt.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		rt.reason.Store(reason)
		rt.closed.Store(true)
		close(rt.done)
		for _, id := range rt.ids {
			rt.pools[id].closeWithReason(reason)
		}
		rt.log.Info("slot runtime closed", slog.String("reason", reason))
	})
}

func (rt *SlotRuntime) Closed() bool {
	return rt.closed.Load()
}

func (rt *SlotRuntime) ClosedReason() string {
	if v := rt.reason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func (rt *SlotRuntime) check(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return errs.WrapWarn(ctx.Err(), "spin canceled/timeout")
	case <-rt.done:
		return errs.Fatalf("slot runtime closed: %s", rt.ClosedReason())
	default:
		return nil
	}
}

func (rt *SlotRuntime) pool(gid spec.GID) (*SessionPool, error) {
	mp, ok := rt.pools[gid]
	if !ok {
		return nil, errs.NotFoundf("game %d not found", gid)
	}
	return mp, nil
}

func (rt *SlotRuntime) poolOf(session string) (*SessionPool, error) {
	if session == "" {
		return nil, errs.Invalidf("session required")
	}
	rt.ownerMu.RLock()
	gid, ok := rt.owner[session]
	rt.ownerMu.RUnlock()
	if !ok {
		return nil, errs.NotFoundf("session %s not found", session)
	}
	return rt.pool(gid)
}

func (rt *SlotRuntime) forget(session string) {
	rt.ownerMu.Lock()
	delete(rt.owner, session)
	rt.ownerMu.Unlock()
}
