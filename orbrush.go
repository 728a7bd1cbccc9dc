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

// Package orbrush 是寶珠類 5×3 老虎機引擎的組裝入口與運行入口。
//
// Orbrush 把兩個地基組裝在一起，並提供建立 Machine / Simulator / SlotRuntime 的入口：
//  1. Catalog：遊戲目錄，定義有哪些遊戲、各自對應的設定檔。
//  2. PRNGFactory：亂數核心工廠，保證同 seed 可重現、任意時間點可快照還原。
//
// 設定檔來源一律以 fs.FS 注入（go:embed 或 os.DirFS），Orbrush 不處理路徑。
//
// 典型使用：
//
//	ob, _ := orbrush.NewAuto(core.Default(), orbrush.Configs(configs.FS))
//	rt, _ := ob.BuildRuntime(1024, logger)
//	view, _ := rt.OpenSession(1, nil, ledger.Bet{})
//	res, _ := rt.Spin(ctx, &dto.SpinRequest{Session: view.Session})
package orbrush

import (
	"io/fs"
	"log/slog"

	"github.com/zintix-labs/orbrush/catalog"
	"github.com/zintix-labs/orbrush/errs"
	"github.com/zintix-labs/orbrush/sdk/core"
	"github.com/zintix-labs/orbrush/sdk/engine"
	"github.com/zintix-labs/orbrush/spec"
)

// Configs 把一或多個設定檔來源打包成 New() 需要的參數。
func Configs(cfgs ...fs.FS) []fs.FS {
	return cfgs
}

// Orbrush 組裝器。
//
// 使用流程分成兩階段：
//   - 註冊階段：建立 catalog、註冊遊戲、檢查重複。
//   - 執行階段：Freeze 之後才能建立 Machine / Simulator / Runtime。
//
// 目錄 ID 的唯一性只保證在同一個 Orbrush instance 內。
type Orbrush struct {
	cat  *catalog.Catalog
	cf   core.PRNGFactory
	opts []engine.Option
	sum  []catalog.Summary
}

// New 建立 Orbrush，opts 會套用到之後建立的每一個引擎。
func New(cf core.PRNGFactory, cfgs []fs.FS, opts ...engine.Option) (*Orbrush, error) {
	if cf == nil {
		return nil, errs.NewFatal("prng factory required")
	}
	if len(cfgs) == 0 {
		return nil, errs.NewFatal("configs required")
	}
	cata, err := catalog.New(cfgs...)
	if err != nil {
		return nil, err
	}
	return &Orbrush{cat: cata, cf: cf, opts: opts}, nil
}

// NewAuto 註冊所有設定檔並 Freeze，直接進入執行階段。
func NewAuto(cf core.PRNGFactory, cfgs []fs.FS, opts ...engine.Option) (*Orbrush, error) {
	ob, err := New(cf, cfgs, opts...)
	if err != nil {
		return nil, err
	}
	if err := ob.RegisterAll(); err != nil {
		return nil, err
	}
	ob.Freeze()
	return ob, nil
}

func (o *Orbrush) Register(ents ...catalog.Entry) error {
	return o.cat.Register(ents...)
}

// RegisterAll 掃描所有設定檔，以檔案內宣告的 game_id / game_name 一次性註冊。
//
// 任何一個檔案讀取或解析失敗都立即回傳，不會留下註冊一半的目錄。
func (o *Orbrush) RegisterAll() error {
	ents, err := o.cat.Scan()
	if err != nil {
		return err
	}
	return o.cat.Register(ents...)
}

func (o *Orbrush) Freeze() {
	o.cat.Freeze()
}

func (o *Orbrush) Factory() core.PRNGFactory {
	return o.cf
}

func (o *Orbrush) EntryByID(id spec.GID) (catalog.Entry, bool) {
	return o.cat.GetByID(id)
}

func (o *Orbrush) EntryByName(name string) (catalog.Entry, bool) {
	return o.cat.GetByName(name)
}

func (o *Orbrush) IDs() []spec.GID {
	return o.cat.IDs()
}

func (o *Orbrush) All() []catalog.Entry {
	return o.cat.All()
}

// GameSetting 回傳已註冊遊戲的設定（共用、唯讀）。
func (o *Orbrush) GameSetting(id spec.GID) (*spec.GameSetting, error) {
	return o.cat.GameSettingByID(id)
}

func (o *Orbrush) Summary() ([]catalog.Summary, error) {
	if !o.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	if o.sum != nil {
		return o.sum, nil
	}
	ids := o.cat.IDs()
	cs := make([]catalog.Summary, 0, len(ids))
	for _, id := range ids {
		gs, err := o.cat.GameSettingByID(id)
		if err != nil {
			return nil, err
		}
		cs = append(cs, catalog.NewSummary(gs))
	}
	o.sum = cs
	return o.sum, nil
}

// NewMachine 以隨機 seed 建立一台 Machine，credits < 0 使用設定檔預設值。
func (o *Orbrush) NewMachine(id spec.GID, credits int64) (*Machine, error) {
	return o.NewMachineWithSeed(id, core.RandomSeed(), credits)
}

// NewMachineWithSeed 同 NewMachine，但由呼叫端指定 seed（可重現的測試）。
//
// seed 只是出生入口；任意時間點的重現請用 SnapshotCore / Replay。
func (o *Orbrush) NewMachineWithSeed(id spec.GID, seed int64, credits int64) (*Machine, error) {
	eng, err := o.engineByID(id)
	if err != nil {
		return nil, err
	}
	return newMachineWithSeed(eng, o.cf, seed, credits, nil), nil
}

// NewMachineByYAML 以外部設定建立機台，設定必須對應已註冊的遊戲（調參用）。
func (o *Orbrush) NewMachineByYAML(raw []byte, seed int64) (*Machine, error) {
	eng, err := o.engineByRaw(raw, spec.GetGameSettingByYAML)
	if err != nil {
		return nil, err
	}
	return newMachineWithSeed(eng, o.cf, seed, -1, nil), nil
}

func (o *Orbrush) NewMachineByJSON(raw []byte, seed int64) (*Machine, error) {
	eng, err := o.engineByRaw(raw, spec.GetGameSettingByJSON)
	if err != nil {
		return nil, err
	}
	return newMachineWithSeed(eng, o.cf, seed, -1, nil), nil
}

func (o *Orbrush) NewSimulator(id spec.GID) (*Simulator, error) {
	return o.NewSimulatorWithSeed(id, core.RandomSeed())
}

func (o *Orbrush) NewSimulatorWithSeed(id spec.GID, seed int64) (*Simulator, error) {
	eng, err := o.engineByID(id)
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(eng, o.cf, seed), nil
}

func (o *Orbrush) NewSimulatorByYAML(raw []byte, seed int64) (*Simulator, error) {
	eng, err := o.engineByRaw(raw, spec.GetGameSettingByYAML)
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(eng, o.cf, seed), nil
}

func (o *Orbrush) NewSimulatorByJSON(raw []byte, seed int64) (*Simulator, error) {
	eng, err := o.engineByRaw(raw, spec.GetGameSettingByJSON)
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(eng, o.cf, seed), nil
}

// BuildRuntime 為每款已註冊遊戲建立一個 SessionPool。
//
// maxSessions 為每款遊戲同時存在的 session 上限（<= 0 表示不限）；logger 為 nil 時不輸出。
func (o *Orbrush) BuildRuntime(maxSessions int, logger *slog.Logger) (*SlotRuntime, error) {
	o.Freeze()
	ids := o.cat.IDs()
	if len(ids) == 0 {
		return nil, errs.NewFatal("no games registered")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	rt := newSlotRuntime(o, ids, logger)
	for _, id := range ids {
		eng, err := o.engineByID(id)
		if err != nil {
			return nil, err
		}
		rt.pools[id] = newSessionPool(eng, o.cf, core.RandomSeed(), maxSessions, logger)
	}
	logger.Info("slot runtime ready", slog.Int("games", len(ids)), slog.Int("max_sessions", maxSessions))
	return rt, nil
}

func (o *Orbrush) engineByID(id spec.GID) (*engine.Engine, error) {
	if !o.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	gs, err := o.cat.GameSettingByID(id)
	if err != nil {
		return nil, err
	}
	return engine.New(gs, o.opts...)
}

func (o *Orbrush) engineByRaw(raw []byte, parse func([]byte) (*spec.GameSetting, error)) (*engine.Engine, error) {
	if !o.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	gs, err := parse(raw)
	if err != nil {
		return nil, err
	}
	if err := o.validCfg(gs); err != nil {
		return nil, err
	}
	return engine.New(gs, o.opts...)
}

func (o *Orbrush) validCfg(cfg *spec.GameSetting) error {
	ent, ok := o.cat.GetByID(cfg.GameID)
	if !ok {
		return errs.NotFoundf("game id %d not registered", cfg.GameID)
	}
	ent2, ok := o.cat.GetByName(cfg.GameName)
	if !ok {
		return errs.NotFoundf("game name %q not registered", cfg.GameName)
	}
	if ent.GID != ent2.GID {
		return errs.Invalidf("game id %d does not match game name %q", cfg.GameID, cfg.GameName)
	}
	return nil
}
