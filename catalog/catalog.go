package catalog

import (
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/zintix-labs/orbrush/errs"
	"github.com/zintix-labs/orbrush/spec"
)

var (
	ErrDupID   = errs.NewFatal("duplicate game id")
	ErrDupName = errs.NewFatal("duplicate game name")
)

// Entry 目錄中的一款遊戲
type Entry struct {
	GID        spec.GID
	Name       string
	ConfigName string
}

// Summary 對外公開的遊戲資訊（大廳列表 / 押注選單）
type Summary struct {
	GID            spec.GID            `json:"gid"`
	Name           string              `json:"name"`
	Denominations  []spec.Denomination `json:"denominations"`
	BetMultipliers []int               `json:"bet_multipliers"`
	Defaults       spec.DefaultBet     `json:"defaults"`
	InitialCredits int64               `json:"initial_credits"`
	Jackpots       spec.JackpotSetting `json:"jackpots"`
}

func NewSummary(gs *spec.GameSetting) Summary {
	return Summary{
		GID:            gs.GameID,
		Name:           gs.GameName,
		Denominations:  slices.Clone(gs.Bet.Denominations),
		BetMultipliers: slices.Clone(gs.Bet.BetMultipliers),
		Defaults:       gs.Bet.Defaults,
		InitialCredits: gs.InitialCredits,
		Jackpots:       gs.Jackpots,
	}
}

// Catalog 遊戲目錄。設定檔在註冊時解析一次並快取；
// GameSetting 初始化後唯讀，可由多個引擎共用。
type Catalog struct {
	byID     map[spec.GID]Entry
	byName   map[string]Entry
	settings map[spec.GID]*spec.GameSetting
	ids      []spec.GID          // 穩定排序
	unique   map[string]struct{} // 一組遊戲，檔名需唯一
	config   *multiFS
	frozen   bool
}

func New(cfg ...fs.FS) (*Catalog, error) {
	multFS, err := newMultiFS(cfg...)
	if err != nil {
		return nil, errs.Wrap(err, "can not create catalog")
	}
	return &Catalog{
		byID:     map[spec.GID]Entry{},
		byName:   map[string]Entry{},
		settings: map[spec.GID]*spec.GameSetting{},
		unique:   map[string]struct{}{},
		config:   multFS,
	}, nil
}

// Register 全部通過檢查才寫入，不會留下註冊一半的目錄。
func (c *Catalog) Register(metas ...Entry) error {
	if c.frozen {
		return errs.NewWarn("can not register when catalog already frozen")
	}
	seenID := map[spec.GID]struct{}{}
	seenName := map[string]struct{}{}
	parsed := make([]*spec.GameSetting, len(metas))
	for i := range metas {
		meta := &metas[i]
		meta.Name = normName(meta.Name)
		if meta.Name == "" {
			return errs.NewFatal("game name required")
		}
		if err := validFileName(meta.ConfigName); err != nil {
			return err
		}
		if _, ok := c.config.index[meta.ConfigName]; !ok {
			return errs.Fatalf("config file not found: %s", meta.ConfigName)
		}
		if _, ok := c.unique[meta.ConfigName]; ok {
			return errs.Fatalf("duplicate config name: %s", meta.ConfigName)
		}
		_, dupID := c.byID[meta.GID]
		_, dupID2 := seenID[meta.GID]
		if dupID || dupID2 {
			return ErrDupID
		}
		_, dupName := c.byName[meta.Name]
		_, dupName2 := seenName[meta.Name]
		if dupName || dupName2 {
			return ErrDupName
		}
		gs, err := c.load(meta.ConfigName)
		if err != nil {
			return err
		}
		if gs.GameID != meta.GID || normName(gs.GameName) != meta.Name {
			return errs.Fatalf("config %s declares %d/%s, entry says %d/%s",
				meta.ConfigName, gs.GameID, gs.GameName, meta.GID, meta.Name)
		}
		seenID[meta.GID] = struct{}{}
		seenName[meta.Name] = struct{}{}
		c.unique[meta.ConfigName] = struct{}{}
		parsed[i] = gs
	}
	for i, meta := range metas {
		c.byID[meta.GID] = meta
		c.byName[meta.Name] = meta
		c.settings[meta.GID] = parsed[i]
		c.ids = append(c.ids, meta.GID)
	}
	slices.Sort(c.ids)
	return nil
}

// Scan 掃描所有設定檔來源，以檔案內宣告的 game_id / game_name 建立 Entry。
// 任一檔案解析失敗立即回傳；依檔名排序，結果可重現。
func (c *Catalog) Scan() ([]Entry, error) {
	names := make([]string, 0, len(c.config.index))
	for name := range c.config.index {
		names = append(names, name)
	}
	slices.Sort(names)
	out := make([]Entry, 0, len(names))
	for _, name := range names {
		gs, err := c.load(name)
		if err != nil {
			return nil, err
		}
		out = append(out, Entry{GID: gs.GameID, Name: gs.GameName, ConfigName: name})
	}
	if len(out) == 0 {
		return nil, errs.NewFatal("no config files found to register")
	}
	return out, nil
}

func (c *Catalog) GetByID(id spec.GID) (Entry, bool) {
	m, ok := c.byID[id]
	return m, ok
}

func (c *Catalog) GetByName(name string) (Entry, bool) {
	m, ok := c.byName[normName(name)]
	return m, ok
}

func (c *Catalog) IDs() []spec.GID {
	if len(c.ids) == 0 {
		return nil
	}
	return slices.Clone(c.ids)
}

func (c *Catalog) All() []Entry {
	out := make([]Entry, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.byID[id])
	}
	return out
}

func (c *Catalog) Freeze() {
	c.frozen = true
}

func (c *Catalog) IsFrozen() bool {
	return c.frozen
}

// GameSettingByID 回傳已註冊遊戲的設定（共用、唯讀）。
func (c *Catalog) GameSettingByID(id spec.GID) (*spec.GameSetting, error) {
	gs, ok := c.settings[id]
	if !ok {
		return nil, errs.NotFoundf("game %d does not exist in catalog", id)
	}
	return gs, nil
}

func (c *Catalog) GameSettingByName(name string) (*spec.GameSetting, error) {
	e, ok := c.GetByName(name)
	if !ok {
		return nil, errs.NotFoundf("game %q does not exist in catalog", name)
	}
	return c.GameSettingByID(e.GID)
}

func (c *Catalog) load(name string) (*spec.GameSetting, error) {
	src, ok := c.config.GetFS(name)
	if !ok {
		return nil, errs.Fatalf("config file not found: %s", name)
	}
	raw, err := fs.ReadFile(src, name)
	if err != nil {
		return nil, errs.Wrap(err, "catalog read file error")
	}
	gs, err := ParseGameSetting(name, raw)
	if err != nil {
		return nil, errs.WrapWithExtra(err, "parse game setting failed", name)
	}
	return gs, nil
}

// ParseGameSetting 依副檔名選擇 YAML 或 JSON 解析。
func ParseGameSetting(filename string, raw []byte) (*spec.GameSetting, error) {
	switch strings.ToLower(path.Ext(filename)) {
	case ".yaml", ".yml":
		return spec.GetGameSettingByYAML(raw)
	case ".json":
		return spec.GetGameSettingByJSON(raw)
	}
	return nil, errs.InvalidFatalf("unsupported config format: %q", filename)
}

func normName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func isConfigFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

func validFileName(file string) error {
	switch {
	case file == "":
		return errs.NewFatal("empty config filename")
	case strings.ContainsAny(file, `/\:`):
		return errs.Fatalf("invalid config filename: %q (must be a basename)", file)
	case strings.HasPrefix(file, "."):
		return errs.Fatalf("invalid config filename: %q (cannot start with '.')", file)
	case !isConfigFile(file):
		return errs.Fatalf("invalid config filename: %q (must end with .yaml, .yml, or .json)", file)
	}
	return nil
}

// multiFS 多個扁平設定目錄合併成單一索引，跨來源同名直接報錯。
type multiFS struct {
	src   []fs.FS
	index map[string]int // name -> src index
}

func newMultiFS(src ...fs.FS) (*multiFS, error) {
	if len(src) == 0 {
		return nil, errs.NewFatal("no fs provided")
	}
	m := &multiFS{src: src, index: make(map[string]int, 16)}
	for i, s := range src {
		if s == nil {
			return nil, errs.Fatalf("fs[%d] is nil", i)
		}
		err := fs.WalkDir(s, ".", func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if p == "." {
					return nil
				}
				return errs.Fatalf("config FS must be flat (no subdirectories): %q", p)
			}
			if strings.HasPrefix(p, ".") || !isConfigFile(p) {
				return nil
			}
			if prev, ok := m.index[p]; ok {
				return errs.Fatalf("duplicate config %q in fs[%d] and fs[%d]", p, prev, i)
			}
			m.index[p] = i
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *multiFS) GetFS(name string) (fs.FS, bool) {
	if id, ok := m.index[name]; ok {
		return m.src[id], true
	}
	return nil, false
}
