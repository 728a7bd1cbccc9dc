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

package spec

import "github.com/zintix-labs/orbrush/errs"

const (
	// Columns 盤面軸數
	Columns = 5
	// Rows 每軸可見列數
	Rows = 3
	// Cells 盤面格數
	Cells = Columns * Rows
)

// ReelStrip 一條循環輪帶，長度可因軸而異。
type ReelStrip []Symbol

// ReelSetting 兩組輪帶：base 用於主遊戲，free 用於免費遊戲。
//
// 設定檔以圖標名稱書寫，Init 後解析到 Base / Free。
type ReelSetting struct {
	BaseStr  [][]string         `yaml:"base" json:"base"`
	FreeStr  [][]string         `yaml:"free" json:"free"`
	Base     [Columns]ReelStrip `yaml:"-"    json:"-"`
	Free     [Columns]ReelStrip `yaml:"-"    json:"-"`
	initFlag bool
}

// Init 解析並檢查輪帶
func (rs *ReelSetting) Init() error {
	if rs.initFlag {
		return nil
	}
	var err error
	if rs.Base, err = parseStrips("base", rs.BaseStr); err != nil {
		return err
	}
	if rs.Free, err = parseStrips("free", rs.FreeStr); err != nil {
		return err
	}
	rs.initFlag = true
	return nil
}

// Strips 依是否為免費遊戲回傳對應輪帶組。
func (rs *ReelSetting) Strips(free bool) *[Columns]ReelStrip {
	if free {
		return &rs.Free
	}
	return &rs.Base
}

func parseStrips(set string, raw [][]string) ([Columns]ReelStrip, error) {
	var out [Columns]ReelStrip
	if len(raw) != Columns {
		return out, errs.InvalidFatalf("reels.%s must have %d strips, got %d", set, Columns, len(raw))
	}
	for col, names := range raw {
		if len(names) == 0 {
			return out, errs.InvalidFatalf("reels.%s[%d] is empty", set, col)
		}
		strip := make(ReelStrip, len(names))
		for i, name := range names {
			sym, ok := ParseSymbol(name)
			if !ok {
				return out, errs.InvalidFatalf("reels.%s[%d][%d] unknown symbol %q", set, col, i, name)
			}
			if sym == Blank {
				return out, errs.InvalidFatalf("reels.%s[%d][%d] BLANK is not allowed on strips", set, col, i)
			}
			strip[i] = sym
		}
		out[col] = strip
	}
	return out, nil
}
