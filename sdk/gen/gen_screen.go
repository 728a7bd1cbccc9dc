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

package gen

import (
	"github.com/zintix-labs/orbrush/errs"
	"github.com/zintix-labs/orbrush/sdk/core"
	"github.com/zintix-labs/orbrush/sdk/orb"
	"github.com/zintix-labs/orbrush/sdk/slot"
	"github.com/zintix-labs/orbrush/spec"
)

// Previous 上一盤的結果與鎖定資訊，只有 Hold&Spin 會讀取。
type Previous struct {
	Grid   *slot.Grid
	Values *slot.CellValues
	Locked *slot.Locks
}

// ScreenGenerator 依模式產生 5×3 盤面與寶珠值。
// 本身無狀態，亂數來源由呼叫端注入。
type ScreenGenerator struct {
	reels     *spec.ReelSetting
	orbChance float64
	resolver  *orb.Resolver
}

// NewScreenGenerator 以已初始化的設定建立生成器。
func NewScreenGenerator(gs *spec.GameSetting, resolver *orb.Resolver) *ScreenGenerator {
	return &ScreenGenerator{
		reels:     &gs.Reels,
		orbChance: gs.HoldAndSpin.OrbChance,
		resolver:  resolver,
	}
}

// GenScreen 產生一盤。
//
// Base / FreeGames：每軸獨立抽停輪位置，取循環輪帶上連續三格；
// 每顆 ORB 緊接在該軸停輪後抽值。
// HoldAndSpin：逐格（column-major），鎖定格原樣複製，其餘以 orb_chance 落珠，否則為 BLANK。
func (sg *ScreenGenerator) GenScreen(rng core.RAND, mode slot.Mode, betMult int, prev Previous) (slot.Grid, slot.CellValues, error) {
	if mode == slot.ModeHoldAndSpin {
		return sg.genHoldAndSpin(rng, betMult, prev)
	}
	return sg.genByReelIdx(rng, sg.reels.Strips(mode == slot.ModeFreeGames), betMult)
}

func (sg *ScreenGenerator) genByReelIdx(rng core.RAND, strips *[spec.Columns]spec.ReelStrip, betMult int) (slot.Grid, slot.CellValues, error) {
	var g slot.Grid
	var v slot.CellValues
	for col := range strips {
		strip := strips[col]
		length := len(strip)
		if length == 0 {
			return g, v, errs.InvalidFatalf("reel strip %d is empty", col)
		}
		stop := rng.IntN(length)
		for row := range spec.Rows {
			sym := strip[(stop+row)%length]
			g[col][row] = sym
			if sym == spec.Orb {
				v[col][row] = sg.resolver.Resolve(rng, betMult)
			}
		}
	}
	return g, v, nil
}

func (sg *ScreenGenerator) genHoldAndSpin(rng core.RAND, betMult int, prev Previous) (slot.Grid, slot.CellValues, error) {
	var g slot.Grid
	var v slot.CellValues
	if prev.Grid == nil || prev.Values == nil || prev.Locked == nil {
		return g, v, errs.Invariantf("hold and spin requires the previous grid and locks")
	}
	for col := range spec.Columns {
		for row := range spec.Rows {
			if prev.Locked[col][row] {
				g[col][row] = prev.Grid[col][row]
				v[col][row] = prev.Values[col][row]
				continue
			}
			if rng.Float64() < sg.orbChance {
				g[col][row] = spec.Orb
				v[col][row] = sg.resolver.Resolve(rng, betMult)
			} else {
				g[col][row] = spec.Blank
			}
		}
	}
	return g, v, nil
}
