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

import (
	"github.com/zintix-labs/orbrush/errs"
)

// GID 遊戲編號
type GID uint

// GameSetting 包含啟動一台機台所需的所有設定。
// 讀入後必須經過 init()，各子設定的解析欄位（yaml:"-"）才會就緒。
type GameSetting struct {
	GameName       string             `yaml:"game_name"       json:"game_name"`
	GameID         GID                `yaml:"game_id"         json:"game_id"`
	InitialCredits int64              `yaml:"initial_credits" json:"initial_credits"`
	Bet            BetSetting         `yaml:"bet"             json:"bet"`
	Reels          ReelSetting        `yaml:"reels"           json:"reels"`
	Lines          LineSetting        `yaml:"lines"           json:"lines"`
	PayTableStr    map[string][]int   `yaml:"pay_table"       json:"pay_table"`
	PayTable       PayTable           `yaml:"-"               json:"-"`
	Orb            OrbSetting         `yaml:"orb"             json:"orb"`
	HoldAndSpin    HoldAndSpinSetting `yaml:"hold_and_spin"   json:"hold_and_spin"`
	FreeGames      FreeGamesSetting   `yaml:"free_games"      json:"free_games"`
	Jackpots       JackpotSetting     `yaml:"jackpots"        json:"jackpots"`
}

// init 依序初始化子設定後做跨欄位檢查。
func (gs *GameSetting) init() error {
	if gs.GameName == "" {
		return errs.InvalidFatalf("game_name is required")
	}
	if gs.InitialCredits < 0 {
		return errs.InvalidFatalf("game_name: %s err: negative initial_credits", gs.GameName)
	}
	inits := []func() error{
		gs.Bet.Init,
		gs.Reels.Init,
		gs.Lines.Init,
		gs.Orb.Init,
		gs.HoldAndSpin.Init,
		gs.FreeGames.Init,
		gs.Jackpots.Init,
	}
	for _, f := range inits {
		if err := f(); err != nil {
			return errs.WrapWithExtra(err, "invalid game setting", gs.GameName)
		}
	}
	pt, err := buildPayTable(gs.PayTableStr)
	if err != nil {
		return errs.WrapWithExtra(err, "invalid pay table", gs.GameName)
	}
	gs.PayTable = pt
	return nil
}
