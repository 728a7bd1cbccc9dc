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
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/orbrush/errs"
)

// OrbSetting 寶珠價值表。
//
// 以單次 u ∈ [0,1) 決定：u < MajorBelow 為 MAJOR，u < MinorBelow 為 MINOR，
// u < MiniBelow 為 MINI，其餘為現金 = 押注倍數 × CashValues 其中之一。
type OrbSetting struct {
	MajorBelow float64 `yaml:"major_below" json:"major_below"`
	MinorBelow float64 `yaml:"minor_below" json:"minor_below"`
	MiniBelow  float64 `yaml:"mini_below"  json:"mini_below"`
	CashValues []int64 `yaml:"cash_values" json:"cash_values"`
	// CashWeights 可選；省略時各面額等機率
	CashWeights []int `yaml:"cash_weights,omitempty" json:"cash_weights,omitempty"`
}

func (o *OrbSetting) Init() error {
	if !(0 <= o.MajorBelow && o.MajorBelow <= o.MinorBelow && o.MinorBelow <= o.MiniBelow && o.MiniBelow <= 1) {
		return errs.InvalidFatalf("orb thresholds must be ascending within [0,1]: %v %v %v", o.MajorBelow, o.MinorBelow, o.MiniBelow)
	}
	if len(o.CashValues) == 0 {
		return errs.InvalidFatalf("orb.cash_values is empty")
	}
	for _, v := range o.CashValues {
		if v < 1 {
			return errs.InvalidFatalf("orb cash value %d must be positive", v)
		}
	}
	if o.CashWeights == nil {
		return nil
	}
	if len(o.CashWeights) != len(o.CashValues) {
		return errs.InvalidFatalf("orb.cash_weights has %d entries, cash_values has %d", len(o.CashWeights), len(o.CashValues))
	}
	sum := 0
	for _, w := range o.CashWeights {
		if w < 0 {
			return errs.InvalidFatalf("orb cash weight %d must not be negative", w)
		}
		sum += w
	}
	if sum == 0 {
		return errs.InvalidFatalf("orb.cash_weights are all zero")
	}
	return nil
}

// HoldAndSpinSetting Hold&Spin 參數。
type HoldAndSpinSetting struct {
	Trigger   int     `yaml:"trigger"    json:"trigger"`    // 觸發所需寶珠數
	Respins   int     `yaml:"respins"    json:"respins"`    // 每次重置的重轉次數
	OrbChance float64 `yaml:"orb_chance" json:"orb_chance"` // 未鎖定格落珠機率
}

func (hs *HoldAndSpinSetting) Init() error {
	if hs.Trigger < 1 || hs.Trigger > Cells {
		return errs.InvalidFatalf("hold_and_spin.trigger %d out of 1..%d", hs.Trigger, Cells)
	}
	if hs.Respins < 1 {
		return errs.InvalidFatalf("hold_and_spin.respins must be positive")
	}
	if hs.OrbChance < 0 || hs.OrbChance > 1 {
		return errs.InvalidFatalf("hold_and_spin.orb_chance %v out of [0,1]", hs.OrbChance)
	}
	return nil
}

// FreeGamesSetting 免費遊戲參數。
type FreeGamesSetting struct {
	Trigger   int `yaml:"trigger"   json:"trigger"`
	Award     int `yaml:"award"     json:"award"`
	Retrigger int `yaml:"retrigger" json:"retrigger"`
}

func (f *FreeGamesSetting) Init() error {
	if f.Trigger < 1 || f.Trigger > Cells {
		return errs.InvalidFatalf("free_games.trigger %d out of 1..%d", f.Trigger, Cells)
	}
	if f.Award < 1 || f.Retrigger < 0 {
		return errs.InvalidFatalf("free_games award/retrigger invalid: %d/%d", f.Award, f.Retrigger)
	}
	return nil
}

// JackpotSetting 四個彩金池的初始顯示金額（貨幣單位，含小數）。
type JackpotSetting struct {
	Mini  decimal.Decimal `yaml:"mini"  json:"mini"`
	Minor decimal.Decimal `yaml:"minor" json:"minor"`
	Major decimal.Decimal `yaml:"major" json:"major"`
	Grand decimal.Decimal `yaml:"grand" json:"grand"`
}

func (js *JackpotSetting) Init() error {
	for name, v := range map[string]decimal.Decimal{"mini": js.Mini, "minor": js.Minor, "major": js.Major, "grand": js.Grand} {
		if v.IsNegative() {
			return errs.InvalidFatalf("jackpots.%s must be non-negative, got %s", name, v)
		}
	}
	return nil
}
