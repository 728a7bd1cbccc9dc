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
	"slices"

	"github.com/zintix-labs/orbrush/errs"
)

// Denomination 面額：Value 為每單位押注的最小貨幣單位（分），
// MaxLines 限制此面額可選的線數（5 或 25）。
type Denomination struct {
	Label    string `yaml:"label"     json:"label"`
	Value    int64  `yaml:"value"     json:"value"`
	MaxLines int    `yaml:"max_lines" json:"max_lines"`
}

// DefaultBet 新 session 的預設押注。
type DefaultBet struct {
	Denomination  int64 `yaml:"denomination"   json:"denomination"`
	BetMultiplier int   `yaml:"bet_multiplier" json:"bet_multiplier"`
	Lines         int   `yaml:"lines"          json:"lines"`
}

// BetSetting 面額表與押注倍數集合。
type BetSetting struct {
	Denominations  []Denomination `yaml:"denominations"   json:"denominations"`
	BetMultipliers []int          `yaml:"bet_multipliers" json:"bet_multipliers"`
	Defaults       DefaultBet     `yaml:"defaults"        json:"defaults"`
	initFlag       bool
}

func (bs *BetSetting) Init() error {
	if bs.initFlag {
		return nil
	}
	if len(bs.Denominations) == 0 {
		return errs.InvalidFatalf("denominations is empty")
	}
	seen := make(map[int64]struct{}, len(bs.Denominations))
	for _, d := range bs.Denominations {
		if d.Value < 1 {
			return errs.InvalidFatalf("denomination %q value must be positive", d.Label)
		}
		if d.MaxLines < 1 || d.MaxLines > 25 {
			return errs.InvalidFatalf("denomination %q max_lines %d out of 1..25", d.Label, d.MaxLines)
		}
		if _, dup := seen[d.Value]; dup {
			return errs.InvalidFatalf("duplicate denomination value %d", d.Value)
		}
		seen[d.Value] = struct{}{}
	}
	if len(bs.BetMultipliers) == 0 {
		return errs.InvalidFatalf("bet_multipliers is empty")
	}
	for _, m := range bs.BetMultipliers {
		if m < 1 {
			return errs.InvalidFatalf("bet multiplier %d must be positive", m)
		}
	}
	if _, err := bs.Validate(bs.Defaults.Denomination, bs.Defaults.BetMultiplier, bs.Defaults.Lines); err != nil {
		return errs.InvalidFatalf("defaults: %v", err)
	}
	bs.initFlag = true
	return nil
}

// Denomination 依面額值查表。
func (bs *BetSetting) Denomination(value int64) (Denomination, bool) {
	for _, d := range bs.Denominations {
		if d.Value == value {
			return d, true
		}
	}
	return Denomination{}, false
}

// Validate 檢查一組押注參數。所有錯誤都在改動任何狀態前回報。
func (bs *BetSetting) Validate(denom int64, betMult int, lines int) (Denomination, error) {
	d, ok := bs.Denomination(denom)
	if !ok {
		return d, errs.Invalidf("denomination %d not offered", denom)
	}
	if !slices.Contains(bs.BetMultipliers, betMult) {
		return d, errs.Invalidf("bet multiplier %d not offered", betMult)
	}
	if lines < 1 || lines > d.MaxLines {
		return d, errs.Invalidf("lines %d exceed denomination %s maximum %d", lines, d.Label, d.MaxLines)
	}
	return d, nil
}

// TotalBet = denomination × betMultiplier × selectedLines，每次都重新計算。
func TotalBet(denom int64, betMult int, lines int) int64 {
	return denom * int64(betMult) * int64(lines)
}

// BetPerLine = denomination × betMultiplier
func BetPerLine(denom int64, betMult int) int64 {
	return denom * int64(betMult)
}
