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

// Package orb 決定每顆寶珠的附加值。
package orb

import (
	"github.com/zintix-labs/orbrush/errs"
	"github.com/zintix-labs/orbrush/sdk/core"
	"github.com/zintix-labs/orbrush/sdk/sampler"
	"github.com/zintix-labs/orbrush/sdk/slot"
	"github.com/zintix-labs/orbrush/spec"
)

// Resolver 每顆寶珠獨立做一次 u ∈ [0,1) 取樣：
//
//	[0, major)      MAJOR
//	[major, minor)  MINOR
//	[minor, mini)   MINI
//	[mini, 1)       現金 = betMult × cash_values[k]
//
// k 預設為 IntN(len)；設定了 cash_weights 時改用 alias 表加權抽樣。
type Resolver struct {
	setting *spec.OrbSetting
	cash    *sampler.Alias // nil 表示等機率
}

func NewResolver(setting *spec.OrbSetting) (*Resolver, error) {
	if setting == nil || len(setting.CashValues) == 0 {
		return nil, errs.InvalidFatalf("orb setting has no cash values")
	}
	r := &Resolver{setting: setting}
	if setting.CashWeights != nil {
		a, err := sampler.NewAlias(setting.CashWeights)
		if err != nil {
			return nil, errs.Wrap(errs.InvalidFatalf("%v", err), "orb.cash_weights")
		}
		r.cash = a
	}
	return r, nil
}

// Resolve 回傳一顆寶珠的值。彩金只記階層，金額到結算時才換算。
func (r *Resolver) Resolve(rng core.RAND, betMult int) slot.CellValue {
	s := r.setting
	u := rng.Float64()
	switch {
	case u < s.MajorBelow:
		return slot.Jackpot(slot.TierMajor)
	case u < s.MinorBelow:
		return slot.Jackpot(slot.TierMinor)
	case u < s.MiniBelow:
		return slot.Jackpot(slot.TierMini)
	}
	if r.cash != nil {
		return slot.Cash(int64(betMult) * s.CashValues[r.cash.Pick(rng)])
	}
	return slot.Cash(int64(betMult) * s.CashValues[rng.IntN(len(s.CashValues))])
}

// Payable 以當下彩金池換算一顆寶珠的最小貨幣單位金額。
func Payable(v slot.CellValue, pool slot.JackpotPool) int64 {
	switch v.Kind {
	case slot.ValueCash:
		return v.Cash
	case slot.ValueJackpot:
		return pool.MinorUnits(v.Tier)
	}
	return 0
}

// Sum 加總盤面上所有寶珠的可兌現金額。
func Sum(grid *slot.Grid, values *slot.CellValues, pool slot.JackpotPool) int64 {
	var total int64
	for c := range grid {
		for r := range grid[c] {
			if grid[c][r] == spec.Orb {
				total += Payable(values[c][r], pool)
			}
		}
	}
	return total
}
