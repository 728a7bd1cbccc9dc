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

// Package sampler 提供 O(1) 的整數權重抽樣。
package sampler

import (
	"math"
	"math/bits"

	"github.com/zintix-labs/orbrush/errs"
	"github.com/zintix-labs/orbrush/sdk/core"
)

// Alias Vose alias method 的整數版本。
//
// 每個槽位只放「自己」與「別名」兩個選項：先均勻選槽位，再以 IntN(total) < prob 決定取哪一個。
// 全程整數比較，沒有浮點累積誤差；每次抽樣固定消耗兩次 IntN。
type Alias struct {
	prob  []int
	alias []int
	total int
}

// NewAlias weights 為非負整數且總和 > 0；權重為 0 的索引永遠不會被抽中。
func NewAlias(weights []int) (*Alias, error) {
	n := len(weights)
	if n == 0 {
		return nil, errs.Invalidf("alias: empty weights")
	}
	var total uint64
	for i, w := range weights {
		if w < 0 {
			return nil, errs.Invalidf("alias: negative weight %d at %d", w, i)
		}
		if total > uint64(math.MaxInt)-uint64(w) {
			return nil, errs.Invalidf("alias: total weight overflows int")
		}
		total += uint64(w)
	}
	if total == 0 {
		return nil, errs.Invalidf("alias: all weights are zero")
	}
	// w*n 必須放得進 int
	if hi, lo := bits.Mul64(total, uint64(n)); hi != 0 || lo > math.MaxInt64 {
		return nil, errs.Invalidf("alias: weights too large for %d items", n)
	}

	t := int(total)
	a := &Alias{prob: make([]int, n), alias: make([]int, n), total: t}
	small := make([]int, 0, n)
	large := make([]int, 0, n)
	for i, w := range weights {
		a.prob[i] = w * n
		a.alias[i] = i
		if a.prob[i] < t {
			small = append(small, i)
		} else {
			large = append(large, i)
		}
	}
	for len(small) > 0 && len(large) > 0 {
		s := small[len(small)-1]
		small = small[:len(small)-1]
		l := large[len(large)-1]
		large = large[:len(large)-1]

		// 槽位 s 剩下的 total-prob[s] 交給 l；每個索引分到的總量維持 w*n
		a.alias[s] = l
		a.prob[l] += a.prob[s] - t
		if a.prob[l] < t {
			small = append(small, l)
		} else {
			large = append(large, l)
		}
	}
	// 整數運算下剩餘槽位的 prob 必為 total
	for _, i := range append(small, large...) {
		a.prob[i] = t
	}
	return a, nil
}

func (a *Alias) Len() int { return len(a.prob) }

// Pick 抽出一個索引
func (a *Alias) Pick(rng core.RAND) int {
	i := rng.IntN(len(a.prob))
	if rng.IntN(a.total) < a.prob[i] {
		return i
	}
	return a.alias[i]
}
