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

package sampler

import (
	"math"
	"testing"

	"github.com/zintix-labs/orbrush/sdk/core"
	"pgregory.net/rapid"
)

func TestNewAliasRejectsBadWeights(t *testing.T) {
	for _, ws := range [][]int{nil, {0, 0}, {3, -1}, {math.MaxInt, 1}} {
		if _, err := NewAlias(ws); err == nil {
			t.Fatalf("weights %v: expected error", ws)
		}
	}
}

func TestAliasFrequencies(t *testing.T) {
	weights := []int{50, 25, 15, 6, 3, 1}
	a, err := NewAlias(weights)
	if err != nil {
		t.Fatalf("NewAlias: %v", err)
	}
	rng := core.New(core.Default().New(42))
	const n = 400_000
	got := make([]int, len(weights))
	for i := 0; i < n; i++ {
		got[a.Pick(rng)]++
	}
	for i, w := range weights {
		want := float64(w) / 100
		p := float64(got[i]) / n
		sd := math.Sqrt(want * (1 - want) / n)
		if math.Abs(p-want) > 5*sd {
			t.Fatalf("index %d: freq %.5f want %.5f", i, p, want)
		}
	}
}

// mass 回傳每個索引在表內分到的量：自身槽位的 prob 加上被別名指到的槽位餘量。
func mass(a *Alias) []int {
	m := make([]int, len(a.prob))
	for i, p := range a.prob {
		m[i] += p
		m[a.alias[i]] += a.total - p
	}
	return m
}

func TestAliasMassMatchesWeights(t *testing.T) {
	for _, ws := range [][]int{{1, 2}, {30, 25, 20, 12, 8, 5}, {0, 7, 0, 3, 9}, {1, 0}} {
		a, err := NewAlias(ws)
		if err != nil {
			t.Fatalf("weights %v: %v", ws, err)
		}
		for k, got := range mass(a) {
			if want := ws[k] * len(ws); got != want {
				t.Fatalf("weights %v index %d: mass %d want %d", ws, k, got, want)
			}
		}
	}
}

// 每個索引分到的量等於 weight*n，且權重為 0 的索引抽不到
func TestAliasProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		weights := rapid.SliceOfN(rapid.IntRange(0, 1000), 1, 40).Draw(t, "weights")
		sum := 0
		for _, w := range weights {
			sum += w
		}
		if sum == 0 {
			weights[0] = 1
			sum = 1
		}
		a, err := NewAlias(weights)
		if err != nil {
			t.Fatalf("NewAlias: %v", err)
		}
		for _, p := range a.prob {
			if p < 0 || p > a.total {
				t.Fatalf("prob %d out of [0,%d]", p, a.total)
			}
		}
		for k, got := range mass(a) {
			if want := weights[k] * len(weights); got != want {
				t.Fatalf("index %d: mass %d want %d (weights %v)", k, got, want, weights)
			}
		}
		rng := core.New(core.Default().New(rapid.Int64().Draw(t, "seed")))
		for i := 0; i < 200; i++ {
			k := a.Pick(rng)
			if k < 0 || k >= len(weights) || weights[k] == 0 {
				t.Fatalf("picked %d with weights %v", k, weights)
			}
		}
	})
}
