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

package stats

import (
	"sort"
	"sync"
)

// LUT 上限（項數）。總押注很大時改用二分搜尋，避免 LUT 吃掉太多記憶體。
const maxLutLen int64 = 1 << 16

// WinBuckets 依總押注快取分桶表，可跨 goroutine 共用。
type WinBuckets struct {
	mults  []int64
	labels []string
	mu     sync.Mutex
	byBet  map[int64]*WinBucket
}

// WinBucket 某一個總押注下「贏分 → 分桶索引」的查表。
type WinBucket struct {
	bounds []int64 // 贏分邊界，與 mults 對齊
	lut    []uint8 // lut[win] = idx；win >= len(lut) 走二分搜尋
}

// Buckets 贏倍區間 [0,0], (0,1), [1,2), [2,5), ..., [2000,10000), [10000,+inf)
var Buckets = &WinBuckets{
	mults:  []int64{0, 1, 2, 5, 10, 20, 50, 100, 300, 500, 1000, 2000, 10000},
	labels: []string{"[0,0]", "(0,1)", "[1,2)", "[2,5)", "[5,10)", "[10,20)", "[20,50)", "[50,100)", "[100,300)", "[300,500)", "[500,1000)", "[1000,2000)", "[2000,10000)", "[10000,+inf)"},
	byBet:  make(map[int64]*WinBucket),
}

func (b *WinBuckets) Labels() []string { return b.labels }

// Len 分桶數量
func (b *WinBuckets) Len() int { return len(b.labels) }

// ForBet 取得（或建立）某總押注的分桶表。
func (b *WinBuckets) ForBet(totalBet int64) *WinBucket {
	b.mu.Lock()
	defer b.mu.Unlock()
	if wb, ok := b.byBet[totalBet]; ok {
		return wb
	}
	wb := b.build(max(1, totalBet))
	b.byBet[totalBet] = wb
	return wb
}

func (b *WinBuckets) build(totalBet int64) *WinBucket {
	bounds := make([]int64, len(b.mults))
	for i, m := range b.mults {
		bounds[i] = m * totalBet
	}
	n := min(bounds[len(bounds)-1], maxLutLen)
	wb := &WinBucket{bounds: bounds, lut: make([]uint8, n)}
	for w := int64(1); w < n; w++ {
		wb.lut[w] = uint8(wb.search(w))
	}
	return wb
}

// Index 回傳贏分所在的分桶索引。
func (wb *WinBucket) Index(win int64) int {
	if win <= 0 {
		return 0
	}
	if win < int64(len(wb.lut)) {
		return int(wb.lut[win])
	}
	return wb.search(win)
}

// search 找第一個 bound > win 的位置；(0, bounds[1]) 落在 1。
func (wb *WinBucket) search(win int64) int {
	return sort.Search(len(wb.bounds), func(i int) bool { return wb.bounds[i] > win })
}
