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

package core

// PRNG 定義引擎所需的亂數來源，需同時支援取樣與狀態保存/還原。
type PRNG interface {
	RAND
	Restorable
}

// Restorable 定義可快照與還原的狀態介面。
type Restorable interface {
	// Snapshot 回傳可用於還原的序列化狀態。
	Snapshot() ([]byte, error)
	// Restore 依序列化狀態還原 PRNG 內部狀態。
	Restore([]byte) error
}

// RAND 定義核心亂數取樣能力。
//
// 轉盤引擎只會用到兩種取樣：
//   - Float64：機率門檻判定（寶珠價值階層、Hold&Spin 落珠）。
//   - IntN：輪帶停止位置、現金表索引。
//
// Uint64 / UintN 保留給模擬器派生種子與統計用途。
type RAND interface {
	// Uint64 回傳非負 uint64 亂數。
	Uint64() uint64
	// Float64 回傳 [0,1) 的浮點亂數。
	Float64() float64
	// UintN 回傳 [0,max) 的 uint 亂數，若 max == 0 回傳 0。
	UintN(uint) uint
	// IntN 回傳 [0,max) 的 int 亂數，若 max <= 0 回傳 -1。
	IntN(int) int
}

// PRNGFactory 以 seed 建立 PRNG。
//
// 合約：同一實作同一版本下 New(seed) 必須是決定性的，
// 相同 seed 產生相同輸出序列（回放與多機台派生都依賴這點）。
type PRNGFactory interface {
	New(int64) PRNG
}

// PCG64Factory 為預設工廠（53-bit Float64）。
type PCG64Factory struct{}

func (PCG64Factory) New(seed int64) PRNG { return newPCG64WithSeed(seed) }

// PCG32Factory 提供 32-bit 輸出的 PCG，Float64 只有 32-bit 精度。
type PCG32Factory struct{}

func (PCG32Factory) New(seed int64) PRNG { return newPCG32WithSeed(seed) }

// Default 回傳預設工廠。
func Default() PRNGFactory { return PCG64Factory{} }

// FactoryByName 依名稱取得工廠，未知名稱回傳 false。
func FactoryByName(name string) (PRNGFactory, bool) {
	switch name {
	case "", "pcg64":
		return PCG64Factory{}, true
	case "pcg32":
		return PCG32Factory{}, true
	}
	return nil, false
}

// Core 封裝 PRNG，並提供常用取樣工具。
type Core struct {
	PRNG
}

// New 允許使用外部自實現的 PRNG 建立 Core。
func New(rng PRNG) *Core {
	return &Core{rng}
}

// Chance 回傳一次 Float64 取樣是否落在 [0,p)。
func (c *Core) Chance(p float64) bool {
	return c.Float64() < p
}

// Pick 從列表中隨機選取一個元素，若列表為空回傳 -1
func (c *Core) Pick(src []int64) int64 {
	if len(src) == 0 {
		return -1
	}
	return src[c.IntN(len(src))]
}
