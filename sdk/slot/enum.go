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

package slot

import (
	"fmt"

	"github.com/zintix-labs/orbrush/errs"
)

// Mode 目前啟用的遊戲模式，同一時間只有一個。
type Mode uint8

const (
	ModeBase Mode = iota
	ModeFreeGames
	ModeHoldAndSpin
)

var modeNames = []string{"base", "free_games", "hold_and_spin"}

func (m Mode) String() string                { return enumString(modeNames, m) }
func (m Mode) MarshalText() ([]byte, error)  { return enumMarshal(modeNames, m) }
func (m *Mode) UnmarshalText(b []byte) error { return enumUnmarshal(modeNames, b, m) }

// ValueKind 格子附加值的種類；只有 ORB 格會是 Cash 或 Jackpot。
type ValueKind uint8

const (
	ValueNone ValueKind = iota
	ValueCash
	ValueJackpot
)

var valueKindNames = []string{"none", "cash", "jackpot"}

func (k ValueKind) String() string                { return enumString(valueKindNames, k) }
func (k ValueKind) MarshalText() ([]byte, error)  { return enumMarshal(valueKindNames, k) }
func (k *ValueKind) UnmarshalText(b []byte) error { return enumUnmarshal(valueKindNames, b, k) }

// Tier 彩金階層。寶珠只會抽到 MINI / MINOR / MAJOR；GRAND 僅由滿盤觸發。
type Tier uint8

const (
	TierNone Tier = iota
	TierMini
	TierMinor
	TierMajor
	TierGrand
)

var tierNames = []string{"", "MINI", "MINOR", "MAJOR", "GRAND"}

func (t Tier) String() string                { return enumString(tierNames, t) }
func (t Tier) MarshalText() ([]byte, error)  { return enumMarshal(tierNames, t) }
func (t *Tier) UnmarshalText(b []byte) error { return enumUnmarshal(tierNames, b, t) }

// FeatureKind 特色遊戲種類
type FeatureKind uint8

const (
	FeatureNone FeatureKind = iota
	FeatureFreeGames
	FeatureHoldAndSpin
)

var featureKindNames = []string{"", "free_games", "hold_and_spin"}

func (k FeatureKind) String() string                { return enumString(featureKindNames, k) }
func (k FeatureKind) MarshalText() ([]byte, error)  { return enumMarshal(featureKindNames, k) }
func (k *FeatureKind) UnmarshalText(b []byte) error { return enumUnmarshal(featureKindNames, b, k) }

func enumString[T ~uint8](names []string, v T) string {
	if int(v) < len(names) {
		return names[v]
	}
	return fmt.Sprintf("%d", uint8(v))
}

func enumMarshal[T ~uint8](names []string, v T) ([]byte, error) {
	if int(v) >= len(names) {
		return nil, errs.Invariantf("enum value %d out of range", uint8(v))
	}
	return []byte(names[v]), nil
}

func enumUnmarshal[T ~uint8](names []string, b []byte, dst *T) error {
	s := string(b)
	for i, n := range names {
		if n == s {
			*dst = T(i)
			return nil
		}
	}
	return errs.Invalidf("unknown enum value %q", s)
}
