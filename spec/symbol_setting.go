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
	"fmt"

	"github.com/zintix-labs/orbrush/errs"
)

// Symbol 為封閉的圖標集合。
type Symbol uint8

const (
	Scatter Symbol = iota
	Wild
	Bonus
	Orb
	Buffalo
	Eagle
	Wolf
	Cougar
	A
	K
	Q
	J
	Ten
	Nine
	Blank // 只會出現在 Hold&Spin 盤面
)

// NumSymbols 圖標總數，可直接當陣列長度使用。
const NumSymbols = int(Blank) + 1

var symbolNames = [NumSymbols]string{
	Scatter: "SCATTER",
	Wild:    "WILD",
	Bonus:   "BONUS",
	Orb:     "ORB",
	Buffalo: "BUFFALO",
	Eagle:   "EAGLE",
	Wolf:    "WOLF",
	Cougar:  "COUGAR",
	A:       "A",
	K:       "K",
	Q:       "Q",
	J:       "J",
	Ten:     "10",
	Nine:    "9",
	Blank:   "BLANK",
}

var symbolMap = func() map[string]Symbol {
	m := make(map[string]Symbol, NumSymbols)
	for i, name := range symbolNames {
		m[name] = Symbol(i)
	}
	return m
}()

func ParseSymbol(s string) (Symbol, bool) {
	sym, ok := symbolMap[s]
	return sym, ok
}

func (s Symbol) String() string {
	if int(s) < NumSymbols {
		return symbolNames[s]
	}
	return fmt.Sprintf("Symbol(%d)", uint8(s))
}

func (s Symbol) Valid() bool { return int(s) < NumSymbols }

// MarshalText 讓 JSON 輸出使用圖標名稱。
func (s Symbol) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, errs.Invariantf("unknown symbol %d", uint8(s))
	}
	return []byte(symbolNames[s]), nil
}

func (s *Symbol) UnmarshalText(b []byte) error {
	sym, ok := ParseSymbol(string(b))
	if !ok {
		return errs.Invalidf("unknown symbol %q", string(b))
	}
	*s = sym
	return nil
}

// IsLinePayable 回傳圖標是否可作為連線的比對圖標。
// Scatter / Orb / Bonus / Blank 皆不走連線。
func (s Symbol) IsLinePayable() bool {
	switch s {
	case Scatter, Orb, Bonus, Blank:
		return false
	}
	return s.Valid()
}

// PayTable 依 [圖標][連線數-1] 查倍數，連線數 1~2 恆為 0。
type PayTable [NumSymbols][5]int

// Pay 回傳 count 個 sym 的倍數；count 超出 1~5 回傳 0。
func (pt *PayTable) Pay(sym Symbol, count int) int {
	if count < 1 || count > 5 || !sym.Valid() {
		return 0
	}
	return pt[sym][count-1]
}

// buildPayTable 解析設定檔的賠付表（key 為圖標名稱）。
func buildPayTable(raw map[string][]int) (PayTable, error) {
	var pt PayTable
	if len(raw) == 0 {
		return pt, errs.InvalidFatalf("pay_table is empty")
	}
	for name, row := range raw {
		sym, ok := ParseSymbol(name)
		if !ok {
			return pt, errs.InvalidFatalf("pay_table has unknown symbol %q", name)
		}
		if len(row) != 5 {
			return pt, errs.InvalidFatalf("pay_table[%s] must have 5 entries, got %d", name, len(row))
		}
		for i, v := range row {
			if v < 0 {
				return pt, errs.InvalidFatalf("pay_table[%s][%d] is negative", name, i)
			}
			if i < 2 && v != 0 {
				return pt, errs.InvalidFatalf("pay_table[%s]: counts 1-2 must pay 0", name)
			}
			pt[sym][i] = v
		}
	}
	for _, sym := range []Symbol{Orb, Bonus, Blank} {
		if pt[sym] != [5]int{} {
			return pt, errs.InvalidFatalf("pay_table[%s] must be all zero", sym)
		}
	}
	return pt, nil
}
