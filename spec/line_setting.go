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

import "github.com/zintix-labs/orbrush/errs"

// PayLine 每軸一個列索引 (0~2)。
type PayLine [Columns]int

// LineSetting 兩張線表：lines_5 與 lines_25，後者前 5 條與前者相同。
type LineSetting struct {
	Lines5   []PayLine `yaml:"lines_5"  json:"lines_5"`
	Lines25  []PayLine `yaml:"lines_25" json:"lines_25"`
	initFlag bool
}

// Init 檢查線表形狀與列索引範圍。
func (ls *LineSetting) Init() error {
	if ls.initFlag {
		return nil
	}
	if len(ls.Lines5) != 5 {
		return errs.InvalidFatalf("lines_5 must have 5 lines, got %d", len(ls.Lines5))
	}
	if len(ls.Lines25) != 25 {
		return errs.InvalidFatalf("lines_25 must have 25 lines, got %d", len(ls.Lines25))
	}
	for i := range ls.Lines5 {
		if ls.Lines5[i] != ls.Lines25[i] {
			return errs.InvalidFatalf("lines_25[%d] must equal lines_5[%d]", i, i)
		}
	}
	for _, tbl := range [][]PayLine{ls.Lines5, ls.Lines25} {
		for i, pl := range tbl {
			for col, row := range pl {
				if row < 0 || row >= Rows {
					return errs.InvalidFatalf("line %d col %d row %d out of range", i, col, row)
				}
			}
		}
	}
	ls.initFlag = true
	return nil
}

// Active 回傳實際評估的線：n <= 5 時使用整張 lines_5，否則取 lines_25 前 n 條。
func (ls *LineSetting) Active(n int) []PayLine {
	if n <= 5 {
		return ls.Lines5
	}
	if n > len(ls.Lines25) {
		n = len(ls.Lines25)
	}
	return ls.Lines25[:n]
}
