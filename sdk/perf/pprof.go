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

// Package perf 為模擬器包上 pprof：CPU profile 可做效能分析，也可作為 PGO 的輸入。
package perf

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/zintix-labs/orbrush/errs"
)

// DefaultDir 預設的 profile 輸出目錄
const DefaultDir = "build/profiling"

// Mode profile 種類
type Mode string

const (
	ModeNone   Mode = ""
	ModeCPU    Mode = "cpu"
	ModeHeap   Mode = "heap"
	ModeAllocs Mode = "allocs"
)

// ParseMode 解析 -p 參數
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeNone, ModeCPU, ModeHeap, ModeAllocs:
		return m, nil
	}
	return ModeNone, errs.Invalidf("unknown pprof mode %q (cpu|heap|allocs)", s)
}

// Run 依 mode 執行 exe 並寫出對應的 profile 至 dir/<mode>.pprof，回傳檔案路徑。
//   - cpu：整段執行期間取樣。
//   - heap：exe 結束後 GC 一次再拍 in-use 快照。
//   - allocs：exe 結束後寫出累積配置。
//
// exe 的錯誤優先回傳；ModeNone 只執行 exe。
func Run(dir string, mode Mode, exe func() error) (string, error) {
	if mode == ModeNone {
		return "", exe()
	}
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errs.Wrap(err, "create profiling dir")
	}
	path := filepath.Join(dir, string(mode)+".pprof")
	f, err := os.Create(path)
	if err != nil {
		return "", errs.Wrap(err, "create profile file")
	}
	defer f.Close()

	switch mode {
	case ModeCPU:
		if err := pprof.StartCPUProfile(f); err != nil {
			return "", errs.Wrap(err, "start cpu profile")
		}
		err := exe()
		pprof.StopCPUProfile()
		return path, err
	case ModeHeap:
		if err := exe(); err != nil {
			return path, err
		}
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			return path, errs.Wrap(err, "write heap profile")
		}
		return path, nil
	case ModeAllocs:
		if err := exe(); err != nil {
			return path, err
		}
		if err := pprof.Lookup("allocs").WriteTo(f, 0); err != nil {
			return path, errs.Wrap(err, "write allocs profile")
		}
		return path, nil
	}
	return "", errs.Invalidf("unknown pprof mode %q", mode)
}
