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

// Command sim 以命令列跑機台模擬或玩家體驗模擬。
//
//	go run ./cmd/sim -game 2 -worker 8 -spins 1000000
//	go run ./cmd/sim -game 2 -worker 8 -player 10000 -credits 5000 -spins 1500
//	go run ./cmd/sim -game 1 -spins 100000 -p cpu -o build/report.yaml
package main

import (
	"fmt"
	"os"

	"github.com/zintix-labs/orbrush/sdk/perf"
)

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	path, err := perf.Run("", cfg.pprof, func() error { return execute(cfg, os.Stdout) })
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if path != "" {
		fmt.Fprintln(os.Stdout, "profile written to", path)
	}
}
