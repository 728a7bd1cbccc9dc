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

// Command svr 啟動 orbrush 的 HTTP 服務。
//
//	go run ./cmd/svr -addr :5808 -log-mode prod -pool 4096 -cors https://play.example.com
package main

import (
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/zintix-labs/orbrush"
	"github.com/zintix-labs/orbrush/games/configs"
	"github.com/zintix-labs/orbrush/sdk/core"
	"github.com/zintix-labs/orbrush/server"
	"github.com/zintix-labs/orbrush/server/logger"
	"github.com/zintix-labs/orbrush/server/netsvr"
	"github.com/zintix-labs/orbrush/server/svrcfg"
)

type flags struct {
	addr    string
	logMode string
	pool    int
	cors    string
	cfgDir  string
}

func main() {
	f := new(flags)
	flag.StringVar(&f.addr, "addr", netsvr.DefaultAddr, "listen address")
	flag.StringVar(&f.logMode, "log-mode", "dev", "log mode: dev|prod|silence")
	flag.IntVar(&f.pool, "pool", svrcfg.DefaultMaxSessions, "max concurrent sessions per game")
	flag.StringVar(&f.cors, "cors", "", "comma separated allowed origins (empty = any)")
	flag.StringVar(&f.cfgDir, "configs", "", "extra game setting directory (yaml/json)")
	flag.Parse()

	sCfg, ah, err := f.build()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	err = server.Run(sCfg)
	ah.Close()
	if err != nil {
		os.Exit(1)
	}
}

func (f *flags) build() (*svrcfg.SvrCfg, *logger.AsyncHandler, error) {
	mode, err := logger.ParseMode(f.logMode)
	if err != nil {
		return nil, nil, err
	}
	sources := []fs.FS{configs.FS}
	if f.cfgDir != "" {
		sources = append(sources, os.DirFS(f.cfgDir))
	}
	ob, err := orbrush.NewAuto(core.Default(), orbrush.Configs(sources...))
	if err != nil {
		return nil, nil, err
	}
	log, ah := logger.NewAsync(4096, mode)
	return &svrcfg.SvrCfg{
		Addr:        f.addr,
		Log:         log,
		MaxSessions: f.pool,
		CORS:        splitList(f.cors),
		Orbrush:     ob,
	}, ah, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
