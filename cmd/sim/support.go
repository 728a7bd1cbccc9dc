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

package main

import (
	"flag"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/zintix-labs/orbrush"
	"github.com/zintix-labs/orbrush/errs"
	"github.com/zintix-labs/orbrush/games/configs"
	"github.com/zintix-labs/orbrush/sdk/core"
	"github.com/zintix-labs/orbrush/sdk/ledger"
	"github.com/zintix-labs/orbrush/sdk/perf"
	"github.com/zintix-labs/orbrush/spec"
	"github.com/zintix-labs/orbrush/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// 玩家模擬的上限：再多已經是長期機台表現，直接跑機台模擬即可
const (
	maxPlayers      = 100_000
	maxPlayerRounds = 15_000
)

type config struct {
	id      spec.GID
	worker  int
	player  int
	credits int64 // 玩家入場資金（最小單位），0 表示 200 倍總押注
	rounds  int
	bet     ledger.Bet
	seed    int64
	pprof   perf.Mode
	out     string
	cfgDir  string
	showpb  bool
}

type gidFlag struct{ p *spec.GID }

func (f gidFlag) String() string {
	if f.p == nil {
		return "0"
	}
	return strconv.FormatUint(uint64(*f.p), 10)
}

func (f gidFlag) Set(s string) error {
	u, err := strconv.ParseUint(s, 10, 0)
	if err != nil {
		return err
	}
	*f.p = spec.GID(u)
	return nil
}

func parseFlags(args []string) (*config, error) {
	cfg := &config{id: 1}
	var pmode string
	fset := flag.NewFlagSet("sim", flag.ContinueOnError)
	fset.Var(gidFlag{&cfg.id}, "game", "target game id")
	fset.IntVar(&cfg.worker, "worker", 1, "number of workers")
	fset.IntVar(&cfg.player, "player", 1, "number of players (> 1 runs player sessions)")
	fset.Int64Var(&cfg.credits, "credits", 0, "player bankroll in credits (0 = 200 x total bet)")
	fset.IntVar(&cfg.rounds, "spins", 1_000_000, "paid rounds per worker, or per player")
	fset.Int64Var(&cfg.bet.Denomination, "denom", 0, "denomination value (0 = game default)")
	fset.IntVar(&cfg.bet.BetMultiplier, "mult", 0, "bet multiplier (0 = game default)")
	fset.IntVar(&cfg.bet.Lines, "lines", 0, "selected lines (0 = game default)")
	fset.Int64Var(&cfg.seed, "seed", -1, "int64 seed, < 0 picks a random seed")
	fset.StringVar(&pmode, "p", "", "pprof: '', cpu, heap, allocs")
	fset.StringVar(&cfg.out, "o", "", "write the report to a file (.json .yaml .txt)")
	fset.StringVar(&cfg.cfgDir, "configs", "", "extra game setting directory")
	fset.BoolVar(&cfg.showpb, "pb", true, "show progress bar")
	if err := fset.Parse(args); err != nil {
		return nil, err
	}
	mode, err := perf.ParseMode(pmode)
	if err != nil {
		return nil, err
	}
	cfg.pprof = mode
	if cfg.seed < 0 {
		cfg.seed = core.RandomSeed()
	}
	return cfg, cfg.valid()
}

func (cfg *config) valid() error {
	if cfg.worker < 1 {
		return errs.Invalidf("worker must > 0")
	}
	if cfg.player < 1 {
		return errs.Invalidf("player must > 0")
	}
	if cfg.rounds < 1 {
		return errs.Invalidf("spins must > 0")
	}
	if cfg.credits < 0 {
		return errs.Invalidf("credits must not be negative")
	}
	cfg.player = min(cfg.player, maxPlayers)
	if cfg.player > 1 {
		cfg.rounds = min(cfg.rounds, maxPlayerRounds)
	}
	return nil
}

// execute 建立模擬器並依參數分派；統計表寫到 w，-o 另外輸出檔案。
func execute(cfg *config, w io.Writer) error {
	sources := []fs.FS{configs.FS}
	if cfg.cfgDir != "" {
		sources = append(sources, os.DirFS(cfg.cfgDir))
	}
	ob, err := orbrush.NewAuto(core.Default(), orbrush.Configs(sources...))
	if err != nil {
		return err
	}
	gs, err := ob.GameSetting(cfg.id)
	if err != nil {
		return err
	}
	bet := withDefaults(cfg.bet, gs.Bet.Defaults)
	if _, err := gs.Bet.Validate(bet.Denomination, bet.BetMultiplier, bet.Lines); err != nil {
		return err
	}
	total := spec.TotalBet(bet.Denomination, bet.BetMultiplier, bet.Lines)
	sim, err := ob.NewSimulatorWithSeed(cfg.id, cfg.seed)
	if err != nil {
		return err
	}

	const green, reset = "\033[1;32m", "\033[0m"
	p := message.NewPrinter(language.English)

	if cfg.player == 1 {
		p.Fprintf(w, "%s[GAME:%s] [WORKERS:%d] [BET:%d] [ROUNDS:%d] [SEED:%d]%s\n",
			green, gs.GameName, cfg.worker, total, cfg.worker*cfg.rounds, cfg.seed, reset)
		st, used, err := runMachines(sim, cfg, bet)
		if err != nil {
			return err
		}
		st.StdOut(used)
		return cfg.save(st)
	}

	initBets := 200
	if cfg.credits > 0 {
		initBets = int(max(1, cfg.credits/total))
	}
	p.Fprintf(w, "%s[GAME:%s] [WORKERS:%d] [PLAYERS:%d] [BANKROLL:%d] [ROUNDS:%d] [SEED:%d]%s\n",
		green, gs.GameName, cfg.worker, cfg.player, int64(initBets)*total, cfg.rounds, cfg.seed, reset)
	st, est, used, err := sim.SimPlayers(cfg.worker, cfg.player, initBets, bet, cfg.rounds, cfg.showpb)
	if err != nil {
		return err
	}
	st.StdOut(used)
	est.Out(w)
	if err := cfg.save(st); err != nil {
		return err
	}
	return cfg.savePlayers(est)
}

func runMachines(sim *orbrush.Simulator, cfg *config, bet ledger.Bet) (*stats.StatReport, time.Duration, error) {
	if cfg.worker == 1 {
		return sim.Sim(bet, cfg.rounds, cfg.showpb)
	}
	return sim.SimMP(bet, cfg.rounds, cfg.worker, cfg.showpb)
}

func withDefaults(b ledger.Bet, d spec.DefaultBet) ledger.Bet {
	if b.Denomination == 0 {
		b.Denomination = d.Denomination
	}
	if b.BetMultiplier == 0 {
		b.BetMultiplier = d.BetMultiplier
	}
	if b.Lines == 0 {
		b.Lines = d.Lines
	}
	return b
}

// save 依 -o 的副檔名挑選渲染器
func (cfg *config) save(st *stats.StatReport) error {
	if cfg.out == "" {
		return nil
	}
	rep, err := stats.RenderByName(filepath.Ext(cfg.out))
	if err != nil {
		return err
	}
	return writeFile(cfg.out, func(w io.Writer) error { return st.WriteWith(w, rep) })
}

// savePlayers 玩家體驗估計寫到 -o 旁邊的 <name>.players<ext>
func (cfg *config) savePlayers(est *stats.EstimatorPlayers) error {
	if cfg.out == "" {
		return nil
	}
	ext := filepath.Ext(cfg.out)
	rep, err := stats.EstimatorRenderByName(ext)
	if err != nil {
		return err
	}
	return writeFile(playersPath(cfg.out), func(w io.Writer) error { return rep.Write(w, est) })
}

func playersPath(out string) string {
	ext := filepath.Ext(out)
	return strings.TrimSuffix(out, ext) + ".players" + ext
}

func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errs.Wrap(err, "create report dir")
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(err, "create report file")
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errs.Wrap(err, "close report file")
	}
	return nil
}
