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
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zintix-labs/orbrush/sdk/perf"
)

func TestParseFlags(t *testing.T) {
	cfg, err := parseFlags([]string{"-game", "2", "-worker", "3", "-player", "500000", "-spins", "99999", "-mult", "2", "-p", "cpu"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.id != 2 || cfg.worker != 3 || cfg.bet.BetMultiplier != 2 || cfg.pprof != perf.ModeCPU {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.player != maxPlayers || cfg.rounds != maxPlayerRounds {
		t.Fatalf("player limits not applied: %d %d", cfg.player, cfg.rounds)
	}
	if cfg.seed < 0 {
		t.Fatalf("seed not filled: %d", cfg.seed)
	}
	if _, err := parseFlags([]string{"-worker", "0"}); err == nil {
		t.Fatalf("expected error for zero workers")
	}
	if _, err := parseFlags([]string{"-p", "mutex"}); err == nil {
		t.Fatalf("expected error for unknown pprof mode")
	}
}

func TestExecuteWritesReport(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report", "sim.json")
	cfg, err := parseFlags([]string{"-game", "2", "-spins", "500", "-worker", "2", "-seed", "9", "-pb=false", "-o", out})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	var buf bytes.Buffer
	if err := execute(cfg, &buf); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(buf.String(), "buffalo_orbs_rich") {
		t.Fatalf("header = %q", buf.String())
	}
	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	if !strings.Contains(string(raw), "\"Rounds\"") {
		t.Fatalf("report = %s", raw)
	}
}

func TestExecutePlayers(t *testing.T) {
	out := filepath.Join(t.TempDir(), "players.yaml")
	cfg, err := parseFlags([]string{"-game", "2", "-player", "20", "-credits", "2500", "-spins", "100", "-worker", "2", "-seed", "5", "-pb=false", "-o", out})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	var buf bytes.Buffer
	if err := execute(cfg, &buf); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(buf.String(), "[PLAYERS:20]") {
		t.Fatalf("header = %q", buf.String())
	}
	raw, err := os.ReadFile(playersPath(out))
	if err != nil {
		t.Fatalf("players report not written: %v", err)
	}
	if !strings.Contains(string(raw), "session_stat") {
		t.Fatalf("players report = %s", raw)
	}
}
