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

package v1

import (
	"encoding/json"
	"net/http"
	"runtime"

	"github.com/zintix-labs/orbrush"
	"github.com/zintix-labs/orbrush/dto"
	"github.com/zintix-labs/orbrush/errs"
	"github.com/zintix-labs/orbrush/sdk/core"
	"github.com/zintix-labs/orbrush/sdk/ledger"
	"github.com/zintix-labs/orbrush/stats"
)

// 線上模擬的上限，避免單一請求吃光 CPU
const (
	maxSimRounds     = 1_000_000
	maxPlayers       = 100_000
	maxPlayerRounds  = 15_000
	maxCfgBody       = 5 << 20
	defaultPlayerBet = 100
)

func maxWorkers() int {
	return max(1, min(32, runtime.NumCPU()))
}

type simResponse struct {
	Seed     int64             `json:"seed"`
	Stats    *stats.StatReport `json:"stats"`
	UsedTime int64             `json:"used_ms"`
}

// Sim POST /v1/sim
func (h *Handler) Sim(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeJSON[dto.SimRequest](r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Rounds < 1 || req.Rounds > maxSimRounds {
		h.fail(w, r, errs.Invalidf("rounds must be between 1 and %d", maxSimRounds))
		return
	}
	seed := seedOr(req.Seed)
	sim, err := h.ob.NewSimulatorWithSeed(req.GameID, seed)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	resp, err := runSim(sim, req.Bet(), req.Rounds, req.Workers)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	resp.Seed = seed
	writeJSON(w, http.StatusOK, resp)
}

// SimPlayers POST /v1/simplayer 模擬多位玩家帶固定倍數的總押注入場
func (h *Handler) SimPlayers(w http.ResponseWriter, r *http.Request) {
	type simPlayersRequest struct {
		dto.SimRequest
		Players int `json:"players"`
		Bets    int `json:"bets,omitempty"` // 入場資金 = bets × 總押注
	}
	type simPlayersResponse struct {
		Seed      int64                   `json:"seed"`
		Stats     *stats.StatReport       `json:"stats"`
		Estimator *stats.EstimatorPlayers `json:"est"`
		UsedTime  int64                   `json:"used_ms"`
	}
	req, err := dto.DecodeJSON[simPlayersRequest](r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Players < 1 || req.Players > maxPlayers {
		h.fail(w, r, errs.Invalidf("players must be between 1 and %d", maxPlayers))
		return
	}
	if req.Rounds < 1 || req.Rounds > maxPlayerRounds {
		h.fail(w, r, errs.Invalidf("rounds must be between 1 and %d", maxPlayerRounds))
		return
	}
	if req.Bets == 0 {
		req.Bets = defaultPlayerBet
	}
	seed := seedOr(req.Seed)
	sim, err := h.ob.NewSimulatorWithSeed(req.GameID, seed)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	workers := clampWorkers(req.Workers)
	st, est, used, err := sim.SimPlayers(workers, req.Players, req.Bets, req.Bet(), req.Rounds, false)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, simPlayersResponse{Seed: seed, Stats: st, Estimator: est, UsedTime: used.Milliseconds()})
}

// SimByCfg POST /v1/simbycfg 以請求內附的 JSON 設定模擬（調參用）；
// 設定的 game_id / game_name 必須對應已註冊的遊戲。
func (h *Handler) SimByCfg(w http.ResponseWriter, r *http.Request) {
	type simByCfgRequest struct {
		Rounds       int             `json:"rounds"`
		Workers      int             `json:"workers,omitempty"`
		Denomination int64           `json:"denomination,omitempty"`
		BetMult      int             `json:"bet_mult,omitempty"`
		Lines        int             `json:"lines,omitempty"`
		Seed         *int64          `json:"seed,omitempty"`
		GameSetting  json.RawMessage `json:"cfg"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxCfgBody)
	req := new(simByCfgRequest)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		h.fail(w, r, errs.Invalidf("invalid json: %v", err))
		return
	}
	if len(req.GameSetting) == 0 {
		h.fail(w, r, errs.Invalidf("cfg is required"))
		return
	}
	if req.Rounds < 1 || req.Rounds > maxSimRounds {
		h.fail(w, r, errs.Invalidf("rounds must be between 1 and %d", maxSimRounds))
		return
	}
	seed := seedOr(req.Seed)
	sim, err := h.ob.NewSimulatorByJSON(req.GameSetting, seed)
	if err != nil {
		// 設定來自請求本身，屬於請求錯誤
		h.fail(w, r, errs.WrapWarn(err, "cfg rejected"))
		return
	}
	bet := ledger.Bet{Denomination: req.Denomination, BetMultiplier: req.BetMult, Lines: req.Lines}
	resp, err := runSim(sim, bet, req.Rounds, req.Workers)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	resp.Seed = seed
	writeJSON(w, http.StatusOK, resp)
}

func runSim(sim *orbrush.Simulator, bet ledger.Bet, rounds, workers int) (simResponse, error) {
	workers = min(clampWorkers(workers), rounds)
	if workers == 1 {
		st, used, err := sim.Sim(bet, rounds, false)
		if err != nil {
			return simResponse{}, err
		}
		return simResponse{Stats: st, UsedTime: used.Milliseconds()}, nil
	}
	// 平均分給每台機台，餘數捨去
	st, used, err := sim.SimMP(bet, rounds/workers, workers, false)
	if err != nil {
		return simResponse{}, err
	}
	return simResponse{Stats: st, UsedTime: used.Milliseconds()}, nil
}

func clampWorkers(n int) int {
	if n <= 0 {
		return 1
	}
	return min(n, maxWorkers())
}

func seedOr(seed *int64) int64 {
	if seed != nil {
		return *seed
	}
	return core.RandomSeed()
}
