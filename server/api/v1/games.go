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
	"net/http"

	"github.com/zintix-labs/orbrush/spec"
)

// Index GET / 上線遊戲清單（gid、名稱、面額、倍數）
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	type game struct {
		GID            spec.GID            `json:"gid"`
		Name           string              `json:"name"`
		Denominations  []spec.Denomination `json:"denominations"`
		BetMultipliers []int               `json:"bet_multipliers"`
	}
	sum, err := h.rt.Games()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]game, 0, len(sum))
	for _, s := range sum {
		out = append(out, game{GID: s.GID, Name: s.Name, Denominations: s.Denominations, BetMultipliers: s.BetMultipliers})
	}
	writeJSON(w, http.StatusOK, map[string]any{"service": "orbrush", "games": out})
}

// Games GET /v1/games 完整的遊戲摘要（含預設押注、初始餘額、彩金種子）
func (h *Handler) Games(w http.ResponseWriter, r *http.Request) {
	sum, err := h.rt.Games()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// Metrics GET /v1/metrics 各遊戲 session 池的觀測快照
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.rt.Metrics())
}
