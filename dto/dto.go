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

package dto

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/zintix-labs/orbrush/corefmt"
	"github.com/zintix-labs/orbrush/errs"
	"github.com/zintix-labs/orbrush/sdk/engine"
	"github.com/zintix-labs/orbrush/sdk/slot"
	"github.com/zintix-labs/orbrush/spec"
)

// SpinResult 對外輸出的一次轉動結果。
//
// 所有欄位皆為值或新配置的切片，離開 Machine 後可安全保留。
type SpinResult struct {
	SpinID     string              `json:"spin_id"`
	Session    string              `json:"session"`
	GameName   string              `json:"game"`
	GameID     spec.GID            `json:"gid"`
	Grid       slot.Grid           `json:"grid"`
	Values     slot.CellValues     `json:"values"`
	Wins       []slot.WinLine      `json:"wins"`
	TotalBet   int64               `json:"total_bet"`
	Debit      int64               `json:"debit"`
	LineWin    int64               `json:"line_win"`
	FeatureWin int64               `json:"feature_win"`
	TotalWin   int64               `json:"total_win"`
	FeatureAcc int64               `json:"feature_acc"` // 目前特色遊戲累積贏分
	Credits    int64               `json:"credits"`
	PrevMode   slot.Mode           `json:"prev_mode"`
	Mode       slot.Mode           `json:"mode"`
	Event      slot.FeatureEvent   `json:"event"`
	Respins    int                 `json:"respins_remaining"`
	Locked     slot.Locks          `json:"locked"`
	NewOrbs    int                 `json:"new_orbs"`
	Grand      bool                `json:"grand"`
	FreeGames  slot.FreeGamesState `json:"free_games"`
	Retrigger  bool                `json:"retrigger"`
	Jackpots   slot.JackpotPool    `json:"jackpots"`
	Spins      uint64              `json:"spins"`
	RNG        RNGState            `json:"rng"`
	State      string              `json:"state"` // 轉動後狀態 blob，可用於續玩或回放
}

// RNGState 轉動前後的 PRNG 快照（Base64URL）。
type RNGState struct {
	Before string `json:"before"`
	After  string `json:"after"`
}

// NewSpinResult 由引擎結果組出對外結構。
func NewSpinResult(session string, gs *spec.GameSetting, out *engine.Outcome, before, after []byte) (SpinResult, error) {
	if out == nil || gs == nil {
		return SpinResult{}, errs.NewWarn("spin outcome is nil")
	}
	blob, err := EncodeState(out.State)
	if err != nil {
		return SpinResult{}, err
	}
	st := &out.State
	wins := out.Wins
	if wins == nil {
		wins = []slot.WinLine{}
	}
	return SpinResult{
		SpinID:     uuid.NewString(),
		Session:    session,
		GameName:   gs.GameName,
		GameID:     gs.GameID,
		Grid:       out.Grid,
		Values:     out.Values,
		Wins:       wins,
		TotalBet:   out.TotalBet,
		Debit:      out.Debit,
		LineWin:    out.LineWin,
		FeatureWin: out.FeatureWin,
		TotalWin:   out.TotalWin,
		FeatureAcc: st.Ledger.FeatureWin,
		Credits:    st.Ledger.Credits,
		PrevMode:   out.PrevMode,
		Mode:       out.Mode,
		Event:      out.Event,
		Respins:    st.HoldAndSpin.RespinsRemaining,
		Locked:     st.HoldAndSpin.Locked,
		NewOrbs:    out.NewOrbs,
		Grand:      out.Grand,
		FreeGames:  st.FreeGames,
		Retrigger:  out.Retrigger,
		Jackpots:   st.Jackpots,
		Spins:      st.Spins,
		RNG: RNGState{
			Before: corefmt.EncodeBase64URL(before),
			After:  corefmt.EncodeBase64URL(after),
		},
		State: blob,
	}, nil
}

// SessionView session 的目前狀態。
type SessionView struct {
	Session  string              `json:"session"`
	GameName string              `json:"game"`
	GameID   spec.GID            `json:"gid"`
	Mode     slot.Mode           `json:"mode"`
	Ledger   slot.Ledger         `json:"ledger"`
	TotalBet int64               `json:"total_bet"`
	Respins  int                 `json:"respins_remaining"`
	Free     slot.FreeGamesState `json:"free_games"`
	Jackpots slot.JackpotPool    `json:"jackpots"`
	Spins    uint64              `json:"spins"`
	State    string              `json:"state"`
}

func NewSessionView(session string, gs *spec.GameSetting, st slot.State) (SessionView, error) {
	blob, err := EncodeState(st)
	if err != nil {
		return SessionView{}, err
	}
	return SessionView{
		Session:  session,
		GameName: gs.GameName,
		GameID:   gs.GameID,
		Mode:     st.Mode,
		Ledger:   st.Ledger,
		TotalBet: st.Ledger.TotalBet(),
		Respins:  st.HoldAndSpin.RespinsRemaining,
		Free:     st.FreeGames,
		Jackpots: st.Jackpots,
		Spins:    st.Spins,
		State:    blob,
	}, nil
}

// EncodeState State → JSON → zstd → Base64URL
func EncodeState(st slot.State) (string, error) {
	raw, err := json.Marshal(st)
	if err != nil {
		return "", errs.Wrap(err, "encode state failed")
	}
	return corefmt.EncodeBlob(raw), nil
}

// DecodeState EncodeState 的反向操作；解出的狀態必須自洽。
func DecodeState(s string) (slot.State, error) {
	var st slot.State
	if s == "" {
		return st, errs.Invalidf("empty state")
	}
	raw, err := corefmt.DecodeBlob(s)
	if err != nil {
		return st, err
	}
	if err := json.Unmarshal(raw, &st); err != nil {
		if _, ok := errs.AsErr(err); ok {
			// 盤面尺寸不符
			return st, errs.Wrap(err, "decode state failed")
		}
		return st, errs.Invalidf("decode state failed: %v", err)
	}
	if err := st.Validate(); err != nil {
		return st, err
	}
	return st, nil
}
