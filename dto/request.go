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
	"io"
	"net/http"
	"strconv"

	"github.com/zintix-labs/orbrush/errs"
	"github.com/zintix-labs/orbrush/sdk/ledger"
	"github.com/zintix-labs/orbrush/spec"
)

// 防止 body 過大
const maxBody = 1 << 20

// SpinRequest 一次轉動請求。押注欄位為 0 表示沿用 session 目前的押注；
// 特色遊戲期間押注鎖定，帶入不同的值會被拒絕。
type SpinRequest struct {
	Session      string   `json:"session"`
	GameID       spec.GID `json:"gid,omitempty"` // 可選：指定時必須與 session 的遊戲一致
	Denomination int64    `json:"denomination,omitempty"`
	BetMult      int      `json:"bet_mult,omitempty"`
	Lines        int      `json:"lines,omitempty"`
}

func (r *SpinRequest) Bet() ledger.Bet {
	return ledger.Bet{Denomination: r.Denomination, BetMultiplier: r.BetMult, Lines: r.Lines}
}

// OpenSessionRequest 開新 session；Credits 省略時使用遊戲設定的 initial_credits。
type OpenSessionRequest struct {
	GameID       spec.GID `json:"gid"`
	Credits      *int64   `json:"credits,omitempty"`
	Denomination int64    `json:"denomination,omitempty"`
	BetMult      int      `json:"bet_mult,omitempty"`
	Lines        int      `json:"lines,omitempty"`
}

func (r *OpenSessionRequest) Bet() ledger.Bet {
	return ledger.Bet{Denomination: r.Denomination, BetMultiplier: r.BetMult, Lines: r.Lines}
}

// SimRequest 線上模擬請求。Rounds 為付費的主遊戲 round 數。
type SimRequest struct {
	GameID       spec.GID `json:"gid"`
	Rounds       int      `json:"rounds"`
	Workers      int      `json:"workers,omitempty"`
	Denomination int64    `json:"denomination,omitempty"`
	BetMult      int      `json:"bet_mult,omitempty"`
	Lines        int      `json:"lines,omitempty"`
	Seed         *int64   `json:"seed,omitempty"`
}

func (r *SimRequest) Bet() ledger.Bet {
	return ledger.Bet{Denomination: r.Denomination, BetMultiplier: r.BetMult, Lines: r.Lines}
}

// ReplayRequest 以轉動前的狀態與 RNG 快照重現一次轉動。
// State 取自前一次回應（或開 session 時）的 state，RNG 取自要重現那次回應的 rng.before。
type ReplayRequest struct {
	GameID       spec.GID `json:"gid"`
	State        string   `json:"state"`
	RNG          string   `json:"rng"`
	Denomination int64    `json:"denomination,omitempty"`
	BetMult      int      `json:"bet_mult,omitempty"`
	Lines        int      `json:"lines,omitempty"`
}

func (r *ReplayRequest) Bet() ledger.Bet {
	return ledger.Bet{Denomination: r.Denomination, BetMultiplier: r.BetMult, Lines: r.Lines}
}

// DecodeSpinRequest 會把 HTTP 請求解碼成 SpinRequest。
//
// 支援：
//   - GET：從 query string 讀取 session/gid/denomination/bet_mult/lines，方便手動測試。
//   - POST：JSON body，未知欄位直接拒絕。
//
// 這裡只負責解碼與型別轉換，押注是否合法由 Machine 決定。
func DecodeSpinRequest(r *http.Request) (*SpinRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req := &SpinRequest{Session: q.Get("session")}
		if s := q.Get("gid"); s != "" {
			u, err := strconv.ParseUint(s, 10, 0)
			if err != nil {
				return nil, errs.Invalidf("invalid gid: %v", err)
			}
			req.GameID = spec.GID(u)
		}
		if s := q.Get("denomination"); s != "" {
			v, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, errs.Invalidf("invalid denomination: %v", err)
			}
			req.Denomination = v
		}
		var err error
		if req.BetMult, err = queryInt(q.Get("bet_mult"), "bet_mult"); err != nil {
			return nil, err
		}
		if req.Lines, err = queryInt(q.Get("lines"), "lines"); err != nil {
			return nil, err
		}
		return req, nil
	case http.MethodPost:
		return DecodeJSON[SpinRequest](r)
	}
	return nil, errs.Warnf("method %s not allowed", r.Method)
}

// DecodeJSON 嚴格解碼 JSON body（大小上限 1 MiB，拒絕未知欄位）。
func DecodeJSON[T any](r *http.Request) (*T, error) {
	if r == nil || r.Body == nil {
		return nil, errs.NewWarn("empty request body")
	}
	v := new(T)
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return nil, errs.Invalidf("invalid json: %v", err)
	}
	return v, nil
}

func queryInt(s string, name string) (int, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, errs.Invalidf("invalid %s: %v", name, err)
	}
	return v, nil
}
