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
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zintix-labs/orbrush/corefmt"
	"github.com/zintix-labs/orbrush/errs"
	"github.com/zintix-labs/orbrush/games/configs"
	"github.com/zintix-labs/orbrush/sdk/core"
	"github.com/zintix-labs/orbrush/sdk/engine"
	"github.com/zintix-labs/orbrush/sdk/ledger"
	"github.com/zintix-labs/orbrush/sdk/slot"
	"github.com/zintix-labs/orbrush/spec"
)

func TestDecodeSpinRequestGET(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/spin?session=s1&gid=7&denomination=10&bet_mult=2&lines=5", nil)
	req, err := DecodeSpinRequest(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Session != "s1" || req.GameID != 7 {
		t.Fatalf("unexpected request: %+v", req)
	}
	want := ledger.Bet{Denomination: 10, BetMultiplier: 2, Lines: 5}
	if req.Bet() != want {
		t.Fatalf("unexpected bet: %+v", req.Bet())
	}
}

func TestDecodeSpinRequestGETBadNumber(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/spin?session=s1&lines=abc", nil)
	if _, err := DecodeSpinRequest(r); !errors.Is(err, errs.ErrInvalidConfiguration) {
		t.Fatalf("expected invalid configuration, got %v", err)
	}
}

func TestDecodeSpinRequestPOST(t *testing.T) {
	payload := map[string]any{"session": "s2", "denomination": 1, "bet_mult": 3}
	data, _ := json.Marshal(payload)
	r := httptest.NewRequest(http.MethodPost, "/spin", bytes.NewReader(data))
	req, err := DecodeSpinRequest(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Session != "s2" || req.Denomination != 1 || req.BetMult != 3 || req.Lines != 0 {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestDecodeSpinRequestRejectsUnknownFields(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/spin", strings.NewReader(`{"session":"s","bet_mode":1}`))
	if _, err := DecodeSpinRequest(r); err == nil {
		t.Fatalf("expected error for unknown field")
	}
	r = httptest.NewRequest(http.MethodPut, "/spin", nil)
	if _, err := DecodeSpinRequest(r); err == nil {
		t.Fatalf("expected method error")
	}
}

func TestDecodeJSONOpenSession(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/v1/sessions", strings.NewReader(`{"gid":1,"credits":500}`))
	req, err := DecodeJSON[OpenSessionRequest](r)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if req.GameID != 1 || req.Credits == nil || *req.Credits != 500 {
		t.Fatalf("unexpected request %+v", req)
	}
	if req.Bet() != (ledger.Bet{}) {
		t.Fatalf("omitted bet must be zero")
	}
}

func spinOnce(t *testing.T) (*spec.GameSetting, slot.State, *engine.Outcome, []byte, []byte) {
	t.Helper()
	raw, err := fs.ReadFile(configs.FS, configs.Reference)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	gs, err := spec.GetGameSettingByYAML(raw)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	e, err := engine.New(gs)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	c := core.New(core.Default().New(11))
	before, _ := c.Snapshot()
	prev := e.NewState(-1)
	out, err := e.Spin(c, prev, ledger.Bet{})
	if err != nil {
		t.Fatalf("spin: %v", err)
	}
	after, _ := c.Snapshot()
	return gs, prev, &out, before, after
}

func TestNewSpinResult(t *testing.T) {
	gs, prev, out, before, after := spinOnce(t)
	res, err := NewSpinResult("sess", gs, out, before, after)
	if err != nil {
		t.Fatalf("new spin result: %v", err)
	}
	if res.SpinID == "" || res.Session != "sess" || res.GameID != gs.GameID {
		t.Fatalf("unexpected header %+v", res)
	}
	if res.Credits != prev.Ledger.Credits-res.Debit+res.TotalWin {
		t.Fatalf("credits %d do not match debit %d win %d", res.Credits, res.Debit, res.TotalWin)
	}
	if res.Wins == nil {
		t.Fatalf("wins must encode as an empty list")
	}
	if res.RNG.Before == res.RNG.After {
		t.Fatalf("rng snapshot did not advance")
	}

	data, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["mode"] != "base" {
		t.Fatalf("mode encoded as %v", m["mode"])
	}
	if ev, ok := m["event"].(map[string]any); !ok || ev["type"] == nil {
		t.Fatalf("event encoded as %v", m["event"])
	}
}

func TestStateBlobRoundTrip(t *testing.T) {
	_, _, out, _, _ := spinOnce(t)
	blob, err := EncodeState(out.State)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeState(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Mode != out.State.Mode || got.Grid != out.State.Grid || got.Values != out.State.Values ||
		got.Ledger != out.State.Ledger || got.Spins != out.State.Spins {
		t.Fatalf("state changed through blob")
	}
	if !got.Jackpots.Grand.Equal(out.State.Jackpots.Grand) {
		t.Fatalf("jackpot pool changed through blob")
	}
}

func TestDecodeStateRejectsCorruptState(t *testing.T) {
	_, _, out, _, _ := spinOnce(t)
	bad := out.State
	bad.Ledger.Credits = -1
	blob, err := EncodeState(bad)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeState(blob); !errors.Is(err, errs.ErrInvariant) {
		t.Fatalf("expected invariant error, got %v", err)
	}
	if _, err := DecodeState(""); !errors.Is(err, errs.ErrInvalidConfiguration) {
		t.Fatalf("expected invalid for empty blob, got %v", err)
	}
}

func TestDecodeStateRejectsNon5x3Matrices(t *testing.T) {
	_, _, out, _, _ := spinOnce(t)
	raw, err := json.Marshal(out.State)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	cases := map[string]func(m map[string]any){
		"short grid":   func(m map[string]any) { m["grid"] = [][]string{{"A", "K"}, {"Q"}} },
		"ragged grid":  func(m map[string]any) { m["grid"].([]any)[4] = []string{"A", "K"} },
		"four columns": func(m map[string]any) { m["values"] = m["values"].([]any)[:4] },
		"short locked": func(m map[string]any) {
			m["hold_and_spin"].(map[string]any)["locked"] = [][]bool{{false, false, false}}
		},
	}
	for name, mutate := range cases {
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		mutate(m)
		b, err := json.Marshal(m)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if _, err := DecodeState(corefmt.EncodeBlob(b)); !errors.Is(err, errs.ErrInvariant) {
			t.Fatalf("%s: expected invariant error, got %v", name, err)
		}
	}
	// 原樣回寫仍可解開
	if _, err := DecodeState(corefmt.EncodeBlob(raw)); err != nil {
		t.Fatalf("untouched state: %v", err)
	}
}

func TestNewSessionView(t *testing.T) {
	gs, prev, _, _, _ := spinOnce(t)
	v, err := NewSessionView("sess", gs, prev)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if v.TotalBet != prev.Ledger.TotalBet() || v.Mode != slot.ModeBase || v.State == "" {
		t.Fatalf("unexpected view %+v", v)
	}
}
