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

// Package v1 是 /v1 底下的 HTTP handler。handler 只做解碼、驗證與輸出，賠付邏輯全在引擎。
package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/zintix-labs/orbrush"
	"github.com/zintix-labs/orbrush/errs"
	"github.com/zintix-labs/orbrush/server/httperr"
)

// spinTimeout 單次轉動（含排隊）的時限
const spinTimeout = 5 * time.Second

// Handler 所有 v1 路由共用的依賴
type Handler struct {
	ob  *orbrush.Orbrush
	rt  *orbrush.SlotRuntime
	log *slog.Logger
}

func New(ob *orbrush.Orbrush, rt *orbrush.SlotRuntime, log *slog.Logger) (*Handler, error) {
	if ob == nil || rt == nil {
		return nil, errs.NewFatal("orbrush and runtime are required")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Handler{ob: ob, rt: rt, log: log}, nil
}

// fail 寫回錯誤並記錄值得關注的狀態碼
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	httperr.Log(h.log.With(slog.String("path", r.URL.Path)), "request failed", err)
	httperr.Errs(w, err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
