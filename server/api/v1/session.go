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

	"github.com/zintix-labs/orbrush/dto"
	"github.com/zintix-labs/orbrush/server/netsvr"
)

// OpenSession POST /v1/sessions
func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeJSON[dto.OpenSessionRequest](r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	view, err := h.rt.OpenSession(req.GameID, req.Credits, req.Bet())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// GetSession GET /v1/sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.rt.Session(netsvr.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// CloseSession DELETE /v1/sessions/{id}，回傳結束時的狀態
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.rt.CloseSession(netsvr.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
