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
	"context"
	"net/http"

	"github.com/zintix-labs/orbrush/dto"
)

// Spin GET|POST /v1/spin
func (h *Handler) Spin(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeSpinRequest(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), spinTimeout)
	defer cancel()

	res, err := h.rt.Spin(ctx, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Replay POST /v1/replay 以 state blob 與 rng.before 重現一次轉動，不影響任何 session
func (h *Handler) Replay(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeJSON[dto.ReplayRequest](r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.rt.Replay(req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
