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

// Package httperr 是 HTTP 邊界層的錯誤映射；核心 errs 不依賴 net/http。
package httperr

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zintix-labs/orbrush/errs"
)

// StatusCode 錯誤對應的狀態碼：
//   - ctx 逾時 / 取消 → 504 / 408
//   - 餘額不足 → 402，轉動中 → 409，找不到 → 404
//   - 其餘 Warn → 400，Fatal 與非 errs 錯誤 → 500
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	}
	e, ok := errs.AsErr(err)
	if !ok {
		return http.StatusInternalServerError
	}
	if e.ErrLv == errs.Fatal {
		return http.StatusInternalServerError
	}
	switch errs.CodeOf(err) {
	case errs.CodeInsufficientCredits:
		return http.StatusPaymentRequired
	case errs.CodeBusy:
		return http.StatusConflict
	case errs.CodeNotFound:
		return http.StatusNotFound
	}
	if e.ErrLv == errs.Warn {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Body 錯誤回應的 JSON 內容
type Body struct {
	Status int    `json:"status"`
	Code   string `json:"code,omitempty"`
	Error  string `json:"error"`
}

// Errs 以 JSON 寫回錯誤。5xx 不外洩內部訊息。
func Errs(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	status := StatusCode(err)
	body := Body{Status: status, Code: errs.CodeOf(err).String(), Error: err.Error()}
	if status >= 500 && status != http.StatusGatewayTimeout {
		body.Error = http.StatusText(status)
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Log 只記錄值得關注的錯誤：5xx 為 Error，408/409/429 為 Warn，其餘交給 access log。
func Log(log *slog.Logger, msg string, err error) {
	if err == nil || log == nil {
		return
	}
	switch status := StatusCode(err); {
	case status >= 500:
		log.Error(msg, slog.Int("status", status), slog.Any("err", err))
	case status == http.StatusRequestTimeout || status == http.StatusConflict || status == http.StatusTooManyRequests:
		log.Warn(msg, slog.Int("status", status), slog.Any("err", err))
	}
}
