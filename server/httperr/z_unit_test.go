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

package httperr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zintix-labs/orbrush/errs"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{errs.Insufficientf("credits 10 < bet 25"), http.StatusPaymentRequired},
		{errs.Wrap(errs.Insufficientf("x"), "spin"), http.StatusPaymentRequired},
		{errs.Busyf("spin in progress"), http.StatusConflict},
		{errs.NotFoundf("session"), http.StatusNotFound},
		{errs.Invalidf("lines 30"), http.StatusBadRequest},
		{errs.NewWarn("bad json"), http.StatusBadRequest},
		{errs.Invariantf("locked cell changed"), http.StatusInternalServerError},
		{errs.InvalidFatalf("broken config"), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
		{errs.WrapWarn(context.Canceled, "spin canceled"), http.StatusRequestTimeout},
		{errs.WrapWarn(context.DeadlineExceeded, "spin timeout"), http.StatusGatewayTimeout},
	}
	for _, c := range cases {
		if got := StatusCode(c.err); got != c.want {
			t.Fatalf("StatusCode(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestErrsWritesJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	Errs(rec, errs.Insufficientf("credits 10 < bet 25"))
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("code = %d", rec.Code)
	}
	var b Body
	if err := json.NewDecoder(rec.Body).Decode(&b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.Code != errs.CodeInsufficientCredits.String() || b.Status != http.StatusPaymentRequired {
		t.Fatalf("body = %+v", b)
	}

	rec = httptest.NewRecorder()
	Errs(rec, errs.Invariantf("secret detail"))
	_ = json.NewDecoder(rec.Body).Decode(&b)
	if b.Error != http.StatusText(http.StatusInternalServerError) {
		t.Fatalf("5xx leaked message: %q", b.Error)
	}
}
