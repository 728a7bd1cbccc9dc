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

package errs

import (
	"errors"
	"fmt"
)

// ErrLevel : Error 分級，使最上層理解問題嚴重程度
type ErrLevel uint8

const (
	None ErrLevel = iota
	Fatal
	Warn
	Log
)

var errLvMap = map[ErrLevel]string{
	None:  "",
	Fatal: "fatal",
	Warn:  "warn",
	Log:   "log",
}

func ErrLv(errlv ErrLevel) string {
	if str, ok := errLvMap[errlv]; ok {
		return str
	}
	return ""
}

// Code 為轉盤交易的錯誤分類，與 ErrLevel 正交：
// ErrLevel 描述嚴重度，Code 描述「哪一種」失敗。
type Code uint8

const (
	CodeNone Code = iota
	// CodeInsufficientCredits Base 模式下餘額不足以支付總押注。
	CodeInsufficientCredits
	// CodeInvalidConfiguration 面額/倍數/線數或遊戲設定不合法。
	CodeInvalidConfiguration
	// CodeInvariant 引擎內部不變量遭破壞（例如鎖定格被改寫）。
	CodeInvariant
	// CodeBusy 同一個 session 在前一次轉動完成前再次轉動。
	CodeBusy
	// CodeNotFound 遊戲或 session 不存在。
	CodeNotFound
)

var codeMap = map[Code]string{
	CodeNone:                 "",
	CodeInsufficientCredits:  "insufficient_credits",
	CodeInvalidConfiguration: "invalid_configuration",
	CodeInvariant:            "internal_invariant_violation",
	CodeBusy:                 "busy",
	CodeNotFound:             "not_found",
}

func (c Code) String() string { return codeMap[c] }

// 哨兵錯誤：僅用於 errors.Is 比對（比對 Code，不比對訊息）。
var (
	ErrInsufficientCredits  = &E{Message: "insufficient credits", ErrLv: Warn, Code: CodeInsufficientCredits}
	ErrInvalidConfiguration = &E{Message: "invalid configuration", ErrLv: Warn, Code: CodeInvalidConfiguration}
	ErrInvariant            = &E{Message: "internal invariant violation", ErrLv: Fatal, Code: CodeInvariant}
	ErrBusy                 = &E{Message: "spin in progress", ErrLv: Warn, Code: CodeBusy}
	ErrNotFound             = &E{Message: "not found", ErrLv: Warn, Code: CodeNotFound}
)

// E 是統一的錯誤型別。
// Message 為主訊息；Extra 為呼叫端可追加的額外上下文；
// Cause 可串接下層錯誤（wrap）；ErrLv 為嚴重度；Code 為錯誤分類。
type E struct {
	Message string
	Extra   string
	Cause   error
	ErrLv   ErrLevel
	Code    Code
}

// Error 實作 error 介面並回傳格式化後的錯誤訊息。
func (e *E) Error() string {
	base := fmt.Sprintf("errlv=%s %s", ErrLv(e.ErrLv), e.Message)
	if e.Code != CodeNone {
		base = fmt.Sprintf("errlv=%s code=%s %s", ErrLv(e.ErrLv), e.Code, e.Message)
	}
	if e.Extra != "" {
		base += " | extra: " + e.Extra
	}
	if e.Cause != nil {
		base += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return base
}

// Unwrap 讓 errors.Is / errors.As 能夠向下展開。
func (e *E) Unwrap() error { return e.Cause }

// Is 以 Code 比對，使 errors.Is(err, ErrInsufficientCredits) 對任何同 Code 的錯誤成立。
func (e *E) Is(target error) bool {
	t, ok := target.(*E)
	if !ok || t.Code == CodeNone {
		return false
	}
	return e.Code == t.Code
}

// New 依錯誤等級與訊息建立錯誤
func New(errLv ErrLevel, msg string) *E {
	return &E{Message: msg, ErrLv: errLv}
}

func NewFatal(msg string) *E {
	return &E{Message: msg, ErrLv: Fatal}
}

func NewWarn(msg string) *E {
	return &E{Message: msg, ErrLv: Warn}
}

func NewLog(msg string) *E {
	return &E{Message: msg, ErrLv: Log}
}

func Fatalf(format string, a ...any) *E {
	return NewFatal(fmt.Sprintf(format, a...))
}

func Warnf(format string, a ...any) *E {
	return NewWarn(fmt.Sprintf(format, a...))
}

func Logf(format string, a ...any) *E {
	return NewLog(fmt.Sprintf(format, a...))
}

// Insufficientf 建立餘額不足錯誤（Warn）。
func Insufficientf(format string, a ...any) *E {
	return &E{Message: fmt.Sprintf(format, a...), ErrLv: Warn, Code: CodeInsufficientCredits}
}

// Invalidf 建立設定不合法錯誤（Warn）。請求參數錯誤屬於可預期情境。
func Invalidf(format string, a ...any) *E {
	return &E{Message: fmt.Sprintf(format, a...), ErrLv: Warn, Code: CodeInvalidConfiguration}
}

// InvalidFatalf 建立設定不合法錯誤（Fatal），用於遊戲設定檔本身有誤。
func InvalidFatalf(format string, a ...any) *E {
	return &E{Message: fmt.Sprintf(format, a...), ErrLv: Fatal, Code: CodeInvalidConfiguration}
}

// Invariantf 建立不變量破壞錯誤，一律 Fatal。
func Invariantf(format string, a ...any) *E {
	return &E{Message: fmt.Sprintf(format, a...), ErrLv: Fatal, Code: CodeInvariant}
}

// NotFoundf 建立查無資源錯誤（Warn）。
func NotFoundf(format string, a ...any) *E {
	return &E{Message: fmt.Sprintf(format, a...), ErrLv: Warn, Code: CodeNotFound}
}

// Busyf 建立重入轉動錯誤（Warn）。
func Busyf(format string, a ...any) *E {
	return &E{Message: fmt.Sprintf(format, a...), ErrLv: Warn, Code: CodeBusy}
}

// NewWithExtra 與 New 相同，但可附加額外上下文字串（不影響主訊息）。
func NewWithExtra(errLv ErrLevel, msg string, extra string) *E {
	e := New(errLv, msg)
	e.Extra = extra
	return e
}

// Wrap 以訊息包裝底層錯誤，建立一個 *E。
//
// ErrLevel / Code 規則：
//   - 若 cause 已經是 *E，則沿用其 ErrLv 與 Code。
//   - 若 cause 不是本包定義的 *E（多半是標準庫或三方依賴錯誤），則 ErrLv 一律視為 Fatal。
func Wrap(cause error, msg string) *E {
	errLv, code := inherit(cause)
	r := New(errLv, msg)
	r.Code = code
	r.Cause = cause
	return r
}

// WrapWithExtra 同 Wrap，另附上下文。
func WrapWithExtra(cause error, msg string, extra string) *E {
	errLv, code := inherit(cause)
	r := NewWithExtra(errLv, msg, extra)
	r.Code = code
	r.Cause = cause
	return r
}

// WrapWarn 包裝可預期的下層錯誤（例如 context 取消），ErrLv 固定為 Warn，Cause 保留供 errors.Is 判斷。
func WrapWarn(cause error, msg string) *E {
	_, code := inherit(cause)
	r := New(Warn, msg)
	r.Code = code
	r.Cause = cause
	return r
}

func inherit(cause error) (ErrLevel, Code) {
	var e *E
	if errors.As(cause, &e) {
		return e.ErrLv, e.Code
	}
	return Fatal, CodeNone
}

func AsErr(err error) (*E, bool) {
	var e *E
	if errors.As(err, &e) {
		return e, true
	}
	return e, false
}

// CodeOf 取出錯誤鏈上第一個 *E 的 Code。
func CodeOf(err error) Code {
	if e, ok := AsErr(err); ok {
		return e.Code
	}
	return CodeNone
}
