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

package svrcfg

import (
	"log/slog"

	"github.com/zintix-labs/orbrush"
	"github.com/zintix-labs/orbrush/errs"
	"github.com/zintix-labs/orbrush/server/logger"
	"github.com/zintix-labs/orbrush/server/netsvr"
)

// 每款遊戲同時存在的 session 上限範圍
const (
	DefaultMaxSessions = 1024
	LimitMaxSessions   = 1 << 20
)

// SvrCfg HTTP 服務的組裝參數；所有依賴都由呼叫端明確注入。
type SvrCfg struct {
	Addr        string           // 監聽位址，空字串用 netsvr.DefaultAddr
	Log         *slog.Logger     // nil 時建立 ModeDev 的非同步 logger
	MaxSessions int              // 每款遊戲的 session 上限
	CORS        []string         // 允許的來源，空表示任意來源
	Orbrush     *orbrush.Orbrush // 必填

	async *logger.AsyncHandler
}

// Valid 補齊預設值並檢查必要依賴。
func (sc *SvrCfg) Valid() error {
	if sc == nil {
		return errs.NewFatal("nil server config")
	}
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errs.NewFatal("async log handler is not ready")
		}
	} else {
		sc.Log, sc.async = logger.NewAsync(1024, logger.ModeDev)
	}
	if sc.Addr == "" {
		sc.Addr = netsvr.DefaultAddr
	}
	if sc.MaxSessions <= 0 {
		sc.MaxSessions = DefaultMaxSessions
	}
	sc.MaxSessions = min(LimitMaxSessions, sc.MaxSessions)
	if sc.Orbrush == nil {
		return errs.NewFatal("orbrush is required")
	}
	return nil
}

// CloseLog 關閉 Valid 自行建立的非同步 logger；外部注入的 logger 由呼叫端負責。
func (sc *SvrCfg) CloseLog() {
	if sc.async != nil {
		sc.async.Close()
	}
}
