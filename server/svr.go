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

package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/zintix-labs/orbrush/errs"
	"github.com/zintix-labs/orbrush/server/api"
	"github.com/zintix-labs/orbrush/server/app"
	"github.com/zintix-labs/orbrush/server/netsvr"
	"github.com/zintix-labs/orbrush/server/svrcfg"
)

// Run 以預設的 chi server 組裝並啟動服務，阻塞到收到 SIGINT/SIGTERM。
//
// Run 不處理檔案路徑或環境變數；設定檔來源、logger 都透過 SvrCfg 注入。
// 需要自訂路由或把 API 掛進既有服務時，直接呼叫 api.RegisterRoutes。
func Run(sCfg *svrcfg.SvrCfg) error {
	if err := sCfg.Valid(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return RunWithSvr(sCfg, netsvr.NewChiServer(sCfg.Addr))
}

// RunWithSvr 同 Run，但使用呼叫端提供的 NetSvr。
// 關閉順序：先停 HTTP，再關 SlotRuntime，最後 drain 非同步 logger。
func RunWithSvr(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) error {
	if err := sCfg.Valid(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	defer sCfg.CloseLog()
	if svr == nil {
		return errs.NewFatal("server is required")
	}
	if s, ok := svr.(*netsvr.ChiAdapter); ok && !s.Ready() {
		return errs.NewFatal("chi server is not ready")
	}

	rt, err := api.RegisterRoutes(svr, sCfg)
	if err != nil {
		sCfg.Log.Error("register routes failed", slog.Any("err", err))
		return err
	}
	a := app.NewWith(svr, app.OnShutdown(func(ctx context.Context) error {
		rt.Close()
		return nil
	})).WithLogger(sCfg.Log)

	sCfg.Log.Info("orbrush listening", slog.String("addr", svr.Address()), slog.Int("max_sessions", sCfg.MaxSessions))
	if err := a.Run(); err != nil {
		sCfg.Log.Error("app stopped", slog.Any("err", err))
		return err
	}
	sCfg.Log.Info("orbrush stopped", slog.String("reason", rt.ClosedReason()))
	return nil
}
