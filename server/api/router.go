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

package api

import (
	"github.com/zintix-labs/orbrush"
	v1 "github.com/zintix-labs/orbrush/server/api/v1"
	"github.com/zintix-labs/orbrush/server/netsvr"
	"github.com/zintix-labs/orbrush/server/netsvr/middleware"
	"github.com/zintix-labs/orbrush/server/svrcfg"
)

// RegisterRoutes 建立 SlotRuntime 並掛上 middleware 與所有路由。
// 回傳的 runtime 由呼叫端在關閉時 Close。
func RegisterRoutes(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg) (*orbrush.SlotRuntime, error) {
	rt, err := sCfg.Orbrush.BuildRuntime(sCfg.MaxSessions, sCfg.Log)
	if err != nil {
		return nil, err
	}
	h, err := v1.New(sCfg.Orbrush, rt, sCfg.Log)
	if err != nil {
		rt.Close()
		return nil, err
	}
	registerMiddleware(svr, sCfg)
	svr.Get("/", h.Index)
	registerV1(svr, h)
	return rt, nil
}

// 順序：RequestID → AccessLog → Recover → CORS → Compression
func registerMiddleware(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg) {
	svr.Use(middleware.RequestID)
	svr.Use(middleware.AccessLog(sCfg.Log))
	svr.Use(middleware.Recover(sCfg.Log))
	svr.Use(middleware.CORS(sCfg.CORS))
	svr.Use(middleware.Compression)
}

func registerV1(svr netsvr.NetRouter, h *v1.Handler) {
	svr.Group("/v1", func(r netsvr.NetRouter) {
		r.Get("/games", h.Games)
		r.Get("/metrics", h.Metrics)

		r.Post("/sessions", h.OpenSession)
		r.Get("/sessions/{id}", h.GetSession)
		r.Delete("/sessions/{id}", h.CloseSession)

		r.Get("/spin", h.Spin)
		r.Post("/spin", h.Spin)
		r.Post("/replay", h.Replay)

		r.Post("/sim", h.Sim)
		r.Post("/simplayer", h.SimPlayers)
		r.Post("/simbycfg", h.SimByCfg)
	})
}
