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

package netsvr

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

// DefaultAddr 預設監聽位址
const DefaultAddr string = ":5808"

// ChiAdapter 以 chi 實作 NetSvr。
type ChiAdapter struct {
	router chi.Router
	server *http.Server
	addr   string
}

// NewChiServer addr 為空時使用 DefaultAddr。
func NewChiServer(addr string) *ChiAdapter {
	if addr == "" {
		addr = DefaultAddr
	}
	cr := chi.NewRouter()
	return &ChiAdapter{
		router: cr,
		server: &http.Server{
			Addr:              addr,
			Handler:           cr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			// 線上模擬可能跑數秒
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		addr: addr,
	}
}

func NewChiServerDefault() *ChiAdapter {
	return NewChiServer(DefaultAddr)
}

// URLParam 取出路由參數，例如 /v1/sessions/{id} 的 id。
func URLParam(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

func (c *ChiAdapter) Ready() bool {
	return c != nil && c.router != nil && c.server != nil &&
		strings.Contains(c.addr, ":") && c.server.Handler == c.router
}

func (c *ChiAdapter) Run() error {
	return c.server.ListenAndServe()
}

func (c *ChiAdapter) Shutdown(ctx context.Context) error {
	return c.server.Shutdown(ctx)
}

func (c *ChiAdapter) Address() string {
	return c.addr
}

// Handler 根路由；httptest 直接拿來用。
func (c *ChiAdapter) Handler() http.Handler {
	return c.router
}

func (c *ChiAdapter) Use(mw func(http.Handler) http.Handler) { c.router.Use(mw) }

func (c *ChiAdapter) Get(path string, h http.HandlerFunc) { c.router.Get(path, h) }

func (c *ChiAdapter) Post(path string, h http.HandlerFunc) { c.router.Post(path, h) }

func (c *ChiAdapter) Put(path string, h http.HandlerFunc) { c.router.Put(path, h) }

func (c *ChiAdapter) Delete(path string, h http.HandlerFunc) { c.router.Delete(path, h) }

// Group 子路由只拿到 NetRouter，無法控制 server。
func (c *ChiAdapter) Group(path string, fn func(NetRouter)) {
	c.router.Route(path, func(r chi.Router) {
		fn(&chiGroup{router: r})
	})
}

type chiGroup struct {
	router chi.Router
}

func (g *chiGroup) Use(mw func(http.Handler) http.Handler) { g.router.Use(mw) }

func (g *chiGroup) Get(path string, h http.HandlerFunc) { g.router.Get(path, h) }

func (g *chiGroup) Post(path string, h http.HandlerFunc) { g.router.Post(path, h) }

func (g *chiGroup) Put(path string, h http.HandlerFunc) { g.router.Put(path, h) }

func (g *chiGroup) Delete(path string, h http.HandlerFunc) { g.router.Delete(path, h) }

func (g *chiGroup) Group(path string, fn func(NetRouter)) {
	g.router.Route(path, func(r chi.Router) {
		fn(&chiGroup{router: r})
	})
}
