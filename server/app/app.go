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

// Package app 管理行程的生命週期：統一啟動多個 Component，並在收到訊號或任一元件結束時依序關閉。
package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const defaultGrace = 5 * time.Second

// App 生命週期管理器
type App struct {
	comps []Component
	grace time.Duration
	log   *slog.Logger
}

func New() *App { return &App{grace: defaultGrace, log: slog.New(slog.DiscardHandler)} }

// NewWith 建立並依序註冊 Component；關閉時按註冊順序呼叫 Shutdown。
func NewWith(comps ...Component) *App {
	a := New()
	for _, c := range comps {
		a.Register(c)
	}
	return a
}

func (a *App) Register(c Component) {
	if c != nil {
		a.comps = append(a.comps, c)
	}
}

// WithLogger 關閉過程的錯誤寫到 log
func (a *App) WithLogger(log *slog.Logger) *App {
	if log != nil {
		a.log = log
	}
	return a
}

// WithGrace 設定優雅關閉的期限，<= 0 時維持預設 5 秒。
func (a *App) WithGrace(d time.Duration) *App {
	if d > 0 {
		a.grace = d
	}
	return a
}

// Run 阻塞直到收到 SIGINT/SIGTERM 或任一元件結束。
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext 同 Run，但以 ctx 取代系統訊號。
//   - ctx 結束：優雅關閉，回傳 nil。
//   - 任一元件 Run 回傳：優雅關閉，回傳該錯誤（http.ErrServerClosed 視為正常）。
func (a *App) RunContext(ctx context.Context) error {
	if len(a.comps) == 0 {
		return nil
	}
	errCh := make(chan error, len(a.comps))
	for _, c := range a.comps {
		go func(c Component) {
			errCh <- c.Run()
		}(c)
	}

	var err error
	select {
	case <-ctx.Done():
	case err = <-errCh:
	}
	a.shutdown()
	if isServerClosed(err) {
		return nil
	}
	return err
}

func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.grace)
	defer cancel()
	for _, c := range a.comps {
		if err := c.Shutdown(ctx); err != nil {
			a.log.Error("shutdown failed", slog.Any("err", err))
		}
	}
}

func isServerClosed(err error) bool {
	return err == nil || errors.Is(err, http.ErrServerClosed)
}
