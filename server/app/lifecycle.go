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

package app

import (
	"context"
	"sync"
)

// Component 任何可啟動、可關閉的長生命週期元件。
//   - Run 阻塞到元件停止為止。
//   - Shutdown 要求優雅關閉，需尊重 ctx 的期限。
type Component interface {
	Run() error
	Shutdown(ctx context.Context) error
}

// OnShutdown 把「只需要在關閉時收尾」的資源包成 Component，
// 例如 SlotRuntime 或 AsyncHandler。Run 會阻塞直到 Shutdown 被呼叫。
func OnShutdown(fn func(ctx context.Context) error) Component {
	return &hook{fn: fn, stop: make(chan struct{})}
}

type hook struct {
	fn   func(ctx context.Context) error
	stop chan struct{}
	once sync.Once
}

func (h *hook) Run() error {
	<-h.stop
	return nil
}

func (h *hook) Shutdown(ctx context.Context) error {
	var err error
	h.once.Do(func() {
		if h.fn != nil {
			err = h.fn(ctx)
		}
		close(h.stop)
	})
	return err
}
