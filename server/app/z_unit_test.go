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
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type stubComp struct {
	runErr   error
	block    chan struct{}
	shutdown atomic.Int32
}

func (s *stubComp) Run() error {
	if s.block != nil {
		<-s.block
	}
	return s.runErr
}

func (s *stubComp) Shutdown(ctx context.Context) error {
	if s.shutdown.Add(1) == 1 && s.block != nil {
		close(s.block)
	}
	return nil
}

func TestRunContextShutsDownOnCancel(t *testing.T) {
	c := &stubComp{block: make(chan struct{})}
	closed := atomic.Bool{}
	h := OnShutdown(func(ctx context.Context) error {
		closed.Store(true)
		return nil
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := NewWith(c, h).RunContext(ctx); err != nil {
		t.Fatalf("RunContext err: %v", err)
	}
	if c.shutdown.Load() != 1 {
		t.Fatalf("shutdown called %d times", c.shutdown.Load())
	}
	if !closed.Load() {
		t.Fatalf("hook not called")
	}
}

func TestRunContextReturnsComponentError(t *testing.T) {
	boom := errors.New("listen failed")
	c := &stubComp{runErr: boom}
	h := OnShutdown(nil)
	err := NewWith(c, h).WithGrace(time.Second).RunContext(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestOnShutdownIsIdempotent(t *testing.T) {
	n := 0
	h := OnShutdown(func(ctx context.Context) error {
		n++
		return nil
	})
	done := make(chan struct{})
	go func() {
		_ = h.Run()
		close(done)
	}()
	_ = h.Shutdown(context.Background())
	_ = h.Shutdown(context.Background())
	<-done
	if n != 1 {
		t.Fatalf("hook called %d times", n)
	}
}
