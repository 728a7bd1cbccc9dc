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

package perf

import (
	"errors"
	"os"
	"testing"
)

func burn() error {
	x := 0
	for i := 0; i < 1_000_000; i++ {
		x += i % 7
	}
	_ = make([]byte, x%1024+1)
	return nil
}

func TestRunWritesProfiles(t *testing.T) {
	dir := t.TempDir()
	for _, m := range []Mode{ModeCPU, ModeHeap, ModeAllocs} {
		path, err := Run(dir, m, burn)
		if err != nil {
			t.Fatalf("%s: %v", m, err)
		}
		fi, err := os.Stat(path)
		if err != nil || fi.Size() == 0 {
			t.Fatalf("%s: profile missing or empty: %v", m, err)
		}
	}
}

func TestRunPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	if _, err := Run(t.TempDir(), ModeHeap, func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if path, err := Run("", ModeNone, func() error { return nil }); err != nil || path != "" {
		t.Fatalf("none mode: %q %v", path, err)
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("cpu"); err != nil || m != ModeCPU {
		t.Fatalf("cpu: %v %v", m, err)
	}
	if _, err := ParseMode("block"); err == nil {
		t.Fatalf("expected error")
	}
}
