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

package slot

import (
	"encoding/json"
	"fmt"

	"github.com/zintix-labs/orbrush/errs"
	"github.com/zintix-labs/orbrush/spec"
)

// EventType FeatureEvent 的判別標籤。
type EventType uint8

const (
	EventNone EventType = iota
	EventStart
	EventSummary
)

var eventTypeNames = []string{"none", "start", "summary"}

func (t EventType) String() string { return enumString(eventTypeNames, t) }

// FeatureEvent 封閉的三態聯集：None | Start(kind) | Summary(amount)。
// 欄位不公開，只能透過 NoEvent / StartEvent / SummaryEvent 建立。
type FeatureEvent struct {
	typ    EventType
	kind   FeatureKind
	amount int64
}

func NoEvent() FeatureEvent { return FeatureEvent{} }

func StartEvent(kind FeatureKind) FeatureEvent {
	return FeatureEvent{typ: EventStart, kind: kind}
}

func SummaryEvent(amount int64) FeatureEvent {
	return FeatureEvent{typ: EventSummary, amount: amount}
}

func (e FeatureEvent) Type() EventType { return e.typ }

func (e FeatureEvent) IsNone() bool { return e.typ == EventNone }

// Start 若為 Start 事件回傳其種類。
func (e FeatureEvent) Start() (FeatureKind, bool) {
	return e.kind, e.typ == EventStart
}

// Summary 若為 Summary 事件回傳累積的特色遊戲贏分。
func (e FeatureEvent) Summary() (int64, bool) {
	return e.amount, e.typ == EventSummary
}

func (e FeatureEvent) String() string {
	switch e.typ {
	case EventStart:
		return fmt.Sprintf("start(%s)", e.kind)
	case EventSummary:
		return fmt.Sprintf("summary(%d)", e.amount)
	}
	return "none"
}

type featureEventJSON struct {
	Type   string      `json:"type"`
	Kind   FeatureKind `json:"kind,omitempty"`
	Amount int64       `json:"amount,omitempty"`
}

func (e FeatureEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(featureEventJSON{Type: e.typ.String(), Kind: e.kind, Amount: e.amount})
}

func (e *FeatureEvent) UnmarshalJSON(b []byte) error {
	var raw featureEventJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch raw.Type {
	case "none", "":
		*e = NoEvent()
	case "start":
		if raw.Kind == FeatureNone {
			return errs.Invalidf("start event requires kind")
		}
		*e = StartEvent(raw.Kind)
	case "summary":
		*e = SummaryEvent(raw.Amount)
	default:
		return errs.Invalidf("unknown feature event %q", raw.Type)
	}
	return nil
}

// WinLine 一筆中獎。Line 為 -1 代表 Scatter。建立後不再修改。
type WinLine struct {
	Line   int         `json:"line"`
	Symbol spec.Symbol `json:"symbol"`
	Count  int         `json:"count"`
	Amount int64       `json:"amount"`
	Cells  []Cell      `json:"cells"`
}

// ScatterLine Scatter 中獎的 Line 值
const ScatterLine = -1
