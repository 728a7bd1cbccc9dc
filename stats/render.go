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

package stats

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/zintix-labs/orbrush/errs"
	"gopkg.in/yaml.v3"
)

// StatReportRender 定義輸出行為
type StatReportRender interface {
	Write(w io.Writer, r *StatReport) error
}

// RenderByName 依副檔名或格式名稱挑選渲染器（json / yaml / yml / txt）。
func RenderByName(name string) (StatReportRender, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "json":
		return &JsonStatReportRender{}, nil
	case "yaml", "yml":
		return &YAMLStatReportRender{}, nil
	case "", "txt", "text":
		return &TextStatReportRender{}, nil
	}
	return nil, errs.Warnf("unknown report format %q", name)
}

// Json渲染
type JsonStatReportRender struct{}

func (jr *JsonStatReportRender) Write(w io.Writer, r *StatReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// YAML渲染
type YAMLStatReportRender struct{}

func (yr *YAMLStatReportRender) Write(w io.Writer, r *StatReport) error {
	return forceReadableList(w, r)
}

// 表格渲染
type TextStatReportRender struct{}

func (tr *TextStatReportRender) Write(w io.Writer, r *StatReport) error {
	keys, msg := r.fmtBasic()
	_, err := io.WriteString(w, fmtTable(r.Summary.GameName, keys, msg))
	return err
}

// EstimatorRender 玩家體驗估計的輸出行為
type EstimatorRender interface {
	Write(w io.Writer, e *EstimatorPlayers) error
}

// EstimatorRenderByName 同 RenderByName，對象是玩家體驗估計。
func EstimatorRenderByName(name string) (EstimatorRender, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "json":
		return &JsonEstimatorRender{}, nil
	case "yaml", "yml":
		return &YAMLEstimatorRender{}, nil
	case "", "txt", "text":
		return &TextEstimatorRender{}, nil
	}
	return nil, errs.Warnf("unknown report format %q", name)
}

type JsonEstimatorRender struct{}

func (jr *JsonEstimatorRender) Write(w io.Writer, e *EstimatorPlayers) error {
	return json.NewEncoder(w).Encode(e)
}

type YAMLEstimatorRender struct{}

func (yr *YAMLEstimatorRender) Write(w io.Writer, e *EstimatorPlayers) error {
	return forceReadableList(w, e)
}

type TextEstimatorRender struct{}

func (tr *TextEstimatorRender) Write(w io.Writer, e *EstimatorPlayers) error {
	e.Out(w)
	return nil
}

// forceReadableList 最內層的一維陣列輸出成 [a, b, c]，外層維度維持展開。
func forceReadableList[T any](w io.Writer, t *T) error {
	var node yaml.Node
	if err := node.Encode(t); err != nil {
		return err
	}
	flowInnermost(&node)
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(&node)
}

func flowInnermost(n *yaml.Node) {
	if n == nil {
		return
	}
	nested := false
	for _, c := range n.Content {
		if c != nil && c.Kind == yaml.SequenceNode {
			nested = true
		}
		flowInnermost(c)
	}
	if n.Kind == yaml.SequenceNode && !nested {
		n.Style = yaml.FlowStyle
	}
}
