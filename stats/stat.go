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
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/zintix-labs/orbrush/spec"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var lang language.Tag = language.English

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo" yaml:"lo"`
	Hi float64 `json:"Hi" yaml:"hi"`
}

// StatReport 模擬統計報告。
//
// 一個 round = 一次付費的主遊戲轉動 + 其後所有特色遊戲轉動，直到回到主遊戲。
type StatReport struct {
	Summary *SummaryReport `json:"Summary" yaml:"summary"`
	Feature *FeatureReport `json:"Feature" yaml:"feature"`
	Mult    *MultReport    `json:"Mult"    yaml:"mult"`
	Dist    *DistReport    `json:"Dist"    yaml:"dist"`
	Player  *PlayerReport  `json:"Player,omitzero" yaml:"player,omitempty"`
	isDone  bool
}

type SummaryReport struct {
	GameName      string   `json:"GameName"      yaml:"game_name"`
	GameID        spec.GID `json:"GameId"        yaml:"game_id"`
	Denomination  int64    `json:"Denomination"  yaml:"denomination"`
	BetMultiplier int      `json:"BetMultiplier" yaml:"bet_multiplier"`
	Lines         int      `json:"Lines"         yaml:"lines"`
	BetPerRound   int64    `json:"BetPerRound"   yaml:"bet_per_round"`
	TotalBet      int64    `json:"TotalBet"      yaml:"total_bet"`
	TotalWin      int64    `json:"TotalWin"      yaml:"total_win"`
	BaseWin       int64    `json:"BaseWin"       yaml:"base_win"` // 主遊戲連線 + Scatter
	FreeWin       int64    `json:"FreeWin"       yaml:"free_win"` // 免費遊戲連線 + Scatter
	HoldWin       int64    `json:"HoldWin"       yaml:"hold_win"` // Hold&Spin 結算
	RTP           float64  `json:"RTP"           yaml:"rtp"`
	RtpCI         CI       `json:"RtpCI"         yaml:"rtp_ci"`
	Std           float64  `json:"Std"           yaml:"std"`
	Cv            float64  `json:"Cv"            yaml:"cv"`
	NoWinRounds   int      `json:"NoWinRounds"   yaml:"no_win_rounds"`
	HitRate       float64  `json:"HitRate"       yaml:"hit_rate"`
	Rounds        int      `json:"Rounds"        yaml:"rounds"`
	Spins         int      `json:"Spins"         yaml:"spins"` // 含特色遊戲
}

// FeatureReport 特色遊戲觸發與彩金統計
type FeatureReport struct {
	FreeTriggers    int            `json:"FreeTriggers"    yaml:"free_triggers"`
	FreeTriggerRate float64        `json:"FreeTriggerRate" yaml:"free_trigger_rate"`
	FreeTriggerCI   CI             `json:"FreeTriggerCI"   yaml:"free_trigger_ci"`
	Retriggers      int            `json:"Retriggers"      yaml:"retriggers"`
	FreeSpins       int            `json:"FreeSpins"       yaml:"free_spins"`
	HoldTriggers    int            `json:"HoldTriggers"    yaml:"hold_triggers"`
	HoldTriggerRate float64        `json:"HoldTriggerRate" yaml:"hold_trigger_rate"`
	HoldTriggerCI   CI             `json:"HoldTriggerCI"   yaml:"hold_trigger_ci"`
	Respins         int            `json:"Respins"         yaml:"respins"`
	Grands          int            `json:"Grands"          yaml:"grands"`
	JackpotHits     map[string]int `json:"JackpotHits"     yaml:"jackpot_hits"`
}

// MultReport 贏倍（以每 round 押注為單位）統計
type MultReport struct {
	TotalWinMult      float64 `json:"TotalWinMult"      yaml:"total_win_mult"`
	BaseWinMult       float64 `json:"BaseWinMult"       yaml:"base_win_mult"`
	FeatureWinMult    float64 `json:"FeatureWinMult"    yaml:"feature_win_mult"`
	TotalWinMultSqSum float64 `json:"TotalWinMultSqSum" yaml:"total_win_mult_sq_sum"`
}

// DistReport 每 round 贏分的分桶分布
type DistReport struct {
	WinBucket       []string  `json:"WinBucket"       yaml:"win_bucket"`
	TotalWinCollect []int     `json:"TotalWinCollect" yaml:"total_win_collect"`
	BaseWinCollect  []int     `json:"BaseWinCollect"  yaml:"base_win_collect"`
	TotalWinDist    []float64 `json:"TotalWinDist"    yaml:"total_win_dist"`
	BaseWinDist     []float64 `json:"BaseWinDist"     yaml:"base_win_dist"`
}

// PlayerReport 玩家資金歷程，只有 SimPlayers 會填。
type PlayerReport struct {
	InitBalance int64 `json:"InitBalance" yaml:"init_balance"`
	Balance     int64 `json:"Balance"     yaml:"balance"`
	MaxBalance  int64 `json:"MaxBalance"  yaml:"max_balance"`
	MinBalance  int64 `json:"MinBalance"  yaml:"min_balance"`
	Bust        bool  `json:"Bust"        yaml:"bust"`
	Cashout     bool  `json:"Cashout"     yaml:"cashout"`
	Alive       bool  `json:"Alive"       yaml:"alive"`
}

// Done 由累積計數一次算出 RTP / Std / CI 等衍生值；重複呼叫無作用。
func (s *StatReport) Done() {
	if s.isDone {
		return
	}
	s.Summary.RTP = s.Rtp()
	s.Summary.RtpCI = s.Ci()
	s.Summary.Std = s.Std()
	s.Summary.Cv = s.Cv()
	if s.Summary.Rounds > 0 {
		s.Summary.HitRate = 1.0 - float64(s.Summary.NoWinRounds)/float64(s.Summary.Rounds)
	}
	if f := s.Feature; f != nil {
		f.FreeTriggerRate, f.FreeTriggerCI = proportionCICP(f.FreeTriggers, s.Summary.Rounds, 0.95)
		f.HoldTriggerRate, f.HoldTriggerCI = proportionCICP(f.HoldTriggers, s.Summary.Rounds, 0.95)
	}
	if d := s.Dist; d != nil && s.Summary.Rounds > 0 {
		d.TotalWinDist = normalize(d.TotalWinCollect, s.Summary.Rounds)
		d.BaseWinDist = normalize(d.BaseWinCollect, s.Summary.Rounds)
	}
	if s.Player != nil {
		s.Player.Alive = !(s.Player.Bust || s.Player.Cashout)
	}
	s.isDone = true
}

func normalize(c []int, n int) []float64 {
	out := make([]float64, len(c))
	for i, v := range c {
		out[i] = float64(v) / float64(n)
	}
	return out
}

// Rtp 總贏分 / 總押注
func (s *StatReport) Rtp() float64 {
	if s.Summary.TotalBet == 0 {
		return 0
	}
	return float64(s.Summary.TotalWin) / float64(s.Summary.TotalBet)
}

// Std 每 round 贏倍的樣本標準差
func (s *StatReport) Std() float64 {
	n := float64(s.Summary.Rounds)
	if n < 2 {
		return 0
	}
	sum := s.Mult.TotalWinMult
	variance := (s.Mult.TotalWinMultSqSum - sum*sum/n) / (n - 1)
	return math.Sqrt(max(variance, 0))
}

// Cv 變異係數
func (s *StatReport) Cv() float64 {
	rtp := s.Rtp()
	if rtp <= 0 {
		return 0
	}
	return s.Std() / rtp
}

// Ci RTP 的 95% 常態近似信賴區間
func (s *StatReport) Ci() CI {
	rtp := s.Rtp()
	se := 0.0
	if s.Summary.Rounds > 1 {
		se = s.Std() / math.Sqrt(float64(s.Summary.Rounds))
	}
	return CI{Lo: max(rtp-1.96*se, 0), Hi: rtp + 1.96*se}
}

func (s *StatReport) WriteWith(w io.Writer, rep StatReportRender) error {
	s.Done()
	return rep.Write(w, s)
}

// StdOut 印出耗時與摘要表
func (s *StatReport) StdOut(ut time.Duration) {
	s.Done()
	fmt.Print(formatDuration(ut, s.Summary.Spins))
	keys, msg := s.fmtBasic()
	fmt.Println(fmtTable(s.Summary.GameName, keys, msg))
}

func formatDuration(d time.Duration, spins int) string {
	p := message.NewPrinter(lang)
	d = d.Abs()
	sec := max(d.Seconds(), 1e-9)
	sps := int(float64(spins) / sec)
	switch {
	case sec < 60:
		return p.Sprintf("used: %.2f seconds\nsps : %d spins/sec\n", sec, sps)
	case d < time.Hour:
		return p.Sprintf("used: %dm %ds\nsps : %d spins/sec\n", int(d.Minutes()), int(d.Seconds())%60, sps)
	}
	return p.Sprintf("used: %dh:%dm:%ds\nsps : %d spins/sec\n", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60, sps)
}

func (s *StatReport) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	sm, f := s.Summary, s.Feature
	rows := [][2]string{
		{"Game", p.Sprintf("%s (%d)", sm.GameName, sm.GameID)},
		{"Bet", p.Sprintf("%d x %d x %d = %d", sm.Denomination, sm.BetMultiplier, sm.Lines, sm.BetPerRound)},
		{"Rounds", p.Sprintf("%d", sm.Rounds)},
		{"Spins", p.Sprintf("%d", sm.Spins)},
		{"Total RTP", p.Sprintf("%.2f %%", 100*sm.RTP)},
		{"RTP 95% CI", p.Sprintf("[%.2f%%, %.2f%%]", 100*sm.RtpCI.Lo, 100*sm.RtpCI.Hi)},
		{"Total Bet", p.Sprintf("%d", sm.TotalBet)},
		{"Total Win", p.Sprintf("%d", sm.TotalWin)},
		{"Base Win", p.Sprintf("%d", sm.BaseWin)},
		{"Free Win", p.Sprintf("%d", sm.FreeWin)},
		{"Hold Win", p.Sprintf("%d", sm.HoldWin)},
		{"Hit Rate", p.Sprintf("%.2f %%", 100*sm.HitRate)},
		{"STD", p.Sprintf("%.3f", sm.Std)},
		{"CV", p.Sprintf("%.3f", sm.Cv)},
	}
	if f != nil {
		rows = append(rows,
			[2]string{"Free Triggers", p.Sprintf("%d (1 in %s)", f.FreeTriggers, oneIn(p, f.FreeTriggerRate))},
			[2]string{"Retriggers", p.Sprintf("%d", f.Retriggers)},
			[2]string{"Hold Triggers", p.Sprintf("%d (1 in %s)", f.HoldTriggers, oneIn(p, f.HoldTriggerRate))},
			[2]string{"Grands", p.Sprintf("%d", f.Grands)},
			[2]string{"Jackpots", fmtJackpots(p, f.JackpotHits)},
		)
	}
	keys := make([]string, len(rows))
	msg := make(map[string]string, len(rows))
	for i, r := range rows {
		keys[i] = r[0]
		msg[r[0]] = r[1]
	}
	return keys, msg
}

func oneIn(p *message.Printer, rate float64) string {
	if rate <= 0 {
		return "-"
	}
	return p.Sprintf("%.0f", 1/rate)
}

func fmtJackpots(p *message.Printer, hits map[string]int) string {
	parts := make([]string, 0, 4)
	for _, t := range []string{"MINI", "MINOR", "MAJOR", "GRAND"} {
		parts = append(parts, p.Sprintf("%s %d", t, hits[t]))
	}
	return strings.Join(parts, " / ")
}

// fmtTable 以 runewidth 對齊的兩欄表格
func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	keyW, valW := 0, 0
	for _, k := range keys {
		keyW = max(keyW, runewidth.StringWidth(k))
		valW = max(valW, runewidth.StringWidth(msg[k]))
	}
	keyW += 2
	valW += 2
	inner := keyW + valW + 1
	titleW := runewidth.StringWidth(title)
	if titleW > inner {
		valW += titleW - inner
		inner = titleW
	}

	var sb strings.Builder
	divider := "+" + strings.Repeat("-", keyW) + "+" + strings.Repeat("-", valW) + "+\n"
	left := (inner - titleW) / 2
	sb.WriteString("+" + strings.Repeat("-", inner) + "+\n")
	sb.WriteString(p.Sprintf("|%s%s%s|\n", blank(left), title, blank(inner-titleW-left)))
	sb.WriteString(divider)
	for _, k := range keys {
		v := msg[k]
		sb.WriteString(p.Sprintf("| %s%s | %s%s |\n",
			k, blank(keyW-2-runewidth.StringWidth(k)),
			v, blank(valW-2-runewidth.StringWidth(v))))
	}
	sb.WriteString(divider)
	return sb.String()
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
