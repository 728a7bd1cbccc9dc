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
	"slices"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// EstimatorPlayers 以多位玩家各自的報表評估玩家體驗
type EstimatorPlayers struct {
	Players     int         `json:"Players"     yaml:"players"`
	RtpStat     RtpStat     `json:"RtpStat"     yaml:"rtp_stat"`
	EventStat   EventStat   `json:"EventStat"   yaml:"event_stat"`
	SessionStat SessionStat `json:"SessionStat" yaml:"session_stat"`
}

// RtpStat 玩家 RTP 分布
type RtpStat struct {
	Mean      float64   `json:"Mean"      yaml:"mean"`
	Std       float64   `json:"Std"       yaml:"std"`
	ExpMedian PointStat `json:"ExpMedian" yaml:"exp_median"`
	ExpPerc   ExpPerc   `json:"ExpPerc"   yaml:"exp_perc"`
	RtpPerc   RtpPerc   `json:"RtpPerc"   yaml:"rtp_perc"`
}

// ExpPerc 最差 10% / 33% ... 玩家的 RTP
type ExpPerc struct {
	ExpP10 PointStat `json:"ExpP10" yaml:"p10"`
	ExpP33 PointStat `json:"ExpP33" yaml:"p33"`
	ExpP67 PointStat `json:"ExpP67" yaml:"p67"`
	ExpP90 PointStat `json:"ExpP90" yaml:"p90"`
}

// RtpPerc RTP 不超過 30% / 50% ... 的玩家比例
type RtpPerc struct {
	Rtp30  PointStat `json:"Rtp30"  yaml:"rtp30"`
	Rtp50  PointStat `json:"Rtp50"  yaml:"rtp50"`
	Rtp70  PointStat `json:"Rtp70"  yaml:"rtp70"`
	Rtp100 PointStat `json:"Rtp100" yaml:"rtp100"`
}

// PointStat 點估計與信賴區間
type PointStat struct {
	Hat float64 `json:"Hat" yaml:"hat"`
	CI  CI      `json:"CI"  yaml:"ci"`
}

// EventStat 每位玩家遇到事件的次數分布
type EventStat struct {
	FreeGames   EventCount  `json:"FreeGames"   yaml:"free_games"`
	HoldAndSpin EventCount  `json:"HoldAndSpin" yaml:"hold_and_spin"`
	Bucket      BucketEvent `json:"Bucket"      yaml:"bucket"`
}

// EventCount 0 / 1 / 2 / 3+ 次的玩家比例
type EventCount struct {
	Zero PointStat `json:"Zero" yaml:"zero"`
	One  PointStat `json:"One"  yaml:"one"`
	Two  PointStat `json:"Two"  yaml:"two"`
	More PointStat `json:"More" yaml:"more"`
}

type BucketEvent struct {
	Labels []string     `json:"Labels" yaml:"labels"`
	Counts []EventCount `json:"Counts" yaml:"counts"`
}

// SessionStat 玩家離場方式
type SessionStat struct {
	Bust    PointStat `json:"Bust"    yaml:"bust"`
	Cashout PointStat `json:"Cashout" yaml:"cashout"`
	Alive   PointStat `json:"Alive"   yaml:"alive"`
}

// EstimatorPlayerExp 彙整玩家報表：
//   - RTP：平均、標準差、分位數（含 CI），以及落在各 RTP 門檻下的玩家比例
//   - 事件：觸發免費遊戲 / Hold&Spin 的次數、各贏倍分桶命中次數
//   - 離場：破產、贏滿離場、打完仍存活
func EstimatorPlayerExp(sts []*StatReport) *EstimatorPlayers {
	n := len(sts)
	out := &EstimatorPlayers{Players: n}
	if n == 0 {
		return out
	}

	rtp := make([]float64, n)
	for i, s := range sts {
		rtp[i] = s.Rtp()
	}
	sorted := slices.Clone(rtp)
	slices.Sort(sorted)

	mean, variance := stat.MeanVariance(rtp, nil)
	if math.IsNaN(variance) {
		variance = 0
	}
	q := func(p float64) PointStat {
		lo, hi := quantileCI(sorted, p, 0.95)
		return PointStat{Hat: quantilePoint(sorted, p), CI: CI{Lo: lo, Hi: hi}}
	}
	below := func(x float64) PointStat {
		k := 0
		for _, v := range rtp {
			if v <= x {
				k++
			}
		}
		hat, ci := proportionCICP(k, n, 0.95)
		return PointStat{Hat: hat, CI: ci}
	}
	out.RtpStat = RtpStat{
		Mean:      mean,
		Std:       math.Sqrt(variance),
		ExpMedian: q(0.5),
		ExpPerc:   ExpPerc{ExpP10: q(0.10), ExpP33: q(1.0 / 3.0), ExpP67: q(2.0 / 3.0), ExpP90: q(0.90)},
		RtpPerc:   RtpPerc{Rtp30: below(0.30), Rtp50: below(0.50), Rtp70: below(0.70), Rtp100: below(1.00)},
	}

	out.EventStat.FreeGames = countEvents(sts, func(s *StatReport) int {
		if s.Feature == nil {
			return 0
		}
		return s.Feature.FreeTriggers
	})
	out.EventStat.HoldAndSpin = countEvents(sts, func(s *StatReport) int {
		if s.Feature == nil {
			return 0
		}
		return s.Feature.HoldTriggers
	})

	labels := Buckets.Labels()
	out.EventStat.Bucket = BucketEvent{Labels: labels, Counts: make([]EventCount, len(labels))}
	for bi := range labels {
		out.EventStat.Bucket.Counts[bi] = countEvents(sts, func(s *StatReport) int {
			if s.Dist != nil && bi < len(s.Dist.TotalWinCollect) {
				return s.Dist.TotalWinCollect[bi]
			}
			return 0
		})
	}

	var bust, cash, alive int
	for _, s := range sts {
		if s.Player == nil {
			continue
		}
		switch {
		case s.Player.Bust:
			bust++
		case s.Player.Cashout:
			cash++
		case s.Player.Alive:
			alive++
		}
	}
	point := func(k int) PointStat {
		hat, ci := proportionCICP(k, n, 0.95)
		return PointStat{Hat: hat, CI: ci}
	}
	out.SessionStat = SessionStat{Bust: point(bust), Cashout: point(cash), Alive: point(alive)}
	return out
}

func countEvents(sts []*StatReport, times func(*StatReport) int) EventCount {
	var c [4]int
	for _, s := range sts {
		c[min(times(s), 3)]++
	}
	n := len(sts)
	p := func(k int) PointStat {
		hat, ci := proportionCICP(k, n, 0.95)
		return PointStat{Hat: hat, CI: ci}
	}
	return EventCount{Zero: p(c[0]), One: p(c[1]), Two: p(c[2]), More: p(c[3])}
}

// proportionCICP Clopper–Pearson 二項比例精確信賴區間
func proportionCICP(k int, n int, confidence float64) (pHat float64, ci CI) {
	if n == 0 {
		return 0, CI{0, 1}
	}
	alpha := 1 - confidence
	pHat = float64(k) / float64(n)
	if k > 0 {
		ci.Lo = distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}.Quantile(alpha / 2)
	}
	ci.Hi = 1
	if k < n {
		ci.Hi = distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}.Quantile(1 - alpha/2)
	}
	return pHat, ci
}

// quantileCI 第 q 分位的 order statistic 區間；sorted 需已排序。
func quantileCI(sorted []float64, q, confidence float64) (float64, float64) {
	n := len(sorted)
	if n == 0 {
		return 0, 0
	}
	if n == 1 {
		return sorted[0], sorted[0]
	}
	alpha := 1 - confidence
	k := min(max(int(q*float64(n)), 1), n-1)
	pLo := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}.Quantile(alpha / 2)
	pHi := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}.Quantile(1 - alpha/2)
	li := min(max(int(pLo*float64(n)), 0), n-1)
	ui := min(max(int(pHi*float64(n))-1, 0), n-1)
	return sorted[li], sorted[ui]
}

// quantilePoint 最近秩法；sorted 需已排序。
func quantilePoint(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	return sorted[min(max(int(q*float64(n)), 0), n-1)]
}

// Out 以表格輸出玩家體驗評估
func (est *EstimatorPlayers) Out(w io.Writer) {
	r := est.RtpStat
	rtpKeys := []string{"Mean RTP", "Std RTP", "Median RTP", "P10 RTP", "P33 RTP", "P67 RTP", "P90 RTP",
		"<=30% RTP", "<=50% RTP", "<=70% RTP", "<=100% RTP"}
	rtpMsg := map[string]string{
		"Mean RTP":   pct(r.Mean),
		"Std RTP":    pct(r.Std),
		"Median RTP": hatCI(r.ExpMedian),
		"P10 RTP":    hatCI(r.ExpPerc.ExpP10),
		"P33 RTP":    hatCI(r.ExpPerc.ExpP33),
		"P67 RTP":    hatCI(r.ExpPerc.ExpP67),
		"P90 RTP":    hatCI(r.ExpPerc.ExpP90),
		"<=30% RTP":  hatCI(r.RtpPerc.Rtp30),
		"<=50% RTP":  hatCI(r.RtpPerc.Rtp50),
		"<=70% RTP":  hatCI(r.RtpPerc.Rtp70),
		"<=100% RTP": hatCI(r.RtpPerc.Rtp100),
	}
	fmt.Fprintln(w, fmtTable(fmt.Sprintf("Player Experience (%d players)", est.Players), rtpKeys, rtpMsg))

	evKeys := []string{"Free Games", "Hold & Spin"}
	evMsg := map[string]string{
		"Free Games":  eventCount(est.EventStat.FreeGames),
		"Hold & Spin": eventCount(est.EventStat.HoldAndSpin),
	}
	for i, l := range est.EventStat.Bucket.Labels {
		evKeys = append(evKeys, "x"+l)
		evMsg["x"+l] = eventCount(est.EventStat.Bucket.Counts[i])
	}
	fmt.Fprintln(w, fmtTable("Events per player (0 / 1 / 2 / 3+)", evKeys, evMsg))

	ss := est.SessionStat
	fmt.Fprintln(w, fmtTable("Session Outcome", []string{"Bust", "Cashout", "Alive"}, map[string]string{
		"Bust":    hatCI(ss.Bust),
		"Cashout": hatCI(ss.Cashout),
		"Alive":   hatCI(ss.Alive),
	}))
}

func pct(x float64) string { return fmt.Sprintf("%.2f%%", 100*x) }

func hatCI(p PointStat) string {
	return fmt.Sprintf("%s [%s, %s]", pct(p.Hat), pct(p.CI.Lo), pct(p.CI.Hi))
}

func eventCount(ec EventCount) string {
	return fmt.Sprintf("%s | %s | %s | %s", pct(ec.Zero.Hat), pct(ec.One.Hat), pct(ec.Two.Hat), pct(ec.More.Hat))
}
