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

package stats_test

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/zintix-labs/orbrush/stats"
)

// buildStatReport 以每 round 贏分建立報表，全部視為主遊戲贏分。
func buildStatReport(bet int64, wins []int64) *stats.StatReport {
	L := stats.Buckets.Len()
	bucket := stats.Buckets.ForBet(bet)
	twc := make([]int, L)

	var totalWin int64
	var sq float64
	noWin := 0
	for _, w := range wins {
		twc[bucket.Index(w)]++
		totalWin += w
		m := float64(w) / float64(bet)
		sq += m * m
		if w == 0 {
			noWin++
		}
	}
	report := &stats.StatReport{
		Summary: &stats.SummaryReport{
			GameName:    "TestGame",
			BetPerRound: bet,
			TotalBet:    bet * int64(len(wins)),
			TotalWin:    totalWin,
			BaseWin:     totalWin,
			NoWinRounds: noWin,
			Rounds:      len(wins),
			Spins:       len(wins),
		},
		Feature: &stats.FeatureReport{JackpotHits: map[string]int{}},
		Mult: &stats.MultReport{
			TotalWinMult:      float64(totalWin) / float64(bet),
			TotalWinMultSqSum: sq,
		},
		Dist: &stats.DistReport{
			WinBucket:       stats.Buckets.Labels(),
			TotalWinCollect: twc,
			BaseWinCollect:  twc,
		},
		Player: &stats.PlayerReport{},
	}
	report.Done()
	return report
}

func TestStatReportCoreMetrics(t *testing.T) {
	var bet int64 = 25
	rep := buildStatReport(bet, []int64{bet, 2 * bet})

	wantRTP := 1.5
	if got := rep.Rtp(); math.Abs(got-wantRTP) > 1e-12 {
		t.Fatalf("RTP got %.12f want %.12f", got, wantRTP)
	}
	variance := (1.0 + 4.0) - 9.0/2
	wantStd := math.Sqrt(variance)
	if got := rep.Std(); math.Abs(got-wantStd) > 1e-12 {
		t.Fatalf("Std got %.12f want %.12f", got, wantStd)
	}
	if got := rep.Cv(); math.Abs(got-wantStd/wantRTP) > 1e-12 {
		t.Fatalf("CV got %.12f", got)
	}
	if rep.Summary.HitRate != 1 {
		t.Fatalf("hit rate %f", rep.Summary.HitRate)
	}
	rep.Done()
	if rep.Rtp() != wantRTP {
		t.Fatalf("RTP changed after second Done")
	}
}

func TestWinBucketIndex(t *testing.T) {
	var bet int64 = 25
	b := stats.Buckets.ForBet(bet)
	cases := map[int64]int{
		0:            0,
		1:            1,
		bet - 1:      1,
		bet:          2,
		5 * bet:      4,
		2000*bet - 1: 11,
		2000 * bet:   12,
		10000 * bet:  13,
		1 << 40:      13,
	}
	for win, want := range cases {
		if got := b.Index(win); got != want {
			t.Fatalf("win %d: idx %d want %d", win, got, want)
		}
	}
	// 大押注走二分搜尋
	big := stats.Buckets.ForBet(5000)
	if got := big.Index(5000 * 300); got != 9 {
		t.Fatalf("large bet index %d want 9", got)
	}
}

func TestTriggerRateUsesClopperPearson(t *testing.T) {
	rep := buildStatReport(10, make([]int64, 100))
	rep = &stats.StatReport{
		Summary: rep.Summary,
		Feature: &stats.FeatureReport{FreeTriggers: 5, JackpotHits: map[string]int{}},
		Mult:    rep.Mult,
		Dist:    rep.Dist,
	}
	rep.Done()
	f := rep.Feature
	if f.FreeTriggerRate != 0.05 {
		t.Fatalf("rate %f", f.FreeTriggerRate)
	}
	if !(f.FreeTriggerCI.Lo < 0.05 && f.FreeTriggerCI.Hi > 0.05 && f.FreeTriggerCI.Lo > 0) {
		t.Fatalf("unexpected CI %+v", f.FreeTriggerCI)
	}
	if f.HoldTriggerRate != 0 || f.HoldTriggerCI.Lo != 0 {
		t.Fatalf("zero triggers must give [0, hi], got %+v", f.HoldTriggerCI)
	}
}

func TestRenderers(t *testing.T) {
	rep := buildStatReport(25, []int64{0, 50, 100})
	for _, name := range []string{"json", "yaml", "txt"} {
		r, err := stats.RenderByName(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		var buf bytes.Buffer
		if err := rep.WriteWith(&buf, r); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !strings.Contains(buf.String(), "TestGame") {
			t.Fatalf("%s output missing game name:\n%s", name, buf.String())
		}
	}
	var decoded map[string]any
	var buf bytes.Buffer
	_ = rep.WriteWith(&buf, &stats.JsonStatReportRender{})
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("json: %v", err)
	}
	if _, err := stats.RenderByName("xml"); err == nil {
		t.Fatalf("expected unknown format error")
	}
}

func TestEstimatorRtpAndSession(t *testing.T) {
	reports := make([]*stats.StatReport, 0, 100)
	for i := 0; i < 100; i++ {
		reports = append(reports, buildStatReport(100, []int64{int64(i)}))
	}
	est := stats.EstimatorPlayerExp(reports)
	if math.Abs(est.RtpStat.ExpMedian.Hat-0.5) > 0.05 {
		t.Fatalf("median RTP expected ~0.5, got %.3f", est.RtpStat.ExpMedian.Hat)
	}
	if math.Abs(est.RtpStat.Mean-0.495) > 1e-9 {
		t.Fatalf("mean RTP %.4f", est.RtpStat.Mean)
	}
	if math.Abs(est.RtpStat.ExpPerc.ExpP90.Hat-0.9) > 0.05 {
		t.Fatalf("P90 RTP expected ~0.9, got %.3f", est.RtpStat.ExpPerc.ExpP90.Hat)
	}

	sessions := make([]*stats.StatReport, 10)
	for i := range sessions {
		r := buildStatReport(100, []int64{0})
		r.Player.Alive = false
		switch {
		case i < 3:
			r.Player.Bust = true
		case i < 5:
			r.Player.Cashout = true
		default:
			r.Player.Alive = true
		}
		if i == 0 {
			r.Feature.HoldTriggers = 2
		}
		sessions[i] = r
	}
	est2 := stats.EstimatorPlayerExp(sessions)
	if est2.SessionStat.Bust.Hat != 0.3 || est2.SessionStat.Cashout.Hat != 0.2 || est2.SessionStat.Alive.Hat != 0.5 {
		t.Fatalf("unexpected session stat %+v", est2.SessionStat)
	}
	if est2.EventStat.HoldAndSpin.Two.Hat != 0.1 || est2.EventStat.HoldAndSpin.Zero.Hat != 0.9 {
		t.Fatalf("unexpected hold events %+v", est2.EventStat.HoldAndSpin)
	}
	var buf bytes.Buffer
	est2.Out(&buf)
	if !strings.Contains(buf.String(), "Session Outcome") {
		t.Fatalf("missing table output")
	}
	for name, want := range map[string]string{"json": "\"SessionStat\"", "yml": "session_stat", "txt": "Session Outcome"} {
		r, err := stats.EstimatorRenderByName(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		buf.Reset()
		if err := r.Write(&buf, est2); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("%s output missing %q", name, want)
		}
	}
}

func TestEstimatorToleratesSummaryOnlyReports(t *testing.T) {
	reports := make([]*stats.StatReport, 0, 4)
	for i := 0; i < 4; i++ {
		reports = append(reports, &stats.StatReport{Summary: &stats.SummaryReport{
			GameName: "TestGame", BetPerRound: 25, TotalBet: 100, TotalWin: int64(25 * i), Rounds: 4,
		}})
	}
	est := stats.EstimatorPlayerExp(reports)
	if n := len(est.EventStat.Bucket.Counts); n != stats.Buckets.Len() {
		t.Fatalf("bucket counts = %d, want %d", n, stats.Buckets.Len())
	}
	if est.EventStat.Bucket.Counts[0].Zero.Hat != 1 {
		t.Fatalf("reports without distribution must count as zero hits, got %+v", est.EventStat.Bucket.Counts[0])
	}
}
