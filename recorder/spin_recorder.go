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

package recorder

import (
	"maps"

	"github.com/zintix-labs/orbrush/errs"
	"github.com/zintix-labs/orbrush/sdk/engine"
	"github.com/zintix-labs/orbrush/sdk/ledger"
	"github.com/zintix-labs/orbrush/sdk/slot"
	"github.com/zintix-labs/orbrush/spec"
	"github.com/zintix-labs/orbrush/stats"
)

// SpinRecorder 遊戲紀錄員
//
// 以 round 為單位累計：一次付費的主遊戲轉動加上其後的特色遊戲，
// 回到主遊戲時才結算進統計。尚未結束的 round 不列入報表。
type SpinRecorder struct {
	GameName string
	GameID   spec.GID
	Bet      ledger.Bet
	TotalBet int64
	InitBets int
	Basic    *BasicRecord
	Feature  *FeatureRecord
	Dist     *DistRecord
	Player   *PlayerRecord

	pending round
}

// BasicRecord 基本遊戲資料紀錄
type BasicRecord struct {
	TotalBet     int64
	TotalWin     int64
	BaseWin      int64
	FreeWin      int64
	HoldWin      int64
	TotalWinMult float64
	BaseWinMult  float64
	TotalWinMSq  float64 // 每 round 贏倍平方和
	NoWinRounds  int
	Rounds       int
	Spins        int
}

// FeatureRecord 特色遊戲計數
type FeatureRecord struct {
	FreeTriggers int
	Retriggers   int
	FreeSpins    int
	HoldTriggers int
	Respins      int
	Grands       int
	JackpotHits  map[string]int
}

// DistRecord 每 round 贏分區間落點
type DistRecord struct {
	Bucket          *stats.WinBucket
	TotalWinCollect []int
	BaseWinCollect  []int
}

// PlayerRecord 玩家資金歷程
type PlayerRecord struct {
	leaveLine   int64
	InitBalance int64
	Balance     int64
	MaxBalance  int64
	MinBalance  int64
	Bust        bool
	Cashout     bool
}

type round struct {
	open     bool
	bet      int64
	base     int64
	free     int64
	hold     int64
	spins    int
	features FeatureRecord
}

// NewSpinRecorder bet 必須是完整押注（三個欄位皆已指定）。
// initBets 為玩家初始資金相當於幾次總押注，只有 RecordWithPlayer 會用到。
func NewSpinRecorder(name string, id spec.GID, bet ledger.Bet, initBets int) (*SpinRecorder, error) {
	if bet.Denomination <= 0 || bet.BetMultiplier <= 0 || bet.Lines <= 0 {
		return nil, errs.InvalidFatalf("recorder bet must be fully specified, got %+v", bet)
	}
	if initBets < 0 {
		return nil, errs.InvalidFatalf("init bets must not negative integer, got: %d", initBets)
	}
	totalBet := spec.TotalBet(bet.Denomination, bet.BetMultiplier, bet.Lines)
	s := &SpinRecorder{
		GameName: name,
		GameID:   id,
		Bet:      bet,
		TotalBet: totalBet,
		InitBets: initBets,
		Basic:    new(BasicRecord),
		Feature:  &FeatureRecord{JackpotHits: make(map[string]int, 4)},
		Dist:     newDistRecord(totalBet),
		Player:   newPlayerRecord(totalBet, initBets),
	}
	return s, nil
}

// MergeSpinRecorder 合併多個 worker 的紀錄，玩家資料不合併。
func MergeSpinRecorder(r []*SpinRecorder) (*SpinRecorder, error) {
	if len(r) == 0 {
		return nil, errs.NewFatal("merge spin record err : empty input")
	}
	r0 := r[0]
	s, err := NewSpinRecorder(r0.GameName, r0.GameID, r0.Bet, r0.InitBets)
	if err != nil {
		return s, err
	}
	for _, v := range r {
		if v.GameName != r0.GameName || v.GameID != r0.GameID {
			return s, errs.NewFatal("merge spin record err : different game")
		}
		if v.Bet != r0.Bet {
			return s, errs.NewFatal("merge spin record err : different bet")
		}
		b := s.Basic
		b.TotalBet += v.Basic.TotalBet
		b.TotalWin += v.Basic.TotalWin
		b.BaseWin += v.Basic.BaseWin
		b.FreeWin += v.Basic.FreeWin
		b.HoldWin += v.Basic.HoldWin
		b.TotalWinMult += v.Basic.TotalWinMult
		b.BaseWinMult += v.Basic.BaseWinMult
		b.TotalWinMSq += v.Basic.TotalWinMSq
		b.NoWinRounds += v.Basic.NoWinRounds
		b.Rounds += v.Basic.Rounds
		b.Spins += v.Basic.Spins

		s.Feature.add(v.Feature)

		for i := range v.Dist.TotalWinCollect {
			s.Dist.TotalWinCollect[i] += v.Dist.TotalWinCollect[i]
			s.Dist.BaseWinCollect[i] += v.Dist.BaseWinCollect[i]
		}
	}
	return s, nil
}

// Record 紀錄一次轉動；回傳該次轉動是否結束了一個 round。
func (s *SpinRecorder) Record(out *engine.Outcome) bool {
	p := &s.pending
	if out.PrevMode == slot.ModeBase {
		// 前一個 round 若未結算（不應發生）直接捨棄
		*p = round{open: true, bet: out.Debit, features: FeatureRecord{}}
	}
	if !p.open {
		return false
	}
	p.spins++

	switch out.PrevMode {
	case slot.ModeBase:
		p.base += out.TotalWin
	case slot.ModeFreeGames:
		p.free += out.TotalWin
		p.features.FreeSpins++
	case slot.ModeHoldAndSpin:
		p.hold += out.TotalWin
		p.features.Respins++
	}
	if kind, ok := out.Event.Start(); ok {
		switch kind {
		case slot.FeatureFreeGames:
			p.features.FreeTriggers++
		case slot.FeatureHoldAndSpin:
			p.features.HoldTriggers++
		}
	}
	if out.Retrigger {
		p.features.Retriggers++
	}
	if out.PrevMode == slot.ModeHoldAndSpin && out.Mode != slot.ModeHoldAndSpin {
		s.recordJackpots(out)
	}

	if out.Mode != slot.ModeBase {
		return false
	}
	s.flush()
	return true
}

// RecordWithPlayer 在 Record 的基礎上更新玩家餘額，回傳玩家是否離場。
// 只在 round 結束時判斷離場，特色遊戲途中不會中斷。
func (s *SpinRecorder) RecordWithPlayer(out *engine.Outcome) bool {
	pl := s.Player
	if out.PrevMode == slot.ModeBase && pl.Balance < s.TotalBet {
		pl.Bust = true
		return true
	}
	done := s.Record(out)
	pl.Balance += out.TotalWin - out.Debit
	pl.MaxBalance = max(pl.MaxBalance, pl.Balance)
	pl.MinBalance = min(pl.MinBalance, pl.Balance)
	if !done {
		return false
	}
	if pl.Balance < s.TotalBet {
		pl.Bust = true
		return true
	}
	if pl.Balance >= pl.leaveLine {
		pl.Cashout = true
		return true
	}
	return false
}

// Done 產出統計報表
func (s *SpinRecorder) Done() *stats.StatReport {
	b := s.Basic
	f := s.Feature
	report := &stats.StatReport{
		Summary: &stats.SummaryReport{
			GameName:      s.GameName,
			GameID:        s.GameID,
			Denomination:  s.Bet.Denomination,
			BetMultiplier: s.Bet.BetMultiplier,
			Lines:         s.Bet.Lines,
			BetPerRound:   s.TotalBet,
			TotalBet:      b.TotalBet,
			TotalWin:      b.TotalWin,
			BaseWin:       b.BaseWin,
			FreeWin:       b.FreeWin,
			HoldWin:       b.HoldWin,
			NoWinRounds:   b.NoWinRounds,
			Rounds:        b.Rounds,
			Spins:         b.Spins,
		},
		Feature: &stats.FeatureReport{
			FreeTriggers: f.FreeTriggers,
			Retriggers:   f.Retriggers,
			FreeSpins:    f.FreeSpins,
			HoldTriggers: f.HoldTriggers,
			Respins:      f.Respins,
			Grands:       f.Grands,
			JackpotHits:  maps.Clone(f.JackpotHits),
		},
		Mult: &stats.MultReport{
			TotalWinMult:      b.TotalWinMult,
			BaseWinMult:       b.BaseWinMult,
			FeatureWinMult:    b.TotalWinMult - b.BaseWinMult,
			TotalWinMultSqSum: b.TotalWinMSq,
		},
		Dist: &stats.DistReport{
			WinBucket:       stats.Buckets.Labels(),
			TotalWinCollect: s.Dist.TotalWinCollect,
			BaseWinCollect:  s.Dist.BaseWinCollect,
		},
		Player: &stats.PlayerReport{
			InitBalance: s.Player.InitBalance,
			Balance:     s.Player.Balance,
			MaxBalance:  s.Player.MaxBalance,
			MinBalance:  s.Player.MinBalance,
			Bust:        s.Player.Bust,
			Cashout:     s.Player.Cashout,
		},
	}
	report.Done()
	return report
}

func (s *SpinRecorder) flush() {
	p := &s.pending
	b := s.Basic
	win := p.base + p.free + p.hold
	bet := float64(s.TotalBet)

	b.TotalBet += p.bet
	b.TotalWin += win
	b.BaseWin += p.base
	b.FreeWin += p.free
	b.HoldWin += p.hold
	m := float64(win) / bet
	b.TotalWinMult += m
	b.BaseWinMult += float64(p.base) / bet
	b.TotalWinMSq += m * m
	if win == 0 {
		b.NoWinRounds++
	}
	b.Rounds++
	b.Spins += p.spins

	s.Feature.add(&p.features)
	s.Dist.TotalWinCollect[s.Dist.Bucket.Index(win)]++
	s.Dist.BaseWinCollect[s.Dist.Bucket.Index(p.base)]++
	*p = round{}
}

// recordJackpots Hold&Spin 結束時，依最終盤面統計彩金命中。
func (s *SpinRecorder) recordJackpots(out *engine.Outcome) {
	f := &s.pending.features
	if f.JackpotHits == nil {
		f.JackpotHits = make(map[string]int, 4)
	}
	for c := range out.Values {
		for r := range out.Values[c] {
			if v := out.Values[c][r]; v.Kind == slot.ValueJackpot {
				f.JackpotHits[v.Tier.String()]++
			}
		}
	}
	if out.Grand {
		f.Grands++
		f.JackpotHits[slot.TierGrand.String()]++
	}
}

func (f *FeatureRecord) add(o *FeatureRecord) {
	f.FreeTriggers += o.FreeTriggers
	f.Retriggers += o.Retriggers
	f.FreeSpins += o.FreeSpins
	f.HoldTriggers += o.HoldTriggers
	f.Respins += o.Respins
	f.Grands += o.Grands
	for k, v := range o.JackpotHits {
		f.JackpotHits[k] += v
	}
}

func newDistRecord(totalBet int64) *DistRecord {
	n := stats.Buckets.Len()
	return &DistRecord{
		Bucket:          stats.Buckets.ForBet(totalBet),
		TotalWinCollect: make([]int, n),
		BaseWinCollect:  make([]int, n),
	}
}

func newPlayerRecord(totalBet int64, initBets int) *PlayerRecord {
	b := totalBet * int64(initBets) // 初始帶入總金額
	return &PlayerRecord{
		InitBalance: b,
		Balance:     b,
		MaxBalance:  b,
		MinBalance:  b,
		leaveLine:   3 * b, // 贏到 3 倍本金離場
	}
}
