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

package orbrush

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/orbrush/errs"
	"github.com/zintix-labs/orbrush/recorder"
	"github.com/zintix-labs/orbrush/sdk/core"
	"github.com/zintix-labs/orbrush/sdk/engine"
	"github.com/zintix-labs/orbrush/sdk/ledger"
	"github.com/zintix-labs/orbrush/sdk/slot"
	"github.com/zintix-labs/orbrush/spec"
	"github.com/zintix-labs/orbrush/stats"
)

const (
	capPrepare int = 100

	// simCredits 模擬機台的餘額：足夠大，模擬過程不會因餘額不足中斷。
	// 玩家餘額由 recorder 另行追蹤。
	simCredits int64 = 1 << 60

	// maxSpinsPerRound 單一 round 的轉動上限，超過代表設定檔讓特色遊戲無法結束。
	maxSpinsPerRound = 1 << 20
)

// Simulator 以多台機台平行模擬並彙整統計。
//
// round 的定義：一次付費的 Base 轉動加上它觸發的所有特色遊戲轉動。
// 各方法的 rounds 都是「完成的 round 數」，不是轉動次數。
type Simulator struct {
	GameName  string
	GameID    spec.GID
	gs        *spec.GameSetting
	eng       *engine.Engine
	cf        core.PRNGFactory
	initSeed  int64
	seedmaker *seedMaker
	mBuf      []*Machine               // 併發執行機台
	rBuf      []*recorder.SpinRecorder // 併發紀錄員
	sBuf      []*stats.StatReport      // 玩家個別報表（僅 SimPlayers）
}

func newSimulatorWithSeed(eng *engine.Engine, cf core.PRNGFactory, seed int64) *Simulator {
	gs := eng.Setting()
	s := &Simulator{
		GameName:  gs.GameName,
		GameID:    gs.GameID,
		gs:        gs,
		eng:       eng,
		cf:        cf,
		initSeed:  seed,
		seedmaker: newSeedMaker(seed),
		mBuf:      make([]*Machine, 1, capPrepare),
		rBuf:      make([]*recorder.SpinRecorder, 0, capPrepare),
		sBuf:      make([]*stats.StatReport, 0, capPrepare),
	}
	// 第一台機台使用初始 seed，單線模擬與同 seed 的 Machine 可逐轉對照
	s.mBuf[0] = newMachineWithSeed(eng, cf, seed, simCredits, nil)
	return s
}

func (s *Simulator) InitSeed() int64 { return s.initSeed }

// Sim 單線模擬：一台機台連續跑 rounds 個 round，回傳統計結果與用時。
func (s *Simulator) Sim(bet ledger.Bet, rounds int, showpb bool) (*stats.StatReport, time.Duration, error) {
	defer s.reset()
	if rounds < 1 {
		return nil, 0, errs.Invalidf("rounds must > 0")
	}
	full, err := s.resolveBet(bet)
	if err != nil {
		return nil, 0, err
	}
	r, err := recorder.NewSpinRecorder(s.GameName, s.GameID, full, 0)
	if err != nil {
		return nil, 0, err
	}
	s.rBuf = append(s.rBuf, r)
	m := s.mBuf[0]
	m.reset(simCredits)

	bar := pb.StartNew(rounds)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	err = runRounds(m, r, full, rounds, bar)
	used := time.Since(bar.StartTime())
	bar.Finish()
	if err != nil {
		return nil, used, err
	}
	return r.Done(), used, nil
}

// SimMP 平行執行 workers 台機台，每台各跑 rounds 個 round，合併統計後回傳。
func (s *Simulator) SimMP(bet ledger.Bet, rounds int, workers int, showpb bool) (*stats.StatReport, time.Duration, error) {
	defer s.reset()
	if workers <= 0 {
		return nil, 0, errs.Invalidf("workers must > 0")
	}
	if rounds < 1 {
		return nil, 0, errs.Invalidf("rounds must > 0")
	}
	full, err := s.resolveBet(bet)
	if err != nil {
		return nil, 0, err
	}
	s.prepareMachines(workers)
	for len(s.rBuf) < workers {
		r, err := recorder.NewSpinRecorder(s.GameName, s.GameID, full, 0)
		if err != nil {
			return nil, 0, err
		}
		s.rBuf = append(s.rBuf, r)
	}

	wg := new(sync.WaitGroup)
	wg.Add(workers)
	errc := make(chan error, workers)
	bar := pb.StartNew(rounds * workers)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			m := s.mBuf[i]
			m.reset(simCredits)
			if err := runRounds(m, s.rBuf[i], full, rounds, bar); err != nil {
				errc <- err
			}
		}(i)
	}
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()
	close(errc)
	if err := <-errc; err != nil {
		return nil, used, err
	}

	merged, err := recorder.MergeSpinRecorder(s.rBuf)
	if err != nil {
		return nil, used, err
	}
	return merged.Done(), used, nil
}

// SimPlayers 模擬多位玩家各自帶 initBets 倍總押注入場的歷程。
//
// 每位玩家最多玩 rounds 個 round，破產或達到離場線即結束。
// 回傳合併的機台報表與玩家體驗估計。
func (s *Simulator) SimPlayers(workers int, players int, initBets int, bet ledger.Bet, rounds int, showpb bool) (*stats.StatReport, *stats.EstimatorPlayers, time.Duration, error) {
	defer s.reset()
	if players < 1 || initBets < 1 || rounds < 1 || workers < 1 {
		return nil, nil, 0, errs.Invalidf("invalid param: workers %d players %d init bets %d rounds %d", workers, players, initBets, rounds)
	}
	full, err := s.resolveBet(bet)
	if err != nil {
		return nil, nil, 0, err
	}
	s.prepareMachines(workers)
	for len(s.rBuf) < players {
		r, err := recorder.NewSpinRecorder(s.GameName, s.GameID, full, initBets)
		if err != nil {
			return nil, nil, 0, err
		}
		s.rBuf = append(s.rBuf, r)
	}
	jobs := make(chan *recorder.SpinRecorder, 2048)
	errc := make(chan error, workers)

	wg := new(sync.WaitGroup)
	wg.Add(workers)
	bar := pb.StartNew(players)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for w := 0; w < workers; w++ {
		go playerWorker(wg, s.mBuf[w], jobs, full, rounds, bar, errc)
	}
	for _, j := range s.rBuf {
		jobs <- j
	}
	close(jobs)
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()
	close(errc)
	if err := <-errc; err != nil {
		return nil, nil, used, err
	}

	record, err := recorder.MergeSpinRecorder(s.rBuf)
	if err != nil {
		return nil, nil, used, err
	}
	st := record.Done()

	s.sBuf = s.sBuf[:0]
	for _, r := range s.rBuf {
		s.sBuf = append(s.sBuf, r.Done())
	}
	est := stats.EstimatorPlayerExp(s.sBuf)
	return st, est, used, nil
}

// runRounds 轉到完成 rounds 個 round 為止；結尾未完成的 round 不計入報表。
func runRounds(m *Machine, r *recorder.SpinRecorder, bet ledger.Bet, rounds int, bar *pb.ProgressBar) error {
	spins := 0
	for done := 0; done < rounds; {
		out, err := m.SpinInternal(bet)
		if err != nil {
			return err
		}
		if r.Record(out) {
			done++
			spins = 0
			bar.Increment()
			continue
		}
		if spins++; spins > maxSpinsPerRound {
			return errs.Invariantf("round exceeded %d spins", maxSpinsPerRound)
		}
	}
	return nil
}

func playerWorker(wg *sync.WaitGroup, m *Machine, jobs chan *recorder.SpinRecorder, bet ledger.Bet, rounds int, bar *pb.ProgressBar, errc chan<- error) {
	defer wg.Done()
	for j := range jobs {
		// 每位玩家從乾淨的 Base 狀態開始
		m.reset(simCredits)
		if err := playOne(m, j, bet, rounds); err != nil {
			select {
			case errc <- err:
			default:
			}
		}
		bar.Increment()
	}
}

func playOne(m *Machine, j *recorder.SpinRecorder, bet ledger.Bet, rounds int) error {
	done, spins := 0, 0
	for done < rounds {
		out, err := m.SpinInternal(bet)
		if err != nil {
			return err
		}
		if j.RecordWithPlayer(out) {
			return nil
		}
		if out.Mode == slot.ModeBase {
			done++
			spins = 0
			continue
		}
		if spins++; spins > maxSpinsPerRound {
			return errs.Invariantf("round exceeded %d spins", maxSpinsPerRound)
		}
	}
	return nil
}

// resolveBet 以設定檔預設押注補齊零值欄位並驗證。
func (s *Simulator) resolveBet(bet ledger.Bet) (ledger.Bet, error) {
	d := s.gs.Bet.Defaults
	full := bet
	if full.Denomination == 0 {
		full.Denomination = d.Denomination
	}
	if full.BetMultiplier == 0 {
		full.BetMultiplier = d.BetMultiplier
	}
	if full.Lines == 0 {
		full.Lines = d.Lines
	}
	if _, err := s.gs.Bet.Validate(full.Denomination, full.BetMultiplier, full.Lines); err != nil {
		return ledger.Bet{}, err
	}
	return full, nil
}

func (s *Simulator) prepareMachines(n int) {
	for len(s.mBuf) < n {
		s.mBuf = append(s.mBuf, newMachineWithSeed(s.eng, s.cf, s.seedmaker.next(), simCredits, nil))
	}
}

func (s *Simulator) reset() {
	s.rBuf = s.rBuf[:0]
	s.sBuf = s.sBuf[:0]
}

const mask63 = uint64(1<<63) - 1

// seedMaker 派發互不重複的子 seed；可被多個 goroutine 同時呼叫。
type seedMaker struct {
	state atomic.Uint64 // always in [0, 2^63)
}

func newSeedMaker(seed int64) *seedMaker {
	s := &seedMaker{}
	s.state.Store(uint64(seed) & mask63)
	return s
}

// next 以 CAS 推進全週期 LCG，再用可逆的 mix63 打散。
func (s *seedMaker) next() int64 {
	for {
		old := s.state.Load()
		next := (old*6364136223846793005 + 1442695040888963407) & mask63
		if s.state.CompareAndSwap(old, next) {
			return int64(mix63(next))
		}
	}
}

// mix63 只用可逆的位元操作與乘奇數（mod 2^63）
func mix63(x uint64) uint64 {
	x &= mask63
	x ^= x >> 30
	x = (x * 0xBF58476D1CE4E5B9) & mask63
	x ^= x >> 27
	x = (x * 0x94D049BB133111EB) & mask63
	x ^= x >> 31
	return x & mask63
}
