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

package lootreel

import (
	"crypto/rand"
	"io"
	"log/slog"
	"math"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/lootreel/dto"
	"github.com/zintix-labs/lootreel/errs"
	"github.com/zintix-labs/lootreel/recorder"
	"github.com/zintix-labs/lootreel/sdk/core"
	"github.com/zintix-labs/lootreel/sdk/event"
	"github.com/zintix-labs/lootreel/sdk/phase"
	"github.com/zintix-labs/lootreel/spec"
	"github.com/zintix-labs/lootreel/stats"
)

const capPrepare int = 100

// simEpsilon 吸收以固定 dt 累加等待時間的浮點誤差
const simEpsilon = 1e-9

// Simulator 以固定 frame dt 無頭模擬完整轉動循環，並平行紀錄統計。
//
// 一個循環：start -> 等 stop 開放 -> 玩家反應時間 -> stop -> 等結果 -> 停留 ResultHold 秒。
// 轉輪本身沒有亂數，落點只由玩家反應時間決定。
type Simulator struct {
	MachineName string                    // 機台名稱
	MID         spec.MID                  // 機台編號
	ms          *spec.MachineSetting      // 機台設定（含 sim 參數）
	cf          core.PRNGFactory          // 亂數生成器（玩家反應）
	log         *slog.Logger              // 模擬摘要
	initSeed    int64                     // 初始下的種子
	seedmaker   *seedMaker                // 種子生成器
	mBuf        []*Machine                // 併發執行機台實例
	cBuf        []*core.Core              // 每台機台各自的亂數核心
	rBuf        []*recorder.CycleRecorder // 併發紀錄員
}

func newSimulator(ms *spec.MachineSetting, cf core.PRNGFactory, log *slog.Logger) (*Simulator, error) {
	seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return nil, errs.Wrap(err, "new crypto seed error in go std lib")
	}
	return newSimulatorWithSeed(ms, cf, seed.Int64(), log)
}

func newSimulatorWithSeed(ms *spec.MachineSetting, cf core.PRNGFactory, seed int64, log *slog.Logger) (*Simulator, error) {
	if ms == nil {
		return nil, errs.Configf("machine setting required")
	}
	if cf == nil {
		return nil, errs.Configf("prng factory required")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Simulator{
		MachineName: ms.MachineName,
		MID:         ms.MachineID,
		ms:          ms,
		cf:          cf,
		log:         log,
		initSeed:    seed,
		seedmaker:   newSeedMaker(seed),
		mBuf:        make([]*Machine, 0, capPrepare),
		cBuf:        make([]*core.Core, 0, capPrepare),
		rBuf:        make([]*recorder.CycleRecorder, 0, capPrepare),
	}
	if err := s.prepare(1); err != nil {
		return nil, err
	}
	return s, nil
}

// Seed 初始種子，以相同 seed 建立的 Simulator 第一次模擬結果相同
func (s *Simulator) Seed() int64 { return s.initSeed }

// prepare 補齊 n 組 機台 / 亂數核心；第 0 組使用 initSeed
func (s *Simulator) prepare(n int) error {
	for len(s.mBuf) < n {
		m, err := NewMachine(s.ms, nil)
		if err != nil {
			return err
		}
		seed := s.initSeed
		if len(s.mBuf) > 0 {
			seed = s.seedmaker.next()
		}
		s.mBuf = append(s.mBuf, m)
		s.cBuf = append(s.cBuf, core.New(s.cf.New(seed)))
	}
	s.rBuf = s.rBuf[:0]
	for len(s.rBuf) < n {
		r, err := recorder.NewCycleRecorder(s.MachineName, s.MID, s.ms.Symbols)
		if err != nil {
			return err
		}
		s.rBuf = append(s.rBuf, r)
	}
	return nil
}

// Sim 單線模擬器：以一台機台連續跑指定循環數並回傳統計結果與用時
func (s *Simulator) Sim(cycles int, showpb bool) (*stats.StatReport, time.Duration, error) {
	return s.SimMP(cycles, 1, showpb)
}

// SimMP 平行執行多台機台，每台跑 cycles 次，合併統計結果後回傳統計結果與用時
func (s *Simulator) SimMP(cycles int, mp int, showpb bool) (*stats.StatReport, time.Duration, error) {
	if mp <= 0 {
		return nil, 0, errs.NewWarn("workers must > 0")
	}
	if cycles < 1 {
		return nil, 0, errs.NewWarn("cycles must > 0")
	}
	if err := s.prepare(mp); err != nil {
		return nil, 0, err
	}

	wg := new(sync.WaitGroup)
	wg.Add(mp)
	bar := pb.StartNew(cycles * mp)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	errCh := make(chan error, mp)
	for i := 0; i < mp; i++ {
		go func(i int) {
			defer wg.Done()
			if err := s.runWorker(s.mBuf[i], s.cBuf[i], s.rBuf[i], cycles, bar); err != nil {
				errCh <- err
			}
		}(i)
	}
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()
	close(errCh)
	if err := <-errCh; err != nil {
		return nil, used, err
	}

	rec, err := recorder.MergeCycleRecorder(s.rBuf[:mp])
	if err != nil {
		return nil, used, err
	}
	report := rec.Done()
	s.log.Info("simulation done",
		slog.String("machine", s.MachineName),
		slog.Int("cycles", report.Summary.Cycles),
		slog.Int("workers", mp),
		slog.Duration("used", used))
	return report, used, nil
}

func (s *Simulator) runWorker(m *Machine, c *core.Core, r *recorder.CycleRecorder, cycles int, bar *pb.ProgressBar) error {
	f0, t0 := m.Frames(), m.Clock()
	defer func() { r.AddFrames(m.Frames()-f0, m.Clock()-t0) }()
	for i := 0; i < cycles; i++ {
		reaction, err := s.cycle(m, c)
		if err != nil {
			return err
		}
		res, _ := m.Result()
		r.Record(res, reaction)
		bar.Increment()
	}
	return nil
}

// Trace 在一台新機台上以初始種子跑一次循環，逐幀軌跡寫入 w（zstd JSON lines）。
// 回傳該次結果與寫出的幀數；不影響 Sim / SimMP 的機台狀態。
func (s *Simulator) Trace(w io.Writer) (dto.Result, uint64, error) {
	m, err := NewMachine(s.ms, s.log)
	if err != nil {
		return dto.Result{}, 0, err
	}
	tr, err := recorder.NewTraceRecorder(w)
	if err != nil {
		return dto.Result{}, 0, err
	}
	m.SetTrace(tr)
	_, cerr := s.cycle(m, core.New(s.cf.New(s.initSeed)))
	m.SetTrace(nil)
	if err := tr.Close(); err != nil && cerr == nil {
		cerr = err
	}
	if cerr != nil {
		return dto.Result{}, tr.Frames(), cerr
	}
	res, ok := m.Result()
	if !ok {
		return dto.Result{}, tr.Frames(), errs.Statef("simulator: trace cycle produced no result")
	}
	return res, tr.Frames(), nil
}

// maxCycleFrames 單一循環的安全上限：正常循環所需時間的 4 倍再加 1000 幀
func (s *Simulator) maxCycleFrames() int {
	ms := s.ms
	d := ms.Phase.StopDelay + ms.Sim.ReactionMax + ms.Reel.AccelerationTime +
		ms.Reel.DecelerationTime + ms.Reel.SnapTime + ms.Sim.ResultHold
	return int(4*d/ms.Sim.FrameDT) + 1000
}

// cycle 跑完一次完整循環，回傳玩家反應時間
func (s *Simulator) cycle(m *Machine, c *core.Core) (float64, error) {
	dt := s.ms.Sim.FrameDT
	budget := s.maxCycleFrames()
	step := func() error {
		if budget--; budget < 0 {
			return errs.Statef("simulator: cycle exceeded frame cap (machine=%s phase=%s)", s.MachineName, m.Phase())
		}
		return m.Update(dt)
	}

	if ok, err := m.Trigger(event.Start); err != nil {
		return 0, err
	} else if !ok {
		return 0, errs.Statef("simulator: start rejected in phase %s", m.Phase())
	}
	for !m.CanStop() {
		if err := step(); err != nil {
			return 0, err
		}
	}

	reaction := c.Reaction(s.ms.Sim.ReactionMin, s.ms.Sim.ReactionMean, s.ms.Sim.ReactionMax)
	for waited := 0.0; waited+simEpsilon < reaction; waited += dt {
		if err := step(); err != nil {
			return 0, err
		}
	}

	if ok, err := m.Trigger(event.Stop); err != nil {
		return 0, err
	} else if !ok {
		return 0, errs.Statef("simulator: stop rejected in phase %s", m.Phase())
	}
	for m.Phase() != phase.ShowResult {
		if err := step(); err != nil {
			return 0, err
		}
	}
	for held := 0.0; held+simEpsilon < s.ms.Sim.ResultHold; held += dt {
		if err := step(); err != nil {
			return 0, err
		}
	}
	return reaction, nil
}

const mask63 = uint64(1<<63) - 1

type seedMaker struct {
	state atomic.Uint64 // always in [0, 2^63)
}

func newSeedMaker(seed int64) *seedMaker {
	s := &seedMaker{}
	s.state.Store(uint64(seed) & mask63)
	return s
}

// state 走全週期（不重複），再用可逆 mix63 打散
//
// 可能在併發環境下被多 goroutines 同時呼叫，因此 state 的推進必須是原子的：CAS 迴圈確保每次呼叫都取得唯一的下一個 state。
func (s *seedMaker) next() int64 {
	for {
		old := s.state.Load()                                            // always masked
		next := (old*6364136223846793005 + 1442695040888963407) & mask63 // full-period LCG mod 2^63
		if s.state.CompareAndSwap(old, next) {
			return int64(mix63(next)) // 一定非負
		}
	}
}

// mix63：只用「可逆」的 bit 操作 + 乘奇數（mod 2^63）
func mix63(x uint64) uint64 {
	x &= mask63
	x ^= x >> 30
	x = (x * 0xBF58476D1CE4E5B9) & mask63 // 乘奇數 ⇒ mod 2^63 可逆
	x ^= x >> 27
	x = (x * 0x94D049BB133111EB) & mask63
	x ^= x >> 31
	return x & mask63
}
