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
	"log/slog"
	"math"
	"sync"

	"github.com/zintix-labs/lootreel/dto"
	"github.com/zintix-labs/lootreel/errs"
	"github.com/zintix-labs/lootreel/recorder"
	"github.com/zintix-labs/lootreel/sdk/event"
	"github.com/zintix-labs/lootreel/sdk/phase"
	"github.com/zintix-labs/lootreel/sdk/reel"
	"github.com/zintix-labs/lootreel/sdk/strip"
	"github.com/zintix-labs/lootreel/sdk/symbol"
	"github.com/zintix-labs/lootreel/spec"
)

// Machine 封裝一台轉輪機台：strip + 轉輪控制器 + 流程狀態機，透過同一條 event bus 串接。
//
// 對外：Trigger / Update / Snapshot。
// 對內：所有元件都在同一個 tick 執行緒上運作，Machine 以 mutex 保護，讓 HTTP 層可以從不同 goroutine 呼叫。
//
// 結果回呼（OnResult）會在釋放鎖之後才呼叫，回呼內可以安全地再呼叫 Machine 的方法。
type Machine struct {
	name string
	mid  spec.MID
	ms   *spec.MachineSetting
	log  *slog.Logger

	mu    sync.Mutex
	bus   *event.Bus
	sym   *symbol.RoundRobin
	strip *strip.Strip
	reel  *reel.Controller
	phase *phase.Machine

	maxDT     float64 // max_speed*dt 不可到達 strip.MaxStep
	clock     float64 // 機台累計時間（秒）
	frames    uint64
	cycles    uint64
	spinStart float64

	last     *dto.Result
	pending  []dto.Result
	onResult []func(dto.Result)
	trace    *recorder.TraceRecorder
}

// NewMachine 依 MachineSetting 組裝機台並進入 Idle。
//
// ms 需已經過 spec 的 init/valid（GetMachineSettingByYAML / JSON 皆會處理）；log 為 nil 時靜默。
func NewMachine(ms *spec.MachineSetting, log *slog.Logger) (*Machine, error) {
	if ms == nil {
		return nil, errs.Configf("machine setting required")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	log = log.With(slog.String("machine", ms.MachineName), slog.Uint64("mid", uint64(ms.MachineID)))

	sym, err := symbol.NewRoundRobin(ms.Symbols)
	if err != nil {
		return nil, errs.WrapConfig(err, "machine: "+ms.MachineName)
	}
	st, err := strip.New(ms.Reel.WindowHeight, ms.Reel.ItemPitch, ms.Reel.MinItems, sym)
	if err != nil {
		return nil, errs.WrapConfig(err, "machine: "+ms.MachineName)
	}

	bus := event.NewBus()
	rc, err := reel.New(st, reel.Config{
		MaxSpeed:    ms.Reel.MaxSpeed,
		AccelTime:   ms.Reel.AccelerationTime,
		DecelTime:   ms.Reel.DecelerationTime,
		SnapTime:    ms.Reel.SnapTime,
		SnapEpsilon: ms.Reel.SnapEpsilon,
	}, bus, log)
	if err != nil {
		return nil, errs.WrapConfig(err, "machine: "+ms.MachineName)
	}
	pm, err := phase.New(phase.Config{StopDelay: ms.Phase.StopDelay}, bus, log)
	if err != nil {
		return nil, errs.WrapConfig(err, "machine: "+ms.MachineName)
	}

	m := &Machine{
		name:  ms.MachineName,
		mid:   ms.MachineID,
		ms:    ms,
		log:   log,
		bus:   bus,
		sym:   sym,
		strip: st,
		reel:  rc,
		phase: pm,
		maxDT: st.MaxStep() / ms.Reel.MaxSpeed,
	}

	// 訂閱順序：狀態機先吃觸發，轉輪再吃 phase changed，最後機台收結果
	pm.Attach(bus)
	rc.Attach(bus)
	bus.Subscribe(event.PhaseChanged, m.onPhaseChanged)
	bus.Subscribe(event.ResultEffect, m.onResultEffect)

	pm.Start()
	log.Info("machine ready", slog.Int("items", st.Len()), slog.Int("symbols", sym.VarietyCount()))
	return m, nil
}

func (m *Machine) onPhaseChanged(ev event.Event) {
	if ev.Phase == phase.Spinning.String() {
		m.spinStart = m.clock
	}
}

func (m *Machine) onResultEffect(event.Event) {
	m.cycles++
	res := dto.Result{
		Cycle:    m.cycles,
		Machine:  m.name,
		MID:      m.mid,
		ItemID:   -1,
		Sprite:   -1,
		SpinTime: m.clock - m.spinStart,
		At:       m.clock,
	}
	if it, ok := m.reel.Center(); ok {
		res.ItemID = it.ID()
		res.Sprite = it.Sprite()
		res.Symbol = m.sym.Name(it.Sprite())
		res.Offset = it.Offset()
	}
	m.last = &res
	m.pending = append(m.pending, res)
	m.log.Debug("result", slog.Uint64("cycle", res.Cycle), slog.String("symbol", res.Symbol), slog.Float64("spin_time", res.SpinTime))
}

// Trigger 外部輸入：只接受 start / stop。回傳是否造成狀態轉移；
// 時機不對（例如計時未到就按 stop）回傳 false 而不是錯誤。
func (m *Machine) Trigger(name event.Name) (bool, error) {
	if name != event.Start && name != event.Stop {
		return false, errs.Warnf("unknown trigger %q", name)
	}
	m.mu.Lock()
	before := m.phase.Transitions()
	m.bus.Emit(name)
	ok := m.phase.Transitions() != before
	m.traceLocked()
	res, cbs := m.drainLocked()
	m.mu.Unlock()

	m.notify(res, cbs)
	return ok, nil
}

// Update 推進一幀：先狀態機計時，再轉輪。
func (m *Machine) Update(dt float64) error {
	if err := m.checkDT(dt); err != nil {
		return err
	}
	m.mu.Lock()
	m.updateLocked(dt)
	res, cbs := m.drainLocked()
	m.mu.Unlock()

	m.notify(res, cbs)
	return nil
}

// Run 以固定 dt 連續推進 frames 幀
func (m *Machine) Run(dt float64, frames int) error {
	if err := m.checkDT(dt); err != nil {
		return err
	}
	if frames < 0 {
		return errs.Warnf("frames must be >= 0, got %d", frames)
	}
	m.mu.Lock()
	for i := 0; i < frames; i++ {
		m.updateLocked(dt)
	}
	res, cbs := m.drainLocked()
	m.mu.Unlock()

	m.notify(res, cbs)
	return nil
}

// checkDT 一幀的位移超過 strip 可回收的範圍時，整條帶子會跌出視窗
func (m *Machine) checkDT(dt float64) error {
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt <= 0 {
		return errs.Warnf("dt must be a positive finite number, got %v", dt)
	}
	if dt >= m.maxDT {
		return errs.Warnf("dt %v too large for max_speed %v (must be < %.6g)", dt, m.ms.Reel.MaxSpeed, m.maxDT)
	}
	return nil
}

// MaxDT 單幀 dt 上限（不含）
func (m *Machine) MaxDT() float64 { return m.maxDT }

func (m *Machine) updateLocked(dt float64) {
	m.clock += dt
	m.frames++
	m.phase.Update(dt)
	m.reel.Update(dt)
	m.traceLocked()
}

func (m *Machine) drainLocked() ([]dto.Result, []func(dto.Result)) {
	if len(m.pending) == 0 {
		return nil, nil
	}
	res := m.pending
	m.pending = nil
	return res, m.onResult
}

func (m *Machine) notify(res []dto.Result, cbs []func(dto.Result)) {
	for _, r := range res {
		for _, cb := range cbs {
			cb(r)
		}
	}
}

// OnResult 註冊結果回呼（每次進入 ShowResult 呼叫一次）
func (m *Machine) OnResult(fn func(dto.Result)) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// 複製再附加，drain 出去的舊 slice 不受影響
	cbs := make([]func(dto.Result), len(m.onResult), len(m.onResult)+1)
	copy(cbs, m.onResult)
	m.onResult = append(cbs, fn)
}

// SetTrace 設定逐幀軌跡輸出；nil 表示關閉。Machine 不負責 Close。
func (m *Machine) SetTrace(t *recorder.TraceRecorder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trace = t
}

func (m *Machine) traceLocked() {
	if m.trace == nil {
		return
	}
	f := recorder.Frame{
		T:      m.clock,
		Phase:  m.phase.Current().String(),
		Motion: m.reel.Motion().String(),
		Speed:  m.reel.Speed(),
		Center: -1,
	}
	if it, ok := m.reel.Center(); ok {
		f.Center = it.ID()
		f.Offset = it.Offset()
	}
	if err := m.trace.Record(f); err != nil {
		m.log.Warn("trace disabled", slog.Any("err", err))
		m.trace = nil
	}
}

// Snapshot 機台當下狀態；withItems 決定是否附上每一格
func (m *Machine) Snapshot(withItems bool) dto.MachineState {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := dto.MachineState{
		Machine:     m.name,
		MID:         m.mid,
		Phase:       m.phase.Current().String(),
		Controls:    m.phase.Controls(),
		Motion:      m.reel.Motion().String(),
		Speed:       m.reel.Speed(),
		Scrolling:   m.reel.Scrolling(),
		TimeInPhase: m.phase.TimeInPhase(),
		Clock:       m.clock,
		Frames:      m.frames,
		Cycles:      m.cycles,
	}
	if m.last != nil {
		r := *m.last
		s.Last = &r
	}
	if withItems {
		items := m.strip.Items()
		s.Items = make([]dto.ItemState, len(items))
		for i, it := range items {
			s.Items[i] = dto.ItemState{
				ID:     it.ID(),
				Offset: it.Offset(),
				Sprite: it.Sprite(),
				Symbol: m.sym.Name(it.Sprite()),
			}
		}
	}
	return s
}

// Result 最近一次結果
func (m *Machine) Result() (dto.Result, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return dto.Result{}, false
	}
	return *m.last, true
}

func (m *Machine) Phase() phase.Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase.Current()
}

func (m *Machine) CanStop() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase.CanStop()
}

func (m *Machine) Clock() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clock
}

func (m *Machine) Frames() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frames
}

func (m *Machine) Name() string                  { return m.name }
func (m *Machine) MID() spec.MID                 { return m.mid }
func (m *Machine) Setting() *spec.MachineSetting { return m.ms }
func (m *Machine) Symbols() []string             { return m.sym.Names() }
