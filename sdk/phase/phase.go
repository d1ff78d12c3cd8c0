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

// Package phase 機台流程狀態機：Idle -> Spinning -> Stopping -> ShowResult -> Spinning ...
//
// 轉移表與 enter action 以資料描述；不合時宜的觸發（計時前按 stop、轉動中按 start）
// 直接忽略，不是錯誤。
package phase

import (
	"log/slog"
	"math"

	"github.com/zintix-labs/lootreel/errs"
	"github.com/zintix-labs/lootreel/sdk/event"
)

// Phase 流程階段
type Phase uint8

const (
	Idle Phase = iota
	Spinning
	Stopping
	ShowResult
	numPhases
)

var phaseNames = [numPhases]string{
	Idle:       "idle",
	Spinning:   "spinning",
	Stopping:   "stopping",
	ShowResult: "result",
}

// String 對外發佈用的階段名稱
func (p Phase) String() string {
	if p < numPhases {
		return phaseNames[p]
	}
	return "unknown"
}

// ParsePhase 名稱轉 Phase
func ParsePhase(s string) (Phase, bool) {
	for i, n := range phaseNames {
		if n == s {
			return Phase(i), true
		}
	}
	return Idle, false
}

// timerEpsilon 吸收以固定 dt 累加時間造成的浮點誤差
const timerEpsilon = 1e-9

// Config 狀態機參數
type Config struct {
	StopDelay float64 // 進入 Spinning 後多久才允許 stop（秒）
}

func DefaultConfig() Config {
	return Config{StopDelay: 3.0}
}

func (c Config) Valid() error {
	if math.IsNaN(c.StopDelay) || math.IsInf(c.StopDelay, 0) || c.StopDelay < 0 {
		return errs.Configf("phase: stop_delay must be >= 0, got %v", c.StopDelay)
	}
	return nil
}

type transition struct {
	on    event.Name
	to    Phase
	guard func() bool // nil = 永遠成立
}

type node struct {
	controls    event.Controls
	onEnter     []func()
	transitions []transition
}

// Machine 流程狀態機；非 goroutine safe。
type Machine struct {
	cfg Config
	pub event.Publisher
	log *slog.Logger

	nodes [numPhases]node

	started   bool
	cur       Phase
	timeIn    float64
	stopArmed bool
	controls  event.Controls

	transitions uint64
	results     uint64
}

// New 建立狀態機；須呼叫 Start 才會進入 Idle。
func New(cfg Config, pub event.Publisher, log *slog.Logger) (*Machine, error) {
	if err := cfg.Valid(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	m := &Machine{cfg: cfg, pub: pub, log: log}
	m.nodes = [numPhases]node{
		Idle: {
			controls:    event.Controls{StartEnabled: true, StopEnabled: false},
			transitions: []transition{{on: event.Start, to: Spinning}},
		},
		Spinning: {
			controls:    event.Controls{StartEnabled: false, StopEnabled: false},
			transitions: []transition{{on: event.Stop, to: Stopping, guard: m.CanStop}},
		},
		Stopping: {
			controls:    event.Controls{StartEnabled: false, StopEnabled: false},
			transitions: []transition{{on: event.ReelStopped, to: ShowResult}},
		},
		ShowResult: {
			controls:    event.Controls{StartEnabled: true, StopEnabled: false},
			onEnter:     []func(){m.fireResultEffect},
			transitions: []transition{{on: event.Start, to: Spinning}},
		},
	}
	return m, nil
}

// Attach 訂閱 start / stop / reel stopped
func (m *Machine) Attach(bus *event.Bus) {
	h := func(ev event.Event) { m.Handle(ev.Name) }
	bus.Subscribe(event.Start, h)
	bus.Subscribe(event.Stop, h)
	bus.Subscribe(event.ReelStopped, h)
}

// Start 進入初始階段 Idle（重複呼叫等同重置）
func (m *Machine) Start() {
	m.started = true
	m.enter(Idle)
}

// Update 累計階段內時間；Spinning 到達 StopDelay 時開放 stop。
func (m *Machine) Update(dt float64) {
	if !m.started || math.IsNaN(dt) || dt <= 0 {
		return
	}
	m.timeIn += dt
	if m.cur == Spinning && !m.stopArmed && m.timeIn+timerEpsilon >= m.cfg.StopDelay {
		m.stopArmed = true
		m.controls.StopEnabled = true
		m.log.Debug("stop enabled", slog.Float64("time_in_phase", m.timeIn))
		m.publish(event.Event{Name: event.ControlsChanged, Controls: m.controls})
	}
}

// Handle 套用觸發；回傳是否造成轉移。
func (m *Machine) Handle(name event.Name) bool {
	if !m.started {
		return false
	}
	for _, tr := range m.nodes[m.cur].transitions {
		if tr.on != name {
			continue
		}
		if tr.guard != nil && !tr.guard() {
			break
		}
		m.enter(tr.to)
		return true
	}
	m.log.Debug("trigger ignored", slog.String("trigger", string(name)), slog.String("phase", m.cur.String()))
	return false
}

func (m *Machine) enter(p Phase) {
	from := m.cur
	m.cur = p
	m.timeIn = 0
	m.stopArmed = false
	m.transitions++
	n := &m.nodes[p]
	m.controls = n.controls
	m.log.Debug("phase enter", slog.String("from", from.String()), slog.String("to", p.String()))

	m.publish(event.Event{Name: event.ControlsChanged, Controls: m.controls})
	m.publish(event.Event{Name: event.PhaseChanged, Phase: p.String(), Controls: m.controls})
	for _, fn := range n.onEnter {
		fn()
	}
}

func (m *Machine) fireResultEffect() {
	m.results++
	m.publish(event.Event{Name: event.ResultEffect, Phase: ShowResult.String(), Controls: m.controls})
}

func (m *Machine) publish(ev event.Event) {
	if m.pub != nil {
		m.pub.Publish(ev)
	}
}

// CanStop Spinning 且計時已到
func (m *Machine) CanStop() bool { return m.cur == Spinning && m.stopArmed }

func (m *Machine) Current() Phase           { return m.cur }
func (m *Machine) Started() bool            { return m.started }
func (m *Machine) Controls() event.Controls { return m.controls }
func (m *Machine) TimeInPhase() float64     { return m.timeIn }
func (m *Machine) Transitions() uint64      { return m.transitions }
func (m *Machine) Results() uint64          { return m.results }
func (m *Machine) Config() Config           { return m.cfg }
