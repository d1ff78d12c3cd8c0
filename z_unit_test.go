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
	"bytes"
	"context"
	"errors"
	"math"
	"sort"
	"testing"
	"testing/fstest"

	"github.com/zintix-labs/lootreel/dto"
	"github.com/zintix-labs/lootreel/errs"
	"github.com/zintix-labs/lootreel/recorder"
	"github.com/zintix-labs/lootreel/sdk/core"
	"github.com/zintix-labs/lootreel/sdk/event"
	"github.com/zintix-labs/lootreel/sdk/phase"
	"github.com/zintix-labs/lootreel/spec"
)

const testYAML = `
machine_name: testbox
machine_id: 7
phase:
  stop_delay: 0.5
symbols: [A, B, C]
sim:
  frame_dt: 0.05
  reaction_mean: 0.3
  result_hold: 0.2
`

const fps = 1.0 / 60

func newTestLab(t *testing.T) *Lootreel {
	t.Helper()
	fsys := fstest.MapFS{"testbox.yaml": &fstest.MapFile{Data: []byte(testYAML)}}
	lab, err := NewAuto(core.Default(), Configs(fsys))
	if err != nil {
		t.Fatalf("new lab: %v", err)
	}
	return lab
}

func runUntil(t *testing.T, m *Machine, want phase.Phase, maxFrames int) {
	t.Helper()
	for i := 0; i < maxFrames; i++ {
		if m.Phase() == want {
			return
		}
		if err := m.Update(fps); err != nil {
			t.Fatalf("update: %v", err)
		}
	}
	t.Fatalf("machine did not reach %v within %d frames (at %v)", want, maxFrames, m.Phase())
}

func TestMachineFullCycle(t *testing.T) {
	lab := newTestLab(t)
	m, err := lab.NewMachineByName("testbox")
	if err != nil {
		t.Fatalf("new machine: %v", err)
	}
	var got []dto.Result
	m.OnResult(func(r dto.Result) {
		// 回呼在鎖外，可以再呼叫 Machine
		_ = m.Snapshot(false)
		got = append(got, r)
	})

	if ok, err := m.Trigger(event.Start); !ok || err != nil {
		t.Fatalf("start rejected: %v %v", ok, err)
	}
	if ok, _ := m.Trigger(event.Stop); ok {
		t.Fatalf("stop accepted before delay")
	}
	if err := m.Run(fps, 30); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !m.CanStop() {
		t.Fatalf("stop should be enabled after 0.5s")
	}
	if ok, _ := m.Trigger(event.Stop); !ok {
		t.Fatalf("stop rejected after delay")
	}
	runUntil(t, m, phase.ShowResult, 300)

	if len(got) != 1 {
		t.Fatalf("expected one result, got %d", len(got))
	}
	r := got[0]
	if r.Cycle != 1 || r.Symbol == "" || math.Abs(r.Offset) >= 1 {
		t.Fatalf("bad result %+v", r)
	}
	if r.SpinTime < 2.5-1e-6 {
		t.Fatalf("spin time %v shorter than delay + deceleration", r.SpinTime)
	}
	last, ok := m.Result()
	if !ok || last != r {
		t.Fatalf("Result() mismatch: %+v", last)
	}

	s := m.Snapshot(true)
	if s.Phase != "result" || !s.Controls.StartEnabled || s.Controls.StopEnabled || s.Scrolling {
		t.Fatalf("snapshot %+v", s)
	}
	off := make([]float64, len(s.Items))
	for i, it := range s.Items {
		off[i] = it.Offset
	}
	sort.Float64s(off)
	for i := 1; i < len(off); i++ {
		if math.Abs(off[i]-off[i-1]-200) > 1e-6 {
			t.Fatalf("items not contiguous: %v", off)
		}
	}

	// 下一輪從 ShowResult 直接 start
	if ok, _ := m.Trigger(event.Start); !ok || m.Phase() != phase.Spinning {
		t.Fatalf("restart from result failed")
	}
}

func TestMachineInputValidation(t *testing.T) {
	m, err := newTestLab(t).NewMachine(7)
	if err != nil {
		t.Fatalf("new machine: %v", err)
	}
	if _, err := m.Trigger(event.ReelStopped); err == nil {
		t.Fatalf("internal trigger must not be accepted from outside")
	}
	// testbox：9 個 Item、pitch 200、max_speed 2000 -> dt 上限 1600/2000
	if m.MaxDT() != 0.8 {
		t.Fatalf("max dt %v", m.MaxDT())
	}
	for _, dt := range []float64{0, -1, math.NaN(), math.Inf(1), 0.8, 5} {
		if err := m.Update(dt); err == nil {
			t.Fatalf("dt %v accepted", dt)
		}
	}
	if err := m.Run(0.9, 1); err == nil {
		t.Fatalf("run with dt past strip span accepted")
	}
	if err := m.Run(fps, -1); err == nil {
		t.Fatalf("negative frames accepted")
	}
	if m.Frames() != 0 || m.Clock() != 0 {
		t.Fatalf("rejected input advanced the clock")
	}
}

func TestFastReelStaysInWindow(t *testing.T) {
	raw := "machine_name: fast\nsymbols: [A, B, C]\nreel: {max_speed: 90000, acceleration_time: 0.1}\nphase: {stop_delay: 0}"
	ms, err := spec.GetMachineSettingByYAML([]byte(raw))
	if err != nil {
		t.Fatalf("setting: %v", err)
	}
	m, err := NewMachine(ms, nil)
	if err != nil {
		t.Fatalf("new machine: %v", err)
	}
	if ok, _ := m.Trigger(event.Start); !ok {
		t.Fatalf("start rejected")
	}
	for i := 0; i < 200; i++ {
		if err := m.Update(fps); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, it := range m.Snapshot(true).Items {
			lo, hi = min(lo, it.Offset), max(hi, it.Offset)
		}
		if lo < -900 || hi < 700-1e-6 {
			t.Fatalf("frame %d: strip left window, span [%v, %v]", i, lo, hi)
		}
	}
	if !m.CanStop() {
		t.Fatalf("zero stop delay should allow stop")
	}
}

func TestLabRequiresFreeze(t *testing.T) {
	fsys := fstest.MapFS{"testbox.yaml": &fstest.MapFile{Data: []byte(testYAML)}}
	lab, err := New(core.Default(), Configs(fsys))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := lab.RegisterAll(); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := lab.NewMachine(7); err == nil {
		t.Fatalf("machine built before freeze")
	}
	lab.Freeze()
	if _, err := lab.NewMachine(8); !errs.IsKind(err, errs.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	sum, err := lab.Summary()
	if err != nil || len(sum) != 1 || sum[0].MID != 7 {
		t.Fatalf("summary %+v %v", sum, err)
	}
	if _, err := New(nil, Configs(fsys)); err == nil {
		t.Fatalf("nil factory accepted")
	}
}

func TestMachineByYAMLRejectsBadConfig(t *testing.T) {
	lab := newTestLab(t)
	_, err := lab.NewMachineByYAML([]byte("machine_name: bad\nsymbols: [A, a]\n"))
	if !errs.IsConfig(err) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestMachineTrace(t *testing.T) {
	m, _ := newTestLab(t).NewMachine(7)
	var buf bytes.Buffer
	tr, err := recorder.NewTraceRecorder(&buf)
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	m.SetTrace(tr)
	m.Trigger(event.Start)
	m.Run(fps, 10)
	if err := tr.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	frames, err := recorder.ReadTrace(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(frames) != 11 {
		t.Fatalf("expected 11 frames, got %d", len(frames))
	}
	if frames[0].Phase != "spinning" || frames[10].Speed <= 0 {
		t.Fatalf("unexpected frames %+v ... %+v", frames[0], frames[10])
	}
	// 關閉後的 Record 失敗只會停用 trace
	m.Run(fps, 1)
}

func TestSimulatorDeterministic(t *testing.T) {
	lab := newTestLab(t)
	a, err := lab.NewSimulatorWithSeed(7, 42)
	if err != nil {
		t.Fatalf("sim: %v", err)
	}
	b, _ := lab.NewSimulatorWithSeed(7, 42)
	ra, _, err := a.Sim(20, false)
	if err != nil {
		t.Fatalf("sim a: %v", err)
	}
	rb, _, err := b.Sim(20, false)
	if err != nil {
		t.Fatalf("sim b: %v", err)
	}
	if ra.Summary.Cycles != 20 {
		t.Fatalf("cycles %d", ra.Summary.Cycles)
	}
	for i := range ra.Landing.Counts {
		if ra.Landing.Counts[i] != rb.Landing.Counts[i] {
			t.Fatalf("same seed, different landing: %v vs %v", ra.Landing.Counts, rb.Landing.Counts)
		}
	}
	total := 0
	for _, c := range ra.Landing.Counts {
		total += c
	}
	if total != 20 {
		t.Fatalf("landing total %d", total)
	}
	if ra.Timing.SpinTimeMin < 2.5-1e-6 {
		t.Fatalf("spin time min %v", ra.Timing.SpinTimeMin)
	}
	if ra.Timing.ReactionMean < 0.15 {
		t.Fatalf("reaction mean %v below minimum", ra.Timing.ReactionMean)
	}
	if ra.Summary.Frames == 0 || ra.Summary.SimSeconds <= 0 {
		t.Fatalf("frames not recorded: %+v", ra.Summary)
	}
}

func TestSimulatorTrace(t *testing.T) {
	sim, err := newTestLab(t).NewSimulatorWithSeed(7, 42)
	if err != nil {
		t.Fatalf("sim: %v", err)
	}
	var a, b bytes.Buffer
	ra, na, err := sim.Trace(&a)
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	rb, nb, err := sim.Trace(&b)
	if err != nil {
		t.Fatalf("trace again: %v", err)
	}
	if na != nb || ra.Symbol != rb.Symbol || ra.ItemID != rb.ItemID {
		t.Fatalf("same seed, different trace: %d %+v vs %d %+v", na, ra, nb, rb)
	}
	frames, err := recorder.ReadTrace(&a)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if uint64(len(frames)) != na || na == 0 {
		t.Fatalf("frames %d reported %d", len(frames), na)
	}
	if last := frames[len(frames)-1]; last.Phase != "result" || last.Speed != 0 {
		t.Fatalf("last frame %+v", last)
	}
}

func TestSimulatorMP(t *testing.T) {
	sim, err := newTestLab(t).NewSimulatorWithSeed(7, 1)
	if err != nil {
		t.Fatalf("sim: %v", err)
	}
	r, _, err := sim.SimMP(10, 3, false)
	if err != nil {
		t.Fatalf("simmp: %v", err)
	}
	if r.Summary.Cycles != 30 {
		t.Fatalf("cycles %d", r.Summary.Cycles)
	}
	// 第二次呼叫沿用機台，統計重新計算
	r, _, err = sim.SimMP(5, 2, false)
	if err != nil || r.Summary.Cycles != 10 {
		t.Fatalf("second run cycles %d err %v", r.Summary.Cycles, err)
	}
	if _, _, err := sim.SimMP(0, 1, false); err == nil {
		t.Fatalf("zero cycles accepted")
	}
	if _, _, err := sim.SimMP(1, 0, false); err == nil {
		t.Fatalf("zero workers accepted")
	}
}

func TestSessionPool(t *testing.T) {
	lab := newTestLab(t)
	pool, err := lab.NewSessionPool(2)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	ctx := context.Background()

	s1, _, err := pool.CreateByName("testbox")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	s2, _, err := pool.Create(7)
	if err != nil || s1 == s2 {
		t.Fatalf("second create: %v", err)
	}
	if _, _, err := pool.Create(7); err == nil {
		t.Fatalf("pool over capacity")
	}
	if _, _, err := pool.CreateByName("nope"); !errs.IsKind(err, errs.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	err = pool.Do(ctx, s1, func(m *Machine) error {
		_, err := m.Trigger(event.Start)
		return err
	})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if m, _ := pool.Get(s1); m.Phase() != phase.Spinning {
		t.Fatalf("trigger not applied")
	}

	err = pool.Do(ctx, s2, func(*Machine) error { panic("boom") })
	if e, ok := errs.AsErr(err); !ok || e.ErrLv != errs.Fatal {
		t.Fatalf("expected fatal after panic, got %v", err)
	}
	if _, err := pool.Get(s2); !errs.IsKind(err, errs.KindNotFound) {
		t.Fatalf("panicked session should be removed")
	}

	if err := pool.Delete(s1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := pool.Delete(s1); !errs.IsKind(err, errs.KindNotFound) {
		t.Fatalf("double delete: %v", err)
	}
	mt := pool.Metrics()
	if mt.Created != 2 || mt.Deleted != 2 || mt.Panics != 1 || mt.Sessions != 0 {
		t.Fatalf("metrics %+v", mt)
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	if err := pool.Do(cctx, s1, func(*Machine) error { return nil }); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled context accepted: %v", err)
	}

	pool.Close()
	pool.Close()
	if _, _, err := pool.Create(7); err == nil || !pool.Closed() || pool.ClosedReason() != "closed" {
		t.Fatalf("closed pool accepted create")
	}
}

func TestSeedMaker(t *testing.T) {
	sm := newSeedMaker(-5)
	seen := map[int64]struct{}{}
	for i := 0; i < 1000; i++ {
		s := sm.next()
		if s < 0 {
			t.Fatalf("negative seed %d", s)
		}
		if _, ok := seen[s]; ok {
			t.Fatalf("seed repeated at %d", i)
		}
		seen[s] = struct{}{}
	}
}
