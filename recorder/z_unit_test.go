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
	"bytes"
	"testing"

	"github.com/zintix-labs/lootreel/dto"
	"github.com/zintix-labs/lootreel/errs"
)

func TestCycleRecorder(t *testing.T) {
	if _, err := NewCycleRecorder("x", 1, nil); !errs.IsConfig(err) {
		t.Fatalf("empty symbols should be a config error, got %v", err)
	}
	r, err := NewCycleRecorder("lootbox", 1, []string{"A", "B", "C"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	r.Record(dto.Result{Symbol: "A", SpinTime: 5}, 0.2)
	r.Record(dto.Result{Symbol: "C", SpinTime: 7}, 0.4)
	r.Record(dto.Result{Symbol: "zzz", SpinTime: 6}, 0.3)
	r.AddFrames(600, 10)

	rep := r.Done()
	if rep.Summary.Cycles != 3 || rep.Summary.Frames != 600 {
		t.Fatalf("summary %+v", rep.Summary)
	}
	if rep.Landing.Counts[0] != 1 || rep.Landing.Counts[1] != 0 || rep.Landing.Counts[2] != 1 {
		t.Fatalf("landing %v", rep.Landing.Counts)
	}
	if rep.Timing.SpinTimeMin != 5 || rep.Timing.SpinTimeMax != 7 || rep.Timing.SpinTimeMean != 6 {
		t.Fatalf("timing %+v", rep.Timing)
	}
}

func TestMergeCycleRecorder(t *testing.T) {
	sym := []string{"A", "B"}
	a, _ := NewCycleRecorder("m", 1, sym)
	b, _ := NewCycleRecorder("m", 1, sym)
	a.Record(dto.Result{Symbol: "A", SpinTime: 4}, 0)
	b.Record(dto.Result{Symbol: "B", SpinTime: 9}, 0)
	b.Record(dto.Result{Symbol: "B", SpinTime: 8}, 0)

	m, err := MergeCycleRecorder([]*CycleRecorder{a, b})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if m.Basic.Cycles != 3 || m.Dist.Landing[0] != 1 || m.Dist.Landing[1] != 2 {
		t.Fatalf("merged %+v %+v", m.Basic, m.Dist)
	}
	if m.Basic.SpinTimeMin != 4 || m.Basic.SpinTimeMax != 9 {
		t.Fatalf("merged min/max %v %v", m.Basic.SpinTimeMin, m.Basic.SpinTimeMax)
	}

	c, _ := NewCycleRecorder("other", 1, sym)
	if _, err := MergeCycleRecorder([]*CycleRecorder{a, c}); err == nil {
		t.Fatalf("merge across machines should fail")
	}
	if _, err := MergeCycleRecorder(nil); err == nil {
		t.Fatalf("merge of nothing should fail")
	}
}

func TestTraceRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	tr, err := NewTraceRecorder(&buf)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	want := []Frame{
		{T: 0, Phase: "idle", Motion: "stopped"},
		{T: 0.5, Phase: "spinning", Motion: "accelerating", Speed: 120, Center: 2, Offset: -13.5},
	}
	for _, f := range want {
		if err := tr.Record(f); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := tr.Record(Frame{}); err == nil {
		t.Fatalf("record after close should fail")
	}
	got, err := ReadTrace(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("frames %d want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("frame %d: %+v want %+v", i, got[i], want[i])
		}
	}
}
