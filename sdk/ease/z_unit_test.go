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

package ease

import (
	"math"
	"testing"
)

func almost(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestCurves(t *testing.T) {
	cases := []struct {
		name string
		c    Curve
		in   float64
		want float64
	}{
		{"cubic in 0", CubicIn, 0, 0},
		{"cubic in half", CubicIn, 0.5, 0.125},
		{"cubic in 1", CubicIn, 1, 1},
		{"cubic out half", CubicOut, 0.5, 0.875},
		{"quad out half", QuadOut, 0.5, 0.75},
		{"clamp low", CubicOut, -3, 0},
		{"clamp high", QuadOut, 7, 1},
		{"nan", Linear, math.NaN(), 0},
	}
	for _, tc := range cases {
		if got := tc.c(tc.in); !almost(got, tc.want) {
			t.Fatalf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestCurvesMonotonic(t *testing.T) {
	for _, c := range []Curve{CubicIn, CubicOut, QuadOut, Linear} {
		prev := c(0)
		for i := 1; i <= 100; i++ {
			v := c(float64(i) / 100)
			if v < prev {
				t.Fatalf("curve not monotonic at %d: %v < %v", i, v, prev)
			}
			prev = v
		}
	}
}

func TestTweenEndsExactlyOnceAtTarget(t *testing.T) {
	var got []float64
	done := 0
	p := NewPath().CubicIn(1.0, 0, 100, func(v float64) { got = append(got, v) }).Action(func() { done++ })

	for i := 0; i < 3; i++ {
		if p.Update(0.25) {
			t.Fatalf("finished too early at step %d", i)
		}
	}
	if !p.Update(0.25) {
		t.Fatalf("expected path done after full duration")
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 step callbacks, got %d", len(got))
	}
	if !almost(got[0], 100*0.25*0.25*0.25) {
		t.Fatalf("unexpected first value %v", got[0])
	}
	if got[3] != 100 {
		t.Fatalf("last value must be exactly target, got %v", got[3])
	}
	if done != 1 {
		t.Fatalf("completion action ran %d times", done)
	}
	// 完成後再推進不應再回呼
	p.Update(1)
	if len(got) != 4 || done != 1 {
		t.Fatalf("callbacks fired after completion")
	}
}

func TestChainCarriesOverflow(t *testing.T) {
	var a, b []float64
	p := NewPath().
		Tween(Linear, 1, 0, 10, func(v float64) { a = append(a, v) }).
		Tween(Linear, 1, 10, 20, func(v float64) { b = append(b, v) })

	p.Update(1.5)
	if len(a) != 1 || a[0] != 10 {
		t.Fatalf("first stage should end at 10, got %v", a)
	}
	if len(b) != 1 || !almost(b[0], 15) {
		t.Fatalf("overflow not carried into second stage: %v", b)
	}
	if !p.Update(0.5) {
		t.Fatalf("expected done")
	}
	if b[len(b)-1] != 20 {
		t.Fatalf("second stage end %v", b)
	}
}

func TestZeroDurationCompletesImmediately(t *testing.T) {
	var v float64 = -1
	p := NewPath().QuadOut(0, 3, 9, func(x float64) { v = x })
	if !p.Update(0) {
		t.Fatalf("zero duration tween should complete on first update")
	}
	if v != 9 {
		t.Fatalf("got %v", v)
	}
}

func TestRunnerReplaceCancelsPrevious(t *testing.T) {
	var r Runner
	oldSteps, oldDone := 0, 0
	r.Set(NewPath().Tween(Linear, 1, 0, 1, func(float64) { oldSteps++ }).Action(func() { oldDone++ }))
	r.Update(0.5)
	if oldSteps != 1 {
		t.Fatalf("expected 1 step, got %d", oldSteps)
	}

	newSteps := 0
	r.Set(NewPath().Tween(Linear, 1, 0, 1, func(float64) { newSteps++ }))
	r.Update(2)
	if oldSteps != 1 || oldDone != 0 {
		t.Fatalf("cancelled path still fired: steps=%d done=%d", oldSteps, oldDone)
	}
	if newSteps != 1 {
		t.Fatalf("new path steps %d", newSteps)
	}
	if r.Active() {
		t.Fatalf("runner should be idle after completion")
	}
}

func TestRunnerReplaceFromInsideAction(t *testing.T) {
	var r Runner
	after := 0
	nextSteps := 0
	next := NewPath().Tween(Linear, 1, 0, 1, func(float64) { nextSteps++ })
	r.Set(NewPath().
		Action(func() { r.Set(next) }).
		Action(func() { after++ }))

	r.Update(0.1)
	if after != 0 {
		t.Fatalf("stage after replacement must not run")
	}
	if r.Path() != next || !r.Active() {
		t.Fatalf("runner should hold the replacement path")
	}
	r.Update(0.5)
	if nextSteps != 1 {
		t.Fatalf("replacement path not advanced: %d", nextSteps)
	}
}
