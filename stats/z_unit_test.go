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
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestTimeBucketsIndex(t *testing.T) {
	cases := map[float64]int{
		-1:    0,
		0:     0,
		3.99:  0,
		4:     1,
		5.25:  2,
		5.5:   3,
		6.7:   5,
		9.99:  7,
		10:    8,
		19.99: 8,
		20:    9,
		500:   9,
	}
	for sec, want := range cases {
		if got := Buckets.Index(sec); got != want {
			t.Fatalf("Index(%v) = %d want %d", sec, got, want)
		}
	}
	if Buckets.Len() != len(Buckets.Names()) {
		t.Fatalf("names/len mismatch")
	}
}

func TestProportionCI(t *testing.T) {
	p, ci := proportionCICP(0, 0, 0.95)
	if p != 0 || ci.Lo != 0 || ci.Hi != 1 {
		t.Fatalf("empty sample: %v %+v", p, ci)
	}
	p, ci = proportionCICP(50, 100, 0.95)
	if p != 0.5 || !(ci.Lo < 0.5 && ci.Hi > 0.5) {
		t.Fatalf("ci does not cover estimate: %v %+v", p, ci)
	}
	if ci.Lo < 0.38 || ci.Hi > 0.62 {
		t.Fatalf("ci too wide: %+v", ci)
	}
	_, ci = proportionCICP(10, 10, 0.95)
	if ci.Hi != 1 || ci.Lo <= 0.6 {
		t.Fatalf("all successes: %+v", ci)
	}
}

func TestUniformityTest(t *testing.T) {
	x, dof, p := uniformityTest([]int{100, 100, 100})
	if x != 0 || dof != 2 || math.Abs(p-1) > 1e-9 {
		t.Fatalf("flat counts: chi2=%v dof=%d p=%v", x, dof, p)
	}
	_, _, p = uniformityTest([]int{300, 0, 0})
	if p > 1e-6 {
		t.Fatalf("skewed counts should reject, p=%v", p)
	}
	if _, dof, p := uniformityTest([]int{5}); dof != 0 || p != 1 {
		t.Fatalf("single symbol: dof=%d p=%v", dof, p)
	}
}

func TestMeanStd(t *testing.T) {
	vals := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	var sum, sq float64
	for _, v := range vals {
		sum += v
		sq += v * v
	}
	m, sd := meanStd(sum, sq, len(vals))
	if m != 5 || math.Abs(sd-2.138089935) > 1e-6 {
		t.Fatalf("mean=%v std=%v", m, sd)
	}
	if m, sd := meanStd(3, 9, 1); m != 3 || sd != 0 {
		t.Fatalf("single sample mean=%v std=%v", m, sd)
	}
}

func sampleReport() *StatReport {
	r := NewStatReport("lootbox", 7, []string{"A", "B"})
	for i, sp := range []float64{5.2, 6.1, 4.4, 25} {
		r.Summary.Cycles++
		r.Timing.SpinTimeSum += sp
		r.Timing.SpinTimeSqSum += sp * sp
		r.Timing.ReactionSum += 0.5
		r.Landing.Counts[i%2]++
		r.Dist.SpinTimeCollect[Buckets.Index(sp)]++
	}
	return r
}

func TestStatReportDone(t *testing.T) {
	r := sampleReport()
	r.Done()
	if r.Timing.ReactionMean != 0.5 {
		t.Fatalf("reaction mean %v", r.Timing.ReactionMean)
	}
	if math.Abs(r.Timing.SpinTimeMean-10.175) > 1e-9 {
		t.Fatalf("spin mean %v", r.Timing.SpinTimeMean)
	}
	if r.Landing.Rates[0] != 0.5 || r.Landing.Rates[1] != 0.5 || !r.Landing.Uniform {
		t.Fatalf("landing %+v", r.Landing)
	}
	if r.Dist.SpinTimeDist[Buckets.Len()-1] != 0.25 {
		t.Fatalf("dist %v", r.Dist.SpinTimeDist)
	}
	// 第二次 Done 不得重算
	r.Summary.Cycles = 100
	r.Done()
	if r.Landing.Rates[0] != 0.5 {
		t.Fatalf("Done is not idempotent")
	}
}

func TestRenderers(t *testing.T) {
	r := sampleReport()
	var jb bytes.Buffer
	if err := r.WriteWith(&jb, &JsonStatReportRender{}); err != nil {
		t.Fatalf("json: %v", err)
	}
	var back StatReport
	if err := json.Unmarshal(jb.Bytes(), &back); err != nil {
		t.Fatalf("json decode: %v", err)
	}
	if back.Summary.MachineName != "lootbox" || back.Summary.Cycles != 4 {
		t.Fatalf("json summary %+v", back.Summary)
	}

	var yb bytes.Buffer
	if err := r.WriteWith(&yb, &YAMLStatReportRender{}); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if !strings.Contains(yb.String(), "symbols: [A, B]") {
		t.Fatalf("expected flow style list:\n%s", yb.String())
	}
	var m map[string]any
	if err := yaml.Unmarshal(yb.Bytes(), &m); err != nil {
		t.Fatalf("yaml decode: %v", err)
	}
}

func TestFmtTable(t *testing.T) {
	out := fmtTable("寶箱", []string{"A", "圖標"}, map[string]string{"A": "1", "圖標": "22"})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	w := len([]rune(lines[0]))
	for _, l := range lines {
		if len([]rune(l)) > w+2 {
			t.Fatalf("table rows misaligned:\n%s", out)
		}
	}
	if !strings.Contains(out, "寶箱") {
		t.Fatalf("title missing")
	}
}
