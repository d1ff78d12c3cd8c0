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
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/zintix-labs/lootreel/spec"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var lang language.Tag = language.English

// UniformAlpha 卡方檢定的顯著水準
const UniformAlpha = 0.01

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo" yaml:"lo"`
	Hi float64 `json:"Hi" yaml:"hi"`
}

// StatReport 機台模擬統計報告
type StatReport struct {
	Summary *SummaryReport `json:"Summary" yaml:"summary"`
	Timing  *TimingReport  `json:"Timing"  yaml:"timing"`
	Landing *LandingReport `json:"Landing" yaml:"landing"`
	Dist    *DistReport    `json:"Dist"    yaml:"dist"`
	isDone  bool
}

type SummaryReport struct {
	MachineName string   `json:"MachineName" yaml:"machine_name"`
	MID         spec.MID `json:"MID"         yaml:"mid"`
	Symbols     []string `json:"Symbols"     yaml:"symbols"`
	Cycles      int      `json:"Cycles"      yaml:"cycles"`
	Frames      uint64   `json:"Frames"      yaml:"frames"`
	SimSeconds  float64  `json:"SimSeconds"  yaml:"sim_seconds"` // 模擬出的機台時間總和
}

// TimingReport 轉動時間（start -> result）與玩家反應時間統計
//
// 紀錄時只累計和，Done() 時計算平均、標準差與信賴區間
type TimingReport struct {
	SpinTimeSum   float64 `json:"SpinTimeSum"   yaml:"spin_time_sum"`
	SpinTimeSqSum float64 `json:"SpinTimeSqSum" yaml:"spin_time_sq_sum"` // 平方和
	SpinTimeMin   float64 `json:"SpinTimeMin"   yaml:"spin_time_min"`
	SpinTimeMax   float64 `json:"SpinTimeMax"   yaml:"spin_time_max"`
	SpinTimeMean  float64 `json:"SpinTimeMean"  yaml:"spin_time_mean"`
	SpinTimeStd   float64 `json:"SpinTimeStd"   yaml:"spin_time_std"`
	SpinTimeCI    CI      `json:"SpinTimeCI"    yaml:"spin_time_ci"`
	ReactionSum   float64 `json:"ReactionSum"   yaml:"reaction_sum"`
	ReactionMean  float64 `json:"ReactionMean"  yaml:"reaction_mean"`
}

// LandingReport 停輪落點（中心格圖標）分佈
type LandingReport struct {
	Counts    []int     `json:"Counts"    yaml:"counts"`
	Rates     []float64 `json:"Rates"     yaml:"rates"`
	RateCI    []CI      `json:"RateCI"    yaml:"rate_ci"` // Clopper–Pearson 95%
	ChiSquare float64   `json:"ChiSquare" yaml:"chi_square"`
	DoF       int       `json:"DoF"       yaml:"dof"`
	PValue    float64   `json:"PValue"    yaml:"p_value"`
	Uniform   bool      `json:"Uniform"   yaml:"uniform"` // PValue >= UniformAlpha
}

// DistReport 轉動時間區間分佈
type DistReport struct {
	TimeBucket      []string  `json:"TimeBucket"      yaml:"time_bucket"`
	SpinTimeCollect []int     `json:"SpinTimeCollect" yaml:"spin_time_collect"`
	SpinTimeDist    []float64 `json:"SpinTimeDist"    yaml:"spin_time_dist"`
}

// ============================================================
// ** 公開方法 **
// ============================================================

// NewStatReport 建立空報告；Counts 長度與圖標數一致
func NewStatReport(name string, mid spec.MID, symbols []string) *StatReport {
	return &StatReport{
		Summary: &SummaryReport{MachineName: name, MID: mid, Symbols: append([]string(nil), symbols...)},
		Timing:  &TimingReport{},
		Landing: &LandingReport{Counts: make([]int, len(symbols))},
		Dist: &DistReport{
			TimeBucket:      Buckets.Names(),
			SpinTimeCollect: make([]int, Buckets.Len()),
		},
	}
}


// Done 將累積計數轉換為最終統計結果並鎖定 isDone 標記。
func (s *StatReport) Done() {
	if s.isDone {
		return
	}
	n := s.Summary.Cycles

	// Timing
	t := s.Timing
	t.SpinTimeMean, t.SpinTimeStd = meanStd(t.SpinTimeSum, t.SpinTimeSqSum, n)
	t.SpinTimeCI = CI{Lo: t.SpinTimeMean, Hi: t.SpinTimeMean}
	if n > 1 {
		se := t.SpinTimeStd / math.Sqrt(float64(n))
		t.SpinTimeCI = CI{Lo: t.SpinTimeMean - 1.96*se, Hi: t.SpinTimeMean + 1.96*se}
	}
	if n > 0 {
		t.ReactionMean = t.ReactionSum / float64(n)
	}

	// Landing
	l := s.Landing
	l.Rates = make([]float64, len(l.Counts))
	l.RateCI = make([]CI, len(l.Counts))
	for i, c := range l.Counts {
		l.Rates[i], l.RateCI[i] = proportionCICP(c, n, 0.95)
	}
	l.ChiSquare, l.DoF, l.PValue = uniformityTest(l.Counts)
	l.Uniform = l.PValue >= UniformAlpha

	// Dist
	d := s.Dist
	d.SpinTimeDist = make([]float64, len(d.SpinTimeCollect))
	if n > 0 {
		for i, c := range d.SpinTimeCollect {
			d.SpinTimeDist[i] = float64(c) / float64(n)
		}
	}

	s.isDone = true
}

func (s *StatReport) WriteWith(w io.Writer, rep StatReportRender) error {
	s.Done()
	return rep.Write(w, s)
}

// StdOut 以表格輸出到標準輸出
func (s *StatReport) StdOut(ut time.Duration) {
	s.Done()
	formatDuration(ut, s.Summary.Cycles)
	sk, sm := s.fmtBasic()
	fmt.Println(fmtTable(s.Summary.MachineName, sk, sm))
	lk, lm := s.fmtLanding()
	fmt.Println(fmtTable("Landing", lk, lm))
}

// ============================================================
// ** 內部方法 **
// ============================================================

func formatDuration(d time.Duration, cycles int) {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	cps := int(float64(cycles) / sec)
	if sec < 60.0 {
		p.Printf("used: %.2f seconds\ncps : %d cycles/sec\n", sec, cps)
		return
	}
	s := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		p.Printf("used: %dm %ds\ncps : %d cycles/sec\n", m, s, cps)
		return
	}
	p.Printf("used: %dh:%dm:%ds\ncps : %d cycles/sec\n", h, m, s, cps)
}

func (s *StatReport) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	t := s.Timing
	basic := map[string]string{
		"Machine":       p.Sprintf("%s", s.Summary.MachineName),
		"Machine ID":    fmt.Sprintf("%d", s.Summary.MID),
		"Cycles":        p.Sprintf("%d", s.Summary.Cycles),
		"Frames":        p.Sprintf("%d", s.Summary.Frames),
		"Sim Time":      p.Sprintf("%.1f s", s.Summary.SimSeconds),
		"Spin Mean":     p.Sprintf("%.3f s", t.SpinTimeMean),
		"Spin 95% CI":   p.Sprintf("[%.3f, %.3f]", t.SpinTimeCI.Lo, t.SpinTimeCI.Hi),
		"Spin STD":      p.Sprintf("%.3f", t.SpinTimeStd),
		"Spin Min/Max":  p.Sprintf("%.3f / %.3f", t.SpinTimeMin, t.SpinTimeMax),
		"Reaction Mean": p.Sprintf("%.3f s", t.ReactionMean),
		"Chi-Square":    p.Sprintf("%.3f (dof %d)", s.Landing.ChiSquare, s.Landing.DoF),
		"P-Value":       p.Sprintf("%.4f", s.Landing.PValue),
		"Uniform":       fmt.Sprintf("%t", s.Landing.Uniform),
	}
	keys := []string{"Machine", "Machine ID", "Cycles", "Frames", "Sim Time", "Spin Mean", "Spin 95% CI", "Spin STD", "Spin Min/Max", "Reaction Mean", "Chi-Square", "P-Value", "Uniform"}
	return keys, basic
}

func (s *StatReport) fmtLanding() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	keys := make([]string, 0, len(s.Landing.Counts))
	msg := make(map[string]string, len(s.Landing.Counts))
	for i, c := range s.Landing.Counts {
		k := fmt.Sprintf("#%d", i)
		if i < len(s.Summary.Symbols) {
			k = s.Summary.Symbols[i]
		}
		keys = append(keys, k)
		msg[k] = p.Sprintf("%d (%.2f%%)", c, 100*s.Landing.Rates[i])
	}
	return keys, msg
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := runewidth.StringWidth(title)
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)

	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	var sb strings.Builder
	sb.WriteString(top)
	sb.WriteString(p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right)))
	sb.WriteString(divider)
	for _, k := range keys {
		sb.WriteString(p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), msg[k], blank(maxValLen-2-runewidth.StringWidth(msg[k]))))
	}
	sb.WriteString(divider)
	return sb.String()
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
