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
	"math"
	"slices"

	"github.com/zintix-labs/lootreel/dto"
	"github.com/zintix-labs/lootreel/errs"
	"github.com/zintix-labs/lootreel/spec"
	"github.com/zintix-labs/lootreel/stats"
)

// CycleRecorder 轉動紀錄員
//
// CycleRecorder 負責紀錄每一次轉動的結果，並透過 Done 輸出統計報表。
// 非 goroutine safe；多 worker 各持一份，最後以 MergeCycleRecorder 合併。
type CycleRecorder struct {
	MachineName string
	MID         spec.MID
	Symbols     []string
	Basic       *BasicRecord
	Dist        *DistRecord
}

// BasicRecord 基本紀錄
type BasicRecord struct {
	Cycles        int
	Frames        uint64
	SimSeconds    float64
	SpinTimeSum   float64
	SpinTimeSqSum float64 // 平方和
	SpinTimeMin   float64
	SpinTimeMax   float64
	ReactionSum   float64
}

// DistRecord 落點與轉動時間區間
type DistRecord struct {
	Landing         []int
	SpinTimeCollect []int
}

func NewCycleRecorder(name string, mid spec.MID, symbols []string) (*CycleRecorder, error) {
	if len(symbols) == 0 {
		return nil, errs.Configf("recorder: symbols must not be empty")
	}
	return &CycleRecorder{
		MachineName: name,
		MID:         mid,
		Symbols:     slices.Clone(symbols),
		Basic:       &BasicRecord{SpinTimeMin: math.Inf(1)},
		Dist: &DistRecord{
			Landing:         make([]int, len(symbols)),
			SpinTimeCollect: make([]int, stats.Buckets.Len()),
		},
	}, nil
}

// MergeCycleRecorder 合併多個 worker 的紀錄；機台名稱與圖標必須一致
func MergeCycleRecorder(r []*CycleRecorder) (*CycleRecorder, error) {
	if len(r) == 0 {
		return nil, errs.Fatalf("merge cycle record err : empty input")
	}
	r0 := r[0]
	s, err := NewCycleRecorder(r0.MachineName, r0.MID, r0.Symbols)
	if err != nil {
		return nil, err
	}
	for _, v := range r {
		if v.MachineName != r0.MachineName || v.MID != r0.MID {
			return nil, errs.Fatalf("merge cycle record err : different machine")
		}
		if !slices.Equal(v.Symbols, r0.Symbols) {
			return nil, errs.Fatalf("merge cycle record err : different symbols")
		}
		b := v.Basic
		s.Basic.Cycles += b.Cycles
		s.Basic.Frames += b.Frames
		s.Basic.SimSeconds += b.SimSeconds
		s.Basic.SpinTimeSum += b.SpinTimeSum
		s.Basic.SpinTimeSqSum += b.SpinTimeSqSum
		s.Basic.ReactionSum += b.ReactionSum
		s.Basic.SpinTimeMin = math.Min(s.Basic.SpinTimeMin, b.SpinTimeMin)
		s.Basic.SpinTimeMax = math.Max(s.Basic.SpinTimeMax, b.SpinTimeMax)

		for i := range v.Dist.Landing {
			s.Dist.Landing[i] += v.Dist.Landing[i]
		}
		for i := range v.Dist.SpinTimeCollect {
			s.Dist.SpinTimeCollect[i] += v.Dist.SpinTimeCollect[i]
		}
	}
	return s, nil
}

// Record 以單次結果更新統計；reaction 為玩家在 stop 開放後等待的秒數
func (s *CycleRecorder) Record(res dto.Result, reaction float64) {
	b := s.Basic
	st := res.SpinTime
	b.Cycles++
	b.SpinTimeSum += st
	b.SpinTimeSqSum += st * st
	b.ReactionSum += reaction
	if st < b.SpinTimeMin {
		b.SpinTimeMin = st
	}
	if st > b.SpinTimeMax {
		b.SpinTimeMax = st
	}
	if i := slices.Index(s.Symbols, res.Symbol); i >= 0 {
		s.Dist.Landing[i]++
	}
	s.Dist.SpinTimeCollect[stats.Buckets.Index(st)]++
}

// AddFrames 累計模擬的幀數與機台時間
func (s *CycleRecorder) AddFrames(frames uint64, seconds float64) {
	s.Basic.Frames += frames
	s.Basic.SimSeconds += seconds
}

func (s *CycleRecorder) Done() *stats.StatReport {
	report := stats.NewStatReport(s.MachineName, s.MID, s.Symbols)
	b := s.Basic
	report.Summary.Cycles = b.Cycles
	report.Summary.Frames = b.Frames
	report.Summary.SimSeconds = b.SimSeconds

	report.Timing.SpinTimeSum = b.SpinTimeSum
	report.Timing.SpinTimeSqSum = b.SpinTimeSqSum
	report.Timing.ReactionSum = b.ReactionSum
	if b.Cycles > 0 {
		report.Timing.SpinTimeMin = b.SpinTimeMin
		report.Timing.SpinTimeMax = b.SpinTimeMax
	}

	copy(report.Landing.Counts, s.Dist.Landing)
	copy(report.Dist.SpinTimeCollect, s.Dist.SpinTimeCollect)
	report.Done()
	return report
}
