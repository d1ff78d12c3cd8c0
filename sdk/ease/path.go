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

import "math"

// StageKind 段落種類
type StageKind uint8

const (
	StageTween  StageKind = iota // 插值段：每個 tick 回呼一次插值結果
	StageAction                  // 動作段：執行一次後立即進入下一段
)

func (k StageKind) String() string {
	switch k {
	case StageTween:
		return "tween"
	case StageAction:
		return "action"
	default:
		return "unknown"
	}
}

// Stage 是一個明確的狀態物件：{種類, 已經過時間, 長度, 起訖值, 曲線, 回呼}。
//
// Path 以 Stage 陣列表示，轉換時整串替換，而不是靠閉包改寫共享欄位。
type Stage struct {
	Kind     StageKind
	Curve    Curve
	Duration float64
	From     float64
	To       float64
	Elapsed  float64
	Step     func(v float64) // Tween 每 tick 回呼
	Do       func()          // Action 回呼
}

// Value 回傳目前經過時間對應的插值結果。
func (s *Stage) Value() float64 {
	if s.Duration <= 0 {
		return s.To
	}
	c := s.Curve
	if c == nil {
		c = Linear
	}
	return Lerp(s.From, s.To, c(s.Elapsed/s.Duration))
}

// Path 一串依序執行的 Stage。
//
// 規則：
//   - Tween 段：elapsed < duration 時回呼插值結果；elapsed >= duration 時回呼一次「正好是 To」並結束。
//   - 超出該段長度的剩餘時間會帶入下一個 Tween 段。
//   - Action 段緊接在前一段結束的同一個 tick 內執行。
//   - 一旦被 cancel（通常是 Runner.Set 了新的 Path），不再有任何回呼。
type Path struct {
	stages    []Stage
	idx       int
	cancelled bool
}

// NewPath 建立空 Path
func NewPath() *Path {
	return &Path{stages: make([]Stage, 0, 4)}
}

// Tween 追加一個插值段
func (p *Path) Tween(c Curve, d, from, to float64, step func(float64)) *Path {
	if math.IsNaN(d) || d < 0 {
		d = 0
	}
	p.stages = append(p.stages, Stage{
		Kind:     StageTween,
		Curve:    c,
		Duration: d,
		From:     from,
		To:       to,
		Step:     step,
	})
	return p
}

// Action 追加一個動作段
func (p *Path) Action(fn func()) *Path {
	p.stages = append(p.stages, Stage{Kind: StageAction, Do: fn})
	return p
}

func (p *Path) CubicIn(d, from, to float64, step func(float64)) *Path {
	return p.Tween(CubicIn, d, from, to, step)
}

func (p *Path) CubicOut(d, from, to float64, step func(float64)) *Path {
	return p.Tween(CubicOut, d, from, to, step)
}

func (p *Path) QuadOut(d, from, to float64, step func(float64)) *Path {
	return p.Tween(QuadOut, d, from, to, step)
}

// Cancel 作廢此 Path，之後的 Update 不再產生任何回呼。
func (p *Path) Cancel() { p.cancelled = true }

// Cancelled 回報是否已被作廢
func (p *Path) Cancelled() bool { return p.cancelled }

// Done 回報所有段落是否已執行完畢（或已作廢）
func (p *Path) Done() bool {
	return p.cancelled || p.idx >= len(p.stages)
}

// Len 段落數
func (p *Path) Len() int { return len(p.stages) }

// Current 目前執行中的段落，沒有時回傳 nil
func (p *Path) Current() *Stage {
	if p.Done() {
		return nil
	}
	return &p.stages[p.idx]
}

// Update 推進 dt 秒，回傳 Path 是否已完成。
func (p *Path) Update(dt float64) bool {
	if math.IsNaN(dt) || dt < 0 {
		dt = 0
	}
	for !p.Done() {
		s := &p.stages[p.idx]
		switch s.Kind {
		case StageAction:
			p.idx++
			if s.Do != nil {
				s.Do()
			}
		default:
			s.Elapsed += dt
			if s.Elapsed < s.Duration {
				if s.Step != nil {
					s.Step(s.Value())
				}
				return p.Done()
			}
			// 本段結束：剩餘時間帶入下一段
			dt = s.Elapsed - s.Duration
			p.idx++
			if s.Step != nil {
				s.Step(s.To)
			}
		}
	}
	return true
}
