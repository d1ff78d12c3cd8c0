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

// Package strip 實作虛擬捲動緩衝（virtual scroll buffer）：
// 固定數量的 Item 排成一條以 0 為中心的帶子，往下捲出 bottom 門檻的 Item 會被搬到最上方，
// 形成無限長捲軸的錯覺。
package strip

import (
	"math"

	"github.com/zintix-labs/lootreel/errs"
)

// MaxItems 單一 Strip 允許的最大 Item 數，避免極端設定（極小 pitch）配置出無上限的陣列。
const MaxItems = 4096

// Factory 外部協作者：負責建立 Item 與推進其圖標。
// 核心只依賴這三個操作，不關心渲染細節。
type Factory interface {
	// VarietyCount 可用圖標種類數
	VarietyCount() int
	// Create 建立一個屬於 parent 的新 Item，並指派初始圖標
	Create(parent *Strip) *Item
	// AssignNextSprite 以決定性的輪替順序推進 Item 的圖標
	AssignNextSprite(it *Item)
}

// Strip 虛擬捲動緩衝
type Strip struct {
	items   []*Item
	pitch   float64
	top     float64
	bottom  float64
	variety int
	factory Factory
}

// Count 依規則計算 Item 數量：
//
//	n = max(minCount, ceil(windowHeight/pitch)+2)
//	variety >= 2 時再向上取整到 variety 的倍數，讓圖標輪替平均重複
func Count(windowHeight, pitch float64, minCount, variety int) (int, error) {
	if err := validGeometry(windowHeight, pitch, variety); err != nil {
		return 0, err
	}
	cover := math.Ceil(windowHeight/pitch) + 2
	if cover > MaxItems {
		return 0, errs.Configf("strip: window_height/item_pitch too large: %.0f items > %d", cover, MaxItems)
	}
	n := max(minCount, int(cover))
	if variety > 1 {
		n = (n + variety - 1) / variety * variety
	}
	if n > MaxItems {
		return 0, errs.Configf("strip: item count %d > %d", n, MaxItems)
	}
	return n, nil
}

// MaxStep 單次 Advance 允許的最大位移：(n-1)*pitch。
//
// 回收後最高的 Item 至少在 bottom+(n-1)*pitch，位移不小於此值時整條帶子
// 都會跌出 bottom，之後每幀只會越疊越低。
func MaxStep(n int, pitch float64) float64 {
	if n < 2 {
		return 0
	}
	return float64(n-1) * pitch
}

func validGeometry(windowHeight, pitch float64, variety int) error {
	if !finite(windowHeight) || windowHeight <= 0 {
		return errs.Configf("strip: window_height must be > 0, got %v", windowHeight)
	}
	if !finite(pitch) || pitch <= 0 {
		return errs.Configf("strip: item_pitch must be > 0, got %v", pitch)
	}
	if variety <= 0 {
		return errs.Configf("strip: variety_count must be > 0, got %d", variety)
	}
	return nil
}

// New 初始化 Strip。
//
// Item 依建立順序由上往下排列：offset_i = ((n-1)/2 - i) * pitch，
// 整條帶子以 0 為中心對稱、間距固定、無重疊。門檻 top = n/2*pitch，bottom = -top。
func New(windowHeight, pitch float64, minCount int, f Factory) (*Strip, error) {
	if f == nil {
		return nil, errs.Configf("strip: factory is required")
	}
	variety := f.VarietyCount()
	n, err := Count(windowHeight, pitch, minCount, variety)
	if err != nil {
		return nil, err
	}
	s := &Strip{
		items:   make([]*Item, 0, n),
		pitch:   pitch,
		variety: variety,
		factory: f,
	}
	for i := 0; i < n; i++ {
		it := f.Create(s)
		if it == nil {
			return nil, errs.Configf("strip: factory returned nil item at %d", i)
		}
		it.id = i
		s.items = append(s.items, it)
	}

	s.top = float64(n) / 2 * pitch
	s.bottom = -s.top

	half := float64(n-1) / 2
	for i, it := range s.items {
		it.offset = (half - float64(i)) * pitch
	}
	return s, nil
}

// Advance 整條帶子往負方向移動 d，並回收跌出 bottom 的 Item。
//
// 回收依原始索引順序處理；每次都以「其他 Item 的最新位置」求最高點，
// 因此同一次呼叫內多個 Item 被回收也不會撞在同一個位置。
// d 非正數或非有限值時不做事。回傳本次回收數量。
func (s *Strip) Advance(d float64) int {
	if !finite(d) || d <= 0 {
		return 0
	}
	for _, it := range s.items {
		it.offset -= d
	}
	recycled := 0
	for i, it := range s.items {
		if it.offset >= s.bottom {
			continue
		}
		it.offset = s.highestExcept(i) + s.pitch
		s.factory.AssignNextSprite(it)
		recycled++
	}
	return recycled
}

// highestExcept 除了索引 skip 之外的最高 offset
func (s *Strip) highestExcept(skip int) float64 {
	hi := math.Inf(-1)
	for i, it := range s.items {
		if i == skip {
			continue
		}
		if it.offset > hi {
			hi = it.offset
		}
	}
	if math.IsInf(hi, -1) {
		// 只有一個 Item：回到 top 下緣
		return s.top - s.pitch
	}
	return hi
}

// FindClosestToCenter 回傳 |offset| 最小的 Item；平手取迭代順序中的第一個。
func (s *Strip) FindClosestToCenter() (*Item, bool) {
	var best *Item
	bestDist := math.Inf(1)
	for _, it := range s.items {
		if d := math.Abs(it.offset); d < bestDist {
			bestDist = d
			best = it
		}
	}
	return best, best != nil
}

// ShiftAll 所有 Item 一起平移 delta（只在 snap 階段使用）
func (s *Strip) ShiftAll(delta float64) {
	if !finite(delta) {
		return
	}
	for _, it := range s.items {
		it.offset += delta
	}
}

// Highest 目前最高的 offset；空帶子回傳 0
func (s *Strip) Highest() float64 {
	if len(s.items) == 0 {
		return 0
	}
	return s.highestExcept(-1)
}

// Items 依建立順序回傳 Item（唯讀使用，請勿修改切片）
func (s *Strip) Items() []*Item { return s.items }

func (s *Strip) Len() int         { return len(s.items) }
func (s *Strip) MaxStep() float64 { return MaxStep(len(s.items), s.pitch) }
func (s *Strip) Pitch() float64   { return s.pitch }
func (s *Strip) Top() float64     { return s.top }
func (s *Strip) Bottom() float64  { return s.bottom }
func (s *Strip) Variety() int     { return s.variety }
func (s *Strip) Factory() Factory { return s.factory }

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
