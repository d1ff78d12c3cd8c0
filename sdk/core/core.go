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

// Package core 模擬器使用的決定性亂數來源。
//
// 轉輪本身沒有任何亂數：落點完全由時間決定。亂數只用在模擬「玩家反應」，
// 也就是 stop 開放後玩家過多久才按下 stop，藉此讓落點分佈有意義。
package core

import "math"

// PRNG 定義 Core 所需的亂數來源，需同時支援取樣與狀態保存/還原。
type PRNG interface {
	RAND
	Restorable
}

// Restorable 定義可快照與還原的狀態介面。
type Restorable interface {
	Snapshot() ([]byte, error)
	Restore([]byte) error
}

// RAND 定義核心亂數取樣能力。
type RAND interface {
	// Uint64 回傳非負 uint64 亂數。
	Uint64() uint64
	// Float64 回傳 [0,1) 的浮點亂數。
	Float64() float64
	// IntN 回傳 [0,max) 的 int 亂數，若 max <= 0 回傳 -1。
	IntN(int) int
}

type PRNGFactory interface {
	// New 以指定 seed 建立新的 PRNG。
	//
	// 合約：相同實作下 New(seed) 必須是決定性的，相同 seed 產生相同的輸出序列，
	// 模擬結果才能以 seed 重現。
	New(int64) PRNG
}

// DefaultPRNG 預設的 PRNGFactory（PCG64）
type DefaultPRNG struct{}

func (d *DefaultPRNG) New(seed int64) PRNG {
	return newPCG64WithSeed(seed)
}

func Default() *DefaultPRNG {
	return &DefaultPRNG{}
}

// Core 封裝 PRNG，並提供模擬用的取樣方法。
type Core struct {
	PRNG
}

// New 允許使用外部自實現的 PRNG 建立 Core。
func New(rng PRNG) *Core {
	return &Core{rng}
}

// Uniform 回傳 [lo,hi) 的均勻亂數；hi <= lo 時回傳 lo
func (c *Core) Uniform(lo, hi float64) float64 {
	if !(hi > lo) {
		return lo
	}
	return lo + (hi-lo)*c.Float64()
}

// ExpFloat64 回傳參數為 1 的指數分佈亂數（反函數法）
func (c *Core) ExpFloat64() float64 {
	// 1-U 落在 (0,1]，避免 log(0)
	return -math.Log(1 - c.Float64())
}

// Reaction 玩家反應時間：min + Exp(mean)，並截斷在 max（max <= 0 表示不截斷）。
func (c *Core) Reaction(min, mean, max float64) float64 {
	if min < 0 || math.IsNaN(min) {
		min = 0
	}
	d := min
	if mean > 0 {
		d += mean * c.ExpFloat64()
	}
	if max > 0 && d > max {
		d = max
	}
	return d
}
