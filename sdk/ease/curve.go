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

// Package ease 提供以時間驅動的數值插值（easing）。
//
// 三個層次：
//   - Curve：t ∈ [0,1] -> [0,1] 的形狀函數。
//   - Stage / Path：一串可依序執行的插值段與動作段（Tween -> Action -> Tween ...）。
//   - Runner：持有「目前唯一有效」的 Path；指派新 Path 會立即作廢舊 Path。
//
// 本包沒有任何阻塞或 goroutine：所有推進都由呼叫端每個 tick 呼叫 Update(dt) 完成。
package ease

// Curve 將正規化時間 t 映射成進度。
type Curve func(t float64) float64

// Linear t
func Linear(t float64) float64 { return Clamp01(t) }

// CubicIn t³，慢起步後加速
func CubicIn(t float64) float64 {
	t = Clamp01(t)
	return t * t * t
}

// CubicOut 1-(1-t)³，減速至靜止
func CubicOut(t float64) float64 {
	t = Clamp01(t)
	u := 1 - t
	return 1 - u*u*u
}

// QuadOut 1-(1-t)²，較短的減速曲線，用於停輪對齊（snap）
func QuadOut(t float64) float64 {
	t = Clamp01(t)
	u := 1 - t
	return 1 - u*u
}

// Clamp01 將 t 夾在 [0,1]；NaN 視為 0。
func Clamp01(t float64) float64 {
	if !(t > 0) {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// Lerp 依進度 p 在 from/to 之間插值。
func Lerp(from, to, p float64) float64 {
	return from + (to-from)*p
}
