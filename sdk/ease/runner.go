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

// Runner 持有目前唯一有效的 Path。
//
// Set 會作廢舊 Path：即使舊 Path 正在 Update 中（例如在自己的 Action 內 Set 了新 Path），
// 舊 Path 剩餘的段落也不會再回呼。零值可直接使用。
type Runner struct {
	cur *Path
}

// Set 指派新的 Path（可為 nil，等同 Clear）
func (r *Runner) Set(p *Path) {
	if r.cur != nil && r.cur != p {
		r.cur.Cancel()
	}
	r.cur = p
}

// Clear 作廢並移除目前的 Path
func (r *Runner) Clear() { r.Set(nil) }

// Active 回報是否有尚未完成的 Path
func (r *Runner) Active() bool {
	return r.cur != nil && !r.cur.Done()
}

// Path 目前持有的 Path（可能為 nil）
func (r *Runner) Path() *Path { return r.cur }

// Update 推進目前的 Path；完成後自動釋放。
func (r *Runner) Update(dt float64) {
	p := r.cur
	if p == nil {
		return
	}
	if p.Update(dt) && r.cur == p {
		r.cur = nil
	}
}
