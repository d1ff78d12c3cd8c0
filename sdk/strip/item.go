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

package strip

// Item 捲軸上的一格。
//
// Item 在初始化時由 Factory 建立一次，之後整個 session 重複使用：
// 回收時只改 offset 與 sprite，身分（ID）不變。
type Item struct {
	id     int
	offset float64
	sprite int

	// Handle 給外部協作者（渲染層）掛自己的視覺物件，核心不讀不寫。
	Handle any
}

// NewItem 建立一個尚未放入 Strip 的 Item，供 Factory.Create 使用。
func NewItem() *Item {
	return &Item{id: -1}
}

// ID 在 Strip 內的建立順序索引
func (it *Item) ID() int { return it.id }

// Offset 垂直位移（0 為視窗中心，往上為正）
func (it *Item) Offset() float64 { return it.offset }

// Sprite 目前指派的圖標索引
func (it *Item) Sprite() int { return it.sprite }

// SetSprite 由 Factory 指派圖標索引
func (it *Item) SetSprite(i int) { it.sprite = i }
