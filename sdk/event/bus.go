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

// Package event 提供單執行緒的具名事件匯流排，取代反射式的事件綁定。
//
// 派送模型：
//   - Publish 將事件放入 FIFO 佇列；若目前沒有派送中，立即派送到佇列清空為止。
//   - handler 內再 Publish 只會排隊，等目前的 handler 返回後才派送（run-to-completion），
//     因此 handler 永遠不會被重入。
//   - 同一事件的 handler 依註冊順序呼叫。
//
// Bus 不是 goroutine safe：一台機台的所有元件都在同一個 tick 執行緒上。
package event

// Name 具名事件
type Name string

const (
	Start           Name = "start"            // UI：開始鈕
	Stop            Name = "stop"             // UI：停止鈕
	ReelStopped     Name = "reel stopped"     // 轉輪 -> 狀態機：停輪完成
	PhaseChanged    Name = "phase changed"    // 狀態機 -> 所有人：Phase 字串
	ControlsChanged Name = "controls changed" // 狀態機 -> UI：按鈕可用旗標
	ResultEffect    Name = "result effect"    // 狀態機 -> 特效：fire-and-forget
)

// Controls 按鈕可用旗標
type Controls struct {
	StartEnabled bool `json:"start_enabled"`
	StopEnabled  bool `json:"stop_enabled"`
}

// Event 事件內容；各欄位是否有意義依 Name 而定。
type Event struct {
	Name     Name
	Phase    string   // PhaseChanged
	Controls Controls // ControlsChanged / PhaseChanged
}

// Handler 事件處理函數
type Handler func(ev Event)

// Publisher 只能發佈的窄介面，注入給不需要訂閱的元件
type Publisher interface {
	Publish(ev Event)
}

// Bus 具名事件匯流排
type Bus struct {
	handlers    map[Name][]Handler
	queue       []Event
	dispatching bool
	published   uint64
}

var _ Publisher = (*Bus)(nil)

func NewBus() *Bus {
	return &Bus{
		handlers: make(map[Name][]Handler, 8),
		queue:    make([]Event, 0, 8),
	}
}

// Subscribe 註冊 handler
func (b *Bus) Subscribe(name Name, h Handler) {
	if h == nil {
		return
	}
	b.handlers[name] = append(b.handlers[name], h)
}

// Publish 排入事件並在最外層呼叫時派送至佇列清空
func (b *Bus) Publish(ev Event) {
	b.queue = append(b.queue, ev)
	b.published++
	if b.dispatching {
		return
	}
	b.dispatching = true
	defer func() {
		b.queue = b.queue[:0]
		b.dispatching = false
	}()

	for i := 0; i < len(b.queue); i++ {
		cur := b.queue[i]
		for _, h := range b.handlers[cur.Name] {
			h(cur)
		}
	}
}

// Emit 只帶名稱的事件（start / stop / reel stopped / result effect）
func (b *Bus) Emit(name Name) {
	b.Publish(Event{Name: name})
}

// HandlerCount 指定事件的 handler 數
func (b *Bus) HandlerCount(name Name) int {
	return len(b.handlers[name])
}

// Published 累計發佈次數
func (b *Bus) Published() uint64 { return b.published }
