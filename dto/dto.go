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

package dto

import (
	"github.com/zintix-labs/lootreel/sdk/event"
	"github.com/zintix-labs/lootreel/spec"
)

// MachineState 機台當下狀態快照
type MachineState struct {
	Session     string         `json:"session,omitempty"` // 伺服器 session id
	Machine     string         `json:"machine"`           // 機台名稱
	MID         spec.MID       `json:"mid"`               // 機台編號
	Phase       string         `json:"phase"`             // idle / spinning / stopping / result
	Controls    event.Controls `json:"controls"`          // 按鈕可用旗標
	Motion      string         `json:"motion"`            // 轉輪運動子狀態
	Speed       float64        `json:"speed"`             // 目前捲動速度
	Scrolling   bool           `json:"scrolling"`
	TimeInPhase float64        `json:"time_in_phase"`
	Clock       float64        `json:"clock"`  // 機台累計時間（秒）
	Frames      uint64         `json:"frames"` // 累計 Update 次數
	Cycles      uint64         `json:"cycles"` // 已完成的轉動次數
	Items       []ItemState    `json:"items,omitempty"`
	Last        *Result        `json:"last,omitempty"` // 最近一次結果
}

// ItemState 轉輪上單一格
type ItemState struct {
	ID     int     `json:"id"`
	Offset float64 `json:"offset"`
	Sprite int     `json:"sprite"`
	Symbol string  `json:"symbol"`
}

// Result 一次轉動停在中心線上的結果
type Result struct {
	Cycle    uint64   `json:"cycle"`
	Machine  string   `json:"machine"`
	MID      spec.MID `json:"mid"`
	ItemID   int      `json:"item"`
	Sprite   int      `json:"sprite"`
	Symbol   string   `json:"symbol"`
	Offset   float64  `json:"offset"`    // 停輪後中心格殘餘偏移（< snap_epsilon）
	SpinTime float64  `json:"spin_time"` // 從 start 到 result 的秒數
	At       float64  `json:"at"`        // 發生時的機台時間
}
