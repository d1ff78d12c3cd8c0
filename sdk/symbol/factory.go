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

// Package symbol 提供預設的 strip.Factory：以圖標名稱清單做輪替指派。
package symbol

import (
	"strings"

	"github.com/zintix-labs/lootreel/errs"
	"github.com/zintix-labs/lootreel/sdk/strip"
)

// RoundRobin 依建立順序指派圖標，回收時每個 Item 各自往下一個圖標前進。
type RoundRobin struct {
	names   []string
	created int
}

var _ strip.Factory = (*RoundRobin)(nil)

// NewRoundRobin 以圖標名稱建立 Factory；名稱不可為空、不可重複。
func NewRoundRobin(names []string) (*RoundRobin, error) {
	if len(names) == 0 {
		return nil, errs.Configf("symbol: at least one symbol required")
	}
	seen := make(map[string]struct{}, len(names))
	cp := make([]string, len(names))
	for i, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			return nil, errs.Configf("symbol: empty symbol name at %d", i)
		}
		if _, ok := seen[n]; ok {
			return nil, errs.Configf("symbol: duplicate symbol %q", n)
		}
		seen[n] = struct{}{}
		cp[i] = n
	}
	return &RoundRobin{names: cp}, nil
}

func (f *RoundRobin) VarietyCount() int { return len(f.names) }

// Create 第 k 個建立的 Item 拿到圖標 k mod variety
func (f *RoundRobin) Create(_ *strip.Strip) *strip.Item {
	it := strip.NewItem()
	it.SetSprite(f.created % len(f.names))
	f.created++
	return it
}

// AssignNextSprite (i+1) mod variety
func (f *RoundRobin) AssignNextSprite(it *strip.Item) {
	if it == nil {
		return
	}
	it.SetSprite((it.Sprite() + 1) % len(f.names))
}

// Name 圖標索引對應名稱；超出範圍回傳空字串
func (f *RoundRobin) Name(i int) string {
	if i < 0 || i >= len(f.names) {
		return ""
	}
	return f.names[i]
}

// Names 圖標名稱（複本）
func (f *RoundRobin) Names() []string {
	return append([]string(nil), f.names...)
}
