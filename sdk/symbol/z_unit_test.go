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

package symbol

import (
	"testing"

	"github.com/zintix-labs/lootreel/errs"
)

func TestNewRoundRobinValidation(t *testing.T) {
	for _, names := range [][]string{nil, {"A", " "}, {"A", "B", "A"}} {
		if _, err := NewRoundRobin(names); !errs.IsConfig(err) {
			t.Fatalf("%v: expected config error, got %v", names, err)
		}
	}
}

func TestRoundRobinAssignment(t *testing.T) {
	f, err := NewRoundRobin([]string{"common", "rare", "epic"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	want := []int{0, 1, 2, 0, 1}
	for i, w := range want {
		if got := f.Create(nil).Sprite(); got != w {
			t.Fatalf("item %d sprite %d want %d", i, got, w)
		}
	}
	it := f.Create(nil) // sprite 2
	f.AssignNextSprite(it)
	if it.Sprite() != 0 || f.Name(it.Sprite()) != "common" {
		t.Fatalf("wrap around: %d %q", it.Sprite(), f.Name(it.Sprite()))
	}
	f.AssignNextSprite(nil)
	if f.Name(3) != "" || f.Name(-1) != "" || f.VarietyCount() != 3 {
		t.Fatalf("name bounds")
	}
	names := f.Names()
	names[0] = "x"
	if f.Name(0) != "common" {
		t.Fatalf("Names must return a copy")
	}
}
