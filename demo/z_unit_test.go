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

package demo

import (
	"testing"

	"github.com/zintix-labs/lootreel/spec"
)

func TestDemoMachinesLoad(t *testing.T) {
	lab, err := NewLootreel(nil)
	if err != nil {
		t.Fatalf("new lootreel: %v", err)
	}
	for _, name := range []string{"lootbox", "arcade"} {
		ent, ok := lab.EntryByName(name)
		if !ok {
			t.Fatalf("%s not registered", name)
		}
		sim, err := lab.NewSimulatorWithSeed(ent.MID, 7)
		if err != nil {
			t.Fatalf("%s simulator: %v", name, err)
		}
		st, _, err := sim.Sim(3, false)
		if err != nil {
			t.Fatalf("%s sim: %v", name, err)
		}
		if st.Summary.Cycles != 3 {
			t.Fatalf("%s cycles %d", name, st.Summary.Cycles)
		}
	}
}

func TestLootboxFixedTheme(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	ms, err := c.MachineSettingByName("lootbox")
	if err != nil {
		t.Fatalf("setting: %v", err)
	}
	var fixed struct {
		Theme string `yaml:"theme"`
	}
	if err := spec.DecodeFixed(ms, &fixed); err != nil || fixed.Theme != "classic" {
		t.Fatalf("fixed theme %q err %v", fixed.Theme, err)
	}
	if len(ms.Symbols) != 5 || ms.MachineID != 1001 {
		t.Fatalf("lootbox setting %+v", ms)
	}
}
