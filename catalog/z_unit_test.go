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

package catalog

import (
	"testing"
	"testing/fstest"

	"github.com/zintix-labs/lootreel/errs"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"alpha.yaml": {Data: []byte("machine_name: Alpha\nmachine_id: 2\nsymbols: [a, b, c]\n")},
		"beta.json":  {Data: []byte(`{"machine_name":"beta","machine_id":1,"symbols":["x"],"phase":{"stop_delay":2}}`)},
		"notes.txt":  {Data: []byte("ignored")},
	}
}

func TestDiscoverAndLookup(t *testing.T) {
	c, err := New(testFS())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := c.Discover(); err != nil {
		t.Fatalf("discover: %v", err)
	}
	ids := c.IDs()
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Fatalf("unexpected ids %v", ids)
	}
	ms, err := c.MachineSettingByName("  ALPHA ")
	if err != nil {
		t.Fatalf("by name: %v", err)
	}
	if len(ms.Symbols) != 3 {
		t.Fatalf("unexpected symbols %v", ms.Symbols)
	}
	ms, err = c.MachineSettingByID(1)
	if err != nil || ms.Phase.StopDelay != 2 {
		t.Fatalf("by id: %v %+v", err, ms)
	}
	sum, err := c.Summaries()
	if err != nil || len(sum) != 2 || sum[0].Name != "beta" || sum[1].Config != "alpha.yaml" {
		t.Fatalf("summaries: %v %+v", err, sum)
	}
}

func TestLookupMissing(t *testing.T) {
	c, _ := New(testFS())
	if _, err := c.MachineSettingByName("nope"); !errs.IsKind(err, errs.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := c.MachineSettingByID(99); !errs.IsKind(err, errs.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRegisterRules(t *testing.T) {
	c, _ := New(testFS())
	if err := c.Register(Entry{MID: 1, Name: "a", ConfigName: "missing.yaml"}); err == nil {
		t.Fatalf("missing config should fail")
	}
	if err := c.Register(Entry{MID: 1, Name: "a", ConfigName: "../alpha.yaml"}); err == nil {
		t.Fatalf("path in config name should fail")
	}
	if err := c.Register(
		Entry{MID: 1, Name: "a", ConfigName: "alpha.yaml"},
		Entry{MID: 1, Name: "b", ConfigName: "beta.json"},
	); err != ErrDupID {
		t.Fatalf("expected dup id, got %v", err)
	}
	c.Freeze()
	if err := c.Register(Entry{MID: 3, Name: "c", ConfigName: "alpha.yaml"}); err == nil {
		t.Fatalf("frozen catalog accepted register")
	}
}

func TestFlatFSRequired(t *testing.T) {
	fsys := fstest.MapFS{"sub/a.yaml": {Data: []byte("machine_name: a")}}
	if _, err := New(fsys); !errs.IsConfig(err) {
		t.Fatalf("nested fs should be rejected, got %v", err)
	}
	if _, err := New(); err == nil {
		t.Fatalf("no fs should fail")
	}
}
