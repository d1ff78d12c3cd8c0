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

package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/zintix-labs/lootreel"
	"github.com/zintix-labs/lootreel/dto"
	"github.com/zintix-labs/lootreel/sdk/core"
	"github.com/zintix-labs/lootreel/server/httperr"
	"github.com/zintix-labs/lootreel/server/logger"
	"github.com/zintix-labs/lootreel/server/netsvr"
	"github.com/zintix-labs/lootreel/server/svrcfg"
	"github.com/zintix-labs/lootreel/stats"
)

const testYAML = `
machine_name: testbox
machine_id: 7
phase:
  stop_delay: 0.5
symbols: [A, B, C]
sim:
  frame_dt: 0.05
  reaction_mean: 0.3
  result_hold: 0.2
`

const settingJSON = `{"machine_name":"adhoc","machine_id":99,"symbols":["X","Y"],"phase":{"stop_delay":0.2},"sim":{"frame_dt":0.05}}`

func newTestServer(t *testing.T) netsvr.NetSvr {
	t.Helper()
	fsys := fstest.MapFS{"testbox.yaml": &fstest.MapFile{Data: []byte(testYAML)}}
	lab, err := lootreel.NewAuto(core.Default(), lootreel.Configs(fsys))
	if err != nil {
		t.Fatalf("new lab: %v", err)
	}
	sCfg := &svrcfg.SvrCfg{
		Log:         logger.NewDefaultLogger(logger.ModeSilence),
		MaxSessions: 4,
		Lootreel:    lab,
	}
	if err := sCfg.Valid(); err != nil {
		t.Fatalf("config: %v", err)
	}
	svr := netsvr.NewChiServer()
	sh, err := RegisterRoutes(svr, sCfg)
	if err != nil {
		t.Fatalf("routes: %v", err)
	}
	t.Cleanup(sh.Pool().Close)
	return svr
}

func call(t *testing.T, h http.Handler, method, path, body string, out any) int {
	t.Helper()
	var rd *bytes.Reader
	if body != "" {
		rd = bytes.NewReader([]byte(body))
	} else {
		rd = bytes.NewReader(nil)
	}
	r := httptest.NewRequest(method, path, rd)
	if body != "" {
		r.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	if out != nil && rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code
}

type triggerResp struct {
	Accepted bool             `json:"accepted"`
	State    dto.MachineState `json:"state"`
}

type tickResp struct {
	Results []dto.Result     `json:"results"`
	State   dto.MachineState `json:"state"`
}

func TestSessionLifecycle(t *testing.T) {
	svr := newTestServer(t)

	var st dto.MachineState
	if code := call(t, svr, http.MethodPost, "/v1/sessions", `{"machine":"testbox"}`, &st); code != http.StatusCreated {
		t.Fatalf("create: %d", code)
	}
	if st.Session == "" || st.Phase != "idle" || !st.Controls.StartEnabled || len(st.Items) == 0 {
		t.Fatalf("unexpected initial state %+v", st)
	}
	base := "/v1/sessions/" + st.Session

	var tr triggerResp
	if code := call(t, svr, http.MethodPost, base+"/trigger/stop", "", &tr); code != http.StatusOK || tr.Accepted {
		t.Fatalf("stop while idle: code=%d accepted=%v", code, tr.Accepted)
	}
	if code := call(t, svr, http.MethodPost, base+"/trigger/start", "", &tr); code != http.StatusOK || !tr.Accepted {
		t.Fatalf("start: code=%d accepted=%v", code, tr.Accepted)
	}
	if tr.State.Phase != "spinning" || tr.State.Controls.StartEnabled {
		t.Fatalf("after start %+v", tr.State)
	}

	var tk tickResp
	if code := call(t, svr, http.MethodPost, base+"/tick", `{"dt":0.05,"frames":10}`, &tk); code != http.StatusOK {
		t.Fatalf("tick: %d", code)
	}
	if !tk.State.Controls.StopEnabled || len(tk.Results) != 0 {
		t.Fatalf("stop should be enabled after 0.5s: %+v", tk.State)
	}
	if code := call(t, svr, http.MethodPost, base+"/trigger/stop", "", &tr); code != http.StatusOK || !tr.Accepted {
		t.Fatalf("stop: code=%d accepted=%v", code, tr.Accepted)
	}
	if tr.State.Phase != "stopping" {
		t.Fatalf("after stop %+v", tr.State)
	}

	tk = tickResp{}
	if code := call(t, svr, http.MethodPost, base+"/tick", `{"dt":0.05,"frames":60}`, &tk); code != http.StatusOK {
		t.Fatalf("tick to result: %d", code)
	}
	if tk.State.Phase != "result" || len(tk.Results) != 1 {
		t.Fatalf("expected one result, state=%+v results=%v", tk.State, tk.Results)
	}
	if tk.Results[0].Symbol == "" || tk.State.Cycles != 1 {
		t.Fatalf("bad result %+v", tk.Results[0])
	}

	var eb httperr.Body
	if code := call(t, svr, http.MethodPost, base+"/trigger/bonus", "", &eb); code != http.StatusBadRequest {
		t.Fatalf("unknown trigger: %d", code)
	}
	if code := call(t, svr, http.MethodPost, base+"/tick", `{"dt":-1}`, &eb); code != http.StatusBadRequest {
		t.Fatalf("negative dt: %d", code)
	}
	// 0.9 秒 * 2000 超過 testbox 帶子一次可回收的 1600
	if code := call(t, svr, http.MethodPost, base+"/tick", `{"dt":0.9}`, &eb); code != http.StatusBadRequest {
		t.Fatalf("dt past strip span: %d", code)
	}

	if code := call(t, svr, http.MethodDelete, base, "", nil); code != http.StatusNoContent {
		t.Fatalf("delete: %d", code)
	}
	eb = httperr.Body{}
	if code := call(t, svr, http.MethodGet, base, "", &eb); code != http.StatusNotFound || eb.Kind != "not_found" {
		t.Fatalf("get deleted: code=%d body=%+v", code, eb)
	}

	var m lootreel.SessionPoolMetrics
	if code := call(t, svr, http.MethodGet, "/v1/sessions", "", &m); code != http.StatusOK {
		t.Fatalf("metrics: %d", code)
	}
	if m.Created != 1 || m.Deleted != 1 || m.Sessions != 0 || m.MaxSessions != 4 {
		t.Fatalf("metrics %+v", m)
	}
}

func TestCreateSessionErrors(t *testing.T) {
	svr := newTestServer(t)
	var eb httperr.Body
	if code := call(t, svr, http.MethodPost, "/v1/sessions", `{"machine":"nope"}`, &eb); code != http.StatusNotFound {
		t.Fatalf("unknown machine: %d", code)
	}
	if code := call(t, svr, http.MethodPost, "/v1/sessions", `{}`, &eb); code != http.StatusBadRequest {
		t.Fatalf("empty request: %d", code)
	}
	if code := call(t, svr, http.MethodPost, "/v1/sessions", `{"machine":"testbox","extra":1}`, &eb); code != http.StatusBadRequest {
		t.Fatalf("unknown field: %d", code)
	}
	if code := call(t, svr, http.MethodGet, "/v1/nowhere", "", &eb); code != http.StatusNotFound {
		t.Fatalf("unknown route: %d", code)
	}
}

func TestSimEndpoints(t *testing.T) {
	svr := newTestServer(t)

	var ms struct {
		IDs []uint32 `json:"ids"`
	}
	if code := call(t, svr, http.MethodGet, "/v1/machines", "", &ms); code != http.StatusOK || len(ms.IDs) != 1 || ms.IDs[0] != 7 {
		t.Fatalf("machines: code=%d %+v", code, ms)
	}

	type simResp struct {
		Seed  int64             `json:"seed"`
		Stats *stats.StatReport `json:"stats"`
	}
	var a, b simResp
	if code := call(t, svr, http.MethodGet, "/v1/sim?machine=testbox&cycles=12&seed=42", "", &a); code != http.StatusOK {
		t.Fatalf("sim: %d", code)
	}
	if a.Seed != 42 || a.Stats == nil || a.Stats.Summary.Cycles != 12 {
		t.Fatalf("sim response %+v", a)
	}
	if code := call(t, svr, http.MethodPost, "/v1/sim", `{"mid":7,"cycles":12,"seed":42}`, &b); code != http.StatusOK {
		t.Fatalf("sim post: %d", code)
	}
	for i := range a.Stats.Landing.Counts {
		if a.Stats.Landing.Counts[i] != b.Stats.Landing.Counts[i] {
			t.Fatalf("same seed, different landing %v vs %v", a.Stats.Landing.Counts, b.Stats.Landing.Counts)
		}
	}

	var eb httperr.Body
	if code := call(t, svr, http.MethodGet, "/v1/sim?machine=nope", "", &eb); code != http.StatusNotFound {
		t.Fatalf("unknown machine: %d", code)
	}
	if code := call(t, svr, http.MethodGet, "/v1/sim?mid=7&cycles=-1", "", &eb); code != http.StatusBadRequest {
		t.Fatalf("bad cycles: %d", code)
	}

	var c simResp
	if code := call(t, svr, http.MethodPost, "/v1/simbycfg", `{"setting":`+settingJSON+`,"cycles":5,"seed":1}`, &c); code != http.StatusOK {
		t.Fatalf("simbycfg: %d", code)
	}
	if c.Stats.Summary.MachineName != "adhoc" || c.Stats.Summary.Cycles != 5 {
		t.Fatalf("simbycfg summary %+v", c.Stats.Summary)
	}
	if code := call(t, svr, http.MethodPost, "/v1/simbycfg", `{"setting":{"machine_name":"bad","symbols":[]}}`, &eb); code != http.StatusBadRequest || eb.Kind != "config" {
		t.Fatalf("bad setting: code=%d body=%+v", code, eb)
	}
}
