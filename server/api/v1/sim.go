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

package v1

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/big"
	"net/http"
	"runtime"

	"github.com/zintix-labs/lootreel"
	"github.com/zintix-labs/lootreel/catalog"
	"github.com/zintix-labs/lootreel/dto"
	"github.com/zintix-labs/lootreel/errs"
	"github.com/zintix-labs/lootreel/server/httperr"
	"github.com/zintix-labs/lootreel/spec"
	"github.com/zintix-labs/lootreel/stats"
)

// 內部結構 不影響外部 也不被外部使用
type simResponse struct {
	Seed     int64             `json:"seed"`
	Stats    *stats.StatReport `json:"stats"`
	UsedTime int64             `json:"used_ms"`
}

type SimHandler struct {
	Lootreel *lootreel.Lootreel
}

func NewSimHandler(lr *lootreel.Lootreel) (*SimHandler, error) {
	if lr == nil {
		return nil, errs.NewFatal("lootreel is required")
	}
	return &SimHandler{Lootreel: lr}, nil
}

// Sim GET|POST /v1/sim
func (sh *SimHandler) Sim(w http.ResponseWriter, q *http.Request) {
	if q.Method != http.MethodGet && q.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req, err := dto.DecodeSimRequest(q)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	// 業務檢驗：名稱優先
	mid := req.MID
	if req.Machine != "" {
		ent, ok := sh.Lootreel.EntryByName(req.Machine)
		if !ok {
			httperr.Errs(w, errs.NotFoundf("machine %q not found", req.Machine))
			return
		}
		mid = ent.MID
	} else if _, ok := sh.Lootreel.EntryByID(mid); !ok {
		httperr.Errs(w, errs.NotFoundf("mid %d not found", mid))
		return
	}
	seed, err := resolveSeed(req.Seed)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	sim, err := sh.Lootreel.NewSimulatorWithSeed(mid, seed)
	if err != nil {
		// 這裡的錯誤是來自 lootreel 尊重錯誤分級
		httperr.Errs(w, errs.Wrap(err, fmt.Sprintf("build simulator err: %d", mid)))
		return
	}
	sh.run(w, sim, req.Cycles, req.Workers, seed)
}

// SimByCfg POST /v1/simbycfg：以外部送來的機台設定（JSON）直接模擬，不需要註冊在目錄內
func (sh *SimHandler) SimByCfg(w http.ResponseWriter, q *http.Request) {
	type simByCfgRequest struct {
		Setting json.RawMessage `json:"setting"`
		Cycles  int             `json:"cycles"`
		Workers int             `json:"workers"`
		Seed    *int64          `json:"seed,omitempty"`
	}
	if q.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req := new(simByCfgRequest)
	if err := json.NewDecoder(io.LimitReader(q.Body, 1<<20)).Decode(req); err != nil {
		httperr.Errs(w, errs.NewWarn("invalid json:"+err.Error()))
		return
	}
	if len(req.Setting) == 0 {
		httperr.Errs(w, errs.NewWarn("setting is required"))
		return
	}
	if req.Cycles == 0 {
		req.Cycles = dto.DefaultSimCycle
	}
	if req.Cycles < 0 || req.Cycles > dto.MaxSimCycles {
		httperr.Errs(w, errs.Warnf("cycles must be in [1,%d], got %d", dto.MaxSimCycles, req.Cycles))
		return
	}
	seed, err := resolveSeed(req.Seed)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	sim, err := sh.Lootreel.NewSimulatorByJSON(req.Setting, seed)
	if err != nil {
		httperr.Errs(w, errs.Wrap(err, "build simulator by setting err"))
		return
	}
	sh.run(w, sim, req.Cycles, req.Workers, seed)
}

func (sh *SimHandler) run(w http.ResponseWriter, sim *lootreel.Simulator, cycles, workers int, seed int64) {
	// 總循環數向上取整平均分給 workers；workers 以 CPU 數為上限
	workers = min(max(1, workers), runtime.NumCPU(), cycles)
	per := (cycles + workers - 1) / workers
	st, used, err := sim.SimMP(per, workers, false)
	if err != nil {
		// 這裡的錯誤來自 simulator 尊重錯誤分級
		httperr.Errs(w, errs.Wrap(err, "simulate err"))
		return
	}
	writeJSON(w, http.StatusOK, simResponse{Seed: seed, Stats: st, UsedTime: used.Milliseconds()})
}

// resolveSeed nil 時以 crypto/rand 產生
func resolveSeed(s *int64) (int64, error) {
	if s != nil {
		return *s, nil
	}
	rnd, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return 0, errs.NewWarn("seed generate failed")
	}
	return rnd.Int64(), nil
}

// Machines GET /v1/machines
func (sh *SimHandler) Machines(w http.ResponseWriter, q *http.Request) {
	type machinesResponse struct {
		IDs      []spec.MID        `json:"ids"`
		Machines []catalog.Summary `json:"machines"`
	}
	sum, err := sh.Lootreel.Summary()
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, machinesResponse{IDs: sh.Lootreel.IDs(), Machines: sum})
}
