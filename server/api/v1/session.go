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
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/zintix-labs/lootreel"
	"github.com/zintix-labs/lootreel/dto"
	"github.com/zintix-labs/lootreel/errs"
	"github.com/zintix-labs/lootreel/sdk/event"
	"github.com/zintix-labs/lootreel/server/httperr"
	"github.com/zintix-labs/lootreel/server/svrcfg"
)

// 單次請求最長處理時間
const requestTimeout = 5 * time.Second

// ============================================================
// ** SessionHandler **
// ============================================================

type SessionHandler struct {
	pool *lootreel.SessionPool
	log  *slog.Logger
}

func NewSessionHandler(sCfg *svrcfg.SvrCfg) (*SessionHandler, error) {
	pool, err := sCfg.Lootreel.NewSessionPool(sCfg.MaxSessions)
	if err != nil {
		return nil, errs.Wrap(err, "build session handler error")
	}
	return &SessionHandler{pool: pool, log: sCfg.Log}, nil
}

// Pool 供上層在關閉時釋放
func (h *SessionHandler) Pool() *lootreel.SessionPool { return h.pool }

// Create POST /v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, q *http.Request) {
	req, err := dto.DecodeSessionRequest(q)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	var (
		sid string
		m   *lootreel.Machine
	)
	if req.Machine != "" {
		sid, m, err = h.pool.CreateByName(req.Machine)
	} else {
		sid, m, err = h.pool.Create(req.MID)
	}
	if err != nil {
		httperr.Log(h.log, "create session", err)
		httperr.Errs(w, err)
		return
	}
	st := m.Snapshot(true)
	st.Session = sid
	writeJSON(w, http.StatusCreated, st)
}

// Get GET /v1/sessions/{id}?items=true
func (h *SessionHandler) Get(w http.ResponseWriter, q *http.Request) {
	sid := chi.URLParam(q, "id")
	withItems, _ := strconv.ParseBool(q.URL.Query().Get("items"))
	var st dto.MachineState
	err := h.do(q, sid, func(m *lootreel.Machine) error {
		st = m.Snapshot(withItems)
		return nil
	})
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	st.Session = sid
	writeJSON(w, http.StatusOK, st)
}

// Trigger POST /v1/sessions/{id}/trigger/{name}
//
// 時機不對的觸發不是錯誤：回 200 並以 accepted=false 表示被忽略。
func (h *SessionHandler) Trigger(w http.ResponseWriter, q *http.Request) {
	type triggerResponse struct {
		Accepted bool             `json:"accepted"`
		State    dto.MachineState `json:"state"`
	}
	sid := chi.URLParam(q, "id")
	name := event.Name(chi.URLParam(q, "name"))
	var resp triggerResponse
	err := h.do(q, sid, func(m *lootreel.Machine) error {
		ok, err := m.Trigger(name)
		if err != nil {
			return err
		}
		resp.Accepted = ok
		resp.State = m.Snapshot(false)
		return nil
	})
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	resp.State.Session = sid
	writeJSON(w, http.StatusOK, resp)
}

// Tick POST /v1/sessions/{id}/tick  body: {"dt":0.016,"frames":60}
func (h *SessionHandler) Tick(w http.ResponseWriter, q *http.Request) {
	type tickResponse struct {
		Results []dto.Result     `json:"results,omitempty"` // 本次推進期間產生的結果
		State   dto.MachineState `json:"state"`
	}
	req, err := dto.DecodeTickRequest(q)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	sid := chi.URLParam(q, "id")
	var resp tickResponse
	err = h.do(q, sid, func(m *lootreel.Machine) error {
		before, _ := m.Result()
		if err := m.Run(req.DT, req.Frames); err != nil {
			return err
		}
		if last, ok := m.Result(); ok && last.Cycle != before.Cycle {
			resp.Results = append(resp.Results, last)
		}
		resp.State = m.Snapshot(false)
		return nil
	})
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	resp.State.Session = sid
	writeJSON(w, http.StatusOK, resp)
}

// Delete DELETE /v1/sessions/{id}
func (h *SessionHandler) Delete(w http.ResponseWriter, q *http.Request) {
	if err := h.pool.Delete(chi.URLParam(q, "id")); err != nil {
		httperr.Errs(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Metrics GET /v1/sessions
func (h *SessionHandler) Metrics(w http.ResponseWriter, q *http.Request) {
	writeJSON(w, http.StatusOK, h.pool.Metrics())
}

func (h *SessionHandler) do(q *http.Request, sid string, fn func(m *lootreel.Machine) error) error {
	ctx, cancel := context.WithTimeout(q.Context(), requestTimeout)
	defer cancel()
	err := h.pool.Do(ctx, sid, fn)
	httperr.Log(h.log, "session "+sid, err)
	return err
}

// writeJSON 先編碼到記憶體，保證不會寫到一半才 error
func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		httperr.Errs(w, errs.Wrap(err, "encode response"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(b, '\n'))
}
