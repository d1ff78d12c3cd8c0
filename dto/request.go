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
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/zintix-labs/lootreel/errs"
	"github.com/zintix-labs/lootreel/spec"
)

// 防止 body 過大（1MiB）
const maxBody = 1 << 20

// SessionRequest 建立 session：以名稱或編號指定機台（名稱優先）
type SessionRequest struct {
	Machine string   `json:"machine"`
	MID     spec.MID `json:"mid,omitempty"`
}

// TickRequest 推進機台時間：frames 次、每次 dt 秒
type TickRequest struct {
	DT     float64 `json:"dt"`
	Frames int     `json:"frames"`
}

const (
	DefaultTickDT   = 1.0 / 60
	MaxTickFrames   = 60 * 60 * 10 // 單次請求最多推進 10 分鐘（60fps）
	MaxSimCycles    = 200_000      // HTTP 同步模擬上限；大量模擬請用 cmd/run
	DefaultSimCycle = 1_000
)

// SimRequest 模擬請求
type SimRequest struct {
	Machine string   `json:"machine"`
	MID     spec.MID `json:"mid,omitempty"`
	Cycles  int      `json:"cycles"`
	Workers int      `json:"workers"`
	Seed    *int64   `json:"seed,omitempty"` // nil = 由伺服器產生
}

// DecodeSessionRequest POST JSON body；未知欄位嚴格拒絕。
func DecodeSessionRequest(r *http.Request) (*SessionRequest, error) {
	req := new(SessionRequest)
	if err := decodeJSON(r, req, false); err != nil {
		return nil, err
	}
	if req.Machine == "" && req.MID == 0 {
		return nil, errs.NewWarn("machine or mid required")
	}
	return req, nil
}

// DecodeTickRequest 允許空 body（套用預設值）。
func DecodeTickRequest(r *http.Request) (*TickRequest, error) {
	req := new(TickRequest)
	if err := decodeJSON(r, req, true); err != nil {
		return nil, err
	}
	if req.DT == 0 {
		req.DT = DefaultTickDT
	}
	if req.Frames == 0 {
		req.Frames = 1
	}
	if !(req.DT > 0) || req.DT > 1 {
		return nil, errs.Warnf("dt must be in (0,1], got %v", req.DT)
	}
	if req.Frames < 0 || req.Frames > MaxTickFrames {
		return nil, errs.Warnf("frames must be in [1,%d], got %d", MaxTickFrames, req.Frames)
	}
	return req, nil
}

// DecodeSimRequest 把 HTTP 請求解碼成 SimRequest。
//
// 支援：
//   - GET：從 query string 讀取參數（machine/mid/cycles/workers/seed）。
//   - POST：從 JSON body 反序列化。
//
// 這裡只負責解碼與範圍檢查；機台是否存在由上層決定。
func DecodeSimRequest(r *http.Request) (*SimRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}
	req := new(SimRequest)

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.Machine = q.Get("machine")
		if s := q.Get("mid"); s != "" {
			u, err := strconv.ParseUint(s, 10, 32)
			if err != nil {
				return nil, errs.Warnf("invalid mid: %v", err)
			}
			req.MID = spec.MID(u)
		}
		if s := q.Get("cycles"); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return nil, errs.Warnf("invalid cycles: %v", err)
			}
			req.Cycles = v
		}
		if s := q.Get("workers"); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return nil, errs.Warnf("invalid workers: %v", err)
			}
			req.Workers = v
		}
		if s := q.Get("seed"); s != "" {
			v, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, errs.Warnf("invalid seed: %v", err)
			}
			req.Seed = &v
		}
	case http.MethodPost:
		if err := decodeJSON(r, req, false); err != nil {
			return nil, err
		}
	default:
		return nil, errs.NewWarn("method not allowed")
	}

	if req.Machine == "" && req.MID == 0 {
		return nil, errs.NewWarn("machine or mid required")
	}
	if req.Cycles == 0 {
		req.Cycles = DefaultSimCycle
	}
	if req.Cycles < 0 || req.Cycles > MaxSimCycles {
		return nil, errs.Warnf("cycles must be in [1,%d], got %d", MaxSimCycles, req.Cycles)
	}
	if req.Workers < 0 {
		return nil, errs.Warnf("workers must be >= 0, got %d", req.Workers)
	}
	return req, nil
}

func decodeJSON(r *http.Request, out any, allowEmpty bool) error {
	if r == nil || r.Body == nil {
		if allowEmpty {
			return nil
		}
		return errs.NewWarn("empty body")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		if err == io.EOF && allowEmpty {
			return nil
		}
		w := errs.Wrap(err, "invalid json")
		w.ErrLv = errs.Warn
		return w
	}
	return nil
}
