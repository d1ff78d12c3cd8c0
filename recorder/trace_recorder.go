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

package recorder

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/lootreel/errs"
)

// Frame 單幀轉輪狀態
type Frame struct {
	T      float64 `json:"t"`
	Phase  string  `json:"phase"`
	Motion string  `json:"motion"`
	Speed  float64 `json:"speed"`
	Center int     `json:"center"` // 中心格 Item ID
	Offset float64 `json:"offset"` // 中心格偏移
}

// TraceRecorder 以 zstd 壓縮的 JSON Lines 逐幀寫出轉輪軌跡
type TraceRecorder struct {
	zw     *zstd.Encoder
	enc    *json.Encoder
	frames uint64
	closed bool
}

func NewTraceRecorder(w io.Writer) (*TraceRecorder, error) {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return nil, errs.Wrap(err, "trace: create zstd writer")
	}
	return &TraceRecorder{zw: zw, enc: json.NewEncoder(zw)}, nil
}

func (t *TraceRecorder) Record(f Frame) error {
	if t.closed {
		return errs.Statef("trace: recorder closed")
	}
	if err := t.enc.Encode(f); err != nil {
		return errs.Wrap(err, "trace: write frame")
	}
	t.frames++
	return nil
}

func (t *TraceRecorder) Frames() uint64 { return t.frames }

// Close flush 並結束 zstd frame；不會關閉底層 writer
func (t *TraceRecorder) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	if err := t.zw.Close(); err != nil {
		return errs.Wrap(err, "trace: close zstd writer")
	}
	return nil
}

// ReadTrace 讀回 TraceRecorder 寫出的內容
func ReadTrace(r io.Reader) ([]Frame, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, errs.Wrap(err, "trace: create zstd reader")
	}
	defer zr.Close()

	var out []Frame
	sc := bufio.NewScanner(zr)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	for sc.Scan() {
		var f Frame
		if err := json.Unmarshal(sc.Bytes(), &f); err != nil {
			return nil, errs.Wrap(err, "trace: decode frame")
		}
		out = append(out, f)
	}
	if err := sc.Err(); err != nil {
		return nil, errs.Wrap(err, "trace: read")
	}
	return out, nil
}
