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

package lootreel

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/zintix-labs/lootreel/errs"
	"github.com/zintix-labs/lootreel/spec"
)

// DefaultMaxSessions SessionPool 預設容量
const DefaultMaxSessions = 1024

// SessionPool 管理對外服務中「活著」的機台，一個 session 一台。
//
//   - 容量有上限，滿了之後 Create 直接回錯誤，不做淘汰。
//   - Do 執行期間 panic 的機台狀態不可信：session 直接移除，回 Fatal 錯誤。
//   - Close 之後所有操作都回錯誤；可重複呼叫。
type SessionPool struct {
	lab      *Lootreel
	log      *slog.Logger
	mu       sync.RWMutex
	sessions map[string]*Machine
	max      int

	done        chan struct{} // 關閉訊號
	closeOnce   sync.Once     // 確保 Close() 只執行一次
	closeReason atomic.Value  // string: 關閉原因
	created     atomic.Int64  // 累計建立
	deleted     atomic.Int64  // 累計刪除
	panics      atomic.Int64  // panic 次數
	inflight    atomic.Int32  // Do 執行中
}

func newSessionPool(lab *Lootreel, size int, log *slog.Logger) *SessionPool {
	if size <= 0 {
		size = DefaultMaxSessions
	}
	p := &SessionPool{
		lab:      lab,
		log:      log,
		sessions: make(map[string]*Machine, min(size, 64)),
		max:      size,
		done:     make(chan struct{}),
	}
	p.closeReason.Store("")
	return p
}

// Create 依機台編號開一個新 session，回傳 session id
func (p *SessionPool) Create(id spec.MID) (string, *Machine, error) {
	if p.Closed() {
		return "", nil, errs.NewFatal("session pool closed: " + p.ClosedReason())
	}
	// 先檢查容量，避免白做組裝
	p.mu.RLock()
	full := len(p.sessions) >= p.max
	p.mu.RUnlock()
	if full {
		return "", nil, errs.Warnf("session pool full (%d)", p.max)
	}

	m, err := p.lab.NewMachine(id)
	if err != nil {
		return "", nil, err
	}
	sid := uuid.NewString()

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.sessions) >= p.max {
		return "", nil, errs.Warnf("session pool full (%d)", p.max)
	}
	p.sessions[sid] = m
	p.created.Add(1)
	p.log.Info("session created", slog.String("session", sid), slog.String("machine", m.Name()))
	return sid, m, nil
}

// CreateByName 同 Create，以機台名稱查找
func (p *SessionPool) CreateByName(name string) (string, *Machine, error) {
	ent, ok := p.lab.EntryByName(name)
	if !ok {
		return "", nil, errs.NotFoundf("machine %q not found", name)
	}
	return p.Create(ent.MID)
}

func (p *SessionPool) Get(sid string) (*Machine, error) {
	if p.Closed() {
		return nil, errs.NewFatal("session pool closed: " + p.ClosedReason())
	}
	p.mu.RLock()
	m, ok := p.sessions[sid]
	p.mu.RUnlock()
	if !ok {
		return nil, errs.NotFoundf("session %q not found", sid)
	}
	return m, nil
}

// Do 在 session 的機台上執行 fn；ctx 取消時不會開始執行
func (p *SessionPool) Do(ctx context.Context, sid string, fn func(m *Machine) error) (err error) {
	select {
	case <-p.done:
		return errs.NewFatal("session pool closed: " + p.ClosedReason())
	case <-ctx.Done():
		e := errs.Wrap(ctx.Err(), "session canceled/timeout")
		e.ErrLv = errs.Warn
		return e
	default:
	}
	m, err := p.Get(sid)
	if err != nil {
		return err
	}

	p.inflight.Add(1)
	defer func() {
		p.inflight.Add(-1)
		if r := recover(); r != nil {
			p.panics.Add(1)
			p.remove(sid)
			p.log.Error("session panic", slog.String("session", sid), slog.Any("panic", r))
			err = errs.NewFatal(fmt.Sprintf("machine %s panic : %v", m.Name(), r))
		}
	}()
	return fn(m)
}

// Delete 關閉 session
func (p *SessionPool) Delete(sid string) error {
	if p.Closed() {
		return errs.NewFatal("session pool closed: " + p.ClosedReason())
	}
	if !p.remove(sid) {
		return errs.NotFoundf("session %q not found", sid)
	}
	p.log.Info("session deleted", slog.String("session", sid))
	return nil
}

func (p *SessionPool) remove(sid string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.sessions[sid]; !ok {
		return false
	}
	delete(p.sessions, sid)
	p.deleted.Add(1)
	return true
}

func (p *SessionPool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.sessions)
}

// Close 進入關閉狀態並釋放所有 session
func (p *SessionPool) Close() {
	p.closeWithReason("closed")
}

func (p *SessionPool) closeWithReason(reason string) {
	p.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		p.closeReason.Store(reason)
		close(p.done)
		p.mu.Lock()
		n := len(p.sessions)
		p.sessions = map[string]*Machine{}
		p.mu.Unlock()
		p.log.Info("session pool closed", slog.String("reason", reason), slog.Int("sessions", n))
	})
}

func (p *SessionPool) Closed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *SessionPool) ClosedReason() string {
	if v := p.closeReason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// SessionPoolMetrics 拉取式觀測快照
type SessionPoolMetrics struct {
	Sessions    int    `json:"sessions"`     // 目前 session 數
	MaxSessions int    `json:"max_sessions"` // 容量
	Inflight    int    `json:"inflight"`     // Do 執行中
	Created     int64  `json:"created"`      // 累計建立
	Deleted     int64  `json:"deleted"`      // 累計刪除（含 panic 移除）
	Panics      int64  `json:"panics"`       // panic 次數
	Closed      bool   `json:"closed"`       // 是否已關閉
	CloseReason string `json:"close_reason"` // 關閉原因
}

func (p *SessionPool) Metrics() SessionPoolMetrics {
	return SessionPoolMetrics{
		Sessions:    p.Len(),
		MaxSessions: p.max,
		Inflight:    int(p.inflight.Load()),
		Created:     p.created.Load(),
		Deleted:     p.deleted.Load(),
		Panics:      p.panics.Load(),
		Closed:      p.Closed(),
		CloseReason: p.ClosedReason(),
	}
}
