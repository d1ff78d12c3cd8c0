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

package netsvr

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

const defaultAddr string = ":5808"

// Option 調整 ChiAdapter 的 http.Server 參數
type Option func(*ChiAdapter)

// WithAddr 監聽位址（host:port 或 :port）
func WithAddr(addr string) Option {
	return func(c *ChiAdapter) { c.addr = addr }
}

// WithTimeouts 讀寫逾時；tick / sim 這類同步請求的上限由 WriteTimeout 決定
func WithTimeouts(read, write, idle time.Duration) Option {
	return func(c *ChiAdapter) {
		c.server.ReadTimeout = read
		c.server.WriteTimeout = write
		c.server.IdleTimeout = idle
	}
}

// ChiAdapter 以 chi 實作 NetSvr；handler / middleware 都是 net/http 介面。
type ChiAdapter struct {
	router chi.Router
	server *http.Server
	addr   string
}

// NewChiServer 建立 ChiAdapter；未指定位址時監聽 :5808
func NewChiServer(opts ...Option) *ChiAdapter {
	cr := chi.NewRouter()
	cr.NotFound(jsonStatus(http.StatusNotFound))
	cr.MethodNotAllowed(jsonStatus(http.StatusMethodNotAllowed))
	c := &ChiAdapter{
		router: cr,
		server: &http.Server{
			Handler:           cr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second, // sim 同步請求可能較久
			IdleTimeout:       120 * time.Second,
		},
		addr: defaultAddr,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.server.Addr = c.addr
	return c
}

// NewChiServerDefault 監聽 :5808
func NewChiServerDefault() *ChiAdapter { return NewChiServer() }

func jsonStatus(code int) http.HandlerFunc {
	body := []byte(`{"error":"` + http.StatusText(code) + `"}`)
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_, _ = w.Write(body)
	}
}

func (c *ChiAdapter) Ready() bool {
	if c == nil || c.router == nil || c.server == nil || c.server.Handler != c.router {
		return false
	}
	_, _, err := net.SplitHostPort(c.addr)
	return err == nil
}

// Run 阻塞直到 server 關閉；正常 Shutdown 不視為錯誤
func (c *ChiAdapter) Run() error {
	if err := c.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (c *ChiAdapter) Shutdown(ctx context.Context) error { return c.server.Shutdown(ctx) }

// ServeHTTP 直接交給 router，方便以 httptest 驅動
func (c *ChiAdapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.router.ServeHTTP(w, r)
}

func (c *ChiAdapter) Use(mw func(http.Handler) http.Handler) { c.router.Use(mw) }
func (c *ChiAdapter) Get(path string, h http.HandlerFunc)    { c.router.Get(path, h) }
func (c *ChiAdapter) Post(path string, h http.HandlerFunc)   { c.router.Post(path, h) }
func (c *ChiAdapter) Put(path string, h http.HandlerFunc)    { c.router.Put(path, h) }
func (c *ChiAdapter) Delete(path string, h http.HandlerFunc) { c.router.Delete(path, h) }

func (c *ChiAdapter) Group(path string, fn func(subRouter NetRouter)) {
	c.router.Route(path, func(r chi.Router) {
		fn(&ChiAdapter{router: r})
	})
}

func (c *ChiAdapter) Address() string { return c.addr }
