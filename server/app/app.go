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

// Package app 管理長生命週期元件（HTTP server 等）的啟動與優雅關閉。
package app

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"
)

// DefaultShutdownTimeout 關閉所有元件的總期限
const DefaultShutdownTimeout = 5 * time.Second

// App 啟動所有 Component，收到終止訊號、ctx 取消或任一元件結束時，
// 以註冊的相反順序呼叫 Shutdown。
type App struct {
	comps   []Component
	log     *slog.Logger
	timeout time.Duration
}

func New() *App {
	return &App{log: slog.New(slog.DiscardHandler), timeout: DefaultShutdownTimeout}
}

func NewWith(comps ...Component) *App {
	app := New()
	for _, c := range comps {
		app.Register(c)
	}
	return app
}

func (a *App) Register(c Component) {
	if c != nil {
		a.comps = append(a.comps, c)
	}
}

// WithLogger 關閉流程的 log；nil 忽略
func (a *App) WithLogger(log *slog.Logger) *App {
	if log != nil {
		a.log = log
	}
	return a
}

// WithShutdownTimeout d <= 0 忽略
func (a *App) WithShutdownTimeout(d time.Duration) *App {
	if d > 0 {
		a.timeout = d
	}
	return a
}

// Run 監聽 SIGINT / SIGTERM 的 RunContext
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext 阻塞直到 ctx 結束或任一 Component.Run 返回。
//
// ctx 結束視為正常關閉（回傳 Shutdown 的錯誤）；元件提前返回時回傳該元件的錯誤與 Shutdown 錯誤的合併。
func (a *App) RunContext(ctx context.Context) error {
	if len(a.comps) == 0 {
		return nil
	}
	errCh := make(chan error, len(a.comps))
	for _, c := range a.comps {
		go func(c Component) {
			errCh <- c.Run()
		}(c)
	}

	select {
	case <-ctx.Done():
		a.log.Info("app stopping", slog.String("reason", context.Cause(ctx).Error()))
		return a.shutdown()
	case err := <-errCh:
		a.log.Warn("component exited", slog.Any("err", err))
		return errors.Join(err, a.shutdown())
	}
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	var all []error
	for i := len(a.comps) - 1; i >= 0; i-- {
		if err := a.comps[i].Shutdown(ctx); err != nil {
			a.log.Error("shutdown failed", slog.Int("component", i), slog.Any("err", err))
			all = append(all, err)
		}
	}
	return errors.Join(all...)
}
