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

package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/zintix-labs/lootreel"
	"github.com/zintix-labs/lootreel/errs"
	"github.com/zintix-labs/lootreel/server/api"
	"github.com/zintix-labs/lootreel/server/app"
	"github.com/zintix-labs/lootreel/server/netsvr"
	"github.com/zintix-labs/lootreel/server/svrcfg"
)

// Mount 驗證設定，並把 middleware 與 v1 routes 掛到 svr。
//
// 回傳的 SessionPool 由呼叫端在 server 停止後 Close。
// 想把 Lootreel 的 API 掛進既有服務時，直接用 Mount 再自行管理生命週期。
func Mount(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) (*lootreel.SessionPool, error) {
	if err := sCfg.Valid(); err != nil {
		return nil, err
	}
	if svr == nil {
		return nil, errs.NewFatal("svr is required")
	}
	if s, ok := svr.(*netsvr.ChiAdapter); ok && !s.Ready() {
		return nil, errs.NewFatal("chi server is not ready")
	}
	sh, err := api.RegisterRoutes(svr, sCfg)
	if err != nil {
		return nil, errs.Wrap(err, "register routes failed")
	}
	return sh.Pool(), nil
}

// Run 以內建 chi server 監聽 sCfg.Addr，直到 SIGINT / SIGTERM。
func Run(sCfg *svrcfg.SvrCfg) error {
	if sCfg == nil {
		return errs.NewFatal("server config is required")
	}
	return RunWithSvr(sCfg, netsvr.NewChiServer(netsvr.WithAddr(sCfg.Addr)))
}

// RunWithSvr 與 Run 相同，但使用呼叫端注入的 NetSvr（自訂 listener / timeout / adapter）。
func RunWithSvr(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return RunContext(ctx, sCfg, svr)
}

// RunContext 掛載 routes 後阻塞到 ctx 結束或 server 停止，最後關閉 session pool。
//
// 設定驗證失敗時另外印到 stderr，避免 logger 本身不可用時看不到錯誤。
func RunContext(ctx context.Context, sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) error {
	pool, err := Mount(sCfg, svr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	defer pool.Close()

	a := app.NewWith(svr).WithLogger(sCfg.Log).WithShutdownTimeout(sCfg.ShutdownTimeout)
	sCfg.Log.Info("[lootreel] listening",
		slog.String("addr", svr.Address()),
		slog.Int("max_sessions", sCfg.MaxSessions))
	if err := a.RunContext(ctx); err != nil {
		sCfg.Log.Error("app stopped", slog.Any("err", err))
		return err
	}
	m := pool.Metrics()
	sCfg.Log.Info("[lootreel] stopped",
		slog.Int64("sessions_created", m.Created),
		slog.Int64("sessions_panicked", m.Panics))
	return nil
}
