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
	"log/slog"

	v1 "github.com/zintix-labs/lootreel/server/api/v1"
	"github.com/zintix-labs/lootreel/server/netsvr"
	"github.com/zintix-labs/lootreel/server/netsvr/middleware"
	"github.com/zintix-labs/lootreel/server/svrcfg"
)

// RegisterRoutes 註冊 middleware 與 v1 api；回傳的 SessionHandler 供上層關閉 session pool
func RegisterRoutes(svr netsvr.NetSvr, sCfg *svrcfg.SvrCfg) (*v1.SessionHandler, error) {
	registerMiddleware(svr, sCfg.Log) // 1. 註冊 middleware
	return registerV1API(svr, sCfg)   // 2. 註冊 v1 api
}

// 註冊 middleware
func registerMiddleware(svr netsvr.NetSvr, log *slog.Logger) {
	svr.Use(middleware.RequestID)
	svr.Use(middleware.AccessLog(log))
	svr.Use(middleware.Recover(log))
	svr.Use(middleware.Compression)
}

// 註冊 v1 api
func registerV1API(svr netsvr.NetSvr, sCfg *svrcfg.SvrCfg) (*v1.SessionHandler, error) {
	sh, err := v1.NewSessionHandler(sCfg)
	if err != nil {
		return nil, err
	}
	s, err := v1.NewSimHandler(sCfg.Lootreel)
	if err != nil {
		return nil, err
	}
	svr.Group("/v1", func(vOne netsvr.NetRouter) {
		vOne.Get("/machines", s.Machines)
		vOne.Get("/sim", s.Sim)
		vOne.Post("/sim", s.Sim)
		vOne.Post("/simbycfg", s.SimByCfg)

		vOne.Get("/sessions", sh.Metrics)
		vOne.Post("/sessions", sh.Create)
		vOne.Get("/sessions/{id}", sh.Get)
		vOne.Delete("/sessions/{id}", sh.Delete)
		vOne.Post("/sessions/{id}/trigger/{name}", sh.Trigger)
		vOne.Post("/sessions/{id}/tick", sh.Tick)
	})
	return sh, nil
}
