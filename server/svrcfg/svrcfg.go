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

package svrcfg

import (
	"log/slog"
	"net"
	"time"

	"github.com/zintix-labs/lootreel"
	"github.com/zintix-labs/lootreel/errs"
	"github.com/zintix-labs/lootreel/server/logger"
)

const (
	DefaultAddr     = ":5808"
	maxSessionsCap  = 65536
	maxShutdownWait = time.Minute
)

type SvrCfg struct {
	Log             *slog.Logger
	Addr            string        // 監聽位址；空值為 :5808
	MaxSessions     int           // session 容量；<= 0 取預設，上限 65536
	ShutdownTimeout time.Duration // 優雅關閉期限；<= 0 取 app 預設
	Lootreel        *lootreel.Lootreel
}

// Valid 補預設值並檢查必要依賴
func (sc *SvrCfg) Valid() error {
	if sc == nil {
		return errs.NewFatal("server config is required")
	}
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errs.NewFatal("nil default log handler: async handler is nil")
		}
	} else {
		sc.Log, _ = logger.NewAsync(1024, logger.ModeDev)
	}

	if sc.Addr == "" {
		sc.Addr = DefaultAddr
	}
	if _, _, err := net.SplitHostPort(sc.Addr); err != nil {
		return errs.Configf("invalid addr %q: %v", sc.Addr, err)
	}

	if sc.MaxSessions <= 0 {
		sc.MaxSessions = lootreel.DefaultMaxSessions
	}
	sc.MaxSessions = min(maxSessionsCap, sc.MaxSessions)
	sc.ShutdownTimeout = min(maxShutdownWait, sc.ShutdownTimeout)

	if sc.Lootreel == nil {
		return errs.NewFatal("lootreel is required")
	}
	return nil
}
