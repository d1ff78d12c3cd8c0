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

// Command svr 以內建示範機台啟動 HTTP 伺服器。
//
// Usage like:
//
//	go run ./cmd/svr -addr :5808 -log-mode dev -max-sessions 2048
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/zintix-labs/lootreel/demo"
	"github.com/zintix-labs/lootreel/server"
	"github.com/zintix-labs/lootreel/server/logger"
	"github.com/zintix-labs/lootreel/server/svrcfg"
)

func main() {
	sCfg, closeLog, err := loadConfigFromFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	err = server.Run(sCfg)
	closeLog()
	if err != nil {
		os.Exit(1)
	}
}

func loadConfigFromFlags() (*svrcfg.SvrCfg, func(), error) {
	var (
		addr        string
		logMode     string
		maxSessions int
		shutdown    time.Duration
	)
	flag.StringVar(&addr, "addr", svrcfg.DefaultAddr, "listen address")
	flag.StringVar(&logMode, "log-mode", "dev", "log mode: dev|prod|silence")
	flag.IntVar(&maxSessions, "max-sessions", 0, "max concurrent sessions (0 = default)")
	flag.DurationVar(&shutdown, "shutdown-timeout", 0, "graceful shutdown timeout (0 = default)")
	flag.Parse()

	mode, err := logger.ParseLogMode(logMode)
	if err != nil {
		return nil, nil, err
	}
	log, ah := logger.NewAsync(4096, mode)

	lab, err := demo.NewLootreel(log)
	if err != nil {
		ah.Close()
		return nil, nil, err
	}
	sCfg := &svrcfg.SvrCfg{
		Log:             log,
		Addr:            addr,
		MaxSessions:     maxSessions,
		ShutdownTimeout: shutdown,
		Lootreel:        lab,
	}
	return sCfg, ah.Close, nil
}
