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

// Command run 以內建示範機台跑無頭模擬，輸出落點 / 轉動時間統計。
//
// Usage like:
//
//	go run ./cmd/run -machine lootbox -cycles 100000 -workers 8
//	go run ./cmd/run -id 1002 -format yaml -o build/arcade.yaml
//	go run ./cmd/run -machine lootbox -trace build/lootbox.trace.zst
//	go run ./cmd/run -p cpu
package main

import (
	"log"

	"github.com/zintix-labs/lootreel/sdk/perf"
)

func main() {
	cfg, err := bindVar()
	if err != nil {
		log.Fatal(err)
	}
	path, err := perf.Run(func() error { return execute(cfg) }, cfg.pprof, perf.DefaultDir)
	if err != nil {
		log.Fatal(err)
	}
	if path != "" {
		log.Printf("profile written: %s", path)
	}
}
