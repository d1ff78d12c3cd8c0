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

// Package perf 包一層 runtime/pprof，讓 CLI 以 flag 切換 profiling。
package perf

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/zintix-labs/lootreel/errs"
)

// DefaultDir pprof 檔案寫入路徑
const DefaultDir = "build/profiling"

// Mode profiling 種類
type Mode string

const (
	ModeNone   Mode = ""
	ModeCPU    Mode = "cpu"
	ModeHeap   Mode = "heap"
	ModeAllocs Mode = "allocs"
)

// ParseMode 解析 flag 值；未知值回傳 config error
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeNone, ModeCPU, ModeHeap, ModeAllocs:
		return m, nil
	default:
		return ModeNone, errs.Configf("perf: unknown pprof mode %q (want cpu|heap|allocs)", s)
	}
}

// Run 依 mode 包住 exe 執行並寫出對應 profile；回傳 profile 路徑（ModeNone 時為空字串）。
//
// exe 的錯誤優先回傳；profile 寫入失敗包成 fatal。
func Run(exe func() error, mode Mode, dir string) (string, error) {
	if mode == ModeNone {
		return "", exe()
	}
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errs.Wrap(err, "perf: create profiling dir")
	}
	path := filepath.Join(dir, string(mode)+".pprof")

	switch mode {
	case ModeCPU:
		return path, cpu(exe, path)
	case ModeHeap:
		if err := exe(); err != nil {
			return path, err
		}
		runtime.GC() // 讓快照貼近最新的 live objects
		return path, writeProfile("heap", path)
	case ModeAllocs:
		if err := exe(); err != nil {
			return path, err
		}
		return path, writeProfile("allocs", path)
	}
	return "", errs.Configf("perf: unknown pprof mode %q", mode)
}

func cpu(exe func() error, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(err, "perf: create cpu profile")
	}
	defer f.Close()
	if err := pprof.StartCPUProfile(f); err != nil {
		return errs.Wrap(err, "perf: start cpu profile")
	}
	defer pprof.StopCPUProfile()
	return exe()
}

func writeProfile(name, path string) error {
	prof := pprof.Lookup(name)
	if prof == nil {
		return errs.NewFatal("perf: profile not found: " + name)
	}
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(err, "perf: create "+name+" profile")
	}
	defer f.Close()
	if err := prof.WriteTo(f, 0); err != nil {
		return errs.Wrap(err, "perf: write "+name+" profile")
	}
	return nil
}
