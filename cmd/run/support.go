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

package main

import (
	"crypto/rand"
	"flag"
	"io"
	"math"
	"math/big"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/zintix-labs/lootreel"
	"github.com/zintix-labs/lootreel/demo"
	"github.com/zintix-labs/lootreel/errs"
	"github.com/zintix-labs/lootreel/sdk/perf"
	"github.com/zintix-labs/lootreel/spec"
	"github.com/zintix-labs/lootreel/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const maxWorkers = 1024

type config struct {
	name    string
	id      uint
	workers int
	cycles  int
	seed    int64
	format  string
	out     string
	trace   string
	list    bool
	pprof   perf.Mode
}

func bindVar() (*config, error) {
	cfg := new(config)
	var pmode string
	flag.StringVar(&cfg.name, "machine", "", "target machine name (takes priority over -id)")
	flag.UintVar(&cfg.id, "id", 1001, "target machine id")
	flag.IntVar(&cfg.workers, "workers", 1, "number of workers")
	flag.IntVar(&cfg.cycles, "cycles", 100000, "spin cycles per worker")
	flag.Int64Var(&cfg.seed, "seed", -1, "int64 seed for player reaction; < 1 picks a random seed")
	flag.StringVar(&cfg.format, "format", "table", "report format: table|json|yaml")
	flag.StringVar(&cfg.out, "o", "", "write json/yaml report to file instead of stdout")
	flag.StringVar(&cfg.trace, "trace", "", "also write a single-cycle frame trace (zstd json lines) to file")
	flag.BoolVar(&cfg.list, "list", false, "list built-in machines and exit")
	flag.StringVar(&pmode, "p", "", "pprof: '', cpu, heap, allocs")
	flag.Parse()

	m, err := perf.ParseMode(pmode)
	if err != nil {
		return nil, err
	}
	cfg.pprof = m
	if err := cfg.valid(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *config) valid() error {
	p := message.NewPrinter(language.English)
	if cfg.workers < 1 {
		return errs.Configf("workers must > 0")
	}
	if cfg.workers > maxWorkers {
		p.Printf("too much workers: %d resized to %d\n", cfg.workers, maxWorkers)
		cfg.workers = maxWorkers
	}
	if cfg.workers > runtime.NumCPU() {
		p.Printf("workers %d > cpu %d, expect contention\n", cfg.workers, runtime.NumCPU())
	}
	if cfg.cycles < 1 {
		return errs.Configf("cycles must > 0")
	}
	switch cfg.format {
	case "table", "json", "yaml":
	default:
		return errs.Configf("unknown format %q (want table|json|yaml)", cfg.format)
	}
	if cfg.out != "" && cfg.format == "table" {
		return errs.Configf("-o requires -format json or yaml")
	}
	// given seed illegal -> random seed
	if cfg.seed < 1 {
		seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
		if err != nil {
			return errs.Wrap(err, "new crypto seed")
		}
		cfg.seed = seed.Int64()
	}
	return nil
}

// 這裡解析並執行模擬
func execute(cfg *config) error {
	lab, err := demo.NewLootreel(nil)
	if err != nil {
		return err
	}
	if cfg.list {
		return listMachines(lab)
	}

	id := spec.MID(cfg.id)
	if cfg.name != "" {
		ent, ok := lab.EntryByName(cfg.name)
		if !ok {
			return errs.NotFoundf("machine not found: %s", cfg.name)
		}
		id = ent.MID
	}
	s, err := lab.NewSimulatorWithSeed(id, cfg.seed)
	if err != nil {
		return err
	}

	green := "\033[1;32m"
	reset := "\033[0m"
	p := message.NewPrinter(language.English)
	p.Printf("%s[MACHINE:%s] [ID:%d] [WORKERS:%d] [CYCLES:%d] [SEED:%d]%s\n",
		green, s.MachineName, s.MID, cfg.workers, cfg.workers*cfg.cycles, s.Seed(), reset)

	if cfg.trace != "" {
		if err := writeTrace(s, cfg.trace, p); err != nil {
			return err
		}
	}

	st, used, err := s.SimMP(cfg.cycles, cfg.workers, true)
	if err != nil {
		return err
	}
	return report(cfg, st, used)
}

func report(cfg *config, st *stats.StatReport, used time.Duration) error {
	var rep stats.StatReportRender
	switch cfg.format {
	case "json":
		rep = &stats.JsonStatReportRender{}
	case "yaml":
		rep = &stats.YAMLStatReportRender{}
	default:
		st.StdOut(used)
		return nil
	}

	var w io.Writer = os.Stdout
	if cfg.out != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.out), 0o755); err != nil {
			return errs.Wrap(err, "create report dir")
		}
		f, err := os.Create(cfg.out)
		if err != nil {
			return errs.Wrap(err, "create report file")
		}
		defer f.Close()
		w = f
	}
	return st.WriteWith(w, rep)
}

func writeTrace(s *lootreel.Simulator, path string, p *message.Printer) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errs.Wrap(err, "create trace dir")
	}
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(err, "create trace file")
	}
	defer f.Close()
	res, frames, err := s.Trace(f)
	if err != nil {
		return err
	}
	p.Printf("trace: %s (%d frames, landed %s after %.2fs)\n", path, frames, res.Symbol, res.SpinTime)
	return nil
}

func listMachines(lab *lootreel.Lootreel) error {
	sums, err := lab.Summary()
	if err != nil {
		return err
	}
	p := message.NewPrinter(language.English)
	for _, s := range sums {
		p.Printf("%6d  %-12s stop_delay=%.2fs symbols=%v\n", s.MID, s.Name, s.StopDelay, s.Symbols)
	}
	return nil
}
