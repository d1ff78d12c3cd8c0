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

// Command scripts 開發用的工作腳本：go run ./scripts <task>
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
)

const (
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorReset  = "\033[0m"
)

func printColor(color, msg string) { fmt.Printf("%s%s%s\n", color, msg, colorReset) }

// lineFilter 決定一行輸出要不要印、用什麼顏色；回傳 false 表示略過
type lineFilter func(line string) (color string, keep bool)

type task struct {
	desc       string
	cleanCache bool
	args       []string
	filter     lineFilter // nil = 原樣輸出
}

var tasks = map[string]task{
	"test": {
		desc:       "go test ./... (only ok / FAIL lines)",
		cleanCache: true,
		args:       []string{"go", "test", "./...", "-cover", "-count=1"},
		filter:     summaryOnly,
	},
	"test-detail": {
		desc:       "verbose tests without [no test files] noise",
		cleanCache: true,
		args:       []string{"go", "test", "./...", "-v", "-count=1"},
		filter:     dropNoTestFiles,
	},
	"test-race": {
		desc: "race detector over session pool / simulator / server",
		args: []string{"go", "test", "-race", "-count=1", ".", "./server/...", "./recorder/..."},
	},
	"sim": {
		desc: "quick lootbox simulation with a fixed seed",
		args: []string{"go", "run", "./cmd/run", "-machine", "lootbox", "-cycles", "2000", "-workers", "4", "-seed", "1"},
	},
	"trace": {
		desc: "single-cycle frame trace of the arcade machine",
		args: []string{"go", "run", "./cmd/run", "-machine", "arcade", "-cycles", "1", "-seed", "1", "-trace", "build/arcade.trace.zst"},
	},
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	t, ok := tasks[os.Args[1]]
	if !ok {
		printColor(colorYellow, "Unknown task: "+os.Args[1])
		usage()
		os.Exit(1)
	}
	if err := t.run(); err != nil {
		printColor(colorRed, fmt.Sprintf("\n%s finished with errors: %v", os.Args[1], err))
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage: go run ./scripts <task>")
	names := make([]string, 0, len(tasks))
	for n := range tasks {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Printf("  %-12s %s\n", n, tasks[n].desc)
	}
}

func (t task) run() error {
	printColor(colorGreen, "running: "+strings.Join(t.args, " "))
	if t.cleanCache {
		// clean 失敗不中斷
		if err := exec.Command("go", "clean", "-testcache").Run(); err != nil {
			printColor(colorRed, err.Error())
		}
	}

	cmd := exec.Command(t.args[0], t.args[1:]...)
	cmd.Stdin = os.Stdin
	if t.filter == nil {
		cmd.Stdout, cmd.Stderr = os.Stdout, os.Stderr
		return cmd.Run()
	}

	// stdout / stderr 合併，編譯錯誤也會經過 filter
	pr, pw := io.Pipe()
	cmd.Stdout, cmd.Stderr = pw, pw
	if err := cmd.Start(); err != nil {
		return err
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		sc := bufio.NewScanner(pr)
		for sc.Scan() {
			line := sc.Text()
			color, keep := t.filter(line)
			if !keep {
				continue
			}
			if color == "" {
				fmt.Println(line)
			} else {
				printColor(color, line)
			}
		}
	}()
	err := cmd.Wait()
	_ = pw.Close()
	<-done
	return err
}

func summaryOnly(line string) (string, bool) {
	switch {
	case strings.HasPrefix(line, "ok"):
		return colorGreen, true
	case strings.HasPrefix(line, "FAIL"),
		strings.Contains(line, "build failed"),
		strings.Contains(line, "setup failed"):
		return colorRed, true
	}
	return "", false
}

func dropNoTestFiles(line string) (string, bool) {
	if strings.Contains(line, "[no test files]") {
		return "", false
	}
	if c, ok := summaryOnly(line); ok {
		return c, true
	}
	return "", true
}
