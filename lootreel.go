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

// Package lootreel 提供轉輪機台引擎的「組裝入口（assembler）」。
//
// Lootreel 把兩個地基組裝在一起，並提供建立 Machine / Simulator / SessionPool 的入口：
//  1. Catalog：機台目錄，定義有哪些機台、各自對應的設定檔名稱（ConfigName）。
//  2. PRNGFactory：模擬器用的亂數核心工廠，只用來產生玩家反應時間，保證模擬可重現。
//
// Lootreel 本身不綁定任何檔案路徑：設定檔來源一律以 fs.FS 的形式注入（go:embed 或 os.DirFS）。
//
// 典型使用情境：
//   - 後端服務（HTTP）：NewSessionPool 取得 session 管理，每個 session 一台 Machine。
//   - 模擬器（sim）：NewSimulator 以固定 frame dt 跑大量轉動循環，輸出落點與時間統計。
//
//	lab, _ := lootreel.NewAuto(core.Default(), lootreel.Configs(cfgFS))
//	m, _ := lab.NewMachineByName("lootbox")
//	m.Trigger(event.Start)
//	m.Update(1.0 / 60)
package lootreel

import (
	"io/fs"
	"log/slog"

	"github.com/zintix-labs/lootreel/catalog"
	"github.com/zintix-labs/lootreel/errs"
	"github.com/zintix-labs/lootreel/sdk/core"
	"github.com/zintix-labs/lootreel/spec"
)

// Configs 用來把一或多個設定檔來源（fs.FS）打包成 New() 需要的參數。
func Configs(cfgs ...fs.FS) []fs.FS {
	return cfgs
}

// Option 組裝選項
type Option func(*Lootreel)

// WithLogger 引擎共用 logger；未設定時靜默
func WithLogger(l *slog.Logger) Option {
	return func(lr *Lootreel) {
		if l != nil {
			lr.log = l
		}
	}
}

// Lootreel 組裝器。
//
// 使用流程分成兩階段：
//   - 註冊階段：建立 catalog、註冊機台（Register / RegisterAll）。
//   - 執行階段：Freeze 之後才能建立 Machine / Simulator / SessionPool。
type Lootreel struct {
	cat *catalog.Catalog
	cf  core.PRNGFactory
	log *slog.Logger
	sum []catalog.Summary
}

// New 建立一個 Lootreel instance（註冊階段）。
//
//   - cf 不能為 nil：沒有 PRNG 工廠就無法建立可重現的模擬器。
//   - cfgs 至少一個：沒有設定檔來源，Catalog 無法解析 MachineSetting。
func New(cf core.PRNGFactory, cfgs []fs.FS, opts ...Option) (*Lootreel, error) {
	if cf == nil {
		return nil, errs.NewFatal("prng factory required")
	}
	if len(cfgs) == 0 {
		return nil, errs.NewFatal("configs required")
	}
	cata, err := catalog.New(cfgs...)
	if err != nil {
		return nil, err
	}
	lr := &Lootreel{
		cat: cata,
		cf:  cf,
		log: slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(lr)
	}
	return lr, nil
}

// NewAuto 掃描全部設定檔註冊後直接 Freeze，進入執行階段
func NewAuto(cf core.PRNGFactory, cfgs []fs.FS, opts ...Option) (*Lootreel, error) {
	lr, err := New(cf, cfgs, opts...)
	if err != nil {
		return nil, err
	}
	if err := lr.RegisterAll(); err != nil {
		return nil, err
	}
	lr.Freeze()
	return lr, nil
}

func (lr *Lootreel) Register(ents ...catalog.Entry) error {
	return lr.cat.Register(ents...)
}

// RegisterAll 以設定檔內宣告的 machine_id / machine_name 批次註冊。
//
// Fail-fast 且具原子性：任何一個檔案解析失敗都不會寫入；依檔名排序處理，行為可重現。
func (lr *Lootreel) RegisterAll() error {
	if err := lr.cat.Discover(); err != nil {
		return err
	}
	if len(lr.cat.IDs()) == 0 {
		return errs.Configf("no config files found to register")
	}
	return nil
}

func (lr *Lootreel) Freeze() {
	lr.cat.Freeze()
}

func (lr *Lootreel) EntryByID(id spec.MID) (catalog.Entry, bool) {
	return lr.cat.GetByID(id)
}

func (lr *Lootreel) EntryByName(name string) (catalog.Entry, bool) {
	return lr.cat.GetByName(name)
}

func (lr *Lootreel) IDs() []spec.MID {
	return lr.cat.IDs()
}

func (lr *Lootreel) All() []catalog.Entry {
	return lr.cat.All()
}

func (lr *Lootreel) Logger() *slog.Logger {
	return lr.log
}

// Summary 已註冊機台摘要（Freeze 後才可用，結果會快取）
func (lr *Lootreel) Summary() ([]catalog.Summary, error) {
	if !lr.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	if lr.sum != nil {
		return lr.sum, nil
	}
	cs, err := lr.cat.Summaries()
	if err != nil {
		return nil, err
	}
	lr.sum = cs
	return lr.sum, nil
}

func (lr *Lootreel) setting(id spec.MID) (*spec.MachineSetting, error) {
	if !lr.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	return lr.cat.MachineSettingByID(id)
}

// NewMachine 依 Catalog 內的機台編號建立一台 Machine
func (lr *Lootreel) NewMachine(id spec.MID) (*Machine, error) {
	ms, err := lr.setting(id)
	if err != nil {
		return nil, err
	}
	return NewMachine(ms, lr.log)
}

func (lr *Lootreel) NewMachineByName(name string) (*Machine, error) {
	ent, ok := lr.cat.GetByName(name)
	if !ok {
		return nil, errs.NotFoundf("machine %q not found", name)
	}
	return lr.NewMachine(ent.MID)
}

// NewMachineByYAML 以外部設定建立機台，不需要在 Catalog 內（開發調參用）
func (lr *Lootreel) NewMachineByYAML(raw []byte) (*Machine, error) {
	ms, err := spec.GetMachineSettingByYAML(raw)
	if err != nil {
		return nil, err
	}
	return NewMachine(ms, lr.log)
}

func (lr *Lootreel) NewMachineByJSON(raw []byte) (*Machine, error) {
	ms, err := spec.GetMachineSettingByJSON(raw)
	if err != nil {
		return nil, err
	}
	return NewMachine(ms, lr.log)
}

// NewSimulator 以 crypto/rand 產生 seed 建立模擬器
func (lr *Lootreel) NewSimulator(id spec.MID) (*Simulator, error) {
	ms, err := lr.setting(id)
	if err != nil {
		return nil, err
	}
	return newSimulator(ms, lr.cf, lr.log)
}

// NewSimulatorWithSeed 同一份設定 + 同一個 seed，結果一致
func (lr *Lootreel) NewSimulatorWithSeed(id spec.MID, seed int64) (*Simulator, error) {
	ms, err := lr.setting(id)
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(ms, lr.cf, seed, lr.log)
}

func (lr *Lootreel) NewSimulatorByYAML(raw []byte, seed int64) (*Simulator, error) {
	ms, err := spec.GetMachineSettingByYAML(raw)
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(ms, lr.cf, seed, lr.log)
}

func (lr *Lootreel) NewSimulatorByJSON(raw []byte, seed int64) (*Simulator, error) {
	ms, err := spec.GetMachineSettingByJSON(raw)
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(ms, lr.cf, seed, lr.log)
}

// NewSessionPool 進入 runtime：Freeze 後建立 session 管理；size <= 0 使用 DefaultMaxSessions
func (lr *Lootreel) NewSessionPool(size int) (*SessionPool, error) {
	lr.Freeze()
	if len(lr.cat.IDs()) == 0 {
		return nil, errs.NewFatal("no machines registered")
	}
	return newSessionPool(lr, size, lr.log), nil
}
