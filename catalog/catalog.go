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

// Package catalog 機台目錄：id / 名稱 -> 設定檔，設定檔來自一或多個扁平的 fs.FS。
package catalog

import (
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/zintix-labs/lootreel/errs"
	"github.com/zintix-labs/lootreel/spec"
)

var (
	ErrDupID   = errs.Configf("duplicate machine id")
	ErrDupName = errs.Configf("duplicate machine name")
)

// Entry 一台機台在目錄中的登記資料
type Entry struct {
	MID        spec.MID
	Name       string
	ConfigName string
}

// Summary 機台列表用的摘要
type Summary struct {
	MID       spec.MID `json:"mid"`
	Name      string   `json:"name"`
	Config    string   `json:"config"`
	Symbols   []string `json:"symbols"`
	StopDelay float64  `json:"stop_delay"`
}

// Catalog 註冊完成後呼叫 Freeze；凍結後只讀，可多 goroutine 共用。
type Catalog struct {
	src     sources
	byID    map[spec.MID]Entry
	byName  map[string]Entry
	usedCfg map[string]bool
	ids     []spec.MID // 升冪
	frozen  bool
}

func New(cfg ...fs.FS) (*Catalog, error) {
	src, err := indexSources(cfg)
	if err != nil {
		return nil, errs.Wrap(err, "can not create catalog")
	}
	return &Catalog{
		src:     src,
		byID:    map[spec.MID]Entry{},
		byName:  map[string]Entry{},
		usedCfg: map[string]bool{},
	}, nil
}

func normName(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Register 整批登記；任何一筆不合法則整批不生效。
func (c *Catalog) Register(ents ...Entry) error {
	if c.frozen {
		return errs.NewWarn("can not register when catalog already frozen")
	}
	batch := make([]Entry, 0, len(ents))
	ids := map[spec.MID]bool{}
	names := map[string]bool{}
	cfgs := map[string]bool{}
	for _, e := range ents {
		e.Name = normName(e.Name)
		if err := c.check(e); err != nil {
			return err
		}
		switch {
		case ids[e.MID]:
			return ErrDupID
		case names[e.Name]:
			return ErrDupName
		case cfgs[e.ConfigName]:
			return errs.Configf("duplicate config name: %s", e.ConfigName)
		}
		ids[e.MID], names[e.Name], cfgs[e.ConfigName] = true, true, true
		batch = append(batch, e)
	}
	for _, e := range batch {
		c.byID[e.MID] = e
		c.byName[e.Name] = e
		c.usedCfg[e.ConfigName] = true
		c.ids = append(c.ids, e.MID)
	}
	slices.Sort(c.ids)
	return nil
}

// check 單筆對既有登記的檢查
func (c *Catalog) check(e Entry) error {
	if e.Name == "" {
		return errs.Configf("machine name required")
	}
	if err := validFileName(e.ConfigName); err != nil {
		return err
	}
	if _, ok := c.src.lookup(e.ConfigName); !ok {
		return errs.Configf("config file not found: %s", e.ConfigName)
	}
	if _, ok := c.byID[e.MID]; ok {
		return ErrDupID
	}
	if _, ok := c.byName[e.Name]; ok {
		return ErrDupName
	}
	if c.usedCfg[e.ConfigName] {
		return errs.Configf("duplicate config name: %s", e.ConfigName)
	}
	return nil
}

func (c *Catalog) GetByID(id spec.MID) (Entry, bool) {
	e, ok := c.byID[id]
	return e, ok
}

// GetByName 名稱不分大小寫、忽略前後空白
func (c *Catalog) GetByName(name string) (Entry, bool) {
	e, ok := c.byName[normName(name)]
	return e, ok
}

func (c *Catalog) IDs() []spec.MID {
	if len(c.ids) == 0 {
		return nil
	}
	return slices.Clone(c.ids)
}

// All 依 id 排序
func (c *Catalog) All() []Entry {
	out := make([]Entry, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.byID[id])
	}
	return out
}

func (c *Catalog) Freeze()        { c.frozen = true }
func (c *Catalog) IsFrozen() bool { return c.frozen }

// MachineSettingByID 讀取並解析該機台的 YAML/JSON 設定（含預設值與檢查）
func (c *Catalog) MachineSettingByID(id spec.MID) (*spec.MachineSetting, error) {
	e, ok := c.GetByID(id)
	if !ok {
		return nil, errs.NotFoundf("machine id %d does not exist in catalog", id)
	}
	return c.load(e.ConfigName)
}

func (c *Catalog) MachineSettingByName(name string) (*spec.MachineSetting, error) {
	e, ok := c.GetByName(name)
	if !ok {
		return nil, errs.NotFoundf("machine %q does not exist in catalog", name)
	}
	return c.load(e.ConfigName)
}

// Discover 讀取尚未登記的設定檔，以檔內的 machine_id / machine_name 自動註冊。
func (c *Catalog) Discover() error {
	var ents []Entry
	for _, name := range c.src.names() {
		if c.usedCfg[name] {
			continue
		}
		ms, err := c.load(name)
		if err != nil {
			return errs.Wrap(err, "discover "+name)
		}
		ents = append(ents, Entry{MID: ms.MachineID, Name: ms.MachineName, ConfigName: name})
	}
	return c.Register(ents...)
}

// Summaries 依 id 排序回傳所有已註冊機台的摘要
func (c *Catalog) Summaries() ([]Summary, error) {
	out := make([]Summary, 0, len(c.ids))
	for _, e := range c.All() {
		ms, err := c.load(e.ConfigName)
		if err != nil {
			return nil, err
		}
		out = append(out, Summary{
			MID:       e.MID,
			Name:      e.Name,
			Config:    e.ConfigName,
			Symbols:   slices.Clone(ms.Symbols),
			StopDelay: ms.Phase.StopDelay,
		})
	}
	return out, nil
}

func (c *Catalog) load(name string) (*spec.MachineSetting, error) {
	fsys, ok := c.src.lookup(name)
	if !ok {
		return nil, errs.NotFoundf("config %q does not exist in catalog", name)
	}
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, errs.Wrap(err, "catalog read "+name)
	}
	if isYAML(name) {
		return spec.GetMachineSettingByYAML(raw)
	}
	return spec.GetMachineSettingByJSON(raw)
}

func isYAML(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

func isConfigFile(name string) bool {
	return isYAML(name) || strings.EqualFold(path.Ext(name), ".json")
}

// validFileName 設定檔名必須是不以 . 開頭的 basename，副檔名 .yaml/.yml/.json
func validFileName(name string) error {
	switch {
	case name == "":
		return errs.Configf("empty config filename")
	case strings.ContainsAny(name, `/\:`):
		return errs.Configf("invalid config filename: %q (must be a basename)", name)
	case strings.HasPrefix(name, "."):
		return errs.Configf("invalid config filename: %q (cannot start with '.')", name)
	case !isConfigFile(name):
		return errs.Configf("invalid config filename: %q (must end with .yaml, .yml, or .json)", name)
	}
	return nil
}

// sources 多個扁平 fs.FS 的檔名索引；同名檔案只能出現在一個來源。
type sources struct {
	fss   []fs.FS
	owner map[string]int
}

func indexSources(fss []fs.FS) (sources, error) {
	if len(fss) == 0 {
		return sources{}, errs.Configf("no fs provided")
	}
	s := sources{fss: fss, owner: map[string]int{}}
	for i, fsys := range fss {
		if fsys == nil {
			return sources{}, errs.Configf("fs[%d] is nil", i)
		}
		ents, err := fs.ReadDir(fsys, ".")
		if err != nil {
			return sources{}, errs.Wrap(err, "read config fs")
		}
		for _, d := range ents {
			name := d.Name()
			if d.IsDir() {
				return sources{}, errs.Configf("config FS must be flat (no subdirectories): %q", name)
			}
			if !isConfigFile(name) {
				continue
			}
			if prev, dup := s.owner[name]; dup {
				return sources{}, errs.Configf("duplicate config %q in fs[%d] and fs[%d]", name, prev, i)
			}
			s.owner[name] = i
		}
	}
	return s, nil
}

func (s sources) lookup(name string) (fs.FS, bool) {
	i, ok := s.owner[name]
	if !ok {
		return nil, false
	}
	return s.fss[i], true
}

// names 排序後的所有設定檔名
func (s sources) names() []string {
	out := make([]string, 0, len(s.owner))
	for n := range s.owner {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}
