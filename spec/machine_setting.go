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

package spec

import (
	"strings"

	"github.com/zintix-labs/lootreel/errs"
	"github.com/zintix-labs/lootreel/sdk/strip"
)

// MID 機台編號
type MID uint32

type MachineSetting struct {
	MachineName string         `yaml:"machine_name" json:"machine_name"`
	MachineID   MID            `yaml:"machine_id"   json:"machine_id"`
	Reel        ReelSetting    `yaml:"reel"         json:"reel"`
	Phase       PhaseSetting   `yaml:"phase"        json:"phase"`
	Symbols     []string       `yaml:"symbols"      json:"symbols"`
	Sim         SimSetting     `yaml:"sim"          json:"sim"`
	Fixed       map[string]any `yaml:"fixed"        json:"fixed"`
}

// newMachineSetting 解碼前先填好預設值，設定檔沒寫到的欄位會保留下來
func newMachineSetting() *MachineSetting {
	return &MachineSetting{
		Reel:  defaultReelSetting(),
		Phase: defaultPhaseSetting(),
		Sim:   defaultSimSetting(),
	}
}

func (ms *MachineSetting) init() error {
	ms.MachineName = strings.TrimSpace(ms.MachineName)
	return ms.valid()
}

func (ms *MachineSetting) valid() error {
	if ms.MachineName == "" {
		return errs.Configf("machine_name required")
	}
	if err := validSymbols(ms.Symbols); err != nil {
		return errs.WrapConfig(err, "machine_name: "+ms.MachineName)
	}
	if err := ms.Reel.valid(); err != nil {
		return errs.WrapConfig(err, "machine_name: "+ms.MachineName)
	}
	if err := ms.Phase.valid(); err != nil {
		return errs.WrapConfig(err, "machine_name: "+ms.MachineName)
	}
	if err := ms.Sim.valid(); err != nil {
		return errs.WrapConfig(err, "machine_name: "+ms.MachineName)
	}
	if err := ms.validFrameStep(); err != nil {
		return errs.WrapConfig(err, "machine_name: "+ms.MachineName)
	}
	return nil
}

// MaxFrameDT 單幀允許的最大 dt：max_speed 乘上 dt 必須小於 strip.MaxStep
func (ms *MachineSetting) MaxFrameDT() (float64, error) {
	n, err := strip.Count(ms.Reel.WindowHeight, ms.Reel.ItemPitch, ms.Reel.MinItems, len(ms.Symbols))
	if err != nil {
		return 0, err
	}
	return strip.MaxStep(n, ms.Reel.ItemPitch) / ms.Reel.MaxSpeed, nil
}

// validFrameStep 模擬器的固定 frame 位移不能跨過整條帶子
func (ms *MachineSetting) validFrameStep() error {
	maxDT, err := ms.MaxFrameDT()
	if err != nil {
		return err
	}
	if ms.Sim.FrameDT >= maxDT {
		return errs.Configf("reel.max_speed %v * sim.frame_dt %v moves the strip past its span (frame_dt must be < %.6g)",
			ms.Reel.MaxSpeed, ms.Sim.FrameDT, maxDT)
	}
	return nil
}

// validSymbols 圖標名稱不可為空、不可重複（大小寫視為相同）
func validSymbols(symbols []string) error {
	if len(symbols) == 0 {
		return errs.Configf("empty symbols")
	}
	seen := make(map[string]struct{}, len(symbols))
	for i, s := range symbols {
		k := strings.ToLower(strings.TrimSpace(s))
		if k == "" {
			return errs.Configf("symbols[%d] is empty", i)
		}
		if _, ok := seen[k]; ok {
			return errs.Configf("duplicate symbol %q", s)
		}
		seen[k] = struct{}{}
	}
	return nil
}
