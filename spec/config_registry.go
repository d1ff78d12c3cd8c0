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
	"encoding/json"

	"github.com/zintix-labs/lootreel/errs"
	"gopkg.in/yaml.v3"
)

func GetMachineSettingByYAML(data []byte) (*MachineSetting, error) {
	ms := newMachineSetting()
	if err := yaml.Unmarshal(data, ms); err != nil {
		return nil, errs.WrapConfig(err, "failed to unmarshal yaml")
	}

	// 設定檔初始化
	if err := ms.init(); err != nil {
		return nil, errs.Wrap(err, "machine setting initialized err")
	}

	return ms, nil
}

func GetMachineSettingByJSON(data []byte) (*MachineSetting, error) {
	ms := newMachineSetting()
	if err := json.Unmarshal(data, ms); err != nil {
		return nil, errs.WrapConfig(err, "can not unmarshal json byte")
	}

	if err := ms.init(); err != nil {
		return nil, errs.Wrap(err, "machine setting initialized err")
	}

	return ms, nil
}
