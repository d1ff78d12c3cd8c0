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

// Package demo 內建示範機台（go:embed），供 CLI 與伺服器使用。
package demo

import (
	"log/slog"

	"github.com/zintix-labs/lootreel"
	"github.com/zintix-labs/lootreel/catalog"
	"github.com/zintix-labs/lootreel/demo/demo_configs"
	"github.com/zintix-labs/lootreel/sdk/core"
)

// New 只載入示範設定的目錄（已 Discover，未 Freeze）
func New() (*catalog.Catalog, error) {
	c, err := catalog.New(demo_configs.FS)
	if err != nil {
		return nil, err
	}
	if err := c.Discover(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewLootreel 以示範設定組裝；log 可為 nil
func NewLootreel(log *slog.Logger) (*lootreel.Lootreel, error) {
	return lootreel.NewAuto(
		core.Default(),
		lootreel.Configs(demo_configs.FS),
		lootreel.WithLogger(log),
	)
}
