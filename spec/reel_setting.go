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
	"math"

	"github.com/zintix-labs/lootreel/errs"
)

// ReelSetting 轉輪幾何與運動參數；設定檔未填的欄位沿用預設值，明確寫 0 則照值檢查。
type ReelSetting struct {
	WindowHeight     float64 `yaml:"window_height"     json:"window_height"`
	ItemPitch        float64 `yaml:"item_pitch"        json:"item_pitch"`
	MinItems         int     `yaml:"min_items"         json:"min_items"`
	MaxSpeed         float64 `yaml:"max_speed"         json:"max_speed"`
	AccelerationTime float64 `yaml:"acceleration_time" json:"acceleration_time"`
	DecelerationTime float64 `yaml:"deceleration_time" json:"deceleration_time"`
	SnapTime         float64 `yaml:"snap_time"         json:"snap_time"`
	SnapEpsilon      float64 `yaml:"snap_epsilon"      json:"snap_epsilon"`
}

const (
	DefaultWindowHeight     = 1000.0
	DefaultItemPitch        = 200.0
	DefaultMinItems         = 5
	DefaultMaxSpeed         = 2000.0
	DefaultAccelerationTime = 1.5
	DefaultDecelerationTime = 2.0
	DefaultSnapTime         = 0.4
	DefaultSnapEpsilon      = 1.0
)

func defaultReelSetting() ReelSetting {
	return ReelSetting{
		WindowHeight:     DefaultWindowHeight,
		ItemPitch:        DefaultItemPitch,
		MinItems:         DefaultMinItems,
		MaxSpeed:         DefaultMaxSpeed,
		AccelerationTime: DefaultAccelerationTime,
		DecelerationTime: DefaultDecelerationTime,
		SnapTime:         DefaultSnapTime,
		SnapEpsilon:      DefaultSnapEpsilon,
	}
}

func (rs *ReelSetting) valid() error {
	pos := map[string]float64{
		"window_height": rs.WindowHeight,
		"item_pitch":    rs.ItemPitch,
		"max_speed":     rs.MaxSpeed,
	}
	for k, v := range pos {
		if !finite(v) || v <= 0 {
			return errs.Configf("reel.%s must be > 0, got %v", k, v)
		}
	}
	nonNeg := map[string]float64{
		"acceleration_time": rs.AccelerationTime,
		"deceleration_time": rs.DecelerationTime,
		"snap_time":         rs.SnapTime,
		"snap_epsilon":      rs.SnapEpsilon,
	}
	for k, v := range nonNeg {
		if !finite(v) || v < 0 {
			return errs.Configf("reel.%s must be >= 0, got %v", k, v)
		}
	}
	if rs.MinItems < 0 {
		return errs.Configf("reel.min_items must be >= 0, got %d", rs.MinItems)
	}
	return nil
}

// PhaseSetting 流程參數
type PhaseSetting struct {
	StopDelay float64 `yaml:"stop_delay" json:"stop_delay"`
}

const DefaultStopDelay = 3.0

func defaultPhaseSetting() PhaseSetting {
	return PhaseSetting{StopDelay: DefaultStopDelay}
}

func (ps *PhaseSetting) valid() error {
	if !finite(ps.StopDelay) || ps.StopDelay < 0 {
		return errs.Configf("phase.stop_delay must be >= 0, got %v", ps.StopDelay)
	}
	return nil
}

// SimSetting 模擬器參數：固定 frame dt 與玩家反應時間模型（秒）
type SimSetting struct {
	FrameDT      float64 `yaml:"frame_dt"      json:"frame_dt"`
	ReactionMin  float64 `yaml:"reaction_min"  json:"reaction_min"`
	ReactionMean float64 `yaml:"reaction_mean" json:"reaction_mean"`
	ReactionMax  float64 `yaml:"reaction_max"  json:"reaction_max"`
	ResultHold   float64 `yaml:"result_hold"   json:"result_hold"`
}

const (
	DefaultFrameDT      = 1.0 / 60
	DefaultReactionMin  = 0.15
	DefaultReactionMean = 0.35
	DefaultReactionMax  = 2.0
	DefaultResultHold   = 1.0
)

func defaultSimSetting() SimSetting {
	return SimSetting{
		FrameDT:      DefaultFrameDT,
		ReactionMin:  DefaultReactionMin,
		ReactionMean: DefaultReactionMean,
		ReactionMax:  DefaultReactionMax,
		ResultHold:   DefaultResultHold,
	}
}

func (ss *SimSetting) valid() error {
	if !finite(ss.FrameDT) || ss.FrameDT <= 0 || ss.FrameDT > 1 {
		return errs.Configf("sim.frame_dt must be in (0,1], got %v", ss.FrameDT)
	}
	for k, v := range map[string]float64{
		"reaction_min":  ss.ReactionMin,
		"reaction_mean": ss.ReactionMean,
		"reaction_max":  ss.ReactionMax,
		"result_hold":   ss.ResultHold,
	} {
		if !finite(v) || v < 0 {
			return errs.Configf("sim.%s must be >= 0, got %v", k, v)
		}
	}
	if ss.ReactionMax < ss.ReactionMin {
		return errs.Configf("sim.reaction_max %v < reaction_min %v", ss.ReactionMax, ss.ReactionMin)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
