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

// Package reel 轉輪運動控制器：加速 -> 等速 -> 減速 -> 對齊（snap），
// 每個 tick 依目前速度推動 strip，停輪完成後發出 "reel stopped"。
package reel

import (
	"log/slog"
	"math"

	"github.com/zintix-labs/lootreel/errs"
	"github.com/zintix-labs/lootreel/sdk/ease"
	"github.com/zintix-labs/lootreel/sdk/event"
	"github.com/zintix-labs/lootreel/sdk/strip"
)

// Config 轉輪運動參數（時間單位：秒；速度單位：offset/秒）
type Config struct {
	MaxSpeed    float64
	AccelTime   float64
	DecelTime   float64
	SnapTime    float64
	SnapEpsilon float64
}

func DefaultConfig() Config {
	return Config{
		MaxSpeed:    2000,
		AccelTime:   1.5,
		DecelTime:   2.0,
		SnapTime:    0.4,
		SnapEpsilon: 1,
	}
}

// Valid 檢查參數合法性
func (c Config) Valid() error {
	if !(c.MaxSpeed > 0) || math.IsInf(c.MaxSpeed, 0) {
		return errs.Configf("reel: max_speed must be > 0, got %v", c.MaxSpeed)
	}
	for name, v := range map[string]float64{
		"acceleration_time": c.AccelTime,
		"deceleration_time": c.DecelTime,
		"snap_time":         c.SnapTime,
		"snap_epsilon":      c.SnapEpsilon,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return errs.Configf("reel: %s must be >= 0, got %v", name, v)
		}
	}
	return nil
}

// Motion 轉輪運動子狀態
type Motion uint8

const (
	Stopped Motion = iota
	Accelerating
	Cruising
	Decelerating
	Snapping
)

var motionNames = map[Motion]string{
	Stopped:      "stopped",
	Accelerating: "accelerating",
	Cruising:     "cruising",
	Decelerating: "decelerating",
	Snapping:     "snapping",
}

func (m Motion) String() string {
	if s, ok := motionNames[m]; ok {
		return s
	}
	return "unknown"
}

// Controller 轉輪運動控制器。
//
// Controller 獨佔 strip 的寫入權；所有方法都假設在同一個 tick 執行緒上呼叫。
type Controller struct {
	strip  *strip.Strip
	cfg    Config
	pub    event.Publisher
	log    *slog.Logger
	runner ease.Runner

	speed     float64
	scrolling bool
	motion    Motion
	stops     uint64 // 已發出的停輪完成訊號數
}

// New 建立控制器；pub 可為 nil（不對外發訊號），log 為 nil 時靜默。
func New(s *strip.Strip, cfg Config, pub event.Publisher, log *slog.Logger) (*Controller, error) {
	if s == nil {
		return nil, errs.Configf("reel: strip is required")
	}
	if err := cfg.Valid(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		strip: s,
		cfg:   cfg,
		pub:   pub,
		log:   log,
	}, nil
}

// Attach 訂閱狀態機的 phase changed：spinning 開始轉、stopping 開始停，其餘忽略。
func (c *Controller) Attach(bus *event.Bus) {
	bus.Subscribe(event.PhaseChanged, c.onPhaseChanged)
}

func (c *Controller) onPhaseChanged(ev event.Event) {
	switch ev.Phase {
	case "spinning":
		c.StartSpinning()
	case "stopping":
		c.StartStopping()
	}
}

// StartSpinning 速度歸零後以 ease-in 加速到 MaxSpeed；加速完成後維持等速，直到外部要求停止。
func (c *Controller) StartSpinning() {
	c.scrolling = true
	c.speed = 0
	c.setMotion(Accelerating)
	c.runner.Set(ease.NewPath().
		CubicIn(c.cfg.AccelTime, 0, c.cfg.MaxSpeed, c.setSpeed).
		Action(func() { c.setMotion(Cruising) }))
}

// StartStopping 以目前速度為起點 ease-out 減速到 0，完成後進入 snap。
// 會直接取代尚未完成的加速段。
func (c *Controller) StartStopping() {
	start := c.speed
	c.setMotion(Decelerating)
	c.runner.Set(ease.NewPath().
		CubicOut(c.cfg.DecelTime, start, 0, c.setSpeed).
		Action(func() {
			c.speed = 0
			c.SnapToCenter()
		}))
}

// SnapToCenter 把最接近中心的 Item 平滑對齊到 0，整條帶子一起平移以維持間距。
//
// 沒有 Item、或距離已小於 SnapEpsilon 時直接結束，不做任何平移。
func (c *Controller) SnapToCenter() {
	closest, ok := c.strip.FindClosestToCenter()
	if !ok {
		c.FinishStopping()
		return
	}
	startY := closest.Offset()
	if math.Abs(startY) < c.cfg.SnapEpsilon {
		c.FinishStopping()
		return
	}
	c.setMotion(Snapping)
	c.runner.Set(ease.NewPath().
		QuadOut(c.cfg.SnapTime, startY, 0, func(target float64) {
			// 以目標值與目前實際位置的差值平移，避免累積誤差
			c.strip.ShiftAll(target - closest.Offset())
		}).
		Action(c.FinishStopping))
}

// FinishStopping 結束停輪流程並發出 reel stopped。
func (c *Controller) FinishStopping() {
	c.runner.Clear()
	c.scrolling = false
	c.speed = 0
	c.setMotion(Stopped)
	c.stops++
	if c.pub != nil {
		c.pub.Publish(event.Event{Name: event.ReelStopped})
	}
}

// Tick 依目前速度推動 strip；未在捲動或速度為 0 時不做事。
func (c *Controller) Tick(dt float64) {
	if !c.scrolling || c.speed <= 0 {
		return
	}
	if math.IsNaN(dt) || dt <= 0 {
		return
	}
	c.strip.Advance(c.speed * dt)
}

// Update 先推進 easing（更新速度 / snap 平移），再以新速度 Tick。
func (c *Controller) Update(dt float64) {
	c.runner.Update(dt)
	c.Tick(dt)
}

func (c *Controller) setSpeed(v float64) {
	if v < 0 || math.IsNaN(v) {
		v = 0
	}
	c.speed = v
}

func (c *Controller) setMotion(m Motion) {
	if c.motion == m {
		return
	}
	c.log.Debug("reel motion", slog.String("from", c.motion.String()), slog.String("to", m.String()))
	c.motion = m
}

// Center 目前最接近中心的 Item
func (c *Controller) Center() (*strip.Item, bool) {
	return c.strip.FindClosestToCenter()
}

func (c *Controller) Speed() float64      { return c.speed }
func (c *Controller) Scrolling() bool     { return c.scrolling }
func (c *Controller) Motion() Motion      { return c.motion }
func (c *Controller) Easing() bool        { return c.runner.Active() }
func (c *Controller) Stops() uint64       { return c.stops }
func (c *Controller) Config() Config      { return c.cfg }
func (c *Controller) Strip() *strip.Strip { return c.strip }
