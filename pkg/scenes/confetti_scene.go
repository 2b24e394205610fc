package scenes

import (
	"fmt"
	"image/color"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/decker502/konfetti/pkg/canvas"
	"github.com/decker502/konfetti/pkg/config"
	"github.com/decker502/konfetti/pkg/game"
	"github.com/decker502/konfetti/pkg/systems"
	"github.com/decker502/konfetti/pkg/utils"
)

var (
	backgroundColor = color.RGBA{R: 0x1e, G: 0x1f, B: 0x2b, A: 0xff}
	overlayColor    = color.RGBA{A: 0x99}
)

const (
	overlayHeight = 52

	// overlaySlideTime 信息面板滑入/滑出时长（秒）
	overlaySlideTime = 0.25

	desktopHint = "click: burst  space: stream  left/right: preset  R: clear  M: reduced motion"
	mobileHint  = "tap: burst  swipe: preset"
)

// ConfettiScene 彩纸演示场景
//
// 桌面端：点击发射当前预设，空格从顶部持续发射，左右方向键切换预设，
// R 清空，M 切换减少动效。移动端：轻触发射，左右滑动切换预设。
type ConfettiScene struct {
	system   *systems.ConfettiSystem
	settings *game.SettingsManager
	gestures *utils.GestureTracker
	canvas   *canvas.Canvas

	presets []string
	current int

	width, height float64

	// input 为 false 时不读取 ebiten 输入（测试使用）
	input       bool
	showOverlay bool

	// overlayProgress 面板展开进度 [0, 1]，向 showOverlay 逼近
	overlayProgress float64
}

// NewConfettiScene 创建彩纸演示场景
//
// 参数：
//   - system: 已配置好预设的彩纸系统
//   - settings: 设置管理器，可为 nil
//   - initialPreset: 初始预设名称，为空时使用上次的预设或第一个预设
func NewConfettiScene(system *systems.ConfettiSystem, settings *game.SettingsManager, initialPreset string) *ConfettiScene {
	s := &ConfettiScene{
		system:      system,
		settings:    settings,
		gestures:    utils.NewGestureTracker(),
		width:       system.Width,
		height:      system.Height,
		input:       true,
		showOverlay: true,

		overlayProgress: 1,
	}
	if system.Config != nil {
		s.presets = system.Config.PresetNames()
	}

	name := initialPreset
	if name == "" && settings != nil {
		name = settings.GetSettings().LastPreset
	}
	if name != "" && !s.selectPreset(name) {
		log.Printf("[ConfettiScene] 警告: 预设 '%s' 不存在，使用默认预设", name)
	}

	log.Printf("[ConfettiScene] 初始化完成: %d 个预设, 当前=%s", len(s.presets), s.CurrentPreset())
	return s
}

func (s *ConfettiScene) selectPreset(name string) bool {
	for i, p := range s.presets {
		if p == name {
			s.current = i
			return true
		}
	}
	return false
}

// CurrentPreset 返回当前预设名称
func (s *ConfettiScene) CurrentPreset() string {
	if len(s.presets) == 0 {
		return ""
	}
	return s.presets[s.current]
}

// NextPreset 切换到下一个预设（循环）
func (s *ConfettiScene) NextPreset() {
	s.cyclePreset(1)
}

// PrevPreset 切换到上一个预设（循环）
func (s *ConfettiScene) PrevPreset() {
	s.cyclePreset(-1)
}

func (s *ConfettiScene) cyclePreset(step int) {
	n := len(s.presets)
	if n == 0 {
		return
	}
	s.current = ((s.current+step)%n + n) % n
	if s.settings != nil {
		s.settings.SetLastPreset(s.CurrentPreset())
	}
	log.Printf("[ConfettiScene] 切换预设: %s", s.CurrentPreset())
}

// BurstAt 在指定位置按当前预设的模式发射
func (s *ConfettiScene) BurstAt(x, y float64) {
	if _, err := s.system.Emit(s.CurrentPreset(), x, y); err != nil {
		log.Printf("[ConfettiScene] 发射失败: %v", err)
	}
}

// StreamFromTop 从屏幕顶部持续发射当前预设
//
// 预设自带横向发射范围（originX）时发射点位于左上角，否则位于顶部中央。
func (s *ConfettiScene) StreamFromTop() {
	name := s.CurrentPreset()
	x := s.width / 2
	if preset, ok := s.presetConfig(name); ok && preset.OriginX != "" {
		x = 0
	}
	if _, err := s.system.Stream(name, x, 0); err != nil {
		log.Printf("[ConfettiScene] 发射失败: %v", err)
	}
}

func (s *ConfettiScene) presetConfig(name string) (*config.EmitterPreset, bool) {
	if s.system.Config == nil {
		return nil, false
	}
	return s.system.Config.Preset(name)
}

// Clear 清空所有彩纸
func (s *ConfettiScene) Clear() {
	s.system.Clear()
}

// ToggleReducedMotion 切换减少动效模式，对之后创建的发射器生效
func (s *ConfettiScene) ToggleReducedMotion() {
	if s.settings == nil {
		return
	}
	settings := s.settings.GetSettings()
	s.settings.SetReducedMotion(!settings.ReducedMotion)
	s.system.AmountScale = settings.AmountScale()
	log.Printf("[ConfettiScene] 减少动效: %v", settings.ReducedMotion)
}

// ToggleOverlay 切换信息面板（带滑动动画）
func (s *ConfettiScene) ToggleOverlay() {
	s.showOverlay = !s.showOverlay
}

// Update 处理输入并推进彩纸系统
func (s *ConfettiScene) Update(deltaTime float64) {
	if s.input {
		s.handleInput()
	}

	target := 0.0
	if s.showOverlay {
		target = 1
	}
	s.overlayProgress = utils.Approach(s.overlayProgress, target, deltaTime/overlaySlideTime)

	s.system.Update(deltaTime)
}

func (s *ConfettiScene) handleInput() {
	switch s.gestures.Update() {
	case utils.GestureTap:
		info := s.gestures.Info()
		s.BurstAt(float64(info.StartX), float64(info.StartY))
	case utils.GestureSwipeLeft:
		s.NextPreset()
	case utils.GestureSwipeRight:
		s.PrevPreset()
	}

	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		s.StreamFromTop()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyRight) {
		s.NextPreset()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyLeft) {
		s.PrevPreset()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		s.Clear()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyM) {
		s.ToggleReducedMotion()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		s.ToggleOverlay()
	}
}

// Draw 绘制背景、彩纸与信息面板
func (s *ConfettiScene) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)

	if s.canvas == nil {
		s.canvas = canvas.New(screen)
	} else {
		s.canvas.Reset(screen)
	}
	s.system.Draw(s.canvas)

	if s.overlayProgress > 0 {
		s.drawOverlay(screen)
	}
}

// overlayOffset 面板顶部的纵向偏移，收起时为 -overlayHeight
func (s *ConfettiScene) overlayOffset() float64 {
	return utils.Lerp(-overlayHeight, 0, utils.EaseOutCubic(s.overlayProgress))
}

func (s *ConfettiScene) drawOverlay(screen *ebiten.Image) {
	y := s.overlayOffset()
	vector.DrawFilledRect(screen, 0, float32(y), float32(s.width), overlayHeight, overlayColor, false)
	ebitenutil.DebugPrintAt(screen, s.overlayText(), 8, int(y)+4)
}

// overlayText 信息面板文本
func (s *ConfettiScene) overlayText() string {
	hint := desktopHint
	if utils.IsMobile() {
		hint = mobileHint
	}
	return fmt.Sprintf("preset: %s (%d/%d)\nparticles: %d  emitters: %d  FPS: %.0f\n%s",
		s.CurrentPreset(), s.current+1, len(s.presets),
		s.system.ActiveCount(), s.system.EmitterCount(), ebiten.ActualFPS(),
		hint)
}

// SaveOnExit 实现 game.Saveable，退出时保存设置（包括上次使用的预设）
func (s *ConfettiScene) SaveOnExit() bool {
	if s.settings == nil {
		return true
	}
	if err := s.settings.Save(); err != nil {
		log.Printf("[ConfettiScene] 保存设置失败: %v", err)
		return false
	}
	return true
}
