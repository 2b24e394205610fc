// Package app 提供彩纸演示应用的核心包装器
//
// 该包将初始化逻辑从 main 包提取出来，使其可以被桌面端和移动端共用。
// 桌面端通过 main.go 调用 NewApp()，移动端通过 mobile/mobile.go 调用。
package app

import (
	"fmt"
	"image/color"
	"io"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/decker502/konfetti/pkg/canvas"
	"github.com/decker502/konfetti/pkg/confetti"
	"github.com/decker502/konfetti/pkg/config"
	"github.com/decker502/konfetti/pkg/ecs"
	"github.com/decker502/konfetti/pkg/game"
	"github.com/decker502/konfetti/pkg/resources"
	"github.com/decker502/konfetti/pkg/scenes"
	"github.com/decker502/konfetti/pkg/systems"
	"github.com/decker502/konfetti/pkg/utils"
)

// AppName 持久化存储使用的应用名称
const AppName = "konfetti"

// Config 定义应用启动配置
type Config struct {
	// Verbose 启用详细日志输出
	Verbose bool
	// Preset 初始预设名称，为空则使用上次的预设
	Preset string
	// Seed 随机种子，0 表示按时间播种
	Seed int64
	// ConfigPath 预设配置文件路径，为空使用内置的 data/confetti.yaml
	ConfigPath string
}

// App 是应用的核心包装器，实现 ebiten.Game 接口
type App struct {
	sceneManager             *game.SceneManager
	settings                 *game.SettingsManager
	system                   *systems.ConfettiSystem
	verbose                  bool
	pendingWindowSizeReset   bool // 延迟设置窗口大小标志
	windowSizeResetCountdown int  // 延迟帧数
}

// NewApp 创建并初始化应用
//
// 调用此函数前，必须先调用 embedded.Init() 初始化嵌入资源。
func NewApp(cfg Config) (*App, error) {
	// 配置日志输出
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
		log.SetFlags(0)
	}

	// 持久化存储失败时降级为仅内存设置
	storage, err := utils.OpenStorage(AppName)
	if err != nil {
		log.Printf("[App] Warning: %v (settings will not be saved)", err)
		storage = nil
	}
	settings, err := game.NewSettingsManager(storage)
	if err != nil {
		return nil, fmt.Errorf("设置初始化失败: %w", err)
	}

	resourceManager := resources.NewResourceManager()
	configPath := cfg.ConfigPath
	if configPath == "" {
		configPath = config.DefaultConfettiConfigPath
	}
	confettiConfig, err := resourceManager.LoadConfettiConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("彩纸配置加载失败: %w", err)
	}
	log.Printf("[App] 加载 %d 个预设: %v", len(confettiConfig.Presets), confettiConfig.PresetNames())

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	system := systems.NewConfettiSystem(ecs.NewEntityManager(), confettiConfig, resourceManager, confetti.NewRand(seed))
	system.Scaler = canvas.Scaler{}

	a := &App{
		settings: settings,
		system:   system,
		verbose:  cfg.Verbose,
	}
	a.applySettings()

	scene := scenes.NewConfettiScene(system, settings, cfg.Preset)
	a.sceneManager = game.NewSceneManager()
	a.sceneManager.SwitchTo(scene)

	if settings.GetSettings().Fullscreen {
		ebiten.SetFullscreen(true)
	}

	log.Printf("[App] Starting with preset '%s' (seed=%d)", scene.CurrentPreset(), seed)
	return a, nil
}

// applySettings 将用户设置同步到彩纸系统
func (a *App) applySettings() {
	s := a.settings.GetSettings()
	a.system.Density = s.Density(canvas.DeviceDensity())
	a.system.Budget = s.ParticleBudget
	a.system.AmountScale = s.AmountScale()
	log.Printf("[App] density=%.2f budget=%d amountScale=%.2f", a.system.Density, a.system.Budget, a.system.AmountScale)
}

// Update 更新逻辑
// 每个 tick 调用一次（通常每秒 60 次）
func (a *App) Update() error {
	if ebiten.IsWindowBeingClosed() {
		a.sceneManager.SaveOnExit()
		return ebiten.Termination
	}

	// 延迟设置窗口大小（退出全屏后需要等待几帧才能正确设置）
	if a.pendingWindowSizeReset {
		a.windowSizeResetCountdown--
		if a.windowSizeResetCountdown <= 0 {
			ebiten.SetWindowSize(config.ScreenWidth, config.ScreenHeight)
			a.pendingWindowSizeReset = false
		}
	}

	// F11 切换全屏
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		if ebiten.IsFullscreen() {
			ebiten.SetFullscreen(false)
			if ebiten.IsWindowMaximized() || ebiten.IsWindowMinimized() {
				ebiten.RestoreWindow()
			}
			a.pendingWindowSizeReset = true
			a.windowSizeResetCountdown = 3
			a.settings.SetFullscreen(false)
		} else {
			ebiten.SetFullscreen(true)
			a.settings.SetFullscreen(true)
		}
	}

	deltaTime := 1.0 / 60.0
	a.sceneManager.Update(deltaTime)
	return nil
}

// Draw 绘制画面
func (a *App) Draw(screen *ebiten.Image) {
	a.sceneManager.Draw(screen)
}

// DrawFinalScreen 实现 FinalScreenDrawer 接口
// 用于控制全屏时的缩放和 letterbox 颜色
func (a *App) DrawFinalScreen(screen ebiten.FinalScreen, offscreen *ebiten.Image, geoM ebiten.GeoM) {
	screen.Fill(color.Black)
	op := &ebiten.DrawImageOptions{}
	op.GeoM = geoM
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(offscreen, op)
}

// Layout 返回逻辑屏幕尺寸
// 此尺寸独立于实际窗口大小，Ebitengine 会自动处理缩放
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return config.ScreenWidth, config.ScreenHeight
}

// GetSceneManager 返回场景管理器
func (a *App) GetSceneManager() *game.SceneManager {
	return a.sceneManager
}

// IsVerbose 返回是否启用了详细日志
func (a *App) IsVerbose() bool {
	return a.verbose
}
