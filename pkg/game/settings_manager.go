package game

import (
	"fmt"
	"log"
	"math"

	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

// 设置取值范围
const (
	MinDensityOverride = 0.5
	MaxDensityOverride = 4.0

	// DefaultParticleBudget 默认全局粒子上限
	DefaultParticleBudget = 1500

	// ReducedMotionScale 减少动效模式下 burst 数量与 stream 速率的倍数
	ReducedMotionScale = 0.25
)

// ConfettiSettings 全局彩纸设置
type ConfettiSettings struct {
	// DensityOverride 覆盖屏幕像素密度，0 表示使用设备密度
	DensityOverride float64 `yaml:"densityOverride"`

	// ParticleBudget 同时存活的粒子上限，0 表示不限
	ParticleBudget int `yaml:"particleBudget"`

	// ReducedMotion 减少动效：降低粒子数量
	ReducedMotion bool `yaml:"reducedMotion"`

	// LastPreset 上次使用的预设名称
	LastPreset string `yaml:"lastPreset"`

	// Fullscreen 启动时是否全屏
	Fullscreen bool `yaml:"fullscreen"`
}

// DefaultSettings 返回默认设置
func DefaultSettings() *ConfettiSettings {
	return &ConfettiSettings{
		DensityOverride: 0,
		ParticleBudget:  DefaultParticleBudget,
		ReducedMotion:   false,
		LastPreset:      "",
		Fullscreen:      false,
	}
}

// Density 返回生效的像素密度
//
// 参数：
//   - deviceDensity: 设备报告的密度
func (s *ConfettiSettings) Density(deviceDensity float64) float64 {
	if s.DensityOverride > 0 {
		return s.DensityOverride
	}
	if deviceDensity > 0 {
		return deviceDensity
	}
	return 1
}

// AmountScale 返回粒子数量倍数
func (s *ConfettiSettings) AmountScale() float64 {
	if s.ReducedMotion {
		return ReducedMotionScale
	}
	return 1
}

// SettingsManager 设置管理器
// 负责彩纸设置的加载、保存和内存管理
type SettingsManager struct {
	gdataManager *gdata.Manager    // gdata 跨平台存储管理器，可为 nil（降级模式）
	settings     *ConfettiSettings // 当前设置
}

// 存储路径常量
const (
	settingsObject   = "settings"
	settingsProperty = "confetti"
)

// NewSettingsManager 创建新的设置管理器实例
//
// 参数：
//   - gdataManager: gdata 跨平台存储管理器，可为 nil（降级模式，仅内存设置）
//
// 返回：
//   - *SettingsManager: 设置管理器实例
//   - error: 如果加载设置失败返回错误（不影响创建）
func NewSettingsManager(gdataManager *gdata.Manager) (*SettingsManager, error) {
	sm := &SettingsManager{
		gdataManager: gdataManager,
		settings:     DefaultSettings(),
	}

	// 尝试加载已保存的设置
	if err := sm.Load(); err != nil {
		// 加载失败不是致命错误，使用默认设置
		log.Printf("[SettingsManager] Warning: Failed to load settings: %v (using defaults)", err)
	}

	return sm, nil
}

// Load 从 gdata 加载设置
//
// 如果 gdataManager 为 nil 或文件不存在，使用默认设置
//
// 返回：
//   - error: 如果反序列化失败返回错误
func (sm *SettingsManager) Load() error {
	// 降级模式：无法持久化，使用默认设置
	if sm.gdataManager == nil {
		sm.settings = DefaultSettings()
		return nil
	}

	if !sm.gdataManager.ObjectPropExists(settingsObject, settingsProperty) {
		sm.settings = DefaultSettings()
		return nil
	}

	data, err := sm.gdataManager.LoadObjectProp(settingsObject, settingsProperty)
	if err != nil {
		sm.settings = DefaultSettings()
		return fmt.Errorf("failed to load settings: %w", err)
	}

	// 从默认值开始反序列化，旧版本文件中缺失的字段保持默认
	loaded := DefaultSettings()
	if err := yaml.Unmarshal(data, loaded); err != nil {
		sm.settings = DefaultSettings()
		return fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	loaded.DensityOverride = clampDensity(loaded.DensityOverride)
	if loaded.ParticleBudget < 0 {
		loaded.ParticleBudget = 0
	}

	sm.settings = loaded
	log.Printf("[SettingsManager] Settings loaded successfully")
	return nil
}

// Save 保存设置到 gdata
//
// 如果 gdataManager 为 nil，返回 nil（降级模式，不报错）
func (sm *SettingsManager) Save() error {
	if sm.gdataManager == nil {
		return nil
	}

	data, err := yaml.Marshal(sm.settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := sm.gdataManager.SaveObjectProp(settingsObject, settingsProperty, data); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	log.Printf("[SettingsManager] Settings saved successfully")
	return nil
}

// GetSettings 获取当前设置
func (sm *SettingsManager) GetSettings() *ConfettiSettings {
	return sm.settings
}

// SetDensityOverride 设置像素密度覆盖值
//
// 0 表示使用设备密度，其他值被限制在 0.5 ~ 4.0 范围内
// 注意：仅修改内存中的设置，需调用 Save() 方法持久化
func (sm *SettingsManager) SetDensityOverride(density float64) {
	sm.settings.DensityOverride = clampDensity(density)
}

// SetParticleBudget 设置全局粒子上限，负数视为 0（不限）
func (sm *SettingsManager) SetParticleBudget(budget int) {
	if budget < 0 {
		budget = 0
	}
	sm.settings.ParticleBudget = budget
}

// SetReducedMotion 设置减少动效模式
func (sm *SettingsManager) SetReducedMotion(enabled bool) {
	sm.settings.ReducedMotion = enabled
}

// SetLastPreset 记录上次使用的预设
func (sm *SettingsManager) SetLastPreset(name string) {
	sm.settings.LastPreset = name
}

// SetFullscreen 设置全屏模式
func (sm *SettingsManager) SetFullscreen(enabled bool) {
	sm.settings.Fullscreen = enabled
}

// clampDensity 将密度覆盖值限制在有效范围内，0 与非法值表示不覆盖
func clampDensity(density float64) float64 {
	if density <= 0 || math.IsNaN(density) {
		return 0
	}
	if density < MinDensityOverride {
		return MinDensityOverride
	}
	if density > MaxDensityOverride {
		return MaxDensityOverride
	}
	return density
}
