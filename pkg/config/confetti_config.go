package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/decker502/konfetti/internal/particle"
	"github.com/decker502/konfetti/pkg/confetti"
)

// DefaultConfettiConfigPath 内置预设配置文件路径（位于嵌入的 data/ 目录）
const DefaultConfettiConfigPath = "data/confetti.yaml"

// 发射模式
const (
	ModeBurst  = "burst"  // 一次性爆发 Amount 个粒子
	ModeStream = "stream" // 以 Rate 个/秒持续发射，直到 Duration 结束
)

// 粒子形状名称
const (
	ShapeCircle = "circle"
	ShapeRect   = "rect"
	ShapeBitmap = "bitmap"
)

// ConfettiConfig 彩纸效果配置
//
// 配置文件位置: data/confetti.yaml
type ConfettiConfig struct {
	// Images 位图资源映射：图片ID -> 嵌入资源路径（如 "assets/images/star.png"）
	Images map[string]string `yaml:"images"`

	// Presets 发射器预设列表，按配置顺序排列
	Presets []EmitterPreset `yaml:"presets"`
}

// EmitterPreset 单个发射器预设
//
// 取值类字段使用粒子取值语法："5" 为固定值，"[4 7]" 为随机范围。
type EmitterPreset struct {
	// Name 预设名称（唯一）
	Name string `yaml:"name"`

	// Mode 发射模式：burst 或 stream
	Mode string `yaml:"mode"`

	// Amount burst 模式下一次发射的粒子数
	Amount int `yaml:"amount"`

	// Rate stream 模式下每秒发射的粒子数
	Rate float64 `yaml:"rate"`

	// Duration stream 模式的持续时间，0 表示一直发射
	Duration time.Duration `yaml:"duration"`

	// MaxActive 该发射器同时存活的粒子上限，0 表示不限
	MaxActive int `yaml:"maxActive"`

	// OriginX/OriginY 发射位置，相对屏幕宽高的比例（0-1），叠加在发射点上
	// 为空时使用发射点本身
	OriginX string `yaml:"originX"`
	OriginY string `yaml:"originY"`

	// Direction 发射角度（度）：0 向右，90 向下，180 向左，270 向上
	Direction string `yaml:"direction"`

	// Speed 初速度（像素/参考帧）
	Speed string `yaml:"speed"`

	// Lifespan 固定寿命，0 表示按透明度淡出
	Lifespan time.Duration `yaml:"lifespan"`

	// FadeOut 是否逐渐淡出，缺省为 true
	FadeOut *bool `yaml:"fadeOut"`

	// Colors 颜色列表（#RRGGBB 或 #AARRGGBB），circle/rect 粒子从中随机取色
	Colors []string `yaml:"colors"`

	// Shapes 形状列表：circle、rect、bitmap，缺省为 [rect, circle]
	Shapes []string `yaml:"shapes"`

	// Bitmaps bitmap 形状可用的位图
	Bitmaps []BitmapConfig `yaml:"bitmaps"`

	// Sizes 尺寸列表（dp），缺省为单个 10dp
	Sizes []SizeConfig `yaml:"sizes"`

	// Gravity/Wind 每帧施加给粒子的力
	Gravity ForceConfig `yaml:"gravity"`
	Wind    ForceConfig `yaml:"wind"`
}

// BitmapConfig 位图形状配置
type BitmapConfig struct {
	// Image 图片ID，对应 ConfettiConfig.Images 的键
	Image string `yaml:"image"`

	// Colors 该位图的着色调色板
	Colors []string `yaml:"colors"`

	// Scale 基础缩放倍数，0 表示 1
	Scale float64 `yaml:"scale"`

	// ScaleRange 缩放随机幅度（±）
	ScaleRange float64 `yaml:"scaleRange"`
}

// SizeConfig 粒子尺寸配置
type SizeConfig struct {
	// Size 边长（dp），渲染时乘以屏幕密度
	Size float64 `yaml:"size"`

	// Mass 质量，0 表示使用 confetti.DefaultMass
	Mass float64 `yaml:"mass"`
}

// ForceConfig 力向量配置
type ForceConfig struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Vector 转换为 confetti.Vector
func (f ForceConfig) Vector() confetti.Vector {
	return confetti.Vector{X: f.X, Y: f.Y}
}

// LoadConfettiConfig 从文件系统加载彩纸配置
func LoadConfettiConfig(path string) (*ConfettiConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read confetti config: %w", err)
	}
	return ParseConfettiConfig(data)
}

// ParseConfettiConfig 解析并验证 YAML 格式的彩纸配置
func ParseConfettiConfig(data []byte) (*ConfettiConfig, error) {
	var cfg ConfettiConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse confetti config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid confetti config: %w", err)
	}

	return &cfg, nil
}

// Validate 验证配置有效性
//
// 检查内容：
//   - 至少一个预设，名称非空且唯一
//   - 模式合法，burst 的 Amount > 0，stream 的 Rate > 0
//   - 取值字段可解析，颜色合法
//   - 形状合法；circle/rect 需要颜色，bitmap 需要位图
//   - 位图引用的图片ID存在，调色板非空
//   - 尺寸 > 0，质量不为负
func (c *ConfettiConfig) Validate() error {
	if len(c.Presets) == 0 {
		return fmt.Errorf("no presets defined")
	}

	seen := make(map[string]bool, len(c.Presets))
	for i := range c.Presets {
		p := &c.Presets[i]
		if p.Name == "" {
			return fmt.Errorf("preset #%d has no name", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate preset name '%s'", p.Name)
		}
		seen[p.Name] = true

		if err := c.validatePreset(p); err != nil {
			return fmt.Errorf("preset '%s': %w", p.Name, err)
		}
	}

	return nil
}

func (c *ConfettiConfig) validatePreset(p *EmitterPreset) error {
	switch p.Mode {
	case ModeBurst:
		if p.Amount <= 0 {
			return fmt.Errorf("burst amount must be > 0, got %d", p.Amount)
		}
	case ModeStream:
		if p.Rate <= 0 {
			return fmt.Errorf("stream rate must be > 0, got %.2f", p.Rate)
		}
		if p.Duration < 0 {
			return fmt.Errorf("stream duration must be >= 0, got %v", p.Duration)
		}
	default:
		return fmt.Errorf("unknown mode '%s' (want %s or %s)", p.Mode, ModeBurst, ModeStream)
	}

	if p.MaxActive < 0 {
		return fmt.Errorf("maxActive must be >= 0, got %d", p.MaxActive)
	}

	for _, f := range []struct{ name, value string }{
		{"originX", p.OriginX},
		{"originY", p.OriginY},
		{"direction", p.Direction},
		{"speed", p.Speed},
	} {
		if _, err := particle.ParseRange(f.value); err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
	}

	if _, err := ParseColors(p.Colors); err != nil {
		return err
	}

	needColors := false
	for _, shape := range p.ShapeNames() {
		switch shape {
		case ShapeCircle, ShapeRect:
			needColors = true
		case ShapeBitmap:
			if len(p.Bitmaps) == 0 {
				return fmt.Errorf("bitmap shape requires at least one bitmap")
			}
		default:
			return fmt.Errorf("unknown shape '%s'", shape)
		}
	}
	if needColors && len(p.Colors) == 0 {
		return fmt.Errorf("circle/rect shapes require at least one color")
	}

	for j, b := range p.Bitmaps {
		if _, ok := c.Images[b.Image]; !ok {
			return fmt.Errorf("bitmap #%d references unknown image '%s'", j, b.Image)
		}
		if len(b.Colors) == 0 {
			return fmt.Errorf("bitmap #%d has an empty palette", j)
		}
		if _, err := ParseColors(b.Colors); err != nil {
			return fmt.Errorf("bitmap #%d: %w", j, err)
		}
		if b.Scale < 0 || b.ScaleRange < 0 {
			return fmt.Errorf("bitmap #%d: scale and scaleRange must be >= 0", j)
		}
	}

	for j, s := range p.Sizes {
		if s.Size <= 0 {
			return fmt.Errorf("size #%d must be > 0, got %.2f", j, s.Size)
		}
		if s.Mass < 0 {
			return fmt.Errorf("size #%d mass must be > 0, got %.2f", j, s.Mass)
		}
	}

	return nil
}

// Preset 按名称查找预设
func (c *ConfettiConfig) Preset(name string) (*EmitterPreset, bool) {
	for i := range c.Presets {
		if c.Presets[i].Name == name {
			return &c.Presets[i], true
		}
	}
	return nil, false
}

// PresetNames 返回所有预设名称（配置顺序）
func (c *ConfettiConfig) PresetNames() []string {
	names := make([]string, 0, len(c.Presets))
	for _, p := range c.Presets {
		names = append(names, p.Name)
	}
	return names
}

// FadeOutEnabled 返回是否淡出（缺省 true）
func (p *EmitterPreset) FadeOutEnabled() bool {
	if p.FadeOut == nil {
		return true
	}
	return *p.FadeOut
}

// ShapeNames 返回规范化后的形状列表
func (p *EmitterPreset) ShapeNames() []string {
	if len(p.Shapes) == 0 {
		return []string{ShapeRect, ShapeCircle}
	}
	names := make([]string, 0, len(p.Shapes))
	for _, s := range p.Shapes {
		names = append(names, strings.ToLower(strings.TrimSpace(s)))
	}
	return names
}

// SizeList 返回尺寸列表，补全缺省值
func (p *EmitterPreset) SizeList() []SizeConfig {
	if len(p.Sizes) == 0 {
		return []SizeConfig{{Size: 10, Mass: confetti.DefaultMass}}
	}
	sizes := make([]SizeConfig, 0, len(p.Sizes))
	for _, s := range p.Sizes {
		if s.Mass == 0 {
			s.Mass = confetti.DefaultMass
		}
		sizes = append(sizes, s)
	}
	return sizes
}

// ParseColors 解析颜色字符串列表
func ParseColors(values []string) ([]confetti.Color, error) {
	colors := make([]confetti.Color, 0, len(values))
	for _, v := range values {
		c, err := confetti.ParseColor(v)
		if err != nil {
			return nil, err
		}
		colors = append(colors, c)
	}
	return colors, nil
}
