package config

// 逻辑屏幕尺寸（Ebitengine 会自动缩放到窗口）
const (
	ScreenWidth  = 800
	ScreenHeight = 600
)
