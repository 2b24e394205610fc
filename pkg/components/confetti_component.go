package components

import (
	"github.com/decker502/konfetti/pkg/confetti"
	"github.com/decker502/konfetti/pkg/ecs"
)

// ConfettiComponent 单个彩纸粒子
//
// 粒子的物理状态与绘制全部由 confetti.Confetti 负责，组件只记录归属的发射器
// 与每帧施加的外力。
type ConfettiComponent struct {
	Particle  *confetti.Confetti
	EmitterID ecs.EntityID
	Force     confetti.Vector // 发射器的重力 + 风力，创建时拷贝
}
