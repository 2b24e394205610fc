package systems

import (
	"fmt"
	"image"
	"log"
	"math"
	"time"

	particlePkg "github.com/decker502/konfetti/internal/particle"
	"github.com/decker502/konfetti/pkg/components"
	"github.com/decker502/konfetti/pkg/confetti"
	"github.com/decker502/konfetti/pkg/config"
	"github.com/decker502/konfetti/pkg/ecs"
)

// scheduleTolerance absorbs float rounding when comparing emitter age with
// stream spawn slots (seconds).
const scheduleTolerance = 1e-9

// ImageLoader resolves the image paths referenced by a preset's bitmaps.
// *resources.ResourceManager satisfies it.
type ImageLoader interface {
	LoadImage(path string) (image.Image, error)
}

// ConfettiStats 累计统计（供模拟器与调试面板使用）
type ConfettiStats struct {
	Spawned   int // 已创建的粒子总数
	Destroyed int // 已销毁的粒子总数
	Dropped   int // 因 MaxActive 或全局预算被跳过的发射次数
}

// ConfettiSystem manages confetti emitters and the particles they launch.
//
// The system processes each frame in three phases:
//  1. Update all particles (apply emitter force, advance physics, destroy dead ones)
//  2. Update all emitters (age, spawn new particles, remove finished emitters)
//  3. Flush deferred entity removal
//
// Drawing is separate: Draw displays every live particle onto a confetti.Canvas.
//
// Follows ECS zero-coupling principle: communicates only through EntityManager.
type ConfettiSystem struct {
	EntityManager *ecs.EntityManager
	Config        *config.ConfettiConfig
	Images        ImageLoader

	// Rand 用于所有随机采样（发射位置、方向、形状以及粒子构造）
	Rand confetti.Rand
	// Scaler 为位图粒子生成缩放后的图片，nil 使用 confetti.NearestScaler
	Scaler confetti.ImageScaler

	// Density 屏幕像素密度，尺寸(dp) × Density = 像素
	Density float64

	// Width/Height 屏幕尺寸，用于把预设中的比例坐标换算为像素
	Width  float64
	Height float64

	// Budget 全局同时存活粒子上限，0 表示不限
	Budget int

	// AmountScale 缩放 burst 数量与 stream 速率（减少动效模式），0 视为 1
	AmountScale float64

	stats ConfettiStats
	alive int
}

// NewConfettiSystem creates a new ConfettiSystem instance.
//
// rng 为 nil 时使用按时间播种的随机源。
func NewConfettiSystem(em *ecs.EntityManager, cfg *config.ConfettiConfig, images ImageLoader, rng confetti.Rand) *ConfettiSystem {
	if rng == nil {
		rng = confetti.NewRand(time.Now().UnixNano())
	}
	return &ConfettiSystem{
		EntityManager: em,
		Config:        cfg,
		Images:        images,
		Rand:          rng,
		Density:       confetti.DefaultDensity,
		Width:         config.ScreenWidth,
		Height:        config.ScreenHeight,
	}
}

// Emit creates an emitter for the named preset using the preset's own mode.
func (s *ConfettiSystem) Emit(name string, x, y float64) (ecs.EntityID, error) {
	preset, err := s.preset(name)
	if err != nil {
		return 0, err
	}
	if preset.Mode == config.ModeStream {
		return s.createEmitter(preset, config.ModeStream, x, y)
	}
	return s.createEmitter(preset, config.ModeBurst, x, y)
}

// Burst creates an emitter that launches the preset's particles all at once.
//
// A stream preset bursts one second worth of particles (Rate).
func (s *ConfettiSystem) Burst(name string, x, y float64) (ecs.EntityID, error) {
	preset, err := s.preset(name)
	if err != nil {
		return 0, err
	}
	return s.createEmitter(preset, config.ModeBurst, x, y)
}

// Stream creates an emitter that launches the preset's particles over time.
//
// A burst preset streams Amount particles per second for one second.
func (s *ConfettiSystem) Stream(name string, x, y float64) (ecs.EntityID, error) {
	preset, err := s.preset(name)
	if err != nil {
		return 0, err
	}
	return s.createEmitter(preset, config.ModeStream, x, y)
}

func (s *ConfettiSystem) preset(name string) (*config.EmitterPreset, error) {
	if s.Config == nil {
		return nil, fmt.Errorf("confetti system has no presets loaded")
	}
	preset, ok := s.Config.Preset(name)
	if !ok {
		return nil, fmt.Errorf("unknown confetti preset '%s'", name)
	}
	return preset, nil
}

// createEmitter parses the preset into an EmitterComponent and adds the
// emitter entity. Bitmap images are resolved here so a missing asset is
// reported once instead of on every spawn.
func (s *ConfettiSystem) createEmitter(preset *config.EmitterPreset, mode string, x, y float64) (ecs.EntityID, error) {
	emitter := &components.EmitterComponent{
		Preset:         preset,
		Mode:           mode,
		Active:         true,
		SpawnMaxActive: preset.MaxActive,
		Sizes:          preset.SizeList(),
		Lifespan:       preset.Lifespan,
		FadeOut:        preset.FadeOutEnabled(),
	}

	scale := s.AmountScale
	if scale <= 0 {
		scale = 1
	}

	switch mode {
	case config.ModeBurst:
		amount := preset.Amount
		if amount <= 0 {
			amount = int(math.Round(preset.Rate))
		}
		emitter.Amount = int(math.Round(float64(amount) * scale))
		if emitter.Amount < 1 {
			emitter.Amount = 1
		}
	case config.ModeStream:
		rate := preset.Rate
		duration := preset.Duration
		if rate <= 0 {
			rate = float64(preset.Amount)
			if duration == 0 {
				duration = time.Second
			}
		}
		if rate <= 0 {
			return 0, fmt.Errorf("preset '%s' has neither rate nor amount", preset.Name)
		}
		emitter.SpawnRate = rate * scale
		emitter.Duration = duration.Seconds()
		if emitter.Duration > 0 {
			// rate × duration 个发射槽, 3.3/s 持续 1s 为 4 个
			emitter.SpawnLimit = int(math.Ceil(emitter.SpawnRate*emitter.Duration - scheduleTolerance))
			if emitter.SpawnLimit < 1 {
				emitter.SpawnLimit = 1
			}
		}
	}

	var err error
	ranges := []struct {
		name  string
		value string
		dst   *particlePkg.Range
	}{
		{"originX", preset.OriginX, &emitter.OriginX},
		{"originY", preset.OriginY, &emitter.OriginY},
		{"direction", preset.Direction, &emitter.Direction},
		{"speed", preset.Speed, &emitter.Speed},
	}
	for _, r := range ranges {
		if *r.dst, err = particlePkg.ParseRange(r.value); err != nil {
			return 0, fmt.Errorf("preset '%s' %s: %w", preset.Name, r.name, err)
		}
	}

	if emitter.Colors, err = config.ParseColors(preset.Colors); err != nil {
		return 0, fmt.Errorf("preset '%s': %w", preset.Name, err)
	}

	if emitter.Shapes, err = s.resolveShapes(preset); err != nil {
		return 0, fmt.Errorf("preset '%s': %w", preset.Name, err)
	}

	emitter.Force = preset.Gravity.Vector()
	emitter.Force.Add(preset.Wind.Vector())

	id := s.EntityManager.CreateEntity()
	s.EntityManager.AddComponent(id, emitter)
	s.EntityManager.AddComponent(id, &components.PositionComponent{X: x, Y: y})

	log.Printf("[ConfettiSystem] 创建发射器: ID=%d, preset=%s, mode=%s, 位置=(%.1f, %.1f)",
		id, preset.Name, mode, x, y)

	return id, nil
}

func (s *ConfettiSystem) resolveShapes(preset *config.EmitterPreset) ([]confetti.Shape, error) {
	shapes := make([]confetti.Shape, 0, len(preset.ShapeNames()))
	for _, name := range preset.ShapeNames() {
		switch name {
		case config.ShapeCircle:
			shapes = append(shapes, confetti.CircleShape)
		case config.ShapeRect:
			shapes = append(shapes, confetti.RectShape)
		case config.ShapeBitmap:
			for _, b := range preset.Bitmaps {
				shape, err := s.bitmapShape(b)
				if err != nil {
					return nil, err
				}
				shapes = append(shapes, shape)
			}
		default:
			return nil, fmt.Errorf("unknown shape '%s'", name)
		}
	}
	if len(shapes) == 0 {
		return nil, fmt.Errorf("no shapes")
	}
	return shapes, nil
}

func (s *ConfettiSystem) bitmapShape(b config.BitmapConfig) (confetti.Shape, error) {
	path, ok := s.Config.Images[b.Image]
	if !ok {
		return confetti.Shape{}, fmt.Errorf("unknown image '%s'", b.Image)
	}
	if s.Images == nil {
		return confetti.Shape{}, fmt.Errorf("no image loader for '%s'", b.Image)
	}
	img, err := s.Images.LoadImage(path)
	if err != nil {
		return confetti.Shape{}, fmt.Errorf("failed to load image '%s': %w", b.Image, err)
	}
	palette, err := config.ParseColors(b.Colors)
	if err != nil {
		return confetti.Shape{}, err
	}
	scale := b.Scale
	if scale == 0 {
		scale = 1
	}
	return confetti.BitmapShape(img, palette, scale, b.ScaleRange), nil
}

// Update processes all particles and emitters for the current frame.
// dt is the delta time in seconds since the last frame.
func (s *ConfettiSystem) Update(dt float64) {
	s.updateParticles(dt)
	s.EntityManager.RemoveMarkedEntities()

	s.updateEmitters(dt)
	s.EntityManager.RemoveMarkedEntities()
}

// updateParticles applies the emitter force, advances physics and destroys
// particles that died (faded out, lifespan expired, or fell below the screen
// during the previous Draw).
func (s *ConfettiSystem) updateParticles(dt float64) {
	particles := ecs.GetEntitiesWith1[*components.ConfettiComponent](s.EntityManager)
	s.alive = 0

	for _, id := range particles {
		comp, ok := ecs.GetComponent[*components.ConfettiComponent](s.EntityManager, id)
		if !ok || comp.Particle == nil {
			continue
		}

		p := comp.Particle
		if !p.IsDead() {
			if comp.Force != (confetti.Vector{}) {
				p.ApplyForce(comp.Force)
			}
			p.Update(dt)
		}

		if p.IsDead() {
			s.EntityManager.DestroyEntity(id)
			s.stats.Destroyed++
			continue
		}
		s.alive++
	}
}

// updateEmitters ages emitters, spawns particles and removes finished emitters.
func (s *ConfettiSystem) updateEmitters(dt float64) {
	emitterEntities := ecs.GetEntitiesWith2[
		*components.EmitterComponent,
		*components.PositionComponent,
	](s.EntityManager)

	for _, emitterID := range emitterEntities {
		emitter, ok := ecs.GetComponent[*components.EmitterComponent](s.EntityManager, emitterID)
		if !ok {
			continue
		}
		position, ok := ecs.GetComponent[*components.PositionComponent](s.EntityManager, emitterID)
		if !ok {
			continue
		}

		s.cleanupDestroyedParticles(emitter)

		emitter.Age += dt

		if emitter.Active {
			switch emitter.Mode {
			case config.ModeBurst:
				for i := 0; i < emitter.Amount && emitter.Active; i++ {
					s.trySpawn(emitterID, emitter, position)
				}
				emitter.Active = false

			case config.ModeStream:
				for emitter.Active && emitter.NextSpawnTime <= emitter.Age+scheduleTolerance {
					if emitter.SpawnLimit > 0 && emitter.SpawnIndex >= emitter.SpawnLimit {
						break
					}
					s.trySpawn(emitterID, emitter, position)
					emitter.SpawnIndex++
					emitter.NextSpawnTime = float64(emitter.SpawnIndex) / emitter.SpawnRate
				}
				if emitter.SpawnLimit > 0 && emitter.SpawnIndex >= emitter.SpawnLimit {
					emitter.Active = false
				}
				if emitter.Duration > 0 && emitter.Age >= emitter.Duration {
					emitter.Active = false
				}

			default:
				emitter.Active = false
			}
		}

		// 发射结束且粒子全部消失后移除发射器
		if !emitter.Active && len(emitter.ActiveParticles) == 0 {
			s.EntityManager.DestroyEntity(emitterID)
		}
	}
}

// trySpawn launches one particle unless the emitter or the global budget is
// exhausted. Skipped spawns are counted, not deferred.
func (s *ConfettiSystem) trySpawn(emitterID ecs.EntityID, emitter *components.EmitterComponent, position *components.PositionComponent) {
	if emitter.SpawnMaxActive > 0 && len(emitter.ActiveParticles) >= emitter.SpawnMaxActive {
		emitter.TotalDropped++
		s.stats.Dropped++
		return
	}
	if s.Budget > 0 && s.alive >= s.Budget {
		emitter.TotalDropped++
		s.stats.Dropped++
		return
	}

	if err := s.spawnConfetti(emitterID, emitter, position); err != nil {
		log.Printf("[ConfettiSystem] 警告：无法创建粒子: %v", err)
		emitter.Active = false
		return
	}
	emitter.TotalLaunched++
	s.alive++
}

// spawnConfetti samples the emitter ranges and adds one particle entity.
func (s *ConfettiSystem) spawnConfetti(emitterID ecs.EntityID, emitter *components.EmitterComponent, position *components.PositionComponent) error {
	x := position.X + emitter.OriginX.Sample(s.Rand)*s.Width
	y := position.Y + emitter.OriginY.Sample(s.Rand)*s.Height

	angle := emitter.Direction.Sample(s.Rand)
	speed := emitter.Speed.Sample(s.Rand)

	shape := emitter.Shapes[s.pick(len(emitter.Shapes))]

	var color confetti.Color
	if len(emitter.Colors) > 0 {
		color = emitter.Colors[s.pick(len(emitter.Colors))]
	}

	size := emitter.Sizes[s.pick(len(emitter.Sizes))]

	density := s.Density
	if density == 0 {
		density = confetti.DefaultDensity
	}

	p, err := confetti.New(confetti.Options{
		Location: confetti.Vector{X: x, Y: y},
		Velocity: particlePkg.Velocity(speed, angle),
		Color:    color,
		Size:     confetti.Size{SizeInPx: size.Size * density, Mass: size.Mass},
		Shape:    shape,
		Lifespan: emitter.Lifespan,
		FadeOut:  emitter.FadeOut,
		Density:  density,
		Rand:     s.Rand,
		Scaler:   s.Scaler,
	})
	if err != nil {
		return err
	}

	id := s.EntityManager.CreateEntity()
	s.EntityManager.AddComponent(id, &components.ConfettiComponent{
		Particle:  p,
		EmitterID: emitterID,
		Force:     emitter.Force,
	})
	emitter.ActiveParticles = append(emitter.ActiveParticles, id)
	s.stats.Spawned++
	return nil
}

// pick returns a random index in [0, n). A single choice consumes no draw.
func (s *ConfettiSystem) pick(n int) int {
	if n <= 1 {
		return 0
	}
	return s.Rand.Intn(n)
}

// cleanupDestroyedParticles removes dead particle IDs from emitter's active list
func (s *ConfettiSystem) cleanupDestroyedParticles(emitter *components.EmitterComponent) {
	alive := emitter.ActiveParticles[:0]
	for _, particleID := range emitter.ActiveParticles {
		if ecs.HasComponent[*components.ConfettiComponent](s.EntityManager, particleID) {
			alive = append(alive, particleID)
		}
	}
	emitter.ActiveParticles = alive
}

// Draw displays every live particle. Particles that fall below the canvas are
// killed by Display and destroyed on the next Update.
func (s *ConfettiSystem) Draw(canvas confetti.Canvas) {
	for _, id := range ecs.GetEntitiesWith1[*components.ConfettiComponent](s.EntityManager) {
		comp, ok := ecs.GetComponent[*components.ConfettiComponent](s.EntityManager, id)
		if !ok || comp.Particle == nil {
			continue
		}
		comp.Particle.Display(canvas)
	}
}

// ActiveCount 返回当前存活（未死亡）的粒子数
func (s *ConfettiSystem) ActiveCount() int {
	count := 0
	for _, id := range ecs.GetEntitiesWith1[*components.ConfettiComponent](s.EntityManager) {
		comp, ok := ecs.GetComponent[*components.ConfettiComponent](s.EntityManager, id)
		if ok && comp.Particle != nil && !comp.Particle.IsDead() {
			count++
		}
	}
	return count
}

// EmitterCount 返回当前发射器数量
func (s *ConfettiSystem) EmitterCount() int {
	return len(ecs.GetEntitiesWith1[*components.EmitterComponent](s.EntityManager))
}

// Stats 返回累计统计
func (s *ConfettiSystem) Stats() ConfettiStats {
	return s.stats
}

// Clear 立即移除所有发射器与粒子
func (s *ConfettiSystem) Clear() {
	for _, id := range ecs.GetEntitiesWith1[*components.ConfettiComponent](s.EntityManager) {
		s.EntityManager.DestroyEntity(id)
		s.stats.Destroyed++
	}
	for _, id := range ecs.GetEntitiesWith1[*components.EmitterComponent](s.EntityManager) {
		s.EntityManager.DestroyEntity(id)
	}
	s.EntityManager.RemoveMarkedEntities()
	s.alive = 0
	log.Printf("[ConfettiSystem] 已清空所有彩纸")
}
