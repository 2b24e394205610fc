package components

import (
	"time"

	"github.com/decker502/konfetti/internal/particle"
	"github.com/decker502/konfetti/pkg/confetti"
	"github.com/decker502/konfetti/pkg/config"
	"github.com/decker502/konfetti/pkg/ecs"
)

// EmitterComponent represents a confetti emitter that spawns and tracks particles.
// Each emitter is created from a preset (loaded from YAML); the string-based
// preset fields are parsed once at creation so spawning only samples ranges.
//
// The ConfettiSystem ages the emitter every frame, spawns particles according
// to its mode, and destroys it once it is inactive and all of its particles
// are gone.
//
// This is a pure data component following ECS principles - it contains no methods.
type EmitterComponent struct {
	// Preset reference (预设来源)
	Preset *config.EmitterPreset

	// Emitter state (发射器状态)
	Mode   string  // config.ModeBurst or config.ModeStream
	Active bool    // Whether the emitter is still spawning particles
	Age    float64 // Time the emitter has been running (seconds)

	// Burst: number of particles launched on the first update
	Amount int

	// Stream: particles per second and total duration (seconds, 0 = infinite)
	SpawnRate float64
	Duration  float64

	// Spawn timing (发射时机)
	// Slot i is due at age i/SpawnRate; deriving it from the index keeps the
	// schedule free of accumulated rounding.
	SpawnIndex    int     // Number of stream slots already consumed
	SpawnLimit    int     // Total slots of a timed stream (0 = unlimited)
	NextSpawnTime float64 // Time (in emitter age) when the next particle is due

	// SpawnMaxActive: Maximum particles alive at once for this emitter (0 = unlimited)
	SpawnMaxActive int

	// Particle tracking (粒子追踪)
	ActiveParticles []ecs.EntityID
	TotalLaunched   int
	TotalDropped    int // spawns skipped because of MaxActive or the global budget

	// Parsed spawn parameters (采样范围)
	OriginX   particle.Range // fraction of screen width added to the emitter X
	OriginY   particle.Range // fraction of screen height added to the emitter Y
	Direction particle.Range // degrees, 0 = right, 90 = down
	Speed     particle.Range // pixels per reference frame

	// Particle appearance (粒子外观)
	Colors   []confetti.Color
	Shapes   []confetti.Shape
	Sizes    []config.SizeConfig // dp, multiplied by display density on spawn
	Lifespan time.Duration       // 0 = fade based
	FadeOut  bool

	// Force applied to every particle of this emitter each frame (gravity + wind)
	Force confetti.Vector
}
