// Package main runs a confetti preset headlessly and prints frame statistics.
//
// Usage:
//
//	go run ./cmd/simulate [flags]
//
// Flags:
//
//	--config <path>    Preset file (default: data/confetti.yaml)
//	--preset <name>    Preset to run (default: first preset in the file)
//	--frames <n>       Number of frames to simulate (default: 300)
//	--fps <n>          Simulated frame rate (default: 60)
//	--seed <n>         Random seed (default: 1)
//	--width/--height   Canvas size in pixels (default: 800x600)
//	--density <d>      Screen density (default: 1)
//	--budget <n>       Global particle budget, 0 = unlimited
//	--report <n>       Print a progress line every n frames, 0 = summary only
//	--verbose          Enable verbose logging
//
// Image paths inside the preset file are resolved relative to the working
// directory, so run it from the repository root.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/decker502/konfetti/pkg/canvas/recorder"
	"github.com/decker502/konfetti/pkg/confetti"
	"github.com/decker502/konfetti/pkg/config"
	"github.com/decker502/konfetti/pkg/ecs"
	"github.com/decker502/konfetti/pkg/resources"
	"github.com/decker502/konfetti/pkg/systems"
)

var (
	configFlag  = flag.String("config", config.DefaultConfettiConfigPath, "Preset file path")
	presetFlag  = flag.String("preset", "", "Preset name (default: first preset)")
	framesFlag  = flag.Int("frames", 300, "Number of frames to simulate")
	fpsFlag     = flag.Float64("fps", 60, "Simulated frame rate")
	seedFlag    = flag.Int64("seed", 1, "Random seed")
	widthFlag   = flag.Float64("width", config.ScreenWidth, "Canvas width")
	heightFlag  = flag.Float64("height", config.ScreenHeight, "Canvas height")
	densityFlag = flag.Float64("density", confetti.DefaultDensity, "Screen density")
	budgetFlag  = flag.Int("budget", 0, "Global particle budget (0 = unlimited)")
	reportFlag  = flag.Int("report", 0, "Print progress every n frames (0 = summary only)")
	verboseFlag = flag.Bool("verbose", false, "Enable verbose logging")
)

// options 模拟参数
type options struct {
	ConfigPath string
	Preset     string
	Frames     int
	FPS        float64
	Seed       int64
	Width      float64
	Height     float64
	Density    float64
	Budget     int
	Report     int
}

// result 模拟结果
type result struct {
	Preset    string
	Frames    int
	Spawned   int
	Destroyed int
	Dropped   int
	Alive     int
	PeakAlive int
	Emitters  int
	DrawCalls int
}

func main() {
	flag.Parse()

	if !*verboseFlag {
		log.SetOutput(io.Discard)
	}

	opts := options{
		ConfigPath: *configFlag,
		Preset:     *presetFlag,
		Frames:     *framesFlag,
		FPS:        *fpsFlag,
		Seed:       *seedFlag,
		Width:      *widthFlag,
		Height:     *heightFlag,
		Density:    *densityFlag,
		Budget:     *budgetFlag,
		Report:     *reportFlag,
	}

	res, err := run(opts, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "simulate: %v\n", err)
		os.Exit(1)
	}
	printSummary(os.Stdout, res)
}

// run 加载预设并逐帧模拟，进度行写入 out
func run(opts options, out io.Writer) (*result, error) {
	if opts.Frames <= 0 {
		return nil, fmt.Errorf("frames must be > 0, got %d", opts.Frames)
	}
	if opts.FPS <= 0 {
		return nil, fmt.Errorf("fps must be > 0, got %.2f", opts.FPS)
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("canvas size must be > 0, got %.0fx%.0f", opts.Width, opts.Height)
	}

	rm := resources.NewResourceManager()
	cfg, err := rm.LoadConfettiConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	name := opts.Preset
	if name == "" {
		name = cfg.Presets[0].Name
	}
	preset, ok := cfg.Preset(name)
	if !ok {
		return nil, fmt.Errorf("unknown preset '%s' (available: %v)", name, cfg.PresetNames())
	}

	system := systems.NewConfettiSystem(ecs.NewEntityManager(), cfg, rm, confetti.NewRand(opts.Seed))
	system.Width = opts.Width
	system.Height = opts.Height
	system.Budget = opts.Budget
	if opts.Density > 0 {
		system.Density = opts.Density
	}

	// 预设自带发射范围时发射点为左上角，否则为画布中央
	x, y := opts.Width/2, opts.Height/2
	if preset.OriginX != "" {
		x = 0
	}
	if preset.OriginY != "" {
		y = 0
	}
	if _, err := system.Emit(name, x, y); err != nil {
		return nil, err
	}

	res := &result{Preset: name, Frames: opts.Frames}
	rec := recorder.New(opts.Width, opts.Height)
	dt := 1 / opts.FPS

	for frame := 1; frame <= opts.Frames; frame++ {
		system.Update(dt)

		rec.Reset()
		system.Draw(rec)
		res.DrawCalls += rec.DrawCalls()

		alive := system.ActiveCount()
		if alive > res.PeakAlive {
			res.PeakAlive = alive
		}

		if opts.Report > 0 && frame%opts.Report == 0 {
			stats := system.Stats()
			fmt.Fprintf(out, "frame %5d  alive %5d  spawned %6d  destroyed %6d  emitters %d\n",
				frame, alive, stats.Spawned, stats.Destroyed, system.EmitterCount())
		}
	}

	stats := system.Stats()
	res.Spawned = stats.Spawned
	res.Destroyed = stats.Destroyed
	res.Dropped = stats.Dropped
	res.Alive = system.ActiveCount()
	res.Emitters = system.EmitterCount()
	return res, nil
}

func printSummary(out io.Writer, res *result) {
	fmt.Fprintf(out, "preset:     %s\n", res.Preset)
	fmt.Fprintf(out, "frames:     %d\n", res.Frames)
	fmt.Fprintf(out, "spawned:    %d\n", res.Spawned)
	fmt.Fprintf(out, "destroyed:  %d\n", res.Destroyed)
	fmt.Fprintf(out, "dropped:    %d\n", res.Dropped)
	fmt.Fprintf(out, "alive:      %d (peak %d)\n", res.Alive, res.PeakAlive)
	fmt.Fprintf(out, "emitters:   %d\n", res.Emitters)
	fmt.Fprintf(out, "draw calls: %d\n", res.DrawCalls)
}
