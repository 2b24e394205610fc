package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/decker502/konfetti/pkg/app"
	"github.com/decker502/konfetti/pkg/config"
	"github.com/decker502/konfetti/pkg/embedded"
)

var (
	presetFlag  = flag.String("preset", "", "Initial preset name (default: last used or first in config)")
	verboseFlag = flag.Bool("verbose", false, "Enable verbose logging")
	seedFlag    = flag.Int64("seed", 0, "Random seed (0 = time based)")
	configFlag  = flag.String("config", "", "Preset file path (default: embedded "+config.DefaultConfettiConfigPath+")")
)

func main() {
	flag.Parse()

	// assetsFS 和 dataFS 在 embed.go 中声明
	embedded.Init(assetsFS, dataFS)

	gameApp, err := app.NewApp(app.Config{
		Verbose:    *verboseFlag,
		Preset:     *presetFlag,
		Seed:       *seedFlag,
		ConfigPath: *configFlag,
	})
	if err != nil {
		log.Fatalf("初始化失败: %v", err)
	}

	ebiten.SetWindowSize(config.ScreenWidth, config.ScreenHeight)
	ebiten.SetWindowTitle("Konfetti")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowClosingHandled(true)

	if err := ebiten.RunGame(gameApp); err != nil {
		log.Fatal(err)
	}
}
