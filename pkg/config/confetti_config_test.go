package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/decker502/konfetti/pkg/confetti"
)

func TestParseConfettiConfig(t *testing.T) {
	tests := []struct {
		name        string
		yamlContent string
		wantErr     bool
		errContains string
		validate    func(*testing.T, *ConfettiConfig)
	}{
		{
			name: "valid burst and stream",
			yamlContent: `
images:
  star: assets/images/star.png
presets:
  - name: festive
    mode: burst
    amount: 50
    direction: "[0 359]"
    speed: "[1 5]"
    lifespan: 2s
    colors: ["#fce18a", "#ff726d"]
    sizes:
      - { size: 12 }
    gravity: { x: 0, y: 0.01 }
  - name: sparkle
    mode: stream
    rate: 30
    duration: 1500ms
    maxActive: 100
    fadeOut: false
    shapes: [BITMAP]
    bitmaps:
      - image: star
        colors: ["#ffd700"]
        scale: 0.5
`,
			validate: func(t *testing.T, cfg *ConfettiConfig) {
				if len(cfg.Presets) != 2 {
					t.Fatalf("expected 2 presets, got %d", len(cfg.Presets))
				}
				festive, ok := cfg.Preset("festive")
				if !ok {
					t.Fatal("preset 'festive' not found")
				}
				if festive.Amount != 50 {
					t.Errorf("expected amount = 50, got %d", festive.Amount)
				}
				if festive.Lifespan != 2*time.Second {
					t.Errorf("expected lifespan = 2s, got %v", festive.Lifespan)
				}
				if !festive.FadeOutEnabled() {
					t.Error("fadeOut should default to true")
				}
				if got := festive.Gravity.Vector(); got != (confetti.Vector{X: 0, Y: 0.01}) {
					t.Errorf("expected gravity (0, 0.01), got %+v", got)
				}
				sizes := festive.SizeList()
				if len(sizes) != 1 || sizes[0].Size != 12 || sizes[0].Mass != confetti.DefaultMass {
					t.Errorf("unexpected sizes %+v", sizes)
				}

				sparkle, ok := cfg.Preset("sparkle")
				if !ok {
					t.Fatal("preset 'sparkle' not found")
				}
				if sparkle.Duration != 1500*time.Millisecond {
					t.Errorf("expected duration = 1.5s, got %v", sparkle.Duration)
				}
				if sparkle.FadeOutEnabled() {
					t.Error("fadeOut should be false")
				}
				if shapes := sparkle.ShapeNames(); len(shapes) != 1 || shapes[0] != ShapeBitmap {
					t.Errorf("expected shapes [bitmap], got %v", shapes)
				}
			},
		},
		{
			name:        "no presets",
			yamlContent: "images: {}\n",
			wantErr:     true,
			errContains: "no presets defined",
		},
		{
			name: "missing name",
			yamlContent: `
presets:
  - mode: burst
    amount: 1
    colors: ["#ffffff"]
`,
			wantErr:     true,
			errContains: "has no name",
		},
		{
			name: "duplicate name",
			yamlContent: `
presets:
  - { name: a, mode: burst, amount: 1, colors: ["#ffffff"] }
  - { name: a, mode: burst, amount: 2, colors: ["#ffffff"] }
`,
			wantErr:     true,
			errContains: "duplicate preset name 'a'",
		},
		{
			name: "unknown mode",
			yamlContent: `
presets:
  - { name: a, mode: fountain, amount: 1, colors: ["#ffffff"] }
`,
			wantErr:     true,
			errContains: "unknown mode 'fountain'",
		},
		{
			name: "burst without amount",
			yamlContent: `
presets:
  - { name: a, mode: burst, colors: ["#ffffff"] }
`,
			wantErr:     true,
			errContains: "burst amount must be > 0",
		},
		{
			name: "stream without rate",
			yamlContent: `
presets:
  - { name: a, mode: stream, colors: ["#ffffff"] }
`,
			wantErr:     true,
			errContains: "stream rate must be > 0",
		},
		{
			name: "bad range",
			yamlContent: `
presets:
  - { name: a, mode: burst, amount: 1, speed: "[1 x]", colors: ["#ffffff"] }
`,
			wantErr:     true,
			errContains: "speed",
		},
		{
			name: "bad color",
			yamlContent: `
presets:
  - { name: a, mode: burst, amount: 1, colors: ["#zzzzzz"] }
`,
			wantErr:     true,
			errContains: "preset 'a'",
		},
		{
			name: "rect without colors",
			yamlContent: `
presets:
  - { name: a, mode: burst, amount: 1, shapes: [rect] }
`,
			wantErr:     true,
			errContains: "require at least one color",
		},
		{
			name: "unknown shape",
			yamlContent: `
presets:
  - { name: a, mode: burst, amount: 1, shapes: [triangle], colors: ["#ffffff"] }
`,
			wantErr:     true,
			errContains: "unknown shape 'triangle'",
		},
		{
			name: "bitmap shape without bitmaps",
			yamlContent: `
presets:
  - { name: a, mode: burst, amount: 1, shapes: [bitmap] }
`,
			wantErr:     true,
			errContains: "requires at least one bitmap",
		},
		{
			name: "bitmap with unknown image",
			yamlContent: `
presets:
  - name: a
    mode: burst
    amount: 1
    shapes: [bitmap]
    bitmaps:
      - { image: moon, colors: ["#ffffff"] }
`,
			wantErr:     true,
			errContains: "unknown image 'moon'",
		},
		{
			name: "bitmap with empty palette",
			yamlContent: `
images:
  star: assets/images/star.png
presets:
  - name: a
    mode: burst
    amount: 1
    shapes: [bitmap]
    bitmaps:
      - { image: star }
`,
			wantErr:     true,
			errContains: "empty palette",
		},
		{
			name: "zero size",
			yamlContent: `
presets:
  - name: a
    mode: burst
    amount: 1
    colors: ["#ffffff"]
    sizes:
      - { size: 0 }
`,
			wantErr:     true,
			errContains: "size #0 must be > 0",
		},
		{
			name: "negative mass",
			yamlContent: `
presets:
  - name: a
    mode: burst
    amount: 1
    colors: ["#ffffff"]
    sizes:
      - { size: 5, mass: -1 }
`,
			wantErr:     true,
			errContains: "mass must be > 0",
		},
		{
			name:        "malformed yaml",
			yamlContent: "presets: [",
			wantErr:     true,
			errContains: "failed to parse confetti config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseConfettiConfig([]byte(tt.yamlContent))

			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.errContains)
				}
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("expected error containing %q, got %q", tt.errContains, err.Error())
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.validate != nil {
				tt.validate(t, cfg)
			}
		})
	}
}

func TestLoadConfettiConfig_File(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "confetti.yaml")
	content := `
presets:
  - { name: pop, mode: burst, amount: 3, colors: ["#ffffff"] }
`
	if err := os.WriteFile(tmpFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}

	cfg, err := LoadConfettiConfig(tmpFile)
	if err != nil {
		t.Fatalf("LoadConfettiConfig failed: %v", err)
	}
	if names := cfg.PresetNames(); len(names) != 1 || names[0] != "pop" {
		t.Errorf("expected [pop], got %v", names)
	}

	if _, err := LoadConfettiConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

// 内置预设文件必须始终可以通过验证
func TestLoadConfettiConfig_Bundled(t *testing.T) {
	cfg, err := LoadConfettiConfig(filepath.Join("..", "..", DefaultConfettiConfigPath))
	if err != nil {
		t.Fatalf("bundled presets invalid: %v", err)
	}

	for _, name := range []string{"festive", "parade", "rain", "stars", "pop"} {
		if _, ok := cfg.Preset(name); !ok {
			t.Errorf("bundled preset %q missing", name)
		}
	}

	for id, path := range cfg.Images {
		if _, err := os.Stat(filepath.Join("..", "..", path)); err != nil {
			t.Errorf("image %q: %v", id, err)
		}
	}
}

func TestEmitterPreset_Defaults(t *testing.T) {
	p := EmitterPreset{Sizes: []SizeConfig{{Size: 8, Mass: 2}, {Size: 4}}}

	shapes := p.ShapeNames()
	if len(shapes) != 2 || shapes[0] != ShapeRect || shapes[1] != ShapeCircle {
		t.Errorf("expected default shapes [rect circle], got %v", shapes)
	}

	sizes := p.SizeList()
	if sizes[0].Mass != 2 {
		t.Errorf("explicit mass should be kept, got %.2f", sizes[0].Mass)
	}
	if sizes[1].Mass != confetti.DefaultMass {
		t.Errorf("zero mass should default to %.1f, got %.2f", confetti.DefaultMass, sizes[1].Mass)
	}
	if p.Sizes[1].Mass != 0 {
		t.Error("SizeList must not modify the preset")
	}

	empty := EmitterPreset{}
	if s := empty.SizeList(); len(s) != 1 || s[0].Size != 10 {
		t.Errorf("expected default size 10, got %+v", s)
	}
}
