// Package config loads the YAML settings for the renderer and the demo.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/andewx/voxelvk/internal/logging"
)

type Config struct {
	Window WindowConfig `yaml:"window"`
	Vulkan VulkanConfig `yaml:"vulkan"`
	Camera CameraConfig `yaml:"camera"`
	Render RenderConfig `yaml:"render"`
	Input  InputConfig  `yaml:"input"`
	Log    LogConfig    `yaml:"log"`
	Scene  SceneConfig  `yaml:"scene"`
}

type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

type VulkanConfig struct {
	// Validation enables the layers below and the debug report callback.
	Validation bool     `yaml:"validation"`
	Layers     []string `yaml:"layers"`
	// ShaderDir points at a directory holding vert.spv and frag.spv. Empty means
	// compile the embedded WGSL sources.
	ShaderDir string `yaml:"shader_dir"`
}

type CameraConfig struct {
	// Fov is the vertical field of view in degrees.
	Fov  float32 `yaml:"fov"`
	Near float32 `yaml:"near"`
	Far  float32 `yaml:"far"`
}

type RenderConfig struct {
	Textured       bool   `yaml:"textured"`
	DefaultTexture string `yaml:"default_texture"`
	// MaxMaterials bounds the descriptor pool of the textured pipeline.
	MaxMaterials int `yaml:"max_materials"`
}

type InputConfig struct {
	Speed       float32 `yaml:"speed"`
	Sensitivity float32 `yaml:"sensitivity"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	// Dir switches the loggers to info/warn/error/fatal files in that directory.
	Dir string `yaml:"dir"`
}

type SceneConfig struct {
	Cubes []CubeConfig `yaml:"cubes"`
}

type CubeConfig struct {
	Position [3]float32 `yaml:"position"`
	Texture  string     `yaml:"texture"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Window: WindowConfig{
			Width:  1280,
			Height: 720,
			Title:  "voxelvk",
		},
		Vulkan: VulkanConfig{
			Layers: []string{"VK_LAYER_KHRONOS_validation"},
		},
		Camera: CameraConfig{
			Fov:  45,
			Near: 0.1,
			Far:  1000,
		},
		Render: RenderConfig{
			MaxMaterials: 256,
		},
		Input: InputConfig{
			Speed:       4,
			Sensitivity: 0.002,
		},
		Log: LogConfig{
			Level: "medium",
		},
		Scene: SceneConfig{
			Cubes: []CubeConfig{
				{Position: [3]float32{0, 0, -5}},
				{Position: [3]float32{2, 0, -7}},
				{Position: [3]float32{-2, 0, -7}},
			},
		},
	}
}

// Load reads path on top of Default. Keys missing from the file keep their
// default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "reading config file")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing config file %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrapf(err, "invalid config file %s", path)
	}
	return cfg, nil
}

// Validate checks the values the renderer cannot recover from at runtime.
func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return errors.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Camera.Fov <= 0 || c.Camera.Fov >= 180 {
		return errors.Errorf("camera fov must be in (0, 180), got %v", c.Camera.Fov)
	}
	if c.Camera.Near <= 0 || c.Camera.Near >= c.Camera.Far {
		return errors.Errorf("camera planes must satisfy 0 < near < far, got near=%v far=%v", c.Camera.Near, c.Camera.Far)
	}
	if c.Render.Textured && c.Render.MaxMaterials <= 0 {
		return errors.Errorf("render.max_materials must be positive, got %d", c.Render.MaxMaterials)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// Logger builds the logger described by the log section.
func (c Config) Logger() (*logging.Logger, error) {
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	if c.Log.Dir == "" {
		return logging.New(os.Stderr, level), nil
	}
	return logging.NewFiles(c.Log.Dir, level)
}
