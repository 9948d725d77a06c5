// Command voxelvk opens a window and renders the cubes listed in the config
// file while the player flies around them with WASD, space, shift and the
// mouse.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/xlab/closer"

	"github.com/andewx/voxelvk"
	"github.com/andewx/voxelvk/internal/config"
	"github.com/andewx/voxelvk/internal/logging"
	"github.com/andewx/voxelvk/internal/scene"
)

func init() {
	// GLFW and the Vulkan surface must stay on the main thread
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "YAML config file")
	validation := flag.Bool("validation", false, "enable Vulkan validation layers")
	textured := flag.Bool("textured", false, "use the textured pipeline")
	shaders := flag.String("shaders", "", "directory with precompiled vert.spv and frag.spv")
	verbose := flag.Bool("v", false, "log at dev level")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "validation":
			cfg.Vulkan.Validation = *validation
		case "textured":
			cfg.Render.Textured = *textured
		case "shaders":
			cfg.Vulkan.ShaderDir = *shaders
		case "v":
			if *verbose {
				cfg.Log.Level = logging.Dev.String()
			}
		}
	})

	log, err := cfg.Logger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	// Cleanups run in reverse order, either by closer on a normal exit or
	// signal, or by teardown before a fatal error.
	var cleanups []func()
	bind := func(fn func()) {
		cleanups = append(cleanups, fn)
		closer.Bind(fn)
	}
	teardown := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	defer closer.Close()
	// Bound first so closer runs it last. Fatal closes the log on its own.
	closer.Bind(func() { log.Close() })

	if err := glfw.Init(); err != nil {
		log.Fatal(err)
	}
	bind(glfw.Terminate)

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	window, err := glfw.CreateWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title, nil, nil)
	if err != nil {
		log.Fatal(err, teardown)
	}
	bind(window.Destroy)

	if err := voxelvk.LoadVulkan(); err != nil {
		log.Fatal(err, teardown)
	}
	renderer, err := voxelvk.Open(window, cfg, log)
	if err != nil {
		log.Fatal(err, teardown)
	}
	bind(renderer.Destroy)

	world := scene.NewWorld(cfg.Input, cfg.Render.Textured, log)
	for _, cube := range cfg.Scene.Cubes {
		world.Spawn(scene.KindCube, scene.NewTransform(mgl32.Vec3(cube.Position)), cube.Texture)
	}

	input := scene.NewInput()
	window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
			return
		}
		input.Key(key, action)
	})
	window.SetCursorPosCallback(func(w *glfw.Window, x, y float64) {
		input.Cursor(x, y)
	})
	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		err := renderer.ResizeViewport(mgl32.Vec2{0, 0}, mgl32.Vec2{float32(width), float32(height)})
		if err != nil {
			log.Fatal(err, teardown)
		}
	})

	clock := scene.NewClock()
	for !window.ShouldClose() {
		glfw.PollEvents()

		world.Steer(input.Resolve())
		if err := world.Tick(renderer, clock.Tick()); err != nil {
			log.Error("scene", "%v", err)
		}
		renderer.DrawFrame(world.Camera())
	}
	log.Info("main", "window closed, %d objects live at shutdown", renderer.Objects())
}
