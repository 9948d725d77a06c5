package voxelvk_test

import (
	"os"
	"runtime"
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/andewx/voxelvk"
	"github.com/andewx/voxelvk/internal/config"
	"github.com/andewx/voxelvk/internal/logging"
	"github.com/andewx/voxelvk/internal/scene"
)

const (
	WIDTH  = 500
	HEIGHT = 500
)

// Needs a display and a Vulkan driver, so it only runs when asked to.
func TestRender(t *testing.T) {
	if os.Getenv("VOXELVK_GPU_TEST") == "" {
		t.Skip("set VOXELVK_GPU_TEST=1 to render on a real device")
	}

	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		t.Fatal(err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.Visible, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	if err := voxelvk.LoadVulkan(); err != nil {
		t.Fatalf("Unable to initialize vulkan %v", err)
	}

	window, err := glfw.CreateWindow(WIDTH, HEIGHT, "Vulkan", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer window.Destroy()

	cfg := config.Default()
	cfg.Window.Width, cfg.Window.Height = WIDTH, HEIGHT
	cfg.Vulkan.ShaderDir = os.Getenv("VOXELVK_SHADER_DIR")
	renderer, err := voxelvk.Open(window, cfg, logging.New(os.Stderr, logging.Dev))
	if err != nil {
		t.Fatal(err)
	}
	defer renderer.Destroy()

	cube := scene.CubeModel()
	for id := voxelvk.ObjectID(1); id <= 3; id++ {
		transform := voxelvk.Transform{Position: mgl32.Vec3{float32(id) - 2, 0, -5}}
		if err := renderer.CreateObject(id, cube, transform); err != nil {
			t.Fatal(err)
		}
	}

	pose := voxelvk.FramePose{}
	for frame := 0; frame < 120 && !window.ShouldClose(); frame++ {
		if frame == 60 {
			renderer.DeleteObject(2)
			if err := renderer.ResizeViewport(mgl32.Vec2{}, mgl32.Vec2{WIDTH / 2, HEIGHT / 2}); err != nil {
				t.Fatal(err)
			}
		}
		pose.Rotation[1] += 0.01
		renderer.DrawFrame(pose)
		glfw.PollEvents()
	}
	if renderer.Objects() != 2 {
		t.Errorf("objects = %d, want 2", renderer.Objects())
	}
}
