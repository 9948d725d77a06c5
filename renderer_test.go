package voxelvk

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/voxelvk/internal/logging"
)

type fakeBuffer struct {
	owner     *fakeAllocator
	count     uint32
	destroyed bool
}

func (b *fakeBuffer) Handle() vk.Buffer   { return vk.NullBuffer }
func (b *fakeBuffer) VertexCount() uint32 { return b.count }

func (b *fakeBuffer) Destroy() {
	if b.destroyed {
		return
	}
	b.destroyed = true
	b.owner.live--
}

type fakeAllocator struct {
	live    int
	created int
	fail    error
}

func (a *fakeAllocator) NewVertexBuffer(vertices []Vertex) (VertexBuffer, error) {
	if a.fail != nil {
		return nil, a.fail
	}
	if len(vertices) == 0 {
		return nil, errors.New("vertex buffer needs at least one vertex")
	}
	a.live++
	a.created++
	return &fakeBuffer{owner: a, count: uint32(len(vertices))}, nil
}

type fakeMaterial struct {
	owner    *fakeMaterials
	path     string
	released bool
}

func (m *fakeMaterial) DescriptorSet() vk.DescriptorSet {
	var set vk.DescriptorSet
	return set
}

func (m *fakeMaterial) Release() {
	if m.released {
		return
	}
	m.released = true
	m.owner.live--
}

type fakeMaterials struct {
	live  int
	paths []string
}

func (s *fakeMaterials) Acquire(path string) (Material, error) {
	s.live++
	s.paths = append(s.paths, path)
	return &fakeMaterial{owner: s, path: path}, nil
}

type fakeRecorder struct {
	ops       []string
	viewports []vk.Viewport
	scissors  []vk.Rect2D
	pushes    []mgl32.Mat4
	draws     []uint32
	materials int
}

func (r *fakeRecorder) BeginRenderPass(color [4]float32, depth float32) {
	r.ops = append(r.ops, "begin")
}
func (r *fakeRecorder) BindPipeline() { r.ops = append(r.ops, "pipeline") }
func (r *fakeRecorder) SetViewport(viewport vk.Viewport) {
	r.ops = append(r.ops, "viewport")
	r.viewports = append(r.viewports, viewport)
}
func (r *fakeRecorder) SetScissor(scissor vk.Rect2D) {
	r.ops = append(r.ops, "scissor")
	r.scissors = append(r.scissors, scissor)
}
func (r *fakeRecorder) BindMaterial(set vk.DescriptorSet) {
	r.ops = append(r.ops, "material")
	r.materials++
}
func (r *fakeRecorder) PushConstants(mvp mgl32.Mat4) {
	r.ops = append(r.ops, "push")
	r.pushes = append(r.pushes, mvp)
}
func (r *fakeRecorder) BindVertexBuffer(buffer vk.Buffer) { r.ops = append(r.ops, "vertices") }
func (r *fakeRecorder) Draw(vertexCount uint32) {
	r.ops = append(r.ops, "draw")
	r.draws = append(r.draws, vertexCount)
}
func (r *fakeRecorder) EndRenderPass() { r.ops = append(r.ops, "end") }

// fakePresenter keeps a swapchain worth of bookkeeping so parity can be
// checked after rebuilds.
type fakePresenter struct {
	images       int
	framebuffers []vk.Format
	color        vk.Format
	extent       vk.Extent2D
	rebuilds     []vk.Extent2D
	frames       []*fakeRecorder
	acquireErr   error
	presentErr   error
	presented    int
	waits        int
	destroyed    bool
}

func newFakePresenter() *fakePresenter {
	p := &fakePresenter{images: 3, color: vk.FormatB8g8r8a8Unorm}
	p.rebuildFramebuffers()
	return p
}

func (p *fakePresenter) rebuildFramebuffers() {
	p.framebuffers = make([]vk.Format, p.images)
	for i := range p.framebuffers {
		p.framebuffers[i] = p.color
	}
}

func (p *fakePresenter) Acquire() (uint32, error) {
	if p.acquireErr != nil {
		return 0, p.acquireErr
	}
	return uint32(len(p.frames) % p.images), nil
}

func (p *fakePresenter) Begin(image uint32) (Recorder, error) {
	rec := &fakeRecorder{}
	p.frames = append(p.frames, rec)
	return rec, nil
}

func (p *fakePresenter) Present(image uint32) error {
	if p.presentErr != nil {
		return p.presentErr
	}
	p.presented++
	return nil
}

func (p *fakePresenter) Rebuild(extent vk.Extent2D) error {
	p.rebuilds = append(p.rebuilds, extent)
	p.extent = extent
	//Drivers may hand back a different image count after a resize
	p.images = 2 + len(p.rebuilds)%2
	p.rebuildFramebuffers()
	return checkFramebufferParity(p.images, p.framebuffers, p.color)
}

func (p *fakePresenter) WaitIdle() { p.waits++ }
func (p *fakePresenter) Destroy()  { p.destroyed = true }

func (p *fakePresenter) lastFrame(t *testing.T) *fakeRecorder {
	t.Helper()
	if len(p.frames) == 0 {
		t.Fatalf("no frame was recorded")
	}
	return p.frames[len(p.frames)-1]
}

func triangle() []Vertex {
	return []Vertex{
		{Position: mgl32.Vec3{0, -0.5, 0}, Color: mgl32.Vec3{1, 0, 0}},
		{Position: mgl32.Vec3{0.5, 0.5, 0}, Color: mgl32.Vec3{0, 1, 0}},
		{Position: mgl32.Vec3{-0.5, 0.5, 0}, Color: mgl32.Vec3{0, 0, 1}},
	}
}

func quad() []Vertex {
	return append(triangle(), triangle()...)
}

func newTestRenderer(t *testing.T) (*Renderer, *fakePresenter, *fakeAllocator, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	presenter := newFakePresenter()
	alloc := &fakeAllocator{}
	viewport := NewViewportState(mgl32.Vec2{0, 0}, mgl32.Vec2{800, 600})
	r := NewRenderer(presenter, alloc, nil, viewport, DefaultLens(), logging.New(&out, logging.Dev))
	return r, presenter, alloc, &out
}

func TestSingleTriangleFrame(t *testing.T) {
	r, presenter, _, _ := newTestRenderer(t)

	if err := r.CreateObject(1, triangle(), Transform{Position: mgl32.Vec3{0, 0, -5}}); err != nil {
		t.Fatalf("CreateObject: %v", err)
	}
	r.DrawFrame(FramePose{})

	frame := presenter.lastFrame(t)
	if len(frame.draws) != 1 || frame.draws[0] != 3 {
		t.Fatalf("draws = %v, want [3]", frame.draws)
	}
	if len(frame.pushes) != 1 {
		t.Fatalf("pushed %d matrices, want 1", len(frame.pushes))
	}

	aspect := float32(800) / 600
	proj := vulkanProjection(mgl32.Perspective(mgl32.DegToRad(45), aspect, 0.1, 1000))
	want := proj.Mul4(mgl32.Ident4()).Mul4(mgl32.Translate3D(0, 0, -5))
	if !frame.pushes[0].ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("mvp =\n%v\nwant\n%v", frame.pushes[0], want)
	}
	if presenter.presented != 1 {
		t.Errorf("presented %d frames, want 1", presenter.presented)
	}
}

func TestDeleteBeforeDraw(t *testing.T) {
	r, presenter, alloc, _ := newTestRenderer(t)

	if err := r.CreateObject(1, triangle(), Transform{}); err != nil {
		t.Fatal(err)
	}
	if err := r.CreateObject(2, quad(), Transform{}); err != nil {
		t.Fatal(err)
	}
	r.DeleteObject(1)
	r.DrawFrame(FramePose{})

	frame := presenter.lastFrame(t)
	if len(frame.draws) != 1 || frame.draws[0] != 6 {
		t.Fatalf("draws = %v, want only object 2 with 6 vertices", frame.draws)
	}
	if alloc.live != 1 {
		t.Errorf("live buffers = %d, want 1", alloc.live)
	}
}

func TestBackToBackResize(t *testing.T) {
	r, presenter, _, _ := newTestRenderer(t)
	if err := r.CreateObject(1, triangle(), Transform{}); err != nil {
		t.Fatal(err)
	}

	if err := r.ResizeViewport(mgl32.Vec2{0, 0}, mgl32.Vec2{800, 600}); err != nil {
		t.Fatalf("first resize: %v", err)
	}
	if err := r.ResizeViewport(mgl32.Vec2{0, 0}, mgl32.Vec2{1024, 768}); err != nil {
		t.Fatalf("second resize: %v", err)
	}

	if len(presenter.rebuilds) != 2 {
		t.Fatalf("rebuilds = %d, want 2", len(presenter.rebuilds))
	}
	if got := presenter.extent; got.Width != 1024 || got.Height != 768 {
		t.Errorf("swapchain extent = %dx%d, want 1024x768", got.Width, got.Height)
	}
	if got := r.viewport.Extent; got != (mgl32.Vec2{1024, 768}) {
		t.Errorf("viewport extent = %v, want [1024 768]", got)
	}

	r.DrawFrame(FramePose{})
	frame := presenter.lastFrame(t)
	if vp := frame.viewports[0]; vp.Width != 1024 || vp.Height != 768 {
		t.Errorf("recorded viewport %vx%v, want 1024x768", vp.Width, vp.Height)
	}
}

func TestCreateDeleteCyclesRelease(t *testing.T) {
	r, _, alloc, _ := newTestRenderer(t)

	for i := 0; i < 50; i++ {
		if err := r.CreateObject(7, triangle(), Transform{}); err != nil {
			t.Fatalf("cycle %d: %v", i, err)
		}
		r.DeleteObject(7)
		if _, ok := r.objects.Get(7); ok {
			t.Fatalf("cycle %d: object 7 still registered", i)
		}
	}
	if alloc.live != 0 {
		t.Errorf("live buffers = %d after create/delete cycles, want 0", alloc.live)
	}
	if alloc.created != 50 {
		t.Errorf("created = %d, want 50", alloc.created)
	}
}

func TestDeleteUnknownID(t *testing.T) {
	r, presenter, alloc, out := newTestRenderer(t)
	if err := r.CreateObject(1, triangle(), Transform{}); err != nil {
		t.Fatal(err)
	}

	r.DeleteObject(42)
	r.DeleteObject(42)

	if r.Objects() != 1 || alloc.live != 1 {
		t.Fatalf("objects = %d, live = %d, want 1 and 1", r.Objects(), alloc.live)
	}
	if out.Len() != 0 {
		t.Errorf("deleting an unknown id logged %q", out.String())
	}
	r.DrawFrame(FramePose{})
	if draws := presenter.lastFrame(t).draws; len(draws) != 1 {
		t.Errorf("draws = %v, want 1 draw", draws)
	}
}

func TestResizeRecordsViewportAndScissor(t *testing.T) {
	tests := []struct {
		offset, extent mgl32.Vec2
		scissor        vk.Rect2D
	}{
		{mgl32.Vec2{0, 0}, mgl32.Vec2{640, 480}, vk.Rect2D{Extent: vk.Extent2D{Width: 640, Height: 480}}},
		{mgl32.Vec2{10.5, 20.75}, mgl32.Vec2{300.9, 200.2}, vk.Rect2D{
			Offset: vk.Offset2D{X: 10, Y: 20},
			Extent: vk.Extent2D{Width: 300, Height: 200},
		}},
	}

	for _, test := range tests {
		r, presenter, _, _ := newTestRenderer(t)
		if err := r.ResizeViewport(test.offset, test.extent); err != nil {
			t.Fatalf("ResizeViewport(%v, %v): %v", test.offset, test.extent, err)
		}
		r.DrawFrame(FramePose{})

		frame := presenter.lastFrame(t)
		vp := frame.viewports[0]
		if vp.X != test.offset.X() || vp.Y != test.offset.Y() ||
			vp.Width != test.extent.X() || vp.Height != test.extent.Y() ||
			vp.MinDepth != 0 || vp.MaxDepth != 1 {
			t.Errorf("viewport = {%v %v %v %v %v %v}, want offset %v extent %v depth 0..1",
				vp.X, vp.Y, vp.Width, vp.Height, vp.MinDepth, vp.MaxDepth, test.offset, test.extent)
		}
		sc := frame.scissors[0]
		if sc.Offset.X != test.scissor.Offset.X || sc.Offset.Y != test.scissor.Offset.Y ||
			sc.Extent.Width != test.scissor.Extent.Width || sc.Extent.Height != test.scissor.Extent.Height {
			t.Errorf("scissor = %v,%v %vx%v, want %v,%v %vx%v",
				sc.Offset.X, sc.Offset.Y, sc.Extent.Width, sc.Extent.Height,
				test.scissor.Offset.X, test.scissor.Offset.Y, test.scissor.Extent.Width, test.scissor.Extent.Height)
		}
	}
}

func TestDrawCompleteness(t *testing.T) {
	r, presenter, _, _ := newTestRenderer(t)

	counts := map[ObjectID]int{5: 3, 1: 6, 3: 9, 9: 12}
	for id, n := range counts {
		vertices := make([]Vertex, n)
		if err := r.CreateObject(id, vertices, Transform{}); err != nil {
			t.Fatal(err)
		}
	}
	r.DrawFrame(FramePose{})

	frame := presenter.lastFrame(t)
	want := []uint32{6, 9, 3, 12} // ascending id: 1, 3, 5, 9
	if len(frame.draws) != len(want) {
		t.Fatalf("draws = %v, want %v", frame.draws, want)
	}
	for i := range want {
		if frame.draws[i] != want[i] {
			t.Errorf("draw %d has %d vertices, want %d", i, frame.draws[i], want[i])
		}
	}
}

func TestFrameCommandOrder(t *testing.T) {
	r, presenter, _, _ := newTestRenderer(t)
	if err := r.CreateObject(1, triangle(), Transform{}); err != nil {
		t.Fatal(err)
	}
	r.DrawFrame(FramePose{})

	got := strings.Join(presenter.lastFrame(t).ops, " ")
	want := "begin pipeline viewport scissor push vertices draw end"
	if got != want {
		t.Errorf("ops = %q, want %q", got, want)
	}
}

func TestDuplicateIDReplaces(t *testing.T) {
	r, presenter, alloc, out := newTestRenderer(t)

	if err := r.CreateObject(1, triangle(), Transform{}); err != nil {
		t.Fatal(err)
	}
	if err := r.CreateObject(1, quad(), Transform{}); err != nil {
		t.Fatal(err)
	}

	if alloc.live != 1 {
		t.Errorf("live buffers = %d, want 1 after replacing", alloc.live)
	}
	if !strings.Contains(out.String(), "duplicate id 1") {
		t.Errorf("expected a duplicate id warning, log was %q", out.String())
	}
	r.DrawFrame(FramePose{})
	if draws := presenter.lastFrame(t).draws; len(draws) != 1 || draws[0] != 6 {
		t.Errorf("draws = %v, want [6]", draws)
	}
}

func TestCreateObjectErrors(t *testing.T) {
	r, _, alloc, _ := newTestRenderer(t)

	if err := r.CreateObject(1, nil, Transform{}); err == nil {
		t.Errorf("creating an object without vertices should fail")
	}
	if err := r.CreateTexturedObject(2, triangle(), Transform{}, "a.png"); err == nil {
		t.Errorf("textured object on an untextured renderer should fail")
	}
	alloc.fail = errors.New("out of device memory")
	if err := r.CreateObject(3, triangle(), Transform{}); err == nil {
		t.Errorf("allocator failure should be returned")
	}
	if r.Objects() != 0 {
		t.Errorf("objects = %d after failed creates, want 0", r.Objects())
	}
}

func TestTexturedObjects(t *testing.T) {
	presenter := newFakePresenter()
	alloc := &fakeAllocator{}
	materials := &fakeMaterials{}
	viewport := NewViewportState(mgl32.Vec2{0, 0}, mgl32.Vec2{800, 600})
	r := NewRenderer(presenter, alloc, materials, viewport, DefaultLens(), logging.Discard())

	if err := r.CreateObject(1, triangle(), Transform{}); err != nil {
		t.Fatal(err)
	}
	if err := r.CreateTexturedObject(2, triangle(), Transform{}, "stone.png"); err != nil {
		t.Fatal(err)
	}
	if len(materials.paths) != 2 || materials.paths[0] != "" || materials.paths[1] != "stone.png" {
		t.Fatalf("acquired %q, want default then stone.png", materials.paths)
	}

	r.DrawFrame(FramePose{})
	if n := presenter.lastFrame(t).materials; n != 2 {
		t.Errorf("bound %d materials, want 2", n)
	}

	r.DeleteObject(2)
	if materials.live != 1 {
		t.Errorf("live materials = %d, want 1", materials.live)
	}

	alloc.fail = errors.New("no memory")
	if err := r.CreateTexturedObject(3, triangle(), Transform{}, "dirt.png"); err == nil {
		t.Fatalf("expected allocator failure")
	}
	if materials.live != 1 {
		t.Errorf("material leaked after failed create, live = %d", materials.live)
	}

	r.Destroy()
	if materials.live != 0 || alloc.live != 0 {
		t.Errorf("after Destroy live materials = %d, buffers = %d", materials.live, alloc.live)
	}
}

func TestEmptyViewportDefersRebuild(t *testing.T) {
	r, presenter, _, _ := newTestRenderer(t)

	if err := r.ResizeViewport(mgl32.Vec2{0, 0}, mgl32.Vec2{0, 0}); err != nil {
		t.Fatal(err)
	}
	r.DrawFrame(FramePose{})
	if len(presenter.rebuilds) != 0 || len(presenter.frames) != 0 {
		t.Fatalf("minimized window: rebuilds = %d, frames = %d, want none", len(presenter.rebuilds), len(presenter.frames))
	}

	if err := r.ResizeViewport(mgl32.Vec2{0, 0}, mgl32.Vec2{320, 240}); err != nil {
		t.Fatal(err)
	}
	r.DrawFrame(FramePose{})
	if len(presenter.rebuilds) != 1 || len(presenter.frames) != 1 {
		t.Errorf("after restore: rebuilds = %d, frames = %d, want 1 and 1", len(presenter.rebuilds), len(presenter.frames))
	}
}

func TestFrameLocalFailureIsDropped(t *testing.T) {
	results := []vk.Result{vk.ErrorOutOfDate, vk.ErrorSurfaceLost, vk.Timeout, vk.NotReady}

	for _, ret := range results {
		r, presenter, _, out := newTestRenderer(t)
		presenter.presentErr = NewError(ret)
		r.DrawFrame(FramePose{})

		if !strings.Contains(out.String(), "Failed to flush frame") {
			t.Errorf("result %d: log was %q", ret, out.String())
		}

		presenter.presentErr = nil
		presenter.acquireErr = errors.Wrap(NewError(ret), "acquire")
		r.DrawFrame(FramePose{})
		if len(presenter.frames) != 1 {
			t.Errorf("result %d: recorded %d frames after failed acquire, want 1", ret, len(presenter.frames))
		}
	}
}

func TestFatalFailurePanics(t *testing.T) {
	r, presenter, _, _ := newTestRenderer(t)
	presenter.acquireErr = NewError(vk.ErrorDeviceLost)

	defer func() {
		if recover() == nil {
			t.Errorf("device loss should panic")
		}
	}()
	r.DrawFrame(FramePose{})
}

func TestDestroyReleasesEverything(t *testing.T) {
	r, presenter, alloc, _ := newTestRenderer(t)
	var order []string
	r.closers = []func(){
		func() { order = append(order, "device") },
		func() { order = append(order, "pool") },
	}
	for id := ObjectID(1); id <= 4; id++ {
		if err := r.CreateObject(id, triangle(), Transform{}); err != nil {
			t.Fatal(err)
		}
	}

	r.Destroy()

	if alloc.live != 0 {
		t.Errorf("live buffers = %d, want 0", alloc.live)
	}
	if presenter.waits == 0 || !presenter.destroyed {
		t.Errorf("presenter waits = %d, destroyed = %v", presenter.waits, presenter.destroyed)
	}
	if strings.Join(order, ",") != "pool,device" {
		t.Errorf("closers ran as %v, want reverse creation order", order)
	}
}

func TestFramebufferParityAfterResizes(t *testing.T) {
	r, presenter, _, _ := newTestRenderer(t)
	sizes := []mgl32.Vec2{{800, 600}, {0, 0}, {1920, 1080}, {640, 480}, {641, 481}}
	for _, size := range sizes {
		if err := r.ResizeViewport(mgl32.Vec2{}, size); err != nil {
			t.Fatalf("resize to %v: %v", size, err)
		}
		if len(presenter.framebuffers) != presenter.images {
			t.Fatalf("after %v: %d framebuffers for %d images", size, len(presenter.framebuffers), presenter.images)
		}
	}
}
