package voxelvk

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

var (
	ErrNoAdapter       = errors.New("no adapter supports graphics and presentation to the surface")
	ErrNoSurfaceFormat = errors.New("surface reports no pixel formats")
	ErrNoMemoryType    = errors.New("no memory type satisfies the requested properties")
)

// ResultError is a failed vk.Result together with the frame that produced it.
type ResultError struct {
	Result vk.Result
	Frame  string
}

func (e *ResultError) Error() string {
	name := fmt.Sprintf("result %d", e.Result)
	if err := vk.Error(e.Result); err != nil {
		name = err.Error()
	}
	if e.Frame == "" {
		return fmt.Sprintf("vulkan error: %s (%d)", name, e.Result)
	}
	return fmt.Sprintf("vulkan error: %s (%d) on %s", name, e.Result, e.Frame)
}

func isError(ret vk.Result) bool {
	return ret != vk.Success
}

// NewError converts ret into an error tagged with the caller's location.
// vk.Success maps to nil.
func NewError(ret vk.Result) error {
	if ret == vk.Success {
		return nil
	}
	pc, file, line, ok := runtime.Caller(1)
	if !ok {
		return &ResultError{Result: ret}
	}
	frame := fmt.Sprintf("%s:%d", filepath.Base(file), line)
	if fn := runtime.FuncForPC(pc); fn != nil {
		frame = fmt.Sprintf("%s (%s)", frame, fn.Name())
	}
	return &ResultError{Result: ret, Frame: frame}
}

// resultOf digs the vk.Result out of a wrapped error.
func resultOf(err error) (vk.Result, bool) {
	var re *ResultError
	if errors.As(err, &re) {
		return re.Result, true
	}
	return vk.Success, false
}

// isFrameLocal reports whether err only spoils the current frame. Everything
// else coming out of the scheduler is a lost device or exhausted memory.
func isFrameLocal(err error) bool {
	ret, ok := resultOf(err)
	if !ok {
		return false
	}
	switch ret {
	case vk.ErrorOutOfDate, vk.ErrorSurfaceLost, vk.Timeout, vk.NotReady:
		return true
	}
	return false
}

func checkErr(err *error) {
	if v := recover(); v != nil {
		*err = fmt.Errorf("%+v", v)
	}
}

func orPanic(err error) {
	if err != nil {
		panic(err)
	}
}
