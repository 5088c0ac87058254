package renderer

import (
	"fmt"
	"sync"

	"github.com/go-gl/gl/v2.1/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/Thibaos/a-tlas/world"
)

const (
	// Coefficients for converting delta cursor movements to yaw/pitch camera angles.
	mouseSensitivityX float32 = 0.005
	mouseSensitivityY float32 = 0.005

	// Camera movement speed in world units per key event.
	cameraMoveSpeed float32 = 1.0
)

const (
	leftMouseButton  = 0
	rightMouseButton = 1
)

// An interactive opengl-based renderer. Each frame it traces into the
// offscreen target, uploads the pixels to a texture and blits it to the
// window framebuffer.
type interactiveGLRenderer struct {
	*defaultRenderer

	// opengl handles
	window    *glfw.Window
	texFbo    uint32
	fbTexture uint32

	// state
	lastCursorPos [2]float32
	mousePressed  [2]bool

	// mutex for synchronizing camera updates with the render loop
	sync.Mutex
}

// Create a new interactive opengl renderer over the given world.
func NewInteractive(w *world.World, palette world.Palette, opts Options) (Renderer, error) {
	base, err := NewDefault(w, palette, opts)
	if err != nil {
		return nil, err
	}

	r := &interactiveGLRenderer{
		defaultRenderer: base.(*defaultRenderer),
	}

	if err = r.initGL(opts); err != nil {
		r.Close()
		return nil, err
	}

	return r, nil
}

func (r *interactiveGLRenderer) Close() {
	if r.window != nil {
		r.window.SetShouldClose(true)
	}
	if r.defaultRenderer != nil {
		r.defaultRenderer.Close()
	}
}

func (r *interactiveGLRenderer) initGL(opts Options) error {
	var err error
	if err = glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize glfw: %s", err.Error())
	}

	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 2)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	r.window, err = glfw.CreateWindow(int(opts.FrameW), int(opts.FrameH), "a-tlas", nil, nil)
	if err != nil {
		return fmt.Errorf("could not create opengl window: %s", err.Error())
	}
	r.window.MakeContextCurrent()

	if err = gl.Init(); err != nil {
		return fmt.Errorf("could not init opengl: %s", err.Error())
	}

	// Setup texture for traced frame data
	gl.GenTextures(1, &r.fbTexture)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, r.fbTexture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(opts.FrameW), int32(opts.FrameH), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)

	// Attach texture to FBO
	gl.GenFramebuffers(1, &r.texFbo)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, r.texFbo)
	gl.FramebufferTexture2D(gl.READ_FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, r.fbTexture, 0)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)

	// Bind event callbacks
	r.window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	r.window.SetKeyCallback(r.onKeyEvent)
	r.window.SetMouseButtonCallback(r.onMouseEvent)
	r.window.SetCursorPosCallback(r.onCursorPosEvent)
	r.window.SetFramebufferSizeCallback(r.onFramebufferResize)

	return nil
}

// Recreate the render target and its blit texture when the window
// framebuffer changes size. Runs on the event thread; the render lock
// keeps it out of an in-progress frame.
func (r *interactiveGLRenderer) onFramebufferResize(w *glfw.Window, width, height int) {
	if width <= 0 || height <= 0 {
		return
	}

	r.Lock()
	defer r.Unlock()

	if err := r.defaultRenderer.Resize(uint32(width), uint32(height)); err != nil {
		logger.Warningf("render target resize to %dx%d failed: %v", width, height, err)
		return
	}

	gl.BindTexture(gl.TEXTURE_2D, r.fbTexture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
}

func (r *interactiveGLRenderer) Render() error {
	for !r.window.ShouldClose() {
		glfw.PollEvents()

		r.Lock()
		err := r.defaultRenderer.Render()
		if err != nil {
			r.Unlock()
			return err
		}

		// Upload traced pixels and blit to the window framebuffer
		frameW, frameH := int32(r.options.FrameW), int32(r.options.FrameH)
		gl.BindTexture(gl.TEXTURE_2D, r.fbTexture)
		gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, frameW, frameH, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(r.TargetPixels()))

		gl.BindFramebuffer(gl.READ_FRAMEBUFFER, r.texFbo)
		gl.BlitFramebuffer(0, 0, frameW, frameH, 0, 0, frameW, frameH, gl.COLOR_BUFFER_BIT, gl.LINEAR)
		gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)

		r.window.SwapBuffers()
		r.Unlock()
	}
	return nil
}

func (r *interactiveGLRenderer) onKeyEvent(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action != glfw.Press && action != glfw.Repeat {
		return
	}

	var moveDir CameraDirection
	switch key {
	case glfw.KeyEscape:
		r.window.SetShouldClose(true)
		return
	case glfw.KeyU:
		// Force an out-of-band structure update
		r.RequestUpdate()
		return
	case glfw.KeyUp, glfw.KeyW:
		moveDir = Forward
	case glfw.KeyDown, glfw.KeyS:
		moveDir = Backward
	case glfw.KeyLeft, glfw.KeyA:
		moveDir = Left
	case glfw.KeyRight, glfw.KeyD:
		moveDir = Right
	case glfw.KeySpace:
		moveDir = Up
	case glfw.KeyLeftControl:
		moveDir = Down
	default:
		return
	}

	// Double speed if shift is pressed
	var speedScaler float32 = 1.0
	if (mods & glfw.ModShift) == glfw.ModShift {
		speedScaler = 2.0
	}

	r.Lock()
	r.camera.Move(moveDir, speedScaler*cameraMoveSpeed)
	r.InvalidateInstances()
	r.Unlock()
	r.RequestUpdate()
}

func (r *interactiveGLRenderer) onMouseEvent(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mod glfw.ModifierKey) {
	if button != glfw.MouseButtonLeft && button != glfw.MouseButtonRight {
		return
	}

	r.mousePressed[leftMouseButton] = false
	r.mousePressed[rightMouseButton] = false

	if action == glfw.Press {
		xPos, yPos := w.GetCursorPos()
		r.lastCursorPos[0], r.lastCursorPos[1] = float32(xPos), float32(yPos)

		buttonIndex := leftMouseButton
		if button == glfw.MouseButtonRight {
			buttonIndex = rightMouseButton
		}

		r.mousePressed[buttonIndex] = true
	}
}

func (r *interactiveGLRenderer) onCursorPosEvent(w *glfw.Window, xPos, yPos float64) {
	if !r.mousePressed[leftMouseButton] {
		return
	}

	// Calculate delta movement and apply mouse sensitivity
	deltaX := (r.lastCursorPos[0] - float32(xPos)) * mouseSensitivityX
	deltaY := (r.lastCursorPos[1] - float32(yPos)) * mouseSensitivityY
	r.lastCursorPos[0], r.lastCursorPos[1] = float32(xPos), float32(yPos)

	r.Lock()
	r.camera.Rotate(deltaX, deltaY)
	r.Unlock()
}
