// Package renderer draws the difference matrix with OpenGL: an
// interactive GLFW window in live mode, a hidden-window FBO target in
// record mode.
package renderer

import (
	"fmt"
	"log"
	"strings"
	"sync"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	gst "github.com/richinsley/goshadertranslator"

	"github.com/anemolab/anemoscope/glfwcontext"
	"github.com/anemolab/anemoscope/shader"
	"github.com/anemolab/anemoscope/translator"
)

// gl.Init must run exactly once per process, after the first context is
// current.
var glInitOnce sync.Once

// signalTexture holds one axis of the matrix as a W x 1 R32F texture.
type signalTexture struct {
	id    uint32
	width int
}

// ensure reallocates the texture storage when the signal length
// changes. NEAREST filtering keeps texel reads exact.
func (st *signalTexture) ensure(width int) {
	gl.BindTexture(gl.TEXTURE_2D, st.id)
	if st.width != width {
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.R32F, int32(width), 1, 0, gl.RED, gl.FLOAT, nil)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
		st.width = width
	}
}

// upload writes the samples into the single texture row. Leaves the
// texture bound on the active texture unit.
func (st *signalTexture) upload(samples []float32) {
	st.ensure(len(samples))
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(len(samples)), 1, gl.RED, gl.FLOAT, gl.Ptr(samples))
}

// Renderer owns the shader program and the two signal textures and
// draws one difference-matrix quad per frame.
type Renderer struct {
	context    *glfwcontext.Context
	width      int
	height     int
	recordMode bool

	program    uint32
	quadVAO    uint32
	uniformMap map[string]gst.ShaderVariable

	horizontal signalTexture
	vertical   signalTexture

	horizontalLoc int32
	verticalLoc   int32
	delayLoc      int32

	offscreen *offscreenTarget
}

// NewRenderer creates the window (hidden when visible is false), makes
// its context current on the calling goroutine and builds the GL scene.
// The caller must have locked the OS thread.
func NewRenderer(width, height int, visible bool) (*Renderer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("renderer size must be positive, got %dx%d", width, height)
	}

	r := &Renderer{
		width:      width,
		height:     height,
		recordMode: !visible,
	}

	var err error
	r.context, err = glfwcontext.New(width, height, "Anemoscope", visible)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize glfw context: %w", err)
	}
	r.context.MakeCurrent()

	var initErr error
	glInitOnce.Do(func() {
		initErr = gl.Init()
	})
	if initErr != nil {
		r.context.Shutdown()
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", initErr)
	}

	if err := r.initScene(); err != nil {
		r.Shutdown()
		return nil, err
	}
	return r, nil
}

// translatedFragmentShader runs the ESSL fragment source through the
// shader translator for the context's dialect. When translation is
// unavailable the native source is compiled directly and the uniform
// map stays nil, which makes uniformLocation fall back to raw names.
func (r *Renderer) translatedFragmentShader() (string, map[string]gst.ShaderVariable) {
	isGLES := r.context.IsGLES()
	outputFormat := gst.OutputFormatGLSL410
	if isGLES {
		outputFormat = gst.OutputFormatESSL
	}

	tr, err := translator.Get()
	if err == nil {
		fsShader, terr := tr.TranslateShader(shader.GetMatrixFragmentShader(true), "fragment", gst.ShaderSpecWebGL2, outputFormat)
		if terr == nil {
			return fsShader.Code, fsShader.Variables
		}
		err = terr
	}
	log.Printf("Shader translation unavailable (%v), compiling native source", err)
	return shader.GetMatrixFragmentShader(isGLES), nil
}

func (r *Renderer) initScene() error {
	fragmentSource, uniformMap := r.translatedFragmentShader()
	r.uniformMap = uniformMap

	var err error
	r.program, err = newProgram(shader.GenerateVertexShader(r.context.IsGLES()), fragmentSource)
	if err != nil {
		return fmt.Errorf("failed to create shader program: %w", err)
	}

	gl.UseProgram(r.program)
	r.horizontalLoc = r.uniformLocation(shader.UniformHorizontal)
	r.verticalLoc = r.uniformLocation(shader.UniformVertical)
	r.delayLoc = r.uniformLocation(shader.UniformDelay)
	if r.horizontalLoc == -1 || r.verticalLoc == -1 || r.delayLoc == -1 {
		log.Printf("WARNING: difference program uniform missing (h=%d v=%d delay=%d)",
			r.horizontalLoc, r.verticalLoc, r.delayLoc)
	}

	// The quad is synthesized from gl_VertexID, so the VAO stays empty.
	gl.GenVertexArrays(1, &r.quadVAO)

	gl.GenTextures(1, &r.horizontal.id)
	gl.GenTextures(1, &r.vertical.id)

	if r.recordMode {
		r.offscreen, err = newOffscreenTarget(r.width, r.height)
		if err != nil {
			return err
		}
	}
	return nil
}

// uniformLocation resolves a uniform through the translator's variable
// map. A nil map means the native source was compiled, so the raw name
// is looked up instead.
func (r *Renderer) uniformLocation(name string) int32 {
	if r.uniformMap == nil {
		return gl.GetUniformLocation(r.program, gl.Str(name+"\x00"))
	}
	if v, ok := r.uniformMap[name]; ok {
		return gl.GetUniformLocation(r.program, gl.Str(v.MappedName+"\x00"))
	}
	return -1
}

// RenderFrame uploads both signal windows, positions the delay marker
// and draws the quad. The delay is the marker's normalized horizontal
// coordinate, not a sample count.
func (r *Renderer) RenderFrame(horizontal, vertical []float32, delay float32) error {
	if len(horizontal) == 0 || len(vertical) == 0 {
		return fmt.Errorf("empty signal window")
	}

	renderWidth, renderHeight := r.width, r.height
	if r.recordMode {
		gl.BindFramebuffer(gl.FRAMEBUFFER, r.offscreen.fbo)
	} else {
		// Track the window's framebuffer so resizing keeps working.
		renderWidth, renderHeight = r.context.GetFramebufferSize()
	}

	gl.UseProgram(r.program)

	gl.ActiveTexture(gl.TEXTURE0)
	r.horizontal.upload(horizontal)
	if r.horizontalLoc != -1 {
		gl.Uniform1i(r.horizontalLoc, 0)
	}

	gl.ActiveTexture(gl.TEXTURE1)
	r.vertical.upload(vertical)
	if r.verticalLoc != -1 {
		gl.Uniform1i(r.verticalLoc, 1)
	}

	if r.delayLoc != -1 {
		gl.Uniform1f(r.delayLoc, delay)
	}

	gl.Viewport(0, 0, int32(renderWidth), int32(renderHeight))
	gl.Clear(gl.COLOR_BUFFER_BIT)
	gl.BindVertexArray(r.quadVAO)
	gl.DrawArrays(gl.TRIANGLE_STRIP, 0, shader.QuadVertexCount)
	gl.BindVertexArray(0)

	if r.recordMode {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	}
	return nil
}

// Frame renders one frame offscreen and returns it as tightly packed
// RGBA rows, top scanline first. Only valid in record mode.
func (r *Renderer) Frame(horizontal, vertical []float32, delay float32) ([]byte, error) {
	if r.offscreen == nil {
		return nil, fmt.Errorf("frame readback requires record mode")
	}
	if err := r.RenderFrame(horizontal, vertical, delay); err != nil {
		return nil, err
	}
	return r.offscreen.ReadFrame(), nil
}

// Run drives the interactive loop until the window closes. frame is
// called once per iteration to produce the signal windows and the
// marker position for that frame.
func (r *Renderer) Run(frame func() (horizontal, vertical []float32, delay float32)) {
	for !r.context.ShouldClose() {
		horizontal, vertical, delay := frame()
		if err := r.RenderFrame(horizontal, vertical, delay); err != nil {
			log.Printf("Render error: %v", err)
			return
		}
		r.context.EndFrame()
	}
}

// Context exposes the window wrapper for key bindings, timing and
// title updates.
func (r *Renderer) Context() *glfwcontext.Context {
	return r.context
}

func (r *Renderer) Shutdown() {
	gl.DeleteProgram(r.program)
	gl.DeleteTextures(1, &r.horizontal.id)
	gl.DeleteTextures(1, &r.vertical.id)
	gl.DeleteVertexArrays(1, &r.quadVAO)
	if r.offscreen != nil {
		r.offscreen.Destroy()
	}
	r.context.Shutdown()
}

func newProgram(vertexShaderSource, fragmentShaderSource string) (uint32, error) {
	vertexShader, err := compileShader(vertexShaderSource, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fragmentShader, err := compileShader(fragmentShaderSource, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, err
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		return 0, fmt.Errorf("failed to link program: %v", log)
	}

	gl.DeleteShader(vertexShader)
	gl.DeleteShader(fragmentShader)

	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(logText))
		return 0, fmt.Errorf("failed to compile shader: %v", logText)
	}
	return shader, nil
}
