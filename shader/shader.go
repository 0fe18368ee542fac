package shader

// The difference-matrix program compares every sample of the horizontal
// signal against every sample of the vertical signal. A fragment at
// coordinate (u, v) samples both signals, takes the absolute difference,
// and maps it through -log(d)/10 so that small differences render bright.
// The column where u matches the measured delay is flooded red.
//
// The same program exists in three dialects: WGSL for the WebGPU host,
// ESSL 300 for the shader translator, and GLSL 410 for desktop OpenGL.
// The Go package software holds a fourth, CPU-side rendition used as the
// reference in tests. All four must agree on the math below.

const (
	// Bind group 0 layout, shared by the WGSL host and any raster host
	// that emulates it.
	BindingHorizontal = 0 // 1-D R32Float texture, horizontal axis
	BindingVertical   = 1 // 1-D R32Float texture, vertical axis
	BindingSampler    = 2 // non-filtering sampler shared by both textures
	BindingDelay      = 3 // 4-byte uniform, delay as a fraction of the horizontal axis

	// Entry points of the WGSL program.
	VertexEntryPoint   = "vs_main"
	FragmentEntryPoint = "fs_main"

	// The quad is synthesized from the vertex index; no vertex buffer is
	// bound. Drawn as a 4-vertex triangle strip.
	QuadVertexCount = 4
)

const (
	// MarkerHalfWidth is the half-width of the red delay marker column,
	// in normalized texture coordinates.
	MarkerHalfWidth = 0.001

	// IntensityDivisor scales the negated log of the difference into a
	// displayable gray level.
	IntensityDivisor = 10.0

	// MinDifference clamps the difference before the log so that a
	// perfect match (d = 0) produces a finite intensity instead of +Inf.
	MinDifference = 1e-6
)

// Uniform names of the GL dialects. The renderer resolves these through
// the shader translator's variable map, so they must match the ESSL
// source exactly.
const (
	UniformHorizontal = "u_horizontal"
	UniformVertical   = "u_vertical"
	UniformDelay      = "u_delay"
)

// ────────────────────────────────── WGSL ──────────────────────────────────

const matrixShaderSourceWGSL = `struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
};

@vertex
fn vs_main(@builtin(vertex_index) index: u32) -> VertexOutput {
    var corners = array<vec2<f32>, 4>(
        vec2<f32>(-1.0, -1.0),
        vec2<f32>(-1.0,  1.0),
        vec2<f32>( 1.0, -1.0),
        vec2<f32>( 1.0,  1.0),
    );
    var uvs = array<vec2<f32>, 4>(
        vec2<f32>(0.0, 0.0),
        vec2<f32>(0.0, 1.0),
        vec2<f32>(1.0, 0.0),
        vec2<f32>(1.0, 1.0),
    );
    var out: VertexOutput;
    out.position = vec4<f32>(corners[index], 0.0, 1.0);
    out.uv = uvs[index];
    return out;
}

@group(0) @binding(0) var horizontal_signal: texture_1d<f32>;
@group(0) @binding(1) var vertical_signal: texture_1d<f32>;
@group(0) @binding(2) var signal_sampler: sampler;
@group(0) @binding(3) var<uniform> delay: f32;

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    let h = textureSample(horizontal_signal, signal_sampler, in.uv.x).r;
    let v = textureSample(vertical_signal, signal_sampler, in.uv.y).r;
    let d = abs(v - h);
    let intensity = -log(max(d, 1e-6)) / 10.0;
    var color = vec4<f32>(intensity, intensity, intensity, 0.0);
    if (abs(in.uv.x - delay) < 0.001) {
        color.r = 1.0;
    }
    return color;
}
`

// ────────────────────────────────── Desktop GL ──────────────────────────────────

// The quad is generated from gl_VertexID so the host never binds a vertex
// buffer; an empty VAO is enough.
const vertexShaderSourceGL = `#version 410 core
out vec2 frag_uv;

const vec2 corners[4] = vec2[4](
    vec2(-1.0, -1.0),
    vec2(-1.0,  1.0),
    vec2( 1.0, -1.0),
    vec2( 1.0,  1.0)
);
const vec2 uvs[4] = vec2[4](
    vec2(0.0, 0.0),
    vec2(0.0, 1.0),
    vec2(1.0, 0.0),
    vec2(1.0, 1.0)
);

void main() {
    frag_uv = uvs[gl_VertexID];
    gl_Position = vec4(corners[gl_VertexID], 0.0, 1.0);
}
`

// GL has no 1-D texture in the ES-compatible subset, so the signals are
// bound as W x 1 2-D textures and sampled at the vertical center of their
// single row. With NEAREST filtering this is exact.
const matrixFragmentShaderSourceGL = `#version 410 core
in vec2 frag_uv;
out vec4 fragColor;

uniform sampler2D u_horizontal;
uniform sampler2D u_vertical;
uniform float u_delay;

void main() {
    float h = texture(u_horizontal, vec2(frag_uv.x, 0.5)).r;
    float v = texture(u_vertical, vec2(frag_uv.y, 0.5)).r;
    float d = abs(v - h);
    float intensity = -log(max(d, 1e-6)) / 10.0;
    vec4 color = vec4(intensity, intensity, intensity, 0.0);
    if (abs(frag_uv.x - u_delay) < 0.001) {
        color.r = 1.0;
    }
    fragColor = color;
}
`

// ──────────────────────────────────── GLES ──────────────────────────────────────

const vertexShaderSourceGLES = `#version 300 es
out vec2 frag_uv;

const vec2 corners[4] = vec2[4](
    vec2(-1.0, -1.0),
    vec2(-1.0,  1.0),
    vec2( 1.0, -1.0),
    vec2( 1.0,  1.0)
);
const vec2 uvs[4] = vec2[4](
    vec2(0.0, 0.0),
    vec2(0.0, 1.0),
    vec2(1.0, 0.0),
    vec2(1.0, 1.0)
);

void main() {
    frag_uv = uvs[gl_VertexID];
    gl_Position = vec4(corners[gl_VertexID], 0.0, 1.0);
}
`

// ESSL version, fed through the shader translator to produce the desktop
// source the GL renderer actually compiles.
const matrixFragmentShaderSourceGLES = `#version 300 es
precision highp float;

in vec2 frag_uv;
out vec4 fragColor;

uniform sampler2D u_horizontal;
uniform sampler2D u_vertical;
uniform float u_delay;

void main() {
    float h = texture(u_horizontal, vec2(frag_uv.x, 0.5)).r;
    float v = texture(u_vertical, vec2(frag_uv.y, 0.5)).r;
    float d = abs(v - h);
    float intensity = -log(max(d, 1e-6)) / 10.0;
    vec4 color = vec4(intensity, intensity, intensity, 0.0);
    if (abs(frag_uv.x - u_delay) < 0.001) {
        color.r = 1.0;
    }
    fragColor = color;
}
`

// GetMatrixShaderWGSL returns the combined vertex and fragment WGSL
// module for the WebGPU host.
func GetMatrixShaderWGSL() string {
	return matrixShaderSourceWGSL
}

// GenerateVertexShader returns the quad-generating vertex shader for the
// requested GL dialect.
func GenerateVertexShader(isGLES bool) string {
	if isGLES {
		return vertexShaderSourceGLES
	}
	return vertexShaderSourceGL
}

// GetMatrixFragmentShader returns the difference-matrix fragment shader
// for the requested GL dialect.
func GetMatrixFragmentShader(isGLES bool) string {
	if isGLES {
		return matrixFragmentShaderSourceGLES
	}
	return matrixFragmentShaderSourceGL
}
