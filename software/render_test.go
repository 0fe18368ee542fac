package software

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anemolab/anemoscope/signal"
)

func constBuffer(value float32, n int) *signal.Buffer1D {
	data := make([]float32, n)
	for i := range data {
		data[i] = value
	}
	return signal.NewBuffer1D(data, signal.FilterNearest, signal.WrapClampToEdge)
}

func TestQuadVertexMapping(t *testing.T) {
	cases := []struct {
		index int
		pos   [4]float32
		uv    [2]float32
	}{
		{0, [4]float32{-1, -1, 0, 1}, [2]float32{0, 0}},
		{1, [4]float32{-1, 1, 0, 1}, [2]float32{0, 1}},
		{2, [4]float32{1, -1, 0, 1}, [2]float32{1, 0}},
		{3, [4]float32{1, 1, 0, 1}, [2]float32{1, 1}},
	}
	for _, tc := range cases {
		pos, uv := QuadVertex(tc.index)
		assert.Equal(t, tc.pos, pos, "position of vertex %d", tc.index)
		assert.Equal(t, tc.uv, uv, "uv of vertex %d", tc.index)
	}
}

func TestShadePerfectMatch(t *testing.T) {
	h := constBuffer(0.5, 64)
	v := constBuffer(0.5, 64)

	// Away from the marker column. A zero difference is clamped to the
	// minimum before the log, giving -log(1e-6)/10.
	c := Shade(0.25, 0.75, h, v, 0.9)
	assert.InDelta(t, 1.3815511, c.R, 1e-5)
	assert.Equal(t, c.R, c.G)
	assert.Equal(t, c.R, c.B)
	assert.Equal(t, float32(0), c.A)
}

func TestShadeKnownDifference(t *testing.T) {
	h := constBuffer(0.2, 64)
	v := constBuffer(0.8, 64)

	// d = 0.6 everywhere, so intensity = -log(0.6)/10.
	c := Shade(0.5, 0.5, h, v, 0.9)
	assert.InDelta(t, 0.05108256, c.R, 1e-6)
	assert.Equal(t, c.R, c.G)
	assert.Equal(t, c.R, c.B)
}

func TestShadeMarkerColumn(t *testing.T) {
	h := constBuffer(0.2, 64)
	v := constBuffer(0.8, 64)
	const delay = 0.5

	inside := Shade(delay+0.0009, 0.3, h, v, delay)
	assert.Equal(t, float32(1), inside.R, "inside the marker the red channel is forced to 1")
	assert.InDelta(t, 0.05108256, inside.G, 1e-6, "green keeps the intensity")
	assert.InDelta(t, 0.05108256, inside.B, 1e-6, "blue keeps the intensity")

	outside := Shade(delay+0.0011, 0.3, h, v, delay)
	assert.InDelta(t, 0.05108256, outside.R, 1e-6, "outside the marker red is the intensity")

	exact := Shade(delay, 0.3, h, v, delay)
	assert.Equal(t, float32(1), exact.R)
}

func TestShadeSymmetric(t *testing.T) {
	a := signal.NewBuffer1D([]float32{0.1, 0.4, 0.9}, signal.FilterNearest, signal.WrapClampToEdge)
	b := signal.NewBuffer1D([]float32{0.7, 0.2, 0.5}, signal.FilterNearest, signal.WrapClampToEdge)

	// |v-h| is symmetric, so swapping the buffers and transposing the
	// coordinates produces the same intensity.
	for _, uv := range [][2]float32{{0.1, 0.6}, {0.4, 0.4}, {0.9, 0.2}} {
		c1 := Shade(uv[0], uv[1], a, b, 2)
		c2 := Shade(uv[1], uv[0], b, a, 2)
		assert.Equal(t, c1.G, c2.G, "intensity at (%v,%v)", uv[0], uv[1])
	}
}

func TestShadeAlphaAlwaysZero(t *testing.T) {
	h := signal.NewBuffer1D([]float32{0, 0.5, 1}, signal.FilterNearest, signal.WrapClampToEdge)
	v := signal.NewBuffer1D([]float32{1, 0.5, 0}, signal.FilterNearest, signal.WrapClampToEdge)
	for _, u := range []float32{0, 0.3, 0.5, 0.7, 1} {
		for _, vv := range []float32{0, 0.5, 1} {
			c := Shade(u, vv, h, v, 0.5)
			assert.Equal(t, float32(0), c.A, "alpha at (%v,%v)", u, vv)
		}
	}
}

func TestShadeBrighterForCloserMatch(t *testing.T) {
	v := constBuffer(0.5, 16)
	near := constBuffer(0.51, 16)
	far := constBuffer(0.9, 16)

	cNear := Shade(0.25, 0.25, near, v, 2)
	cFar := Shade(0.25, 0.25, far, v, 2)
	assert.Greater(t, cNear.G, cFar.G, "smaller difference should render brighter")
}

func TestRenderKnownFrame(t *testing.T) {
	r := NewRenderer(8, 8)
	h := constBuffer(0.2, 8)
	v := constBuffer(0.8, 8)

	// Pixel column 2 has u = 2.5/8 = 0.3125; put the marker there.
	pm := r.Render(h, v, 0.3125)

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			i := (y*8 + x) * 4
			rr, g, b, a := pm.Data()[i], pm.Data()[i+1], pm.Data()[i+2], pm.Data()[i+3]
			if x == 2 {
				assert.Equal(t, uint8(255), rr, "marker red at (%d,%d)", x, y)
			} else {
				assert.Equal(t, uint8(13), rr, "red at (%d,%d)", x, y)
			}
			assert.Equal(t, uint8(13), g, "green at (%d,%d)", x, y)
			assert.Equal(t, uint8(13), b, "blue at (%d,%d)", x, y)
			assert.Equal(t, uint8(0), a, "alpha at (%d,%d)", x, y)
		}
	}
}

func TestRenderOrientation(t *testing.T) {
	// The vertical signal ramps from 0 to 1; the horizontal one is zero.
	// v grows upward, so the top rows compare against 1 (dark) and the
	// bottom rows against 0 (a perfect match, bright).
	r := NewRenderer(4, 4)
	h := constBuffer(0, 4)
	v := signal.NewBuffer1D([]float32{0, 1}, signal.FilterNearest, signal.WrapClampToEdge)

	pm := r.Render(h, v, -1) // marker outside the image

	top := pm.GetPixel(0, 0)
	bottom := pm.GetPixel(0, 3)
	assert.InDelta(t, 0, float64(top.G), 1e-6, "top row differs by 1, -log(1)/10 = 0")
	assert.Equal(t, float32(1), bottom.G, "bottom row matches exactly and saturates")
}

func TestRenderIntoSizeMismatch(t *testing.T) {
	r := NewRenderer(8, 8)
	err := r.RenderInto(NewPixmap(4, 4), constBuffer(0, 8), constBuffer(0, 8), 0.5)
	require.Error(t, err)
}

func BenchmarkRender(b *testing.B) {
	r := NewRenderer(256, 256)
	h := make([]float32, 1024)
	v := make([]float32, 1024)
	for i := range h {
		h[i] = float32(i) / 1024
		v[i] = float32(1023-i) / 1024
	}
	hb := signal.NewBuffer1D(h, signal.FilterNearest, signal.WrapClampToEdge)
	vb := signal.NewBuffer1D(v, signal.FilterNearest, signal.WrapClampToEdge)
	pm := NewPixmap(256, 256)

	b.ReportAllocs()
	for b.Loop() {
		_ = r.RenderInto(pm, hb, vb, 0.5)
	}
}
