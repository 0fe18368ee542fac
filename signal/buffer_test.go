package signal

import (
	"math"
	"testing"
)

func TestBuffer1DNearestClamp(t *testing.T) {
	b := NewBuffer1D([]float32{10, 20, 30, 40}, FilterNearest, WrapClampToEdge)

	cases := []struct {
		u    float32
		want float32
	}{
		{0.0, 10},
		{0.124, 10},
		{0.26, 20},
		{0.6, 30},
		{0.99, 40},
		{1.0, 40},  // exactly past the last texel clamps back
		{-0.1, 10}, // below the first texel clamps forward
		{1.5, 40},
	}
	for _, tc := range cases {
		if got := b.Sample(tc.u); got != tc.want {
			t.Errorf("Sample(%v) = %v, want %v", tc.u, got, tc.want)
		}
	}
}

func TestBuffer1DNearestRepeat(t *testing.T) {
	b := NewBuffer1D([]float32{10, 20, 30, 40}, FilterNearest, WrapRepeat)

	cases := []struct {
		u    float32
		want float32
	}{
		{0.25, 20},
		{1.25, 20},  // one full wrap
		{-0.25, 40}, // wraps backward to the last texel
		{2.6, 30},
	}
	for _, tc := range cases {
		if got := b.Sample(tc.u); got != tc.want {
			t.Errorf("Sample(%v) = %v, want %v", tc.u, got, tc.want)
		}
	}
}

func TestBuffer1DLinearClamp(t *testing.T) {
	b := NewBuffer1D([]float32{10, 20, 30, 40}, FilterLinear, WrapClampToEdge)

	cases := []struct {
		u    float32
		want float32
	}{
		{0.125, 10}, // texel center, exact
		{0.375, 20},
		{0.25, 15}, // midway between the first two centers
		{0.5, 25},
		{0.0, 10}, // clamped edge duplicates the first texel
		{1.0, 40},
	}
	for _, tc := range cases {
		if got := b.Sample(tc.u); math.Abs(float64(got-tc.want)) > 1e-5 {
			t.Errorf("Sample(%v) = %v, want %v", tc.u, got, tc.want)
		}
	}
}

func TestBuffer1DLinearRepeatSeam(t *testing.T) {
	b := NewBuffer1D([]float32{10, 20, 30, 40}, FilterLinear, WrapRepeat)

	// At u=0 the sample sits halfway between the last and first texels.
	if got, want := b.Sample(0.0), float32(25); math.Abs(float64(got-want)) > 1e-5 {
		t.Errorf("Sample(0) across the seam = %v, want %v", got, want)
	}
}

func TestBuffer1DTexelCentersExact(t *testing.T) {
	data := []float32{0.5, -0.25, 1.0, 0.0, 0.75, -1.0, 0.125, 0.875}
	for _, filter := range []Filter{FilterNearest, FilterLinear} {
		b := NewBuffer1D(data, filter, WrapClampToEdge)
		for i, want := range data {
			u := (float32(i) + 0.5) / float32(len(data))
			if got := b.Sample(u); math.Abs(float64(got-want)) > 1e-6 {
				t.Errorf("filter %v: Sample(center of %d) = %v, want %v", filter, i, got, want)
			}
		}
	}
}

func TestBuffer1DEmpty(t *testing.T) {
	b := NewBuffer1D(nil, FilterNearest, WrapClampToEdge)
	if got := b.Sample(0.5); got != 0 {
		t.Errorf("empty buffer Sample = %v, want 0", got)
	}
	if got := b.At(3); got != 0 {
		t.Errorf("empty buffer At = %v, want 0", got)
	}
}

func TestBuffer1DSetData(t *testing.T) {
	b := NewBuffer1D([]float32{1}, FilterNearest, WrapClampToEdge)
	b.SetData([]float32{2, 3})
	if b.Len() != 2 {
		t.Fatalf("Len after SetData = %d, want 2", b.Len())
	}
	if got := b.Sample(0.9); got != 3 {
		t.Errorf("Sample after SetData = %v, want 3", got)
	}
}
