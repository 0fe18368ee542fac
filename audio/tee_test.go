package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectChunks(t *testing.T, ch <-chan []float32, want int) [][]float32 {
	t.Helper()
	var got [][]float32
	timeout := time.After(2 * time.Second)
	for len(got) < want {
		select {
		case chunk, ok := <-ch:
			if !ok {
				t.Fatalf("channel closed after %d of %d chunks", len(got), want)
			}
			got = append(got, chunk)
		case <-timeout:
			t.Fatalf("timed out after %d of %d chunks", len(got), want)
		}
	}
	return got
}

func TestTeeBroadcastsToAllOutputs(t *testing.T) {
	in := make(chan []float32)
	out1 := make(chan []float32, 4)
	out2 := make(chan []float32, 4)
	Tee(in, out1, out2)

	in <- []float32{1, 2}
	in <- []float32{3}
	close(in)

	for _, out := range []chan []float32{out1, out2} {
		got := collectChunks(t, out, 2)
		assert.Equal(t, []float32{1, 2}, got[0])
		assert.Equal(t, []float32{3}, got[1])

		select {
		case _, ok := <-out:
			assert.False(t, ok, "output should close after input closes")
		case <-time.After(2 * time.Second):
			t.Fatal("output never closed")
		}
	}
}

func TestTeeCopiesChunksPerConsumer(t *testing.T) {
	in := make(chan []float32)
	out1 := make(chan []float32, 1)
	out2 := make(chan []float32, 1)
	Tee(in, out1, out2)

	in <- []float32{1, 2, 3}
	close(in)

	c1 := <-out1
	c2 := <-out2
	c1[0] = 99

	assert.Equal(t, float32(1), c2[0], "consumers must not share backing arrays")
}

func TestTeeSurvivesClosedOutput(t *testing.T) {
	in := make(chan []float32)
	healthy := make(chan []float32, 4)
	broken := make(chan []float32, 4)
	Tee(in, healthy, broken)

	in <- []float32{1}
	<-healthy
	<-broken

	// A consumer bailing out must not take down the broadcast.
	close(broken)
	in <- []float32{2}
	close(in)

	got := collectChunks(t, healthy, 1)
	require.Equal(t, []float32{2}, got[0])
}
