package monitor

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anemolab/anemoscope/compute"
)

func TestReportMeanAndHistogram(t *testing.T) {
	m := New(&bytes.Buffer{})
	m.Record(100)
	m.Record(150)
	m.Record(250)

	report := m.Report()

	assert.Contains(t, report, "mean 166.67 samples over 3 estimates")
	assert.Contains(t, report, "100-199: 2")
	assert.Contains(t, report, "200-299: 1")
}

func TestReportSortsBuckets(t *testing.T) {
	m := New(&bytes.Buffer{})
	m.Record(950)
	m.Record(20)
	m.Record(430)

	report := m.Report()

	first := strings.Index(report, "0-99: 1")
	middle := strings.Index(report, "400-499: 1")
	last := strings.Index(report, "900-999: 1")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, middle)
	require.NotEqual(t, -1, last)
	assert.Less(t, first, middle)
	assert.Less(t, middle, last)
}

func TestReportResetsWindow(t *testing.T) {
	m := New(&bytes.Buffer{})
	m.Record(42)

	require.NotEmpty(t, m.Report())
	assert.Empty(t, m.Report())
}

func TestReportEmptyWindow(t *testing.T) {
	m := New(&bytes.Buffer{})
	assert.Empty(t, m.Report())
}

// scriptedSource reports not-ready for the first few polls, then a
// fixed estimate.
type scriptedSource struct {
	mu       sync.Mutex
	notReady int
	delay    int
}

func (s *scriptedSource) Delay() (compute.DelayResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.notReady > 0 {
		s.notReady--
		return compute.DelayResult{}, false
	}
	return compute.DelayResult{DelaySamples: s.delay}, true
}

func TestRunPrintsSummaries(t *testing.T) {
	var buf bytes.Buffer
	var mu sync.Mutex
	w := writerFunc(func(p []byte) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		return buf.Write(p)
	})

	m := New(w)
	m.Interval = 10 * time.Millisecond
	m.pollWait = time.Millisecond

	src := &scriptedSource{notReady: 3, delay: 139}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Run(ctx, src)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for {
		mu.Lock()
		out := buf.String()
		mu.Unlock()
		if strings.Contains(out, "mean 139.00") {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("no summary printed")
		}
		time.Sleep(time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
