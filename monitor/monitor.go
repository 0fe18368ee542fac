// Package monitor reports delay estimates on a terminal: once per
// interval it prints the mean of the estimates collected since the last
// report plus a bucketed histogram, the quickest way to see whether the
// estimator has locked on or is still hunting.
package monitor

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/anemolab/anemoscope/compute"
)

// A DelaySource produces delay estimates on demand. *compute.Computer
// satisfies it.
type DelaySource interface {
	Delay() (compute.DelayResult, bool)
}

// Monitor collects delay estimates and renders periodic summaries.
type Monitor struct {
	// Interval is how often Run prints a summary.
	Interval time.Duration
	// BucketWidth is the histogram bucket size in samples.
	BucketWidth int

	w        io.Writer
	pollWait time.Duration

	mu     sync.Mutex
	delays []float64
}

// New creates a monitor writing to w with a one second interval and
// 100-sample histogram buckets.
func New(w io.Writer) *Monitor {
	return &Monitor{
		Interval:    time.Second,
		BucketWidth: 100,
		w:           w,
		pollWait:    100 * time.Millisecond,
	}
}

// Record adds one delay estimate to the current reporting window.
func (m *Monitor) Record(delaySamples int) {
	m.mu.Lock()
	m.delays = append(m.delays, float64(delaySamples))
	m.mu.Unlock()
}

// Report renders the current window and resets it. It returns the
// empty string when no estimates arrived since the last report.
func (m *Monitor) Report() string {
	m.mu.Lock()
	delays := m.delays
	m.delays = nil
	m.mu.Unlock()

	if len(delays) == 0 {
		return ""
	}

	histogram := map[int]int{}
	for _, d := range delays {
		histogram[int(d)/m.BucketWidth]++
	}
	buckets := make([]int, 0, len(histogram))
	for b := range histogram {
		buckets = append(buckets, b)
	}
	sort.Ints(buckets)

	var sb strings.Builder
	fmt.Fprintf(&sb, "delay: mean %.2f samples over %d estimates\n",
		stat.Mean(delays, nil), len(delays))
	for _, b := range buckets {
		lo := b * m.BucketWidth
		fmt.Fprintf(&sb, "  %d-%d: %d\n", lo, lo+m.BucketWidth-1, histogram[b])
	}
	return sb.String()
}

// Run polls src until ctx is done, recording every estimate and
// printing a summary each interval. While the estimator is not ready
// it backs off instead of spinning.
func (m *Monitor) Run(ctx context.Context, src DelaySource) {
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, ok := src.Delay()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-time.After(m.pollWait):
			}
			continue
		}
		m.Record(res.DelaySamples)

		if time.Since(last) >= m.Interval {
			if report := m.Report(); report != "" {
				fmt.Fprint(m.w, report)
			}
			last = time.Now()
		}
	}
}
