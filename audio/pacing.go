package audio

import "time"

// ratePacer throttles a replay loop to real time. Decoding runs far
// faster than the sample rate, so after each chunk the pacer sleeps off
// whatever lead the loop has built up over the wall clock.
type ratePacer struct {
	start time.Time
	sent  int64
	rate  int
}

func newRatePacer(sampleRate int) *ratePacer {
	return &ratePacer{start: time.Now(), rate: sampleRate}
}

// pace accounts for n more samples and sleeps until the wall clock
// catches up with them.
func (p *ratePacer) pace(n int) {
	p.sent += int64(n)
	expected := int64(time.Since(p.start).Seconds() * float64(p.rate))
	if ahead := p.sent - expected; ahead > 0 {
		time.Sleep(time.Duration(float64(ahead) * 1e9 / float64(p.rate)))
	}
}
