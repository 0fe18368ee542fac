package audio

import "log"

// Tee broadcasts every chunk from input to all outputs. Multiple
// goroutines reading one channel would compete for values, not share
// them; Tee installs a single reader goroutine that distributes each
// chunk to every output instead.
//
// Each output receives its own copy of the chunk, so one consumer
// mutating a slice cannot corrupt the others. Sends block until the
// consumer accepts, which gives natural backpressure against the
// producer. When input closes, all outputs are closed. A send to an
// output that was closed early panics; the panic is recovered and
// logged so the remaining consumers keep receiving.
func Tee(input <-chan []float32, outputs ...chan<- []float32) {
	go func() {
		for data := range input {
			for _, out := range outputs {
				dataCopy := make([]float32, len(data))
				copy(dataCopy, data)
				func(ch chan<- []float32, chunk []float32) {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("Warning: cannot send to closed output channel: %v", r)
						}
					}()
					ch <- chunk
				}(out, dataCopy)
			}
		}

		for _, out := range outputs {
			func(ch chan<- []float32) {
				defer func() {
					recover()
				}()
				close(ch)
			}(out)
		}
	}()
}
