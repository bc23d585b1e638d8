package voice

import "github.com/gopxl/beep"

// envelope ramps a stream up over attack samples and down over the last
// release samples of total. Overlapping ramps take the quieter gain.
type envelope struct {
	streamer beep.Streamer
	position int
	total    int
	attack   int
	release  int
}

func newEnvelope(s beep.Streamer, total, attack, release int) *envelope {
	return &envelope{streamer: s, total: total, attack: attack, release: release}
}

func (e *envelope) Stream(samples [][2]float64) (int, bool) {
	n, ok := e.streamer.Stream(samples)
	for i := 0; i < n; i++ {
		gain := e.gain(e.position)
		samples[i][0] *= gain
		samples[i][1] *= gain
		e.position++
	}
	return n, ok
}

func (e *envelope) Err() error { return e.streamer.Err() }

func (e *envelope) gain(pos int) float64 {
	g := 1.0
	if e.attack > 0 && pos < e.attack {
		g = float64(pos) / float64(e.attack)
	}
	if e.release > 0 {
		if remaining := e.total - pos; remaining < e.release {
			if r := float64(remaining) / float64(e.release); r < g {
				g = r
			}
		}
	}
	if g < 0 {
		return 0
	}
	return g
}
