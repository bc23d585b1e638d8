// Package voice renders gene phenotypes as tones.
package voice

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/wav"

	"heredity/internal/heredity"
	"heredity/internal/numeric"
)

const (
	// Factors is the number of gene factors a voice reads.
	Factors = 4

	BaseFrequency = 110.0
	Octaves       = 4
	MaxAttack     = 500 * time.Millisecond
	MaxRelease    = time.Second
)

var (
	ErrTooFewFactors = errors.New("gene has too few factors for a voice")
	ErrNoVoices      = errors.New("no voices to render")
)

type Voice struct {
	Frequency float64
	Level     float64
	Attack    time.Duration
	Release   time.Duration
}

// FromGene reads pitch, level, attack and release from the first four
// factors of gene. Factor values are expected in [0,1] and are clamped.
func FromGene(e numeric.Engine, gene heredity.Gene) (Voice, error) {
	if gene.Length() < Factors {
		return Voice{}, fmt.Errorf("%w: got %d, need %d", ErrTooFewFactors, gene.Length(), Factors)
	}
	var v [Factors]float64
	for i := range v {
		value, err := heredity.Value(e, gene.ValueAt(i))
		if err != nil {
			return Voice{}, fmt.Errorf("factor %d: %w", i, err)
		}
		v[i] = math.Max(0, math.Min(1, value))
	}
	return Voice{
		Frequency: BaseFrequency * math.Pow(2, Octaves*v[0]),
		Level:     v[1],
		Attack:    time.Duration(v[2] * float64(MaxAttack)),
		Release:   time.Duration(v[3] * float64(MaxRelease)),
	}, nil
}

// Streamer returns v as a sine tone of length d shaped by its envelope.
func (v Voice) Streamer(rate beep.SampleRate, d time.Duration) (beep.Streamer, error) {
	tone, err := generators.SineTone(rate, v.Frequency)
	if err != nil {
		return nil, err
	}
	shaped := newEnvelope(beep.Take(rate.N(d), tone), rate.N(d), rate.N(v.Attack), rate.N(v.Release))
	return newVolume(shaped, v.Level), nil
}

// Render mixes voices for duration d and writes them as 16-bit stereo WAV.
// Each voice is scaled by 1/len(voices) so the mix cannot clip.
func Render(w io.WriteSeeker, voices []Voice, rate beep.SampleRate, d time.Duration) error {
	if len(voices) == 0 {
		return ErrNoVoices
	}
	streams := make([]beep.Streamer, 0, len(voices))
	for i, v := range voices {
		s, err := v.Streamer(rate, d)
		if err != nil {
			return fmt.Errorf("voice %d: %w", i, err)
		}
		streams = append(streams, newVolume(s, 1/float64(len(voices))))
	}
	mixed := beep.Take(rate.N(d), beep.Mix(streams...))
	return wav.Encode(w, mixed, beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2})
}

func newVolume(s beep.Streamer, level float64) beep.Streamer {
	if level <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(level)}
}
