// Package fx contains the built-in effect stages. Each stage is a
// stateless-per-block stereo transform with its own parameter group; the
// engine treats them uniformly and further stages slot in the same way.
package fx

import (
	"math"

	"github.com/herrausgefuchst/grainmother/pkg/param"
)

// RingMod multiplies the input with a sine carrier. One carrier drives
// both channels so the stereo image stays intact.
type RingMod struct {
	sampleRate float64
	params     *param.Group
	freq       *param.Slide
	depth      *param.Slide
	phase      float64
}

// NewRingMod creates a ring modulator. tickRate is the parameter ramp
// tick rate.
func NewRingMod(sampleRate, tickRate float64) *RingMod {
	r := &RingMod{
		sampleRate: sampleRate,
		params:     param.NewGroup("ringmod"),
		freq: param.NewSlide("freq", "Freq", 20, 4000, 440, tickRate).
			WithScale(param.ScaleFrequency).
			WithUnit("Hz").
			WithFormatter(param.FrequencyFormatter),
		depth: param.NewSlide("depth", "Depth", 0, 100, 50, tickRate).
			WithFormatter(param.PercentFormatter),
	}
	if err := r.params.Add(r.freq, r.depth); err != nil {
		panic(err)
	}
	return r
}

// Params returns the modulator's control surface.
func (r *RingMod) Params() *param.Group { return r.params }

// ProcessStereo applies the carrier in-place.
func (r *RingMod) ProcessStereo(left, right []float32) {
	inc := r.freq.Current() / r.sampleRate
	depth := r.depth.Current() / 100
	dry := 1 - depth

	for i := range left {
		carrier := math.Sin(2 * math.Pi * r.phase)
		left[i] = float32(float64(left[i])*dry + float64(left[i])*carrier*depth)
		right[i] = float32(float64(right[i])*dry + float64(right[i])*carrier*depth)
		r.phase += inc
		if r.phase >= 1 {
			r.phase -= 1
		}
	}
}

// Reset restarts the carrier phase.
func (r *RingMod) Reset() {
	r.phase = 0
}
