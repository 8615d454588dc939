package fx

import (
	"math"

	"github.com/herrausgefuchst/grainmother/pkg/param"
)

// Crusher quantizes the signal to a reduced bit depth and holds samples
// to fake a lower sample rate.
type Crusher struct {
	params *param.Group
	bits   *param.Slide
	reduce *param.Slide

	holdCount float64
	heldL     float32
	heldR     float32
}

// NewCrusher creates a bitcrusher. tickRate is the parameter ramp tick
// rate.
func NewCrusher(tickRate float64) *Crusher {
	c := &Crusher{
		params: param.NewGroup("crusher"),
		bits: param.NewSlide("bits", "Bits", 1, 16, 16, tickRate).
			WithStep(1),
		reduce: param.NewSlide("reduce", "Reduce", 1, 50, 1, tickRate).
			WithStep(1),
	}
	if err := c.params.Add(c.bits, c.reduce); err != nil {
		panic(err)
	}
	return c
}

// Params returns the crusher's control surface.
func (c *Crusher) Params() *param.Group { return c.params }

// ProcessStereo quantizes in-place.
func (c *Crusher) ProcessStereo(left, right []float32) {
	levels := math.Pow(2, c.bits.Current()) / 2
	factor := c.reduce.Current()

	for i := range left {
		if c.holdCount <= 0 {
			c.holdCount += factor
			c.heldL = quantize(left[i], levels)
			c.heldR = quantize(right[i], levels)
		}
		left[i] = c.heldL
		right[i] = c.heldR
		c.holdCount--
	}
}

// Reset clears the sample-hold state.
func (c *Crusher) Reset() {
	c.holdCount = 0
	c.heldL = 0
	c.heldR = 0
}

func quantize(v float32, levels float64) float32 {
	return float32(math.Round(float64(v)*levels) / levels)
}
