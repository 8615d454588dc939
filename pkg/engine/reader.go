package engine

import (
	"encoding/binary"
	"math"
)

// AudioReader adapts the engine's block pull model to the byte stream an
// output backend consumes: interleaved stereo float32 little-endian.
// Reads of any length are served by processing whole blocks and carrying
// the remainder to the next call.
type AudioReader struct {
	engine *Engine
	left   []float32
	right  []float32
	rem    []byte
	remOff int
}

const bytesPerFrame = 8 // 2 channels * 4 bytes

// NewAudioReader wraps e for an io.Reader based output backend.
func NewAudioReader(e *Engine) *AudioReader {
	block := e.Config().BlockSize
	return &AudioReader{
		engine: e,
		left:   make([]float32, block),
		right:  make([]float32, block),
		rem:    make([]byte, 0, block*bytesPerFrame),
	}
}

// Read fills p with interleaved samples, running as many engine blocks
// as needed. It never returns an error; the stream is endless.
func (r *AudioReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if r.remOff < len(r.rem) {
			c := copy(p[n:], r.rem[r.remOff:])
			n += c
			r.remOff += c
			continue
		}

		r.engine.ProcessBlock(r.left, r.right)
		r.rem = r.rem[:len(r.left)*bytesPerFrame]
		r.remOff = 0
		for i := range r.left {
			binary.LittleEndian.PutUint32(r.rem[i*8:], math.Float32bits(r.left[i]))
			binary.LittleEndian.PutUint32(r.rem[i*8+4:], math.Float32bits(r.right[i]))
		}
	}
	return n, nil
}
