// Package stream provides dropout-free playback of pre-recorded audio: a
// double-buffered source read by the audio thread and refilled by a
// background task, plus track readers for WAV and MP3 files.
package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	mp3 "github.com/hajimehoshi/go-mp3"
)

// ErrBadFile marks a malformed or unsupported source audio file.
var ErrBadFile = errors.New("bad audio file")

// ErrTooShort marks a track shorter than the double buffer it must feed.
var ErrTooShort = errors.New("track too short")

// Reader delivers consecutive stereo frames from a decoded track. Readers
// are driven only by the background refill task and may block on I/O.
type Reader interface {
	// ReadFrames fills left and right with up to len(left) frames from
	// the cursor and returns the number of frames delivered. A short
	// count means end of track.
	ReadFrames(left, right []float32) (int, error)

	// Rewind returns the cursor to frame 0.
	Rewind() error

	Name() string
	Frames() int64
	SampleRate() int
	Close() error
}

// OpenTrack opens an audio file as a track reader, chosen by extension.
func OpenTrack(path string) (Reader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return openWav(path)
	case ".mp3":
		return openMP3(path)
	default:
		return nil, fmt.Errorf("%w: unsupported extension %q", ErrBadFile, filepath.Ext(path))
	}
}

// wavTrack reads PCM frames sequentially through a wav decoder.
type wavTrack struct {
	name       string
	file       *os.File
	dec        *wav.Decoder
	frames     int64
	sampleRate int
	channels   int
	scale      float32
	intBuf     *audio.IntBuffer
}

func openWav(path string) (Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open track: %w", err)
	}

	t := &wavTrack{name: filepath.Base(path), file: f}
	if err := t.reset(); err != nil {
		f.Close()
		return nil, err
	}
	return t, nil
}

// reset rewinds the file and rebuilds the decoder at the PCM start.
func (t *wavTrack) reset() error {
	if _, err := t.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind track: %w", err)
	}

	dec := wav.NewDecoder(t.file)
	if !dec.IsValidFile() {
		return fmt.Errorf("%w: invalid WAV: %s", ErrBadFile, t.name)
	}
	if err := dec.FwdToPCM(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBadFile, t.name, err)
	}

	format := dec.Format()
	bitDepth := int(dec.SampleBitDepth())
	if bitDepth == 0 {
		return fmt.Errorf("%w: unknown bit depth: %s", ErrBadFile, t.name)
	}
	if format.NumChannels < 1 || format.NumChannels > 2 {
		return fmt.Errorf("%w: %d channels in %s, need mono or stereo", ErrBadFile, format.NumChannels, t.name)
	}

	bytesPerSample := (bitDepth-1)/8 + 1
	nsamples := int(dec.PCMLen()) / bytesPerSample

	t.dec = dec
	t.channels = format.NumChannels
	t.sampleRate = format.SampleRate
	t.frames = int64(nsamples / t.channels)
	t.scale = float32(int64(1) << (bitDepth - 1))
	return nil
}

func (t *wavTrack) ReadFrames(left, right []float32) (int, error) {
	want := len(left) * t.channels
	if t.intBuf == nil || cap(t.intBuf.Data) < want {
		t.intBuf = &audio.IntBuffer{Data: make([]int, want)}
	}
	t.intBuf.Data = t.intBuf.Data[:want]

	n, err := t.dec.PCMBuffer(t.intBuf)
	if err != nil {
		return 0, fmt.Errorf("read track %s: %w", t.name, err)
	}

	frames := n / t.channels
	for i := 0; i < frames; i++ {
		if t.channels == 1 {
			v := float32(t.intBuf.Data[i]) / t.scale
			left[i], right[i] = v, v
		} else {
			left[i] = float32(t.intBuf.Data[2*i]) / t.scale
			right[i] = float32(t.intBuf.Data[2*i+1]) / t.scale
		}
	}
	return frames, nil
}

func (t *wavTrack) Rewind() error   { return t.reset() }
func (t *wavTrack) Name() string    { return t.name }
func (t *wavTrack) Frames() int64   { return t.frames }
func (t *wavTrack) SampleRate() int { return t.sampleRate }
func (t *wavTrack) Close() error    { return t.file.Close() }

// mp3Track reads frames through go-mp3, which always yields 16-bit
// little-endian stereo at the file's sample rate.
type mp3Track struct {
	name   string
	file   *os.File
	dec    *mp3.Decoder
	frames int64
	buf    []byte
}

func openMP3(path string) (Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open track: %w", err)
	}

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrBadFile, filepath.Base(path), err)
	}

	return &mp3Track{
		name:   filepath.Base(path),
		file:   f,
		dec:    dec,
		frames: dec.Length() / 4, // 2 channels x 2 bytes
	}, nil
}

func (t *mp3Track) ReadFrames(left, right []float32) (int, error) {
	want := len(left) * 4
	if cap(t.buf) < want {
		t.buf = make([]byte, want)
	}
	t.buf = t.buf[:want]

	n, err := io.ReadFull(t.dec, t.buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return 0, fmt.Errorf("read track %s: %w", t.name, err)
	}

	frames := n / 4
	for i := 0; i < frames; i++ {
		l := int16(binary.LittleEndian.Uint16(t.buf[4*i:]))
		r := int16(binary.LittleEndian.Uint16(t.buf[4*i+2:]))
		left[i] = float32(l) / 32768
		right[i] = float32(r) / 32768
	}
	return frames, nil
}

func (t *mp3Track) Rewind() error {
	_, err := t.dec.Seek(0, io.SeekStart)
	if err != nil {
		return fmt.Errorf("rewind track %s: %w", t.name, err)
	}
	return nil
}

func (t *mp3Track) Name() string    { return t.name }
func (t *mp3Track) Frames() int64   { return t.frames }
func (t *mp3Track) SampleRate() int { return t.dec.SampleRate() }
func (t *mp3Track) Close() error    { return t.file.Close() }
