package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrDecode wraps any WAV parsing failure so callers can classify it.
var ErrDecode = errors.New("wav decode failed")

// DecodeWAV parses a RIFF/WAVE byte stream into a float64 Buffer.
func DecodeWAV(data []byte) (*Buffer, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a RIFF/WAVE stream", ErrDecode)
	}
	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if pcm.Format == nil || pcm.Format.NumChannels == 0 || pcm.Format.SampleRate == 0 {
		return nil, fmt.Errorf("%w: missing format chunk", ErrDecode)
	}

	channels := pcm.Format.NumChannels
	frames := len(pcm.Data) / channels
	buf := NewBuffer(pcm.Format.SampleRate, channels, frames)

	scale := 1.0 / float64(int(1)<<(dec.BitDepth-1))
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			buf.Data[c][i] = float64(pcm.Data[i*channels+c]) * scale
		}
	}
	return buf, nil
}

// EncodeWAV writes the buffer as 24-bit PCM WAV and returns the bytes.
// Samples are clamped to [-1, 1] before quantization.
func EncodeWAV(buf *Buffer) ([]byte, error) {
	channels := buf.Channels()
	frames := buf.Frames()
	if channels == 0 || frames == 0 {
		return nil, fmt.Errorf("empty buffer")
	}

	const bitDepth = 24
	full := float64(int(1)<<(bitDepth-1)) - 1

	intBuf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: channels, SampleRate: buf.SampleRate},
		SourceBitDepth: bitDepth,
		Data:           make([]int, frames*channels),
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			v := buf.Data[c][i]
			if v > 1 {
				v = 1
			} else if v < -1 {
				v = -1
			}
			intBuf.Data[i*channels+c] = int(math.Round(v * full))
		}
	}

	ws := &memWriteSeeker{}
	enc := wav.NewEncoder(ws, buf.SampleRate, bitDepth, channels, 1)
	if err := enc.Write(intBuf); err != nil {
		return nil, fmt.Errorf("wav encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("wav finalize: %w", err)
	}
	return ws.buf, nil
}

// memWriteSeeker satisfies io.WriteSeeker in memory; the wav encoder
// seeks back to patch chunk sizes on Close.
type memWriteSeeker struct {
	buf []byte
	pos int
}

func (m *memWriteSeeker) Write(p []byte) (int, error) {
	if need := m.pos + len(p); need > len(m.buf) {
		grown := make([]byte, need)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[m.pos:], p)
	m.pos += len(p)
	return len(p), nil
}

func (m *memWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	var next int
	switch whence {
	case io.SeekStart:
		next = int(offset)
	case io.SeekCurrent:
		next = m.pos + int(offset)
	case io.SeekEnd:
		next = len(m.buf) + int(offset)
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if next < 0 {
		return 0, fmt.Errorf("negative seek position")
	}
	m.pos = next
	return int64(next), nil
}
