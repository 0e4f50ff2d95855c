package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/jfreymuth/oggvorbis"
)

// Clip is a decoded clip as signed 16-bit little-endian interleaved PCM.
type Clip struct {
	PCM        []byte
	SampleRate int
	Channels   int
}

// Duration is the playback length of the clip.
func (c Clip) Duration() time.Duration {
	if c.SampleRate == 0 || c.Channels == 0 {
		return 0
	}
	frames := len(c.PCM) / (2 * c.Channels)
	return time.Duration(frames) * time.Second / time.Duration(c.SampleRate)
}

// Decoder turns fetched clip bytes into PCM.
type Decoder interface {
	Decode(data []byte) (Clip, error)
}

// OggDecoder decodes Ogg Vorbis clips.
type OggDecoder struct{}

func (OggDecoder) Decode(data []byte) (Clip, error) {
	samples, format, err := oggvorbis.ReadAll(bytes.NewReader(data))
	if err != nil {
		return Clip{}, fmt.Errorf("decode ogg: %w", err)
	}
	if format.Channels <= 0 || format.SampleRate <= 0 {
		return Clip{}, fmt.Errorf("decode ogg: invalid format %d ch @ %d Hz", format.Channels, format.SampleRate)
	}
	return Clip{
		PCM:        FloatToPCM16(samples),
		SampleRate: format.SampleRate,
		Channels:   format.Channels,
	}, nil
}

// FloatToPCM16 converts [-1, 1] float samples to 16-bit little-endian PCM,
// clamping anything out of range.
func FloatToPCM16(samples []float32) []byte {
	out := make([]byte, 2*len(samples))
	for i, s := range samples {
		v := math.Max(-1, math.Min(1, float64(s)))
		binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(math.Round(v*math.MaxInt16))))
	}
	return out
}
