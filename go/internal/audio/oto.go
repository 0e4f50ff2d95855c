package audio

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/rs/zerolog/log"
)

// Output starts playback of decoded clips.
type Output interface {
	// Play starts clip and calls done from any goroutine when it ends on its
	// own. done is not called for voices that were stopped.
	Play(clip Clip, done func()) (Voice, error)
}

// Voice is one active playback.
type Voice interface {
	// Stop halts playback. Stopping an already finished voice is a no-op.
	Stop()
}

// OtoOutput plays clips on the system audio device.
type OtoOutput struct {
	ctx        *oto.Context
	sampleRate int
	channels   int
	poll       time.Duration
}

// NewOtoOutput opens the audio device. An error here means the engine runs
// without output and every cue degrades to its fallback delay.
func NewOtoOutput(sampleRate, channels int) (*OtoOutput, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoOutput, err)
	}
	<-ready

	log.Info().
		Int("sample_rate", sampleRate).
		Int("channels", channels).
		Msg("audio output initialized")

	return &OtoOutput{
		ctx:        ctx,
		sampleRate: sampleRate,
		channels:   channels,
		poll:       10 * time.Millisecond,
	}, nil
}

func (o *OtoOutput) Play(clip Clip, done func()) (Voice, error) {
	if clip.SampleRate != o.sampleRate || clip.Channels != o.channels {
		return nil, fmt.Errorf("clip format %d ch @ %d Hz does not match output %d ch @ %d Hz",
			clip.Channels, clip.SampleRate, o.channels, o.sampleRate)
	}

	p := o.ctx.NewPlayer(bytes.NewReader(clip.PCM))
	v := &otoVoice{player: p}
	p.Play()

	go v.watch(o.poll, done)
	return v, nil
}

type otoVoice struct {
	mu      sync.Mutex
	player  *oto.Player
	stopped bool
}

func (v *otoVoice) watch(poll time.Duration, done func()) {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for range ticker.C {
		v.mu.Lock()
		if v.stopped {
			v.mu.Unlock()
			return
		}
		if v.player.IsPlaying() {
			v.mu.Unlock()
			continue
		}
		v.stopped = true
		if err := v.player.Close(); err != nil {
			log.Debug().Err(err).Msg("failed to close finished player")
		}
		v.mu.Unlock()
		done()
		return
	}
}

func (v *otoVoice) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.stopped {
		return
	}
	v.stopped = true
	v.player.Pause()
	if err := v.player.Close(); err != nil {
		log.Debug().Err(err).Msg("failed to close stopped player")
	}
}
