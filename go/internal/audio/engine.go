// Package audio loads short cue clips and plays them on demand. Playback is
// best-effort: a clip that is missing, undecodable or unplayable degrades to
// silence, and the completion callback still fires.
package audio

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/partyroom/go/internal/sched"
)

// ErrNoOutput reports that no audio device could be opened.
var ErrNoOutput = errors.New("audio output unavailable")

// Source fetches the encoded bytes of one clip file.
type Source interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// Config holds the engine's timing policy.
type Config struct {
	RetryInterval time.Duration
	MaxAttempts   int
	FallbackDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		RetryInterval: 100 * time.Millisecond,
		MaxAttempts:   20,
		FallbackDelay: 5 * time.Second,
	}
}

// Callbacks observe one play request. OnComplete fires at most once, and
// exactly once unless StopAll tears the request down first.
type Callbacks struct {
	OnStart    func()
	OnComplete func()
}

// Engine must only be used from the session loop. Load may run concurrently
// with anything, since its results are posted onto the loop.
type Engine struct {
	sched sched.Scheduler
	out   Output
	src   Source
	dec   Decoder
	cfg   Config

	cache  map[CueKey]Clip
	active map[*request]struct{}

	loadOnce sync.Once
	loaded   chan struct{}
}

type request struct {
	key      CueKey
	cb       Callbacks
	attempts int
	timer    sched.Timer
	voice    Voice
	done     bool
}

// NewEngine creates an engine. A nil out means the device never initialized,
// in which case every play completes after the fallback delay.
func NewEngine(s sched.Scheduler, out Output, src Source, dec Decoder, cfg Config) *Engine {
	return &Engine{
		sched:  s,
		out:    out,
		src:    src,
		dec:    dec,
		cfg:    cfg,
		cache:  make(map[CueKey]Clip),
		active: make(map[*request]struct{}),
		loaded: make(chan struct{}),
	}
}

// Load fetches and decodes every clip in table in the background. A clip that
// fails is skipped without affecting the others. Only the first call loads.
func (e *Engine) Load(ctx context.Context, table CueTable) {
	e.loadOnce.Do(func() {
		var wg sync.WaitGroup
		for key, name := range table {
			wg.Add(1)
			go func() {
				defer wg.Done()
				e.loadClip(ctx, key, name)
			}()
		}
		go func() {
			wg.Wait()
			e.sched.Post(func() {
				log.Info().Int("cached", len(e.cache)).Int("requested", len(table)).Msg("audio clips loaded")
				close(e.loaded)
			})
		}()
	})
}

func (e *Engine) loadClip(ctx context.Context, key CueKey, name string) {
	data, err := e.src.Fetch(ctx, name)
	if err != nil {
		log.Warn().Err(err).Str("cue", string(key)).Msg("failed to fetch clip")
		return
	}
	clip, err := e.dec.Decode(data)
	if err != nil {
		log.Warn().Err(err).Str("cue", string(key)).Msg("failed to decode clip")
		return
	}
	e.sched.Post(func() { e.cache[key] = clip })
}

// Loaded is closed once every clip in the table has been tried.
func (e *Engine) Loaded() <-chan struct{} { return e.loaded }

// Cached reports whether key is ready to play.
func (e *Engine) Cached(key CueKey) bool {
	_, ok := e.cache[key]
	return ok
}

// Active is the number of play requests that are waiting or playing.
func (e *Engine) Active() int { return len(e.active) }

// Play plays key and calls onComplete when it is over.
func (e *Engine) Play(key CueKey, onComplete func()) {
	e.PlayNotify(key, Callbacks{OnComplete: onComplete})
}

// PlayNotify plays key, reporting when the clip actually starts and ends.
// A clip that is still missing after MaxAttempts retries completes right
// away; without an output or when playback fails to start, OnComplete
// fires after FallbackDelay.
func (e *Engine) PlayNotify(key CueKey, cb Callbacks) {
	r := &request{key: key, cb: cb}
	e.active[r] = struct{}{}

	if e.out == nil {
		log.Debug().Str("cue", string(key)).Msg("no audio output, using fallback delay")
		r.timer = e.sched.After(e.cfg.FallbackDelay, func() { e.finish(r) })
		return
	}
	e.attempt(r)
}

func (e *Engine) attempt(r *request) {
	if r.done {
		return
	}
	if clip, ok := e.cache[r.key]; ok {
		e.start(r, clip)
		return
	}
	if r.attempts >= e.cfg.MaxAttempts {
		log.Debug().Str("cue", string(r.key)).Int("attempts", r.attempts).Msg("clip never loaded, giving up")
		e.finish(r)
		return
	}
	r.attempts++
	r.timer = e.sched.After(e.cfg.RetryInterval, func() { e.attempt(r) })
}

func (e *Engine) start(r *request, clip Clip) {
	voice, err := e.out.Play(clip, func() {
		e.sched.Post(func() { e.finish(r) })
	})
	if err != nil {
		log.Warn().Err(err).Str("cue", string(r.key)).Msg("failed to start clip")
		r.timer = e.sched.After(e.cfg.FallbackDelay, func() { e.finish(r) })
		return
	}
	r.voice = voice
	if r.cb.OnStart != nil {
		r.cb.OnStart()
	}
}

func (e *Engine) finish(r *request) {
	if r.done {
		return
	}
	r.done = true
	delete(e.active, r)
	if r.cb.OnComplete != nil {
		r.cb.OnComplete()
	}
}

// StopAll stops every playing clip and cancels every pending retry and
// fallback. Torn-down requests never call OnComplete. Safe to call repeatedly.
func (e *Engine) StopAll() {
	if len(e.active) == 0 {
		return
	}
	for r := range e.active {
		r.done = true
		if r.timer != nil {
			r.timer.Stop()
		}
		if r.voice != nil {
			r.voice.Stop()
		}
	}
	log.Debug().Int("stopped", len(e.active)).Msg("audio stopped")
	clear(e.active)
}
