package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/partyroom/go/clients"
	"github.com/mcdev12/partyroom/go/internal/audio"
	"github.com/mcdev12/partyroom/go/internal/config"
	"github.com/mcdev12/partyroom/go/internal/gateway"
	"github.com/mcdev12/partyroom/go/internal/identity"
	"github.com/mcdev12/partyroom/go/internal/reconciler"
	"github.com/mcdev12/partyroom/go/internal/relay"
	"github.com/mcdev12/partyroom/go/internal/sched"
	"github.com/mcdev12/partyroom/go/internal/session"
	"github.com/mcdev12/partyroom/go/internal/viewserver"
)

type Services struct {
	Config     *config.Config
	Identity   identity.Identity
	Loop       *sched.Loop
	Engine     *audio.Engine
	Session    *session.Session
	Connection *gateway.ConnectionManager
	Relay      *relay.NATSPublisher
	View       *viewserver.Server
}

func setupServices(cfg *config.Config) (*Services, error) {
	// Wire up the session
	// Identity → Loop/Scheduler → Audio → Session → Channel → Relay/View

	screen := reconciler.Screen(cfg.Room.Screen)
	var id identity.Identity
	if screen == reconciler.ScreenHost {
		id = identity.ForHost()
	} else {
		var err error
		if id, err = identity.ForPlayer(cfg.Identity.Path, cfg.Room.PlayerName); err != nil {
			return nil, fmt.Errorf("failed to load identity: %w", err)
		}
	}

	clock := clockwork.NewRealClock()
	loop := sched.NewLoop()
	scheduler := sched.NewLoopScheduler(clock, loop)

	engine := audio.NewEngine(scheduler, setupAudioOutput(cfg), clients.NewSoundsClient(cfg.Server.SoundsURL), audio.OggDecoder{}, audio.Config{
		RetryInterval: cfg.Audio.RetryInterval,
		MaxAttempts:   cfg.Audio.MaxAttempts,
		FallbackDelay: cfg.Audio.FallbackDelay,
	})

	natsCfg := relay.DefaultNATSConfig()
	natsCfg.URL = cfg.Relay.NATSURL
	natsCfg.SubjectPrefix = cfg.Relay.SubjectPrefix
	publisher, err := relay.Connect(natsCfg, cfg.Room.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to connect relay: %w", err)
	}

	sess := session.New(session.Config{
		Screen:     screen,
		RoomID:     cfg.Room.ID,
		ClientID:   id.ClientID,
		PlayerName: id.PlayerName,
	}, session.Deps{
		Scheduler: scheduler,
		Runner:    loop,
		Audio:     engine,
		Relay:     publisher,
	})

	connCfg := gateway.DefaultConnectionConfig()
	connCfg.ServerURL = cfg.Server.URL
	connCfg.RoomID = cfg.Room.ID
	connCfg.ClientID = id.ClientID
	connCfg.ReconnectDelay = cfg.Connection.ReconnectDelay
	connCfg.PingInterval = cfg.Connection.PingInterval
	cm := gateway.NewConnectionManager(connCfg, clock, loop, sess)
	sess.UseSender(cm)

	return &Services{
		Config:     cfg,
		Identity:   id,
		Loop:       loop,
		Engine:     engine,
		Session:    sess,
		Connection: cm,
		Relay:      publisher,
		View:       setupServer(cfg, sess),
	}, nil
}

// setupAudioOutput opens the device, or returns nil so that every cue falls
// back to its silent delay.
func setupAudioOutput(cfg *config.Config) audio.Output {
	if !cfg.Audio.Enabled {
		log.Info().Msg("audio disabled")
		return nil
	}
	out, err := audio.NewOtoOutput(cfg.Audio.SampleRate, cfg.Audio.Channels)
	if err != nil {
		log.Warn().Err(err).Msg("running without audio output")
		return nil
	}
	return out
}

// Run serves the session until ctx is done, then tears it down.
func (s *Services) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	go s.Loop.Run(loopCtx)

	log.Info().
		Str("room_id", s.Config.Room.ID).
		Str("screen", s.Config.Room.Screen).
		Str("client_id", s.Identity.ClientID).
		Msg("starting partyroom")

	if s.Config.Room.Screen == string(reconciler.ScreenHost) {
		printJoinCode(s.Config.Server.URL, s.Config.Room.ID)
	}

	s.Engine.Load(ctx, audio.DefaultCueTable())

	var wg sync.WaitGroup
	errCh := make(chan error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := s.Connection.Run(ctx); err != nil {
			errCh <- fmt.Errorf("connection: %w", err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := s.View.ListenAndServe(ctx); err != nil {
			errCh <- fmt.Errorf("view server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}
	cancel()

	log.Info().Msg("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := s.Loop.Do(shutdownCtx, s.Session.Close); err != nil {
		log.Warn().Err(err).Msg("session teardown timed out")
	}
	s.Relay.Close()

	wg.Wait()
	close(errCh)
	return errors.Join(append([]error{runErr}, drain(errCh)...)...)
}

func drain(ch <-chan error) []error {
	var errs []error
	for err := range ch {
		errs = append(errs, err)
	}
	return errs
}
