package display

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/festival-live-api/internal/broadcast"
	"github.com/noah-isme/festival-live-api/internal/models"
)

// Source reads the current server state.
type Source interface {
	Leaderboard(ctx context.Context) ([]models.StandingsEntry, error)
	Results(ctx context.Context) ([]models.EnrichedResult, error)
	Finalized(ctx context.Context) (bool, error)
}

// Stream delivers pushed frames until the connection ends.
type Stream interface {
	Subscribe(ctx context.Context, out chan<- broadcast.Frame) error
}

// Renderer draws a view.
type Renderer interface {
	Render(View)
}

// Options tunes the runner's timers.
type Options struct {
	PollInterval   time.Duration
	RevealDuration time.Duration
	ResyncDelay    time.Duration
	ScrollInterval time.Duration
	ReconnectMin   time.Duration
	ReconnectMax   time.Duration
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = 5 * time.Second
	}
	if o.RevealDuration <= 0 {
		o.RevealDuration = 5500 * time.Millisecond
	}
	if o.ResyncDelay <= 0 {
		o.ResyncDelay = time.Second
	}
	if o.ScrollInterval <= 0 {
		o.ScrollInterval = 4 * time.Second
	}
	if o.ReconnectMin <= 0 {
		o.ReconnectMin = 500 * time.Millisecond
	}
	if o.ReconnectMax <= 0 {
		o.ReconnectMax = 30 * time.Second
	}
	if o.ReconnectMax < o.ReconnectMin {
		o.ReconnectMax = o.ReconnectMin
	}
	return o
}

type refreshResult struct {
	seq      uint64
	snapshot Snapshot
}

// Runner drives a Machine from the stream, a poll loop and its own timers.
// Only the loop goroutine touches the Machine.
type Runner struct {
	machine  *Machine
	source   Source
	stream   Stream
	renderer Renderer
	opts     Options
	logger   *zap.Logger

	fetches sync.WaitGroup
}

// NewRunner wires a runner together.
func NewRunner(machine *Machine, source Source, stream Stream, renderer Renderer, opts Options, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		machine:  machine,
		source:   source,
		stream:   stream,
		renderer: renderer,
		opts:     opts.withDefaults(),
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	frames := make(chan broadcast.Frame, 16)

	g.Go(func() error {
		r.consumeStream(ctx, frames)
		return nil
	})
	g.Go(func() error {
		return r.loop(ctx, frames)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (r *Runner) consumeStream(ctx context.Context, out chan<- broadcast.Frame) {
	backoff := r.opts.ReconnectMin
	for {
		started := time.Now()
		err := r.stream.Subscribe(ctx, out)
		if ctx.Err() != nil {
			return
		}
		if time.Since(started) > r.opts.ReconnectMax {
			backoff = r.opts.ReconnectMin
		}
		r.logger.Warn("stream disconnected", zap.Error(err), zap.Duration("retry_in", backoff))

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		backoff *= 2
		if backoff > r.opts.ReconnectMax {
			backoff = r.opts.ReconnectMax
		}
	}
}

func (r *Runner) loop(ctx context.Context, frames <-chan broadcast.Frame) error {
	defer r.fetches.Wait()

	refreshed := make(chan refreshResult, 4)
	poll := time.NewTicker(r.opts.PollInterval)
	defer poll.Stop()

	var (
		reveal *time.Timer
		resync *time.Timer
		scroll *time.Ticker
	)
	defer func() {
		stopTimer(reveal)
		stopTimer(resync)
		if scroll != nil {
			scroll.Stop()
		}
	}()

	run := func(cmds []Command) {
		for _, cmd := range cmds {
			switch cmd.Kind {
			case CommandScheduleReveal:
				stopTimer(reveal)
				reveal = time.NewTimer(r.opts.RevealDuration)
			case CommandScheduleResync:
				stopTimer(resync)
				resync = time.NewTimer(r.opts.ResyncDelay)
			case CommandRefetch:
				r.fetch(ctx, cmd.Seq, refreshed)
			}
		}
	}
	render := func() {
		scrolling := r.machine.State() == StateFinalizedScrolling
		switch {
		case scrolling && scroll == nil:
			scroll = time.NewTicker(r.opts.ScrollInterval)
		case !scrolling && scroll != nil:
			scroll.Stop()
			scroll = nil
		}
		r.renderer.Render(r.machine.View())
	}

	r.fetch(ctx, r.machine.BeginRefresh(), refreshed)
	render()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame := <-frames:
			cmds := r.machine.HandlePush(frame)
			if len(cmds) == 0 && (frame.Type == broadcast.EventPing || frame.Type == broadcast.EventKeepalive) {
				continue
			}
			run(cmds)
		case res := <-refreshed:
			if !r.machine.ApplyRefresh(res.seq, res.snapshot) {
				continue
			}
		case <-timerC(reveal):
			reveal = nil
			run(r.machine.RevealElapsed())
		case <-timerC(resync):
			resync = nil
			r.fetch(ctx, r.machine.BeginRefresh(), refreshed)
			continue
		case <-tickerC(scroll):
			r.machine.ScrollTick()
		case <-poll.C:
			r.fetch(ctx, r.machine.BeginRefresh(), refreshed)
			continue
		}
		render()
	}
}

// fetch loads a snapshot in the background and hands it back to the loop.
func (r *Runner) fetch(ctx context.Context, seq uint64, out chan<- refreshResult) {
	r.fetches.Add(1)
	go func() {
		defer r.fetches.Done()
		snapshot, err := r.snapshot(ctx)
		if err != nil {
			if ctx.Err() == nil {
				r.logger.Warn("refresh failed", zap.Uint64("seq", seq), zap.Error(err))
			}
			return
		}
		select {
		case out <- refreshResult{seq: seq, snapshot: snapshot}:
		case <-ctx.Done():
		}
	}()
}

func (r *Runner) snapshot(ctx context.Context) (Snapshot, error) {
	var (
		snapshot  Snapshot
		finalized bool
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snapshot.Leaderboard, err = r.source.Leaderboard(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		snapshot.Recent, err = r.source.Results(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		finalized, err = r.source.Finalized(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	snapshot.Finalized = &finalized
	return snapshot, nil
}

func timerC(t *time.Timer) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}

func tickerC(t *time.Ticker) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}
