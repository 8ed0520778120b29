// Package serve runs the announcement pipeline on a schedule. A cron
// entry fires the weekly run; a filesystem watch on the prediction file
// logs upcoming selection changes so operators see mistakes before
// Monday morning.
package serve

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	"bonjourarcade/pkg/logx"
)

// DefaultSchedule fires Monday 09:00 local time.
const DefaultSchedule = "0 9 * * 1"

// Options configures a Server.
type Options struct {
	Log logx.Logger

	// Schedule is a five-field cron expression (descriptors accepted).
	Schedule string

	// PredictionsPath is watched for edits.
	PredictionsPath string

	// Run executes one announcement pipeline pass.
	Run func(ctx context.Context) error

	// OnPredictionsChange is called after the watched file settles.
	OnPredictionsChange func(ctx context.Context)
}

type Server struct {
	log       logx.Logger
	schedule  string
	predPath  string
	run       func(ctx context.Context) error
	onChange  func(ctx context.Context)
	notify    func(state string) // sd_notify, swappable in tests
	debouncer *time.Timer
	mu        sync.Mutex
}

func New(opts Options) *Server {
	s := &Server{
		log:      opts.Log,
		schedule: strings.TrimSpace(opts.Schedule),
		predPath: opts.PredictionsPath,
		run:      opts.Run,
		onChange: opts.OnPredictionsChange,
	}
	if s.log.IsZero() {
		s.log = logx.Nop()
	}
	if s.schedule == "" {
		s.schedule = DefaultSchedule
	}
	s.notify = func(state string) {
		// Returns false outside systemd; nothing to handle either way.
		_, _ = daemon.SdNotify(false, state)
	}
	return s
}

// Run blocks until the context is cancelled. The cron scheduler and the
// prediction watcher run concurrently; the watcher restarts itself on
// failure instead of taking the scheduler down with it.
func (s *Server) Run(ctx context.Context) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	sched, err := parser.Parse(s.schedule)
	if err != nil {
		return err
	}

	c := cron.New(cron.WithParser(parser))
	c.Schedule(sched, cron.FuncJob(func() {
		s.log.Info("scheduled run starting", logx.String("schedule", s.schedule))
		if err := s.run(ctx); err != nil {
			s.log.Error("scheduled run failed", logx.Err(err))
			return
		}
		s.log.Info("scheduled run finished")
	}))
	c.Start()
	defer c.Stop()

	if s.predPath != "" {
		go s.watchPredictions(ctx)
	}

	s.notify(daemon.SdNotifyReady)
	s.log.Info("serving",
		logx.String("schedule", s.schedule),
		logx.String("predictions", s.predPath))

	s.watchdogLoop(ctx)
	s.notify(daemon.SdNotifyStopping)
	return ctx.Err()
}

// watchdogLoop pets the systemd watchdog at half its interval. Without
// a watchdog configured it just waits for cancellation.
func (s *Server) watchdogLoop(ctx context.Context) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval == 0 {
		<-ctx.Done()
		return
	}
	t := time.NewTicker(interval / 2)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.notify(daemon.SdNotifyWatchdog)
		}
	}
}

// watchPredictions watches the prediction file's directory. Editors
// replace files rather than writing in place, so the watch sits on the
// directory and events are matched by basename.
func (s *Server) watchPredictions(ctx context.Context) {
	dir := filepath.Dir(s.predPath)
	base := filepath.Base(s.predPath)

	const restartBackoff = 5 * time.Second
	for ctx.Err() == nil {
		w, err := fsnotify.NewWatcher()
		if err == nil {
			err = w.Add(dir)
		}
		if err != nil {
			s.log.Warn("prediction watch init failed", logx.Err(err), logx.String("dir", dir))
			if w != nil {
				_ = w.Close()
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(restartBackoff):
				continue
			}
		}

		s.log.Debug("prediction watcher started", logx.String("dir", dir), logx.String("file", base))
		s.watchLoop(ctx, w, base)
		_ = w.Close()

		if ctx.Err() != nil {
			return
		}
		s.log.Warn("prediction watcher stopped, restarting", logx.Duration("backoff", restartBackoff))
		select {
		case <-ctx.Done():
			return
		case <-time.After(restartBackoff):
		}
	}
}

func (s *Server) watchLoop(ctx context.Context, w *fsnotify.Watcher, base string) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if !strings.EqualFold(filepath.Base(ev.Name), base) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				s.debounceChange(ctx)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			if err != nil {
				s.log.Warn("prediction watch error", logx.Err(err))
			}
		}
	}
}

// debounceChange coalesces the event burst an editor save produces into
// one callback.
func (s *Server) debounceChange(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.debouncer != nil {
		s.debouncer.Stop()
	}
	s.debouncer = time.AfterFunc(500*time.Millisecond, func() {
		if ctx.Err() != nil {
			return
		}
		s.log.Info("prediction file changed", logx.String("path", s.predPath))
		if s.onChange != nil {
			s.onChange(ctx)
		}
	})
}
