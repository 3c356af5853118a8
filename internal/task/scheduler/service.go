package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	logx "karyabbot/pkg/logx"
)

// Config controls the trigger service.
type Config struct {
	Schedule string
	Timezone string // IANA TZ, e.g. "Asia/Kabul"; empty means Local
}

// Service triggers one job on a schedule.
type Service struct {
	mu sync.Mutex

	log  logx.Logger
	spec ParsedSpec
	loc  *time.Location
	job  func(ctx context.Context)

	c      *cron.Cron
	cancel context.CancelFunc
	runs   int
}

func New(cfg Config, job func(ctx context.Context), log logx.Logger) (*Service, error) {
	if job == nil {
		return nil, fmt.Errorf("scheduler: job is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	spec, err := ParseSchedule(cfg.Schedule)
	if err != nil {
		return nil, err
	}
	loc := time.Local
	if tz := strings.TrimSpace(cfg.Timezone); tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("scheduler: invalid timezone %q: %w", tz, err)
		}
	}
	return &Service{log: log, spec: spec, loc: loc, job: job}, nil
}

// Spec returns the parsed schedule.
func (s *Service) Spec() ParsedSpec { return s.spec }

// Start begins triggering. Each run gets a context derived from ctx, so
// cancelling ctx aborts an in-flight run.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	cl := cronLogger{log: s.log}
	c := cron.New(
		cron.WithLocation(s.loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	c.Schedule(s.spec.Schedule(), cron.FuncJob(func() {
		s.mu.Lock()
		s.runs++
		n := s.runs
		s.mu.Unlock()
		s.log.Debug("trigger fired", logx.Int("run", n))
		s.job(runCtx)
	}))
	c.Start()

	s.c = c
	s.cancel = cancel
	s.log.Info("service started",
		logx.String("schedule", s.spec.String()),
		logx.String("kind", s.spec.Kind.String()),
		logx.String("tz", s.loc.String()),
		logx.Time("next", s.nextLocked()),
	)
}

// Next reports the next trigger time, or zero when the service is stopped.
func (s *Service) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextLocked()
}

func (s *Service) nextLocked() time.Time {
	if s.c == nil {
		return time.Time{}
	}
	entries := s.c.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	if !entries[0].Next.IsZero() {
		return entries[0].Next
	}
	return entries[0].Schedule.Next(time.Now().In(s.loc))
}

// Stop halts triggering and waits for an in-flight run to finish, or for ctx
// to be done, whichever comes first. The in-flight run's context is
// cancelled only when ctx expires.
func (s *Service) Stop(ctx context.Context) {
	start := time.Now()
	s.mu.Lock()
	c, cancel := s.c, s.cancel
	s.c, s.cancel = nil, nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	s.log.Info("stop requested")

	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("stop deadline reached; cancelling in-flight run")
	}
	cancel()
	s.log.Info("service stopped", logx.Duration("took", time.Since(start)))
}
