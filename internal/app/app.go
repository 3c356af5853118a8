// Package app wires the fetch, format and publish pipeline and runs it once
// or on a schedule.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	goerrors "github.com/go-errors/errors"
	"github.com/google/uuid"

	"karyabbot/internal/config"
	"karyabbot/internal/errs"
	"karyabbot/internal/fetcher"
	"karyabbot/internal/jobpost"
	"karyabbot/internal/publisher"
	"karyabbot/internal/task/scheduler"
	"karyabbot/internal/translate"
	telegram "karyabbot/internal/transport/telegram/adapter"
	logx "karyabbot/pkg/logx"
)

// stopTimeout bounds how long a scheduled run may keep going after shutdown
// was requested.
const stopTimeout = 30 * time.Second

type App struct {
	cfg *config.Config

	log  logx.Logger
	logs *logx.Service

	fetch *fetcher.Client
	pub   *publisher.Publisher

	format func(jobpost.JobPost, string) string
	notify func(state string) (bool, error)
}

// New builds every component from a validated config. Nothing talks to the
// network until RunOnce or Run.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errs.Config(fmt.Errorf("config is nil"))
	}

	// The adapter also feeds the Telegram log sink, so it logs to the console
	// only.
	adLog := logx.Nop()
	if cfg.ConsoleEnabled() {
		adLog = logx.NewConsole(cfg.Logging.Level).With(logx.String("comp", "telegram"))
	}
	ad, err := telegram.New(telegram.Config{
		Token:   cfg.Telegram.Token,
		APIURL:  cfg.Telegram.APIURL,
		Timeout: cfg.Timeout(),
	}, adLog)
	if err != nil {
		return nil, errs.Config(err)
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.ConsoleEnabled(),
		File: logx.FileConfig{
			Enabled: cfg.Logging.File != "",
			Path:    cfg.Logging.File,
		},
		Telegram: logx.TelegramConfig{
			Enabled:    !cfg.LogChat().IsZero(),
			Target:     cfg.LogChat(),
			MinLevel:   cfg.Logging.ChatMinLevel,
			RatePerSec: cfg.Logging.ChatRate,
		},
	}, ad)

	hc := &http.Client{Timeout: cfg.Timeout()}

	fc, err := fetcher.New(fetcher.Config{
		ServerURL: cfg.Server.URL,
		AuthToken: cfg.Server.AuthToken,
		Timeout:   cfg.Timeout(),
	}, hc, log.With(logx.String("comp", "fetcher")))
	if err != nil {
		_ = logSvc.Close()
		return nil, errs.Config(err)
	}

	tr, err := translate.NewGoogle(translate.GoogleConfig{
		URL:    cfg.Translate.URL,
		Source: cfg.Translate.Source,
		Target: cfg.Translate.Target,
	}, hc, log.With(logx.String("comp", "translate")))
	if err != nil {
		_ = logSvc.Close()
		return nil, errs.Config(err)
	}

	pub := publisher.New(tr, ad, cfg.Channel(), log.With(logx.String("comp", "publisher")))

	return &App{
		cfg:    cfg,
		log:    log.With(logx.String("comp", "app")),
		logs:   logSvc,
		fetch:  fc,
		pub:    pub,
		format: jobpost.Format,
		notify: func(state string) (bool, error) { return daemon.SdNotify(false, state) },
	}, nil
}

// Logger returns the configured root logger.
func (a *App) Logger() logx.Logger { return a.log }

// RunOnce executes one fetch, format and publish cycle.
//
// A fetch failure is returned and nothing is published. Publish failures are
// logged by the publisher and do not fail the run. A panic anywhere in the
// cycle is recovered into an errs.KindUnexpected error.
func (a *App) RunOnce(ctx context.Context) (err error) {
	runID := uuid.NewString()
	log := a.log.With(logx.String("run_id", runID))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			ge := goerrors.Wrap(r, 2)
			err = errs.Unexpected("run", ge)
			log.Error("unexpected error", logx.Err(ge), logx.Stack(ge.ErrorStack()))
		}
	}()

	log.Info("run started")

	post, err := a.fetch.Fetch(ctx)
	if err != nil {
		log.Error("run aborted", logx.String("stage", "fetch"), logx.Err(err), logx.Duration("took", time.Since(start)))
		return err
	}

	text := a.format(post, a.cfg.JobLinkBase)
	log.Debug("post formatted", logx.Int("chars", len([]rune(text))))

	res := a.pub.Publish(ctx, text)
	log.Info("run finished",
		logx.String("stage", string(res.Stage)),
		logx.Bool("delivered", res.Delivered()),
		logx.Int("message_id", res.Message.MessageID),
		logx.Duration("took", time.Since(start)),
	)
	return nil
}

// Run executes a single cycle when no schedule is configured. Otherwise it
// triggers RunOnce on the schedule until ctx is done and returns nil.
func (a *App) Run(ctx context.Context) error {
	if !a.cfg.Scheduled() {
		return a.RunOnce(ctx)
	}

	sched, err := scheduler.New(scheduler.Config{
		Schedule: a.cfg.Scheduler.Schedule,
		Timezone: a.cfg.Scheduler.Timezone,
	}, func(c context.Context) {
		// RunOnce logs its own failures.
		_ = a.RunOnce(c)
	}, a.log.With(logx.String("comp", "scheduler")))
	if err != nil {
		return errs.Config(err)
	}

	// In-flight runs outlive ctx until Stop gives up on them.
	sched.Start(context.WithoutCancel(ctx))
	a.sdNotify(daemon.SdNotifyReady)

	<-ctx.Done()
	a.log.Info("shutdown requested", logx.Err(context.Cause(ctx)))
	a.sdNotify(daemon.SdNotifyStopping)

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	sched.Stop(stopCtx)
	return nil
}

func (a *App) sdNotify(state string) {
	if a.notify == nil {
		return
	}
	sent, err := a.notify(state)
	switch {
	case err != nil:
		a.log.Warn("sd_notify failed", logx.String("state", state), logx.Err(err))
	case sent:
		a.log.Debug("sd_notify sent", logx.String("state", state))
	}
}

// Close flushes the log sinks. Safe to call more than once.
func (a *App) Close() error {
	if a.logs == nil {
		return nil
	}
	return a.logs.Close()
}
