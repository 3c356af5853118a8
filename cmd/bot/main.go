package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"karyabbot/internal/app"
	"karyabbot/internal/config"
	"karyabbot/internal/errs"
	logx "karyabbot/pkg/logx"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	boot := logx.NewConsole(os.Getenv(config.EnvLogLevel)).With(logx.String("comp", "main"))

	cfg, err := config.Load(config.Options{})
	if err != nil {
		boot.Error("configuration error", logx.Err(err))
		return errs.ExitCode(err)
	}

	a, err := app.New(cfg)
	if err != nil {
		boot.Error("startup failed", logx.Err(err))
		return errs.ExitCode(err)
	}
	defer func() { _ = a.Close() }()

	log := a.Logger()
	log.Info("starting", config.Summary(cfg)...)

	if err := a.Run(ctx); err != nil {
		log.Error("run failed", logx.Err(err), logx.String("kind", errs.KindOf(err).String()))
		return errs.ExitCode(err)
	}
	return errs.ExitOK
}
