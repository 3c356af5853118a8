package config

import (
	logx "karyabbot/pkg/logx"
)

// Summary returns safe structured attrs describing cfg for the start-up log
// line. Tokens are never included, only whether they are set.
func Summary(cfg *Config) []logx.Field {
	if cfg == nil {
		return nil
	}
	return []logx.Field{
		logx.String("server.url", cfg.Server.URL),
		logx.Bool("server.auth_token_set", cfg.Server.AuthToken != ""),
		logx.String("telegram.channel", cfg.Channel().String()),
		logx.Bool("telegram.token_set", cfg.Telegram.Token != ""),
		logx.String("translate.lang", cfg.Translate.Source+"->"+cfg.Translate.Target),
		logx.String("schedule", cfg.Scheduler.Schedule),
		logx.Duration("http_timeout", cfg.Timeout()),
		logx.Bool("logx.console", cfg.ConsoleEnabled()),
		logx.Bool("logx.file_enabled", cfg.Logging.File != ""),
		logx.Bool("logx.telegram_enabled", !cfg.LogChat().IsZero()),
	}
}
