package config

import (
	"time"

	kit "karyabbot/internal/transport"
)

// Config is built once at start-up (see Load) and passed to the components
// that need it. It is never mutated afterwards.
//
// Every key can come from the optional config file (KARYAB_CONFIG, JSON or
// YAML) or from the environment; the environment wins.
type Config struct {
	Telegram  TelegramConfig  `json:"telegram"`
	Server    ServerConfig    `json:"server"`
	Translate TranslateConfig `json:"translate"`
	Logging   LoggingConfig   `json:"logging"`
	Scheduler SchedulerConfig `json:"scheduler"`

	// JobLinkBase prefixes the post slug in the message link line.
	JobLinkBase string `json:"job_link_base,omitempty"`
	// HTTPTimeout is a Go duration string (e.g. "30s") applied to every
	// outbound call. Empty or "0s" keeps the client default (no timeout).
	HTTPTimeout string `json:"http_timeout,omitempty"`

	// Resolved by Validate.
	channel kit.ChatTarget
	logChat kit.ChatTarget
	timeout time.Duration
}

type TelegramConfig struct {
	Token     string `json:"token"`
	ChannelID string `json:"channel_id"`
	// APIURL overrides the Bot API base URL (e.g. a local Bot API server).
	APIURL string `json:"api_url,omitempty"`
}

type ServerConfig struct {
	URL       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

type TranslateConfig struct {
	URL    string `json:"url,omitempty"`
	Source string `json:"source,omitempty"`
	Target string `json:"target,omitempty"`
}

type LoggingConfig struct {
	Level   string `json:"level,omitempty"`
	Console *bool  `json:"console,omitempty"`
	File    string `json:"file,omitempty"`

	// ChatID enables the Telegram log sink when set.
	ChatID       string `json:"chat_id,omitempty"`
	ChatMinLevel string `json:"chat_min_level,omitempty"`
	ChatRate     int    `json:"chat_rate,omitempty"`
}

// SchedulerConfig enables the in-process trigger. An empty Schedule means
// the bot runs the pipeline once and exits.
type SchedulerConfig struct {
	Schedule string `json:"schedule,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

const (
	DefaultTelegramAPIURL = "https://api.telegram.org"
	DefaultJobLinkBase    = "https://www.karyab.org/jobs/"
	DefaultTranslateURL   = "https://translate.googleapis.com/translate_a/single"
	DefaultSourceLang     = "en"
	DefaultTargetLang     = "fa"
	DefaultLogLevel       = "info"
	DefaultChatMinLevel   = "warn"
	DefaultChatRate       = 1
)

// Channel is the resolved publish target.
func (c *Config) Channel() kit.ChatTarget { return c.channel }

// LogChat is the resolved Telegram log sink target (zero when disabled).
func (c *Config) LogChat() kit.ChatTarget { return c.logChat }

// Timeout is the resolved HTTPTimeout.
func (c *Config) Timeout() time.Duration { return c.timeout }

// ConsoleEnabled reports whether console logging is on (default true).
func (c *Config) ConsoleEnabled() bool {
	return c.Logging.Console == nil || *c.Logging.Console
}

// Scheduled reports whether the bot should keep running on a schedule.
func (c *Config) Scheduled() bool { return c.Scheduler.Schedule != "" }
