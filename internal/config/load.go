package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"karyabbot/internal/errs"
	"karyabbot/internal/task/scheduler"
	"karyabbot/internal/translate"
	kit "karyabbot/internal/transport"
	logx "karyabbot/pkg/logx"
)

// Environment keys.
const (
	EnvTelegramBotToken  = "TELEGRAM_BOT_TOKEN"
	EnvTelegramChannelID = "TELEGRAM_CHANNEL_ID"
	EnvServerAuthToken   = "SERVER_AUTH_TOKEN"
	EnvServerURL         = "SERVER_URL"

	EnvTelegramAPIURL   = "TELEGRAM_API_URL"
	EnvJobLinkBase      = "JOB_LINK_BASE"
	EnvTranslateURL     = "TRANSLATE_URL"
	EnvTranslateSource  = "TRANSLATE_SOURCE"
	EnvTranslateTarget  = "TRANSLATE_TARGET"
	EnvHTTPTimeout      = "HTTP_TIMEOUT"
	EnvSchedule         = "SCHEDULE"
	EnvScheduleTimezone = "SCHEDULE_TIMEZONE"
	EnvLogLevel         = "LOG_LEVEL"
	EnvLogConsole       = "LOG_CONSOLE"
	EnvLogFile          = "LOG_FILE"
	EnvLogChatID        = "LOG_CHAT_ID"
	EnvLogChatMinLevel  = "LOG_CHAT_MIN_LEVEL"
	EnvLogChatRate      = "LOG_CHAT_RATE"

	EnvConfigFile = "KARYAB_CONFIG"
	EnvEnvFile    = "ENV_FILE"
)

const defaultEnvFile = "./.env"

// Options controls where Load looks for settings. The zero value reads the
// process environment and ./.env.
type Options struct {
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
	// EnvFile overrides ENV_FILE / ./.env. A missing file is not an error.
	EnvFile string
}

// Load assembles the configuration from (lowest precedence first) the
// optional config file, the optional dotenv file and the environment, then
// validates it. Every failure is errs.KindConfig.
func Load(opts Options) (*Config, error) {
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = strings.TrimSpace(getenv(EnvEnvFile))
	}
	if envFile == "" {
		envFile = defaultEnvFile
	}
	dotenv, err := readDotenv(envFile)
	if err != nil {
		return nil, errs.Config(err)
	}
	// The real environment wins over the dotenv file.
	lookup := func(k string) string {
		if v := getenv(k); v != "" {
			return v
		}
		return dotenv[k]
	}

	cfg := &Config{}
	if path := strings.TrimSpace(lookup(EnvConfigFile)); path != "" {
		fc, err := ParseFile(path)
		if err != nil {
			return nil, errs.Config(err)
		}
		cfg = fc
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, errs.Config(err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readDotenv(path string) (map[string]string, error) {
	m, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("env file %s: %w", path, err)
	}
	return m, nil
}

// ParseFile reads a JSON or YAML config file. Unknown keys are rejected.
func ParseFile(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	jb, format, err := coerceToJSONBytes(path, b)
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config file %s (%s): %w", path, format, err)
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("config file %s: trailing data", path)
		}
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv(lookup func(string) string) error {
	strs := []struct {
		key string
		dst *string
	}{
		{EnvTelegramBotToken, &c.Telegram.Token},
		{EnvTelegramChannelID, &c.Telegram.ChannelID},
		{EnvTelegramAPIURL, &c.Telegram.APIURL},
		{EnvServerURL, &c.Server.URL},
		{EnvServerAuthToken, &c.Server.AuthToken},
		{EnvTranslateURL, &c.Translate.URL},
		{EnvTranslateSource, &c.Translate.Source},
		{EnvTranslateTarget, &c.Translate.Target},
		{EnvJobLinkBase, &c.JobLinkBase},
		{EnvHTTPTimeout, &c.HTTPTimeout},
		{EnvSchedule, &c.Scheduler.Schedule},
		{EnvScheduleTimezone, &c.Scheduler.Timezone},
		{EnvLogLevel, &c.Logging.Level},
		{EnvLogFile, &c.Logging.File},
		{EnvLogChatID, &c.Logging.ChatID},
		{EnvLogChatMinLevel, &c.Logging.ChatMinLevel},
	}
	for _, s := range strs {
		if v := strings.TrimSpace(lookup(s.key)); v != "" {
			*s.dst = v
		}
	}

	if v := strings.TrimSpace(lookup(EnvLogConsole)); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: invalid bool %q", EnvLogConsole, v)
		}
		c.Logging.Console = &b
	}
	if v := strings.TrimSpace(lookup(EnvLogChatRate)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid integer %q", EnvLogChatRate, v)
		}
		c.Logging.ChatRate = n
	}
	return nil
}

func (c *Config) applyDefaults() {
	trim := func(p *string, def string) {
		*p = strings.TrimSpace(*p)
		if *p == "" {
			*p = def
		}
	}
	trim(&c.Telegram.Token, "")
	trim(&c.Telegram.ChannelID, "")
	trim(&c.Telegram.APIURL, DefaultTelegramAPIURL)
	trim(&c.Server.URL, "")
	trim(&c.Server.AuthToken, "")
	trim(&c.Translate.URL, DefaultTranslateURL)
	trim(&c.Translate.Source, DefaultSourceLang)
	trim(&c.Translate.Target, DefaultTargetLang)
	trim(&c.JobLinkBase, DefaultJobLinkBase)
	trim(&c.HTTPTimeout, "")
	trim(&c.Scheduler.Schedule, "")
	trim(&c.Scheduler.Timezone, "")
	trim(&c.Logging.Level, DefaultLogLevel)
	trim(&c.Logging.File, "")
	trim(&c.Logging.ChatID, "")
	trim(&c.Logging.ChatMinLevel, DefaultChatMinLevel)
	if c.Logging.ChatRate == 0 {
		c.Logging.ChatRate = DefaultChatRate
	}
}

// Validate checks required settings and resolves typed values. It reports
// every missing required key at once.
func (c *Config) Validate() error {
	var missing []string
	for _, r := range []struct {
		key string
		val string
	}{
		{EnvTelegramBotToken, c.Telegram.Token},
		{EnvTelegramChannelID, c.Telegram.ChannelID},
		{EnvServerAuthToken, c.Server.AuthToken},
		{EnvServerURL, c.Server.URL},
	} {
		if strings.TrimSpace(r.val) == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return errs.Config(fmt.Errorf("missing required settings: %s", strings.Join(missing, ", ")))
	}

	if err := c.resolve(); err != nil {
		return errs.Config(err)
	}
	return nil
}

func (c *Config) resolve() error {
	if err := checkHTTPURL(EnvServerURL, c.Server.URL); err != nil {
		return err
	}
	if err := checkHTTPURL(EnvTelegramAPIURL, c.Telegram.APIURL); err != nil {
		return err
	}
	if err := checkHTTPURL(EnvTranslateURL, c.Translate.URL); err != nil {
		return err
	}
	if err := checkHTTPURL(EnvJobLinkBase, c.JobLinkBase); err != nil {
		return err
	}

	ch, err := kit.ParseChatTarget(c.Telegram.ChannelID)
	if err != nil {
		return fmt.Errorf("%s: %w", EnvTelegramChannelID, err)
	}
	c.channel = ch

	src, err := translate.ParseLang(c.Translate.Source)
	if err != nil {
		return fmt.Errorf("%s: %w", EnvTranslateSource, err)
	}
	dst, err := translate.ParseLang(c.Translate.Target)
	if err != nil {
		return fmt.Errorf("%s: %w", EnvTranslateTarget, err)
	}
	if dst == "auto" {
		return fmt.Errorf("%s: target language cannot be auto", EnvTranslateTarget)
	}
	c.Translate.Source, c.Translate.Target = src, dst

	d, err := ParseDurationField(EnvHTTPTimeout, c.HTTPTimeout)
	if err != nil {
		return err
	}
	c.timeout = d

	if c.Scheduler.Schedule != "" {
		if _, err := scheduler.ParseSchedule(c.Scheduler.Schedule); err != nil {
			return fmt.Errorf("%s: %w", EnvSchedule, err)
		}
	}
	if tz := c.Scheduler.Timezone; tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("%s: invalid %q: %w", EnvScheduleTimezone, tz, err)
		}
	}

	if !logx.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("%s: unknown level %q", EnvLogLevel, c.Logging.Level)
	}
	if !logx.ValidLevel(c.Logging.ChatMinLevel) {
		return fmt.Errorf("%s: unknown level %q", EnvLogChatMinLevel, c.Logging.ChatMinLevel)
	}
	if c.Logging.ChatRate < 0 {
		return fmt.Errorf("%s: must be >= 0", EnvLogChatRate)
	}
	if c.Logging.ChatID != "" {
		lc, err := kit.ParseChatTarget(c.Logging.ChatID)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvLogChatID, err)
		}
		c.logChat = lc
	}
	return nil
}

func checkHTTPURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: invalid url %q: %w", key, raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s: expected an http(s) url, got %q", key, raw)
	}
	return nil
}
