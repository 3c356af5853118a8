package adapter

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"karyabbot/internal/errs"
	kit "karyabbot/internal/transport"
	logx "karyabbot/pkg/logx"
)

type Config struct {
	Token string
	// APIURL overrides the Bot API base (local Bot API server, tests).
	APIURL string
	// Timeout bounds each Bot API call; 0 keeps the client default (none).
	Timeout time.Duration
}

// Adapter sends messages through the Telegram Bot API. It never polls for
// updates; the bot only ever writes to its channel.
type Adapter struct {
	cfg Config
	log logx.Logger
	bot *tele.Bot
}

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	// Offline skips the getMe round-trip; a bad token surfaces on first send.
	b, err := tele.NewBot(tele.Settings{
		URL:     strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/"),
		Token:   cfg.Token,
		Client:  &http.Client{Timeout: cfg.Timeout},
		Offline: true,
	})
	if err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Adapter{cfg: cfg, log: log, bot: b}, nil
}

// recipient maps a ChatTarget onto telebot's Recipient.
type recipient string

func (r recipient) Recipient() string { return string(r) }

func toRecipient(to kit.ChatTarget) tele.Recipient {
	if to.ChatID != 0 {
		return recipient(strconv.FormatInt(to.ChatID, 10))
	}
	return recipient(to.Username)
}

const telegramTextLimit = 4000

// splitTelegramText splits long messages into chunks that are safe to send to Telegram.
// It prefers newline boundaries and (best-effort) avoids splitting inside HTML tags when ParseMode is HTML.
func splitTelegramText(s string, limit int, parseMode string) []string {
	if limit <= 0 {
		limit = telegramTextLimit
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return []string{s}
	}

	out := make([]string, 0, (len(rs)+limit-1)/limit)
	start := 0
	for start < len(rs) {
		end := start + limit
		if end > len(rs) {
			end = len(rs)
		}

		// Prefer splitting on a newline near the end of the window.
		if end < len(rs) {
			for i := end - 1; i > start; i-- {
				if rs[i] == '\n' && i-start >= limit/3 {
					end = i + 1
					break
				}
			}
		}

		// Don't split inside a tag for HTML parse mode.
		if strings.EqualFold(parseMode, "HTML") && end < len(rs) {
			lastOpen, lastClose := -1, -1
			for i := start; i < end; i++ {
				switch rs[i] {
				case '<':
					lastOpen = i
				case '>':
					lastClose = i
				}
			}
			if lastOpen > lastClose && lastOpen > start+1 {
				end = lastOpen
			}
		}

		out = append(out, strings.TrimRight(string(rs[start:end]), "\n"))

		start = end
		// Skip leading newlines to avoid empty chunks.
		for start < len(rs) && rs[start] == '\n' {
			start++
		}
	}
	return out
}

// SendText posts text to the target chat, splitting it when it exceeds the
// Bot API limit. It returns a reference to the first message. Failures are
// errs.KindDelivery wrapping the telebot error.
func (a *Adapter) SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	if opt == nil {
		opt = &kit.SendOptions{}
	}
	if to.IsZero() {
		return kit.MessageRef{}, errs.Delivery("sendMessage", errors.New("chat target is empty"))
	}

	chunks := splitTelegramText(text, telegramTextLimit, opt.ParseMode)
	rcpt := toRecipient(to)

	var first kit.MessageRef
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return first, errs.Delivery("sendMessage", err)
		}

		sendOpt := &tele.SendOptions{
			ParseMode:             opt.ParseMode,
			DisableWebPagePreview: opt.DisablePreview,
			ThreadID:              to.ThreadID,
		}
		msg, err := a.bot.Send(rcpt, chunk, sendOpt)
		if err != nil {
			a.log.Debug("telegram send failed",
				logx.String("chat", to.String()),
				logx.Int("part", i+1),
				logx.Int("parts", len(chunks)),
				logx.Err(err),
			)
			return first, errs.Delivery("sendMessage", err)
		}

		if i == 0 {
			first = kit.MessageRef{ChatID: to.ChatID, ThreadID: to.ThreadID, MessageID: msg.ID}
			if msg.Chat != nil {
				first.ChatID = msg.Chat.ID
			}
		}
	}
	return first, nil
}

// APICode extracts the Bot API error code from a delivery failure (0 if none).
func APICode(err error) int {
	var te *tele.Error
	if errors.As(err, &te) {
		return te.Code
	}
	return 0
}
