// Package publisher translates a formatted post and delivers it to the channel.
package publisher

import (
	"context"
	"time"

	"karyabbot/internal/errs"
	"karyabbot/internal/translate"
	kit "karyabbot/internal/transport"
	"karyabbot/internal/transport/telegram/adapter"
	logx "karyabbot/pkg/logx"
)

// Stage names where a publish attempt ended.
type Stage string

const (
	StageTranslate Stage = "translate"
	StageDeliver   Stage = "deliver"
	StageDone      Stage = "done"
)

// Result describes one publish attempt. Err is nil only when Stage is StageDone.
type Result struct {
	Stage      Stage
	Message    kit.MessageRef
	Translated string
	Err        error
}

func (r Result) Delivered() bool { return r.Stage == StageDone }

type Publisher struct {
	translator translate.Translator
	sender     kit.Sender
	channel    kit.ChatTarget
	log        logx.Logger
}

func New(tr translate.Translator, sender kit.Sender, channel kit.ChatTarget, log logx.Logger) *Publisher {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Publisher{translator: tr, sender: sender, channel: channel, log: log}
}

// Publish translates text and sends the translation to the channel. It never
// fails its caller: translation and delivery errors are logged and reported
// in the Result. Untranslated text is never sent.
func (p *Publisher) Publish(ctx context.Context, text string) Result {
	start := time.Now()

	translated, err := p.translator.Translate(ctx, text)
	if err != nil {
		if errs.KindOf(err) != errs.KindTranslation {
			err = errs.Translation("translate", err)
		}
		p.log.Error("translation failed; post not shared", logx.Err(err))
		return Result{Stage: StageTranslate, Err: err}
	}

	ref, err := p.sender.SendText(ctx, p.channel, translated, &kit.SendOptions{})
	if err != nil {
		if errs.KindOf(err) != errs.KindDelivery {
			err = errs.Delivery("sendMessage", err)
		}
		fields := []logx.Field{logx.String("channel", p.channel.String()), logx.Err(err)}
		if code := adapter.APICode(err); code != 0 {
			fields = append(fields, logx.Int("api_code", code))
		}
		p.log.Error("failed to post on telegram", fields...)
		return Result{Stage: StageDeliver, Err: err, Translated: translated}
	}

	p.log.Info("post shared on telegram channel",
		logx.String("channel", p.channel.String()),
		logx.Int("message_id", ref.MessageID),
		logx.Int("chars", len([]rune(translated))),
		logx.Duration("took", time.Since(start)),
	)
	p.log.Debug("shared text", logx.String("text", translated))
	return Result{Stage: StageDone, Message: ref, Translated: translated}
}
