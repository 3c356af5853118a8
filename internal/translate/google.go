package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"karyabbot/internal/errs"
	logx "karyabbot/pkg/logx"
)

// DefaultGoogleURL is the public endpoint used by the Google Translate web widget.
const DefaultGoogleURL = "https://translate.googleapis.com/translate_a/single"

// maxChunk matches the per-request limit the endpoint accepts.
const maxChunk = 5000

type GoogleConfig struct {
	URL    string
	Source string
	Target string
}

// Google translates through the keyless gtx endpoint.
type Google struct {
	cfg  GoogleConfig
	http *http.Client
	log  logx.Logger
}

// NewGoogle builds a translator. Source and Target must already be valid
// language codes (see ParseLang). hc may be nil.
func NewGoogle(cfg GoogleConfig, hc *http.Client, log logx.Logger) (*Google, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		cfg.URL = DefaultGoogleURL
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("translate: invalid url: %w", err)
	}
	if cfg.Source == "" || cfg.Target == "" {
		return nil, errors.New("translate: source and target languages are required")
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Google{cfg: cfg, http: hc, log: log}, nil
}

// Translate returns text in the target language. Whitespace-only input is
// returned as-is. Long input is translated chunk by chunk on line
// boundaries. Failures are errs.KindTranslation.
func (g *Google) Translate(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	start := time.Now()
	chunks := splitChunks(text, maxChunk)
	var b strings.Builder
	for i, chunk := range chunks {
		// Keep leading/trailing whitespace (line breaks between chunks) out of
		// the request; the endpoint trims it.
		core := strings.TrimFunc(chunk, unicode.IsSpace)
		if core == "" {
			b.WriteString(chunk)
			continue
		}
		lead := chunk[:len(chunk)-len(strings.TrimLeftFunc(chunk, unicode.IsSpace))]
		trail := chunk[len(lead)+len(core):]

		out, err := g.translateChunk(ctx, core)
		if err != nil {
			return "", errs.Translation(fmt.Sprintf("chunk %d/%d", i+1, len(chunks)), err)
		}
		b.WriteString(lead)
		b.WriteString(out)
		b.WriteString(trail)
	}
	g.log.Debug("text translated",
		logx.String("source", g.cfg.Source),
		logx.String("target", g.cfg.Target),
		logx.Int("chunks", len(chunks)),
		logx.Duration("took", time.Since(start)),
	)
	return b.String(), nil
}

func (g *Google) translateChunk(ctx context.Context, text string) (string, error) {
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", g.cfg.Source)
	q.Set("tl", g.cfg.Target)
	q.Set("dt", "t")
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.URL+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("translation request failed: http=%d", resp.StatusCode)
	}
	return parseGoogleResponse(body)
}

// parseGoogleResponse extracts the translation from the nested-array answer:
//
//	[[["translated","source",null,null,10],["more","…",…]],null,"en",…]
func parseGoogleResponse(body []byte) (string, error) {
	var root []json.RawMessage
	if err := json.Unmarshal(body, &root); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(root) == 0 {
		return "", errors.New("decode response: empty payload")
	}
	var segments [][]json.RawMessage
	if err := json.Unmarshal(root[0], &segments); err != nil {
		return "", fmt.Errorf("decode response segments: %w", err)
	}
	var b strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		var s *string
		if err := json.Unmarshal(seg[0], &s); err != nil {
			return "", fmt.Errorf("decode response segment: %w", err)
		}
		if s != nil {
			b.WriteString(*s)
		}
	}
	if b.Len() == 0 {
		return "", errors.New("decode response: no translated text")
	}
	return b.String(), nil
}
