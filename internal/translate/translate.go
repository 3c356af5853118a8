// Package translate turns the English post into the channel's language.
package translate

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Translator converts text between the languages it was built for.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Func adapts a plain function to Translator.
type Func func(ctx context.Context, text string) (string, error)

func (f Func) Translate(ctx context.Context, text string) (string, error) { return f(ctx, text) }

// ParseLang validates a language code ("en", "fa", "fa-AF", "auto") and
// returns it in canonical form.
func ParseLang(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if strings.EqualFold(s, "auto") {
		return "auto", nil
	}
	tag, err := language.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid language %q: %w", raw, err)
	}
	if tag == language.Und {
		return "", fmt.Errorf("invalid language %q", raw)
	}
	return tag.String(), nil
}

// splitChunks breaks text into pieces of at most limit runes, cutting on
// newlines where possible. Joining the chunks reproduces text exactly.
func splitChunks(text string, limit int) []string {
	rs := []rune(text)
	if limit <= 0 || len(rs) <= limit {
		return []string{text}
	}
	var out []string
	start := 0
	for start < len(rs) {
		end := start + limit
		if end >= len(rs) {
			out = append(out, string(rs[start:]))
			break
		}
		cut := -1
		for i := end - 1; i > start; i-- {
			if rs[i] == '\n' {
				cut = i + 1
				break
			}
		}
		if cut == -1 {
			for i := end - 1; i > start; i-- {
				if rs[i] == ' ' {
					cut = i + 1
					break
				}
			}
		}
		if cut == -1 {
			cut = end
		}
		out = append(out, string(rs[start:cut]))
		start = cut
	}
	return out
}
