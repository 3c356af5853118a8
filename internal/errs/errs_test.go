package errs_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"karyabbot/internal/errs"
)

func TestErrorFormatting(t *testing.T) {
	cause := errors.New("connection refused")

	t.Run("op and cause", func(t *testing.T) {
		err := errs.Fetch("GET /api/share/", cause)
		assert.Equal(t, "fetch error: GET /api/share/: connection refused", err.Error())
		assert.Equal(t, cause, errors.Unwrap(err))
	})

	t.Run("cause only", func(t *testing.T) {
		err := errs.Config(errors.New("missing SERVER_URL"))
		assert.Equal(t, "configuration error: missing SERVER_URL", err.Error())
	})

	t.Run("op only", func(t *testing.T) {
		err := errs.New(errs.KindDelivery, "sendMessage", nil)
		assert.Equal(t, "delivery error: sendMessage", err.Error())
	})

	t.Run("bare", func(t *testing.T) {
		assert.Equal(t, "unexpected error", (&errs.Error{}).Error())
	})
}

func TestErrorsIsMatchesKind(t *testing.T) {
	wrapped := fmt.Errorf("run: %w", errs.Translation("translate", errors.New("429")))

	assert.ErrorIs(t, wrapped, errs.ErrTranslation)
	assert.NotErrorIs(t, wrapped, errs.ErrDelivery)
	assert.Equal(t, errs.KindTranslation, errs.KindOf(wrapped))
	assert.Equal(t, errs.KindUnexpected, errs.KindOf(errors.New("plain")))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, errs.ExitOK},
		{"config", errs.Config(errors.New("x")), errs.ExitBadConfig},
		{"fetch", errs.Fetch("GET", errors.New("x")), errs.ExitRunFailed},
		{"translation", errs.Translation("t", errors.New("x")), errs.ExitOK},
		{"delivery", errs.Delivery("d", errors.New("x")), errs.ExitOK},
		{"unexpected", errs.Unexpected("panic", errors.New("x")), errs.ExitRunFailed},
		{"unclassified", errors.New("x"), errs.ExitRunFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errs.ExitCode(tt.err))
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "fetch", errs.KindFetch.String())
	assert.Equal(t, "configuration", errs.KindConfig.String())
	assert.Equal(t, "unexpected", errs.Kind(42).String())
}
