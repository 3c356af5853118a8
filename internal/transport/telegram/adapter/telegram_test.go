package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"karyabbot/internal/errs"
	kit "karyabbot/internal/transport"
	logx "karyabbot/pkg/logx"
)

const testToken = "123456:TEST"

type botAPI struct {
	mu    sync.Mutex
	calls []map[string]any
	fail  string // description returned with ok=false when set
	code  int
}

func (b *botAPI) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bot"+testToken+"/sendMessage", r.URL.Path)
		var params map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))

		b.mu.Lock()
		b.calls = append(b.calls, params)
		n := len(b.calls)
		fail, code := b.fail, b.code
		b.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if fail != "" {
			w.WriteHeader(code)
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error_code": code, "description": fail})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"result": map[string]any{
				"message_id": 100 + n,
				"date":       1700000000,
				"chat":       map[string]any{"id": -100777, "type": "channel"},
				"text":       params["text"],
			},
		})
	}
}

func (b *botAPI) sent() []map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]map[string]any(nil), b.calls...)
}

func newTestAdapter(t *testing.T, api *botAPI) *Adapter {
	t.Helper()
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)
	a, err := New(Config{Token: testToken, APIURL: srv.URL + "/"}, logx.Nop())
	require.NoError(t, err)
	return a
}

func TestSendTextToChannelID(t *testing.T) {
	t.Parallel()
	api := &botAPI{}
	a := newTestAdapter(t, api)

	ref, err := a.SendText(context.Background(), kit.ChatTarget{ChatID: -100777}, "سلام", &kit.SendOptions{DisablePreview: true})
	require.NoError(t, err)
	assert.Equal(t, kit.MessageRef{ChatID: -100777, MessageID: 101}, ref)

	calls := api.sent()
	require.Len(t, calls, 1)
	assert.Equal(t, "-100777", calls[0]["chat_id"])
	assert.Equal(t, "سلام", calls[0]["text"])
}

func TestSendTextToUsername(t *testing.T) {
	t.Parallel()
	api := &botAPI{}
	a := newTestAdapter(t, api)

	_, err := a.SendText(context.Background(), kit.ChatTarget{Username: "@karyab_jobs"}, "hello", nil)
	require.NoError(t, err)
	calls := api.sent()
	require.Len(t, calls, 1)
	assert.Equal(t, "@karyab_jobs", calls[0]["chat_id"])
}

func TestSendTextSplitsLongMessages(t *testing.T) {
	t.Parallel()
	api := &botAPI{}
	a := newTestAdapter(t, api)

	text := strings.Repeat(strings.Repeat("x", 99)+"\n", 90) // 9000 runes
	ref, err := a.SendText(context.Background(), kit.ChatTarget{ChatID: -100777}, text, nil)
	require.NoError(t, err)
	assert.Equal(t, 101, ref.MessageID, "first part is referenced")
	assert.Len(t, api.sent(), 3)
}

func TestSendTextAPIError(t *testing.T) {
	t.Parallel()
	api := &botAPI{fail: "Bad Request: chat not found", code: http.StatusBadRequest}
	a := newTestAdapter(t, api)

	_, err := a.SendText(context.Background(), kit.ChatTarget{ChatID: -1}, "hello", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrDelivery)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestSendTextRejectsEmptyTargetAndCancelledContext(t *testing.T) {
	t.Parallel()
	api := &botAPI{}
	a := newTestAdapter(t, api)

	_, err := a.SendText(context.Background(), kit.ChatTarget{}, "hello", nil)
	assert.ErrorIs(t, err, errs.ErrDelivery)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.SendText(ctx, kit.ChatTarget{ChatID: -100777}, "hello", nil)
	assert.ErrorIs(t, err, errs.ErrDelivery)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, api.sent())
}

func TestNewRequiresToken(t *testing.T) {
	t.Parallel()
	_, err := New(Config{Token: "  "}, logx.Nop())
	assert.Error(t, err)
}

func TestSplitTelegramText(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"short"}, splitTelegramText("short", 10, ""))

	parts := splitTelegramText("aaaa\nbbbb\ncccc", 10, "")
	assert.Equal(t, []string{"aaaa\nbbbb", "cccc"}, parts)

	parts = splitTelegramText("<b>bold</b> <i>x</i>", 14, "HTML")
	require.Len(t, parts, 2)
	assert.Equal(t, "<b>bold</b> ", parts[0])
	assert.Equal(t, "<i>x</i>", parts[1])

	for _, p := range splitTelegramText(strings.Repeat("ж", 9000), 0, "") {
		assert.LessOrEqual(t, len([]rune(p)), telegramTextLimit)
	}
}
