package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroLens/internal/compare"
	"MacroLens/internal/model"
	"MacroLens/internal/recorder"
	"MacroLens/internal/stock"
)

type fakeBot struct {
	mu       sync.Mutex
	failures int
	sent     []string
	updates  string
}

func (f *fakeBot) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch {
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			if f.failures > 0 {
				f.failures--
				http.Error(w, "busy", http.StatusTooManyRequests)
				return
			}
			var payload map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, "1001", payload["chat_id"])
			f.sent = append(f.sent, payload["text"])
			fmt.Fprint(w, `{"ok":true}`)
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			fmt.Fprint(w, f.updates)
		default:
			http.NotFound(w, r)
		}
	})
}

func newTestNotifier(t *testing.T, bot *fakeBot) *TelegramNotifier {
	srv := httptest.NewServer(bot.handler(t))
	t.Cleanup(srv.Close)
	n := NewTelegramNotifier("token", "1001", "")
	n.BaseURL = srv.URL
	n.Backoff = time.Millisecond
	return n
}

func TestSend(t *testing.T) {
	bot := &fakeBot{}
	n := newTestNotifier(t, bot)
	require.NoError(t, n.Send(context.Background(), "hello"))
	assert.Equal(t, []string{"hello"}, bot.sent)
}

func TestSendWithRetry(t *testing.T) {
	bot := &fakeBot{failures: 2}
	n := newTestNotifier(t, bot)
	require.NoError(t, n.SendWithRetry(context.Background(), "eventually", 3))
	assert.Equal(t, []string{"eventually"}, bot.sent)

	bot.failures = 10
	err := n.SendWithRetry(context.Background(), "never", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 2 retries exhausted")
}

func TestPollOnce_DispatchesCommands(t *testing.T) {
	bot := &fakeBot{updates: `{"ok":true,"result":[
		{"update_id":7,"message":{"text":" /jobs@MacroLensBot ","chat":{"id":1001}}},
		{"update_id":8},
		{"update_id":9,"message":{"text":"/run g7","chat":{"id":666}}},
		{"update_id":10,"message":{"text":"/quiet","chat":{"id":1001}}}]}`}
	n := newTestNotifier(t, bot)

	var got []string
	handler := func(_ context.Context, cmd string) string {
		got = append(got, cmd)
		if cmd == "/jobs" {
			return "job list"
		}
		return ""
	}
	next, err := n.pollOnce(context.Background(), n.Client, 0, handler)
	require.NoError(t, err)
	assert.Equal(t, 11, next)
	assert.Equal(t, []string{"/jobs", "/quiet"}, got)
	assert.Equal(t, []string{"job list"}, bot.sent)
}

func TestSend_SplitsLongMessages(t *testing.T) {
	bot := &fakeBot{}
	n := newTestNotifier(t, bot)
	line := strings.Repeat("x", 99) + "\n"
	require.NoError(t, n.Send(context.Background(), strings.Repeat(line, 50)))
	require.Len(t, bot.sent, 2)
	assert.Len(t, bot.sent[0], 4000)
	assert.Len(t, bot.sent[1], 1000)
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))
	assert.Equal(t, []string{"abcdefghij", "klm"}, splitMessage("abcdefghijklm", 10))
	assert.Equal(t, []string{"ab\n", "cd\n"}, splitMessage("ab\ncd\n", 4))
	for _, chunk := range splitMessage(strings.Repeat("é", 10), 5) {
		assert.True(t, utf8.ValidString(chunk))
		assert.LessOrEqual(t, len(chunk), 5)
	}
}

func TestNormalizeCommand(t *testing.T) {
	assert.Equal(t, "/compare gdp usa,jpn", normalizeCommand("  /compare@Bot  gdp   usa,jpn "))
	assert.Equal(t, "mail me@example.com", normalizeCommand("mail me@example.com"))
	assert.Equal(t, "", normalizeCommand("   "))
}

func TestPollOnce_BadPayload(t *testing.T) {
	bot := &fakeBot{updates: "not json"}
	n := newTestNotifier(t, bot)
	next, err := n.pollOnce(context.Background(), n.Client, 3, func(context.Context, string) string { return "" })
	assert.Error(t, err)
	assert.Equal(t, 3, next)
}

func TestFormatRunSummary(t *testing.T) {
	r := RunResult{
		Job:       "g7 <gdp>",
		RunID:     "0123456789abcdef",
		Started:   time.Date(2024, 5, 6, 7, 0, 0, 0, time.UTC),
		Countries: []model.Country{"USA", "JPN"},
		Summaries: map[model.SeriesID][]compare.Summary{
			model.SeriesGDP: {
				{Country: "USA", Count: 2, LastDate: "2023-01-01", Last: null.FloatFrom(2.5e13), CAGR: null.FloatFrom(0.05)},
				{Country: "JPN"},
			},
		},
		Files: []string{"/tmp/out/g7/GDP.xlsx"},
		Err:   errors.Join(errors.New("DEU GDP: unavailable"), errors.New("FRA GDP: timeout")),
	}
	msg := FormatRunSummary(r)
	assert.Contains(t, msg, "g7 &lt;gdp&gt;")
	assert.Contains(t, msg, "run 01234567")
	assert.Contains(t, msg, "USA: 25.00T (2023-01-01), CAGR +5.00%")
	assert.Contains(t, msg, "JPN: no observations")
	assert.Contains(t, msg, "GDP.xlsx")
	assert.Contains(t, msg, "• FRA GDP: timeout")
	assert.True(t, strings.HasPrefix(msg, "⚠️"))
}

func TestFormatters(t *testing.T) {
	assert.Contains(t, FormatJobs([]string{"a", "b"}), "• b")
	assert.Equal(t, "no report jobs configured", FormatJobs(nil))
	assert.Contains(t, FormatComparison(model.SeriesGDP, nil), "no country returned data")
	assert.Contains(t, FormatHelp(), "/compare")
	assert.Equal(t, "no recorded runs", FormatHistory(nil))
	hist := FormatHistory([]recorder.Run{{Job: "g7", Series: "GDP", Started: 0, Files: 2, Errors: 1, Status: recorder.StatusFailed}})
	assert.Contains(t, hist, "❌ 01-01 00:00 g7 · GDP · 2 files · 1 errors")

	snap := stock.Snapshot{Symbol: "ACME", Start: "2024-01-01", End: "2024-02-01", LastClose: 10, TotalReturn: 0.1, RSI: 55}
	assert.Contains(t, FormatSnapshot(snap), "+10.0% over period")
	assert.Equal(t, "12.3K", compact(12345))
	assert.Equal(t, "1.50M", compact(1.5e6))
}

func TestLogNotifier(t *testing.T) {
	var n Notifier = LogNotifier{}
	assert.NoError(t, n.SendWithRetry(context.Background(), "x", 3))
}
