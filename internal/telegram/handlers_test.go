package telegram

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratesDashboard/internal/charts"
	"ratesDashboard/internal/dashboard"
	"ratesDashboard/internal/frame"
	"ratesDashboard/internal/series"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
	ch   chan tgbotapi.Chattable
}

func (s *recordingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	s.sent = append(s.sent, c)
	s.mu.Unlock()
	if s.ch != nil {
		s.ch <- c
	}
	return tgbotapi.Message{}, nil
}

func (s *recordingSender) last(t *testing.T) tgbotapi.Chattable {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.sent)
	return s.sent[len(s.sent)-1]
}

type stubRenderer struct {
	d   *dashboard.Dashboard
	err error
}

func (s stubRenderer) Render(context.Context) (*dashboard.Dashboard, error) { return s.d, s.err }

type stubDrawer struct{ window time.Duration }

func (s *stubDrawer) Panel(p *dashboard.Panel, window time.Duration) ([]byte, error) {
	s.window = window
	switch {
	case p.NoData():
		return nil, charts.ErrNoData
	case !p.Available():
		return nil, p.Err
	}
	return []byte("png"), nil
}

type stubCommentator struct{ lines []string }

func (s *stubCommentator) Comment(_ context.Context, lines []string) (string, error) {
	s.lines = lines
	return "**Curve:** steeper.", nil
}

func testDashboard(t *testing.T) *dashboard.Dashboard {
	t.Helper()
	s := &series.Series{ID: "DGS10", Observations: []series.Observation{
		{Date: time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC), Value: 4.41},
		{Date: time.Date(2024, 6, 6, 0, 0, 0, 0, time.UTC), Value: 4.29},
	}}
	f, err := frame.Build(frame.Named{Name: "10Y", Series: s})
	require.NoError(t, err)
	return &dashboard.Dashboard{
		Title: "Interest Rate Dashboard",
		Left: []*dashboard.Panel{
			{ID: "10y", Title: "10Y Treasury Yield", Kind: dashboard.KindLine, Frame: f},
			{ID: "real", Title: "Real Yields", Kind: dashboard.KindLine, Err: series.Unavailable("DFII10", errors.New("timeout"))},
			{ID: "equities", Title: "Equity Indices", Kind: dashboard.KindLine, Err: frame.ErrEmptyFrame},
		},
	}
}

func msg(text string) *tgbotapi.Message {
	return &tgbotapi.Message{Text: text, Chat: &tgbotapi.Chat{ID: 42}}
}

func newTestHandlers(t *testing.T, c Commentator) (*Handlers, *recordingSender, *stubDrawer) {
	sender := &recordingSender{}
	drawer := &stubDrawer{}
	h := NewHandlers(sender, stubRenderer{d: testDashboard(t)}, drawer, c, log.New(io.Discard, "", 0))
	return h, sender, drawer
}

func text(t *testing.T, c tgbotapi.Chattable) string {
	t.Helper()
	m, ok := c.(tgbotapi.MessageConfig)
	require.True(t, ok, "expected a text message, got %T", c)
	assert.Equal(t, int64(42), m.ChatID)
	return m.Text
}

func TestCommandPatterns(t *testing.T) {
	assert.True(t, reRates.MatchString("/rates"))
	assert.True(t, reRates.MatchString("/rates@RatesBot"))
	assert.False(t, reRates.MatchString("/rates now"))

	g := reChart.FindStringSubmatch("/chart curve 1y")
	require.Len(t, g, 3)
	assert.Equal(t, "curve", g[1])
	assert.Equal(t, "1y", g[2])

	g = reChart.FindStringSubmatch("/chart@RatesBot heatmap")
	require.NotNil(t, g)
	assert.Equal(t, "heatmap", g[1])
	assert.Equal(t, "", g[2])

	assert.True(t, reChart.MatchString("/chart"))
	assert.False(t, reChart.MatchString("/chart curve 7w"))
	assert.True(t, reHelp.MatchString("/start"))
}

func TestHandleRates(t *testing.T) {
	h, sender, _ := newTestHandlers(t, nil)
	h.HandleMessage(context.Background(), msg("/rates"))

	out := text(t, sender.last(t))
	assert.True(t, strings.HasPrefix(out, "Interest Rate Dashboard\n\n"))
	assert.Contains(t, out, "10Y Treasury Yield (2024-06-06): 10Y 4.29")
	assert.Contains(t, out, "Real Yields: unavailable")
	assert.Contains(t, out, "Equity Indices: no data")
}

func TestHandleChart(t *testing.T) {
	h, sender, drawer := newTestHandlers(t, nil)

	h.HandleMessage(context.Background(), msg("/chart 10y 1y"))
	photo, ok := sender.last(t).(tgbotapi.PhotoConfig)
	require.True(t, ok)
	assert.Equal(t, "10Y Treasury Yield • 1Y", photo.Caption)
	assert.Equal(t, charts.ParseWindow("1y"), drawer.window)

	h.HandleMessage(context.Background(), msg("/chart equities"))
	assert.Equal(t, "Equity Indices: no data", text(t, sender.last(t)))

	h.HandleMessage(context.Background(), msg("/chart real"))
	assert.Contains(t, text(t, sender.last(t)), "Couldn’t draw Real Yields")

	h.HandleMessage(context.Background(), msg("/chart bogus"))
	assert.Contains(t, text(t, sender.last(t)), `Unknown panel "bogus"`)

	h.HandleMessage(context.Background(), msg("/chart"))
	assert.Contains(t, text(t, sender.last(t)), "Usage: /chart PANEL")
}

func TestHandlePanels(t *testing.T) {
	h, sender, _ := newTestHandlers(t, nil)
	h.HandleMessage(context.Background(), msg("/panels"))

	out := text(t, sender.last(t))
	assert.Contains(t, out, "- 10y: 10Y Treasury Yield (ok)")
	assert.Contains(t, out, "- real: Real Yields (unavailable)")
	assert.Contains(t, out, "- equities: Equity Indices (no data)")
}

func TestHandleCommentary(t *testing.T) {
	h, sender, _ := newTestHandlers(t, nil)
	h.HandleMessage(context.Background(), msg("/commentary"))
	assert.Contains(t, text(t, sender.last(t)), "Commentary is disabled")

	c := &stubCommentator{}
	h, sender, _ = newTestHandlers(t, c)
	h.HandleMessage(context.Background(), msg("/commentary"))

	m, ok := sender.last(t).(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, "**Curve:** steeper.", m.Text)
	assert.Equal(t, "Markdown", m.ParseMode)
	assert.Len(t, c.lines, 3)
}

func TestHandleMessage_RenderFailure(t *testing.T) {
	sender := &recordingSender{}
	h := NewHandlers(sender, stubRenderer{err: context.Canceled}, &stubDrawer{}, nil, log.New(io.Discard, "", 0))
	h.HandleMessage(context.Background(), msg("/rates"))
	assert.Equal(t, "Dashboard failed: context canceled", text(t, sender.last(t)))
}

func TestHandleMessage_IgnoresChatter(t *testing.T) {
	h, sender, _ := newTestHandlers(t, nil)
	h.HandleMessage(context.Background(), msg("what are rates doing?"))
	h.HandleMessage(context.Background(), &tgbotapi.Message{Text: "/rates"})
	assert.Empty(t, sender.sent)
}

func TestServeUpdate(t *testing.T) {
	sender := &recordingSender{ch: make(chan tgbotapi.Chattable, 1)}
	h := NewHandlers(sender, stubRenderer{d: testDashboard(t)}, &stubDrawer{}, nil, log.New(io.Discard, "", 0))
	logger := log.New(io.Discard, "", 0)

	post := func(body string) int {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(body))
		serveUpdate(h, logger, rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusBadRequest, post("{not json"))
	assert.Equal(t, http.StatusOK, post(`{"update_id": 1}`))
	assert.Equal(t, http.StatusOK, post(`{"update_id": 2, "message": {"message_id": 7, "date": 1717689600, "chat": {"id": 42, "type": "private"}, "text": "/help"}}`))

	select {
	case c := <-sender.ch:
		assert.Contains(t, text(t, c), "/chart PANEL")
	case <-time.After(5 * time.Second):
		t.Fatal("no reply to /help")
	}
}
