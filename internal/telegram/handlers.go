package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ratesDashboard/internal/charts"
	"ratesDashboard/internal/dashboard"
)

var (
	// /rates
	reRates = regexp.MustCompile(`^/rates(?:@[\w_]+)?$`)
	// /chart PANEL [1m|3m|6m|1y|2y|5y|10y|max]
	reChart = regexp.MustCompile(`^/chart(?:@[\w_]+)?(?:\s+([a-z0-9_-]+))?(?:\s+(1m|3m|6m|1y|2y|5y|10y|max))?$`)
	// /panels
	rePanels = regexp.MustCompile(`^/panels(?:@[\w_]+)?$`)
	// /commentary
	reCommentary = regexp.MustCompile(`^/commentary(?:@[\w_]+)?$`)
	// /help
	reHelp = regexp.MustCompile(`^/(help|start)(?:@[\w_]+)?$`)
)

// Sender is the part of *tgbotapi.BotAPI the handlers use.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Renderer interface {
	Render(ctx context.Context) (*dashboard.Dashboard, error)
}

type PanelDrawer interface {
	Panel(p *dashboard.Panel, window time.Duration) ([]byte, error)
}

type Commentator interface {
	Comment(ctx context.Context, lines []string) (string, error)
}

type Handlers struct {
	api        Sender
	dash       Renderer
	charts     PanelDrawer
	commentary Commentator
	logger     *log.Logger
}

// NewHandlers wires the chat commands. commentary may be nil.
func NewHandlers(api Sender, dash Renderer, drawer PanelDrawer, commentary Commentator, logger *log.Logger) *Handlers {
	return &Handlers{api: api, dash: dash, charts: drawer, commentary: commentary, logger: logger}
}

func (h *Handlers) HandleMessage(ctx context.Context, m *tgbotapi.Message) {
	if m == nil || m.Chat == nil {
		return
	}
	txt := strings.TrimSpace(m.Text)
	switch {
	case reRates.MatchString(txt):
		h.handleRates(ctx, m.Chat.ID)

	case reChart.MatchString(txt):
		g := reChart.FindStringSubmatch(txt)
		if g[1] == "" {
			h.reply(m.Chat.ID, "Usage: /chart PANEL [1m|3m|6m|1y|2y|5y|10y|max]\nPanels: "+strings.Join(dashboard.PanelIDs(), ", "))
			return
		}
		h.handleChart(ctx, m.Chat.ID, g[1], g[2])

	case rePanels.MatchString(txt):
		h.handlePanels(ctx, m.Chat.ID)

	case reCommentary.MatchString(txt):
		h.handleCommentary(ctx, m.Chat.ID)

	case reHelp.MatchString(txt):
		h.handleHelp(m.Chat.ID)
	}
}

func (h *Handlers) handleRates(ctx context.Context, chatID int64) {
	d, err := h.dash.Render(ctx)
	if err != nil {
		h.reply(chatID, "Dashboard failed: "+err.Error())
		return
	}
	h.reply(chatID, d.Title+"\n\n"+strings.Join(d.Summary(), "\n"))
}

func (h *Handlers) handleChart(ctx context.Context, chatID int64, id, window string) {
	d, err := h.dash.Render(ctx)
	if err != nil {
		h.reply(chatID, "Dashboard failed: "+err.Error())
		return
	}
	p, ok := d.Panel(id)
	if !ok {
		h.reply(chatID, fmt.Sprintf("Unknown panel %q. Panels: %s", id, strings.Join(dashboard.PanelIDs(), ", ")))
		return
	}
	img, err := h.charts.Panel(p, charts.ParseWindow(window))
	switch {
	case errors.Is(err, charts.ErrNoData):
		h.reply(chatID, p.Title+": no data")
		return
	case err != nil:
		h.reply(chatID, fmt.Sprintf("Couldn’t draw %s: %v", p.Title, err))
		return
	}
	if window == "" {
		window = "max"
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: p.ID + "_" + window + ".png", Bytes: img})
	photo.Caption = p.Title + " • " + strings.ToUpper(window)
	h.send(photo)
}

func (h *Handlers) handlePanels(ctx context.Context, chatID int64) {
	d, err := h.dash.Render(ctx)
	if err != nil {
		h.reply(chatID, "Dashboard failed: "+err.Error())
		return
	}
	var b strings.Builder
	b.WriteString("Panels\n")
	for _, p := range d.Panels() {
		fmt.Fprintf(&b, "\n- %s: %s (%s)", p.ID, p.Title, p.Status())
	}
	h.reply(chatID, b.String())
}

func (h *Handlers) handleCommentary(ctx context.Context, chatID int64) {
	if h.commentary == nil {
		h.reply(chatID, "Commentary is disabled: OPENAI_API_KEY is not set.")
		return
	}
	d, err := h.dash.Render(ctx)
	if err != nil {
		h.reply(chatID, "Dashboard failed: "+err.Error())
		return
	}
	out, err := h.commentary.Comment(ctx, d.Summary())
	if err != nil {
		h.reply(chatID, "Commentary failed: "+err.Error())
		return
	}
	msg := tgbotapi.NewMessage(chatID, out)
	msg.ParseMode = "Markdown"
	h.send(msg)
}

func (h *Handlers) handleHelp(chatID int64) {
	help := "Commands\n\n" +
		"- /rates - Latest value of every panel\n" +
		"- /chart PANEL [1m|3m|6m|1y|2y|5y|10y|max] - Panel chart, full history by default\n" +
		"- /panels - Panel ids and their status\n" +
		"- /commentary - Short AI commentary on the latest values\n" +
		"\nPanels: " + strings.Join(dashboard.PanelIDs(), ", ") +
		"\nData source: FRED, daily closes."
	h.reply(chatID, help)
}

func (h *Handlers) reply(chatID int64, text string) {
	h.send(tgbotapi.NewMessage(chatID, text))
}

func (h *Handlers) send(c tgbotapi.Chattable) {
	if _, err := h.api.Send(c); err != nil {
		h.logger.Printf("telegram: send failed: %v", err)
	}
}
