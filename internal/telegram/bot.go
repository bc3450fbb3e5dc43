package telegram

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// handleTimeout bounds the work started by one update.
const handleTimeout = 90 * time.Second

type Bot struct {
	api    *tgbotapi.BotAPI
	h      *Handlers
	logger *log.Logger
}

// NewBot registers the webhook with Telegram and wires the handlers.
func NewBot(token, webhookURL string, dash Renderer, drawer PanelDrawer, commentary Commentator) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	// set webhook
	webhook, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return nil, err
	}
	if _, err := api.Request(webhook); err != nil {
		return nil, err
	}
	logger := log.New(os.Stderr, "[telegram] ", log.LstdFlags)
	logger.Printf("webhook set to %s", webhookURL)

	h := NewHandlers(api, dash, drawer, commentary, logger)
	return &Bot{api: api, h: h, logger: logger}, nil
}

// WebhookHandler is registered at /telegram/webhook.
func (b *Bot) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	serveUpdate(b.h, b.logger, w, r)
}

func serveUpdate(h *Handlers, logger *log.Logger, w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "bad update", http.StatusBadRequest)
		return
	}
	if update.Message == nil || update.Message.Chat == nil {
		logger.Printf("webhook: non-message update received")
		w.WriteHeader(http.StatusOK)
		return
	}
	logger.Printf("webhook: chat_id=%d text=%q", update.Message.Chat.ID, update.Message.Text)
	go func(m *tgbotapi.Message) {
		ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
		defer cancel()
		h.HandleMessage(ctx, m)
	}(update.Message)
	w.WriteHeader(http.StatusOK)
}
