package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"ratesDashboard/internal/charts"
	"ratesDashboard/internal/config"
	"ratesDashboard/internal/dashboard"
	"ratesDashboard/internal/fred"
	"ratesDashboard/internal/openai"
	"ratesDashboard/internal/series"
	"ratesDashboard/internal/server"
	"ratesDashboard/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []fred.ClientOption{
		fred.WithBaseURL(cfg.FREDBaseURL),
		fred.WithTimeout(cfg.RequestTimeout),
	}
	if cfg.ObservationStart != "" {
		opts = append(opts, fred.WithObservationStart(cfg.ObservationStart))
	}
	source := series.NewCache(fred.NewClient(cfg.FREDAPIKey, opts...))
	pipeline := dashboard.New(source)
	renderer := charts.NewRenderer(cfg.ChartCacheTTL)
	log.Printf("fred: client ready, base %s", cfg.FREDBaseURL)

	var commentator telegram.Commentator
	if cfg.OpenAIKey != "" {
		commentator = openai.NewCommentator(cfg.OpenAIKey)
		log.Println("openai: commentary enabled")
	}

	var webhook http.HandlerFunc
	if cfg.TelegramEnabled() {
		tg, err := telegram.NewBot(cfg.TelegramToken, cfg.WebhookPublicURL, pipeline, renderer, commentator)
		if err != nil {
			log.Fatal(err)
		}
		webhook = tg.WebhookHandler
		log.Printf("telegram: bot initialized, webhook target %s", cfg.WebhookPublicURL)
	}

	// fill the series cache so the first page view does not wait on FRED
	go func() {
		if _, err := pipeline.Render(ctx); err != nil {
			log.Printf("dashboard: warm-up aborted: %v", err)
		}
	}()

	mux := server.NewHTTPMux(server.Deps{
		Dashboard: pipeline,
		Charts:    renderer,
		Webhook:   webhook,
	})
	addr := ":" + cfg.Port
	log.Println("http: listening on", addr)
	if err := server.ListenAndServe(ctx, addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Println("server error:", err)
		os.Exit(1)
	}
	log.Println("http: shut down")
}
