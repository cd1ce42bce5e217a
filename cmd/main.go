package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"price-alert-bot/config"
	"price-alert-bot/internal/alert"
	"price-alert-bot/internal/chart"
	"price-alert-bot/internal/commands"
	"price-alert-bot/internal/database"
	"price-alert-bot/internal/history"
	"price-alert-bot/internal/metrics"
	"price-alert-bot/internal/monitor"
	"price-alert-bot/internal/price"
	"price-alert-bot/internal/telegram"
	"price-alert-bot/lib/translation"
	"runtime"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// metricsSaveInterval is how often counters are written to the database
const metricsSaveInterval = 5 * time.Minute

func main() {
	settings, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	setupLogging(settings)

	translation.Configure("locales", settings.Lang)
	log.WithField("lang", translation.GetLanguage()).Debug("Message catalog configured")

	store, err := database.Open(settings.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	metrics.Register(prometheus.DefaultRegisterer)
	metrics.LoadFrom(context.Background(), store)

	source, err := price.NewSource(price.Options{
		Provider:         settings.PriceSource,
		CoinGeckoBaseURL: settings.CoinGeckoBaseURL,
		APIProKey:        settings.APIProKey,
		Timeout:          settings.HTTPTimeout,
	})
	if err != nil {
		log.Fatalf("Failed to create price source: %v", err)
	}

	renderer, err := chart.NewRenderer(chart.Options{FontPath: settings.ChartFont})
	if err != nil {
		log.Fatalf("Failed to create chart renderer: %v", err)
	}

	bot, err := telegram.NewBot(telegram.BotConfig{
		Token:          settings.TelegramToken,
		ChatID:         settings.ChatID,
		Debug:          settings.Debug,
		UpdatesTimeout: 60,
	})
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	dispatcher := alert.NewDispatcher(alert.Config{
		Source:    source,
		Renderer:  renderer,
		Notifier:  bot,
		Journal:   store,
		ChartDays: settings.ChartDays,
		ImageDir:  settings.ImageDir,
	})

	prices := history.NewStore(settings.HistorySize)
	mon := monitor.New(monitor.Config{
		Source:          source,
		Dispatcher:      dispatcher,
		History:         prices,
		Threshold:       settings.Threshold,
		Interval:        settings.CheckInterval,
		StartupAttempts: settings.StartupAttempts,
	})

	bot.Commands = &commands.Handler{
		History:   prices,
		Overview:  dispatcher,
		Journal:   store,
		Threshold: settings.Threshold,
		Interval:  settings.CheckInterval,
		Cache:     chart.NewCache(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"source":    source.Name(),
		"threshold": settings.Threshold,
		"interval":  settings.CheckInterval,
	}).Info("Starting price alert bot...")

	// a missing baseline is fatal, nothing else runs without one
	if err := mon.Start(ctx); err != nil {
		metrics.SaveTo(context.Background(), store)
		log.Fatalf("Failed to start price monitor: %v", err)
	}

	updates, err := bot.GetUpdatesChannel()
	if err != nil {
		log.Fatalf("Failed to get updates channel: %v", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return mon.Loop(gctx)
	})

	g.Go(func() error {
		handleUpdates(gctx, bot, updates)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		bot.StopUpdates()
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(metricsSaveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				metrics.SaveTo(gctx, store)
			}
		}
	})

	g.Go(func() error {
		return launchMetricsAndHealthServer(gctx, settings.MetricsPort)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Errorf("Shutting down after error: %v", err)
	}

	metrics.SaveTo(context.Background(), store)
	log.Println("Metrics saved, shutting down...")
}

func setupLogging(settings config.Settings) {
	level, err := log.ParseLevel(settings.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if settings.Debug {
		log.SetLevel(log.DebugLevel)
	}
	log.Debug("Starting telegram bot...")
}

func handleUpdates(ctx context.Context, bot *telegram.Bot, updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		if !bot.Accepts(update) {
			log.Debug("Ignoring non-command or update from a foreign chat")
			continue
		}

		metrics.MessagesHandled.Inc()
		handleCommand(ctx, bot, update)
	}
}

func handleCommand(ctx context.Context, bot *telegram.Bot, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			stackBuf := make([]byte, 1024)
			stackSize := runtime.Stack(stackBuf, false)
			stackTrace := bytes.TrimRight(stackBuf[:stackSize], "\x00")
			log.Errorf("Recovered from panic: %v\nStack trace: %s", r, stackTrace)
		}
	}()

	text := bot.HandleUpdate(ctx, update)
	if text == "" {
		metrics.CommandsProcessed.Inc()
		return
	}

	err := bot.SendMessage(telegram.Message{
		ChatID:    update.Message.Chat.ID,
		Text:      text,
		MessageID: update.Message.MessageID,
	})

	if err != nil {
		log.Errorf("Failed to send message: %v", err)
	} else {
		metrics.CommandsProcessed.Inc()
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func launchMetricsAndHealthServer(ctx context.Context, port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthCheckHandler)

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Infof("Launching metrics and health endpoint on :%d", port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
