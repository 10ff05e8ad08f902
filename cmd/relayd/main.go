package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/tradevault/relay/params"
	"github.com/tradevault/relay/pkg/api"
	"github.com/tradevault/relay/pkg/executor"
	"github.com/tradevault/relay/pkg/notify"
	"github.com/tradevault/relay/pkg/relay"
	"github.com/tradevault/relay/pkg/storage"
	"github.com/tradevault/relay/pkg/util"
	"github.com/tradevault/relay/pkg/vault"
	"github.com/tradevault/relay/pkg/venue"
)

func main() {
	// Config is loaded once; a bad master key stops the process here,
	// never at order time.
	cfg, err := params.LoadFromEnv("")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// Console-only logging by default; LOG_FILE tees to a file.
	var logger *zap.Logger
	if logFile := os.Getenv("LOG_FILE"); logFile != "" {
		logger, err = util.NewLoggerWithFile(logFile)
	} else {
		logger, err = util.NewLogger()
	}
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	v, err := vault.New(cfg.MasterKey)
	if err != nil {
		sugar.Fatalw("vault_init_failed", "err", err)
	}

	store, err := storage.Open(cfg.DataDir)
	if err != nil {
		sugar.Fatalw("storage_open_failed", "dir", cfg.DataDir, "err", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Trade-event channel ----
	channel, err := relay.NewChannel(ctx, relay.ChannelConfig{
		ListenAddr: cfg.Relay.ListenAddr,
		Bootstrap:  cfg.Relay.Bootstrap,
		Topic:      cfg.Relay.Topic,
		Logger:     sugar,
	})
	if err != nil {
		sugar.Fatalw("relay_channel_failed", "err", err)
	}
	defer channel.Close()

	// The actual bound addresses, not just the configured one: these
	// are what other relay nodes bootstrap against.
	sugar.Infow("relay_listening",
		"peer", channel.Host().ID().String(),
		"addrs", channel.Host().Addrs())

	publisher := relay.NewPublisher(channel, sugar)

	// ---- Alert subscriber ----
	var notifier relay.Notifier
	if cfg.Notify.TelegramToken != "" {
		notifier = notify.NewTelegram(cfg.Notify.TelegramToken, cfg.Notify.TelegramAPI, sugar)
		sugar.Info("telegram alerts enabled")
	} else {
		notifier = notify.LogNotifier{Log: sugar}
		sugar.Info("no telegram token configured, alerts go to the log")
	}

	subscriber, err := relay.NewSubscriber(channel, notifier, sugar)
	if err != nil {
		sugar.Fatalw("subscribe_failed", "err", err)
	}
	go subscriber.Run(ctx)

	// ---- Order execution ----
	exec := executor.New(executor.Deps{
		Vault:     v,
		Venue:     venue.NewClient(cfg.Venue.URL, cfg.Venue.Timeout, sugar),
		Publisher: publisher,
		Trades:    store,
		Nonces:    executor.NewNonceAllocator(util.RealClock{}),
		Logger:    sugar,
	})

	// ---- API server ----
	server := api.NewServer(v, store, exec, sugar)
	go func() {
		if err := server.Start(cfg.APIAddr); err != nil {
			sugar.Fatalw("api_server_failed", "err", err)
		}
	}()

	sugar.Infow("relayd_started",
		"api_addr", cfg.APIAddr,
		"venue_url", cfg.Venue.URL,
		"topic", cfg.Relay.Topic)

	<-ctx.Done()
	sugar.Info("shutting down, draining background publishes")
	exec.Wait()
}
