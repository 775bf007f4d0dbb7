package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/endedge/chatglue/internal/config"
	"github.com/endedge/chatglue/internal/convlock"
	"github.com/endedge/chatglue/internal/history"
	"github.com/endedge/chatglue/internal/host"
	"github.com/endedge/chatglue/internal/httpapi"
	"github.com/endedge/chatglue/internal/observability"
	"github.com/endedge/chatglue/internal/plugin"
	"github.com/endedge/chatglue/internal/provider"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	store, err := history.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("history store init failed: %v", err)
	}
	defer store.Close()

	completer, err := provider.New(provider.Config{
		Mode:    cfg.ProviderMode,
		APIKey:  cfg.ProviderAPIKey,
		BaseURL: cfg.ProviderBaseURL,
		Model:   cfg.ProviderModel,
		HTTPURL: cfg.ProviderHTTPURL,
		Timeout: cfg.ProviderTimeout,
	})
	if err != nil {
		log.Fatalf("provider init failed: %v", err)
	}

	service := plugin.NewService(plugin.Config{
		CommandPrefix: cfg.HostCommandPrefix,
		PromptTurns:   cfg.HistoryPromptTurns,
		MaxTurns:      cfg.HistoryMaxTurns,
	},
		history.NewManager(store),
		convlock.NewRegistry(cfg.LockRegistryMax),
		completer,
		metrics,
	)

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	if cfg.HostGatewayURL != "" {
		gateway := host.NewGateway(cfg.HostGatewayURL, cfg.HostGatewayToken, service)
		go func() {
			if err := gateway.Run(runCtx); err != nil {
				log.Fatalf("host gateway error: %v", err)
			}
		}()
	} else {
		log.Printf("HOST_GATEWAY_URL not set; serving HTTP hooks only")
	}

	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: httpapi.New(service).Router(),
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
}
