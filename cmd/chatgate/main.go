package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AlexKimmel/chatgate/internal/admission"
	"github.com/AlexKimmel/chatgate/internal/admission/memory"
	"github.com/AlexKimmel/chatgate/internal/config"
	"github.com/AlexKimmel/chatgate/internal/gateway"
	"github.com/AlexKimmel/chatgate/internal/handler"
	"github.com/AlexKimmel/chatgate/internal/obs"
	"github.com/AlexKimmel/chatgate/internal/upstream"
)

func main() {

	cfg, err := config.Load("./config.yaml")

	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := obs.SetupLogger(cfg.Observability.LogLevel)
	logger.Info().Msg("Setup logger")

	up, err := upstream.New(cfg.Upstream.URL, cfg.Upstream.Timeout(), cfg.Upstream.TestTimeout())
	if err != nil {
		log.Fatalf("upstream client: %v", err)
	}

	// store + gate
	store := memory.New()
	defer func() { _ = store.Close() }()

	gate := admission.Gate{
		Allowlist: admission.NewAllowlist(cfg.Allowlist),
		Store:     store,
		Policy: admission.Policy{
			MaxPerMinute:  cfg.Admission.MaxPerMinute,
			MaxPerHour:    cfg.Admission.MaxPerHour,
			BlockDuration: cfg.Admission.BlockDuration(),
		},
	}

	reg := prometheus.NewRegistry()
	metrics := obs.NewMetrics(reg)
	rejected := func(code string) {
		metrics.AdmissionRejected.WithLabelValues(code).Inc()
	}

	h := &handler.Handler{
		Log:        logger,
		Gate:       gate,
		Upstream:   up,
		OnRejected: rejected,
		OnUpstreamFailure: func(kind string) {
			metrics.UpstreamFailures.WithLabelValues(kind).Inc()
		},
	}

	promPath := cfg.Observability.PrometheusPath

	mux := http.NewServeMux()
	mux.HandleFunc("/", h.Index)
	mux.HandleFunc("/chat", h.Chat)
	mux.HandleFunc("/test-api", h.TestAPI)
	mux.HandleFunc("/status", h.Status)
	mux.HandleFunc("/admin/ip-stats", h.Stats)
	mux.Handle(promPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	// /chat gates itself after payload validation; index, status and
	// metrics are exempt entirely
	skipGate := map[string]struct{}{
		"/":       {},
		"/chat":   {},
		"/status": {},
		promPath:  {},
	}

	chained := gateway.Chain(
		mux,
		gateway.Recover(logger),
		obs.Logger(logger),
		metrics.Middleware(map[string]struct{}{promPath: {}}),
		gateway.BodyLimit(int(cfg.Server.MaxBody())),
		gateway.Admission(gate, skipGate, rejected),
	)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           chained,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout(),
		IdleTimeout:       cfg.Server.IdleTimeout(),
		ReadTimeout:       cfg.Server.ReadTimeout(),
	}

	// start
	go func() {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
	log.Printf("bye")
}
