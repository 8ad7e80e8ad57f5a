package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/technosupport/arena-watch/internal/analysis"
	"github.com/technosupport/arena-watch/internal/simulator"
)

// queue group so several responders share the subject
const queueGroup = "arena-analyzers"

func main() {
	natsURL := getEnv("NATS_URL", nats.DefaultURL)
	subject := getEnv("ANALYSIS_SUBJECT", analysis.DefaultSubject)
	latency := time.Duration(getEnvInt("AI_LATENCY_MS", int(analysis.DefaultLatency/time.Millisecond))) * time.Millisecond
	timeout := time.Duration(getEnvInt("AI_TIMEOUT_MS", int(analysis.DefaultTimeout/time.Millisecond))) * time.Millisecond
	healthPort := getEnv("AI_HEALTH_PORT", "8090")

	log.Printf("[AI Service] Starting - NATS: %s, Subject: %s, Latency: %v", natsURL, subject, latency)

	gen := simulator.NewGenerator(simulator.DefaultGeneratorConfig(), nil, nil)
	counted := analysis.NewInstrumentedAnalyzer(analysis.NewMockAnalyzer(gen, latency))
	analyzer := loggingAnalyzer{counted}

	nc, err := nats.Connect(natsURL,
		nats.Name("arena-ai-service"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("[AI Service] NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Printf("[AI Service] NATS reconnected to %s", c.ConnectedUrl())
		}),
	)
	if err != nil {
		log.Fatalf("[AI Service] NATS connection failed: %v", err)
	}
	defer nc.Drain()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err = nc.QueueSubscribe(subject, queueGroup, func(msg *nats.Msg) {
		go respond(ctx, analyzer, timeout, msg)
	})
	if err != nil {
		log.Fatalf("[AI Service] Subscribe %s failed: %v", subject, err)
	}
	log.Printf("[AI Service] Listening on %s (queue %s)", subject, queueGroup)

	go startHealthServer(healthPort, nc, counted)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Printf("[AI Service] Shutting down")
}

type loggingAnalyzer struct {
	analysis.Analyzer
}

func (l loggingAnalyzer) Analyze(ctx context.Context, m analysis.Media) (analysis.Result, error) {
	res, err := l.Analyzer.Analyze(ctx, m)
	if err != nil {
		log.Printf("[AI Service] Analysis of %s failed: %v", m.ID, err)
		return res, err
	}
	log.Printf("[AI Service] Analyzed %s (%s): %s %d%%", m.ID, m.Name, res.Outcome, res.Confidence)
	return res, nil
}

func respond(ctx context.Context, a analysis.Analyzer, timeout time.Duration, msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := msg.Respond(analysis.HandleRequest(ctx, a, msg.Data)); err != nil {
		log.Printf("[AI Service] Respond failed: %v", err)
	}
}

func startHealthServer(port string, nc *nats.Conn, counted *analysis.InstrumentedAnalyzer) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":         "ok",
			"nats_connected": nc.IsConnected(),
			"requests_total": counted.Requests(),
			"failures_total": counted.Failures(),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())

	log.Printf("[AI Service] Health on :%s", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Printf("[ERROR] AI Service health server: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
