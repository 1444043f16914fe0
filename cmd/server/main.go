package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"kiriman/internal/corrector"
	"kiriman/internal/handler"
	"kiriman/internal/store"
	"kiriman/internal/wilayah"
)

func main() {
	port := flag.Int("port", 8006, "HTTP server port")
	dbPath := flag.String("db", "kiriman.db", "SQLite database path")
	baseURL := flag.String("wilayah-base", wilayah.DefaultBaseURL, "Administrative-area lookup service base URL")
	threshold := flag.Float64("threshold", corrector.DefaultThreshold, "Fuzzy match acceptance threshold")
	logLevel := flag.String("log-level", "info", "Log level (debug|info|warn|error)")
	flag.Parse()

	logger, err := buildLogger(*logLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	st, err := store.Open(*dbPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.String("path", *dbPath), zap.Error(err))
	}
	defer st.Close()

	lookup := wilayah.NewClient(*baseURL, st, logger)
	co := corrector.New(lookup, logger, *threshold)
	h := handler.NewHandler(st, co, lookup, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/parse", h.Parse)
	mux.HandleFunc("/correct", h.Correct)
	mux.HandleFunc("/contacts", h.Contacts)
	mux.HandleFunc("/cache/clear", h.ClearCache)
	mux.HandleFunc("/healthz", h.Health)

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting server", zap.String("addr", addr), zap.String("wilayah_base", *baseURL))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func buildLogger(level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.Set(level); err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
