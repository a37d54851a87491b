package main

import (
	"context"
	"database/sql"
	"log"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver

	"device-identifier/api/internal/classify"
	"device-identifier/api/internal/config"
	"device-identifier/api/internal/devicetext"
	"device-identifier/api/internal/devicetext/gemini"
	"device-identifier/api/internal/handle"
	"device-identifier/api/internal/imaging"
	"device-identifier/api/internal/pipeline"
	"device-identifier/api/internal/store"
)

func main() {
	cfg := config.Load()

	// Prefer platform PORT env var; fallback to cfg.Port
	if p := strings.TrimSpace(os.Getenv("PORT")); p != "" {
		cfg.Port = p
	}

	var history *store.HistoryRepo
	if cfg.DatabaseURL != "" {
		history = openHistory(cfg.DatabaseURL)
	} else {
		log.Printf("no DATABASE_URL set; identification history disabled")
	}

	p := &pipeline.Pipeline{
		Normalizer: &imaging.Normalizer{
			MaxBytes:     cfg.MaxFileSize,
			MaxDimension: cfg.MaxImageDimension,
			Quality:      cfg.JPEGQuality,
		},
		Classifier: classify.NewHuggingFace(cfg.HuggingFaceToken, cfg.HuggingFaceModelID, cfg.HuggingFaceTimeout),
		Extractor:  devicetext.NewService(gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel)),
		ModelID:    cfg.HuggingFaceModelID,
	}
	if history != nil {
		p.History = history
	}

	h := handle.New(cfg, p, history)

	mux := http.NewServeMux()
	mux.HandleFunc("/", handle.CORS(h.Root))
	mux.HandleFunc("/health", handle.CORS(h.Health))
	mux.HandleFunc("/identify", handle.CORS(h.Identify))
	mux.HandleFunc("/history", handle.CORS(h.History))

	addr := net.JoinHostPort(cfg.Host, cfg.Port)
	log.Printf("%s listening on %s", "device-identifier", addr)
	log.Printf("model: %s; huggingface configured: %v", cfg.HuggingFaceModelID, cfg.HuggingFaceToken != "")
	log.Fatal(http.ListenAndServe(addr, mux))
}

func openHistory(dsn string) *store.HistoryRepo {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatalf("sql.Open: %v", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(1 * time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("db.Ping: %v", err)
	}

	repo := store.NewHistoryRepo(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatalf("db schema: %v", err)
	}
	log.Printf("db connected; identification history enabled")
	return repo
}
