package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"device-identifier/api/internal/classify"
	"device-identifier/api/internal/config"
	"device-identifier/api/internal/devicetext"
	"device-identifier/api/internal/devicetext/gemini"
	"device-identifier/api/internal/imaging"
	"device-identifier/api/internal/pipeline"
	"device-identifier/api/internal/telegram"
)

func main() {
	cfg := config.Load()
	if strings.TrimSpace(cfg.TelegramBotToken) == "" {
		log.Fatal("missing required env TELEGRAM_BOT_TOKEN")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatal(err)
	}
	bot.Debug = false

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

	r := &telegram.Router{
		Bot:      bot,
		Pipeline: p,
		Cfg:      cfg,
	}

	// Liveness endpoint for the hosting platform; the bot itself polls.
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		addr := ":" + cfg.Port
		log.Printf("health server listening on %s/healthz", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Fatal(err)
		}
	}()

	log.Printf("bot authorized as @%s", bot.Self.UserName)
	runPolling(context.Background(), bot, r.HandleUpdate)
}

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

func retryDelayFromError(err error) time.Duration {
	if err == nil {
		return 0
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") {
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return 2 * time.Second
	}
	return 1 * time.Second
}

func runPolling(ctx context.Context, bot *tgbotapi.BotAPI, handle func(tgbotapi.Update)) {
	offset := 0
	baseDelay := 1 * time.Second
	maxDelay := 15 * time.Second

	for {
		select {
		case <-ctx.Done():
			log.Printf("polling: context cancelled")
			return
		default:
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = 30 // long polling timeout (sec)

		updates, err := bot.GetUpdates(u)
		if err != nil {
			d := retryDelayFromError(err)
			if d < baseDelay {
				d = baseDelay
			}
			if d > maxDelay {
				d = maxDelay
			}
			log.Printf("polling error: %v; retry in %v", err, d)
			time.Sleep(d)
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			handle(upd)
		}

		if len(updates) == 0 {
			time.Sleep(200 * time.Millisecond)
		}
	}
}
