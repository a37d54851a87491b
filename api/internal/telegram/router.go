// Package telegram is a thin chat front-end over the identification
// pipeline: field technicians send a device photo and get the identification
// summary as a reply.
package telegram

import (
	"context"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"device-identifier/api/internal/config"
	"device-identifier/api/internal/pipeline"
)

type Router struct {
	Bot      *tgbotapi.BotAPI
	Pipeline *pipeline.Pipeline
	Cfg      *config.Config
}

func (r *Router) HandleUpdate(upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil {
		return
	}
	cid := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			r.send(cid, "Send a photo of your router, modem or ONT and I will identify it. Commands: /health")
		case "health":
			if r.Cfg.HuggingFaceToken == "" {
				r.send(cid, "⚠️ Hugging Face API token is not configured")
			} else {
				r.send(cid, fmt.Sprintf("✅ OK: model %s", r.Cfg.HuggingFaceModelID))
			}
		default:
			r.send(cid, "Unknown command")
		}
		return
	}

	if len(msg.Photo) > 0 || msg.Document != nil {
		r.acceptPhoto(msg)
		return
	}
	r.send(cid, "Send a device photo to identify it.")
}

func (r *Router) send(chatID int64, text string) {
	if _, err := r.Bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Printf("telegram send: %v", err)
	}
}

func (r *Router) sendError(chatID int64, err error) {
	r.send(chatID, "⚠️ "+err.Error())
}

// formatEnvelope renders the identification result as a chat reply.
func formatEnvelope(env *pipeline.Envelope) string {
	var b strings.Builder

	switch {
	case env.TopPrediction != nil:
		fmt.Fprintf(&b, "🔍 %s (%.1f%% confidence)\n", env.TopPrediction.Label, env.TopPrediction.Score*100)
	case env.Status == "model_loading":
		b.WriteString("⏳ The model is still loading, try again in a moment.\n")
	default:
		b.WriteString("🤷 Unable to classify the device.\n")
	}

	info := env.DeviceInfo
	if info.ProductType != "" && info.ProductType != "Unknown" {
		fmt.Fprintf(&b, "Product type: %s\n", info.ProductType)
	}
	if info.ModelNumber != "" {
		fmt.Fprintf(&b, "Model number: %s\n", info.ModelNumber)
	}
	if info.SerialNumber != "" {
		fmt.Fprintf(&b, "Serial number: %s\n", info.SerialNumber)
	}

	if env.ProblemDetected {
		fmt.Fprintf(&b, "\n❗ Problem: %s\n", env.ProblemDescription)
		if env.DispatchNote != "" {
			fmt.Fprintf(&b, "Dispatch: %s\n", env.DispatchNote)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *Router) identifyAndReply(ctx context.Context, chatID int64, up pipeline.Upload) {
	env, err := r.Pipeline.Identify(ctx, up)
	if err != nil {
		r.sendError(chatID, err)
		return
	}
	r.send(chatID, formatEnvelope(env))
}
