package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"device-identifier/api/internal/pipeline"
	"device-identifier/api/internal/util"
)

func (r *Router) acceptPhoto(msg *tgbotapi.Message) {
	cid := msg.Chat.ID

	var (
		fileID      string
		filename    string
		contentType string
	)
	switch {
	case msg.Document != nil:
		fileID = msg.Document.FileID
		filename = msg.Document.FileName
		contentType = msg.Document.MimeType
	default:
		// Largest size is last in the photo array.
		ph := msg.Photo[len(msg.Photo)-1]
		fileID = ph.FileID
	}

	tf, err := r.Bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		r.sendError(cid, fmt.Errorf("could not fetch file: %w", err))
		return
	}
	if filename == "" {
		filename = path.Base(tf.FilePath)
	}

	url := fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", r.Bot.Token, tf.FilePath)
	img, err := download(url)
	if err != nil {
		r.sendError(cid, fmt.Errorf("could not download photo: %w", err))
		return
	}

	r.send(cid, "Got the photo, analyzing…")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	r.identifyAndReply(ctx, cid, pipeline.Upload{
		Data:        img,
		ContentType: util.PickMIME(contentType, img),
		Filename:    filename,
	})
}

func download(url string) ([]byte, error) {
	resp, err := httpClient().Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(b))
	}
	return io.ReadAll(resp.Body)
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}
