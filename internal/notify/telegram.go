package notify

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/guonaihong/gout"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const telegramAPI = "https://api.telegram.org"

// Telegram delivers backup files and notices to one chat through the Bot
// API. It satisfies the orchestrator's BackupSink.
type Telegram struct {
	api      string
	botToken string
	chatID   string
	timeout  time.Duration
}

func NewTelegram(botToken, chatID string) *Telegram {
	return &Telegram{
		api:      telegramAPI,
		botToken: botToken,
		chatID:   chatID,
		timeout:  30 * time.Second,
	}
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (t *Telegram) url(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", t.api, t.botToken, method)
}

// Verify checks the bot token against getMe. Called once at startup when
// the sink is enabled.
func (t *Telegram) Verify(ctx context.Context) error {
	var rsp telegramResponse
	var code int
	err := gout.GET(t.url("getMe")).
		WithContext(ctx).
		SetTimeout(t.timeout).
		BindJSON(&rsp).
		Code(&code).
		Do()
	if err != nil {
		return errors.Wrap(err, "telegram getMe")
	}
	if code != 200 || !rsp.OK {
		return errors.Errorf("telegram getMe rejected: status=%d description=%s", code, rsp.Description)
	}
	return nil
}

// SendMessage posts a plain text notice to the configured chat.
func (t *Telegram) SendMessage(ctx context.Context, text string) error {
	var rsp telegramResponse
	var code int
	err := gout.POST(t.url("sendMessage")).
		WithContext(ctx).
		SetTimeout(t.timeout).
		SetJSON(gout.H{
			"chat_id": t.chatID,
			"text":    text,
		}).
		BindJSON(&rsp).
		Code(&code).
		Do()
	if err != nil {
		return errors.Wrap(err, "telegram sendMessage")
	}
	if code != 200 || !rsp.OK {
		return errors.Errorf("telegram sendMessage rejected: status=%d description=%s", code, rsp.Description)
	}
	return nil
}

// SendFile uploads a document to the configured chat. The multipart body is
// assembled by hand because the payload lives in memory, not on disk.
func (t *Telegram) SendFile(ctx context.Context, filename string, content []byte, caption string) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("chat_id", t.chatID)
	_ = w.WriteField("caption", caption)
	part, err := w.CreateFormFile("document", filename)
	if err != nil {
		return errors.Wrap(err, "build telegram upload")
	}
	if _, err := part.Write(content); err != nil {
		return errors.Wrap(err, "build telegram upload")
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "build telegram upload")
	}

	var rsp telegramResponse
	var code int
	err = gout.POST(t.url("sendDocument")).
		WithContext(ctx).
		SetTimeout(t.timeout).
		SetHeader(gout.H{"Content-Type": w.FormDataContentType()}).
		SetBody(buf.Bytes()).
		BindJSON(&rsp).
		Code(&code).
		Do()
	if err != nil {
		return errors.Wrap(err, "telegram sendDocument")
	}
	if code != 200 || !rsp.OK {
		return errors.Errorf("telegram sendDocument rejected: status=%d description=%s", code, rsp.Description)
	}
	zap.L().Info("telegram document sent", zap.String("filename", filename))
	return nil
}
