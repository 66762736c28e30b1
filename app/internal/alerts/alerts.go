package alerts

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"dotstatus/app/internal/config"
	"dotstatus/app/internal/models"
)

// Manager fans target up/down transitions out to the configured alert
// channels. Channels without configuration are skipped; a failing
// channel is logged and never blocks the others or the poll loop.
type Manager struct {
	cfg    *config.Config
	client *http.Client
}

// NewManager builds a manager over the channel settings in cfg.
func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// NotifyDown announces a newly opened outage.
func (m *Manager) NotifyDown(t *models.Target, bucket string, reason *string, httpStatus *int) {
	detail := "no response"
	if reason != nil {
		detail = *reason
	}
	if httpStatus != nil {
		detail = fmt.Sprintf("%s (HTTP %d)", detail, *httpStatus)
	}
	subject := fmt.Sprintf("%s is DOWN", t.Name)
	message := fmt.Sprintf("%s stopped responding at %s: %s", t.Name, bucket, detail)
	m.dispatch("down", t, subject, message)
}

// NotifyUp announces a closed outage.
func (m *Manager) NotifyUp(t *models.Target, bucket string) {
	subject := fmt.Sprintf("%s is UP", t.Name)
	message := fmt.Sprintf("%s recovered at %s.", t.Name, bucket)
	m.dispatch("up", t, subject, message)
}

func (m *Manager) dispatch(state string, t *models.Target, subject, message string) {
	if m.cfg.DiscordWebhookURL != "" {
		go m.sendDiscord(state, t.Name, subject, message)
	}
	if m.cfg.TelegramBotToken != "" && m.cfg.TelegramChatID != "" {
		go m.sendTelegram(t.Name, subject, message)
	}
	if m.cfg.AlertWebhookURL != "" {
		go m.sendWebhook(state, t, subject, message)
	}
	if m.cfg.SMTPHost != "" && m.cfg.AlertEmail != "" {
		go m.sendEmail(t.Name, subject, message)
	}
}

func logSendResult(channel, target string, err error) {
	if err != nil {
		log.Printf("alert %s: target=%s failed: %v", channel, target, err)
		return
	}
	log.Printf("alert %s: target=%s sent", channel, target)
}
