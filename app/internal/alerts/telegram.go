package alerts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// sendTelegram posts a message through the Telegram Bot API.
func (m *Manager) sendTelegram(targetName, subject, message string) {
	text := fmt.Sprintf("<b>%s</b>\n\n%s\n\n%s", subject, message, time.Now().Format(time.RFC1123))

	payload := map[string]any{
		"chat_id":    m.cfg.TelegramChatID,
		"text":       text,
		"parse_mode": "HTML",
	}

	body, _ := json.Marshal(payload)
	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", m.cfg.TelegramBotToken)
	resp, err := m.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		logSendResult("telegram", targetName, err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		logSendResult("telegram", targetName, fmt.Errorf("status %d", resp.StatusCode))
		return
	}
	logSendResult("telegram", targetName, nil)
}
