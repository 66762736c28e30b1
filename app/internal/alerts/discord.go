package alerts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// sendDiscord posts a rich embed to a Discord webhook.
func (m *Manager) sendDiscord(state, targetName, subject, message string) {
	colors := map[string]int{"down": 0xef4444, "up": 0x22c55e}

	payload := map[string]any{
		"username": "DotStatus",
		"embeds": []map[string]any{
			{
				"title":       subject,
				"description": message,
				"color":       colors[state],
				"fields": []map[string]any{
					{"name": "Target", "value": targetName, "inline": true},
					{"name": "Status", "value": strings.ToUpper(state), "inline": true},
					{"name": "Time", "value": time.Now().Format(time.RFC1123), "inline": false},
				},
				"footer": map[string]string{"text": "DotStatus"},
			},
		},
	}

	body, _ := json.Marshal(payload)
	resp, err := m.client.Post(m.cfg.DiscordWebhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		logSendResult("discord", targetName, err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		logSendResult("discord", targetName, fmt.Errorf("status %d", resp.StatusCode))
		return
	}
	logSendResult("discord", targetName, nil)
}
