package alerts

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"dotstatus/app/internal/models"
)

// sendWebhook posts a JSON payload to a generic webhook, signing the
// body with HMAC-SHA256 when a secret is configured.
func (m *Manager) sendWebhook(state string, t *models.Target, subject, message string) {
	payload := map[string]any{
		"event":       "status_change",
		"target_id":   t.ID,
		"target_name": t.Name,
		"status":      state,
		"subject":     subject,
		"message":     message,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	}

	body, _ := json.Marshal(payload)

	req, err := http.NewRequest(http.MethodPost, m.cfg.AlertWebhookURL, bytes.NewReader(body))
	if err != nil {
		logSendResult("webhook", t.Name, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "DotStatus")

	if m.cfg.AlertWebhookSecret != "" {
		mac := hmac.New(sha256.New, []byte(m.cfg.AlertWebhookSecret))
		mac.Write(body)
		req.Header.Set("X-DotStatus-Signature", "sha256="+hex.EncodeToString(mac.Sum(nil)))
	}

	resp, err := m.client.Do(req)
	if err != nil {
		logSendResult("webhook", t.Name, err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		logSendResult("webhook", t.Name, fmt.Errorf("status %d", resp.StatusCode))
		return
	}
	logSendResult("webhook", t.Name, nil)
}
