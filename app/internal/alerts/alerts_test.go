package alerts

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dotstatus/app/internal/config"
	"dotstatus/app/internal/models"
)

func testTarget() *models.Target {
	return &models.Target{ID: 7, Name: "alpha", BaseURL: "https://alpha.test"}
}

func waitFor(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()
	select {
	case b := <-ch:
		return b
	case <-time.After(2 * time.Second):
		t.Fatal("no request arrived")
		return nil
	}
}

func TestNotifyDown_Discord(t *testing.T) {
	got := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got <- b
	}))
	defer srv.Close()

	m := NewManager(&config.Config{DiscordWebhookURL: srv.URL})
	reason := "timeout"
	m.NotifyDown(testTarget(), "2026-05-10T11:00:00", &reason, nil)

	var payload struct {
		Username string `json:"username"`
		Embeds   []struct {
			Title string `json:"title"`
			Color int    `json:"color"`
		} `json:"embeds"`
	}
	if err := json.Unmarshal(waitFor(t, got), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Username != "DotStatus" {
		t.Errorf("username = %q", payload.Username)
	}
	if len(payload.Embeds) != 1 || payload.Embeds[0].Title != "alpha is DOWN" {
		t.Errorf("embeds = %+v", payload.Embeds)
	}
	if payload.Embeds[0].Color != 0xef4444 {
		t.Errorf("down color = %#x", payload.Embeds[0].Color)
	}
}

func TestNotifyUp_WebhookSigned(t *testing.T) {
	type captured struct {
		body []byte
		sig  string
	}
	got := make(chan captured, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got <- captured{body: b, sig: r.Header.Get("X-DotStatus-Signature")}
	}))
	defer srv.Close()

	m := NewManager(&config.Config{
		AlertWebhookURL:    srv.URL,
		AlertWebhookSecret: "s3cret",
	})
	m.NotifyUp(testTarget(), "2026-05-10T12:00:00")

	var c captured
	select {
	case c = <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("no request arrived")
	}

	mac := hmac.New(sha256.New, []byte("s3cret"))
	mac.Write(c.body)
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	if c.sig != want {
		t.Errorf("signature = %q, want %q", c.sig, want)
	}

	var payload struct {
		Event      string `json:"event"`
		TargetID   int64  `json:"target_id"`
		TargetName string `json:"target_name"`
		Status     string `json:"status"`
	}
	if err := json.Unmarshal(c.body, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Event != "status_change" || payload.TargetID != 7 || payload.Status != "up" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestDispatch_SkipsUnconfiguredChannels(t *testing.T) {
	hit := make(chan []byte, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		hit <- b
	}))
	defer srv.Close()

	// Only the webhook channel is configured.
	m := NewManager(&config.Config{AlertWebhookURL: srv.URL})
	reason := "http_503"
	m.NotifyDown(testTarget(), "2026-05-10T11:00:00", &reason, nil)

	waitFor(t, hit)
	select {
	case <-hit:
		t.Error("unexpected second channel fired")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestNotifyDown_ReasonDetail(t *testing.T) {
	got := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got <- b
	}))
	defer srv.Close()

	m := NewManager(&config.Config{AlertWebhookURL: srv.URL})
	reason := "http_503"
	status := 503
	m.NotifyDown(testTarget(), "2026-05-10T11:00:00", &reason, &status)

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(waitFor(t, got), &payload); err != nil {
		t.Fatal(err)
	}
	wantSub := "http_503 (HTTP 503)"
	if !strings.Contains(payload.Message, wantSub) {
		t.Errorf("message %q should mention %q", payload.Message, wantSub)
	}
}
