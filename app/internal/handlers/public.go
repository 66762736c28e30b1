package handlers

import (
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"dotstatus/app/internal/database"
	"dotstatus/app/internal/metrics"
	"dotstatus/app/internal/models"
)

// targetCard is the read model behind one status card.
type targetCard struct {
	Target    *models.Target     `json:"target"`
	Host      string             `json:"host"`
	Clickable bool               `json:"clickable"`
	Href      string             `json:"href"`
	Last      *models.Snapshot   `json:"last"`
	Uptime24h *float64           `json:"uptime_24h"`
	Uptime7d  *float64           `json:"uptime_7d"`
	Uptime30d *float64           `json:"uptime_30d"`
	Uptime90d *float64           `json:"uptime_90d"`
	Bars90d   []metrics.DailyBar `json:"bars_90d"`
}

// handleTargetCards returns one card per target with its latest
// snapshot, uptime windows and 90-day bars. Uptime fields are null
// (not 0) when a window has no data.
func (s *Server) handleTargetCards(w http.ResponseWriter, r *http.Request) {
	if v, ok := s.Cache.Get("cards"); ok {
		writeJSON(w, http.StatusOK, v)
		return
	}

	targets, err := database.ListTargets()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "loading targets failed")
		return
	}

	now := time.Now()
	cards := make([]targetCard, 0, len(targets))
	for _, t := range targets {
		card := targetCard{
			Target:    t,
			Host:      hostOnly(t.BaseURL),
			Clickable: t.PublicClick,
			Href:      t.BaseURL,
		}
		if card.Last, err = s.Agg.Latest(t.ID); err != nil {
			log.Printf("cards: latest snapshot for target %d: %v", t.ID, err)
		}
		uptime := func(hours int) *float64 {
			pct, err := s.Agg.UptimePercent(t.ID, hours, now)
			if err != nil {
				log.Printf("cards: %dh uptime for target %d: %v", hours, t.ID, err)
			}
			return pct
		}
		card.Uptime24h = uptime(24)
		card.Uptime7d = uptime(24 * 7)
		card.Uptime30d = uptime(24 * 30)
		card.Uptime90d = uptime(24 * 90)
		if card.Bars90d, err = s.Agg.DailyBars(t.ID, 90, now); err != nil {
			log.Printf("cards: daily bars for target %d: %v", t.ID, err)
		}
		cards = append(cards, card)
	}

	payload := map[string]any{
		"tz":    s.Cfg.Timezone,
		"cards": cards,
	}
	s.Cache.Set("cards", payload)
	writeJSON(w, http.StatusOK, payload)
}

// handleLatency returns the latency series for one target over the
// last 48 hours (overridable via ?hours=).
func (s *Server) handleLatency(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid target id")
		return
	}
	t, err := database.GetTarget(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "loading target failed")
		return
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "target not found")
		return
	}

	hours := 48
	if q := r.URL.Query().Get("hours"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n >= 1 && n <= 24*90 {
			hours = n
		}
	}

	series, err := s.Agg.Latency(id, hours, time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "loading latency failed")
		return
	}
	writeJSON(w, http.StatusOK, series)
}

// handleEvents returns the most recent outage events, newest first.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n >= 1 && n <= 200 {
			limit = n
		}
	}
	evs, err := database.ListRecentEvents(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "loading events failed")
		return
	}
	if evs == nil {
		evs = []*models.Event{}
	}
	writeJSON(w, http.StatusOK, evs)
}

// hostOnly reduces a URL to its host for display.
func hostOnly(raw string) string {
	u, err := url.Parse(raw)
	if err == nil && u.Host != "" {
		return u.Host
	}
	h := strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	return strings.TrimRight(h, "/")
}
