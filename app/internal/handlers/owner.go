package handlers

import (
	"crypto/subtle"
	"encoding/csv"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"dotstatus/app/internal/database"
	"dotstatus/app/internal/models"
	"dotstatus/app/internal/timeutil"
	"dotstatus/app/internal/updates"
)

// ownerAuth guards the admin API with HTTP Basic against the single
// owner account. With no password hash configured the API stays locked.
func (s *Server) ownerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.Cfg.OwnerHash) == 0 {
			writeError(w, http.StatusForbidden, "owner account not configured")
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(user), []byte(s.Cfg.OwnerUser)) != 1 ||
			bcrypt.CompareHashAndPassword(s.Cfg.OwnerHash, []byte(pass)) != nil {
			w.Header().Set("WWW-Authenticate", `Basic realm="dotstatus owner"`)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleOwnerTargets(w http.ResponseWriter, r *http.Request) {
	targets, err := database.ListTargets()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "loading targets failed")
		return
	}
	writeJSON(w, http.StatusOK, targets)
}

type createTargetRequest struct {
	Name      string `json:"name"`
	BaseURL   string `json:"base_url"`
	StatsPath string `json:"stats_path"`
}

// handleTargetCreate adds a target and immediately polls it (forced) so
// it shows data right away. The forced poll overwrites the current
// hour's bucket if a scheduled run already sampled it.
func (s *Server) handleTargetCreate(w http.ResponseWriter, r *http.Request) {
	var req createTargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.BaseURL = strings.TrimSpace(req.BaseURL)
	req.StatsPath = strings.TrimSpace(req.StatsPath)
	if req.Name == "" || req.BaseURL == "" {
		writeError(w, http.StatusBadRequest, "name and base_url are required")
		return
	}

	now := time.Now().In(s.Cfg.Location)
	id, err := database.CreateTarget(req.Name, req.BaseURL, req.StatsPath, true, timeutil.Naive(now))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "creating target failed")
		return
	}

	snap, err := s.Poller.PollOne(id, time.Now(), true)
	if err != nil {
		log.Printf("initial poll for target=%d: %v", id, err)
	}

	s.Cache.Clear()

	t, _ := database.GetTarget(id)
	writeJSON(w, http.StatusCreated, map[string]any{
		"target":   t,
		"snapshot": snap,
	})
}

func (s *Server) handleTargetToggle(w http.ResponseWriter, r *http.Request) {
	t, ok := s.targetFromURL(w, r)
	if !ok {
		return
	}
	if err := database.SetTargetEnabled(t.ID, !t.Enabled); err != nil {
		writeError(w, http.StatusInternalServerError, "updating target failed")
		return
	}
	t.Enabled = !t.Enabled
	s.Cache.Clear()
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleTargetToggleClick(w http.ResponseWriter, r *http.Request) {
	t, ok := s.targetFromURL(w, r)
	if !ok {
		return
	}
	if err := database.SetTargetPublicClick(t.ID, !t.PublicClick); err != nil {
		writeError(w, http.StatusInternalServerError, "updating target failed")
		return
	}
	t.PublicClick = !t.PublicClick
	s.Cache.Clear()
	writeJSON(w, http.StatusOK, t)
}

// handleTargetPoll runs an on-demand forced poll of one target.
func (s *Server) handleTargetPoll(w http.ResponseWriter, r *http.Request) {
	t, ok := s.targetFromURL(w, r)
	if !ok {
		return
	}
	snap, err := s.Poller.PollOne(t.ID, time.Now(), true)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "poll failed")
		return
	}
	s.Cache.Clear()
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleTargetDelete(w http.ResponseWriter, r *http.Request) {
	t, ok := s.targetFromURL(w, r)
	if !ok {
		return
	}
	// Snapshots and events go with the target.
	if err := database.DeleteTarget(t.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "deleting target failed")
		return
	}
	s.Cache.Clear()
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleSnapshotsCSV streams snapshots as CSV, optionally filtered by
// target_id and start/end dates (day boundaries in the configured
// zone).
func (s *Server) handleSnapshotsCSV(w http.ResponseWriter, r *http.Request) {
	var targetID int64
	if q := r.URL.Query().Get("target_id"); q != "" {
		n, err := strconv.ParseInt(q, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid target_id")
			return
		}
		targetID = n
	}

	var start, end string
	if q := strings.TrimSpace(r.URL.Query().Get("start")); q != "" {
		d, err := time.ParseInLocation("2006-01-02", q, s.Cfg.Location)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start date")
			return
		}
		start = timeutil.Naive(d)
	}
	if q := strings.TrimSpace(r.URL.Query().Get("end")); q != "" {
		d, err := time.ParseInLocation("2006-01-02", q, s.Cfg.Location)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid end date")
			return
		}
		end = timeutil.Naive(d.AddDate(0, 0, 1))
	}

	snaps, err := database.ExportSnapshots(targetID, start, end, 200000)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename=snapshots.csv`)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{
		"target_id", "hour_bucket", "polled_at", "ok", "http_status", "latency_ms",
		"cpu_percent", "mem_percent", "disk_percent", "swap_percent",
	})
	for _, snap := range snaps {
		okStr := "0"
		if snap.OK {
			okStr = "1"
		}
		_ = cw.Write([]string{
			strconv.FormatInt(snap.TargetID, 10),
			snap.HourBucket,
			snap.PolledAt,
			okStr,
			intPtrStr(snap.HTTPStatus),
			intPtrStr(snap.LatencyMS),
			floatPtrStr(snap.CPUPercent),
			floatPtrStr(snap.MemPercent),
			floatPtrStr(snap.DiskPercent),
			floatPtrStr(snap.SwapPercent),
		})
	}
	cw.Flush()
}

// handleUpdateCheck queries GitHub for a newer release.
func (s *Server) handleUpdateCheck(w http.ResponseWriter, r *http.Request) {
	info, err := updates.Check(s.Cfg.GitHubRepo, s.Cfg.GitHubToken)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if info == nil {
		writeError(w, http.StatusBadRequest, "missing GITHUB_REPO configuration")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleDBInfo reports row counts for the admin page.
func (s *Server) handleDBInfo(w http.ResponseWriter, r *http.Request) {
	targets, err := database.GetTargetCount()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	snaps, err := database.GetSnapshotCount()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"db_path":   s.Cfg.DBPath,
		"targets":   targets,
		"snapshots": snaps,
	})
}

// targetFromURL loads the {id} target or writes the appropriate error.
func (s *Server) targetFromURL(w http.ResponseWriter, r *http.Request) (*models.Target, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid target id")
		return nil, false
	}
	t, err := database.GetTarget(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "loading target failed")
		return nil, false
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "target not found")
		return nil, false
	}
	return t, true
}

func intPtrStr(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func floatPtrStr(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'g', -1, 64)
}
