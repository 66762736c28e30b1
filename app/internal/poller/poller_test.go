package poller

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"dotstatus/app/internal/database"
)

func initTestDB(t *testing.T) {
	t.Helper()
	if err := database.Init(":memory:"); err != nil {
		t.Fatalf("init db: %v", err)
	}
}

func statsServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/stats" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testPoller() *Poller {
	return New(time.UTC, 2*time.Second, 0, 2)
}

var pollNow = time.Date(2026, 5, 10, 15, 20, 0, 0, time.UTC)

func TestPollOne_Success(t *testing.T) {
	initTestDB(t)
	srv := statsServer(t, `{"cpu_percent": 33.5, "mem_percent": 60}`, http.StatusOK)

	id, err := database.CreateTarget("svc", srv.URL, "/api/stats", true, "2026-01-01T00:00:00")
	if err != nil {
		t.Fatal(err)
	}

	snap, err := testPoller().PollOne(id, pollNow, false)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if snap == nil {
		t.Fatal("expected a snapshot")
	}
	if !snap.OK {
		t.Error("snapshot should be ok")
	}
	if snap.HourBucket != "2026-05-10T15:00:00" {
		t.Errorf("bucket = %q", snap.HourBucket)
	}
	if snap.PolledAt != "2026-05-10T15:20:00" {
		t.Errorf("polled_at = %q", snap.PolledAt)
	}
	if snap.CPUPercent == nil || *snap.CPUPercent != 33.5 {
		t.Errorf("cpu = %v", snap.CPUPercent)
	}
	if snap.MemPercent == nil || *snap.MemPercent != 60 {
		t.Errorf("mem = %v", snap.MemPercent)
	}
	if snap.LatencyMS == nil {
		t.Error("latency should be set")
	}
}

func TestPollOne_UnknownTargetSkipped(t *testing.T) {
	initTestDB(t)

	snap, err := testPoller().PollOne(999, pollNow, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap != nil {
		t.Errorf("unknown target must be a no-op, got %+v", snap)
	}
}

func TestPollOne_DisabledSkippedUnlessForced(t *testing.T) {
	initTestDB(t)
	srv := statsServer(t, `{"cpu": 1}`, http.StatusOK)

	id, _ := database.CreateTarget("svc", srv.URL, "/api/stats", false, "2026-01-01T00:00:00")

	snap, err := testPoller().PollOne(id, pollNow, false)
	if err != nil {
		t.Fatal(err)
	}
	if snap != nil {
		t.Fatal("disabled target must be skipped without side effects")
	}
	if n, _ := database.GetSnapshotCount(); n != 0 {
		t.Errorf("skip must not write, have %d snapshots", n)
	}

	snap, err = testPoller().PollOne(id, pollNow, true)
	if err != nil {
		t.Fatal(err)
	}
	if snap == nil {
		t.Fatal("force must bypass the enabled check")
	}
}

func TestPollOne_SameBucketOverwrites(t *testing.T) {
	initTestDB(t)

	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"cpu": 5}`))
	}))
	t.Cleanup(srv.Close)

	id, _ := database.CreateTarget("svc", srv.URL, "/api/stats", true, "2026-01-01T00:00:00")
	p := testPoller()

	first, err := p.PollOne(id, pollNow, false)
	if err != nil {
		t.Fatal(err)
	}
	if !first.OK {
		t.Fatal("first poll should succeed")
	}

	fail.Store(true)
	second, err := p.PollOne(id, pollNow.Add(10*time.Minute), true)
	if err != nil {
		t.Fatal(err)
	}
	if second.OK {
		t.Error("second poll should have failed")
	}
	if second.HTTPStatus == nil || *second.HTTPStatus != 503 {
		t.Errorf("http status = %v", second.HTTPStatus)
	}
	if second.HourBucket != first.HourBucket {
		t.Errorf("buckets differ: %q vs %q", first.HourBucket, second.HourBucket)
	}
	if n, _ := database.GetSnapshotCount(); n != 1 {
		t.Errorf("same-hour re-poll must overwrite, have %d rows", n)
	}
}

func TestPollOne_FailureRecordsReason(t *testing.T) {
	initTestDB(t)
	srv := statsServer(t, "oops", http.StatusInternalServerError)

	id, _ := database.CreateTarget("svc", srv.URL, "/api/stats", true, "2026-01-01T00:00:00")

	snap, err := testPoller().PollOne(id, pollNow, false)
	if err != nil {
		t.Fatal(err)
	}
	if snap.OK {
		t.Error("expected failure")
	}
	if snap.HTTPStatus == nil || *snap.HTTPStatus != 500 {
		t.Errorf("http status = %v", snap.HTTPStatus)
	}
}

func TestPollAll_IsolatesTargetFailures(t *testing.T) {
	initTestDB(t)
	good := statsServer(t, `{"cpu": 7}`, http.StatusOK)

	// A dead endpoint alongside a healthy one.
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	dead.Close()

	goodID, _ := database.CreateTarget("good", good.URL, "/api/stats", true, "2026-01-01T00:00:00")
	deadID, _ := database.CreateTarget("dead", dead.URL, "/api/stats", true, "2026-01-01T00:00:00")

	testPoller().PollAll(pollNow)

	gs, err := database.LatestSnapshot(goodID)
	if err != nil || gs == nil || !gs.OK {
		t.Errorf("healthy target should have an ok snapshot, got %+v (err %v)", gs, err)
	}
	ds, err := database.LatestSnapshot(deadID)
	if err != nil || ds == nil || ds.OK {
		t.Errorf("dead target should have a failed snapshot, got %+v (err %v)", ds, err)
	}
}

func TestPollAll_SkipsDisabled(t *testing.T) {
	initTestDB(t)
	srv := statsServer(t, `{"cpu": 7}`, http.StatusOK)

	id, _ := database.CreateTarget("svc", srv.URL, "/api/stats", true, "2026-01-01T00:00:00")
	database.SetTargetEnabled(id, false)

	testPoller().PollAll(pollNow)

	if n, _ := database.GetSnapshotCount(); n != 0 {
		t.Errorf("disabled targets must not be polled, have %d rows", n)
	}
}
