package poller

import (
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"dotstatus/app/internal/database"
	"dotstatus/app/internal/events"
	"dotstatus/app/internal/fetcher"
	"dotstatus/app/internal/models"
	"dotstatus/app/internal/telemetry"
	"dotstatus/app/internal/timeutil"
)

// Poller runs probe/store/reconcile sequences for targets.
type Poller struct {
	Loc         *time.Location
	Timeout     time.Duration
	Retries     int
	Concurrency int
}

// New creates a poller. concurrency bounds the per-target fan-out of
// PollAll; 1 means sequential.
func New(loc *time.Location, timeout time.Duration, retries, concurrency int) *Poller {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Poller{
		Loc:         loc,
		Timeout:     timeout,
		Retries:     retries,
		Concurrency: concurrency,
	}
}

// PollAll polls every enabled target for now's hour bucket. Targets are
// probed independently: one target's failure never aborts the batch.
func (p *Poller) PollAll(now time.Time) {
	targets, err := database.ListEnabledTargets()
	if err != nil {
		log.Printf("poll all: loading targets failed: %v", err)
		return
	}

	var g errgroup.Group
	g.SetLimit(p.Concurrency)
	for _, t := range targets {
		g.Go(func() error {
			if _, err := p.PollOne(t.ID, now, false); err != nil {
				log.Printf("poll target=%d: %v", t.ID, err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// PollOne probes a single target, upserts the snapshot for now's hour
// bucket and reconciles events. A nil snapshot with nil error means the
// poll was skipped (unknown target, or disabled and not forced).
// force bypasses the enabled check but not the upsert-by-bucket rule: a
// forced poll in an already-sampled hour overwrites that hour's row.
func (p *Poller) PollOne(targetID int64, now time.Time, force bool) (*models.Snapshot, error) {
	t, err := database.GetTarget(targetID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		telemetry.PollsTotal.WithLabelValues("skipped").Inc()
		return nil, nil
	}
	if !t.Enabled && !force {
		telemetry.PollsTotal.WithLabelValues("skipped").Inc()
		return nil, nil
	}

	now = now.In(p.Loc)
	bucket := timeutil.Naive(timeutil.FloorHour(now))
	polledAt := timeutil.Naive(now)

	res := fetcher.Probe(t.BaseURL, t.StatsPath, p.Timeout, p.Retries)

	snap := &models.Snapshot{
		TargetID:    t.ID,
		PolledAt:    polledAt,
		HourBucket:  bucket,
		OK:          res.OK,
		HTTPStatus:  res.HTTPStatus,
		LatencyMS:   res.LatencyMS,
		CPUPercent:  res.CPUPercent,
		MemPercent:  res.MemPercent,
		DiskPercent: res.DiskPercent,
		SwapPercent: res.SwapPercent,
		RawJSON:     res.RawJSON,
	}

	// A write failure is the only condition fatal to this target's
	// update; it surfaces to the caller but never past the batch loop.
	if err := database.UpsertSnapshot(snap); err != nil {
		return nil, err
	}

	if res.OK {
		telemetry.PollsTotal.WithLabelValues("ok").Inc()
	} else {
		telemetry.PollsTotal.WithLabelValues("fail").Inc()
		telemetry.ProbeFailuresTotal.WithLabelValues(res.Reason).Inc()
		log.Printf("probe failed: target=%d url=%s reason=%s", t.ID, res.URL, res.Reason)
	}

	// Reconcile after every write to the bucket, including overwrites
	// of a bucket a scheduled run already touched.
	var reason *string
	if res.Reason != "" {
		reason = &res.Reason
	}
	if err := events.Reconcile(t.ID, bucket, res.OK, reason, res.HTTPStatus); err != nil {
		log.Printf("event reconcile: target=%d: %v", t.ID, err)
	}

	persisted, err := database.GetSnapshot(t.ID, bucket)
	if err != nil {
		return snap, nil
	}
	return persisted, nil
}
