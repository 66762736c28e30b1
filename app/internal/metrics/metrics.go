package metrics

import (
	"math"
	"time"

	"dotstatus/app/internal/database"
	"dotstatus/app/internal/models"
	"dotstatus/app/internal/timeutil"
)

// Aggregator answers read-side queries over stored snapshots. It never
// mutates anything.
type Aggregator struct {
	Loc *time.Location
}

// LatencySeries is a chart-ready latency payload. Buckets with no
// snapshot are omitted; values are nil where the snapshot has no
// latency.
type LatencySeries struct {
	Labels []string `json:"labels"`
	Values []*int   `json:"values"`
}

// DailyBar is one day of the uptime bar strip.
type DailyBar struct {
	Date  string   `json:"date"`
	Pct   *float64 `json:"pct"`
	Class string   `json:"cls"`
}

// Daily bar classes. "unknown" marks days with zero snapshots and must
// be rendered distinctly from a true 0% day.
const (
	ClassBad     = "bad"
	ClassWarn    = "warn"
	ClassOK      = "ok"
	ClassUnknown = "unknown"
)

func New(loc *time.Location) *Aggregator {
	return &Aggregator{Loc: loc}
}

// Latest returns the target's most recent snapshot by hour bucket, or
// nil if it has never been polled.
func (a *Aggregator) Latest(targetID int64) (*models.Snapshot, error) {
	return database.LatestSnapshot(targetID)
}

// UptimePercent computes the success percentage over the snapshots in
// [now_hour - windowHours, now_hour), rounded to one decimal. It
// returns nil when the window holds zero snapshots — no data is not the
// same as 0%.
func (a *Aggregator) UptimePercent(targetID int64, windowHours int, now time.Time) (*float64, error) {
	end := timeutil.FloorHour(now.In(a.Loc))
	start := end.Add(-time.Duration(windowHours) * time.Hour)

	okCount, total, err := database.CountOKInRange(targetID, timeutil.Naive(start), timeutil.Naive(end))
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, nil
	}
	pct := round1(float64(okCount) * 100.0 / float64(total))
	return &pct, nil
}

// Latency returns the target's latency series over the last
// windowHours hours, ordered by hour bucket.
func (a *Aggregator) Latency(targetID int64, windowHours int, now time.Time) (*LatencySeries, error) {
	end := timeutil.FloorHour(now.In(a.Loc))
	start := end.Add(-time.Duration(windowHours) * time.Hour)

	snaps, err := database.SnapshotsInRange(targetID, timeutil.Naive(start), timeutil.Naive(end))
	if err != nil {
		return nil, err
	}

	series := &LatencySeries{
		Labels: make([]string, 0, len(snaps)),
		Values: make([]*int, 0, len(snaps)),
	}
	for _, s := range snaps {
		t, err := timeutil.ParseNaive(s.HourBucket, a.Loc)
		if err != nil {
			continue
		}
		series.Labels = append(series.Labels, t.Format("01-02 15:04"))
		series.Values = append(series.Values, s.LatencyMS)
	}
	return series, nil
}

// DailyBars computes per-day success ratios for the last days calendar
// days including today, oldest first. Day boundaries follow the
// configured zone; stored buckets are naive local wall-clock, so the
// day of a bucket is simply its date prefix.
func (a *Aggregator) DailyBars(targetID int64, days int, now time.Time) ([]DailyBar, error) {
	today := timeutil.DayStart(now, a.Loc)
	start := today.AddDate(0, 0, -(days - 1))
	end := today.AddDate(0, 0, 1)

	snaps, err := database.SnapshotsInRange(targetID, timeutil.Naive(start), timeutil.Naive(end))
	if err != nil {
		return nil, err
	}

	type counts struct{ ok, total int }
	byDay := make(map[string]*counts)
	for _, s := range snaps {
		day := s.HourBucket[:10]
		c := byDay[day]
		if c == nil {
			c = &counts{}
			byDay[day] = c
		}
		c.total++
		if s.OK {
			c.ok++
		}
	}

	bars := make([]DailyBar, 0, days)
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i).Format("2006-01-02")
		c := byDay[day]
		if c == nil || c.total == 0 {
			bars = append(bars, DailyBar{Date: day, Class: ClassUnknown})
			continue
		}
		// Classify on the raw ratio; rounding is for display only.
		raw := float64(c.ok) * 100.0 / float64(c.total)
		pct := round1(raw)
		bars = append(bars, DailyBar{Date: day, Pct: &pct, Class: classify(raw)})
	}
	return bars, nil
}

// classify maps a success percentage onto a bar color band.
func classify(pct float64) string {
	if pct < 10 {
		return ClassBad
	}
	if pct < 80 {
		return ClassWarn
	}
	return ClassOK
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
