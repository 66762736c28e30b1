package database

import (
	"database/sql"

	"dotstatus/app/internal/models"
)

const snapshotCols = `id, target_id, polled_at, hour_bucket, ok, http_status, latency_ms,
	cpu_percent, mem_percent, disk_percent, swap_percent, raw_json`

func scanSnapshot(row interface{ Scan(...any) error }) (*models.Snapshot, error) {
	var s models.Snapshot
	var ok int
	var httpStatus, latency sql.NullInt64
	var cpu, mem, disk, swap sql.NullFloat64
	var raw sql.NullString

	err := row.Scan(&s.ID, &s.TargetID, &s.PolledAt, &s.HourBucket, &ok,
		&httpStatus, &latency, &cpu, &mem, &disk, &swap, &raw)
	if err != nil {
		return nil, err
	}
	s.OK = ok != 0
	if httpStatus.Valid {
		v := int(httpStatus.Int64)
		s.HTTPStatus = &v
	}
	if latency.Valid {
		v := int(latency.Int64)
		s.LatencyMS = &v
	}
	if cpu.Valid {
		s.CPUPercent = &cpu.Float64
	}
	if mem.Valid {
		s.MemPercent = &mem.Float64
	}
	if disk.Valid {
		s.DiskPercent = &disk.Float64
	}
	if swap.Valid {
		s.SwapPercent = &swap.Float64
	}
	if raw.Valid {
		s.RawJSON = &raw.String
	}
	return &s, nil
}

// UpsertSnapshot writes the probe outcome for (target, hour bucket),
// overwriting every field of an existing row. At most one snapshot per
// bucket can exist; the UNIQUE constraint plus this native upsert make
// the last writer win.
func UpsertSnapshot(s *models.Snapshot) error {
	okInt := 0
	if s.OK {
		okInt = 1
	}
	_, err := DB.Exec(`
		INSERT INTO snapshots (target_id, polled_at, hour_bucket, ok, http_status, latency_ms,
		                       cpu_percent, mem_percent, disk_percent, swap_percent, raw_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(target_id, hour_bucket) DO UPDATE SET
			polled_at=excluded.polled_at,
			ok=excluded.ok,
			http_status=excluded.http_status,
			latency_ms=excluded.latency_ms,
			cpu_percent=excluded.cpu_percent,
			mem_percent=excluded.mem_percent,
			disk_percent=excluded.disk_percent,
			swap_percent=excluded.swap_percent,
			raw_json=excluded.raw_json`,
		s.TargetID, s.PolledAt, s.HourBucket, okInt, ptrVal(s.HTTPStatus), ptrVal(s.LatencyMS),
		ptrVal(s.CPUPercent), ptrVal(s.MemPercent), ptrVal(s.DiskPercent), ptrVal(s.SwapPercent),
		ptrVal(s.RawJSON))
	return err
}

// GetSnapshot returns the snapshot for (target, hour bucket), or nil.
func GetSnapshot(targetID int64, hourBucket string) (*models.Snapshot, error) {
	s, err := scanSnapshot(DB.QueryRow(`
		SELECT `+snapshotCols+` FROM snapshots
		WHERE target_id = ? AND hour_bucket = ?`, targetID, hourBucket))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// PrevSnapshot returns the snapshot immediately preceding hourBucket
// for the target, strictly by hour-bucket order, or nil if none exists.
func PrevSnapshot(targetID int64, hourBucket string) (*models.Snapshot, error) {
	s, err := scanSnapshot(DB.QueryRow(`
		SELECT `+snapshotCols+` FROM snapshots
		WHERE target_id = ? AND hour_bucket < ?
		ORDER BY hour_bucket DESC LIMIT 1`, targetID, hourBucket))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// LatestSnapshot returns the snapshot with the greatest hour bucket for
// the target, or nil if the target has never been polled.
func LatestSnapshot(targetID int64) (*models.Snapshot, error) {
	s, err := scanSnapshot(DB.QueryRow(`
		SELECT `+snapshotCols+` FROM snapshots
		WHERE target_id = ?
		ORDER BY hour_bucket DESC LIMIT 1`, targetID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// SnapshotsInRange returns the target's snapshots with
// start <= hour_bucket < end, ordered by hour bucket ascending.
func SnapshotsInRange(targetID int64, start, end string) ([]*models.Snapshot, error) {
	rows, err := DB.Query(`
		SELECT `+snapshotCols+` FROM snapshots
		WHERE target_id = ? AND hour_bucket >= ? AND hour_bucket < ?
		ORDER BY hour_bucket ASC`, targetID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []*models.Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, s)
	}
	return snaps, rows.Err()
}

// CountOKInRange returns (successes, total) over the target's snapshots
// with start <= hour_bucket < end.
func CountOKInRange(targetID int64, start, end string) (okCount, total int, err error) {
	err = DB.QueryRow(`
		SELECT COALESCE(SUM(ok), 0), COUNT(*)
		FROM snapshots
		WHERE target_id = ? AND hour_bucket >= ? AND hour_bucket < ?`,
		targetID, start, end).Scan(&okCount, &total)
	return okCount, total, err
}

// ExportSnapshots returns snapshots for the CSV export, optionally
// filtered by target and naive bucket range (empty string = no bound),
// ordered by hour bucket ascending, capped at limit rows.
func ExportSnapshots(targetID int64, start, end string, limit int) ([]*models.Snapshot, error) {
	q := `SELECT ` + snapshotCols + ` FROM snapshots WHERE 1=1`
	var args []any
	if targetID > 0 {
		q += ` AND target_id = ?`
		args = append(args, targetID)
	}
	if start != "" {
		q += ` AND hour_bucket >= ?`
		args = append(args, start)
	}
	if end != "" {
		q += ` AND hour_bucket < ?`
		args = append(args, end)
	}
	q += ` ORDER BY hour_bucket ASC LIMIT ?`
	args = append(args, limit)

	rows, err := DB.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []*models.Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, s)
	}
	return snaps, rows.Err()
}

// GetSnapshotCount returns the number of snapshots
func GetSnapshotCount() (int, error) {
	var count int
	err := DB.QueryRow(`SELECT COUNT(*) FROM snapshots`).Scan(&count)
	return count, err
}

// ptrVal converts a typed optional into a driver value, nil staying NULL.
func ptrVal[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
