package database

import (
	"database/sql"

	"dotstatus/app/internal/models"
)

const eventCols = `id, target_id, state, started_at, ended_at, reason, http_status`

func scanEvent(row interface{ Scan(...any) error }) (*models.Event, error) {
	var e models.Event
	var ended, reason sql.NullString
	var httpStatus sql.NullInt64

	err := row.Scan(&e.ID, &e.TargetID, &e.State, &e.StartedAt, &ended, &reason, &httpStatus)
	if err != nil {
		return nil, err
	}
	if ended.Valid {
		e.EndedAt = &ended.String
	}
	if reason.Valid {
		e.Reason = &reason.String
	}
	if httpStatus.Valid {
		v := int(httpStatus.Int64)
		e.HTTPStatus = &v
	}
	return &e, nil
}

// OpenEvent records the start of a down interval for a target.
func OpenEvent(targetID int64, startedAt string, reason *string, httpStatus *int) error {
	_, err := DB.Exec(`
		INSERT INTO events (target_id, state, started_at, ended_at, reason, http_status)
		VALUES (?, ?, ?, NULL, ?, ?)`,
		targetID, models.EventStateDown, startedAt, ptrVal(reason), ptrVal(httpStatus))
	return err
}

// LatestOpenEvent returns the most recently started down event without
// an end time for the target, or nil if none is open.
func LatestOpenEvent(targetID int64) (*models.Event, error) {
	e, err := scanEvent(DB.QueryRow(`
		SELECT `+eventCols+` FROM events
		WHERE target_id = ? AND state = ? AND ended_at IS NULL
		ORDER BY started_at DESC LIMIT 1`, targetID, models.EventStateDown))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

// CloseEvent sets the end time of an event.
func CloseEvent(eventID int64, endedAt string) error {
	_, err := DB.Exec(`UPDATE events SET ended_at = ? WHERE id = ?`, endedAt, eventID)
	return err
}

// ListRecentEvents returns the most recent events across all targets,
// newest first.
func ListRecentEvents(limit int) ([]*models.Event, error) {
	rows, err := DB.Query(`
		SELECT `+eventCols+` FROM events
		ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ListTargetEvents returns a target's events, newest first.
func ListTargetEvents(targetID int64, limit int) ([]*models.Event, error) {
	rows, err := DB.Query(`
		SELECT `+eventCols+` FROM events
		WHERE target_id = ?
		ORDER BY started_at DESC, id DESC LIMIT ?`, targetID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
