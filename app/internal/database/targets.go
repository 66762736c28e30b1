package database

import (
	"database/sql"
	"strings"

	"dotstatus/app/internal/models"
)

const targetCols = `id, name, base_url, stats_path, enabled, public_click, created_at`

func scanTarget(row interface{ Scan(...any) error }) (*models.Target, error) {
	var t models.Target
	var enabled, publicClick int
	err := row.Scan(&t.ID, &t.Name, &t.BaseURL, &t.StatsPath, &enabled, &publicClick, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.Enabled = enabled != 0
	t.PublicClick = publicClick != 0
	return &t, nil
}

// CreateTarget inserts a new target and returns its id.
// createdAt is a naive timestamp produced by timeutil.Naive.
func CreateTarget(name, baseURL, statsPath string, enabled bool, createdAt string) (int64, error) {
	enabledInt := 0
	if enabled {
		enabledInt = 1
	}
	if statsPath == "" {
		statsPath = "/api/stats"
	}
	res, err := DB.Exec(`
		INSERT INTO targets (name, base_url, stats_path, enabled, public_click, created_at)
		VALUES (?, ?, ?, ?, 1, ?)`,
		name, strings.TrimRight(baseURL, "/"), statsPath, enabledInt, createdAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetTarget returns a target by id, or nil if it does not exist.
func GetTarget(id int64) (*models.Target, error) {
	t, err := scanTarget(DB.QueryRow(`SELECT `+targetCols+` FROM targets WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

// ListTargets returns all targets ordered by id.
func ListTargets() ([]*models.Target, error) {
	rows, err := DB.Query(`SELECT ` + targetCols + ` FROM targets ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []*models.Target
	for rows.Next() {
		t, err := scanTarget(rows)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// ListEnabledTargets returns targets with enabled = true ordered by id.
func ListEnabledTargets() ([]*models.Target, error) {
	rows, err := DB.Query(`SELECT ` + targetCols + ` FROM targets WHERE enabled = 1 ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []*models.Target
	for rows.Next() {
		t, err := scanTarget(rows)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// SetTargetEnabled updates the enabled flag for a target.
func SetTargetEnabled(id int64, enabled bool) error {
	v := 0
	if enabled {
		v = 1
	}
	_, err := DB.Exec(`UPDATE targets SET enabled = ? WHERE id = ?`, v, id)
	return err
}

// SetTargetPublicClick updates the public-visibility flag for a target.
func SetTargetPublicClick(id int64, publicClick bool) error {
	v := 0
	if publicClick {
		v = 1
	}
	_, err := DB.Exec(`UPDATE targets SET public_click = ? WHERE id = ?`, v, id)
	return err
}

// DeleteTarget removes a target; its snapshots and events cascade.
func DeleteTarget(id int64) error {
	_, err := DB.Exec(`DELETE FROM targets WHERE id = ?`, id)
	return err
}

// GetTargetCount returns the number of targets
func GetTargetCount() (int, error) {
	var count int
	err := DB.QueryRow(`SELECT COUNT(*) FROM targets`).Scan(&count)
	return count, err
}
