package models

// Target represents a monitored endpoint
type Target struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	BaseURL     string `json:"base_url"`
	StatsPath   string `json:"stats_path"`
	Enabled     bool   `json:"enabled"`
	PublicClick bool   `json:"public_click"`
	CreatedAt   string `json:"created_at"`
}

// Snapshot is one stored probe outcome for one target at one hour bucket.
// Optional columns are pointers; nil means the value was unavailable.
type Snapshot struct {
	ID         int64  `json:"id"`
	TargetID   int64  `json:"target_id"`
	PolledAt   string `json:"polled_at"`
	HourBucket string `json:"hour_bucket"`

	OK         bool `json:"ok"`
	HTTPStatus *int `json:"http_status,omitempty"`
	LatencyMS  *int `json:"latency_ms,omitempty"`

	CPUPercent  *float64 `json:"cpu_percent,omitempty"`
	MemPercent  *float64 `json:"mem_percent,omitempty"`
	DiskPercent *float64 `json:"disk_percent,omitempty"`
	SwapPercent *float64 `json:"swap_percent,omitempty"`

	RawJSON *string `json:"raw_json,omitempty"`
}

// Event is a contiguous interval during which a target was down.
// EndedAt is nil while the outage is ongoing.
type Event struct {
	ID         int64   `json:"id"`
	TargetID   int64   `json:"target_id"`
	State      string  `json:"state"`
	StartedAt  string  `json:"started_at"`
	EndedAt    *string `json:"ended_at,omitempty"`
	Reason     *string `json:"reason,omitempty"`
	HTTPStatus *int    `json:"http_status,omitempty"`
}

// EventStateDown is the only explicitly modeled event state; "up"
// periods are the gaps between down events.
const EventStateDown = "down"
