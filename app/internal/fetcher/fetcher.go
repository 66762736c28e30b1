package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// Failure reason codes. Only timeout and request_error are retryable;
// HTTP-level and JSON-level failures are terminal for the probe.
const (
	ReasonTimeout      = "timeout"
	ReasonRequestError = "request_error"
	ReasonBadJSON      = "bad_json"
	ReasonNotObject    = "json_not_object"
)

// Result is the normalized outcome of one probe. Nil pointers mean the
// value was unavailable; LatencyMS is nil only if no attempt completed
// a connection. RawJSON is set only on full success.
type Result struct {
	OK         bool
	HTTPStatus *int
	LatencyMS  *int

	CPUPercent  *float64
	MemPercent  *float64
	DiskPercent *float64
	SwapPercent *float64

	RawJSON *string
	Reason  string // empty on success
	URL     string
}

// Metric key aliases, tried in order; first match wins. Kept as plain
// data so new aliases stay additive.
var (
	cpuKeys  = []string{"cpu_percent", "cpu", "cpuUsage", "cpu_usage"}
	memKeys  = []string{"mem_percent", "memory_percent", "mem", "memoryUsage", "mem_usage"}
	diskKeys = []string{"disk_percent", "disk", "diskUsage", "disk_usage"}
	swapKeys = []string{"swap_percent", "swap", "swapUsage", "swap_usage"}

	// Accepted inner keys when an alias maps to a nested object.
	nestedValueKeys = []string{"percent", "pct", "value"}
)

// Probe fetches a target's stats endpoint once and normalizes the
// response. Network errors and timeouts are retried up to retries extra
// attempts; the reported latency is always the last attempt's.
func Probe(baseURL, statsPath string, timeout time.Duration, retries int) Result {
	url := JoinURL(baseURL, statsPath)
	client := &http.Client{Timeout: timeout}

	var lastLatency *int

	for attempt := 0; attempt <= retries; attempt++ {
		t0 := time.Now()

		req, err := http.NewRequest(http.MethodGet, url, nil)
		if err != nil {
			return fail(ReasonRequestError, lastLatency, url)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			ms := int(time.Since(t0).Milliseconds())
			lastLatency = &ms
			reason := ReasonRequestError
			if isTimeout(err) {
				reason = ReasonTimeout
			}
			if attempt < retries {
				continue
			}
			return fail(reason, lastLatency, url)
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		ms := int(time.Since(t0).Milliseconds())
		lastLatency = &ms

		if readErr != nil {
			reason := ReasonRequestError
			if isTimeout(readErr) {
				reason = ReasonTimeout
			}
			if attempt < retries {
				continue
			}
			return fail(reason, lastLatency, url)
		}

		status := resp.StatusCode
		if status != http.StatusOK {
			// Non-200 is terminal, including 5xx/429.
			return Result{
				HTTPStatus: &status,
				LatencyMS:  &ms,
				Reason:     fmt.Sprintf("http_%d", status),
				URL:        url,
			}
		}

		var data any
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		if err := dec.Decode(&data); err != nil {
			return fail(ReasonBadJSON, &ms, url)
		}

		obj, isObj := data.(map[string]any)
		if !isObj {
			return Result{
				HTTPStatus: &status,
				LatencyMS:  &ms,
				Reason:     ReasonNotObject,
				URL:        url,
			}
		}

		raw := string(body)
		return Result{
			OK:          true,
			HTTPStatus:  &status,
			LatencyMS:   &ms,
			CPUPercent:  firstNumber(obj, cpuKeys),
			MemPercent:  firstNumber(obj, memKeys),
			DiskPercent: firstNumber(obj, diskKeys),
			SwapPercent: firstNumber(obj, swapKeys),
			RawJSON:     &raw,
			URL:         url,
		}
	}

	// unreachable; the loop always returns
	return fail(ReasonRequestError, lastLatency, url)
}

// JoinURL joins a base URL and a stats path, normalizing the slashes
// between them. Query strings on the path survive untouched.
func JoinURL(baseURL, statsPath string) string {
	base := strings.TrimRight(baseURL, "/")
	path := statsPath
	if path == "" {
		path = "/api/stats"
	}
	return base + "/" + strings.TrimLeft(path, "/")
}

func fail(reason string, latency *int, url string) Result {
	return Result{
		LatencyMS: latency,
		Reason:    reason,
		URL:       url,
	}
}

// firstNumber searches obj for the first alias that holds a numeric
// value, either directly or nested under one of nestedValueKeys.
func firstNumber(obj map[string]any, keys []string) *float64 {
	for _, k := range keys {
		v, present := obj[k]
		if !present {
			continue
		}
		if f := asFloat(v); f != nil {
			return f
		}
		if m, isMap := v.(map[string]any); isMap {
			for _, kk := range nestedValueKeys {
				if f := asFloat(m[kk]); f != nil {
					return f
				}
			}
		}
	}
	return nil
}

// asFloat accepts JSON numbers only; strings and booleans are not
// coerced.
func asFloat(v any) *float64 {
	switch x := v.(type) {
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return nil
		}
		return &f
	case float64:
		return &x
	default:
		return nil
	}
}

func isTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
