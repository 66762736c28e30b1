package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// --- helpers ---

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "DB_PATH", "TIMEZONE", "ENABLE_SCHEDULER",
		"MISFIRE_GRACE_MINUTES", "PROBE_TIMEOUT_SECS", "PROBE_RETRIES",
		"POLL_CONCURRENCY", "OWNER_USERNAME", "OWNER_PASSWORD",
		"OWNER_PASSWORD_BCRYPT", "GITHUB_REPO", "GITHUB_TOKEN",
		"SEED_FILE", "SEED_TARGET_NAME", "SEED_TARGET_BASE_URL",
		"SEED_TARGET_STATS_PATH",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "4580" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.DBPath != "./status.sqlite" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.Timezone != "Asia/Bangkok" || cfg.Location == nil {
		t.Errorf("Timezone = %q, Location = %v", cfg.Timezone, cfg.Location)
	}
	if !cfg.EnableScheduler {
		t.Error("scheduler should default on")
	}
	if cfg.MisfireGrace != 15*time.Minute {
		t.Errorf("MisfireGrace = %v", cfg.MisfireGrace)
	}
	if cfg.ProbeTimeout != 8*time.Second {
		t.Errorf("ProbeTimeout = %v", cfg.ProbeTimeout)
	}
	if cfg.ProbeRetries != 1 {
		t.Errorf("ProbeRetries = %d", cfg.ProbeRetries)
	}
	if cfg.PollConcurrency != 4 {
		t.Errorf("PollConcurrency = %d", cfg.PollConcurrency)
	}
	if cfg.OwnerUser != "owner" || cfg.OwnerHash != nil {
		t.Errorf("owner defaults wrong: user=%q hash=%v", cfg.OwnerUser, cfg.OwnerHash)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("ENABLE_SCHEDULER", "false")
	t.Setenv("PROBE_TIMEOUT_SECS", "3")
	t.Setenv("PROBE_RETRIES", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "9000" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.Location != time.UTC && cfg.Location.String() != "UTC" {
		t.Errorf("Location = %v", cfg.Location)
	}
	if cfg.EnableScheduler {
		t.Error("scheduler should be off")
	}
	if cfg.ProbeTimeout != 3*time.Second {
		t.Errorf("ProbeTimeout = %v", cfg.ProbeTimeout)
	}
	if cfg.ProbeRetries != 0 {
		t.Errorf("ProbeRetries = %d", cfg.ProbeRetries)
	}
}

func TestLoad_InvalidTimezone(t *testing.T) {
	clearEnv(t)
	t.Setenv("TIMEZONE", "Mars/Olympus")

	if _, err := Load(); err == nil {
		t.Error("expected error for invalid timezone")
	}
}

func TestLoad_ClampsBadValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("PROBE_RETRIES", "-5")
	t.Setenv("POLL_CONCURRENCY", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ProbeRetries != 0 {
		t.Errorf("negative retries should clamp to 0, got %d", cfg.ProbeRetries)
	}
	if cfg.PollConcurrency != 1 {
		t.Errorf("concurrency should clamp to 1, got %d", cfg.PollConcurrency)
	}
}

func TestLoad_OwnerPasswordHashing(t *testing.T) {
	clearEnv(t)
	t.Setenv("OWNER_PASSWORD", "hunter2")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.OwnerHash == nil {
		t.Fatal("expected a hash from plaintext password")
	}
	if err := bcrypt.CompareHashAndPassword(cfg.OwnerHash, []byte("hunter2")); err != nil {
		t.Errorf("hash does not verify: %v", err)
	}
}

func TestLoad_OwnerHashPreferred(t *testing.T) {
	clearEnv(t)
	pre, _ := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	t.Setenv("OWNER_PASSWORD_BCRYPT", string(pre))
	t.Setenv("OWNER_PASSWORD", "ignored")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if string(cfg.OwnerHash) != string(pre) {
		t.Error("pre-computed hash should win over plaintext")
	}
}

func TestLoad_SeedFileYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.yml")
	body := `targets:
  - name: alpha
    base_url: https://alpha.test/
  - name: beta
    base_url: https://beta.test
    stats_path: /stats
  - name: ""
    base_url: https://nameless.test
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SEED_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.SeedTargets) != 2 {
		t.Fatalf("expected 2 valid seed targets, got %d", len(cfg.SeedTargets))
	}
	if cfg.SeedTargets[0].BaseURL != "https://alpha.test" {
		t.Errorf("trailing slash not trimmed: %q", cfg.SeedTargets[0].BaseURL)
	}
	if cfg.SeedTargets[0].StatsPath != "/api/stats" {
		t.Errorf("default stats path not applied: %q", cfg.SeedTargets[0].StatsPath)
	}
	if cfg.SeedTargets[1].StatsPath != "/stats" {
		t.Errorf("explicit stats path lost: %q", cfg.SeedTargets[1].StatsPath)
	}
}

func TestLoad_SeedFileMissingIsNotFatal(t *testing.T) {
	clearEnv(t)
	t.Setenv("SEED_FILE", filepath.Join(t.TempDir(), "nope.yml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("missing seed file should not fail Load: %v", err)
	}
	if len(cfg.SeedTargets) != 0 {
		t.Errorf("expected no seed targets, got %+v", cfg.SeedTargets)
	}
}

func TestLoad_SeedTargetFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SEED_TARGET_NAME", "solo")
	t.Setenv("SEED_TARGET_BASE_URL", "https://solo.test/")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.SeedTargets) != 1 {
		t.Fatalf("expected 1 seed target, got %d", len(cfg.SeedTargets))
	}
	st := cfg.SeedTargets[0]
	if st.Name != "solo" || st.BaseURL != "https://solo.test" || st.StatsPath != "/api/stats" {
		t.Errorf("unexpected seed target: %+v", st)
	}
}

func TestEnvHelpers(t *testing.T) {
	clearEnv(t)
	t.Setenv("X_STR", "v")
	t.Setenv("X_INT", "7")
	t.Setenv("X_BAD_INT", "seven")
	t.Setenv("X_BOOL", "yes")

	if getenv("X_STR", "d") != "v" || getenv("X_MISSING", "d") != "d" {
		t.Error("getenv")
	}
	if envInt("X_INT", 1) != 7 || envInt("X_BAD_INT", 1) != 1 || envInt("X_MISSING", 1) != 1 {
		t.Error("envInt")
	}
	if !envBool("X_BOOL", false) || envBool("X_MISSING", true) != true {
		t.Error("envBool")
	}
	if envDurSecs("X_INT", 1) != 7*time.Second {
		t.Error("envDurSecs")
	}
}
