package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port   string
	DBPath string

	// Time handling. All hour buckets and day boundaries are computed
	// in Location; stored timestamps are naive relative to it.
	Timezone string
	Location *time.Location

	// Polling
	EnableScheduler bool
	MisfireGrace    time.Duration
	ProbeTimeout    time.Duration
	ProbeRetries    int
	PollConcurrency int

	// Owner account (single admin). Empty OwnerHash disables the
	// owner API rather than failing startup.
	OwnerUser string
	OwnerHash []byte

	// Alert channels. An unset channel is skipped, not an error.
	DiscordWebhookURL  string
	TelegramBotToken   string
	TelegramChatID     string
	AlertWebhookURL    string
	AlertWebhookSecret string
	SMTPHost           string
	SMTPPort           int
	SMTPUser           string
	SMTPPassword       string
	AlertEmail         string
	FromEmail          string

	// Update checker
	GitHubRepo  string
	GitHubToken string

	// First-run seed targets
	SeedFile    string
	SeedTargets []SeedTarget
}

// SeedTarget describes a target created on first run when the targets
// table is empty.
type SeedTarget struct {
	Name      string `yaml:"name"`
	BaseURL   string `yaml:"base_url"`
	StatsPath string `yaml:"stats_path"`
	Enabled   *bool  `yaml:"enabled"`
}

type seedFile struct {
	Targets []SeedTarget `yaml:"targets"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getenv("PORT", "4580"),
		DBPath:          getenv("DB_PATH", "./status.sqlite"),
		Timezone:        getenv("TIMEZONE", "Asia/Bangkok"),
		EnableScheduler: envBool("ENABLE_SCHEDULER", true),
		MisfireGrace:    time.Duration(envInt("MISFIRE_GRACE_MINUTES", 15)) * time.Minute,
		ProbeTimeout:    envDurSecs("PROBE_TIMEOUT_SECS", 8),
		ProbeRetries:    envInt("PROBE_RETRIES", 1),
		PollConcurrency: envInt("POLL_CONCURRENCY", 4),
		OwnerUser:       getenv("OWNER_USERNAME", "owner"),

		DiscordWebhookURL:  getenv("DISCORD_WEBHOOK_URL", ""),
		TelegramBotToken:   getenv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:     getenv("TELEGRAM_CHAT_ID", ""),
		AlertWebhookURL:    getenv("ALERT_WEBHOOK_URL", ""),
		AlertWebhookSecret: getenv("ALERT_WEBHOOK_SECRET", ""),
		SMTPHost:           getenv("SMTP_HOST", ""),
		SMTPPort:           envInt("SMTP_PORT", 587),
		SMTPUser:           getenv("SMTP_USER", ""),
		SMTPPassword:       getenv("SMTP_PASSWORD", ""),
		AlertEmail:         getenv("ALERT_EMAIL", ""),
		FromEmail:          getenv("SMTP_FROM", ""),

		GitHubRepo:      getenv("GITHUB_REPO", ""),
		GitHubToken:     getenv("GITHUB_TOKEN", ""),
		SeedFile:        getenv("SEED_FILE", ""),
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	if cfg.ProbeRetries < 0 {
		cfg.ProbeRetries = 0
	}
	if cfg.PollConcurrency < 1 {
		cfg.PollConcurrency = 1
	}

	// Owner password: prefer a pre-computed bcrypt hash, else hash the
	// plaintext once at startup. Neither set leaves the owner API locked.
	if hp := getenv("OWNER_PASSWORD_BCRYPT", ""); hp != "" {
		cfg.OwnerHash = []byte(hp)
	} else if pw := getenv("OWNER_PASSWORD", ""); pw != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		cfg.OwnerHash = h
	}

	cfg.SeedTargets, err = loadSeedTargets(cfg.SeedFile)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadSeedTargets reads seed targets from the YAML file when present,
// falling back to the single SEED_TARGET_* env vars.
func loadSeedTargets(path string) ([]SeedTarget, error) {
	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read seed file: %w", err)
		}
		if err == nil {
			var sf seedFile
			if err := yaml.Unmarshal(content, &sf); err != nil {
				return nil, fmt.Errorf("parse seed file: %w", err)
			}
			var out []SeedTarget
			for _, t := range sf.Targets {
				if t.Name == "" || t.BaseURL == "" {
					continue
				}
				if t.StatsPath == "" {
					t.StatsPath = "/api/stats"
				}
				t.BaseURL = strings.TrimRight(t.BaseURL, "/")
				out = append(out, t)
			}
			return out, nil
		}
	}

	name := getenv("SEED_TARGET_NAME", "")
	base := getenv("SEED_TARGET_BASE_URL", "")
	if name == "" || base == "" {
		return nil, nil
	}
	return []SeedTarget{{
		Name:      name,
		BaseURL:   strings.TrimRight(base, "/"),
		StatsPath: getenv("SEED_TARGET_STATS_PATH", "/api/stats"),
	}}, nil
}

// Helper functions
func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(k string, def bool) bool {
	v := strings.ToLower(getenv(k, ""))
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "yes"
}

func envDurSecs(k string, def int) time.Duration {
	return time.Duration(envInt(k, def)) * time.Second
}
