package profile

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Profile is the configuration to start the main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where solace stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string
	// CatalogPath is the path to the response template catalog file
	CatalogPath string

	// Pipeline tuning
	ComplexityThreshold float64       // score above which a turn may go to the LLM
	RotationWindow      int           // turns a template is excluded after use
	QueryBudget         int           // max store reads per turn
	StoreReadTimeout    time.Duration // timeout per individual store read
	SessionTTL          time.Duration // session context cache TTL
	CacheCapacity       int           // max cached session contexts
	UsageCapacity       int           // max tracked users in the usage tracker

	// Resource governor
	GovernorWindow    int           // turn outcomes kept in the sliding window
	GovernorErrorRate float64       // error-rate threshold that opens the circuit
	GovernorLatency   time.Duration // p95 latency threshold that opens the circuit
	GovernorMemoryMB  int           // heap ceiling in MiB that opens the circuit
	GovernorCooldown  time.Duration // breach-free period before the circuit closes
	LLMRatePerMinute  int           // token bucket refill rate for LLM calls
	LLMBurst          int           // token bucket burst for LLM calls

	// LLM completion (optional collaborator)
	LLMEnabled bool
	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string
}

// IsDev returns true unless the profile runs in prod mode.
func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsLLMEnabled returns true if the LLM collaborator is configured.
func (p *Profile) IsLLMEnabled() bool {
	return p.LLMEnabled && p.LLMAPIKey != ""
}

// FromEnv loads configuration from SOLACE_* environment variables.
func FromEnv(version string) (*Profile, error) {
	v := viper.New()
	v.SetEnvPrefix("solace")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", "demo")
	v.SetDefault("addr", "")
	v.SetDefault("port", 8230)
	v.SetDefault("data", ".")
	v.SetDefault("driver", "sqlite")
	v.SetDefault("catalog", "catalog.yaml")

	v.SetDefault("complexity_threshold", 0.65)
	v.SetDefault("rotation_window", 3)
	v.SetDefault("query_budget", 3)
	v.SetDefault("store_read_timeout_ms", 250)
	v.SetDefault("session_ttl_minutes", 30)
	v.SetDefault("cache_capacity", 1000)
	v.SetDefault("usage_capacity", 10000)

	v.SetDefault("governor_window", 50)
	v.SetDefault("governor_error_rate", 0.30)
	v.SetDefault("governor_latency_ms", 800)
	v.SetDefault("governor_memory_mb", 512)
	v.SetDefault("governor_cooldown_seconds", 30)
	v.SetDefault("llm_rate_per_minute", 6)
	v.SetDefault("llm_burst", 2)

	v.SetDefault("llm_enabled", false)
	v.SetDefault("llm_base_url", "https://api.openai.com/v1")
	v.SetDefault("llm_model", "gpt-4o-mini")

	p := &Profile{
		Mode:        v.GetString("mode"),
		Addr:        v.GetString("addr"),
		Port:        v.GetInt("port"),
		Data:        v.GetString("data"),
		DSN:         v.GetString("dsn"),
		Driver:      v.GetString("driver"),
		Version:     version,
		CatalogPath: v.GetString("catalog"),

		ComplexityThreshold: v.GetFloat64("complexity_threshold"),
		RotationWindow:      v.GetInt("rotation_window"),
		QueryBudget:         v.GetInt("query_budget"),
		StoreReadTimeout:    time.Duration(v.GetInt("store_read_timeout_ms")) * time.Millisecond,
		SessionTTL:          time.Duration(v.GetInt("session_ttl_minutes")) * time.Minute,
		CacheCapacity:       v.GetInt("cache_capacity"),
		UsageCapacity:       v.GetInt("usage_capacity"),

		GovernorWindow:    v.GetInt("governor_window"),
		GovernorErrorRate: v.GetFloat64("governor_error_rate"),
		GovernorLatency:   time.Duration(v.GetInt("governor_latency_ms")) * time.Millisecond,
		GovernorMemoryMB:  v.GetInt("governor_memory_mb"),
		GovernorCooldown:  time.Duration(v.GetInt("governor_cooldown_seconds")) * time.Second,
		LLMRatePerMinute:  v.GetInt("llm_rate_per_minute"),
		LLMBurst:          v.GetInt("llm_burst"),

		LLMEnabled: v.GetBool("llm_enabled"),
		LLMAPIKey:  v.GetString("llm_api_key"),
		LLMBaseURL: v.GetString("llm_base_url"),
		LLMModel:   v.GetString("llm_model"),
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate normalizes and checks the profile.
func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported database driver %q", p.Driver)
	}

	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("solace_%s.db", p.Mode)
		p.DSN = filepath.Join(p.Data, dbFile)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("postgres driver requires SOLACE_DSN")
	}

	if p.CatalogPath == "" {
		return errors.New("catalog path must not be empty")
	}

	if p.ComplexityThreshold <= 0 || p.ComplexityThreshold > 1 {
		return errors.Errorf("complexity threshold must be in (0,1], got %v", p.ComplexityThreshold)
	}
	if p.RotationWindow <= 0 {
		p.RotationWindow = 3
	}
	if p.QueryBudget <= 0 {
		p.QueryBudget = 3
	}
	if p.StoreReadTimeout <= 0 {
		p.StoreReadTimeout = 250 * time.Millisecond
	}
	if p.SessionTTL <= 0 {
		p.SessionTTL = 30 * time.Minute
	}

	return nil
}
