package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	Port            string
	SupabaseURL     string
	SupabaseAnonKey string
	RefreshInterval time.Duration
	HealthInterval  time.Duration
}

func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8081"),
		SupabaseURL:     getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey: getEnv("SUPABASE_ANON_KEY", ""),
		RefreshInterval: getDuration("REFRESH_INTERVAL", 30*time.Second),
		HealthInterval:  getDuration("HEALTH_INTERVAL", 2*time.Minute),
	}
}

// Validate checks the backend credentials before any client is built.
// A misconfigured endpoint should fail startup, not every request.
func (c *Config) Validate() error {
	var problems []string
	if c.SupabaseURL == "" {
		problems = append(problems, "SUPABASE_URL is not set")
	} else if !strings.HasPrefix(c.SupabaseURL, "https://") {
		problems = append(problems, "SUPABASE_URL must use https")
	}
	if len(c.SupabaseAnonKey) < 20 {
		problems = append(problems, "SUPABASE_ANON_KEY looks invalid")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
