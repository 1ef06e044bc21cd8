package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"quiz-attempt-service/internal/ratelimit"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
	Play struct {
		TTL string `yaml:"ttl"`
	} `yaml:"play"`
	Auth struct {
		JWTSecret string `yaml:"jwtSecret"`
	} `yaml:"auth"`
	CORS struct {
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"cors"`
	RateLimit RateLimit `yaml:"rateLimit"`
}

// RateLimit configures the request throttle. Store is "memory" (default) or "redis".
type RateLimit struct {
	Store         string                    `yaml:"store"`
	SweepInterval string                    `yaml:"sweepInterval"`
	Classes       map[string]RateLimitClass `yaml:"classes"`
}

type RateLimitClass struct {
	Limit  int    `yaml:"limit"`
	Window string `yaml:"window"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// Rules merges configured classes over the default throttle rules. Entries with a
// non-positive limit keep the default.
func (r RateLimit) Rules() map[ratelimit.RouteClass]ratelimit.Rule {
	rules := ratelimit.DefaultRules()
	for name, c := range r.Classes {
		class := ratelimit.RouteClass(name)
		base, ok := rules[class]
		if !ok {
			base = rules[ratelimit.ClassGeneral]
		}
		if c.Limit > 0 {
			base.Limit = c.Limit
		}
		base.Window = TTLDuration(c.Window, base.Window)
		rules[class] = base
	}
	return rules
}

// Sweep returns the memory-store sweep interval, never finer than the longest window.
func (r RateLimit) Sweep() time.Duration {
	return ratelimit.SweepInterval(TTLDuration(r.SweepInterval, 5*time.Minute), r.Rules())
}
