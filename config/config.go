// Package config loads server configuration from .env, the environment and
// flags, and builds the process logger.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// MemoryDB is the DB_PATH value that selects the in-memory stores.
const MemoryDB = "memory"

// Config holds every runtime setting of the server.
type Config struct {
	Port              int           `validate:"min=1,max=65535"`
	DBPath            string        `validate:"required"`
	Timezone          string        `validate:"required"`
	LogLevel          string        `validate:"oneof=trace debug info warn warning error fatal panic"`
	LogFormat         string        `validate:"oneof=json text"`
	Workers           int           `validate:"min=1,max=64"`
	SchedulerInterval time.Duration `validate:"min=1s"`
	SchedulerEnabled  bool
	RedisAddress      string
	CORSOrigins       []string

	// Location is resolved from Timezone by Validate.
	Location *time.Location `validate:"-"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Port:              8080,
		DBPath:            "payroll.db",
		Timezone:          "UTC",
		LogLevel:          "info",
		LogFormat:         "json",
		Workers:           4,
		SchedulerInterval: time.Hour,
		SchedulerEnabled:  true,
		CORSOrigins:       []string{"*"},
		Location:          time.UTC,
	}
}

// Load reads .env (a missing file is fine), overlays environment variables
// on the defaults and validates the result.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	var err error

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	integer := func(key string, dst *int) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" || err != nil {
			return
		}
		n, perr := strconv.Atoi(strings.TrimSpace(v))
		if perr != nil {
			err = fmt.Errorf("%s: %q is not an integer", key, v)
			return
		}
		*dst = n
	}

	integer("PORT", &cfg.Port)
	str("DB_PATH", &cfg.DBPath)
	str("TIMEZONE", &cfg.Timezone)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FORMAT", &cfg.LogFormat)
	integer("PAYROLL_WORKERS", &cfg.Workers)
	str("REDIS_ADDRESS", &cfg.RedisAddress)

	if v, ok := lookup("SCHEDULER_INTERVAL"); ok && strings.TrimSpace(v) != "" && err == nil {
		d, perr := time.ParseDuration(strings.TrimSpace(v))
		if perr != nil {
			err = fmt.Errorf("SCHEDULER_INTERVAL: %w", perr)
		}
		cfg.SchedulerInterval = d
	}
	if v, ok := lookup("SCHEDULER_ENABLED"); ok && strings.TrimSpace(v) != "" && err == nil {
		b, perr := strconv.ParseBool(strings.TrimSpace(v))
		if perr != nil {
			err = fmt.Errorf("SCHEDULER_ENABLED: %q is not a boolean", v)
		}
		cfg.SchedulerEnabled = b
	}
	if v, ok := lookup("CORS_ORIGINS"); ok && strings.TrimSpace(v) != "" {
		cfg.CORSOrigins = splitList(v)
	}

	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field ranges and resolves Location. Call it again after
// flags override fields.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid config: TIMEZONE %q: %w", c.Timezone, err)
	}
	c.Location = loc
	return nil
}

// UseMemoryStore reports whether DBPath selects the in-memory stores.
func (c Config) UseMemoryStore() bool {
	return strings.EqualFold(c.DBPath, MemoryDB)
}

// Addr is the listen address.
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
