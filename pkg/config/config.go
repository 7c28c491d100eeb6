// Package config loads keel runtime configuration from a YAML file with
// KEEL_* environment overrides, and turns it into runtime options.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/keelwork/keel/pkg/runtime"
)

// Config is the on-disk configuration shape.
type Config struct {
	Store struct {
		ID                string        `yaml:"id"`
		QueueCapacity     int           `yaml:"queue_capacity"`
		ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
		EffectConcurrency int           `yaml:"effect_concurrency"`
	} `yaml:"store"`
	Journal struct {
		DSN string `yaml:"dsn"`
	} `yaml:"journal"`
	Relay struct {
		RedisAddr     string `yaml:"redis_addr"`
		RedisPassword string `yaml:"redis_password"`
		RedisDB       int    `yaml:"redis_db"`
		Channel       string `yaml:"channel"`
	} `yaml:"relay"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	var c Config
	c.Store.QueueCapacity = 1024
	c.Store.ShutdownTimeout = 5 * time.Second
	return c
}

// Load reads path (optional; "" means defaults only) and applies environment
// overrides: KEEL_STORE_ID, KEEL_QUEUE_CAPACITY, KEEL_SHUTDOWN_TIMEOUT,
// KEEL_EFFECT_CONCURRENCY, KEEL_JOURNAL_DSN, KEEL_REDIS_ADDR, KEEL_REDIS_DB,
// KEEL_RELAY_CHANNEL.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &c); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	c.Store.ID = getEnv("KEEL_STORE_ID", c.Store.ID)
	c.Journal.DSN = getEnv("KEEL_JOURNAL_DSN", c.Journal.DSN)
	c.Relay.RedisAddr = getEnv("KEEL_REDIS_ADDR", c.Relay.RedisAddr)
	c.Relay.RedisPassword = getEnv("KEEL_REDIS_PASSWORD", c.Relay.RedisPassword)
	c.Relay.Channel = getEnv("KEEL_RELAY_CHANNEL", c.Relay.Channel)

	if v := os.Getenv("KEEL_QUEUE_CAPACITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("KEEL_QUEUE_CAPACITY: %w", err)
		}
		c.Store.QueueCapacity = n
	}
	if v := os.Getenv("KEEL_EFFECT_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("KEEL_EFFECT_CONCURRENCY: %w", err)
		}
		c.Store.EffectConcurrency = n
	}
	if v := os.Getenv("KEEL_REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("KEEL_REDIS_DB: %w", err)
		}
		c.Relay.RedisDB = n
	}
	if v := os.Getenv("KEEL_SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("KEEL_SHUTDOWN_TIMEOUT: %w", err)
		}
		c.Store.ShutdownTimeout = d
	}
	return c, nil
}

// StoreOptions translates the store section into runtime options.
func (c Config) StoreOptions() []runtime.Option {
	var opts []runtime.Option
	if c.Store.ID != "" {
		opts = append(opts, runtime.WithStoreID(c.Store.ID))
	}
	if c.Store.QueueCapacity > 0 {
		opts = append(opts, runtime.WithQueueCapacity(c.Store.QueueCapacity))
	}
	if c.Store.ShutdownTimeout > 0 {
		opts = append(opts, runtime.WithShutdownTimeout(c.Store.ShutdownTimeout))
	}
	if c.Store.EffectConcurrency > 0 {
		opts = append(opts, runtime.WithEffectConcurrency(c.Store.EffectConcurrency))
	}
	return opts
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
