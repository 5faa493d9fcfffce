// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are tried in order when CONFIG_PATH is unset or
// points nowhere. The first existing file wins.
var DefaultConfigPaths = []string{
	"meetupsync.yaml",
	"meetupsync.yml",
	"/etc/meetupsync/config.yaml",
	"/etc/meetupsync/config.yml",
}

// ConfigPathEnvVar names an explicit config file.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "http://localhost:8000",
			Timeout:        30 * time.Second,
			RateLimitRPS:   10,
			RateLimitBurst: 20,
			Breaker: BreakerConfig{
				MaxRequests:  3,
				MinRequests:  10,
				FailureRatio: 0.6,
				Interval:     time.Minute,
				Timeout:      2 * time.Minute,
			},
		},
		Stream: StreamConfig{
			BackoffFloor:   time.Second,
			BackoffCeiling: 30 * time.Second,
		},
		Identity: IdentityConfig{
			UserID: 1,
			Lat:    37.5,
			Lng:    127.0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Server: ServerConfig{
			Addr:              "127.0.0.1:8765",
			AllowedOrigins:    []string{},
			ReadTimeout:       15 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			RateLimitRequests: 30,
			RateLimitWindow:   time.Minute,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5.0,
			FailureDecay:     30.0,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// LoadWithKoanf layers defaults, the config file and the environment, in
// that order, then validates the result.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	layers := []struct {
		name string
		load func(*koanf.Koanf) error
	}{
		{"defaults", loadDefaults},
		{"config file", loadFile},
		{"environment", loadEnv},
	}
	for _, layer := range layers {
		if err := layer.load(k); err != nil {
			return nil, fmt.Errorf("load %s: %w", layer.name, err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func loadDefaults(k *koanf.Koanf) error {
	return k.Load(structs.Provider(defaultConfig(), "koanf"), nil)
}

func loadFile(k *koanf.Koanf) error {
	path := findConfigFile()
	if path == "" {
		return nil
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// loadEnv applies mapped environment variables. List settings arrive as
// comma-separated strings and are split here.
func loadEnv(k *koanf.Koanf) error {
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return err
	}
	for _, path := range schema().lists {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		if err := k.Set(path, splitList(s)); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// findConfigFile returns CONFIG_PATH when it exists, else the first of
// DefaultConfigPaths that does, else "".
func findConfigFile() string {
	candidates := DefaultConfigPaths
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		candidates = append([]string{p}, candidates...)
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envSectionNames shortens a top-level section in variable names.
var envSectionNames = map[string]string{
	"logging": "LOG",
}

// envAliases are accepted in addition to the derived names.
var envAliases = map[string]string{
	"SERVER_RATE_LIMIT":  "server.rate_limit_requests",
	"SERVER_RATE_WINDOW": "server.rate_limit_window",
}

type configSchema struct {
	env   map[string]string // variable name -> koanf path
	lists []string          // paths holding []string
}

// schema derives the variable table from the default config's keys, so
// every setting is reachable from the environment: api.breaker.timeout is
// API_BREAKER_TIMEOUT and logging.level is LOG_LEVEL.
var schema = sync.OnceValue(func() configSchema {
	k := koanf.New(".")
	if err := loadDefaults(k); err != nil {
		panic(fmt.Sprintf("config: defaults do not load: %v", err))
	}

	s := configSchema{env: make(map[string]string, len(k.Keys())+len(envAliases))}
	for _, path := range k.Keys() {
		s.env[envName(path)] = path
		if _, ok := k.Get(path).([]string); ok {
			s.lists = append(s.lists, path)
		}
	}
	for name, path := range envAliases {
		s.env[name] = path
	}
	sort.Strings(s.lists)
	return s
})

func envName(path string) string {
	section, rest, _ := strings.Cut(path, ".")
	prefix, ok := envSectionNames[section]
	if !ok {
		prefix = strings.ToUpper(section)
	}
	return prefix + "_" + strings.ToUpper(strings.ReplaceAll(rest, ".", "_"))
}

// envTransformFunc maps a variable name to its koanf path. Unknown
// variables map to "" and are skipped.
func envTransformFunc(key string) string {
	return schema().env[strings.ToUpper(key)]
}

// EnvVars lists every variable the loader reads, sorted.
func EnvVars() []string {
	names := make([]string, 0, len(schema().env)+1)
	for name := range schema().env {
		names = append(names, name)
	}
	names = append(names, ConfigPathEnvVar)
	sort.Strings(names)
	return names
}
