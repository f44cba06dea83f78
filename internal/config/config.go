// Package config provides configuration for the codelearn CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"codelearn/internal/remote"
)

// FileName is the optional per-repository config file.
const FileName = ".codelearn.yaml"

// Config holds run configuration. Values come from defaults, then the config
// file, then CODELEARN_* environment variables; command-line flags are
// applied last by the caller.
type Config struct {
	// Server is the learning service base URL.
	Server string `yaml:"server"`
	// StudioURL is the base URL of the studio that opens learned diffs.
	StudioURL string `yaml:"studio_url"`
	// Token authenticates against the learning service. Env only.
	Token string `yaml:"-"`
	// Engine is the codemod engine requested from the studio.
	Engine string `yaml:"engine"`
	// Strategy is "hunks" or "statements".
	Strategy string `yaml:"strategy"`
	// Match is the statement match mode, "position" or "substring".
	Match string `yaml:"match"`
	// Ref is the commit the working tree is compared with.
	Ref string `yaml:"ref"`
	// Context is the number of diff context lines.
	Context int `yaml:"context"`
	// Workers bounds concurrent file processing (0 = GOMAXPROCS).
	Workers int `yaml:"workers"`
	// Include and Exclude are glob patterns over repository paths.
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
	// Compress sends zstd-encoded request bodies.
	Compress bool `yaml:"compress"`
	// Timeout bounds the whole run including submission.
	Timeout time.Duration `yaml:"timeout"`
	// Debug enables debug logging.
	Debug bool `yaml:"debug"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server:    remote.DefaultServer,
		StudioURL: "https://codemod.com/studio",
		Engine:    remote.DefaultEngine,
		Strategy:  "hunks",
		Match:     "position",
		Ref:       "HEAD",
		Context:   3,
		Timeout:   2 * time.Minute,
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when it
// does not exist) and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server = getEnv("CODELEARN_SERVER", c.Server)
	c.StudioURL = getEnv("CODELEARN_STUDIO_URL", c.StudioURL)
	c.Token = getEnv("CODELEARN_TOKEN", c.Token)
	c.Engine = getEnv("CODELEARN_ENGINE", c.Engine)
	c.Strategy = getEnv("CODELEARN_STRATEGY", c.Strategy)
	c.Match = getEnv("CODELEARN_MATCH", c.Match)
	c.Ref = getEnv("CODELEARN_REF", c.Ref)
	c.Context = getEnvInt("CODELEARN_CONTEXT", c.Context)
	c.Workers = getEnvInt("CODELEARN_WORKERS", c.Workers)
	c.Include = getEnvList("CODELEARN_INCLUDE", c.Include)
	c.Exclude = getEnvList("CODELEARN_EXCLUDE", c.Exclude)
	c.Compress = getEnvBool("CODELEARN_COMPRESS", c.Compress)
	c.Timeout = getEnvDuration("CODELEARN_TIMEOUT", c.Timeout)
	c.Debug = getEnvBool("CODELEARN_DEBUG", c.Debug)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// getEnvList splits a comma-separated value.
func getEnvList(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
