// Package config loads server settings from a YAML file with environment
// overrides. Precedence: CLI flags (applied by the caller) > env vars >
// config file > defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration decodes YAML duration strings like "30m" into a time.Duration.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds everything the server binary needs.
type Config struct {
	Addr          string   `yaml:"addr"`
	TemplatesDir  string   `yaml:"templates_dir"`
	VerbsFile     string   `yaml:"verbs_file"`
	UpstreamURL   string   `yaml:"upstream_url"`
	UpstreamKey   string   `yaml:"upstream_key"`
	CacheTTL      Duration `yaml:"cache_ttl"`
	TemplateCache bool     `yaml:"template_cache"`
	BackupKeep    int      `yaml:"backup_keep"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:       ":8080",
		VerbsFile:  "./data/verbs.json",
		CacheTTL:   Duration(time.Hour),
		BackupKeep: 5,
	}
}

// Load reads the config file at path (missing file is fine, defaults apply)
// and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// No config file; run on defaults.
		case err != nil:
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)

	// Secrets support ${VAR} interpolation so the file itself stays clean.
	cfg.UpstreamKey = os.Expand(cfg.UpstreamKey, os.Getenv)
	cfg.UpstreamURL = os.Expand(cfg.UpstreamURL, os.Getenv)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PAGEGEN_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("PAGEGEN_TEMPLATES_DIR"); v != "" {
		cfg.TemplatesDir = v
	}
	if v := os.Getenv("PAGEGEN_VERBS_FILE"); v != "" {
		cfg.VerbsFile = v
	}
	if v := os.Getenv("PAGEGEN_UPSTREAM_URL"); v != "" {
		cfg.UpstreamURL = v
	}
	if v := os.Getenv("PAGEGEN_UPSTREAM_KEY"); v != "" {
		cfg.UpstreamKey = v
	}
	if v := os.Getenv("PAGEGEN_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.CacheTTL = Duration(d)
		}
	}
	if v := os.Getenv("PAGEGEN_TEMPLATE_CACHE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.TemplateCache = b
		}
	}
	if v := os.Getenv("PAGEGEN_BACKUP_KEEP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.BackupKeep = n
		}
	}
}
