// Package config loads the inspector configuration from a directory of YAML
// files. Files are merged in lexical order; keys in later files override
// earlier ones, and nested maps merge key by key.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Feed kinds.
const (
	FeedTelnet = "telnet"
	FeedMQTT   = "mqtt"
	FeedFile   = "file"
	FeedStdin  = "stdin"
)

// UI modes.
const (
	UIModeAuto     = "auto"
	UIModeTview    = "tview"
	UIModeHeadless = "headless"
)

// Config represents the complete inspector configuration
type Config struct {
	Feeds           []FeedConfig     `yaml:"feeds"`
	Classifier      ClassifierConfig `yaml:"classifier"`
	UI              UIConfig         `yaml:"ui"`
	Logging         LoggingConfig    `yaml:"logging"`
	ChannelCapacity int              `yaml:"channel_capacity"`

	// LoadedFrom is the directory the config was read from; empty for defaults.
	LoadedFrom string `yaml:"-"`
}

// FeedConfig describes one record source.
type FeedConfig struct {
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Login    string `yaml:"login"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
	Path     string `yaml:"path"`
}

// Address returns host:port for network feeds.
func (f FeedConfig) Address() string {
	return fmt.Sprintf("%s:%d", f.Host, f.Port)
}

// ClassifierConfig pins message types to a view at startup.
type ClassifierConfig struct {
	LogTypes  []string `yaml:"log_types"`
	LiveTypes []string `yaml:"live_types"`
}

// UIConfig controls the presentation layer.
type UIConfig struct {
	Mode                 string `yaml:"mode"`
	TargetFPS            int    `yaml:"target_fps"`
	SystemLines          int    `yaml:"system_lines"`
	TimeFormat           string `yaml:"time_format"`
	EnableMouse          bool   `yaml:"enable_mouse"`
	StatsIntervalSeconds int    `yaml:"stats_interval_seconds"`
	// HoldOnClose keeps the inspector open after every feed has ended;
	// by default it exits once the record stream closes.
	HoldOnClose bool `yaml:"hold_on_close"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Dir           string `yaml:"dir"`
	RetentionDays int    `yaml:"retention_days"`
}

// Default returns the configuration used when no config directory exists:
// one stdin feed, automatic UI selection, console-only logging.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads every *.yaml / *.yml file in dir, merges them and validates the
// result. A path that is not a directory is rejected.
func Load(dir string) (*Config, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("config path %q is not a directory", dir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml":
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	merged := map[string]any{}
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", name, err)
		}
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", name, err)
		}
		mergeMaps(merged, doc)
	}

	raw, err := yaml.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to merge config files: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode merged config: %w", err)
	}
	cfg.LoadedFrom = dir
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func mergeMaps(dst, src map[string]any) {
	for key, value := range src {
		srcMap, srcIsMap := value.(map[string]any)
		dstMap, dstIsMap := dst[key].(map[string]any)
		if srcIsMap && dstIsMap {
			mergeMaps(dstMap, srcMap)
			continue
		}
		dst[key] = value
	}
}

func (c *Config) applyDefaults() {
	if len(c.Feeds) == 0 {
		c.Feeds = []FeedConfig{{Name: "stdin", Kind: FeedStdin}}
	}
	for i := range c.Feeds {
		f := &c.Feeds[i]
		f.Kind = strings.ToLower(strings.TrimSpace(f.Kind))
		if f.Name == "" {
			f.Name = fmt.Sprintf("%s-%d", f.Kind, i+1)
		}
		if f.Kind == FeedMQTT && f.Port == 0 {
			f.Port = 1883
		}
	}
	if c.ChannelCapacity <= 0 {
		c.ChannelCapacity = 4096
	}
	c.UI.Mode = strings.ToLower(strings.TrimSpace(c.UI.Mode))
	if c.UI.Mode == "" {
		c.UI.Mode = UIModeAuto
	}
	if c.UI.TargetFPS <= 0 {
		c.UI.TargetFPS = 20
	}
	if c.UI.SystemLines <= 0 {
		c.UI.SystemLines = 200
	}
	if c.UI.TimeFormat == "" {
		c.UI.TimeFormat = "15:04:05"
	}
	if c.UI.StatsIntervalSeconds <= 0 {
		c.UI.StatsIntervalSeconds = 10
	}
	if c.Logging.RetentionDays <= 0 {
		c.Logging.RetentionDays = 7
	}
	if c.Logging.Dir == "" {
		c.Logging.Dir = "data/logs"
	}
}

// Validate checks feed definitions and enumerated settings.
func (c *Config) Validate() error {
	names := make(map[string]struct{}, len(c.Feeds))
	stdinFeeds := 0
	for _, f := range c.Feeds {
		if _, dup := names[f.Name]; dup {
			return fmt.Errorf("feeds: duplicate feed name %q", f.Name)
		}
		names[f.Name] = struct{}{}
		switch f.Kind {
		case FeedTelnet:
			if f.Host == "" || f.Port <= 0 {
				return fmt.Errorf("feeds.%s: telnet feed needs host and port", f.Name)
			}
		case FeedMQTT:
			if f.Host == "" || f.Topic == "" {
				return fmt.Errorf("feeds.%s: mqtt feed needs host and topic", f.Name)
			}
		case FeedFile:
			if f.Path == "" {
				return fmt.Errorf("feeds.%s: file feed needs path", f.Name)
			}
		case FeedStdin:
			stdinFeeds++
		default:
			return fmt.Errorf("feeds.%s: unknown kind %q", f.Name, f.Kind)
		}
	}
	if stdinFeeds > 1 {
		return fmt.Errorf("feeds: at most one stdin feed allowed, got %d", stdinFeeds)
	}
	switch c.UI.Mode {
	case UIModeAuto, UIModeTview, UIModeHeadless:
	default:
		return fmt.Errorf("ui.mode: unknown mode %q", c.UI.Mode)
	}
	seen := make(map[string]string)
	for _, raw := range c.Classifier.LogTypes {
		if name := NormalizeTypeName(raw); name != "" {
			seen[name] = raw
		}
	}
	for _, raw := range c.Classifier.LiveTypes {
		name := NormalizeTypeName(raw)
		if other, ok := seen[name]; ok && name != "" {
			return fmt.Errorf("classifier: %s listed in both log_types (%q) and live_types (%q)", name, other, raw)
		}
	}
	return nil
}

// NormalizeTypeName is the form classifier pins are compared and applied in.
func NormalizeTypeName(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Print displays the configuration
func (c *Config) Print() {
	src := c.LoadedFrom
	if src == "" {
		src = "built-in defaults"
	}
	fmt.Printf("Config: %s\n", src)
	for _, f := range c.Feeds {
		switch f.Kind {
		case FeedTelnet:
			fmt.Printf("Feed %s: telnet %s\n", f.Name, f.Address())
		case FeedMQTT:
			fmt.Printf("Feed %s: mqtt %s (topic: %s)\n", f.Name, f.Address(), f.Topic)
		case FeedFile:
			fmt.Printf("Feed %s: file %s\n", f.Name, f.Path)
		default:
			fmt.Printf("Feed %s: %s\n", f.Name, f.Kind)
		}
	}
	if len(c.Classifier.LogTypes) > 0 {
		fmt.Printf("Pinned to log: %s\n", strings.Join(c.Classifier.LogTypes, ", "))
	}
	if len(c.Classifier.LiveTypes) > 0 {
		fmt.Printf("Pinned to live: %s\n", strings.Join(c.Classifier.LiveTypes, ", "))
	}
	fmt.Printf("UI: %s (%d fps)\n", c.UI.Mode, c.UI.TargetFPS)
}
