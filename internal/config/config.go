package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	appLog "datestack/internal/log"
)

const (
	// EnvPrefix marks environment overrides. A double underscore separates
	// sections, e.g. DATESTACK_SERVER__API_KEY.
	EnvPrefix = "DATESTACK_"

	dirName  = ".datestack"
	fileName = "config.yaml"
)

// ServerConfig points at the remote aggregation service.
type ServerConfig struct {
	URL    string `koanf:"url" yaml:"url" json:"url"`
	APIKey string `koanf:"api_key" yaml:"api_key" json:"api_key"`
}

// CalendarConfig controls what the export collects.
type CalendarConfig struct {
	// SourceName labels this machine's events on the server.
	SourceName       string   `koanf:"source_name" yaml:"source_name" json:"source_name"`
	ExcludeCalendars []string `koanf:"exclude_calendars" yaml:"exclude_calendars" json:"exclude_calendars"`
	// ExcludeKeywords drops events whose title contains any of them,
	// ignoring case.
	ExcludeKeywords []string `koanf:"exclude_keywords" yaml:"exclude_keywords" json:"exclude_keywords"`
	DaysAhead       int      `koanf:"days_ahead" yaml:"days_ahead" json:"days_ahead"`
}

// SyncConfig controls daemon mode.
type SyncConfig struct {
	IntervalMinutes int `koanf:"interval_minutes" yaml:"interval_minutes" json:"interval_minutes"`
	// Listen enables the local status server when non-empty.
	Listen string `koanf:"listen" yaml:"listen" json:"listen,omitempty"`
}

// Config is the top-level client configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server" yaml:"server" json:"server"`
	Calendar CalendarConfig `koanf:"calendar" yaml:"calendar" json:"calendar"`
	Sync     SyncConfig     `koanf:"sync" yaml:"sync" json:"sync"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL: "http://localhost:8080",
		},
		Calendar: CalendarConfig{
			SourceName:       "My Mac",
			ExcludeCalendars: []string{},
			ExcludeKeywords:  []string{},
			DaysAhead:        14,
		},
		Sync: SyncConfig{
			IntervalMinutes: 15,
		},
	}
}

// DefaultPath is ~/.datestack/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, dirName, fileName), nil
}

// Normalize fills in zero values so that partially-filled files still
// behave correctly.
func (c *Config) Normalize() {
	c.Server.URL = strings.TrimSpace(c.Server.URL)
	if c.Calendar.DaysAhead <= 0 {
		c.Calendar.DaysAhead = 14
	}
	if c.Sync.IntervalMinutes <= 0 {
		c.Sync.IntervalMinutes = 15
	}
	if c.Calendar.ExcludeCalendars == nil {
		c.Calendar.ExcludeCalendars = []string{}
	}
	if c.Calendar.ExcludeKeywords == nil {
		c.Calendar.ExcludeKeywords = []string{}
	}
}

// Validate returns one message per missing required setting.
func (c *Config) Validate() []string {
	var problems []string
	if c.Server.URL == "" {
		problems = append(problems, "server.url is required")
	}
	if c.Server.APIKey == "" {
		problems = append(problems, "server.api_key is required")
	}
	if c.Calendar.SourceName == "" {
		problems = append(problems, "calendar.source_name is required")
	}
	return problems
}

// Err wraps Validate into a single error, or nil.
func (c *Config) Err() error {
	problems := c.Validate()
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("configuration errors: %s", strings.Join(problems, ", "))
}

// Load layers defaults, the YAML file at path and DATESTACK_ environment
// variables, later sources winning. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
		appLog.Debug("config file not found, using defaults and environment", "path", path)
	} else {
		appLog.Debug("loaded configuration", "path", path)
	}

	err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ToLower(strings.TrimPrefix(k, EnvPrefix))
			return strings.ReplaceAll(k, "__", "."), v
		},
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Normalize()

	return &cfg, nil
}

const fileComment = "# DateStack Client Configuration"

// fieldComments annotate the keys written by Encode.
var fieldComments = map[string]string{
	"server.url":                 "URL of your DateStack server",
	"server.api_key":             "API key generated from Settings > API Keys",
	"calendar.source_name":       "Name for this calendar source (shown in the web UI)",
	"calendar.exclude_calendars": "Calendars to exclude from sync",
	"calendar.exclude_keywords":  "Events containing these keywords will be excluded",
	"calendar.days_ahead":        "Number of days ahead to sync",
	"sync.interval_minutes":      "Interval in minutes for daemon mode",
	"sync.listen":                "Address for the local status server in daemon mode, e.g. 127.0.0.1:8765",
}

// Encode renders cfg as commented YAML.
func Encode(cfg *Config) ([]byte, error) {
	var root yamlv3.Node
	if err := root.Encode(cfg); err != nil {
		return nil, err
	}
	annotate(&root, "")

	doc := &yamlv3.Node{
		Kind:        yamlv3.DocumentNode,
		HeadComment: fileComment,
		Content:     []*yamlv3.Node{&root},
	}
	return yamlv3.Marshal(doc)
}

func annotate(n *yamlv3.Node, prefix string) {
	if n.Kind != yamlv3.MappingNode {
		return
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		path := key.Value
		if prefix != "" {
			path = prefix + "." + path
		}
		if c, ok := fieldComments[path]; ok {
			key.HeadComment = "# " + c
		}
		annotate(val, path)
	}
}

// Init writes the commented default configuration at path unless a file
// already exists there. It reports whether a file was created.
func Init(path string) (bool, error) {
	if path == "" {
		return false, errors.New("config path is empty")
	}
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}

	if err := Save(path, DefaultConfig()); err != nil {
		return false, err
	}
	return true, nil
}

// Save writes cfg to path as commented YAML.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	data, err := Encode(cfg)
	if err != nil {
		return err
	}
	return writeAtomic(path, data)
}

func (c *Config) Save(path string) error {
	return Save(path, c)
}

// writeAtomic writes through a temp file in the target directory and renames
// it over path. The result is always 0600 since it holds the API key.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".datestack-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// MaskedKey renders the API key for display without revealing it.
func (c *Config) MaskedKey() string {
	if c.Server.APIKey == "" {
		return "(not set)"
	}
	return strings.Repeat("*", 8)
}
