package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"taskly/internal/storage"
	"taskly/internal/view"
)

const (
	AppName               = "taskly"
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "taskly.db"
	EnvConfigPath         = "TASKLY_CONFIG"

	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

type Keymap struct {
	Quit           string `toml:"quit"`
	Add            string `toml:"add"`
	Up             string `toml:"up"`
	Down           string `toml:"down"`
	Toggle         string `toml:"toggle"`
	Delete         string `toml:"delete"`
	Detail         string `toml:"detail"`
	Confirm        string `toml:"confirm"`
	Cancel         string `toml:"cancel"`
	Edit           string `toml:"edit"`
	Purge          string `toml:"purge"`
	FilterStatus   string `toml:"filter_status"`
	FilterCategory string `toml:"filter_category"`
	FilterPriority string `toml:"filter_priority"`
	SortDue        string `toml:"sort_due"`
	SortPriority   string `toml:"sort_priority"`
	SortCreated    string `toml:"sort_created"`
	SortDirection  string `toml:"sort_direction"`
}

type Config struct {
	Backend             string `toml:"backend"`
	DBPath              string `toml:"db_path"`
	FilePath            string `toml:"file_path"`
	StorageKey          string `toml:"storage_key"`
	DefaultFilter       string `toml:"default_filter"`
	DefaultSort         string `toml:"default_sort"`
	DefaultDirection    string `toml:"default_direction"`
	ScanIntervalMinutes int    `toml:"scan_interval_minutes"`
	LogLevel            string `toml:"log_level"`
	Keys                Keymap `toml:"keys"`
}

// ResolveConfigPath returns $TASKLY_CONFIG, or config.toml under the user
// config directory.
func ResolveConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultConfigFileName
	}
	return filepath.Join(dir, AppName, DefaultConfigFileName)
}

// LoadOrCreate reads path, writing the defaults there first if it does not
// exist. Relative storage paths are resolved against the config directory.
func LoadOrCreate(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		cfg.resolvePaths(filepath.Dir(path))
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	if cfg.Backend == "" {
		cfg.Backend = BackendSQLite
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBName
	}
	if cfg.StorageKey == "" {
		cfg.StorageKey = storage.DefaultKey
	}
	if cfg.ScanIntervalMinutes <= 0 {
		cfg.ScanIntervalMinutes = 60
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	cfg.resolvePaths(filepath.Dir(path))
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Backend {
	case BackendSQLite, BackendFile:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if _, err := view.ParseStatus(c.DefaultFilter); err != nil {
		return err
	}
	if _, err := view.ParseSort(c.DefaultSort); err != nil {
		return err
	}
	if _, err := view.ParseDirection(c.DefaultDirection); err != nil {
		return err
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Query is the view the front ends open with.
func (c Config) Query() view.Query {
	var q view.Query
	q.Status, _ = view.ParseStatus(c.DefaultFilter)
	q.Sort, _ = view.ParseSort(c.DefaultSort)
	q.Direction, _ = view.ParseDirection(c.DefaultDirection)
	return q
}

func (c Config) ScanInterval() time.Duration {
	return time.Duration(c.ScanIntervalMinutes) * time.Minute
}

func (c Config) Level() slog.Level {
	lvl, _ := parseLevel(c.LogLevel)
	return lvl
}

func (c *Config) resolvePaths(dir string) {
	if c.FilePath == "" {
		c.FilePath = c.StorageKey + ".json"
	}
	c.DBPath = resolve(dir, c.DBPath)
	c.FilePath = resolve(dir, c.FilePath)
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) || strings.HasPrefix(p, "file:") {
		return p
	}
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	return filepath.Join(dir, p)
}

func parseLevel(v string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", v)
	}
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Default is the configuration written on first launch, before any paths
// are resolved.
func Default() Config {
	return Config{
		Backend:             BackendSQLite,
		DBPath:              DefaultDBName,
		StorageKey:          storage.DefaultKey,
		DefaultFilter:       "all",
		DefaultSort:         "createdAt",
		DefaultDirection:    "asc",
		ScanIntervalMinutes: 60,
		LogLevel:            "info",
		Keys: Keymap{
			Quit:           "q",
			Add:            "a",
			Up:             "k",
			Down:           "j",
			Toggle:         " ",
			Delete:         "d",
			Detail:         "enter",
			Confirm:        "enter",
			Cancel:         "esc",
			Edit:           "e",
			Purge:          "X",
			FilterStatus:   "f",
			FilterCategory: "c",
			FilterPriority: "p",
			SortDue:        "sd",
			SortPriority:   "sp",
			SortCreated:    "st",
			SortDirection:  "r",
		},
	}
}
