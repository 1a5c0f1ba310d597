package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDBPath         = "instance/todo.sqlite"
	DefaultAddr           = "127.0.0.1:5000"

	// DBPathEnv overrides db_path when set, either in the environment or in a .env file.
	DBPathEnv = "TODO_DATABASE"
)

type Keymap struct {
	Quit    string `toml:"quit"`
	Add     string `toml:"add"`
	Up      string `toml:"up"`
	Down    string `toml:"down"`
	Toggle  string `toml:"toggle"`
	Delete  string `toml:"delete"`
	Confirm string `toml:"confirm"`
	Cancel  string `toml:"cancel"`
}

type Config struct {
	DBPath      string `toml:"db_path"`
	Addr        string `toml:"addr"`
	MetricsAddr string `toml:"metrics_addr"`
	// Heading is the page title of the web app; blank means "Tasks".
	Heading     string `toml:"heading"`
	LogLevel    string `toml:"log_level"`
	LogJSON     bool   `toml:"log_json"`
	Keys        Keymap `toml:"keys"`
}

// ResolveConfigPath returns the config file to use: $TODO_CONFIG, or config.toml
// in the working directory.
func ResolveConfigPath() string {
	if p := os.Getenv("TODO_CONFIG"); p != "" {
		return p
	}
	return DefaultConfigFileName
}

func LoadOrCreate(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return applyEnv(cfg), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg = fillDefaults(cfg)
	return applyEnv(cfg), nil
}

// LoadDotEnv loads a .env file from the working directory if one exists.
func LoadDotEnv() error {
	if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load()
}

func applyEnv(cfg Config) Config {
	if p := os.Getenv(DBPathEnv); p != "" {
		cfg.DBPath = p
	}
	return cfg
}

func fillDefaults(cfg Config) Config {
	def := Default()
	if cfg.DBPath == "" {
		cfg.DBPath = def.DBPath
	}
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	if cfg.Keys == (Keymap{}) {
		cfg.Keys = def.Keys
	}
	return cfg
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func Default() Config {
	return Config{
		DBPath:   DefaultDBPath,
		Addr:     DefaultAddr,
		LogLevel: "info",
		Keys: Keymap{
			Quit:    "q",
			Add:     "a",
			Up:      "k",
			Down:    "j",
			Toggle:  " ",
			Delete:  "d",
			Confirm: "enter",
			Cancel:  "esc",
		},
	}
}
