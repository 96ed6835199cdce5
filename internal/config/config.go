package config

import (
	"errors"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "haru.db"
	DefaultDebounceMS     = 300
)

type Keymap struct {
	Quit            string `toml:"quit"`
	Add             string `toml:"add"`
	Up              string `toml:"up"`
	Down            string `toml:"down"`
	Toggle          string `toml:"toggle"`
	Delete          string `toml:"delete"`
	Edit            string `toml:"edit"`
	Search          string `toml:"search"`
	Theme           string `toml:"theme"`
	DeleteGroup     string `toml:"delete_group"`
	DeleteCompleted string `toml:"delete_completed"`
	DeleteAll       string `toml:"delete_all"`
	Confirm         string `toml:"confirm"`
	Cancel          string `toml:"cancel"`
}

type Config struct {
	DBPath     string `toml:"db_path"`
	DebounceMS int    `toml:"debounce_ms"`
	Keys       Keymap `toml:"keys"`
}

// ResolveConfigPath prefers a config.toml in the working directory and
// falls back to the user config dir.
func ResolveConfigPath() string {
	if _, err := os.Stat(DefaultConfigFileName); err == nil {
		return DefaultConfigFileName
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultConfigFileName
	}
	return filepath.Join(dir, "haru", DefaultConfigFileName)
}

func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath()
	}
	if cfg.DebounceMS <= 0 {
		cfg.DebounceMS = DefaultDebounceMS
	}
	return cfg, nil
}

func write(path string, cfg Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil && !errors.Is(err, os.ErrExist) {
			return err
		}
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultDBName
	}
	return filepath.Join(dir, "haru", DefaultDBName)
}

func defaultConfig() Config {
	return Config{
		DBPath:     defaultDBPath(),
		DebounceMS: DefaultDebounceMS,
		Keys: Keymap{
			Quit:            "q",
			Add:             "a",
			Up:              "k",
			Down:            "j",
			Toggle:          " ",
			Delete:          "d",
			Edit:            "e",
			Search:          "/",
			Theme:           "t",
			DeleteGroup:     "D",
			DeleteCompleted: "C",
			DeleteAll:       "X",
			Confirm:         "enter",
			Cancel:          "esc",
		},
	}
}
