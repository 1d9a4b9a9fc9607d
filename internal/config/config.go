// Package config resolves the runtime configuration for reaperd. A
// ~/.reaperd directory holds the database, the log file, and an
// optional config.yaml; REAPERD_* environment variables override the
// file, and the file overrides built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ruishinor/reaperd/internal/model"
)

const (
	AppDir         = ".reaperd"
	configFileName = "config.yaml"
	dbFileName     = "reaperd.db"
	logFileName    = "reaperd.log"
)

const sampleConfigYAML = `# reaperd configuration
# Values here override the built-in defaults; REAPERD_* environment
# variables override this file.

# db_path: reaperd.db
# log_path: reaperd.log
# log_level: info

# Lifespan used when quick-add gets no explicit duration.
# default_duration: 1h

# Duration presets offered on the board.
# presets: ["15m", "1h", "4h", "24h"]

# Buffer size of the timer queue channel.
# timer_buffer: 64
`

// FileConfig models config.yaml. Durations stay strings here and are
// parsed during resolution so a typo names the offending value.
type FileConfig struct {
	DBPath          string   `yaml:"db_path"`
	LogPath         string   `yaml:"log_path"`
	LogLevel        string   `yaml:"log_level"`
	DefaultDuration string   `yaml:"default_duration"`
	Presets         []string `yaml:"presets"`
	TimerBuffer     int      `yaml:"timer_buffer"`
}

type Config struct {
	Dir             string
	DBPath          string
	LogPath         string
	LogLevel        string
	DefaultDuration time.Duration
	Presets         []model.Preset
	TimerBuffer     int
}

func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home dir: %w", err)
	}
	return filepath.Join(home, AppDir), nil
}

// Load resolves the effective configuration for the given app dir. An
// empty dir means ~/.reaperd. Load never writes anything; EnsureDir
// materializes the directory and a sample config.
func Load(dir string) (Config, error) {
	if strings.TrimSpace(dir) == "" {
		var err error
		if dir, err = DefaultDir(); err != nil {
			return Config{}, err
		}
	}

	file := FileConfig{
		DBPath:          dbFileName,
		LogPath:         logFileName,
		LogLevel:        "info",
		DefaultDuration: "1h",
		Presets:         []string{"15m", "1h", "4h", "24h"},
		TimerBuffer:     64,
	}
	if err := mergeFile(&file, filepath.Join(dir, configFileName)); err != nil {
		return Config{}, err
	}
	mergeEnv(&file)

	return resolve(dir, file)
}

func mergeFile(base *FileConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var parsed FileConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	if v := strings.TrimSpace(parsed.DBPath); v != "" {
		base.DBPath = v
	}
	if v := strings.TrimSpace(parsed.LogPath); v != "" {
		base.LogPath = v
	}
	if v := strings.TrimSpace(parsed.LogLevel); v != "" {
		base.LogLevel = v
	}
	if v := strings.TrimSpace(parsed.DefaultDuration); v != "" {
		base.DefaultDuration = v
	}
	if len(parsed.Presets) > 0 {
		base.Presets = parsed.Presets
	}
	if parsed.TimerBuffer > 0 {
		base.TimerBuffer = parsed.TimerBuffer
	}
	return nil
}

func mergeEnv(base *FileConfig) {
	if v, ok := getEnv("REAPERD_DB"); ok {
		base.DBPath = v
	}
	if v, ok := getEnv("REAPERD_LOG"); ok {
		base.LogPath = v
	}
	if v, ok := getEnv("REAPERD_LOG_LEVEL"); ok {
		base.LogLevel = v
	}
	if v, ok := getEnv("REAPERD_DEFAULT_DURATION"); ok {
		base.DefaultDuration = v
	}
	if v, ok := getEnv("REAPERD_PRESETS"); ok {
		parts := strings.Split(v, ",")
		presets := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				presets = append(presets, p)
			}
		}
		if len(presets) > 0 {
			base.Presets = presets
		}
	}
	if v, ok := getEnvInt("REAPERD_TIMER_BUFFER"); ok && v > 0 {
		base.TimerBuffer = v
	}
}

func resolve(dir string, file FileConfig) (Config, error) {
	cfg := Config{
		Dir:         dir,
		DBPath:      resolvePath(dir, file.DBPath),
		LogPath:     resolvePath(dir, file.LogPath),
		LogLevel:    strings.ToLower(strings.TrimSpace(file.LogLevel)),
		TimerBuffer: file.TimerBuffer,
	}

	def, err := model.ParsePreset(file.DefaultDuration)
	if err != nil {
		return Config{}, fmt.Errorf("config: default_duration: %w", err)
	}
	cfg.DefaultDuration = def.Duration

	cfg.Presets = make([]model.Preset, 0, len(file.Presets))
	for _, raw := range file.Presets {
		p, err := model.ParsePreset(raw)
		if err != nil {
			return Config{}, fmt.Errorf("config: presets: %w", err)
		}
		cfg.Presets = append(cfg.Presets, p)
	}

	if cfg.TimerBuffer <= 0 {
		cfg.TimerBuffer = 64
	}
	return cfg, nil
}

// EnsureDir creates the app directory and drops a commented sample
// config on first run.
func EnsureDir(cfg Config) error {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("config: ensure app dir: %w", err)
	}
	path := filepath.Join(cfg.Dir, configFileName)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(sampleConfigYAML), 0o644)
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return base
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func getEnv(name string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return "", false
	}
	return raw, true
}

func getEnvInt(name string) (int, bool) {
	raw, ok := getEnv(name)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
