// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for
// excelmanus.
//
// Supports both TOML and JSON formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.excelmanus/config.toml
//   - ~/.excelmanus/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete excelmanus configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`

	// Workbook configuration
	Workbook WorkbookConfig `toml:"workbook" json:"workbook"`

	// Storage configuration
	Storage StorageConfig `toml:"storage" json:"storage"`

	// Log configuration
	Log LogConfig `toml:"log" json:"log"`
}

// UIConfig contains chat interface settings.
type UIConfig struct {
	// Theme selects "dark", "light", or "auto" terminal detection.
	Theme string `toml:"theme" json:"theme"`

	// CollapsedRows is the height budget, in terminal rows, for a
	// collapsed preview. Content within this budget renders directly.
	CollapsedRows int `toml:"collapsed_rows" json:"collapsed_rows"`

	// ExpandedRows is the height budget for an expanded preview.
	ExpandedRows int `toml:"expanded_rows" json:"expanded_rows"`

	// AutoFollow keeps streaming previews pinned to their latest
	// content instead of starting collapsed.
	AutoFollow bool `toml:"auto_follow" json:"auto_follow"`

	// DiffDisplayCap is the maximum diff rows rendered before the
	// "show more" affordance appears. 0 disables the cap.
	DiffDisplayCap int `toml:"diff_display_cap" json:"diff_display_cap"`

	// AltScreen runs the TUI on the terminal's alternate screen.
	AltScreen bool `toml:"alt_screen" json:"alt_screen"`
}

// WorkbookConfig contains spreadsheet preview settings.
type WorkbookConfig struct {
	// MaxPreviewRows caps the rows read from a sheet for preview.
	MaxPreviewRows int `toml:"max_preview_rows" json:"max_preview_rows"`

	// WatchDebounceMs is the file-watch debounce in milliseconds.
	WatchDebounceMs int `toml:"watch_debounce_ms" json:"watch_debounce_ms"`
}

// StorageConfig contains persistence settings.
type StorageConfig struct {
	// ConversationDir overrides the conversation directory
	// (default ~/.excelmanus/conversations).
	ConversationDir string `toml:"conversation_dir" json:"conversation_dir"`

	// MaxConversations limits stored conversations (0 = unlimited).
	MaxConversations int `toml:"max_conversations" json:"max_conversations"`

	// HistoryDBPath overrides the edit-history database path
	// (default ~/.excelmanus/history.db).
	HistoryDBPath string `toml:"history_db_path" json:"history_db_path"`
}

// LogConfig contains debug logging settings. The TUI owns stdout, so
// logs go to a file.
type LogConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled"`
	Path    string `toml:"path" json:"path"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		Version: "1",
		UI: UIConfig{
			Theme:          "auto",
			CollapsedRows:  8,
			ExpandedRows:   20,
			AutoFollow:     false,
			DiffDisplayCap: 200,
			AltScreen:      true,
		},
		Workbook: WorkbookConfig{
			MaxPreviewRows:  500,
			WatchDebounceMs: 500,
		},
		Storage: StorageConfig{
			MaxConversations: 100,
		},
		Log: LogConfig{
			Enabled: false,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the excelmanus configuration directory.
func ConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".excelmanus"), nil
}

// ConfigPathTOML returns the TOML config file path.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the JSON config file path.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// =============================================================================
// LOAD
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	if path, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}
	if path, err := ConfigPathJSON(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file with full
// defaulting, env overrides, and validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read JSON config: %w", err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode JSON config: %w", err)
		}
	} else {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode TOML config: %w", err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults restores defaults for fields a config file zeroed out.
func (c *Config) fillDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.UI.CollapsedRows == 0 {
		c.UI.CollapsedRows = defaults.UI.CollapsedRows
	}
	if c.UI.ExpandedRows == 0 {
		c.UI.ExpandedRows = defaults.UI.ExpandedRows
	}
	if c.Workbook.MaxPreviewRows == 0 {
		c.Workbook.MaxPreviewRows = defaults.Workbook.MaxPreviewRows
	}
	if c.Workbook.WatchDebounceMs == 0 {
		c.Workbook.WatchDebounceMs = defaults.Workbook.WatchDebounceMs
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies EXCELMANUS_* environment variables on top of
// the loaded values.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("EXCELMANUS_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("EXCELMANUS_AUTO_FOLLOW"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.UI.AutoFollow = b
		}
	}
	if v := os.Getenv("EXCELMANUS_COLLAPSED_ROWS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.UI.CollapsedRows = n
		}
	}
	if v := os.Getenv("EXCELMANUS_EXPANDED_ROWS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.UI.ExpandedRows = n
		}
	}
	if v := os.Getenv("EXCELMANUS_CONVERSATION_DIR"); v != "" {
		c.Storage.ConversationDir = v
	}
	if v := os.Getenv("EXCELMANUS_HISTORY_DB"); v != "" {
		c.Storage.HistoryDBPath = v
	}
	if v := os.Getenv("EXCELMANUS_LOG"); v != "" {
		c.Log.Enabled = true
		c.Log.Path = v
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes one invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors aggregates all validation failures.
type ValidateErrors []ValidationError

// Error implements the error interface.
func (e ValidateErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration for consistency. Height budgets are
// clamped-by-rejection: an expanded budget at or below the collapsed
// budget would make the expand transition meaningless.
func (c *Config) Validate() error {
	var errs ValidateErrors

	switch c.UI.Theme {
	case "auto", "dark", "light":
	default:
		errs = append(errs, ValidationError{"ui.theme", "must be auto, dark, or light"})
	}
	if c.UI.CollapsedRows < 3 {
		errs = append(errs, ValidationError{"ui.collapsed_rows", "must be at least 3"})
	}
	if c.UI.ExpandedRows <= c.UI.CollapsedRows {
		errs = append(errs, ValidationError{"ui.expanded_rows", "must exceed collapsed_rows"})
	}
	if c.UI.DiffDisplayCap < 0 {
		errs = append(errs, ValidationError{"ui.diff_display_cap", "must not be negative"})
	}
	if c.Workbook.MaxPreviewRows < 1 {
		errs = append(errs, ValidationError{"workbook.max_preview_rows", "must be positive"})
	}
	if c.Workbook.WatchDebounceMs < 0 {
		errs = append(errs, ValidationError{"workbook.watch_debounce_ms", "must not be negative"})
	}
	if c.Storage.MaxConversations < 0 {
		errs = append(errs, ValidationError{"storage.max_conversations", "must not be negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// SAVE
// =============================================================================

// Save writes the configuration to the TOML config path.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to a TOML file.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// DERIVED PATHS
// =============================================================================

// ConversationDir resolves the conversation storage directory.
func (c *Config) ConversationDir() (string, error) {
	if c.Storage.ConversationDir != "" {
		return c.Storage.ConversationDir, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "conversations"), nil
}

// HistoryDBPath resolves the edit-history database path.
func (c *Config) HistoryDBPath() (string, error) {
	if c.Storage.HistoryDBPath != "" {
		return c.Storage.HistoryDBPath, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}
