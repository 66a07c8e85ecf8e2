/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.
type AppConfig struct {
	ConfigVersion int             `yaml:"config_version"`
	Logging       LoggingConfig   `yaml:"logging"`
	Editor        EditorConfig    `yaml:"editor"`
	Store         StoreConfig     `yaml:"store"`
	Backend       BackendConfig   `yaml:"backend"`
	Export        ExportConfig    `yaml:"export"`
	Media         MediaConfig     `yaml:"media"`
	Telemetry     TelemetryConfig `yaml:"telemetry"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type EditorConfig struct {
	HistoryDepth     int    `yaml:"history_depth"`
	CoalesceWindowMs int    `yaml:"coalesce_window_ms"`
	DefaultLanguage  string `yaml:"default_language"`
	ThumbSize        string `yaml:"thumb_size"` // S | M | L
}

// StoreConfig selects where documents are saved. URL forms:
//
//	dir:///path/to/works      one JSON file per work
//	sqlite:///path/works.db   SQLite with revision history
//	https://host              remote backend
type StoreConfig struct {
	URL       string `yaml:"url"`
	TimeoutMs int    `yaml:"timeout_ms"`
	// The remote token is not stored on disk; it lives in the OS keychain.
}

type BackendConfig struct {
	Addr        string `yaml:"addr"`
	DatabaseURL string `yaml:"database_url"`
	// AuthSecret signs bearer tokens. Prefer the env override in production.
	AuthSecret string `yaml:"auth_secret"`
}

type ExportConfig struct {
	OutDir   string  `yaml:"out_dir"`
	FontPath string  `yaml:"font_path"`
	PNGScale float64 `yaml:"png_scale"`
}

type MediaConfig struct {
	BlobDir     string `yaml:"blob_dir"`
	MaxWidth    int    `yaml:"max_width"`
	JPEGQuality int    `yaml:"jpeg_quality"`
}

type TelemetryConfig struct {
	OptIn    bool   `yaml:"opt_in"`
	Endpoint string `yaml:"endpoint"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	data := dataDir()
	return AppConfig{
		ConfigVersion: 1,
		Logging:       LoggingConfig{Level: "info", Format: "console"},
		Editor:        EditorConfig{HistoryDepth: 50, CoalesceWindowMs: 500, DefaultLanguage: "ja", ThumbSize: "M"},
		Store:         StoreConfig{URL: "dir://" + filepath.ToSlash(filepath.Join(data, "works")), TimeoutMs: 15000},
		Backend:       BackendConfig{Addr: ":8080"},
		Export:        ExportConfig{OutDir: "export", PNGScale: 2},
		Media:         MediaConfig{BlobDir: filepath.Join(data, "blobs"), MaxWidth: 1280, JPEGQuality: 85},
	}
}

// Env var names used as overrides.
const (
	EnvConfigFile      = "DSF_CONFIG"
	EnvStoreURL        = "DSF_STORE_URL"
	EnvStoreTimeoutMs  = "DSF_STORE_TIMEOUT_MS"
	EnvBackendAddr     = "DSF_BACKEND_ADDR"
	EnvDatabaseURL     = "DSF_PG_DSN"
	EnvAuthSecret      = "DSF_AUTH_SECRET"
	EnvHistoryDepth    = "DSF_HISTORY_DEPTH"
	EnvDefaultLanguage = "DSF_DEFAULT_LANGUAGE"
	EnvFontPath        = "DSF_FONT_PATH"
	EnvBlobDir         = "DSF_BLOB_DIR"
	EnvTelemetryOptIn  = "DSF_TELEMETRY_OPT_IN"
	EnvTelemetryURL    = "DSF_TELEMETRY_URL"
	// EnvLogLevel Logging envs
	EnvLogLevel        = "DSF_LOG_LEVEL"
	EnvLogFormat       = "DSF_LOG_FORMAT"
	EnvLogSource       = "DSF_LOG_SOURCE"
	EnvLogFile         = "DSF_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService = "DSFStudio"
	keyringToken   = "store_token"
)

// TokenStore abstracts the keyring so tests can stub it.
type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// osKeyring implements TokenStore using the OS keyring via github.com/zalando/go-keyring.
type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }

var tokenStore TokenStore = osKeyring{}

// Token returns the remote store token, or "" when none is saved.
func Token() (string, error) {
	tok, err := tokenStore.Get(keyringService, keyringToken)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return tok, nil
}

// SetToken saves the remote store token in the OS keychain.
func SetToken(token string) error {
	if err := tokenStore.Set(keyringService, keyringToken, token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// DeleteToken removes the saved token; a missing token is not an error.
func DeleteToken() error {
	err := tokenStore.Delete(keyringService, keyringToken)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// ConfigDir returns the per-user configuration directory.
func ConfigDir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "DSFStudio")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "DSFStudio")
	default: // linux and others
		if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
			base = filepath.Join(x, "dsfstudio")
		} else if h := os.Getenv("HOME"); h != "" {
			base = filepath.Join(h, ".config", "dsfstudio")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return base, nil
}

// ConfigPath returns the config file path; DSF_CONFIG overrides it.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigFile)); p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// dataDir holds works and blobs by default.
func dataDir() string {
	if x := os.Getenv("XDG_DATA_HOME"); x != "" && runtime.GOOS != "windows" && runtime.GOOS != "darwin" {
		return filepath.Join(x, "dsfstudio")
	}
	if dir, err := ConfigDir(); err == nil {
		return dir
	}
	return "."
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
func Load() (AppConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := Defaults()
		applyEnvOverrides(&cfg)
		return cfg, err
	}
	return LoadFrom(path)
}

// LoadFrom is Load with an explicit file path. A missing file is not an
// error; a malformed one is.
func LoadFrom(path string) (AppConfig, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			applyEnvOverrides(&cfg)
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	case !errors.Is(err, os.ErrNotExist):
		applyEnvOverrides(&cfg)
		return cfg, fmt.Errorf("read config: %w", err)
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

// SaveTo writes cfg to path.
func SaveTo(path string, cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
	// editor
	if src.Editor.HistoryDepth > 0 {
		dst.Editor.HistoryDepth = src.Editor.HistoryDepth
	}
	if src.Editor.CoalesceWindowMs > 0 {
		dst.Editor.CoalesceWindowMs = src.Editor.CoalesceWindowMs
	}
	if v := strings.TrimSpace(src.Editor.DefaultLanguage); v != "" {
		dst.Editor.DefaultLanguage = v
	}
	switch v := strings.ToUpper(strings.TrimSpace(src.Editor.ThumbSize)); v {
	case "S", "M", "L":
		dst.Editor.ThumbSize = v
	}
	// store and backend
	if v := strings.TrimSpace(src.Store.URL); v != "" {
		dst.Store.URL = v
	}
	if src.Store.TimeoutMs != 0 {
		dst.Store.TimeoutMs = src.Store.TimeoutMs
	}
	if src.Backend.Addr != "" {
		dst.Backend.Addr = src.Backend.Addr
	}
	if src.Backend.DatabaseURL != "" {
		dst.Backend.DatabaseURL = src.Backend.DatabaseURL
	}
	if src.Backend.AuthSecret != "" {
		dst.Backend.AuthSecret = src.Backend.AuthSecret
	}
	// export and media
	if src.Export.OutDir != "" {
		dst.Export.OutDir = src.Export.OutDir
	}
	if src.Export.FontPath != "" {
		dst.Export.FontPath = src.Export.FontPath
	}
	if src.Export.PNGScale > 0 {
		dst.Export.PNGScale = src.Export.PNGScale
	}
	if src.Media.BlobDir != "" {
		dst.Media.BlobDir = src.Media.BlobDir
	}
	if src.Media.MaxWidth > 0 {
		dst.Media.MaxWidth = src.Media.MaxWidth
	}
	if q := src.Media.JPEGQuality; q > 0 && q <= 100 {
		dst.Media.JPEGQuality = q
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.Telemetry.OptIn = src.Telemetry.OptIn
	if src.Telemetry.Endpoint != "" {
		dst.Telemetry.Endpoint = src.Telemetry.Endpoint
	}
}

func envBool(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	str := func(name string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				*dst = n
			}
		}
	}
	str(EnvStoreURL, &cfg.Store.URL)
	num(EnvStoreTimeoutMs, &cfg.Store.TimeoutMs)
	str(EnvBackendAddr, &cfg.Backend.Addr)
	str(EnvDatabaseURL, &cfg.Backend.DatabaseURL)
	str(EnvAuthSecret, &cfg.Backend.AuthSecret)
	num(EnvHistoryDepth, &cfg.Editor.HistoryDepth)
	str(EnvDefaultLanguage, &cfg.Editor.DefaultLanguage)
	str(EnvFontPath, &cfg.Export.FontPath)
	str(EnvBlobDir, &cfg.Media.BlobDir)
	str(EnvTelemetryURL, &cfg.Telemetry.Endpoint)
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.Telemetry.OptIn = envBool(v)
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = envBool(v)
	}
	str(EnvLogFile, &cfg.Logging.File)
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	names := map[string]string{
		"store.url":               EnvStoreURL,
		"store.timeout_ms":        EnvStoreTimeoutMs,
		"backend.addr":            EnvBackendAddr,
		"backend.database_url":    EnvDatabaseURL,
		"backend.auth_secret":     EnvAuthSecret,
		"editor.history_depth":    EnvHistoryDepth,
		"editor.default_language": EnvDefaultLanguage,
		"export.font_path":        EnvFontPath,
		"media.blob_dir":          EnvBlobDir,
		"telemetry.opt_in":        EnvTelemetryOptIn,
		"telemetry.endpoint":      EnvTelemetryURL,
		"logging.level":           EnvLogLevel,
		"logging.format":          EnvLogFormat,
		"logging.source":          EnvLogSource,
		"logging.file":            EnvLogFile,
	}
	if name, ok := names[key]; ok && os.Getenv(name) != "" {
		return name, true
	}
	return "", false
}

// CoalesceWindow returns the typing coalesce window.
func (e EditorConfig) CoalesceWindow() time.Duration {
	if e.CoalesceWindowMs <= 0 {
		return time.Duration(Defaults().Editor.CoalesceWindowMs) * time.Millisecond
	}
	return time.Duration(e.CoalesceWindowMs) * time.Millisecond
}

// Timeout returns the remote store timeout.
func (s StoreConfig) Timeout() time.Duration {
	if s.TimeoutMs <= 0 {
		return time.Duration(Defaults().Store.TimeoutMs) * time.Millisecond
	}
	return time.Duration(s.TimeoutMs) * time.Millisecond
}
