// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package config loads and validates the run configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// ExitCode is the process exit code for configuration errors.
const ExitCode = 2

// Defaults applied when the corresponding generation fields are absent.
const (
	DefaultModel       = "deepseek-chat"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2200
)

// Error describes a bad or missing configuration. It is user-fixable and
// terminal: the run aborts without touching the network or the filesystem.
type Error struct {
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Err.Error() }

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error { return e.Err }

// ExitCode implements the cli.ExitCoder interface.
func (e *Error) ExitCode() int { return ExitCode }

func errorf(format string, args ...any) *Error {
	return &Error{Err: fmt.Errorf(format, args...)}
}

// Config is the validated run configuration. It is immutable once loaded and
// read-only input to every pipeline stage.
type Config struct {
	Site         Site       `json:"site"`
	RSSURL       string     `json:"rss_url"`
	Generation   Generation `json:"generation"`
	ContactEmail string     `json:"contact_email"`
}

// Site describes the published site.
type Site struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	BaseURL     string `json:"base_url"`
}

// Generation holds the text generation parameters. Temperature and MaxTokens
// are pointers in the document so that an absent field can be told apart from
// an explicit zero.
type Generation struct {
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature"`
	MaxTokens   *int     `json:"max_tokens"`
}

// TemperatureOrDefault returns the configured temperature, or
// [DefaultTemperature] if the field was absent.
func (g Generation) TemperatureOrDefault() float64 {
	if g.Temperature != nil {
		return *g.Temperature
	}
	return DefaultTemperature
}

// MaxTokensOrDefault returns the configured output token cap, or
// [DefaultMaxTokens] if the field was absent.
func (g Generation) MaxTokensOrDefault() int {
	if g.MaxTokens != nil {
		return *g.MaxTokens
	}
	return DefaultMaxTokens
}

// Load reads the configuration document at path and validates it.
//
// Validation is not short-circuited: the returned error names every missing
// field, not just the first one, so the operator fixes the file in one pass.
func Load(path, examplePath string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errorf("%s not found; copy %s to %s and fill it in", path, examplePath, path)
		}
		return nil, &Error{Err: err}
	}
	return Parse(b)
}

// Parse validates a raw configuration document.
func Parse(b []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, errorf("parsing config: %v", err)
	}

	cfg.Site.Title = strings.TrimSpace(cfg.Site.Title)
	cfg.Site.Description = strings.TrimSpace(cfg.Site.Description)
	cfg.Site.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Site.BaseURL), "/")
	cfg.RSSURL = strings.TrimSpace(cfg.RSSURL)
	cfg.ContactEmail = strings.TrimSpace(cfg.ContactEmail)
	cfg.Generation.Model = strings.TrimSpace(cfg.Generation.Model)
	if cfg.Generation.Model == "" {
		cfg.Generation.Model = DefaultModel
	}

	var missing []string
	if cfg.Site.Title == "" {
		missing = append(missing, "site.title")
	}
	if cfg.Site.Description == "" {
		missing = append(missing, "site.description")
	}
	if cfg.Site.BaseURL == "" {
		missing = append(missing, "site.base_url")
	}
	if cfg.RSSURL == "" {
		missing = append(missing, "rss_url")
	}
	if cfg.ContactEmail == "" {
		missing = append(missing, "contact_email")
	}
	if len(missing) > 0 {
		return nil, errorf("missing required config fields: %s", strings.Join(missing, ", "))
	}

	if !strings.HasPrefix(cfg.Site.BaseURL, "http://") && !strings.HasPrefix(cfg.Site.BaseURL, "https://") {
		return nil, errorf("site.base_url must start with https:// (example: https://YOURNAME.github.io/YOURREPO)")
	}

	return &cfg, nil
}
