// Copyright (c) 2026 UniQ Labs
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package config loads CLI configuration in the XDG config dir.
// Only non-secret settings are kept here; the session cookie lives in the OS keychain.
//
// Resolution order: built-in defaults, then config.json, then UNIQ_* environment variables.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"

	"uniq/cli/internal/xdg"
)

// DefaultAPIBaseURL is used when neither config.json nor UNIQ_API_BASE_URL set one.
const DefaultAPIBaseURL = "https://k.initqube.com"

// GoogleClientID identifies this application to Google Identity Services.
const GoogleClientID = "859859771398-erv8s8o5kdvib9k0n1cu8eau2u9l6u4b.apps.googleusercontent.com"

// Config holds non-sensitive CLI settings.
type Config struct {
	// APIBaseURL is the root of the authentication API (/auth/me, /auth/login, ...).
	APIBaseURL string `json:"api_base_url" env:"UNIQ_API_BASE_URL" validate:"required,url"`
	// AppURL is the web application the login page hands off to after sign-in.
	// Empty means the same origin as APIBaseURL.
	AppURL    string `json:"app_url,omitempty" env:"UNIQ_APP_URL" validate:"omitempty,url"`
	LogLevel  string `json:"log_level" env:"UNIQ_LOG_LEVEL" validate:"oneof=trace debug info warn warning error"`
	LogFormat string `json:"log_format" env:"UNIQ_LOG_FORMAT" validate:"oneof=console json"`
}

var validate = validator.New()

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		APIBaseURL: DefaultAPIBaseURL,
		LogLevel:   "info",
		LogFormat:  "console",
	}
}

// path returns the path to the config file.
func path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads configuration; a missing file yields defaults. Environment
// variables override file values. The result is validated.
func Load() (Config, error) {
	c := Default()
	p, err := path()
	if err != nil {
		return c, err
	}
	data, err := os.ReadFile(p)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &c); err != nil {
			return c, fmt.Errorf("parse %s: %w", p, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return c, err
	}
	if err := env.Parse(&c); err != nil {
		return c, fmt.Errorf("parse env: %w", err)
	}
	c.normalize()
	if err := validate.Struct(c); err != nil {
		return c, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

// AppBaseURL returns AppURL, falling back to APIBaseURL.
func (c Config) AppBaseURL() string {
	if c.AppURL != "" {
		return c.AppURL
	}
	return c.APIBaseURL
}

func (c *Config) normalize() {
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	c.AppURL = strings.TrimRight(strings.TrimSpace(c.AppURL), "/")
	c.LogLevel = strings.ToLower(c.LogLevel)
	c.LogFormat = strings.ToLower(c.LogFormat)
	if c.APIBaseURL == "" {
		c.APIBaseURL = DefaultAPIBaseURL
	}
}
