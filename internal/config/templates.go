package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# ratesync configuration

[tracking]
# Symbols reconciled on every run
symbols = ["BTC", "EGLD"]
# Conversion currency for fetched prices
currency = "EUR"
# Minimum absolute price move considered a material change
epsilon = 0.000001
# Record-store namespace holding the tracked fields
namespace = "rates"

[calendar]
# Gating mode: "calendar" skips weekends and holidays, "always_open" never skips
mode = "calendar"
# Region whose civil calendar decides trading days
timezone = "Europe/Bucharest"

[provider]
# Pricing provider endpoint
base_url = ""
timeout = "15s"

[store]
# Record-store backend: "remote" or "sqlite"
backend = "remote"
base_url = ""
# Owner identity scoping all stored fields
owner = ""
token = ""
timeout = "15s"

[server]
# Manual-trigger HTTP listen address
addr = ":8080"
# Token required by the manual trigger; empty leaves the surface open
auth_token = ""

[scheduler]
enabled = true
interval = "24h"

[logging]
# Log level: debug, info, warn, error
level = "info"
console = true
file = false
file_path = ""
`

// WriteTemplate writes a commented configuration template into configDir.
// It refuses to overwrite an existing config.toml.
func WriteTemplate(configDir string) (string, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config file already exists: %s", path)
	}

	if err := os.WriteFile(path, []byte(configTemplate), 0600); err != nil {
		return "", fmt.Errorf("writing config template: %w", err)
	}
	return path, nil
}
