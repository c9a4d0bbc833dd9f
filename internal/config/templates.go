package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Options Desk Configuration

[desk]
# Underlying index symbol
symbol = "NIFTY"
# Expiry in YYYY-MM-DD; leave empty for the next weekly expiry
expiry = ""
# Contract lot size fallback when the chain does not report one
lot_size = 75
# Persist positions after every change
autosave = true

[feed]
# Quote source: "kite" (live) or "sim" (seeded random walk)
source = "sim"
# Polling interval
interval = "2s"
# Strikes fetched around the money
strike_count = 10

[server]
# Dashboard listen address
addr = "127.0.0.1:8787"

[logging]
# Log level: debug, info, warn, error
level = "info"
console = true
file = true

[storage]
# SQLite database path; defaults next to this file
db_path = ""
`

const credentialsTemplate = `# Options Desk Credentials
# WARNING: Keep this file secure! Do not commit to version control.

[zerodha]
api_key = ""
api_secret = ""
access_token = ""
`

func createTemplateConfig(configDir, name string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name+".toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return fmt.Errorf("config file not found, created template at %s", path)
}

// CreateCredentialsTemplate writes the credentials template with restricted
// permissions. Called from the auth command, not from Load; a missing
// credentials file is not an error for the simulated feed.
func CreateCredentialsTemplate(configDir string) (string, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "credentials.toml")
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if err := os.WriteFile(path, []byte(credentialsTemplate), 0600); err != nil {
		return "", fmt.Errorf("writing credentials template: %w", err)
	}
	return path, nil
}
