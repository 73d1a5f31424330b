// Package config handles configuration for the clipsync CLI, including
// defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the clipsync client.
//
// Fields:
//   - DatabasePath: path to the local SQLite database file.
//   - CredentialsFile: path to the Firebase service account JSON. Empty means
//     application default credentials.
//   - AppSalt: application-wide salt mixed into the per-user field key.
//   - StoreKey: secret protecting local values at rest. Do not use the test
//     default in prod.
//   - ProbeURL: endpoint used for network reachability checks.
//   - OnlineCheckInterval: how often the client probes network reachability.
//
// Units: OnlineCheckInterval is a time.Duration (e.g., 30*time.Second).
type Config struct {
	DatabasePath        string
	CredentialsFile     string
	AppSalt             string
	StoreKey            string
	ProbeURL            string
	OnlineCheckInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
// NOTE: AppSalt and StoreKey defaults are insecure and should be overridden.
func (c *Config) LoadDefaults() {
	c.DatabasePath = "clipsync.db"
	c.CredentialsFile = ""
	c.AppSalt = "clipsync-default-salt"
	c.StoreKey = "clipsync-default-store-key"
	c.ProbeURL = "https://clients3.google.com/generate_204"
	c.OnlineCheckInterval = 30 * time.Second
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags. Later
// sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
