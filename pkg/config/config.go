// Package config holds the application configuration, loaded from
// environment variables with koanf.
package config

import (
	"fmt"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// ClientSecretFile is the default path to the Google OAuth credentials
// JSON file used by the sheets sink.
const ClientSecretFile = "data/client_secret.json"

// Config holds the application configuration.
type Config struct {
	// DataDir is the root directory of the local object store.
	// Environment variable: DATA_DIR
	DataDir string `koanf:"DATA_DIR"`

	// BlocklistKey is the object key of the merchant blocklist.
	// Environment variable: BLOCKLIST_KEY
	BlocklistKey string `koanf:"BLOCKLIST_KEY"`

	// OutputPrefix is prepended to every derived output key.
	// Environment variable: OUTPUT_PREFIX
	OutputPrefix string `koanf:"OUTPUT_PREFIX"`

	// Collapse selects the collapsed CSV variant (aggregated per
	// merchant) instead of the row-per-record processed variant.
	// Environment variable: COLLAPSE
	Collapse bool `koanf:"COLLAPSE"`

	// JSONArchive, when set, enables the JSON group sink writing to the
	// given file path. Environment variable: JSON_ARCHIVE
	JSONArchive string `koanf:"JSON_ARCHIVE"`

	// Sheets sink settings. The sink is enabled when SheetsEnabled is
	// true; GSheetsID reuses an existing spreadsheet, otherwise one is
	// created with GSheetsTitle.
	SheetsEnabled bool   `koanf:"SHEETS_ENABLED"`
	GSheetsTitle  string `koanf:"GSHEETS_TITLE"`
	GSheetsID     string `koanf:"GSHEETS_ID"`
	GSheetsName   string `koanf:"GSHEETS_NAME"`

	// Postgres sink settings, enabled when PGEnabled is true.
	PGEnabled  bool   `koanf:"PG_ENABLED"`
	PGHost     string `koanf:"PG_HOST"`
	PGPort     int    `koanf:"PG_PORT"`
	PGDatabase string `koanf:"PG_DATABASE"`
	PGUser     string `koanf:"PG_USER"`
	PGPassword string `koanf:"PG_PASSWORD"`
	PGSSLMode  string `koanf:"PG_SSLMODE"`
}

// Defaults returns the configuration used when no environment overrides
// are present.
func Defaults() Config {
	return Config{
		DataDir:      "data",
		BlocklistKey: "filter-config.txt",
		OutputPrefix: "processed",
		Collapse:     true,
	}
}

// Load reads the configuration from environment variables on top of the
// defaults.
func Load() (Config, error) {
	k := koanf.New(".")

	if err := k.Load(env.Provider("", ".", nil), nil); err != nil {
		return Config{}, fmt.Errorf("loading config from environment: %w", err)
	}

	cfg := Defaults()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.SheetsEnabled && cfg.GSheetsName == "" {
		return Config{}, fmt.Errorf("GSHEETS_NAME is required when SHEETS_ENABLED is set")
	}
	if cfg.SheetsEnabled && cfg.GSheetsID == "" && cfg.GSheetsTitle == "" {
		return Config{}, fmt.Errorf("either GSHEETS_ID or GSHEETS_TITLE is required when SHEETS_ENABLED is set")
	}

	return cfg, nil
}
