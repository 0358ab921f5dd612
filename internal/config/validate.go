package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text (got %q)", c.Log.Format)
	}

	if c.Database.MaxConns <= 0 {
		return fmt.Errorf("database.max_conns must be > 0 (got %d)", c.Database.MaxConns)
	}
	if c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database.min_conns must be within [0, max_conns] (got %d)", c.Database.MinConns)
	}

	if c.Sheets.Timeout <= 0 {
		return fmt.Errorf("sheets.timeout must be > 0 (got %v)", c.Sheets.Timeout)
	}

	if err := c.Migration.validate(); err != nil {
		return fmt.Errorf("migration: %w", err)
	}

	return nil
}

func (m *MigrationConfig) validate() error {
	if m.FetchInterval < 0 {
		return fmt.Errorf("fetch_interval must be >= 0 (got %v)", m.FetchInterval)
	}
	if m.RelationBatchSize <= 0 {
		return fmt.Errorf("relation_batch_size must be > 0 (got %d)", m.RelationBatchSize)
	}
	if m.LockPath == "" {
		return errors.New("lock_path must not be empty")
	}
	return nil
}

// RequireDatabase checks the settings needed by commands that open the
// database.
func (c *Config) RequireDatabase() error {
	if c.Database.DSN == "" {
		return errors.New("config: database.dsn is required (DATABASE_DSN)")
	}
	return nil
}

// RequireSheets checks that a sheet source and an index are configured.
func (c *Config) RequireSheets() error {
	if !c.Sheets.Offline() && c.Sheets.APIKey == "" {
		return errors.New("config: sheets.api_key or sheets.workbook_dir is required")
	}
	if c.Migration.IndexFile == "" && c.Sheets.IndexSheetID == "" {
		return errors.New("config: migration.index_file or sheets.index_sheet_id is required")
	}
	return nil
}
