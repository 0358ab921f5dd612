package config

import "time"

// Config is the root application configuration.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	Sheets    SheetsConfig    `yaml:"sheets"`
	Migration MigrationConfig `yaml:"migration"`
}

// DatabaseConfig holds PostgreSQL connection settings.
// DSN is only required by commands that touch the database.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"4"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// SheetsConfig selects where spreadsheets are read from. A non-empty
// WorkbookDir switches to offline .xlsx files; otherwise the Sheets API is
// used with APIKey.
type SheetsConfig struct {
	APIKey       string        `yaml:"api_key"        env:"SHEETS_API_KEY"`
	BaseURL      string        `yaml:"base_url"       env:"SHEETS_BASE_URL"       env-default:"https://sheets.googleapis.com/v4/spreadsheets"`
	Timeout      time.Duration `yaml:"timeout"        env:"SHEETS_TIMEOUT"        env-default:"30s"`
	WorkbookDir  string        `yaml:"workbook_dir"   env:"SHEETS_WORKBOOK_DIR"`
	IndexSheetID string        `yaml:"index_sheet_id" env:"SHEETS_INDEX_SHEET_ID"`
}

// MigrationConfig holds migration run parameters.
type MigrationConfig struct {
	// FetchInterval is the minimum spacing between two sheet fetches.
	FetchInterval     time.Duration `yaml:"fetch_interval"      env:"MIGRATION_FETCH_INTERVAL"      env-default:"1300ms"`
	IndexFile         string        `yaml:"index_file"          env:"MIGRATION_INDEX_FILE"`
	RelationBatchSize int           `yaml:"relation_batch_size" env:"MIGRATION_RELATION_BATCH_SIZE" env-default:"500"`
	LockPath          string        `yaml:"lock_path"           env:"MIGRATION_LOCK_PATH"           env-default:"annotext.lock"`
	KeepGlottalStops  bool          `yaml:"keep_glottal_stops"  env:"MIGRATION_KEEP_GLOTTAL_STOPS"  env-default:"false"`
}

// Offline reports whether sheets are read from local workbooks.
func (c SheetsConfig) Offline() bool {
	return c.WorkbookDir != ""
}
