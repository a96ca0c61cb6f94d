package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/johndauphine/csvload/internal/driver/mssql"
	_ "github.com/johndauphine/csvload/internal/driver/mysql"
	_ "github.com/johndauphine/csvload/internal/driver/postgres"
	_ "github.com/johndauphine/csvload/internal/driver/sqlite"
)

const minimalYAML = `
target:
  host: localhost
  database: bondora
  user: loader
  password: secret
jobs:
  - file: LoanData.csv
    table: LoanData
  - file: RepaymentsData.csv
    table: RepaymentsData
    batch_size: 500
`

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Target.Type != "postgres" {
		t.Errorf("Target.Type = %q, want postgres", cfg.Target.Type)
	}
	if cfg.Target.Port != 5432 {
		t.Errorf("Target.Port = %d, want 5432", cfg.Target.Port)
	}
	if cfg.Target.Schema != "public" {
		t.Errorf("Target.Schema = %q, want public", cfg.Target.Schema)
	}
	if cfg.Target.SSLMode != "disable" {
		t.Errorf("Target.SSLMode = %q, want disable", cfg.Target.SSLMode)
	}
	if cfg.Target.MaxConns != 4 {
		t.Errorf("Target.MaxConns = %d, want 4", cfg.Target.MaxConns)
	}
	if cfg.Load.BatchSize == nil || *cfg.Load.BatchSize != 1000 {
		t.Errorf("Load.BatchSize = %v, want 1000", cfg.Load.BatchSize)
	}
	if cfg.Load.InsertMethod != "multi" {
		t.Errorf("Load.InsertMethod = %q, want multi", cfg.Load.InsertMethod)
	}
	if cfg.Jobs[0].BatchSize == nil || *cfg.Jobs[0].BatchSize != 1000 {
		t.Errorf("Jobs[0].BatchSize = %v, want inherited 1000", cfg.Jobs[0].BatchSize)
	}
	if cfg.Jobs[1].BatchSize == nil || *cfg.Jobs[1].BatchSize != 500 {
		t.Errorf("Jobs[1].BatchSize = %v, want 500", cfg.Jobs[1].BatchSize)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v, want info/text", cfg.Logging)
	}

	ro := cfg.ReadOptions()
	if ro.Delimiter != ',' {
		t.Errorf("ReadOptions().Delimiter = %q, want ','", ro.Delimiter)
	}
	if ro.NullValues != nil {
		t.Errorf("ReadOptions().NullValues = %v, want nil (defaults)", ro.NullValues)
	}
}

func TestParseDriverDefaults(t *testing.T) {
	tests := []struct {
		typ        string
		wantType   string
		wantPort   int
		wantSchema string
	}{
		{"postgresql", "postgres", 5432, "public"},
		{"sqlserver", "mssql", 1433, "dbo"},
		{"mariadb", "mysql", 3306, ""},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			yml := "target:\n  type: " + tt.typ + "\n  host: db\n  database: bondora\n"
			cfg, err := Parse([]byte(yml))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if cfg.Target.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", cfg.Target.Type, tt.wantType)
			}
			if cfg.Target.Port != tt.wantPort {
				t.Errorf("Port = %d, want %d", cfg.Target.Port, tt.wantPort)
			}
			if cfg.Target.Schema != tt.wantSchema {
				t.Errorf("Schema = %q, want %q", cfg.Target.Schema, tt.wantSchema)
			}
		})
	}
}

func TestParseSQLiteNeedsNoHost(t *testing.T) {
	cfg, err := Parse([]byte("target:\n  type: sqlite\n  database: ./load.db\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Target.Port != 0 {
		t.Errorf("Port = %d, want 0", cfg.Target.Port)
	}
}

func TestParseEnvExpansion(t *testing.T) {
	t.Setenv("CSVLOAD_TEST_PASSWORD", "p@ss:word")
	yml := "target:\n  host: localhost\n  database: bondora\n  password: ${CSVLOAD_TEST_PASSWORD}\n"

	cfg, err := Parse([]byte(yml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Target.Password != "p@ss:word" {
		t.Errorf("Password = %q, want expanded value", cfg.Target.Password)
	}
	if got := cfg.Target.Redacted().Password; got != "********" {
		t.Errorf("Redacted().Password = %q", got)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	// Register cleanup for a variable godotenv will set.
	t.Setenv("CSVLOAD_TEST_DB", "")
	os.Unsetenv("CSVLOAD_TEST_DB")

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("CSVLOAD_TEST_DB=from_dotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("target:\n  host: localhost\n  database: ${CSVLOAD_TEST_DB}\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Target.Database != "from_dotenv" {
		t.Errorf("Database = %q, want from_dotenv", cfg.Target.Database)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "reading config") {
		t.Errorf("Load() error = %v, want reading config error", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		errorMsg string
	}{
		{
			name:     "unknown target type",
			yaml:     "target:\n  type: oracle\n  host: h\n  database: d\n",
			errorMsg: "unknown database type",
		},
		{
			name:     "missing database",
			yaml:     "target:\n  host: h\n",
			errorMsg: "target.database is required",
		},
		{
			name:     "missing host",
			yaml:     "target:\n  database: d\n",
			errorMsg: "target.host is required",
		},
		{
			name:     "negative batch size",
			yaml:     "target:\n  host: h\n  database: d\nload:\n  batch_size: -5\n",
			errorMsg: "load.batch_size must be positive",
		},
		{
			name:     "zero batch size",
			yaml:     "target:\n  host: h\n  database: d\nload:\n  batch_size: 0\n",
			errorMsg: "load.batch_size must be positive, got 0",
		},
		{
			name:     "copy on mysql",
			yaml:     "target:\n  type: mysql\n  host: h\n  database: d\nload:\n  insert_method: copy\n",
			errorMsg: "copy is not supported for mysql",
		},
		{
			name:     "unknown insert method",
			yaml:     "target:\n  host: h\n  database: d\nload:\n  insert_method: single\n",
			errorMsg: "load.insert_method must be multi or copy",
		},
		{
			name:     "multi-character delimiter",
			yaml:     "target:\n  host: h\n  database: d\nload:\n  delimiter: \"||\"\n",
			errorMsg: "load.delimiter must be a single character",
		},
		{
			name:     "quote delimiter",
			yaml:     "target:\n  host: h\n  database: d\nload:\n  delimiter: '\"'\n",
			errorMsg: "is not a valid separator",
		},
		{
			name:     "job without table",
			yaml:     "target:\n  host: h\n  database: d\njobs:\n  - file: a.csv\n",
			errorMsg: "jobs[0].table is required",
		},
		{
			name:     "job without file",
			yaml:     "target:\n  host: h\n  database: d\njobs:\n  - table: a\n",
			errorMsg: "jobs[0].file is required",
		},
		{
			name:     "negative job batch size",
			yaml:     "target:\n  host: h\n  database: d\njobs:\n  - file: a.csv\n    table: a\n    batch_size: -1\n",
			errorMsg: "jobs[0].batch_size must be positive",
		},
		{
			name:     "zero job batch size",
			yaml:     "target:\n  host: h\n  database: d\njobs:\n  - file: a.csv\n    table: a\n    batch_size: 0\n",
			errorMsg: "jobs[0].batch_size must be positive, got 0",
		},
		{
			name:     "bad log level",
			yaml:     "target:\n  host: h\n  database: d\nlogging:\n  level: verbose\n",
			errorMsg: "logging.level",
		},
		{
			name:     "bad log format",
			yaml:     "target:\n  host: h\n  database: d\nlogging:\n  format: xml\n",
			errorMsg: "logging.format must be text or json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.errorMsg)
			}
			if !strings.Contains(err.Error(), tt.errorMsg) {
				t.Errorf("expected error containing %q, got %q", tt.errorMsg, err.Error())
			}
		})
	}
}

func TestCopyAllowedForPostgresAndMSSQL(t *testing.T) {
	for _, typ := range []string{"postgres", "mssql"} {
		yml := "target:\n  type: " + typ + "\n  host: h\n  database: d\nload:\n  insert_method: COPY\n"
		cfg, err := Parse([]byte(yml))
		if err != nil {
			t.Fatalf("%s: Parse() error = %v", typ, err)
		}
		if got := cfg.WriterOptions().InsertMethod; got != "copy" {
			t.Errorf("%s: InsertMethod = %q, want copy", typ, got)
		}
	}
}

func TestReadOptionsCustom(t *testing.T) {
	yml := "target:\n  host: h\n  database: d\nload:\n  delimiter: \";\"\n  null_values: [\"-\", \"\"]\n"
	cfg, err := Parse([]byte(yml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	ro := cfg.ReadOptions()
	if ro.Delimiter != ';' {
		t.Errorf("Delimiter = %q, want ';'", ro.Delimiter)
	}
	if len(ro.NullValues) != 2 || ro.NullValues[0] != "-" {
		t.Errorf("NullValues = %v", ro.NullValues)
	}
}

func TestAvailableMemoryMB(t *testing.T) {
	if got := AvailableMemoryMB(); got <= 0 {
		t.Errorf("AvailableMemoryMB() = %d, want > 0", got)
	}
}
