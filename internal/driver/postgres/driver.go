// Package postgres provides the PostgreSQL driver implementation.
// It registers itself with the driver registry on import.
package postgres

import (
	"github.com/johndauphine/csvload/internal/dbconfig"
	"github.com/johndauphine/csvload/internal/driver"
)

func init() {
	driver.Register(&Driver{})
}

// Driver implements driver.Driver for PostgreSQL databases.
type Driver struct{}

// Name returns the primary driver name.
func (d *Driver) Name() string {
	return "postgres"
}

// Aliases returns alternative names for this driver.
func (d *Driver) Aliases() []string {
	return []string{"postgresql", "pg"}
}

// Defaults returns the default configuration values for PostgreSQL.
func (d *Driver) Defaults() driver.DriverDefaults {
	return driver.DriverDefaults{
		Port:    5432,
		Schema:  "public",
		SSLMode: "disable",
	}
}

// Dialect returns the PostgreSQL dialect.
func (d *Driver) Dialect() driver.Dialect {
	return &Dialect{}
}

// NewWriter creates a new PostgreSQL writer.
func (d *Driver) NewWriter(cfg *dbconfig.TargetConfig, opts driver.WriterOptions) (driver.Writer, error) {
	return NewWriter(cfg, opts)
}
