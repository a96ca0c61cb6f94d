// Package sqlite provides the SQLite driver implementation on top of the
// pure-Go modernc.org/sqlite engine. It registers itself with the driver
// registry on import.
package sqlite

import (
	"github.com/johndauphine/csvload/internal/dbconfig"
	"github.com/johndauphine/csvload/internal/driver"
)

func init() {
	driver.Register(&Driver{})
}

// Driver implements driver.Driver for SQLite databases.
type Driver struct{}

// Name returns the primary driver name.
func (d *Driver) Name() string {
	return "sqlite"
}

// Aliases returns alternative names for this driver.
func (d *Driver) Aliases() []string {
	return []string{"sqlite3"}
}

// Defaults returns the default configuration values for SQLite.
// There is no server, so no port and no schema.
func (d *Driver) Defaults() driver.DriverDefaults {
	return driver.DriverDefaults{}
}

// Dialect returns the SQLite dialect.
func (d *Driver) Dialect() driver.Dialect {
	return &Dialect{}
}

// NewWriter creates a new SQLite writer.
func (d *Driver) NewWriter(cfg *dbconfig.TargetConfig, opts driver.WriterOptions) (driver.Writer, error) {
	return NewWriter(cfg, opts)
}
