// Package mssql provides the Microsoft SQL Server driver implementation.
// It registers itself with the driver registry on import.
package mssql

import (
	"github.com/johndauphine/csvload/internal/dbconfig"
	"github.com/johndauphine/csvload/internal/driver"
)

func init() {
	driver.Register(&Driver{})
}

// Driver implements driver.Driver for Microsoft SQL Server.
type Driver struct{}

// Name returns the primary driver name.
func (d *Driver) Name() string {
	return "mssql"
}

// Aliases returns alternative names for the driver.
func (d *Driver) Aliases() []string {
	return []string{"sqlserver", "sql-server"}
}

// Defaults returns the default configuration values for SQL Server.
func (d *Driver) Defaults() driver.DriverDefaults {
	return driver.DriverDefaults{
		Port:   1433,
		Schema: "dbo",
	}
}

// Dialect returns the MSSQL dialect.
func (d *Driver) Dialect() driver.Dialect {
	return &Dialect{}
}

// NewWriter creates a new MSSQL writer.
func (d *Driver) NewWriter(cfg *dbconfig.TargetConfig, opts driver.WriterOptions) (driver.Writer, error) {
	return NewWriter(cfg, opts)
}
