package mysql

import (
	"net"
	"strconv"
	"strings"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
)

// Dialect implements driver.Dialect for MySQL/MariaDB.
type Dialect struct{}

func (d *Dialect) DBType() string { return "mysql" }

func (d *Dialect) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (d *Dialect) QualifyTable(schema, table string) string {
	// MySQL uses database.table, but schema is often empty (database is in DSN)
	if schema == "" {
		return d.QuoteIdentifier(table)
	}
	return d.QuoteIdentifier(schema) + "." + d.QuoteIdentifier(table)
}

// BuildDSN formats a go-sql-driver DSN: user:password@tcp(host:port)/database?params
func (d *Dialect) BuildDSN(host string, port int, database, user, password string, opts map[string]any) string {
	cfg := gomysql.NewConfig()
	cfg.User = user
	cfg.Passwd = password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	cfg.DBName = database
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.Params = map[string]string{"charset": "utf8mb4"}

	// Handle SSL/TLS mode
	switch sslMode, _ := opts["sslmode"].(string); strings.ToLower(sslMode) {
	case "disable", "disabled", "false":
		cfg.TLSConfig = "false"
	case "require", "required", "true", "verify-full", "verify_full", "verify-identity", "verify_identity":
		cfg.TLSConfig = "true"
	case "verify-ca", "verify_ca":
		cfg.TLSConfig = "skip-verify"
	default:
		cfg.TLSConfig = "preferred"
	}

	return cfg.FormatDSN()
}

func (d *Dialect) ParameterPlaceholder(_ int) string {
	return "?"
}

// MaxParameters is the prepared statement placeholder limit.
func (d *Dialect) MaxParameters() int { return 65535 }

func (d *Dialect) MaxRowsPerInsert() int { return 0 }
