package postgres

import (
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Dialect implements driver.Dialect for PostgreSQL.
type Dialect struct{}

func (d *Dialect) DBType() string { return "postgres" }

func (d *Dialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d *Dialect) QualifyTable(schema, table string) string {
	if schema == "" {
		return d.QuoteIdentifier(table)
	}
	return d.QuoteIdentifier(schema) + "." + d.QuoteIdentifier(table)
}

func (d *Dialect) ParameterPlaceholder(index int) string {
	return "$" + strconv.Itoa(index)
}

// BuildDSN returns a postgres:// URL. User and password are userinfo-escaped
// and the database name is path-escaped.
func (d *Dialect) BuildDSN(host string, port int, database, user, password string, opts map[string]any) string {
	q := url.Values{}
	sslMode := "disable"
	if v, ok := opts["sslmode"].(string); ok && v != "" {
		sslMode = v
	}
	q.Set("sslmode", sslMode)

	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(host, strconv.Itoa(port)),
		Path:     "/" + database,
		RawQuery: q.Encode(),
	}
	if password != "" {
		u.User = url.UserPassword(user, password)
	} else if user != "" {
		u.User = url.User(user)
	}
	return u.String()
}

// MaxParameters is the wire protocol's limit on bind parameters (uint16).
func (d *Dialect) MaxParameters() int { return 65535 }

func (d *Dialect) MaxRowsPerInsert() int { return 0 }
