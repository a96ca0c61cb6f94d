package mssql

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Dialect implements driver.Dialect for SQL Server.
type Dialect struct{}

func (d *Dialect) DBType() string { return "mssql" }

func (d *Dialect) QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func (d *Dialect) QualifyTable(schema, table string) string {
	if schema == "" {
		return d.QuoteIdentifier(table)
	}
	return d.QuoteIdentifier(schema) + "." + d.QuoteIdentifier(table)
}

func (d *Dialect) ParameterPlaceholder(index int) string {
	return "@p" + strconv.Itoa(index)
}

// BuildDSN returns a sqlserver:// URL understood by go-mssqldb.
func (d *Dialect) BuildDSN(host string, port int, database, user, password string, opts map[string]any) string {
	q := url.Values{}
	q.Set("database", database)
	if v, ok := opts["encrypt"].(bool); ok {
		q.Set("encrypt", fmt.Sprintf("%t", v))
	}
	if v, ok := opts["trustServerCertificate"].(bool); ok && v {
		q.Set("TrustServerCertificate", "true")
	}

	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(user, password),
		Host:     net.JoinHostPort(host, strconv.Itoa(port)),
		RawQuery: q.Encode(),
	}
	return u.String()
}

// MaxParameters stays one below the 2100 parameter limit of an RPC call.
func (d *Dialect) MaxParameters() int { return 2099 }

// MaxRowsPerInsert is the row limit of a table value constructor.
func (d *Dialect) MaxRowsPerInsert() int { return 1000 }
