// Package dialect holds the closed set of target SQL engines and the
// capability table that the filter and window compilers consult for every
// per-engine difference: placeholder style, quoting, boolean literals,
// case folding, supported operator groups, frame features, function names
// and row limiting.
package dialect

import (
	"fmt"
	"strings"
)

// Dialect identifies a target SQL engine.
type Dialect int

const (
	PostgreSQL Dialect = iota + 1
	MySQL
	SQLite
	SQLServer
)

var dialectNames = map[Dialect]string{
	PostgreSQL: "postgresql",
	MySQL:      "mysql",
	SQLite:     "sqlite",
	SQLServer:  "sqlserver",
}

var dialectAliases = map[string]Dialect{
	"postgresql": PostgreSQL,
	"postgres":   PostgreSQL,
	"pg":         PostgreSQL,
	"mysql":      MySQL,
	"tidb":       MySQL,
	"sqlite":     SQLite,
	"sqlite3":    SQLite,
	"sqlserver":  SQLServer,
	"mssql":      SQLServer,
}

func (d Dialect) String() string {
	if name, ok := dialectNames[d]; ok {
		return name
	}
	return fmt.Sprintf("dialect(%d)", int(d))
}

// Valid reports whether d is one of the known dialects.
func (d Dialect) Valid() bool {
	_, ok := dialectNames[d]
	return ok
}

// Parse resolves a dialect name. Matching is case-insensitive and accepts
// common aliases (postgres, pg, mssql, sqlite3).
func Parse(name string) (Dialect, error) {
	d, ok := dialectAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown dialect %q (expected postgresql, mysql, sqlite or sqlserver)", name)
	}
	return d, nil
}

// All returns every dialect in declaration order.
func All() []Dialect {
	return []Dialect{PostgreSQL, MySQL, SQLite, SQLServer}
}

// UnmarshalText lets dialects be decoded from config files and flags.
func (d *Dialect) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalText renders the canonical dialect name.
func (d Dialect) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("unknown dialect %d", int(d))
	}
	return []byte(d.String()), nil
}
