// Package dbcheck verifies that the database of a generated site is
// reachable with the driver its URL selects.
package dbcheck

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/syssam/sitegen/compiler/gen"
)

// DefaultTimeout bounds a connectivity check.
const DefaultTimeout = 5 * time.Second

// Target is a database URL resolved to a database/sql driver.
type Target struct {
	Storage *gen.Storage
	// DSN is the data source name passed to sql.Open.
	DSN string
	// Redacted is the URL with its password masked, for display.
	Redacted string
}

// versionQuery holds the query reporting the server version, per storage.
var versionQuery = map[string]string{
	"sqlite":   "SELECT sqlite_version()",
	"postgres": "SHOW server_version",
	"mysql":    "SELECT VERSION()",
}

// Parse resolves a database URL. Scheme suffixes naming a client library,
// as in "postgresql+psycopg2", are ignored.
func Parse(rawURL string) (*Target, error) {
	if rawURL == "" {
		return nil, errors.New("database url is empty")
	}
	s, err := gen.StorageFromURL(rawURL)
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	t := &Target{Storage: s, Redacted: u.Redacted()}
	switch s.Name {
	case "sqlite":
		t.DSN = sqlitePath(rawURL, u)
	case "postgres":
		scheme, _, _ := strings.Cut(u.Scheme, "+")
		pu := *u
		pu.Scheme = scheme
		t.DSN = pu.String()
	case "mysql":
		c := mysql.NewConfig()
		c.Net = "tcp"
		c.Addr = u.Host
		c.DBName = strings.TrimPrefix(u.Path, "/")
		c.ParseTime = true
		if u.User != nil {
			c.User = u.User.Username()
			c.Passwd, _ = u.User.Password()
		}
		t.DSN = c.FormatDSN()
	}
	return t, nil
}

// sqlitePath follows the sqlalchemy convention: "sqlite:///app.db" is
// relative and "sqlite:////var/app.db" is absolute. "file:" URIs are kept.
func sqlitePath(rawURL string, u *url.URL) string {
	if u.Scheme == "file" {
		return rawURL
	}
	_, rest, _ := strings.Cut(rawURL, "://")
	return strings.TrimPrefix(rest, "/")
}

// Path returns the database file of an embedded storage with relative
// paths resolved against dir. It is empty for server storages and "file:"
// URIs.
func (t *Target) Path(dir string) string {
	if !t.Storage.Embedded() || strings.HasPrefix(t.DSN, "file:") {
		return ""
	}
	if filepath.IsAbs(t.DSN) {
		return t.DSN
	}
	return filepath.Join(dir, t.DSN)
}

// Result of a connectivity check.
type Result struct {
	Target  *Target
	Version string
	Latency time.Duration
}

// Checker runs connectivity checks.
type Checker struct {
	// Open opens a database handle. Nil means sql.Open.
	Open func(driver, dsn string) (*sql.DB, error)
	// Timeout bounds each check. Zero means DefaultTimeout.
	Timeout time.Duration
	// Dir resolves relative database files, i.e. the backend directory.
	Dir string
}

// Check opens the database of rawURL and asks it for its version.
func (c *Checker) Check(ctx context.Context, rawURL string) (*Result, error) {
	t, err := Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if path := t.Path(c.Dir); path != "" {
		t.DSN = path
	}
	open := c.Open
	if open == nil {
		open = sql.Open
	}
	timeout := c.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	db, err := open(t.Storage.Driver, t.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", t.Redacted, err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	start := time.Now()
	r := &Result{Target: t}
	if err := db.QueryRowContext(ctx, versionQuery[t.Storage.Name]).Scan(&r.Version); err != nil {
		return nil, fmt.Errorf("query %s: %w", t.Redacted, err)
	}
	r.Latency = time.Since(start)
	return r, nil
}
