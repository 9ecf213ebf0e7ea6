// Package pgtest provisions isolated PostgreSQL schemas for integration
// tests. Each test gets its own schema in a shared database, created on
// first use and dropped on cleanup, so tests can run in parallel against
// one server without seeing each other's rows.
package pgtest

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"airline-admin/internal/sqlutil"
)

// TestDB is a connection scoped to one test's schema.
type TestDB struct {
	DB     *sql.DB
	Schema string
	config Config
}

// Config holds PostgreSQL connection information for the test server.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
}

// NewTestDB connects to the test PostgreSQL server and carves out a unique
// schema for this test. The connection's search_path is pinned to that
// schema, matching how the server itself scopes queries. The schema is
// dropped and the connection closed when the test finishes.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	cfg := getTestConfig(t)

	schema := fmt.Sprintf("test_%s_%d",
		sanitizeName(t.Name()),
		time.Now().UnixMilli())
	if !isValidSchemaName(schema) {
		t.Fatalf("invalid schema name generated: %s", schema)
	}

	db, err := sql.Open("pgx", BuildDSN(cfg, schema))
	if err != nil {
		t.Fatalf("failed to connect to PostgreSQL: %v", err)
	}
	configureTestPool(db)

	if err := db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			t.Logf("warning: failed to close database connection: %v", closeErr)
		}
		t.Fatalf("failed to ping PostgreSQL: %v", err)
	}

	// The schema itself is created by the migration run (the same path the
	// server takes on a fresh database), so tests that never migrate leave
	// nothing behind.
	testDB := &TestDB{
		DB:     db,
		Schema: schema,
		config: cfg,
	}

	t.Cleanup(func() {
		testDB.Teardown(t)
	})

	return testDB
}

// Teardown drops the test schema and closes the connection.
func (tdb *TestDB) Teardown(t *testing.T) {
	t.Helper()

	if tdb.DB == nil {
		return
	}

	if isValidSchemaName(tdb.Schema) {
		dropQuery := fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", sqlutil.QuoteIdentifier(tdb.Schema))
		if _, err := tdb.DB.Exec(dropQuery); err != nil {
			t.Logf("warning: failed to drop test schema %s: %v", tdb.Schema, err)
		}
	}

	if err := tdb.DB.Close(); err != nil {
		t.Logf("warning: failed to close test database connection: %v", err)
	}
}

// DSN returns the connection string for this test's schema, suitable for
// handing to a spawned server process.
func (tdb *TestDB) DSN() string {
	return BuildDSN(tdb.config, tdb.Schema)
}

// LoadSQL executes a SQL file against the test schema. The file can contain
// multiple statements separated by semicolons.
func (tdb *TestDB) LoadSQL(t *testing.T, path string) {
	t.Helper()

	payload, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read SQL file %s: %v", path, err)
	}

	for i, stmt := range splitSQL(string(payload)) {
		if _, err := tdb.DB.Exec(stmt); err != nil {
			t.Fatalf("failed to execute SQL statement %d: %v\nstatement: %s", i+1, err, stmt)
		}
	}
}

// getTestConfig reads test server connection info from environment variables.
func getTestConfig(t *testing.T) Config {
	t.Helper()

	host := os.Getenv("PGTEST_HOST")
	if host == "" {
		t.Skip("PostgreSQL test server not configured. Set PGTEST_HOST, PGTEST_USER, PGTEST_PASSWORD environment variables to run integration tests")
	}

	user := os.Getenv("PGTEST_USER")
	password := os.Getenv("PGTEST_PASSWORD")
	if user == "" {
		t.Skip("PGTEST_USER not set")
	}

	return Config{
		Host:     host,
		Port:     envOrDefault("PGTEST_PORT", "5432"),
		User:     user,
		Password: password,
		Database: envOrDefault("PGTEST_DATABASE", "postgres"),
		SSLMode:  envOrDefault("PGTEST_SSLMODE", "disable"),
	}
}

// BuildDSN constructs a PostgreSQL URL with search_path pinned to the given
// schema.
func BuildDSN(cfg Config, schema string) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Path:   "/" + cfg.Database,
	}

	q := url.Values{}
	if cfg.SSLMode != "" {
		q.Set("sslmode", cfg.SSLMode)
	}
	if schema != "" {
		q.Set("search_path", schema)
	}
	u.RawQuery = q.Encode()

	return u.String()
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func configureTestPool(db *sql.DB) {
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
}

// sanitizeName makes a test name safe for use in a schema name. PostgreSQL
// identifiers are limited to 63 bytes and the timestamp suffix needs room.
func sanitizeName(name string) string {
	var result strings.Builder

	for _, ch := range strings.ToLower(name) {
		if (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') {
			result.WriteRune(ch)
		} else {
			result.WriteRune('_')
		}
	}

	sanitized := result.String()
	if len(sanitized) > 40 {
		sanitized = sanitized[:40]
	}

	return sanitized
}

// splitSQL splits SQL text into individual statements on semicolons. It does
// not handle semicolons inside strings or comments.
func splitSQL(sql string) []string {
	parts := strings.Split(sql, ";")
	result := make([]string, 0, len(parts))

	for _, stmt := range parts {
		stmt = strings.TrimSpace(stmt)
		if stmt != "" {
			result = append(result, stmt)
		}
	}

	return result
}

// isValidSchemaName guards the string-built CREATE/DROP SCHEMA statements
// against injection through a hostile test name.
func isValidSchemaName(name string) bool {
	if name == "" || len(name) > 63 {
		return false
	}

	for _, ch := range name {
		if !isValidSchemaChar(ch) {
			return false
		}
	}

	return true
}

func isValidSchemaChar(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= '0' && ch <= '9') ||
		ch == '_'
}
