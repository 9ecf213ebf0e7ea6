package config

import (
	"fmt"
	"net/url"
	"strings"
)

// DSN returns a PostgreSQL connection string.
// If ConnectionString is set, it is used directly (with sslmode, sslrootcert
// and search_path ensured on URL form). Otherwise, builds a URL from the
// discrete fields.
func (d *DatabaseConfig) DSN() string {
	dsn := strings.TrimSpace(d.ConnectionString)
	if dsn == "" {
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(d.User, d.Password),
			Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
			Path:   "/" + d.Database,
		}
		dsn = u.String()
	}

	// Keyword/value connection strings (host=... dbname=...) pass through
	// untouched; parameters are only ensured on URL form.
	if !strings.Contains(dsn, "://") {
		return dsn
	}

	dsn = ensureDSNParam(dsn, "sslmode", d.SSLMode)
	dsn = ensureDSNParam(dsn, "sslrootcert", d.SSLRootCert)
	dsn = ensureDSNParam(dsn, "search_path", d.Schema)
	return dsn
}

// ensureDSNParam appends key=value to a URL form DSN unless the value is
// empty or the DSN already carries the key.
func ensureDSNParam(dsn, key, value string) string {
	if value == "" || strings.Contains(dsn, key+"=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + key + "=" + url.QueryEscape(value)
}

// EffectiveDatabaseName returns the canonical database name used for catalog
// introspection and migrations.
func (d *DatabaseConfig) EffectiveDatabaseName() (name string, source string, err error) {
	return resolveEffectiveDatabaseName(d.Database, d.ConnectionString, d.IniFile)
}

func resolveEffectiveDatabaseName(databaseName string, connectionString string, iniFile string) (name string, source string, err error) {
	configDatabase := strings.TrimSpace(databaseName)
	dsn := strings.TrimSpace(connectionString)
	iniPath := strings.TrimSpace(iniFile)
	dsnDatabase, parseErr := parseDSNDatabaseName(dsn)
	if parseErr != nil {
		return "", "", parseErr
	}

	if configDatabase != "" {
		if dsnDatabase != "" && configDatabase != dsnDatabase {
			return "", "", fmt.Errorf(
				"database mismatch: database.database=%q but database.dsn targets %q",
				configDatabase,
				dsnDatabase,
			)
		}
		if iniPath != "" && dsn == "" {
			return configDatabase, "ini", nil
		}
		return configDatabase, "database.database", nil
	}

	if dsnDatabase != "" {
		return dsnDatabase, "dsn", nil
	}

	if iniPath != "" {
		return "", "", fmt.Errorf(
			"database.ini_file does not provide a database name and database.database is not set",
		)
	}

	return "", "", fmt.Errorf(
		"no effective database name configured: set database.database or include /<database> in database.dsn/database.dsn_file or database.ini_file",
	)
}

// parseDSNDatabaseName reads the database named by the connection string
// text itself. The driver parser would fill in environment and user name
// defaults, which must not count as the DSN naming a database.
func parseDSNDatabaseName(connectionString string) (string, error) {
	dsn := strings.TrimSpace(connectionString)
	if dsn == "" {
		return "", nil
	}

	if strings.Contains(dsn, "://") {
		parsed, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("database.dsn is invalid: %w", err)
		}
		if parsed.Scheme != "postgres" && parsed.Scheme != "postgresql" {
			return "", fmt.Errorf("database.dsn is invalid: unsupported scheme %q", parsed.Scheme)
		}
		return strings.TrimPrefix(parsed.Path, "/"), nil
	}

	for _, field := range strings.Fields(dsn) {
		if value, ok := strings.CutPrefix(field, "dbname="); ok {
			return stripOptionalQuotes(strings.TrimSpace(value)), nil
		}
	}
	return "", nil
}

func normalizeSSLMode(value string) (string, error) {
	mode := strings.ToLower(strings.TrimSpace(value))
	switch mode {
	case "", "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
		return mode, nil
	default:
		return "", fmt.Errorf("unsupported sslmode %q", value)
	}
}
