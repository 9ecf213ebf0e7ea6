// Package sqlutil provides SQL identifier and literal quoting helpers.
//
// Identifiers (table and column names) cannot travel as bound parameters,
// so every identifier that reaches a SQL string must pass through
// QuoteIdentifier after it has been validated against the attribute
// catalog. Values never use these helpers; they are always bound.
package sqlutil

import "strings"

// QuoteIdentifier quotes a SQL identifier (table name, column name, etc.)
// with double quotes and escapes any embedded double quotes by doubling
// them, per PostgreSQL quoting rules.
func QuoteIdentifier(name string) string {
	escaped := strings.ReplaceAll(name, `"`, `""`)
	return `"` + escaped + `"`
}

// QualifyTable returns a schema-qualified, quoted table reference.
// An empty schema yields just the quoted table name.
func QualifyTable(schema, table string) string {
	if schema == "" {
		return QuoteIdentifier(table)
	}
	return QuoteIdentifier(schema) + "." + QuoteIdentifier(table)
}

// QuoteString quotes a SQL string literal with single quotes and escapes
// any single quotes within the string by doubling them.
func QuoteString(s string) string {
	escaped := strings.ReplaceAll(s, "'", "''")
	return "'" + escaped + "'"
}
