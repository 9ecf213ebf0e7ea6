package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIni(t *testing.T) {
	t.Run("full database section", func(t *testing.T) {
		raw := `
# airline admin connection settings
[DATABASE]
host = db.internal
port = 5433
user = airline
password = 's3cret!'
database = airline_prod
sslmode = require
`
		settings, err := parseIni(raw)
		require.NoError(t, err)
		assert.Equal(t, "db.internal", settings.Host)
		assert.Equal(t, 5433, settings.Port)
		assert.True(t, settings.HasPort)
		assert.Equal(t, "airline", settings.User)
		assert.Equal(t, "s3cret!", settings.Password)
		assert.Equal(t, "airline_prod", settings.Database)
		assert.True(t, settings.HasDBName)
		assert.Equal(t, "require", settings.SSLMode)
	})

	t.Run("database falls back to user", func(t *testing.T) {
		raw := `
[database]
host = localhost
user = airline
password = secret
`
		settings, err := parseIni(raw)
		require.NoError(t, err)
		assert.Equal(t, "airline", settings.Database)
		assert.True(t, settings.HasDBName)
	})

	t.Run("colon separator", func(t *testing.T) {
		raw := `
[database]
host: db2.internal
port: 6000
`
		settings, err := parseIni(raw)
		require.NoError(t, err)
		assert.Equal(t, "db2.internal", settings.Host)
		assert.Equal(t, 6000, settings.Port)
	})

	t.Run("other sections ignored", func(t *testing.T) {
		raw := `
[logging]
level = debug

[database]
host = primary.internal
`
		settings, err := parseIni(raw)
		require.NoError(t, err)
		assert.Equal(t, "primary.internal", settings.Host)
		assert.Empty(t, settings.User)
		assert.False(t, settings.HasDBName)
	})

	t.Run("invalid port", func(t *testing.T) {
		raw := `
[database]
port = 99999
`
		_, err := parseIni(raw)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "port")
	})

	t.Run("invalid sslmode", func(t *testing.T) {
		raw := `
[database]
sslmode = tls
`
		_, err := parseIni(raw)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sslmode")
	})

	t.Run("invalid syntax", func(t *testing.T) {
		raw := `
[database]
just-a-word
`
		_, err := parseIni(raw)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid ini syntax on line 3")
	})

	t.Run("empty input", func(t *testing.T) {
		settings, err := parseIni("")
		require.NoError(t, err)
		assert.False(t, settings.HasDBName)
		assert.Empty(t, settings.Host)
	})
}
