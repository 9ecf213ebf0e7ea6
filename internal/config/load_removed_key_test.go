package config

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// The database.tls block was replaced by database.sslmode and
// database.ssl_root_cert. Strict unmarshalling turns a stale config file
// into a startup error instead of silently ignoring its TLS settings.
func TestUnmarshalExact_RejectsRemovedDatabaseTLSBlock(t *testing.T) {
	yaml := `
database:
  host: localhost
  tls:
    mode: verify-full
    ca_file: /etc/ssl/ca.pem
`

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewBufferString(yaml)); err != nil {
		t.Fatalf("failed to read config: %v", err)
	}

	var cfg Config
	err := v.UnmarshalExact(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		stringToStringSliceHookFunc(","),
	)))
	if err == nil {
		t.Fatal("expected strict unmarshal to reject the removed database.tls block")
	}
	if !strings.Contains(err.Error(), "tls") {
		t.Errorf("expected error to mention the tls key, got: %v", err)
	}
}
