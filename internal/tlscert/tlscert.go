// Package tlscert provides the HTTPS certificate material for the admin
// server, either from operator-supplied files or generated on the fly for
// local development.
package tlscert

import (
	"crypto/tls"
	"fmt"
	"log/slog"
)

// Mode selects where the server certificate comes from.
type Mode string

const (
	// ModeFile serves an operator-provided certificate and key.
	ModeFile Mode = "file"
	// ModeAuto generates and reuses a self-signed localhost certificate.
	ModeAuto Mode = "auto"
)

// Config holds certificate source configuration.
type Config struct {
	Mode Mode

	// File mode.
	CertFile string
	KeyFile  string

	// Auto mode.
	AutoCertDir string
	AutoHosts   []string
}

// Manager hands the HTTP server its TLS configuration.
type Manager interface {
	// TLSConfig returns a tls.Config ready for use with http.Server.
	TLSConfig() (*tls.Config, error)

	// Description names the certificate source for startup logs.
	Description() string
}

// NewManager builds a certificate manager for the configured mode.
func NewManager(cfg Config, logger *slog.Logger) (Manager, error) {
	switch cfg.Mode {
	case ModeFile:
		return newFileManager(cfg, logger)
	case ModeAuto:
		return newAutoManager(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported TLS mode %q (valid modes: file, auto)", cfg.Mode)
	}
}

// MinTLSVersion is the minimum TLS version the server accepts.
const MinTLSVersion = tls.VersionTLS13
