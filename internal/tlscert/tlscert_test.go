package tlscert

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewManagerRejectsUnknownMode(t *testing.T) {
	_, err := NewManager(Config{Mode: Mode("letsencrypt")}, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported TLS mode")
}

func TestAutoManagerGeneratesAndReusesCertificate(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{Mode: ModeAuto, AutoCertDir: dir}

	mgr, err := NewManager(cfg, discardLogger())
	require.NoError(t, err)

	tlsCfg, err := mgr.TLSConfig()
	require.NoError(t, err)
	require.Len(t, tlsCfg.Certificates, 1)
	assert.EqualValues(t, MinTLSVersion, tlsCfg.MinVersion)

	first, err := os.ReadFile(filepath.Join(dir, "server.crt"))
	require.NoError(t, err)

	// A second manager over the same directory keeps the pair.
	_, err = NewManager(cfg, discardLogger())
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(dir, "server.crt"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAutoManagerRegeneratesWhenHostsChange(t *testing.T) {
	dir := t.TempDir()

	_, err := NewManager(Config{Mode: ModeAuto, AutoCertDir: dir}, discardLogger())
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(dir, "server.crt"))
	require.NoError(t, err)

	_, err = NewManager(Config{
		Mode:        ModeAuto,
		AutoCertDir: dir,
		AutoHosts:   []string{"admin.airline.test"},
	}, discardLogger())
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(dir, "server.crt"))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestFileManagerRequiresBothPaths(t *testing.T) {
	_, err := NewManager(Config{Mode: ModeFile}, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tls_cert_file")

	_, err = NewManager(Config{Mode: ModeFile, CertFile: "cert.pem"}, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tls_key_file")
}

func TestFileManagerRejectsGroupReadableKey(t *testing.T) {
	dir := t.TempDir()
	certPath := filepath.Join(dir, "server.crt")
	keyPath := filepath.Join(dir, "server.key")
	require.NoError(t, generateCert(certPath, keyPath, []string{"localhost"}))
	require.NoError(t, os.Chmod(keyPath, 0644))

	_, err := NewManager(Config{Mode: ModeFile, CertFile: certPath, KeyFile: keyPath}, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insecure key file permissions")
}

func TestFileManagerServesOperatorPair(t *testing.T) {
	dir := t.TempDir()
	certPath := filepath.Join(dir, "server.crt")
	keyPath := filepath.Join(dir, "server.key")
	require.NoError(t, generateCert(certPath, keyPath, []string{"localhost"}))

	mgr, err := NewManager(Config{Mode: ModeFile, CertFile: certPath, KeyFile: keyPath}, discardLogger())
	require.NoError(t, err)

	tlsCfg, err := mgr.TLSConfig()
	require.NoError(t, err)
	require.NotNil(t, tlsCfg.GetCertificate)
	cert, err := tlsCfg.GetCertificate(nil)
	require.NoError(t, err)
	assert.NotNil(t, cert)
}
