//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/require"

	"airline-admin/internal/catalog"
	"airline-admin/internal/dbexec"
	"airline-admin/internal/logging"
	"airline-admin/internal/middleware"
	"airline-admin/internal/migrations"
	"airline-admin/internal/query"
	"airline-admin/internal/store"
	"airline-admin/internal/testutil/pgtest"
	"airline-admin/internal/web"
)

const (
	testSessionSecret = "0123456789abcdef0123456789abcdef"
	testCookieName    = "airline_admin_session"

	// testPageSize keeps the fixture set spanning several listing pages.
	testPageSize = 5
)

func requireIntegrationEnv(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if os.Getenv("PGTEST_HOST") == "" {
		t.Skip("PostgreSQL test server not configured")
	}
}

// testStack runs the full browser surface in-process over a migrated,
// fixture-loaded schema: real store, catalog and query layers behind an
// httptest server, driven through a cookie-jar client like a browser.
type testStack struct {
	db     *pgtest.TestDB
	stores *store.Stores
	server *httptest.Server
	client *http.Client
}

func newTestStack(t *testing.T, opts ...func(*web.Config)) *testStack {
	t.Helper()

	tdb := pgtest.NewTestDB(t)
	ctx := context.Background()
	require.NoError(t, migrations.Up(ctx, tdb.DB, tdb.Schema), "migrations should apply to a fresh schema")
	tdb.LoadSQL(t, "testdata/fixtures.sql")

	executor := dbexec.NewStandardExecutor(tdb.DB)
	runner := query.NewRunner(executor, nil)
	cat := catalog.New(executor, tdb.Schema, nil)
	stores := store.NewStores(runner, cat, nil, store.Config{Schema: tdb.Schema, PageSize: testPageSize})
	cat.Warm(ctx, stores.Tables())

	cookieStore := sessions.NewCookieStore([]byte(testSessionSecret))

	cfg := web.Config{
		Stores:      stores,
		Sessions:    middleware.NewSessions(cookieStore, testCookieName, nil),
		Logger:      logging.NewLogger(logging.Config{Level: "error"}),
		MaxJump:     5,
		HealthCheck: tdb.DB.PingContext,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	server, err := web.New(cfg)
	require.NoError(t, err)

	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testStack{
		db:     tdb,
		stores: stores,
		server: ts,
		client: &http.Client{Jar: jar, Timeout: 10 * time.Second},
	}
}

func (s *testStack) url(path string) string {
	return s.server.URL + path
}

// get fetches path following redirects like a browser and returns the
// final status and body.
func (s *testStack) get(t *testing.T, path string) (int, string) {
	t.Helper()

	resp, err := s.client.Get(s.url(path))
	require.NoError(t, err)
	return resp.StatusCode, readBody(t, resp)
}

// getRedirect fetches path without following the redirect and returns the
// response status and Location header.
func (s *testStack) getRedirect(t *testing.T, path string) (int, string) {
	t.Helper()

	resp, err := s.noFollowClient().Get(s.url(path))
	require.NoError(t, err)
	location := resp.Header.Get("Location")
	_ = readBody(t, resp)
	return resp.StatusCode, location
}

// postForm submits a form following redirects and returns the final status
// and body.
func (s *testStack) postForm(t *testing.T, path string, form url.Values) (int, string) {
	t.Helper()

	resp, err := s.client.PostForm(s.url(path), form)
	require.NoError(t, err)
	return resp.StatusCode, readBody(t, resp)
}

// postFormRedirect submits a form without following the redirect and
// returns the response status and Location header.
func (s *testStack) postFormRedirect(t *testing.T, path string, form url.Values) (int, string) {
	t.Helper()

	resp, err := s.noFollowClient().PostForm(s.url(path), form)
	require.NoError(t, err)
	location := resp.Header.Get("Location")
	_ = readBody(t, resp)
	return resp.StatusCode, location
}

// noFollowClient shares the stack's cookie jar but stops at the first
// redirect so tests can assert on status codes and targets.
func (s *testStack) noFollowClient() *http.Client {
	return &http.Client{
		Jar:     s.client.Jar,
		Timeout: 10 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// loginAs logs the client in and returns the welcome page body.
func (s *testStack) loginAs(t *testing.T, userID, password string) string {
	t.Helper()

	status, body := s.postForm(t, "/login", url.Values{
		"userid":   {userID},
		"password": {password},
	})
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, "Welcome", "login should land on the welcome page")
	return body
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

// startTestServer builds the server binary and runs it against the test
// schema. The spawned process applies its own migrations, so callers get a
// ready database without loading anything first.
func startTestServer(t *testing.T, binaryName string, port int, tdb *pgtest.TestDB, extraEnv ...string) *exec.Cmd {
	t.Helper()

	buildCmd := exec.Command("go", "build", "-o", binaryName, "../../cmd/server")
	err := buildCmd.Run()
	require.NoError(t, err, "Failed to build server")

	cmd := exec.Command(binaryName)
	baseEnv := append(os.Environ(), baseServerEnv(tdb)...)
	baseEnv = append(baseEnv, fmt.Sprintf("AIRADM_SERVER_PORT=%d", port))
	cmd.Env = mergeEnv(baseEnv, extraEnv...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Start()
	require.NoError(t, err)

	t.Cleanup(func() {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		_ = os.Remove(binaryName)
	})

	waitForHealthyWithLogs(t, port, &stdout, &stderr, cmd.Env)

	return cmd
}

func baseServerEnv(tdb *pgtest.TestDB) []string {
	return []string{
		fmt.Sprintf("AIRADM_DATABASE_DSN=%s", tdb.DSN()),
		fmt.Sprintf("AIRADM_DATABASE_SCHEMA=%s", tdb.Schema),
		fmt.Sprintf("AIRADM_SESSION_SECRET=%s", testSessionSecret),
		"AIRADM_OBSERVABILITY_LOGGING_FORMAT=text",
	}
}

func waitForHealthyWithLogs(t *testing.T, port int, stdout, stderr *bytes.Buffer, env []string) {
	t.Helper()
	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		time.Sleep(200 * time.Millisecond)
		resp, err := http.Get(fmt.Sprintf("http://localhost:%d/healthz", port))
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
	}
	t.Fatalf("Server did not become ready within 15 seconds.\n%s", formatServerDebugInfo(stdout, stderr, env))
}

func mergeEnv(base []string, overrides ...string) []string {
	if len(overrides) == 0 {
		return base
	}

	overrideKeys := make(map[string]struct{}, len(overrides))
	for _, kv := range overrides {
		key := strings.SplitN(kv, "=", 2)[0]
		overrideKeys[key] = struct{}{}
	}

	merged := make([]string, 0, len(base)+len(overrides))
	for _, kv := range base {
		key := strings.SplitN(kv, "=", 2)[0]
		if _, exists := overrideKeys[key]; exists {
			continue
		}
		merged = append(merged, kv)
	}
	merged = append(merged, overrides...)
	return merged
}

func formatServerDebugInfo(stdout, stderr *bytes.Buffer, env []string) string {
	envLines := filterEnv(env, "AIRADM_DATABASE_", "AIRADM_SERVER_", "AIRADM_OBSERVABILITY_")
	return fmt.Sprintf("Environment:\n%s\nSTDOUT:\n%s\nSTDERR:\n%s",
		strings.Join(envLines, "\n"),
		tailString(stdout, 4000),
		tailString(stderr, 4000),
	)
}

func filterEnv(env []string, prefixes ...string) []string {
	if len(env) == 0 {
		return nil
	}
	var filtered []string
	for _, kv := range env {
		for _, prefix := range prefixes {
			if strings.HasPrefix(kv, prefix) {
				filtered = append(filtered, kv)
				break
			}
		}
	}
	return filtered
}

func tailString(buf *bytes.Buffer, max int) string {
	if buf == nil {
		return ""
	}
	s := buf.String()
	if len(s) <= max {
		return s
	}
	return s[len(s)-max:]
}
