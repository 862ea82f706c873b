package ctl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/ecopoints/internal/server/auth"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTerminalToken_FromEnv(t *testing.T) {
	t.Setenv("ECOPOINTS_TERMINAL_SECRET", "s3cret")

	out, err := run(t, "terminal-token", "--id", "kiosk-7", "--validity", "1h")
	require.NoError(t, err)

	id, err := auth.ParseTerminalToken(strings.TrimSpace(out), []byte("s3cret"))
	require.NoError(t, err)
	assert.Equal(t, "kiosk-7", id)
}

func TestTerminalToken_Prompt(t *testing.T) {
	orig := readPassword
	t.Cleanup(func() { readPassword = orig })
	readPassword = func(int) ([]byte, error) { return []byte("typed"), nil }

	out, err := run(t, "terminal-token", "--id", "kiosk-1", "--prompt")
	require.NoError(t, err)

	_, err = auth.ParseTerminalToken(strings.TrimSpace(out), []byte("typed"))
	assert.NoError(t, err)
}

func TestTerminalToken_Errors(t *testing.T) {
	t.Setenv("ECOPOINTS_TERMINAL_SECRET", "")

	_, err := run(t, "terminal-token", "--id", "k")
	assert.ErrorContains(t, err, "terminal secret is not set")

	_, err = run(t, "terminal-token")
	assert.Error(t, err)

	orig := readPassword
	t.Cleanup(func() { readPassword = orig })
	readPassword = func(int) ([]byte, error) { return nil, errors.New("not a tty") }
	_, err = run(t, "terminal-token", "--id", "k", "--prompt")
	assert.ErrorContains(t, err, "not a tty")
}

func TestDeposit(t *testing.T) {
	var got map[string]any
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/deposits", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"garbage":2.5,"point":12.5}`))
	}))
	defer ts.Close()

	out, err := run(t, "deposit", "--server", ts.URL+"/", "--token", "tok", "--phone", "0812", "--amount", "2.5")
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "0812", got["phone"])
	assert.EqualValues(t, 2.5, got["trash_amount"])
	assert.Contains(t, out, `"point": 12.5`)
}

func TestDeposit_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"USER_NOT_FOUND"}`))
	}))
	defer ts.Close()

	_, err := run(t, "deposit", "--server", ts.URL, "--phone", "0812", "--amount", "1")
	assert.ErrorContains(t, err, "USER_NOT_FOUND")

	_, err = run(t, "deposit", "--server", ts.URL, "--phone", "0812", "--amount", "lots")
	assert.ErrorContains(t, err, "encode request")
}

func TestExportHistory_RequiresPostgres(t *testing.T) {
	t.Setenv("ECOPOINTS_STORAGE", "memory")

	_, err := run(t, "export-history", "--phone", "0812")
	assert.ErrorContains(t, err, "postgres storage backend")
}

func TestMigrate_Unreachable(t *testing.T) {
	_, err := run(t, "migrate", "--dsn", "postgres://u:p@127.0.0.1:1/db?sslmode=disable&connect_timeout=1", "--timeout", "2s")
	assert.ErrorContains(t, err, "db ping error")
}
