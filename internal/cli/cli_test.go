package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("COMPANION_DB", filepath.Join(dir, "companion.db"))
	t.Setenv("COMPANION_LOG_LEVEL", "error")
	configPath = ""
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "companion dev"), out)
}

func TestUserAddAndProfile(t *testing.T) {
	isolate(t)
	cfg := filepath.Join(t.TempDir(), "missing.yaml")

	out, err := run(t, "--config", cfg, "user", "add", "alice", "Alice")
	require.NoError(t, err)
	assert.Contains(t, out, "created user alice")

	_, err = run(t, "--config", cfg, "user", "add", "alice")
	assert.Error(t, err)

	out, err = run(t, "--config", cfg, "profile", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "## Alice (alice)")
	assert.Contains(t, out, "Nothing learned yet.")

	_, err = run(t, "--config", cfg, "profile", "bob")
	assert.Error(t, err)
}

func TestRemindersEmpty(t *testing.T) {
	isolate(t)

	out, err := run(t, "--config", filepath.Join(t.TempDir(), "none.yaml"), "reminders", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "No upcoming reminders.")
}
