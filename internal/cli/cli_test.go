package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand("test")
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	// Point at a nonexistent config so host configuration cannot leak in.
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "no-config.yaml")}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func TestSetGetListDelete(t *testing.T) {
	file := filepath.Join(t.TempDir(), "cookies.txt")

	_, err := runCommand(t, "set", "example.com", "/", "session", "abc123", "--file", file, "--host-only")
	require.NoError(t, err)

	out, err := runCommand(t, "get", "example.com", "/", "session", "--file", file)
	require.NoError(t, err)
	assert.Equal(t, "abc123", strings.TrimSpace(out))

	out, err = runCommand(t, "list", "--file", file)
	require.NoError(t, err)
	assert.Contains(t, out, "example.com")
	assert.Contains(t, out, "session")

	_, err = runCommand(t, "delete", "example.com", "/", "session", "--file", file)
	require.NoError(t, err)

	_, err = runCommand(t, "get", "example.com", "/", "session", "--file", file)
	assert.Error(t, err, "deleted cookie must not be found")
}

func TestGetMissingCookieFails(t *testing.T) {
	file := filepath.Join(t.TempDir(), "cookies.txt")
	_, err := runCommand(t, "get", "example.com", "/", "nope", "--file", file)
	assert.Error(t, err)
}

func TestListJSON(t *testing.T) {
	file := filepath.Join(t.TempDir(), "cookies.txt")
	_, err := runCommand(t, "set", "example.com", "/", "foo", "bar", "--file", file)
	require.NoError(t, err)

	out, err := runCommand(t, "list", "--file", file, "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"key": "foo"`)
	assert.Contains(t, out, `"value": "bar"`)
}

func TestConvertNetscapeToJSON(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "cookies.txt")
	dst := filepath.Join(dir, "cookies.json")

	content := "# Netscape HTTP Cookie File\n" +
		"example.com\tFALSE\t/\tFALSE\t0\tfoo\tbar\n"
	require.NoError(t, os.WriteFile(src, []byte(content), 0600))

	out, err := runCommand(t, "convert", "--file", src, "--to", "json", "--out", dst)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 1 cookies")

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(string(data)), "{"))
	assert.Contains(t, string(data), `"value": "bar"`)

	// And back again.
	back := filepath.Join(dir, "back.txt")
	_, err = runCommand(t, "convert", "--file", dst, "--to", "netscape", "--out", back)
	require.NoError(t, err)

	raw, err := os.ReadFile(back)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "example.com\tFALSE\t/\tFALSE\t0\tfoo\tbar\n")
}

func TestConvertRequiresConcreteTarget(t *testing.T) {
	file := filepath.Join(t.TempDir(), "cookies.txt")
	_, err := runCommand(t, "convert", "--file", file, "--to", "auto", "--out", "x")
	assert.Error(t, err)
}

func TestDeleteAll(t *testing.T) {
	file := filepath.Join(t.TempDir(), "cookies.txt")
	_, err := runCommand(t, "set", "a.com", "/", "x", "1", "--file", file)
	require.NoError(t, err)
	_, err = runCommand(t, "set", "b.com", "/", "y", "2", "--file", file)
	require.NoError(t, err)

	_, err = runCommand(t, "delete", "--all", "--file", file)
	require.NoError(t, err)

	out, err := runCommand(t, "list", "--file", file)
	require.NoError(t, err)
	assert.NotContains(t, out, "a.com")
	assert.NotContains(t, out, "b.com")
}
