package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"line-truncator/internal/errors"
	"line-truncator/internal/truncate"
)

func TestRun_Success(t *testing.T) {
	p := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(p, []byte("a\nb\nc\nd\ne\n"), 0o644))

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-n", "3", p}, &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.Equal(t, truncate.SuccessMessage+"\n", stdout.String())
	assert.Empty(t, stderr.String())

	got, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\nc\n", string(got))
}

func TestRun_VerboseLogsToStderr(t *testing.T) {
	p := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(p, []byte("a\nb\n"), 0o644))

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-verbose", "-atomic", "-n", "1", p}, &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.Contains(t, stderr.String(), "Effective configuration:")
	assert.Contains(t, stderr.String(), "Atomic Write: true")
	assert.Equal(t, truncate.SuccessMessage+"\n", stdout.String())
}

func TestRun_NotFound(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.txt")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{missing}, &stdout, &stderr)

	assert.Equal(t, errors.CodeNotFound, code)
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "error: file not found")
	_, err := os.Stat(missing)
	assert.True(t, os.IsNotExist(err))
}

func TestRun_EncodingError(t *testing.T) {
	p := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(p, []byte("\xff\n"), 0o644))

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-n", "0", p}, &stdout, &stderr)

	assert.Equal(t, errors.CodeEncoding, code)
	assert.Contains(t, stderr.String(), "not valid UTF-8")
}

func TestRun_BadUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer

	assert.Equal(t, errors.CodeGeneric, run(context.Background(), nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "path is required")

	stderr.Reset()
	assert.Equal(t, errors.CodeGeneric, run(context.Background(), []string{"-n", "-2", "f.txt"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "max lines must be 0 or greater")
}

func TestRun_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(p, []byte("1\n2\n3\n"), 0o644))
	cfgPath := filepath.Join(dir, "trunc.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("max_lines = 2\n"), 0o644))

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", cfgPath, p}, &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	got, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n", string(got))
}

func TestRun_ConfigFileUnknownKey(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(p, []byte("1\n2\n3\n"), 0o644))
	cfgPath := filepath.Join(dir, "trunc.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("max-lines: 1\n"), 0o644))

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", cfgPath, p}, &stdout, &stderr)

	assert.Equal(t, errors.CodeGeneric, code)
	assert.Contains(t, stderr.String(), "max-lines")
	assert.Empty(t, stdout.String())
	got, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n3\n", string(got))
}

func TestRun_HelpExitsZero(t *testing.T) {
	for _, arg := range []string{"-h", "-help"} {
		t.Run(arg, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(context.Background(), []string{arg}, &stdout, &stderr)

			assert.Equal(t, 0, code)
			assert.Contains(t, stderr.String(), "-max-lines")
			assert.NotContains(t, stderr.String(), "error:")
		})
	}
}
