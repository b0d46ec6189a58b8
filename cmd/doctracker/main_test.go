package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/spk-docs/doctracker/internal/document/state"
	"github.com/spk-docs/doctracker/pkg/logger"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	cmd := rootCmd()
	var out, logs bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&logs)
	t.Cleanup(func() { logger.SetOutput(os.Stdout) })
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	require.Contains(t, out, Version)
}

func TestListAndExportLocalFile(t *testing.T) {
	t.Setenv("BACKEND_MODE", "local")
	t.Setenv("LOCAL_SLOT", "file")
	t.Setenv("LOCAL_FILE_PATH", filepath.Join(t.TempDir(), "docs.json"))

	out, err := run(t, "list", "--json")
	require.NoError(t, err)
	var v state.View
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	require.Equal(t, 0, v.Total)
	require.Equal(t, 1, v.TotalPages)

	out, err = run(t, "list")
	require.NoError(t, err)
	require.Contains(t, out, "page 1/1, 0 documents")

	out, err = run(t, "export")
	require.NoError(t, err)
	require.Equal(t, 1, strings.Count(out, "\n"))
	require.Contains(t, out, "ฝ่ายการเงิน")
}

func TestTokenRequiresSecret(t *testing.T) {
	t.Setenv("BACKEND_MODE", "local")
	t.Setenv("LOCAL_SLOT", "memory")
	t.Setenv("JWT_SECRET", "")
	_, err := run(t, "token", "--sub", "clerk")
	require.Error(t, err)

	t.Setenv("JWT_SECRET", "cli-test-secret-0123456789abcdef")
	out, err := run(t, "token", "--sub", "clerk")
	require.NoError(t, err)
	require.Equal(t, 2, strings.Count(out, "."))
}
