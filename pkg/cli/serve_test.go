package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockbird/mockbird/pkg/config"
)

// newServeTestCmd binds a fresh flag set so tests don't share the
// package-level instance.
func newServeTestCmd() (*cobra.Command, *serveFlags) {
	f := &serveFlags{}
	cmd := &cobra.Command{Use: "serve"}
	registerServeFlags(cmd, f)
	return cmd, f
}

// chdirTemp moves the working directory away from the repo so config file
// discovery finds nothing.
func chdirTemp(t *testing.T) {
	t.Helper()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { os.Chdir(oldWd) })
}

func TestBuildServerConfigDefaults(t *testing.T) {
	chdirTemp(t)
	cmd, f := newServeTestCmd()

	cfg, baseDir, err := buildServerConfig(cmd, f)
	require.NoError(t, err)

	want := config.DefaultServerConfig()
	assert.Equal(t, want.Port, cfg.Port)
	assert.Equal(t, want.AdminPrefix, cfg.AdminPrefix)
	assert.Empty(t, cfg.StubFiles)
	assert.Empty(t, baseDir)
}

func TestBuildServerConfigFromFile(t *testing.T) {
	chdirTemp(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 5123
logLevel: debug
stubFiles:
  - fixtures/api.yaml
`), 0o644))

	cmd, f := newServeTestCmd()
	f.configFile = path

	cfg, baseDir, err := buildServerConfig(cmd, f)
	require.NoError(t, err)
	assert.Equal(t, 5123, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"fixtures/api.yaml"}, cfg.StubFiles)
	assert.Equal(t, dir, baseDir)
}

func TestBuildServerConfigFlagBeatsFile(t *testing.T) {
	chdirTemp(t)
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 5123\nlogFormat: json\n"), 0o644))

	cmd, f := newServeTestCmd()
	f.configFile = path
	require.NoError(t, cmd.Flags().Set("port", "6001"))
	require.NoError(t, cmd.Flags().Set("journal-size", "50"))

	cfg, _, err := buildServerConfig(cmd, f)
	require.NoError(t, err)
	assert.Equal(t, 6001, cfg.Port)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 50, cfg.JournalCapacity)
}

func TestBuildServerConfigDiscoversLocalFile(t *testing.T) {
	chdirTemp(t)
	require.NoError(t, os.WriteFile("mockbird.yaml", []byte("port: 7301\n"), 0o644))

	cmd, f := newServeTestCmd()
	cfg, _, err := buildServerConfig(cmd, f)
	require.NoError(t, err)
	assert.Equal(t, 7301, cfg.Port)
}

func TestBuildServerConfigStubsFlagResolvesFromCwd(t *testing.T) {
	chdirTemp(t)
	cmd, f := newServeTestCmd()
	require.NoError(t, cmd.Flags().Set("stubs", "rel/stubs.yaml"))

	cfg, _, err := buildServerConfig(cmd, f)
	require.NoError(t, err)
	require.Len(t, cfg.StubFiles, 1)
	assert.True(t, filepath.IsAbs(cfg.StubFiles[0]), "flag path should be anchored: %s", cfg.StubFiles[0])
}

func TestBuildServerConfigRejectsBadFile(t *testing.T) {
	chdirTemp(t)
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: -7\n"), 0o644))

	cmd, f := newServeTestCmd()
	f.configFile = path

	_, _, err := buildServerConfig(cmd, f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestFileSink(t *testing.T) {
	assert.Nil(t, fileSink(""))

	fc := fileSink("/var/log/mockbird.log")
	require.NotNil(t, fc)
	assert.Equal(t, "/var/log/mockbird.log", fc.Path)
}
