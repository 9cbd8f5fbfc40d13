package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_LoadConfig_Returns_Defaults_When_No_Files_Exist(t *testing.T) {
	workDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(workDir, "no-such-xdg"))

	cfg, sources, err := LoadConfig(workDir, "", Config{}, false)
	require.NoError(t, err)

	require.Equal(t, DefaultConfig().Dir, cfg.Dir)
	require.Empty(t, sources.Global)
	require.Empty(t, sources.Project)
}

func Test_LoadConfig_Project_File_Overrides_Defaults(t *testing.T) {
	workDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(workDir, "no-such-xdg"))

	projectFile := filepath.Join(workDir, ConfigFileName)
	err := os.WriteFile(projectFile, []byte(`{
		// a comment, since config files are JSONC
		"dir": "./custom-store",
		"cache_size": 32,
	}`), 0o644)
	require.NoError(t, err)

	cfg, sources, err := LoadConfig(workDir, "", Config{}, false)
	require.NoError(t, err)

	require.Equal(t, "./custom-store", cfg.Dir)
	require.Equal(t, 32, cfg.CacheSize)
	require.Equal(t, projectFile, sources.Project)
}

func Test_LoadConfig_CLI_Dir_Flag_Overrides_Project_File(t *testing.T) {
	workDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(workDir, "no-such-xdg"))

	projectFile := filepath.Join(workDir, ConfigFileName)
	err := os.WriteFile(projectFile, []byte(`{"dir": "./from-file"}`), 0o644)
	require.NoError(t, err)

	cfg, _, err := LoadConfig(workDir, "", Config{Dir: "./from-cli"}, true)
	require.NoError(t, err)

	require.Equal(t, "./from-cli", cfg.Dir)
}

func Test_LoadConfig_Explicit_Config_Path_Must_Exist(t *testing.T) {
	workDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(workDir, "no-such-xdg"))

	_, _, err := LoadConfig(workDir, "missing.json", Config{}, false)
	require.Error(t, err)
}

func Test_FormatConfig_Produces_Valid_Indented_JSON(t *testing.T) {
	t.Parallel()

	out, err := FormatConfig(Config{Dir: "x", CacheSize: 16})
	require.NoError(t, err)
	require.Contains(t, out, `"dir": "x"`)
	require.Contains(t, out, `"cache_size": 16`)
}
