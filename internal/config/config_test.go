package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	dataDir := t.TempDir()

	cfg, err := Load(filepath.Join(dataDir, "nope.yaml"), dataDir)
	require.NoError(t, err)

	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, SourceLocal, cfg.Source)
	assert.Equal(t, ProfileManage, cfg.Nav.Profile)
	assert.False(t, cfg.Nav.SubItemInLocation)
	assert.True(t, cfg.RestoreLastEnabled())
	assert.True(t, cfg.MouseEnabled())
	assert.Equal(t, filepath.Join(dataDir, "boardnav.sqlite"), cfg.DBFile())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `
log_level: debug
source: remote
remote:
  base_url: http://example.test:9000
  timeout: 3s
nav:
  subitem_in_location: true
  profile: browse
  restore_last: false
tui:
  glyphs: ascii
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path, dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, SourceRemote, cfg.Source)
	assert.Equal(t, "http://example.test:9000", cfg.Remote.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Remote.Timeout)
	assert.True(t, cfg.Nav.SubItemInLocation)
	assert.Equal(t, ProfileBrowse, cfg.Nav.Profile)
	assert.False(t, cfg.RestoreLastEnabled())
	assert.Equal(t, "ascii", cfg.TUI.Glyphs)
	// Unset values keep their defaults.
	assert.Equal(t, "auto", cfg.TUI.Theme)
	assert.Equal(t, "127.0.0.1:3340", cfg.Server.Addr)
}

func TestLoad_InvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("nav:\n  profile: admin\nsource: carrier-pigeon\n"), 0o644))

	_, err := Load(path, dir)
	require.Error(t, err)

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)

	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Field)
	}
	assert.Contains(t, fields, "source")
	assert.Contains(t, fields, "nav.profile")
}

func TestValidate_RemoteURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "http", url: "http://localhost:3340"},
		{name: "https", url: "https://boards.example.com"},
		{name: "no scheme", url: "localhost:3340", wantErr: true},
		{name: "no host", url: "http://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.DataDir = t.TempDir()
			cfg.Remote.BaseURL = tt.url

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidate_EmptyDataDir(t *testing.T) {
	cfg := DefaultConfig()

	err := cfg.Validate()

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Equal(t, "data_dir", fieldErrs[0].Field)
}
