package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/docscan/internal/enhance"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoader(t *testing.T) *Loader {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	return NewLoaderWithViper(viper.New())
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docscan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	require.NotNil(t, loader)
	assert.Same(t, viper.GetViper(), loader.GetViper())
}

func TestLoad_NoConfigFile(t *testing.T) {
	cfg, err := newTestLoader(t).Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
}

func TestLoad_FromSearchPath(t *testing.T) {
	loader := newTestLoader(t)
	require.NoError(t, os.WriteFile("docscan.yaml", []byte("log_level: debug\nrectify:\n  mode: maximum\n"), 0o600))

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "maximum", cfg.Rectify.Mode)
	assert.Contains(t, loader.GetConfigFileUsed(), "docscan.yaml")
}

func TestLoadWithFile(t *testing.T) {
	path := writeConfig(t, `
log_level: warn
detector:
  max_dimension: 1024
  min_confidence: 0.7
enhance:
  filter: sepia
  brightness: -20
server:
  port: 9090
batch:
  workers: 6
  pdf_file: out.pdf
`)
	cfg, err := newTestLoader(t).LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 1024, cfg.Detector.MaxDimension)
	assert.InDelta(t, 0.7, cfg.Detector.MinConfidence, 1e-12)
	assert.Equal(t, enhance.FilterSepia, cfg.Enhance.Filter)
	assert.InDelta(t, -20, cfg.Enhance.Brightness, 1e-12)
	assert.InDelta(t, 1, cfg.Enhance.Saturation, 1e-12, "unset keys keep defaults")
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 6, cfg.Batch.Workers)
	assert.Equal(t, "out.pdf", cfg.Batch.PDFFile)
	assert.Equal(t, "closing", cfg.Detector.Morphology)
}

func TestLoadWithFile_Errors(t *testing.T) {
	_, err := newTestLoader(t).LoadWithFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")

	bad := writeConfig(t, "log_level: [unclosed\n")
	_, err = newTestLoader(t).LoadWithFile(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")

	invalid := writeConfig(t, "server:\n  port: -1\n")
	_, err = newTestLoader(t).LoadWithFile(invalid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")

	cfg, err := newTestLoader(t).LoadWithFileWithoutValidation(invalid)
	require.NoError(t, err)
	assert.Equal(t, -1, cfg.Server.Port)
}

func TestLoadWithFile_EmptyPathUsesSearch(t *testing.T) {
	cfg, err := newTestLoader(t).LoadWithFile("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)

	cfg, err = newTestLoader(t).LoadWithFileWithoutValidation("")
	require.NoError(t, err)
	assert.Equal(t, infoLevel, cfg.LogLevel)
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	loader := newTestLoader(t)
	t.Setenv("DOCSCAN_LOG_LEVEL", "error")
	t.Setenv("DOCSCAN_DETECTOR_MIN_CONFIDENCE", "0.9")
	t.Setenv("DOCSCAN_SERVER_PORT", "7070")
	t.Setenv("DOCSCAN_RECTIFY_ENABLED", "false")

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.InDelta(t, 0.9, cfg.Detector.MinConfidence, 1e-12)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.False(t, cfg.Rectify.Enabled)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9000\n  host: filehost\n")
	loader := newTestLoader(t)
	t.Setenv("DOCSCAN_SERVER_PORT", "9100")
	loader.Set("server.host", "override")

	cfg, err := loader.LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port, "env beats file")
	assert.Equal(t, "override", cfg.Server.Host, "explicit Set beats env and file")
}

func TestLoader_Accessors(t *testing.T) {
	loader := newTestLoader(t)
	loader.Set("output.format", "json")
	assert.Equal(t, "json", loader.GetString("output.format"))
	assert.Equal(t, "json", loader.Get("output.format"))

	_, err := loader.Load()
	require.NoError(t, err)
	settings := loader.GetResolvedConfig()
	assert.Contains(t, settings, "detector")
	assert.Contains(t, settings, "batch")

	var buf bytes.Buffer
	loader.PrintConfigInfo(&buf)
	assert.Contains(t, buf.String(), "Environment prefix: DOCSCAN")
}

func TestGenerateDefaultConfigFile(t *testing.T) {
	newTestLoader(t)
	path := filepath.Join(t.TempDir(), "generated.yaml")
	require.NoError(t, GenerateDefaultConfigFile(path))

	cfg, err := NewLoaderWithViper(viper.New()).LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
}

func TestGenerateDefaultConfigFile_DefaultName(t *testing.T) {
	newTestLoader(t)
	require.NoError(t, GenerateDefaultConfigFile(""))
	assert.FileExists(t, "docscan.yaml")
}

func TestGetConfigSearchPaths(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	paths := GetConfigSearchPaths()
	assert.Equal(t, ".", paths[0])
	assert.Contains(t, paths, filepath.Join(xdg, "docscan"))
	assert.Equal(t, "/etc/docscan", paths[len(paths)-1])
}
