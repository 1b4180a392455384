package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/simonhull/heron/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	def := DefaultConfig()
	assert.True(t, cfg.Recursive)
	assert.Equal(t, "tree", cfg.Format)
	assert.Equal(t, def.Resolver.CacheSize, cfg.Resolver.CacheSize)
	assert.Equal(t, def.Scan.Extensions, cfg.Scan.Extensions)
	assert.Empty(t, cfg.Scan.IgnorePatterns)
	assert.False(t, cfg.Scan.IncludeHidden)
	assert.NotNil(t, cfg.Resolver.Properties)
	assert.Equal(t, logger.LevelWarn, cfg.LogLevel())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
recursive: false
format: dot
output: deps.dot
resolver:
  properties:
    Configuration: Release
  sdk_paths:
    - /opt/dotnet/sdk/8.0.100/Sdks
  ignore_missing_imports: true
  cache_size: 16
scan:
  extensions: [.csproj]
  ignore_dirs: [obj]
  ignore_patterns: ["*.user"]
  include_hidden: true
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.Recursive)
	assert.Equal(t, "dot", cfg.Format)
	assert.Equal(t, "deps.dot", cfg.Output)
	assert.Equal(t, map[string]string{"configuration": "Release"}, cfg.Resolver.Properties)
	assert.Equal(t, []string{"/opt/dotnet/sdk/8.0.100/Sdks"}, cfg.Resolver.SdkPaths)
	assert.True(t, cfg.Resolver.IgnoreMissingImports)
	assert.False(t, cfg.Resolver.UseEnvironment)
	assert.Equal(t, 16, cfg.Resolver.CacheSize)
	assert.Equal(t, []string{".csproj"}, cfg.Scan.Extensions)
	assert.Equal(t, []string{"obj"}, cfg.Scan.IgnoreDirs)
	assert.Equal(t, []string{"*.user"}, cfg.Scan.IgnorePatterns)
	assert.True(t, cfg.Scan.IncludeHidden)
	assert.Equal(t, logger.LevelDebug, cfg.LogLevel())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, "format: dot\n")
	t.Setenv("HERON_FORMAT", "mermaid")
	t.Setenv("HERON_RESOLVER_CACHE_SIZE", "8")
	t.Setenv("HERON_RESOLVER_USE_ENVIRONMENT", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "mermaid", cfg.Format)
	assert.Equal(t, 8, cfg.Resolver.CacheSize)
	assert.True(t, cfg.Resolver.UseEnvironment)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"malformed yaml", "format: [dot\n", "reading config file"},
		{"unknown format", "format: svg\n", "invalid format"},
		{"negative cache", "resolver:\n  cache_size: -1\n", "cache_size"},
		{"unknown level", "log:\n  level: loud\n", "invalid log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSaveConfig_LoadsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	cfg := DefaultConfig()
	cfg.Format = "json"
	cfg.Resolver.SdkPaths = []string{"/sdks"}

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "json", loaded.Format)
	assert.Equal(t, []string{"/sdks"}, loaded.Resolver.SdkPaths)
	assert.True(t, loaded.Recursive)
}

func TestResolverOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Resolver.Properties["configuration"] = "Debug"
	cfg.Resolver.SdkPaths = []string{"/sdks"}
	cfg.Resolver.IgnoreMissingImports = true

	opts := cfg.ResolverOptions()

	assert.Equal(t, map[string]string{"configuration": "Debug"}, opts.GlobalProperties)
	assert.Equal(t, []string{"/sdks"}, opts.SdkPaths)
	assert.True(t, opts.IgnoreMissingImports)
	assert.Equal(t, cfg.Resolver.CacheSize, opts.CacheSize)

	opts.GlobalProperties["platform"] = "x64"
	assert.NotContains(t, cfg.Resolver.Properties, "platform")
}

func TestLoad_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heron.toml")
	require.NoError(t, os.WriteFile(path, []byte("format = \"dot\"\n\n[resolver]\ncache_size = 4\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dot", cfg.Format)
	assert.Equal(t, 4, cfg.Resolver.CacheSize)
}
