// Package config loads and saves heron.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/simonhull/heron/pkg/graph"
	"github.com/simonhull/heron/pkg/logger"
	"github.com/simonhull/heron/pkg/msbuild"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file name looked up in the working directory.
const DefaultFile = "heron.yaml"

// EnvPrefix prefixes environment overrides, e.g. HERON_RESOLVER_CACHE_SIZE.
const EnvPrefix = "HERON"

// Config represents heron.yaml configuration
type Config struct {
	Recursive bool           `yaml:"recursive" mapstructure:"recursive"`
	Format    string         `yaml:"format" mapstructure:"format"`
	Output    string         `yaml:"output" mapstructure:"output"`
	Resolver  ResolverConfig `yaml:"resolver" mapstructure:"resolver"`
	Scan      ScanConfig     `yaml:"scan" mapstructure:"scan"`
	Log       LogConfig      `yaml:"log" mapstructure:"log"`
}

// ResolverConfig controls MSBuild import evaluation
type ResolverConfig struct {
	// Properties are global properties. Names are case-insensitive and
	// come back lower-cased from the file.
	Properties           map[string]string `yaml:"properties" mapstructure:"properties"`
	SdkPaths             []string          `yaml:"sdk_paths" mapstructure:"sdk_paths"`
	IgnoreMissingImports bool              `yaml:"ignore_missing_imports" mapstructure:"ignore_missing_imports"`
	UseEnvironment       bool              `yaml:"use_environment" mapstructure:"use_environment"`
	CacheSize            int               `yaml:"cache_size" mapstructure:"cache_size"`
}

// ScanConfig controls project discovery for heron scan
type ScanConfig struct {
	Extensions     []string `yaml:"extensions" mapstructure:"extensions"`
	IgnoreDirs     []string `yaml:"ignore_dirs" mapstructure:"ignore_dirs"`
	IgnorePatterns []string `yaml:"ignore_patterns" mapstructure:"ignore_patterns"`
	IncludeHidden  bool     `yaml:"include_hidden" mapstructure:"include_hidden"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Recursive: true,
		Format:    string(graph.FormatTree),
		Resolver: ResolverConfig{
			Properties: map[string]string{},
			CacheSize:  msbuild.DefaultCacheSize,
		},
		Scan: ScanConfig{
			Extensions: []string{".csproj", ".fsproj", ".vbproj", ".vcxproj", ".proj"},
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// Load reads configuration from path, layering HERON_* environment variables
// over the file and the file over DefaultConfig. A missing file is not an
// error. The file type follows the extension (YAML when there is none).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, DefaultConfig())

	if path == "" {
		path = DefaultFile
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if filepath.Ext(path) == "" {
			v.SetConfigType("yaml")
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if cfg.Resolver.Properties == nil {
		cfg.Resolver.Properties = map[string]string{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it during
// Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("recursive", d.Recursive)
	v.SetDefault("format", d.Format)
	v.SetDefault("output", d.Output)
	v.SetDefault("resolver.properties", d.Resolver.Properties)
	v.SetDefault("resolver.sdk_paths", d.Resolver.SdkPaths)
	v.SetDefault("resolver.ignore_missing_imports", d.Resolver.IgnoreMissingImports)
	v.SetDefault("resolver.use_environment", d.Resolver.UseEnvironment)
	v.SetDefault("resolver.cache_size", d.Resolver.CacheSize)
	v.SetDefault("scan.extensions", d.Scan.Extensions)
	v.SetDefault("scan.ignore_dirs", d.Scan.IgnoreDirs)
	v.SetDefault("scan.ignore_patterns", d.Scan.IgnorePatterns)
	v.SetDefault("scan.include_hidden", d.Scan.IncludeHidden)
	v.SetDefault("log.level", d.Log.Level)
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if _, err := graph.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("invalid format: %w", err)
	}
	if c.Resolver.CacheSize < 0 {
		return fmt.Errorf("invalid resolver.cache_size %d: must not be negative", c.Resolver.CacheSize)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level: %w", err)
	}
	return nil
}

// ResolverOptions converts the resolver section into evaluator options.
func (c *Config) ResolverOptions() msbuild.Options {
	props := make(map[string]string, len(c.Resolver.Properties))
	for k, v := range c.Resolver.Properties {
		props[k] = v
	}
	return msbuild.Options{
		GlobalProperties:     props,
		SdkPaths:             append([]string(nil), c.Resolver.SdkPaths...),
		IgnoreMissingImports: c.Resolver.IgnoreMissingImports,
		UseEnvironment:       c.Resolver.UseEnvironment,
		CacheSize:            c.Resolver.CacheSize,
	}
}

// LogLevel returns the parsed log.level, falling back to Warn.
func (c *Config) LogLevel() logger.Level {
	level, err := logger.ParseLevel(c.Log.Level)
	if err != nil {
		return logger.LevelWarn
	}
	return level
}

// SaveConfig writes configuration to a YAML file
func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}
