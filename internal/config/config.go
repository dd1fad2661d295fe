// Package config builds the immutable runtime configuration from defaults,
// a .env file, a YAML file, SSSL_* environment variables and CLI flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"golang.org/x/net/publicsuffix"
)

// EnvPrefix is the prefix of every environment variable read.
const EnvPrefix = "SSSL"

// ErrInvalidConfig indicates a configuration value is missing or unusable.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the whole application configuration.
type Config struct {
	Forge  ForgeConfig  `mapstructure:"forge" yaml:"forge"`
	Logger LoggerConfig `mapstructure:"logger" yaml:"logger"`
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	Audit  AuditConfig  `mapstructure:"audit" yaml:"audit"`
}

// ForgeConfig locates the inputs and output of a forging run.
type ForgeConfig struct {
	CACertPath         string `mapstructure:"ca_cert_path" yaml:"ca_cert_path"`
	CACertFormat       string `mapstructure:"ca_cert_format" yaml:"ca_cert_format"`
	CAPrivateKeyPath   string `mapstructure:"ca_private_key_path" yaml:"ca_private_key_path"`
	SitePrivateKeyPath string `mapstructure:"site_private_key_path" yaml:"site_private_key_path"`
	CSRPath            string `mapstructure:"csr_path" yaml:"csr_path"`
	CommonName         string `mapstructure:"common_name" yaml:"common_name"`
	OutputDir          string `mapstructure:"output_dir" yaml:"output_dir"`
}

// LoggerConfig configures the zap logger and its optional rotated file.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Host         string        `mapstructure:"host" yaml:"host"`
	Port         int           `mapstructure:"port" yaml:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
}

// AuditConfig locates the hash-chained audit log. An empty File disables it.
type AuditConfig struct {
	File string `mapstructure:"file" yaml:"file"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	// -- Forge --
	v.SetDefault("forge.ca_cert_path", "")
	v.SetDefault("forge.ca_cert_format", "der")
	v.SetDefault("forge.ca_private_key_path", "")
	v.SetDefault("forge.site_private_key_path", "")
	v.SetDefault("forge.csr_path", "")
	v.SetDefault("forge.common_name", "")
	v.SetDefault("forge.output_dir", "./out")

	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "sssl")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 28)
	v.SetDefault("logger.compress", false)

	// -- Server --
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8443)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.max_body_bytes", 1<<20)

	// -- Audit --
	v.SetDefault("audit.file", "")
}

// NewViper returns a viper instance with defaults registered and SSSL_*
// environment variables bound.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// EnvName returns the environment variable name of a config key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// LoadDotEnv reads a .env file of SSSL_* assignments and installs its values
// as defaults, so the file, environment and flags all override it. A missing
// file is an error only when required is set.
func LoadDotEnv(v *viper.Viper, path string, required bool) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read env file %s: %w", path, err)
	}

	ev := viper.New()
	ev.SetConfigFile(path)
	ev.SetConfigType("env")
	if err := ev.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to parse env file %s: %w", path, err)
	}

	for _, key := range v.AllKeys() {
		name := strings.ToLower(EnvName(key))
		if ev.IsSet(name) {
			v.SetDefault(key, ev.Get(name))
		}
	}
	return nil
}

// ReadConfigFile merges a YAML configuration file into v.
func ReadConfigFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("failed to expand %s: %w", path, err)
	}
	v.SetConfigFile(expanded)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", expanded, err)
	}
	return nil
}

// NewConfigFromViper unmarshals v, expands ~ in paths and validates the
// logger and server sections. Forge inputs are validated separately by the
// commands that need them.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// NewDefaultConfig returns the configuration built from defaults only.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := NewConfigFromViper(v)
	if err != nil {
		panic(fmt.Sprintf("default configuration is invalid: %v", err))
	}
	return cfg
}

func (c *Config) expandPaths() error {
	paths := []*string{
		&c.Forge.CACertPath,
		&c.Forge.CAPrivateKeyPath,
		&c.Forge.SitePrivateKeyPath,
		&c.Forge.CSRPath,
		&c.Forge.OutputDir,
		&c.Logger.LogFile,
		&c.Audit.File,
	}
	for _, p := range paths {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, *p, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the logger and server sections.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error", "dpanic", "panic", "fatal":
	default:
		return fmt.Errorf("%w: logger.level %q is not a zap level", ErrInvalidConfig, c.Logger.Level)
	}
	if c.Logger.Format != "console" && c.Logger.Format != "json" {
		return fmt.Errorf("%w: logger.format must be console or json", ErrInvalidConfig)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port must be between 1 and 65535", ErrInvalidConfig)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("%w: server.max_body_bytes must be a positive integer", ErrInvalidConfig)
	}
	return nil
}

// Validate checks that a forging run has everything it needs.
func (f *ForgeConfig) Validate() error {
	if f.CACertPath == "" {
		return fmt.Errorf("%w: forge.ca_cert_path is required", ErrInvalidConfig)
	}
	switch strings.ToLower(f.CACertFormat) {
	case "", "der", "pem", "auto":
	default:
		return fmt.Errorf("%w: forge.ca_cert_format must be der, pem or auto", ErrInvalidConfig)
	}
	if f.OutputDir == "" {
		return fmt.Errorf("%w: forge.output_dir is required", ErrInvalidConfig)
	}
	return ValidateCommonName(f.CommonName)
}

// ValidateCommonName checks a site certificate common name. A wildcard is
// allowed only as the leftmost of at least three labels and never directly
// above a public suffix.
func ValidateCommonName(cn string) error {
	name := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(cn), "."))
	if name == "" {
		return fmt.Errorf("%w: forge.common_name is required", ErrInvalidConfig)
	}
	if !strings.Contains(name, "*") {
		return nil
	}

	labels := strings.Split(name, ".")
	for i, label := range labels {
		if strings.Contains(label, "*") && (i != 0 || label != "*") {
			return fmt.Errorf("%w: wildcard must be the whole leftmost label: %q", ErrInvalidConfig, cn)
		}
	}
	if len(labels) < 3 {
		return fmt.Errorf("%w: wildcard requires at least 3 labels (*.domain.tld): %q", ErrInvalidConfig, cn)
	}

	base := strings.Join(labels[1:], ".")
	if suffix, icann := publicsuffix.PublicSuffix(base); icann && suffix == base {
		return fmt.Errorf("%w: wildcard on public suffix %q not allowed", ErrInvalidConfig, suffix)
	}
	return nil
}
