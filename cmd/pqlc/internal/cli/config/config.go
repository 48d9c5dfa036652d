// Package config implements pqlc's configuration layer: a koanf tree
// (defaults -> config file -> env vars -> flags) decoded with
// mapstructure, the same precedence order and tool stack as the
// teacher's internal/cli/config.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config holds pqlc's CLI configuration: the compile-target dialect hint
// threaded into the RQ QueryDef, and the dump/format output mode.
type Config struct {
	Target  string `koanf:"target" mapstructure:"target"`
	Output  string `koanf:"output" mapstructure:"output"`
	Verbose bool   `koanf:"verbose" mapstructure:"verbose"`
}

// Default configuration values.
const (
	DefaultOutput = "yaml"
)

var configFileUsed string

// findConfigFile locates a pqlc config file: an explicit path, else
// pqlc.yaml/pqlc.yml in the working directory.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"pqlc.yaml", "pqlc.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// LoadConfig loads configuration from file, environment variables
// (PQLC_ prefix), and flags, in that ascending order of precedence.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"target":  "",
		"output":  DefaultOutput,
		"verbose": false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("pqlc: loading defaults: %w", err)
	}

	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("pqlc: reading config file %s: %w", configFileUsed, err)
		}
	}

	if err := k.Load(env.Provider("PQLC_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "PQLC_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("pqlc: loading env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return f.Name, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("pqlc: loading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{DecoderConfig: &mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	}}); err != nil {
		return nil, fmt.Errorf("pqlc: decoding config: %w", err)
	}

	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file loaded, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

type configKey struct{}
type loggerKey struct{}

// WithContext attaches cfg and a logger derived from its Verbose flag to
// ctx, for commands to retrieve via GetConfig/GetLogger.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	ctx = context.WithValue(ctx, configKey{}, cfg)
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetConfig retrieves the config stored by WithContext, or a default one.
func GetConfig(ctx context.Context) *Config {
	if c, ok := ctx.Value(configKey{}).(*Config); ok {
		return c
	}
	return &Config{Output: DefaultOutput}
}

// GetLogger retrieves the logger stored by WithContext, or a discarding
// fallback.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
