package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides: SIFT_SCHEMA, SIFT_DB, SIFT_TABLE.
const EnvPrefix = "SIFT"

// configKeys are bound to flags of the same name.
var configKeys = []string{"schema", "db", "table"}

// Config is the layered CLI configuration.
//
// Precedence, highest first: explicitly set flags, SIFT_* environment
// variables, the --config file, flag defaults.
type Config struct {
	Schema string `mapstructure:"schema"` // schema file (.yaml, .yml or .cue)
	DB     string `mapstructure:"db"`     // SQLite database path
	Table  string `mapstructure:"table"`  // table to search; defaults to the schema's table
}

// LoadConfig resolves Config from flags, the environment and an optional
// config file.
func LoadConfig(flags *pflag.FlagSet, path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, key := range configKeys {
		v.SetDefault(key, "")
		if flags == nil {
			continue
		}
		if f := flags.Lookup(key); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, fmt.Errorf("bind flag %s: %w", key, err)
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}
