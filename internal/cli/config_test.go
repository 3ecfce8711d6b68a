package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConfigFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("schema", "", "")
	flags.String("db", "", "")
	flags.String("table", "", "")
	require.NoError(t, flags.Parse(args))
	return flags
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sift.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		env    map[string]string
		config string
		want   Config
	}{
		{
			name: "empty",
			want: Config{},
		},
		{
			name: "flags",
			args: []string{"--schema", "shop.yaml", "--db", "shop.db", "--table", "items"},
			want: Config{Schema: "shop.yaml", DB: "shop.db", Table: "items"},
		},
		{
			name: "environment",
			env:  map[string]string{"SIFT_SCHEMA": "env.yaml", "SIFT_DB": "env.db"},
			want: Config{Schema: "env.yaml", DB: "env.db"},
		},
		{
			name:   "config file",
			config: "schema: file.yaml\ntable: things\n",
			want:   Config{Schema: "file.yaml", Table: "things"},
		},
		{
			name:   "flag beats environment and file",
			args:   []string{"--schema", "flag.yaml"},
			env:    map[string]string{"SIFT_SCHEMA": "env.yaml"},
			config: "schema: file.yaml\n",
			want:   Config{Schema: "flag.yaml"},
		},
		{
			name:   "environment beats file",
			env:    map[string]string{"SIFT_DB": "env.db"},
			config: "db: file.db\ntable: things\n",
			want:   Config{DB: "env.db", Table: "things"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"SIFT_SCHEMA", "SIFT_DB", "SIFT_TABLE"} {
				t.Setenv(key, tt.env[key])
				if tt.env[key] == "" {
					os.Unsetenv(key)
				}
			}
			path := ""
			if tt.config != "" {
				path = writeConfigFile(t, tt.config)
			}

			cfg, err := LoadConfig(newConfigFlags(t, tt.args...), path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg)
		})
	}
}

func TestLoadConfig_NilFlags(t *testing.T) {
	t.Setenv("SIFT_TABLE", "items")

	cfg, err := LoadConfig(nil, "")
	require.NoError(t, err)
	assert.Equal(t, "items", cfg.Table)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(nil, filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoadConfig_ThroughRoot(t *testing.T) {
	schemaPath := writeTestSchema(t)
	configPath := writeConfigFile(t, "schema: "+schemaPath+"\n")

	stdout, _, err := execute(t, "--config", configPath, "compile", "price < 2")
	require.NoError(t, err)
	assert.Equal(t, "lt(price, 2)\n", stdout)
}
