package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newServeFlags binds a fresh flag set to the serve globals and parses args
func newServeFlags(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "serve"}
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "")
	cmd.Flags().StringVar(&serveHost, "host", "", "")
	cmd.Flags().IntVarP(&servePort, "port", "p", 0, "")
	cmd.Flags().BoolVar(&serveDebug, "debug", false, "")
	require.NoError(t, cmd.Flags().Parse(args))
	t.Cleanup(func() { configFile = "" })
	return cmd
}

func TestLoadServeConfig_Defaults(t *testing.T) {
	config, err := loadServeConfig(newServeFlags(t))
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", config.Address())
	assert.False(t, config.Debug)
}

func TestLoadServeConfig_FlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, "host: 127.0.0.1\nport: 8081\ndebug: true\n")

	config, err := loadServeConfig(newServeFlags(t, "-c", path, "--port", "9100", "--debug=false"))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", config.Host, "unset flags keep file values")
	assert.Equal(t, 9100, config.Port)
	assert.False(t, config.Debug)
}

func TestLoadServeConfig_InvalidFlag(t *testing.T) {
	_, err := loadServeConfig(newServeFlags(t, "--port", "70000"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration: port: must be no greater than 65535")
}

func TestLoadServeConfig_BadFile(t *testing.T) {
	path := writeConfig(t, "port: [")
	_, err := loadServeConfig(newServeFlags(t, "-c", path))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}
