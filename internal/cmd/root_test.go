package cmd

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renato0307/grove/internal/config"
	"github.com/renato0307/grove/internal/logging"
)

func intPtr(i int) *int { return &i }

func TestAfterApply_SettingsPrecedence(t *testing.T) {
	t.Setenv("GROVE_HOME", t.TempDir())

	tests := []struct {
		name       string
		cli        CLI
		env        map[string]string
		settings   *config.Settings
		wantMax    int
		wantServer string
	}{
		{
			name:       "defaults",
			cli:        CLI{MaxLogFiles: logging.DefaultMaxLogFiles},
			settings:   &config.Settings{},
			wantMax:    logging.DefaultMaxLogFiles,
			wantServer: config.DefaultServerAddress,
		},
		{
			name:       "settings apply when flags are at their defaults",
			cli:        CLI{MaxLogFiles: logging.DefaultMaxLogFiles},
			settings:   &config.Settings{MaxLogFiles: intPtr(5), ServerAddress: "127.0.0.1:9000"},
			wantMax:    5,
			wantServer: "127.0.0.1:9000",
		},
		{
			name:       "flags win over settings",
			cli:        CLI{MaxLogFiles: 7, Server: "10.0.0.1:7420"},
			settings:   &config.Settings{MaxLogFiles: intPtr(5), ServerAddress: "127.0.0.1:9000"},
			wantMax:    7,
			wantServer: "10.0.0.1:7420",
		},
		{
			name:       "env var wins over settings",
			cli:        CLI{MaxLogFiles: logging.DefaultMaxLogFiles},
			env:        map[string]string{logging.EnvMaxLogFiles: "1000"},
			settings:   &config.Settings{MaxLogFiles: intPtr(5)},
			wantMax:    logging.DefaultMaxLogFiles,
			wantServer: config.DefaultServerAddress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			// AfterApply exports these for child processes
			t.Cleanup(func() {
				os.Unsetenv(logging.EnvMaxLogFiles)
				os.Unsetenv(logging.EnvDebug)
				os.Unsetenv(logging.EnvDebugFile)
			})

			cli := tt.cli
			cli.SetSettings(tt.settings)
			require.NoError(t, cli.AfterApply())

			assert.Equal(t, tt.wantMax, cli.MaxLogFiles)
			assert.Equal(t, tt.wantServer, cli.Server)
			require.NotNil(t, cli.Container)
			assert.NoError(t, cli.Close())
		})
	}
}
