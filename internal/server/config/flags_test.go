package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		name        string
		args        []string
		expected    Config
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd",
				"-a", "127.0.0.1:9090", "-d", "db", "-f", "/blobs", "-s", "/sessions", "-t", "1h",
				"-blob", "s3", "-u", "user", "-p", "password", "-b", "bucket", "-g", "us-west-1",
				"-e", "http://endpoint", "-q", "memory", "-w", "8", "-r", "0.5", "-m", "2048",
			},
			expected: Config{
				HTTPAddress:  "127.0.0.1:9090",
				DatabaseDSN:  "db",
				BlobRoot:     "/blobs",
				SessionDir:   "/sessions",
				SessionTTL:   time.Hour,
				BlobBackend:  "s3",
				S3User:       "user",
				S3Password:   "password",
				S3Bucket:     "bucket",
				S3Region:     "us-west-1",
				S3Endpoint:   "http://endpoint",
				QueueBackend: "memory",
				Workers:      8,
				ConnectRate:  0.5,
				MaxBodyBytes: 2048,
			},
		},
		{
			name:     "foreign flags are ignored",
			args:     []string{"cmd", "-c", "cfg.json", "-v", "-a=:1"},
			expected: Config{HTTPAddress: ":1"},
		},
		{
			name:        "bad duration panics",
			args:        []string{"cmd", "-t", "forever"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			cfg := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(cfg) })
				return
			}
			require.NotPanics(t, func() { parseFlags(cfg) })
			assert.Equal(t, tt.expected, *cfg)
		})
	}
}
