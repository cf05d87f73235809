package serve

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/sightline/cmd/application"
	"github.com/agentstation/sightline/pkg/constants"
	"github.com/agentstation/sightline/pkg/errors"
)

func TestSplitListen(t *testing.T) {
	host, port, err := SplitListen(":8080")
	require.NoError(t, err)
	assert.Empty(t, host)
	assert.Equal(t, 8080, port)

	host, port, err = SplitListen("127.0.0.1:9000")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", host)
	assert.Equal(t, 9000, port)

	for _, bad := range []string{"8080", "localhost:http", "localhost:0", "localhost:70000"} {
		_, _, err := SplitListen(bad)
		assert.True(t, errors.IsValidationError(err), bad)
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"1048576", 1 << 20},
		{"64MiB", 64 << 20},
		{"512KiB", 512 << 10},
		{"1GiB", 1 << 30},
		{"10B", 10},
	}
	for _, tt := range tests {
		got, err := ParseSize(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "MiB", "-1", "0", "ten"} {
		_, err := ParseSize(bad)
		assert.True(t, errors.IsValidationError(err), bad)
	}
}

func TestParseConfig(t *testing.T) {
	cmd, opts := newCommand(&application.Mock{}, "0.0.0.0:9090")
	require.NoError(t, cmd.ParseFlags([]string{
		"--cors-origins", "https://a.example,https://b.example",
		"--max-upload", "1MiB",
		"--session-ttl", "30m",
	}))

	cfg, err := opts.config()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, constants.DefaultPathPrefix, cfg.PathPrefix)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.CORSEnabled)
	assert.Equal(t, int64(1<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, constants.DefaultReadTimeout, cfg.ReadTimeout)
	assert.True(t, cfg.MetricsEnabled)
}

func TestParseConfig_Defaults(t *testing.T) {
	_, opts := newCommand(&application.Mock{}, "not-an-address")
	cfg, err := opts.config()
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, int64(constants.MaxUploadBytes), cfg.MaxUploadBytes)
	assert.Equal(t, constants.SessionTTL, cfg.SessionTTL)
	assert.False(t, cfg.CORSEnabled)
}

func TestParseConfig_Environment(t *testing.T) {
	t.Setenv("HTTP_HOST", "10.0.0.1")
	t.Setenv("HTTP_PORT", "7000")

	_, opts := newCommand(&application.Mock{}, ":8080")
	cfg, err := opts.config()
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", cfg.Host)
	assert.Equal(t, 7000, cfg.Port)

	t.Setenv("HTTP_PORT", "nope")
	_, err = opts.config()
	assert.True(t, errors.IsValidationError(err))
}

func TestParseConfig_Invalid(t *testing.T) {
	cmd, opts := newCommand(&application.Mock{}, ":8080")
	require.NoError(t, cmd.ParseFlags([]string{"--session-ttl", "0s"}))
	_, err := opts.config()
	assert.True(t, errors.IsValidationError(err))

	cmd, opts = newCommand(&application.Mock{}, ":8080")
	require.NoError(t, cmd.ParseFlags([]string{"--max-upload", "lots"}))
	_, err = opts.config()
	assert.True(t, errors.IsValidationError(err))
}

func TestRunServer_StopsOnCancel(t *testing.T) {
	_, opts := newCommand(&application.Mock{}, "127.0.0.1:18093")
	cfg, err := opts.config()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	var out syncBuffer
	go func() { done <- runServer(ctx, &application.Mock{}, cfg, &out) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
		assert.Contains(t, out.String(), "stopped gracefully")
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
