package middleware

import (
	"bytes"
	"context"
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"github.com/yourorg/rpckeyring/internal/config"
)

func newCLIContext(t *testing.T, args ...string) *cli.Context {
	t.Helper()
	app := &cli.App{Writer: &bytes.Buffer{}, ErrWriter: &bytes.Buffer{}}

	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.Bool("verbose", false, "")
	set.String("endpoint", "", "")
	require.NoError(t, set.Parse(args))

	c := cli.NewContext(app, set, nil)
	c.Context = context.Background()
	return c
}

func TestEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		current  *config.Context
		expected string
	}{
		{
			name:     "Flag wins",
			args:     []string{"--endpoint", "http://flag:8545"},
			current:  &config.Context{Endpoint: "http://context:8545"},
			expected: "http://flag:8545",
		},
		{
			name:     "Current context",
			current:  &config.Context{Endpoint: "http://context:8545"},
			expected: "http://context:8545",
		},
		{
			name:     "Context without endpoint",
			current:  &config.Context{},
			expected: config.DefaultEndpoint,
		},
		{
			name:     "No context loaded",
			expected: config.DefaultEndpoint,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCLIContext(t, tt.args...)
			if tt.current != nil {
				c.Context = context.WithValue(c.Context, config.ContextKey, tt.current)
			}
			assert.Equal(t, tt.expected, Endpoint(c))
		})
	}
}

func TestConfigBeforeFunc(t *testing.T) {
	t.Run("No config file", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		c := newCLIContext(t)

		require.NoError(t, ChainBeforeFuncs(LoggerBeforeFunc, ConfigBeforeFunc)(c))

		cfg, err := GetConfig(c)
		require.NoError(t, err)
		assert.Empty(t, cfg.Contexts)

		current, err := GetCurrentContext(c)
		require.NoError(t, err)
		assert.Equal(t, config.DefaultEndpoint, current.KeyringEndpoint())
	})

	t.Run("Current context", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		require.NoError(t, config.SaveConfig(&config.Config{
			CurrentContext: "dev",
			Contexts: map[string]*config.Context{
				"dev": {Endpoint: "ws://127.0.0.1:8546"},
			},
		}))
		c := newCLIContext(t)

		require.NoError(t, ChainBeforeFuncs(LoggerBeforeFunc, ConfigBeforeFunc)(c))
		assert.Equal(t, "ws://127.0.0.1:8546", Endpoint(c))
	})
}

func TestGetters_NotInitialized(t *testing.T) {
	c := newCLIContext(t)

	_, err := GetConfig(c)
	assert.Error(t, err)
	_, err = GetCurrentContext(c)
	assert.Error(t, err)
	assert.NotNil(t, GetLogger(c))
}

func TestNewKeyring(t *testing.T) {
	c := newCLIContext(t, "--endpoint", "http://127.0.0.1:8545")

	kr, err := NewKeyring(c)
	require.NoError(t, err)
	defer kr.Close()
	assert.Equal(t, "http://127.0.0.1:8545", kr.Serialize().Endpoint)

	c = newCLIContext(t, "--endpoint", "ftp://127.0.0.1")
	_, err = NewKeyring(c)
	assert.ErrorContains(t, err, "failed to open keyring")
}
