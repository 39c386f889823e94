package components

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptions(t *testing.T) {
	t.Setenv("POD_NAMESPACE", "ci")
	t.Setenv("HOSTNAME", "jenkins-1-x7k2p")
	t.Setenv("AGENTPOOL_NAMESPACES", "ci, team-*")

	opts, err := parseOptions(flag.NewFlagSet("test", flag.ContinueOnError), []string{
		"--enable-leader-election",
		"--registry-host-overrides", "quay.io/=mirror.example.com/",
	})
	require.NoError(t, err)
	assert.Equal(t, Options{
		MetricsAddr:             ":8080",
		ProbeAddr:               ":8081",
		PoolAddr:                ":8082",
		Namespace:               "ci",
		Hostname:                "jenkins-1-x7k2p",
		EnableLeaderElection:    true,
		Namespaces:              []string{"ci", "team-*"},
		RegistryHostOverrides:   "quay.io/=mirror.example.com/",
		MaxConcurrentReconciles: 1,
	}, opts)
}

func TestParseOptions_EnvInts(t *testing.T) {
	t.Setenv("POD_NAMESPACE", "ci")
	t.Setenv("AGENTPOOL_MAX_CONCURRENT_RECONCILES", "4")
	t.Setenv("AGENTPOOL_LOG_LEVEL", "2")

	opts, err := parseOptions(flag.NewFlagSet("test", flag.ContinueOnError), nil)
	require.NoError(t, err)
	assert.Equal(t, 4, opts.MaxConcurrentReconciles)
	assert.Equal(t, 2, opts.LogLevel)
}

func TestParseOptions_Invalid(t *testing.T) {
	t.Setenv("POD_NAMESPACE", "ci")

	t.Run("env", func(t *testing.T) {
		t.Setenv("AGENTPOOL_LOG_LEVEL", "loud")
		_, err := parseOptions(flag.NewFlagSet("test", flag.ContinueOnError), nil)
		require.EqualError(t, err,
			`unable to parse environment variable 'AGENTPOOL_LOG_LEVEL' as integer: strconv.Atoi: parsing "loud": invalid syntax`)
	})

	t.Run("workers", func(t *testing.T) {
		_, err := parseOptions(flag.NewFlagSet("test", flag.ContinueOnError), []string{
			"--max-concurrent-reconciles", "0",
		})
		require.ErrorIs(t, err, ErrInvalidOption)
	})
}

func Test_splitList(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"a", "b"}, splitList(" a,,b ,"))
	assert.Nil(t, splitList(""))
}
