package components

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"agentpool.run/internal/constants"
)

// Flags.
const (
	metricsAddrFlagDescription    = "The address the metric endpoint binds to."
	pprofAddrFlagDescription      = "The address the pprof web endpoint binds to."
	probeAddrFlagDescription      = "The address the probe endpoint binds to."
	poolAddrFlagDescription       = "The address the worker template pool is served on. Empty disables the endpoint."
	namespaceFlagDescription      = "The namespace the manager is deployed into."
	hostnameFlagDescription       = "Name of the pod the manager runs in, its service account is inherited by all agents."
	leaderElectionFlagDescription = "Enable leader election for controller manager. " +
		"Enabling this will ensure there is only one active controller manager."
	namespacesFlagDescription = "Comma separated list of namespace globs to watch for agent declarations. " +
		"Empty watches all namespaces."
	registryHostOverridesFlagDescription = "List of image prefix overrides applied to every worker template image. " +
		"e.g. quay.io/=mirror.example.com/,<original-prefix>=<new-prefix>"
	maxConcurrentReconcilesFlagDescription = "Number of parallel workers per source kind."
	logLevelFlagDescription                = "Log verbosity, higher values log more."
	versionFlagDescription                 = "print version information and exit."
)

type Options struct {
	MetricsAddr             string
	PPROFAddr               string
	ProbeAddr               string
	PoolAddr                string
	Namespace               string
	Hostname                string
	EnableLeaderElection    bool
	Namespaces              []string
	RegistryHostOverrides   string
	MaxConcurrentReconciles int
	LogLevel                int

	// sub commands
	PrintVersion bool
}

func ProvideOptions() (Options, error) {
	return parseOptions(flag.CommandLine, os.Args[1:])
}

func parseOptions(fs *flag.FlagSet, args []string) (opts Options, err error) {
	maxConcurrentReconciles, err := envToInt("AGENTPOOL_MAX_CONCURRENT_RECONCILES", 1)
	if err != nil {
		return Options{}, err
	}
	logLevel, err := envToInt("AGENTPOOL_LOG_LEVEL", 0)
	if err != nil {
		return Options{}, err
	}

	var namespaces string
	fs.StringVar(
		&opts.MetricsAddr, "metrics-addr",
		":8080",
		metricsAddrFlagDescription)
	fs.StringVar(
		&opts.PPROFAddr, "pprof-addr",
		"",
		pprofAddrFlagDescription)
	fs.StringVar(
		&opts.ProbeAddr, "health-probe-bind-address", ":8081", probeAddrFlagDescription)
	fs.StringVar(
		&opts.PoolAddr, "pool-addr",
		envOrDefault("AGENTPOOL_POOL_ADDR", ":8082"),
		poolAddrFlagDescription)
	fs.StringVar(
		&opts.Namespace, "namespace",
		os.Getenv(constants.NamespaceEnvironmentVariable),
		namespaceFlagDescription)
	fs.StringVar(
		&opts.Hostname, "hostname",
		os.Getenv(constants.HostnameEnvironmentVariable),
		hostnameFlagDescription)
	fs.BoolVar(
		&opts.EnableLeaderElection, "enable-leader-election",
		false,
		leaderElectionFlagDescription)
	fs.StringVar(
		&namespaces, "namespaces",
		os.Getenv("AGENTPOOL_NAMESPACES"),
		namespacesFlagDescription)
	fs.StringVar(
		&opts.RegistryHostOverrides, "registry-host-overrides",
		os.Getenv("AGENTPOOL_REGISTRY_HOST_OVERRIDES"),
		registryHostOverridesFlagDescription)
	fs.IntVar(
		&opts.MaxConcurrentReconciles, "max-concurrent-reconciles",
		maxConcurrentReconciles,
		maxConcurrentReconcilesFlagDescription)
	fs.IntVar(
		&opts.LogLevel, "log-level",
		logLevel,
		logLevelFlagDescription)
	fs.BoolVar(
		&opts.PrintVersion, "version", false,
		versionFlagDescription)
	if err := fs.Parse(args); err != nil {
		return Options{}, err
	}

	opts.Namespaces = splitList(namespaces)
	if len(opts.Namespace) == 0 {
		opts.Namespace = serviceAccountNamespace()
	}
	if opts.MaxConcurrentReconciles < 1 {
		return Options{}, fmt.Errorf("%w: --max-concurrent-reconciles must be at least 1", ErrInvalidOption)
	}
	return opts, nil
}

// Parses an environment variable string value to integer value.
// Returns def in case the environment variable is unset.
func envToInt(env string, def int) (int, error) {
	envStrValue := os.Getenv(env)

	if envStrValue == "" {
		return def, nil
	}

	parsedIntValue, err := strconv.Atoi(envStrValue)
	if err != nil {
		return 0, fmt.Errorf("unable to parse environment variable '%s' as integer: %w", env, err)
	}

	return parsedIntValue, nil
}

func envOrDefault(env, def string) string {
	if v, ok := os.LookupEnv(env); ok {
		return v
	}
	return def
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if len(item) > 0 {
			items = append(items, item)
		}
	}
	return items
}

// Namespace of the service account mounted into the pod, empty outside of a cluster.
func serviceAccountNamespace() string {
	b, err := os.ReadFile(constants.ServiceAccountNamespaceFile)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
