package components

import (
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	imagev1 "github.com/openshift/api/image/v1"
	"go.uber.org/dig"
	"go.uber.org/zap/zapcore"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/selection"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/cache"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/apiutil"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	ctrlmetrics "sigs.k8s.io/controller-runtime/pkg/metrics"
	"sigs.k8s.io/controller-runtime/pkg/metrics/server"

	"agentpool.run/internal/constants"
	"agentpool.run/internal/controllers/agentsources"
	"agentpool.run/internal/extract"
	"agentpool.run/internal/imageref"
	"agentpool.run/internal/metrics"
	"agentpool.run/internal/ownership"
	"agentpool.run/internal/pool"
	"agentpool.run/internal/workertemplate"
)

var ErrInvalidOption = errors.New("invalid option")

// Returns a new pre-configured DI container.
func NewComponents() (*dig.Container, error) {
	container := dig.New()
	providers := []any{
		ProvideScheme, ProvideRestConfig, ProvideManager,
		ProvideMetricsRecorder, ProvideUncachedClient,
		ProvideOptions, ProvideLogger,
		ProvidePool, ProvideReconciler, ProvideExtractor,
		ProvideNamespaceFilter,

		// -----------
		// Controllers
		// -----------
		ProvideConfigMapController, ProvideImageStreamController,
	}
	for _, p := range providers {
		if err := container.Provide(p); err != nil {
			return nil, err
		}
	}
	return container, nil
}

// ProvideLogger sets up the global zap logger at the configured verbosity.
func ProvideLogger(opts Options) logr.Logger {
	ctrl.SetLogger(zap.New(
		zap.UseDevMode(false),
		zap.Level(zapcore.Level(-opts.LogLevel)),
	))
	return ctrl.Log
}

func ProvideScheme() (*runtime.Scheme, error) {
	schemeBuilder := runtime.SchemeBuilder{
		scheme.AddToScheme,
		imagev1.Install,
	}
	scheme := runtime.NewScheme()
	if err := schemeBuilder.AddToScheme(scheme); err != nil {
		return nil, err
	}
	return scheme, nil
}

func ProvideRestConfig() (*rest.Config, error) {
	return ctrl.GetConfig()
}

func ProvideManager(
	log logr.Logger,
	scheme *runtime.Scheme,
	restConfig *rest.Config,
	opts Options,
) (ctrl.Manager, error) {
	agentMarker, err := labels.NewRequirement(
		constants.AgentRoleLabel, selection.In, constants.AgentMarkerValues())
	if err != nil {
		return nil, err
	}

	mgr, err := ctrl.NewManager(restConfig, ctrl.Options{
		Scheme:                     scheme,
		Metrics:                    server.Options{BindAddress: opts.MetricsAddr},
		HealthProbeBindAddress:     opts.ProbeAddr,
		LeaderElectionResourceLock: "leases",
		LeaderElection:             opts.EnableLeaderElection,
		LeaderElectionNamespace:    opts.Namespace,
		LeaderElectionID:           "5kq2d8tc3n.agentpool-lock",
		MapperProvider:             apiutil.NewDynamicRESTMapper,
		Cache: cache.Options{
			ByObject: map[client.Object]cache.ByObject{
				// Only marked ConfigMaps declare agents.
				// Removing the marker looks like a deletion to the ConfigMap controller.
				&corev1.ConfigMap{}: {
					Label: labels.NewSelector().Add(*agentMarker),
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	// Health and Ready checks
	if err := mgr.AddHealthzCheck("health", healthz.Ping); err != nil {
		return nil, fmt.Errorf("unable to set up health check: %w", err)
	}
	if err := mgr.AddReadyzCheck("check", healthz.Ping); err != nil {
		return nil, fmt.Errorf("unable to set up ready check: %w", err)
	}

	// PPROF
	if err := registerPPROF(mgr, log, opts.PPROFAddr); err != nil {
		return nil, err
	}
	return mgr, nil
}

func ProvideMetricsRecorder() *metrics.Recorder {
	recorder := metrics.NewRecorder()
	recorder.Register()
	return recorder
}

// ImageStreamTags can't be watched, so they are read without the cache.
type UncachedClient struct{ client.Client }

func ProvideUncachedClient(
	restConfig *rest.Config, scheme *runtime.Scheme,
) (UncachedClient, error) {
	uncachedClient, err := client.New(
		restConfig,
		client.Options{
			Scheme: scheme,
		})
	if err != nil {
		return UncachedClient{},
			fmt.Errorf("unable to set up uncached client: %w", err)
	}
	return UncachedClient{uncachedClient}, nil
}

func ProvidePool(log logr.Logger) *pool.Pool {
	return pool.New(log.WithName("pool"))
}

func ProvideReconciler(
	log logr.Logger, p *pool.Pool, recorder *metrics.Recorder,
) (*ownership.Reconciler, error) {
	r := ownership.NewReconciler(
		log.WithName("ownership"), p, ownership.WithRecorder(recorder))
	if err := ctrlmetrics.Registry.Register(metrics.NewPoolCollector(p, r)); err != nil {
		return nil, fmt.Errorf("registering pool collector: %w", err)
	}
	return r, nil
}

func ProvideExtractor(
	log logr.Logger,
	uncachedClient UncachedClient,
	recorder *metrics.Recorder,
	opts Options,
) *extract.Extractor {
	return extract.NewExtractor(
		uncachedClient,
		workertemplate.NewBuilder(uncachedClient, opts.Namespace, opts.Hostname),
		imageref.NewResolver(uncachedClient, opts.Namespace, recorder),
		extract.WithImagePrefixOverrides(
			prepareImagePrefixOverrides(log, opts.RegistryHostOverrides)),
		extract.WithSkipRecorder(recorder),
	)
}

func ProvideNamespaceFilter(opts Options) (*agentsources.NamespaceFilter, error) {
	return agentsources.NewNamespaceFilter(opts.Namespaces)
}
