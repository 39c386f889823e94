package components

import (
	"github.com/go-logr/logr"
	ctrl "sigs.k8s.io/controller-runtime"

	"agentpool.run/internal/controllers/agentsources"
	"agentpool.run/internal/extract"
	"agentpool.run/internal/ownership"
)

// Type alias for dependency injector to differentiate
// the *GenericSourceController of each source kind.
type (
	ConfigMapController   struct{ controller }
	ImageStreamController struct{ controller }
)

func ProvideConfigMapController(
	mgr ctrl.Manager, log logr.Logger,
	r *ownership.Reconciler, e *extract.Extractor,
	namespaces *agentsources.NamespaceFilter,
	opts Options,
) ConfigMapController {
	return ConfigMapController{
		agentsources.NewConfigMapController(
			mgr.GetClient(),
			log.WithName("controllers").WithName("ConfigMap"),
			r, e,
			agentsources.WithNamespaceFilter(namespaces),
			agentsources.WithMaxConcurrentReconciles(opts.MaxConcurrentReconciles),
		),
	}
}

func ProvideImageStreamController(
	mgr ctrl.Manager, log logr.Logger,
	r *ownership.Reconciler, e *extract.Extractor,
	namespaces *agentsources.NamespaceFilter,
	opts Options,
) ImageStreamController {
	return ImageStreamController{
		agentsources.NewImageStreamController(
			mgr.GetClient(),
			log.WithName("controllers").WithName("ImageStream"),
			r, e,
			agentsources.WithNamespaceFilter(namespaces),
			agentsources.WithMaxConcurrentReconciles(opts.MaxConcurrentReconciles),
		),
	}
}
