// Package agentsources watches ImageStreams and ConfigMaps and feeds the worker
// templates they declare into the ownership reconciler.
package agentsources

import (
	"context"

	"github.com/go-logr/logr"
	imagev1 "github.com/openshift/api/image/v1"
	corev1 "k8s.io/api/core/v1"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/builder"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller"

	"agentpool.run/internal/extract"
	"agentpool.run/internal/ownership"
	"agentpool.run/internal/workertemplate"
)

// Generic controller for both ImageStream and ConfigMap sources.
type GenericSourceController struct {
	kind      ownership.Kind
	newObject func() client.Object
	extract   extractFunc

	client     client.Reader
	log        logr.Logger
	reconciler batchReconciler
	namespaces *NamespaceFilter

	maxConcurrentReconciles int
}

// Returns the candidates of obj and false when obj declares no templates at all.
type extractFunc func(ctx context.Context, obj client.Object) (extract.Result, bool)

type batchReconciler interface {
	ReconcileBatch(
		ctx context.Context, kind ownership.Kind, instanceID string,
		candidates []workertemplate.WorkerTemplate, opts ownership.BatchOptions,
	) ownership.BatchResult
	Purge(ctx context.Context, kind ownership.Kind, instanceID string) ownership.PurgeResult
}

type Option func(c *GenericSourceController)

// WithNamespaceFilter restricts the controller to matching namespaces.
func WithNamespaceFilter(f *NamespaceFilter) Option {
	return func(c *GenericSourceController) {
		c.namespaces = f
	}
}

// WithMaxConcurrentReconciles sets the number of parallel workers.
func WithMaxConcurrentReconciles(n int) Option {
	return func(c *GenericSourceController) {
		c.maxConcurrentReconciles = n
	}
}

func NewConfigMapController(
	c client.Reader, log logr.Logger,
	r batchReconciler, e *extract.Extractor, opts ...Option,
) *GenericSourceController {
	return newGenericSourceController(
		ownership.KindConfigMap,
		func() client.Object { return &corev1.ConfigMap{} },
		func(ctx context.Context, obj client.Object) (extract.Result, bool) {
			cm := obj.(*corev1.ConfigMap)
			if !extract.HasAgentMarker(cm.Labels) {
				return extract.Result{}, false
			}
			return e.FromConfigMap(ctx, cm), true
		},
		c, log, r, opts...)
}

func NewImageStreamController(
	c client.Reader, log logr.Logger,
	r batchReconciler, e *extract.Extractor, opts ...Option,
) *GenericSourceController {
	return newGenericSourceController(
		ownership.KindImageStream,
		func() client.Object { return &imagev1.ImageStream{} },
		func(ctx context.Context, obj client.Object) (extract.Result, bool) {
			// Tags may carry the marker without the stream, so every stream is inspected.
			return e.FromImageStream(ctx, obj.(*imagev1.ImageStream)), true
		},
		c, log, r, opts...)
}

func newGenericSourceController(
	kind ownership.Kind,
	newObject func() client.Object,
	extractFn extractFunc,
	c client.Reader, log logr.Logger,
	r batchReconciler, opts ...Option,
) *GenericSourceController {
	sc := &GenericSourceController{
		kind:      kind,
		newObject: newObject,
		extract:   extractFn,

		client:     c,
		log:        log,
		reconciler: r,

		maxConcurrentReconciles: 1,
	}
	for _, opt := range opts {
		opt(sc)
	}
	return sc
}

func (c *GenericSourceController) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		Named(string(c.kind)).
		For(c.newObject(), builder.WithPredicates(c.namespaces.Predicate())).
		WithOptions(controller.Options{
			MaxConcurrentReconciles: c.maxConcurrentReconciles,
		}).
		Complete(c)
}

func (c *GenericSourceController) Reconcile(
	ctx context.Context, req ctrl.Request,
) (res ctrl.Result, err error) {
	log := c.log.WithValues(string(c.kind), req.String())
	defer log.V(1).Info("reconciled")
	ctx = logr.NewContext(ctx, log)

	// Deleted objects are not readable anymore, so instances are keyed by namespace/name.
	instanceID := req.NamespacedName.String()

	obj := c.newObject()
	if err := c.client.Get(ctx, req.NamespacedName, obj); err != nil {
		if client.IgnoreNotFound(err) != nil {
			return res, err
		}
		c.purge(ctx, instanceID)
		return res, nil
	}

	if !obj.GetDeletionTimestamp().IsZero() {
		c.purge(ctx, instanceID)
		return res, nil
	}

	result, declared := c.extract(ctx, obj)
	if !declared {
		c.purge(ctx, instanceID)
		return res, nil
	}

	batch := c.reconciler.ReconcileBatch(ctx, c.kind, instanceID, result.Templates, ownership.BatchOptions{})
	if len(batch.Rejected) > 0 || len(batch.Removed) > 0 || len(result.Skipped) > 0 {
		log.Info("reconciled worker templates with findings",
			"accepted", len(batch.Accepted),
			"rejected", len(batch.Rejected),
			"removed", batch.Removed,
			"skipped", len(result.Skipped))
	}
	return res, nil
}

func (c *GenericSourceController) purge(ctx context.Context, instanceID string) {
	res := c.reconciler.Purge(ctx, c.kind, instanceID)
	if len(res.Removed) > 0 || len(res.Skipped) > 0 {
		logr.FromContextOrDiscard(ctx).Info("purged worker templates",
			"removed", res.Removed, "skipped", res.Skipped)
	}
}
