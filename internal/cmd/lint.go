package cmd

import (
	"context"
	"fmt"

	"github.com/disiqueira/gotree"
	"github.com/go-logr/logr"
	"github.com/google/go-containerregistry/pkg/name"
	imagev1 "github.com/openshift/api/image/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"agentpool.run/internal/extract"
	"agentpool.run/internal/imageprefix"
	"agentpool.run/internal/imageref"
	"agentpool.run/internal/ownership"
	"agentpool.run/internal/pool"
	"agentpool.run/internal/workertemplate"
)

func NewLint(scheme *runtime.Scheme, opts ...LintOption) *Lint {
	var cfg LintConfig

	cfg.Option(opts...)
	cfg.Default()

	return &Lint{
		cfg:    cfg,
		scheme: scheme,
	}
}

// Lint checks worker template declarations in manifest files without cluster access.
type Lint struct {
	cfg    LintConfig
	scheme *runtime.Scheme
}

type LintConfig struct {
	Log       logr.Logger
	Namespace string
	Overrides []imageprefix.Override
}

func (c *LintConfig) Option(opts ...LintOption) {
	for _, opt := range opts {
		opt.ConfigureLint(c)
	}
}

func (c *LintConfig) Default() {
	if c.Log.GetSink() == nil {
		c.Log = logr.Discard()
	}
	if len(c.Namespace) == 0 {
		c.Namespace = "default"
	}
}

type LintOption interface {
	ConfigureLint(*LintConfig)
}

type LintManifestsConfig struct {
	Paths []string
}

func (c *LintManifestsConfig) Option(opts ...LintManifestsOption) {
	for _, opt := range opts {
		opt.ConfigureLintManifests(c)
	}
}

func (c *LintManifestsConfig) Validate() error {
	if len(c.Paths) == 0 {
		return fmt.Errorf("%w: at least one path must be provided", ErrInvalidArgs)
	}
	return nil
}

type LintManifestsOption interface {
	ConfigureLintManifests(*LintManifestsConfig)
}

// LintReport is the outcome of linting a set of manifests.
type LintReport struct {
	Sources  []SourceReport
	Findings int
}

// SourceReport lists what one ImageStream or ConfigMap contributes.
type SourceReport struct {
	Kind       ownership.Kind
	Key        client.ObjectKey
	Accepted   []workertemplate.WorkerTemplate
	Rejected   []ownership.Rejection
	Skipped    []extract.SkippedEntry
	BadImages  map[string]error
	Undeclared bool
}

// LintManifests loads the manifests at the given paths and reconciles every source
// against a tracking-only reconciler, so conflicts between sources show up
// the same way they would in a cluster where sources are seen in file order.
func (l *Lint) LintManifests(ctx context.Context, opts ...LintManifestsOption) (*LintReport, error) {
	var cfg LintManifestsConfig

	cfg.Option(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating options: %w", err)
	}

	reader := NewManifestReader(l.scheme)
	l.cfg.Log.Info("loading manifests", "paths", cfg.Paths)
	if err := reader.LoadPaths(cfg.Paths, l.cfg.Namespace); err != nil {
		return nil, err
	}

	ctx = logr.NewContext(ctx, l.cfg.Log)
	extractor := extract.NewExtractor(
		reader,
		workertemplate.NewBuilder(nil, l.cfg.Namespace, ""),
		imageref.NewResolver(reader, l.cfg.Namespace, nil),
		extract.WithImagePrefixOverrides(l.cfg.Overrides),
	)
	reconciler := ownership.NewReconciler(l.cfg.Log, pool.New(l.cfg.Log))

	report := &LintReport{}
	streams, err := reader.Objects(func() client.Object { return &imagev1.ImageStream{} })
	if err != nil {
		return nil, err
	}
	for _, obj := range streams {
		res := extractor.FromImageStream(ctx, obj.(*imagev1.ImageStream))
		report.add(ctx, reconciler, ownership.KindImageStream, obj, res)
	}

	configMaps, err := reader.Objects(func() client.Object { return &corev1.ConfigMap{} })
	if err != nil {
		return nil, err
	}
	for _, obj := range configMaps {
		cm := obj.(*corev1.ConfigMap)
		if !extract.HasAgentMarker(cm.Labels) {
			continue
		}
		res := extractor.FromConfigMap(ctx, cm)
		report.add(ctx, reconciler, ownership.KindConfigMap, obj, res)
	}

	return report, nil
}

func (r *LintReport) add(
	ctx context.Context, reconciler *ownership.Reconciler,
	kind ownership.Kind, obj client.Object, res extract.Result,
) {
	key := client.ObjectKeyFromObject(obj)
	batch := reconciler.ReconcileBatch(ctx, kind, key.String(), res.Templates,
		ownership.BatchOptions{TrackOnly: true})

	src := SourceReport{
		Kind:       kind,
		Key:        key,
		Accepted:   batch.Accepted,
		Rejected:   batch.Rejected,
		Skipped:    res.Skipped,
		BadImages:  map[string]error{},
		Undeclared: len(res.Templates) == 0 && len(res.Skipped) == 0,
	}
	for _, t := range batch.Accepted {
		if _, err := name.ParseReference(t.Image); err != nil {
			src.BadImages[t.Name] = err
		}
	}

	// ImageStreams without any marked tag are not agent sources and stay out of the report.
	if kind == ownership.KindImageStream && src.Undeclared {
		return
	}
	r.Findings += len(src.Rejected) + len(src.Skipped) + len(src.BadImages)
	r.Sources = append(r.Sources, src)
}

// Tree renders the report.
func (r *LintReport) Tree() string {
	tree := gotree.New(fmt.Sprintf("%d sources, %d findings", len(r.Sources), r.Findings))

	for _, src := range r.Sources {
		treeSrc := tree.Add(fmt.Sprintf("%s %s", src.Kind, src.Key))

		if src.Undeclared {
			treeSrc.Add("(no worker templates)")
		}
		for _, t := range src.Accepted {
			line := fmt.Sprintf("%s %s label=%s", t.Name, t.Image, t.Label)
			if err, bad := src.BadImages[t.Name]; bad {
				line += fmt.Sprintf(" (INVALID IMAGE: %v)", err)
			}
			treeSrc.Add(line)
		}
		for _, rej := range src.Rejected {
			if len(rej.HeldBy) > 0 {
				treeSrc.Add(fmt.Sprintf("%s (CONFLICT: %v, held by %s)", rej.Name, rej.Reason, rej.HeldBy))
				continue
			}
			treeSrc.Add(fmt.Sprintf("%s (CONFLICT: %v)", rej.Name, rej.Reason))
		}
		for _, skipped := range src.Skipped {
			treeSrc.Add(fmt.Sprintf("%s (SKIPPED: %v)", skipped.Key, skipped.Err))
		}
	}

	return tree.Print()
}

// TableHeaders are the columns of Table.
var TableHeaders = []string{"SOURCE", "NAME", "IMAGE", "STATUS"}

// Table flattens the report into one row per template, rejection and skipped entry.
func (r *LintReport) Table() [][]string {
	var rows [][]string
	for _, src := range r.Sources {
		source := fmt.Sprintf("%s %s", src.Kind, src.Key)
		for _, t := range src.Accepted {
			status := "ok"
			if err, bad := src.BadImages[t.Name]; bad {
				status = fmt.Sprintf("invalid image: %v", err)
			}
			rows = append(rows, []string{source, t.Name, t.Image, status})
		}
		for _, rej := range src.Rejected {
			status := fmt.Sprintf("conflict: %v", rej.Reason)
			if len(rej.HeldBy) > 0 {
				status += fmt.Sprintf(", held by %s", rej.HeldBy)
			}
			rows = append(rows, []string{source, rej.Name, "", status})
		}
		for _, skipped := range src.Skipped {
			rows = append(rows, []string{source, skipped.Key, "", fmt.Sprintf("skipped: %v", skipped.Err)})
		}
	}
	return rows
}

// Err returns ErrLintFindings when the report has findings.
func (r *LintReport) Err() error {
	if r.Findings > 0 {
		return fmt.Errorf("%w: %d", ErrLintFindings, r.Findings)
	}
	return nil
}
