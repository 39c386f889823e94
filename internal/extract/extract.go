// Package extract turns ImageStreams and ConfigMaps carrying the agent marker
// into worker template candidates.
package extract

import (
	"context"
	"errors"

	"github.com/go-logr/logr"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"agentpool.run/internal/constants"
	"agentpool.run/internal/imageprefix"
	"agentpool.run/internal/imageref"
	"agentpool.run/internal/workertemplate"
)

// ErrNoReader is returned for lookups when the Extractor has no cluster access.
var ErrNoReader = errors.New("no cluster reader configured")

// SkippedEntry is a part of a source object that did not yield a template.
type SkippedEntry struct {
	// ConfigMap data key or ImageStream tag.
	Key string
	Err error
}

// Result of one extraction.
type Result struct {
	Templates []workertemplate.WorkerTemplate
	Skipped   []SkippedEntry
}

type skipRecorder interface {
	RecordSkippedEntry(kind string)
}

// Extractor reads worker templates out of source objects.
type Extractor struct {
	reader    client.Reader
	builder   *workertemplate.Builder
	resolver  *imageref.Resolver
	overrides []imageprefix.Override
	recorder  skipRecorder
}

type ExtractorOption func(e *Extractor)

// WithImagePrefixOverrides rewrites registry prefixes of every extracted image.
func WithImagePrefixOverrides(overrides []imageprefix.Override) ExtractorOption {
	return func(e *Extractor) {
		e.overrides = overrides
	}
}

// WithSkipRecorder counts entries that did not yield a template.
func WithSkipRecorder(recorder skipRecorder) ExtractorOption {
	return func(e *Extractor) {
		e.recorder = recorder
	}
}

// NewExtractor returns an Extractor fetching ImageStreamTags through reader.
// reader may be nil, ImageStream tags are then never inspected.
func NewExtractor(
	reader client.Reader,
	builder *workertemplate.Builder,
	resolver *imageref.Resolver,
	opts ...ExtractorOption,
) *Extractor {
	e := &Extractor{
		reader:   reader,
		builder:  builder,
		resolver: resolver,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// HasAgentMarker reports whether the map carries role=jenkins-agent
// or the legacy role=jenkins-slave.
func HasAgentMarker(m map[string]string) bool {
	v, ok := m[constants.AgentRoleLabel]
	if !ok {
		return false
	}
	for _, marker := range constants.AgentMarkerValues() {
		if v == marker {
			return true
		}
	}
	return false
}

func (e *Extractor) applyOverrides(templates []workertemplate.WorkerTemplate) {
	if len(e.overrides) == 0 {
		return
	}
	for i := range templates {
		templates[i].Image = imageprefix.Replace(templates[i].Image, e.overrides)
	}
}

func (e *Extractor) skip(res *Result, kind, key string, err error) {
	res.Skipped = append(res.Skipped, SkippedEntry{Key: key, Err: err})
	if e.recorder != nil {
		e.recorder.RecordSkippedEntry(kind)
	}
}

func loggerFor(ctx context.Context, obj client.Object) logr.Logger {
	return logr.FromContextOrDiscard(ctx).WithValues(
		"source", client.ObjectKeyFromObject(obj).String())
}
