// Package imageref translates "imagestreamtag:" image references of worker
// template descriptors into fully qualified image references.
package imageref

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	imagev1 "github.com/openshift/api/image/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"agentpool.run/internal/constants"
)

var (
	ErrNoClusterAccess   = errors.New("no cluster access")
	ErrEmptyImageRef     = errors.New("ImageStreamTag has no image reference")
	errDigestReference   = errors.New("reference contains '@', it names an image stream image and not a tag")
	errMissingTagPortion = errors.New("reference has no tag")
)

// ErrLookupPanicked wraps a panic raised by a client.Reader during a lookup.
var ErrLookupPanicked = errors.New("lookup panicked")

// TagReference points to one ImageStreamTag.
type TagReference struct {
	Namespace string
	Stream    string
	Tag       string
}

// ObjectKey returns the key of the ImageStreamTag object.
func (r TagReference) ObjectKey() client.ObjectKey {
	return client.ObjectKey{
		Namespace: r.Namespace,
		Name:      r.Stream + ":" + r.Tag,
	}
}

func (r TagReference) String() string {
	return r.Namespace + "/" + r.Stream + ":" + r.Tag
}

type resolutionRecorder interface {
	RecordImageResolution(resolved bool)
}

// Resolver looks up ImageStreamTags through a client.Reader.
type Resolver struct {
	reader    client.Reader
	namespace string
	recorder  resolutionRecorder
}

// NewResolver returns a Resolver that defaults to namespace for references without one.
// reader may be nil, references are then never resolved.
func NewResolver(reader client.Reader, namespace string, recorder resolutionRecorder) *Resolver {
	return &Resolver{
		reader:    reader,
		namespace: namespace,
		recorder:  recorder,
	}
}

// Resolve returns the image a worker template should run.
// Images without the imagestreamtag: prefix are returned unchanged. Prefixed images
// are resolved through their ImageStreamTag; when that is not possible a warning is
// logged and the image is returned with only the prefix stripped.
func (r *Resolver) Resolve(ctx context.Context, image string) string {
	if !strings.HasPrefix(image, constants.ImageStreamTagPrefix) {
		return image
	}
	ref := strings.TrimPrefix(image, constants.ImageStreamTagPrefix)
	log := logr.FromContextOrDiscard(ctx).WithValues("image", ref)

	resolved, err := r.resolve(ctx, ref)
	if r.recorder != nil {
		r.recorder.RecordImageResolution(err == nil)
	}
	if err != nil {
		log.Info("no ImageStreamTag to image reference translation was performed", "reason", err.Error())
		return ref
	}

	log.V(1).Info("translated ImageStreamTag reference", "resolved", resolved)
	return resolved
}

func (r *Resolver) resolve(ctx context.Context, ref string) (string, error) {
	if strings.Contains(ref, "@") {
		return "", errDigestReference
	}

	tagRef, hasTag := ParseTagReference(ref, r.namespace)
	if !hasTag {
		return "", errMissingTagPortion
	}
	if r.reader == nil {
		return "", ErrNoClusterAccess
	}

	ist, err := r.getTag(ctx, tagRef)
	if err != nil {
		return "", fmt.Errorf("getting ImageStreamTag %s: %w", tagRef, err)
	}
	if len(ist.Image.DockerImageReference) == 0 {
		return "", fmt.Errorf("%w: %s", ErrEmptyImageRef, tagRef)
	}
	return ist.Image.DockerImageReference, nil
}

// getTag turns a panicking reader into an error, a failed lookup never aborts the template.
func (r *Resolver) getTag(ctx context.Context, tagRef TagReference) (ist *imagev1.ImageStreamTag, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrLookupPanicked, p)
		}
	}()

	ist = &imagev1.ImageStreamTag{}
	if err := r.reader.Get(ctx, tagRef.ObjectKey(), ist); err != nil {
		return nil, err
	}
	return ist, nil
}

// ParseTagReference splits "[namespace/]stream:tag".
// A namespace is only recognized when ref contains exactly one '/' followed by
// something, a tag only when it contains exactly one ':' followed by something.
// Without a namespace defaultNamespace is used and the whole ref is the stream part.
func ParseTagReference(ref, defaultNamespace string) (TagReference, bool) {
	tagRef := TagReference{Namespace: defaultNamespace}

	rest := ref
	if hasExactlyOneWithSuffix(ref, "/") {
		tagRef.Namespace, rest, _ = strings.Cut(ref, "/")
	}

	if !hasExactlyOneWithSuffix(ref, ":") {
		tagRef.Stream = rest
		return tagRef, false
	}
	tagRef.Stream, tagRef.Tag, _ = strings.Cut(rest, ":")
	if len(tagRef.Stream) == 0 || len(tagRef.Tag) == 0 {
		return tagRef, false
	}
	return tagRef, true
}

func hasExactlyOneWithSuffix(s, sep string) bool {
	idx := strings.Index(s, sep)
	return idx >= 0 &&
		idx == strings.LastIndex(s, sep) &&
		idx < len(s)-len(sep)
}
