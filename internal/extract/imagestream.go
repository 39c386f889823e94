package extract

import (
	"context"
	"fmt"

	imagev1 "github.com/openshift/api/image/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"agentpool.run/internal/imageref"
	"agentpool.run/internal/ownership"
)

// FromImageStream returns the templates declared by an ImageStream.
// A marked stream yields a template for its repository. Tags can't be labeled
// directly, so every spec tag is looked up and yields a template when its
// annotations or inherited labels carry the marker.
func (e *Extractor) FromImageStream(ctx context.Context, is *imagev1.ImageStream) Result {
	log := loggerFor(ctx, is)
	res := Result{}

	if HasAgentMarker(is.Labels) {
		t, err := e.builder.FromData(ctx, is.Name, is.Status.DockerImageRepository, is.Annotations)
		if err != nil {
			log.Info("skipping ImageStream", "reason", err.Error())
			e.skip(&res, string(ownership.KindImageStream), is.Name, err)
		} else {
			res.Templates = append(res.Templates, t)
		}
	}

	for _, tagRef := range is.Spec.Tags {
		ist, err := e.getTag(ctx, is, tagRef.Name)
		if err != nil {
			log.V(1).Info("skipping ImageStreamTag", "tag", tagRef.Name, "reason", err.Error())
			continue
		}

		// Annotations are set on the tag directly, labels are inherited from the stream.
		data := ist.Annotations
		if !HasAgentMarker(data) {
			data = ist.Labels
		}
		if !HasAgentMarker(data) {
			continue
		}

		t, err := e.builder.FromData(ctx, ist.Name, ist.Image.DockerImageReference, data)
		if err != nil {
			log.Info("skipping ImageStreamTag", "tag", tagRef.Name, "reason", err.Error())
			e.skip(&res, string(ownership.KindImageStream), tagRef.Name, err)
			continue
		}
		res.Templates = append(res.Templates, t)
	}

	e.applyOverrides(res.Templates)
	return res
}

func (e *Extractor) getTag(
	ctx context.Context, is *imagev1.ImageStream, tag string,
) (ist *imagev1.ImageStreamTag, err error) {
	if e.reader == nil {
		return nil, ErrNoReader
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("getting ImageStreamTag: %w: %v", imageref.ErrLookupPanicked, p)
		}
	}()

	ist = &imagev1.ImageStreamTag{}
	if err := e.reader.Get(ctx, client.ObjectKey{
		Namespace: is.Namespace,
		Name:      is.Name + ":" + tag,
	}, ist); err != nil {
		return nil, fmt.Errorf("getting ImageStreamTag: %w", err)
	}
	return ist, nil
}
