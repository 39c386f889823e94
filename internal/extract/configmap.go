package extract

import (
	"context"
	"errors"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	corev1 "k8s.io/api/core/v1"

	"agentpool.run/internal/ownership"
	"agentpool.run/internal/workertemplate"
)

// FromConfigMap returns the templates described by the data entries of a marked ConfigMap.
// Entries are visited in key order. Entries that do not parse are skipped.
func (e *Extractor) FromConfigMap(ctx context.Context, cm *corev1.ConfigMap) Result {
	res := Result{}
	if !HasAgentMarker(cm.Labels) {
		return res
	}
	log := loggerFor(ctx, cm)

	keys := maps.Keys(cm.Data)
	slices.Sort(keys)
	for _, key := range keys {
		t, err := workertemplate.Parse(cm.Data[key])
		if errors.Is(err, workertemplate.ErrNotWorkerTemplate) {
			log.Info("skipping entry, content is not a worker template", "key", key, "reason", err.Error())
			e.skip(&res, string(ownership.KindConfigMap), key, err)
			continue
		}
		if err != nil {
			log.Info("skipping entry, could not parse worker template", "key", key, "reason", err.Error())
			e.skip(&res, string(ownership.KindConfigMap), key, err)
			continue
		}

		t.Image = e.resolver.Resolve(ctx, t.Image)
		res.Templates = append(res.Templates, t)
	}

	e.applyOverrides(res.Templates)
	return res
}
