package workertemplate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-logr/logr"
	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"agentpool.run/internal/constants"
)

var (
	ErrEmptyName  = errors.New("worker template name must not be empty")
	ErrEmptyImage = errors.New("worker template image must not be empty")

	errLookupPanicked = errors.New("lookup panicked")
)

// Builder creates WorkerTemplates with the fixed agent defaults.
// The service account is inherited from the pod the manager runs in.
type Builder struct {
	reader    client.Reader
	namespace string
	hostname  string

	mu             sync.Mutex
	serviceAccount string
	resolved       bool
}

// NewBuilder returns a Builder looking up the host pod named hostname in namespace.
// reader may be nil and hostname may be empty, templates then keep the default service account.
func NewBuilder(reader client.Reader, namespace, hostname string) *Builder {
	return &Builder{
		reader:    reader,
		namespace: namespace,
		hostname:  hostname,
	}
}

// Build returns a template for the given name and image.
// An empty label defaults to the name.
func (b *Builder) Build(ctx context.Context, name, image, label string) (WorkerTemplate, error) {
	if len(name) == 0 {
		return WorkerTemplate{}, ErrEmptyName
	}
	if len(image) == 0 {
		return WorkerTemplate{}, fmt.Errorf("%w: %s", ErrEmptyImage, name)
	}

	log := logr.FromContextOrDiscard(ctx)
	log.V(1).Info("initializing worker template", "name", name)

	t := WorkerTemplate{
		Name:            name,
		Image:           image,
		Label:           label,
		AlwaysPullImage: true,
		Command:         "",
		Args:            DefaultArgs,
		ServiceAccount:  b.hostServiceAccount(ctx),
	}
	applyDefaults(&t)
	return t, nil
}

// FromData builds the template of an ImageStream or ImageStreamTag.
// data is the label or annotation map that carried the agent marker,
// its agent-label entry overrides the scheduler label.
func (b *Builder) FromData(ctx context.Context, name, image string, data map[string]string) (WorkerTemplate, error) {
	label := name
	for _, key := range []string{constants.AgentLabelKey, constants.LegacyAgentLabelKey} {
		if v, ok := data[key]; ok && len(v) > 0 {
			label = v
			break
		}
	}
	return b.Build(ctx, SanitizeName(name), image, label)
}

func (b *Builder) hostServiceAccount(ctx context.Context) string {
	if b.reader == nil || len(b.hostname) == 0 {
		return ""
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.resolved {
		return b.serviceAccount
	}

	pod, err := b.getHostPod(ctx)
	if err != nil {
		log := logr.FromContextOrDiscard(ctx)
		log.V(1).Info("could not look up host pod, keeping default service account",
			"pod", b.hostname, "error", err.Error())
		return ""
	}

	b.serviceAccount = pod.Spec.ServiceAccountName
	b.resolved = true
	return b.serviceAccount
}

func (b *Builder) getHostPod(ctx context.Context) (pod *corev1.Pod, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", errLookupPanicked, p)
		}
	}()

	pod = &corev1.Pod{}
	if err := b.reader.Get(ctx, client.ObjectKey{
		Name:      b.hostname,
		Namespace: b.namespace,
	}, pod); err != nil {
		return nil, err
	}
	return pod, nil
}
