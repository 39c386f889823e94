package components

import (
	"testing"

	imagev1 "github.com/openshift/api/image/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
)

func TestNewComponents(t *testing.T) {
	t.Parallel()
	_, err := NewComponents()
	require.NoError(t, err)
}

func TestProvideScheme(t *testing.T) {
	t.Parallel()
	scheme, err := ProvideScheme()
	require.NoError(t, err)
	assert.True(t, scheme.Recognizes(corev1.SchemeGroupVersion.WithKind("ConfigMap")))
	assert.True(t, scheme.Recognizes(imagev1.GroupVersion.WithKind("ImageStreamTag")))
}

func TestProvideLogger(t *testing.T) {
	t.Parallel()
	_ = ProvideLogger(Options{LogLevel: 1})
}

func TestUncachedClient(t *testing.T) {
	t.Parallel()
	_, err := ProvideUncachedClient(nil, nil)
	require.EqualError(t, err,
		"unable to set up uncached client: must provide non-nil rest.Config to client.New")
}

func TestProvideNamespaceFilter(t *testing.T) {
	t.Parallel()
	f, err := ProvideNamespaceFilter(Options{Namespaces: []string{"team-*"}})
	require.NoError(t, err)
	assert.True(t, f.Matches("team-a"))
	assert.False(t, f.Matches("default"))
}
