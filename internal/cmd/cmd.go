// Package cmd implements the kubectl-agentpool commands independent of cobra.
package cmd

import (
	"errors"

	imagev1 "github.com/openshift/api/image/v1"
	"k8s.io/apimachinery/pkg/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
)

var (
	ErrInvalidArgs = errors.New("arguments invalid")
	// ErrLintFindings is returned when linted manifests declare broken or conflicting worker templates.
	ErrLintFindings = errors.New("worker template declarations have findings")
)

func NewScheme() (*runtime.Scheme, error) {
	scheme := runtime.NewScheme()

	if err := clientgoscheme.AddToScheme(scheme); err != nil {
		return nil, err
	}
	if err := imagev1.Install(scheme); err != nil {
		return nil, err
	}

	return scheme, nil
}
