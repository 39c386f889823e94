package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"
	apimachineryerrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// CtrlReader is a mock for the controller-runtime client.Reader interface.
type CtrlReader struct {
	mock.Mock
}

var _ client.Reader = &CtrlReader{}

func NewReader() *CtrlReader {
	return &CtrlReader{}
}

func (r *CtrlReader) Get(ctx context.Context, key types.NamespacedName, obj client.Object, opts ...client.GetOption) error {
	args := r.Called(ctx, key, obj, opts)
	return args.Error(0)
}

func (r *CtrlReader) List(ctx context.Context, list client.ObjectList, opts ...client.ListOption) error {
	args := r.Called(ctx, list, opts)
	return args.Error(0)
}

// NotFound returns the error the API server reports for a missing object.
func NotFound(resource, name string) error {
	return apimachineryerrors.NewNotFound(schema.GroupResource{Resource: resource}, name)
}
