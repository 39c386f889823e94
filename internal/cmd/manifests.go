package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	apimachineryerrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/util/yaml"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/apiutil"
)

var errListNotSupported = errors.New("list is not supported on loaded manifests")

// ManifestReader is a client.Reader serving objects loaded from manifest files.
type ManifestReader struct {
	scheme  *runtime.Scheme
	objects map[manifestKey]*unstructured.Unstructured
	// Load order, sources are linted in the order they were written.
	order []*unstructured.Unstructured
}

var _ client.Reader = (*ManifestReader)(nil)

type manifestKey struct {
	gvk schema.GroupVersionKind
	key client.ObjectKey
}

func NewManifestReader(scheme *runtime.Scheme) *ManifestReader {
	return &ManifestReader{
		scheme:  scheme,
		objects: map[manifestKey]*unstructured.Unstructured{},
	}
}

// LoadPaths reads all YAML and JSON files at the given paths, directories are walked.
// Objects without namespace are placed into defaultNamespace.
func (r *ManifestReader) LoadPaths(paths []string, defaultNamespace string) error {
	for _, path := range paths {
		if err := filepath.WalkDir(path, func(file string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !isManifestFile(file) {
				return nil
			}
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("opening manifest: %w", err)
			}
			defer f.Close()
			if err := r.Load(f, defaultNamespace); err != nil {
				return fmt.Errorf("loading %s: %w", file, err)
			}
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}

func isManifestFile(file string) bool {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// Load reads a stream of YAML or JSON documents.
func (r *ManifestReader) Load(in io.Reader, defaultNamespace string) error {
	dec := yaml.NewYAMLOrJSONDecoder(in, 4096)
	for {
		obj := &unstructured.Unstructured{}
		if err := dec.Decode(&obj.Object); errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return fmt.Errorf("decoding manifest: %w", err)
		}
		if len(obj.Object) == 0 {
			continue
		}
		if len(obj.GetNamespace()) == 0 {
			obj.SetNamespace(defaultNamespace)
		}

		k := manifestKey{gvk: obj.GroupVersionKind(), key: client.ObjectKeyFromObject(obj)}
		if _, exists := r.objects[k]; !exists {
			r.order = append(r.order, obj)
		} else {
			for i, o := range r.order {
				if o.GroupVersionKind() == k.gvk && client.ObjectKeyFromObject(o) == k.key {
					r.order[i] = obj
				}
			}
		}
		r.objects[k] = obj
	}
}

// Objects returns all loaded objects of the type of newObj in load order.
func (r *ManifestReader) Objects(newObj func() client.Object) ([]client.Object, error) {
	gvk, err := apiutil.GVKForObject(newObj(), r.scheme)
	if err != nil {
		return nil, err
	}

	var objs []client.Object
	for _, u := range r.order {
		if u.GroupVersionKind() != gvk {
			continue
		}
		obj := newObj()
		if err := runtime.DefaultUnstructuredConverter.FromUnstructured(u.Object, obj); err != nil {
			return nil, fmt.Errorf("converting %s %s: %w", gvk.Kind, client.ObjectKeyFromObject(u), err)
		}
		objs = append(objs, obj)
	}
	return objs, nil
}

func (r *ManifestReader) Get(_ context.Context, key client.ObjectKey, obj client.Object, _ ...client.GetOption) error {
	gvk, err := apiutil.GVKForObject(obj, r.scheme)
	if err != nil {
		return err
	}
	u, ok := r.objects[manifestKey{gvk: gvk, key: key}]
	if !ok {
		return apimachineryerrors.NewNotFound(schema.GroupResource{
			Group:    gvk.Group,
			Resource: strings.ToLower(gvk.Kind),
		}, key.Name)
	}
	return runtime.DefaultUnstructuredConverter.FromUnstructured(u.Object, obj)
}

func (r *ManifestReader) List(context.Context, client.ObjectList, ...client.ListOption) error {
	return errListNotSupported
}
