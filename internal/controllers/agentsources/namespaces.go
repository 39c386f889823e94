package agentsources

import (
	"fmt"

	"github.com/gobwas/glob"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/predicate"
)

// NamespaceFilter matches namespaces against a list of glob patterns.
// An empty filter matches every namespace.
type NamespaceFilter struct {
	patterns []glob.Glob
}

func NewNamespaceFilter(patterns []string) (*NamespaceFilter, error) {
	f := &NamespaceFilter{}
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compiling namespace pattern %q: %w", pattern, err)
		}
		f.patterns = append(f.patterns, g)
	}
	return f, nil
}

func (f *NamespaceFilter) Matches(namespace string) bool {
	if f == nil || len(f.patterns) == 0 {
		return true
	}
	for _, g := range f.patterns {
		if g.Match(namespace) {
			return true
		}
	}
	return false
}

// Predicate drops events of objects outside the matched namespaces.
func (f *NamespaceFilter) Predicate() predicate.Predicate {
	return predicate.NewPredicateFuncs(func(obj client.Object) bool {
		return f.Matches(obj.GetNamespace())
	})
}
