package cmd

import (
	"github.com/go-logr/logr"

	"agentpool.run/internal/imageprefix"
)

type WithLog struct{ Log logr.Logger }

func (w WithLog) ConfigureLint(c *LintConfig) {
	c.Log = w.Log
}

type WithNamespace string

func (w WithNamespace) ConfigureLint(c *LintConfig) {
	c.Namespace = string(w)
}

type WithImagePrefixOverrides []imageprefix.Override

func (w WithImagePrefixOverrides) ConfigureLint(c *LintConfig) {
	c.Overrides = []imageprefix.Override(w)
}

type WithPaths []string

func (w WithPaths) ConfigureLintManifests(c *LintManifestsConfig) {
	c.Paths = append(c.Paths, w...)
}
