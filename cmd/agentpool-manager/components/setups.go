package components

import (
	"fmt"

	"github.com/go-logr/logr"
	imagev1 "github.com/openshift/api/image/v1"
	"go.uber.org/dig"
	"k8s.io/apimachinery/pkg/api/meta"
	ctrl "sigs.k8s.io/controller-runtime"
)

type controllerSetup struct {
	name       string
	controller controller
}

func setupAll(mgr ctrl.Manager, controllers []controllerSetup) error {
	for _, c := range controllers {
		if err := c.controller.SetupWithManager(mgr); err != nil {
			return fmt.Errorf(
				"unable to create controller for %s: %w", c.name, err)
		}
	}
	return nil
}

// interface implemented by all controllers.
type controller interface {
	SetupWithManager(mgr ctrl.Manager) error
}

// DI container to get all controllers.
type AllControllers struct {
	dig.In

	Log logr.Logger

	ConfigMap   ConfigMapController
	ImageStream ImageStreamController
}

func (ac AllControllers) List() []any {
	return []any{
		ac.ConfigMap, ac.ImageStream,
	}
}

func (ac AllControllers) SetupWithManager(mgr ctrl.Manager) error {
	return ac.setupWithMapper(mgr, mgr.GetRESTMapper())
}

func (ac AllControllers) setupWithMapper(mgr ctrl.Manager, mapper meta.RESTMapper) error {
	setups := []controllerSetup{
		{
			name:       "ConfigMap",
			controller: ac.ConfigMap,
		},
	}

	ok, err := imageStreamAPIAvailable(mapper)
	if err != nil {
		return err
	}
	if ok {
		setups = append(setups, controllerSetup{
			name:       "ImageStream",
			controller: ac.ImageStream,
		})
	} else {
		ac.Log.Info("ImageStream API not available, agents are only read from ConfigMaps")
	}

	return setupAll(mgr, setups)
}

// Probe for the OpenShift image API.
func imageStreamAPIAvailable(mapper meta.RESTMapper) (bool, error) {
	gvk := imagev1.GroupVersion.WithKind("ImageStream")
	_, err := mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
	switch {
	case err == nil:
		return true, nil
	case meta.IsNoMatchError(err):
		return false, nil
	default:
		return false, fmt.Errorf("imagev1 probing: %w", err)
	}
}
