package main

import (
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"go.uber.org/dig"
	ctrl "sigs.k8s.io/controller-runtime"

	"agentpool.run/cmd/agentpool-manager/components"
	"agentpool.run/internal/pool"
	"agentpool.run/internal/version"
)

type managerParams struct {
	dig.In

	Log         logr.Logger
	Mgr         ctrl.Manager
	Pool        *pool.Pool
	Options     components.Options
	Controllers components.AllControllers
}

func main() {
	container, err := components.NewComponents()
	if err != nil {
		panic(err)
	}

	var opts components.Options
	if err := container.Invoke(func(o components.Options) { opts = o }); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if opts.PrintVersion {
		info := version.Get()
		fmt.Fprintln(os.Stderr, info.String(), info.GoVersion)
		os.Exit(2)
	}

	if err := container.Invoke(runManager); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runManager(params managerParams) error {
	log := params.Log.WithName("setup")

	if err := params.Controllers.SetupWithManager(params.Mgr); err != nil {
		return err
	}
	if err := components.RegisterPoolServer(
		params.Mgr, params.Log, params.Pool, params.Options.PoolAddr); err != nil {
		return err
	}

	log.Info("starting manager",
		"namespace", params.Options.Namespace,
		"watchNamespaces", params.Options.Namespaces)
	if err := params.Mgr.Start(ctrl.SetupSignalHandler()); err != nil {
		return fmt.Errorf("problem running manager: %w", err)
	}
	return nil
}
