package deps

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/dig"
	"k8s.io/apimachinery/pkg/runtime"

	"agentpool.run/cmd/kubectl-agentpool/lintcmd"
	"agentpool.run/cmd/kubectl-agentpool/rootcmd"
	"agentpool.run/cmd/kubectl-agentpool/versioncmd"
	internalcmd "agentpool.run/internal/cmd"
	"agentpool.run/internal/imageprefix"
)

func ProvideIOStreams() rootcmd.IOStreams {
	return rootcmd.IOStreams{
		In:     os.Stdin,
		Out:    os.Stdout,
		ErrOut: os.Stderr,
	}
}

func ProvideArgs() []string {
	return os.Args[1:]
}

type RootSubCommandResult struct {
	dig.Out

	SubCommand *cobra.Command `group:"rootSubCommands"`
}

func ProvideLintCmd(linterFactory lintcmd.LinterFactory) RootSubCommandResult {
	return RootSubCommandResult{
		SubCommand: lintcmd.NewCmd(
			linterFactory,
		),
	}
}

func ProvideLinterFactory(scheme *runtime.Scheme, f LogFactory) lintcmd.LinterFactory {
	return &defaultLinterFactory{
		logFactory: f,
		scheme:     scheme,
	}
}

type defaultLinterFactory struct {
	logFactory LogFactory
	scheme     *runtime.Scheme
}

func (f *defaultLinterFactory) Linter(namespace string, overrides []imageprefix.Override) lintcmd.Linter {
	return internalcmd.NewLint(
		f.scheme,
		internalcmd.WithLog{
			Log: f.logFactory.Logger(),
		},
		internalcmd.WithNamespace(namespace),
		internalcmd.WithImagePrefixOverrides(overrides),
	)
}

func ProvideVersionCmd() RootSubCommandResult {
	return RootSubCommandResult{
		SubCommand: versioncmd.NewCmd(),
	}
}
