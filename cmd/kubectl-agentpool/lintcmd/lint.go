package lintcmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"agentpool.run/internal/cli"
	internalcmd "agentpool.run/internal/cmd"
	"agentpool.run/internal/imageprefix"
)

type LinterFactory interface {
	Linter(namespace string, overrides []imageprefix.Override) Linter
}

type Linter interface {
	LintManifests(ctx context.Context, opts ...internalcmd.LintManifestsOption) (*internalcmd.LintReport, error)
}

func NewCmd(linterFactory LinterFactory) *cobra.Command {
	const (
		cmdUse   = "lint path..."
		cmdShort = "checks worker template declarations in manifest files"
		cmdLong  = "loads ImageStream, ImageStreamTag and ConfigMap manifests from the given files or directories and prints the worker templates they declare, including name conflicts, unparsable entries and invalid images."
	)

	var opts options

	cmd := &cobra.Command{
		Use:   cmdUse,
		Short: cmdShort,
		Long:  cmdLong,
		Args:  cobra.MinimumNArgs(1),
	}
	opts.AddFlags(cmd.Flags())

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if opts.Output != "tree" && opts.Output != "table" {
			return fmt.Errorf("%w: unknown output format %q", internalcmd.ErrInvalidArgs, opts.Output)
		}

		linter := linterFactory.Linter(opts.Namespace, opts.overrides())

		report, err := linter.LintManifests(cmd.Context(), internalcmd.WithPaths(args))
		if err != nil {
			return fmt.Errorf("linting manifests: %w", err)
		}

		printer := cli.NewPrinter(
			cli.WithOut{Out: cmd.OutOrStdout()},
			cli.WithErr{Err: cmd.ErrOrStderr()},
		)
		switch opts.Output {
		case "table":
			err = printer.PrintTable(internalcmd.TableHeaders, report.Table())
		default:
			err = printer.PrintfOut("%s", report.Tree())
		}
		if err != nil {
			return err
		}
		if opts.WarnOnly && errors.Is(report.Err(), internalcmd.ErrLintFindings) {
			return nil
		}

		return report.Err()
	}

	return cmd
}

type options struct {
	Namespace     string
	HostOverrides map[string]string
	WarnOnly      bool
	Output        string
}

// Overrides sorted by prefix for stable output.
func (o *options) overrides() []imageprefix.Override {
	froms := maps.Keys(o.HostOverrides)
	slices.Sort(froms)

	overrides := make([]imageprefix.Override, 0, len(froms))
	for _, from := range froms {
		overrides = append(overrides, imageprefix.Override{From: from, To: o.HostOverrides[from]})
	}
	return overrides
}

func (o *options) AddFlags(flags *pflag.FlagSet) {
	const (
		namespaceUse     = "namespace for manifests without one and for imagestreamtag references without namespace"
		hostOverridesUse = "image prefix replacements as from=to pairs, e.g. registry.svc:5000/=mirror.example.com/"
		warnOnlyUse      = "exit successfully even when findings are reported"
		outputUse        = "output format, one of tree or table"
	)

	flags.StringVarP(
		&o.Namespace,
		"namespace",
		"n",
		"default",
		namespaceUse,
	)
	flags.StringToStringVar(
		&o.HostOverrides,
		"registry-host-overrides",
		o.HostOverrides,
		hostOverridesUse,
	)
	flags.BoolVar(
		&o.WarnOnly,
		"warn-only",
		o.WarnOnly,
		warnOnlyUse,
	)
	flags.StringVarP(
		&o.Output,
		"output",
		"o",
		"tree",
		outputUse,
	)
}
