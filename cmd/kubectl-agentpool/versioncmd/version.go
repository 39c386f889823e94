package versioncmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"sigs.k8s.io/yaml"

	"agentpool.run/internal/version"
)

func NewCmd() *cobra.Command {
	const (
		versionUse   = "version"
		versionShort = "Output build info of the application"
	)

	cmd := &cobra.Command{
		Use:   versionUse,
		Short: versionShort,
		Args:  cobra.NoArgs,
	}

	var opts options

	opts.AddFlags(cmd.Flags())

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		info := version.Get()

		switch opts.Output {
		case "":
			printText(cmd.OutOrStdout(), info, opts.Embedded)
			return nil
		case "json":
			b, err := json.MarshalIndent(output(info, opts.Embedded), "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return err
		case "yaml":
			b, err := yaml.Marshal(output(info, opts.Embedded))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		default:
			return fmt.Errorf("unknown output format %q, must be one of json, yaml", opts.Output)
		}
	}

	return cmd
}

type versionOutput struct {
	Version   string            `json:"version"`
	GoVersion string            `json:"goVersion"`
	Path      string            `json:"path,omitempty"`
	Deps      map[string]string `json:"deps,omitempty"`
}

func output(info version.Info, embedded bool) versionOutput {
	out := versionOutput{
		Version:   info.String(),
		GoVersion: info.GoVersion,
	}
	if embedded {
		out.Path = info.Path
		out.Deps = map[string]string{}
		for _, dep := range info.Deps {
			out.Deps[dep.Path] = dep.Version
		}
	}
	return out
}

func printText(out io.Writer, info version.Info, embedded bool) {
	fmt.Fprintln(out, "version", info.String())
	if !embedded {
		return
	}

	fmt.Fprintln(out, "go", info.GoVersion)
	fmt.Fprintln(out, "path", info.Path)
	fmt.Fprintln(out, "mod", info.Main.Path, info.Main.Version)
	for _, dep := range info.Deps {
		fmt.Fprintln(out, "dep", dep.Path, dep.Version)
	}
	for _, setting := range info.Settings {
		fmt.Fprintln(out, "build", setting.Key, setting.Value)
	}
}

type options struct {
	Embedded bool
	Output   string
}

func (o *options) AddFlags(flags *pflag.FlagSet) {
	flags.BoolVar(
		&o.Embedded,
		"embedded",
		o.Embedded,
		"Output embedded build information as well",
	)
	flags.StringVarP(
		&o.Output,
		"output",
		"o",
		o.Output,
		"Output format, one of json or yaml. Plain text when empty",
	)
}
