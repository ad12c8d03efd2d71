package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/oneway/internal/version"
)

type versionView struct {
	version.Info `yaml:",inline"`
	verbose      bool
}

func (v versionView) RenderText(w io.Writer, color bool) error {
	if v.verbose {
		_, err := fmt.Fprintln(w, v.Info.String())
		return err
	}
	_, err := fmt.Fprintf(w, "oneway %s\n", v.Short())
	return err
}

func newVersionCmd(opts Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print version information including version number, git commit,
build date, Go version, and platform.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := newConfigContext(cmd, opts)
			if err != nil {
				return err
			}
			verbose, _ := cmd.Flags().GetBool("verbose")
			return cc.Render(versionView{Info: version.GetInfo(), verbose: verbose})
		},
	}
	cmd.Flags().BoolP("verbose", "v", false, "show detailed version information")
	return cmd
}
