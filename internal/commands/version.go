package commands

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version is set at link time with -ldflags "-X ...commands.Version=v1.2.3".
var Version = "dev"

func addVersion(topLevel *cobra.Command) {
	short := false
	cmd := &cobra.Command{
		Use:   "version",
		Short: "print the teagrid version",
		Example: `
teagrid version
teagrid version --short
`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			v := Version
			if info, ok := debug.ReadBuildInfo(); ok && v == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
				v = info.Main.Version
			}
			if short {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), v)
				return
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "teagrid %s\n", v)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print just the version number.")

	topLevel.AddCommand(cmd)
}
