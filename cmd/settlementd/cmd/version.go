package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X github.com/paw-chain/settlement/cmd/settlementd/cmd.Version=..."
var (
	Version = "dev"
	Commit  = ""
)

// VersionCmd prints build information.
func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "settlementd %s", Version)
			if Commit != "" {
				fmt.Fprintf(cmd.OutOrStdout(), " (%s)", Commit)
			}
			fmt.Fprintf(cmd.OutOrStdout(), " %s\n", runtime.Version())
		},
	}
}
