// Package commands implements CLI command handlers for pyscry.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/pyscry/pkg/version"
)

const rootLong = `pyscry reads the import statements of a Python tree, maps every imported
module to the installed distribution that provides it, and prints the
result as a requirements list.

Source files are parsed, never executed. Installed distributions are read
from site-packages metadata; by default the active virtual environment or
the site-packages of python3 are used.

Examples:
  pyscry                          Scan the current directory
  pyscry src -f json --pretty     JSON manifest for ./src
  pyscry -o requirements.txt      Write the manifest atomically
  pyscry --check requirements.txt Fail when the manifest is stale`

// NewRootCommand creates the pyscry root command. Running it without a
// subcommand performs a scan.
func NewRootCommand() *cobra.Command {
	return newRootCommandWithDeps(defaultScanDeps())
}

func newRootCommandWithDeps(deps scanDeps) *cobra.Command {
	root := buildScanCommand("pyscry [PATH...]", deps)
	root.Short = "Generate a Python dependency manifest from import statements"
	root.Long = rootLong
	root.SilenceUsage = true
	root.SilenceErrors = true
	root.Version = version.String()

	scanCmd := buildScanCommand("scan [PATH...]", deps)
	scanCmd.Short = "Scan Python sources and print their dependencies"

	root.AddCommand(scanCmd)
	root.AddCommand(newVersionCommand())

	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "pyscry %s\n", version.String())

			return err
		},
	}
}
