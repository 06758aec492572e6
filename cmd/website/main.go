// Command website serves the blog and manages its content.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "website",
		Short: "A personal blog with a posts API and markdown rendering",
		Long: `website serves a blog from a SQLite post store. Configuration comes
from the environment (SITE_URL, DATABASE_PATH, ADMIN_PASSWORD, ...).`,
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newImportCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "website %s\n", version)
		},
	}
}
