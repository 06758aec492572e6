package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	website "github.com/nathan-a-king/website-sub000"
)

func newImportCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "import <dir>",
		Short: "Import markdown posts with frontmatter into the post store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := website.LoadConfig()
			if err != nil {
				return err
			}
			store, err := website.NewStore(cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close()

			im := website.NewImporter(store)
			n, err := im.ImportDir(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d posts into %s\n", n, cfg.DatabasePath)
			if err != nil {
				return err
			}
			if !watch {
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "watching %s for changes\n", args[0])
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return im.Watch(ctx, args[0])
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "keep running and re-import files as they change")
	return cmd
}
