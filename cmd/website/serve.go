package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	website "github.com/nathan-a-king/website-sub000"
	"github.com/nathan-a-king/website-sub000/telemetry"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var contentDir string
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the site",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := website.LoadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			shutdownTracing, err := telemetry.Setup(ctx, "website", cfg.OTelEndpoint)
			if err != nil {
				return err
			}
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := shutdownTracing(sctx); err != nil {
					log.Printf("website: shutdown tracing: %v", err)
				}
			}()

			app := website.New(cfg)
			if err := app.Setup(); err != nil {
				return err
			}
			defer app.Close()

			if contentDir != "" {
				im := website.NewImporter(app.Store)
				im.Logger = app.Echo.Logger
				im.OnChange = app.Cache.Invalidate
				if _, err := im.ImportDir(contentDir); err != nil {
					app.Echo.Logger.Warnf("import %s: %v", contentDir, err)
				}
				if watch {
					go func() {
						if err := im.Watch(ctx, contentDir); err != nil {
							app.Echo.Logger.Errorf("watch %s: %v", contentDir, err)
						}
					}()
				}
			}

			errc := make(chan error, 1)
			go func() {
				errc <- app.Echo.Start(cfg.Addr)
			}()

			select {
			case err := <-errc:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return app.Echo.Shutdown(sctx)
		},
	}
	cmd.Flags().StringVar(&contentDir, "content", "", "import markdown posts from this directory at startup")
	cmd.Flags().BoolVar(&watch, "watch", false, "re-import posts from --content as they change")
	return cmd
}
