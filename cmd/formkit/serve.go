package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-formkit/internal/server"
	"github.com/goliatone/go-formkit/pkg/formdef"
	"github.com/goliatone/go-formkit/pkg/lang"
	"github.com/goliatone/go-formkit/pkg/page"
	"github.com/goliatone/go-formkit/pkg/token"
)

func serveCmd(a *app) *cobra.Command {
	var (
		dir       string
		addr      string
		templates string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the form definitions of a directory over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = a.cfg.Forms
			}
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			defs, err := formdef.LoadAll(os.DirFS(dir))
			if err != nil {
				return err
			}

			var pageOpts []page.Option
			if templates != "" {
				pageOpts = append(pageOpts, page.WithBaseDir(templates))
			}
			pages, err := page.New(pageOpts...)
			if err != nil {
				return err
			}

			opts := []server.Option{
				server.WithLogger(a.logger),
				server.WithPages(pages),
				server.WithSecureCookies(a.cfg.Server.CookieSecure),
				server.WithBuildOptions(formdef.WithCatalog(lang.Default())),
			}
			if a.cfg.Token.Secret != "" {
				factory, err := a.tokenFactory()
				if err != nil {
					return err
				}
				opts = append(opts, server.WithFlashKey([]byte(a.cfg.Token.Secret)))
				opts = append(opts, server.WithIssuers(func(ctx context.Context, session, fingerprint string) (token.Issuer, error) {
					return factory.Issuer(ctx, session, fingerprint)
				}))
			}
			handler, err := server.New(defs, opts...)
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:         addr,
				Handler:      handler,
				ReadTimeout:  a.cfg.Server.ReadTimeout,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() {
				a.logger.Info("serving forms", zap.String("addr", addr), zap.String("dir", dir), zap.Int("forms", len(defs)))
				errc <- srv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			a.logger.Info("shutting down")
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "directory of form definitions (default from config)")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&templates, "templates", "", "directory overriding the page templates")

	return cmd
}
