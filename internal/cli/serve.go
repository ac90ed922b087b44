package cli

import (
	"context"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/devtoc/infograph/pkg/api"
	"github.com/devtoc/infograph/pkg/cache"
	"github.com/devtoc/infograph/pkg/docstore"
	"github.com/devtoc/infograph/pkg/history"
)

// serveCommand creates the serve command for the HTTP editing API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var check bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the editing API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, check)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&check, "check", true, "reject commands that leave a document inconsistent")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, check bool) error {
	logger := loggerFromContext(ctx)
	cfg, err := c.config()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}

	s, err := c.newSession(ctx, true, false)
	if err != nil {
		return err
	}
	defer s.Close()

	// One shared SQLite history serves every session; undo state is keyed
	// by document id.
	h, err := c.newHistory()
	if err != nil {
		return err
	}
	defer h.Close()

	srv := api.NewServer(s.loader, logger,
		api.WithRenderCache(s.loader.Cache, cache.NewScopedKeyer(nil, "api:")),
		api.WithHistory(func() history.History { return sharedHistory{h} }),
		api.WithStoreOptions(docstore.WithLogger(logger), docstore.WithChecks(check)),
	)
	defer srv.Close()

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		printSuccess("Listening on http://%s", addr)
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}

// sharedHistory hands one history to many stores without letting any of
// them close it.
type sharedHistory struct {
	history.History
}

func (sharedHistory) Close() error { return nil }
