// Command cpb-server exposes the indexed store over HTTP (§6): one or
// more lichess CSV databases are loaded at startup, then POST /query,
// GET /next and GET /previous serve session-scoped browsing of the
// matching positions.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/lluisalemanypuig/chesspebase/internal/cpblog"
	"github.com/lluisalemanypuig/chesspebase/internal/httpapi"
	"github.com/lluisalemanypuig/chesspebase/internal/ingest"
	"github.com/lluisalemanypuig/chesspebase/internal/session"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var lichessDatabases []string
	var addr string

	cmd := &cobra.Command{
		Use:   "cpb-server",
		Short: "HTTP server for the chess puzzle database explorer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(lichessDatabases, addr)
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVar(&lichessDatabases, "lichess-database", nil, "path to a lichess puzzle CSV (repeatable)")
	flags.StringVar(&addr, "addr", "0.0.0.0:8080", "address to listen on")
	return cmd
}

func run(lichessDatabases []string, addr string) error {
	log, err := cpblog.New(false)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := context.Background()
	if len(lichessDatabases) == 0 {
		log.Warnw("starting with an empty store", "reason", "no --lichess-database given")
	}

	store, result, err := ingest.Load(ctx, lichessDatabases, log)
	if err != nil {
		return fmt.Errorf("loading lichess databases: %w", err)
	}
	if result != nil {
		log.Infow("databases loaded", "rows_read", result.RowsRead, "rows_failed", result.RowsFailed, "positions", store.Size())
	}

	mgr, err := session.New(store)
	if err != nil {
		return fmt.Errorf("building session manager: %w", err)
	}

	router := httpapi.NewRouter(mgr, log)
	log.Infow("listening", "addr", addr)
	return http.ListenAndServe(addr, router)
}
