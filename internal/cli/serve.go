package cli

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"boardnav/internal/web"

	"github.com/spf13/cobra"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string
	var readOnly bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local store over HTTP (JSON API + web navigator)",
		Long: strings.TrimSpace(`
Serve the local board store over HTTP:
- /api/...        JSON API used by ` + "`boardnav --remote`" + `
- /boards/{id}    server-rendered drill-down navigator with a live preview pane

Defaults come from the server section of config.yaml.
`),
		Example: strings.TrimSpace(`
boardnav serve
boardnav serve --addr :3340 --read-only
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLocal("serve"); err != nil {
				return writeErr(cmd, err)
			}
			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				listenAddr = app.cfg.Server.Addr
			}
			if !cmd.Flags().Changed("read-only") {
				readOnly = app.cfg.Server.ReadOnly
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := app.openStore(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()

			srv, err := web.NewServer(web.ServerConfig{
				Addr:     listenAddr,
				ReadOnly: readOnly,
				Policy:   app.policy(),
				Profile:  app.cfg.Nav.Profile,
			}, st)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer srv.Close()

			ln, err := net.Listen("tcp", listenAddr)
			if err != nil {
				return writeErr(cmd, err)
			}

			actualAddr := ln.Addr().String()
			url := "http://" + actualAddr + "/"

			_ = writeOut(cmd, app, map[string]any{
				"addr":      actualAddr,
				"url":       url,
				"dataDir":   app.cfg.DataDir,
				"readOnly":  readOnly,
				"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
			},
				"open "+url,
				"boardnav --remote "+strings.TrimSuffix(url, "/"),
			)
			fmt.Fprintf(cmd.ErrOrStderr(), "boardnav serving %s at %s\n", app.cfg.DataDir, url)

			if err := srv.Serve(ctx, ln); err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Bind address (host:port or :port; default from config)")
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "Reject mutations")
	return cmd
}
