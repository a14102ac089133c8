package cli

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"boardnav/internal/config"
	"boardnav/internal/webtui"

	"github.com/spf13/cobra"
)

func newWebTUICmd(app *App) *cobra.Command {
	var addr, board string

	cmd := &cobra.Command{
		Use:   "webtui",
		Short: "Run the terminal navigator in a browser (xterm.js over websocket)",
		Long: strings.TrimSpace(`
Serve a page that runs the boardnav TUI in a pseudo-terminal per browser tab. Each session is a
child process started with this process's data dir, config and board source.
`),
		Example: strings.TrimSpace(`
boardnav webtui --addr 127.0.0.1:3341
boardnav --remote http://127.0.0.1:3340 webtui --board Demo
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				return writeErr(cmd, fmt.Errorf("webtui: missing --addr"))
			}

			sessionArgs := app.sessionArgs(board)
			srv, err := webtui.NewServer(webtui.ServerConfig{
				Addr:  listenAddr,
				Args:  sessionArgs,
				Title: "boardnav",
			})
			if err != nil {
				return writeErr(cmd, err)
			}

			ln, err := net.Listen("tcp", listenAddr)
			if err != nil {
				return writeErr(cmd, err)
			}

			actualAddr := ln.Addr().String()
			url := "http://" + actualAddr + "/terminal"

			_ = writeOut(cmd, app, map[string]any{
				"addr":        actualAddr,
				"url":         url,
				"sessionArgs": sessionArgs,
				"startedAt":   time.Now().UTC().Format(time.RFC3339Nano),
			}, "open "+url)
			fmt.Fprintf(cmd.ErrOrStderr(), "boardnav webtui running at %s\n", url)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := srv.Serve(ctx, ln); err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:3341", "Bind address (host:port or :port)")
	cmd.Flags().StringVar(&board, "board", envOr("BOARDNAV_BOARD", ""), "Board id or name each session opens")
	return cmd
}

// sessionArgs are the flags a browser session's TUI process starts with, so it sees the same
// data as this process.
func (app *App) sessionArgs(board string) []string {
	args := []string{"--data-dir", app.cfg.DataDir}
	if app.ConfigPath != "" {
		args = append(args, "--config", app.ConfigPath)
	}
	if app.cfg.Source == config.SourceRemote {
		args = append(args, "--remote", app.cfg.Remote.BaseURL)
	}
	if b := strings.TrimSpace(board); b != "" {
		args = append(args, "--board", b)
	}
	return args
}
