package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"boardnav/internal/config"
	"boardnav/internal/format"
	"boardnav/internal/logging"
	"boardnav/internal/nav"
	"boardnav/internal/tui"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type App struct {
	ConfigPath string
	DataDir    string
	LogLevel   string
	LogFile    string
	Source     string
	Remote     string
	PrettyJSON bool
	Format     string

	cfg      *config.Config
	closeLog func()
}

func NewRootCmd() *cobra.Command {
	app := &App{}
	var board, at string

	cmd := &cobra.Command{
		Use:          "boardnav",
		Short:        "Drill-down board navigator (TUI, web, API)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Create a demo board, then browse it
  boardnav seed
  boardnav

  # Open a board at a shared location (shortcut for: boardnav --at 'list=...')
  boardnav --board Demo 'list=col-4f2a&task=item-9c1e'

  # Serve the board over HTTP and browse it from another terminal
  boardnav serve --addr 127.0.0.1:3340
  boardnav --remote http://127.0.0.1:3340
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app, board, at)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.setup(cmd)
	}
	cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if app.closeLog != nil {
			app.closeLog()
		}
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", envOr("BOARDNAV_CONFIG", ""), "Path to config.yaml (default: <data-dir>/config.yaml)")
	cmd.PersistentFlags().StringVar(&app.DataDir, "data-dir", envOr("BOARDNAV_DIR", ""), "Data directory (default: ~/.boardnav)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", envOr("BOARDNAV_LOG_LEVEL", ""), "Log level (trace|debug|info|warn|error|disabled)")
	cmd.PersistentFlags().StringVar(&app.LogFile, "log-file", envOr("BOARDNAV_LOG_FILE", ""), "Log file (default: stderr; the TUI logs to <data-dir>/logs/boardnav.log)")
	cmd.PersistentFlags().StringVar(&app.Source, "source", envOr("BOARDNAV_SOURCE", ""), "Board source (local|remote)")
	cmd.PersistentFlags().StringVar(&app.Remote, "remote", envOr("BOARDNAV_REMOTE", ""), "Base URL of a `boardnav serve` instance (implies --source remote)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("BOARDNAV_FORMAT", "json"), "Output format (json|yaml)")

	cmd.Flags().StringVar(&board, "board", envOr("BOARDNAV_BOARD", ""), "Board id or name (default: last opened board)")
	cmd.Flags().StringVar(&at, "at", "", "Open at a location, e.g. 'list=<id>&task=<id>'")

	cmd.AddCommand(newSeedCmd(app))
	cmd.AddCommand(newBoardsCmd(app))
	cmd.AddCommand(newTreeCmd(app))
	cmd.AddCommand(newSubItemsCmd(app))
	cmd.AddCommand(newResolveCmd(app))
	cmd.AddCommand(newToggleCmd(app))
	cmd.AddCommand(newRenameCmd(app))
	cmd.AddCommand(newDeleteCmd(app))
	cmd.AddCommand(newPublishCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newWebTUICmd(app))

	return cmd
}

// setup loads the config, applies flag overrides and installs the process logger.
func (app *App) setup(cmd *cobra.Command) error {
	if strings.TrimSpace(app.DataDir) == "" {
		dir, err := defaultDataDir()
		if err != nil {
			return writeErr(cmd, err)
		}
		app.DataDir = dir
	}
	if strings.TrimSpace(app.ConfigPath) == "" {
		app.ConfigPath = filepath.Join(app.DataDir, "config.yaml")
	}

	cfg, err := config.Load(app.ConfigPath, app.DataDir)
	if err != nil {
		return writeErr(cmd, err)
	}
	if app.LogLevel != "" {
		cfg.LogLevel = app.LogLevel
	}
	if app.LogFile != "" {
		cfg.LogFile = app.LogFile
	}
	if app.Remote != "" {
		cfg.Remote.BaseURL = app.Remote
		cfg.Source = config.SourceRemote
	}
	if app.Source != "" {
		cfg.Source = config.Source(app.Source)
	}
	if err := cfg.Validate(); err != nil {
		return writeErr(cmd, fmt.Errorf("invalid flags: %w", err))
	}

	logFile := cfg.LogFile
	if logFile == "" && cmd == cmd.Root() {
		logFile = filepath.Join(cfg.DataDir, "logs", "boardnav.log")
	}
	logger, closer, err := logging.New(cfg.LogLevel, logFile)
	if err != nil {
		return writeErr(cmd, err)
	}
	log.Logger = logger

	app.cfg = cfg
	app.closeLog = closer
	return nil
}

func (app *App) policy() nav.LocationPolicy {
	return nav.LocationPolicy{SubItem: app.cfg.Nav.SubItemInLocation}
}

func runTUI(cmd *cobra.Command, app *App, board, at string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, closeBackend, err := app.openBackend(ctx)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer closeBackend()

	err = tui.Run(ctx, tui.Options{
		Backend:     b,
		BoardID:     board,
		Location:    at,
		RestoreLast: app.cfg.RestoreLastEnabled(),
		Policy:      app.policy(),
		Profile:     app.cfg.Nav.Profile,
		DataDir:     app.cfg.DataDir,
		Mouse:       app.cfg.MouseEnabled(),
		Theme:       app.cfg.TUI.Theme,
		Glyphs:      app.cfg.TUI.Glyphs,
	})
	if err != nil {
		return writeErr(cmd, notFoundAs(err, "board", board))
	}
	return nil
}

func defaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve data dir: %w", err)
	}
	return filepath.Join(home, ".boardnav"), nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

// envelope is the JSON shape of every command's output.
type envelope struct {
	Data  any      `json:"data"`
	Hints []string `json:"_hints,omitempty"`
}

func writeOut(cmd *cobra.Command, app *App, data any, hints ...string) error {
	return format.Write(cmd.OutOrStdout(), envelope{Data: data, Hints: hints}, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
