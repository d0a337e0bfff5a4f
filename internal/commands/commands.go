// Package commands wires the teagrid command line.
package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gabrielfornes/teagrid/internal/config"
	"github.com/gabrielfornes/teagrid/internal/i18n"
	"github.com/gabrielfornes/teagrid/internal/logging"
	"github.com/gabrielfornes/teagrid/internal/store"
)

const (
	ownerID = "teagrid"

	// Commands carrying this annotation run the full-screen view, so
	// logging must stay off the terminal.
	annotationMode = "teagrid/mode"
	modeUI         = "ui"
)

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	cfg      *config.Config
	tr       *i18n.Translator
	closeLog func() error
}

// New returns the root command. Without a subcommand it opens the grid
// view.
func New() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "teagrid",
		Short: "A grid of markdown notes in the terminal.",
		Long: `teagrid shows notes from a directory of markdown files side by side in a
grid of panes. Each pane previews one note; open a pane to edit it in place.`,
		Example: `
teagrid
teagrid --grid work --vault ~/notes
teagrid list
`,
		Annotations:   map[string]string{annotationMode: modeUI},
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runUI(cmd.Context())
		},
	}

	pf := cmd.PersistentFlags()
	pf.String(config.KeyVault, "", "directory of markdown notes (default ~/notes)")
	pf.String(config.KeyData, "", "directory for grid layouts and logs (default ~/.teagrid)")
	pf.StringP(config.KeyGrid, "g", "", "name of the grid to use (default grid-layout)")
	pf.String(config.KeyLocale, "", "interface language, en or zh (default from $LANG)")

	AddCommands(cmd, a)
	return cmd
}

// AddCommands registers the subcommands on topLevel.
func AddCommands(topLevel *cobra.Command, a *app) {
	addUI(topLevel, a)
	addNew(topLevel, a)
	addList(topLevel, a)
	addShow(topLevel, a)
	addEdits(topLevel, a)
	addVersion(topLevel)
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	mode := logging.ModeCLI
	if cmd.Annotations[annotationMode] == modeUI {
		mode = logging.ModeUI
	}
	closeLog, err := logging.Init(cfg.Log, mode)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}

	a.cfg = cfg
	a.tr = i18n.New(cfg.Locale)
	a.closeLog = closeLog
	slog.Debug("config loaded", "vault", cfg.Vault, "data", cfg.Data, "grid", cfg.Grid, "locale", a.tr.Locale())
	return nil
}

func (a *app) teardown() error {
	if a.closeLog == nil {
		return nil
	}
	err := a.closeLog()
	a.closeLog = nil
	return err
}

func (a *app) openStore() (*store.Store, error) {
	return store.Open(a.cfg.Data)
}

// viewType is the registry key for the grid view of one grid.
func viewType(grid string) string {
	return "grid-panes-view:" + grid
}
