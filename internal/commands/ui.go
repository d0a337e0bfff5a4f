package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/gabrielfornes/teagrid/internal/i18n"
	"github.com/gabrielfornes/teagrid/internal/markdown"
	"github.com/gabrielfornes/teagrid/internal/store"
	"github.com/gabrielfornes/teagrid/internal/tui"
	"github.com/gabrielfornes/teagrid/internal/vault"
)

func addUI(topLevel *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "open the grid view",
		Example: `
teagrid ui
teagrid ui --grid work
`,
		Annotations: map[string]string{annotationMode: modeUI},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runUI(cmd.Context())
		},
	}

	topLevel.AddCommand(cmd)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (a *app) runUI(ctx context.Context) error {
	if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
		return errors.New(a.tr.T(i18n.ErrorNoTerminal))
	}

	s, err := a.openStore()
	if err != nil {
		return err
	}
	name := a.cfg.Grid
	data, found, err := s.Load(name)
	if err != nil {
		return err
	}
	if !found {
		if err := s.Save(name, data); err != nil {
			return err
		}
		slog.Info("created grid", "grid", name)
	}

	claim, err := store.NewRegistry(s).Claim(viewType(name), store.Owner{ID: ownerID, PID: os.Getpid()})
	if err != nil {
		var ce *store.ConflictError
		if errors.As(err, &ce) {
			return errors.New(a.tr.T(i18n.ErrorViewConflict, "type", ce.ViewType, "owner", ce.Owner, "pid", ce.PID))
		}
		return err
	}
	defer func() {
		if err := claim.Release(); err != nil {
			slog.Warn("release view registration", "err", err)
		}
	}()
	notice := ""
	if claim.TookOver {
		notice = a.tr.T(i18n.NoticeViewRegistered)
	}

	notes, err := vault.New(a.cfg.Vault)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	events, err := notes.Watch(ctx)
	if err != nil {
		// The grid still works; it just won't follow outside edits.
		slog.Warn("vault watch unavailable", "vault", notes.Root, "err", err)
	}

	persister := store.NewPersister(s, name, store.SaveDelay)
	defer func() {
		if err := persister.Close(); err != nil {
			slog.Error("final save", "grid", name, "err", err)
		}
	}()

	m := tui.NewModel(tui.Options{
		Context:     ctx,
		Data:        data,
		GridName:    name,
		Saver:       persister,
		Vault:       notes,
		Markdown:    markdown.New(a.cfg.Style),
		Translator:  a.tr,
		Events:      events,
		Grids:       s,
		SwapSpacing: a.cfg.SwapSpacing,
		Notice:      notice,
	})

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithReportFocus(),
		tea.WithContext(ctx),
	)
	persister.OnError(func(err error) {
		p.Send(tui.ErrorMsg{Err: err})
	})

	slog.Info("grid view started", "grid", name, "vault", notes.Root)
	final, err := p.Run()
	if fm, ok := final.(tui.Model); ok {
		fm.Close()
	} else {
		m.Close()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run grid view: %w", err)
	}
	slog.Info("grid view closed", "grid", name)
	return nil
}
