package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/gabrielfornes/teagrid/internal/i18n"
	"github.com/gabrielfornes/teagrid/internal/layout"
	"github.com/gabrielfornes/teagrid/internal/store"
	"github.com/gabrielfornes/teagrid/internal/vault"
)

func addNew(topLevel *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "new [base-name]",
		Short: "create an empty 2×2 grid under an unused name",
		Example: `
teagrid new
teagrid new work
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			base := a.tr.T(i18n.GridBaseName)
			if len(args) == 1 {
				base = args[0]
			}
			name, err := s.CreateUnique(base)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), a.tr.T(i18n.NoticeGridCreated, "name", name))
			return nil
		},
	}

	topLevel.AddCommand(cmd)
}

func addList(topLevel *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "list the stored grids",
		Example: `
teagrid list
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			reg := store.NewRegistry(s)
			bold := color.New(color.Bold)
			faint := color.New(color.Faint)

			tbl := uitable.New()
			tbl.Separator = "  "
			tbl.AddRow(bold.Sprint("  Grid"), bold.Sprint("Size"), bold.Sprint("Notes"), bold.Sprint("Open"))
			for _, name := range s.Names(cmd.Context()) {
				data, _, err := s.Load(name)
				if err != nil {
					tbl.AddRow("  "+name, faint.Sprint(err.Error()), "", "")
					continue
				}
				marker := "  "
				if name == a.cfg.Grid {
					marker = "* "
				}
				open := ""
				if o, ok := reg.LiveHolder(viewType(name)); ok {
					open = "pid " + strconv.Itoa(o.PID)
				}
				tbl.AddRow(marker+name, shape(data.Layout), strconv.Itoa(boundCount(data.Layout)), open)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), tbl)
			return nil
		},
	}

	topLevel.AddCommand(cmd)
}

func addShow(topLevel *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "show [grid]",
		Short: "print the cells of a grid and the notes bound to them",
		Example: `
teagrid show
teagrid show work
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := a.cfg.Grid
			if len(args) == 1 {
				name = args[0]
			}
			s, err := a.openStore()
			if err != nil {
				return err
			}
			if !s.Exists(name) {
				return errors.New(a.tr.T(i18n.ErrorNoGrid, "name", name))
			}
			data, _, err := s.Load(name)
			if err != nil {
				return err
			}
			notes, err := vault.New(a.cfg.Vault)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			title := color.New(color.Bold, color.Underline)
			_, _ = fmt.Fprintf(out, "%s %s\n", title.Sprint(name), color.New(color.Faint).Sprint(shape(data.Layout)))

			missing := color.New(color.FgRed)
			empty := color.New(color.Faint, color.Italic)
			tbl := uitable.New()
			tbl.Separator = "  "
			tbl.AddRow("Cell", "Note", "")
			for row := 0; row < data.Layout.Rows; row++ {
				for col := 0; col < data.Layout.Cols; col++ {
					k := layout.Key{Row: row, Col: col}
					cell, _ := data.Layout.At(row, col)
					switch {
					case !cell.Assigned():
						tbl.AddRow(k.String(), empty.Sprint("empty"), "")
					case !notes.Exists(cell.NotePath):
						tbl.AddRow(k.String(), cell.NotePath, missing.Sprint(a.tr.T(i18n.CellFileNotFound)))
					default:
						tbl.AddRow(k.String(), cell.NotePath, "")
					}
				}
			}
			tbl.RightAlign(0)
			_, _ = fmt.Fprintln(out, tbl)
			return nil
		},
	}

	topLevel.AddCommand(cmd)
}

func shape(l layout.Layout) string {
	return fmt.Sprintf("%d×%d", l.Rows, l.Cols)
}

func boundCount(l layout.Layout) int {
	n := 0
	for _, c := range l.Cells {
		if c.Assigned() {
			n++
		}
	}
	return n
}
