package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gabrielfornes/teagrid/internal/grid"
	"github.com/gabrielfornes/teagrid/internal/i18n"
	"github.com/gabrielfornes/teagrid/internal/layout"
	"github.com/gabrielfornes/teagrid/internal/store"
	"github.com/gabrielfornes/teagrid/internal/vault"
)

// EditOptions are the flags shared by the commands that change a grid.
type EditOptions struct {
	Top  bool
	Left bool
	At   int
}

func addEdits(topLevel *cobra.Command, a *app) {
	o := &EditOptions{}

	addRow := &cobra.Command{
		Use:   "add-row",
		Short: "add an empty row to the grid",
		Example: `
teagrid add-row
teagrid add-row --top --grid work
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(cmd, func(c *grid.Controller) error {
				if c.Rows() >= layout.MaxSize {
					return fmt.Errorf("grid already has %d rows", layout.MaxSize)
				}
				if o.Top {
					c.AddRowTop()
				} else {
					c.AddRow()
				}
				return nil
			})
		},
	}
	addRow.Flags().BoolVar(&o.Top, "top", false, "insert the row above the others")

	addColumn := &cobra.Command{
		Use:   "add-column",
		Short: "add an empty column to the grid",
		Example: `
teagrid add-column
teagrid add-column --left
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(cmd, func(c *grid.Controller) error {
				if c.Cols() >= layout.MaxSize {
					return fmt.Errorf("grid already has %d columns", layout.MaxSize)
				}
				if o.Left {
					c.AddColumnLeft()
				} else {
					c.AddColumn()
				}
				return nil
			})
		},
	}
	addColumn.Flags().BoolVar(&o.Left, "left", false, "insert the column left of the others")

	removeRow := &cobra.Command{
		Use:   "remove-row",
		Short: "remove a row and the notes bound in it",
		Example: `
teagrid remove-row
teagrid remove-row --at 0
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(cmd, func(c *grid.Controller) error {
				if c.Rows() <= layout.MinSize {
					return errors.New("cannot remove the only row")
				}
				i := o.At
				if i < 0 {
					i = c.Rows() - 1
				}
				if i >= c.Rows() {
					return fmt.Errorf("row %d is outside the %d-row grid", i, c.Rows())
				}
				c.RemoveRowAt(i)
				return nil
			})
		},
	}
	removeRow.Flags().IntVar(&o.At, "at", -1, "index of the row to remove, counting from 0 (default last)")

	removeColumn := &cobra.Command{
		Use:   "remove-column",
		Short: "remove a column and the notes bound in it",
		Example: `
teagrid remove-column
teagrid remove-column --at 1
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(cmd, func(c *grid.Controller) error {
				if c.Cols() <= layout.MinSize {
					return errors.New("cannot remove the only column")
				}
				i := o.At
				if i < 0 {
					i = c.Cols() - 1
				}
				if i >= c.Cols() {
					return fmt.Errorf("column %d is outside the %d-column grid", i, c.Cols())
				}
				c.RemoveColumnAt(i)
				return nil
			})
		},
	}
	removeColumn.Flags().IntVar(&o.At, "at", -1, "index of the column to remove, counting from 0 (default last)")

	assign := &cobra.Command{
		Use:   "assign ROW COL NOTE",
		Short: "bind a note to a cell",
		Example: `
teagrid assign 0 1 projects/plan.md
`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := parseCell(args[0], args[1])
			if err != nil {
				return err
			}
			notes, err := vault.New(a.cfg.Vault)
			if err != nil {
				return err
			}
			p, err := notePath(notes, args[2])
			if err != nil {
				return err
			}
			if !notes.Exists(p) {
				return fmt.Errorf("note %s not found in %s", p, notes.Root)
			}
			return a.edit(cmd, func(c *grid.Controller) error {
				if _, ok := c.Cell(k.Row, k.Col); !ok {
					return outside(k, c)
				}
				c.AssignNote(k.Row, k.Col, p)
				return nil
			})
		},
	}

	clearCell := &cobra.Command{
		Use:   "clear ROW COL",
		Short: "unbind the note from a cell",
		Example: `
teagrid clear 1 0
`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := parseCell(args[0], args[1])
			if err != nil {
				return err
			}
			return a.edit(cmd, func(c *grid.Controller) error {
				if _, ok := c.Cell(k.Row, k.Col); !ok {
					return outside(k, c)
				}
				c.ClearCell(k.Row, k.Col)
				return nil
			})
		},
	}

	topLevel.AddCommand(addRow, addColumn, removeRow, removeColumn, assign, clearCell)
}

// edit applies fn to the configured grid and stores the result. A grid
// that is open in a running view is refused.
func (a *app) edit(cmd *cobra.Command, fn func(c *grid.Controller) error) error {
	name := a.cfg.Grid
	s, err := a.openStore()
	if err != nil {
		return err
	}
	if !s.Exists(name) {
		return errors.New(a.tr.T(i18n.ErrorNoGrid, "name", name))
	}
	if o, ok := store.NewRegistry(s).LiveHolder(viewType(name)); ok && o.PID != os.Getpid() {
		return errors.New(a.tr.T(i18n.ErrorGridInUse, "name", name, "pid", o.PID))
	}

	data, _, err := s.Load(name)
	if err != nil {
		return err
	}
	c := grid.New(data)
	if err := fn(c); err != nil {
		return err
	}
	if err := s.Save(name, c.Data()); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", name, shape(c.Data().Layout))
	return nil
}

func parseCell(row, col string) (layout.Key, error) {
	r, err := strconv.Atoi(row)
	if err != nil {
		return layout.Key{}, fmt.Errorf("invalid row %q", row)
	}
	c, err := strconv.Atoi(col)
	if err != nil {
		return layout.Key{}, fmt.Errorf("invalid column %q", col)
	}
	return layout.Key{Row: r, Col: c}, nil
}

func outside(k layout.Key, c *grid.Controller) error {
	return fmt.Errorf("cell %s is outside the %d×%d grid", k, c.Rows(), c.Cols())
}

// notePath turns a note argument into a vault-relative path. Absolute
// paths must point inside the vault.
func notePath(notes *vault.Store, arg string) (string, error) {
	p := arg
	if filepath.IsAbs(p) {
		rel, err := filepath.Rel(notes.Root, p)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", fmt.Errorf("%s is outside the vault %s", arg, notes.Root)
		}
		p = rel
	}
	p = filepath.ToSlash(filepath.Clean(p))
	if p == "." || p == ".." || strings.HasPrefix(p, "../") {
		return "", fmt.Errorf("%s is outside the vault %s", arg, notes.Root)
	}
	return p, nil
}
