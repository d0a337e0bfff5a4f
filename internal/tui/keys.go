package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up, Down, Left, Right                 key.Binding
	SwapUp, SwapDown, SwapLeft, SwapRight key.Binding

	Open         key.Binding
	Select       key.Binding
	Clear        key.Binding
	External     key.Binding
	Menu         key.Binding
	Undo         key.Binding
	Palette      key.Binding
	AddRow       key.Binding
	AddColumn    key.Binding
	RemoveRow    key.Binding
	RemoveColumn key.Binding
	Quit         key.Binding

	// editing
	Done key.Binding
	Save key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:    key.NewBinding(key.WithKeys("up", "k")),
		Down:  key.NewBinding(key.WithKeys("down", "j")),
		Left:  key.NewBinding(key.WithKeys("left", "h")),
		Right: key.NewBinding(key.WithKeys("right", "l")),

		SwapUp:    key.NewBinding(key.WithKeys("shift+up", "K")),
		SwapDown:  key.NewBinding(key.WithKeys("shift+down", "J")),
		SwapLeft:  key.NewBinding(key.WithKeys("shift+left", "H")),
		SwapRight: key.NewBinding(key.WithKeys("shift+right", "L")),

		Open:         key.NewBinding(key.WithKeys("enter")),
		Select:       key.NewBinding(key.WithKeys("s")),
		Clear:        key.NewBinding(key.WithKeys("x", "delete")),
		External:     key.NewBinding(key.WithKeys("o")),
		Menu:         key.NewBinding(key.WithKeys("m")),
		Undo:         key.NewBinding(key.WithKeys("u")),
		Palette:      key.NewBinding(key.WithKeys(":", "ctrl+p")),
		AddRow:       key.NewBinding(key.WithKeys("r")),
		AddColumn:    key.NewBinding(key.WithKeys("c")),
		RemoveRow:    key.NewBinding(key.WithKeys("R")),
		RemoveColumn: key.NewBinding(key.WithKeys("C")),
		Quit:         key.NewBinding(key.WithKeys("q", "ctrl+c")),

		Done: key.NewBinding(key.WithKeys("esc")),
		Save: key.NewBinding(key.WithKeys("ctrl+s")),
	}
}
