package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Act      key.Binding
	Reload   key.Binding
	More     key.Binding
	Previous key.Binding
	Status   key.Binding
	Operator key.Binding
	Product  key.Binding
	Clear    key.Binding
	Switch   key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Act:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "advance order")),
	Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	More:     key.NewBinding(key.WithKeys("m", "pgdown"), key.WithHelp("m", "more / next page")),
	Previous: key.NewBinding(key.WithKeys("b", "pgup"), key.WithHelp("b", "previous page")),
	Status:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "status")),
	Operator: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "operator")),
	Product:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "product")),
	Clear:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear filters")),
	Switch:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch view")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Act, k.Reload, k.More, k.Switch, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Act},
		{k.Reload, k.More, k.Previous},
		{k.Status, k.Operator, k.Product, k.Clear},
		{k.Switch, k.Quit},
	}
}
