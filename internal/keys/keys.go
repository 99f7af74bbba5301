package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the studio.
type KeyMap struct {
	// Navigation
	Down  key.Binding
	Up    key.Binding
	Left  key.Binding
	Right key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Command palette
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Manual refresh
	Refresh key.Binding

	// Board
	NewChapter  key.Binding
	EditChapter key.Binding
	NewItem     key.Binding
	NewPair     key.Binding
	Delete      key.Binding
	MoveUp      key.Binding
	MoveDown    key.Binding
	Link        key.Binding
	Unlink      key.Binding
	Manuscript  key.Binding
	Projects    key.Binding

	// Editor
	Save          key.Binding
	NewVersion    key.Binding
	Publish       key.Binding
	DeleteVersion key.Binding
	NextVersion   key.Binding
	SwitchField   key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "prev column"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right", "tab"),
			key.WithHelp("l/→", "next column"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		NewChapter: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "new chapter"),
		),
		EditChapter: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit chapter"),
		),
		NewItem: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new item"),
		),
		NewPair: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "scene + beat"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		MoveUp: key.NewBinding(
			key.WithKeys("K", "shift+up"),
			key.WithHelp("K", "move up"),
		),
		MoveDown: key.NewBinding(
			key.WithKeys("J", "shift+down"),
			key.WithHelp("J", "move down"),
		),
		Link: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "link beat"),
		),
		Unlink: key.NewBinding(
			key.WithKeys("U"),
			key.WithHelp("U", "unlink beat"),
		),
		Manuscript: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "manuscript"),
		),
		Projects: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "projects"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save"),
		),
		NewVersion: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "save as new version"),
		),
		Publish: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("ctrl+p", "publish"),
		),
		DeleteVersion: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "delete version"),
		),
		NextVersion: key.NewBinding(
			key.WithKeys("ctrl+v"),
			key.WithHelp("ctrl+v", "next version"),
		),
		SwitchField: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "title/body"),
		),
	}
}

// ShortHelp returns keybindings to be shown in the mini help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.NewItem, k.Manuscript, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.Select, k.Back},
		{k.NewChapter, k.EditChapter, k.NewItem, k.NewPair, k.Delete, k.MoveUp, k.MoveDown},
		{k.Link, k.Unlink, k.Manuscript, k.Projects, k.Refresh},
		{k.Save, k.NewVersion, k.Publish, k.DeleteVersion, k.NextVersion, k.SwitchField},
		{k.Command, k.Help, k.Quit},
	}
}
