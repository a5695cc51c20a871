package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings for the composer view.
type KeyMap struct {
	Accept key.Binding // Apply the remaining tasks
	Reject key.Binding // Discard the session
	Help   key.Binding // Toggle full help
	Quit   key.Binding // Quit (rejects a session that is still running)
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Accept: key.NewBinding(
			key.WithKeys("a", "enter"),
			key.WithHelp("a/enter", "accept remaining"),
		),
		Reject: key.NewBinding(
			key.WithKeys("r", "x"),
			key.WithHelp("r", "reject"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Accept, k.Reject, k.Quit, k.Help}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Accept, k.Reject},
		{k.Help, k.Quit},
	}
}
