package views

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings needed for the results picker.
type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Choose key.Binding
	Close  key.Binding
}
