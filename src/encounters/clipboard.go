package encounters

import (
	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

var writeClipboard = clipboard.WriteAll

func CopyToClipboard(s string) tea.Cmd {
	return func() tea.Msg {
		err := writeClipboard(s)
		return ClipboardMsg{Success: err == nil, Err: err}
	}
}
