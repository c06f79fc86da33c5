package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"

	"github.com/meza/vintage-story-mod-manager/internal/i18n"
)

// binding builds a key binding whose help text is translated. Labels starting with
// "key." are translation keys, anything else is shown as written.
func binding(keys []string, labels []string, action string) key.Binding {
	if action == "" {
		return key.NewBinding(key.WithKeys(keys...))
	}
	shown := make([]string, 0, len(labels))
	for _, label := range labels {
		if strings.HasPrefix(label, "key.") {
			label = i18n.T(label)
		}
		shown = append(shown, label)
	}
	return key.NewBinding(
		key.WithKeys(keys...),
		key.WithHelp(strings.Join(shown, "/"), i18n.T("key.help."+action)),
	)
}

func Accept() key.Binding {
	return binding([]string{"enter"}, []string{"key.enter"}, "accept")
}

func ApplyFilter() key.Binding {
	return binding([]string{"enter", "tab", "shift+tab", "ctrl+k", "up", "ctrl+j", "down"}, []string{"key.enter"}, "apply_filter")
}

func Cancel() key.Binding {
	return binding([]string{"esc"}, []string{"key.esc"}, "cancel")
}

func ClearFilter() key.Binding {
	return binding([]string{"esc"}, []string{"key.esc"}, "clear_filter")
}

func CursorDown() key.Binding {
	return binding([]string{"down", "j"}, []string{"↓", "j"}, "down")
}

func CursorUp() key.Binding {
	return binding([]string{"up", "k"}, []string{"↑", "k"}, "up")
}

func Filter() key.Binding {
	return binding([]string{"/"}, []string{"/"}, "filter")
}

// ForceQuit has no help entry, ctrl+c always works.
func ForceQuit() key.Binding {
	return binding([]string{"ctrl+c"}, nil, "")
}

func GoToEnd() key.Binding {
	return binding([]string{"end", "G"}, []string{"G", "key.end"}, "go_to_end")
}

func GoToStart() key.Binding {
	return binding([]string{"home", "g"}, []string{"g", "key.home"}, "go_to_start")
}

func HelpMore() key.Binding {
	return binding([]string{"?"}, []string{"?"}, "more")
}

func HelpMoreClose() key.Binding {
	return binding([]string{"?"}, []string{"?"}, "close_help")
}

func NextPage() key.Binding {
	return binding([]string{"right", "l", "pgdown", "f", "d"}, []string{"→", "l", "key.pgdown"}, "page_next")
}

func PreviousPage() key.Binding {
	return binding([]string{"left", "h", "pgup", "b", "u"}, []string{"←", "h", "key.pgup"}, "page_previous")
}

func Quit() key.Binding {
	return binding([]string{"q", "esc"}, []string{"q", "key.esc"}, "quit")
}

func Toggle() key.Binding {
	return binding([]string{" "}, []string{"key.space"}, "toggle")
}

func Yes() key.Binding {
	return binding([]string{"y", "Y"}, []string{"y"}, "yes")
}

func No() key.Binding {
	return binding([]string{"n", "N", "esc", "q"}, []string{"n"}, "no")
}

// ListKeyMap is the bubbles list key map with translated help.
func ListKeyMap() list.KeyMap {
	return list.KeyMap{
		CursorUp:             CursorUp(),
		CursorDown:           CursorDown(),
		PrevPage:             PreviousPage(),
		NextPage:             NextPage(),
		GoToStart:            GoToStart(),
		GoToEnd:              GoToEnd(),
		Filter:               Filter(),
		ClearFilter:          ClearFilter(),
		CancelWhileFiltering: Cancel(),
		AcceptWhileFiltering: ApplyFilter(),
		ShowFullHelp:         HelpMore(),
		CloseFullHelp:        HelpMoreClose(),
		Quit:                 Quit(),
		ForceQuit:            ForceQuit(),
	}
}

// ConfirmKeys are the bindings shown under a yes/no question.
func ConfirmKeys() []key.Binding {
	return []key.Binding{Yes(), No(), Accept()}
}
