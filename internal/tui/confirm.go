package tui

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.opentelemetry.io/otel/attribute"

	"github.com/meza/vintage-story-mod-manager/internal/perf"
)

// ConfirmModel is a yes/no question. Enter picks the default answer.
type ConfirmModel struct {
	message    string
	defaultYes bool
	answered   bool
	confirmed  bool

	waitSpan *perf.Span
}

func NewConfirm(ctx context.Context, message string, defaultYes bool) ConfirmModel {
	if ctx == nil {
		ctx = context.Background()
	}
	_, waitSpan := perf.StartSpan(ctx, "tui.confirm.wait.answer")
	return ConfirmModel{
		message:    message,
		defaultYes: defaultYes,
		waitSpan:   waitSpan,
	}
}

func (model ConfirmModel) Init() tea.Cmd {
	return nil
}

func (model ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return model, nil
	}

	switch {
	case key.Matches(keyMsg, ForceQuit()), key.Matches(keyMsg, No()):
		return model.answer(false)
	case key.Matches(keyMsg, Yes()):
		return model.answer(true)
	case key.Matches(keyMsg, Accept()):
		return model.answer(model.defaultYes)
	}
	return model, nil
}

func (model ConfirmModel) View() string {
	if model.answered {
		return ""
	}
	return renderConfirm(model.message, model.defaultYes)
}

func (model ConfirmModel) Confirmed() bool {
	return model.confirmed
}

func (model ConfirmModel) answer(yes bool) (tea.Model, tea.Cmd) {
	model.answered = true
	model.confirmed = yes
	model.waitSpan.SetAttributes(attribute.Bool("confirmed", yes))
	model.waitSpan.End()
	return model, tea.Quit
}

func renderConfirm(message string, defaultYes bool) string {
	suffix := " (y/N)"
	if defaultYes {
		suffix = " (Y/n)"
	}
	return QuestionStyle.Render("? ") + TitleStyle.Render(message) + suffix + "\n" + HelpStyle.Render(confirmHelp())
}

func confirmHelp() string {
	parts := make([]string, 0, 3)
	for _, binding := range ConfirmKeys() {
		help := binding.Help()
		parts = append(parts, help.Key+" "+help.Desc)
	}
	return strings.Join(parts, " • ")
}

// RunConfirm asks a yes/no question and reports the answer.
func RunConfirm(ctx context.Context, in io.Reader, out io.Writer, message string, defaultYes bool) (bool, error) {
	final, err := tea.NewProgram(NewConfirm(ctx, message, defaultYes), ProgramOptions(in, out)...).Run()
	if err != nil {
		return false, err
	}
	result, ok := final.(ConfirmModel)
	if !ok {
		return false, nil
	}
	return result.Confirmed(), nil
}
