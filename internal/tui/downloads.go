package tui

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/meza/vintage-story-mod-manager/internal/httpclient"
)

const maxBarWidth = 60

type downloadsStartMsg struct{ total int }

type downloadsAdvanceMsg struct{ label string }

type downloadsDoneMsg struct{}

// DownloadProgress feeds a running downloads program. It is both the download
// sender and the per mod progress reporter of an import.
type DownloadProgress struct {
	program httpclient.Sender
}

func NewDownloadProgress(program httpclient.Sender) *DownloadProgress {
	return &DownloadProgress{program: program}
}

func (p *DownloadProgress) Send(msg tea.Msg) {
	p.program.Send(msg)
}

func (p *DownloadProgress) Start(total int) {
	p.program.Send(downloadsStartMsg{total: total})
}

func (p *DownloadProgress) Advance(label string) {
	p.program.Send(downloadsAdvanceMsg{label: label})
}

func (p *DownloadProgress) Finish() {}

// DownloadsModel shows how many mods are done and how far the current file is.
type DownloadsModel struct {
	title    string
	bar      progress.Model
	total    int
	finished int
	last     string
	percent  float64
	failed   bool
	done     bool
	cancel   context.CancelFunc
}

func NewDownloadsModel(title string, cancel context.CancelFunc) DownloadsModel {
	return DownloadsModel{
		title:  title,
		bar:    progress.New(progress.WithSolidFill(string(mossColor)), progress.WithoutPercentage(), progress.WithWidth(maxBarWidth)),
		cancel: cancel,
	}
}

func (model DownloadsModel) Init() tea.Cmd {
	return nil
}

func (model DownloadsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		model.bar.Width = min(max(msg.Width-4, 10), maxBarWidth)
	case tea.KeyMsg:
		if key.Matches(msg, ForceQuit()) {
			if model.cancel != nil {
				model.cancel()
			}
			model.done = true
			return model, tea.Quit
		}
	case downloadsStartMsg:
		model.total = msg.total
	case httpclient.ProgressMsg:
		model.percent = float64(msg)
		model.failed = false
	case httpclient.ProgressErrMsg:
		model.failed = true
	case downloadsAdvanceMsg:
		model.finished++
		model.last = msg.label
		model.percent = 0
		model.failed = false
	case downloadsDoneMsg:
		model.done = true
		return model, tea.Quit
	}
	return model, nil
}

func (model DownloadsModel) View() string {
	if model.done {
		return ""
	}
	header := TitleStyle.Render(model.title)
	if model.total > 1 {
		header += DescriptionStyle.Render(fmt.Sprintf(" %d/%d", model.finished, model.total))
	}
	if model.last != "" {
		header += DescriptionStyle.Render(" · " + model.last)
	}
	bar := model.bar.ViewAs(model.percent)
	if model.failed {
		bar = ErrorStyle.Render(bar)
	}
	return header + "\n" + bar + "\n"
}

// RunDownloads runs work while a progress view follows what it reports through the DownloadProgress.
// Pressing ctrl+c cancels the context handed to work.
func RunDownloads(ctx context.Context, title string, in io.Reader, out io.Writer, work func(context.Context, *DownloadProgress) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(NewDownloadsModel(title, cancel), ProgramOptions(in, out)...)
	result := make(chan error, 1)
	go func() {
		err := work(ctx, NewDownloadProgress(program))
		program.Send(downloadsDoneMsg{})
		result <- err
	}()

	if _, err := program.Run(); err != nil {
		cancel()
		<-result
		return err
	}
	return <-result
}
