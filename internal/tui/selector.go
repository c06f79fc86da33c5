package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"go.opentelemetry.io/otel/attribute"

	"github.com/meza/vintage-story-mod-manager/internal/perf"
)

// ErrAborted is returned when the user leaves a prompt without choosing.
var ErrAborted = errors.New("selection aborted")

// Option is a single selectable row. Title and Description both take part in filtering.
type Option struct {
	Title       string
	Description string
}

type selectorItem struct {
	Option
	index int
}

func (item selectorItem) FilterValue() string {
	return item.Title + " " + item.Description
}

type selectorDelegate struct {
	multi   bool
	toggled map[int]bool
}

func (delegate selectorDelegate) Height() int                             { return 2 }
func (delegate selectorDelegate) Spacing() int                            { return 0 }
func (delegate selectorDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (delegate selectorDelegate) Render(w io.Writer, listModel list.Model, itemIndex int, listItem list.Item) {
	item, ok := listItem.(selectorItem)
	if !ok {
		return
	}

	line := item.Title
	if delegate.multi {
		marker := "[ ] "
		if delegate.toggled[item.index] {
			marker = "[x] "
		}
		line = marker + line
	}

	if itemIndex == listModel.Index() {
		line = SelectedItemStyle.Render("❯ " + line)
	} else {
		line = ItemStyle.Render(line)
	}

	if _, err := fmt.Fprint(w, line+"\n"+DescriptionStyle.PaddingLeft(4).Render(item.Description)); err != nil {
		return
	}
}

type SelectorConfig struct {
	Title  string
	Header *Banner
	Multi  bool
	Width  int
	Height int
}

// SelectorModel is a filterable list prompt. In multi mode space toggles rows
// and enter confirms the toggled set, or the highlighted row when none are toggled.
type SelectorModel struct {
	list     list.Model
	header   *Banner
	multi    bool
	width    int
	toggled  map[int]bool
	chosen   []int
	finished bool
	aborted  bool

	ctx         context.Context
	sessionSpan *perf.Span
	waitSpan    *perf.Span
}

func NewSelector(ctx context.Context, options []Option, cfg SelectorConfig) SelectorModel {
	if ctx == nil {
		ctx = context.Background()
	}
	width := cfg.Width
	if width <= 0 {
		width = 80
	}
	height := cfg.Height
	if height <= 0 {
		height = 20
	}

	items := make([]list.Item, 0, len(options))
	for i, option := range options {
		items = append(items, selectorItem{Option: option, index: i})
	}

	toggled := map[int]bool{}
	listModel := list.New(items, selectorDelegate{multi: cfg.Multi, toggled: toggled}, width, height)
	listModel.Title = QuestionStyle.Render("? ") + TitleStyle.Render(cfg.Title)
	listModel.SetShowStatusBar(false)
	listModel.SetFilteringEnabled(true)
	listModel.Styles.Title = TitleStyle
	listModel.Styles.TitleBar = TitleStyle
	listModel.Styles.PaginationStyle = PaginationStyle
	listModel.Styles.HelpStyle = HelpStyle
	listModel.KeyMap = ListKeyMap()
	if cfg.Multi {
		listModel.AdditionalShortHelpKeys = func() []key.Binding { return []key.Binding{Toggle(), Accept()} }
	} else {
		listModel.AdditionalShortHelpKeys = func() []key.Binding { return []key.Binding{Accept()} }
	}

	sessionCtx, sessionSpan := perf.StartSpan(ctx, "tui.select.session",
		perf.WithAttributes(
			attribute.Int("options", len(options)),
			attribute.Bool("multi", cfg.Multi),
		),
	)
	_, waitSpan := perf.StartSpan(sessionCtx, "tui.select.wait.choice")

	return SelectorModel{
		list:        listModel,
		header:      cfg.Header,
		multi:       cfg.Multi,
		width:       width,
		toggled:     toggled,
		ctx:         sessionCtx,
		sessionSpan: sessionSpan,
		waitSpan:    waitSpan,
	}
}

func (model SelectorModel) Init() tea.Cmd {
	if len(model.list.Items()) == 0 {
		return tea.Quit
	}
	return nil
}

func (model SelectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			model.width = msg.Width
			model.list.SetWidth(msg.Width)
		}
		if msg.Height > 0 {
			model.list.SetHeight(max(msg.Height-model.headerHeight(), 4))
		}
		return model, nil
	case tea.KeyMsg:
		if key.Matches(msg, ForceQuit()) {
			return model.abort()
		}
		if model.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case msg.String() == "esc" && model.list.FilterState() == list.FilterApplied:
			model.list.ResetFilter()
			return model, nil
		case key.Matches(msg, Quit()):
			return model.abort()
		case model.multi && key.Matches(msg, Toggle()):
			if item, ok := model.list.SelectedItem().(selectorItem); ok {
				model.toggled[item.index] = !model.toggled[item.index]
				model.sessionSpan.AddEvent("tui.select.action.toggle", perf.WithEventAttributes(attribute.Int("index", item.index)))
			}
			return model, nil
		case key.Matches(msg, Accept()):
			return model.accept()
		}
	}

	var cmd tea.Cmd
	model.list, cmd = model.list.Update(msg)
	return model, cmd
}

func (model SelectorModel) View() string {
	if model.finished || model.aborted {
		return ""
	}
	if model.header == nil {
		return model.list.View()
	}
	return RenderBanner(*model.header, model.width) + "\n" + model.list.View()
}

// Chosen returns the indexes of the chosen options in ascending order.
func (model SelectorModel) Chosen() []int {
	return model.chosen
}

func (model SelectorModel) Aborted() bool {
	return model.aborted
}

func (model SelectorModel) headerHeight() int {
	if model.header == nil {
		return 0
	}
	return 1
}

func (model SelectorModel) accept() (tea.Model, tea.Cmd) {
	chosen := make([]int, 0, len(model.toggled))
	for index, on := range model.toggled {
		if on {
			chosen = append(chosen, index)
		}
	}
	sort.Ints(chosen)

	if len(chosen) == 0 {
		item, ok := model.list.SelectedItem().(selectorItem)
		if !ok {
			return model, nil
		}
		chosen = []int{item.index}
	}

	model.chosen = chosen
	model.finished = true
	model.finish("accept")
	return model, tea.Quit
}

func (model SelectorModel) abort() (tea.Model, tea.Cmd) {
	model.aborted = true
	model.finish("abort")
	return model, tea.Quit
}

func (model *SelectorModel) finish(action string) {
	if model.waitSpan != nil {
		model.waitSpan.SetAttributes(attribute.String("action", action))
		model.waitSpan.End()
		model.waitSpan = nil
	}
	model.sessionSpan.AddEvent("tui.select.action."+action, perf.WithEventAttributes(attribute.Int("chosen", len(model.chosen))))
	model.sessionSpan.End()
}

// RunSelector shows the prompt and returns the chosen option indexes.
// ErrAborted is returned when the user quits without choosing.
func RunSelector(ctx context.Context, in io.Reader, out io.Writer, options []Option, cfg SelectorConfig) ([]int, error) {
	if len(options) == 0 {
		return nil, nil
	}
	model := NewSelector(ctx, options, cfg)
	final, err := tea.NewProgram(model, ProgramOptions(in, out)...).Run()
	if err != nil {
		return nil, err
	}
	result, ok := final.(SelectorModel)
	if !ok || result.Aborted() || len(result.Chosen()) == 0 {
		return nil, ErrAborted
	}
	return result.Chosen(), nil
}
