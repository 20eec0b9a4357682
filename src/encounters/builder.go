package encounters

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"holonet.gg/v1/encounter-builder/src/debounce"
	"holonet.gg/v1/encounter-builder/src/object"
	"holonet.gg/v1/encounter-builder/src/page"
	rtable "holonet.gg/v1/encounter-builder/src/table"
)

const DefaultTitle = "Star Wars RPG Encounter Builder"

type Options struct {
	Context    context.Context
	DraftFile  string
	SearchWait time.Duration
	Logger     *zap.Logger
}

// Page is the builder's root component for page.Mount.
func Page(api *API, opts Options) page.RenderFunc {
	return func(route page.Route) tea.Model {
		m := New(api, opts)
		if title, ok := route.Props["title"].(string); ok && title != "" {
			m.title = title
		} else if route.Title != "" {
			m.title = route.Title
		}
		if term, ok := route.Props["search"].(string); ok {
			m.search.SetValue(term)
		}
		return m
	}
}

func New(api *API, opts Options) Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.SearchWait <= 0 {
		opts.SearchWait = debounce.DefaultWait
	}

	draft := NewDraft()
	if opts.DraftFile != "" {
		loaded, err := LoadDraft(opts.DraftFile)
		if err != nil {
			opts.Logger.Warn("restore draft", zap.Error(err))
		}
		draft = loaded
	}

	m := Model{
		api:       api,
		opts:      opts,
		title:     DefaultTitle,
		debouncer: debounce.New(opts.SearchWait),
		pending:   make(chan searchMsg, 1),
		search:    newInput("Search", 30),
		name:      newInput("Encounter name", 30),
		notes:     newInput("Notes", 30),
		draft:     draft,
		seq:       1,
	}
	m.name.SetValue(draft.Name)
	m.notes.SetValue(draft.Notes)
	m.search.Focus()

	m.grid = table.New(table.WithHeight(10), table.WithStyles(tableStyles()))
	m.summary = table.New(table.WithHeight(8), table.WithStyles(tableStyles()))
	m.refreshGrid()
	m.refreshSummary()
	return m
}

func newInput(placeholder string, width int) textinput.Model {
	input := textinput.New()
	input.Placeholder = placeholder
	input.Width = width
	input.TextStyle = normalStyle
	input.Cursor.Style = highlightStyle
	input.Prompt = "> "
	return input
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.fetch(m.seq, strings.TrimSpace(m.search.Value())), m.waitForSearch())
}

// waitForSearch delivers the next debounced search term to the program.
func (m Model) waitForSearch() tea.Cmd {
	pending := m.pending
	return func() tea.Msg {
		return <-pending
	}
}

func (m Model) fetch(seq uint64, term string) tea.Cmd {
	api, ctx := m.api, m.opts.Context
	return func() tea.Msg {
		records, err := api.SearchStarships(ctx, term)
		return starshipsMsg{seq: seq, records: records, err: err}
	}
}

func (m Model) create() tea.Cmd {
	api, ctx, encounter := m.api, m.opts.Context, m.draft.Encounter()
	return func() tea.Msg {
		record, err := api.CreateEncounter(ctx, encounter)
		if err != nil {
			return createdMsg{err: err}
		}
		return createdMsg{record: record, url: api.DetailURL(record)}
	}
}

// queueSearch restarts the quiet window; only the last term typed within
// it is searched for.
func (m *Model) queueSearch() {
	m.seq++
	msg := searchMsg{seq: m.seq, term: strings.TrimSpace(m.search.Value())}
	pending := m.pending
	m.debouncer.Trigger(func() {
		select {
		case <-pending:
		default:
		}
		pending <- msg
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case searchMsg:
		m.loading = true
		return m, tea.Batch(m.fetch(msg.seq, msg.term), m.waitForSearch())

	case starshipsMsg:
		return m.applyStarships(msg), nil

	case createdMsg:
		m.creating = false
		if msg.err != nil {
			m.ErrMsg = msg.err.Error()
			return m, nil
		}
		m.ErrMsg = ""
		m.CreatedURL = msg.url
		m.draft = NewDraft()
		m.name.SetValue("")
		m.notes.SetValue("")
		m.refreshSummary()
		m.removeDraft()
		return m, CopyToClipboard(msg.url)

	case ClipboardMsg:
		m.URLCopied = msg.Success
		m.ClipboardErr = ""
		if msg.Err != nil {
			m.ClipboardErr = msg.Err.Error()
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.debouncer.Stop()
			return m, tea.Quit
		case "tab", "shift+tab":
			step := focusArea(1)
			if msg.String() == "shift+tab" {
				step = focusCount - 1
			}
			m.setFocus((m.focus + step) % focusCount)
			return m, nil
		case "ctrl+s":
			return m.submit()
		case "enter":
			switch m.focus {
			case focusStarships:
				m.addShip(m.grid.Cursor())
				return m, nil
			case focusSummary:
				m.removeShip(m.summary.Cursor())
				return m, nil
			case focusNotes:
				return m.submit()
			}
		}
	}

	var cmd tea.Cmd
	switch m.focus {
	case focusSearch:
		before := m.search.Value()
		m.search, cmd = m.search.Update(msg)
		if m.search.Value() != before {
			m.queueSearch()
		}
	case focusStarships:
		m.grid, cmd = m.grid.Update(msg)
	case focusSummary:
		m.summary, cmd = m.summary.Update(msg)
	case focusName:
		m.name, cmd = m.name.Update(msg)
		if m.name.Value() != m.draft.Name {
			m.draft.Name = m.name.Value()
			m.saveDraft()
		}
	case focusNotes:
		m.notes, cmd = m.notes.Update(msg)
		if m.notes.Value() != m.draft.Notes {
			m.draft.Notes = m.notes.Value()
			m.saveDraft()
		}
	}
	return m, cmd
}

// applyStarships shows a search response unless a newer one is already
// on screen.
func (m Model) applyStarships(msg starshipsMsg) Model {
	if msg.seq <= m.applied {
		m.opts.Logger.Debug("dropping stale search response", zap.Uint64("seq", msg.seq), zap.Uint64("applied", m.applied))
		return m
	}
	m.applied = msg.seq
	if msg.seq >= m.seq {
		m.loading = false
	}
	if msg.err != nil {
		m.ErrMsg = msg.err.Error()
		return m
	}
	m.ErrMsg = ""

	if object.DeepEqual(m.starships, msg.records) {
		return m
	}
	if changes, err := object.Diff(byName(m.starships), byName(msg.records)); err == nil {
		m.opts.Logger.Debug("starships changed", zap.Int("changes", len(changes)), zap.Int("results", len(msg.records)))
	}
	m.starships = msg.records
	m.refreshGrid()
	return m
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if len(m.draft.Ships) == 0 || m.creating {
		return m, nil
	}
	if err := m.draft.Encounter().Validate(); err != nil {
		m.ErrMsg = err.Error()
		return m, nil
	}
	m.creating = true
	m.CreatedURL = ""
	m.URLCopied = false
	return m, m.create()
}

func (m *Model) addShip(index int) {
	if index < 0 || index >= len(m.starships) {
		return
	}
	m.draft.Ships = append(m.draft.Ships, ShipFromRecord(m.starships[index]))
	m.refreshSummary()
	m.saveDraft()
}

func (m *Model) removeShip(index int) {
	if index < 0 || index >= len(m.draft.Ships) {
		return
	}
	m.draft.Ships = append(m.draft.Ships[:index:index], m.draft.Ships[index+1:]...)
	m.refreshSummary()
	m.saveDraft()
}

func (m *Model) saveDraft() {
	if m.opts.DraftFile == "" {
		return
	}
	if err := SaveDraft(m.opts.DraftFile, m.draft); err != nil {
		m.opts.Logger.Warn("save draft", zap.Error(err))
	}
}

func (m *Model) removeDraft() {
	if m.opts.DraftFile == "" {
		return
	}
	if err := os.Remove(m.opts.DraftFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		m.opts.Logger.Warn("remove draft", zap.Error(err))
	}
}

func (m *Model) setFocus(f focusArea) {
	m.focus = f
	m.search.Blur()
	m.name.Blur()
	m.notes.Blur()
	m.grid.Blur()
	m.summary.Blur()
	switch f {
	case focusSearch:
		m.search.Focus()
	case focusStarships:
		m.grid.Focus()
	case focusSummary:
		m.summary.Focus()
	case focusName:
		m.name.Focus()
	case focusNotes:
		m.notes.Focus()
	}
}

func (m *Model) refreshGrid() {
	t := rtable.Render(m.starships, StarshipColumns(), "name")
	m.grid.SetRows(nil)
	m.grid.SetColumns(t.BubbleColumns(28))
	m.grid.SetRows(t.BubbleRows())
}

func (m *Model) refreshSummary() {
	t := rtable.Render(m.draft.Records(), SummaryColumns(), "")
	m.summary.SetRows(nil)
	m.summary.SetColumns(t.BubbleColumns(24))
	m.summary.SetRows(t.BubbleRows())
}

// StarshipColumns are the columns of the starships grid.
func StarshipColumns() []rtable.Column {
	return []rtable.Column{
		rtable.Field("name", "Name"),
		rtable.Field("model", "Model"),
		rtable.Computed("", func(rowKey any, record object.Mapping, index int) any {
			return "[ Add ]"
		}),
	}
}

// SummaryColumns are the columns of the encounter summary. Rows are keyed
// by position so the same starship can be added more than once.
func SummaryColumns() []rtable.Column {
	return []rtable.Column{
		rtable.Field("name", "Name"),
		rtable.Computed("", func(rowKey any, record object.Mapping, index int) any {
			return "[ Remove ]"
		}),
	}
}

func byName(records []object.Mapping) object.Mapping {
	out := make(object.Mapping, len(records))
	for i, record := range records {
		key := rtable.Text(record["name"])
		if key == "" {
			key = rtable.Text(i)
		}
		out[key] = record
	}
	return out
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title) + "\n\n")

	left := m.pane(focusStarships, m.starshipsView())
	right := m.pane(focusSummary, m.summaryView())
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right) + "\n")

	if m.CreatedURL != "" {
		b.WriteString(successStyle.Render("Encounter created: "+m.CreatedURL) + "\n")
		if m.URLCopied {
			b.WriteString(successStyle.Render("URL copied to clipboard") + "\n")
		} else if m.ClipboardErr != "" {
			b.WriteString(errorStyle.Render("Copy error: "+m.ClipboardErr) + "\n")
		}
	}
	if m.ErrMsg != "" {
		b.WriteString(errorStyle.Render(m.ErrMsg) + "\n")
	}

	b.WriteString("\n" + mutedStyle.Render("tab/shift+tab move • enter add/remove • ctrl+s create • esc quit"))
	return b.String()
}

func (m Model) pane(area focusArea, body string) string {
	if m.focus == area || (area == focusStarships && m.focus == focusSearch) ||
		(area == focusSummary && (m.focus == focusName || m.focus == focusNotes)) {
		return activePane.Render(body)
	}
	return paneStyle.Render(body)
}

func (m Model) starshipsView() string {
	var b strings.Builder
	b.WriteString(subtitleStyle.Render("Starships") + "\n")
	b.WriteString(m.search.View() + "\n")
	switch {
	case m.loading && len(m.starships) == 0:
		b.WriteString(infoStyle.Render("Loading starships…"))
	case len(m.starships) == 0:
		b.WriteString(infoStyle.Render("No starships found"))
	default:
		b.WriteString(m.grid.View())
	}
	return b.String()
}

func (m Model) summaryView() string {
	var b strings.Builder
	b.WriteString(subtitleStyle.Render("Encounter Summary") + "\n")
	if len(m.draft.Ships) > 0 {
		b.WriteString(m.summary.View() + "\n")
	}
	b.WriteString(m.name.View() + "\n")
	b.WriteString(m.notes.View() + "\n\n")

	switch {
	case m.creating:
		b.WriteString(infoStyle.Render("Creating encounter…"))
	case len(m.draft.Ships) > 0:
		b.WriteString(buttonStyle.Render("Create Encounter"))
	default:
		b.WriteString(mutedStyle.Render("Add starships to encounter to create"))
	}
	return b.String()
}
