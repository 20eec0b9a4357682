package encounters

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"

	"holonet.gg/v1/encounter-builder/src/debounce"
	"holonet.gg/v1/encounter-builder/src/object"
)

// Encounter is what the create endpoint accepts. Mobs are starship ids.
type Encounter struct {
	Name  string
	Notes string
	Mobs  []int
}

// Ship is a starship picked into the working encounter.
type Ship struct {
	ID    int    `msgpack:"id"`
	Name  string `msgpack:"name"`
	Model string `msgpack:"model"`
}

// Draft is the working selection, persisted between runs.
type Draft struct {
	ID    string `msgpack:"id"`
	Name  string `msgpack:"name"`
	Notes string `msgpack:"notes"`
	Ships []Ship `msgpack:"ships"`
}

type ClipboardMsg struct {
	Success bool
	Err     error
}

type searchMsg struct {
	seq  uint64
	term string
}

type starshipsMsg struct {
	seq     uint64
	records []object.Mapping
	err     error
}

type createdMsg struct {
	record object.Mapping
	url    string
	err    error
}

type focusArea int

const (
	focusSearch focusArea = iota
	focusStarships
	focusSummary
	focusName
	focusNotes
	focusCount
)

// Model is the encounter builder page.
type Model struct {
	api       *API
	opts      Options
	title     string
	debouncer *debounce.Debouncer
	pending   chan searchMsg
	search    textinput.Model
	name      textinput.Model
	notes     textinput.Model
	grid      table.Model
	summary   table.Model
	starships []object.Mapping
	draft     Draft
	focus     focusArea
	seq       uint64
	applied   uint64
	loading   bool
	creating  bool

	CreatedURL   string
	URLCopied    bool
	ClipboardErr string
	ErrMsg       string
}
