package page

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"holonet.gg/v1/encounter-builder/src/object"
)

// Route is what a page is mounted with: where it lives, the props handed
// to its root component and the hosted document it was served in.
type Route struct {
	Path     string
	Title    string
	Props    object.Mapping
	Document *Document
}

// RenderFunc builds a page's root component for a route.
type RenderFunc func(Route) tea.Model

// Mount wires a root component into the terminal and runs it until it
// quits or ctx is cancelled. It returns the final model.
func Mount(ctx context.Context, render RenderFunc, route Route, opts ...tea.ProgramOption) (tea.Model, error) {
	if render == nil {
		return nil, fmt.Errorf("mount %s: no root component", route.Path)
	}
	if route.Props == nil {
		route.Props = object.Mapping{}
	}
	route.Props = object.Extend(route.Document.PageData(), route.Props)

	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	model, err := tea.NewProgram(render(route), opts...).Run()
	if err != nil {
		return model, fmt.Errorf("mount %s: %w", route.Path, err)
	}
	return model, nil
}
