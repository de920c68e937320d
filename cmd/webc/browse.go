package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	wasmpack "github.com/wippyai/wasm-pack"
	"github.com/wippyai/wasm-pack/loader"
	"github.com/wippyai/wasm-pack/wai"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

var errNotTerminal = errors.New("browse needs an interactive terminal, use inspect instead")

func newBrowseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "browse PATH",
		Short: "Explore a package's commands and library interfaces interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return errNotTerminal
			}
			m := newBrowseModel(cmd.Context(), a.loader(), args[0])
			_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
}

type browseState int

const (
	stateList browseState = iota
	stateFunctions
)

// browseItem is a command or a library in the top-level list.
type browseItem struct {
	command *wasmpack.Command
	library *wasmpack.Library
}

func (it browseItem) String() string {
	if it.command != nil {
		return fmt.Sprintf("command  %s  %s", funcStyle.Render(it.command.Name),
			typeStyle.Render(fmt.Sprintf("%d bytes", len(it.command.Wasm))))
	}
	lib := it.library
	return fmt.Sprintf("library  %s  %s  %s", funcStyle.Render(lib.Module.Name),
		typeStyle.Render(lib.Module.Abi.String()),
		helpStyle.Render(fmt.Sprintf("%d functions", len(lib.Exports.Functions))))
}

type browseModel struct {
	ctx      context.Context
	loader   *loader.Loader
	err      error
	pkg      *wasmpack.Package
	path     string
	items    []browseItem
	filter   textinput.Model
	selected int
	state    browseState
}

type packageLoadedMsg struct {
	err error
	pkg *wasmpack.Package
}

func newBrowseModel(ctx context.Context, l *loader.Loader, path string) *browseModel {
	filter := textinput.New()
	filter.Placeholder = "filter functions"
	filter.Prompt = "/ "
	filter.Width = 40

	return &browseModel{
		ctx:    ctx,
		loader: l,
		path:   path,
		filter: filter,
		state:  stateList,
	}
}

func (m *browseModel) Init() tea.Cmd {
	return m.loadPackage
}

func (m *browseModel) loadPackage() tea.Msg {
	pkg, err := m.loader.Load(m.ctx, m.path)
	return packageLoadedMsg{pkg: pkg, err: err}
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state == stateList || !m.filter.Focused() {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateList && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateList && m.selected < len(m.items)-1 {
				m.selected++
			}

		case "enter":
			if m.state == stateList && m.selected < len(m.items) && m.items[m.selected].library != nil {
				m.state = stateFunctions
				m.filter.SetValue("")
				m.filter.Focus()
				return m, textinput.Blink
			}

		case "esc":
			if m.state == stateFunctions {
				m.state = stateList
				m.filter.Blur()
			}
			return m, nil
		}

	case packageLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.pkg = msg.pkg
		m.items = listItems(msg.pkg)
	}

	if m.state == stateFunctions {
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		return m, cmd
	}
	return m, nil
}

func listItems(pkg *wasmpack.Package) []browseItem {
	items := make([]browseItem, 0, len(pkg.Commands)+len(pkg.Libraries))
	for i := range pkg.Commands {
		items = append(items, browseItem{command: &pkg.Commands[i]})
	}
	for i := range pkg.Libraries {
		items = append(items, browseItem{library: &pkg.Libraries[i]})
	}
	return items
}

// matchingFunctions returns the functions whose name contains filter.
func matchingFunctions(iface *wai.Interface, filter string) []*wai.Function {
	var out []*wai.Function
	for _, f := range iface.Functions {
		if strings.Contains(f.Name, filter) {
			out = append(out, f)
		}
	}
	return out
}

func (m *browseModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if m.pkg == nil {
		return "Loading package..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.pkg.Metadata.String()))
	if m.pkg.Metadata.Description != "" {
		b.WriteString(" ")
		b.WriteString(m.pkg.Metadata.Description)
	}
	b.WriteString("\n\n")

	switch m.state {
	case stateList:
		if len(m.items) == 0 {
			b.WriteString("The package has no commands or libraries.\n")
		}
		for i, it := range m.items {
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> ") + it.String())
			} else {
				b.WriteString("  " + it.String())
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter open library • q quit"))

	case stateFunctions:
		lib := m.items[m.selected].library
		b.WriteString(fmt.Sprintf("%s exports\n\n", funcStyle.Render(lib.Module.Name)))
		b.WriteString(m.filter.View())
		b.WriteString("\n\n")
		for _, f := range matchingFunctions(lib.Exports, m.filter.Value()) {
			if f.Docs != "" {
				for _, doc := range strings.Split(f.Docs, "\n") {
					b.WriteString(helpStyle.Render("  /// " + doc))
					b.WriteString("\n")
				}
			}
			b.WriteString("  " + formatFunc(f) + "\n")
		}
		if len(lib.Imports) > 0 {
			b.WriteString("\nimports:\n")
			for _, imp := range lib.Imports {
				b.WriteString("  " + typeStyle.Render(imp.Name) + "\n")
			}
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("type to filter • esc back • ctrl+c quit"))
	}

	return b.String()
}

func formatFunc(f *wai.Function) string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.Name + ": " + typeStyle.Render(wai.TypeString(p.Type))
	}
	results := ""
	switch len(f.Results) {
	case 0:
	case 1:
		if f.Results[0].Name == "" {
			results = " -> " + typeStyle.Render(wai.TypeString(f.Results[0].Type))
			break
		}
		fallthrough
	default:
		named := make([]string, len(f.Results))
		for i, r := range f.Results {
			named[i] = r.Name + ": " + typeStyle.Render(wai.TypeString(r.Type))
		}
		results = " -> (" + strings.Join(named, ", ") + ")"
	}
	return funcStyle.Render(f.Name) + "(" + strings.Join(params, ", ") + ")" + results
}
