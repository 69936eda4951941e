package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cta-observatory/zfits-runsource/cli/views"
)

// InspectModel is a Bubble Tea model for inspect views.
type InspectModel struct {
	viewType string
	data     any
	width    int
	height   int
	quitting bool
}

// NewInspectModel creates a new inspect model.
func NewInspectModel(viewType string, data any) InspectModel {
	return InspectModel{
		viewType: viewType,
		data:     data,
	}
}

// Init implements tea.Model.
func (m InspectModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m InspectModel) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.viewType {
	case "inspect_file":
		content = m.renderInspectFile()
	case "inspect_run":
		content = m.renderInspectRun()
	default:
		content = fmt.Sprintf("Unknown view type: %s", m.viewType)
	}

	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return content + "\n" + help
}

func (m InspectModel) renderInspectFile() string {
	data, ok := m.data.(*views.InspectFileView)
	if !ok {
		return "Invalid data type for inspect_file"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Chunk File Details"))
	b.WriteString("\n\n")

	rows := [][]string{
		{"Path", data.Path},
		{"Obs ID", fmt.Sprintf("%d", data.ObsID)},
		{"SB ID", fmt.Sprintf("%d", data.SBID)},
		{"Tel ID", fmt.Sprintf("%d", data.TelID)},
		{"Telescope", data.TelName},
		{"Data Source", data.DataSource},
		{"Chunk", fmt.Sprintf("%d", data.ChunkID)},
		{"Camera", data.CameraName},
		{"Pixels", fmt.Sprintf("%d", data.NumPixels)},
		{"Samples", fmt.Sprintf("%d", data.NumSamples)},
		{"Obs Start", data.ObsStart},
		{"Events", fmt.Sprintf("%d", data.EventCount)},
		{"First Event ID", fmt.Sprintf("%d", data.FirstEventID)},
		{"Last Event ID", fmt.Sprintf("%d", data.LastEventID)},
	}

	if data.Convention != "" {
		rows = append(rows, []string{"Convention", data.Convention})
	}

	for _, row := range rows {
		label := LabelStyle.Render(row[0] + ":")
		value := ValueStyle.Render(row[1])
		b.WriteString(fmt.Sprintf("%s %s\n", label, value))
	}

	return BoxStyle.Render(b.String())
}

func (m InspectModel) renderInspectRun() string {
	data, ok := m.data.(*views.InspectRunView)
	if !ok {
		return "Invalid data type for inspect_run"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Run Details"))
	b.WriteString("\n\n")

	rows := [][]string{
		{"Obs ID", fmt.Sprintf("%d", data.ObsID)},
		{"SB ID", fmt.Sprintf("%d", data.SBID)},
		{"Tel ID", fmt.Sprintf("%d", data.TelID)},
		{"Telescope", data.TelName},
		{"Camera", data.CameraName},
		{"Convention", data.Convention},
		{"Data Sources", strings.Join(data.DataSources, ", ")},
		{"Events", fmt.Sprintf("%d", data.EventCount)},
		{"First Event ID", fmt.Sprintf("%d", data.FirstEventID)},
		{"Last Event ID", fmt.Sprintf("%d", data.LastEventID)},
		{"First Event Time", data.FirstEventTime},
		{"Last Event Time", data.LastEventTime},
	}

	for _, row := range rows {
		label := LabelStyle.Render(row[0] + ":")
		value := ValueStyle.Render(row[1])
		b.WriteString(fmt.Sprintf("%s %s\n", label, value))
	}

	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Gaps:"),
		CountStyle(int64(data.GapWarnings)).Render(fmt.Sprintf("%d (%d missing)", data.GapWarnings, data.MissingEvents))))
	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Duplicates:"),
		CountStyle(int64(data.DuplicateWarnings)).Render(fmt.Sprintf("%d", data.DuplicateWarnings))))

	if len(data.Files) > 0 {
		b.WriteString("\n")
		b.WriteString(LabelStyle.Render("Files:\n"))
		for _, path := range data.Files {
			b.WriteString(fmt.Sprintf("  • %s\n", ValueStyle.Render(path)))
		}
	}

	return BoxStyle.Render(b.String())
}

// keyMap defines key bindings.
type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// RunInspectTUI runs the inspect TUI.
func RunInspectTUI(viewType string, data any) error {
	model := NewInspectModel(viewType, data)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderInspectStatic renders inspect data without full TUI (for fallback).
func RenderInspectStatic(viewType string, data any) string {
	model := NewInspectModel(viewType, data)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
