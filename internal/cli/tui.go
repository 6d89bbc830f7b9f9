package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/graphnist/graphnist/pkg/topology"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// DevicePickerModel - Interactive device selection
// =============================================================================

// DevicePickerModel is the bubbletea model for picking a subset of devices.
// Devices are toggled with space and confirmed with enter; q cancels.
type DevicePickerModel struct {
	Devices   []*topology.Device
	Checked   map[int]bool
	Cursor    int
	Confirmed bool
	Height    int
	Offset    int
}

// NewDevicePickerModel creates a picker with every device pre-selected.
func NewDevicePickerModel(devices []*topology.Device) DevicePickerModel {
	checked := make(map[int]bool, len(devices))
	for i := range devices {
		checked[i] = true
	}
	return DevicePickerModel{
		Devices: devices,
		Checked: checked,
		Cursor:  0,
		Height:  15,
		Offset:  0,
	}
}

// Picked returns the selected devices in their original order.
func (m DevicePickerModel) Picked() []*topology.Device {
	var picked []*topology.Device
	for i, d := range m.Devices {
		if m.Checked[i] {
			picked = append(picked, d)
		}
	}
	return picked
}

func (m DevicePickerModel) Init() tea.Cmd {
	return nil
}

func (m DevicePickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Devices)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case " ":
			m.Checked[m.Cursor] = !m.Checked[m.Cursor]
		case "a":
			for i := range m.Devices {
				m.Checked[i] = true
			}
		case "n":
			for i := range m.Devices {
				m.Checked[i] = false
			}
		case "enter":
			m.Confirmed = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m DevicePickerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Devices"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ␣ toggle  a all  n none  ⏎ confirm  q cancel"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Devices) {
		end = len(m.Devices)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		d := m.Devices[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		check := " "
		if m.Checked[i] {
			check = "✓"
		}

		rows = append(rows, []string{
			cursor,
			check,
			d.DisplayName(),
			d.Type.String(),
			fmt.Sprintf("%.0f, %.0f", d.Pos.X, d.Pos.Y),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "", "Device", "Type", "Position").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			actualIdx := m.Offset + row
			if actualIdx == m.Cursor {
				return listSelectedStyle
			}
			if actualIdx < len(m.Devices) && !m.Checked[actualIdx] {
				return listDimStyle
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n")

	selected := 0
	for _, ok := range m.Checked {
		if ok {
			selected++
		}
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("%d of %d selected", selected, len(m.Devices))))
	b.WriteString("\n")

	return b.String()
}
