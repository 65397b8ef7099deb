package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Mohsinsiddi/w3pilot/internal/chain"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrNothingToPick is returned by Pick for an empty list.
var ErrNothingToPick = errors.New("no items to pick from")

// PickerItem is one entry in the interactive picker.
type PickerItem struct {
	Label    string
	SubLabel string // dimmed, e.g. chain id
	Value    string // returned on selection
}

// ChainItems lists chains for Pick, marking current with a dot. Values are
// chain slugs.
func ChainItems(chains []chain.Config, current int64) []PickerItem {
	items := make([]PickerItem, 0, len(chains))
	for _, c := range chains {
		label := c.DisplayName
		if c.ChainID == current {
			label += " ●"
		}
		sub := "id " + strconv.FormatInt(c.ChainID, 10)
		if c.IsTestnet {
			sub += "  testnet"
		}
		items = append(items, PickerItem{Label: label, SubLabel: sub, Value: c.Name})
	}
	return items
}

type pickerModel struct {
	title    string
	items    []PickerItem
	cursor   int
	selected *PickerItem
	quitting bool
}

func newPicker(title string, items []PickerItem) pickerModel {
	return pickerModel{title: title, items: items}
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = len(m.items) - 1
	case "enter", " ":
		item := m.items[m.cursor]
		m.selected = &item
		return m, tea.Quit
	}
	return m, nil
}

func (m pickerModel) View() string {
	if m.quitting || m.selected != nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\n" + StyleTitle.Render("  "+m.title) + "\n")
	for i, item := range m.items {
		line := "    " + StyleValue.Render(item.Label)
		if item.SubLabel != "" {
			line += "  " + StyleMeta.Render(item.SubLabel)
		}
		if i == m.cursor {
			line = StyleSelected.Render("  ▸ " + item.Label + "  " + item.SubLabel)
		}
		sb.WriteString(line + "\n")
	}
	sb.WriteString("\n" + StyleMeta.Render("  [ ↑↓ / jk ] move   [ enter ] select   [ q ] cancel") + "\n")
	return sb.String()
}

// Pick runs the picker and returns the chosen Value, or "" when the user
// cancels.
func Pick(title string, items []PickerItem, opts ...tea.ProgramOption) (string, error) {
	if len(items) == 0 {
		return "", ErrNothingToPick
	}
	final, err := tea.NewProgram(newPicker(title, items), opts...).Run()
	if err != nil {
		return "", fmt.Errorf("picker: %w", err)
	}
	m := final.(pickerModel)
	if m.selected == nil {
		return "", nil
	}
	return m.selected.Value, nil
}
