package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := map[string]Name{
		"refresh":    Refresh,
		"  Refresh ": Refresh,
		"r":          Refresh,
		"read all":   ReadAll,
		"read   ALL": ReadAll,
		"read-all":   ReadAll,
		"accounts":   Accounts,
		"account":    Accounts,
		"quit":       Quit,
		"q":          Quit,
	}
	for input, want := range tests {
		got, ok := Parse(input)
		require.True(t, ok, input)
		assert.Equal(t, want, got, input)
	}

	_, ok := Parse("configure")
	assert.False(t, ok)
}

func typeText(m Model, s string) Model {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestEnterEmitsCommand(t *testing.T) {
	m := typeText(New(60, 10), "read all")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, CommandMsg(ReadAll), cmd())

	// Input is cleared after submit.
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestEnterReportsUnknown(t *testing.T) {
	m := typeText(New(60, 10), "frobnicate")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, UnknownMsg("frobnicate"), cmd())
}
