package editorview

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/pumlview/internal/document"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestNumbered(t *testing.T) {
	require.Equal(t, "1 @startuml\n2 A -> B\n3 @enduml", Numbered("@startuml\nA -> B\n@enduml\n"))
	require.Equal(t, "1 ", Numbered(""))
	require.Equal(t, "1     x", Numbered("\tx"))

	text := strings.Repeat("x\n", 10)
	lines := strings.Split(Numbered(text), "\n")
	require.Len(t, lines, 10)
	require.Equal(t, " 1 x", lines[0])
	require.Equal(t, "10 x", lines[9])
}

func TestModel_SyncFollowsDocumentVersion(t *testing.T) {
	doc := document.New("/tmp/a.puml", "@startuml\n@enduml\n", nil)
	m := New(doc).SetSize(40, 5)
	require.Contains(t, m.View(), "1 @startuml")

	doc.SetText("@startuml\nBob -> Alice\n@enduml\n")
	require.NotContains(t, m.View(), "Bob", "view is stale until synced")

	m = m.Sync()
	require.Contains(t, m.View(), "2 Bob -> Alice")
}

func TestModel_Scrolls(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 20; i++ {
		b.WriteString("line\n")
	}
	doc := document.New("/tmp/long.puml", b.String(), nil)
	m := New(doc).SetSize(20, 5)
	require.Contains(t, m.View(), " 1 line")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	require.NotContains(t, m.View(), " 1 line")
	require.Contains(t, m.View(), " 2 line")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyPgDown})
	require.Greater(t, m.ScrollPercent(), 0.0)
}
