package markdown

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

func TestNew(t *testing.T) {
	r, err := New(80, "")
	require.NoError(t, err)
	require.Equal(t, 80, r.Width())
	require.Equal(t, "dark", r.Style())
}

func TestRenderer_Render_Heading(t *testing.T) {
	r, err := New(80, "notty")
	require.NoError(t, err)

	result, err := r.Render("# Render failed\n\nline 2: Syntax Error?")
	require.NoError(t, err)

	plain := stripANSI(result)
	require.Contains(t, plain, "Render failed")
	require.Contains(t, plain, "line 2: Syntax Error?")
	require.False(t, strings.HasPrefix(result, "\n"))
	require.False(t, strings.HasSuffix(result, "\n"))
}

func TestRenderer_Render_CodeBlock(t *testing.T) {
	r, err := New(80, "light")
	require.NoError(t, err)

	result, err := r.Render(CodeBlock("@startuml\nA -> B\n@enduml"))
	require.NoError(t, err)
	require.Contains(t, stripANSI(result), "A -> B")
}

func TestRenderer_Resize(t *testing.T) {
	r, err := New(40, "notty")
	require.NoError(t, err)

	same, err := r.Resize(40)
	require.NoError(t, err)
	require.Same(t, r, same)

	wider, err := r.Resize(60)
	require.NoError(t, err)
	require.Equal(t, 60, wider.Width())
	require.Equal(t, "notty", wider.Style())

	var nilRenderer *Renderer
	fresh, err := nilRenderer.Resize(20)
	require.NoError(t, err)
	require.Equal(t, 20, fresh.Width())
}

func TestCodeBlock(t *testing.T) {
	require.Equal(t, "```\nA -> B\n```\n", CodeBlock("A -> B\n"))
	require.Equal(t, "````\nsee ```here```\n````\n", CodeBlock("see ```here```"))
}
