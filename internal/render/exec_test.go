package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakePlantUML writes a shell script standing in for the plantuml launcher.
func fakePlantUML(t *testing.T, body string) []string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script backend not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "plantuml")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return []string{"/bin/sh", path}
}

func TestExecBackend_Args(t *testing.T) {
	b, err := NewExecBackend([]string{"java", "-jar", "plantuml.jar"})
	require.NoError(t, err)
	require.Equal(t, []string{"-jar", "plantuml.jar", "-pipe", "-tsvg", "-charset", "UTF-8"}, b.Args(FormatSVG))
	require.Equal(t, "exec:java", b.Name())

	_, err = NewExecBackend(nil)
	require.Error(t, err)
}

func TestExecBackend_PipesSource(t *testing.T) {
	b, err := NewExecBackend(fakePlantUML(t, `cat`))
	require.NoError(t, err)

	out, err := b.Render(context.Background(), "@startuml\nA -> B\n@enduml\n", FormatUTXT)
	require.NoError(t, err)
	require.Equal(t, FormatUTXT, out.Format)
	require.Equal(t, "@startuml\nA -> B\n@enduml\n", out.Text())
}

func TestExecBackend_SyntaxErrorBecomesDiagnostic(t *testing.T) {
	b, err := NewExecBackend(fakePlantUML(t, `cat >/dev/null
printf 'ERROR\n2\nSyntax Error?\n' >&2
exit 200`))
	require.NoError(t, err)

	_, err = b.Render(context.Background(), "@startuml\nA -> \n@enduml\n", FormatUTXT)
	require.ErrorIs(t, err, ErrDiagram)

	var diag *DiagnosticError
	require.True(t, errors.As(err, &diag))
	require.Equal(t, 2, diag.Line)
	require.Equal(t, "Syntax Error?", diag.Message)
}

func TestExecBackend_TextFormatFallsBackToStdout(t *testing.T) {
	b, err := NewExecBackend(fakePlantUML(t, `cat >/dev/null
echo "bad diagram"
exit 1`))
	require.NoError(t, err)

	_, err = b.Render(context.Background(), "x", FormatTXT)
	require.ErrorIs(t, err, ErrDiagram)
	require.Equal(t, "bad diagram", Diagnostic(err))
}

func TestExecBackend_MissingBinary(t *testing.T) {
	b, err := NewExecBackend([]string{filepath.Join(t.TempDir(), "no-such-plantuml")})
	require.NoError(t, err)

	_, err = b.Render(context.Background(), "x", FormatSVG)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrDiagram)
}

func TestExecBackend_ContextCancel(t *testing.T) {
	b, err := NewExecBackend(fakePlantUML(t, `exec sleep 5`))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = b.Render(ctx, "x", FormatSVG)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestParseStderr(t *testing.T) {
	require.Nil(t, parseStderr(""))
	require.Equal(t, &DiagnosticError{Message: "java not found"}, parseStderr("java not found\n"))
	require.Equal(t, &DiagnosticError{Message: "syntax error", Line: 7}, parseStderr("ERROR\n7\n"))
	require.Equal(t, &DiagnosticError{Message: "No @startuml found"}, parseStderr("ERROR\nNo @startuml found"))
}
