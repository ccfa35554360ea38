package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/zjrosen/pumlview/internal/log"
)

// DefaultCommand runs the plantuml launcher from PATH.
var DefaultCommand = []string{"plantuml"}

// ExecBackend pipes source through a local PlantUML process.
type ExecBackend struct {
	command []string
}

// NewExecBackend creates a backend running command, for example
// ["plantuml"] or ["java", "-jar", "/opt/plantuml.jar"].
func NewExecBackend(command []string) (*ExecBackend, error) {
	if len(command) == 0 || command[0] == "" {
		return nil, errors.New("exec backend: command is required")
	}
	return &ExecBackend{command: append([]string(nil), command...)}, nil
}

func (b *ExecBackend) Name() string { return "exec:" + b.command[0] }

// Args returns the full argument list used for format.
func (b *ExecBackend) Args(format Format) []string {
	args := append([]string(nil), b.command[1:]...)
	return append(args, "-pipe", "-t"+string(format), "-charset", "UTF-8")
}

// Render runs the process once. A non-zero exit is reported as a
// *DiagnosticError when PlantUML explained the failure.
func (b *ExecBackend) Render(ctx context.Context, source string, format Format) (*Output, error) {
	cmd := exec.CommandContext(ctx, b.command[0], b.Args(format)...) //nolint:gosec // G204: command comes from user config
	cmd.Stdin = strings.NewReader(source)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.WaitDelay = time.Second
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	log.Debug(log.CatRender, "plantuml exited", "cmd", b.command[0], "format", format,
		"duration", time.Since(start), "bytes", stdout.Len())

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if diag := parseStderr(stderr.String()); diag != nil {
			return nil, diag
		}
		if format.IsText() && stdout.Len() > 0 {
			return nil, &DiagnosticError{Message: strings.TrimSpace(stdout.String())}
		}
		return nil, fmt.Errorf("plantuml exited with code %d: %s", exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
	}
	if err != nil {
		return nil, fmt.Errorf("running plantuml: %w", err)
	}

	return &Output{Format: format, Data: stdout.Bytes()}, nil
}

// parseStderr reads PlantUML's pipe-mode error report:
//
//	ERROR
//	<line>
//	<message...>
func parseStderr(stderr string) *DiagnosticError {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return nil
	}
	if strings.TrimSpace(lines[0]) != "ERROR" {
		return &DiagnosticError{Message: strings.TrimSpace(stderr)}
	}
	diag := &DiagnosticError{Message: "syntax error"}
	rest := lines[1:]
	if len(rest) > 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(rest[0])); err == nil {
			diag.Line = n
			rest = rest[1:]
		}
	}
	if msg := strings.TrimSpace(strings.Join(rest, "\n")); msg != "" {
		diag.Message = msg
	}
	return diag
}
