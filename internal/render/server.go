package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/zjrosen/pumlview/internal/log"
)

// Headers the PlantUML server sets on diagrams with errors.
const (
	headerDiagramError     = "X-PlantUML-Diagram-Error"
	headerDiagramErrorLine = "X-PlantUML-Diagram-Error-Line"
)

const maxResponseBytes = 32 << 20

// ServerBackend renders through a PlantUML HTTP server.
type ServerBackend struct {
	baseURL *url.URL
	client  *http.Client
}

// NewServerBackend targets the server at baseURL, for example
// "https://www.plantuml.com/plantuml". A nil client gets a 30s timeout.
func NewServerBackend(baseURL string, client *http.Client) (*ServerBackend, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("server backend: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server backend: unsupported url %q", baseURL)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &ServerBackend{baseURL: u, client: client}, nil
}

func (b *ServerBackend) Name() string { return "server:" + b.baseURL.Host }

// URL returns the GET url for source in format.
func (b *ServerBackend) URL(source string, format Format) (string, error) {
	encoded, err := Encode(source)
	if err != nil {
		return "", err
	}
	return b.baseURL.JoinPath(serverPath(format), encoded).String(), nil
}

// The server only has one text endpoint and it produces unicode art.
func serverPath(format Format) string {
	if format.IsText() {
		return "txt"
	}
	return string(format)
}

// Render fetches the diagram.
func (b *ServerBackend) Render(ctx context.Context, source string, format Format) (*Output, error) {
	u, err := b.URL(source, format)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("requesting diagram: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading diagram: %w", err)
	}
	log.Debug(log.CatRender, "plantuml server responded", "status", resp.StatusCode, "bytes", len(body))

	if msg := resp.Header.Get(headerDiagramError); msg != "" {
		line, _ := strconv.Atoi(resp.Header.Get(headerDiagramErrorLine))
		return nil, &DiagnosticError{Message: msg, Line: line}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("plantuml server: " + resp.Status)
	}
	return &Output{Format: format, Data: body}, nil
}
