package render

import (
	"fmt"
	"net/http"
	"time"

	"github.com/zjrosen/pumlview/internal/cachemanager"
)

// Backend kinds accepted by New.
const (
	KindExec   = "exec"
	KindServer = "server"
)

// Options selects and configures a backend.
type Options struct {
	Kind      string
	Command   []string
	ServerURL string
	Timeout   time.Duration
	CacheTTL  time.Duration
}

// New builds the backend described by opts, wrapped in a render cache when
// opts.CacheTTL is positive.
func New(opts Options) (Backend, error) {
	var (
		backend Backend
		err     error
	)
	switch opts.Kind {
	case KindExec, "":
		command := opts.Command
		if len(command) == 0 {
			command = DefaultCommand
		}
		backend, err = NewExecBackend(command)
	case KindServer:
		var client *http.Client
		if opts.Timeout > 0 {
			client = &http.Client{Timeout: opts.Timeout}
		}
		backend, err = NewServerBackend(opts.ServerURL, client)
	default:
		return nil, fmt.Errorf("unknown render backend %q", opts.Kind)
	}
	if err != nil {
		return nil, err
	}

	if opts.CacheTTL > 0 {
		cache := cachemanager.NewInMemoryCacheManager[string, *Output]("render", opts.CacheTTL, cachemanager.DefaultCleanupInterval)
		backend = NewCachedBackend(backend, cache, opts.CacheTTL)
	}
	return backend, nil
}
