package domparse

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"codeberg.org/snonux/ankilex/internal/dictionary"
)

// Parse modes accepted by New
const (
	ModeInline  = "inline"
	ModeSurface = "surface"
	ModeRemote  = "remote"
	ModeAuto    = "auto"
)

// Options selects and configures an HTMLParser
type Options struct {
	Mode       string
	SurfaceURL string
	Timeout    time.Duration
	// Table backs the in-process surface
	Table      *Table
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// New returns the HTMLParser for the configured mode
func New(opts Options) (dictionary.HTMLParser, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	mode := strings.ToLower(strings.TrimSpace(opts.Mode))
	if mode == "" || mode == ModeAuto {
		mode = ModeInline
		if opts.SurfaceURL != "" {
			mode = ModeRemote
		}
	}

	switch mode {
	case ModeInline:
		return NewInlineParser(logger), nil

	case ModeSurface:
		table := opts.Table
		return NewDelegatingParser(func() (Transport, error) {
			if table == nil {
				return nil, errors.New("no parser table configured")
			}
			return StartSurface(table, logger.Named("surface")), nil
		}, opts.Timeout, logger), nil

	case ModeRemote:
		if opts.SurfaceURL == "" {
			return nil, fmt.Errorf("parser mode %q requires a surface URL", ModeRemote)
		}
		url, client := opts.SurfaceURL, opts.HTTPClient
		return NewDelegatingParser(func() (Transport, error) {
			return NewRemoteTransport(url, client), nil
		}, opts.Timeout, logger), nil

	default:
		return nil, fmt.Errorf("unknown parser mode: %s", opts.Mode)
	}
}
