package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/tonimelisma/putiodown/internal/config"
	"github.com/tonimelisma/putiodown/internal/putio"
)

// metadataRequestTimeout bounds a single API call. Transfers use a client
// without an overall timeout and rely on the data timeout instead.
const metadataRequestTimeout = 30 * time.Second

// Session holds the authenticated clients for one command.
type Session struct {
	Client   *putio.Client // listing and account calls
	Transfer *putio.Client // file downloads
}

// NewSession builds API clients from the resolved config. A token from the
// environment wins over the saved token file.
func NewSession(cfg *config.Resolved, logger *slog.Logger) (*Session, error) {
	ts, err := tokenSource(cfg, logger)
	if err != nil {
		return nil, err
	}

	return newSessionWithToken(cfg, ts, logger), nil
}

func newSessionWithToken(cfg *config.Resolved, ts putio.TokenSource, logger *slog.Logger) *Session {
	connect, data := cfg.Timeouts()

	meta := newHTTPClient(connect, data)
	meta.Timeout = metadataRequestTimeout

	client := putio.NewClient(cfg.APIURL, meta, ts, logger, cfg.UserAgent)
	client.SetPerPage(cfg.PerPage)

	transfer := putio.NewClient(cfg.APIURL, newHTTPClient(connect, data), ts, logger, cfg.UserAgent)

	return &Session{Client: client, Transfer: transfer}
}

func tokenSource(cfg *config.Resolved, logger *slog.Logger) (putio.TokenSource, error) {
	if cfg.Token != "" {
		logger.Debug("using token from environment", slog.String("var", config.EnvToken))
		return putio.StaticToken(cfg.Token), nil
	}

	ts, err := putio.TokenSourceFromPath(config.DefaultTokenPath(), logger)
	if err != nil {
		if errors.Is(err, putio.ErrNotLoggedIn) {
			return nil, errLoginHint
		}

		return nil, fmt.Errorf("loading token: %w", err)
	}

	return ts, nil
}

// newHTTPClient returns a client whose dial is bounded by connect and whose
// wait for response headers is bounded by data.
func newHTTPClient(connect, data time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: connect}).DialContext
	transport.TLSHandshakeTimeout = connect
	transport.ResponseHeaderTimeout = data

	return &http.Client{Transport: transport}
}
