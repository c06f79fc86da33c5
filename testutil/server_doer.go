// Package testutil holds the fakes and HTTP helpers shared by the package tests.
package testutil

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"

	"github.com/meza/vintage-story-mod-manager/internal/httpclient"
)

// ServerDoer sends every request to one test server whatever host it names.
// Paths and queries are kept and prefixed with the path of the server URL.
// It remembers the rewritten URLs so tests can assert on them.
type ServerDoer struct {
	target *url.URL
	next   httpclient.Doer

	mu   sync.Mutex
	seen []string
}

// RouteTo points requests at server using the server's own client.
func RouteTo(server *httptest.Server) *ServerDoer {
	doer, err := NewServerDoer(server.URL, server.Client())
	if err != nil {
		panic(err)
	}
	return doer
}

func NewServerDoer(serverURL string, next httpclient.Doer) (*ServerDoer, error) {
	if next == nil {
		return nil, errors.New("testutil: no doer to forward to")
	}
	target, err := url.Parse(serverURL)
	if err != nil {
		return nil, err
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, errors.New("testutil: server url needs a scheme and a host")
	}
	return &ServerDoer{target: target, next: next}, nil
}

func (d *ServerDoer) Do(req *http.Request) (*http.Response, error) {
	routed := req.Clone(req.Context())
	routed.URL.Scheme = d.target.Scheme
	routed.URL.Host = d.target.Host
	routed.Host = d.target.Host
	if prefix := strings.TrimRight(d.target.Path, "/"); prefix != "" {
		routed.URL.Path = prefix + routed.URL.Path
		routed.URL.RawPath = ""
	}

	d.mu.Lock()
	d.seen = append(d.seen, routed.URL.RequestURI())
	d.mu.Unlock()

	return d.next.Do(routed)
}

// Requests lists the path and query of every request sent so far.
func (d *ServerDoer) Requests() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.seen...)
}
