package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Mutable
type manager struct {
	handlers map[string]SchemeHandler
}

// NewDefaultDownloader returns a Downloader for http, https and file URIs.
// A URI without a scheme is read as a local path.
func NewDefaultDownloader() Downloader {
	return NewDownloader(http.DefaultClient)
}

// NewDownloader is NewDefaultDownloader with a caller-supplied HTTP client.
func NewDownloader(client *http.Client) Downloader {
	m := &manager{
		handlers: make(map[string]SchemeHandler),
	}
	m.Register(NewHTTPHandler(client))
	m.Register(NewFileHandler())
	return m
}

func (m *manager) Register(h SchemeHandler) {
	for _, scheme := range h.Schemes() {
		m.handlers[scheme] = h
	}
}

func (m *manager) Download(ctx context.Context, uri string, w io.Writer) error {
	u, err := url.Parse(uri)
	if err != nil {
		return fmt.Errorf("invalid uri: %w", err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme == "" {
		scheme = "file"
	}
	handler, ok := m.handlers[scheme]
	if !ok {
		return fmt.Errorf("unsupported scheme: %s", scheme)
	}

	return handler.Download(ctx, uri, w)
}

// ResolveURL resolves ref against base. An empty base leaves ref untouched.
func ResolveURL(base, ref string) (string, error) {
	if base == "" {
		return ref, nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid uri: %w", err)
	}
	return b.ResolveReference(r).String(), nil
}
