// Package downloader retrieves usage documents. It dispatches on the URI
// scheme (http, https, file) and layers timeouts and retries on top in Fetcher.
package downloader

import (
	"context"
	"io"
)

// Downloader manages the retrieval of resources from various URIs.
type Downloader interface {
	// Download retrieves the resource at the specified URI and writes the
	// decoded body to w.
	Download(ctx context.Context, uri string, w io.Writer) error
}

// SchemeHandler defines the interface for handling specific URI schemes (e.g., "http://").
type SchemeHandler interface {
	// Download executes the download for a URI supported by this handler.
	Download(ctx context.Context, uri string, w io.Writer) error
	// Schemes returns the list of URI schemes (e.g., ["http", "https"]) this handler can process.
	Schemes() []string
}
