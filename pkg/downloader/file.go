package downloader

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"

	"sunburst/pkg/archive"
)

// Immutable
type fileHandler struct{}

// NewFileHandler returns a SchemeHandler reading local files. Files ending in
// .gz or .zst are decompressed.
func NewFileHandler() SchemeHandler {
	return fileHandler{}
}

func (fileHandler) Schemes() []string {
	return []string{"file"}
}

func (fileHandler) Download(ctx context.Context, uri string, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return &FetchError{URL: uri, Err: err}
	}

	path := uri
	if u, err := url.Parse(uri); err == nil && u.Scheme == "file" {
		path = u.Path
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &FetchError{URL: uri, StatusCode: http.StatusNotFound, Status: "Not Found", Err: err}
		}
		return &FetchError{URL: uri, StatusCode: http.StatusForbidden, Status: "Forbidden", Err: err}
	}
	defer f.Close()

	body, err := archive.NewReader(f, archive.EncodingForName(path))
	if err != nil {
		return &ParseError{URL: uri, Err: err}
	}
	defer body.Close()

	if _, err := io.Copy(w, body); err != nil {
		return &FetchError{URL: uri, Err: err}
	}
	return nil
}
