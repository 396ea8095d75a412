// Package archive decodes compressed usage documents. Large filesystem
// trees compress well, so sources may serve them gzip or zstd encoded.
package archive

import (
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Encoding names a body compression format.
type Encoding string

const (
	Identity Encoding = "identity"
	Gzip     Encoding = "gzip"
	Zstd     Encoding = "zstd"
)

// AcceptEncoding is the Accept-Encoding header value advertising every
// encoding NewReader can decode.
const AcceptEncoding = "zstd, gzip"

// ParseEncoding maps a Content-Encoding header value to an Encoding.
// An empty header is Identity.
func ParseEncoding(header string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(header)) {
	case "", "identity":
		return Identity, nil
	case "gzip", "x-gzip":
		return Gzip, nil
	case "zstd":
		return Zstd, nil
	default:
		return Identity, fmt.Errorf("unsupported content encoding: %s", header)
	}
}

// EncodingForName guesses the encoding of a file from its extension.
func EncodingForName(name string) Encoding {
	switch {
	case strings.HasSuffix(name, ".gz"), strings.HasSuffix(name, ".tgz"):
		return Gzip
	case strings.HasSuffix(name, ".zst"):
		return Zstd
	default:
		return Identity
	}
}

// NewReader wraps r with a decoder for enc. Closing the result releases the
// decoder; it does not close r.
func NewReader(r io.Reader, enc Encoding) (io.ReadCloser, error) {
	switch enc {
	case Identity, "":
		return io.NopCloser(r), nil
	case Gzip:
		gzr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gzr, nil
	case Zstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return zstdCloser{zr}, nil
	default:
		return nil, fmt.Errorf("unsupported encoding: %s", enc)
	}
}

// zstd.Decoder.Close returns nothing, so it does not satisfy io.Closer.
type zstdCloser struct {
	*zstd.Decoder
}

func (z zstdCloser) Close() error {
	z.Decoder.Close()
	return nil
}
