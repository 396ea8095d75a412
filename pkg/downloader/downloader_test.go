package downloader

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/klauspost/compress/zstd"
)

const usageDoc = `{"labels":["Root","usr"],"parents":["","Root"],"values":[9000000,8000000]}`

func noWait() backoff.BackOff {
	return &backoff.ZeroBackOff{}
}

func TestHTTPDownload(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept-Encoding") == "" {
			t.Errorf("expected Accept-Encoding header")
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(usageDoc))
	}))
	defer ts.Close()

	d := NewDefaultDownloader()
	buf := &bytes.Buffer{}
	if err := d.Download(context.Background(), ts.URL, buf); err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if buf.String() != usageDoc {
		t.Errorf("Content mismatch, got %q", buf.String())
	}
}

func TestHTTPDownloadZstd(t *testing.T) {
	var compressed bytes.Buffer
	zw, _ := zstd.NewWriter(&compressed)
	zw.Write([]byte(usageDoc))
	zw.Close()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "zstd")
		w.Write(compressed.Bytes())
	}))
	defer ts.Close()

	buf := &bytes.Buffer{}
	if err := NewDefaultDownloader().Download(context.Background(), ts.URL, buf); err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if buf.String() != usageDoc {
		t.Errorf("Content mismatch, got %q", buf.String())
	}
}

func TestHTTPRedirect(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(usageDoc))
	}))
	defer ts.Close()

	rs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, ts.URL, http.StatusMovedPermanently)
	}))
	defer rs.Close()

	buf := &bytes.Buffer{}
	if err := NewDefaultDownloader().Download(context.Background(), rs.URL, buf); err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if buf.String() != usageDoc {
		t.Errorf("Content mismatch, got %q", buf.String())
	}
}

func TestHTTPStatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer ts.Close()

	err := NewDefaultDownloader().Download(context.Background(), ts.URL, &bytes.Buffer{})
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if fe.StatusCode != http.StatusNotFound || fe.Status != "Not Found" {
		t.Errorf("unexpected status %d %q", fe.StatusCode, fe.Status)
	}
	if fe.Temporary() {
		t.Error("404 must not be temporary")
	}
	if !strings.Contains(err.Error(), "Not Found") {
		t.Errorf("expected status text in error, got %q", err.Error())
	}
}

func TestUnsupportedScheme(t *testing.T) {
	err := NewDefaultDownloader().Download(context.Background(), "ftp://example.com", &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "unsupported scheme") {
		t.Errorf("Expected unsupported scheme error, got: %v", err)
	}
}

func TestFileDownload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fs.json")
	if err := os.WriteFile(path, []byte(usageDoc), 0644); err != nil {
		t.Fatal(err)
	}

	for _, uri := range []string{path, "file://" + path} {
		buf := &bytes.Buffer{}
		if err := NewDefaultDownloader().Download(context.Background(), uri, buf); err != nil {
			t.Fatalf("Download(%s) failed: %v", uri, err)
		}
		if buf.String() != usageDoc {
			t.Errorf("Content mismatch for %s", uri)
		}
	}
}

func TestFileMissing(t *testing.T) {
	err := NewDefaultDownloader().Download(context.Background(), filepath.Join(t.TempDir(), "nope.json"), &bytes.Buffer{})
	var fe *FetchError
	if !errors.As(err, &fe) || fe.StatusCode != http.StatusNotFound {
		t.Fatalf("expected not found FetchError, got %v", err)
	}
}

func TestResolveURL(t *testing.T) {
	got, err := ResolveURL("http://ha.local:8123/lovelace/0", "/local/fs.json")
	if err != nil {
		t.Fatal(err)
	}
	if got != "http://ha.local:8123/local/fs.json" {
		t.Errorf("unexpected resolution %q", got)
	}

	got, _ = ResolveURL("", "/config/www/fs.json")
	if got != "/config/www/fs.json" {
		t.Errorf("expected ref unchanged without base, got %q", got)
	}
}

func TestFetcherDecodesJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(usageDoc))
	}))
	defer ts.Close()

	f := NewFetcher(NewDefaultDownloader(), ts.URL)
	doc, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	m, ok := doc.(map[string]any)
	if !ok {
		t.Fatalf("expected object, got %T", doc)
	}
	if _, ok := m["labels"]; !ok {
		t.Error("expected labels key")
	}
}

func TestFetcherParseError(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("{labels: oops"))
	}))
	defer ts.Close()

	f := NewFetcher(NewDefaultDownloader(), ts.URL, WithRetries(3), WithBackOff(noWait))
	_, err := f.Fetch(context.Background())
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("parse errors must not be retried, got %d requests", hits.Load())
	}
}

func TestFetcherRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(usageDoc))
	}))
	defer ts.Close()

	f := NewFetcher(NewDefaultDownloader(), ts.URL, WithRetries(2), WithBackOff(noWait))
	if _, err := f.Fetch(context.Background()); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if hits.Load() != 3 {
		t.Errorf("expected 3 requests, got %d", hits.Load())
	}
}

func TestFetcherGivesUpAfterRetries(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	f := NewFetcher(NewDefaultDownloader(), ts.URL, WithRetries(1), WithBackOff(noWait))
	_, err := f.Fetch(context.Background())
	var fe *FetchError
	if !errors.As(err, &fe) || fe.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502 FetchError, got %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("expected 2 requests, got %d", hits.Load())
	}
}

func TestFetcherNoRetryOnClientError(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	f := NewFetcher(NewDefaultDownloader(), ts.URL, WithRetries(5), WithBackOff(noWait))
	if _, err := f.Fetch(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if hits.Load() != 1 {
		t.Errorf("expected a single request, got %d", hits.Load())
	}
}

func TestFetcherTimeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	f := NewFetcher(NewDefaultDownloader(), ts.URL, WithTimeout(50*time.Millisecond), WithRetries(0))
	start := time.Now()
	_, err := f.Fetch(context.Background())
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError on timeout, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("timeout did not bound the fetch")
	}
}
