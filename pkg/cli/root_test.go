package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sunburst/pkg/card"
	"sunburst/pkg/config"
	"sunburst/pkg/downloader"
)

func usageHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"labels":  []string{"root", "A", "Boot", "A"},
		"parents": []string{"", "root", "root", "root"},
		"values":  []float64{20000, 6000, 4000, 7000},
	})
}

// run executes the root command with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func noConfig(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.json")
}

func TestRootSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	subCmds := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		subCmds[sub.Name()] = true
	}
	for _, name := range []string{"show", "watch", "version"} {
		if !subCmds[name] {
			t.Errorf("root should have subcommand %q", name)
		}
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, "sunburst "+config.BuildVersion) {
		t.Errorf("unexpected version output %q", out)
	}
}

func TestShowTree(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(usageHandler))
	defer srv.Close()

	out, err := run(t, "show", "--config", noConfig(t), "--url", srv.URL)
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	for _, want := range []string{"root", "A", "A_1"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got %q", want, out)
		}
	}
	if strings.Contains(out, "Boot") {
		t.Errorf("expected Boot to be filtered out, got %q", out)
	}
}

func TestShowFromConfigFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(usageHandler))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"json_url": "/usage.json", "base_url": "` + srv.URL + `", "min_bytes": 6500}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "show", "--config", path)
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if !strings.Contains(out, "A") || strings.Contains(out, "A_1") {
		t.Errorf("expected only the 7000 byte entry, got %q", out)
	}
}

func TestShowPlotly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(usageHandler))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "chart.json")
	if _, err := run(t, "show", "--config", noConfig(t), "--url", srv.URL, "--format", "plotly", "--out", path); err != nil {
		t.Fatalf("show failed: %v", err)
	}

	var doc struct {
		Data []struct {
			Labels []string  `json:"labels"`
			Values []float64 `json:"values"`
		} `json:"data"`
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected figure file: %v", err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("invalid figure: %v", err)
	}
	if got := doc.Data[0].Labels; len(got) != 3 || got[2] != "A_1" {
		t.Errorf("unexpected labels %v", got)
	}
	if got := doc.Data[0].Values; got[1] != 0.006 || got[2] != 0.007 {
		t.Errorf("unexpected values %v", got)
	}
}

func TestShowMissingURL(t *testing.T) {
	_, err := run(t, "show", "--config", noConfig(t))
	var cfgErr *config.Error
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestShowUnknownFormat(t *testing.T) {
	if _, err := run(t, "show", "--format", "svg"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestShowFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := run(t, "show", "--config", noConfig(t), "--url", srv.URL)
	if !errors.Is(err, card.ErrNoData) {
		t.Fatalf("expected no data error, got %v", err)
	}
	var fetchErr *downloader.FetchError
	if !errors.As(err, &fetchErr) || fetchErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 fetch error, got %v", err)
	}
}

func TestWatchRejectsBadInterval(t *testing.T) {
	if _, err := run(t, "watch", "--config", noConfig(t), "--url", "http://example.invalid", "--interval", "0s"); err == nil {
		t.Fatal("expected error for zero interval")
	}
}
