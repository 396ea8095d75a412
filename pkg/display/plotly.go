package display

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"sunburst/pkg/usage"

	"github.com/adrg/xdg"
)

type plotlyLine struct {
	Width float64 `json:"width"`
	Color string  `json:"color"`
}

type plotlyMarker struct {
	Line plotlyLine `json:"line"`
}

type plotlyTrace struct {
	Type                  string       `json:"type"`
	Labels                []string     `json:"labels"`
	Parents               []string     `json:"parents"`
	Values                []float64    `json:"values"`
	BranchValues          string       `json:"branchvalues"`
	MaxDepth              int          `json:"maxdepth"`
	TextInfo              string       `json:"textinfo"`
	HoverTemplate         string       `json:"hovertemplate"`
	InsideTextOrientation string       `json:"insidetextorientation"`
	Marker                plotlyMarker `json:"marker"`
}

// PlotlyDocument is the file written by the Plotly sink: the arguments of a
// Plotly.newPlot (config present) or Plotly.react (config absent) call.
type PlotlyDocument struct {
	Data   []plotlyTrace `json:"data"`
	Layout Layout        `json:"layout"`
	Config *Options      `json:"config,omitempty"`
}

type plotlyOptions struct {
	indent   string
	fileMode os.FileMode
	options  Options
}

// PlotlyOption configures the Plotly sink.
type PlotlyOption func(*plotlyOptions)

// WithIndent sets the JSON indentation.
func WithIndent(indent string) PlotlyOption {
	return func(o *plotlyOptions) {
		o.indent = indent
	}
}

// WithFileMode sets the output file permissions.
func WithFileMode(mode os.FileMode) PlotlyOption {
	return func(o *plotlyOptions) {
		o.fileMode = mode
	}
}

// WithOptions sets the chart options written on create.
func WithOptions(opts Options) PlotlyOption {
	return func(o *plotlyOptions) {
		o.options = opts
	}
}

// plotlySink writes each dataset as a Plotly sunburst figure.
// Mutable
type plotlySink struct {
	mu   sync.Mutex
	path string
	opts plotlyOptions
}

// DefaultPlotlyPath is where the Plotly sink writes when no path is given.
func DefaultPlotlyPath() string {
	return filepath.Join(xdg.StateHome, "sunburst", "sunburst.json")
}

// NewPlotly creates a Sink that writes Plotly JSON to path.
func NewPlotly(path string, opts ...PlotlyOption) Sink {
	if path == "" {
		path = DefaultPlotlyPath()
	}
	o := plotlyOptions{
		indent:   "  ",
		fileMode: 0644,
		options:  DefaultOptions(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &plotlySink{path: path, opts: o}
}

func (s *plotlySink) Create(ds usage.Dataset, layout Layout) error {
	cfg := s.opts.options
	return s.write(NewPlotlyDocument(ds, layout, &cfg))
}

func (s *plotlySink) Update(ds usage.Dataset, layout Layout) error {
	return s.write(NewPlotlyDocument(ds, layout, nil))
}

// NewPlotlyDocument builds the figure for ds.
func NewPlotlyDocument(ds usage.Dataset, layout Layout, cfg *Options) PlotlyDocument {
	h := ds.Hints
	return PlotlyDocument{
		Data: []plotlyTrace{{
			Type:                  "sunburst",
			Labels:                ds.Labels(),
			Parents:               ds.Parents(),
			Values:                ds.Values(),
			BranchValues:          h.BranchValues,
			MaxDepth:              h.MaxDepth,
			TextInfo:              h.TextInfo,
			HoverTemplate:         h.HoverTemplate,
			InsideTextOrientation: h.InsideTextOrientation,
			Marker:                plotlyMarker{Line: plotlyLine{Width: h.MarkerLineWidth, Color: h.MarkerLineColor}},
		}},
		Layout: layout,
		Config: cfg,
	}
}

// write saves the document atomically: temp file, then rename.
func (s *plotlySink) write(doc PlotlyDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var data []byte
	var err error
	if s.opts.indent != "" {
		data, err = json.MarshalIndent(doc, "", s.opts.indent)
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal plotly figure: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tempFile := s.path + ".tmp"
	if err := os.WriteFile(tempFile, data, s.opts.fileMode); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tempFile, s.path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
