// Package usage turns a raw labels/parents/values document into the dataset
// a sunburst renderer draws: validation, significance filtering, label
// deduplication and conversion to megabytes.
package usage

// Value is a byte count that may be absent (null, missing or non-numeric
// in the source document).
type Value struct {
	Bytes float64
	Valid bool
}

// Entry is one index-aligned triple of a RawDocument.
type Entry struct {
	Label  string
	Parent string
	Value  Value
}

// RawDocument is the validated form of the fetched JSON. The three slices
// are positionally aligned but not guaranteed to have equal length.
type RawDocument struct {
	Labels  []string
	Parents []string
	Values  []Value
}

// Aligned reports whether all three sequences have the same length.
func (d RawDocument) Aligned() bool {
	return len(d.Labels) == len(d.Parents) && len(d.Labels) == len(d.Values)
}

// Entries walks the document by label index. A missing parent is the empty
// string (a root); a missing value is absent and never passes the filter.
// Parents or values beyond the last label are ignored.
func (d RawDocument) Entries() []Entry {
	entries := make([]Entry, 0, len(d.Labels))
	for i, label := range d.Labels {
		e := Entry{Label: label}
		if i < len(d.Parents) {
			e.Parent = d.Parents[i]
		}
		if i < len(d.Values) {
			e.Value = d.Values[i]
		}
		entries = append(entries, e)
	}
	return entries
}

// Node is a kept entry with a label unique within its dataset.
type Node struct {
	Label  string
	Parent string
	Bytes  float64
}

// Unit is the display unit of dataset values.
type Unit string

// MB is decimal megabytes.
const MB Unit = "MB"

// BytesPerMB is the divisor from bytes to MB.
const BytesPerMB = 1_000_000

// Point is a node scaled to the dataset unit.
type Point struct {
	Label  string  `json:"label"`
	Parent string  `json:"parent"`
	Value  float64 `json:"value"`
}

// Hints are the fixed rendering hints handed to the sink with every dataset.
type Hints struct {
	BranchValues          string  `json:"branchvalues"`
	MaxDepth              int     `json:"maxdepth"`
	TextInfo              string  `json:"textinfo"`
	HoverTemplate         string  `json:"hovertemplate"`
	InsideTextOrientation string  `json:"insidetextorientation"`
	MarkerLineWidth       float64 `json:"marker_line_width"`
	MarkerLineColor       string  `json:"marker_line_color"`
}

// DefaultHints returns the hints every prepared dataset carries. Parent
// sizes are the sum of their subtree ("total"), four rings are shown.
func DefaultHints() Hints {
	return Hints{
		BranchValues:          "total",
		MaxDepth:              4,
		TextInfo:              "label+percent",
		HoverTemplate:         "<b>%{label}</b><br>Size: %{value:.2f} MB<extra></extra>",
		InsideTextOrientation: "horizontal",
		MarkerLineWidth:       0.5,
		MarkerLineColor:       "#ffffff",
	}
}

// Dataset is the prepared, render-ready sequence. The zero Dataset is the
// "no data" result.
type Dataset struct {
	Points []Point
	Unit   Unit
	Hints  Hints
}

// IsEmpty reports whether there is nothing to draw.
func (d Dataset) IsEmpty() bool {
	return len(d.Points) == 0
}

// Labels returns the point labels in order.
func (d Dataset) Labels() []string {
	out := make([]string, len(d.Points))
	for i, p := range d.Points {
		out[i] = p.Label
	}
	return out
}

// Parents returns the point parents in order.
func (d Dataset) Parents() []string {
	out := make([]string, len(d.Points))
	for i, p := range d.Points {
		out[i] = p.Parent
	}
	return out
}

// Values returns the point values in order.
func (d Dataset) Values() []float64 {
	out := make([]float64, len(d.Points))
	for i, p := range d.Points {
		out[i] = p.Value
	}
	return out
}
