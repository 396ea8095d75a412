// Package display holds the render sinks that draw a prepared dataset.
// The pipeline hands a sink a finished dataset and never waits on any
// animation; sinks only draw.
package display

import "sunburst/pkg/usage"

// Sink draws datasets. Create is called once for the first render, Update
// for every refresh after it. Both are synchronous.
type Sink interface {
	Create(ds usage.Dataset, layout Layout) error
	Update(ds usage.Dataset, layout Layout) error
}

// Margin is the chart margin in pixels.
type Margin struct {
	T int `json:"t"`
	L int `json:"l"`
	R int `json:"r"`
	B int `json:"b"`
}

// UniformText controls label sizing across sectors.
type UniformText struct {
	MinSize int    `json:"minsize"`
	Mode    string `json:"mode"`
}

// Transition controls redraw animation.
type Transition struct {
	Duration int    `json:"duration"`
	Easing   string `json:"easing"`
}

// Layout is the chart layout passed along with every dataset.
type Layout struct {
	Margin       Margin      `json:"margin"`
	UniformText  UniformText `json:"uniformtext"`
	PaperBGColor string      `json:"paper_bgcolor"`
	PlotBGColor  string      `json:"plot_bgcolor"`
	Transition   Transition  `json:"transition"`
}

// DefaultLayout returns a borderless, transparent layout with a short
// transition so refreshes do not lag behind the data.
func DefaultLayout() Layout {
	return Layout{
		UniformText:  UniformText{MinSize: 10, Mode: "hide"},
		PaperBGColor: "rgba(0,0,0,0)",
		PlotBGColor:  "rgba(0,0,0,0)",
		Transition:   Transition{Duration: 200, Easing: "cubic-in-out"},
	}
}

// Options are chart interaction settings, applied when the chart is created.
type Options struct {
	StaticPlot bool `json:"staticPlot"`
	ScrollZoom bool `json:"scrollZoom"`
	Editable   bool `json:"editable"`
}

// DefaultOptions returns interactive chart options.
func DefaultOptions() Options {
	return Options{ScrollZoom: true, Editable: true}
}
