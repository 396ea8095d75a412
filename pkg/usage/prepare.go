package usage

import (
	"log/slog"
)

// Options configure Prepare.
type Options struct {
	// Threshold is the significance cutoff in bytes. Zero means DefaultThreshold.
	Threshold float64
	// Selector, when set, extracts the document before validation.
	Selector *Selector
	Logger   *slog.Logger
}

// Prepare runs the whole derivation on a decoded JSON value: select,
// normalize, filter, dedup and convert. It is pure apart from logging, so
// equal inputs give equal datasets. On error the returned Dataset is empty.
func Prepare(v any, opts Options) (Dataset, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	threshold := opts.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}

	if opts.Selector != nil {
		selected, err := opts.Selector.Select(v)
		if err != nil {
			return Dataset{}, err
		}
		v = selected
	}

	doc, err := Normalize(v)
	if err != nil {
		return Dataset{}, err
	}
	if !doc.Aligned() {
		logger.Warn("Usage document arrays differ in length",
			"labels", len(doc.Labels), "parents", len(doc.Parents), "values", len(doc.Values))
	}

	entries := doc.Entries()
	nodes := Select(entries, threshold)
	if len(nodes) == 0 {
		return Dataset{}, ErrEmptyDataset
	}
	logger.Debug("Prepared usage data", "entries", len(entries), "kept", len(nodes))

	return Dataset{
		Points: ToMegabytes(nodes),
		Unit:   MB,
		Hints:  DefaultHints(),
	}, nil
}
