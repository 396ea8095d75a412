package usage

import "strconv"

// DefaultThreshold is the significance cutoff in bytes.
const DefaultThreshold = 5000

// Filter keeps the entries whose value is present and strictly above
// threshold, in input order.
func Filter(entries []Entry, threshold float64) []Entry {
	kept := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Value.Valid && e.Value.Bytes > threshold {
			kept = append(kept, e)
		}
	}
	return kept
}

// Dedup makes labels unique in first-seen order. A repeated label gets the
// first free suffix "_1", "_2", ...; parent and size are kept as they were.
func Dedup(entries []Entry) []Node {
	seen := make(map[string]struct{}, len(entries))
	nodes := make([]Node, 0, len(entries))
	for _, e := range entries {
		label := e.Label
		for counter := 1; ; counter++ {
			if _, taken := seen[label]; !taken {
				break
			}
			label = e.Label + "_" + strconv.Itoa(counter)
		}
		seen[label] = struct{}{}
		nodes = append(nodes, Node{Label: label, Parent: e.Parent, Bytes: e.Value.Bytes})
	}
	return nodes
}

// Select is Filter followed by Dedup.
func Select(entries []Entry, threshold float64) []Node {
	return Dedup(Filter(entries, threshold))
}
