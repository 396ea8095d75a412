package display

import (
	"fmt"
	"strings"

	"sunburst/pkg/usage"

	"github.com/dustin/go-humanize"
)

type treeNode struct {
	point    usage.Point
	children []*treeNode
}

// buildForest links points by parent label. A point whose parent is empty,
// itself, or not in the dataset (pruned by the filter) becomes a root.
func buildForest(ds usage.Dataset) []*treeNode {
	nodes := make([]*treeNode, len(ds.Points))
	byLabel := make(map[string]*treeNode, len(ds.Points))
	for i, p := range ds.Points {
		nodes[i] = &treeNode{point: p}
		byLabel[p.Label] = nodes[i]
	}

	var roots []*treeNode
	for _, n := range nodes {
		parent, ok := byLabel[n.point.Parent]
		if !ok || parent == n {
			roots = append(roots, n)
			continue
		}
		parent.children = append(parent.children, n)
	}
	return roots
}

// formatSize renders a dataset value in bytes for humans.
func formatSize(value float64, unit usage.Unit) string {
	if unit == usage.MB {
		value *= usage.BytesPerMB
	}
	if value < 0 {
		value = 0
	}
	return humanize.Bytes(uint64(value))
}

// renderTree draws the dataset as an indented tree, at most maxDepth levels
// deep. Percentages are relative to each root, which carries the subtree
// total when branch values are "total".
func renderTree(ds usage.Dataset, theme *Theme) string {
	maxDepth := ds.Hints.MaxDepth
	if maxDepth <= 0 {
		maxDepth = usage.DefaultHints().MaxDepth
	}

	var sb strings.Builder
	for _, root := range buildForest(ds) {
		total := root.point.Value
		sb.WriteString(theme.Styled(theme.Bold, root.point.Label))
		fmt.Fprintf(&sb, "  %s\n", theme.Styled(theme.Cyan, formatSize(root.point.Value, ds.Unit)))
		writeChildren(&sb, theme, root, "", 1, maxDepth, total, ds.Unit)
	}
	return sb.String()
}

func writeChildren(sb *strings.Builder, theme *Theme, n *treeNode, prefix string, depth, maxDepth int, total float64, unit usage.Unit) {
	if depth >= maxDepth {
		if hidden := countDescendants(n); hidden > 0 {
			fmt.Fprintf(sb, "%s%s\n", prefix, theme.Styled(theme.Dim, fmt.Sprintf("… %d more", hidden)))
		}
		return
	}
	for i, child := range n.children {
		branch, indent := theme.BoxTree, theme.BoxItem
		if i == len(n.children)-1 {
			branch, indent = theme.BoxLast, theme.BoxNone
		}
		fmt.Fprintf(sb, "%s%s%s  %s  %s\n",
			prefix, branch, child.point.Label,
			theme.Styled(theme.Cyan, formatSize(child.point.Value, unit)),
			theme.Styled(theme.Dim, percent(child.point.Value, total)))
		writeChildren(sb, theme, child, prefix+indent, depth+1, maxDepth, total, unit)
	}
}

func countDescendants(n *treeNode) int {
	count := 0
	for _, c := range n.children {
		count += 1 + countDescendants(c)
	}
	return count
}

func percent(value, total float64) string {
	if total <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", value/total*100)
}
