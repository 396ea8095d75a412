package usage

// ToMegabytes scales every node from bytes to MB. Each node is scaled on its
// own; parent totals are not recomputed.
func ToMegabytes(nodes []Node) []Point {
	points := make([]Point, len(nodes))
	for i, n := range nodes {
		points[i] = Point{
			Label:  n.Label,
			Parent: n.Parent,
			Value:  n.Bytes / BytesPerMB,
		}
	}
	return points
}
