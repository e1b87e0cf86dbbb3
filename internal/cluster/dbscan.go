package cluster

const (
	unclassified = -2
	noise        = -1
)

// DBSCAN labels each point with a cluster id (>= 0), or noise (-1).
// minSamples is the density threshold: a point is a core point if its
// eps-neighbourhood (including itself) has at least minSamples members.
func DBSCAN(points []Point, eps float64, minSamples int) []int {
	idx := NewSpatialIndex(points, eps)
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = unclassified
	}

	clusterID := 0
	for i := range points {
		if labels[i] != unclassified {
			continue
		}
		neighbors := idx.RegionQuery(i, eps)
		if len(neighbors) < minSamples {
			labels[i] = noise
			continue
		}
		expandCluster(idx, labels, i, neighbors, clusterID, eps, minSamples)
		clusterID++
	}
	return labels
}

func expandCluster(idx *SpatialIndex, labels []int, seed int, neighbors []int, clusterID int, eps float64, minSamples int) {
	labels[seed] = clusterID

	queue := append([]int(nil), neighbors...)
	for len(queue) > 0 {
		j := queue[0]
		queue = queue[1:]

		if labels[j] == noise {
			labels[j] = clusterID
			continue
		}
		if labels[j] != unclassified {
			continue
		}

		labels[j] = clusterID
		jNeighbors := idx.RegionQuery(j, eps)
		if len(jNeighbors) >= minSamples {
			queue = append(queue, jNeighbors...)
		}
	}
}

// Centroids groups points by their DBSCAN label and returns the
// arithmetic mean of each non-noise cluster. Labels must have the same
// length as points (as returned by DBSCAN). Clusters are returned
// ordered by ascending label id, which is deterministic given a fixed
// input order.
func Centroids(points []Point, labels []int) []Point {
	sums := make(map[int]Point)
	counts := make(map[int]int)
	maxLabel := -1

	for i, label := range labels {
		if label < 0 {
			continue
		}
		s := sums[label]
		s[0] += points[i][0]
		s[1] += points[i][1]
		s[2] += points[i][2]
		sums[label] = s
		counts[label]++
		if label > maxLabel {
			maxLabel = label
		}
	}

	var out []Point
	for label := 0; label <= maxLabel; label++ {
		n, ok := counts[label]
		if !ok {
			continue
		}
		s := sums[label]
		out = append(out, Point{s[0] / float64(n), s[1] / float64(n), s[2] / float64(n)})
	}
	return out
}

// Cluster runs DBSCAN over points with the given eps and minSamples,
// and returns the arithmetic-mean centroid of each discovered cluster.
// Noise points are discarded. Returns an empty slice if no clusters
// are found.
func Cluster(points []Point, eps float64, minSamples int) []Point {
	if len(points) == 0 {
		return nil
	}
	labels := DBSCAN(points, eps, minSamples)
	return Centroids(points, labels)
}
