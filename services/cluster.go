package services

import (
	"math"
	"sort"

	"github.com/paulmach/orb/planar"

	"agriconnect/models"
)

// ClusterThreshold is the clustering radius, in raw degrees. Distances are
// flat Euclidean over (lon, lat), which is only a reasonable approximation
// because the radius is small.
const ClusterThreshold = 2.0

// Cluster groups farms for map display. When enabled is false every farm is
// its own cluster. Otherwise it walks farms in order; each farm not yet
// claimed anchors a cluster holding every unclaimed farm strictly closer than
// ClusterThreshold to it. Membership depends on input order: a farm joins the
// first anchor in range, not the nearest one.
func Cluster(farms []*models.Farm, enabled bool) []models.Cluster {
	farms = compactFarms(farms)
	if !enabled {
		return singletons(farms)
	}

	processed := make([]bool, len(farms))
	clusters := make([]models.Cluster, 0, len(farms))

	for i, anchor := range farms {
		if processed[i] {
			continue
		}
		processed[i] = true
		members := []*models.Farm{anchor}

		for j := i + 1; j < len(farms); j++ {
			if processed[j] {
				continue
			}
			if withinThreshold(anchor, farms[j]) {
				processed[j] = true
				members = append(members, farms[j])
			}
		}
		clusters = append(clusters, models.Cluster{Anchor: anchor, Members: members})
	}
	return clusters
}

// ClusterStable is Cluster made independent of input order: farms are taken in
// ascending id order, so the lowest-id unclaimed farm anchors each cluster,
// and neighbours are looked up through a grid of ClusterThreshold-sized cells.
// Clusters come back sorted by anchor id. With unique ids, any permutation of
// the same farms yields the same clusters.
func ClusterStable(farms []*models.Farm, enabled bool) []models.Cluster {
	ordered := append([]*models.Farm(nil), compactFarms(farms)...)
	sort.SliceStable(ordered, func(a, b int) bool { return ordered[a].ID < ordered[b].ID })
	if !enabled {
		return singletons(ordered)
	}

	grid := make(map[gridCell][]int, len(ordered))
	for i, f := range ordered {
		c := cellOf(f)
		grid[c] = append(grid[c], i)
	}

	processed := make([]bool, len(ordered))
	clusters := make([]models.Cluster, 0, len(ordered))

	for i, anchor := range ordered {
		if processed[i] {
			continue
		}
		processed[i] = true
		members := []*models.Farm{anchor}

		home := cellOf(anchor)
		var candidates []int
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				candidates = append(candidates, grid[gridCell{home.x + dx, home.y + dy}]...)
			}
		}
		sort.Ints(candidates)

		for _, j := range candidates {
			if processed[j] {
				continue
			}
			if withinThreshold(anchor, ordered[j]) {
				processed[j] = true
				members = append(members, ordered[j])
			}
		}
		clusters = append(clusters, models.Cluster{Anchor: anchor, Members: members})
	}
	return clusters
}

type gridCell struct{ x, y int }

func cellOf(f *models.Farm) gridCell {
	return gridCell{
		x: int(math.Floor(f.Lon / ClusterThreshold)),
		y: int(math.Floor(f.Lat / ClusterThreshold)),
	}
}

func withinThreshold(a, b *models.Farm) bool {
	return planar.Distance(a.Point(), b.Point()) < ClusterThreshold
}

func singletons(farms []*models.Farm) []models.Cluster {
	clusters := make([]models.Cluster, 0, len(farms))
	for _, f := range farms {
		clusters = append(clusters, models.Cluster{Anchor: f, Members: []*models.Farm{f}})
	}
	return clusters
}

func compactFarms(farms []*models.Farm) []*models.Farm {
	for _, f := range farms {
		if f == nil {
			out := make([]*models.Farm, 0, len(farms))
			for _, g := range farms {
				if g != nil {
					out = append(out, g)
				}
			}
			return out
		}
	}
	return farms
}
