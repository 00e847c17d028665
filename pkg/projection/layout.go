package projection

import (
	"hash/fnv"
	"math"
)

const (
	linkDistance     = 120.0
	collisionPadding = 4.0
	layoutIterations = 300
	repulsionCharge  = 6000.0
)

// layout runs a small force simulation over the nodes in place: links pull
// connected nodes toward linkDistance, every pair repels, and overlapping
// nodes are pushed apart until their circles clear each other.
//
// Initial positions are derived from the node id, not from a random source,
// so a node that survives an expand/collapse toggle lands in the same spot on
// the next request and only the changed part of the graph moves.
func layout(nodes []GraphNode, links []GraphLink) {
	if len(nodes) == 0 {
		return
	}

	index := make(map[string]int, len(nodes))
	for i := range nodes {
		index[nodes[i].ID] = i
		nodes[i].X, nodes[i].Y = seedPosition(nodes[i].ID)
	}

	temperature := 1.0
	for iter := 0; iter < layoutIterations; iter++ {
		fx := make([]float64, len(nodes))
		fy := make([]float64, len(nodes))

		for i := range nodes {
			for j := i + 1; j < len(nodes); j++ {
				dx := nodes[i].X - nodes[j].X
				dy := nodes[i].Y - nodes[j].Y
				distSq := dx*dx + dy*dy
				if distSq < 1 {
					distSq = 1
					dx = 1
				}
				force := repulsionCharge / distSq
				dist := math.Sqrt(distSq)
				fx[i] += force * dx / dist
				fy[i] += force * dy / dist
				fx[j] -= force * dx / dist
				fy[j] -= force * dy / dist
			}
		}

		for _, link := range links {
			si, ok1 := index[link.Source]
			ti, ok2 := index[link.Target]
			if !ok1 || !ok2 {
				continue
			}
			dx := nodes[ti].X - nodes[si].X
			dy := nodes[ti].Y - nodes[si].Y
			dist := math.Hypot(dx, dy)
			if dist < 1 {
				dist = 1
			}
			stretch := (dist - linkDistance) / dist * 0.1
			fx[si] += dx * stretch
			fy[si] += dy * stretch
			fx[ti] -= dx * stretch
			fy[ti] -= dy * stretch
		}

		for i := range nodes {
			nodes[i].X += fx[i] * temperature
			nodes[i].Y += fy[i] * temperature
		}
		temperature *= 0.99

		resolveCollisions(nodes)
	}

	resolveCollisions(nodes)
}

// resolveCollisions pushes overlapping node pairs apart symmetrically until
// their circles are separated by collisionPadding.
func resolveCollisions(nodes []GraphNode) {
	for i := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			minDist := nodes[i].Radius + nodes[j].Radius + collisionPadding
			dx := nodes[j].X - nodes[i].X
			dy := nodes[j].Y - nodes[i].Y
			dist := math.Hypot(dx, dy)
			if dist >= minDist {
				continue
			}
			if dist < 1 {
				dist = 1
				dx = 1
				dy = 0
			}
			push := (minDist - dist) / 2
			nodes[i].X -= dx / dist * push
			nodes[i].Y -= dy / dist * push
			nodes[j].X += dx / dist * push
			nodes[j].Y += dy / dist * push
		}
	}
}

// seedPosition maps a node id to a stable starting point inside a ring
// around the origin.
func seedPosition(id string) (float64, float64) {
	h := fnv.New64a()
	h.Write([]byte(id))
	sum := h.Sum64()

	angle := float64(sum%3600) / 3600 * 2 * math.Pi
	radius := 80 + float64((sum/3600)%240)
	return radius * math.Cos(angle), radius * math.Sin(angle)
}
