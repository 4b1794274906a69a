package odom

import (
	"runtime"
	"sync"

	"github.com/golang/geo/r3"
)

// NeighborIndex is the read side of a spatial index. Implementations must
// support concurrent calls to ClosestNeighbor while no mutation is in
// flight. Keeping the registration loop on this interface lets an
// alternate index (a k-d tree, say) slot in without touching it.
type NeighborIndex interface {
	Empty() bool
	ClosestNeighbor(p r3.Vector) (r3.Vector, bool)
}

// Correspondences pairs each query point with its nearest neighbor in the
// index, keeping only pairs strictly closer than maxDistance. Points with
// no neighbor under the threshold are dropped: they are treated as
// non-overlapping, not as errors.
//
// The batch is split into contiguous ranges, each processed by its own
// worker against the shared read-only index, and the per-range pair lists
// are concatenated afterwards. The merge is plain append, so the result
// content never depends on scheduling; source[i] and target[i] always
// stay a matched pair.
func Correspondences(index NeighborIndex, points []r3.Vector, maxDistance float64) (source, target []r3.Vector) {
	if len(points) == 0 {
		return nil, nil
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > len(points) {
		workers = len(points)
	}
	chunk := (len(points) + workers - 1) / workers
	max2 := maxDistance * maxDistance

	type pairs struct {
		source []r3.Vector
		target []r3.Vector
	}
	partial := make([]pairs, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > len(points) {
			hi = len(points)
		}
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			src := make([]r3.Vector, 0, hi-lo)
			tgt := make([]r3.Vector, 0, hi-lo)
			for _, p := range points[lo:hi] {
				q, ok := index.ClosestNeighbor(p)
				if !ok {
					continue
				}
				if q.Sub(p).Norm2() < max2 {
					src = append(src, p)
					tgt = append(tgt, q)
				}
			}
			partial[w] = pairs{source: src, target: tgt}
		}(w, lo, hi)
	}
	wg.Wait()

	n := 0
	for _, p := range partial {
		n += len(p.source)
	}
	source = make([]r3.Vector, 0, n)
	target = make([]r3.Vector, 0, n)
	for _, p := range partial {
		source = append(source, p.source...)
		target = append(target, p.target...)
	}
	return source, target
}
