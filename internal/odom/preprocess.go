package odom

import (
	"math"

	"github.com/golang/geo/r3"
)

// CropRange drops points closer than minRange or farther than maxRange
// from the sensor, plus anything with a non-finite coordinate. Very near
// returns are dominated by the vehicle itself and very far ones by range
// noise; neither helps registration.
func CropRange(points []r3.Vector, minRange, maxRange float64) []r3.Vector {
	out := make([]r3.Vector, 0, len(points))
	for _, p := range points {
		if !isFinite(p.X) || !isFinite(p.Y) || !isFinite(p.Z) {
			continue
		}
		d := p.Norm()
		if d > minRange && d < maxRange {
			out = append(out, p)
		}
	}
	return out
}

// VoxelDownsample keeps one point per voxel of the given size: the first
// point that lands in each cell, in input order, so the result is
// deterministic for a given scan.
func VoxelDownsample(points []r3.Vector, voxelSize float64) []r3.Vector {
	seen := make(map[voxelKey]struct{}, len(points))
	out := make([]r3.Vector, 0, len(points))
	for _, p := range points {
		k := voxelKey{
			X: int32(math.Floor(p.X / voxelSize)),
			Y: int32(math.Floor(p.Y / voxelSize)),
			Z: int32(math.Floor(p.Z / voxelSize)),
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, p)
	}
	return out
}
