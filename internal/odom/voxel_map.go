package odom

import (
	"math"

	"github.com/golang/geo/r3"
)

// voxelKey addresses one cell of the voxel grid. Integer truncation of
// point/voxelSize follows the map resolution; int32 is plenty for any
// realistic sensing range.
type voxelKey struct {
	X, Y, Z int32
}

// VoxelMap is the local map used as the registration reference: an
// unordered set of points bucketed into a uniform voxel grid so that
// insertion and nearest-neighbor queries stay O(1) amortized for locally
// bounded point density.
//
// Each cell holds at most maxPointsPerVoxel points; once a cell is full,
// later arrivals into that cell are rejected. This first-kept policy is
// deterministic, so replaying the same scan sequence always reproduces
// the same map. Cells farther than maxDistance from the most recent
// insertion origin are dropped, which bounds total memory for a moving
// sensor.
//
// Queries are safe for concurrent readers. Mutation (AddPoints, Clear)
// must be serialized with respect to any in-flight query batch by the
// caller; a registration run never mutates the map it reads.
type VoxelMap struct {
	voxelSize         float64
	maxDistance       float64
	maxPointsPerVoxel int
	voxels            map[voxelKey][]r3.Vector
	size              int
}

// NewVoxelMap creates an empty map. voxelSize is the grid resolution in
// the same units as the points, maxDistance the pruning radius around
// the sensor origin, and maxPointsPerVoxel the per-cell capacity.
func NewVoxelMap(voxelSize, maxDistance float64, maxPointsPerVoxel int) *VoxelMap {
	return &VoxelMap{
		voxelSize:         voxelSize,
		maxDistance:       maxDistance,
		maxPointsPerVoxel: maxPointsPerVoxel,
		voxels:            make(map[voxelKey][]r3.Vector),
	}
}

// Clear empties the map.
func (m *VoxelMap) Clear() {
	m.voxels = make(map[voxelKey][]r3.Vector)
	m.size = 0
}

// Empty reports whether the map holds no points.
func (m *VoxelMap) Empty() bool {
	return m.size == 0
}

// Size returns the number of stored points.
func (m *VoxelMap) Size() int {
	return m.size
}

// Pointcloud returns a copy of all stored points. Order is not stable
// across calls; callers needing determinism must sort.
func (m *VoxelMap) Pointcloud() []r3.Vector {
	out := make([]r3.Vector, 0, m.size)
	for _, pts := range m.voxels {
		out = append(out, pts...)
	}
	return out
}

// AddPoints inserts points given in the map frame. origin is the sensor
// position at capture time and drives far-cell pruning; it has no effect
// on which points win a full cell (first inserted, first kept).
func (m *VoxelMap) AddPoints(points []r3.Vector, origin r3.Vector) {
	for _, p := range points {
		k := m.keyFor(p)
		cell := m.voxels[k]
		if len(cell) >= m.maxPointsPerVoxel {
			continue
		}
		m.voxels[k] = append(cell, p)
		m.size++
	}
	m.prune(origin)
}

// AddPointsWithPose transforms points from the sensor frame into the map
// frame by pose, then inserts them using the pose translation as origin.
func (m *VoxelMap) AddPointsWithPose(points []r3.Vector, pose Transform) {
	m.AddPoints(pose.TransformPoints(points), pose.Translation())
}

// ClosestNeighbor returns the nearest stored point to p, searching the
// query cell and its 26 neighbors. ok is false when the map is empty or
// no point lies within the adjacent cells; callers gate the pair on a
// distance threshold anyway, so a miss simply yields no correspondence.
func (m *VoxelMap) ClosestNeighbor(p r3.Vector) (neighbor r3.Vector, ok bool) {
	k := m.keyFor(p)
	best := math.MaxFloat64
	for dx := int32(-1); dx <= 1; dx++ {
		for dy := int32(-1); dy <= 1; dy++ {
			for dz := int32(-1); dz <= 1; dz++ {
				cell := m.voxels[voxelKey{k.X + dx, k.Y + dy, k.Z + dz}]
				for _, q := range cell {
					if d := q.Sub(p).Norm2(); d < best {
						best = d
						neighbor = q
						ok = true
					}
				}
			}
		}
	}
	return neighbor, ok
}

func (m *VoxelMap) keyFor(p r3.Vector) voxelKey {
	return voxelKey{
		X: int32(math.Floor(p.X / m.voxelSize)),
		Y: int32(math.Floor(p.Y / m.voxelSize)),
		Z: int32(math.Floor(p.Z / m.voxelSize)),
	}
}

// prune drops cells whose representative point is farther than
// maxDistance from origin. Checking only the first point per cell keeps
// this linear in the number of cells, not points.
func (m *VoxelMap) prune(origin r3.Vector) {
	if m.maxDistance <= 0 {
		return
	}
	max2 := m.maxDistance * m.maxDistance
	for k, pts := range m.voxels {
		if len(pts) == 0 {
			delete(m.voxels, k)
			continue
		}
		if pts[0].Sub(origin).Norm2() > max2 {
			m.size -= len(pts)
			delete(m.voxels, k)
		}
	}
}

// Verify at compile time that *VoxelMap implements NeighborIndex.
var _ NeighborIndex = (*VoxelMap)(nil)
