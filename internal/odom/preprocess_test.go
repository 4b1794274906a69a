package odom

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
)

func TestCropRange(t *testing.T) {
	points := []r3.Vector{
		{X: 0.5, Y: 0, Z: 0},            // too close
		{X: 2, Y: 0, Z: 0},              // kept
		{X: 0, Y: -7, Z: 0},             // kept
		{X: 100, Y: 0, Z: 0},            // too far
		{X: math.NaN(), Y: 1, Z: 1},     // non-finite
		{X: 3, Y: 4, Z: math.Inf(1)},    // non-finite
		{X: 1, Y: 0, Z: 0},              // exactly min, dropped
		{X: 10, Y: 0, Z: 0},             // exactly max, dropped
	}

	got := CropRange(points, 1.0, 10.0)
	assert.Equal(t, []r3.Vector{{X: 2, Y: 0, Z: 0}, {X: 0, Y: -7, Z: 0}}, got)
}

func TestCropRangeEmpty(t *testing.T) {
	assert.Empty(t, CropRange(nil, 1, 10))
}

func TestVoxelDownsampleKeepsFirstPerCell(t *testing.T) {
	points := []r3.Vector{
		{X: 0.1, Y: 0.1, Z: 0.1},
		{X: 0.9, Y: 0.9, Z: 0.9}, // same cell as above at size 1.0
		{X: 1.1, Y: 0.1, Z: 0.1}, // next cell along x
		{X: 1.2, Y: 0.2, Z: 0.2}, // duplicate of that cell
		{X: -0.1, Y: 0, Z: 0},    // negative side gets its own cell
	}

	got := VoxelDownsample(points, 1.0)
	assert.Equal(t, []r3.Vector{
		{X: 0.1, Y: 0.1, Z: 0.1},
		{X: 1.1, Y: 0.1, Z: 0.1},
		{X: -0.1, Y: 0, Z: 0},
	}, got)
}

func TestVoxelDownsampleIsDeterministic(t *testing.T) {
	cloud := randomCloud(41, 2000, 8)
	a := VoxelDownsample(cloud, 0.5)
	b := VoxelDownsample(cloud, 0.5)
	assert.Equal(t, a, b)
	assert.LessOrEqual(t, len(a), len(cloud))
}

func TestVoxelDownsampleFinerKeepsMore(t *testing.T) {
	cloud := randomCloud(42, 2000, 8)
	fine := VoxelDownsample(cloud, 0.25)
	coarse := VoxelDownsample(cloud, 1.0)
	assert.Greater(t, len(fine), len(coarse))
}
