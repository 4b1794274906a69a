// Package odom implements sensor-only LiDAR odometry: incremental
// scan-to-map registration against a bounded voxel-hash local map, with
// a robust-kernel Gauss-Newton ICP core. No inertial or wheel input is
// used; the motion model is constant velocity derived from the last two
// estimated poses.
package odom

import (
	"github.com/golang/geo/r3"
)

// Odometry runs the full per-scan pipeline and owns the session state:
// the local map, the adaptive threshold estimator, and the pose history.
// One Odometry instance serves one sensor stream; it is not safe for
// concurrent RegisterFrame calls.
type Odometry struct {
	cfg       Config
	localMap  *VoxelMap
	threshold *AdaptiveThreshold
	poses     []Transform
}

// NewOdometry creates a session with the given configuration.
func NewOdometry(cfg Config) *Odometry {
	cfg = cfg.withDefaults()
	return &Odometry{
		cfg:       cfg,
		localMap:  NewVoxelMap(cfg.VoxelSize, cfg.MaxRange, cfg.MaxPointsPerVoxel),
		threshold: NewAdaptiveThreshold(cfg.InitialThreshold, cfg.MinMotionThreshold, cfg.MaxRange),
	}
}

// RegisterFrame processes one scan and returns the estimated sensor pose
// in the map frame. timestamps may be nil when deskewing is disabled;
// otherwise it must hold one normalized [0,1] stamp per point.
//
// The first frame seeds the map and returns the identity pose: with an
// empty map there is nothing to align against, so the initial guess is
// the result by construction.
func (o *Odometry) RegisterFrame(points []r3.Vector, timestamps []float64) (Transform, RegistrationResult, error) {
	if len(points) == 0 {
		return Identity(), RegistrationResult{}, ErrNoPoints
	}

	frame := points
	if o.cfg.Deskew && timestamps != nil && len(o.poses) >= 2 {
		deskewed, err := DeskewScan(points, timestamps, o.lastDelta())
		if err != nil {
			return Identity(), RegistrationResult{}, err
		}
		frame = deskewed
	}

	cropped := CropRange(frame, o.cfg.MinRange, o.cfg.MaxRange)
	if len(cropped) == 0 {
		return Identity(), RegistrationResult{}, ErrNoPoints
	}

	// Two-level downsample: the finer cloud feeds the map, the coarser
	// one drives registration.
	mapCloud := VoxelDownsample(cropped, o.cfg.VoxelSize*0.5)
	source := VoxelDownsample(mapCloud, o.cfg.VoxelSize*1.5)

	sigma := o.threshold.ComputeThreshold()
	initialGuess := o.lastPose().Mul(o.lastDelta())

	result, err := Register(o.localMap, source, initialGuess, 3*sigma, sigma/3)
	if err != nil {
		return Identity(), result, err
	}

	o.threshold.UpdateModelDeviation(initialGuess.Inverse().Mul(result.Pose))
	o.localMap.AddPointsWithPose(mapCloud, result.Pose)
	o.poses = append(o.poses, result.Pose)

	return result.Pose, result, nil
}

// LocalMap exposes the session map, e.g. for inspection or export.
func (o *Odometry) LocalMap() *VoxelMap {
	return o.localMap
}

// Poses returns a copy of the estimated trajectory so far.
func (o *Odometry) Poses() []Transform {
	out := make([]Transform, len(o.poses))
	copy(out, o.poses)
	return out
}

func (o *Odometry) lastPose() Transform {
	if len(o.poses) == 0 {
		return Identity()
	}
	return o.poses[len(o.poses)-1]
}

// lastDelta is the constant-velocity prediction: the relative motion
// between the two most recent poses, identity until two frames exist.
func (o *Odometry) lastDelta() Transform {
	n := len(o.poses)
	if n < 2 {
		return Identity()
	}
	return o.poses[n-2].Inverse().Mul(o.poses[n-1])
}
