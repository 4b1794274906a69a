package odom

// Config holds the per-session odometry parameters. The zero value is
// not usable; start from DefaultConfig and override.
type Config struct {
	// MaxRange and MinRange bound the usable returns, in map units.
	MaxRange float64
	MinRange float64

	// Deskew enables per-point motion compensation; it needs per-point
	// timestamps from the scan source.
	Deskew bool

	// VoxelSize is the local map resolution. Zero means MaxRange/100.
	VoxelSize float64
	// MaxPointsPerVoxel bounds per-cell density in the local map.
	MaxPointsPerVoxel int

	// InitialThreshold is the correspondence gate used until the
	// adaptive estimator has seen enough motion; MinMotionThreshold is
	// the deviation below which motion is treated as noise.
	InitialThreshold   float64
	MinMotionThreshold float64
}

// DefaultConfig returns the stock tuning, suitable for automotive-scale
// outdoor scans in meters.
func DefaultConfig() Config {
	return Config{
		MaxRange:           100.0,
		MinRange:           5.0,
		Deskew:             false,
		VoxelSize:          0, // resolved to MaxRange/100
		MaxPointsPerVoxel:  20,
		InitialThreshold:   2.0,
		MinMotionThreshold: 0.1,
	}
}

// withDefaults resolves derived values.
func (c Config) withDefaults() Config {
	if c.VoxelSize <= 0 {
		c.VoxelSize = c.MaxRange / 100.0
	}
	if c.MaxPointsPerVoxel <= 0 {
		c.MaxPointsPerVoxel = 20
	}
	return c
}
