package odom

import (
	"fmt"

	"github.com/golang/geo/r3"
)

// midScanStamp is the normalized timestamp the deskewed scan is
// referenced to: points earlier than mid-scan are pushed forward along
// the motion, later ones pulled back.
const midScanStamp = 0.5

// DeskewScan compensates for sensor motion during one sweep. timestamps
// must hold one value per point, normalized to [0,1] across the sweep,
// and delta is the estimated motion over the sweep (typically the
// previous relative pose under a constant-velocity assumption). Each
// point is moved by the motion interpolated to its own capture time:
// Exp((stamp-0.5) * Log(delta)).
func DeskewScan(points []r3.Vector, timestamps []float64, delta Transform) ([]r3.Vector, error) {
	if len(points) != len(timestamps) {
		return nil, fmt.Errorf("odom: %d points but %d timestamps", len(points), len(timestamps))
	}
	twist := Log(delta)
	out := make([]r3.Vector, len(points))
	for i, p := range points {
		motion := Exp(twist.Scale(timestamps[i] - midScanStamp))
		out[i] = motion.Apply(p)
	}
	return out, nil
}
