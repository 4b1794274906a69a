package odom

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// Tuning constants of the ICP loop. These are part of the algorithm's
// guarantees, not caller-facing knobs.
const (
	// maxIterations bounds the fixed-point iteration unconditionally.
	maxIterations = 500
	// estimationThreshold is the twist norm below which an iteration is
	// treated as converged.
	estimationThreshold = 1e-4
)

// ErrNoPoints is returned when a scan has no points to register.
var ErrNoPoints = errors.New("odom: empty scan")

// RegistrationResult reports the outcome of one scan-to-map alignment.
type RegistrationResult struct {
	// Pose is the estimated scan-to-map transform, in the same
	// convention as the initial guess.
	Pose Transform
	// Iterations is how many ICP iterations ran. Hitting the internal
	// cap is not an error; it just signals a lower-confidence estimate.
	Iterations int
	// Converged is true when the loop stopped on the estimation
	// threshold rather than the iteration cap.
	Converged bool
	// Degenerate is true when an iteration produced an ill-conditioned
	// system and the loop stopped early, keeping the last good estimate.
	Degenerate bool
}

// Register aligns a scan against the map behind index using ICP seeded
// with initialGuess. Candidate pairs are gated by
// maxCorrespondenceDistance and the solver is weighted by the robust
// kernel scale.
//
// Registering against an empty map is not an error: there is nothing to
// align to, and the initial guess is returned unchanged. The map is never
// mutated here; growing it with the converged pose is the caller's
// explicit follow-up.
func Register(index NeighborIndex, points []r3.Vector, initialGuess Transform, maxCorrespondenceDistance, kernel float64) (RegistrationResult, error) {
	if len(points) == 0 {
		return RegistrationResult{}, ErrNoPoints
	}
	if err := validatePoints(points); err != nil {
		return RegistrationResult{}, err
	}
	if !initialGuess.IsFinite() {
		return RegistrationResult{}, errors.New("odom: non-finite initial guess")
	}
	if maxCorrespondenceDistance <= 0 {
		return RegistrationResult{}, fmt.Errorf("odom: non-positive correspondence distance %g", maxCorrespondenceDistance)
	}

	result := RegistrationResult{Pose: initialGuess}
	if index.Empty() {
		// Nothing to align against; the guess is trivially final.
		result.Converged = true
		return result, nil
	}

	source := initialGuess.TransformPoints(points)
	tICP := Identity()

	for i := 0; i < maxIterations; i++ {
		result.Iterations = i + 1

		src, tgt := Correspondences(index, source, maxCorrespondenceDistance)
		if len(src) == 0 {
			// No overlap under the gate; keep the current estimate.
			break
		}

		delta, update, err := AlignClouds(src, tgt, kernel)
		if errors.Is(err, ErrDegenerateGeometry) {
			result.Degenerate = true
			break
		}
		if err != nil {
			return result, err
		}

		update.TransformInPlace(source)
		tICP = update.Mul(tICP)

		if delta.Norm() < estimationThreshold {
			result.Converged = true
			break
		}
	}

	result.Pose = tICP.Mul(initialGuess)
	return result, nil
}

// validatePoints rejects non-finite coordinates at the boundary so NaNs
// never propagate into the map or the normal equations.
func validatePoints(points []r3.Vector) error {
	for i, p := range points {
		if !isFinite(p.X) || !isFinite(p.Y) || !isFinite(p.Z) {
			return fmt.Errorf("odom: non-finite point at index %d", i)
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
