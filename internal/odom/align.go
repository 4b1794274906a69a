package odom

import (
	"errors"
	"fmt"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// ErrDegenerateGeometry is returned when the normal equations of an
// alignment step are not positive definite: the matched geometry leaves
// some motion axis unconstrained (a single wall, colinear points).
// Callers should keep their current pose estimate rather than apply an
// update.
var ErrDegenerateGeometry = errors.New("odom: degenerate alignment geometry")

// AlignClouds computes one robust Gauss-Newton step of the point-to-point
// alignment between matched pairs: the incremental transform that reduces
// the weighted sum of squared residuals source[i]-target[i].
//
// kernel is the robust scale: each pair is weighted by
// kernel^2/(kernel+r^2)^2, so far outliers that survived the distance
// gate contribute almost nothing to the normal equations.
//
// The returned twist is the solved 6-vector increment (translation,
// rotation); only its norm matters to the caller's termination test. The
// rotation part of the update goes through the exponential map so the
// estimate stays exactly on SO(3) across hundreds of iterations.
func AlignClouds(source, target []r3.Vector, kernel float64) (Twist, Transform, error) {
	if len(source) != len(target) {
		return Twist{}, Identity(), fmt.Errorf("odom: mismatched correspondence sets (%d vs %d)", len(source), len(target))
	}
	if len(source) == 0 {
		return Twist{}, Identity(), errors.New("odom: no correspondences to align")
	}

	// Accumulate J^T W J and J^T W r with J = [I | -hat(s)] per pair.
	var jtj [6][6]float64
	var jtr [6]float64
	for i := range source {
		s := source[i]
		res := s.Sub(target[i])

		w := kernel * kernel / square(kernel+res.Norm2())

		j := [3][6]float64{
			{1, 0, 0, 0, s.Z, -s.Y},
			{0, 1, 0, -s.Z, 0, s.X},
			{0, 0, 1, s.Y, -s.X, 0},
		}
		r := [3]float64{res.X, res.Y, res.Z}
		for a := 0; a < 6; a++ {
			for b := a; b < 6; b++ {
				acc := 0.0
				for k := 0; k < 3; k++ {
					acc += j[k][a] * j[k][b]
				}
				jtj[a][b] += w * acc
			}
			acc := 0.0
			for k := 0; k < 3; k++ {
				acc += j[k][a] * r[k]
			}
			jtr[a] += w * acc
		}
	}

	sym := mat.NewSymDense(6, nil)
	for a := 0; a < 6; a++ {
		for b := a; b < 6; b++ {
			sym.SetSym(a, b, jtj[a][b])
		}
	}
	rhs := mat.NewVecDense(6, []float64{
		-jtr[0], -jtr[1], -jtr[2], -jtr[3], -jtr[4], -jtr[5],
	})

	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return Twist{}, Identity(), ErrDegenerateGeometry
	}
	var x mat.VecDense
	if err := chol.SolveVecTo(&x, rhs); err != nil {
		return Twist{}, Identity(), ErrDegenerateGeometry
	}

	var delta Twist
	for i := 0; i < 6; i++ {
		delta[i] = x.AtVec(i)
	}

	update := Identity()
	update.setRotation(so3Exp(r3.Vector{X: delta[3], Y: delta[4], Z: delta[5]}))
	update.setTranslation(r3.Vector{X: delta[0], Y: delta[1], Z: delta[2]})
	return delta, update, nil
}

func square(x float64) float64 { return x * x }
