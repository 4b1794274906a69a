package odom

import (
	"math"

	"github.com/golang/geo/r3"
)

// Transform is a rigid SE(3) transform (sensor -> map) stored as a 4x4
// row-major matrix: m00,m01,m02,m03, m10,...,m33. Applying it computes
// p' = R*p + t with R in the top-left 3x3 block and t in the top-right
// column. The bottom row is always (0,0,0,1).
type Transform [16]float64

// Twist is an se(3) increment: 3 translation components followed by
// 3 rotation components (axis-angle).
type Twist [6]float64

// Norm returns the Euclidean norm of the twist.
func (x Twist) Norm() float64 {
	s := 0.0
	for _, v := range x {
		s += v * v
	}
	return math.Sqrt(s)
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mul returns the composition t*o (o applied first).
func (t Transform) Mul(o Transform) Transform {
	var out Transform
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			s := 0.0
			for k := 0; k < 4; k++ {
				s += t[r*4+k] * o[k*4+c]
			}
			out[r*4+c] = s
		}
	}
	return out
}

// Apply transforms a single point: R*p + t.
func (t Transform) Apply(p r3.Vector) r3.Vector {
	return r3.Vector{
		X: t[0]*p.X + t[1]*p.Y + t[2]*p.Z + t[3],
		Y: t[4]*p.X + t[5]*p.Y + t[6]*p.Z + t[7],
		Z: t[8]*p.X + t[9]*p.Y + t[10]*p.Z + t[11],
	}
}

// TransformPoints returns a new slice with every point transformed by t.
func (t Transform) TransformPoints(points []r3.Vector) []r3.Vector {
	out := make([]r3.Vector, len(points))
	for i, p := range points {
		out[i] = t.Apply(p)
	}
	return out
}

// TransformInPlace transforms every point in the slice by t.
func (t Transform) TransformInPlace(points []r3.Vector) {
	for i, p := range points {
		points[i] = t.Apply(p)
	}
}

// Translation returns the translation column of the transform.
func (t Transform) Translation() r3.Vector {
	return r3.Vector{X: t[3], Y: t[7], Z: t[11]}
}

// Inverse returns the rigid inverse: (R^T, -R^T t). It assumes the
// rotation block is orthonormal, which every constructor here maintains.
func (t Transform) Inverse() Transform {
	var out Transform
	// transpose rotation block
	out[0], out[1], out[2] = t[0], t[4], t[8]
	out[4], out[5], out[6] = t[1], t[5], t[9]
	out[8], out[9], out[10] = t[2], t[6], t[10]
	// -R^T * t
	tr := t.Translation()
	out[3] = -(out[0]*tr.X + out[1]*tr.Y + out[2]*tr.Z)
	out[7] = -(out[4]*tr.X + out[5]*tr.Y + out[6]*tr.Z)
	out[11] = -(out[8]*tr.X + out[9]*tr.Y + out[10]*tr.Z)
	out[15] = 1
	return out
}

// RotationAngle returns the rotation angle of the transform in radians,
// recovered from the trace of the rotation block.
func (t Transform) RotationAngle() float64 {
	trace := t[0] + t[5] + t[10]
	// Clamp against rounding before acos.
	c := (trace - 1) / 2
	if c > 1 {
		c = 1
	} else if c < -1 {
		c = -1
	}
	return math.Acos(c)
}

// IsFinite reports whether every entry of the transform is finite.
func (t Transform) IsFinite() bool {
	for _, v := range t {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// setRotation writes a 3x3 row-major rotation into the transform.
func (t *Transform) setRotation(r [9]float64) {
	t[0], t[1], t[2] = r[0], r[1], r[2]
	t[4], t[5], t[6] = r[3], r[4], r[5]
	t[8], t[9], t[10] = r[6], r[7], r[8]
}

// setTranslation writes the translation column of the transform.
func (t *Transform) setTranslation(v r3.Vector) {
	t[3], t[7], t[11] = v.X, v.Y, v.Z
}

// rotation returns the 3x3 rotation block, row-major.
func (t Transform) rotation() [9]float64 {
	return [9]float64{
		t[0], t[1], t[2],
		t[4], t[5], t[6],
		t[8], t[9], t[10],
	}
}

// so3Exp is the Rodrigues formula: the rotation matrix for an axis-angle
// vector w. Keeping updates on the rotation manifold through the
// exponential map avoids the orthonormality drift of additive updates.
func so3Exp(w r3.Vector) [9]float64 {
	theta := w.Norm()
	if theta < 1e-12 {
		return [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
	}
	k := w.Mul(1 / theta)
	s, c := math.Sincos(theta)
	ic := 1 - c

	return [9]float64{
		c + k.X*k.X*ic, k.X*k.Y*ic - k.Z*s, k.X*k.Z*ic + k.Y*s,
		k.Y*k.X*ic + k.Z*s, c + k.Y*k.Y*ic, k.Y*k.Z*ic - k.X*s,
		k.Z*k.X*ic - k.Y*s, k.Z*k.Y*ic + k.X*s, c + k.Z*k.Z*ic,
	}
}

// so3Log recovers the axis-angle vector of a rotation matrix.
func so3Log(r [9]float64) r3.Vector {
	c := (r[0] + r[4] + r[8] - 1) / 2
	if c > 1 {
		c = 1
	} else if c < -1 {
		c = -1
	}
	theta := math.Acos(c)
	if theta < 1e-12 {
		return r3.Vector{}
	}
	// Off-diagonal differences give the axis scaled by 2*sin(theta).
	axis := r3.Vector{
		X: r[7] - r[5],
		Y: r[2] - r[6],
		Z: r[3] - r[1],
	}
	s := 2 * math.Sin(theta)
	if math.Abs(s) < 1e-12 {
		// Near pi: fall back to the diagonal formulation.
		axis = r3.Vector{
			X: math.Sqrt(math.Max(0, (r[0]+1)/2)),
			Y: math.Sqrt(math.Max(0, (r[4]+1)/2)),
			Z: math.Sqrt(math.Max(0, (r[8]+1)/2)),
		}
		if axis.Norm() == 0 {
			return r3.Vector{}
		}
		return axis.Normalize().Mul(theta)
	}
	return axis.Mul(theta / s)
}

// Exp maps an se(3) twist to a transform. The translation part goes
// through the left Jacobian so that Exp and Log are exact inverses; this
// is what scaled-twist interpolation (deskewing) relies on.
func Exp(x Twist) Transform {
	w := r3.Vector{X: x[3], Y: x[4], Z: x[5]}
	rho := r3.Vector{X: x[0], Y: x[1], Z: x[2]}

	out := Identity()
	out.setRotation(so3Exp(w))
	out.setTranslation(applyLeftJacobian(w, rho))
	return out
}

// Log maps a transform to its se(3) twist, inverse of Exp.
func Log(t Transform) Twist {
	w := so3Log(t.rotation())
	rho := applyInverseLeftJacobian(w, t.Translation())
	return Twist{rho.X, rho.Y, rho.Z, w.X, w.Y, w.Z}
}

// Scale multiplies the twist by a scalar, used to interpolate a motion.
func (x Twist) Scale(s float64) Twist {
	var out Twist
	for i, v := range x {
		out[i] = v * s
	}
	return out
}

// applyLeftJacobian computes V(w)*rho where V is the left Jacobian of
// SO(3): V = I + (1-cos)/th^2 [w]x + (th-sin)/th^3 [w]x^2.
func applyLeftJacobian(w, rho r3.Vector) r3.Vector {
	theta2 := w.Norm2()
	if theta2 < 1e-16 {
		return rho
	}
	theta := math.Sqrt(theta2)
	a := (1 - math.Cos(theta)) / theta2
	b := (theta - math.Sin(theta)) / (theta2 * theta)

	wr := w.Cross(rho)
	wwr := w.Cross(wr)
	return rho.Add(wr.Mul(a)).Add(wwr.Mul(b))
}

// applyInverseLeftJacobian computes V(w)^-1 * v.
func applyInverseLeftJacobian(w, v r3.Vector) r3.Vector {
	theta2 := w.Norm2()
	if theta2 < 1e-16 {
		return v
	}
	theta := math.Sqrt(theta2)
	// V^-1 = I - 1/2 [w]x + (1/th^2 - (1+cos)/(2 th sin)) [w]x^2
	cot := (1 / theta2) - (1+math.Cos(theta))/(2*theta*math.Sin(theta))

	wv := w.Cross(v)
	wwv := w.Cross(wv)
	return v.Sub(wv.Mul(0.5)).Add(wwv.Mul(cot))
}
