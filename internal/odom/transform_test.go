package odom

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityApply(t *testing.T) {
	p := r3.Vector{X: 1.5, Y: -2.25, Z: 3.75}
	got := Identity().Apply(p)
	assert.Equal(t, p, got)
}

func TestMulComposesWithApply(t *testing.T) {
	a := Exp(Twist{0.1, -0.2, 0.3, 0.05, -0.02, 0.04})
	b := Exp(Twist{-0.4, 0.1, 0.2, -0.03, 0.06, 0.01})
	p := r3.Vector{X: 2, Y: -1, Z: 0.5}

	composed := a.Mul(b).Apply(p)
	sequential := a.Apply(b.Apply(p))

	assert.InDelta(t, sequential.X, composed.X, 1e-12)
	assert.InDelta(t, sequential.Y, composed.Y, 1e-12)
	assert.InDelta(t, sequential.Z, composed.Z, 1e-12)
}

func TestInverseRoundtrip(t *testing.T) {
	tf := Exp(Twist{1.2, -0.7, 0.4, 0.3, -0.1, 0.2})
	roundtrip := tf.Mul(tf.Inverse())

	id := Identity()
	for i := range roundtrip {
		assert.InDelta(t, id[i], roundtrip[i], 1e-12, "entry %d", i)
	}
}

func TestExpLogRoundtrip(t *testing.T) {
	cases := []Twist{
		{},
		{0.5, -0.25, 1.0, 0, 0, 0},
		{0, 0, 0, 0.4, -0.3, 0.2},
		{1.5, 2.0, -0.5, 0.6, 0.1, -0.4},
	}
	for _, x := range cases {
		back := Log(Exp(x))
		for i := range x {
			assert.InDelta(t, x[i], back[i], 1e-9, "component %d of %v", i, x)
		}
	}
}

func TestRotationAngle(t *testing.T) {
	angle := 0.35
	tf := Exp(Twist{0, 0, 0, 0, 0, angle})
	assert.InDelta(t, angle, tf.RotationAngle(), 1e-12)
	assert.InDelta(t, 0, Identity().RotationAngle(), 1e-12)
}

func TestRotationStaysOrthonormal(t *testing.T) {
	// Compose many small updates; the rotation block must not drift off
	// the manifold.
	tf := Identity()
	step := Exp(Twist{0.01, 0, 0, 0.002, 0.001, -0.003})
	for i := 0; i < 2000; i++ {
		tf = step.Mul(tf)
	}
	r := tf.rotation()
	// Row norms and determinant stay 1 to within tight tolerance.
	for row := 0; row < 3; row++ {
		n := math.Sqrt(r[row*3]*r[row*3] + r[row*3+1]*r[row*3+1] + r[row*3+2]*r[row*3+2])
		assert.InDelta(t, 1.0, n, 1e-9)
	}
	det := r[0]*(r[4]*r[8]-r[5]*r[7]) - r[1]*(r[3]*r[8]-r[5]*r[6]) + r[2]*(r[3]*r[7]-r[4]*r[6])
	assert.InDelta(t, 1.0, det, 1e-9)
}

func TestTransformPointsMatchesApply(t *testing.T) {
	tf := Exp(Twist{0.3, 0.1, -0.2, 0.05, 0, 0.1})
	pts := []r3.Vector{{X: 1, Y: 2, Z: 3}, {X: -4, Y: 0, Z: 2.5}}

	copied := tf.TransformPoints(pts)
	require.Len(t, copied, len(pts))
	for i := range pts {
		assert.Equal(t, tf.Apply(pts[i]), copied[i])
	}

	// The copy variant must not touch its input.
	assert.Equal(t, r3.Vector{X: 1, Y: 2, Z: 3}, pts[0])

	tf.TransformInPlace(pts)
	assert.Equal(t, copied, pts)
}

func TestIsFinite(t *testing.T) {
	assert.True(t, Identity().IsFinite())
	bad := Identity()
	bad[3] = math.NaN()
	assert.False(t, bad.IsFinite())
	bad[3] = math.Inf(1)
	assert.False(t, bad.IsFinite())
}
