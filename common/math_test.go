package common

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func assertVecNear(t *testing.T, want, got mgl64.Vec3, delta float64, msgAndArgs ...any) {
	t.Helper()
	assert.InDeltaSlice(t, want[:], got[:], delta, msgAndArgs...)
}

func TestTangential(t *testing.T) {
	cases := []struct {
		name string
		v    mgl64.Vec3
		n    mgl64.Vec3
		want mgl64.Vec3
	}{
		{"flat_ground", mgl64.Vec3{1, -2, 3}, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{1, 0, 3}},
		{"zero_normal", mgl64.Vec3{1, -2, 3}, mgl64.Vec3{}, mgl64.Vec3{1, -2, 3}},
		{"already_tangent", mgl64.Vec3{4, 0, 0}, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{4, 0, 0}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Tangential(c.v, c.n)
			assertVecNear(t, c.want, got, 1e-9)
		})
	}
}

func TestUnitOr(t *testing.T) {
	fallback := mgl64.Vec3{0, 1, 0}
	assert.Equal(t, fallback, UnitOr(mgl64.Vec3{}, fallback))
	assert.Equal(t, fallback, UnitOr(mgl64.Vec3{math.NaN(), 0, 0}, fallback))
	assertVecNear(t, mgl64.Vec3{0, 0, 1}, UnitOr(mgl64.Vec3{0, 0, 3}, fallback), 1e-9)
}

func TestVertical(t *testing.T) {
	up := mgl64.Vec3{0, 0, 1}
	v := mgl64.Vec3{2, 3, -4}
	assert.InDelta(t, -4, Vertical(v, up), 1e-12)
	assert.InDelta(t, 3, Vertical(v, mgl64.Vec3{0, 1, 0}), 1e-12)
}
