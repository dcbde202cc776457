package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Gravity is the default downward acceleration in reference units per second squared.
const Gravity = 9.81

// Epsilon is the tolerance used when comparing axis lengths against zero.
const Epsilon = 1e-9

// Vertical returns the signed component of v along the up axis.
func Vertical(v, up mgl64.Vec3) float64 {
	return v.Dot(up)
}

// Tangential removes the component of v along n. A zero n leaves v untouched.
func Tangential(v, n mgl64.Vec3) mgl64.Vec3 {
	if n.LenSqr() < Epsilon {
		return v
	}
	return v.Sub(n.Mul(v.Dot(n)))
}

// UnitOr normalizes v, returning fallback when v has no usable length.
func UnitOr(v, fallback mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l < Epsilon || math.IsNaN(l) || math.IsInf(l, 0) {
		return fallback
	}
	return v.Mul(1 / l)
}
