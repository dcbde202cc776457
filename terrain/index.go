package terrain

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Surface is the terrain collaborator consumed by the motion adapter.
type Surface interface {
	// MaterialAt classifies the first geometry met by the segment from point
	// to point+direction.
	MaterialAt(point, direction mgl64.Vec3) Material
	// Overlaps reports whether the box touches any classified geometry.
	Overlaps(min, max mgl64.Vec3) bool
}

// Region is an axis-aligned block of level geometry with one material.
type Region struct {
	Min      mgl64.Vec3
	Max      mgl64.Vec3
	Material Material
}

// Index answers material queries over a fixed set of regions.
type Index struct {
	regions []Region
}

// NewIndex copies regions into a new index, normalizing inverted corners.
func NewIndex(regions ...Region) *Index {
	idx := &Index{regions: make([]Region, 0, len(regions))}
	for _, r := range regions {
		idx.Add(r)
	}
	return idx
}

// Add inserts a region.
func (idx *Index) Add(r Region) {
	if idx == nil {
		return
	}
	for i := range 3 {
		if r.Min[i] > r.Max[i] {
			r.Min[i], r.Max[i] = r.Max[i], r.Min[i]
		}
	}
	idx.regions = append(idx.regions, r)
}

// Len returns the number of regions.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.regions)
}

// MaterialAt returns the material of the nearest region crossed by the
// segment from point to point+direction, or None.
func (idx *Index) MaterialAt(point, direction mgl64.Vec3) Material {
	if idx == nil || direction.LenSqr() == 0 {
		return None
	}
	best := math.Inf(1)
	material := None
	for _, r := range idx.regions {
		t, ok := rayBoxHit(point, direction, r.Min, r.Max)
		if !ok || t >= best {
			continue
		}
		best = t
		material = r.Material
	}
	return material
}

// Overlaps reports whether the box intersects any region.
func (idx *Index) Overlaps(min, max mgl64.Vec3) bool {
	if idx == nil {
		return false
	}
	for _, r := range idx.regions {
		if boxesOverlap(min, max, r.Min, r.Max) {
			return true
		}
	}
	return false
}

func boxesOverlap(aMin, aMax, bMin, bMax mgl64.Vec3) bool {
	for i := range 3 {
		if aMax[i] < bMin[i] || aMin[i] > bMax[i] {
			return false
		}
	}
	return true
}

// rayBoxHit is a slab test for the segment origin + t*dir, t in [0, 1]. A
// segment starting inside the box hits at t = 0.
func rayBoxHit(origin, dir, min, max mgl64.Vec3) (float64, bool) {
	tmin := 0.0
	tmax := 1.0
	for i := range 3 {
		if dir[i] == 0 {
			if origin[i] < min[i] || origin[i] > max[i] {
				return 0, false
			}
			continue
		}
		inv := 1.0 / dir[i]
		t1 := (min[i] - origin[i]) * inv
		t2 := (max[i] - origin[i]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmax < tmin {
			return 0, false
		}
	}
	return tmin, true
}
