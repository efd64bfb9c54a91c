package model

import (
	"fmt"
	"math"
)

// Point3 is a position in the zoo. Values are compared by value.
type Point3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Pt is shorthand for a Point3 literal.
func Pt(x, y, z float64) Point3 { return Point3{X: x, Y: y, Z: z} }

// XY drops the elevation.
func (p Point3) XY() [2]float64 { return [2]float64{p.X, p.Y} }

// Dist2D is the horizontal distance between p and q.
func (p Point3) Dist2D(q Point3) float64 { return math.Hypot(p.X-q.X, p.Y-q.Y) }

func (p Point3) String() string { return fmt.Sprintf("(%g,%g,%g)", p.X, p.Y, p.Z) }

// ExclusionZone is a vertical no-entry cylinder.
type ExclusionZone struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Radius float64 `json:"radius" yaml:"radius" validate:"gte=0"`
}

// Center returns the zone center at elevation z.
func (z ExclusionZone) Center(elev float64) Point3 { return Point3{X: z.X, Y: z.Y, Z: elev} }

// Contains reports whether p lies inside or on the zone boundary.
func (z ExclusionZone) Contains(p Point3) bool {
	return math.Hypot(p.X-z.X, p.Y-z.Y) <= z.Radius
}

// SegmentDistance returns the 2D distance from the zone center to the closest
// point of the bounded segment a-b.
func (z ExclusionZone) SegmentDistance(a, b Point3) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(z.X-a.X, z.Y-a.Y)
	}
	t := ((z.X-a.X)*dx + (z.Y-a.Y)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	cx, cy := a.X+t*dx, a.Y+t*dy
	return math.Hypot(z.X-cx, z.Y-cy)
}

// Intersects reports whether the flight leg a-b touches the zone.
func (z ExclusionZone) Intersects(a, b Point3) bool {
	return z.SegmentDistance(a, b) <= z.Radius
}

// Along returns the clamped projection parameter of the zone center onto a-b,
// in [0,1]. Used to order zones along a leg.
func (z ExclusionZone) Along(a, b Point3) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return 0
	}
	t := ((z.X-a.X)*dx + (z.Y-a.Y)*dy) / l2
	return math.Max(0, math.Min(1, t))
}
