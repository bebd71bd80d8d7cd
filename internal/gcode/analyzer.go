package gcode

import "math"

// defaultBounds is the placeholder volume reported for an empty program so
// consumers never divide by an empty range.
var defaultBounds = Bounds{Min: Point{}, Max: Point{X: 10, Y: 10, Z: 0}}

// Analyze derives the bounding box, the printed z range, the endpoint path
// and the printed length from a segment list. It is pure: bounding values
// are order-independent, the endpoint path preserves segment order.
func Analyze(segments []Segment) Analysis {
	if len(segments) == 0 {
		return Analysis{Bounds: defaultBounds}
	}

	b := Bounds{Min: segments[0].Start, Max: segments[0].Start}
	var (
		endpoints []Point
		length    float64
		zMin      = math.Inf(1)
		zMax      = math.Inf(-1)
	)

	for _, seg := range segments {
		b.extend(seg.Start)
		b.extend(seg.End)
		if !seg.Extrude {
			continue
		}
		endpoints = append(endpoints, seg.End)
		length += distance(seg.Start, seg.End)
		zMin = math.Min(zMin, math.Min(seg.Start.Z, seg.End.Z))
		zMax = math.Max(zMax, math.Max(seg.Start.Z, seg.End.Z))
	}

	if len(endpoints) == 0 {
		// Nothing printed, fall back to the world z range.
		zMin, zMax = b.Min.Z, b.Max.Z
	}

	return Analysis{
		Bounds:        b,
		PrintedZMin:   zMin,
		PrintedZMax:   zMax,
		Endpoints:     endpoints,
		PrintedLength: length,
	}
}

func (b *Bounds) extend(p Point) {
	b.Min.X = math.Min(b.Min.X, p.X)
	b.Min.Y = math.Min(b.Min.Y, p.Y)
	b.Min.Z = math.Min(b.Min.Z, p.Z)
	b.Max.X = math.Max(b.Max.X, p.X)
	b.Max.Y = math.Max(b.Max.Y, p.Y)
	b.Max.Z = math.Max(b.Max.Z, p.Z)
}

func distance(a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	dz := b.Z - a.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
