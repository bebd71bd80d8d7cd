package gcode

// Point is a position in machine space, millimeters.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Segment is one linear move between two points. Extrude is true when the
// move deposited material (strictly positive extrusion delta); travel moves
// and retractions are not printed.
type Segment struct {
	Start   Point
	End     Point
	Extrude bool
}

// Bounds is the axis-aligned bounding box of a program.
type Bounds struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// Analysis holds everything derived from a segment list.
type Analysis struct {
	Bounds Bounds

	// PrintedZMin/Max span only the extruding segments. If nothing
	// extrudes they fall back to the bounding-box z range.
	PrintedZMin float64
	PrintedZMax float64

	// Endpoints is the terminal point of every extruding segment, in
	// program order. The simulator walks this path.
	Endpoints []Point

	// PrintedLength is the summed 3D length of extruding segments, mm.
	PrintedLength float64
}

// Program is the result of interpreting one G-code file.
type Program struct {
	Segments []Segment
	Analysis
}
