// Package detection finds the geometric features a gauge reader needs in a
// Canny edge map: straight strokes (the needle) and circles (the dial bezel).
//
// # Lines
//
// DetectSegments runs a 1° × 1px Hough transform, then refines every peak by
// total least squares (gonum/stat covariance) on its longest gap-limited run
// of edge pixels. Refined lines that share an orientation and lie within one
// stroke width of each other are merged, which turns the two flanks Canny
// produces for a thick dark line into a single Segment. Each Segment carries
// its length, coverage (how densely edge pixels fill it) and estimated width.
//
// # Circles
//
// FindCircle is a restricted Hough circle transform: it only considers
// centres and radii within a tolerance of an expected circle, which keeps the
// search cheap enough to run on every frame.
//
// # Coordinate System
//
// Edge maps are indexed [y][x] with the origin at the top-left corner, X
// increasing rightward and Y increasing downward. Sub-pixel results use
// PointF in the same frame.
package detection
