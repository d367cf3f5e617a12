package detection

import (
	"math"
)

// Circle represents a detected circular shape with metadata.
type Circle struct {
	// Center is the detected center point of the circle.
	Center Point `json:"center"`

	// Radius is the detected radius in pixels.
	Radius int `json:"radius"`

	// Confidence is the fraction of the expected circumference that voted
	// for this circle (0.0 to 1.0).
	Confidence float64 `json:"confidence"`
}

// CircleSearch restricts FindCircle to circles near an expected position.
type CircleSearch struct {
	// Center is where the circle is expected to be.
	Center PointF

	// Radius is the expected radius in pixels.
	Radius int

	// Tolerance bounds both the centre offset and the radius error, in pixels.
	Tolerance int

	// MinConfidence is the vote fraction below which no circle is reported.
	// Zero means 0.3.
	MinConfidence float64
}

// FindCircle searches an edge map for the best circle matching search using
// a restricted Hough circle transform.
//
// # Algorithm
//
//  1. Only edge pixels whose distance from the expected centre lies within
//     Radius ± 2·Tolerance can vote
//  2. For every radius in Radius ± Tolerance each pixel votes for centres at
//     1° steps, restricted to the Tolerance window around the expected centre
//  3. Candidate centres are scored by the vote sum of their 3x3 neighbourhood;
//     the highest raw score over all radii wins
//  4. Confidence = score / (2π·radius), capped at 1.0
//
// The second return value is false when nothing reaches MinConfidence.
func FindCircle(edges [][]bool, search CircleSearch) (Circle, bool) {
	if len(edges) == 0 || search.Radius <= 0 {
		return Circle{}, false
	}
	tol := search.Tolerance
	if tol < 0 {
		tol = 0
	}
	minConf := search.MinConfidence
	if minConf <= 0 {
		minConf = 0.3
	}

	cx0 := int(math.Round(search.Center.X))
	cy0 := int(math.Round(search.Center.Y))
	win := 2*tol + 1

	lo := float64(search.Radius - 2*tol)
	hi := float64(search.Radius + 2*tol)
	voters := make([]Point, 0, 1024)
	for y, row := range edges {
		for x, e := range row {
			if !e {
				continue
			}
			d := math.Hypot(float64(x)-search.Center.X, float64(y)-search.Center.Y)
			if d >= lo && d <= hi {
				voters = append(voters, Point{X: x, Y: y})
			}
		}
	}
	if len(voters) == 0 {
		return Circle{}, false
	}

	cosT := make([]float64, 360)
	sinT := make([]float64, 360)
	for a := 0; a < 360; a++ {
		rad := float64(a) * math.Pi / 180
		cosT[a] = math.Cos(rad)
		sinT[a] = math.Sin(rad)
	}

	var best Circle
	bestScore := 0
	for radius := search.Radius - tol; radius <= search.Radius+tol; radius++ {
		if radius <= 0 {
			continue
		}

		acc := make([][]int, win)
		for i := range acc {
			acc[i] = make([]int, win)
		}

		for _, p := range voters {
			// A voter marks each centre at most once per radius.
			var last Point
			hasLast := false
			for a := 0; a < 360; a++ {
				cx := p.X - int(math.Round(float64(radius)*cosT[a]))
				cy := p.Y - int(math.Round(float64(radius)*sinT[a]))
				if hasLast && cx == last.X && cy == last.Y {
					continue
				}
				last, hasLast = Point{X: cx, Y: cy}, true
				ix, iy := cx-cx0+tol, cy-cy0+tol
				if ix < 0 || ix >= win || iy < 0 || iy >= win {
					continue
				}
				acc[iy][ix]++
			}
		}

		for iy := 0; iy < win; iy++ {
			for ix := 0; ix < win; ix++ {
				score := 0
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						ny, nx := iy+dy, ix+dx
						if ny >= 0 && ny < win && nx >= 0 && nx < win {
							score += acc[ny][nx]
						}
					}
				}
				if score > bestScore {
					bestScore = score
					best = Circle{
						Center:     Point{X: ix - tol + cx0, Y: iy - tol + cy0},
						Radius:     radius,
						Confidence: math.Min(float64(score)/(2*math.Pi*float64(radius)), 1.0),
					}
				}
			}
		}
	}

	if bestScore == 0 || best.Confidence < minConf {
		return Circle{}, false
	}
	return best, true
}
