package gauge

import (
	"math"
	"testing"
)

// locate runs the stages in front of LocateNeedle.
func locate(t *testing.T, p Profile, f Frame, previous *float64) Observation {
	t.Helper()
	norm, err := Normalize(f, &p)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	masked, err := ApplyMask(norm, &p)
	if err != nil {
		t.Fatalf("ApplyMask: %v", err)
	}
	return LocateNeedle(masked, &p, previous)
}

func TestLocateNeedle_SingleLine(t *testing.T) {
	p := testProfile(t)
	obs := locate(t, p, gaugeFrame(t, 200, 45), nil)

	if !obs.Found {
		t.Fatal("needle not found")
	}
	if obs.Competing != 0 {
		t.Errorf("competing = %d, want 0", obs.Competing)
	}
	if obs.Confidence < p.Quality.AutoGood {
		t.Errorf("confidence = %.3f, want >= %.2f (obs %+v)", obs.Confidence, p.Quality.AutoGood, obs)
	}
	if d := math.Abs(deg(obs.Angle) - 45); d > 1 {
		t.Errorf("angle = %.2f°, want 45°", deg(obs.Angle))
	}
	if obs.PivotDistance > 2 {
		t.Errorf("pivot distance = %.2f, want ~0", obs.PivotDistance)
	}
	if obs.Length < 190 || obs.Length > 210 {
		t.Errorf("length = %.1f, want ~200", obs.Length)
	}
	// The tip is the end away from the pivot, up and to the right.
	if obs.Tip.X < 350 || obs.Tip.Y > 150 {
		t.Errorf("tip = %+v, want near (391, 109)", obs.Tip)
	}
}

func TestLocateNeedle_Directions(t *testing.T) {
	p := testProfile(t)

	for _, angle := range []float64{10, 80, 135, 200, 290} {
		obs := locate(t, p, gaugeFrame(t, 180, angle), nil)
		if !obs.Found {
			t.Errorf("%v°: needle not found", angle)
			continue
		}
		if d := deg(angularDistance(obs.Angle, Rad(angle))); d > 1 {
			t.Errorf("%v°: angle = %.2f°", angle, deg(obs.Angle))
		}
	}
}

func TestLocateNeedle_NoLine(t *testing.T) {
	p := testProfile(t)
	obs := locate(t, p, gaugeFrame(t, 0), nil)

	if obs.Found || obs.Confidence != 0 || obs.Competing != 0 {
		t.Errorf("blank dial gave %+v, want zero observation", obs)
	}
}

func TestLocateNeedle_ShortLineIgnored(t *testing.T) {
	p := testProfile(t)
	obs := locate(t, p, gaugeFrame(t, 50, 45), nil)

	if obs.Found {
		t.Errorf("50px line accepted with 80px minimum: %+v", obs)
	}
}

func TestLocateNeedle_OffPivotLine(t *testing.T) {
	p := testProfile(t)

	img := newCanvas(500, 500, 255)
	// A long stroke that misses the pivot by 100px.
	drawNeedle(img, 150, 350, 0, 0, 200, 4)
	f, _ := NewFrame(img, testTime, "")

	obs := locate(t, p, f, nil)
	if !obs.Found {
		t.Fatal("expected the stroke to be reported")
	}
	if obs.PivotDistance < 90 {
		t.Errorf("pivot distance = %.1f, want ~100", obs.PivotDistance)
	}
	if obs.Confidence != 0 {
		t.Errorf("confidence = %.3f for a line far from the pivot", obs.Confidence)
	}
}

func TestLocateNeedle_CompetingLine(t *testing.T) {
	p := testProfile(t)
	obs := locate(t, p, gaugeFrame(t, 200, 45, 50), nil)

	if obs.Competing < 1 {
		t.Errorf("competing = %d, want >= 1", obs.Competing)
	}
	if obs.Confidence >= p.Quality.AutoGood {
		t.Errorf("confidence = %.3f, want below %.2f with a rival", obs.Confidence, p.Quality.AutoGood)
	}
}

// tieProfile hides the hub so that two needles of equal length leave
// identical edge evidence.
func tieProfile(t *testing.T) Profile {
	p := testProfile(t)
	p.ControlPoints = []ControlPoint{{Angle: 0, Value: 0}, {Angle: Rad(180), Value: 100}}
	p.Mask.ExcludeCircle(250, 250, 15)
	if err := p.Validate(); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLocateNeedle_TieBreak(t *testing.T) {
	p := tieProfile(t)
	f := gaugeFrame(t, 150, 30, 150)

	tests := []struct {
		name     string
		previous *float64
		want     float64
	}{
		{"no history prefers smaller angle", nil, 30},
		{"previous near the larger angle", ptr(Rad(140)), 150},
		{"previous near the smaller angle", ptr(Rad(40)), 30},
		{"previous across the axis", ptr(Rad(350)), 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for run := 0; run < 2; run++ {
				obs := locate(t, p, f, tt.previous)
				if !obs.Found {
					t.Fatal("needle not found")
				}
				if d := math.Abs(deg(obs.Angle) - tt.want); d > 1 {
					t.Fatalf("run %d: angle = %.2f°, want %v°", run, deg(obs.Angle), tt.want)
				}
				if obs.Competing != 1 {
					t.Errorf("competing = %d, want 1", obs.Competing)
				}
			}
		})
	}
}

func TestSelectNeedle(t *testing.T) {
	n := DefaultProfile().Needle

	mk := func(length, pivot, angleDeg float64) candidate {
		c := candidate{pivot: pivot, angle: Rad(angleDeg)}
		c.seg.Length = length
		return c
	}

	tests := []struct {
		name     string
		cands    []candidate
		previous *float64
		want     int
	}{
		{"longest wins", []candidate{mk(100, 1, 10), mk(150, 1, 200)}, nil, 1},
		{"pivot-consistent preferred", []candidate{mk(300, 60, 10), mk(120, 2, 200)}, nil, 1},
		{"no consistent line falls back to longest", []candidate{mk(100, 60, 10), mk(140, 90, 200)}, nil, 1},
		{"tie goes to smaller angle", []candidate{mk(150, 1, 200), mk(149, 2, 20)}, nil, 1},
		{"tie goes to previous", []candidate{mk(150, 1, 200), mk(149, 2, 20)}, ptr(Rad(190)), 0},
		{"pivot gap breaks tie", []candidate{mk(150, 1, 200), mk(149, 10, 20)}, nil, 0},
		{"length gap breaks tie", []candidate{mk(150, 1, 200), mk(140, 1, 20)}, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := selectNeedle(tt.cands, n, tt.previous); got != tt.want {
				t.Errorf("selectNeedle = %d, want %d", got, tt.want)
			}
		})
	}
}

func ptr(v float64) *float64 { return &v }
