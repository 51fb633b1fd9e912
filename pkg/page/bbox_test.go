package page

import "testing"

func TestBoundingBoxUpdate(t *testing.T) {
	box := newBoundingBox()
	if !box.Empty() {
		t.Fatal("New bbox must be empty")
	}
	if box.Inside(1, 1) {
		t.Error("Nothing is inside an empty bbox")
	}

	box.Update(10, 100)
	if box.Empty() {
		t.Fatal("BBox must not be empty after an update")
	}
	if box.MinID != 10 || box.MaxID != 10 || box.MinTime != 100 || box.MaxTime != 100 {
		t.Errorf("First update should pin the box, got %+v", box)
	}

	box.Update(5, 300)
	box.Update(20, 50)
	if box.MinID != 5 || box.MaxID != 20 || box.MinTime != 50 || box.MaxTime != 300 {
		t.Errorf("Unexpected box after widening: %+v", box)
	}

	// Points inside never narrow the box.
	before := box
	box.Update(10, 100)
	if box != before {
		t.Errorf("Interior point changed the box: %+v -> %+v", before, box)
	}
}

func TestBoundingBoxInside(t *testing.T) {
	box := newBoundingBox()
	box.Update(5, 50)
	box.Update(20, 300)

	cases := []struct {
		param uint32
		ts    Timestamp
		want  bool
	}{
		{5, 50, true},
		{20, 300, true},
		{10, 100, true},
		{4, 100, false},
		{21, 100, false},
		{10, 49, false},
		{10, 301, false},
	}
	for _, tc := range cases {
		if got := box.Inside(tc.param, tc.ts); got != tc.want {
			t.Errorf("Inside(%d, %d) = %v, want %v", tc.param, tc.ts, got, tc.want)
		}
	}
}

func TestBoundingBoxOverlaps(t *testing.T) {
	box := newBoundingBox()
	box.Update(5, 50)
	box.Update(20, 300)

	cases := []struct {
		name     string
		param    uint32
		low, upp Timestamp
		want     bool
	}{
		{"fully inside", 10, 100, 200, true},
		{"interval straddles lower edge", 10, 0, 60, true},
		{"interval straddles upper edge", 10, 290, 400, true},
		{"interval covers box", 10, MinTimestamp, MaxTimestamp, true},
		{"identifier too small", 4, 100, 200, false},
		{"identifier too large", 21, 100, 200, false},
		{"interval before box", 10, 0, 49, false},
		{"interval after box", 10, 301, 400, false},
	}
	for _, tc := range cases {
		if got := box.Overlaps(tc.param, tc.low, tc.upp); got != tc.want {
			t.Errorf("%s: Overlaps(%d, %d, %d) = %v, want %v",
				tc.name, tc.param, tc.low, tc.upp, got, tc.want)
		}
	}

	empty := newBoundingBox()
	if empty.Overlaps(1, MinTimestamp, MaxTimestamp) {
		t.Error("Empty box overlaps nothing")
	}
}
