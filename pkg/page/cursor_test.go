package page

import (
	"errors"
	"testing"
)

// driveAll repeatedly drives the cursor until Done and returns every index
// position produced, in order.
func driveAll(t *testing.T, p *Page, cur *RangeCursor) []int32 {
	t.Helper()
	var out []int32
	for i := 0; !cur.Done; i++ {
		if err := p.SearchRange(cur); err != nil {
			t.Fatalf("SearchRange drive %d failed: %v", i, err)
		}
		out = append(out, cur.Results[:cur.N]...)
		if i > 10000 {
			t.Fatal("Cursor never finished")
		}
	}
	return out
}

func TestRangeCursorScenario(t *testing.T) {
	p := newTestPage(t, 4096)
	for _, e := range []Entry{
		NewEntry(1, 100, nil),
		NewEntry(2, 50, nil),
		NewEntry(1, 200, nil),
	} {
		if err := p.Append(e); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	p.Sort()

	cur := NewRangeCursor(1, 0, 300, make([]int32, 2))
	if err := p.SearchRange(cur); err != nil {
		t.Fatalf("SearchRange failed: %v", err)
	}
	if cur.N != 2 {
		t.Fatalf("Expected 2 matches in one pass, got %d", cur.N)
	}
	if !cur.Done {
		t.Error("Expected Done after a single pass")
	}

	times := []Timestamp{}
	for _, idx := range cur.Results[:cur.N] {
		times = append(times, p.ReadEntry(int(idx)).Time())
	}
	if times[0] != 100 || times[1] != 200 {
		t.Errorf("Expected times [100 200], got %v", times)
	}
}

func TestRangeCursorIncrementalDrain(t *testing.T) {
	p := newTestPage(t, 8192)

	// Interleave three identifiers; id 5 gets 20 entries.
	for i := 0; i < 20; i++ {
		for _, param := range []uint32{4, 5, 6} {
			if err := p.Append(NewEntry(param, Timestamp(i*10), nil)); err != nil {
				t.Fatalf("Append failed: %v", err)
			}
		}
	}
	p.Sort()

	bigBuf := NewRangeCursor(5, MinTimestamp, MaxTimestamp, make([]int32, 64))
	all := driveAll(t, p, bigBuf)
	if len(all) != 20 {
		t.Fatalf("Expected 20 matches, got %d", len(all))
	}

	// A capacity-1 buffer must produce the same positions in the same
	// order across many drives.
	tiny := NewRangeCursor(5, MinTimestamp, MaxTimestamp, make([]int32, 1))
	incremental := driveAll(t, p, tiny)
	if len(incremental) != len(all) {
		t.Fatalf("Incremental drain found %d matches, want %d", len(incremental), len(all))
	}
	for i := range all {
		if incremental[i] != all[i] {
			t.Fatalf("Order diverges at %d: %d != %d", i, incremental[i], all[i])
		}
	}
}

func TestRangeCursorResumesMidRun(t *testing.T) {
	p := newTestPage(t, 4096)
	for i := 0; i < 5; i++ {
		if err := p.Append(NewEntry(9, Timestamp(i), nil)); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	p.Sort()

	cur := NewRangeCursor(9, MinTimestamp, MaxTimestamp, make([]int32, 2))

	if err := p.SearchRange(cur); err != nil {
		t.Fatal(err)
	}
	if cur.N != 2 || cur.Done {
		t.Fatalf("First drive: N=%d Done=%v, want 2/false", cur.N, cur.Done)
	}
	if err := p.SearchRange(cur); err != nil {
		t.Fatal(err)
	}
	if cur.N != 2 || cur.Done {
		t.Fatalf("Second drive: N=%d Done=%v, want 2/false", cur.N, cur.Done)
	}
	if err := p.SearchRange(cur); err != nil {
		t.Fatal(err)
	}
	if cur.N != 1 || !cur.Done {
		t.Fatalf("Third drive: N=%d Done=%v, want 1/true", cur.N, cur.Done)
	}
}

func TestRangeCursorTimeBounds(t *testing.T) {
	p := newTestPage(t, 4096)
	for i := 1; i <= 10; i++ {
		if err := p.Append(NewEntry(1, Timestamp(i*100), nil)); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	p.Sort()

	// Inclusive on both sides.
	cur := NewRangeCursor(1, 300, 700, make([]int32, 16))
	got := driveAll(t, p, cur)
	if len(got) != 5 {
		t.Fatalf("Expected 5 matches in [300, 700], got %d", len(got))
	}
	for _, idx := range got {
		ts := p.ReadEntry(int(idx)).Time()
		if ts < 300 || ts > 700 {
			t.Errorf("Match at time %d outside [300, 700]", ts)
		}
	}
}

func TestRangeCursorBBoxShortCircuit(t *testing.T) {
	p := newTestPage(t, 4096)
	for i := 0; i < 4; i++ {
		if err := p.Append(NewEntry(10, Timestamp(100+i), nil)); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	p.Sort()

	cases := []struct {
		name     string
		param    uint32
		low, upp Timestamp
	}{
		{"identifier below bbox", 9, MinTimestamp, MaxTimestamp},
		{"identifier above bbox", 11, MinTimestamp, MaxTimestamp},
		{"range before bbox", 10, 1, 99},
		{"range after bbox", 10, 200, 300},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cur := NewRangeCursor(tc.param, tc.low, tc.upp, make([]int32, 4))
			if err := p.SearchRange(cur); err != nil {
				t.Fatalf("SearchRange failed: %v", err)
			}
			if !cur.Done || cur.N != 0 {
				t.Errorf("Expected immediate Done with no results, got Done=%v N=%d", cur.Done, cur.N)
			}
			// The scan never left the probe: no start position was ever
			// established.
			if cur.startIndex != -1 {
				t.Errorf("Expected startIndex -1, got %d", cur.startIndex)
			}
		})
	}
}

func TestRangeCursorOpenBounds(t *testing.T) {
	p := newTestPage(t, 4096)
	for _, ts := range []Timestamp{-500, 0, 500} {
		if err := p.Append(NewEntry(2, ts, nil)); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	p.Sort()

	// Zero bounds mean an unbounded interval on both sides, so the
	// negative timestamp is included too.
	cur := NewRangeCursor(2, 0, 0, make([]int32, 8))
	if cur.Lowerbound != MinTimestamp || cur.Upperbound != MaxTimestamp {
		t.Fatalf("Zero bounds not normalized: [%d, %d]", cur.Lowerbound, cur.Upperbound)
	}
	got := driveAll(t, p, cur)
	if len(got) != 3 {
		t.Errorf("Expected all 3 entries for open bounds, got %d", len(got))
	}
}

func TestRangeCursorEmptyPage(t *testing.T) {
	p := newTestPage(t, 1024)
	p.Sort()

	cur := NewRangeCursor(1, MinTimestamp, MaxTimestamp, make([]int32, 4))
	if err := p.SearchRange(cur); err != nil {
		t.Fatalf("SearchRange failed: %v", err)
	}
	if !cur.Done || cur.N != 0 {
		t.Errorf("Expected Done with no results on empty page, got Done=%v N=%d", cur.Done, cur.N)
	}
}

func TestRangeCursorUnsortedPage(t *testing.T) {
	p := newTestPage(t, 1024)
	if err := p.Append(NewEntry(1, 1, nil)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	cur := NewRangeCursor(1, MinTimestamp, MaxTimestamp, make([]int32, 4))
	if err := p.SearchRange(cur); !errors.Is(err, ErrPageUnsorted) {
		t.Errorf("Expected ErrPageUnsorted, got %v", err)
	}

	// An append after sorting invalidates the order again.
	p.Sort()
	if err := p.Append(NewEntry(1, 2, nil)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := p.SearchRange(cur); !errors.Is(err, ErrPageUnsorted) {
		t.Errorf("Expected ErrPageUnsorted after post-sort append, got %v", err)
	}
}
