package page

import (
	"context"
	"time"
)

// cursorState is the finite-state tag of a scan.
type cursorState uint8

const (
	cursorInit cursorState = iota
	cursorProbing
	cursorScanning
	cursorExhausted
)

// Cursor is caller-owned scan state for incremental page traversal. Results
// holds sorted-index positions of matching entries; every drive fills it
// from the front and sets N to the number filled. Done reports that the scan
// cannot produce further matches. The results buffer is only written into,
// never reallocated.
type Cursor struct {
	Results []int32
	N       int
	Done    bool

	startIndex int
	probeIndex int
	state      cursorState
}

// RangeCursor extends Cursor with the parameters of a single-identifier
// time-range query. Both bounds are inclusive.
type RangeCursor struct {
	Cursor

	Param      uint32
	Lowerbound Timestamp
	Upperbound Timestamp
}

// NewRangeCursor builds a range cursor over the caller's results buffer,
// which must have nonzero length for the scan to make progress. A zero bound
// is normalized to the open-ended sentinel on that side, matching callers
// that leave half of the interval unset; MinTimestamp and MaxTimestamp are
// the explicit spellings.
func NewRangeCursor(param uint32, low, upp Timestamp, buf []int32) *RangeCursor {
	if low == 0 {
		low = MinTimestamp
	}
	if upp == 0 {
		upp = MaxTimestamp
	}
	return &RangeCursor{
		Cursor: Cursor{
			Results:    buf,
			startIndex: -1,
			probeIndex: -1,
			state:      cursorInit,
		},
		Param:      param,
		Lowerbound: low,
		Upperbound: upp,
	}
}

// SearchRange drives one step of a range scan over a sorted page: it fills
// the cursor's results buffer with as many matching index positions as fit,
// then returns control. Repeated calls resume exactly where the previous one
// stopped, so a small fixed buffer can drain an arbitrarily long match run
// without re-scanning. The scan is finished once cur.Done is set.
//
// Matches for a single identifier are contiguous in the sorted index, so the
// scan is linear with no backtracking after the initial probe.
func (p *Page) SearchRange(cur *RangeCursor) error {
	if !p.sorted {
		return ErrPageUnsorted
	}
	start := time.Now()
	cur.N = 0

	if cur.state == cursorInit {
		cur.state = cursorProbing
	}
	if cur.state == cursorProbing {
		if !p.BBox().Overlaps(cur.Param, cur.Lowerbound, cur.Upperbound) {
			cur.state = cursorExhausted
		} else {
			i := p.lowerBound(cur.Param, cur.Lowerbound)
			if i >= p.Count() {
				cur.state = cursorExhausted
			} else if id, _ := p.entryKey(p.u32(HeaderSize + i*offsetSize)); id != cur.Param {
				cur.state = cursorExhausted
			} else {
				cur.startIndex = i
				cur.probeIndex = i
				cur.state = cursorScanning
			}
		}
	}
	if cur.state == cursorScanning {
		for cur.probeIndex < p.Count() {
			id, ts := p.entryKey(p.u32(HeaderSize + cur.probeIndex*offsetSize))
			if id != cur.Param || ts > cur.Upperbound {
				cur.state = cursorExhausted
				break
			}
			if cur.N >= len(cur.Results) {
				// Buffer full with a match still pending; the next drive
				// resumes here.
				break
			}
			cur.Results[cur.N] = int32(cur.probeIndex)
			cur.N++
			cur.probeIndex++
		}
		if cur.probeIndex >= p.Count() {
			cur.state = cursorExhausted
		}
	}
	if cur.state == cursorExhausted {
		cur.Done = true
	}
	p.metrics.RecordSearch(context.Background(), time.Since(start), int64(cur.N))
	return nil
}
