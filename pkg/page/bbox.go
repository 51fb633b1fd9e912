package page

import "math"

// BoundingBox is the running (identifier, timestamp) envelope of every entry
// appended to a page, used to reject out-of-range queries without scanning.
// It starts inverted (min above max) so the first update establishes it, and
// it only ever widens; Clear on the owning page is the only way back to the
// empty state.
type BoundingBox struct {
	MinID   uint32
	MaxID   uint32
	MinTime Timestamp
	MaxTime Timestamp
}

func newBoundingBox() BoundingBox {
	return BoundingBox{
		MinID:   math.MaxUint32,
		MaxID:   0,
		MinTime: MaxTimestamp,
		MaxTime: MinTimestamp,
	}
}

// Empty reports whether the box has seen no points yet.
func (b BoundingBox) Empty() bool {
	return b.MinID > b.MaxID
}

// Update widens the box to include the given point.
func (b *BoundingBox) Update(param uint32, ts Timestamp) {
	if param < b.MinID {
		b.MinID = param
	}
	if param > b.MaxID {
		b.MaxID = param
	}
	if ts < b.MinTime {
		b.MinTime = ts
	}
	if ts > b.MaxTime {
		b.MaxTime = ts
	}
}

// Inside reports whether the point falls within the box.
func (b BoundingBox) Inside(param uint32, ts Timestamp) bool {
	if b.Empty() {
		return false
	}
	return param >= b.MinID && param <= b.MaxID &&
		ts >= b.MinTime && ts <= b.MaxTime
}

// Overlaps reports whether a range query for one identifier over the
// inclusive interval [low, upp] can intersect the box. A false result
// guarantees the page holds zero matches for the query.
func (b BoundingBox) Overlaps(param uint32, low, upp Timestamp) bool {
	if b.Empty() {
		return false
	}
	return param >= b.MinID && param <= b.MaxID &&
		low <= b.MaxTime && upp >= b.MinTime
}
