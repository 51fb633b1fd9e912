// Package page implements the fixed-extent binary page that is the unit of
// storage and search in Atrium. A page packs variable-length timestamped
// entries from the tail of its extent while an index of 4-byte offsets grows
// from just after the header; the gap between the two regions is the free
// space. After an explicit sort the index is ordered by (identifier,
// timestamp) and supports binary search and resumable range scans.
//
// A page carries no internal locking. The supported lifecycle is a
// single-writer append phase, an explicit Seal, then an immutable read phase
// that any number of cursors may query concurrently.
package page

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cespare/xxhash/v2"
)

// PageType tags the role a page plays in a volume.
type PageType uint32

const (
	// Metadata pages hold bookkeeping used by the storage layer itself.
	Metadata PageType = iota
	// Index pages hold timestamped measurement entries.
	Index
)

const (
	// HeaderSize is the fixed page header length in bytes. The offset index
	// starts immediately after it.
	HeaderSize = 64

	// MaxPageOffset is the largest byte offset addressable inside a page.
	// The value itself is reserved as a sentinel.
	MaxPageOffset = 0xFFFFFFFF

	// MaxPageSize is the largest supported extent. Offsets are 32-bit, so
	// an extent never exceeds 4 GiB.
	MaxPageSize = MaxPageOffset

	offsetSize = 4

	// Header field offsets, all fields little-endian.
	offType       = 0
	offCount      = 4
	offLastOffset = 8
	offOverwrites = 12
	offPageID     = 16
	offSealed     = 20
	offLength     = 24
	offMinID      = 32
	offMaxID      = 36
	offMinTime    = 40
	offMaxTime    = 48
	offChecksum   = 56
)

var (
	ErrExtentTooSmall = errors.New("extent smaller than page header")
	ErrExtentTooLarge = errors.New("extent exceeds maximum page size")
	ErrPageFull       = errors.New("not enough free space in page")
	ErrPageSealed     = errors.New("page is sealed for writing")
	ErrPageUnsorted   = errors.New("page index is not sorted")
	ErrBadEntry       = errors.New("entry length does not match payload size")
	ErrBadHeader      = errors.New("malformed page header")
	ErrBadChecksum    = errors.New("page checksum mismatch")
)

// Page is a fixed-extent container for entries. The extent is owned
// externally (allocated or mapped by the volume manager) and only referenced
// here; all header fields live inside the extent itself, so a page can be
// re-attached to its bytes with OpenPage.
type Page struct {
	data    []byte
	sorted  bool
	metrics PageMetrics
}

// Option configures a page at construction time.
type Option func(*Page)

// WithMetrics attaches a metrics sink to the page. The default is a no-op
// sink.
func WithMetrics(m PageMetrics) Option {
	return func(p *Page) {
		if m != nil {
			p.metrics = m
		}
	}
}

// NewPage initializes a page header on a fresh extent. The extent's previous
// content outside the header is left untouched.
func NewPage(extent []byte, typ PageType, id uint32, opts ...Option) (*Page, error) {
	if len(extent) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrExtentTooSmall, len(extent))
	}
	if int64(len(extent)) > MaxPageSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrExtentTooLarge, len(extent))
	}
	p := &Page{data: extent, metrics: NewNoopPageMetrics()}
	for _, opt := range opts {
		opt(p)
	}
	p.setU32(offType, uint32(typ))
	p.setU32(offPageID, id)
	p.setU64(offLength, uint64(len(extent)))
	p.setU32(offOverwrites, 0)
	p.reset()
	return p, nil
}

// OpenPage attaches to an extent that already carries a page header, e.g.
// after the extent was mapped back in by the volume manager. The header is
// validated against the extent, and a sealed page additionally has its
// checksum verified before any entry is served from it.
func OpenPage(extent []byte, opts ...Option) (*Page, error) {
	if len(extent) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrExtentTooSmall, len(extent))
	}
	p := &Page{data: extent, metrics: NewNoopPageMetrics()}
	for _, opt := range opts {
		opt(p)
	}
	if p.u64(offLength) != uint64(len(extent)) {
		return nil, fmt.Errorf("%w: header length %d, extent length %d",
			ErrBadHeader, p.u64(offLength), len(extent))
	}
	if t := p.Type(); t != Metadata && t != Index {
		return nil, fmt.Errorf("%w: unknown page type %d", ErrBadHeader, t)
	}
	indexEnd := uint64(HeaderSize) + uint64(p.u32(offCount))*offsetSize
	if indexEnd > uint64(p.u32(offLastOffset)) || uint64(p.u32(offLastOffset)) > uint64(len(extent)) {
		return nil, fmt.Errorf("%w: index region overlaps entry region", ErrBadHeader)
	}
	if p.Sealed() {
		if sum := p.extentChecksum(); sum != p.u64(offChecksum) {
			return nil, fmt.Errorf("%w: stored %016x, computed %016x",
				ErrBadChecksum, p.u64(offChecksum), sum)
		}
		// A sealed page was sorted when its checksum was stamped.
		p.sorted = true
	}
	return p, nil
}

// reset rewinds the page to its empty write-phase state. The overwrite
// counter is left alone; Clear is the operation that bumps it.
func (p *Page) reset() {
	p.setU32(offCount, 0)
	p.setU32(offLastOffset, uint32(len(p.data)))
	p.setU32(offSealed, 0)
	p.setU64(offChecksum, 0)
	p.writeBBox(newBoundingBox())
	p.sorted = false
}

// Clear drops all page content and returns the page to the write phase,
// recording the reuse in the overwrite counter.
func (p *Page) Clear() {
	p.reset()
	p.setU32(offOverwrites, p.u32(offOverwrites)+1)
	p.metrics.RecordClear(context.Background(), int64(p.Overwrites()))
}

// Type returns the page's role tag.
func (p *Page) Type() PageType {
	return PageType(p.u32(offType))
}

// ID returns the page identity assigned by the volume manager.
func (p *Page) ID() uint32 {
	return p.u32(offPageID)
}

// Count returns the number of entries stored in the page.
func (p *Page) Count() int {
	return int(p.u32(offCount))
}

// Len returns the total extent size in bytes.
func (p *Page) Len() int {
	return len(p.data)
}

// LastOffset returns the byte offset of the most recently written entry, the
// low-water mark of the entries region. For an empty page it equals the
// extent length.
func (p *Page) LastOffset() uint32 {
	return p.u32(offLastOffset)
}

// Overwrites returns how many times the page has been cleared for reuse.
func (p *Page) Overwrites() uint32 {
	return p.u32(offOverwrites)
}

// Sealed reports whether the page is in the immutable read phase.
func (p *Page) Sealed() bool {
	return p.u32(offSealed) != 0
}

// FreeSpace returns the unused bytes between the end of the index region and
// the start of the entries region.
func (p *Page) FreeSpace() int {
	return int(int64(p.LastOffset()) - int64(HeaderSize) - int64(p.Count())*offsetSize)
}

// BBox returns the page's current bounding box.
func (p *Page) BBox() BoundingBox {
	return BoundingBox{
		MinID:   p.u32(offMinID),
		MaxID:   p.u32(offMaxID),
		MinTime: Timestamp(p.u64(offMinTime)),
		MaxTime: Timestamp(p.u64(offMaxTime)),
	}
}

// Extent returns the raw page bytes for the persistence layer to write out.
// Mutating them through this slice invalidates the page's guarantees.
func (p *Page) Extent() []byte {
	return p.data
}

// Append copies the entry into the page: entry bytes go immediately below
// the current low-water mark and the new offset takes the next index slot.
// The only steady-state failure is ErrPageFull, which leaves the page
// untouched; the caller is expected to route the entry to another page.
// Appending invalidates any prior sort order.
func (p *Page) Append(e Entry) error {
	if e.Length != EntrySize(len(e.Payload)) {
		return fmt.Errorf("%w: length %d, payload %d bytes", ErrBadEntry, e.Length, len(e.Payload))
	}
	return p.append(e.ParamID, e.Time, e.Payload)
}

// AppendExtern behaves like Append for the reference form: the payload is
// copied out of the caller-owned buffer the entry points at.
func (p *Page) AppendExtern(e ExternEntry) error {
	return p.append(e.ParamID, e.Time, e.Data)
}

func (p *Page) append(param uint32, ts Timestamp, payload []byte) error {
	if p.Sealed() {
		return ErrPageSealed
	}
	need := int64(EntryHeaderSize) + int64(len(payload))
	if need > MaxPageSize {
		return fmt.Errorf("%w: %d byte payload", ErrBadEntry, len(payload))
	}
	if int64(p.FreeSpace()) < need+offsetSize {
		p.metrics.RecordOverflow(context.Background(), need)
		return ErrPageFull
	}
	size := uint32(need)
	off := p.LastOffset() - size
	b := p.data[off : off+size]
	binary.LittleEndian.PutUint32(b[0:4], param)
	binary.LittleEndian.PutUint64(b[4:12], uint64(ts))
	binary.LittleEndian.PutUint32(b[12:16], size)
	copy(b[EntryHeaderSize:], payload)

	count := p.Count()
	p.setU32(HeaderSize+count*offsetSize, off)
	p.setU32(offCount, uint32(count+1))
	p.setU32(offLastOffset, off)

	box := p.BBox()
	box.Update(param, ts)
	p.writeBBox(box)

	p.sorted = false
	p.metrics.RecordAppend(context.Background(), int64(size))
	return nil
}

// EntryLength returns the serialized length of the entry at the given index
// position, or 0 if the position is out of range.
func (p *Page) EntryLength(i int) int {
	v := p.ReadEntry(i)
	if !v.Valid() {
		return 0
	}
	return int(v.Length())
}

// ReadEntry returns a borrowed view of the entry at the given index position
// with no copying. The view is valid only until the page is next mutated or
// cleared. An out-of-range position yields an invalid view.
func (p *Page) ReadEntry(i int) EntryView {
	if i < 0 || i >= p.Count() {
		return EntryView{}
	}
	return p.entryAt(p.u32(HeaderSize + i*offsetSize))
}

// CopyEntry copies the serialized entry at index position i into dst. It
// returns the entry length on success, the negated required length when dst
// is too small (so the caller can grow the buffer and retry), and 0 when the
// position is out of range.
func (p *Page) CopyEntry(i int, dst []byte) int {
	v := p.ReadEntry(i)
	if !v.Valid() {
		return 0
	}
	n := int(v.Length())
	if len(dst) < n {
		return -n
	}
	copy(dst, v.b)
	return n
}

// entryAt bounds-checks every field of the entry at off against the extent,
// so even a corrupted offset cannot cause an out-of-extent read.
func (p *Page) entryAt(off uint32) EntryView {
	if off < HeaderSize || int64(off)+EntryHeaderSize > int64(len(p.data)) {
		return EntryView{}
	}
	length := binary.LittleEndian.Uint32(p.data[off+12 : off+16])
	if length < EntryHeaderSize || int64(off)+int64(length) > int64(len(p.data)) {
		return EntryView{}
	}
	return EntryView{b: p.data[off : off+length]}
}

// entryKey returns the (identifier, timestamp) sort key of the entry at off.
func (p *Page) entryKey(off uint32) (uint32, Timestamp) {
	v := p.entryAt(off)
	if !v.Valid() {
		return 0, 0
	}
	return v.ParamID(), v.Time()
}

// Sort reorders the index in place by ascending (identifier, timestamp).
// Entries with equal keys keep their insertion order. Sorting is the
// precondition for Search and SearchRange; a page never sorts itself
// implicitly.
func (p *Page) Sort() {
	n := p.Count()
	offs := make([]uint32, n)
	for i := range offs {
		offs[i] = p.u32(HeaderSize + i*offsetSize)
	}
	sort.SliceStable(offs, func(i, j int) bool {
		pi, ti := p.entryKey(offs[i])
		pj, tj := p.entryKey(offs[j])
		if pi != pj {
			return pi < pj
		}
		return ti < tj
	})
	for i, off := range offs {
		p.setU32(HeaderSize+i*offsetSize, off)
	}
	p.sorted = true
}

// Seal moves the page from the write phase to the immutable read phase:
// it sorts the index if needed, sets the sealed flag and stamps the extent
// checksum so OpenPage can verify integrity later. Sealing a sealed page is
// a no-op.
func (p *Page) Seal() {
	if p.Sealed() {
		return
	}
	if !p.sorted {
		p.Sort()
	}
	p.setU32(offSealed, 1)
	p.setU64(offChecksum, p.extentChecksum())
	p.metrics.RecordSeal(context.Background(), int64(p.Count()), int64(p.Len()-p.FreeSpace()))
}

// extentChecksum hashes the whole extent except the checksum field itself.
func (p *Page) extentChecksum() uint64 {
	d := xxhash.New()
	d.Write(p.data[:offChecksum])
	d.Write(p.data[offChecksum+8:])
	return d.Sum64()
}

// Search binary-searches a sorted page for the first entry with the given
// identifier and a timestamp at or after lower, returning the located
// entry's byte offset. Searching a page that has not been sorted since its
// last mutation is a contract violation and is reported as ErrPageUnsorted
// rather than yielding unreliable results.
func (p *Page) Search(param uint32, lower Timestamp) (uint32, bool, error) {
	if !p.sorted {
		return 0, false, ErrPageUnsorted
	}
	start := time.Now()
	i := p.lowerBound(param, lower)
	if i >= p.Count() {
		p.metrics.RecordSearch(context.Background(), time.Since(start), 0)
		return 0, false, nil
	}
	off := p.u32(HeaderSize + i*offsetSize)
	if id, _ := p.entryKey(off); id != param {
		p.metrics.RecordSearch(context.Background(), time.Since(start), 0)
		return 0, false, nil
	}
	p.metrics.RecordSearch(context.Background(), time.Since(start), 1)
	return off, true, nil
}

// lowerBound returns the first sorted index position whose (identifier,
// timestamp) key is at or after (param, ts), or Count if there is none.
func (p *Page) lowerBound(param uint32, ts Timestamp) int {
	return sort.Search(p.Count(), func(i int) bool {
		id, t := p.entryKey(p.u32(HeaderSize + i*offsetSize))
		if id != param {
			return id > param
		}
		return t >= ts
	})
}

func (p *Page) u32(off int) uint32 {
	return binary.LittleEndian.Uint32(p.data[off : off+4])
}

func (p *Page) setU32(off int, v uint32) {
	binary.LittleEndian.PutUint32(p.data[off:off+4], v)
}

func (p *Page) u64(off int) uint64 {
	return binary.LittleEndian.Uint64(p.data[off : off+8])
}

func (p *Page) setU64(off int, v uint64) {
	binary.LittleEndian.PutUint64(p.data[off:off+8], v)
}

func (p *Page) writeBBox(b BoundingBox) {
	p.setU32(offMinID, b.MinID)
	p.setU32(offMaxID, b.MaxID)
	p.setU64(offMinTime, uint64(b.MinTime))
	p.setU64(offMaxTime, uint64(b.MaxTime))
}
