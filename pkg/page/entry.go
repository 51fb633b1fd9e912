package page

import "encoding/binary"

// Serialized entry layout within a page extent:
//
//	[0:4)    param id
//	[4:12)   timestamp (microseconds, signed)
//	[12:16)  total length, header + payload
//	[16:len) payload
//
// Entries are self-describing: the length field allows an entry to be parsed
// without consulting the page index.
const (
	// EntryHeaderSize is the fixed portion of a serialized entry.
	EntryHeaderSize = 16
)

// Entry is a single measurement: an identifier, a timestamp and a
// variable-length payload. Length is the total serialized size and must equal
// EntrySize(len(Payload)); NewEntry keeps the two consistent, and the page
// rejects a mismatch at append time. An entry is immutable once appended.
type Entry struct {
	ParamID uint32
	Time    Timestamp
	Length  uint32
	Payload []byte
}

// NewEntry builds an entry with a consistent Length field.
func NewEntry(param uint32, ts Timestamp, payload []byte) Entry {
	return Entry{
		ParamID: param,
		Time:    ts,
		Length:  EntrySize(len(payload)),
		Payload: payload,
	}
}

// EntrySize returns the exact number of bytes needed to store an entry with
// a payload of the given size.
func EntrySize(payloadLen int) uint32 {
	return uint32(EntryHeaderSize + payloadLen)
}

// ExternEntry is the reference form of Entry: the identifier and timestamp
// are carried directly while the payload stays in a caller-owned buffer and
// is copied into the page only at append time. Use it when the payload
// already lives in an I/O or network buffer and an intermediate copy should
// be avoided.
type ExternEntry struct {
	ParamID uint32
	Time    Timestamp
	Data    []byte
}

// Size returns the serialized size of the entry.
func (e ExternEntry) Size() uint32 {
	return EntrySize(len(e.Data))
}

// EntryView is a borrowed, read-only view of an entry inside a page extent.
// No bytes are copied; the view stays valid only until the page is next
// mutated or cleared. The zero view is invalid and all of its accessors
// return zero values.
type EntryView struct {
	b []byte
}

// Valid reports whether the view points at an entry.
func (v EntryView) Valid() bool {
	return len(v.b) >= EntryHeaderSize
}

// ParamID returns the entry's identifier.
func (v EntryView) ParamID() uint32 {
	if !v.Valid() {
		return 0
	}
	return binary.LittleEndian.Uint32(v.b[0:4])
}

// Time returns the entry's timestamp.
func (v EntryView) Time() Timestamp {
	if !v.Valid() {
		return 0
	}
	return Timestamp(binary.LittleEndian.Uint64(v.b[4:12]))
}

// Length returns the entry's total serialized size.
func (v EntryView) Length() uint32 {
	if !v.Valid() {
		return 0
	}
	return binary.LittleEndian.Uint32(v.b[12:16])
}

// Payload returns the entry's payload bytes, still borrowed from the page.
func (v EntryView) Payload() []byte {
	if !v.Valid() {
		return nil
	}
	return v.b[EntryHeaderSize:]
}

// Decode copies the view out of the page into an owned Entry.
func (v EntryView) Decode() Entry {
	if !v.Valid() {
		return Entry{}
	}
	return Entry{
		ParamID: v.ParamID(),
		Time:    v.Time(),
		Length:  v.Length(),
		Payload: append([]byte(nil), v.Payload()...),
	}
}
