package ptrarith

import "fmt"

// Ptr is a bounds-checked reference to an item inside a byte buffer.
//
// Ptr keeps the item position as an offset relative to the buffer start, so
// it stays meaningful when the buffer is copied or persisted. A Ptr MUST be
// checked with Valid before any access to its contents: Bytes, Get and Put
// panic on an unvalidated or invalid pointer. Valid re-checks bounds against
// the current buffer each time it is called.
//
// Ptr does not own the memory it points to.
type Ptr struct {
	buf       []byte
	bufSize   uint64
	offset    uint64
	size      uint64
	typeSize  uint64
	minOffset uint64

	validated bool
}

// New constructs a Ptr to the item of the given size at the given offset of
// buf. typeSize is the minimum item size (usually the size of the item
// header), minOffset is the lowest acceptable offset (usually the size of the
// buffer's own header).
//
// If any of the conditions is violated, an invalid Ptr is returned:
//   - size >= typeSize
//   - buf is not nil
//   - offset >= minOffset
//   - offset+size <= len(buf)
func New(buf []byte, offset, size, typeSize, minOffset uint64) Ptr {
	if size >= typeSize &&
		buf != nil &&
		offset >= minOffset &&
		offset+size >= offset && // overflow
		offset+size <= uint64(len(buf)) {
		return Ptr{
			buf:       buf,
			bufSize:   uint64(len(buf)),
			offset:    offset,
			size:      size,
			typeSize:  typeSize,
			minOffset: minOffset,
		}
	}

	return Ptr{}
}

// Valid checks the pointer and marks it as checked. Contents of the Ptr may
// be accessed only after Valid returned true.
func (p *Ptr) Valid() bool {
	p.validated = p.buf != nil &&
		p.size >= p.typeSize &&
		p.offset >= p.minOffset &&
		p.offset+p.size <= p.bufSize &&
		p.bufSize <= uint64(len(p.buf))

	return p.validated
}

// Offset returns item offset inside the buffer. Returns 0 for invalid Ptr.
func (p Ptr) Offset() uint64 {
	return p.offset
}

// Size returns item size. Returns 0 for invalid Ptr.
func (p Ptr) Size() uint64 {
	return p.size
}

// End returns the offset right after the item.
func (p Ptr) End() uint64 {
	return p.offset + p.size
}

func (p Ptr) mustBeValid(op string) {
	if !p.validated {
		panic(fmt.Sprintf("unvalidated pointer access (ptrarith.Ptr.%s)", op))
	}

	if !p.Valid() {
		panic(fmt.Sprintf("invalid pointer access (ptrarith.Ptr.%s)", op))
	}
}

// Bytes returns the item's memory. Modifications are visible in the buffer.
func (p Ptr) Bytes() []byte {
	p.mustBeValid("Bytes")

	return p.buf[p.offset : p.offset+p.size : p.offset+p.size]
}

// Get reads a value of width w located at the given offset inside the item.
func (p Ptr) Get(w Width, at uint64) uint64 {
	return w.Get(p.Bytes()[at:])
}

// Put writes a value of width w at the given offset inside the item.
func (p Ptr) Put(w Width, at uint64, v uint64) {
	w.Put(p.Bytes()[at:], v)
}

// Equal checks if both pointers refer to the same item of the same buffer.
// Contents are not compared.
func (p Ptr) Equal(other Ptr) bool {
	return sameBuffer(p.buf, other.buf) &&
		p.offset == other.offset &&
		p.size == other.size
}

func sameBuffer(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}

	if len(a) == 0 {
		return (a == nil) == (b == nil)
	}

	return &a[0] == &b[0]
}

// SubPtr derives a narrower view of the given size at the given offset
// relative to the item start. The view's minimum offset is the parent's type
// size, so a sub-view never aliases the parent's header.
//
// The parent Ptr MUST be validated.
func (p Ptr) SubPtr(offset, size, typeSize uint64) Ptr {
	return New(p.Bytes(), offset, size, typeSize, p.typeSize)
}

// SubPtrTail is like SubPtr but the view spans till the end of the item.
func (p Ptr) SubPtrTail(offset, typeSize uint64) Ptr {
	if offset > p.size {
		return Ptr{}
	}

	return p.SubPtr(offset, p.size-offset, typeSize)
}

// Rebase re-pairs the pointer with another buffer, e.g. a relocated copy of
// the source one. The result is checked against the new buffer bounds.
func (p Ptr) Rebase(buf []byte) Ptr {
	if p.buf == nil {
		return Ptr{}
	}

	return New(buf, p.offset, p.size, p.typeSize, p.minOffset)
}

// String implements fmt.Stringer.
func (p Ptr) String() string {
	if p.buf == nil {
		return "ptr{invalid}"
	}

	return fmt.Sprintf("ptr{offset: %d, size: %d}", p.offset, p.size)
}
