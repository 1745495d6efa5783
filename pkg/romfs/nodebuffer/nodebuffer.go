package nodebuffer

import (
	"fmt"

	"github.com/nspcc-dev/oxfs/pkg/romfs/common"
	"github.com/nspcc-dev/oxfs/pkg/romfs/ptrarith"
)

// Buffer is an intrusive bump allocator over a byte slice.
//
// The slice starts with a header (capacity, bytes used, offset of the first
// item) followed by items. Every item starts with a header (prev, next,
// payload size) and the items form a circular doubly-linked list in
// allocation order. Malloc only appends after the last item, Free leaves a
// gap which is reclaimed by Compact only.
//
// Item headers may be extended by the owning layer: itemHeader bytes are
// reserved in front of every payload, the first BaseItemHeaderSize of them
// are managed by Buffer.
//
// Buffer keeps no state besides the slice, so any number of Buffer
// instances may be attached to the same memory.
type Buffer struct {
	data       []byte
	w          ptrarith.Width
	itemHeader uint64
}

// Offsets of the header fields in units of width.
const (
	hdrSize = iota
	hdrBytesUsed
	hdrFirstItem
	hdrFields
)

// Offsets of the item header fields in units of width.
const (
	itemPrev = iota
	itemNext
	itemSize
	itemFields
)

// HeaderSize returns the size of the buffer header for the given width.
func HeaderSize(w ptrarith.Width) uint64 {
	return hdrFields * w.Bytes()
}

// BaseItemHeaderSize returns the size of the item header part managed by
// Buffer for the given width.
func BaseItemHeaderSize(w ptrarith.Width) uint64 {
	return itemFields * w.Bytes()
}

// New attaches Buffer to data. itemHeader is the full size of the item
// header, it MUST NOT be less than BaseItemHeaderSize.
//
// The header in data is not checked, use Init to format a fresh buffer or
// Valid to check an existing one.
func New(data []byte, w ptrarith.Width, itemHeader uint64) (*Buffer, error) {
	if !w.Valid() {
		return nil, fmt.Errorf("%w: unsupported width %d", common.ErrInvalidArgument, w)
	}

	if itemHeader < BaseItemHeaderSize(w) {
		return nil, fmt.Errorf("%w: item header %d is less than %d",
			common.ErrInvalidArgument, itemHeader, BaseItemHeaderSize(w))
	}

	if uint64(len(data)) < HeaderSize(w) {
		return nil, fmt.Errorf("%w: %d bytes can not hold buffer header", common.ErrOutOfBounds, len(data))
	}

	return &Buffer{
		data:       data,
		w:          w,
		itemHeader: itemHeader,
	}, nil
}

// Init formats the buffer with the given capacity: writes an empty header
// and zeroes the rest of the capacity.
func (b *Buffer) Init(capacity uint64) error {
	if capacity < HeaderSize(b.w) || capacity > uint64(len(b.data)) || capacity > b.w.MaxValue() {
		return fmt.Errorf("%w: capacity %d does not fit [%d:%d]",
			common.ErrOutOfBounds, capacity, HeaderSize(b.w), min(uint64(len(b.data)), b.w.MaxValue()))
	}

	clear(b.data[:capacity])
	b.setHeader(hdrSize, capacity)
	b.setHeader(hdrBytesUsed, HeaderSize(b.w))
	b.setHeader(hdrFirstItem, 0)

	return nil
}

func (b *Buffer) header(field uint64) uint64 {
	return b.w.Get(b.data[field*b.w.Bytes():])
}

func (b *Buffer) setHeader(field, v uint64) {
	b.w.Put(b.data[field*b.w.Bytes():], v)
}

// Width returns the address width of the buffer.
func (b *Buffer) Width() ptrarith.Width {
	return b.w
}

// ItemHeaderSize returns full size of the item header.
func (b *Buffer) ItemHeaderSize() uint64 {
	return b.itemHeader
}

// Size returns the stated capacity.
func (b *Buffer) Size() uint64 {
	return b.header(hdrSize)
}

// BytesUsed returns number of bytes taken by the buffer header and all the
// live items.
func (b *Buffer) BytesUsed() uint64 {
	return b.header(hdrBytesUsed)
}

// Available returns the number of bytes still available in the buffer.
// Some of them may be unusable until Compact.
func (b *Buffer) Available() uint64 {
	sz, used := b.Size(), b.BytesUsed()
	if used > sz {
		return 0
	}

	return sz - used
}

// SpaceNeeded returns the number of bytes needed to store a payload of the
// given size.
func (b *Buffer) SpaceNeeded(size uint64) uint64 {
	return b.itemHeader + size
}

// Valid checks that the header describes a buffer that fits maxSize bytes
// and the backing slice.
func (b *Buffer) Valid(maxSize uint64) bool {
	sz := b.Size()

	return sz <= maxSize &&
		sz <= uint64(len(b.data)) &&
		sz >= HeaderSize(b.w) &&
		b.BytesUsed() >= HeaderSize(b.w) &&
		b.BytesUsed() <= sz
}

// Bytes returns buffer memory limited by the stated capacity.
func (b *Buffer) Bytes() []byte {
	sz := min(b.Size(), uint64(len(b.data)))

	return b.data[:sz:sz]
}

// Ptr returns a pointer to the item at the given offset. The item size is
// taken from its header. Returned Ptr is invalid if the offset does not
// point to an item that fits the buffer.
func (b *Buffer) Ptr(offset uint64) ptrarith.Ptr {
	view := b.Bytes()
	sz := uint64(len(view))

	if offset < HeaderSize(b.w) || offset >= sz || sz-offset < b.itemHeader {
		return ptrarith.Ptr{}
	}

	full := b.itemHeader + b.w.Get(view[offset+itemSize*b.w.Bytes():])
	if full > sz-offset {
		return ptrarith.Ptr{}
	}

	return ptrarith.New(view, offset, full, b.itemHeader, HeaderSize(b.w))
}

// ItemSize returns payload size of the validated item.
func (b *Buffer) ItemSize(item ptrarith.Ptr) uint64 {
	return item.Get(b.w, itemSize*b.w.Bytes())
}

func (b *Buffer) prevOf(item ptrarith.Ptr) uint64 {
	return item.Get(b.w, itemPrev*b.w.Bytes())
}

func (b *Buffer) nextOf(item ptrarith.Ptr) uint64 {
	return item.Get(b.w, itemNext*b.w.Bytes())
}

func (b *Buffer) setPrev(item ptrarith.Ptr, v uint64) {
	item.Put(b.w, itemPrev*b.w.Bytes(), v)
}

func (b *Buffer) setNext(item ptrarith.Ptr, v uint64) {
	item.Put(b.w, itemNext*b.w.Bytes(), v)
}

// FirstItem returns pointer to the first item of the list.
func (b *Buffer) FirstItem() ptrarith.Ptr {
	return b.Ptr(b.header(hdrFirstItem))
}

// LastItem returns pointer to the last item of the list.
func (b *Buffer) LastItem() ptrarith.Ptr {
	first := b.FirstItem()
	if !first.Valid() {
		return ptrarith.Ptr{}
	}

	return b.Ptr(b.prevOf(first))
}

// Next returns the item following the validated one. The list is circular:
// the last item is followed by the first one.
func (b *Buffer) Next(item ptrarith.Ptr) ptrarith.Ptr {
	return b.Ptr(b.nextOf(item))
}

// Prev returns the item preceding the validated one.
func (b *Buffer) Prev(item ptrarith.Ptr) ptrarith.Ptr {
	return b.Ptr(b.prevOf(item))
}

// DataOf returns the payload of the validated item.
func (b *Buffer) DataOf(item ptrarith.Ptr) ptrarith.Ptr {
	return item.SubPtrTail(b.itemHeader, 0)
}

// maxItems returns an upper bound of the number of items in the buffer.
func (b *Buffer) maxItems() int {
	return int(b.Size()/b.itemHeader) + 1
}

// Iterate calls fn for every item in the list order, which is also the
// physical order. Iteration stops on the first error returned by fn.
func (b *Buffer) Iterate(fn func(item ptrarith.Ptr) error) error {
	first := b.header(hdrFirstItem)
	if first == 0 {
		return nil
	}

	off := first
	for i := 0; ; i++ {
		if i > b.maxItems() {
			return fmt.Errorf("%w: item list is not terminated", common.ErrCorrupted)
		}

		item := b.Ptr(off)
		if !item.Valid() {
			return fmt.Errorf("%w: invalid item at %d", common.ErrCorrupted, off)
		}

		next := b.nextOf(item)

		if err := fn(item); err != nil {
			return err
		}

		if next == first {
			return nil
		}

		off = next
	}
}
