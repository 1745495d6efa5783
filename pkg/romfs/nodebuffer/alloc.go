package nodebuffer

import (
	"fmt"

	"github.com/nspcc-dev/oxfs/pkg/romfs/common"
	"github.com/nspcc-dev/oxfs/pkg/romfs/ptrarith"
)

// Malloc allocates an item with the payload of the given size right after
// the last item. The item header and the payload are zeroed.
//
// Returns invalid Ptr if there is not enough space after the last item.
// Holes left by Free are never reused, Compact should be called to reclaim
// them.
func (b *Buffer) Malloc(size uint64) ptrarith.Ptr {
	full := b.SpaceNeeded(size)
	if full < size || b.Available() < full {
		return ptrarith.Ptr{}
	}

	var addr uint64

	first := b.FirstItem()
	last := b.LastItem()

	if last.Valid() {
		addr = last.End()
	} else {
		if b.header(hdrFirstItem) != 0 {
			// list head is set but can not be read
			return ptrarith.Ptr{}
		}

		addr = HeaderSize(b.w)
	}

	out := ptrarith.New(b.Bytes(), addr, full, b.itemHeader, HeaderSize(b.w))
	if !out.Valid() {
		return ptrarith.Ptr{}
	}

	clear(out.Bytes())
	out.Put(b.w, itemSize*b.w.Bytes(), size)

	if last.Valid() && first.Valid() {
		b.setPrev(out, last.Offset())
		b.setNext(out, first.Offset())
		b.setNext(last, addr)
		b.setPrev(first, addr)
	} else {
		b.setHeader(hdrFirstItem, addr)
		b.setPrev(out, addr)
		b.setNext(out, addr)
	}

	b.setHeader(hdrBytesUsed, b.BytesUsed()+full)

	return out
}

// Free unlinks the item from the list and releases its space. The memory is
// not reclaimed until Compact.
func (b *Buffer) Free(item ptrarith.Ptr) error {
	item = b.Ptr(item.Offset())
	if !item.Valid() {
		return fmt.Errorf("%w: no item at %d", common.ErrCorrupted, item.Offset())
	}

	prev := b.Prev(item)
	if !prev.Valid() {
		return fmt.Errorf("%w: invalid prev item pointer %d", common.ErrCorrupted, b.prevOf(item))
	}

	next := b.Next(item)
	if !next.Valid() {
		return fmt.Errorf("%w: invalid next item pointer %d", common.ErrCorrupted, b.nextOf(item))
	}

	if next.Offset() != item.Offset() {
		b.setNext(prev, next.Offset())
		b.setPrev(next, prev.Offset())

		if b.header(hdrFirstItem) == item.Offset() {
			b.setHeader(hdrFirstItem, next.Offset())
		}
	} else {
		// the only item
		b.setHeader(hdrFirstItem, 0)
	}

	b.setHeader(hdrBytesUsed, b.BytesUsed()-item.Size())

	return nil
}

// CompactCallback is called for every item relocated by Compact with the
// previous item offset and the validated pointer to its new location.
type CompactCallback func(oldOffset uint64, item ptrarith.Ptr) error

// Compact moves all the items toward the buffer header removing gaps left
// by Free. Items keep their list order. cb, if set, is called for every item
// (including ones that did not move) so that owners can repair references
// the list does not track.
//
// All the previously obtained Ptr values are stale after Compact.
func (b *Buffer) Compact(cb CompactCallback) error {
	end := HeaderSize(b.w)

	first := b.header(hdrFirstItem)
	if first != 0 {
		dest := end
		src := first

		for i := 0; ; i++ {
			if i > b.maxItems() {
				return fmt.Errorf("%w: item list is not terminated", common.ErrCorrupted)
			}

			item := b.Ptr(src)
			if !item.Valid() {
				return fmt.Errorf("%w: invalid item at %d", common.ErrCorrupted, src)
			}

			if dest > src {
				return fmt.Errorf("%w: item %d is out of physical order", common.ErrCorrupted, src)
			}

			full := item.Size()
			prevOff, nextOff := b.prevOf(item), b.nextOf(item)

			if src != dest {
				copy(b.data[dest:dest+full], b.data[src:src+full])
			}

			if prevOff == src {
				prevOff = dest
			}

			if nextOff == src {
				nextOff = dest
			}

			moved := b.Ptr(dest)
			if !moved.Valid() {
				return fmt.Errorf("%w: relocated item at %d is invalid", common.ErrCorrupted, dest)
			}

			b.setPrev(moved, prevOff)
			b.setNext(moved, nextOff)

			if prev := b.Ptr(prevOff); prev.Valid() {
				b.setNext(prev, dest)
			}

			if next := b.Ptr(nextOff); next.Valid() {
				b.setPrev(next, dest)
			}

			if b.header(hdrFirstItem) == src {
				b.setHeader(hdrFirstItem, dest)
			}

			if cb != nil {
				if err := cb(src, moved); err != nil {
					return err
				}
			}

			dest += full

			if nextOff == b.header(hdrFirstItem) {
				break
			}

			src = nextOff
		}

		end = dest
	}

	clear(b.Bytes()[end:])

	return nil
}

// End returns the offset right after the last item or the header size if
// the buffer is empty.
func (b *Buffer) End() uint64 {
	if last := b.LastItem(); last.Valid() {
		return last.End()
	}

	return HeaderSize(b.w)
}

// SetSize changes the stated capacity of the buffer. The buffer can not be
// shrunk below the end of the last item or grown past the backing slice.
// Released or acquired space is zeroed.
func (b *Buffer) SetSize(size uint64) error {
	end := b.End()
	if end > size {
		return fmt.Errorf("%w: size %d is less than used space end %d", common.ErrInvalidArgument, size, end)
	}

	if size > uint64(len(b.data)) || size > b.w.MaxValue() {
		return fmt.Errorf("%w: size %d exceeds backing buffer of %d bytes", common.ErrOutOfBounds, size, len(b.data))
	}

	b.setHeader(hdrSize, size)
	clear(b.data[end:size])

	return nil
}
