package filestore

import (
	"fmt"

	"github.com/nspcc-dev/oxfs/pkg/romfs/common"
	"github.com/nspcc-dev/oxfs/pkg/romfs/nodebuffer"
	"github.com/nspcc-dev/oxfs/pkg/romfs/ptrarith"
	"go.uber.org/zap"
)

// Compact moves all blobs toward the beginning of the image so that the
// whole free space is contiguous. Tree references of every relocated blob
// are repaired.
func (s *FileStore) Compact() error {
	first := s.buf.FirstItem()
	if !first.Valid() {
		return fmt.Errorf("%w: missing store header", common.ErrCorrupted)
	}

	metaOff := first.Offset()
	before := s.buf.End()

	err := s.buf.Compact(func(old uint64, item ptrarith.Ptr) error {
		if old == metaOff || old == item.Offset() {
			return nil
		}

		return s.relink(old, node{Ptr: item, w: s.width})
	})
	if err != nil {
		return fmt.Errorf("compact: %w", err)
	}

	s.log.Debug("store compacted",
		zap.Uint64("end before", before),
		zap.Uint64("end after", s.buf.End()))

	return nil
}

// relink repoints tree reference to the node previously located at old to
// its current location. Search is guided by the node id since the tree
// order does not change on relocation.
func (s *FileStore) relink(old uint64, n node) error {
	slot, err := s.rootSlot()
	if err != nil {
		return err
	}

	id := n.id()

	for depth := 0; ; depth++ {
		off := s.slot(slot)
		if off == old {
			s.setSlot(slot, n.Offset())
			return nil
		}

		if off == 0 || depth > s.maxTreeDepth() {
			return fmt.Errorf("%w: relocated inode %d is not reachable", common.ErrCorrupted, id)
		}

		cur, err := s.node(off)
		if err != nil {
			return err
		}

		switch curID := cur.id(); {
		case id < curID:
			slot = off + cur.leftAt()
		case id > curID:
			slot = off + cur.rightAt()
		default:
			return fmt.Errorf("%w: inode %d has two items", common.ErrCorrupted, id)
		}
	}
}

// Resize compacts the image and sets its capacity to size. Zero size means
// the minimal capacity holding all blobs.
func (s *FileStore) Resize(size uint64) error {
	if err := s.Compact(); err != nil {
		return err
	}

	if size == 0 {
		size = s.buf.End()
	}

	if err := s.buf.SetSize(size); err != nil {
		return fmt.Errorf("resize: %w", err)
	}

	s.log.Debug("store resized", zap.Uint64("capacity", size))

	return nil
}

// Expand moves the image into a new zeroed backing buffer of the given size
// and extends capacity to it. The previous backing buffer is no longer
// referenced by the store.
func (s *FileStore) Expand(size uint64) error {
	if size < s.buf.Size() {
		return fmt.Errorf("%w: can not expand %d-byte image to %d bytes", common.ErrInvalidArgument, s.buf.Size(), size)
	}

	if size > s.width.MaxValue() {
		return fmt.Errorf("%w: %d bytes can not be addressed with %s offsets", common.ErrOutOfBounds, size, s.width)
	}

	data := make([]byte, size)
	copy(data, s.buf.Bytes())

	buf, err := nodebuffer.New(data, s.width, ItemHeaderSize(s.width))
	if err != nil {
		return err
	}

	if err := buf.SetSize(size); err != nil {
		return fmt.Errorf("expand: %w", err)
	}

	s.data, s.buf = data, buf

	s.log.Debug("store expanded", zap.Uint64("capacity", size))

	return nil
}

// WalkFunc is called by Walk for every item of the image with its inode id,
// file type and the image offsets it spans.
type WalkFunc func(id uint64, fileType common.FileType, start, end uint64) error

// Walk iterates over all items in the physical order, including the store
// header record reported with zero id. The tree is not used.
func (s *FileStore) Walk(fn WalkFunc) error {
	first := s.buf.FirstItem()
	if !first.Valid() {
		return fmt.Errorf("%w: missing store header", common.ErrCorrupted)
	}

	return s.buf.Iterate(func(item ptrarith.Ptr) error {
		if item.Equal(first) {
			return fn(0, common.FileTypeNone, item.Offset(), item.End())
		}

		n := node{Ptr: item, w: s.width}

		return fn(n.id(), n.fileType(), item.Offset(), item.End())
	})
}
