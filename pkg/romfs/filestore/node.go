package filestore

import (
	"fmt"

	"github.com/nspcc-dev/oxfs/pkg/romfs/common"
	"github.com/nspcc-dev/oxfs/pkg/romfs/nodebuffer"
	"github.com/nspcc-dev/oxfs/pkg/romfs/ptrarith"
)

// seedSize is the size of the inode id generator state.
const seedSize = 16

// ItemHeaderSize returns the size of the store item header for the given
// width: list links and size, then id, file type, link count and tree
// children.
func ItemHeaderSize(w ptrarith.Width) uint64 {
	return nodebuffer.BaseItemHeaderSize(w) + 4*w.Bytes() + 1
}

// metaSize returns payload size of the store header record: root node offset
// followed by the generator state.
func metaSize(w ptrarith.Width) uint64 {
	return w.Bytes() + seedSize
}

// node is a validated store item.
type node struct {
	ptrarith.Ptr
	w ptrarith.Width
}

func (n node) idAt() uint64       { return nodebuffer.BaseItemHeaderSize(n.w) }
func (n node) fileTypeAt() uint64 { return n.idAt() + n.w.Bytes() }
func (n node) linksAt() uint64    { return n.fileTypeAt() + 1 }
func (n node) leftAt() uint64     { return n.linksAt() + n.w.Bytes() }
func (n node) rightAt() uint64    { return n.leftAt() + n.w.Bytes() }

func (n node) id() uint64    { return n.Get(n.w, n.idAt()) }
func (n node) links() uint64 { return n.Get(n.w, n.linksAt()) }
func (n node) left() uint64  { return n.Get(n.w, n.leftAt()) }
func (n node) right() uint64 { return n.Get(n.w, n.rightAt()) }

func (n node) fileType() common.FileType {
	return common.FileType(n.Bytes()[n.fileTypeAt()])
}

func (n node) setID(v uint64)    { n.Put(n.w, n.idAt(), v) }
func (n node) setLinks(v uint64) { n.Put(n.w, n.linksAt(), v) }
func (n node) setLeft(v uint64)  { n.Put(n.w, n.leftAt(), v) }
func (n node) setRight(v uint64) { n.Put(n.w, n.rightAt(), v) }

func (n node) setFileType(t common.FileType) {
	n.Bytes()[n.fileTypeAt()] = byte(t)
}

// node returns validated store item at the given offset.
func (s *FileStore) node(off uint64) (node, error) {
	p := s.buf.Ptr(off)
	if !p.Valid() {
		return node{}, fmt.Errorf("%w: no item at offset %d", common.ErrCorrupted, off)
	}

	return node{Ptr: p, w: s.width}, nil
}

// payload returns validated payload of the node.
func (s *FileStore) payload(n node) (ptrarith.Ptr, error) {
	p := s.buf.DataOf(n.Ptr)
	if !p.Valid() {
		return ptrarith.Ptr{}, fmt.Errorf("%w: item at offset %d has no payload", common.ErrCorrupted, n.Offset())
	}

	return p, nil
}

// meta returns validated payload of the store header record.
func (s *FileStore) meta() (ptrarith.Ptr, error) {
	first := s.buf.FirstItem()
	if !first.Valid() {
		return ptrarith.Ptr{}, fmt.Errorf("%w: missing store header", common.ErrCorrupted)
	}

	p := s.buf.DataOf(first)
	if !p.Valid() || p.Size() < metaSize(s.width) {
		return ptrarith.Ptr{}, fmt.Errorf("%w: invalid store header", common.ErrCorrupted)
	}

	return p, nil
}

// rootSlot returns the absolute offset of the tree root reference.
func (s *FileStore) rootSlot() (uint64, error) {
	if _, err := s.meta(); err != nil {
		return 0, err
	}

	// payload offsets are relative to the item
	return s.buf.FirstItem().Offset() + s.buf.ItemHeaderSize(), nil
}

// slot reads the offset reference located at the absolute offset.
func (s *FileStore) slot(at uint64) uint64 {
	return s.width.Get(s.buf.Bytes()[at:])
}

func (s *FileStore) setSlot(at, v uint64) {
	s.width.Put(s.buf.Bytes()[at:], v)
}
