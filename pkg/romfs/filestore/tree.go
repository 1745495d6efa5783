package filestore

import (
	"fmt"

	"github.com/nspcc-dev/oxfs/pkg/romfs/common"
)

// maxTreeDepth returns the depth no valid tree can reach in the current
// buffer: every level takes at least one item. Deeper paths mean a cycle.
func (s *FileStore) maxTreeDepth() int {
	return int(s.buf.Size()/s.buf.ItemHeaderSize()) + 1
}

// findSlot returns the absolute offset of the tree reference which either
// points to the node with the given id or is empty and is the place where
// such node should be attached.
func (s *FileStore) findSlot(id uint64) (uint64, error) {
	slot, err := s.rootSlot()
	if err != nil {
		return 0, err
	}

	for depth := 0; ; depth++ {
		off := s.slot(slot)
		if off == 0 {
			return slot, nil
		}

		if depth > s.maxTreeDepth() {
			return 0, fmt.Errorf("%w: tree depth limit exceeded looking for inode %d", common.ErrCorrupted, id)
		}

		n, err := s.node(off)
		if err != nil {
			return 0, err
		}

		switch cur := n.id(); {
		case id < cur:
			slot = off + n.leftAt()
		case id > cur:
			slot = off + n.rightAt()
		default:
			return slot, nil
		}
	}
}

// find returns the node with the given id.
func (s *FileStore) find(id uint64) (node, error) {
	slot, err := s.findSlot(id)
	if err != nil {
		return node{}, err
	}

	off := s.slot(slot)
	if off == 0 {
		return node{}, fmt.Errorf("%w: inode %d", common.ErrNotFound, id)
	}

	return s.node(off)
}

// placeItem attaches the node to the tree. If the tree already holds a node
// with the same id, the new node takes its place: children and link count
// are inherited and the old item is freed.
func (s *FileStore) placeItem(n node) error {
	slot, err := s.findSlot(n.id())
	if err != nil {
		return err
	}

	if cur := s.slot(slot); cur != 0 && cur != n.Offset() {
		old, err := s.node(cur)
		if err != nil {
			return err
		}

		n.setLeft(old.left())
		n.setRight(old.right())
		n.setLinks(old.links())

		s.setSlot(slot, n.Offset())

		return s.buf.Free(old.Ptr)
	}

	s.setSlot(slot, n.Offset())

	return nil
}

// unplaceItem detaches the node from the tree. Subtrees of the node are
// re-attached independently.
func (s *FileStore) unplaceItem(n node) error {
	slot, err := s.findSlot(n.id())
	if err != nil {
		return err
	}

	if s.slot(slot) != n.Offset() {
		return fmt.Errorf("%w: inode %d is not referenced by its tree parent", common.ErrCorrupted, n.id())
	}

	s.setSlot(slot, 0)

	for _, child := range []uint64{n.left(), n.right()} {
		if child == 0 {
			continue
		}

		c, err := s.node(child)
		if err != nil {
			return err
		}

		slot, err := s.findSlot(c.id())
		if err != nil {
			return err
		}

		if s.slot(slot) != 0 {
			return fmt.Errorf("%w: duplicate inode %d in tree", common.ErrCorrupted, c.id())
		}

		s.setSlot(slot, child)
	}

	n.setLeft(0)
	n.setRight(0)

	return nil
}
