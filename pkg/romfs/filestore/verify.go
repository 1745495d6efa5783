package filestore

import (
	"fmt"

	"github.com/google/btree"
	"github.com/nspcc-dev/oxfs/pkg/romfs/common"
	"github.com/nspcc-dev/oxfs/pkg/romfs/nodebuffer"
	"github.com/nspcc-dev/oxfs/pkg/romfs/ptrarith"
	"go.uber.org/multierr"
)

const verifyTreeDegree = 16

// Verify checks integrity of the image:
//   - space accounting matches the items in the list;
//   - every item is reachable from the tree exactly once;
//   - in-order traversal of the tree yields strictly ascending ids;
//   - every reachable node is found by its id.
//
// All found problems are returned combined, each matches
// common.ErrCorrupted.
func (s *FileStore) Verify() error {
	first := s.buf.FirstItem()
	if !first.Valid() {
		return fmt.Errorf("%w: missing store header", common.ErrCorrupted)
	}

	var (
		errs  error
		items = btree.NewOrderedG[uint64](verifyTreeDegree)
		used  = nodebuffer.HeaderSize(s.width)
	)

	err := s.buf.Iterate(func(item ptrarith.Ptr) error {
		used += item.Size()
		if item.Equal(first) {
			return nil
		}

		id := node{Ptr: item, w: s.width}.id()
		if _, dup := items.ReplaceOrInsert(id); dup {
			errs = multierr.Append(errs, fmt.Errorf("%w: inode %d is stored twice", common.ErrCorrupted, id))
		}

		return nil
	})
	if err != nil {
		return multierr.Append(errs, err)
	}

	if used != s.buf.BytesUsed() {
		errs = multierr.Append(errs, fmt.Errorf("%w: %d bytes used by items, header reports %d",
			common.ErrCorrupted, used, s.buf.BytesUsed()))
	}

	err = s.inOrder(func(n node, prev uint64, hasPrev bool) {
		id := n.id()

		if hasPrev && id <= prev {
			errs = multierr.Append(errs, fmt.Errorf("%w: inode %d follows %d in tree order", common.ErrCorrupted, id, prev))
		}

		if _, ok := items.Delete(id); !ok {
			errs = multierr.Append(errs, fmt.Errorf("%w: inode %d is reachable twice or is not listed", common.ErrCorrupted, id))
		}

		if found, err := s.find(id); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("find inode %d: %w", id, err))
		} else if found.Offset() != n.Offset() {
			errs = multierr.Append(errs, fmt.Errorf("%w: inode %d found at %d instead of %d",
				common.ErrCorrupted, id, found.Offset(), n.Offset()))
		}
	})
	if err != nil {
		return multierr.Append(errs, err)
	}

	items.Ascend(func(id uint64) bool {
		errs = multierr.Append(errs, fmt.Errorf("%w: inode %d is not reachable from tree", common.ErrCorrupted, id))
		return true
	})

	return errs
}

// inOrder traverses the tree in ascending id order with an explicit stack.
func (s *FileStore) inOrder(fn func(n node, prev uint64, hasPrev bool)) error {
	slot, err := s.rootSlot()
	if err != nil {
		return err
	}

	var (
		stack   []node
		prev    uint64
		hasPrev bool
		visited int
		limit   = s.maxTreeDepth()
	)

	off := s.slot(slot)

	for off != 0 || len(stack) > 0 {
		for off != 0 {
			if len(stack) > limit {
				return fmt.Errorf("%w: tree depth limit exceeded", common.ErrCorrupted)
			}

			n, err := s.node(off)
			if err != nil {
				return err
			}

			stack = append(stack, n)
			off = n.left()
		}

		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited++; visited > limit {
			return fmt.Errorf("%w: tree has more nodes than the image can hold", common.ErrCorrupted)
		}

		fn(n, prev, hasPrev)
		prev, hasPrev = n.id(), true

		off = n.right()
	}

	return nil
}
