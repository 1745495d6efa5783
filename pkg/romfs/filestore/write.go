package filestore

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/oxfs/pkg/romfs/common"
	"github.com/nspcc-dev/oxfs/pkg/romfs/util/logicerr"
	"go.uber.org/zap"
)

// Write stores data under the given inode id replacing previous contents.
//
// Blob of the same size is overwritten in place. Otherwise a new item is
// allocated and takes place of the previous one in the tree, the buffer is
// compacted once if the tail has no room for it. Write fails with
// common.ErrNoSpace without touching the previous contents if there is not
// enough space even after compaction.
//
// New blobs have one link, rewritten ones keep their link count.
func (s *FileStore) Write(id uint64, data []byte, fileType common.FileType) error {
	size := uint64(len(data))

	if id == 0 || id > s.width.MaxValue() {
		return logicerr.Wrapf(common.ErrInvalidArgument, "inode %d", id)
	}

	if size > s.buf.Size() {
		return logicerr.Wrapf(common.ErrInvalidArgument, "%d bytes exceed capacity %d", size, s.buf.Size())
	}

	old, err := s.find(id)
	exists := err == nil
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return err
	}

	links := uint64(1)

	if exists {
		if s.buf.ItemSize(old.Ptr) == size {
			p, err := s.payload(old)
			if err != nil {
				return err
			}

			copy(p.Bytes(), data)
			old.setFileType(fileType)

			return nil
		}

		links = old.links()
	}

	need := s.buf.SpaceNeeded(size)
	avail := s.buf.Available()
	if exists {
		avail += old.Size()
	}

	if avail < need {
		return fmt.Errorf("%w: %d bytes needed, %d available", common.ErrNoSpace, need, avail)
	}

	p := s.buf.Malloc(size)
	if !p.Valid() {
		if exists {
			if err := s.unplaceItem(old); err != nil {
				return err
			}

			if err := s.buf.Free(old.Ptr); err != nil {
				return err
			}
		}

		if err := s.Compact(); err != nil {
			return err
		}

		p = s.buf.Malloc(size)
		if !p.Valid() {
			return fmt.Errorf("%w: %d bytes needed after compaction", common.ErrNoSpace, need)
		}
	}

	n := node{Ptr: p, w: s.width}
	n.setID(id)
	n.setFileType(fileType)
	n.setLinks(links)

	payload, err := s.payload(n)
	if err != nil {
		return err
	}

	copy(payload.Bytes(), data)

	if err := s.placeItem(n); err != nil {
		return err
	}

	s.log.Debug("blob written",
		zap.Uint64("inode", id),
		zap.Uint64("size", size),
		zap.Stringer("type", fileType))

	return nil
}
