package filestore

import (
	"fmt"

	"github.com/nspcc-dev/oxfs/pkg/romfs/common"
	"go.uber.org/zap"
)

// Remove deletes the blob stored under the given id regardless of its link
// count.
func (s *FileStore) Remove(id uint64) error {
	n, err := s.find(id)
	if err != nil {
		return err
	}

	if err := s.unplaceItem(n); err != nil {
		return err
	}

	if err := s.buf.Free(n.Ptr); err != nil {
		return err
	}

	s.log.Debug("blob removed", zap.Uint64("inode", id))

	return nil
}

// IncLinks increments link count of the blob.
func (s *FileStore) IncLinks(id uint64) error {
	n, err := s.find(id)
	if err != nil {
		return err
	}

	if n.links() == s.width.MaxValue() {
		return fmt.Errorf("%w: link count of inode %d overflows", common.ErrOutOfBounds, id)
	}

	n.setLinks(n.links() + 1)

	return nil
}

// DecLinks decrements link count of the blob. The blob is removed when the
// last link is dropped.
func (s *FileStore) DecLinks(id uint64) error {
	n, err := s.find(id)
	if err != nil {
		return err
	}

	if n.links() <= 1 {
		return s.Remove(id)
	}

	n.setLinks(n.links() - 1)

	return nil
}

// Stat returns metadata of the blob.
func (s *FileStore) Stat(id uint64) (common.StatInfo, error) {
	n, err := s.find(id)
	if err != nil {
		return common.StatInfo{}, err
	}

	return common.StatInfo{
		Inode:    id,
		Links:    n.links(),
		Size:     s.buf.ItemSize(n.Ptr),
		FileType: n.fileType(),
	}, nil
}
