package filestore

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/nspcc-dev/oxfs/pkg/romfs/common"
	"github.com/nspcc-dev/oxfs/pkg/romfs/ptrarith"
	"github.com/nspcc-dev/oxfs/pkg/romfs/util/logicerr"
)

// ReadPtr returns validated view of the blob stored under the given id.
// The view aliases the image and becomes stale after any mutating call.
func (s *FileStore) ReadPtr(id uint64) (ptrarith.Ptr, error) {
	n, err := s.find(id)
	if err != nil {
		return ptrarith.Ptr{}, err
	}

	return s.payload(n)
}

// Read returns a copy of the blob stored under the given id.
func (s *FileStore) Read(id uint64) ([]byte, error) {
	p, err := s.ReadPtr(id)
	if err != nil {
		return nil, err
	}

	return bytes.Clone(p.Bytes()), nil
}

// ReadInto copies the blob stored under the given id into dst and returns
// the blob size. dst MUST be large enough to hold the whole blob.
func (s *FileStore) ReadInto(id uint64, dst []byte) (int, error) {
	p, err := s.ReadPtr(id)
	if err != nil {
		return 0, err
	}

	if len(dst) < int(p.Size()) {
		return 0, logicerr.Wrapf(common.ErrInvalidArgument, "%d-byte buffer for %d-byte blob", len(dst), p.Size())
	}

	return copy(dst, p.Bytes()), nil
}

// ReadRange returns a copy of size bytes of the blob starting from start.
func (s *FileStore) ReadRange(id, start, size uint64) ([]byte, error) {
	p, err := s.ReadPtr(id)
	if err != nil {
		return nil, err
	}

	if start > p.Size() || size > p.Size()-start {
		return nil, fmt.Errorf("%w: range [%d:%d] of %d-byte inode %d",
			common.ErrOutOfBounds, start, start+size, p.Size(), id)
	}

	sub := p.SubPtr(start, size, 0)
	if !sub.Valid() {
		return nil, fmt.Errorf("%w: range [%d:%d] of inode %d", common.ErrOutOfBounds, start, start+size, id)
	}

	return bytes.Clone(sub.Bytes()), nil
}

// Element is a fixed-size integer type ReadArray can decode.
type Element interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64
}

// ReadArray decodes count little-endian values of type T stored in the blob
// starting from the byte offset start. Values are decoded one by one, so
// start does not have to be aligned.
func ReadArray[T Element](s *FileStore, id, start, count uint64) ([]T, error) {
	var zero T

	elemSize := uint64(binary.Size(zero))
	if count > s.buf.Size()/elemSize {
		return nil, fmt.Errorf("%w: %d elements of inode %d", common.ErrOutOfBounds, count, id)
	}

	raw, err := s.ReadRange(id, start, elemSize*count)
	if err != nil {
		return nil, err
	}

	res := make([]T, count)

	err = binary.Read(bytes.NewReader(raw), binary.LittleEndian, res)
	if err != nil {
		return nil, fmt.Errorf("decode %d elements of inode %d: %w", count, id, err)
	}

	return res, nil
}
