package filestore

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/nspcc-dev/oxfs/pkg/romfs/common"
	"github.com/nspcc-dev/oxfs/pkg/util/rand"
)

const (
	// ReservedInodeEnd is the last inode id reserved for system records.
	// Generated ids are always greater.
	ReservedInodeEnd = 100

	// MaxInodeIDAttempts is the number of candidates GenerateInodeID draws
	// before giving up.
	MaxInodeIDAttempts = 100
)

func newSeed() []byte {
	seed := rand.Bytes(seedSize)

	// all-zero state never leaves zero
	if binary.LittleEndian.Uint64(seed) == 0 && binary.LittleEndian.Uint64(seed[8:]) == 0 {
		seed[0] = 1
	}

	return seed
}

// next advances xorshift128+ state and returns the next value.
func next(state []byte) uint64 {
	s1 := binary.LittleEndian.Uint64(state)
	s0 := binary.LittleEndian.Uint64(state[8:])

	s1 ^= s1 << 23
	s1 ^= s0 ^ (s1 >> 17) ^ (s0 >> 26)

	binary.LittleEndian.PutUint64(state, s0)
	binary.LittleEndian.PutUint64(state[8:], s1)

	return s0 + s1
}

// GenerateInodeID returns an unused inode id above the reserved range. The
// generator state is kept in the image, so the sequence continues across
// image reloads.
func (s *FileStore) GenerateInodeID() (uint64, error) {
	m, err := s.meta()
	if err != nil {
		return 0, err
	}

	state := m.Bytes()[s.width.Bytes() : s.width.Bytes()+seedSize]

	for i := 0; i < MaxInodeIDAttempts; i++ {
		id := next(state) & s.width.MaxValue()
		if id <= ReservedInodeEnd {
			continue
		}

		_, err := s.find(id)
		if errors.Is(err, common.ErrNotFound) {
			return id, nil
		}

		if err != nil {
			return 0, err
		}
	}

	return 0, fmt.Errorf("%w: no free inode id after %d attempts", common.ErrNoSpace, MaxInodeIDAttempts)
}
