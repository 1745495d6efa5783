package filestore

import (
	"bytes"
	"fmt"

	"github.com/nspcc-dev/oxfs/pkg/romfs/common"
	"github.com/nspcc-dev/oxfs/pkg/romfs/nodebuffer"
	"github.com/nspcc-dev/oxfs/pkg/romfs/ptrarith"
	"go.uber.org/zap"
)

// FileStore is a blob store indexed by numeric inode ids.
//
// Blobs are Node Buffer items which also serve as nodes of an unbalanced
// binary search tree keyed by id. The first item of the buffer is a system
// record holding the tree root offset and the inode id generator state.
//
// FileStore is not safe for concurrent use.
type FileStore struct {
	cfg

	data []byte
	buf  *nodebuffer.Buffer
}

// Option represents FileStore's constructor option.
type Option func(*cfg)

type cfg struct {
	log   *zap.Logger
	width ptrarith.Width
}

func defaultCfg() *cfg {
	return &cfg{
		log:   zap.L(),
		width: ptrarith.Width32,
	}
}

// WithLogger returns option to specify FileStore's logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *cfg) {
		c.log = l.With(zap.String("component", "FileStore"))
	}
}

// WithWidth returns option to set address width of the image. Width MUST be
// the same the image was formatted with.
func WithWidth(w ptrarith.Width) Option {
	return func(c *cfg) {
		c.width = w
	}
}

// New attaches FileStore to data. Contents of data are not checked: call
// Format to initialize a fresh image or use Open for existing ones.
func New(data []byte, opts ...Option) (*FileStore, error) {
	c := defaultCfg()

	for i := range opts {
		opts[i](c)
	}

	if !c.width.Valid() {
		return nil, fmt.Errorf("%w: unsupported width %d", common.ErrInvalidArgument, c.width)
	}

	if uint64(len(data)) > c.width.MaxValue() {
		return nil, fmt.Errorf("%w: %d bytes can not be addressed with %s offsets",
			common.ErrOutOfBounds, len(data), c.width)
	}

	buf, err := nodebuffer.New(data, c.width, ItemHeaderSize(c.width))
	if err != nil {
		return nil, err
	}

	return &FileStore{
		cfg:  *c,
		data: data,
		buf:  buf,
	}, nil
}

// Open attaches FileStore to previously formatted data and checks that the
// headers are consistent.
func Open(data []byte, opts ...Option) (*FileStore, error) {
	s, err := New(data, opts...)
	if err != nil {
		return nil, err
	}

	if !s.buf.Valid(uint64(len(data))) {
		return nil, fmt.Errorf("%w: invalid buffer header", common.ErrCorrupted)
	}

	if _, err = s.meta(); err != nil {
		return nil, err
	}

	return s, nil
}

// Format initializes an empty store over the whole backing buffer. All
// previous contents are lost.
func (s *FileStore) Format() error {
	if err := s.buf.Init(uint64(len(s.data))); err != nil {
		return err
	}

	p := s.buf.Malloc(metaSize(s.width))
	if !p.Valid() {
		return fmt.Errorf("%w: can not allocate store header in %d bytes", common.ErrNoSpace, len(s.data))
	}

	m := s.buf.DataOf(p)
	if !m.Valid() {
		return fmt.Errorf("%w: store header", common.ErrCorrupted)
	}

	m.Put(s.width, 0, 0)
	copy(m.Bytes()[s.width.Bytes():], newSeed())

	s.log.Debug("store formatted",
		zap.Uint64("capacity", s.buf.Size()),
		zap.Stringer("width", s.width))

	return nil
}

// Width returns address width of the image.
func (s *FileStore) Width() ptrarith.Width {
	return s.width
}

// Size returns image capacity.
func (s *FileStore) Size() uint64 {
	return s.buf.Size()
}

// Available returns the number of free bytes. Some of them may be reachable
// only after compaction which is done by Write automatically.
func (s *FileStore) Available() uint64 {
	return s.buf.Available()
}

// BytesUsed returns the number of bytes taken by headers and live blobs.
func (s *FileStore) BytesUsed() uint64 {
	return s.buf.BytesUsed()
}

// SpaceNeeded returns the number of bytes needed to store a blob of the
// given size.
func (s *FileStore) SpaceNeeded(size uint64) uint64 {
	return s.buf.SpaceNeeded(size)
}

// Bytes returns image memory limited by its capacity.
func (s *FileStore) Bytes() []byte {
	return s.buf.Bytes()
}

// Seed returns a copy of the inode generator state.
func (s *FileStore) Seed() ([]byte, error) {
	m, err := s.meta()
	if err != nil {
		return nil, err
	}

	return bytes.Clone(m.Bytes()[s.width.Bytes() : s.width.Bytes()+seedSize]), nil
}
