package filesystem

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/nspcc-dev/oxfs/pkg/romfs/common"
	"github.com/nspcc-dev/oxfs/pkg/romfs/directory"
	"github.com/nspcc-dev/oxfs/pkg/romfs/filestore"
	"github.com/nspcc-dev/oxfs/pkg/romfs/ptrarith"
	"go.uber.org/zap"
)

// FsDataInode is the reserved inode of the record holding the root
// directory inode id.
const FsDataInode = 2

// RootInode returns inode id of the root directory for the given width. It
// lies far from the reserved range.
func RootInode(w ptrarith.Width) uint64 {
	return w.MaxValue() / 2
}

// MetricsWriter is an interface that must store file system metrics.
type MetricsWriter interface {
	AddOperation(op string, success bool)
	AddWrittenBytes(n uint64)
	SetSpace(capacity, used uint64)
}

type noopMetrics struct{}

func (noopMetrics) AddOperation(string, bool) {}
func (noopMetrics) AddWrittenBytes(uint64)    {}
func (noopMetrics) SetSpace(uint64, uint64)   {}

// FileSystem is a path-based façade over a File Store with a root
// directory.
//
// FileSystem is not safe for concurrent use.
type FileSystem struct {
	cfg

	store *filestore.FileStore
	root  uint64
	cache *lru.Cache[string, uint64]
}

// Option represents FileSystem's constructor option.
type Option func(*cfg)

type cfg struct {
	log       *zap.Logger
	width     ptrarith.Width
	cacheSize int
	metrics   MetricsWriter
}

func defaultCfg() *cfg {
	return &cfg{
		log:     zap.L(),
		width:   ptrarith.Width32,
		metrics: noopMetrics{},
	}
}

// WithLogger returns option to specify FileSystem's logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *cfg) {
		c.log = l.With(zap.String("component", "FileSystem"))
	}
}

// WithWidth returns option to set address width of the image.
func WithWidth(w ptrarith.Width) Option {
	return func(c *cfg) {
		c.width = w
	}
}

// WithPathCache returns option to cache up to size resolved paths. Zero
// disables the cache.
func WithPathCache(size int) Option {
	return func(c *cfg) {
		c.cacheSize = size
	}
}

// WithMetrics returns option to specify metrics sink.
func WithMetrics(m MetricsWriter) Option {
	return func(c *cfg) {
		c.metrics = m
	}
}

func newFileSystem(data []byte, open bool, opts ...Option) (*FileSystem, error) {
	c := defaultCfg()

	for i := range opts {
		opts[i](c)
	}

	storeOpts := []filestore.Option{
		filestore.WithWidth(c.width),
		filestore.WithLogger(c.log),
	}

	var (
		store *filestore.FileStore
		err   error
	)

	if open {
		store, err = filestore.Open(data, storeOpts...)
	} else {
		store, err = filestore.New(data, storeOpts...)
	}
	if err != nil {
		return nil, err
	}

	f := &FileSystem{
		cfg:   *c,
		store: store,
		root:  RootInode(c.width),
	}

	if c.cacheSize > 0 {
		f.cache, err = lru.New[string, uint64](c.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("path cache: %w", err)
		}
	}

	return f, nil
}

// New attaches FileSystem to data. Format MUST be called before use.
func New(data []byte, opts ...Option) (*FileSystem, error) {
	return newFileSystem(data, false, opts...)
}

// Open attaches FileSystem to formatted data and reads the root directory
// inode from the image.
func Open(data []byte, opts ...Option) (*FileSystem, error) {
	f, err := newFileSystem(data, true, opts...)
	if err != nil {
		return nil, err
	}

	p, err := f.store.ReadPtr(FsDataInode)
	if err != nil {
		return nil, fmt.Errorf("read file system header: %w", err)
	}

	if p.Size() < f.width.Bytes() {
		return nil, fmt.Errorf("%w: file system header of %d bytes", common.ErrCorrupted, p.Size())
	}

	f.root = p.Get(f.width, 0)

	return f, nil
}

// Format initializes an empty file system with the root directory.
func (f *FileSystem) Format() error {
	if err := f.store.Format(); err != nil {
		return err
	}

	if err := f.rootDir().Init(); err != nil {
		return err
	}

	hdr := make([]byte, f.width.Bytes())
	f.width.Put(hdr, f.root)

	if err := f.store.Write(FsDataInode, hdr, common.FileTypeNone); err != nil {
		return fmt.Errorf("write file system header: %w", err)
	}

	f.purgeCache()
	f.updateSpace()

	f.log.Debug("file system formatted", zap.Uint64("root", f.root))

	return nil
}

func (f *FileSystem) rootDir() *directory.Directory {
	return f.dir(f.root)
}

func (f *FileSystem) dir(inode uint64) *directory.Directory {
	return directory.New(f.store, inode, directory.WithLogger(f.log))
}

// RootInode returns inode id of the root directory.
func (f *FileSystem) RootInode() uint64 {
	return f.root
}

// Store returns underlying File Store.
func (f *FileSystem) Store() *filestore.FileStore {
	return f.store
}

// Size returns image capacity.
func (f *FileSystem) Size() uint64 {
	return f.store.Size()
}

// Available returns the number of free bytes.
func (f *FileSystem) Available() uint64 {
	return f.store.Available()
}

// SpaceNeeded returns the number of bytes needed to store a blob of the
// given size.
func (f *FileSystem) SpaceNeeded(size uint64) uint64 {
	return f.store.SpaceNeeded(size)
}

// Bytes returns image memory limited by its capacity.
func (f *FileSystem) Bytes() []byte {
	return f.store.Bytes()
}

func (f *FileSystem) updateSpace() {
	f.metrics.SetSpace(f.store.Size(), f.store.BytesUsed())
}

func (f *FileSystem) purgeCache() {
	if f.cache != nil {
		f.cache.Purge()
	}
}
