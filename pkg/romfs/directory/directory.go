package directory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nspcc-dev/oxfs/pkg/romfs/common"
	"github.com/nspcc-dev/oxfs/pkg/romfs/filestore"
	"github.com/nspcc-dev/oxfs/pkg/romfs/nodebuffer"
	"github.com/nspcc-dev/oxfs/pkg/romfs/ptrarith"
	"github.com/nspcc-dev/oxfs/pkg/romfs/util/logicerr"
	"go.uber.org/zap"
)

// MaxFileNameLength is the maximum length of a single path component.
const MaxFileNameLength = 255

// Directory is a File Store blob holding a Node Buffer of entries. Every
// entry is an inode id followed by a NUL-terminated name.
//
// Directory keeps no state besides its inode id: the body is re-read from
// the store on every call.
type Directory struct {
	cfg

	store *filestore.FileStore
	inode uint64
}

// Option represents Directory's constructor option.
type Option func(*cfg)

type cfg struct {
	log *zap.Logger
}

func defaultCfg() *cfg {
	return &cfg{
		log: zap.L(),
	}
}

// WithLogger returns option to specify Directory's logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *cfg) {
		c.log = l.With(zap.String("component", "Directory"))
	}
}

// New returns Directory stored under the given inode. The body is not
// checked until the first access.
func New(store *filestore.FileStore, inode uint64, opts ...Option) *Directory {
	c := defaultCfg()

	for i := range opts {
		opts[i](c)
	}

	return &Directory{
		cfg:   *c,
		store: store,
		inode: inode,
	}
}

// Inode returns inode id of the directory body.
func (d *Directory) Inode() uint64 {
	return d.inode
}

func (d *Directory) child(inode uint64) *Directory {
	return &Directory{
		cfg:   d.cfg,
		store: d.store,
		inode: inode,
	}
}

func (d *Directory) width() ptrarith.Width {
	return d.store.Width()
}

// Init writes an empty directory body replacing previous contents.
func (d *Directory) Init() error {
	body := make([]byte, nodebuffer.HeaderSize(d.width()))

	nb, err := nodebuffer.New(body, d.width(), nodebuffer.BaseItemHeaderSize(d.width()))
	if err != nil {
		return err
	}

	if err := nb.Init(uint64(len(body))); err != nil {
		return err
	}

	if err := d.store.Write(d.inode, body, common.FileTypeDirectory); err != nil {
		return fmt.Errorf("init directory %d: %w", d.inode, err)
	}

	return nil
}

// body returns entry buffer attached to the directory blob in the store.
func (d *Directory) body() (*nodebuffer.Buffer, error) {
	st, err := d.store.Stat(d.inode)
	if err != nil {
		return nil, err
	}

	if !st.IsDir() {
		return nil, fmt.Errorf("%w: inode %d", common.ErrNotDirectory, d.inode)
	}

	p, err := d.store.ReadPtr(d.inode)
	if err != nil {
		return nil, err
	}

	nb, err := nodebuffer.New(p.Bytes(), d.width(), nodebuffer.BaseItemHeaderSize(d.width()))
	if err != nil {
		return nil, fmt.Errorf("%w: directory %d: %w", common.ErrCorrupted, d.inode, err)
	}

	if !nb.Valid(p.Size()) {
		return nil, fmt.Errorf("%w: directory %d has invalid header", common.ErrCorrupted, d.inode)
	}

	return nb, nil
}

// entry is a validated directory entry payload.
type entry struct {
	ptrarith.Ptr
	w ptrarith.Width
}

func (d *Directory) entry(nb *nodebuffer.Buffer, item ptrarith.Ptr) (entry, error) {
	p := nb.DataOf(item)
	if !p.Valid() || p.Size() < d.width().Bytes()+1 || p.Bytes()[p.Size()-1] != 0 {
		return entry{}, fmt.Errorf("%w: invalid entry at %d in directory %d", common.ErrCorrupted, item.Offset(), d.inode)
	}

	return entry{Ptr: p, w: d.width()}, nil
}

func (e entry) inode() uint64 {
	return e.Get(e.w, 0)
}

func (e entry) setInode(v uint64) {
	e.Put(e.w, 0, v)
}

func (e entry) name() []byte {
	b := e.Bytes()
	return b[e.w.Bytes() : len(b)-1]
}

// errStop interrupts entry iteration.
var errStop = errors.New("stop")

// iterate calls fn for every entry with its list item.
func (d *Directory) iterate(nb *nodebuffer.Buffer, fn func(item ptrarith.Ptr, e entry) error) error {
	err := nb.Iterate(func(item ptrarith.Ptr) error {
		e, err := d.entry(nb, item)
		if err != nil {
			return err
		}

		return fn(item, e)
	})
	if errors.Is(err, errStop) {
		return nil
	}

	return err
}

func checkName(name string) error {
	switch {
	case name == "" || name == "." || name == "..":
		return logicerr.Wrapf(common.ErrInvalidArgument, "file name %q", name)
	case len(name) > MaxFileNameLength:
		return logicerr.Wrapf(common.ErrNameTooLong, "%d bytes", len(name))
	case strings.ContainsAny(name, "/\x00"):
		return logicerr.Wrapf(common.ErrInvalidArgument, "file name %q", name)
	}

	return nil
}

// FindEntry returns inode id of the entry with the given name.
func (d *Directory) FindEntry(name string) (uint64, error) {
	nb, err := d.body()
	if err != nil {
		return 0, err
	}

	var (
		inode uint64
		found bool
	)

	err = d.iterate(nb, func(_ ptrarith.Ptr, e entry) error {
		if string(e.name()) == name {
			inode, found = e.inode(), true
			return errStop
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	if !found {
		return 0, fmt.Errorf("%w: %q in directory %d", common.ErrNotFound, name, d.inode)
	}

	return inode, nil
}

// Find resolves path relative to the directory. Empty path and "/" resolve
// to the directory itself.
func (d *Directory) Find(path string) (uint64, error) {
	cur := d

	for _, name := range Split(path) {
		inode, err := cur.FindEntry(name)
		if err != nil {
			return 0, err
		}

		cur = d.child(inode)
	}

	return cur.inode, nil
}

// Write adds the entry pointing to inode under the given path. Intermediate
// directories MUST exist. An existing entry with the same name is
// re-pointed.
func (d *Directory) Write(path string, inode uint64) error {
	parent, name := SplitLast(path)
	if name == "" {
		return logicerr.Wrapf(common.ErrInvalidArgument, "path %q has no file name", path)
	}

	dirInode, err := d.Find(parent)
	if err != nil {
		return err
	}

	return d.child(dirInode).writeEntry(name, inode)
}

// writeEntry re-points an existing entry in place or rewrites the whole body
// with the new entry appended.
func (d *Directory) writeEntry(name string, inode uint64) error {
	if err := checkName(name); err != nil {
		return err
	}

	nb, err := d.body()
	if err != nil {
		return err
	}

	var found bool

	err = d.iterate(nb, func(_ ptrarith.Ptr, e entry) error {
		if string(e.name()) == name {
			e.setInode(inode)
			found = true
			return errStop
		}

		return nil
	})
	if err != nil || found {
		return err
	}

	size := d.width().Bytes() + uint64(len(name)) + 1
	need := nb.SpaceNeeded(size)

	scratch := make([]byte, nb.Size()+need)
	copy(scratch, nb.Bytes())

	snb, err := nodebuffer.New(scratch, d.width(), nodebuffer.BaseItemHeaderSize(d.width()))
	if err != nil {
		return err
	}

	if err := snb.Compact(nil); err != nil {
		return fmt.Errorf("directory %d: %w", d.inode, err)
	}

	if err := snb.SetSize(snb.BytesUsed() + need); err != nil {
		return fmt.Errorf("directory %d: %w", d.inode, err)
	}

	item := snb.Malloc(size)
	if !item.Valid() {
		return fmt.Errorf("%w: entry %q in directory %d", common.ErrNoSpace, name, d.inode)
	}

	p := snb.DataOf(item)
	if !p.Valid() {
		return fmt.Errorf("%w: entry %q in directory %d", common.ErrCorrupted, name, d.inode)
	}

	// payload is zeroed, so the terminator is already in place
	entry{Ptr: p, w: d.width()}.setInode(inode)
	copy(p.Bytes()[d.width().Bytes():], name)

	if err := d.store.Write(d.inode, snb.Bytes(), common.FileTypeDirectory); err != nil {
		return fmt.Errorf("write directory %d: %w", d.inode, err)
	}

	d.log.Debug("directory entry added",
		zap.Uint64("directory", d.inode),
		zap.String("name", name),
		zap.Uint64("inode", inode))

	return nil
}

// Remove frees the entry with the given name. The body is not shrunk.
func (d *Directory) Remove(name string) error {
	nb, err := d.body()
	if err != nil {
		return err
	}

	var target ptrarith.Ptr

	err = d.iterate(nb, func(item ptrarith.Ptr, e entry) error {
		if string(e.name()) == name {
			target = item
			return errStop
		}

		return nil
	})
	if err != nil {
		return err
	}

	if !target.Valid() {
		return fmt.Errorf("%w: %q in directory %d", common.ErrNotFound, name, d.inode)
	}

	if err := nb.Free(target); err != nil {
		return fmt.Errorf("directory %d: %w", d.inode, err)
	}

	return nil
}

// Mkdir creates directories along the path. If parents is false, all the
// components except the last one MUST exist. Existing directories are kept
// as is.
func (d *Directory) Mkdir(path string, parents bool) error {
	names := Split(path)
	cur := d

	for i, name := range names {
		inode, err := cur.FindEntry(name)
		if err == nil {
			st, err := d.store.Stat(inode)
			if err != nil {
				return err
			}

			if !st.IsDir() {
				return logicerr.Wrapf(common.ErrNotDirectory, "%q", strings.Join(names[:i+1], "/"))
			}

			cur = d.child(inode)

			continue
		}

		if !errors.Is(err, common.ErrNotFound) {
			return err
		}

		if !parents && i < len(names)-1 {
			return logicerr.Wrapf(common.ErrInvalidArgument, "missing parent directory %q", strings.Join(names[:i+1], "/"))
		}

		if cur, err = cur.mkdirEntry(name); err != nil {
			return err
		}
	}

	return nil
}

// mkdirEntry creates an empty directory and links it under name.
func (d *Directory) mkdirEntry(name string) (*Directory, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}

	inode, err := d.store.GenerateInodeID()
	if err != nil {
		return nil, err
	}

	child := d.child(inode)

	if err := child.Init(); err != nil {
		return nil, err
	}

	if err := d.writeEntry(name, inode); err != nil {
		if rmErr := d.store.Remove(inode); rmErr != nil {
			d.log.Debug("could not remove unlinked directory",
				zap.Uint64("inode", inode),
				zap.Error(rmErr))
		}

		return nil, err
	}

	return child, nil
}

// Ls calls fn for every entry in the physical order. Iteration stops on the
// first error returned by fn. fn MUST NOT modify the store.
func (d *Directory) Ls(fn func(name string, inode uint64) error) error {
	nb, err := d.body()
	if err != nil {
		return err
	}

	return d.iterate(nb, func(_ ptrarith.Ptr, e entry) error {
		return fn(string(e.name()), e.inode())
	})
}

// Len returns the number of entries.
func (d *Directory) Len() (int, error) {
	var n int

	err := d.Ls(func(string, uint64) error {
		n++
		return nil
	})

	return n, err
}
