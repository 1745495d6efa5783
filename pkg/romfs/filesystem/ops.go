package filesystem

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/oxfs/pkg/romfs/common"
	"github.com/nspcc-dev/oxfs/pkg/romfs/directory"
	"github.com/nspcc-dev/oxfs/pkg/romfs/filestore"
	storagelog "github.com/nspcc-dev/oxfs/pkg/romfs/internal/log"
	"github.com/nspcc-dev/oxfs/pkg/romfs/util/logicerr"
	"go.uber.org/multierr"
)

// resolve returns inode id the path points to.
func (f *FileSystem) resolve(path string) (uint64, error) {
	path = directory.Clean(path)

	if f.cache != nil {
		if inode, ok := f.cache.Get(path); ok {
			return inode, nil
		}
	}

	inode, err := f.rootDir().Find(path)
	if err != nil {
		return 0, fmt.Errorf("resolve %q: %w", path, err)
	}

	if f.cache != nil {
		f.cache.Add(path, inode)
	}

	return inode, nil
}

func (f *FileSystem) report(op string, err error) {
	f.metrics.AddOperation(op, err == nil)
	f.updateSpace()
}

// Mkdir creates a directory. With recursive flag missing parents are
// created too.
func (f *FileSystem) Mkdir(path string, recursive bool) (err error) {
	defer func() { f.report("mkdir", err) }()

	f.purgeCache()

	if err = f.rootDir().Mkdir(path, recursive); err != nil {
		return fmt.Errorf("mkdir %q: %w", path, err)
	}

	storagelog.Write(f.log, storagelog.OpField("mkdir"), storagelog.PathField(path))

	return nil
}

// Write stores data under the path. Existing file is rewritten in place of
// its inode, new files get a generated inode. Parent directory MUST exist.
func (f *FileSystem) Write(path string, data []byte, fileType common.FileType) (err error) {
	defer func() { f.report("write", err) }()

	inode, err := f.resolve(path)
	switch {
	case err == nil:
		st, err := f.store.Stat(inode)
		if err != nil {
			return err
		}

		if st.IsDir() != (fileType == common.FileTypeDirectory) {
			return logicerr.Wrapf(common.ErrInvalidArgument, "%q is %s, can not write %s", path, st.FileType, fileType)
		}

		if err = f.store.Write(inode, data, fileType); err != nil {
			return fmt.Errorf("write %q: %w", path, err)
		}
	case errors.Is(err, common.ErrNotFound):
		if inode, err = f.store.GenerateInodeID(); err != nil {
			return fmt.Errorf("write %q: %w", path, err)
		}

		if err = f.store.Write(inode, data, fileType); err != nil {
			return fmt.Errorf("write %q: %w", path, err)
		}

		f.purgeCache()

		if err = f.rootDir().Write(path, inode); err != nil {
			if rmErr := f.store.Remove(inode); rmErr != nil {
				err = multierr.Append(err, rmErr)
			}

			return fmt.Errorf("link %q: %w", path, err)
		}
	default:
		return err
	}

	f.metrics.AddWrittenBytes(uint64(len(data)))
	storagelog.Write(f.log,
		storagelog.OpField("write"),
		storagelog.PathField(path),
		storagelog.InodeField(inode),
		storagelog.SizeField(uint64(len(data))))

	return nil
}

// WriteInode stores data under the inode without touching directories.
func (f *FileSystem) WriteInode(inode uint64, data []byte, fileType common.FileType) (err error) {
	defer func() { f.report("write", err) }()

	if err = f.store.Write(inode, data, fileType); err != nil {
		return err
	}

	f.metrics.AddWrittenBytes(uint64(len(data)))

	return nil
}

// Read returns a copy of the file contents.
func (f *FileSystem) Read(path string) ([]byte, error) {
	inode, err := f.resolve(path)
	if err != nil {
		return nil, err
	}

	return f.store.Read(inode)
}

// ReadInode returns a copy of the blob contents.
func (f *FileSystem) ReadInode(inode uint64) ([]byte, error) {
	return f.store.Read(inode)
}

// ReadRange returns a copy of size bytes of the file starting from start.
func (f *FileSystem) ReadRange(path string, start, size uint64) ([]byte, error) {
	inode, err := f.resolve(path)
	if err != nil {
		return nil, err
	}

	return f.store.ReadRange(inode, start, size)
}

// Stat returns metadata of the file.
func (f *FileSystem) Stat(path string) (common.StatInfo, error) {
	inode, err := f.resolve(path)
	if err != nil {
		return common.StatInfo{}, err
	}

	return f.store.Stat(inode)
}

// StatInode returns metadata of the blob.
func (f *FileSystem) StatInode(inode uint64) (common.StatInfo, error) {
	return f.store.Stat(inode)
}

// Ls calls fn for every entry of the directory. fn MUST NOT modify the file
// system.
func (f *FileSystem) Ls(path string, fn func(name string, inode uint64) error) error {
	inode, err := f.resolve(path)
	if err != nil {
		return err
	}

	return f.dir(inode).Ls(fn)
}

// Remove unlinks the file or the directory. Non-empty directories are
// removed only with recursive flag, all the subtree is released then.
func (f *FileSystem) Remove(path string, recursive bool) (err error) {
	defer func() { f.report("remove", err) }()

	parent, name := directory.SplitLast(path)
	if name == "" {
		return logicerr.Wrapf(common.ErrInvalidArgument, "can not remove root directory")
	}

	inode, err := f.resolve(path)
	if err != nil {
		return err
	}

	st, err := f.store.Stat(inode)
	if err != nil {
		return err
	}

	var subtree []uint64

	if st.IsDir() {
		n, err := f.dir(inode).Len()
		if err != nil {
			return err
		}

		if n > 0 && !recursive {
			return logicerr.Wrapf(common.ErrInvalidArgument, "directory %q is not empty", path)
		}

		if subtree, err = f.subtree(inode); err != nil {
			return err
		}
	}

	parentInode, err := f.resolve(parent)
	if err != nil {
		return err
	}

	f.purgeCache()

	if err = f.dir(parentInode).Remove(name); err != nil {
		return fmt.Errorf("remove %q: %w", path, err)
	}

	for _, child := range subtree {
		if err = f.store.DecLinks(child); err != nil && !errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("release inode %d of %q: %w", child, path, err)
		}
	}

	if err = f.store.DecLinks(inode); err != nil {
		return fmt.Errorf("release %q: %w", path, err)
	}

	storagelog.Write(f.log, storagelog.OpField("remove"), storagelog.PathField(path), storagelog.InodeField(inode))

	return nil
}

// subtree returns inode ids of all the entries under the directory, every
// linked entry is listed as many times as it is linked.
func (f *FileSystem) subtree(inode uint64) ([]uint64, error) {
	var (
		res     []uint64
		queue   = []uint64{inode}
		visited = map[uint64]struct{}{inode: {}}
	)

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		err := f.dir(cur).Ls(func(_ string, child uint64) error {
			res = append(res, child)

			if _, ok := visited[child]; ok {
				return nil
			}

			visited[child] = struct{}{}

			st, err := f.store.Stat(child)
			if errors.Is(err, common.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}

			if st.IsDir() {
				queue = append(queue, child)
			}

			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return res, nil
}

// Move links the file under dst and unlinks it from src. The operation is
// not atomic: if unlinking fails both paths remain.
func (f *FileSystem) Move(src, dst string) (err error) {
	defer func() { f.report("move", err) }()

	srcParent, srcName := directory.SplitLast(src)
	if srcName == "" {
		return logicerr.Wrapf(common.ErrInvalidArgument, "can not move root directory")
	}

	if directory.Contains(src, dst) {
		return logicerr.Wrapf(common.ErrInvalidArgument, "can not move %q into itself", src)
	}

	inode, err := f.resolve(src)
	if err != nil {
		return err
	}

	if _, err = f.resolve(dst); err == nil {
		return logicerr.Wrapf(common.ErrInvalidArgument, "destination %q exists", dst)
	} else if !errors.Is(err, common.ErrNotFound) {
		return err
	}

	parentInode, err := f.resolve(srcParent)
	if err != nil {
		return err
	}

	f.purgeCache()

	if err = f.rootDir().Write(dst, inode); err != nil {
		return fmt.Errorf("link %q: %w", dst, err)
	}

	if err = f.store.IncLinks(inode); err != nil {
		return err
	}

	if err = f.dir(parentInode).Remove(srcName); err != nil {
		return fmt.Errorf("unlink %q: %w", src, err)
	}

	if err = f.store.DecLinks(inode); err != nil {
		return err
	}

	storagelog.Write(f.log,
		storagelog.OpField("move"),
		storagelog.PathField(src),
		storagelog.TargetField(dst),
		storagelog.InodeField(inode))

	return nil
}

// Resize compacts the image and shrinks it to the minimal size.
func (f *FileSystem) Resize() (err error) {
	defer func() { f.report("resize", err) }()

	return f.store.Resize(0)
}

// Expand moves the image into a new backing buffer of the given size.
func (f *FileSystem) Expand(size uint64) (err error) {
	defer func() { f.report("expand", err) }()

	return f.store.Expand(size)
}

// Walk iterates over all blobs of the image in physical order.
func (f *FileSystem) Walk(fn filestore.WalkFunc) error {
	return f.store.Walk(fn)
}

// Verify checks image integrity.
func (f *FileSystem) Verify() error {
	return f.store.Verify()
}
