// Package pack assembles an image from a host directory tree.
package pack

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sync"

	"github.com/nspcc-dev/oxfs/pkg/romfs/common"
	"github.com/nspcc-dev/oxfs/pkg/romfs/filesystem"
	"github.com/nspcc-dev/oxfs/pkg/util"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Stats describes the packed tree.
type Stats struct {
	Dirs  int
	Files int
	Bytes uint64
	// Expansions is the number of times the image was grown.
	Expansions int
}

// Packer copies host directory trees into a FileSystem.
type Packer struct {
	cfg

	dst *filesystem.FileSystem
}

// Option represents Packer's constructor option.
type Option func(*cfg)

type cfg struct {
	log         *zap.Logger
	pool        util.WorkerPool
	verify      bool
	maxCapacity uint64
	onFile      func(path string, size int)
}

func defaultCfg() *cfg {
	return &cfg{
		log:    zap.L(),
		pool:   util.NewPseudoWorkerPool(),
		verify: true,
		onFile: func(string, int) {},
	}
}

// WithLogger returns option to specify Packer's logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *cfg) {
		c.log = l.With(zap.String("component", "Packer"))
	}
}

// WithWorkerPool returns option to read host files in the pool.
func WithWorkerPool(p util.WorkerPool) Option {
	return func(c *cfg) {
		c.pool = p
	}
}

// WithVerify returns option to read every file back after it is written.
func WithVerify(v bool) Option {
	return func(c *cfg) {
		c.verify = v
	}
}

// WithMaxCapacity returns option to let the image grow up to the given size
// when it runs out of space. Zero keeps the image size fixed.
func WithMaxCapacity(size uint64) Option {
	return func(c *cfg) {
		c.maxCapacity = size
	}
}

// WithFileCallback returns option to be notified about every written file.
func WithFileCallback(f func(path string, size int)) Option {
	return func(c *cfg) {
		c.onFile = f
	}
}

// New returns Packer writing into dst. dst MUST be formatted.
func New(dst *filesystem.FileSystem, opts ...Option) *Packer {
	c := defaultCfg()

	for i := range opts {
		opts[i](c)
	}

	return &Packer{
		cfg: *c,
		dst: dst,
	}
}

type entry struct {
	path string
	dir  bool
	data []byte
}

// CountFiles returns the number of regular files under root.
func CountFiles(src afero.Fs, root string) (int, error) {
	var n int

	err := afero.Walk(src, root, func(_ string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.Mode().IsRegular() {
			n++
		}

		return nil
	})

	return n, err
}

// Pack copies the tree rooted at root on src into the image root. Files are
// read in the worker pool and written one by one in lexical order. Packing
// stops between entries once ctx is done.
func (p *Packer) Pack(ctx context.Context, src afero.Fs, root string) (Stats, error) {
	var stats Stats

	entries, err := p.collect(src, root)
	if err != nil {
		return stats, err
	}

	if err = p.prefetch(src, root, entries); err != nil {
		return stats, err
	}

	for i := range entries {
		if err = ctx.Err(); err != nil {
			return stats, fmt.Errorf("packing interrupted: %w", err)
		}

		e := &entries[i]

		if e.dir {
			if err = p.withGrowth(&stats, func() error { return p.dst.Mkdir(e.path, true) }); err != nil {
				return stats, err
			}

			stats.Dirs++

			p.log.Debug("directory created", zap.String("path", e.path))

			continue
		}

		if err = p.withGrowth(&stats, func() error { return p.dst.Write(e.path, e.data, common.FileTypeNormal) }); err != nil {
			return stats, err
		}

		if p.verify {
			if err = p.verifyFile(e.path, e.data); err != nil {
				return stats, err
			}
		}

		stats.Files++
		stats.Bytes += uint64(len(e.data))

		p.log.Debug("file written", zap.String("path", e.path), zap.Int("size", len(e.data)))
		p.onFile(e.path, len(e.data))

		e.data = nil
	}

	return stats, nil
}

func (p *Packer) collect(src afero.Fs, root string) ([]entry, error) {
	var entries []entry

	err := afero.Walk(src, root, func(hostPath string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, hostPath)
		if err != nil {
			return err
		}

		if rel == "." {
			if !info.IsDir() {
				return fmt.Errorf("source %q is not a directory", root)
			}
			return nil
		}

		imagePath := path.Join("/", filepath.ToSlash(rel))

		switch {
		case info.IsDir():
			entries = append(entries, entry{path: imagePath, dir: true})
		case info.Mode().IsRegular():
			entries = append(entries, entry{path: imagePath})
		default:
			p.log.Warn("skip special file", zap.String("path", hostPath), zap.Stringer("mode", info.Mode()))
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %q: %w", root, err)
	}

	return entries, nil
}

func (p *Packer) prefetch(src afero.Fs, root string, entries []entry) error {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		readErr error
	)

	for i := range entries {
		if entries[i].dir {
			continue
		}

		e := &entries[i]
		hostPath := filepath.Join(root, filepath.FromSlash(e.path))

		wg.Add(1)

		err := p.pool.Submit(func() {
			defer wg.Done()

			data, err := afero.ReadFile(src, hostPath)
			if err != nil {
				mu.Lock()
				readErr = multierr.Append(readErr, fmt.Errorf("read %q: %w", hostPath, err))
				mu.Unlock()
				return
			}

			e.data = data
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return fmt.Errorf("submit read of %q: %w", hostPath, err)
		}
	}

	wg.Wait()

	return readErr
}

// withGrowth runs op and expands the image while op fails for lack of space.
func (p *Packer) withGrowth(stats *Stats, op func() error) error {
	for {
		err := op()
		if err == nil || !errors.Is(err, common.ErrNoSpace) {
			return err
		}

		size := p.dst.Size()
		if size >= p.maxCapacity {
			return err
		}

		newSize := min(2*size, p.maxCapacity)

		if expErr := p.dst.Expand(newSize); expErr != nil {
			return fmt.Errorf("%w (expand to %d: %w)", err, newSize, expErr)
		}

		stats.Expansions++

		p.log.Debug("image expanded", zap.Uint64("from", size), zap.Uint64("to", newSize))
	}
}

func (p *Packer) verifyFile(imagePath string, expected []byte) error {
	data, err := p.dst.Read(imagePath)
	if err != nil {
		return fmt.Errorf("verify %q: %w", imagePath, err)
	}

	if !bytes.Equal(data, expected) {
		return fmt.Errorf("%w: %q differs from the source", common.ErrCorrupted, imagePath)
	}

	return nil
}
