package filesystem

import (
	"bytes"
	"sort"
	"testing"

	"github.com/nspcc-dev/oxfs/pkg/romfs/common"
	"github.com/nspcc-dev/oxfs/pkg/romfs/ptrarith"
	"github.com/nspcc-dev/oxfs/pkg/romfs/util/logicerr"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newFS(t *testing.T, size int, opts ...Option) *FileSystem {
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)

	f, err := New(make([]byte, size), opts...)
	require.NoError(t, err)
	require.NoError(t, f.Format())
	return f
}

func ls(t *testing.T, f *FileSystem, path string) []string {
	var res []string
	require.NoError(t, f.Ls(path, func(name string, _ uint64) error {
		res = append(res, name)
		return nil
	}))
	sort.Strings(res)
	return res
}

func TestFileSystem_Format(t *testing.T) {
	for _, w := range []ptrarith.Width{ptrarith.Width16, ptrarith.Width32} {
		t.Run(w.String(), func(t *testing.T) {
			f := newFS(t, 5000, WithWidth(w))
			require.Equal(t, RootInode(w), f.RootInode())

			st, err := f.Stat("/")
			require.NoError(t, err)
			require.True(t, st.IsDir())
			require.Equal(t, f.RootInode(), st.Inode)

			require.Empty(t, ls(t, f, "/"))
			require.NoError(t, f.Verify())
		})
	}
}

func TestFileSystem_Hierarchy(t *testing.T) {
	f := newFS(t, 10000)

	require.NoError(t, f.Mkdir("/a/b/c", true))

	st, err := f.Stat("/a/b/c")
	require.NoError(t, err)
	require.True(t, st.IsDir())

	err = f.Mkdir("/x/y/z", false)
	require.ErrorIs(t, err, common.ErrInvalidArgument)
	require.True(t, logicerr.Is(err))

	require.Equal(t, []string{"c"}, ls(t, f, "/a/b"))

	require.NoError(t, f.Mkdir("/l1d1/l2d1/l3d1", true))
	require.NoError(t, f.Mkdir("/l1d1/l2d2", false))
	require.Equal(t, []string{"l2d1", "l2d2"}, ls(t, f, "/l1d1"))
	require.Equal(t, []string{"a", "l1d1"}, ls(t, f, "/"))

	require.NoError(t, f.Verify())
}

func TestFileSystem_Write(t *testing.T) {
	f := newFS(t, 10000)
	require.NoError(t, f.Mkdir("/usr/share", true))

	data := []byte("test contents")
	require.NoError(t, f.Write("/usr/share/test.txt", data, common.FileTypeNormal))

	got, err := f.Read("/usr/share/test.txt")
	require.NoError(t, err)
	require.Equal(t, data, got)

	st, err := f.Stat("/usr/share/test.txt")
	require.NoError(t, err)
	require.Equal(t, common.StatInfo{Inode: st.Inode, Links: 1, Size: uint64(len(data)), FileType: common.FileTypeNormal}, st)

	got, err = f.ReadInode(st.Inode)
	require.NoError(t, err)
	require.Equal(t, data, got)

	part, err := f.ReadRange("/usr/share/test.txt", 5, 8)
	require.NoError(t, err)
	require.Equal(t, []byte("contents"), part)

	t.Run("rewrite keeps inode", func(t *testing.T) {
		require.NoError(t, f.Write("/usr/share/test.txt", []byte("longer test contents"), common.FileTypeNormal))

		again, err := f.Stat("/usr/share/test.txt")
		require.NoError(t, err)
		require.Equal(t, st.Inode, again.Inode)
		require.EqualValues(t, 20, again.Size)
		require.Equal(t, []string{"test.txt"}, ls(t, f, "/usr/share"))
	})

	t.Run("type mismatch", func(t *testing.T) {
		require.ErrorIs(t, f.Write("/usr", []byte("x"), common.FileTypeNormal), common.ErrInvalidArgument)
		require.ErrorIs(t, f.Write("/usr/share/test.txt", nil, common.FileTypeDirectory), common.ErrInvalidArgument)
	})

	t.Run("missing parent", func(t *testing.T) {
		used := f.Store().BytesUsed()

		require.ErrorIs(t, f.Write("/none/file", data, common.FileTypeNormal), common.ErrNotFound)
		require.Equal(t, used, f.Store().BytesUsed(), "unlinked blob is removed")
	})

	t.Run("inode", func(t *testing.T) {
		require.NoError(t, f.WriteInode(50, []byte("system"), common.FileTypeNormal))

		st, err := f.StatInode(50)
		require.NoError(t, err)
		require.EqualValues(t, 6, st.Size)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := f.Read("/usr/none")
		require.ErrorIs(t, err, common.ErrNotFound)

		_, err = f.Stat("/usr/share/test.txt/x")
		require.ErrorIs(t, err, common.ErrNotDirectory)
	})

	require.NoError(t, f.Verify())
}

func TestFileSystem_Remove(t *testing.T) {
	f := newFS(t, 10000)

	require.NoError(t, f.Mkdir("/usr/share", true))
	require.NoError(t, f.Mkdir("/usr/lib", true))
	require.NoError(t, f.Mkdir("/empty", true))
	require.NoError(t, f.Write("/usr/share/test.txt", []byte("text"), common.FileTypeNormal))
	require.NoError(t, f.Write("/usr/lib/a", []byte("a"), common.FileTypeNormal))
	require.NoError(t, f.Write("/usr/lib/b", []byte("b"), common.FileTypeNormal))
	require.NoError(t, f.Write("/file", []byte("file"), common.FileTypeNormal))

	var inodes []uint64
	for _, p := range []string{"/usr", "/usr/share", "/usr/lib", "/usr/share/test.txt", "/usr/lib/a", "/usr/lib/b"} {
		st, err := f.Stat(p)
		require.NoError(t, err)
		inodes = append(inodes, st.Inode)
	}

	err := f.Remove("/usr", false)
	require.ErrorIs(t, err, common.ErrInvalidArgument)
	require.True(t, logicerr.Is(err))

	require.ErrorIs(t, f.Remove("/", true), common.ErrInvalidArgument)
	require.ErrorIs(t, f.Remove("/none", true), common.ErrNotFound)

	require.NoError(t, f.Remove("/empty", false))
	require.NoError(t, f.Remove("/file", false))
	require.NoError(t, f.Remove("/usr", true))

	require.Empty(t, ls(t, f, "/"))

	for _, inode := range inodes {
		_, err := f.StatInode(inode)
		require.ErrorIs(t, err, common.ErrNotFound, "inode %d", inode)
	}

	require.NoError(t, f.Verify())
}

func TestFileSystem_Move(t *testing.T) {
	f := newFS(t, 10000)

	require.NoError(t, f.Mkdir("/usr/share", true))
	require.NoError(t, f.Write("/usr/share/test.txt", []byte("moved"), common.FileTypeNormal))

	require.NoError(t, f.Move("/usr/share", "/share"))

	got, err := f.Read("/share/test.txt")
	require.NoError(t, err)
	require.Equal(t, []byte("moved"), got)

	_, err = f.Read("/usr/share/test.txt")
	require.ErrorIs(t, err, common.ErrNotFound)
	require.Empty(t, ls(t, f, "/usr"))

	st, err := f.Stat("/share")
	require.NoError(t, err)
	require.EqualValues(t, 1, st.Links)

	require.ErrorIs(t, f.Move("/share", "/share/inner"), common.ErrInvalidArgument)
	require.ErrorIs(t, f.Move("/share", "/usr"), common.ErrInvalidArgument)
	require.ErrorIs(t, f.Move("/", "/x"), common.ErrInvalidArgument)
	require.ErrorIs(t, f.Move("/none", "/x"), common.ErrNotFound)

	require.NoError(t, f.Move("/share/test.txt", "/usr/renamed.txt"))
	got, err = f.Read("/usr/renamed.txt")
	require.NoError(t, err)
	require.Equal(t, []byte("moved"), got)

	require.NoError(t, f.Verify())
}

func TestFileSystem_ResizeReopen(t *testing.T) {
	f := newFS(t, 10000, WithWidth(ptrarith.Width16))

	require.NoError(t, f.Mkdir("/dir", false))
	require.NoError(t, f.Write("/dir/a", bytes.Repeat([]byte{1}, 300), common.FileTypeNormal))
	require.NoError(t, f.Write("/dir/b", bytes.Repeat([]byte{2}, 300), common.FileTypeNormal))
	require.NoError(t, f.Remove("/dir/a", false))

	require.NoError(t, f.Resize())
	require.Zero(t, f.Available())
	require.Len(t, f.Bytes(), int(f.Size()))

	reopened, err := Open(bytes.Clone(f.Bytes()), WithWidth(ptrarith.Width16))
	require.NoError(t, err)
	require.Equal(t, f.RootInode(), reopened.RootInode())

	got, err := reopened.Read("/dir/b")
	require.NoError(t, err)
	require.Equal(t, bytes.Repeat([]byte{2}, 300), got)

	require.ErrorIs(t, reopened.Write("/dir/c", []byte{3}, common.FileTypeNormal), common.ErrNoSpace)

	require.NoError(t, reopened.Expand(reopened.Size()+1000))
	require.NoError(t, reopened.Write("/dir/c", []byte{3}, common.FileTypeNormal))
	require.Equal(t, []string{"b", "c"}, ls(t, reopened, "/dir"))
	require.NoError(t, reopened.Verify())

	_, err = Open(make([]byte, 100))
	require.Error(t, err)
}

func TestFileSystem_PathCache(t *testing.T) {
	f := newFS(t, 10000, WithPathCache(4))

	require.NoError(t, f.Mkdir("/a", false))
	require.NoError(t, f.Write("/a/f", []byte("1"), common.FileTypeNormal))

	st, err := f.Stat("/a/f")
	require.NoError(t, err)

	cached, ok := f.cache.Get("/a/f")
	require.True(t, ok)
	require.Equal(t, st.Inode, cached)

	require.NoError(t, f.Move("/a/f", "/g"))
	_, err = f.Stat("/a/f")
	require.ErrorIs(t, err, common.ErrNotFound)

	got, err := f.Read("/g")
	require.NoError(t, err)
	require.Equal(t, []byte("1"), got)

	require.NoError(t, f.Remove("/g", false))
	_, err = f.Read("/g")
	require.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, f.Write("/g", []byte("2"), common.FileTypeNormal))
	got, err = f.Read("//g/")
	require.NoError(t, err)
	require.Equal(t, []byte("2"), got)
}

type testMetrics struct {
	ops      map[string]int
	failures int
	written  uint64
	capacity uint64
	used     uint64
}

func (m *testMetrics) AddOperation(op string, success bool) {
	m.ops[op]++
	if !success {
		m.failures++
	}
}

func (m *testMetrics) AddWrittenBytes(n uint64) { m.written += n }

func (m *testMetrics) SetSpace(capacity, used uint64) { m.capacity, m.used = capacity, used }

func TestFileSystem_Metrics(t *testing.T) {
	m := &testMetrics{ops: make(map[string]int)}
	f := newFS(t, 5000, WithMetrics(m))

	require.EqualValues(t, 5000, m.capacity)

	require.NoError(t, f.Mkdir("/a", false))
	require.NoError(t, f.Write("/a/f", []byte("12345"), common.FileTypeNormal))
	require.Error(t, f.Write("/b/f", []byte("12345"), common.FileTypeNormal))
	require.NoError(t, f.Remove("/a", true))

	require.Equal(t, map[string]int{"mkdir": 1, "write": 2, "remove": 1}, m.ops)
	require.Equal(t, 1, m.failures)
	require.EqualValues(t, 5, m.written)
	require.Equal(t, f.Store().BytesUsed(), m.used)
}
