package files

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	common "github.com/nspcc-dev/oxfs/cmd/oxfs-lens/internal"
	romfscommon "github.com/nspcc-dev/oxfs/pkg/romfs/common"
	"github.com/nspcc-dev/oxfs/pkg/romfs/compression"
	"github.com/nspcc-dev/oxfs/pkg/romfs/filesystem"
	"github.com/nspcc-dev/oxfs/pkg/romfs/image"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const imagePath = "/images/rom.oxfs"

func newImage(t *testing.T) *filesystem.FileSystem {
	f, err := filesystem.New(make([]byte, 8192), filesystem.WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	require.NoError(t, f.Format())

	require.NoError(t, f.Mkdir("/etc", false))
	require.NoError(t, f.Mkdir("/bin", false))
	require.NoError(t, f.Write("/etc/motd", []byte("hello"), romfscommon.FileTypeNormal))
	require.NoError(t, f.Write("/bin/tool", bytes.Repeat([]byte{1}, 2000), romfscommon.FileTypeNormal))

	return f
}

func saveImage(t *testing.T, f *filesystem.FileSystem) {
	common.HostFs = afero.NewMemMapFs()
	t.Cleanup(func() { common.HostFs = afero.NewOsFs() })

	c := compression.Config{Enabled: true}
	require.NoError(t, c.Init())
	require.NoError(t, image.Save(common.HostFs, imagePath, f.Bytes(), &c))
}

func run(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer

	Root.SetOut(&out)
	Root.SetErr(&out)
	Root.SetArgs(args)
	t.Cleanup(func() { Root.SetOut(nil); Root.SetErr(nil) })

	err := Root.Execute()
	return out.String(), err
}

func TestPrintTree(t *testing.T) {
	f := newImage(t)

	var buf bytes.Buffer
	require.NoError(t, printTree(&buf, f, "/"))
	require.Equal(t, `/
  bin/
    tool (2000)
  etc/
    motd (5)
`, buf.String())

	buf.Reset()
	require.NoError(t, printTree(&buf, f, "/etc"))
	require.Equal(t, "/etc\n  motd (5)\n", buf.String())

	require.ErrorIs(t, printTree(&buf, f, "/none"), romfscommon.ErrNotFound)
}

func TestPrintStat(t *testing.T) {
	f := newImage(t)

	st, err := f.Stat("/etc/motd")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printStat(&buf, "/etc/motd", st, true))
	require.Equal(t, fmt.Sprintf("inode: %d\nlinks: 1\nsize: 5\ntype: file\n", st.Inode), buf.String())

	buf.Reset()
	require.NoError(t, printStat(&buf, "/etc/motd", st, false))
	require.Equal(t, fmt.Sprintf("Path: /etc/motd\nInode: %d\nLinks: 1\nSize: 5\nType: file\n", st.Inode), buf.String())
}

func TestShell(t *testing.T) {
	var out bytes.Buffer

	sh := newShell(newImage(t), &out)

	exec := func(line string) error {
		out.Reset()
		exit, err := sh.exec(line)
		require.False(t, exit)
		return err
	}

	require.NoError(t, exec(""))
	require.NoError(t, exec("pwd"))
	require.Equal(t, "/\n", out.String())

	require.NoError(t, exec("cd etc"))
	require.NoError(t, exec("pwd"))
	require.Equal(t, "/etc\n", out.String())

	require.NoError(t, exec("cat motd"))
	require.Equal(t, "hello", out.String())

	require.NoError(t, exec(`cat "../etc/motd"`))
	require.Equal(t, "hello", out.String())

	require.NoError(t, exec("ls"))
	require.Contains(t, out.String(), "motd")

	require.NoError(t, exec("stat /bin/tool"))
	require.Contains(t, out.String(), "Size: 2000")

	require.Error(t, exec("cd motd"))
	require.ErrorIs(t, exec("cd /none"), romfscommon.ErrNotFound)
	require.Error(t, exec("cat"))
	require.Error(t, exec("ls a b"))
	require.Error(t, exec("rm motd"))

	require.NoError(t, exec("cd"))
	require.NoError(t, exec("tree"))
	require.Equal(t, "/\n  bin/\n    tool (2000)\n  etc/\n    motd (5)\n", out.String())

	require.NoError(t, exec("help"))
	require.Contains(t, out.String(), "commands:")

	exit, err := sh.exec("exit")
	require.NoError(t, err)
	require.True(t, exit)
}

func TestCommands(t *testing.T) {
	f := newImage(t)
	saveImage(t, f)

	st, err := f.Stat("/etc/motd")
	require.NoError(t, err)

	out, err := run(t, "ls", "-i", imagePath)
	require.NoError(t, err)
	require.Contains(t, out, "bin")
	require.Contains(t, out, "etc")
	require.Contains(t, out, "directory")

	out, err = run(t, "tree", "-i", imagePath, "/bin")
	require.NoError(t, err)
	require.Equal(t, "/bin\n  tool (2000)\n", out)

	out, err = run(t, "stat", "--yaml", "-i", imagePath, "/etc/motd")
	require.NoError(t, err)
	require.Equal(t, fmt.Sprintf("inode: %d\nlinks: 1\nsize: 5\ntype: file\n", st.Inode), out)

	out, err = run(t, "get", "-i", imagePath, "/etc/motd")
	require.NoError(t, err)
	require.Equal(t, "hello", out)

	out, err = run(t, "get", "-i", imagePath, "-o", "/motd.txt", "/etc/motd")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "Saved 5 bytes"))

	data, err := afero.ReadFile(common.HostFs, "/motd.txt")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), data)

	_, err = run(t, "get", "-i", imagePath, "/etc/none")
	require.ErrorIs(t, err, romfscommon.ErrNotFound)

	_, err = run(t, "ls", "-i", "/images/missing.oxfs")
	require.Error(t, err)

	_, err = run(t, "ls", "-i", imagePath, "--width", "16")
	require.Error(t, err)
}
