package store

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
	"testing"

	"github.com/mr-tron/base58"
	common "github.com/nspcc-dev/oxfs/cmd/oxfs-lens/internal"
	romfscommon "github.com/nspcc-dev/oxfs/pkg/romfs/common"
	"github.com/nspcc-dev/oxfs/pkg/romfs/compression"
	"github.com/nspcc-dev/oxfs/pkg/romfs/filesystem"
	"github.com/nspcc-dev/oxfs/pkg/romfs/image"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const imagePath = "/rom.oxfs"

func newImage(t *testing.T) *filesystem.FileSystem {
	f, err := filesystem.New(make([]byte, 4096), filesystem.WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	require.NoError(t, f.Format())
	require.NoError(t, f.Write("/motd", []byte("hello"), romfscommon.FileTypeNormal))

	common.HostFs = afero.NewMemMapFs()
	t.Cleanup(func() { common.HostFs = afero.NewOsFs() })

	var c compression.Config
	require.NoError(t, c.Init())
	require.NoError(t, image.Save(common.HostFs, imagePath, f.Bytes(), &c))

	return f
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

func TestPrintLayout(t *testing.T) {
	f := newImage(t)

	var buf bytes.Buffer
	require.NoError(t, printLayout(&buf, f))

	out := buf.String()
	require.Contains(t, out, "<header>")
	require.Contains(t, out, "directory")
	require.Contains(t, out, "file")
	require.Contains(t, out, fmt.Sprint(f.RootInode()))
}

func TestCommands(t *testing.T) {
	f := newImage(t)

	_, err := run(t, "verify")
	require.Error(t, err, "image path is required")

	out, err := run(t, "verify", "-i", imagePath)
	require.NoError(t, err)
	require.Equal(t, "Image is consistent\n", out)

	seed, err := f.Store().Seed()
	require.NoError(t, err)

	out, err = run(t, "status", "-i", imagePath)
	require.NoError(t, err)
	require.Contains(t, out, "Width: 32-bit\n")
	require.Contains(t, out, "Capacity: 4096\n")
	require.Contains(t, out, fmt.Sprintf("Used: %d\n", f.Store().BytesUsed()))
	require.Contains(t, out, fmt.Sprintf("Root inode: %d\n", f.RootInode()))
	require.Contains(t, out, "Seed: "+base58.Encode(seed)+"\n")

	out, err = run(t, "walk", "-i", imagePath)
	require.NoError(t, err)
	require.Contains(t, out, "<header>")

	out, err = run(t, "inode", "-i", imagePath, fmt.Sprint(filesystem.FsDataInode))
	require.NoError(t, err)
	require.EqualValues(t, f.RootInode(), binary.LittleEndian.Uint32([]byte(out)))

	st, err := f.Stat("/motd")
	require.NoError(t, err)

	out, err = run(t, "inode", "-i", imagePath, "-o", "/motd", fmt.Sprint(st.Inode))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, fmt.Sprintf("Inode: %d, links: 1, size: 5, type: file\n", st.Inode)))

	data, err := afero.ReadFile(common.HostFs, "/motd")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), data)

	_, err = run(t, "inode", "-i", imagePath, "1")
	require.ErrorIs(t, err, romfscommon.ErrNotFound)

	_, err = run(t, "inode", "-i", imagePath, "x")
	require.Error(t, err)
}
