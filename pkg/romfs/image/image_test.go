package image

import (
	"testing"

	"github.com/nspcc-dev/oxfs/pkg/romfs/common"
	"github.com/nspcc-dev/oxfs/pkg/romfs/compression"
	"github.com/nspcc-dev/oxfs/pkg/romfs/filesystem"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newImage(t *testing.T) *filesystem.FileSystem {
	f, err := filesystem.New(make([]byte, 4096), filesystem.WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	require.NoError(t, f.Format())
	require.NoError(t, f.Mkdir("/etc", false))
	require.NoError(t, f.Write("/etc/motd", []byte("hello"), common.FileTypeNormal))
	return f
}

func TestSaveLoad(t *testing.T) {
	for _, enabled := range []bool{false, true} {
		c := &compression.Config{Enabled: enabled}
		require.NoError(t, c.Init())

		fs := afero.NewMemMapFs()
		f := newImage(t)

		const path = "/out/rom.oxfs"

		ok, err := Exists(fs, path)
		require.NoError(t, err)
		require.False(t, ok)

		require.NoError(t, Save(fs, path, f.Bytes(), c))

		ok, err = Exists(fs, path)
		require.NoError(t, err)
		require.True(t, ok)

		raw, err := afero.ReadFile(fs, path)
		require.NoError(t, err)
		require.Equal(t, enabled, c.IsCompressed(raw))

		var reader compression.Config
		require.NoError(t, reader.Init())

		data, err := Load(fs, path, &reader)
		require.NoError(t, err)
		require.Equal(t, f.Bytes(), data)

		opened, err := Open(fs, path, &reader)
		require.NoError(t, err)

		got, err := opened.Read("/etc/motd")
		require.NoError(t, err)
		require.Equal(t, []byte("hello"), got)

		entries, err := afero.ReadDir(fs, "/out")
		require.NoError(t, err)
		require.Len(t, entries, 1, "temporary file is removed")
	}
}

func TestLoad(t *testing.T) {
	var c compression.Config
	require.NoError(t, c.Init())

	fs := afero.NewMemMapFs()

	_, err := Load(fs, "/missing", &c)
	require.Error(t, err)

	require.NoError(t, afero.WriteFile(fs, "/garbage", []byte("not an image"), Perm))

	_, err = Open(fs, "/garbage", &c)
	require.ErrorIs(t, err, common.ErrCorrupted)
}
