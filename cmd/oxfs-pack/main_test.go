package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/nspcc-dev/oxfs/pkg/romfs/compression"
	"github.com/nspcc-dev/oxfs/pkg/romfs/image"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func runPack(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer

	cmd := newCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestPack(t *testing.T) {
	hostFs = afero.NewMemMapFs()
	t.Cleanup(func() { hostFs = afero.NewOsFs() })

	tool := bytes.Repeat([]byte("tool"), 500)

	require.NoError(t, hostFs.MkdirAll("/src/etc", 0o755))
	require.NoError(t, hostFs.MkdirAll("/src/bin", 0o755))
	require.NoError(t, afero.WriteFile(hostFs, "/src/etc/motd", []byte("hello"), 0o644))
	require.NoError(t, afero.WriteFile(hostFs, "/src/bin/tool", tool, 0o644))

	textfile := filepath.Join(t.TempDir(), "oxfs.prom")

	out, err := runPack(t,
		"--no-progress",
		"--log-level=warn",
		"--capacity=1k",
		"--compress",
		"--shrink",
		"--"+textfileFlag, textfile,
		"/src", "/out/rom.oxfs")
	require.NoError(t, err)
	require.Contains(t, out, "Packed 2 directories and 2 files (2005 bytes) into /out/rom.oxfs")
	require.Contains(t, out, "6 inodes")

	raw, err := afero.ReadFile(hostFs, "/out/rom.oxfs")
	require.NoError(t, err)

	var c compression.Config
	require.NoError(t, c.Init())
	require.True(t, c.IsCompressed(raw))

	f, err := image.Open(hostFs, "/out/rom.oxfs", &c)
	require.NoError(t, err)
	require.Zero(t, f.Available(), "image is shrunk")

	got, err := f.Read("/bin/tool")
	require.NoError(t, err)
	require.Equal(t, tool, got)

	got, err = f.Read("/etc/motd")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), got)

	metrics, err := os.ReadFile(textfile)
	require.NoError(t, err)
	require.Contains(t, string(metrics), "oxfs_space_inodes 6")
	require.Contains(t, string(metrics), `oxfs_operation_total{op="write",result="success"} 2`)

	t.Run("fixed size", func(t *testing.T) {
		_, err := runPack(t, "--no-progress", "--log-level=warn", "--capacity=1k", "--grow=false", "/src", "/out/small.oxfs")
		require.Error(t, err)

		ok, err := image.Exists(hostFs, "/out/small.oxfs")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("missing arguments", func(t *testing.T) {
		_, err := runPack(t, "--no-progress")
		require.Error(t, err)

		_, err = runPack(t, "--no-progress", "/src")
		require.Error(t, err)
	})

	t.Run("version", func(t *testing.T) {
		out, err := runPack(t, "--version")
		require.NoError(t, err)
		require.Contains(t, out, "oxfs-pack")
	})
}
