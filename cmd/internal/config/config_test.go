package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nspcc-dev/oxfs/cmd/internal/configvalidator"
	"github.com/nspcc-dev/oxfs/pkg/romfs/ptrarith"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeYAML(t *testing.T, v any) string {
	data, err := yaml.Marshal(v)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

var fileConfig = map[string]any{
	"image": map[string]any{
		"path":     "/tmp/rom.oxfs",
		"capacity": "60k",
		"width":    16,
		"compress": true,
		"level":    "best",
	},
	"logger": map[string]any{
		"level":    "debug",
		"encoding": "json",
	},
	"pack": map[string]any{
		"workers":    8,
		"path_cache": 0,
		"verify":     false,
		"shrink":     true,
	},
	"metrics": map[string]any{
		"textfile": "/tmp/oxfs.prom",
	},
}

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c, err := New()
		require.NoError(t, err)

		require.Equal(t, Config{
			Image:  Image{Width: WidthDefault, Level: LevelDefault},
			Logger: Logger{Level: LogLevelDefault, Encoding: EncodingDefault},
			Pack:   Pack{Workers: WorkersDefault, PathCache: PathCacheDefault, Verify: true},
		}, *c)

		w, err := c.ImageWidth()
		require.NoError(t, err)
		require.Equal(t, ptrarith.Width32, w)
		require.EqualValues(t, CapacityDefault, c.ImageCapacity())
	})

	t.Run("file", func(t *testing.T) {
		c, err := New(WithConfigFile(writeYAML(t, fileConfig)))
		require.NoError(t, err)

		require.Equal(t, Config{
			Image:   Image{Path: "/tmp/rom.oxfs", Capacity: 60 << 10, Width: 16, Compress: true, Level: "best"},
			Logger:  Logger{Level: "debug", Encoding: "json"},
			Pack:    Pack{Workers: 8, Verify: false, Shrink: true},
			Metrics: Metrics{Textfile: "/tmp/oxfs.prom"},
		}, *c)

		cc := c.Compression()
		require.True(t, cc.Enabled)
		require.Equal(t, "best", cc.Level)
		require.NoError(t, cc.Init())
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"image":{"width":16}}`), 0o600))

		c, err := New(WithConfigFile(path))
		require.NoError(t, err)
		require.EqualValues(t, 16, c.Image.Width)
		require.Equal(t, ptrarith.Width16.MaxValue(), c.ImageCapacity())
	})

	t.Run("env", func(t *testing.T) {
		t.Setenv("OXFS_IMAGE_CAPACITY", "1 mb")
		t.Setenv("OXFS_PACK_PATH_CACHE", "7")

		c, err := New(WithConfigFile(writeYAML(t, fileConfig)))
		require.EqualError(t, err, "image capacity 1048576 exceeds 16-bit address space")
		require.Nil(t, c)

		t.Setenv("OXFS_IMAGE_WIDTH", "32")

		c, err = New(WithConfigFile(writeYAML(t, fileConfig)))
		require.NoError(t, err)
		require.EqualValues(t, 1<<20, c.Image.Capacity)
		require.Equal(t, 7, c.Pack.PathCache)
	})

	t.Run("flags", func(t *testing.T) {
		fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
		fs.Uint64("width", 32, "")
		fs.Bool("compress", false, "")
		fs.String("level", "", "")
		require.NoError(t, fs.Parse([]string{"--width=32", "--level=fastest"}))

		c, err := New(
			WithConfigFile(writeYAML(t, fileConfig)),
			WithFlag("image.width", fs.Lookup("width")),
			WithFlag("image.compress", fs.Lookup("compress")),
			WithFlag("image.level", fs.Lookup("level")),
			WithFlag("image.path", fs.Lookup("missing")),
		)
		require.NoError(t, err)
		require.EqualValues(t, 32, c.Image.Width)
		require.Equal(t, "fastest", c.Image.Level)
		require.True(t, c.Image.Compress, "unset flag does not override the file")
	})

	t.Run("home", func(t *testing.T) {
		home, err := os.UserHomeDir()
		if err != nil {
			t.Skip(err)
		}

		c, err := New(WithConfigFile(writeYAML(t, map[string]any{
			"image": map[string]any{"path": "~/rom.oxfs"},
		})))
		require.NoError(t, err)
		require.Equal(t, filepath.Join(home, "rom.oxfs"), c.Image.Path)
	})

	t.Run("invalid", func(t *testing.T) {
		for name, m := range map[string]map[string]any{
			"width":    {"image": map[string]any{"width": 24}},
			"workers":  {"pack": map[string]any{"workers": 0}},
			"level":    {"logger": map[string]any{"level": "loud"}},
			"encoding": {"logger": map[string]any{"encoding": "xml"}},
		} {
			_, err := New(WithConfigFile(writeYAML(t, m)))
			require.Error(t, err, name)
		}

		_, err := New(WithConfigFile(writeYAML(t, map[string]any{"image": map[string]any{"size": 1}})))
		require.ErrorIs(t, err, configvalidator.ErrUnknownField)

		_, err = New(WithConfigFile(filepath.Join(t.TempDir(), "missing.yaml")))
		require.Error(t, err)
	})
}

func TestParseSizeInBytes(t *testing.T) {
	for in, exp := range map[string]uint64{
		"":        0,
		"100":     100,
		"1b":      1,
		"64k":     64 << 10,
		"64 kb":   64 << 10,
		"12 MB":   12 << 20,
		"2g":      2 << 30,
		"1 gb":    1 << 30,
		"garbage": 0,
	} {
		require.Equal(t, exp, parseSizeInBytes(in), in)
	}

	require.Zero(t, safeMul(1<<40, 1<<30))
}
