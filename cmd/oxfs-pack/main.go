package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/cheggaaa/pb"
	"github.com/nspcc-dev/oxfs/cmd/internal/cmderr"
	"github.com/nspcc-dev/oxfs/cmd/internal/config"
	"github.com/nspcc-dev/oxfs/cmd/oxfs-pack/internal/pack"
	"github.com/nspcc-dev/oxfs/misc"
	"github.com/nspcc-dev/oxfs/pkg/metrics"
	"github.com/nspcc-dev/oxfs/pkg/romfs/common"
	"github.com/nspcc-dev/oxfs/pkg/romfs/filesystem"
	"github.com/nspcc-dev/oxfs/pkg/romfs/image"
	"github.com/nspcc-dev/oxfs/pkg/util"
	"github.com/nspcc-dev/oxfs/pkg/util/autocomplete"
	"github.com/nspcc-dev/oxfs/pkg/util/grace"
	"github.com/nspcc-dev/oxfs/pkg/util/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

const (
	configFlag     = "config"
	capacityFlag   = "capacity"
	widthFlag      = "width"
	compressFlag   = "compress"
	levelFlag      = "level"
	workersFlag    = "workers"
	pathCacheFlag  = "path-cache"
	verifyFlag     = "verify"
	shrinkFlag     = "shrink"
	growFlag       = "grow"
	textfileFlag   = "metrics-textfile"
	logLevelFlag   = "log-level"
	noProgressFlag = "no-progress"
	versionFlag    = "version"
)

// hostFs is the file system source trees and images are taken from.
var hostFs = afero.NewOsFs()

func newCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "oxfs-pack [flags] <source-dir> [<image>]",
		Short: "ox fs image packer",
		Long: `oxfs-pack copies a host directory tree into a new ox fs image.

Every file is read back and compared with the source after it is written.
The image is grown while it runs out of space, unless --grow=false is given.
Image path may be omitted if it is set in the configuration.`,
		Args:          cobra.RangeArgs(0, 2),
		RunE:          packFunc,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// use stdout as default output for cmd.Print()
	cmd.SetOut(os.Stdout)

	ff := cmd.Flags()
	ff.StringP(configFlag, "c", "", "Path to the configuration file")
	ff.String(capacityFlag, "", "Initial image capacity, e.g. 64k or 32M")
	ff.Uint64(widthFlag, config.WidthDefault, "Address width of the image in bits: 16 or 32")
	ff.Bool(compressFlag, false, "Compress image file with zstd")
	ff.String(levelFlag, config.LevelDefault, "Compression level: fastest, default, better or best")
	ff.Int(workersFlag, config.WorkersDefault, "Number of host file readers")
	ff.Int(pathCacheFlag, config.PathCacheDefault, "Number of cached path lookups, 0 disables the cache")
	ff.Bool(verifyFlag, true, "Read every file back after it is written")
	ff.Bool(shrinkFlag, false, "Shrink the image to the minimal size")
	ff.Bool(growFlag, true, "Grow the image when it runs out of space")
	ff.String(textfileFlag, "", "Write image metrics to the file in Prometheus text format")
	ff.String(logLevelFlag, config.LogLevelDefault, "Logging level")
	ff.Bool(noProgressFlag, false, "Do not show progress bar")
	ff.Bool(versionFlag, false, "Application version")

	cmd.AddCommand(autocomplete.Command("oxfs-pack"))

	return cmd
}

func readConfig(cmd *cobra.Command) (*config.Config, error) {
	ff := cmd.Flags()
	cfgPath, _ := ff.GetString(configFlag)

	return config.New(
		config.WithConfigFile(cfgPath),
		config.WithFlag("image.capacity", ff.Lookup(capacityFlag)),
		config.WithFlag("image.width", ff.Lookup(widthFlag)),
		config.WithFlag("image.compress", ff.Lookup(compressFlag)),
		config.WithFlag("image.level", ff.Lookup(levelFlag)),
		config.WithFlag("pack.workers", ff.Lookup(workersFlag)),
		config.WithFlag("pack.path_cache", ff.Lookup(pathCacheFlag)),
		config.WithFlag("pack.verify", ff.Lookup(verifyFlag)),
		config.WithFlag("pack.shrink", ff.Lookup(shrinkFlag)),
		config.WithFlag("metrics.textfile", ff.Lookup(textfileFlag)),
		config.WithFlag("logger.level", ff.Lookup(logLevelFlag)),
	)
}

func packFunc(cmd *cobra.Command, args []string) error {
	if v, _ := cmd.Flags().GetBool(versionFlag); v {
		cmd.Print(misc.BuildInfo("oxfs-pack"))
		return nil
	}

	cfg, err := readConfig(cmd)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		return errors.New("missing source directory")
	}

	src, dst := args[0], cfg.Image.Path
	if len(args) > 1 {
		dst = args[1]
	}
	if dst == "" {
		return errors.New("missing image path")
	}

	logPrm, err := cfg.LoggerPrm()
	if err != nil {
		return err
	}

	log, err := logger.NewLogger(logPrm)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := grace.NewGracefulContext(cmd.Context(), log)
	defer cancel()

	width, err := cfg.ImageWidth()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	m := metrics.NewImageMetrics(reg, misc.Version)

	fsys, err := filesystem.New(make([]byte, cfg.ImageCapacity()),
		filesystem.WithLogger(log),
		filesystem.WithWidth(width),
		filesystem.WithPathCache(cfg.Pack.PathCache),
		filesystem.WithMetrics(m),
	)
	if err != nil {
		return err
	}

	if err = fsys.Format(); err != nil {
		return fmt.Errorf("format image: %w", err)
	}

	pool, err := util.NewWorkerPool(cfg.Pack.Workers)
	if err != nil {
		return err
	}
	defer pool.Release()

	opts := []pack.Option{
		pack.WithLogger(log),
		pack.WithWorkerPool(pool),
		pack.WithVerify(cfg.Pack.Verify),
	}

	if grow, _ := cmd.Flags().GetBool(growFlag); grow {
		opts = append(opts, pack.WithMaxCapacity(width.MaxValue()))
	}

	var bar *pb.ProgressBar

	noProgress, _ := cmd.Flags().GetBool(noProgressFlag)
	if !noProgress && term.IsTerminal(int(os.Stderr.Fd())) {
		total, err := pack.CountFiles(hostFs, src)
		if err != nil {
			cmd.PrintErrf("Failed to count source files, progress bar is disabled: %v\n", err)
		} else {
			bar = pb.New(total)
			bar.Output = cmd.ErrOrStderr()
			bar.Start()

			opts = append(opts, pack.WithFileCallback(func(string, int) { bar.Increment() }))
		}
	}

	stats, err := pack.New(fsys, opts...).Pack(ctx, hostFs, src)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}

	if cfg.Pack.Shrink {
		if err = fsys.Resize(); err != nil {
			return fmt.Errorf("shrink image: %w", err)
		}
	}

	if err = fsys.Verify(); err != nil {
		return fmt.Errorf("image verification: %w", err)
	}

	var inodes uint64

	err = fsys.Walk(func(id uint64, _ common.FileType, _, _ uint64) error {
		if id != 0 {
			inodes++
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.SetInodes(inodes)

	cc := cfg.Compression()
	if err = cc.Init(); err != nil {
		return fmt.Errorf("init compression: %w", err)
	}
	defer func() { _ = cc.Close() }()

	if err = image.Save(hostFs, dst, fsys.Bytes(), cc); err != nil {
		return err
	}

	if cfg.Metrics.Textfile != "" {
		if err = prometheus.WriteToTextfile(cfg.Metrics.Textfile, reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	log.Info("image packed",
		zap.String("source", src),
		zap.String("image", dst),
		zap.Int("dirs", stats.Dirs),
		zap.Int("files", stats.Files),
		zap.Int("expansions", stats.Expansions))

	cmd.Printf("Packed %d directories and %d files (%d bytes) into %s\n", stats.Dirs, stats.Files, stats.Bytes, dst)
	cmd.Printf("Image: %d bytes, %d used, %d inodes\n", fsys.Size(), fsys.Store().BytesUsed(), inodes)

	return nil
}

func main() {
	cmderr.ExitOnErr(newCommand().Execute())
}
