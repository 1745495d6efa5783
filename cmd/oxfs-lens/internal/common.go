package common

import (
	"fmt"

	"github.com/nspcc-dev/oxfs/cmd/internal/config"
	"github.com/nspcc-dev/oxfs/pkg/romfs/compression"
	"github.com/nspcc-dev/oxfs/pkg/romfs/filesystem"
	"github.com/nspcc-dev/oxfs/pkg/romfs/image"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// HostFs is the file system images are read from and files are written to.
var HostFs = afero.NewOsFs()

// Errf returns formatted error in errFmt format if err is not nil.
func Errf(errFmt string, err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf(errFmt, err)
}

// OpenImage loads the image pointed by the image flags and the config.
func OpenImage(cmd *cobra.Command) (*filesystem.FileSystem, error) {
	ff := cmd.Flags()
	cfgPath, _ := ff.GetString(flagConfig)

	cfg, err := config.New(
		config.WithConfigFile(cfgPath),
		config.WithFlag("image.path", ff.Lookup(flagImage)),
		config.WithFlag("image.width", ff.Lookup(flagWidth)),
	)
	if err != nil {
		return nil, err
	}

	if cfg.Image.Path == "" {
		return nil, fmt.Errorf("image path is not set, use --%s or the config", flagImage)
	}

	w, err := cfg.ImageWidth()
	if err != nil {
		return nil, err
	}

	// decoder only
	var c compression.Config

	if err = c.Init(); err != nil {
		return nil, Errf("failed to init compression config: %w", err)
	}
	defer func() { _ = c.Close() }()

	return image.Open(HostFs, cfg.Image.Path, &c,
		filesystem.WithWidth(w),
		filesystem.WithLogger(zap.NewNop()),
	)
}

// WriteToFile writes data to the host file or to the command output if path
// is empty.
func WriteToFile(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}

	if err := afero.WriteFile(HostFs, path, data, image.Perm); err != nil {
		return fmt.Errorf("could not write file: %w", err)
	}

	cmd.Printf("Saved %d bytes to %s\n", len(data), path)

	return nil
}
