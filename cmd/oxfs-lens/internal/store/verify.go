package store

import (
	common "github.com/nspcc-dev/oxfs/cmd/oxfs-lens/internal"
	"github.com/spf13/cobra"
)

var verifyCMD = &cobra.Command{
	Use:   "verify",
	Short: "Image integrity check",
	Long:  `Check space accounting and the blob index of the image.`,
	Args:  cobra.NoArgs,
	RunE:  verifyFunc,
}

func init() {
	common.AddImageFlags(verifyCMD)
}

func verifyFunc(cmd *cobra.Command, _ []string) error {
	fsys, err := common.OpenImage(cmd)
	if err != nil {
		return err
	}

	if err = fsys.Verify(); err != nil {
		return common.Errf("image is inconsistent: %w", err)
	}

	cmd.Println("Image is consistent")

	return nil
}
