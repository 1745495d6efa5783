package store

import (
	"github.com/mr-tron/base58"
	common "github.com/nspcc-dev/oxfs/cmd/oxfs-lens/internal"
	"github.com/spf13/cobra"
)

var statusCMD = &cobra.Command{
	Use:   "status",
	Short: "Image status",
	Long:  `Print capacity, usage, root directory inode and inode generator seed of the image.`,
	Args:  cobra.NoArgs,
	RunE:  statusFunc,
}

func init() {
	common.AddImageFlags(statusCMD)
}

func statusFunc(cmd *cobra.Command, _ []string) error {
	fsys, err := common.OpenImage(cmd)
	if err != nil {
		return err
	}

	store := fsys.Store()

	seed, err := store.Seed()
	if err != nil {
		return common.Errf("could not read image header: %w", err)
	}

	cmd.Printf("Width: %s\n", store.Width())
	cmd.Printf("Capacity: %d\n", store.Size())
	cmd.Printf("Used: %d\n", store.BytesUsed())
	cmd.Printf("Available: %d\n", store.Available())
	cmd.Printf("Root inode: %d\n", fsys.RootInode())
	cmd.Printf("Seed: %s\n", base58.Encode(seed))

	return nil
}
