package files

import (
	common "github.com/nspcc-dev/oxfs/cmd/oxfs-lens/internal"
	"github.com/spf13/cobra"
)

var getCMD = &cobra.Command{
	Use:   "get <path>",
	Short: "Get file",
	Long:  `Read a file from the image and save it or print it to stdout.`,
	Args:  cobra.ExactArgs(1),
	RunE:  getFunc,
}

func init() {
	common.AddImageFlags(getCMD)
	common.AddOutputFileFlag(getCMD, &vOut)
}

func getFunc(cmd *cobra.Command, args []string) error {
	fsys, err := common.OpenImage(cmd)
	if err != nil {
		return err
	}

	data, err := fsys.Read(args[0])
	if err != nil {
		return common.Errf("could not read file: %w", err)
	}

	return common.WriteToFile(cmd, vOut, data)
}
