package store

import (
	"io"
	"strconv"

	common "github.com/nspcc-dev/oxfs/cmd/oxfs-lens/internal"
	romfscommon "github.com/nspcc-dev/oxfs/pkg/romfs/common"
	"github.com/nspcc-dev/oxfs/pkg/romfs/filesystem"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var walkCMD = &cobra.Command{
	Use:   "walk",
	Short: "Image layout",
	Long:  `List all blobs of the image in physical order with their offsets.`,
	Args:  cobra.NoArgs,
	RunE:  walkFunc,
}

func init() {
	common.AddImageFlags(walkCMD)
}

func walkFunc(cmd *cobra.Command, _ []string) error {
	fsys, err := common.OpenImage(cmd)
	if err != nil {
		return err
	}

	return printLayout(cmd.OutOrStdout(), fsys)
}

func printLayout(w io.Writer, fsys *filesystem.FileSystem) error {
	out := tablewriter.NewWriter(w)
	out.SetHeader([]string{"Start", "End", "Inode", "Type"})
	out.SetAutoWrapText(false)
	out.SetBorder(false)

	err := fsys.Walk(func(id uint64, fileType romfscommon.FileType, start, end uint64) error {
		inode := strconv.FormatUint(id, 10)
		if id == 0 {
			inode = "<header>"
		}

		out.Append([]string{
			strconv.FormatUint(start, 10),
			strconv.FormatUint(end, 10),
			inode,
			fileType.String(),
		})

		return nil
	})
	if err != nil {
		return common.Errf("image walk failure: %w", err)
	}

	out.Render()

	return nil
}
