package files

import (
	"io"
	"strconv"

	common "github.com/nspcc-dev/oxfs/cmd/oxfs-lens/internal"
	"github.com/nspcc-dev/oxfs/pkg/romfs/filesystem"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var lsCMD = &cobra.Command{
	Use:   "ls [<path>]",
	Short: "Directory listing",
	Long:  `List entries of an image directory with their inodes, types and sizes.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  lsFunc,
}

func init() {
	common.AddImageFlags(lsCMD)
}

func lsFunc(cmd *cobra.Command, args []string) error {
	fsys, err := common.OpenImage(cmd)
	if err != nil {
		return err
	}

	return printList(cmd.OutOrStdout(), fsys, pathArg(args))
}

func printList(w io.Writer, fsys *filesystem.FileSystem, dir string) error {
	entries, err := list(fsys, dir)
	if err != nil {
		return common.Errf("could not list directory: %w", err)
	}

	out := tablewriter.NewWriter(w)
	out.SetHeader([]string{"Name", "Inode", "Type", "Size", "Links"})
	out.SetAutoWrapText(false)
	out.SetBorder(false)

	for _, e := range entries {
		out.Append([]string{
			e.name,
			strconv.FormatUint(e.stat.Inode, 10),
			e.stat.FileType.String(),
			strconv.FormatUint(e.stat.Size, 10),
			strconv.FormatUint(e.stat.Links, 10),
		})
	}

	out.Render()

	return nil
}
