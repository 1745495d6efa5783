package store

import (
	"fmt"
	"strconv"

	common "github.com/nspcc-dev/oxfs/cmd/oxfs-lens/internal"
	"github.com/spf13/cobra"
)

var inodeCMD = &cobra.Command{
	Use:   "inode <id>",
	Short: "Get blob by inode",
	Long:  `Read a blob by its inode id bypassing directories.`,
	Args:  cobra.ExactArgs(1),
	RunE:  inodeFunc,
}

func init() {
	common.AddImageFlags(inodeCMD)
	common.AddOutputFileFlag(inodeCMD, &vOut)
}

func inodeFunc(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseUint(args[0], 0, 64)
	if err != nil {
		return fmt.Errorf("invalid inode id: %w", err)
	}

	fsys, err := common.OpenImage(cmd)
	if err != nil {
		return err
	}

	st, err := fsys.StatInode(id)
	if err != nil {
		return common.Errf("could not stat inode: %w", err)
	}

	data, err := fsys.ReadInode(id)
	if err != nil {
		return common.Errf("could not read inode: %w", err)
	}

	if vOut != "" {
		cmd.Printf("Inode: %d, links: %d, size: %d, type: %s\n", st.Inode, st.Links, st.Size, st.FileType)
	}

	return common.WriteToFile(cmd, vOut, data)
}
