package files

import (
	"fmt"
	"io"

	common "github.com/nspcc-dev/oxfs/cmd/oxfs-lens/internal"
	romfscommon "github.com/nspcc-dev/oxfs/pkg/romfs/common"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var statCMD = &cobra.Command{
	Use:   "stat <path>",
	Short: "File metadata",
	Long:  `Print inode, link count, size and type of an image file.`,
	Args:  cobra.ExactArgs(1),
	RunE:  statFunc,
}

func init() {
	common.AddImageFlags(statCMD)
	common.AddYAMLFlag(statCMD, &vYAML)
}

func statFunc(cmd *cobra.Command, args []string) error {
	fsys, err := common.OpenImage(cmd)
	if err != nil {
		return err
	}

	st, err := fsys.Stat(args[0])
	if err != nil {
		return common.Errf("could not stat file: %w", err)
	}

	return printStat(cmd.OutOrStdout(), args[0], st, vYAML)
}

func printStat(w io.Writer, p string, st romfscommon.StatInfo, asYAML bool) error {
	if asYAML {
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(st); err != nil {
			return err
		}
		return enc.Close()
	}

	_, err := fmt.Fprintf(w, "Path: %s\nInode: %d\nLinks: %d\nSize: %d\nType: %s\n",
		p, st.Inode, st.Links, st.Size, st.FileType)
	return err
}
