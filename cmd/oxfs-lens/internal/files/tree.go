package files

import (
	"fmt"
	"io"
	"path"
	"strings"

	common "github.com/nspcc-dev/oxfs/cmd/oxfs-lens/internal"
	"github.com/nspcc-dev/oxfs/pkg/romfs/filesystem"
	"github.com/spf13/cobra"
)

var treeCMD = &cobra.Command{
	Use:   "tree [<path>]",
	Short: "Directory tree",
	Long:  `Print the whole directory tree under the path.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  treeFunc,
}

func init() {
	common.AddImageFlags(treeCMD)
}

func treeFunc(cmd *cobra.Command, args []string) error {
	fsys, err := common.OpenImage(cmd)
	if err != nil {
		return err
	}

	return printTree(cmd.OutOrStdout(), fsys, pathArg(args))
}

func printTree(w io.Writer, fsys *filesystem.FileSystem, root string) error {
	if _, err := fmt.Fprintln(w, root); err != nil {
		return err
	}

	return printSubtree(w, fsys, root, 1)
}

func printSubtree(w io.Writer, fsys *filesystem.FileSystem, dir string, depth int) error {
	entries, err := list(fsys, dir)
	if err != nil {
		return common.Errf("could not list directory: %w", err)
	}

	indent := strings.Repeat("  ", depth)

	for _, e := range entries {
		if e.stat.IsDir() {
			if _, err = fmt.Fprintf(w, "%s%s/\n", indent, e.name); err != nil {
				return err
			}

			if err = printSubtree(w, fsys, path.Join(dir, e.name), depth+1); err != nil {
				return err
			}

			continue
		}

		if _, err = fmt.Fprintf(w, "%s%s (%d)\n", indent, e.name, e.stat.Size); err != nil {
			return err
		}
	}

	return nil
}
