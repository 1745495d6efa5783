package files

import (
	"path"
	"sort"

	"github.com/nspcc-dev/oxfs/pkg/romfs/common"
	"github.com/nspcc-dev/oxfs/pkg/romfs/filesystem"
	"github.com/spf13/cobra"
)

var (
	vOut  string
	vYAML bool
)

// Root defines root command for operations with image paths.
var Root = &cobra.Command{
	Use:   "fs",
	Short: "Operations with image files and directories",
}

func init() {
	Root.AddCommand(lsCMD)
	Root.AddCommand(statCMD)
	Root.AddCommand(getCMD)
	Root.AddCommand(treeCMD)
	Root.AddCommand(shellCMD)
}

type listEntry struct {
	name string
	stat common.StatInfo
}

// list returns directory entries sorted by name.
func list(fsys *filesystem.FileSystem, dir string) ([]listEntry, error) {
	var names []string

	err := fsys.Ls(dir, func(name string, _ uint64) error {
		names = append(names, name)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(names)

	res := make([]listEntry, 0, len(names))

	for _, name := range names {
		st, err := fsys.Stat(path.Join(dir, name))
		if err != nil {
			return nil, err
		}

		res = append(res, listEntry{name: name, stat: st})
	}

	return res, nil
}

func pathArg(args []string) string {
	if len(args) == 0 {
		return "/"
	}
	return args[0]
}
