package store

import (
	"github.com/spf13/cobra"
)

var vOut string

// Root defines root command for low-level operations with the image blob
// store.
var Root = &cobra.Command{
	Use:   "store",
	Short: "Operations with the image blob store",
}

func init() {
	Root.AddCommand(walkCMD)
	Root.AddCommand(verifyCMD)
	Root.AddCommand(statusCMD)
	Root.AddCommand(inodeCMD)
}
