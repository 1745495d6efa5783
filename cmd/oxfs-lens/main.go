package main

import (
	"os"

	"github.com/nspcc-dev/oxfs/cmd/internal/cmderr"
	"github.com/nspcc-dev/oxfs/cmd/oxfs-lens/internal/files"
	"github.com/nspcc-dev/oxfs/cmd/oxfs-lens/internal/store"
	"github.com/nspcc-dev/oxfs/misc"
	"github.com/nspcc-dev/oxfs/pkg/util/autocomplete"
	"github.com/spf13/cobra"
)

var command = &cobra.Command{
	Use:           "oxfs-lens",
	Short:         "ox fs image lens",
	Long:          `oxfs-lens provides tools to browse the contents of ox fs images.`,
	RunE:          entryPoint,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func entryPoint(cmd *cobra.Command, _ []string) error {
	printVersion, _ := cmd.Flags().GetBool("version")
	if printVersion {
		cmd.Print(misc.BuildInfo("oxfs-lens"))

		return nil
	}

	return cmd.Usage()
}

func init() {
	// use stdout as default output for cmd.Print()
	command.SetOut(os.Stdout)
	command.Flags().Bool("version", false, "Application version")
	command.AddCommand(
		files.Root,
		store.Root,
		autocomplete.Command("oxfs-lens"),
	)
}

func main() {
	err := command.Execute()
	cmderr.ExitOnErr(err)
}
