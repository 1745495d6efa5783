package common

import (
	"github.com/nspcc-dev/oxfs/cmd/internal/config"
	"github.com/spf13/cobra"
)

const (
	flagImage  = "image"
	flagWidth  = "width"
	flagConfig = "config"
	flagOut    = "out"
	flagYAML   = "yaml"
)

// AddImageFlags adds the flags pointing to the image.
func AddImageFlags(cmd *cobra.Command) {
	ff := cmd.Flags()
	ff.StringP(flagImage, "i", "", "Path to the image file")
	ff.Uint64(flagWidth, config.WidthDefault, "Address width of the image in bits: 16 or 32")
	ff.StringP(flagConfig, "c", "", "Path to the configuration file")
}

// AddOutputFileFlag adds the output file flag.
func AddOutputFileFlag(cmd *cobra.Command, v *string) {
	cmd.Flags().StringVarP(v, flagOut, "o", "",
		"File to save the contents to, stdout if omitted")
}

// AddYAMLFlag adds the flag to print results in YAML.
func AddYAMLFlag(cmd *cobra.Command, v *bool) {
	cmd.Flags().BoolVar(v, flagYAML, false, "Print in YAML format")
}
