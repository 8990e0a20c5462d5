// Package cmd implements the raster3d command-line tool: a render
// subcommand for a single still frame and an animate subcommand for a
// frame sequence, both driven by a TOML config file per the spf13/cobra
// idiom.
package cmd

import (
	"github.com/spf13/cobra"
)

// Execute runs the root command, returning the first error encountered.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "raster3d",
		Short: "CPU software rasterizer for static OBJ/glTF scenes",
	}
	root.AddCommand(newRenderCmd())
	root.AddCommand(newAnimateCmd())
	return root
}
