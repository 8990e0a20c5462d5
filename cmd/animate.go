package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cogentraster/raster3d/animate"
	"github.com/cogentraster/raster3d/config"
	"github.com/cogentraster/raster3d/engine"
	"github.com/cogentraster/raster3d/scene"
)

// firstObject returns the scene's first object, the target for
// ObjectLocalRotation animation (this CLI only ever builds single-object
// scenes), or nil if the scene has none.
func firstObject(sc *scene.Scene) *scene.SceneObject {
	if len(sc.Objects) == 0 {
		return nil
	}
	return sc.Objects[0]
}

func newAnimateCmd() *cobra.Command {
	var frames int
	var outDir string

	cmd := &cobra.Command{
		Use:   "animate <config.toml>",
		Short: "Render an animated frame sequence from a TOML settings file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if frames > 0 {
				rs.Animation.Frames = frames
			}
			if outDir != "" {
				rs.Files.OutDir = outDir
			}
			if rs.Animation.Frames <= 0 {
				rs.Animation.Frames = 60
			}

			logger := slog.Default()
			sc, opts, err := config.Build(rs, logger)
			if err != nil {
				return err
			}

			driver, err := animate.New(rs.Animation, firstObject(sc))
			if err != nil {
				return err
			}

			eng := engine.New(sc, opts)
			defer eng.Close()

			base := rs.Files.OutBase
			if base == "" {
				base = "frame"
			}
			for i := 0; i < rs.Animation.Frames; i++ {
				ctx := context.Background()
				if err := eng.RenderFrame(ctx); err != nil {
					return fmt.Errorf("rendering frame %d: %w", i, err)
				}
				path := filepath.Join(rs.Files.OutDir, fmt.Sprintf("%s_%03d_color.png", base, i))
				if err := eng.WriteColorPNG(path); err != nil {
					return err
				}
				driver.Step(sc)

				// Tell the background cache exactly what the step just
				// moved, per the invalidation contract: an orbiting camera
				// changes which ground point every pixel ray hits, so both
				// ground tiers need to rebuild; a spinning object only
				// changes its own shadow-map silhouette, so only the
				// ground-shadow tier does. The sky never depends on either.
				switch driver.Kind() {
				case animate.CameraOrbit:
					eng.InvalidateGroundBase()
					eng.InvalidateGroundShadow()
				case animate.ObjectLocalRotation:
					eng.InvalidateGroundShadow()
				}
			}
			logger.Info("rendered animation", "frames", rs.Animation.Frames, "out_dir", rs.Files.OutDir)
			return nil
		},
	}

	cmd.Flags().IntVar(&frames, "frames", 0, "override frame count")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "override output directory")
	return cmd
}
