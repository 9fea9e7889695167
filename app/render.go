package app

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/soocke/pixel-recorder-go/domain/cache"
	"github.com/soocke/pixel-recorder-go/domain/project"
	"github.com/soocke/pixel-recorder-go/domain/render"
)

var (
	renderAt    uint64
	renderTime  time.Duration
	renderOut   string
	renderThumb string
)

var renderCmd = &cobra.Command{
	Use:   "render <project-dir>",
	Short: "Render one instant of a project to an image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := setup(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		cp, err := cache.Open(args[0])
		if err != nil {
			return err
		}
		ts := renderAt
		if cmd.Flags().Changed("time") {
			ts = project.TicksFromDuration(renderTime)
		}
		maxW, maxH := cp.Width, cp.Height
		if renderThumb != "" {
			if maxW, maxH, err = parseSize(renderThumb); err != nil {
				return err
			}
		}

		p, err := render.NewPreviewer(cp, c.Config.PreviewCacheSize, c.Logger)
		if err != nil {
			return err
		}
		img, err := render.Thumbnail(p, ts, maxW, maxH)
		if err != nil {
			return err
		}
		out := renderOut
		if out == "" {
			out = filepath.Join(cp.Dir, fmt.Sprintf("render_%d.png", ts))
		}
		if err := imaging.Save(img, out); err != nil {
			return fmt.Errorf("save %s: %w", out, err)
		}

		b := img.Bounds()
		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), map[string]any{
				"project": cp.Dir,
				"ticks":   ts,
				"width":   b.Dx(),
				"height":  b.Dy(),
				"out":     out,
			})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Rendered %s at %s (%dx%d, %s pixels) to %s\n",
			cp.Name, project.DurationFromTicks(ts), b.Dx(), b.Dy(), humanize.Comma(int64(b.Dx()*b.Dy())), out)
		return nil
	},
}

func init() {
	renderCmd.Flags().Uint64Var(&renderAt, "at", 0, "timestamp in 100ns ticks")
	renderCmd.Flags().DurationVar(&renderTime, "time", 0, "timestamp as a duration (overrides --at)")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "output image; format follows the extension (default <project>/render_<ticks>.png)")
	renderCmd.Flags().StringVar(&renderThumb, "thumb", "", "fit the image within WxH")
	rootCmd.AddCommand(renderCmd)
}

// parseSize reads "WxH".
func parseSize(s string) (int, int, error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("size %q: want WxH", s)
	}
	width, err := strconv.Atoi(w)
	if err != nil {
		return 0, 0, fmt.Errorf("size %q: %w", s, err)
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return 0, 0, fmt.Errorf("size %q: %w", s, err)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("size %q: must be positive", s)
	}
	return width, height, nil
}
